package app

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/benbjohnson/clock"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	redisclient "github.com/raidpulse/raidpulse-backend/internal/clients/redis"
	"github.com/raidpulse/raidpulse-backend/internal/data/db"
	"github.com/raidpulse/raidpulse-backend/internal/data/repos"
	"github.com/raidpulse/raidpulse-backend/internal/jobs"
	"github.com/raidpulse/raidpulse-backend/internal/knowledge"
	"github.com/raidpulse/raidpulse-backend/internal/observability"
	"github.com/raidpulse/raidpulse-backend/internal/pkg/logger"
	"github.com/raidpulse/raidpulse-backend/internal/runtime"
	"github.com/raidpulse/raidpulse-backend/internal/scoring"
	"github.com/raidpulse/raidpulse-backend/internal/services"
)

const (
	knowledgeEmbedDim = 256
	shutdownTimeout   = 5 * time.Second
)

type Services struct {
	Identity      services.IdentityService
	Engagement    services.EngagementService
	Personality   services.PersonalityService
	Insight       services.InsightService
	Consolidation services.ConsolidationService
}

type App struct {
	Log      *logger.Logger
	DB       *gorm.DB
	Cfg      Config
	Repos    repos.All
	Services Services

	scheduler    *jobs.Scheduler
	bus          redisclient.StandingBus
	otelShutdown func(context.Context) error
	cancel       context.CancelFunc
}

func New() (*App, error) {
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	log.Info("Loading environment variables...")
	cfg := LoadConfig(log)
	clk := clock.New()

	otelShutdown := observability.InitOTel(context.Background(), log, observability.OtelConfig{
		ServiceName: "raidpulse-community-engine",
		Environment: cfg.Environment,
		Version:     cfg.Version,
	})

	store, err := db.NewStoreService(log)
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("init store: %w", err)
	}
	if err := db.Migrate(store); err != nil {
		log.Sync()
		return nil, fmt.Errorf("store automigrate: %w", err)
	}

	var theDB *gorm.DB
	var reposet repos.All
	if store.Enabled() {
		theDB = store.DB()
		reposet = repos.NewAll(theDB, log)
	} else {
		reposet = repos.NewNullAll()
	}

	tables := scoring.DefaultTables()
	if cfg.ScoringTablePath != "" {
		loaded, err := scoring.LoadTables(cfg.ScoringTablePath)
		if err != nil {
			log.Warn("scoring table override failed, using defaults", "error", err)
		} else {
			tables = loaded
		}
	}
	engine := scoring.NewEngine(tables)

	bus, err := redisclient.NewStandingBus(log)
	if err != nil {
		log.Warn("standing bus unavailable, high-value events stay local", "error", err)
		bus = nil
	}

	var searcher knowledge.Searcher
	chromemSearcher, err := knowledge.NewChromemSearcher(log, knowledge.HashEmbedding(knowledgeEmbedDim))
	if err != nil {
		log.Warn("knowledge searcher unavailable, insights run memory-only", "error", err)
		searcher = knowledge.NullSearcher{}
	} else {
		searcher = chromemSearcher
	}

	rt := runtime.NewMemoryRuntime()

	identity := services.NewIdentityService(theDB, log, clk, reposet, cfg.IdentityCacheSize)
	personality := services.NewPersonalityService(log, clk, reposet, cfg.PersonalityCacheSize)
	engagement := services.NewEngagementService(
		log, clk, engine, identity, personality,
		reposet, rt, bus,
		cfg.FragmentCacheSize, store.Enabled(),
	)
	var rng *rand.Rand
	if cfg.InsightSeed != 0 {
		rng = rand.New(rand.NewSource(int64(cfg.InsightSeed)))
	}
	insight := services.NewInsightService(log, engagement, searcher, rng)
	consolidation := services.NewConsolidationService(log, clk, reposet, engagement, personality)

	scheduler := jobs.NewScheduler(log, clk)
	scheduler.Add("consolidation", cfg.ConsolidationEvery, consolidation.ConsolidateOnce)
	scheduler.Add("personality_refresh", cfg.PersonalityEvery, consolidation.RefreshPersonalities)
	scheduler.Add("store_sync", cfg.StoreSyncEvery, consolidation.SyncStores)
	scheduler.Add("cache_cleanup", cfg.CacheCleanupEvery, func(ctx context.Context) error {
		identity.PruneCache()
		personality.PruneCache()
		engagement.PruneCache()
		return nil
	})

	return &App{
		Log:   log,
		DB:    theDB,
		Cfg:   cfg,
		Repos: reposet,
		Services: Services{
			Identity:      identity,
			Engagement:    engagement,
			Personality:   personality,
			Insight:       insight,
			Consolidation: consolidation,
		},
		scheduler:    scheduler,
		bus:          bus,
		otelShutdown: otelShutdown,
	}, nil
}

func (a *App) Start() {
	if a == nil || a.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel
	a.scheduler.Start(ctx)
}

// Run starts the scheduler and blocks until SIGINT/SIGTERM.
func (a *App) Run() error {
	if a == nil {
		return fmt.Errorf("app not initialized")
	}
	a.Start()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		<-gctx.Done()
		a.Close()
		return nil
	})
	a.Log.Info("community engine running")
	return g.Wait()
}

func (a *App) Close() {
	if a == nil {
		return
	}
	if a.cancel != nil {
		a.cancel()
		a.cancel = nil
	}
	if a.scheduler != nil {
		a.scheduler.Stop()
	}
	if a.bus != nil {
		_ = a.bus.Close()
	}
	if a.otelShutdown != nil {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		_ = a.otelShutdown(ctx)
		cancel()
	}
	if a.Log != nil {
		a.Log.Sync()
	}
}
