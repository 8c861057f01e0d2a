package db

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"github.com/raidpulse/raidpulse-backend/internal/pkg/envutil"
	"github.com/raidpulse/raidpulse-backend/internal/pkg/logger"
)

// StoreService owns the relational handle behind the engine. When no driver
// is configured it stays disabled and the composition root wires the null
// repo set instead; nothing in the engine may fail because of that.
type StoreService struct {
	db  *gorm.DB
	log *logger.Logger
}

// NewStoreService opens postgres or sqlite depending on COMMUNITY_DB_DRIVER.
// Returns (nil, nil) when the store is intentionally unconfigured.
func NewStoreService(logg *logger.Logger) (*StoreService, error) {
	serviceLog := logg.With("service", "StoreService")

	driver := strings.ToLower(envutil.GetEnv("COMMUNITY_DB_DRIVER", "", logg))
	switch driver {
	case "":
		serviceLog.Warn("no store driver configured, engine degrades to null store")
		return nil, nil
	case "postgres":
		return openPostgres(serviceLog, logg)
	case "sqlite":
		return openSQLite(serviceLog, logg)
	default:
		return nil, fmt.Errorf("unknown store driver %q", driver)
	}
}

func openPostgres(serviceLog, logg *logger.Logger) (*StoreService, error) {
	host := envutil.GetEnv("POSTGRES_HOST", "localhost", logg)
	port := envutil.GetEnv("POSTGRES_PORT", "5432", logg)
	user := envutil.GetEnv("POSTGRES_USER", "postgres", logg)
	password := envutil.GetEnv("POSTGRES_PASSWORD", "", logg)
	name := envutil.GetEnv("POSTGRES_NAME", "raidpulse", logg)

	dsn := fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=disable",
		user, password, host, port, name,
	)

	db, err := gorm.Open(postgres.Open(dsn), gormConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Postgres: %w", err)
	}
	if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`).Error; err != nil {
		return nil, fmt.Errorf("failed to enable uuid-ossp extension: %w", err)
	}
	serviceLog.Info("store opened", "driver", "postgres", "host", host, "name", name)
	return &StoreService{db: db, log: serviceLog}, nil
}

func openSQLite(serviceLog, logg *logger.Logger) (*StoreService, error) {
	path := envutil.GetEnv("COMMUNITY_DB_PATH", "raidpulse.db", logg)
	db, err := gorm.Open(sqlite.Open(path), gormConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite store: %w", err)
	}
	serviceLog.Info("store opened", "driver", "sqlite", "path", path)
	return &StoreService{db: db, log: serviceLog}, nil
}

func gormConfig() *gorm.Config {
	gormLog := gormLogger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		gormLogger.Config{
			SlowThreshold:             1 * time.Second,
			LogLevel:                  gormLogger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)
	return &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
		Logger:                                   gormLog,
	}
}

func (s *StoreService) DB() *gorm.DB { return s.db }

func (s *StoreService) Enabled() bool { return s != nil && s.db != nil }
