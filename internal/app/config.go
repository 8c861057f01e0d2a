package app

import (
	"time"

	"github.com/raidpulse/raidpulse-backend/internal/pkg/envutil"
	"github.com/raidpulse/raidpulse-backend/internal/pkg/logger"
)

type Config struct {
	Environment string
	Version     string

	ScoringTablePath string

	IdentityCacheSize    int
	FragmentCacheSize    int
	PersonalityCacheSize int

	ConsolidationEvery time.Duration
	PersonalityEvery   time.Duration
	StoreSyncEvery     time.Duration
	CacheCleanupEvery  time.Duration

	InsightSeed int
}

func LoadConfig(log *logger.Logger) Config {
	return Config{
		Environment: envutil.GetEnv("APP_ENV", "development", log),
		Version:     envutil.GetEnv("APP_VERSION", "dev", log),

		ScoringTablePath: envutil.GetEnv("SCORING_TABLE_PATH", "", log),

		IdentityCacheSize:    envutil.GetEnvAsInt("IDENTITY_CACHE_SIZE", 1000, log),
		FragmentCacheSize:    envutil.GetEnvAsInt("FRAGMENT_CACHE_SIZE", 1000, log),
		PersonalityCacheSize: envutil.GetEnvAsInt("PERSONALITY_CACHE_SIZE", 1000, log),

		ConsolidationEvery: envutil.GetEnvAsDuration("CONSOLIDATION_INTERVAL", 6*time.Hour, log),
		PersonalityEvery:   envutil.GetEnvAsDuration("PERSONALITY_REFRESH_INTERVAL", 24*time.Hour, log),
		StoreSyncEvery:     envutil.GetEnvAsDuration("STORE_SYNC_INTERVAL", time.Hour, log),
		CacheCleanupEvery:  envutil.GetEnvAsDuration("CACHE_CLEANUP_INTERVAL", 10*time.Minute, log),

		InsightSeed: envutil.GetEnvAsInt("INSIGHT_SEED", 0, log),
	}
}
