package db

import (
	"fmt"

	"gorm.io/gorm"

	types "github.com/raidpulse/raidpulse-backend/internal/domain"
)

func AutoMigrateAll(db *gorm.DB) error {

	return db.AutoMigrate(

		// =========================
		// Canonical identity
		// =========================
		&types.UserIdentity{},
		&types.PlatformAccount{},

		// =========================
		// Interaction log + archive
		// =========================
		&types.CommunityInteraction{},
		&types.ArchivedInteraction{},

		// =========================
		// Derived state
		// =========================
		&types.UserPersonality{},
		&types.LeaderboardEntry{},
		&types.MemoryFragment{},
	)
}

func Migrate(s *StoreService) error {
	if !s.Enabled() {
		return nil
	}
	if err := AutoMigrateAll(s.DB()); err != nil {
		return fmt.Errorf("auto-migrate: %w", err)
	}
	return nil
}
