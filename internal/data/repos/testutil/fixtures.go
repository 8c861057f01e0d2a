package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/raidpulse/raidpulse-backend/internal/domain"
)

func SeedIdentity(tb testing.TB, ctx context.Context, tx *gorm.DB, displayName string) *types.UserIdentity {
	tb.Helper()
	now := time.Now().UTC()
	u := &types.UserIdentity{
		ID:           uuid.New(),
		DisplayName:  displayName,
		CreatedAt:    now,
		LastActiveAt: now,
	}
	if err := tx.WithContext(ctx).Create(u).Error; err != nil {
		tb.Fatalf("seed identity: %v", err)
	}
	return u
}

func SeedPlatformAccount(tb testing.TB, ctx context.Context, tx *gorm.DB, userUUID uuid.UUID, platform, platformID string) *types.PlatformAccount {
	tb.Helper()
	a := &types.PlatformAccount{
		ID:         uuid.New(),
		UserUUID:   userUUID,
		Platform:   platform,
		PlatformID: platformID,
		CreatedAt:  time.Now().UTC(),
	}
	if err := tx.WithContext(ctx).Create(a).Error; err != nil {
		tb.Fatalf("seed platform account: %v", err)
	}
	return a
}

func SeedInteraction(tb testing.TB, ctx context.Context, tx *gorm.DB, userID uuid.UUID, interactionType string, weight float64, at time.Time) *types.CommunityInteraction {
	tb.Helper()
	ci := &types.CommunityInteraction{
		ID:              uuid.New(),
		UserID:          userID,
		InteractionType: interactionType,
		Content:         "seeded interaction",
		Weight:          weight,
		Platform:        types.PlatformTelegram,
		Timestamp:       at,
	}
	if err := tx.WithContext(ctx).Create(ci).Error; err != nil {
		tb.Fatalf("seed interaction: %v", err)
	}
	return ci
}
