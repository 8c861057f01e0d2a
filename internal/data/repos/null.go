package repos

import (
	"time"

	"github.com/google/uuid"

	types "github.com/raidpulse/raidpulse-backend/internal/domain"
	"github.com/raidpulse/raidpulse-backend/internal/pkg/dbctx"
)

// NewNullAll returns the repo set used when no store is configured. Every
// operation is a typed no-op returning empty results, so the engine keeps
// working on caches alone instead of throwing.
func NewNullAll() All {
	return All{
		UserIdentity:    nullUserIdentityRepo{},
		PlatformAccount: nullPlatformAccountRepo{},
		Interaction:     nullInteractionRepo{},
		Archive:         nullArchiveRepo{},
		Personality:     nullPersonalityRepo{},
		Leaderboard:     nullLeaderboardRepo{},
		MemoryFragment:  nullMemoryFragmentRepo{},
	}
}

type nullUserIdentityRepo struct{}

func (nullUserIdentityRepo) GetByID(dbctx.Context, uuid.UUID) (*types.UserIdentity, error) {
	return nil, nil
}
func (nullUserIdentityRepo) Create(dbctx.Context, *types.UserIdentity) error { return nil }
func (nullUserIdentityRepo) UpsertMetadata(dbctx.Context, uuid.UUID, string, string) error {
	return nil
}
func (nullUserIdentityRepo) TouchLastActive(dbctx.Context, uuid.UUID, time.Time) error {
	return nil
}

type nullPlatformAccountRepo struct{}

func (nullPlatformAccountRepo) GetByPlatformID(dbctx.Context, string, string) (*types.PlatformAccount, error) {
	return nil, nil
}
func (nullPlatformAccountRepo) GetByUser(dbctx.Context, uuid.UUID) ([]*types.PlatformAccount, error) {
	return nil, nil
}
func (nullPlatformAccountRepo) Create(dbctx.Context, *types.PlatformAccount) error { return nil }

type nullInteractionRepo struct{}

func (nullInteractionRepo) Create(dbctx.Context, *types.CommunityInteraction) error { return nil }
func (nullInteractionRepo) RecentByUser(dbctx.Context, uuid.UUID, int) ([]*types.CommunityInteraction, error) {
	return nil, nil
}
func (nullInteractionRepo) OlderThanBelowWeight(dbctx.Context, time.Time, float64, int) ([]*types.CommunityInteraction, error) {
	return nil, nil
}
func (nullInteractionRepo) DeleteByIDs(dbctx.Context, []uuid.UUID) error { return nil }
func (nullInteractionRepo) CountSince(dbctx.Context, uuid.UUID, time.Time) (int64, error) {
	return 0, nil
}
func (nullInteractionRepo) ActiveUserIDsSince(dbctx.Context, time.Time, int) ([]uuid.UUID, error) {
	return nil, nil
}

type nullArchiveRepo struct{}

func (nullArchiveRepo) CreateMany(dbctx.Context, []*types.ArchivedInteraction) error { return nil }
func (nullArchiveRepo) CountAll(dbctx.Context) (int64, error)                        { return 0, nil }

type nullPersonalityRepo struct{}

func (nullPersonalityRepo) GetByUser(dbctx.Context, uuid.UUID) (*types.UserPersonality, error) {
	return nil, nil
}
func (nullPersonalityRepo) Upsert(dbctx.Context, *types.UserPersonality) error { return nil }

type nullLeaderboardRepo struct{}

func (nullLeaderboardRepo) ApplyDelta(dbctx.Context, uuid.UUID, float64, time.Time) (*types.LeaderboardEntry, error) {
	return nil, nil
}
func (nullLeaderboardRepo) Top(dbctx.Context, int) ([]*types.LeaderboardEntry, error) {
	return nil, nil
}

type nullMemoryFragmentRepo struct{}

func (nullMemoryFragmentRepo) CreateMany(dbctx.Context, []*types.MemoryFragment) error { return nil }
func (nullMemoryFragmentRepo) DeleteOlderThan(dbctx.Context, time.Time) error          { return nil }
