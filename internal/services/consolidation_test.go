package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/raidpulse/raidpulse-backend/internal/data/repos"
	"github.com/raidpulse/raidpulse-backend/internal/data/repos/testutil"
	types "github.com/raidpulse/raidpulse-backend/internal/domain"
	"github.com/raidpulse/raidpulse-backend/internal/pkg/dbctx"
	"github.com/raidpulse/raidpulse-backend/internal/runtime"
	"github.com/raidpulse/raidpulse-backend/internal/scoring"
)

type consolidationFixture struct {
	svc         ConsolidationService
	engagement  EngagementService
	personality PersonalityService
	repos       repos.All
	db          *gorm.DB
}

func newConsolidationFixture(t *testing.T, override func(r *repos.All)) consolidationFixture {
	t.Helper()
	db := testutil.DB(t)
	log := testutil.Logger(t)
	clk := serviceClock()
	r := repos.NewAll(db, log)
	if override != nil {
		override(&r)
	}
	engine := scoring.NewEngine(scoring.DefaultTables())
	identity := NewIdentityService(db, log, clk, r, 100)
	personality := NewPersonalityService(log, clk, r, 100)
	engagement := NewEngagementService(log, clk, engine, identity, personality, r, runtime.NullRuntime{}, nil, 100, true)
	svc := NewConsolidationService(log, clk, r, engagement, personality)
	return consolidationFixture{
		svc:         svc,
		engagement:  engagement,
		personality: personality,
		repos:       r,
		db:          db,
	}
}

func TestConsolidateOnceArchivesThenDeletes(t *testing.T) {
	fx := newConsolidationFixture(t, nil)
	ctx := context.Background()

	user := testutil.SeedIdentity(t, ctx, fx.db, "mallory")
	now := serviceClock().Now().UTC()
	aged := now.Add(-40 * 24 * time.Hour)

	oldLow1 := testutil.SeedInteraction(t, ctx, fx.db, user.ID, types.InteractionTelegramMessage, 0.1, aged)
	oldLow2 := testutil.SeedInteraction(t, ctx, fx.db, user.ID, types.InteractionTelegramMessage, 0.2, aged)
	oldHigh := testutil.SeedInteraction(t, ctx, fx.db, user.ID, types.InteractionRaidInitiation, 2.5, aged)
	recent := testutil.SeedInteraction(t, ctx, fx.db, user.ID, types.InteractionTelegramMessage, 0.1, now.Add(-time.Hour))

	if err := fx.svc.ConsolidateOnce(ctx); err != nil {
		t.Fatalf("ConsolidateOnce: %v", err)
	}

	var archived []types.ArchivedInteraction
	if err := fx.db.Where("user_id = ?", user.ID).Find(&archived).Error; err != nil {
		t.Fatalf("read archive: %v", err)
	}
	if len(archived) != 2 {
		t.Fatalf("archived rows: got %d, want 2", len(archived))
	}
	archivedOriginals := map[uuid.UUID]bool{}
	for _, a := range archived {
		archivedOriginals[a.OriginalID] = true
		if a.Reason != "aged_low_value" {
			t.Fatalf("archive reason: got %q", a.Reason)
		}
	}
	if !archivedOriginals[oldLow1.ID] || !archivedOriginals[oldLow2.ID] {
		t.Fatalf("wrong rows archived: %v", archivedOriginals)
	}

	var remaining []types.CommunityInteraction
	if err := fx.db.Where("user_id = ?", user.ID).Find(&remaining).Error; err != nil {
		t.Fatalf("read interactions: %v", err)
	}
	if len(remaining) != 2 {
		t.Fatalf("remaining rows: got %d, want 2", len(remaining))
	}
	for _, row := range remaining {
		if row.ID != oldHigh.ID && row.ID != recent.ID {
			t.Fatalf("row %s should have been consolidated", row.ID)
		}
	}
}

type failingArchiveRepo struct{}

func (failingArchiveRepo) CreateMany(dbctx.Context, []*types.ArchivedInteraction) error {
	return errors.New("archive store down")
}
func (failingArchiveRepo) CountAll(dbctx.Context) (int64, error) {
	return 0, errors.New("archive store down")
}

func TestConsolidateOnceArchiveFailureKeepsOriginals(t *testing.T) {
	fx := newConsolidationFixture(t, func(r *repos.All) {
		r.Archive = failingArchiveRepo{}
	})
	ctx := context.Background()

	user := testutil.SeedIdentity(t, ctx, fx.db, "nina")
	aged := serviceClock().Now().UTC().Add(-40 * 24 * time.Hour)
	row := testutil.SeedInteraction(t, ctx, fx.db, user.ID, types.InteractionTelegramMessage, 0.1, aged)

	if err := fx.svc.ConsolidateOnce(ctx); err == nil {
		t.Fatal("archive failure must surface as an error")
	}

	var kept types.CommunityInteraction
	if err := fx.db.Where("id = ?", row.ID).First(&kept).Error; err != nil {
		t.Fatalf("original row must survive a failed archive: %v", err)
	}
}

func TestRefreshPersonalities(t *testing.T) {
	fx := newConsolidationFixture(t, nil)
	ctx := context.Background()

	user := testutil.SeedIdentity(t, ctx, fx.db, "oscar")
	now := serviceClock().Now().UTC()
	for i := 0; i < 3; i++ {
		testutil.SeedInteraction(t, ctx, fx.db, user.ID, types.InteractionRaidInitiation, 2.5, now.Add(-time.Hour))
	}

	if err := fx.svc.RefreshPersonalities(ctx); err != nil {
		t.Fatalf("RefreshPersonalities: %v", err)
	}
	if fx.personality.CacheSize() < 1 {
		t.Fatal("refresh must warm at least the seeded user's profile")
	}
}

func TestSyncStores(t *testing.T) {
	fx := newConsolidationFixture(t, nil)
	ctx := context.Background()

	if err := fx.engagement.RecordInteraction(ctx, types.RawInteraction{
		Platform:        types.PlatformTelegram,
		PlatformID:      uuid.NewString(),
		Username:        "peggy",
		InteractionType: types.InteractionKnowledgeSharing,
		Content:         "collected the raid timing notes in one place",
	}); err != nil {
		t.Fatalf("RecordInteraction: %v", err)
	}

	if err := fx.svc.SyncStores(ctx); err != nil {
		t.Fatalf("SyncStores: %v", err)
	}

	snapshot := fx.engagement.FragmentSnapshot()
	if len(snapshot) != 1 {
		t.Fatalf("expected one user in the snapshot, got %d", len(snapshot))
	}
	for userID := range snapshot {
		var count int64
		fx.db.Model(&types.MemoryFragment{}).Where("user_id = ?", userID).Count(&count)
		if count != 1 {
			t.Fatalf("fragment rows for user: got %d, want 1", count)
		}
	}

	// Re-running is idempotent: the deterministic fragment ids collide and
	// insert nothing new.
	if err := fx.svc.SyncStores(ctx); err != nil {
		t.Fatalf("second SyncStores: %v", err)
	}
	for userID := range snapshot {
		var count int64
		fx.db.Model(&types.MemoryFragment{}).Where("user_id = ?", userID).Count(&count)
		if count != 1 {
			t.Fatalf("re-sync duplicated fragments: got %d", count)
		}
	}
}
