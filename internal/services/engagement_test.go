package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/raidpulse/raidpulse-backend/internal/data/repos"
	"github.com/raidpulse/raidpulse-backend/internal/data/repos/testutil"
	types "github.com/raidpulse/raidpulse-backend/internal/domain"
	"github.com/raidpulse/raidpulse-backend/internal/runtime"
	"github.com/raidpulse/raidpulse-backend/internal/scoring"
)

type engagementFixture struct {
	svc EngagementService
	rt  *runtime.MemoryRuntime
	db  *gorm.DB
}

func newEngagementFixture(t *testing.T) engagementFixture {
	t.Helper()
	db := testutil.DB(t)
	log := testutil.Logger(t)
	clk := serviceClock()
	r := repos.NewAll(db, log)
	engine := scoring.NewEngine(scoring.DefaultTables())
	identity := NewIdentityService(db, log, clk, r, 100)
	personality := NewPersonalityService(log, clk, r, 100)
	rt := runtime.NewMemoryRuntime()
	svc := NewEngagementService(log, clk, engine, identity, personality, r, rt, nil, 100, true)
	return engagementFixture{svc: svc, rt: rt, db: db}
}

func TestRecordInteractionDualWrite(t *testing.T) {
	fx := newEngagementFixture(t)
	ctx := context.Background()
	platformID := uuid.NewString()

	err := fx.svc.RecordInteraction(ctx, types.RawInteraction{
		Platform:        types.PlatformTelegram,
		PlatformID:      platformID,
		Username:        "grace",
		InteractionType: types.InteractionMentorBehavior,
		Content:         "walking a new member through raid timing basics",
	})
	if err != nil {
		t.Fatalf("RecordInteraction: %v", err)
	}

	var row types.CommunityInteraction
	if err := fx.db.Where("original_user_id = ?", platformID).First(&row).Error; err != nil {
		t.Fatalf("interaction row not persisted: %v", err)
	}
	// Mentor base weight with no multipliers applying.
	if row.Weight != 3.0 {
		t.Fatalf("weight: got %v, want 3.0", row.Weight)
	}

	recs, err := fx.rt.GetMemories(ctx, runtime.Query{Table: "community_interactions", EntityID: row.UserID})
	if err != nil || len(recs) != 1 {
		t.Fatalf("runtime write missing: recs=%d err=%v", len(recs), err)
	}
	if recs[0].Metadata["weight"] != 3.0 {
		t.Fatalf("runtime metadata weight: got %v, want 3.0", recs[0].Metadata["weight"])
	}

	frags := fx.svc.GetUserMemories(ctx, row.UserID, 10)
	if len(frags) != 1 || frags[0].Kind != types.InteractionMentorBehavior {
		t.Fatalf("fragment cache: got %+v", frags)
	}
}

func TestRecordInteractionHighValueUpdatesLeaderboard(t *testing.T) {
	fx := newEngagementFixture(t)
	ctx := context.Background()
	platformID := uuid.NewString()

	for i := 0; i < 2; i++ {
		if err := fx.svc.RecordInteraction(ctx, types.RawInteraction{
			Platform:        types.PlatformDiscord,
			PlatformID:      platformID,
			Username:        "heidi",
			InteractionType: types.InteractionRaidInitiation,
			Content:         "raid window opens at the top of the hour",
		}); err != nil {
			t.Fatalf("RecordInteraction: %v", err)
		}
	}

	var row types.CommunityInteraction
	if err := fx.db.Where("original_user_id = ?", platformID).First(&row).Error; err != nil {
		t.Fatalf("interaction row not persisted: %v", err)
	}
	var entry types.LeaderboardEntry
	if err := fx.db.Where("user_id = ?", row.UserID).First(&entry).Error; err != nil {
		t.Fatalf("leaderboard entry missing for high-value interaction: %v", err)
	}
	if entry.TotalWeight != 5.0 {
		t.Fatalf("leaderboard total: got %v, want 5.0", entry.TotalWeight)
	}
}

func TestRecordInteractionLowValueSkipsLeaderboard(t *testing.T) {
	fx := newEngagementFixture(t)
	ctx := context.Background()
	platformID := uuid.NewString()

	if err := fx.svc.RecordInteraction(ctx, types.RawInteraction{
		Platform:        types.PlatformTelegram,
		PlatformID:      platformID,
		Username:        "ivan",
		InteractionType: types.InteractionTelegramMessage,
		Content:         "anyone around for the evening session",
	}); err != nil {
		t.Fatalf("RecordInteraction: %v", err)
	}

	var row types.CommunityInteraction
	if err := fx.db.Where("original_user_id = ?", platformID).First(&row).Error; err != nil {
		t.Fatalf("interaction row not persisted: %v", err)
	}
	var count int64
	fx.db.Model(&types.LeaderboardEntry{}).Where("user_id = ?", row.UserID).Count(&count)
	if count != 0 {
		t.Fatal("plain message must not reach the leaderboard")
	}
}

func TestTopStandingOrdersByWeight(t *testing.T) {
	fx := newEngagementFixture(t)
	ctx := context.Background()
	leaderID := uuid.NewString()
	mentorID := uuid.NewString()

	for i := 0; i < 2; i++ {
		if err := fx.svc.RecordInteraction(ctx, types.RawInteraction{
			Platform:        types.PlatformDiscord,
			PlatformID:      leaderID,
			Username:        "judy",
			InteractionType: types.InteractionRaidInitiation,
			Content:         "raid window opens at the top of the hour",
		}); err != nil {
			t.Fatalf("RecordInteraction: %v", err)
		}
	}
	if err := fx.svc.RecordInteraction(ctx, types.RawInteraction{
		Platform:        types.PlatformDiscord,
		PlatformID:      mentorID,
		Username:        "karl",
		InteractionType: types.InteractionMentorBehavior,
		Content:         "walking a new member through raid timing basics",
	}); err != nil {
		t.Fatalf("RecordInteraction: %v", err)
	}

	entries := fx.svc.TopStanding(ctx, 100)
	leaderIdx, mentorIdx := -1, -1
	for i, e := range entries {
		switch e.TotalWeight {
		case 5.0:
			if leaderIdx == -1 && e.InteractionCount == 2 {
				leaderIdx = i
			}
		case 3.0:
			if mentorIdx == -1 && e.InteractionCount == 1 {
				mentorIdx = i
			}
		}
	}
	if leaderIdx == -1 || mentorIdx == -1 {
		t.Fatalf("expected both seeded users in standings, got %d entries", len(entries))
	}
	if leaderIdx > mentorIdx {
		t.Fatalf("standing order: 5.0 ranked at %d, below 3.0 at %d", leaderIdx, mentorIdx)
	}
}

func TestRecordInteractionNullStoreStaysUp(t *testing.T) {
	log := testutil.Logger(t)
	clk := serviceClock()
	r := repos.NewNullAll()
	engine := scoring.NewEngine(scoring.DefaultTables())
	identity := NewIdentityService(nil, log, clk, r, 100)
	personality := NewPersonalityService(log, clk, r, 100)
	svc := NewEngagementService(log, clk, engine, identity, personality, r, runtime.NullRuntime{}, nil, 100, false)
	ctx := context.Background()

	if err := svc.RecordInteraction(ctx, types.RawInteraction{
		Platform:        types.PlatformTwitter,
		PlatformID:      "t-100",
		Username:        "judy",
		InteractionType: types.InteractionCommunityHelp,
		Content:         "pinned the onboarding thread for newcomers",
	}); err != nil {
		t.Fatalf("recording must survive a null store: %v", err)
	}

	health := svc.Health()
	if health.StoreEnabled {
		t.Fatal("health must report the store as disabled")
	}
	if health.MemoryCacheSize != 1 {
		t.Fatalf("fragment cache size: got %d, want 1", health.MemoryCacheSize)
	}
}

func TestGetUserMemoriesStoreFallback(t *testing.T) {
	db := testutil.DB(t)
	log := testutil.Logger(t)
	clk := serviceClock()
	r := repos.NewAll(db, log)
	engine := scoring.NewEngine(scoring.DefaultTables())
	identity := NewIdentityService(db, log, clk, r, 100)
	personality := NewPersonalityService(log, clk, r, 100)
	svc := NewEngagementService(log, clk, engine, identity, personality, r, runtime.NullRuntime{}, nil, 100, true)
	ctx := context.Background()

	user := testutil.SeedIdentity(t, ctx, db, "karl")
	now := clk.Now().UTC()
	testutil.SeedInteraction(t, ctx, db, user.ID, types.InteractionKnowledgeSharing, 2.0, now.Add(-time.Hour))

	// Cold cache: the store backs the read and warms the cache.
	frags := svc.GetUserMemories(ctx, user.ID, 10)
	if len(frags) != 1 || frags[0].Kind != types.InteractionKnowledgeSharing {
		t.Fatalf("store fallback: got %+v", frags)
	}
	if svc.Health().MemoryCacheSize != 1 {
		t.Fatal("store fallback must warm the fragment cache")
	}
}

func TestGetUserMemoriesNilUser(t *testing.T) {
	fx := newEngagementFixture(t)
	if frags := fx.svc.GetUserMemories(context.Background(), uuid.Nil, 10); frags != nil {
		t.Fatalf("nil user must read empty, got %+v", frags)
	}
}

func TestTrimFragmentsAndSnapshot(t *testing.T) {
	fx := newEngagementFixture(t)
	ctx := context.Background()
	platformID := uuid.NewString()

	old := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)
	fresh := time.Date(2026, 8, 1, 11, 0, 0, 0, time.UTC)
	for _, ts := range []time.Time{old, fresh} {
		if err := fx.svc.RecordInteraction(ctx, types.RawInteraction{
			Platform:        types.PlatformTelegram,
			PlatformID:      platformID,
			Username:        "lena",
			InteractionType: types.InteractionTelegramMessage,
			Content:         "checking in",
			Timestamp:       ts,
		}); err != nil {
			t.Fatalf("RecordInteraction: %v", err)
		}
	}

	snapshot := fx.svc.FragmentSnapshot()
	if len(snapshot) != 1 {
		t.Fatalf("snapshot users: got %d, want 1", len(snapshot))
	}
	for _, frags := range snapshot {
		if len(frags) != 2 {
			t.Fatalf("snapshot fragments: got %d, want 2", len(frags))
		}
	}

	dropped := fx.svc.TrimFragments(time.Date(2026, 7, 31, 12, 0, 0, 0, time.UTC))
	if dropped != 1 {
		t.Fatalf("trim dropped: got %d, want 1", dropped)
	}
	for _, frags := range fx.svc.FragmentSnapshot() {
		if len(frags) != 1 || !frags[0].CreatedAt.Equal(fresh) {
			t.Fatalf("trim kept wrong fragments: %+v", frags)
		}
	}
}

func TestGetUserMemoriesResultSurvivesTrim(t *testing.T) {
	fx := newEngagementFixture(t)
	ctx := context.Background()
	platformID := uuid.NewString()

	old := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)
	fresh := time.Date(2026, 8, 1, 11, 0, 0, 0, time.UTC)
	for _, ts := range []time.Time{old, fresh} {
		if err := fx.svc.RecordInteraction(ctx, types.RawInteraction{
			Platform:        types.PlatformTelegram,
			PlatformID:      platformID,
			Username:        "mira",
			InteractionType: types.InteractionTelegramMessage,
			Content:         "checking in",
			Timestamp:       ts,
		}); err != nil {
			t.Fatalf("RecordInteraction: %v", err)
		}
	}

	var row types.CommunityInteraction
	if err := fx.db.Where("original_user_id = ?", platformID).First(&row).Error; err != nil {
		t.Fatalf("interaction row not persisted: %v", err)
	}

	held := fx.svc.GetUserMemories(ctx, row.UserID, 10)
	if len(held) != 2 {
		t.Fatalf("memories before trim: got %d, want 2", len(held))
	}

	if dropped := fx.svc.TrimFragments(time.Date(2026, 7, 31, 12, 0, 0, 0, time.UTC)); dropped != 1 {
		t.Fatalf("trim dropped: got %d, want 1", dropped)
	}

	// The slice handed out before the trim must not be rewritten under the
	// caller.
	if len(held) != 2 || !held[1].CreatedAt.Equal(old) {
		t.Fatalf("held result mutated by trim: %+v", held)
	}
	if after := fx.svc.GetUserMemories(ctx, row.UserID, 10); len(after) != 1 || !after[0].CreatedAt.Equal(fresh) {
		t.Fatalf("memories after trim: %+v", after)
	}
}

func TestRecordInteractionConcurrentSameUser(t *testing.T) {
	fx := newEngagementFixture(t)
	ctx := context.Background()
	platformID := uuid.NewString()

	record := func(content string) error {
		return fx.svc.RecordInteraction(ctx, types.RawInteraction{
			Platform:        types.PlatformTelegram,
			PlatformID:      platformID,
			Username:        "nils",
			InteractionType: types.InteractionTelegramMessage,
			Content:         content,
		})
	}
	// First write resolves and caches the identity so the concurrent batch
	// below lands on one user.
	if err := record("warming up"); err != nil {
		t.Fatalf("RecordInteraction: %v", err)
	}
	var row types.CommunityInteraction
	if err := fx.db.Where("original_user_id = ?", platformID).First(&row).Error; err != nil {
		t.Fatalf("interaction row not persisted: %v", err)
	}

	done := make(chan error)
	for g := 0; g < 8; g++ {
		go func(g int) {
			done <- record(fmt.Sprintf("status ping %d", g))
		}(g)
	}
	for g := 0; g < 8; g++ {
		if err := <-done; err != nil {
			t.Fatalf("concurrent RecordInteraction: %v", err)
		}
	}

	frags := fx.svc.GetUserMemories(ctx, row.UserID, fragmentsPerUser)
	if len(frags) != 9 {
		t.Fatalf("fragments lost under contention: got %d, want 9", len(frags))
	}
}
