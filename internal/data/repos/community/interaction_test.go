package community

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/raidpulse/raidpulse-backend/internal/data/repos/testutil"
	types "github.com/raidpulse/raidpulse-backend/internal/domain"
	"github.com/raidpulse/raidpulse-backend/internal/pkg/dbctx"
)

func TestInteractionRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	dbc := dbctx.WithTx(context.Background(), tx)

	repo := NewInteractionRepo(db, testutil.Logger(t))
	user := testutil.SeedIdentity(t, dbc.Ctx, tx, "busy")
	now := time.Now().UTC()

	testutil.SeedInteraction(t, dbc.Ctx, tx, user.ID, types.InteractionTelegramMessage, 0.2, now.Add(-40*24*time.Hour))
	testutil.SeedInteraction(t, dbc.Ctx, tx, user.ID, types.InteractionCommunityHelp, 2.4, now.Add(-2*time.Hour))
	testutil.SeedInteraction(t, dbc.Ctx, tx, user.ID, types.InteractionRaidInitiation, 3.1, now.Add(-time.Minute))

	recent, err := repo.RecentByUser(dbc, user.ID, 2)
	if err != nil {
		t.Fatalf("RecentByUser: %v", err)
	}
	if len(recent) != 2 {
		t.Fatalf("RecentByUser: got %d rows, want 2", len(recent))
	}
	if recent[0].InteractionType != types.InteractionRaidInitiation {
		t.Fatalf("RecentByUser: expected newest first, got %s", recent[0].InteractionType)
	}

	old, err := repo.OlderThanBelowWeight(dbc, now.Add(-30*24*time.Hour), 0.3, 100)
	if err != nil {
		t.Fatalf("OlderThanBelowWeight: %v", err)
	}
	if len(old) != 1 || old[0].InteractionType != types.InteractionTelegramMessage {
		t.Fatalf("OlderThanBelowWeight: unexpected rows: %+v", old)
	}

	count, err := repo.CountSince(dbc, user.ID, now.Add(-24*time.Hour))
	if err != nil {
		t.Fatalf("CountSince: %v", err)
	}
	if count != 2 {
		t.Fatalf("CountSince: got %d, want 2", count)
	}

	active, err := repo.ActiveUserIDsSince(dbc, now.Add(-24*time.Hour), 10)
	if err != nil {
		t.Fatalf("ActiveUserIDsSince: %v", err)
	}
	if len(active) != 1 || active[0] != user.ID {
		t.Fatalf("ActiveUserIDsSince: unexpected ids: %v", active)
	}

	if err := repo.DeleteByIDs(dbc, []uuid.UUID{old[0].ID}); err != nil {
		t.Fatalf("DeleteByIDs: %v", err)
	}
	remaining, err := repo.RecentByUser(dbc, user.ID, 10)
	if err != nil {
		t.Fatalf("RecentByUser after delete: %v", err)
	}
	if len(remaining) != 2 {
		t.Fatalf("DeleteByIDs left %d rows, want 2", len(remaining))
	}
}

func TestArchiveRepoIdempotentOnOriginalID(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	dbc := dbctx.WithTx(context.Background(), tx)

	repo := NewArchiveRepo(db, testutil.Logger(t))
	originalID := uuid.New()
	row := &types.ArchivedInteraction{
		ID:              uuid.New(),
		OriginalID:      originalID,
		UserID:          uuid.New(),
		InteractionType: types.InteractionTelegramMessage,
		Weight:          0.1,
		ArchivedAt:      time.Now().UTC(),
		Reason:          "aged_low_value",
	}
	if err := repo.CreateMany(dbc, []*types.ArchivedInteraction{row}); err != nil {
		t.Fatalf("CreateMany: %v", err)
	}

	// Re-running the same batch after a crashed cycle must not fail or
	// duplicate.
	again := *row
	again.ID = uuid.New()
	if err := repo.CreateMany(dbc, []*types.ArchivedInteraction{&again}); err != nil {
		t.Fatalf("CreateMany (retry): %v", err)
	}
	count, err := repo.CountAll(dbc)
	if err != nil {
		t.Fatalf("CountAll: %v", err)
	}
	if count != 1 {
		t.Fatalf("archive retry duplicated rows: %d", count)
	}
}

func TestLeaderboardRepoApplyDelta(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	dbc := dbctx.WithTx(context.Background(), tx)

	repo := NewLeaderboardRepo(db, testutil.Logger(t))
	userID := uuid.New()
	now := time.Now().UTC()

	if _, err := repo.ApplyDelta(dbc, userID, 2.5, now); err != nil {
		t.Fatalf("ApplyDelta (insert): %v", err)
	}
	updated, err := repo.ApplyDelta(dbc, userID, 1.5, now.Add(time.Minute))
	if err != nil {
		t.Fatalf("ApplyDelta (update): %v", err)
	}
	if updated == nil || updated.TotalWeight != 4.0 {
		t.Fatalf("ApplyDelta should return the accumulated entry: %+v", updated)
	}

	top, err := repo.Top(dbc, 5)
	if err != nil {
		t.Fatalf("Top: %v", err)
	}
	if len(top) != 1 {
		t.Fatalf("Top: got %d rows, want 1", len(top))
	}
	if top[0].TotalWeight != 4.0 || top[0].InteractionCount != 2 {
		t.Fatalf("ApplyDelta accumulation wrong: %+v", top[0])
	}
}
