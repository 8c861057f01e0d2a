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

func TestUserIdentityRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	dbc := dbctx.WithTx(context.Background(), tx)

	repo := NewUserIdentityRepo(db, testutil.Logger(t))

	created := &types.UserIdentity{
		ID:           uuid.New(),
		DisplayName:  "raider",
		CreatedAt:    time.Now().UTC(),
		LastActiveAt: time.Now().UTC().Add(-time.Hour),
	}
	if err := repo.Create(dbc, created); err != nil {
		t.Fatalf("Create: %v", err)
	}

	got, err := repo.GetByID(dbc, created.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got == nil || got.ID != created.ID || got.DisplayName != "raider" {
		t.Fatalf("GetByID: unexpected result: %+v", got)
	}

	missing, err := repo.GetByID(dbc, uuid.New())
	if err != nil {
		t.Fatalf("GetByID (missing): %v", err)
	}
	if missing != nil {
		t.Fatalf("GetByID (missing): expected nil, got %+v", missing)
	}

	touched := time.Now().UTC().Truncate(time.Second)
	if err := repo.TouchLastActive(dbc, created.ID, touched); err != nil {
		t.Fatalf("TouchLastActive: %v", err)
	}
	got, err = repo.GetByID(dbc, created.ID)
	if err != nil {
		t.Fatalf("GetByID after touch: %v", err)
	}
	if got.LastActiveAt.Before(touched.Add(-time.Second)) {
		t.Fatalf("TouchLastActive did not update: %v < %v", got.LastActiveAt, touched)
	}
}

func TestPlatformAccountRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	dbc := dbctx.WithTx(context.Background(), tx)

	repo := NewPlatformAccountRepo(db, testutil.Logger(t))
	owner := testutil.SeedIdentity(t, dbc.Ctx, tx, "owner")

	acct := &types.PlatformAccount{
		ID:               uuid.New(),
		UserUUID:         owner.ID,
		Platform:         types.PlatformTwitter,
		PlatformID:       "u1",
		PlatformUsername: "handle",
		CreatedAt:        time.Now().UTC(),
	}
	if err := repo.Create(dbc, acct); err != nil {
		t.Fatalf("Create: %v", err)
	}

	got, err := repo.GetByPlatformID(dbc, types.PlatformTwitter, "u1")
	if err != nil {
		t.Fatalf("GetByPlatformID: %v", err)
	}
	if got == nil || got.UserUUID != owner.ID {
		t.Fatalf("GetByPlatformID: unexpected result: %+v", got)
	}

	all, err := repo.GetByUser(dbc, owner.ID)
	if err != nil {
		t.Fatalf("GetByUser: %v", err)
	}
	if len(all) != 1 || all[0].PlatformID != "u1" {
		t.Fatalf("GetByUser: unexpected result: %+v", all)
	}

	// The (platform, platform_id) pair is globally unique. Last so the
	// expected failure cannot poison the shared transaction.
	dup := &types.PlatformAccount{
		ID:         uuid.New(),
		UserUUID:   uuid.New(),
		Platform:   types.PlatformTwitter,
		PlatformID: "u1",
		CreatedAt:  time.Now().UTC(),
	}
	if err := repo.Create(dbc, dup); err == nil {
		t.Fatalf("Create duplicate (platform, platform_id): expected unique violation")
	}
}
