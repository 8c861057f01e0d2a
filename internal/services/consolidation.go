package services

import (
	"context"
	"fmt"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"

	"github.com/raidpulse/raidpulse-backend/internal/data/repos"
	types "github.com/raidpulse/raidpulse-backend/internal/domain"
	"github.com/raidpulse/raidpulse-backend/internal/pkg/dbctx"
	"github.com/raidpulse/raidpulse-backend/internal/pkg/logger"
)

const (
	consolidationAge       = 30 * 24 * time.Hour
	consolidationMaxWeight = 0.3
	consolidationBatch     = 500
	archiveReason          = "aged_low_value"
	fragmentRetention      = 24 * time.Hour

	refreshActivityWindow = 30 * 24 * time.Hour
	refreshBatchCap       = 100
	refreshDelay          = 50 * time.Millisecond
)

// ConsolidationService owns the three periodic maintenance passes. Every
// method is safe to call repeatedly and from a job runner: failures are
// returned for logging, never partial-applied destructively.
type ConsolidationService interface {
	ConsolidateOnce(ctx context.Context) error
	RefreshPersonalities(ctx context.Context) error
	SyncStores(ctx context.Context) error
}

type consolidationService struct {
	log         *logger.Logger
	clk         clock.Clock
	repos       repos.All
	engagement  EngagementService
	personality PersonalityService
}

func NewConsolidationService(
	log *logger.Logger,
	clk clock.Clock,
	r repos.All,
	engagement EngagementService,
	personality PersonalityService,
) ConsolidationService {
	return &consolidationService{
		log:         log.With("service", "ConsolidationService"),
		clk:         clk,
		repos:       r,
		engagement:  engagement,
		personality: personality,
	}
}

// ConsolidateOnce moves aged low-value interactions to the archive relation
// and only then deletes the originals. The delete is strictly ordered after
// a successful archive insert; a crash in between re-runs cleanly because
// the archive insert is idempotent on original_id.
func (s *consolidationService) ConsolidateOnce(ctx context.Context) error {
	dbc := dbctx.New(ctx)
	now := s.clk.Now().UTC()
	cutoff := now.Add(-consolidationAge)

	rows, err := s.repos.Interaction.OlderThanBelowWeight(dbc, cutoff, consolidationMaxWeight, consolidationBatch)
	if err != nil {
		return fmt.Errorf("select consolidation candidates: %w", err)
	}

	if len(rows) > 0 {
		archived := make([]*types.ArchivedInteraction, 0, len(rows))
		ids := make([]uuid.UUID, 0, len(rows))
		for _, row := range rows {
			archived = append(archived, &types.ArchivedInteraction{
				ID:              uuid.New(),
				OriginalID:      row.ID,
				UserID:          row.UserID,
				InteractionType: row.InteractionType,
				Content:         row.Content,
				Weight:          row.Weight,
				Platform:        row.Platform,
				Timestamp:       row.Timestamp,
				ArchivedAt:      now,
				Reason:          archiveReason,
			})
			ids = append(ids, row.ID)
		}

		if err := s.repos.Archive.CreateMany(dbc, archived); err != nil {
			return fmt.Errorf("archive insert: %w", err)
		}
		if err := s.repos.Interaction.DeleteByIDs(dbc, ids); err != nil {
			return fmt.Errorf("delete archived originals: %w", err)
		}
		total, err := s.repos.Archive.CountAll(dbc)
		if err != nil {
			total = -1
		}
		s.log.Info("consolidated interactions", "archived", len(ids), "archive_total", total)
	}

	trimmed := s.engagement.TrimFragments(now.Add(-fragmentRetention))
	if trimmed > 0 {
		s.log.Debug("trimmed fragment caches", "fragments", trimmed)
	}
	return nil
}

// RefreshPersonalities warms profiles for recently active members. Purely a
// cache-warming pass; a failed user is skipped, not retried.
func (s *consolidationService) RefreshPersonalities(ctx context.Context) error {
	now := s.clk.Now().UTC()
	ids, err := s.repos.Interaction.ActiveUserIDsSince(dbctx.New(ctx), now.Add(-refreshActivityWindow), refreshBatchCap)
	if err != nil {
		return fmt.Errorf("list active users: %w", err)
	}

	for i, id := range ids {
		s.personality.Rebuild(ctx, id)
		if i == len(ids)-1 {
			break
		}
		// Small gap between users keeps the refresh from hammering the store.
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.clk.After(refreshDelay):
		}
	}
	s.log.Debug("personality refresh pass complete", "users", len(ids))
	return nil
}

// SyncStores mirrors the fragment caches into the memory_fragments relation
// and drops aged rows. Best-effort by contract.
func (s *consolidationService) SyncStores(ctx context.Context) error {
	dbc := dbctx.New(ctx)
	now := s.clk.Now().UTC()

	snapshot := s.engagement.FragmentSnapshot()
	var rows []*types.MemoryFragment
	for userID, frags := range snapshot {
		for _, frag := range frags {
			rows = append(rows, &types.MemoryFragment{
				ID:        uuid.NewSHA1(userID, []byte(frag.Kind+frag.Content+frag.CreatedAt.String())),
				UserID:    userID,
				Kind:      frag.Kind,
				Content:   frag.Content,
				Weight:    frag.Weight,
				CreatedAt: frag.CreatedAt,
			})
		}
	}
	if err := s.repos.MemoryFragment.CreateMany(dbc, rows); err != nil {
		return fmt.Errorf("fragment sync insert: %w", err)
	}
	if err := s.repos.MemoryFragment.DeleteOlderThan(dbc, now.Add(-consolidationAge)); err != nil {
		return fmt.Errorf("fragment sync cleanup: %w", err)
	}
	if len(rows) > 0 {
		s.log.Debug("fragment sync pass complete", "fragments", len(rows))
	}
	return nil
}
