package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"gorm.io/datatypes"

	redisclient "github.com/raidpulse/raidpulse-backend/internal/clients/redis"
	"github.com/raidpulse/raidpulse-backend/internal/cache"
	"github.com/raidpulse/raidpulse-backend/internal/data/repos"
	types "github.com/raidpulse/raidpulse-backend/internal/domain"
	"github.com/raidpulse/raidpulse-backend/internal/observability"
	"github.com/raidpulse/raidpulse-backend/internal/pkg/dbctx"
	"github.com/raidpulse/raidpulse-backend/internal/pkg/logger"
	"github.com/raidpulse/raidpulse-backend/internal/runtime"
	"github.com/raidpulse/raidpulse-backend/internal/scoring"
)

const (
	runtimeInteractionTable = "community_interactions"
	fragmentsPerUser        = 50
)

// EngagementService is the write path of the engine: every inbound community
// interaction funnels through RecordInteraction.
type EngagementService interface {
	// RecordInteraction never hard-fails: store and runtime outages degrade
	// to cache-only recording with a warning.
	RecordInteraction(ctx context.Context, raw types.RawInteraction) error
	GetUserMemories(ctx context.Context, userID uuid.UUID, limit int) []types.MemorySummary
	// TopStanding returns the highest-weight leaderboard entries for
	// standing reports.
	TopStanding(ctx context.Context, limit int) []*types.LeaderboardEntry
	Health() types.HealthStatus

	// TrimFragments drops cached fragments older than cutoff; used by the
	// consolidation job. Returns how many fragments were dropped.
	TrimFragments(cutoff time.Time) int
	// FragmentSnapshot copies the current fragment cache for the
	// cross-store sync job.
	FragmentSnapshot() map[uuid.UUID][]types.MemorySummary
	// PruneCache restores the fragment cache bound.
	PruneCache() int
}

type engagementService struct {
	log          *logger.Logger
	clk          clock.Clock
	engine       *scoring.Engine
	identity     IdentityService
	personality  PersonalityService
	repos        repos.All
	rt           runtime.AgentRuntime
	bus          redisclient.StandingBus // nil when redis is not configured
	fragCache    *cache.Cache[[]types.MemorySummary]
	storeEnabled bool
}

func NewEngagementService(
	log *logger.Logger,
	clk clock.Clock,
	engine *scoring.Engine,
	identity IdentityService,
	personality PersonalityService,
	r repos.All,
	rt runtime.AgentRuntime,
	bus redisclient.StandingBus,
	maxCache int,
	storeEnabled bool,
) EngagementService {
	return &engagementService{
		log:          log.With("service", "EngagementService"),
		clk:          clk,
		engine:       engine,
		identity:     identity,
		personality:  personality,
		repos:        r,
		rt:           rt,
		bus:          bus,
		fragCache:    cache.New[[]types.MemorySummary](maxCache, cache.WithClock[[]types.MemorySummary](clk)),
		storeEnabled: storeEnabled,
	}
}

func (s *engagementService) RecordInteraction(ctx context.Context, raw types.RawInteraction) error {
	ctx, span := observability.Tracer().Start(ctx, "engagement.RecordInteraction")
	defer span.End()

	now := s.clk.Now().UTC()
	in := raw.Normalize(now)
	span.SetAttributes(
		attribute.String("interaction.type", in.InteractionType),
		attribute.String("interaction.platform", in.Platform),
	)

	identity := s.identity.GetOrCreateUserIdentity(ctx, in.Platform, in.PlatformID, in.Username, in.Metadata)

	weight := s.engine.Weight(in, now)
	quality := s.engine.QualityScore(in)

	ctxJSON, err := json.Marshal(in.Context)
	if err != nil {
		ctxJSON = []byte(`{}`)
	}
	row := &types.CommunityInteraction{
		ID:              uuid.New(),
		UserID:          identity.ID,
		OriginalUserID:  in.PlatformID,
		Username:        in.Username,
		InteractionType: in.InteractionType,
		Content:         in.Content,
		Context:         datatypes.JSON(ctxJSON),
		Weight:          weight,
		SentimentScore:  in.SentimentScore,
		RelatedRaidID:   in.RelatedRaidID,
		Platform:        in.Platform,
		RoomID:          in.RoomID,
		Timestamp:       in.Timestamp,
	}

	// Dual write: host runtime first (best-effort), then the relational log.
	if err := s.rt.CreateMemory(ctx, runtime.Record{
		ID:       row.ID,
		AgentID:  s.rt.AgentID(),
		EntityID: identity.ID,
		RoomID:   in.RoomID,
		Kind:     in.InteractionType,
		Content:  in.Content,
		Metadata: map[string]interface{}{
			"weight":        weight,
			"quality_score": quality,
			"platform":      in.Platform,
		},
		CreatedAt: in.Timestamp.Unix(),
	}, runtimeInteractionTable); err != nil {
		s.log.Warn("runtime memory write failed", "user_id", identity.ID, "error", err)
	}

	if err := s.repos.Interaction.Create(dbctx.New(ctx), row); err != nil {
		s.log.Warn("interaction store write failed", "user_id", identity.ID, "error", err)
	}

	s.appendFragment(identity.ID, types.MemorySummary{
		Kind:      in.InteractionType,
		Content:   in.Content,
		Platform:  in.Platform,
		Weight:    weight,
		CreatedAt: in.Timestamp,
	})

	if s.engine.HighValue(weight) {
		s.updateStanding(ctx, identity, row)
	}
	return nil
}

func (s *engagementService) appendFragment(userID uuid.UUID, frag types.MemorySummary) {
	s.fragCache.Upsert(userID.String(), func(existing []types.MemorySummary, _ bool) []types.MemorySummary {
		frags := make([]types.MemorySummary, 0, len(existing)+1)
		frags = append(frags, frag)
		frags = append(frags, existing...)
		if len(frags) > fragmentsPerUser {
			frags = frags[:fragmentsPerUser]
		}
		return frags
	})
}

func (s *engagementService) updateStanding(ctx context.Context, identity *types.UserIdentity, row *types.CommunityInteraction) {
	entry, err := s.repos.Leaderboard.ApplyDelta(dbctx.New(ctx), identity.ID, row.Weight, row.Timestamp)
	if err != nil {
		s.log.Warn("leaderboard update failed", "user_id", identity.ID, "error", err)
	}

	if s.bus == nil {
		return
	}
	ev := types.StandingEvent{
		UserID:          identity.ID,
		Username:        row.Username,
		Platform:        row.Platform,
		InteractionType: row.InteractionType,
		Weight:          row.Weight,
		OccurredAt:      row.Timestamp,
	}
	if entry != nil {
		ev.TotalWeight = entry.TotalWeight
	}
	if err := s.bus.Publish(ctx, ev); err != nil {
		s.log.Warn("standing publish failed", "user_id", identity.ID, "error", err)
	}
}

// GetUserMemories reads fragments cache-first, falling back to the store and
// finally the host runtime. It never fails; worst case is an empty list.
func (s *engagementService) GetUserMemories(ctx context.Context, userID uuid.UUID, limit int) []types.MemorySummary {
	if userID == uuid.Nil {
		return nil
	}
	if limit <= 0 || limit > fragmentsPerUser {
		limit = fragmentsPerUser
	}

	if frags, ok := s.fragCache.Get(userID.String()); ok {
		if len(frags) > limit {
			frags = frags[:limit]
		}
		// Callers get their own copy; the cached slice stays private so the
		// trim job cannot rewrite data a caller is still reading.
		out := make([]types.MemorySummary, len(frags))
		copy(out, frags)
		return out
	}

	rows, err := s.repos.Interaction.RecentByUser(dbctx.New(ctx), userID, limit)
	if err != nil {
		s.log.Warn("memories store read failed", "user_id", userID, "error", err)
		rows = nil
	}
	if len(rows) > 0 {
		frags := make([]types.MemorySummary, 0, len(rows))
		for _, row := range rows {
			frags = append(frags, types.MemorySummary{
				Kind:      row.InteractionType,
				Content:   row.Content,
				Platform:  row.Platform,
				Weight:    row.Weight,
				CreatedAt: row.Timestamp,
			})
		}
		s.fragCache.Put(userID.String(), frags)
		out := make([]types.MemorySummary, len(frags))
		copy(out, frags)
		return out
	}

	recs, err := s.rt.GetMemories(ctx, runtime.Query{
		Table:    runtimeInteractionTable,
		EntityID: userID,
		Count:    limit,
	})
	if err != nil {
		s.log.Warn("memories runtime read failed", "user_id", userID, "error", err)
		return nil
	}
	frags := make([]types.MemorySummary, 0, len(recs))
	for _, rec := range recs {
		frags = append(frags, types.MemorySummary{
			Kind:    rec.Kind,
			Content: rec.Content,
		})
	}
	return frags
}

func (s *engagementService) TopStanding(ctx context.Context, limit int) []*types.LeaderboardEntry {
	if limit <= 0 {
		limit = 10
	}
	entries, err := s.repos.Leaderboard.Top(dbctx.New(ctx), limit)
	if err != nil {
		s.log.Warn("leaderboard read failed", "error", err)
		return nil
	}
	return entries
}

func (s *engagementService) TrimFragments(cutoff time.Time) int {
	dropped := 0
	for _, key := range s.fragCache.Keys() {
		s.fragCache.Update(key, func(frags []types.MemorySummary) []types.MemorySummary {
			// Fresh slice: the old backing array may still be referenced by
			// a result handed out before the trim started.
			kept := make([]types.MemorySummary, 0, len(frags))
			for _, f := range frags {
				if f.CreatedAt.After(cutoff) {
					kept = append(kept, f)
				} else {
					dropped++
				}
			}
			return kept
		})
	}
	return dropped
}

func (s *engagementService) FragmentSnapshot() map[uuid.UUID][]types.MemorySummary {
	out := make(map[uuid.UUID][]types.MemorySummary)
	for _, key := range s.fragCache.Keys() {
		id, err := uuid.Parse(key)
		if err != nil {
			continue
		}
		if frags, ok := s.fragCache.Get(key); ok && len(frags) > 0 {
			cp := make([]types.MemorySummary, len(frags))
			copy(cp, frags)
			out[id] = cp
		}
	}
	return out
}

func (s *engagementService) PruneCache() int { return s.fragCache.Prune() }

func (s *engagementService) Health() types.HealthStatus {
	return types.HealthStatus{
		StoreEnabled:         s.storeEnabled,
		MemoryCacheSize:      s.fragCache.Len(),
		PersonalityCacheSize: s.personality.CacheSize(),
	}
}
