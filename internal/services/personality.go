package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/raidpulse/raidpulse-backend/internal/cache"
	"github.com/raidpulse/raidpulse-backend/internal/data/repos"
	types "github.com/raidpulse/raidpulse-backend/internal/domain"
	"github.com/raidpulse/raidpulse-backend/internal/pkg/dbctx"
	"github.com/raidpulse/raidpulse-backend/internal/pkg/logger"
)

const (
	personalityCacheTTL  = 24 * time.Hour
	personalityWindow    = 200
	activityWindow       = 7 * 24 * time.Hour
	highActivityCount    = 20
	moderateActivity     = 5
	leaderInitiations    = 2
	participantRaids     = 10
	highContributionHelp = 5
	veteranRaids         = 20
)

type PersonalityService interface {
	// GetPersonalityProfile returns the cached profile when fresh, otherwise
	// rebuilds it wholesale from the user's recent interactions. Transient
	// store failures yield the default profile, never an error.
	GetPersonalityProfile(ctx context.Context, userID uuid.UUID) *types.PersonalityProfile

	// Rebuild bypasses the cache; the refresh job uses it for warming.
	Rebuild(ctx context.Context, userID uuid.UUID) *types.PersonalityProfile

	CacheSize() int
	PruneCache() int
}

type personalityService struct {
	log   *logger.Logger
	clk   clock.Clock
	repos repos.All
	cache *cache.Cache[*types.PersonalityProfile]
}

func NewPersonalityService(log *logger.Logger, clk clock.Clock, r repos.All, maxCache int) PersonalityService {
	return &personalityService{
		log:   log.With("service", "PersonalityService"),
		clk:   clk,
		repos: r,
		cache: cache.New[*types.PersonalityProfile](maxCache,
			cache.WithTTL[*types.PersonalityProfile](personalityCacheTTL),
			cache.WithClock[*types.PersonalityProfile](clk),
		),
	}
}

func (s *personalityService) GetPersonalityProfile(ctx context.Context, userID uuid.UUID) *types.PersonalityProfile {
	if userID == uuid.Nil {
		return defaultProfile(userID, s.clk.Now().UTC())
	}
	if cached, ok := s.cache.Get(userID.String()); ok {
		return cached
	}
	if warm := s.warmStart(ctx, userID); warm != nil {
		return warm
	}
	return s.Rebuild(ctx, userID)
}

// warmStart serves a still-fresh persisted snapshot after a restart, saving
// a full rebuild. A stale or missing snapshot falls through to Rebuild.
func (s *personalityService) warmStart(ctx context.Context, userID uuid.UUID) *types.PersonalityProfile {
	row, err := s.repos.Personality.GetByUser(dbctx.New(ctx), userID)
	if err != nil || row == nil {
		return nil
	}
	if s.clk.Now().UTC().Sub(row.LastUpdated) >= personalityCacheTTL {
		return nil
	}

	profile := &types.PersonalityProfile{
		UserID:                row.UserID,
		EngagementStyle:       row.EngagementStyle,
		CommunicationTone:     row.CommunicationTone,
		ActivityLevel:         row.ActivityLevel,
		CommunityContribution: row.CommunityContribution,
		ReliabilityScore:      row.ReliabilityScore,
		LeadershipPotential:   row.LeadershipPotential,
		InteractionPatterns:   map[string]int{},
		LastUpdated:           row.LastUpdated,
	}
	if len(row.Traits) > 0 {
		if err := json.Unmarshal(row.Traits, &profile.Traits); err != nil {
			profile.Traits = nil
		}
	}
	if len(row.InteractionPatterns) > 0 {
		if err := json.Unmarshal(row.InteractionPatterns, &profile.InteractionPatterns); err != nil {
			profile.InteractionPatterns = map[string]int{}
		}
	}
	s.cache.Put(userID.String(), profile)
	return profile
}

func (s *personalityService) Rebuild(ctx context.Context, userID uuid.UUID) *types.PersonalityProfile {
	now := s.clk.Now().UTC()

	rows, err := s.repos.Interaction.RecentByUser(dbctx.New(ctx), userID, personalityWindow)
	if err != nil {
		s.log.Warn("personality fetch failed, serving default profile", "user_id", userID, "error", err)
		return defaultProfile(userID, now)
	}
	if len(rows) == 0 {
		profile := defaultProfile(userID, now)
		s.cache.Put(userID.String(), profile)
		return profile
	}

	profile := analyze(userID, rows, now)
	s.cache.Put(userID.String(), profile)
	s.snapshot(ctx, profile)
	return profile
}

// analyze derives the full profile in one pass over the interaction set.
func analyze(userID uuid.UUID, rows []*types.CommunityInteraction, now time.Time) *types.PersonalityProfile {
	patterns := make(map[string]int, 8)
	var (
		recentCount   int
		positiveCount int
		negativeCount int
		sentimentSum  float64
	)
	for _, row := range rows {
		patterns[row.InteractionType]++
		if now.Sub(row.Timestamp) <= activityWindow {
			recentCount++
		}
		if row.Weight > 1 {
			positiveCount++
		} else if row.Weight < 0 {
			negativeCount++
		}
		sentimentSum += row.SentimentScore
	}
	total := len(rows)
	meanSentiment := sentimentSum / float64(total)

	profile := &types.PersonalityProfile{
		UserID:              userID,
		InteractionPatterns: patterns,
		LastUpdated:         now,
	}

	switch {
	case recentCount > highActivityCount:
		profile.ActivityLevel = "high"
	case recentCount > moderateActivity:
		profile.ActivityLevel = "moderate"
	default:
		profile.ActivityLevel = "low"
	}

	switch {
	case patterns[types.InteractionRaidInitiation] > leaderInitiations:
		profile.EngagementStyle = types.StyleLeader
	case patterns[types.InteractionRaidParticipation] > participantRaids:
		profile.EngagementStyle = types.StyleActiveParticipant
	case patterns[types.InteractionQualityEngagement] > patterns[types.InteractionRaidParticipation]:
		profile.EngagementStyle = types.StyleQualityFocused
	default:
		profile.EngagementStyle = types.StyleBalanced
	}

	if patterns[types.InteractionCommunityHelp] > highContributionHelp {
		profile.CommunityContribution = "high"
		profile.Traits = append(profile.Traits, "helpful")
	} else {
		profile.CommunityContribution = "average"
	}

	profile.ReliabilityScore = clamp01(float64(positiveCount-negativeCount) / float64(total))

	profile.LeadershipPotential = clamp01(
		(float64(patterns[types.InteractionMentorBehavior])*0.4 +
			float64(patterns[types.InteractionKnowledgeSharing])*0.3 +
			float64(patterns[types.InteractionConstructiveFeedback])*0.3) / 10,
	)

	switch {
	case meanSentiment > 0.3:
		profile.CommunicationTone = "positive"
	case meanSentiment < -0.3:
		profile.CommunicationTone = "negative"
	default:
		profile.CommunicationTone = "neutral"
	}

	if profile.ReliabilityScore > 0.8 {
		profile.Traits = append(profile.Traits, "reliable")
	}
	if profile.LeadershipPotential > 0.6 {
		profile.Traits = append(profile.Traits, "leader")
	}
	if meanSentiment > 0.5 {
		profile.Traits = append(profile.Traits, "positive_influence")
	}
	if patterns[types.InteractionRaidParticipation] > veteranRaids {
		profile.Traits = append(profile.Traits, "raid_veteran")
	}

	return profile
}

// defaultProfile is the exact profile served for members with no history.
func defaultProfile(userID uuid.UUID, now time.Time) *types.PersonalityProfile {
	return &types.PersonalityProfile{
		UserID:                userID,
		EngagementStyle:       types.StyleNewUser,
		CommunicationTone:     "neutral",
		ActivityLevel:         "low",
		CommunityContribution: "average",
		ReliabilityScore:      0.5,
		LeadershipPotential:   0.5,
		Traits:                []string{"new_member"},
		InteractionPatterns:   map[string]int{},
		LastUpdated:           now,
	}
}

// snapshot persists the rebuilt profile for reporting; failures are logged
// and ignored, the cache copy is authoritative until the next rebuild.
func (s *personalityService) snapshot(ctx context.Context, p *types.PersonalityProfile) {
	traits, err := json.Marshal(p.Traits)
	if err != nil {
		traits = []byte(`[]`)
	}
	patterns, err := json.Marshal(p.InteractionPatterns)
	if err != nil {
		patterns = []byte(`{}`)
	}
	row := &types.UserPersonality{
		UserID:                p.UserID,
		EngagementStyle:       p.EngagementStyle,
		CommunicationTone:     p.CommunicationTone,
		ActivityLevel:         p.ActivityLevel,
		CommunityContribution: p.CommunityContribution,
		ReliabilityScore:      p.ReliabilityScore,
		LeadershipPotential:   p.LeadershipPotential,
		Traits:                datatypes.JSON(traits),
		InteractionPatterns:   datatypes.JSON(patterns),
		LastUpdated:           p.LastUpdated,
	}
	if err := s.repos.Personality.Upsert(dbctx.New(ctx), row); err != nil {
		s.log.Warn("personality snapshot failed", "user_id", p.UserID, "error", err)
	}
}

func (s *personalityService) CacheSize() int  { return s.cache.Len() }
func (s *personalityService) PruneCache() int { return s.cache.Prune() }

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
