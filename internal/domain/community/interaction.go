package community

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Interaction types with non-default base weights. Anything else resolves to
// InteractionUnknown and scores at the default base weight.
const (
	InteractionMentorBehavior       = "mentor_behavior"
	InteractionRaidInitiation       = "raid_initiation"
	InteractionCommunityHelp        = "community_help"
	InteractionQualityEngagement    = "quality_engagement"
	InteractionRaidParticipation    = "raid_participation"
	InteractionKnowledgeSharing     = "knowledge_sharing"
	InteractionConstructiveFeedback = "constructive_feedback"
	InteractionTelegramMessage      = "telegram_message"
	InteractionToxicBehavior        = "toxic_behavior"
	InteractionSpamReport           = "spam_report"
	InteractionUnknown              = "unknown"
)

// InteractionContext carries the situational flags the weight engine rewards.
type InteractionContext struct {
	MentionsOthers  bool `json:"mentions_others,omitempty"`
	HelpsNewbie     bool `json:"helps_newbie,omitempty"`
	SharesResources bool `json:"shares_resources,omitempty"`
}

// CommunityInteraction is the append-only log backing all scoring and
// analytics. Rows may later move to archived_interactions but are never
// mutated after the weight is written.
type CommunityInteraction struct {
	ID              uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	UserID          uuid.UUID      `gorm:"type:uuid;not null;index;column:user_id" json:"user_id"`
	OriginalUserID  string         `gorm:"column:original_user_id" json:"original_user_id"`
	Username        string         `gorm:"column:username" json:"username"`
	InteractionType string         `gorm:"not null;index;column:interaction_type" json:"interaction_type"`
	Content         string         `gorm:"column:content" json:"content"`
	Context         datatypes.JSON `gorm:"column:context" json:"context,omitempty"`
	Weight          float64        `gorm:"not null;index" json:"weight"`
	SentimentScore  float64        `gorm:"column:sentiment_score" json:"sentiment_score"`
	RelatedRaidID   *uuid.UUID     `gorm:"type:uuid;column:related_raid_id" json:"related_raid_id,omitempty"`
	Platform        string         `gorm:"column:platform" json:"platform"`
	RoomID          string         `gorm:"column:room_id" json:"room_id"`
	Timestamp       time.Time      `gorm:"not null;index" json:"timestamp"`
}

func (CommunityInteraction) TableName() string { return "community_interactions" }

// ContextFlags decodes the stored context column. A missing or malformed
// column reads as all-false.
func (ci *CommunityInteraction) ContextFlags() InteractionContext {
	var flags InteractionContext
	if len(ci.Context) == 0 {
		return flags
	}
	_ = json.Unmarshal(ci.Context, &flags)
	return flags
}

// ArchivedInteraction is a consolidated copy of an aged low-value row.
type ArchivedInteraction struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	OriginalID      uuid.UUID `gorm:"type:uuid;not null;uniqueIndex;column:original_id" json:"original_id"`
	UserID          uuid.UUID `gorm:"type:uuid;not null;index;column:user_id" json:"user_id"`
	InteractionType string    `gorm:"column:interaction_type" json:"interaction_type"`
	Content         string    `gorm:"column:content" json:"content"`
	Weight          float64   `json:"weight"`
	Platform        string    `json:"platform"`
	Timestamp       time.Time `json:"timestamp"`
	ArchivedAt      time.Time `gorm:"not null" json:"archived_at"`
	Reason          string    `json:"reason"`
}

func (ArchivedInteraction) TableName() string { return "archived_interactions" }

// RawInteraction is the heterogeneous shape platform connectors hand us.
// Normalize is the single ingress point that turns it into a canonical row.
type RawInteraction struct {
	Platform        string
	PlatformID      string
	Username        string
	InteractionType string
	Content         string
	SentimentScore  float64
	RelatedRaidID   *uuid.UUID
	RoomID          string
	Timestamp       time.Time
	Context         InteractionContext
	// Metadata is connector-supplied identity detail, persisted when the
	// interaction mints a new canonical identity.
	Metadata map[string]any
}

// Normalize clamps sentiment into [-1,1], defaults the interaction type to
// "unknown" and the timestamp to now. It never fails: connectors must be able
// to record anything they saw.
func (raw RawInteraction) Normalize(now time.Time) RawInteraction {
	out := raw
	out.InteractionType = strings.TrimSpace(strings.ToLower(out.InteractionType))
	if out.InteractionType == "" {
		out.InteractionType = InteractionUnknown
	}
	out.Platform = strings.TrimSpace(strings.ToLower(out.Platform))
	if out.SentimentScore > 1 {
		out.SentimentScore = 1
	} else if out.SentimentScore < -1 {
		out.SentimentScore = -1
	}
	if out.Timestamp.IsZero() {
		out.Timestamp = now
	}
	return out
}
