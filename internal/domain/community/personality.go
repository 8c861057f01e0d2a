package community

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Engagement styles the analyzer can assign.
const (
	StyleNewUser           = "new_user"
	StyleLeader            = "leader"
	StyleActiveParticipant = "active_participant"
	StyleQualityFocused    = "quality_focused"
	StyleBalanced          = "balanced"
)

// PersonalityProfile is the derived behavioral profile for one member. It is
// rebuilt wholesale from recent interactions on every cache miss or expiry,
// never updated incrementally.
type PersonalityProfile struct {
	UserID                uuid.UUID      `json:"user_id"`
	EngagementStyle       string         `json:"engagement_style"`
	CommunicationTone     string         `json:"communication_tone"`
	ActivityLevel         string         `json:"activity_level"`
	CommunityContribution string         `json:"community_contribution"`
	ReliabilityScore      float64        `json:"reliability_score"`
	LeadershipPotential   float64        `json:"leadership_potential"`
	Traits                []string       `json:"traits"`
	InteractionPatterns   map[string]int `json:"interaction_patterns"`
	LastUpdated           time.Time      `json:"last_updated"`
}

// UserPersonality is the persisted snapshot of the latest rebuild. Reads go
// through the analyzer, not this table; it exists for reporting and for
// warm-start after a restart.
type UserPersonality struct {
	UserID                uuid.UUID      `gorm:"type:uuid;primaryKey;column:user_id" json:"user_id"`
	EngagementStyle       string         `gorm:"column:engagement_style" json:"engagement_style"`
	CommunicationTone     string         `gorm:"column:communication_tone" json:"communication_tone"`
	ActivityLevel         string         `gorm:"column:activity_level" json:"activity_level"`
	CommunityContribution string         `gorm:"column:community_contribution" json:"community_contribution"`
	ReliabilityScore      float64        `gorm:"column:reliability_score" json:"reliability_score"`
	LeadershipPotential   float64        `gorm:"column:leadership_potential" json:"leadership_potential"`
	Traits                datatypes.JSON `gorm:"column:traits" json:"traits,omitempty"`
	InteractionPatterns   datatypes.JSON `gorm:"column:interaction_patterns" json:"interaction_patterns,omitempty"`
	LastUpdated           time.Time      `gorm:"not null;column:last_updated" json:"last_updated"`
}

func (UserPersonality) TableName() string { return "user_personalities" }
