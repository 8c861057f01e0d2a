package community

import (
	"time"

	"github.com/google/uuid"
)

// LeaderboardEntry accumulates reputation standing per member. Rows are only
// touched when an interaction clears the high-value threshold.
type LeaderboardEntry struct {
	UserID           uuid.UUID `gorm:"type:uuid;primaryKey;column:user_id" json:"user_id"`
	TotalWeight      float64   `gorm:"not null;column:total_weight" json:"total_weight"`
	InteractionCount int       `gorm:"not null;column:interaction_count" json:"interaction_count"`
	LastEventAt      time.Time `gorm:"not null;column:last_event_at" json:"last_event_at"`
}

func (LeaderboardEntry) TableName() string { return "leaderboards" }

// MemoryFragment is the relational mirror of one cached memory, written by the
// best-effort cross-store sync job.
type MemoryFragment struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;index;column:user_id" json:"user_id"`
	Kind      string    `gorm:"column:kind" json:"kind"`
	Content   string    `gorm:"column:content" json:"content"`
	Weight    float64   `json:"weight"`
	CreatedAt time.Time `gorm:"not null;index" json:"created_at"`
}

func (MemoryFragment) TableName() string { return "memory_fragments" }

// StandingEvent is published on the standing bus when a member's interaction
// clears the high-value threshold.
type StandingEvent struct {
	UserID          uuid.UUID `json:"user_id"`
	Username        string    `json:"username"`
	Platform        string    `json:"platform"`
	InteractionType string    `json:"interaction_type"`
	Weight          float64   `json:"weight"`
	TotalWeight     float64   `json:"total_weight"`
	OccurredAt      time.Time `json:"occurred_at"`
}

// HealthStatus is the engine's self-report surfaced to the host.
type HealthStatus struct {
	StoreEnabled         bool `json:"store_enabled"`
	MemoryCacheSize      int  `json:"memory_cache_size"`
	PersonalityCacheSize int  `json:"personality_cache_size"`
}
