package community

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Platforms a community member can be reached on. The resolver treats the set
// as open: unknown platform strings are stored as-is.
const (
	PlatformTwitter  = "twitter"
	PlatformTelegram = "telegram"
	PlatformDiscord  = "discord"
	PlatformWeb      = "web"
)

// UserIdentity is the canonical, platform-independent record for one person.
// Rows are created on first contact from any platform and never deleted.
type UserIdentity struct {
	ID                uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	DisplayName       string         `gorm:"column:display_name" json:"display_name"`
	PreferredPlatform string         `gorm:"column:preferred_platform" json:"preferred_platform"`
	IsTemporary       bool           `gorm:"column:is_temporary;not null;default:false" json:"is_temporary"`
	Metadata          datatypes.JSON `gorm:"column:metadata" json:"metadata,omitempty"`
	CreatedAt         time.Time      `gorm:"not null" json:"created_at"`
	LastActiveAt      time.Time      `gorm:"not null;index" json:"last_active_at"`
}

func (UserIdentity) TableName() string { return "user_identities" }

// PlatformAccount binds one (platform, platform_id) pair to a canonical
// identity. The pair is globally unique and immutable once bound.
type PlatformAccount struct {
	ID               uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	UserUUID         uuid.UUID      `gorm:"type:uuid;not null;index;column:user_uuid" json:"user_uuid"`
	Platform         string         `gorm:"not null;uniqueIndex:idx_platform_account" json:"platform"`
	PlatformID       string         `gorm:"not null;uniqueIndex:idx_platform_account;column:platform_id" json:"platform_id"`
	PlatformUsername string         `gorm:"column:platform_username" json:"platform_username"`
	VerifiedAt       *time.Time     `gorm:"column:verified_at" json:"verified_at,omitempty"`
	Metadata         datatypes.JSON `gorm:"column:metadata" json:"metadata,omitempty"`
	CreatedAt        time.Time      `gorm:"not null" json:"created_at"`
}

func (PlatformAccount) TableName() string { return "platform_accounts" }
