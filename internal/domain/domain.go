package domain

import (
	"github.com/raidpulse/raidpulse-backend/internal/domain/community"
)

const (
	PlatformTwitter  = community.PlatformTwitter
	PlatformTelegram = community.PlatformTelegram
	PlatformDiscord  = community.PlatformDiscord
	PlatformWeb      = community.PlatformWeb

	InteractionMentorBehavior       = community.InteractionMentorBehavior
	InteractionRaidInitiation       = community.InteractionRaidInitiation
	InteractionCommunityHelp        = community.InteractionCommunityHelp
	InteractionQualityEngagement    = community.InteractionQualityEngagement
	InteractionRaidParticipation    = community.InteractionRaidParticipation
	InteractionKnowledgeSharing     = community.InteractionKnowledgeSharing
	InteractionConstructiveFeedback = community.InteractionConstructiveFeedback
	InteractionTelegramMessage      = community.InteractionTelegramMessage
	InteractionToxicBehavior        = community.InteractionToxicBehavior
	InteractionSpamReport           = community.InteractionSpamReport
	InteractionUnknown              = community.InteractionUnknown

	StyleNewUser           = community.StyleNewUser
	StyleLeader            = community.StyleLeader
	StyleActiveParticipant = community.StyleActiveParticipant
	StyleQualityFocused    = community.StyleQualityFocused
	StyleBalanced          = community.StyleBalanced
)

type UserIdentity = community.UserIdentity
type PlatformAccount = community.PlatformAccount
type CommunityInteraction = community.CommunityInteraction
type ArchivedInteraction = community.ArchivedInteraction
type RawInteraction = community.RawInteraction
type InteractionContext = community.InteractionContext

type PersonalityProfile = community.PersonalityProfile
type UserPersonality = community.UserPersonality

type LeaderboardEntry = community.LeaderboardEntry
type MemoryFragment = community.MemoryFragment
type StandingEvent = community.StandingEvent
type HealthStatus = community.HealthStatus

type Insight = community.Insight
type InsightBundle = community.InsightBundle
type MemorySummary = community.MemorySummary
type KnowledgeDoc = community.KnowledgeDoc
