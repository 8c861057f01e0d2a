package repos

import (
	"gorm.io/gorm"

	"github.com/raidpulse/raidpulse-backend/internal/data/repos/community"
	"github.com/raidpulse/raidpulse-backend/internal/pkg/logger"
)

type UserIdentityRepo = community.UserIdentityRepo
type PlatformAccountRepo = community.PlatformAccountRepo
type InteractionRepo = community.InteractionRepo
type ArchiveRepo = community.ArchiveRepo
type PersonalityRepo = community.PersonalityRepo
type LeaderboardRepo = community.LeaderboardRepo
type MemoryFragmentRepo = community.MemoryFragmentRepo

func NewUserIdentityRepo(db *gorm.DB, baseLog *logger.Logger) UserIdentityRepo {
	return community.NewUserIdentityRepo(db, baseLog)
}
func NewPlatformAccountRepo(db *gorm.DB, baseLog *logger.Logger) PlatformAccountRepo {
	return community.NewPlatformAccountRepo(db, baseLog)
}
func NewInteractionRepo(db *gorm.DB, baseLog *logger.Logger) InteractionRepo {
	return community.NewInteractionRepo(db, baseLog)
}
func NewArchiveRepo(db *gorm.DB, baseLog *logger.Logger) ArchiveRepo {
	return community.NewArchiveRepo(db, baseLog)
}
func NewPersonalityRepo(db *gorm.DB, baseLog *logger.Logger) PersonalityRepo {
	return community.NewPersonalityRepo(db, baseLog)
}
func NewLeaderboardRepo(db *gorm.DB, baseLog *logger.Logger) LeaderboardRepo {
	return community.NewLeaderboardRepo(db, baseLog)
}
func NewMemoryFragmentRepo(db *gorm.DB, baseLog *logger.Logger) MemoryFragmentRepo {
	return community.NewMemoryFragmentRepo(db, baseLog)
}

// All bundles the repo set a service layer needs. Either every field is a
// live gorm-backed repo or every field is the null implementation.
type All struct {
	UserIdentity    UserIdentityRepo
	PlatformAccount PlatformAccountRepo
	Interaction     InteractionRepo
	Archive         ArchiveRepo
	Personality     PersonalityRepo
	Leaderboard     LeaderboardRepo
	MemoryFragment  MemoryFragmentRepo
}

func NewAll(db *gorm.DB, baseLog *logger.Logger) All {
	return All{
		UserIdentity:    NewUserIdentityRepo(db, baseLog),
		PlatformAccount: NewPlatformAccountRepo(db, baseLog),
		Interaction:     NewInteractionRepo(db, baseLog),
		Archive:         NewArchiveRepo(db, baseLog),
		Personality:     NewPersonalityRepo(db, baseLog),
		Leaderboard:     NewLeaderboardRepo(db, baseLog),
		MemoryFragment:  NewMemoryFragmentRepo(db, baseLog),
	}
}
