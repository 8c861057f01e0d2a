package community

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/raidpulse/raidpulse-backend/internal/domain"
	"github.com/raidpulse/raidpulse-backend/internal/pkg/dbctx"
	"github.com/raidpulse/raidpulse-backend/internal/pkg/logger"
)

type LeaderboardRepo interface {
	ApplyDelta(dbc dbctx.Context, userID uuid.UUID, weight float64, at time.Time) (*types.LeaderboardEntry, error)
	Top(dbc dbctx.Context, n int) ([]*types.LeaderboardEntry, error)
}

type leaderboardRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewLeaderboardRepo(db *gorm.DB, baseLog *logger.Logger) LeaderboardRepo {
	return &leaderboardRepo{db: db, log: baseLog.With("repo", "LeaderboardRepo")}
}

func (r *leaderboardRepo) handle(dbc dbctx.Context) *gorm.DB {
	if dbc.Tx != nil {
		return dbc.Tx.WithContext(dbc.Ctx)
	}
	return r.db.WithContext(dbc.Ctx)
}

func (r *leaderboardRepo) ApplyDelta(dbc dbctx.Context, userID uuid.UUID, weight float64, at time.Time) (*types.LeaderboardEntry, error) {
	if userID == uuid.Nil {
		return nil, nil
	}
	row := &types.LeaderboardEntry{
		UserID:           userID,
		TotalWeight:      weight,
		InteractionCount: 1,
		LastEventAt:      at,
	}
	err := r.handle(dbc).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"total_weight":      gorm.Expr("leaderboards.total_weight + ?", weight),
				"interaction_count": gorm.Expr("leaderboards.interaction_count + 1"),
				"last_event_at":     at,
			}),
		}).
		Create(row).Error
	if err != nil {
		return nil, err
	}
	var updated types.LeaderboardEntry
	if err := r.handle(dbc).Where("user_id = ?", userID).First(&updated).Error; err != nil {
		return nil, err
	}
	return &updated, nil
}

func (r *leaderboardRepo) Top(dbc dbctx.Context, n int) ([]*types.LeaderboardEntry, error) {
	if n <= 0 {
		n = 10
	}
	var rows []*types.LeaderboardEntry
	err := r.handle(dbc).
		Order("total_weight DESC").
		Limit(n).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
