package community

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/raidpulse/raidpulse-backend/internal/domain"
	"github.com/raidpulse/raidpulse-backend/internal/pkg/dbctx"
	"github.com/raidpulse/raidpulse-backend/internal/pkg/logger"
)

type InteractionRepo interface {
	Create(dbc dbctx.Context, row *types.CommunityInteraction) error
	RecentByUser(dbc dbctx.Context, userID uuid.UUID, limit int) ([]*types.CommunityInteraction, error)
	OlderThanBelowWeight(dbc dbctx.Context, cutoff time.Time, maxWeight float64, limit int) ([]*types.CommunityInteraction, error)
	DeleteByIDs(dbc dbctx.Context, ids []uuid.UUID) error
	CountSince(dbc dbctx.Context, userID uuid.UUID, since time.Time) (int64, error)
	ActiveUserIDsSince(dbc dbctx.Context, since time.Time, limit int) ([]uuid.UUID, error)
}

type interactionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewInteractionRepo(db *gorm.DB, baseLog *logger.Logger) InteractionRepo {
	return &interactionRepo{db: db, log: baseLog.With("repo", "InteractionRepo")}
}

func (r *interactionRepo) handle(dbc dbctx.Context) *gorm.DB {
	if dbc.Tx != nil {
		return dbc.Tx.WithContext(dbc.Ctx)
	}
	return r.db.WithContext(dbc.Ctx)
}

func (r *interactionRepo) Create(dbc dbctx.Context, row *types.CommunityInteraction) error {
	if row == nil {
		return nil
	}
	return r.handle(dbc).Create(row).Error
}

func (r *interactionRepo) RecentByUser(dbc dbctx.Context, userID uuid.UUID, limit int) ([]*types.CommunityInteraction, error) {
	if userID == uuid.Nil {
		return nil, nil
	}
	if limit <= 0 {
		limit = 200
	}
	var rows []*types.CommunityInteraction
	err := r.handle(dbc).
		Where("user_id = ?", userID).
		Order("timestamp DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *interactionRepo) OlderThanBelowWeight(dbc dbctx.Context, cutoff time.Time, maxWeight float64, limit int) ([]*types.CommunityInteraction, error) {
	if limit <= 0 {
		limit = 500
	}
	var rows []*types.CommunityInteraction
	err := r.handle(dbc).
		Where("timestamp < ? AND weight < ?", cutoff, maxWeight).
		Order("timestamp ASC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *interactionRepo) DeleteByIDs(dbc dbctx.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	return r.handle(dbc).
		Where("id IN ?", ids).
		Delete(&types.CommunityInteraction{}).Error
}

func (r *interactionRepo) CountSince(dbc dbctx.Context, userID uuid.UUID, since time.Time) (int64, error) {
	if userID == uuid.Nil {
		return 0, nil
	}
	var count int64
	err := r.handle(dbc).
		Model(&types.CommunityInteraction{}).
		Where("user_id = ? AND timestamp >= ?", userID, since).
		Count(&count).Error
	return count, err
}

func (r *interactionRepo) ActiveUserIDsSince(dbc dbctx.Context, since time.Time, limit int) ([]uuid.UUID, error) {
	if limit <= 0 {
		limit = 100
	}
	var ids []uuid.UUID
	err := r.handle(dbc).
		Model(&types.CommunityInteraction{}).
		Distinct("user_id").
		Where("timestamp >= ?", since).
		Limit(limit).
		Pluck("user_id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}
