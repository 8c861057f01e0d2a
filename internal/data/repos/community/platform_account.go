package community

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/raidpulse/raidpulse-backend/internal/domain"
	"github.com/raidpulse/raidpulse-backend/internal/pkg/dbctx"
	"github.com/raidpulse/raidpulse-backend/internal/pkg/logger"
)

type PlatformAccountRepo interface {
	GetByPlatformID(dbc dbctx.Context, platform, platformID string) (*types.PlatformAccount, error)
	GetByUser(dbc dbctx.Context, userUUID uuid.UUID) ([]*types.PlatformAccount, error)
	Create(dbc dbctx.Context, row *types.PlatformAccount) error
}

type platformAccountRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPlatformAccountRepo(db *gorm.DB, baseLog *logger.Logger) PlatformAccountRepo {
	return &platformAccountRepo{db: db, log: baseLog.With("repo", "PlatformAccountRepo")}
}

func (r *platformAccountRepo) handle(dbc dbctx.Context) *gorm.DB {
	if dbc.Tx != nil {
		return dbc.Tx.WithContext(dbc.Ctx)
	}
	return r.db.WithContext(dbc.Ctx)
}

func (r *platformAccountRepo) GetByPlatformID(dbc dbctx.Context, platform, platformID string) (*types.PlatformAccount, error) {
	if platform == "" || platformID == "" {
		return nil, nil
	}
	var row types.PlatformAccount
	err := r.handle(dbc).
		Where("platform = ? AND platform_id = ?", platform, platformID).
		First(&row).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

func (r *platformAccountRepo) GetByUser(dbc dbctx.Context, userUUID uuid.UUID) ([]*types.PlatformAccount, error) {
	if userUUID == uuid.Nil {
		return nil, nil
	}
	var rows []*types.PlatformAccount
	err := r.handle(dbc).
		Where("user_uuid = ?", userUUID).
		Order("created_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *platformAccountRepo) Create(dbc dbctx.Context, row *types.PlatformAccount) error {
	if row == nil {
		return nil
	}
	return r.handle(dbc).Create(row).Error
}
