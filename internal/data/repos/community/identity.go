package community

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/raidpulse/raidpulse-backend/internal/domain"
	"github.com/raidpulse/raidpulse-backend/internal/pkg/dbctx"
	"github.com/raidpulse/raidpulse-backend/internal/pkg/logger"
)

type UserIdentityRepo interface {
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.UserIdentity, error)
	Create(dbc dbctx.Context, row *types.UserIdentity) error
	UpsertMetadata(dbc dbctx.Context, id uuid.UUID, displayName, preferredPlatform string) error
	TouchLastActive(dbc dbctx.Context, id uuid.UUID, at time.Time) error
}

type userIdentityRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewUserIdentityRepo(db *gorm.DB, baseLog *logger.Logger) UserIdentityRepo {
	return &userIdentityRepo{db: db, log: baseLog.With("repo", "UserIdentityRepo")}
}

func (r *userIdentityRepo) handle(dbc dbctx.Context) *gorm.DB {
	if dbc.Tx != nil {
		return dbc.Tx.WithContext(dbc.Ctx)
	}
	return r.db.WithContext(dbc.Ctx)
}

func (r *userIdentityRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.UserIdentity, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	var row types.UserIdentity
	err := r.handle(dbc).Where("id = ?", id).First(&row).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

func (r *userIdentityRepo) Create(dbc dbctx.Context, row *types.UserIdentity) error {
	if row == nil {
		return nil
	}
	return r.handle(dbc).Create(row).Error
}

func (r *userIdentityRepo) UpsertMetadata(dbc dbctx.Context, id uuid.UUID, displayName, preferredPlatform string) error {
	if id == uuid.Nil {
		return nil
	}
	updates := map[string]any{}
	if displayName != "" {
		updates["display_name"] = displayName
	}
	if preferredPlatform != "" {
		updates["preferred_platform"] = preferredPlatform
	}
	if len(updates) == 0 {
		return nil
	}
	return r.handle(dbc).
		Model(&types.UserIdentity{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *userIdentityRepo) TouchLastActive(dbc dbctx.Context, id uuid.UUID, at time.Time) error {
	if id == uuid.Nil {
		return nil
	}
	return r.handle(dbc).
		Model(&types.UserIdentity{}).
		Where("id = ?", id).
		Update("last_active_at", at).Error
}
