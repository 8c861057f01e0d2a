package community

import (
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/raidpulse/raidpulse-backend/internal/domain"
	"github.com/raidpulse/raidpulse-backend/internal/pkg/dbctx"
	"github.com/raidpulse/raidpulse-backend/internal/pkg/logger"
)

type MemoryFragmentRepo interface {
	CreateMany(dbc dbctx.Context, rows []*types.MemoryFragment) error
	DeleteOlderThan(dbc dbctx.Context, cutoff time.Time) error
}

type memoryFragmentRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewMemoryFragmentRepo(db *gorm.DB, baseLog *logger.Logger) MemoryFragmentRepo {
	return &memoryFragmentRepo{db: db, log: baseLog.With("repo", "MemoryFragmentRepo")}
}

func (r *memoryFragmentRepo) handle(dbc dbctx.Context) *gorm.DB {
	if dbc.Tx != nil {
		return dbc.Tx.WithContext(dbc.Ctx)
	}
	return r.db.WithContext(dbc.Ctx)
}

func (r *memoryFragmentRepo) CreateMany(dbc dbctx.Context, rows []*types.MemoryFragment) error {
	if len(rows) == 0 {
		return nil
	}
	return r.handle(dbc).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoNothing: true,
		}).
		Create(rows).Error
}

func (r *memoryFragmentRepo) DeleteOlderThan(dbc dbctx.Context, cutoff time.Time) error {
	return r.handle(dbc).
		Where("created_at < ?", cutoff).
		Delete(&types.MemoryFragment{}).Error
}
