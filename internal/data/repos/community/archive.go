package community

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/raidpulse/raidpulse-backend/internal/domain"
	"github.com/raidpulse/raidpulse-backend/internal/pkg/dbctx"
	"github.com/raidpulse/raidpulse-backend/internal/pkg/logger"
)

type ArchiveRepo interface {
	CreateMany(dbc dbctx.Context, rows []*types.ArchivedInteraction) error
	CountAll(dbc dbctx.Context) (int64, error)
}

type archiveRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewArchiveRepo(db *gorm.DB, baseLog *logger.Logger) ArchiveRepo {
	return &archiveRepo{db: db, log: baseLog.With("repo", "ArchiveRepo")}
}

func (r *archiveRepo) handle(dbc dbctx.Context) *gorm.DB {
	if dbc.Tx != nil {
		return dbc.Tx.WithContext(dbc.Ctx)
	}
	return r.db.WithContext(dbc.Ctx)
}

// CreateMany is idempotent on original_id so a consolidation cycle that died
// between archive and delete can safely re-run.
func (r *archiveRepo) CreateMany(dbc dbctx.Context, rows []*types.ArchivedInteraction) error {
	if len(rows) == 0 {
		return nil
	}
	return r.handle(dbc).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "original_id"}},
			DoNothing: true,
		}).
		Create(rows).Error
}

func (r *archiveRepo) CountAll(dbc dbctx.Context) (int64, error) {
	var count int64
	err := r.handle(dbc).Model(&types.ArchivedInteraction{}).Count(&count).Error
	return count, err
}
