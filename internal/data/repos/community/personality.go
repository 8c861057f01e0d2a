package community

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/raidpulse/raidpulse-backend/internal/domain"
	"github.com/raidpulse/raidpulse-backend/internal/pkg/dbctx"
	"github.com/raidpulse/raidpulse-backend/internal/pkg/logger"
)

type PersonalityRepo interface {
	GetByUser(dbc dbctx.Context, userID uuid.UUID) (*types.UserPersonality, error)
	Upsert(dbc dbctx.Context, row *types.UserPersonality) error
}

type personalityRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPersonalityRepo(db *gorm.DB, baseLog *logger.Logger) PersonalityRepo {
	return &personalityRepo{db: db, log: baseLog.With("repo", "PersonalityRepo")}
}

func (r *personalityRepo) handle(dbc dbctx.Context) *gorm.DB {
	if dbc.Tx != nil {
		return dbc.Tx.WithContext(dbc.Ctx)
	}
	return r.db.WithContext(dbc.Ctx)
}

func (r *personalityRepo) GetByUser(dbc dbctx.Context, userID uuid.UUID) (*types.UserPersonality, error) {
	if userID == uuid.Nil {
		return nil, nil
	}
	var row types.UserPersonality
	err := r.handle(dbc).Where("user_id = ?", userID).First(&row).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

func (r *personalityRepo) Upsert(dbc dbctx.Context, row *types.UserPersonality) error {
	if row == nil {
		return nil
	}
	return r.handle(dbc).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"engagement_style", "communication_tone", "activity_level",
				"community_contribution", "reliability_score", "leadership_potential",
				"traits", "interaction_patterns", "last_updated",
			}),
		}).
		Create(row).Error
}
