package jobs

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/alwrity/alwrity-backend/internal/domain"
	"github.com/alwrity/alwrity-backend/internal/pkg/dbctx"
	"github.com/alwrity/alwrity-backend/internal/platform/logger"
)

type AICallLogRepo interface {
	Create(dbc dbctx.Context, logs []*types.AICallLog) ([]*types.AICallLog, error)
	ListByJobID(dbc dbctx.Context, jobID uuid.UUID) ([]*types.AICallLog, error)
}

type aiCallLogRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewAICallLogRepo(db *gorm.DB, baseLog *logger.Logger) AICallLogRepo {
	return &aiCallLogRepo{db: db, log: baseLog.With("repo", "AICallLogRepo")}
}

func (r *aiCallLogRepo) Create(dbc dbctx.Context, logs []*types.AICallLog) ([]*types.AICallLog, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if len(logs) == 0 {
		return []*types.AICallLog{}, nil
	}
	if err := transaction.WithContext(dbc.Ctx).Create(&logs).Error; err != nil {
		return nil, err
	}
	return logs, nil
}

func (r *aiCallLogRepo) ListByJobID(dbc dbctx.Context, jobID uuid.UUID) ([]*types.AICallLog, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*types.AICallLog
	if jobID == uuid.Nil {
		return out, nil
	}
	if err := transaction.WithContext(dbc.Ctx).
		Where("job_id = ?", jobID).
		Order("created_at ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
