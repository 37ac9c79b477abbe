package content

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/alwrity/alwrity-backend/internal/domain"
	"github.com/alwrity/alwrity-backend/internal/platform/logger"
)

type ContentStrategyRepo interface {
	Create(ctx context.Context, tx *gorm.DB, strategies []*types.ContentStrategy) ([]*types.ContentStrategy, error)
	GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*types.ContentStrategy, error)
	GetByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.ContentStrategy, error)
	UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error
	SoftDeleteByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) error
}

type contentStrategyRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewContentStrategyRepo(db *gorm.DB, baseLog *logger.Logger) ContentStrategyRepo {
	return &contentStrategyRepo{db: db, log: baseLog.With("repo", "ContentStrategyRepo")}
}

func (r *contentStrategyRepo) Create(ctx context.Context, tx *gorm.DB, strategies []*types.ContentStrategy) ([]*types.ContentStrategy, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(strategies) == 0 {
		return []*types.ContentStrategy{}, nil
	}
	if err := transaction.WithContext(ctx).Create(&strategies).Error; err != nil {
		return nil, err
	}
	return strategies, nil
}

func (r *contentStrategyRepo) GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*types.ContentStrategy, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.ContentStrategy
	if len(ids) == 0 {
		return results, nil
	}
	if err := transaction.WithContext(ctx).
		Where("id IN ?", ids).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *contentStrategyRepo) GetByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.ContentStrategy, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.ContentStrategy
	if err := transaction.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *contentStrategyRepo) UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(updates) == 0 {
		return nil
	}
	return transaction.WithContext(ctx).
		Model(&types.ContentStrategy{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *contentStrategyRepo) SoftDeleteByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(ids) == 0 {
		return nil
	}
	return transaction.WithContext(ctx).
		Where("id IN ?", ids).
		Delete(&types.ContentStrategy{}).Error
}
