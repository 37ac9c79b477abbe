package content

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/alwrity/alwrity-backend/internal/domain"
	"github.com/alwrity/alwrity-backend/internal/platform/logger"
)

type ContentCalendarRepo interface {
	Create(ctx context.Context, tx *gorm.DB, calendars []*types.ContentCalendar) ([]*types.ContentCalendar, error)
	GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*types.ContentCalendar, error)
	GetByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.ContentCalendar, error)
	UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error
	SoftDeleteByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) error
}

type contentCalendarRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewContentCalendarRepo(db *gorm.DB, baseLog *logger.Logger) ContentCalendarRepo {
	return &contentCalendarRepo{db: db, log: baseLog.With("repo", "ContentCalendarRepo")}
}

func (r *contentCalendarRepo) Create(ctx context.Context, tx *gorm.DB, calendars []*types.ContentCalendar) ([]*types.ContentCalendar, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(calendars) == 0 {
		return []*types.ContentCalendar{}, nil
	}
	if err := transaction.WithContext(ctx).Create(&calendars).Error; err != nil {
		return nil, err
	}
	return calendars, nil
}

func (r *contentCalendarRepo) GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*types.ContentCalendar, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.ContentCalendar
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

func (r *contentCalendarRepo) GetByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.ContentCalendar, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.ContentCalendar
	if err := transaction.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *contentCalendarRepo) UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(updates) == 0 {
		return nil
	}
	return transaction.WithContext(ctx).
		Model(&types.ContentCalendar{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *contentCalendarRepo) SoftDeleteByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(ids) == 0 {
		return nil
	}
	return transaction.WithContext(ctx).
		Where("id IN ?", ids).
		Delete(&types.ContentCalendar{}).Error
}
