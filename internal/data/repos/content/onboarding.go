package content

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/alwrity/alwrity-backend/internal/domain"
	"github.com/alwrity/alwrity-backend/internal/platform/logger"
)

type OnboardingSessionRepo interface {
	Create(ctx context.Context, tx *gorm.DB, sessions []*types.OnboardingSession) ([]*types.OnboardingSession, error)
	GetByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*types.OnboardingSession, error)
	GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*types.OnboardingSession, error)
	UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error
	// AdvanceStep moves current_step to step only when it is strictly ahead of
	// the stored value. Returns false when the stored step was already >= step.
	AdvanceStep(ctx context.Context, tx *gorm.DB, id uuid.UUID, step int) (bool, error)
}

type onboardingSessionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewOnboardingSessionRepo(db *gorm.DB, baseLog *logger.Logger) OnboardingSessionRepo {
	return &onboardingSessionRepo{db: db, log: baseLog.With("repo", "OnboardingSessionRepo")}
}

func (r *onboardingSessionRepo) Create(ctx context.Context, tx *gorm.DB, sessions []*types.OnboardingSession) ([]*types.OnboardingSession, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(sessions) == 0 {
		return []*types.OnboardingSession{}, nil
	}
	if err := transaction.WithContext(ctx).Create(&sessions).Error; err != nil {
		return nil, err
	}
	return sessions, nil
}

func (r *onboardingSessionRepo) GetByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*types.OnboardingSession, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var session types.OnboardingSession
	err := transaction.WithContext(ctx).
		Where("user_id = ?", userID).
		First(&session).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *onboardingSessionRepo) GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*types.OnboardingSession, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.OnboardingSession
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

func (r *onboardingSessionRepo) UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(updates) == 0 {
		return nil
	}
	return transaction.WithContext(ctx).
		Model(&types.OnboardingSession{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *onboardingSessionRepo) AdvanceStep(ctx context.Context, tx *gorm.DB, id uuid.UUID, step int) (bool, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	res := transaction.WithContext(ctx).
		Model(&types.OnboardingSession{}).
		Where("id = ? AND current_step < ?", id, step).
		Update("current_step", step)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
