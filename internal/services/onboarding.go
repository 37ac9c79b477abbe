package services

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/alwrity/alwrity-backend/internal/data/repos"
	types "github.com/alwrity/alwrity-backend/internal/domain"
	"github.com/alwrity/alwrity-backend/internal/pkg/ctxutil"
	"github.com/alwrity/alwrity-backend/internal/pkg/dbctx"
	"github.com/alwrity/alwrity-backend/internal/platform/apierr"
	"github.com/alwrity/alwrity-backend/internal/platform/logger"
)

type OnboardingService interface {
	// StartOrResume returns the caller's session, creating it on first call.
	StartOrResume(dbc dbctx.Context) (*types.OnboardingSession, error)
	Get(dbc dbctx.Context) (*types.OnboardingSession, error)
	SaveStepData(dbc dbctx.Context, step int, data map[string]any) (*types.OnboardingSession, error)
	CompleteStep(dbc dbctx.Context, step int) (*types.OnboardingSession, error)
	// Complete finishes onboarding and seeds a draft content strategy from the
	// collected website and persona data.
	Complete(dbc dbctx.Context) (*types.OnboardingSession, *types.ContentStrategy, error)
}

type onboardingService struct {
	db           *gorm.DB
	log          *logger.Logger
	sessionRepo  repos.OnboardingSessionRepo
	strategyRepo repos.ContentStrategyRepo
}

func NewOnboardingService(
	db *gorm.DB,
	baseLog *logger.Logger,
	sessionRepo repos.OnboardingSessionRepo,
	strategyRepo repos.ContentStrategyRepo,
) OnboardingService {
	return &onboardingService{
		db:           db,
		log:          baseLog.With("service", "OnboardingService"),
		sessionRepo:  sessionRepo,
		strategyRepo: strategyRepo,
	}
}

func (os *onboardingService) requestUser(dbc dbctx.Context) (uuid.UUID, error) {
	rd := ctxutil.GetRequestData(dbc.Ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return uuid.Nil, apierr.New(401, "unauthorized", fmt.Errorf("no request user"))
	}
	return rd.UserID, nil
}

func (os *onboardingService) StartOrResume(dbc dbctx.Context) (*types.OnboardingSession, error) {
	userID, err := os.requestUser(dbc)
	if err != nil {
		return nil, err
	}
	session, err := os.sessionRepo.GetByUserID(dbc.Ctx, dbc.Tx, userID)
	if err != nil {
		return nil, apierr.Internal("load_session", err)
	}
	if session != nil {
		return session, nil
	}
	session = &types.OnboardingSession{
		ID:          uuid.New(),
		UserID:      userID,
		CurrentStep: types.OnboardingStepAPIKeys,
		Status:      types.OnboardingStatusInProgress,
		StepData:    datatypes.JSON([]byte("{}")),
	}
	if _, err := os.sessionRepo.Create(dbc.Ctx, dbc.Tx, []*types.OnboardingSession{session}); err != nil {
		if apierr.IsUniqueViolation(err) {
			// Concurrent first call; the row exists now.
			return os.sessionRepo.GetByUserID(dbc.Ctx, dbc.Tx, userID)
		}
		return nil, apierr.Internal("create_session", err)
	}
	os.log.Info("onboarding started", "user_id", userID)
	return session, nil
}

func (os *onboardingService) Get(dbc dbctx.Context) (*types.OnboardingSession, error) {
	userID, err := os.requestUser(dbc)
	if err != nil {
		return nil, err
	}
	session, err := os.sessionRepo.GetByUserID(dbc.Ctx, dbc.Tx, userID)
	if err != nil {
		return nil, apierr.Internal("load_session", err)
	}
	if session == nil {
		return nil, apierr.NotFound("onboarding_not_started", fmt.Errorf("no session for user %s", userID))
	}
	return session, nil
}

func (os *onboardingService) SaveStepData(dbc dbctx.Context, step int, data map[string]any) (*types.OnboardingSession, error) {
	if step < types.OnboardingStepAPIKeys || step > types.OnboardingStepFinish {
		return nil, apierr.BadRequest("invalid_step", fmt.Errorf("step %d out of range", step))
	}
	session, err := os.Get(dbc)
	if err != nil {
		return nil, err
	}
	if session.Status == types.OnboardingStatusCompleted {
		return nil, apierr.Conflict("onboarding_completed", fmt.Errorf("session already completed"))
	}

	stepData := map[string]json.RawMessage{}
	if len(session.StepData) > 0 {
		if err := json.Unmarshal(session.StepData, &stepData); err != nil {
			os.log.Warn("bad step_data payload, resetting", "session_id", session.ID, "error", err)
			stepData = map[string]json.RawMessage{}
		}
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, apierr.BadRequest("invalid_step_data", err)
	}
	stepData[strconv.Itoa(step)] = raw
	merged, err := json.Marshal(stepData)
	if err != nil {
		return nil, apierr.Internal("encode_step_data", err)
	}

	updates := map[string]interface{}{"step_data": datatypes.JSON(merged)}
	// Structured fields the later pipeline reads are lifted out of the step
	// payloads as they arrive.
	switch step {
	case types.OnboardingStepWebsite:
		if v, ok := data["website_url"].(string); ok {
			updates["website_url"] = v
		}
		if v, ok := data["industry"].(string); ok {
			updates["industry"] = v
		}
		if v, ok := data["description"].(string); ok {
			updates["description"] = v
		}
	case types.OnboardingStepResearch:
		if v, ok := data["competitors"]; ok {
			if rawComp, mErr := json.Marshal(v); mErr == nil {
				updates["competitors"] = datatypes.JSON(rawComp)
			}
		}
	case types.OnboardingStepPersona:
		if rawPersona, mErr := json.Marshal(data); mErr == nil {
			updates["persona"] = datatypes.JSON(rawPersona)
		}
	}
	if err := os.sessionRepo.UpdateFields(dbc.Ctx, dbc.Tx, session.ID, updates); err != nil {
		return nil, apierr.Internal("save_step_data", err)
	}
	return os.Get(dbc)
}

func (os *onboardingService) CompleteStep(dbc dbctx.Context, step int) (*types.OnboardingSession, error) {
	if step < types.OnboardingStepAPIKeys || step >= types.OnboardingStepFinish {
		return nil, apierr.BadRequest("invalid_step", fmt.Errorf("step %d not completable", step))
	}
	session, err := os.Get(dbc)
	if err != nil {
		return nil, err
	}
	if session.Status == types.OnboardingStatusCompleted {
		return nil, apierr.Conflict("onboarding_completed", fmt.Errorf("session already completed"))
	}
	if step != session.CurrentStep {
		return nil, apierr.Conflict("step_out_of_order", fmt.Errorf("current step is %d, got %d", session.CurrentStep, step))
	}
	advanced, err := os.sessionRepo.AdvanceStep(dbc.Ctx, dbc.Tx, session.ID, step+1)
	if err != nil {
		return nil, apierr.Internal("advance_step", err)
	}
	if !advanced {
		return nil, apierr.Conflict("step_out_of_order", fmt.Errorf("step %d already completed", step))
	}
	return os.Get(dbc)
}

func (os *onboardingService) Complete(dbc dbctx.Context) (*types.OnboardingSession, *types.ContentStrategy, error) {
	session, err := os.Get(dbc)
	if err != nil {
		return nil, nil, err
	}
	if session.Status == types.OnboardingStatusCompleted {
		return nil, nil, apierr.Conflict("onboarding_completed", fmt.Errorf("session already completed"))
	}
	if session.CurrentStep != types.OnboardingStepFinish {
		return nil, nil, apierr.Conflict("onboarding_incomplete", fmt.Errorf("current step is %d, expected %d", session.CurrentStep, types.OnboardingStepFinish))
	}

	var strategy *types.ContentStrategy
	err = os.db.WithContext(dbc.Ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now().UTC()
		if uErr := os.sessionRepo.UpdateFields(dbc.Ctx, tx, session.ID, map[string]interface{}{
			"status":       types.OnboardingStatusCompleted,
			"completed_at": now,
		}); uErr != nil {
			return apierr.Internal("complete_session", uErr)
		}
		strategy = seedStrategyFromSession(session)
		if _, cErr := os.strategyRepo.Create(dbc.Ctx, tx, []*types.ContentStrategy{strategy}); cErr != nil {
			return apierr.Internal("seed_strategy", cErr)
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	os.log.Info("onboarding completed", "user_id", session.UserID, "strategy_id", strategy.ID)
	session, err = os.Get(dbc)
	if err != nil {
		return nil, nil, err
	}
	return session, strategy, nil
}

// seedStrategyFromSession builds the user's first draft strategy from what
// onboarding collected. Fields the session cannot answer stay zero for the
// recommendation step to fill in.
func seedStrategyFromSession(session *types.OnboardingSession) *types.ContentStrategy {
	name := "Initial Content Strategy"
	if session.Industry != "" {
		name = session.Industry + " Content Strategy"
	}
	strategy := &types.ContentStrategy{
		ID:       uuid.New(),
		UserID:   session.UserID,
		Name:     name,
		Industry: session.Industry,
		Status:   types.StrategyStatusDraft,
	}
	if len(session.Competitors) > 0 {
		strategy.TopCompetitors = session.Competitors
	}
	if len(session.Persona) > 0 {
		strategy.AudienceDemographics = session.Persona
	}
	if session.Description != "" {
		strategy.BusinessObjectives = session.Description
	}
	return strategy
}
