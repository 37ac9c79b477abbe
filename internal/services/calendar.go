package services

import (
	"encoding/json"
	"fmt"
	"strings"
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

// SupportedPlatforms are the channels the daily planner can schedule for.
var SupportedPlatforms = map[string]bool{
	"linkedin":  true,
	"facebook":  true,
	"twitter":   true,
	"instagram": true,
	"blog":      true,
	"youtube":   true,
}

// StartCalendarRequest is the validated input for a generation run.
type StartCalendarRequest struct {
	Title            string     `json:"title"`
	StrategyID       *uuid.UUID `json:"strategy_id,omitempty"`
	Platforms        []string   `json:"platforms"`
	DurationWeeks    int        `json:"duration_weeks"`
	PostingFrequency int        `json:"posting_frequency"`
	Timezone         string     `json:"timezone,omitempty"`
	StartDate        *time.Time `json:"start_date,omitempty"`
}

type CalendarService interface {
	// StartGeneration creates the placeholder calendar and enqueues the build
	// run. A second start while a run for the same user is still queued or
	// running is rejected with a conflict.
	StartGeneration(dbc dbctx.Context, req StartCalendarRequest) (*types.ContentCalendar, *types.JobRun, error)
	GetByIDForRequestUser(dbc dbctx.Context, calendarID uuid.UUID) (*types.ContentCalendar, error)
	ListForRequestUser(dbc dbctx.Context) ([]*types.ContentCalendar, error)
	Delete(dbc dbctx.Context, calendarID uuid.UUID) error
}

type calendarService struct {
	db           *gorm.DB
	log          *logger.Logger
	calendarRepo repos.ContentCalendarRepo
	strategyRepo repos.ContentStrategyRepo
	jobService   JobService
}

func NewCalendarService(
	db *gorm.DB,
	baseLog *logger.Logger,
	calendarRepo repos.ContentCalendarRepo,
	strategyRepo repos.ContentStrategyRepo,
	jobService JobService,
) CalendarService {
	return &calendarService{
		db:           db,
		log:          baseLog.With("service", "CalendarService"),
		calendarRepo: calendarRepo,
		strategyRepo: strategyRepo,
		jobService:   jobService,
	}
}

func (cs *calendarService) requestUser(dbc dbctx.Context) (uuid.UUID, error) {
	rd := ctxutil.GetRequestData(dbc.Ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return uuid.Nil, apierr.New(401, "unauthorized", fmt.Errorf("no request user"))
	}
	return rd.UserID, nil
}

func validateStartRequest(req *StartCalendarRequest) error {
	if len(req.Platforms) == 0 {
		return apierr.BadRequest("missing_platforms", fmt.Errorf("at least one platform required"))
	}
	seen := map[string]bool{}
	normalized := make([]string, 0, len(req.Platforms))
	for _, platform := range req.Platforms {
		platform = strings.ToLower(strings.TrimSpace(platform))
		if !SupportedPlatforms[platform] {
			return apierr.BadRequest("unsupported_platform", fmt.Errorf("platform %q not supported", platform))
		}
		if !seen[platform] {
			seen[platform] = true
			normalized = append(normalized, platform)
		}
	}
	req.Platforms = normalized
	if req.DurationWeeks < 1 || req.DurationWeeks > 52 {
		return apierr.BadRequest("invalid_duration", fmt.Errorf("duration_weeks must be 1..52, got %d", req.DurationWeeks))
	}
	if req.PostingFrequency < 1 || req.PostingFrequency > 7 {
		return apierr.BadRequest("invalid_frequency", fmt.Errorf("posting_frequency must be 1..7, got %d", req.PostingFrequency))
	}
	if req.Timezone == "" {
		req.Timezone = "UTC"
	} else if _, tzErr := time.LoadLocation(req.Timezone); tzErr != nil {
		return apierr.BadRequest("invalid_timezone", fmt.Errorf("unknown timezone %q", req.Timezone))
	}
	if strings.TrimSpace(req.Title) == "" {
		req.Title = fmt.Sprintf("%d-Week Content Calendar", req.DurationWeeks)
	}
	return nil
}

// calendarIDsForStrategy narrows the duplicate-run check to calendars under
// the same strategy; runs for other strategies may proceed in parallel.
// A nil strategy matches only other strategy-less calendars.
func (cs *calendarService) calendarIDsForStrategy(dbc dbctx.Context, userID uuid.UUID, strategyID *uuid.UUID) ([]uuid.UUID, error) {
	calendars, err := cs.calendarRepo.GetByUserID(dbc.Ctx, dbc.Tx, userID)
	if err != nil {
		return nil, err
	}
	var ids []uuid.UUID
	for _, cal := range calendars {
		switch {
		case strategyID == nil && cal.StrategyID == nil:
			ids = append(ids, cal.ID)
		case strategyID != nil && cal.StrategyID != nil && *cal.StrategyID == *strategyID:
			ids = append(ids, cal.ID)
		}
	}
	return ids, nil
}

func (cs *calendarService) StartGeneration(dbc dbctx.Context, req StartCalendarRequest) (*types.ContentCalendar, *types.JobRun, error) {
	userID, err := cs.requestUser(dbc)
	if err != nil {
		return nil, nil, err
	}
	if err := validateStartRequest(&req); err != nil {
		return nil, nil, err
	}
	if req.StrategyID != nil {
		strategies, sErr := cs.strategyRepo.GetByIDs(dbc.Ctx, dbc.Tx, []uuid.UUID{*req.StrategyID})
		if sErr != nil {
			return nil, nil, apierr.Internal("load_strategy", sErr)
		}
		if len(strategies) == 0 || strategies[0].UserID != userID {
			return nil, nil, apierr.NotFound("strategy_not_found", fmt.Errorf("strategy %s not found", *req.StrategyID))
		}
	}

	dupIDs, dErr := cs.calendarIDsForStrategy(dbc, userID, req.StrategyID)
	if dErr != nil {
		return nil, nil, apierr.Internal("check_active_run", dErr)
	}
	active, aErr := cs.jobService.HasActiveRunForEntities(dbc, userID, types.JobTypeCalendarBuild, "content_calendar", dupIDs)
	if aErr != nil {
		return nil, nil, apierr.Internal("check_active_run", aErr)
	}
	if active {
		return nil, nil, apierr.Conflict("generation_in_progress", fmt.Errorf("a calendar generation run is already active for this strategy"))
	}

	platformsJSON, mErr := json.Marshal(req.Platforms)
	if mErr != nil {
		return nil, nil, apierr.Internal("encode_platforms", mErr)
	}

	var calendar *types.ContentCalendar
	var job *types.JobRun
	err = cs.db.WithContext(dbc.Ctx).Transaction(func(tx *gorm.DB) error {
		txDbc := dbctx.Context{Ctx: dbc.Ctx, Tx: tx}
		calendar = &types.ContentCalendar{
			ID:               uuid.New(),
			UserID:           userID,
			StrategyID:       req.StrategyID,
			Title:            req.Title,
			Status:           types.CalendarStatusGenerating,
			Platforms:        datatypes.JSON(platformsJSON),
			DurationWeeks:    req.DurationWeeks,
			PostingFrequency: req.PostingFrequency,
			Timezone:         req.Timezone,
			StartDate:        req.StartDate,
		}
		if _, cErr := cs.calendarRepo.Create(dbc.Ctx, tx, []*types.ContentCalendar{calendar}); cErr != nil {
			return apierr.Internal("create_calendar", cErr)
		}
		payload := map[string]any{
			"calendar_id":       calendar.ID.String(),
			"platforms":         req.Platforms,
			"duration_weeks":    req.DurationWeeks,
			"posting_frequency": req.PostingFrequency,
			"timezone":          req.Timezone,
		}
		if req.StrategyID != nil {
			payload["strategy_id"] = req.StrategyID.String()
		}
		if req.StartDate != nil {
			payload["start_date"] = req.StartDate.Format(time.RFC3339)
		}
		calendarID := calendar.ID
		var jErr error
		job, jErr = cs.jobService.Enqueue(txDbc, userID, types.JobTypeCalendarBuild, "content_calendar", &calendarID, payload)
		return jErr
	})
	if err != nil {
		return nil, nil, err
	}
	cs.log.Info("calendar generation started",
		"calendar_id", calendar.ID, "job_id", job.ID, "user_id", userID,
		"platforms", req.Platforms, "weeks", req.DurationWeeks)
	return calendar, job, nil
}

func (cs *calendarService) GetByIDForRequestUser(dbc dbctx.Context, calendarID uuid.UUID) (*types.ContentCalendar, error) {
	userID, err := cs.requestUser(dbc)
	if err != nil {
		return nil, err
	}
	calendars, err := cs.calendarRepo.GetByIDs(dbc.Ctx, dbc.Tx, []uuid.UUID{calendarID})
	if err != nil {
		return nil, apierr.Internal("load_calendar", err)
	}
	if len(calendars) == 0 || calendars[0].UserID != userID {
		return nil, apierr.NotFound("calendar_not_found", fmt.Errorf("calendar %s not found", calendarID))
	}
	return calendars[0], nil
}

func (cs *calendarService) ListForRequestUser(dbc dbctx.Context) ([]*types.ContentCalendar, error) {
	userID, err := cs.requestUser(dbc)
	if err != nil {
		return nil, err
	}
	calendars, err := cs.calendarRepo.GetByUserID(dbc.Ctx, dbc.Tx, userID)
	if err != nil {
		return nil, apierr.Internal("list_calendars", err)
	}
	return calendars, nil
}

func (cs *calendarService) Delete(dbc dbctx.Context, calendarID uuid.UUID) error {
	if _, err := cs.GetByIDForRequestUser(dbc, calendarID); err != nil {
		return err
	}
	if err := cs.calendarRepo.SoftDeleteByIDs(dbc.Ctx, dbc.Tx, []uuid.UUID{calendarID}); err != nil {
		return apierr.Internal("delete_calendar", err)
	}
	cs.log.Info("calendar deleted", "calendar_id", calendarID)
	return nil
}
