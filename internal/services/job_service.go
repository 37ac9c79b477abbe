package services

import (
	"encoding/json"
	"fmt"
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

// ProgressMessage is one transparency entry from the run's event ledger.
type ProgressMessage struct {
	Kind      string         `json:"kind"`
	Stage     string         `json:"stage"`
	StepIndex int            `json:"step_index"`
	Progress  int            `json:"progress"`
	Message   string         `json:"message,omitempty"`
	Sources   []string       `json:"sources,omitempty"`
	Data      map[string]any `json:"data,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

// ProgressView is the shape polled by clients during calendar generation.
type ProgressView struct {
	JobID      uuid.UUID          `json:"job_id"`
	JobType    string             `json:"job_type"`
	Status     string             `json:"status"`
	Stage      string             `json:"stage"`
	StepIndex  int                `json:"step_index"`
	Progress   int                `json:"progress"`
	Message    string             `json:"message,omitempty"`
	Error      string             `json:"error,omitempty"`
	StepScores map[string]float64 `json:"step_scores"`
	Messages   []ProgressMessage  `json:"messages"`
}

type JobService interface {
	Enqueue(dbc dbctx.Context, ownerUserID uuid.UUID, jobType string, entityType string, entityID *uuid.UUID, payload map[string]any) (*types.JobRun, error)
	GetByIDForRequestUser(dbc dbctx.Context, jobID uuid.UUID) (*types.JobRun, error)
	GetProgressForRequestUser(dbc dbctx.Context, jobID uuid.UUID) (*ProgressView, error)
	CancelForRequestUser(dbc dbctx.Context, jobID uuid.UUID) (*types.JobRun, error)
	RestartForRequestUser(dbc dbctx.Context, jobID uuid.UUID) (*types.JobRun, error)
	HasActiveRun(dbc dbctx.Context, ownerUserID uuid.UUID, jobType string, entityType string, entityID *uuid.UUID) (bool, error)
	HasActiveRunForEntities(dbc dbctx.Context, ownerUserID uuid.UUID, jobType string, entityType string, entityIDs []uuid.UUID) (bool, error)
}

type jobService struct {
	db        *gorm.DB
	log       *logger.Logger
	repo      repos.JobRunRepo
	eventRepo repos.JobRunEventRepo
	notify    JobNotifier
}

func NewJobService(db *gorm.DB, baseLog *logger.Logger, repo repos.JobRunRepo, eventRepo repos.JobRunEventRepo, notify JobNotifier) JobService {
	return &jobService{
		db:        db,
		log:       baseLog.With("service", "JobService"),
		repo:      repo,
		eventRepo: eventRepo,
		notify:    notify,
	}
}

func (s *jobService) Enqueue(dbc dbctx.Context, ownerUserID uuid.UUID, jobType string, entityType string, entityID *uuid.UUID, payload map[string]any) (*types.JobRun, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, apierr.Internal("encode job payload", err)
	}
	job := &types.JobRun{
		OwnerUserID: ownerUserID,
		JobType:     jobType,
		EntityType:  entityType,
		EntityID:    entityID,
		Status:      types.JobStatusQueued,
		Stage:       "queued",
		Message:     "Queued",
		Payload:     datatypes.JSON(raw),
	}
	created, err := s.repo.Create(dbc, []*types.JobRun{job})
	if err != nil {
		return nil, apierr.Internal("create job", err)
	}
	job = created[0]
	if s.notify != nil {
		s.notify.JobCreated(ownerUserID, job)
	}
	s.log.Info("job enqueued", "job_id", job.ID, "job_type", jobType)
	return job, nil
}

func (s *jobService) HasActiveRun(dbc dbctx.Context, ownerUserID uuid.UUID, jobType string, entityType string, entityID *uuid.UUID) (bool, error) {
	return s.repo.ExistsRunnable(dbc, ownerUserID, jobType, entityType, entityID)
}

func (s *jobService) HasActiveRunForEntities(dbc dbctx.Context, ownerUserID uuid.UUID, jobType string, entityType string, entityIDs []uuid.UUID) (bool, error) {
	return s.repo.ExistsRunnableForEntities(dbc, ownerUserID, jobType, entityType, entityIDs)
}

// getOwned loads the run and verifies it belongs to the request user. A run
// owned by someone else is reported as not found, never as forbidden.
func (s *jobService) getOwned(dbc dbctx.Context, jobID uuid.UUID) (*types.JobRun, error) {
	rd := ctxutil.GetRequestData(dbc.Ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return nil, apierr.New(401, "unauthorized", fmt.Errorf("missing request user"))
	}
	jobs, err := s.repo.GetByIDs(dbc, []uuid.UUID{jobID})
	if err != nil {
		return nil, apierr.Internal("load job", err)
	}
	if len(jobs) == 0 || jobs[0].OwnerUserID != rd.UserID {
		return nil, apierr.NotFound("job_not_found", fmt.Errorf("job not found"))
	}
	return jobs[0], nil
}

func (s *jobService) GetByIDForRequestUser(dbc dbctx.Context, jobID uuid.UUID) (*types.JobRun, error) {
	return s.getOwned(dbc, jobID)
}

func (s *jobService) GetProgressForRequestUser(dbc dbctx.Context, jobID uuid.UUID) (*ProgressView, error) {
	job, err := s.getOwned(dbc, jobID)
	if err != nil {
		return nil, err
	}
	events, err := s.eventRepo.ListByJobID(dbc, jobID, 500)
	if err != nil {
		return nil, apierr.Internal("load job events", err)
	}
	view := &ProgressView{
		JobID:      job.ID,
		JobType:    job.JobType,
		Status:     job.Status,
		Stage:      job.Stage,
		StepIndex:  job.StepIndex,
		Progress:   job.Progress,
		Message:    job.Message,
		Error:      job.Error,
		StepScores: map[string]float64{},
		Messages:   make([]ProgressMessage, 0, len(events)),
	}
	if len(job.StepScores) > 0 {
		if err := json.Unmarshal(job.StepScores, &view.StepScores); err != nil {
			s.log.Warn("bad step_scores payload", "job_id", job.ID, "error", err)
		}
	}
	for _, ev := range events {
		msg := ProgressMessage{
			Kind:      ev.Kind,
			Stage:     ev.Stage,
			StepIndex: ev.StepIndex,
			Progress:  ev.Progress,
			Message:   ev.Message,
			CreatedAt: ev.CreatedAt,
		}
		if len(ev.Sources) > 0 {
			_ = json.Unmarshal(ev.Sources, &msg.Sources)
		}
		if len(ev.Data) > 0 {
			_ = json.Unmarshal(ev.Data, &msg.Data)
		}
		view.Messages = append(view.Messages, msg)
	}
	return view, nil
}

func (s *jobService) CancelForRequestUser(dbc dbctx.Context, jobID uuid.UUID) (*types.JobRun, error) {
	job, err := s.getOwned(dbc, jobID)
	if err != nil {
		return nil, err
	}
	switch job.Status {
	case types.JobStatusSucceeded, types.JobStatusFailed, types.JobStatusCanceled:
		return job, nil
	}
	now := time.Now().UTC()
	updated, err := s.repo.UpdateFieldsUnlessStatus(dbc, jobID,
		[]string{types.JobStatusSucceeded, types.JobStatusFailed, types.JobStatusCanceled},
		map[string]interface{}{
			"status":  types.JobStatusCanceled,
			"stage":   "canceled",
			"message": "Canceled by user",
		})
	if err != nil {
		return nil, apierr.Internal("cancel job", err)
	}
	if updated {
		job.Status = types.JobStatusCanceled
		job.Stage = "canceled"
		job.Message = "Canceled by user"
		job.UpdatedAt = now
		if s.notify != nil {
			s.notify.JobFailed(job.OwnerUserID, job, "canceled", "Canceled by user")
		}
		s.log.Info("job canceled", "job_id", jobID)
	}
	return job, nil
}

func (s *jobService) RestartForRequestUser(dbc dbctx.Context, jobID uuid.UUID) (*types.JobRun, error) {
	job, err := s.getOwned(dbc, jobID)
	if err != nil {
		return nil, err
	}
	if job.Status != types.JobStatusCanceled && job.Status != types.JobStatusFailed {
		return nil, apierr.Conflict("job_not_restartable", fmt.Errorf("job %s is %s", jobID, job.Status))
	}
	fields := map[string]any{
		"status":       types.JobStatusQueued,
		"stage":        "queued",
		"step_index":   0,
		"progress":     0,
		"message":      "Queued",
		"error":        "",
		"attempts":     0,
		"step_scores":  datatypes.JSON([]byte("{}")),
		"result":       nil,
		"locked_at":    nil,
		"heartbeat_at": nil,
	}
	if err := s.repo.UpdateFields(dbc, jobID, fields); err != nil {
		return nil, apierr.Internal("restart job", err)
	}
	jobs, err := s.repo.GetByIDs(dbc, []uuid.UUID{jobID})
	if err != nil || len(jobs) == 0 {
		return nil, apierr.Internal("reload job", err)
	}
	job = jobs[0]
	if s.notify != nil {
		s.notify.JobCreated(job.OwnerUserID, job)
	}
	s.log.Info("job restarted", "job_id", jobID)
	return job, nil
}
