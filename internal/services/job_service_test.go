package services

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/alwrity/alwrity-backend/internal/data/repos"
	types "github.com/alwrity/alwrity-backend/internal/domain"
	"github.com/alwrity/alwrity-backend/internal/pkg/ctxutil"
	"github.com/alwrity/alwrity-backend/internal/pkg/dbctx"
	"github.com/alwrity/alwrity-backend/internal/platform/apierr"
	"github.com/alwrity/alwrity-backend/internal/platform/logger"
)

type fakeJobRunRepo struct {
	repos.JobRunRepo
	mu   sync.Mutex
	jobs map[uuid.UUID]*types.JobRun
}

func (f *fakeJobRunRepo) Create(dbc dbctx.Context, jobs []*types.JobRun) ([]*types.JobRun, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, job := range jobs {
		if job.ID == uuid.Nil {
			job.ID = uuid.New()
		}
		f.jobs[job.ID] = job
	}
	return jobs, nil
}

func (f *fakeJobRunRepo) GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.JobRun, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*types.JobRun
	for _, id := range ids {
		if job, ok := f.jobs[id]; ok {
			out = append(out, job)
		}
	}
	return out, nil
}

func (f *fakeJobRunRepo) UpdateFieldsUnlessStatus(dbc dbctx.Context, id uuid.UUID, disallowedStatuses []string, updates map[string]interface{}) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	job, ok := f.jobs[id]
	if !ok {
		return false, nil
	}
	for _, status := range disallowedStatuses {
		if job.Status == status {
			return false, nil
		}
	}
	if status, sOk := updates["status"].(string); sOk {
		job.Status = status
	}
	return true, nil
}

type fakeJobEventRepo struct {
	repos.JobRunEventRepo
	events []*types.JobRunEvent
}

func (f *fakeJobEventRepo) ListByJobID(dbc dbctx.Context, jobID uuid.UUID, limit int) ([]*types.JobRunEvent, error) {
	var out []*types.JobRunEvent
	for _, ev := range f.events {
		if ev.JobID == jobID {
			out = append(out, ev)
		}
	}
	return out, nil
}

func jobServiceFixture(t *testing.T) (JobService, *fakeJobRunRepo, *fakeJobEventRepo, uuid.UUID, dbctx.Context) {
	t.Helper()
	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("init logger: %v", err)
	}
	repo := &fakeJobRunRepo{jobs: map[uuid.UUID]*types.JobRun{}}
	eventRepo := &fakeJobEventRepo{}
	service := NewJobService(nil, log, repo, eventRepo, nil)
	userID := uuid.New()
	ctx := ctxutil.WithRequestData(context.Background(), &ctxutil.RequestData{UserID: userID})
	return service, repo, eventRepo, userID, dbctx.Context{Ctx: ctx}
}

func TestEnqueuePersistsQueuedJob(t *testing.T) {
	service, repo, _, userID, dbc := jobServiceFixture(t)

	entityID := uuid.New()
	job, err := service.Enqueue(dbc, userID, types.JobTypeCalendarBuild, "content_calendar", &entityID,
		map[string]any{"calendar_id": entityID.String()})
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	if job.ID == uuid.Nil {
		t.Fatalf("job id not assigned on create")
	}
	if job.Status != types.JobStatusQueued {
		t.Fatalf("status: want=%s got=%s", types.JobStatusQueued, job.Status)
	}
	stored, ok := repo.jobs[job.ID]
	if !ok {
		t.Fatalf("job not persisted")
	}
	if stored.OwnerUserID != userID {
		t.Fatalf("owner: want=%s got=%s", userID, stored.OwnerUserID)
	}
}

func TestProgressUnknownJobIs404(t *testing.T) {
	service, _, _, _, dbc := jobServiceFixture(t)

	_, err := service.GetProgressForRequestUser(dbc, uuid.New())
	if err == nil || apierr.StatusOf(err) != 404 {
		t.Fatalf("want 404, got %v", err)
	}
	if apierr.CodeOf(err) != "job_not_found" {
		t.Fatalf("code: want=job_not_found got=%s", apierr.CodeOf(err))
	}
}

func TestProgressHidesForeignJobs(t *testing.T) {
	service, repo, _, _, dbc := jobServiceFixture(t)

	foreign := &types.JobRun{ID: uuid.New(), OwnerUserID: uuid.New(), Status: types.JobStatusRunning}
	repo.jobs[foreign.ID] = foreign

	_, err := service.GetProgressForRequestUser(dbc, foreign.ID)
	if err == nil || apierr.StatusOf(err) != 404 {
		t.Fatalf("foreign job should read as not found, got %v", err)
	}
}

func TestProgressRequiresAuthenticatedUser(t *testing.T) {
	service, _, _, _, _ := jobServiceFixture(t)

	_, err := service.GetProgressForRequestUser(dbctx.Context{Ctx: context.Background()}, uuid.New())
	if err == nil || apierr.StatusOf(err) != 401 {
		t.Fatalf("want 401, got %v", err)
	}
}

func TestProgressReturnsScoresAndMessages(t *testing.T) {
	service, repo, eventRepo, userID, dbc := jobServiceFixture(t)

	jobID := uuid.New()
	repo.jobs[jobID] = &types.JobRun{
		ID:          jobID,
		OwnerUserID: userID,
		JobType:     types.JobTypeCalendarBuild,
		Status:      types.JobStatusRunning,
		Stage:       "gap_analysis",
		StepIndex:   2,
		Progress:    15,
		StepScores:  datatypes.JSON([]byte(`{"strategy_analysis":0.9}`)),
	}
	eventRepo.events = []*types.JobRunEvent{{
		JobID:     jobID,
		Kind:      "step",
		Stage:     "strategy_analysis",
		StepIndex: 1,
		Progress:  8,
		Message:   "Strategy analyzed",
	}}

	view, err := service.GetProgressForRequestUser(dbc, jobID)
	if err != nil {
		t.Fatalf("progress: %v", err)
	}
	if view.Progress != 15 || view.Stage != "gap_analysis" {
		t.Fatalf("view: got progress=%d stage=%s", view.Progress, view.Stage)
	}
	if score := view.StepScores["strategy_analysis"]; score != 0.9 {
		t.Fatalf("step score: want=0.9 got=%v", score)
	}
	if len(view.Messages) != 1 || view.Messages[0].Message != "Strategy analyzed" {
		t.Fatalf("messages: got %+v", view.Messages)
	}
}

func TestCancelHidesForeignJobs(t *testing.T) {
	service, repo, _, _, dbc := jobServiceFixture(t)

	foreign := &types.JobRun{ID: uuid.New(), OwnerUserID: uuid.New(), Status: types.JobStatusRunning}
	repo.jobs[foreign.ID] = foreign

	_, err := service.CancelForRequestUser(dbc, foreign.ID)
	if err == nil || apierr.StatusOf(err) != 404 {
		t.Fatalf("foreign job should read as not found, got %v", err)
	}
	if foreign.Status != types.JobStatusRunning {
		t.Fatalf("foreign job mutated: %s", foreign.Status)
	}
}

func TestCancelMarksRunningJobCanceled(t *testing.T) {
	service, repo, _, userID, dbc := jobServiceFixture(t)

	jobID := uuid.New()
	repo.jobs[jobID] = &types.JobRun{ID: jobID, OwnerUserID: userID, Status: types.JobStatusRunning}

	job, err := service.CancelForRequestUser(dbc, jobID)
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if job.Status != types.JobStatusCanceled {
		t.Fatalf("status: want=%s got=%s", types.JobStatusCanceled, job.Status)
	}
}

func TestRestartRejectsActiveJob(t *testing.T) {
	service, repo, _, userID, dbc := jobServiceFixture(t)

	jobID := uuid.New()
	repo.jobs[jobID] = &types.JobRun{ID: jobID, OwnerUserID: userID, Status: types.JobStatusRunning}

	_, err := service.RestartForRequestUser(dbc, jobID)
	if err == nil || apierr.StatusOf(err) != 409 {
		t.Fatalf("want 409, got %v", err)
	}
	if apierr.CodeOf(err) != "job_not_restartable" {
		t.Fatalf("code: want=job_not_restartable got=%s", apierr.CodeOf(err))
	}
}
