package runtime

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/alwrity/alwrity-backend/internal/data/repos"
	types "github.com/alwrity/alwrity-backend/internal/domain"
	"github.com/alwrity/alwrity-backend/internal/pkg/dbctx"
)

var errContextTest = errors.New("model call failed")

// fakeJobRunRepo records guarded updates in memory. Unimplemented methods
// panic via the embedded nil interface, which is fine: these tests never
// reach them.
type fakeJobRunRepo struct {
	repos.JobRunRepo

	rejectWrites bool
	updates      []map[string]interface{}
}

func (f *fakeJobRunRepo) UpdateFieldsUnlessStatus(dbc dbctx.Context, id uuid.UUID, disallowedStatuses []string, updates map[string]interface{}) (bool, error) {
	if f.rejectWrites {
		return false, nil
	}
	f.updates = append(f.updates, updates)
	return true, nil
}

type fakeEventRepo struct {
	repos.JobRunEventRepo

	events []*types.JobRunEvent
}

func (f *fakeEventRepo) Append(dbc dbctx.Context, events []*types.JobRunEvent) ([]*types.JobRunEvent, error) {
	f.events = append(f.events, events...)
	return events, nil
}

func newTestJob(t *testing.T) *types.JobRun {
	t.Helper()
	payload, err := json.Marshal(map[string]any{
		"calendar_id":    "53c7a5a8-5e02-4aa9-bd78-3ff2a9efb102",
		"duration_weeks": 4,
		"platforms":      []string{"linkedin", "facebook"},
	})
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	return &types.JobRun{
		ID:          uuid.New(),
		OwnerUserID: uuid.New(),
		JobType:     types.JobTypeCalendarBuild,
		Status:      types.JobStatusRunning,
		Payload:     datatypes.JSON(payload),
	}
}

func TestPayloadAccessors(t *testing.T) {
	job := newTestJob(t)
	jc := NewContext(context.Background(), nil, job, &fakeJobRunRepo{}, &fakeEventRepo{}, nil)

	if id, ok := jc.PayloadUUID("calendar_id"); !ok || id == uuid.Nil {
		t.Fatalf("calendar_id not parsed: ok=%v id=%v", ok, id)
	}
	if got := jc.PayloadInt("duration_weeks"); got != 4 {
		t.Fatalf("duration_weeks: want=4 got=%d", got)
	}
	if got := jc.PayloadStringSlice("platforms"); len(got) != 2 || got[0] != "linkedin" {
		t.Fatalf("platforms: got=%v", got)
	}
	if _, ok := jc.PayloadUUID("missing"); ok {
		t.Fatalf("missing key reported present")
	}
}

func TestProgressNeverMovesBackwards(t *testing.T) {
	job := newTestJob(t)
	repo := &fakeJobRunRepo{}
	jc := NewContext(context.Background(), nil, job, repo, &fakeEventRepo{}, nil)

	jc.Progress("weekly_themes", 7, 54, "themes")
	jc.Progress("strategy_analysis", 1, 4, "late replay of an earlier step")

	if job.StepIndex != 7 {
		t.Fatalf("step index moved backwards: %d", job.StepIndex)
	}
	if job.Progress != 54 {
		t.Fatalf("progress moved backwards: %d", job.Progress)
	}
}

func TestProgressRejectedWriteLeavesJobUntouched(t *testing.T) {
	job := newTestJob(t)
	repo := &fakeJobRunRepo{rejectWrites: true}
	events := &fakeEventRepo{}
	jc := NewContext(context.Background(), nil, job, repo, events, nil)

	jc.Progress("gap_analysis", 2, 12, "should not land")

	if job.Stage != "" || job.Progress != 0 || job.StepIndex != 0 {
		t.Fatalf("job mutated despite rejected write: stage=%q progress=%d", job.Stage, job.Progress)
	}
	if len(events.events) != 0 {
		t.Fatalf("event appended despite rejected write")
	}
}

func TestProgressAppendsLedgerEvent(t *testing.T) {
	job := newTestJob(t)
	events := &fakeEventRepo{}
	jc := NewContext(context.Background(), nil, job, &fakeJobRunRepo{}, events, nil)

	jc.ProgressWithSources("gap_analysis", 2, 12, "research done",
		[]string{"https://example.com/a"}, map[string]any{"quality": 0.9})

	if len(events.events) != 1 {
		t.Fatalf("event count: want=1 got=%d", len(events.events))
	}
	event := events.events[0]
	if event.Kind != string(types.JobEventProgress) {
		t.Fatalf("event kind: got=%q", event.Kind)
	}
	if event.JobID != job.ID || event.OwnerUserID != job.OwnerUserID {
		t.Fatalf("event identity fields not copied from job")
	}
	if len(event.Sources) == 0 || len(event.Data) == 0 {
		t.Fatalf("sources/data not recorded on event")
	}
}

func TestRecordStepScoreWriteOnce(t *testing.T) {
	job := newTestJob(t)
	repo := &fakeJobRunRepo{}
	jc := NewContext(context.Background(), nil, job, repo, &fakeEventRepo{}, nil)

	jc.RecordStepScore("content_pillars", 0.8)
	jc.RecordStepScore("content_pillars", 0.1)

	scores := jc.StepScores()
	if scores["content_pillars"] != 0.8 {
		t.Fatalf("score overwritten: %v", scores["content_pillars"])
	}
	if len(repo.updates) != 1 {
		t.Fatalf("writes: want=1 got=%d", len(repo.updates))
	}
}

func TestRecordStepScoreRolledBackOnRejectedWrite(t *testing.T) {
	job := newTestJob(t)
	repo := &fakeJobRunRepo{rejectWrites: true}
	jc := NewContext(context.Background(), nil, job, repo, &fakeEventRepo{}, nil)

	jc.RecordStepScore("validation", 0.6)

	if _, exists := jc.StepScores()["validation"]; exists {
		t.Fatalf("score kept despite rejected write")
	}
}

func TestFailRecordsErrorAndClearsLock(t *testing.T) {
	job := newTestJob(t)
	repo := &fakeJobRunRepo{}
	events := &fakeEventRepo{}
	jc := NewContext(context.Background(), nil, job, repo, events, nil)

	jc.Fail("daily_planning", errContextTest)

	if job.Status != types.JobStatusFailed {
		t.Fatalf("status: want=failed got=%q", job.Status)
	}
	if job.Error != errContextTest.Error() {
		t.Fatalf("error message: got=%q", job.Error)
	}
	if job.LockedAt != nil {
		t.Fatalf("lock not cleared")
	}
	if len(events.events) != 1 || events.events[0].Kind != string(types.JobEventFailed) {
		t.Fatalf("failed event not appended")
	}
}

func TestSucceedForcesFullProgressAndResult(t *testing.T) {
	job := newTestJob(t)
	repo := &fakeJobRunRepo{}
	jc := NewContext(context.Background(), nil, job, repo, &fakeEventRepo{}, nil)

	jc.Succeed("done", map[string]any{"calendar_id": "x"})

	if job.Status != types.JobStatusSucceeded {
		t.Fatalf("status: want=succeeded got=%q", job.Status)
	}
	if job.Progress != 100 {
		t.Fatalf("progress: want=100 got=%d", job.Progress)
	}
	if len(job.Result) == 0 {
		t.Fatalf("result not persisted")
	}
}
