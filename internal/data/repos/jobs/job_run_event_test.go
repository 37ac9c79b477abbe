package jobs

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"

	types "github.com/alwrity/alwrity-backend/internal/domain"
	"github.com/alwrity/alwrity-backend/internal/pkg/dbctx"
	"github.com/alwrity/alwrity-backend/internal/platform/logger"
)

func TestListByJobIDKeepsNewestWindow(t *testing.T) {
	db := testDB(t)
	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("init logger: %v", err)
	}
	repo := NewJobRunEventRepo(db, log)
	dbc := dbctx.Context{Ctx: context.Background()}

	jobID := uuid.New()
	ownerID := uuid.New()
	base := time.Now().Add(-time.Hour)
	var events []*types.JobRunEvent
	for i := 0; i < 6; i++ {
		events = append(events, &types.JobRunEvent{
			JobID:       jobID,
			OwnerUserID: ownerID,
			JobType:     types.JobTypeCalendarBuild,
			Kind:        "step",
			Stage:       fmt.Sprintf("step_%d", i),
			StepIndex:   i,
			Progress:    i * 10,
			CreatedAt:   base.Add(time.Duration(i) * time.Minute),
		})
	}
	if _, err := repo.Append(dbc, events); err != nil {
		t.Fatalf("append: %v", err)
	}
	t.Cleanup(func() {
		_ = db.Where("job_id = ?", jobID).Delete(&types.JobRunEvent{}).Error
	})

	windowed, err := repo.ListByJobID(dbc, jobID, 3)
	if err != nil {
		t.Fatalf("list windowed: %v", err)
	}
	if len(windowed) != 3 {
		t.Fatalf("window size: want=3 got=%d", len(windowed))
	}
	if windowed[0].StepIndex != 3 || windowed[2].StepIndex != 5 {
		t.Fatalf("window must keep the newest events ascending: got %d..%d", windowed[0].StepIndex, windowed[2].StepIndex)
	}

	all, err := repo.ListByJobID(dbc, jobID, 0)
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if len(all) != 6 || all[0].StepIndex != 0 {
		t.Fatalf("unlimited list: want 6 ascending from 0, got len=%d first=%d", len(all), all[0].StepIndex)
	}
}
