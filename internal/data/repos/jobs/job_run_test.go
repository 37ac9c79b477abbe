package jobs

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	types "github.com/alwrity/alwrity-backend/internal/domain"
	"github.com/alwrity/alwrity-backend/internal/pkg/dbctx"
	"github.com/alwrity/alwrity-backend/internal/platform/logger"
)

// testDB opens the database named by TEST_POSTGRES_DSN; without it the
// integration tests are skipped.
func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := os.Getenv("TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("TEST_POSTGRES_DSN not set; skipping postgres integration test")
	}
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
		Logger:                                   gormLogger.Default.LogMode(gormLogger.Silent),
	})
	if err != nil {
		t.Fatalf("open postgres: %v", err)
	}
	if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`).Error; err != nil {
		t.Fatalf("enable uuid-ossp: %v", err)
	}
	if err := db.AutoMigrate(&types.JobRun{}, &types.JobRunEvent{}); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

func testJobRunRepo(t *testing.T) (JobRunRepo, dbctx.Context) {
	t.Helper()
	db := testDB(t)
	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("init logger: %v", err)
	}
	return NewJobRunRepo(db, log), dbctx.Context{Ctx: context.Background()}
}

func seedJob(t *testing.T, repo JobRunRepo, dbc dbctx.Context, status string) *types.JobRun {
	t.Helper()
	job := &types.JobRun{
		ID:          uuid.New(),
		OwnerUserID: uuid.New(),
		JobType:     types.JobTypeCalendarBuild,
		Status:      status,
	}
	created, err := repo.Create(dbc, []*types.JobRun{job})
	if err != nil {
		t.Fatalf("create job: %v", err)
	}
	t.Cleanup(func() {
		_ = repo.UpdateFields(dbc, job.ID, map[string]interface{}{"deleted_at": time.Now()})
	})
	return created[0]
}

func TestClaimNextRunnablePicksQueuedJob(t *testing.T) {
	repo, dbc := testJobRunRepo(t)
	job := seedJob(t, repo, dbc, types.JobStatusQueued)

	var claimed *types.JobRun
	for {
		got, err := repo.ClaimNextRunnable(dbc, 3, 30*time.Second, 10*time.Minute)
		if err != nil {
			t.Fatalf("claim: %v", err)
		}
		if got == nil {
			break
		}
		if got.ID == job.ID {
			claimed = got
			break
		}
		// Another leftover runnable row; mark it terminal and keep looking.
		_, _ = repo.UpdateFieldsUnlessStatus(dbc, got.ID, nil, map[string]interface{}{
			"status": types.JobStatusCanceled,
		})
	}
	if claimed == nil {
		t.Fatalf("queued job never claimed")
	}

	rows, err := repo.GetByIDs(dbc, []uuid.UUID{job.ID})
	if err != nil || len(rows) != 1 {
		t.Fatalf("reload: rows=%d err=%v", len(rows), err)
	}
	if rows[0].Status != types.JobStatusRunning {
		t.Fatalf("status after claim: want=running got=%q", rows[0].Status)
	}
	if rows[0].Attempts != 1 {
		t.Fatalf("attempts after claim: want=1 got=%d", rows[0].Attempts)
	}
	if rows[0].LockedAt == nil || rows[0].HeartbeatAt == nil {
		t.Fatalf("lock/heartbeat not stamped")
	}
}

func TestUpdateFieldsUnlessStatusGuardsCanceledRuns(t *testing.T) {
	repo, dbc := testJobRunRepo(t)
	job := seedJob(t, repo, dbc, types.JobStatusCanceled)

	ok, err := repo.UpdateFieldsUnlessStatus(dbc, job.ID,
		[]string{types.JobStatusCanceled},
		map[string]interface{}{"progress": 50})
	if err != nil {
		t.Fatalf("guarded update: %v", err)
	}
	if ok {
		t.Fatalf("canceled run was overwritten")
	}

	rows, err := repo.GetByIDs(dbc, []uuid.UUID{job.ID})
	if err != nil || len(rows) != 1 {
		t.Fatalf("reload: rows=%d err=%v", len(rows), err)
	}
	if rows[0].Progress != 0 {
		t.Fatalf("progress changed on canceled run: %d", rows[0].Progress)
	}
}

func TestExistsRunnable(t *testing.T) {
	repo, dbc := testJobRunRepo(t)
	job := seedJob(t, repo, dbc, types.JobStatusQueued)

	exists, err := repo.ExistsRunnable(dbc, job.OwnerUserID, job.JobType, "", nil)
	if err != nil {
		t.Fatalf("exists: %v", err)
	}
	if !exists {
		t.Fatalf("queued job not reported runnable")
	}

	if _, err := repo.UpdateFieldsUnlessStatus(dbc, job.ID, nil, map[string]interface{}{
		"status": types.JobStatusSucceeded,
	}); err != nil {
		t.Fatalf("finish job: %v", err)
	}

	exists, err = repo.ExistsRunnable(dbc, job.OwnerUserID, job.JobType, "", nil)
	if err != nil {
		t.Fatalf("exists: %v", err)
	}
	if exists {
		t.Fatalf("terminal job reported runnable")
	}
}

func TestExistsRunnableForEntitiesScopesByEntity(t *testing.T) {
	repo, dbc := testJobRunRepo(t)

	entityID := uuid.New()
	job := &types.JobRun{
		ID:          uuid.New(),
		OwnerUserID: uuid.New(),
		JobType:     types.JobTypeCalendarBuild,
		EntityType:  "content_calendar",
		EntityID:    &entityID,
		Status:      types.JobStatusQueued,
	}
	if _, err := repo.Create(dbc, []*types.JobRun{job}); err != nil {
		t.Fatalf("create job: %v", err)
	}
	t.Cleanup(func() {
		_ = repo.UpdateFields(dbc, job.ID, map[string]interface{}{"deleted_at": time.Now()})
	})

	got, err := repo.ExistsRunnableForEntities(dbc, job.OwnerUserID, types.JobTypeCalendarBuild, "content_calendar", []uuid.UUID{entityID})
	if err != nil {
		t.Fatalf("exists: %v", err)
	}
	if !got {
		t.Fatalf("queued run for the entity not reported")
	}

	other, err := repo.ExistsRunnableForEntities(dbc, job.OwnerUserID, types.JobTypeCalendarBuild, "content_calendar", []uuid.UUID{uuid.New()})
	if err != nil {
		t.Fatalf("exists other: %v", err)
	}
	if other {
		t.Fatalf("unrelated entity reported as active")
	}

	none, err := repo.ExistsRunnableForEntities(dbc, job.OwnerUserID, types.JobTypeCalendarBuild, "content_calendar", nil)
	if err != nil {
		t.Fatalf("exists empty: %v", err)
	}
	if none {
		t.Fatalf("empty entity set reported as active")
	}
}
