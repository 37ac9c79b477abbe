package worker

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/alwrity/alwrity-backend/internal/data/repos"
	"github.com/alwrity/alwrity-backend/internal/jobs/runtime"
	"github.com/alwrity/alwrity-backend/internal/pkg/dbctx"
	"github.com/alwrity/alwrity-backend/internal/platform/envutil"
	"github.com/alwrity/alwrity-backend/internal/platform/logger"
	"github.com/alwrity/alwrity-backend/internal/services"
)

// Worker polls job_run for runnable work and dispatches to registered
// handlers. Claims use SKIP LOCKED so multiple replicas can poll the same
// table without double-running a job.
type Worker struct {
	db        *gorm.DB
	log       *logger.Logger
	repo      repos.JobRunRepo
	eventRepo repos.JobRunEventRepo
	registry  *runtime.Registry
	notify    services.JobNotifier
}

func NewWorker(
	db *gorm.DB,
	baseLog *logger.Logger,
	repo repos.JobRunRepo,
	eventRepo repos.JobRunEventRepo,
	registry *runtime.Registry,
	notify services.JobNotifier,
) *Worker {
	return &Worker{
		db:        db,
		log:       baseLog.With("component", "JobWorker"),
		repo:      repo,
		eventRepo: eventRepo,
		registry:  registry,
		notify:    notify,
	}
}

func (w *Worker) Start(ctx context.Context) {
	concurrency := envutil.Int("WORKER_CONCURRENCY", 2)
	if concurrency < 1 {
		concurrency = 1
	}
	w.log.Info("starting job worker pool", "concurrency", concurrency)
	for i := 0; i < concurrency; i++ {
		workerID := i + 1
		go w.runLoop(ctx, workerID)
	}
	go w.runJanitor(ctx)
}

func (w *Worker) runLoop(ctx context.Context, workerID int) {
	ticker := time.NewTicker(1 * time.Second)
	defer ticker.Stop()

	maxAttempts := envutil.Int("WORKER_MAX_ATTEMPTS", 3)
	retryDelay := 30 * time.Second
	staleRunning := 10 * time.Minute

	for {
		select {
		case <-ctx.Done():
			w.log.Info("worker loop stopped", "worker_id", workerID)
			return
		case <-ticker.C:
			job, err := w.repo.ClaimNextRunnable(dbctx.Context{Ctx: ctx}, maxAttempts, retryDelay, staleRunning)
			if err != nil {
				w.log.Warn("claim failed", "worker_id", workerID, "error", err)
				continue
			}
			if job == nil {
				continue
			}

			jc := runtime.NewContext(ctx, w.db, job, w.repo, w.eventRepo, w.notify)
			h, ok := w.registry.Get(job.JobType)
			if !ok {
				w.log.Warn("no handler registered",
					"worker_id", workerID, "job_type", job.JobType, "job_id", job.ID)
				jc.Fail("dispatch", fmt.Errorf("no handler registered for job_type=%s", job.JobType))
				continue
			}

			w.log.Info("job claimed",
				"worker_id", workerID, "job_id", job.ID, "job_type", job.JobType, "attempt", job.Attempts)
			func() {
				defer func() {
					if r := recover(); r != nil {
						w.log.Error("job handler panic",
							"worker_id", workerID, "job_id", job.ID, "job_type", job.JobType, "panic", r)
						jc.Fail("panic", fmt.Errorf("panic: %v", r))
					}
				}()
				if runErr := h.Run(jc); runErr != nil {
					// Most pipelines call jc.Fail themselves; this is a safety net.
					jc.Fail("run", runErr)
				}
			}()
		}
	}
}

// runJanitor periodically removes terminal runs past the retention window so
// job_run does not grow without bound.
func (w *Worker) runJanitor(ctx context.Context) {
	retentionDays := envutil.Int("JOB_RETENTION_DAYS", 30)
	if retentionDays < 1 {
		return
	}
	ticker := time.NewTicker(1 * time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			cutoff := time.Now().AddDate(0, 0, -retentionDays)
			deleted, err := w.repo.DeleteTerminalOlderThan(dbctx.Context{Ctx: ctx}, cutoff)
			if err != nil {
				w.log.Warn("job retention sweep failed", "error", err)
				continue
			}
			if deleted > 0 {
				w.log.Info("job retention sweep", "deleted", deleted, "cutoff", cutoff)
			}
		}
	}
}
