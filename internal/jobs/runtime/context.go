package runtime

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/alwrity/alwrity-backend/internal/data/repos"
	types "github.com/alwrity/alwrity-backend/internal/domain"
	"github.com/alwrity/alwrity-backend/internal/pkg/dbctx"
	"github.com/alwrity/alwrity-backend/internal/services"
)

/*
Context is the execution handle handed to a pipeline for one claimed job run.
It wraps the job_run row, the event ledger, and the notifier, and is the only
sanctioned way for pipeline code to report progress or terminate the run.

Every write is guarded with UpdateFieldsUnlessStatus(["canceled"]): once a user
cancels a run, nothing the still-executing pipeline does can overwrite that.
Progress and step index only move forward; step scores are write-once per step.
*/
type Context struct {
	Ctx       context.Context
	DB        *gorm.DB
	Job       *types.JobRun
	Repo      repos.JobRunRepo
	EventRepo repos.JobRunEventRepo
	Notify    services.JobNotifier

	payload map[string]any
	scores  map[string]float64
}

func NewContext(ctx context.Context, db *gorm.DB, job *types.JobRun, repo repos.JobRunRepo, eventRepo repos.JobRunEventRepo, notify services.JobNotifier) *Context {
	c := &Context{
		Ctx:       ctx,
		DB:        db,
		Job:       job,
		Repo:      repo,
		EventRepo: eventRepo,
		Notify:    notify,
	}
	_ = c.decodePayload()
	c.decodeScores()
	return c
}

func (c *Context) decodePayload() error {
	if c.Job == nil {
		return nil
	}
	if len(c.Job.Payload) == 0 {
		c.payload = map[string]any{}
		return nil
	}
	var m map[string]any
	if err := json.Unmarshal(c.Job.Payload, &m); err != nil {
		c.payload = map[string]any{}
		return err
	}
	c.payload = m
	return nil
}

func (c *Context) decodeScores() {
	c.scores = map[string]float64{}
	if c.Job == nil || len(c.Job.StepScores) == 0 {
		return
	}
	_ = json.Unmarshal(c.Job.StepScores, &c.scores)
}

// Payload returns the decoded job input. Never nil.
func (c *Context) Payload() map[string]any {
	if c.payload == nil {
		c.payload = map[string]any{}
	}
	return c.payload
}

// PayloadUUID reads a payload field and parses it as a UUID.
func (c *Context) PayloadUUID(key string) (uuid.UUID, bool) {
	v, ok := c.Payload()[key]
	if !ok || v == nil {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(fmt.Sprint(v))
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

func (c *Context) PayloadString(key string) string {
	if v, ok := c.Payload()[key]; ok && v != nil {
		if s, sOk := v.(string); sOk {
			return s
		}
	}
	return ""
}

func (c *Context) PayloadInt(key string) int {
	if v, ok := c.Payload()[key]; ok && v != nil {
		switch n := v.(type) {
		case float64:
			return int(n)
		case int:
			return n
		}
	}
	return 0
}

// PayloadStringSlice reads a payload array of strings, skipping non-strings.
func (c *Context) PayloadStringSlice(key string) []string {
	v, ok := c.Payload()[key]
	if !ok || v == nil {
		return nil
	}
	items, iOk := v.([]any)
	if !iOk {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, sOk := item.(string); sOk {
			out = append(out, s)
		}
	}
	return out
}

// Update applies arbitrary field updates to the job_run row, guarded against
// canceled runs. Prefer Progress/Fail/Succeed for lifecycle transitions.
func (c *Context) Update(updates map[string]interface{}) error {
	if c.Job == nil || c.Job.ID == uuid.Nil {
		return nil
	}
	_, err := c.Repo.UpdateFieldsUnlessStatus(dbctx.Context{Ctx: c.Ctx}, c.Job.ID,
		[]string{types.JobStatusCanceled}, updates)
	return err
}

/*
Progress publishes a non-terminal update: stage, step index, percentage, and a
human message. Values only move forward; a call that would move progress or
step index backwards is clamped to the stored values. Each accepted call also
appends a row to the job_run_event ledger so the full timeline survives.
*/
func (c *Context) Progress(stage string, stepIndex int, pct int, msg string) {
	c.ProgressWithSources(stage, stepIndex, pct, msg, nil, nil)
}

// ProgressWithSources is Progress plus the data sources consulted by the step
// and optional structured detail, both recorded on the event row.
func (c *Context) ProgressWithSources(stage string, stepIndex int, pct int, msg string, sources []string, data map[string]any) {
	if c == nil || c.Job == nil {
		return
	}
	ctx := c.Ctx
	if ctx == nil {
		ctx = context.Background()
	}
	if stepIndex < c.Job.StepIndex {
		stepIndex = c.Job.StepIndex
	}
	if pct < c.Job.Progress {
		pct = c.Job.Progress
	}
	now := time.Now()

	if c.Repo != nil && c.Job.ID != uuid.Nil {
		ok, _ := c.Repo.UpdateFieldsUnlessStatus(dbctx.Context{Ctx: ctx}, c.Job.ID,
			[]string{types.JobStatusCanceled}, map[string]interface{}{
				"stage":        stage,
				"step_index":   stepIndex,
				"progress":     pct,
				"message":      msg,
				"heartbeat_at": now,
				"updated_at":   now,
			})
		if !ok {
			return
		}
	}

	c.Job.Stage = stage
	c.Job.StepIndex = stepIndex
	c.Job.Progress = pct
	c.Job.Message = msg
	c.Job.HeartbeatAt = &now
	c.Job.UpdatedAt = now

	c.appendEvent(string(types.JobEventProgress), stage, stepIndex, pct, msg, sources, data)

	if c.Notify != nil {
		c.Notify.JobProgress(c.Job.OwnerUserID, c.Job, stage, pct, msg)
	}
}

/*
RecordStepScore stores the quality score for a completed step. Scores are
write-once: a second call for the same step is ignored, so a retried step
cannot silently replace the score already shown to the user.
*/
func (c *Context) RecordStepScore(step string, score float64) {
	if c == nil || c.Job == nil || c.Job.ID == uuid.Nil {
		return
	}
	if _, exists := c.scores[step]; exists {
		return
	}
	c.scores[step] = score
	raw, err := json.Marshal(c.scores)
	if err != nil {
		return
	}
	ok, _ := c.Repo.UpdateFieldsUnlessStatus(dbctx.Context{Ctx: c.Ctx}, c.Job.ID,
		[]string{types.JobStatusCanceled}, map[string]interface{}{
			"step_scores": datatypes.JSON(raw),
		})
	if !ok {
		delete(c.scores, step)
		return
	}
	c.Job.StepScores = datatypes.JSON(raw)
}

// StepScores returns a copy of the scores recorded so far.
func (c *Context) StepScores() map[string]float64 {
	out := make(map[string]float64, len(c.scores))
	for step, score := range c.scores {
		out[step] = score
	}
	return out
}

/*
Fail marks the run terminally failed. The canceled guard means a cancellation
that raced the failure wins; in that case no notification is emitted.
*/
func (c *Context) Fail(stage string, err error) {
	if c == nil || c.Job == nil {
		return
	}
	ctx := c.Ctx
	if ctx == nil {
		ctx = context.Background()
	}
	now := time.Now()
	msg := ""
	if err != nil {
		msg = err.Error()
	}

	if c.Repo != nil && c.Job.ID != uuid.Nil {
		ok, _ := c.Repo.UpdateFieldsUnlessStatus(dbctx.Context{Ctx: ctx}, c.Job.ID,
			[]string{types.JobStatusCanceled}, map[string]interface{}{
				"status":        types.JobStatusFailed,
				"stage":         stage,
				"message":       "",
				"error":         msg,
				"last_error_at": now,
				"locked_at":     nil,
				"updated_at":    now,
			})
		if !ok {
			return
		}
	}

	c.Job.Status = types.JobStatusFailed
	c.Job.Stage = stage
	c.Job.Message = ""
	c.Job.Error = msg
	c.Job.LastErrorAt = &now
	c.Job.LockedAt = nil
	c.Job.UpdatedAt = now

	c.appendEvent(string(types.JobEventFailed), stage, c.Job.StepIndex, c.Job.Progress, msg, nil, nil)

	if c.Notify != nil {
		c.Notify.JobFailed(c.Job.OwnerUserID, c.Job, stage, msg)
	}
}

/*
Succeed marks the run terminally succeeded with progress 100 and persists the
result payload, guarded against canceled runs like every other write.
*/
func (c *Context) Succeed(finalStage string, result any) {
	if c == nil || c.Job == nil {
		return
	}
	ctx := c.Ctx
	if ctx == nil {
		ctx = context.Background()
	}
	now := time.Now()
	var res datatypes.JSON
	if result != nil {
		b, _ := json.Marshal(result)
		res = datatypes.JSON(b)
	}

	if c.Repo != nil && c.Job.ID != uuid.Nil {
		ok, _ := c.Repo.UpdateFieldsUnlessStatus(dbctx.Context{Ctx: ctx}, c.Job.ID,
			[]string{types.JobStatusCanceled}, map[string]interface{}{
				"status":       types.JobStatusSucceeded,
				"stage":        finalStage,
				"progress":     100,
				"message":      "",
				"error":        "",
				"result":       res,
				"locked_at":    nil,
				"heartbeat_at": now,
				"updated_at":   now,
			})
		if !ok {
			return
		}
	}

	c.Job.Status = types.JobStatusSucceeded
	c.Job.Stage = finalStage
	c.Job.Progress = 100
	c.Job.Message = ""
	c.Job.Error = ""
	c.Job.Result = res
	c.Job.LockedAt = nil
	c.Job.HeartbeatAt = &now
	c.Job.UpdatedAt = now

	c.appendEvent(string(types.JobEventSucceeded), finalStage, c.Job.StepIndex, 100, "", nil, nil)

	if c.Notify != nil {
		c.Notify.JobDone(c.Job.OwnerUserID, c.Job)
	}
}

func (c *Context) appendEvent(kind, stage string, stepIndex, pct int, msg string, sources []string, data map[string]any) {
	if c.EventRepo == nil || c.Job == nil || c.Job.ID == uuid.Nil {
		return
	}
	event := &types.JobRunEvent{
		JobID:       c.Job.ID,
		OwnerUserID: c.Job.OwnerUserID,
		JobType:     c.Job.JobType,
		Kind:        kind,
		Stage:       stage,
		StepIndex:   stepIndex,
		Progress:    pct,
		Message:     msg,
	}
	if len(sources) > 0 {
		if raw, err := json.Marshal(sources); err == nil {
			event.Sources = datatypes.JSON(raw)
		}
	}
	if len(data) > 0 {
		if raw, err := json.Marshal(data); err == nil {
			event.Data = datatypes.JSON(raw)
		}
	}
	// The ledger is best-effort; the job_run row remains authoritative.
	_, _ = c.EventRepo.Append(dbctx.Context{Ctx: c.Ctx}, []*types.JobRunEvent{event})
}
