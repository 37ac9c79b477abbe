package calendar_build

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/alwrity/alwrity-backend/internal/clients/openai"
	types "github.com/alwrity/alwrity-backend/internal/domain"
	"github.com/alwrity/alwrity-backend/internal/jobs/runtime"
	"github.com/alwrity/alwrity-backend/internal/quality"
)

/*
buildContext accumulates everything one generation run produces. Steps fill it
in order; later steps read earlier outputs, and final assembly writes the
surviving pieces onto the content_calendar row.
*/
type buildContext struct {
	jobCtx *runtime.Context
	ctx    context.Context
	userID uuid.UUID

	calendarID uuid.UUID
	calendar   *types.ContentCalendar
	strategy   *types.ContentStrategy
	onboarding *types.OnboardingSession

	platforms []string
	weeks     int
	frequency int
	timezone  string
	startDate time.Time

	steps []StepDef

	analysis        map[string]any
	gaps            map[string]any
	audience        map[string]any
	framework       map[string]any
	pillars         map[string]any
	platformPlans   map[string]map[string]any
	themes          map[string]any
	schedule        map[string]any
	recommendations map[string]any
	optimization    map[string]any
	validation      map[string]any

	citations []openai.Citation

	// monotonic progress so the client bar never jumps backward
	lastProgress int
}

func (p *CalendarBuildPipeline) Type() string { return types.JobTypeCalendarBuild }

func (p *CalendarBuildPipeline) Run(jobContext *runtime.Context) error {
	if jobContext == nil || jobContext.Job == nil {
		return nil
	}
	steps, err := Steps()
	if err != nil {
		jobContext.Fail("init", err)
		return nil
	}
	buildCtx := &buildContext{
		jobCtx: jobContext,
		ctx:    jobContext.Ctx,
		userID: jobContext.Job.OwnerUserID,
		steps:  steps,
	}

	if err := p.loadAndValidate(buildCtx); err != nil {
		p.fail(buildCtx, "validate", err)
		return nil
	}

	type stage struct {
		name string
		run  func(*buildContext) error
	}
	ordered := []stage{
		{"strategy_analysis", p.stepStrategyAnalysis},
		{"gap_analysis", p.stepGapAnalysis},
		{"audience_platform", p.stepAudiencePlatform},
		{"calendar_framework", p.stepCalendarFramework},
		{"content_pillars", p.stepContentPillars},
		{"platform_strategy", p.stepPlatformStrategy},
		{"weekly_themes", p.stepWeeklyThemes},
		{"daily_planning", p.stepDailyPlanning},
		{"content_recommendations", p.stepContentRecommendations},
		{"performance_optimization", p.stepPerformanceOptimization},
		{"validation", p.stepValidation},
		{"final_assembly", p.stepFinalAssembly},
	}
	for _, s := range ordered {
		if canceled, cErr := p.runCanceled(buildCtx); cErr == nil && canceled {
			p.log.Info("run canceled mid-pipeline", "job_id", jobContext.Job.ID, "stage", s.name)
			return nil
		}
		if err := s.run(buildCtx); err != nil {
			p.fail(buildCtx, s.name, err)
			p.markCalendarFailed(buildCtx)
			return nil
		}
	}

	jobContext.Succeed("done", map[string]any{
		"calendar_id":     buildCtx.calendarID.String(),
		"overall_quality": buildCtx.calendar.OverallQuality,
	})
	return nil
}

// runCanceled re-reads the run's status so a user cancel stops the pipeline
// between steps instead of only suppressing its writes.
func (p *CalendarBuildPipeline) runCanceled(buildCtx *buildContext) (bool, error) {
	var status string
	err := p.db.WithContext(buildCtx.ctx).
		Model(&types.JobRun{}).
		Where("id = ?", buildCtx.jobCtx.Job.ID).
		Pluck("status", &status).Error
	if err != nil {
		return false, err
	}
	return status == types.JobStatusCanceled, nil
}

func (p *CalendarBuildPipeline) loadAndValidate(buildCtx *buildContext) error {
	jc := buildCtx.jobCtx
	calendarID, ok := jc.PayloadUUID("calendar_id")
	if !ok {
		return fmt.Errorf("payload missing calendar_id")
	}
	buildCtx.calendarID = calendarID

	calendars, err := p.calendarRepo.GetByIDs(buildCtx.ctx, nil, []uuid.UUID{calendarID})
	if err != nil {
		return fmt.Errorf("load calendar: %w", err)
	}
	if len(calendars) == 0 {
		return fmt.Errorf("calendar %s not found", calendarID)
	}
	buildCtx.calendar = calendars[0]

	buildCtx.platforms = jc.PayloadStringSlice("platforms")
	if len(buildCtx.platforms) == 0 {
		return fmt.Errorf("payload missing platforms")
	}
	buildCtx.weeks = jc.PayloadInt("duration_weeks")
	if buildCtx.weeks < 1 || buildCtx.weeks > 52 {
		return fmt.Errorf("duration_weeks %d out of range", buildCtx.weeks)
	}
	buildCtx.frequency = jc.PayloadInt("posting_frequency")
	if buildCtx.frequency < 1 || buildCtx.frequency > 7 {
		return fmt.Errorf("posting_frequency %d out of range", buildCtx.frequency)
	}
	buildCtx.timezone = jc.PayloadString("timezone")
	if buildCtx.timezone == "" {
		buildCtx.timezone = "UTC"
	}
	if raw := jc.PayloadString("start_date"); raw != "" {
		if parsed, pErr := time.Parse(time.RFC3339, raw); pErr == nil {
			buildCtx.startDate = parsed
		}
	}
	if buildCtx.startDate.IsZero() {
		loc, lErr := time.LoadLocation(buildCtx.timezone)
		if lErr != nil {
			loc = time.UTC
		}
		buildCtx.startDate = nextMonday(time.Now().In(loc))
	}

	if strategyID, sOk := jc.PayloadUUID("strategy_id"); sOk {
		strategies, sErr := p.strategyRepo.GetByIDs(buildCtx.ctx, nil, []uuid.UUID{strategyID})
		if sErr != nil {
			return fmt.Errorf("load strategy: %w", sErr)
		}
		if len(strategies) > 0 && strategies[0].UserID == buildCtx.userID {
			buildCtx.strategy = strategies[0]
		}
	}
	// Onboarding context is optional enrichment.
	if session, oErr := p.onboardingRepo.GetByUserID(buildCtx.ctx, nil, buildCtx.userID); oErr == nil {
		buildCtx.onboarding = session
	}
	return nil
}

func (p *CalendarBuildPipeline) markCalendarFailed(buildCtx *buildContext) {
	if buildCtx == nil || buildCtx.calendarID == uuid.Nil {
		return
	}
	if err := p.calendarRepo.UpdateFields(buildCtx.ctx, nil, buildCtx.calendarID, map[string]interface{}{
		"status": types.CalendarStatusFailed,
	}); err != nil {
		p.log.Warn("mark calendar failed errored", "calendar_id", buildCtx.calendarID, "error", err)
	}
}

// stepIndexOf returns the 1-based position of a step name.
func (buildCtx *buildContext) stepIndexOf(name string) int {
	for i, step := range buildCtx.steps {
		if step.Name == name {
			return i + 1
		}
	}
	return 0
}

func (buildCtx *buildContext) stepDef(name string) StepDef {
	for _, step := range buildCtx.steps {
		if step.Name == name {
			return step
		}
	}
	return StepDef{Name: name}
}

// begin reports the start of a step at its declared progress mark.
func (p *CalendarBuildPipeline) begin(buildCtx *buildContext, name string) {
	def := buildCtx.stepDef(name)
	pct := def.ProgressStart
	if pct < buildCtx.lastProgress {
		pct = buildCtx.lastProgress
	} else {
		buildCtx.lastProgress = pct
	}
	buildCtx.jobCtx.Progress(name, buildCtx.stepIndexOf(name), pct, def.Title)
}

// finish records the step's quality score and an end-of-step event carrying
// the sources consulted and a short summary.
func (p *CalendarBuildPipeline) finish(buildCtx *buildContext, name string, report quality.Report, sources []string, summary string) {
	buildCtx.jobCtx.RecordStepScore(name, report.Overall)
	if summary == "" {
		summary = fmt.Sprintf("%s complete (quality %.2f)", buildCtx.stepDef(name).Title, report.Overall)
	}
	data := map[string]any{
		"quality":      report.Overall,
		"completeness": report.Completeness,
	}
	if len(report.MissingKeys) > 0 {
		data["missing_keys"] = report.MissingKeys
	}
	buildCtx.jobCtx.ProgressWithSources(name, buildCtx.stepIndexOf(name), buildCtx.lastProgress, summary, sources, data)
}

func (p *CalendarBuildPipeline) fail(buildCtx *buildContext, stage string, err error) {
	if buildCtx == nil || buildCtx.jobCtx == nil {
		return
	}
	p.log.Warn("pipeline step failed", "stage", stage, "job_id", buildCtx.jobCtx.Job.ID, "error", err)
	buildCtx.jobCtx.Fail(stage, err)
}

// nextMonday returns midnight of the next Monday in from's location, so the
// calendar starts on a Monday in the user's configured timezone.
func nextMonday(from time.Time) time.Time {
	day := from.AddDate(0, 0, 1)
	for day.Weekday() != time.Monday {
		day = day.AddDate(0, 0, 1)
	}
	return time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, from.Location())
}
