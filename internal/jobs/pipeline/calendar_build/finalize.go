package calendar_build

import (
	"fmt"
	"time"

	"gorm.io/datatypes"

	types "github.com/alwrity/alwrity-backend/internal/domain"
	"github.com/alwrity/alwrity-backend/internal/quality"
)

/*
stepValidation checks the assembled outputs without a model call: schedule
volume against the requested frequency, pillar coverage in the themes, and
per-platform presence. Findings go on the event ledger so a thin calendar is
explainable, not just a low number.
*/
func (p *CalendarBuildPipeline) stepValidation(buildCtx *buildContext) error {
	const name = "validation"
	p.begin(buildCtx, name)

	findings := []string{}
	entries, _ := buildCtx.schedule["posts"].([]any)
	expected := buildCtx.weeks * buildCtx.frequency * len(buildCtx.platforms)
	if len(entries) < expected {
		findings = append(findings, fmt.Sprintf("schedule has %d posts, expected %d", len(entries), expected))
	}

	perPlatform := map[string]int{}
	for _, item := range entries {
		if post, ok := item.(map[string]any); ok {
			if platform, pOk := post["platform"].(string); pOk {
				perPlatform[platform]++
			}
		}
	}
	for _, platform := range buildCtx.platforms {
		if perPlatform[platform] == 0 {
			findings = append(findings, fmt.Sprintf("no posts scheduled for %s", platform))
		}
	}

	pillarNames := stringListOfPillars(buildCtx.pillars)
	themeFlat := quality.Flatten(buildCtx.themes)
	for _, pillar := range pillarNames {
		if !containsFold(themeFlat, pillar) {
			findings = append(findings, fmt.Sprintf("pillar %q unused in weekly themes", pillar))
		}
	}

	score := 1.0
	if expected > 0 {
		score = float64(len(entries)) / float64(expected)
		if score > 1 {
			score = 1
		}
	}
	// Each structural finding past volume costs a tenth.
	penalty := 0.1 * float64(len(findings))
	if penalty > 0.5 {
		penalty = 0.5
	}
	score -= penalty
	if score < 0 {
		score = 0
	}

	buildCtx.validation = map[string]any{
		"findings":       findings,
		"post_count":     len(entries),
		"expected_posts": expected,
	}
	report := quality.Report{Overall: score, Completeness: score}
	summary := "Calendar validated"
	if len(findings) > 0 {
		summary = fmt.Sprintf("Calendar validated with %d findings", len(findings))
	}
	p.finish(buildCtx, name, report, nil, summary)
	return nil
}

/*
stepFinalAssembly writes the finished calendar: all step outputs land on the
content_calendar row, the overall quality is the step-weighted aggregate, and
status flips to ready. This is the only step that mutates the calendar.
*/
func (p *CalendarBuildPipeline) stepFinalAssembly(buildCtx *buildContext) error {
	const name = "final_assembly"
	p.begin(buildCtx, name)

	scores := buildCtx.jobCtx.StepScores()
	overall := quality.Aggregate(scores, StepWeights(buildCtx.steps))

	recommendations := map[string]any{}
	if buildCtx.recommendations != nil {
		recommendations["content"] = buildCtx.recommendations
	}
	if buildCtx.optimization != nil {
		recommendations["optimization"] = buildCtx.optimization
	}
	if buildCtx.validation != nil {
		recommendations["validation"] = buildCtx.validation
	}
	if len(buildCtx.citations) > 0 {
		recommendations["sources"] = buildCtx.citations
	}

	startDate := buildCtx.startDate
	updates := map[string]interface{}{
		"status":            types.CalendarStatusReady,
		"start_date":        startDate,
		"pillars":           datatypes.JSON(mustJSON(buildCtx.pillars)),
		"weekly_themes":     datatypes.JSON(mustJSON(buildCtx.themes)),
		"platform_strategy": datatypes.JSON(mustJSON(platformPlansAsAny(buildCtx))),
		"schedule":          datatypes.JSON(mustJSON(buildCtx.schedule)),
		"recommendations":   datatypes.JSON(mustJSON(recommendations)),
		"quality_scores":    datatypes.JSON(mustJSON(scores)),
		"overall_quality":   overall,
		"updated_at":        time.Now(),
	}
	if err := p.calendarRepo.UpdateFields(buildCtx.ctx, nil, buildCtx.calendarID, updates); err != nil {
		return fmt.Errorf("write calendar: %w", err)
	}
	buildCtx.calendar.Status = types.CalendarStatusReady
	buildCtx.calendar.OverallQuality = overall

	report := quality.Report{Overall: overall, Completeness: overall}
	p.finish(buildCtx, name, report, citationURLs(buildCtx.citations),
		fmt.Sprintf("Calendar ready (overall quality %.2f)", overall))
	return nil
}
