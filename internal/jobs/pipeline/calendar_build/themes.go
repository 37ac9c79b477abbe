package calendar_build

import (
	"fmt"
	"strings"
	"time"

	"github.com/alwrity/alwrity-backend/internal/quality"
)

const weeklyThemeBatch = 10

/*
stepWeeklyThemes assigns each week a theme drawn from the pillars. Long
calendars are generated in batches so prompts stay bounded; the batch loop
reports intra-step progress as it goes.
*/
func (p *CalendarBuildPipeline) stepWeeklyThemes(buildCtx *buildContext) error {
	const name = "weekly_themes"
	p.begin(buildCtx, name)

	themes := make([]any, 0, buildCtx.weeks)
	for batchStart := 1; batchStart <= buildCtx.weeks; batchStart += weeklyThemeBatch {
		batchEnd := batchStart + weeklyThemeBatch - 1
		if batchEnd > buildCtx.weeks {
			batchEnd = buildCtx.weeks
		}
		system := "You plan weekly content themes. Every week gets one theme tied to a content pillar, sequenced so adjacent weeks vary. Respond only with the requested JSON."
		user := fmt.Sprintf(
			"Content pillars:\n%s\nFramework:\n%s\nPrior weeks:\n%s\nPlan themes for weeks %d through %d of a %d-week calendar.",
			stepOutputsContext(3000, buildCtx.pillars),
			stepOutputsContext(2000, buildCtx.framework),
			stepOutputsContext(2000, map[string]any{"themes": themes}),
			batchStart, batchEnd, buildCtx.weeks,
		)
		result, err := p.aiJSON(buildCtx, name, system, user, "weekly_themes", weeklyThemesSchema())
		if err != nil {
			return err
		}
		batch, ok := result["themes"].([]any)
		if !ok || len(batch) == 0 {
			return fmt.Errorf("weeks %d-%d: model returned no themes", batchStart, batchEnd)
		}
		want := batchEnd - batchStart + 1
		if len(batch) > want {
			batch = batch[:want]
		}
		themes = append(themes, batch...)

		if batchEnd < buildCtx.weeks {
			p.progressWithin(buildCtx, name, batchEnd, buildCtx.weeks,
				fmt.Sprintf("Themed %d of %d weeks", batchEnd, buildCtx.weeks))
		}
	}
	if len(themes) < buildCtx.weeks {
		return fmt.Errorf("themed %d weeks, expected %d", len(themes), buildCtx.weeks)
	}
	buildCtx.themes = map[string]any{"themes": themes}

	report := scoreThemeList(themes, stringListOfPillars(buildCtx.pillars))
	p.finish(buildCtx, name, report, nil,
		fmt.Sprintf("Composed %d weekly themes (quality %.2f)", len(themes), report.Overall))
	return nil
}

func weeklyThemesSchema() map[string]any {
	theme := map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"week":        map[string]any{"type": "integer"},
			"theme":       map[string]any{"type": "string"},
			"pillar":      map[string]any{"type": "string"},
			"description": map[string]any{"type": "string"},
		},
		"required": []string{"week", "theme", "pillar", "description"},
	}
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"themes": map[string]any{"type": "array", "items": theme},
		},
		"required": []string{"themes"},
	}
}

// scoreThemeList scores each theme object and checks pillar coverage.
func scoreThemeList(themes []any, pillarNames []string) quality.Report {
	if len(themes) == 0 {
		return quality.Report{}
	}
	required := []string{"week", "theme", "pillar", "description"}
	sum := 0.0
	for _, item := range themes {
		theme, ok := item.(map[string]any)
		if !ok {
			continue
		}
		sum += quality.Score(theme, required, nil).Overall
	}
	report := quality.Report{Overall: sum / float64(len(themes))}

	// Blend in how many declared pillars the theme sequence actually used.
	if len(pillarNames) > 0 {
		flat := quality.Flatten(map[string]any{"themes": themes})
		used := 0
		for _, pillar := range pillarNames {
			if pillar != "" && containsFold(flat, pillar) {
				used++
			}
		}
		coverage := float64(used) / float64(len(pillarNames))
		report.KeywordCoverage = coverage
		report.Overall = 0.8*report.Overall + 0.2*coverage
	}
	report.Completeness = report.Overall
	return report
}

/*
stepDailyPlanning expands each themed week into dated post entries for every
platform. The model decides day offsets and content; dates are computed here
from the calendar's start date so they are always consistent with the
requested timezone and frequency.
*/
func (p *CalendarBuildPipeline) stepDailyPlanning(buildCtx *buildContext) error {
	const name = "daily_planning"
	p.begin(buildCtx, name)

	location, lErr := time.LoadLocation(buildCtx.timezone)
	if lErr != nil {
		location = time.UTC
	}
	themes, _ := buildCtx.themes["themes"].([]any)

	entries := make([]any, 0, buildCtx.weeks*buildCtx.frequency*len(buildCtx.platforms))
	for week := 1; week <= buildCtx.weeks; week++ {
		var weekTheme map[string]any
		if week-1 < len(themes) {
			weekTheme, _ = themes[week-1].(map[string]any)
		}
		system := "You plan a week of social posts. Spread posts across the week, match each to its platform's strategy, and vary formats. Respond only with the requested JSON."
		user := fmt.Sprintf(
			"Week %d theme:\n%s\nPlatform strategies:\n%s\nPlan %d posts for each platform (%v). day_offset is 0 for Monday through 6 for Sunday.",
			week,
			stepOutputsContext(1500, weekTheme),
			stepOutputsContext(3000, platformPlansAsAny(buildCtx)),
			buildCtx.frequency,
			buildCtx.platforms,
		)
		result, err := p.aiJSON(buildCtx, name, system, user, "week_plan", weekPlanSchema(buildCtx.platforms))
		if err != nil {
			return fmt.Errorf("week %d: %w", week, err)
		}
		posts, ok := result["posts"].([]any)
		if !ok || len(posts) == 0 {
			return fmt.Errorf("week %d: model returned no posts", week)
		}
		weekStart := buildCtx.startDate.AddDate(0, 0, (week-1)*7)
		for _, item := range posts {
			post, pOk := item.(map[string]any)
			if !pOk {
				continue
			}
			offset := 0
			if raw, oOk := post["day_offset"].(float64); oOk {
				offset = int(raw)
			}
			if offset < 0 {
				offset = 0
			}
			if offset > 6 {
				offset = 6
			}
			date := time.Date(weekStart.Year(), weekStart.Month(), weekStart.Day(), 0, 0, 0, 0, location).
				AddDate(0, 0, offset)
			post["week"] = week
			post["date"] = date.Format("2006-01-02")
			entries = append(entries, post)
		}
		p.progressWithin(buildCtx, name, week, buildCtx.weeks,
			fmt.Sprintf("Planned week %d of %d", week, buildCtx.weeks))
	}
	buildCtx.schedule = map[string]any{"posts": entries}

	report := scheduleReport(buildCtx, entries)
	p.finish(buildCtx, name, report, nil,
		fmt.Sprintf("Planned %d posts across %d weeks (quality %.2f)", len(entries), buildCtx.weeks, report.Overall))
	return nil
}

func weekPlanSchema(platforms []string) map[string]any {
	post := map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"platform":       map[string]any{"type": "string", "enum": platforms},
			"day_offset":     map[string]any{"type": "integer"},
			"title":          map[string]any{"type": "string"},
			"content_type":   map[string]any{"type": "string"},
			"format":         map[string]any{"type": "string"},
			"pillar":         map[string]any{"type": "string"},
			"description":    map[string]any{"type": "string"},
			"call_to_action": map[string]any{"type": "string"},
			"hashtags":       map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
		},
		"required": []string{"platform", "day_offset", "title", "content_type", "format", "pillar", "description", "call_to_action", "hashtags"},
	}
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"posts": map[string]any{"type": "array", "items": post},
		},
		"required": []string{"posts"},
	}
}

// scheduleReport checks volume against the requested posting frequency and
// per-entry completeness.
func scheduleReport(buildCtx *buildContext, entries []any) quality.Report {
	expected := buildCtx.weeks * buildCtx.frequency * len(buildCtx.platforms)
	volume := 0.0
	if expected > 0 {
		volume = float64(len(entries)) / float64(expected)
		if volume > 1 {
			volume = 1
		}
	}
	required := []string{"platform", "date", "title", "description", "pillar"}
	sum := 0.0
	for _, item := range entries {
		if post, ok := item.(map[string]any); ok {
			sum += quality.Score(post, required, nil).Overall
		}
	}
	perEntry := 0.0
	if len(entries) > 0 {
		perEntry = sum / float64(len(entries))
	}
	report := quality.Report{Overall: 0.5*volume + 0.5*perEntry}
	report.Completeness = volume
	report.Density = perEntry
	return report
}

// progressWithin interpolates progress between this step's start mark and the
// next step's, for long-running loops.
func (p *CalendarBuildPipeline) progressWithin(buildCtx *buildContext, name string, done, total int, msg string) {
	def := buildCtx.stepDef(name)
	end := def.ProgressStart + 8
	index := buildCtx.stepIndexOf(name)
	if index > 0 && index < len(buildCtx.steps) {
		end = buildCtx.steps[index].ProgressStart
	}
	span := end - def.ProgressStart
	pct := def.ProgressStart
	if total > 0 {
		pct += span * done / total
	}
	if pct > buildCtx.lastProgress {
		buildCtx.lastProgress = pct
	}
	buildCtx.jobCtx.Progress(name, index, buildCtx.lastProgress, msg)
}

func platformPlansAsAny(buildCtx *buildContext) map[string]any {
	out := make(map[string]any, len(buildCtx.platformPlans))
	for _, platform := range buildCtx.platforms {
		if plan, ok := buildCtx.platformPlans[platform]; ok {
			out[platform] = plan
		}
	}
	return out
}

func containsFold(haystack, needle string) bool {
	return needle != "" && strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}
