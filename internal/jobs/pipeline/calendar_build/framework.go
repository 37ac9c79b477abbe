package calendar_build

import (
	"fmt"

	"github.com/alwrity/alwrity-backend/internal/quality"
)

func (p *CalendarBuildPipeline) stepCalendarFramework(buildCtx *buildContext) error {
	const name = "calendar_framework"
	p.begin(buildCtx, name)

	system := "You design content calendar frameworks: the cadence, content type rotation, and structural rules the daily planner will follow. Respond only with the requested JSON."
	user := fmt.Sprintf(
		"Business context:\n%s\nAnalysis so far:\n%s\nDesign the framework for a %d-week calendar at %d posts per week per platform.",
		strategyContext(buildCtx),
		stepOutputsContext(4000, buildCtx.analysis, buildCtx.gaps),
		buildCtx.weeks, buildCtx.frequency,
	)

	result, err := p.aiJSON(buildCtx, name, system, user, "calendar_framework", calendarFrameworkSchema())
	if err != nil {
		return err
	}
	buildCtx.framework = result

	required := []string{"cadence_rules", "content_type_rotation", "mix_ratios"}
	report := quality.Score(result, required, nil)
	p.finish(buildCtx, name, report, nil, "")
	return nil
}

func calendarFrameworkSchema() map[string]any {
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"cadence_rules":         map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
			"content_type_rotation": map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
			"mix_ratios": map[string]any{
				"type":                 "object",
				"additionalProperties": false,
				"properties": map[string]any{
					"educational": map[string]any{"type": "number"},
					"promotional": map[string]any{"type": "number"},
					"engagement":  map[string]any{"type": "number"},
				},
				"required": []string{"educational", "promotional", "engagement"},
			},
		},
		"required": []string{"cadence_rules", "content_type_rotation", "mix_ratios"},
	}
}

func (p *CalendarBuildPipeline) stepContentPillars(buildCtx *buildContext) error {
	const name = "content_pillars"
	p.begin(buildCtx, name)

	system := "You define content pillars: three to six durable themes that cover the audience's needs and the business objectives. Respond only with the requested JSON."
	user := fmt.Sprintf(
		"Business context:\n%s\nGaps and framework:\n%s\nDefine the content pillars.",
		strategyContext(buildCtx),
		stepOutputsContext(4000, buildCtx.gaps, buildCtx.framework),
	)

	result, err := p.aiJSON(buildCtx, name, system, user, "content_pillars", contentPillarsSchema())
	if err != nil {
		return err
	}
	pillars := stringListOfPillars(result)
	if len(pillars) < 3 {
		return fmt.Errorf("model returned %d pillars, need at least 3", len(pillars))
	}
	buildCtx.pillars = result

	report := quality.Score(result, []string{"pillars"}, []string{industryOf(buildCtx)})
	p.finish(buildCtx, name, report, nil,
		fmt.Sprintf("Defined %d content pillars (quality %.2f)", len(pillars), report.Overall))
	return nil
}

func contentPillarsSchema() map[string]any {
	pillar := map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"name":        map[string]any{"type": "string"},
			"description": map[string]any{"type": "string"},
			"topics":      map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
			"share":       map[string]any{"type": "number"},
		},
		"required": []string{"name", "description", "topics", "share"},
	}
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"pillars": map[string]any{"type": "array", "items": pillar},
		},
		"required": []string{"pillars"},
	}
}

// stringListOfPillars pulls the pillar names out of the step output.
func stringListOfPillars(result map[string]any) []string {
	items, ok := result["pillars"].([]any)
	if !ok {
		return nil
	}
	names := make([]string, 0, len(items))
	for _, item := range items {
		if m, mOk := item.(map[string]any); mOk {
			if name, nOk := m["name"].(string); nOk && name != "" {
				names = append(names, name)
			}
		}
	}
	return names
}
