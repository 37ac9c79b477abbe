package calendar_build

import (
	"fmt"

	"github.com/alwrity/alwrity-backend/internal/quality"
)

func (p *CalendarBuildPipeline) stepContentRecommendations(buildCtx *buildContext) error {
	const name = "content_recommendations"
	p.begin(buildCtx, name)

	system := "You generate practical content recommendations: repurposing ideas, series concepts, and quick wins on top of an existing calendar. Respond only with the requested JSON."
	user := fmt.Sprintf(
		"Content pillars:\n%s\nWeekly themes:\n%s\nGenerate recommendations that complement this calendar.",
		stepOutputsContext(2500, buildCtx.pillars),
		stepOutputsContext(3500, buildCtx.themes),
	)

	result, err := p.aiJSON(buildCtx, name, system, user, "content_recommendations", contentRecommendationsSchema())
	if err != nil {
		return err
	}
	buildCtx.recommendations = result

	required := []string{"repurposing_ideas", "series_concepts", "quick_wins"}
	report := quality.Score(result, required, nil)
	p.finish(buildCtx, name, report, nil, "")
	return nil
}

func contentRecommendationsSchema() map[string]any {
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"repurposing_ideas": map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
			"series_concepts":   map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
			"quick_wins":        map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
		},
		"required": []string{"repurposing_ideas", "series_concepts", "quick_wins"},
	}
}

func (p *CalendarBuildPipeline) stepPerformanceOptimization(buildCtx *buildContext) error {
	const name = "performance_optimization"
	p.begin(buildCtx, name)

	system := "You optimize content calendars for performance: timing adjustments, format swaps, and measurement advice. Respond only with the requested JSON."
	user := fmt.Sprintf(
		"Platform strategies:\n%s\nSchedule sample:\n%s\nSuggest performance optimizations and the KPIs to watch.",
		stepOutputsContext(3000, platformPlansAsAny(buildCtx)),
		stepOutputsContext(3000, buildCtx.schedule),
	)

	result, err := p.aiJSON(buildCtx, name, system, user, "performance_optimization", performanceOptimizationSchema())
	if err != nil {
		return err
	}
	buildCtx.optimization = result

	required := []string{"timing_adjustments", "format_recommendations", "kpis"}
	report := quality.Score(result, required, nil)
	p.finish(buildCtx, name, report, nil, "")
	return nil
}

func performanceOptimizationSchema() map[string]any {
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"timing_adjustments":     map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
			"format_recommendations": map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
			"kpis":                   map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
		},
		"required": []string{"timing_adjustments", "format_recommendations", "kpis"},
	}
}
