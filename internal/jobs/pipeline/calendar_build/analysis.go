package calendar_build

import (
	"fmt"
	"strings"

	"github.com/alwrity/alwrity-backend/internal/quality"
)

func (p *CalendarBuildPipeline) stepStrategyAnalysis(buildCtx *buildContext) error {
	const name = "strategy_analysis"
	p.begin(buildCtx, name)

	system := "You are a content strategy analyst. Extract the structured essentials a calendar planner needs from the business context. Respond only with the requested JSON."
	user := fmt.Sprintf("Business context:\n%s\nAnalyze this for calendar planning.", strategyContext(buildCtx))

	result, err := p.aiJSON(buildCtx, name, system, user, "strategy_analysis", strategyAnalysisSchema())
	if err != nil {
		return err
	}
	buildCtx.analysis = result

	required := []string{"core_objectives", "target_audience_summary", "brand_voice_summary", "key_topics", "constraints"}
	report := quality.Score(result, required, []string{industryOf(buildCtx)})
	p.finish(buildCtx, name, report, nil, "")
	return nil
}

func strategyAnalysisSchema() map[string]any {
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"core_objectives":         map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
			"target_audience_summary": map[string]any{"type": "string"},
			"brand_voice_summary":     map[string]any{"type": "string"},
			"key_topics":              map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
			"constraints":             map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
		},
		"required": []string{"core_objectives", "target_audience_summary", "brand_voice_summary", "key_topics", "constraints"},
	}
}

/*
stepGapAnalysis is the one research-grounded step: it runs a web-search call
for current topic coverage in the industry, then structures the gaps. The
citations from the research land on the event ledger as the step's sources.
*/
func (p *CalendarBuildPipeline) stepGapAnalysis(buildCtx *buildContext) error {
	const name = "gap_analysis"
	p.begin(buildCtx, name)

	industry := industryOf(buildCtx)
	researchTopic := "content marketing trends"
	if industry != "" {
		researchTopic = industry + " content marketing trends"
	}
	grounded, gErr := p.aiGrounded(buildCtx, name+"_research",
		"You are a market researcher. Summarize findings factually with sources.",
		fmt.Sprintf("What content topics and formats are currently working in %s, and which audience needs are underserved? Keep it under 400 words.", researchTopic))
	researchText := ""
	if gErr != nil {
		// Research is enrichment; the structuring call still runs on the
		// strategy context alone.
		p.log.Warn("gap research failed", "error", gErr)
	} else {
		researchText = grounded.Text
	}

	system := "You identify content gaps: topics and formats the audience wants that the current strategy does not cover. Respond only with the requested JSON."
	var user strings.Builder
	fmt.Fprintf(&user, "Business context:\n%s\n", strategyContext(buildCtx))
	if researchText != "" {
		fmt.Fprintf(&user, "\nMarket research:\n%s\n", researchText)
	}
	user.WriteString("\nIdentify the content gaps and opportunities.")

	result, err := p.aiJSON(buildCtx, name, system, user.String(), "gap_analysis", gapAnalysisSchema())
	if err != nil {
		return err
	}
	buildCtx.gaps = result

	required := []string{"content_gaps", "opportunities", "underserved_topics"}
	report := quality.Score(result, required, []string{industry})
	p.finish(buildCtx, name, report, citationURLs(buildCtx.citations), "")
	return nil
}

func gapAnalysisSchema() map[string]any {
	gapItem := map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"topic":     map[string]any{"type": "string"},
			"rationale": map[string]any{"type": "string"},
			"priority":  map[string]any{"type": "string", "enum": []string{"high", "medium", "low"}},
		},
		"required": []string{"topic", "rationale", "priority"},
	}
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"content_gaps":       map[string]any{"type": "array", "items": gapItem},
			"opportunities":      map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
			"underserved_topics": map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
		},
		"required": []string{"content_gaps", "opportunities", "underserved_topics"},
	}
}

func (p *CalendarBuildPipeline) stepAudiencePlatform(buildCtx *buildContext) error {
	const name = "audience_platform"
	p.begin(buildCtx, name)

	system := "You profile audiences per social platform: who is reachable there, what formats they respond to, and when they are active. Respond only with the requested JSON."
	user := fmt.Sprintf(
		"Business context:\n%s\nStrategy analysis:\n%s\nProfile the audience for each of these platforms: %s.",
		strategyContext(buildCtx),
		stepOutputsContext(4000, buildCtx.analysis),
		strings.Join(buildCtx.platforms, ", "),
	)

	result, err := p.aiJSON(buildCtx, name, system, user, "audience_platform", audiencePlatformSchema(buildCtx.platforms))
	if err != nil {
		return err
	}
	buildCtx.audience = result

	required := append([]string{}, buildCtx.platforms...)
	report := quality.Score(result, required, nil)
	p.finish(buildCtx, name, report, nil, "")
	return nil
}

func audiencePlatformSchema(platforms []string) map[string]any {
	profile := map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"audience_description": map[string]any{"type": "string"},
			"best_formats":         map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
			"best_times":           map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
			"tone":                 map[string]any{"type": "string"},
		},
		"required": []string{"audience_description", "best_formats", "best_times", "tone"},
	}
	properties := map[string]any{}
	for _, platform := range platforms {
		properties[platform] = profile
	}
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties":           properties,
		"required":             platforms,
	}
}
