package calendar_build

import (
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/alwrity/alwrity-backend/internal/quality"
)

/*
stepPlatformStrategy generates one strategy per requested platform. The calls
run concurrently (bounded) because they are independent; results are merged in
the request's platform order so the output is deterministic regardless of
completion order.
*/
func (p *CalendarBuildPipeline) stepPlatformStrategy(buildCtx *buildContext) error {
	const name = "platform_strategy"
	p.begin(buildCtx, name)

	plans := make(map[string]map[string]any, len(buildCtx.platforms))
	var mu sync.Mutex

	group, groupCtx := errgroup.WithContext(buildCtx.ctx)
	group.SetLimit(3)
	for _, platform := range buildCtx.platforms {
		platform := platform
		group.Go(func() error {
			if err := groupCtx.Err(); err != nil {
				return err
			}
			plan, err := p.generatePlatformPlan(buildCtx, platform)
			if err != nil {
				return fmt.Errorf("platform %s: %w", platform, err)
			}
			mu.Lock()
			plans[platform] = plan
			mu.Unlock()
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return err
	}
	buildCtx.platformPlans = plans

	// Score over the merged object, iterating platforms in request order.
	merged := map[string]any{}
	scoreSum := 0.0
	for _, platform := range buildCtx.platforms {
		merged[platform] = plans[platform]
		report := quality.Score(plans[platform], platformPlanRequiredKeys, nil)
		scoreSum += report.Overall
	}
	report := quality.Report{Overall: scoreSum / float64(len(buildCtx.platforms))}
	report.Completeness = report.Overall
	p.finish(buildCtx, name, report, nil,
		fmt.Sprintf("Built strategies for %d platforms (quality %.2f)", len(buildCtx.platforms), report.Overall))
	return nil
}

var platformPlanRequiredKeys = []string{"positioning", "formats", "posting_times", "engagement_tactics"}

func (p *CalendarBuildPipeline) generatePlatformPlan(buildCtx *buildContext, platform string) (map[string]any, error) {
	system := fmt.Sprintf("You are a %s channel strategist. Respond only with the requested JSON.", platform)
	user := fmt.Sprintf(
		"Business context:\n%s\nAudience profile for %s:\n%s\nContent pillars:\n%s\nBuild the %s channel strategy.",
		strategyContext(buildCtx),
		platform,
		stepOutputsContext(2000, pickPlatform(buildCtx.audience, platform)),
		stepOutputsContext(2000, buildCtx.pillars),
		platform,
	)
	return p.aiJSON(buildCtx, "platform_strategy_"+platform, system, user, "platform_plan", platformPlanSchema())
}

func platformPlanSchema() map[string]any {
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"positioning":        map[string]any{"type": "string"},
			"formats":            map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
			"posting_times":      map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
			"engagement_tactics": map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
			"hashtag_strategy":   map[string]any{"type": "string"},
		},
		"required": []string{"positioning", "formats", "posting_times", "engagement_tactics", "hashtag_strategy"},
	}
}

func pickPlatform(audience map[string]any, platform string) map[string]any {
	if audience == nil {
		return nil
	}
	if profile, ok := audience[platform].(map[string]any); ok {
		return profile
	}
	return nil
}
