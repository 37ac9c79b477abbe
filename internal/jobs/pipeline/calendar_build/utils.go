package calendar_build

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"gorm.io/datatypes"

	"github.com/alwrity/alwrity-backend/internal/clients/openai"
	types "github.com/alwrity/alwrity-backend/internal/domain"
	"github.com/alwrity/alwrity-backend/internal/pkg/dbctx"
)

// aiJSON wraps a structured model call with latency tracking and an
// ai_call_log row keyed to this job run.
func (p *CalendarBuildPipeline) aiJSON(buildCtx *buildContext, purpose, system, user, schemaName string, schema map[string]any) (map[string]any, error) {
	started := time.Now()
	result, err := p.ai.GenerateJSON(buildCtx.ctx, system, user, schemaName, schema)
	p.logCall(buildCtx, purpose, started, 0, 0, err)
	return result, err
}

// aiGrounded wraps a web-search-grounded call; citations end up on the build
// context for the event ledger and the final calendar.
func (p *CalendarBuildPipeline) aiGrounded(buildCtx *buildContext, purpose, system, user string) (openai.GroundedText, error) {
	started := time.Now()
	grounded, err := p.ai.GenerateGrounded(buildCtx.ctx, system, user)
	p.logCall(buildCtx, purpose, started, grounded.InputTokens, grounded.OutputTokens, err)
	if err == nil {
		buildCtx.citations = mergeCitations(buildCtx.citations, grounded.Citations)
	}
	return grounded, err
}

func (p *CalendarBuildPipeline) logCall(buildCtx *buildContext, purpose string, started time.Time, inputTokens, outputTokens int, callErr error) {
	jobID := buildCtx.jobCtx.Job.ID
	entry := &types.AICallLog{
		OwnerUserID:  buildCtx.userID,
		JobID:        &jobID,
		Provider:     "openai",
		Model:        p.ai.Model(),
		Purpose:      purpose,
		LatencyMS:    time.Since(started).Milliseconds(),
		InputTokens:  inputTokens,
		OutputTokens: outputTokens,
	}
	if callErr != nil {
		entry.Error = callErr.Error()
	}
	if _, err := p.aiLogRepo.Create(dbctx.Context{Ctx: buildCtx.ctx}, []*types.AICallLog{entry}); err != nil {
		p.log.Warn("ai call log write failed", "purpose", purpose, "error", err)
	}
}

func mergeCitations(existing, incoming []openai.Citation) []openai.Citation {
	seen := map[string]bool{}
	for _, c := range existing {
		seen[c.URL] = true
	}
	for _, c := range incoming {
		if c.URL != "" && !seen[c.URL] {
			seen[c.URL] = true
			existing = append(existing, c)
		}
	}
	return existing
}

func citationURLs(citations []openai.Citation) []string {
	urls := make([]string, 0, len(citations))
	for _, c := range citations {
		if c.URL != "" {
			urls = append(urls, c.URL)
		}
	}
	return urls
}

// strategyContext renders the strategy and onboarding inputs as prompt text.
// Only filled fields appear.
func strategyContext(buildCtx *buildContext) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Platforms: %s\n", strings.Join(buildCtx.platforms, ", "))
	fmt.Fprintf(&sb, "Calendar length: %d weeks, %d posts per week per platform\n", buildCtx.weeks, buildCtx.frequency)

	writeLine := func(label, value string) {
		if strings.TrimSpace(value) != "" {
			fmt.Fprintf(&sb, "%s: %s\n", label, value)
		}
	}
	writeJSON := func(label string, value datatypes.JSON) {
		s := string(value)
		if len(value) > 0 && s != "null" && s != "{}" && s != "[]" {
			fmt.Fprintf(&sb, "%s: %s\n", label, s)
		}
	}
	if strategy := buildCtx.strategy; strategy != nil {
		writeLine("Industry", strategy.Industry)
		writeLine("Business objectives", strategy.BusinessObjectives)
		writeJSON("Target metrics", strategy.TargetMetrics)
		writeLine("Competitive position", strategy.CompetitivePosition)
		writeJSON("Audience demographics", strategy.AudienceDemographics)
		writeJSON("Audience pain points", strategy.AudiencePainPoints)
		writeJSON("Top competitors", strategy.TopCompetitors)
		writeJSON("Market gaps", strategy.MarketGaps)
		writeJSON("Preferred formats", strategy.PreferredFormats)
		writeJSON("Content mix", strategy.ContentMix)
		writeLine("Brand voice", strategy.BrandVoice)
		writeLine("Editorial guidelines", strategy.EditorialGuidelines)
		writeJSON("AI recommendations", strategy.AIRecommendations)
	}
	if session := buildCtx.onboarding; session != nil {
		writeLine("Website", session.WebsiteURL)
		if buildCtx.strategy == nil || buildCtx.strategy.Industry == "" {
			writeLine("Industry", session.Industry)
		}
		writeLine("Business description", session.Description)
		writeJSON("Competitors", session.Competitors)
		writeJSON("Writing persona", session.Persona)
	}
	return sb.String()
}

// stepOutputsContext summarizes earlier step outputs for a later prompt,
// truncated so prompts stay bounded.
func stepOutputsContext(limit int, sections ...map[string]any) string {
	var sb strings.Builder
	for _, section := range sections {
		if len(section) == 0 {
			continue
		}
		raw, err := json.Marshal(section)
		if err != nil {
			continue
		}
		sb.Write(raw)
		sb.WriteByte('\n')
		if limit > 0 && sb.Len() > limit {
			break
		}
	}
	out := sb.String()
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func industryOf(buildCtx *buildContext) string {
	if buildCtx.strategy != nil && buildCtx.strategy.Industry != "" {
		return buildCtx.strategy.Industry
	}
	if buildCtx.onboarding != nil {
		return buildCtx.onboarding.Industry
	}
	return ""
}

func stringList(value any) []string {
	items, ok := value.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, sOk := item.(string); sOk && s != "" {
			out = append(out, s)
		}
	}
	return out
}

func mustJSON(value any) []byte {
	raw, err := json.Marshal(value)
	if err != nil {
		return []byte("{}")
	}
	return raw
}
