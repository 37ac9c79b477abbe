package services

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/alwrity/alwrity-backend/internal/clients/openai"
	"github.com/alwrity/alwrity-backend/internal/data/repos"
	types "github.com/alwrity/alwrity-backend/internal/domain"
	"github.com/alwrity/alwrity-backend/internal/pkg/ctxutil"
	"github.com/alwrity/alwrity-backend/internal/pkg/dbctx"
	"github.com/alwrity/alwrity-backend/internal/platform/apierr"
	"github.com/alwrity/alwrity-backend/internal/platform/logger"
	"github.com/alwrity/alwrity-backend/internal/quality"
)

type StrategyService interface {
	Create(dbc dbctx.Context, strategy *types.ContentStrategy) (*types.ContentStrategy, error)
	ListForRequestUser(dbc dbctx.Context) ([]*types.ContentStrategy, error)
	GetByIDForRequestUser(dbc dbctx.Context, strategyID uuid.UUID) (*types.ContentStrategy, error)
	Update(dbc dbctx.Context, strategyID uuid.UUID, fields map[string]any) (*types.ContentStrategy, error)
	Delete(dbc dbctx.Context, strategyID uuid.UUID) error
	// GenerateRecommendations fills ai_recommendations from the strategy's
	// current inputs and stores the heuristic confidence alongside.
	GenerateRecommendations(dbc dbctx.Context, strategyID uuid.UUID) (*types.ContentStrategy, error)
}

type strategyService struct {
	db        *gorm.DB
	log       *logger.Logger
	repo      repos.ContentStrategyRepo
	aiLogRepo repos.AICallLogRepo
	ai        openai.Client
}

func NewStrategyService(
	db *gorm.DB,
	baseLog *logger.Logger,
	repo repos.ContentStrategyRepo,
	aiLogRepo repos.AICallLogRepo,
	ai openai.Client,
) StrategyService {
	return &strategyService{
		db:        db,
		log:       baseLog.With("service", "StrategyService"),
		repo:      repo,
		aiLogRepo: aiLogRepo,
		ai:        ai,
	}
}

// Columns a PATCH may touch. Identity, ownership, and AI-written columns are
// deliberately absent.
var updatableStrategyColumns = map[string]bool{
	"name":                          true,
	"industry":                      true,
	"status":                        true,
	"business_objectives":           true,
	"target_metrics":                true,
	"content_budget":                true,
	"team_size":                     true,
	"implementation_timeline":       true,
	"market_share":                  true,
	"competitive_position":          true,
	"performance_metrics":           true,
	"content_preferences":           true,
	"consumption_patterns":          true,
	"audience_pain_points":          true,
	"audience_demographics":         true,
	"buying_journey":                true,
	"seasonal_trends":               true,
	"engagement_metrics":            true,
	"top_competitors":               true,
	"competitor_content_strategies": true,
	"market_gaps":                   true,
	"industry_trends":               true,
	"emerging_trends":               true,
	"preferred_formats":             true,
	"content_mix":                   true,
	"content_frequency":             true,
	"optimal_timing":                true,
	"quality_metrics":               true,
	"editorial_guidelines":          true,
	"brand_voice":                   true,
	"traffic_sources":               true,
	"conversion_rates":              true,
	"content_roi_targets":           true,
	"ab_testing_capabilities":       true,
}

var validStrategyStatuses = map[string]bool{
	types.StrategyStatusDraft:    true,
	types.StrategyStatusActive:   true,
	types.StrategyStatusArchived: true,
}

func (ss *strategyService) requestUser(dbc dbctx.Context) (uuid.UUID, error) {
	rd := ctxutil.GetRequestData(dbc.Ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return uuid.Nil, apierr.New(401, "unauthorized", fmt.Errorf("no request user"))
	}
	return rd.UserID, nil
}

func (ss *strategyService) Create(dbc dbctx.Context, strategy *types.ContentStrategy) (*types.ContentStrategy, error) {
	userID, err := ss.requestUser(dbc)
	if err != nil {
		return nil, err
	}
	strategy.Name = strings.TrimSpace(strategy.Name)
	if strategy.Name == "" {
		return nil, apierr.BadRequest("missing_name", fmt.Errorf("strategy name required"))
	}
	if strategy.Status == "" {
		strategy.Status = types.StrategyStatusDraft
	}
	if !validStrategyStatuses[strategy.Status] {
		return nil, apierr.BadRequest("invalid_status", fmt.Errorf("unknown status %q", strategy.Status))
	}
	strategy.ID = uuid.New()
	strategy.UserID = userID
	if _, err := ss.repo.Create(dbc.Ctx, dbc.Tx, []*types.ContentStrategy{strategy}); err != nil {
		return nil, apierr.Internal("create_strategy", err)
	}
	ss.log.Info("strategy created", "strategy_id", strategy.ID, "user_id", userID)
	return strategy, nil
}

func (ss *strategyService) ListForRequestUser(dbc dbctx.Context) ([]*types.ContentStrategy, error) {
	userID, err := ss.requestUser(dbc)
	if err != nil {
		return nil, err
	}
	strategies, err := ss.repo.GetByUserID(dbc.Ctx, dbc.Tx, userID)
	if err != nil {
		return nil, apierr.Internal("list_strategies", err)
	}
	return strategies, nil
}

func (ss *strategyService) GetByIDForRequestUser(dbc dbctx.Context, strategyID uuid.UUID) (*types.ContentStrategy, error) {
	userID, err := ss.requestUser(dbc)
	if err != nil {
		return nil, err
	}
	strategies, err := ss.repo.GetByIDs(dbc.Ctx, dbc.Tx, []uuid.UUID{strategyID})
	if err != nil {
		return nil, apierr.Internal("load_strategy", err)
	}
	if len(strategies) == 0 || strategies[0].UserID != userID {
		return nil, apierr.NotFound("strategy_not_found", fmt.Errorf("strategy %s not found", strategyID))
	}
	return strategies[0], nil
}

func (ss *strategyService) Update(dbc dbctx.Context, strategyID uuid.UUID, fields map[string]any) (*types.ContentStrategy, error) {
	if _, err := ss.GetByIDForRequestUser(dbc, strategyID); err != nil {
		return nil, err
	}
	updates := map[string]interface{}{}
	for column, value := range fields {
		if !updatableStrategyColumns[column] {
			return nil, apierr.BadRequest("invalid_field", fmt.Errorf("field %q is not updatable", column))
		}
		if column == "status" {
			status, _ := value.(string)
			if !validStrategyStatuses[status] {
				return nil, apierr.BadRequest("invalid_status", fmt.Errorf("unknown status %q", status))
			}
		}
		// JSON-typed values arrive as decoded maps/slices and need re-encoding
		// for the JSONB column.
		switch typed := value.(type) {
		case map[string]any, []any:
			raw, mErr := json.Marshal(typed)
			if mErr != nil {
				return nil, apierr.BadRequest("invalid_field_value", mErr)
			}
			updates[column] = datatypes.JSON(raw)
		default:
			updates[column] = value
		}
	}
	if len(updates) == 0 {
		return nil, apierr.BadRequest("empty_update", fmt.Errorf("no fields to update"))
	}
	if err := ss.repo.UpdateFields(dbc.Ctx, dbc.Tx, strategyID, updates); err != nil {
		return nil, apierr.Internal("update_strategy", err)
	}
	return ss.GetByIDForRequestUser(dbc, strategyID)
}

func (ss *strategyService) Delete(dbc dbctx.Context, strategyID uuid.UUID) error {
	if _, err := ss.GetByIDForRequestUser(dbc, strategyID); err != nil {
		return err
	}
	if err := ss.repo.SoftDeleteByIDs(dbc.Ctx, dbc.Tx, []uuid.UUID{strategyID}); err != nil {
		return apierr.Internal("delete_strategy", err)
	}
	ss.log.Info("strategy deleted", "strategy_id", strategyID)
	return nil
}

var recommendationRequiredKeys = []string{
	"content_pillars",
	"recommended_formats",
	"posting_cadence",
	"audience_insights",
	"seo_keywords",
	"rationale",
}

func recommendationSchema() map[string]any {
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"content_pillars": map[string]any{
				"type":  "array",
				"items": map[string]any{"type": "string"},
			},
			"recommended_formats": map[string]any{
				"type":  "array",
				"items": map[string]any{"type": "string"},
			},
			"posting_cadence": map[string]any{"type": "string"},
			"audience_insights": map[string]any{
				"type":  "array",
				"items": map[string]any{"type": "string"},
			},
			"seo_keywords": map[string]any{
				"type":  "array",
				"items": map[string]any{"type": "string"},
			},
			"rationale": map[string]any{"type": "string"},
		},
		"required": []string{
			"content_pillars", "recommended_formats", "posting_cadence",
			"audience_insights", "seo_keywords", "rationale",
		},
	}
}

func (ss *strategyService) GenerateRecommendations(dbc dbctx.Context, strategyID uuid.UUID) (*types.ContentStrategy, error) {
	strategy, err := ss.GetByIDForRequestUser(dbc, strategyID)
	if err != nil {
		return nil, err
	}

	system := "You are a senior content strategist. Produce actionable, specific recommendations grounded in the provided business context. Respond only with the requested JSON."
	user := buildRecommendationPrompt(strategy)

	started := time.Now()
	result, genErr := ss.ai.GenerateJSON(dbc.Ctx, system, user, "strategy_recommendations", recommendationSchema())
	latency := time.Since(started).Milliseconds()

	callLog := &types.AICallLog{
		OwnerUserID: strategy.UserID,
		Provider:    "openai",
		Model:       ss.ai.Model(),
		Purpose:     "strategy_recommendations",
		LatencyMS:   latency,
	}
	if genErr != nil {
		callLog.Error = genErr.Error()
		if _, lErr := ss.aiLogRepo.Create(dbc, []*types.AICallLog{callLog}); lErr != nil {
			ss.log.Warn("ai call log write failed", "error", lErr)
		}
		return nil, apierr.Internal("generate_recommendations", genErr)
	}

	keywords := []string{strategy.Industry}
	report := quality.Score(result, recommendationRequiredKeys, keywords)
	callLog.Quality = report.Overall
	if _, lErr := ss.aiLogRepo.Create(dbc, []*types.AICallLog{callLog}); lErr != nil {
		ss.log.Warn("ai call log write failed", "error", lErr)
	}

	raw, mErr := json.Marshal(result)
	if mErr != nil {
		return nil, apierr.Internal("encode_recommendations", mErr)
	}
	if uErr := ss.repo.UpdateFields(dbc.Ctx, dbc.Tx, strategyID, map[string]interface{}{
		"ai_recommendations": datatypes.JSON(raw),
		"ai_confidence":      report.Overall,
	}); uErr != nil {
		return nil, apierr.Internal("save_recommendations", uErr)
	}
	ss.log.Info("recommendations generated",
		"strategy_id", strategyID, "quality", report.Overall, "latency_ms", latency)
	return ss.GetByIDForRequestUser(dbc, strategyID)
}

// buildRecommendationPrompt summarizes the strategy's filled fields so the
// model sees context without the empty columns.
func buildRecommendationPrompt(strategy *types.ContentStrategy) string {
	var sb strings.Builder
	sb.WriteString("Business context:\n")
	writeLine := func(label, value string) {
		if strings.TrimSpace(value) != "" {
			fmt.Fprintf(&sb, "- %s: %s\n", label, value)
		}
	}
	writeJSONLine := func(label string, value datatypes.JSON) {
		if len(value) > 0 && string(value) != "null" && string(value) != "{}" && string(value) != "[]" {
			fmt.Fprintf(&sb, "- %s: %s\n", label, string(value))
		}
	}
	writeLine("Strategy name", strategy.Name)
	writeLine("Industry", strategy.Industry)
	writeLine("Business objectives", strategy.BusinessObjectives)
	writeJSONLine("Target metrics", strategy.TargetMetrics)
	if strategy.ContentBudget > 0 {
		fmt.Fprintf(&sb, "- Monthly content budget: %.0f\n", strategy.ContentBudget)
	}
	if strategy.TeamSize > 0 {
		fmt.Fprintf(&sb, "- Team size: %d\n", strategy.TeamSize)
	}
	writeLine("Implementation timeline", strategy.ImplementationTimeline)
	writeLine("Competitive position", strategy.CompetitivePosition)
	writeJSONLine("Audience demographics", strategy.AudienceDemographics)
	writeJSONLine("Audience pain points", strategy.AudiencePainPoints)
	writeJSONLine("Top competitors", strategy.TopCompetitors)
	writeJSONLine("Market gaps", strategy.MarketGaps)
	writeJSONLine("Industry trends", strategy.IndustryTrends)
	writeJSONLine("Preferred formats", strategy.PreferredFormats)
	writeLine("Content frequency", strategy.ContentFrequency)
	writeLine("Editorial guidelines", strategy.EditorialGuidelines)
	writeLine("Brand voice", strategy.BrandVoice)
	sb.WriteString("\nGenerate content strategy recommendations for this business.")
	return sb.String()
}
