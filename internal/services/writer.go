package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
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

// WriterRequest is the shared input for social post generation.
type WriterRequest struct {
	Topic       string   `json:"topic"`
	Tone        string   `json:"tone,omitempty"`
	Audience    string   `json:"audience,omitempty"`
	KeyPoints   []string `json:"key_points,omitempty"`
	IncludeCTA  bool     `json:"include_cta"`
	MaxLength   int      `json:"max_length,omitempty"`
	Variants    int      `json:"variants,omitempty"`
	UseResearch bool     `json:"use_research"`
}

// WriterVariant is one generated post with its research citations and
// heuristic quality score.
type WriterVariant struct {
	Text      string            `json:"text"`
	Hashtags  []string          `json:"hashtags,omitempty"`
	Citations []openai.Citation `json:"citations,omitempty"`
	Quality   float64           `json:"quality"`
}

// WriterResult is the response for a writer call.
type WriterResult struct {
	Platform string          `json:"platform"`
	Variants []WriterVariant `json:"variants"`
}

type WriterService interface {
	GenerateLinkedInPost(dbc dbctx.Context, req WriterRequest) (*WriterResult, error)
	GenerateFacebookPost(dbc dbctx.Context, req WriterRequest) (*WriterResult, error)
}

type writerService struct {
	db        *gorm.DB
	log       *logger.Logger
	aiLogRepo repos.AICallLogRepo
	ai        openai.Client
}

func NewWriterService(db *gorm.DB, baseLog *logger.Logger, aiLogRepo repos.AICallLogRepo, ai openai.Client) WriterService {
	return &writerService{
		db:        db,
		log:       baseLog.With("service", "WriterService"),
		aiLogRepo: aiLogRepo,
		ai:        ai,
	}
}

const maxWriterVariants = 3

func (ws *writerService) GenerateLinkedInPost(dbc dbctx.Context, req WriterRequest) (*WriterResult, error) {
	system := "You are a LinkedIn content writer. Write professional, first-person posts with a strong hook in the first line, short paragraphs, and no more than five hashtags. Never invent statistics; when research context is provided, use only facts from it."
	return ws.generate(dbc, "linkedin", system, 3000, req)
}

func (ws *writerService) GenerateFacebookPost(dbc dbctx.Context, req WriterRequest) (*WriterResult, error) {
	system := "You are a Facebook content writer. Write conversational, warm posts that invite comments, with at most three hashtags. Never invent statistics; when research context is provided, use only facts from it."
	return ws.generate(dbc, "facebook", system, 2000, req)
}

func (ws *writerService) generate(dbc dbctx.Context, platform, system string, platformMax int, req WriterRequest) (*WriterResult, error) {
	rd := ctxutil.GetRequestData(dbc.Ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return nil, apierr.New(401, "unauthorized", fmt.Errorf("no request user"))
	}
	req.Topic = strings.TrimSpace(req.Topic)
	if req.Topic == "" {
		return nil, apierr.BadRequest("missing_topic", fmt.Errorf("topic required"))
	}
	if req.Variants < 1 {
		req.Variants = 1
	}
	if req.Variants > maxWriterVariants {
		req.Variants = maxWriterVariants
	}
	if req.MaxLength <= 0 || req.MaxLength > platformMax {
		req.MaxLength = platformMax
	}

	// Research once, then fan the variant generation out.
	var research openai.GroundedText
	if req.UseResearch {
		grounded, gErr := ws.researchTopic(dbc, rd.UserID, platform, req.Topic)
		if gErr != nil {
			// Research failing should degrade to an ungrounded post, not kill
			// the request.
			ws.log.Warn("topic research failed", "platform", platform, "error", gErr)
		} else {
			research = grounded
		}
	}

	variants := make([]WriterVariant, req.Variants)
	group, groupCtx := errgroup.WithContext(dbc.Ctx)
	for i := 0; i < req.Variants; i++ {
		index := i
		group.Go(func() error {
			variant, vErr := ws.generateVariant(groupCtx, dbc, rd.UserID, platform, system, req, research, index)
			if vErr != nil {
				return vErr
			}
			variants[index] = variant
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, apierr.Internal("generate_post", err)
	}
	return &WriterResult{Platform: platform, Variants: variants}, nil
}

func (ws *writerService) researchTopic(dbc dbctx.Context, userID uuid.UUID, platform, topic string) (openai.GroundedText, error) {
	system := "You are a research assistant. Summarize current, factual information on the topic with sources."
	user := fmt.Sprintf("Find recent facts, statistics, and developments about: %s. Keep the summary under 300 words.", topic)

	started := time.Now()
	grounded, err := ws.ai.GenerateGrounded(dbc.Ctx, system, user)
	ws.logCall(dbc, userID, platform+"_research", started, grounded.InputTokens, grounded.OutputTokens, 0, err)
	return grounded, err
}

func postSchema() map[string]any {
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"text": map[string]any{"type": "string"},
			"hashtags": map[string]any{
				"type":  "array",
				"items": map[string]any{"type": "string"},
			},
		},
		"required": []string{"text", "hashtags"},
	}
}

func (ws *writerService) generateVariant(ctx context.Context, dbc dbctx.Context, userID uuid.UUID, platform, system string, req WriterRequest, research openai.GroundedText, index int) (WriterVariant, error) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Write a %s post about: %s\n", platform, req.Topic)
	if req.Tone != "" {
		fmt.Fprintf(&sb, "Tone: %s\n", req.Tone)
	}
	if req.Audience != "" {
		fmt.Fprintf(&sb, "Audience: %s\n", req.Audience)
	}
	if len(req.KeyPoints) > 0 {
		fmt.Fprintf(&sb, "Key points to cover:\n")
		for _, point := range req.KeyPoints {
			fmt.Fprintf(&sb, "- %s\n", point)
		}
	}
	if req.IncludeCTA {
		sb.WriteString("End with a clear call to action.\n")
	}
	fmt.Fprintf(&sb, "Maximum length: %d characters.\n", req.MaxLength)
	if index > 0 {
		fmt.Fprintf(&sb, "This is variant %d; take a distinctly different angle from a typical first draft.\n", index+1)
	}
	if research.Text != "" {
		fmt.Fprintf(&sb, "\nResearch context:\n%s\n", research.Text)
	}

	started := time.Now()
	result, err := ws.ai.GenerateJSON(ctx, system, sb.String(), platform+"_post", postSchema())
	if err != nil {
		ws.logCall(dbc, userID, platform+"_post", started, 0, 0, 0, err)
		return WriterVariant{}, err
	}

	report := quality.Score(result, []string{"text", "hashtags"}, writerKeywords(req))
	ws.logCall(dbc, userID, platform+"_post", started, 0, 0, report.Overall, nil)

	variant := WriterVariant{Citations: research.Citations, Quality: report.Overall}
	if text, ok := result["text"].(string); ok {
		variant.Text = text
	}
	if rawTags, ok := result["hashtags"].([]any); ok {
		for _, tag := range rawTags {
			if s, tOk := tag.(string); tOk && s != "" {
				variant.Hashtags = append(variant.Hashtags, s)
			}
		}
	}
	if variant.Text == "" {
		return WriterVariant{}, fmt.Errorf("model returned empty post text")
	}
	return variant, nil
}

// writerKeywords drives the keyword-coverage component of the variant score:
// a post should at least mention the topic and any requested key points.
func writerKeywords(req WriterRequest) []string {
	keywords := []string{req.Topic}
	return append(keywords, req.KeyPoints...)
}

func (ws *writerService) logCall(dbc dbctx.Context, userID uuid.UUID, purpose string, started time.Time, inputTokens, outputTokens int, score float64, callErr error) {
	entry := &types.AICallLog{
		OwnerUserID:  userID,
		Provider:     "openai",
		Model:        ws.ai.Model(),
		Purpose:      purpose,
		LatencyMS:    time.Since(started).Milliseconds(),
		InputTokens:  inputTokens,
		OutputTokens: outputTokens,
		Quality:      score,
	}
	if callErr != nil {
		entry.Error = callErr.Error()
	}
	// Writer calls run concurrently; log writes go through the base DB handle,
	// never a shared transaction.
	logDbc := dbctx.Context{Ctx: context.WithoutCancel(dbc.Ctx)}
	if _, err := ws.aiLogRepo.Create(logDbc, []*types.AICallLog{entry}); err != nil {
		ws.log.Warn("ai call log write failed", "purpose", purpose, "error", err)
	}
}
