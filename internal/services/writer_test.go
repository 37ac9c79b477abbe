package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/google/uuid"

	"github.com/alwrity/alwrity-backend/internal/clients/openai"
	types "github.com/alwrity/alwrity-backend/internal/domain"
	"github.com/alwrity/alwrity-backend/internal/pkg/ctxutil"
	"github.com/alwrity/alwrity-backend/internal/pkg/dbctx"
	"github.com/alwrity/alwrity-backend/internal/platform/apierr"
	"github.com/alwrity/alwrity-backend/internal/platform/logger"
)

type fakeAIClient struct {
	mu        sync.Mutex
	jsonCalls int

	jsonErr     error
	groundedErr error
	grounded    openai.GroundedText
}

func (f *fakeAIClient) GenerateJSON(ctx context.Context, system, user, schemaName string, schema map[string]any) (map[string]any, error) {
	f.mu.Lock()
	f.jsonCalls++
	call := f.jsonCalls
	f.mu.Unlock()
	if f.jsonErr != nil {
		return nil, f.jsonErr
	}
	return map[string]any{
		"text":     fmt.Sprintf("generated post %d", call),
		"hashtags": []any{"#content", ""},
	}, nil
}

func (f *fakeAIClient) GenerateText(ctx context.Context, system, user string) (string, error) {
	return "text", nil
}

func (f *fakeAIClient) GenerateGrounded(ctx context.Context, system, user string) (openai.GroundedText, error) {
	if f.groundedErr != nil {
		return openai.GroundedText{}, f.groundedErr
	}
	return f.grounded, nil
}

func (f *fakeAIClient) Model() string { return "test-model" }

type fakeAICallLogRepo struct {
	mu   sync.Mutex
	logs []*types.AICallLog
}

func (f *fakeAICallLogRepo) Create(dbc dbctx.Context, logs []*types.AICallLog) ([]*types.AICallLog, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.logs = append(f.logs, logs...)
	return logs, nil
}

func (f *fakeAICallLogRepo) ListByJobID(dbc dbctx.Context, jobID uuid.UUID) ([]*types.AICallLog, error) {
	return nil, nil
}

func writerFixture(t *testing.T, ai *fakeAIClient) (WriterService, *fakeAICallLogRepo, dbctx.Context) {
	t.Helper()
	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("init logger: %v", err)
	}
	aiLogRepo := &fakeAICallLogRepo{}
	service := NewWriterService(nil, log, aiLogRepo, ai)
	ctx := ctxutil.WithRequestData(context.Background(), &ctxutil.RequestData{UserID: uuid.New()})
	return service, aiLogRepo, dbctx.Context{Ctx: ctx}
}

func TestWriterRequiresAuthenticatedUser(t *testing.T) {
	service, _, _ := writerFixture(t, &fakeAIClient{})

	_, err := service.GenerateLinkedInPost(dbctx.Context{Ctx: context.Background()}, WriterRequest{Topic: "x"})
	if err == nil || apierr.StatusOf(err) != 401 {
		t.Fatalf("want 401, got %v", err)
	}
}

func TestWriterRequiresTopic(t *testing.T) {
	service, _, dbc := writerFixture(t, &fakeAIClient{})

	_, err := service.GenerateLinkedInPost(dbc, WriterRequest{Topic: "   "})
	if err == nil || apierr.CodeOf(err) != "missing_topic" {
		t.Fatalf("want missing_topic, got %v", err)
	}
}

func TestWriterClampsVariantCount(t *testing.T) {
	ai := &fakeAIClient{}
	service, aiLogRepo, dbc := writerFixture(t, ai)

	result, err := service.GenerateLinkedInPost(dbc, WriterRequest{Topic: "launch", Variants: 10})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if len(result.Variants) != 3 {
		t.Fatalf("variants: want=3 got=%d", len(result.Variants))
	}
	for _, variant := range result.Variants {
		if variant.Text == "" {
			t.Fatalf("empty variant text")
		}
		for _, tag := range variant.Hashtags {
			if tag == "" {
				t.Fatalf("empty hashtag kept")
			}
		}
	}
	if len(aiLogRepo.logs) != 3 {
		t.Fatalf("ai call logs: want=3 got=%d", len(aiLogRepo.logs))
	}
}

func TestWriterScoresVariantsAndLogs(t *testing.T) {
	ai := &fakeAIClient{}
	service, aiLogRepo, dbc := writerFixture(t, ai)

	result, err := service.GenerateLinkedInPost(dbc, WriterRequest{Topic: "content"})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	variant := result.Variants[0]
	if variant.Quality <= 0 || variant.Quality > 1 {
		t.Fatalf("variant quality out of range: %v", variant.Quality)
	}
	if len(aiLogRepo.logs) != 1 {
		t.Fatalf("ai call logs: want=1 got=%d", len(aiLogRepo.logs))
	}
	if aiLogRepo.logs[0].Quality != variant.Quality {
		t.Fatalf("log quality: want=%v got=%v", variant.Quality, aiLogRepo.logs[0].Quality)
	}
}

func TestWriterResearchFailureDegrades(t *testing.T) {
	ai := &fakeAIClient{groundedErr: errors.New("search unavailable")}
	service, _, dbc := writerFixture(t, ai)

	result, err := service.GenerateFacebookPost(dbc, WriterRequest{Topic: "launch", UseResearch: true})
	if err != nil {
		t.Fatalf("research failure should not fail the request: %v", err)
	}
	if len(result.Variants) != 1 {
		t.Fatalf("variants: want=1 got=%d", len(result.Variants))
	}
	if len(result.Variants[0].Citations) != 0 {
		t.Fatalf("citations present despite failed research")
	}
}

func TestWriterCarriesResearchCitations(t *testing.T) {
	ai := &fakeAIClient{grounded: openai.GroundedText{
		Text:      "industry facts",
		Citations: []openai.Citation{{Title: "Report", URL: "https://example.com/report"}},
	}}
	service, _, dbc := writerFixture(t, ai)

	result, err := service.GenerateLinkedInPost(dbc, WriterRequest{Topic: "launch", UseResearch: true})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if len(result.Variants[0].Citations) != 1 {
		t.Fatalf("citations not carried: %v", result.Variants[0].Citations)
	}
}

func TestWriterModelFailureIsInternal(t *testing.T) {
	ai := &fakeAIClient{jsonErr: errors.New("rate limited")}
	service, _, dbc := writerFixture(t, ai)

	_, err := service.GenerateLinkedInPost(dbc, WriterRequest{Topic: "launch"})
	if err == nil || apierr.StatusOf(err) != 500 {
		t.Fatalf("want 500, got %v", err)
	}
}
