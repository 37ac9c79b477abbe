package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/alwrity/alwrity-backend/internal/data/repos"
	types "github.com/alwrity/alwrity-backend/internal/domain"
	"github.com/alwrity/alwrity-backend/internal/pkg/dbctx"
	"github.com/alwrity/alwrity-backend/internal/platform/apierr"
	"github.com/alwrity/alwrity-backend/internal/platform/logger"
)

func TestValidateStartRequestNormalizesPlatforms(t *testing.T) {
	req := StartCalendarRequest{
		Platforms:        []string{" LinkedIn ", "facebook", "LINKEDIN"},
		DurationWeeks:    4,
		PostingFrequency: 3,
	}
	if err := validateStartRequest(&req); err != nil {
		t.Fatalf("validate: %v", err)
	}
	if len(req.Platforms) != 2 || req.Platforms[0] != "linkedin" || req.Platforms[1] != "facebook" {
		t.Fatalf("platforms not normalized: %v", req.Platforms)
	}
	if req.Timezone != "UTC" {
		t.Fatalf("timezone default: want=UTC got=%q", req.Timezone)
	}
	if req.Title != "4-Week Content Calendar" {
		t.Fatalf("default title: got=%q", req.Title)
	}
}

func TestValidateStartRequestRejectsBadInput(t *testing.T) {
	cases := []struct {
		name string
		req  StartCalendarRequest
		code string
	}{
		{
			name: "no platforms",
			req:  StartCalendarRequest{DurationWeeks: 4, PostingFrequency: 3},
			code: "missing_platforms",
		},
		{
			name: "unknown platform",
			req: StartCalendarRequest{
				Platforms:        []string{"myspace"},
				DurationWeeks:    4,
				PostingFrequency: 3,
			},
			code: "unsupported_platform",
		},
		{
			name: "zero weeks",
			req: StartCalendarRequest{
				Platforms:        []string{"linkedin"},
				DurationWeeks:    0,
				PostingFrequency: 3,
			},
			code: "invalid_duration",
		},
		{
			name: "too many weeks",
			req: StartCalendarRequest{
				Platforms:        []string{"linkedin"},
				DurationWeeks:    53,
				PostingFrequency: 3,
			},
			code: "invalid_duration",
		},
		{
			name: "frequency above daily",
			req: StartCalendarRequest{
				Platforms:        []string{"linkedin"},
				DurationWeeks:    4,
				PostingFrequency: 8,
			},
			code: "invalid_frequency",
		},
		{
			name: "bad timezone",
			req: StartCalendarRequest{
				Platforms:        []string{"linkedin"},
				DurationWeeks:    4,
				PostingFrequency: 3,
				Timezone:         "Mars/Olympus",
			},
			code: "invalid_timezone",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := validateStartRequest(&tc.req)
			if err == nil {
				t.Fatalf("expected error")
			}
			if got := apierr.CodeOf(err); got != tc.code {
				t.Fatalf("code: want=%q got=%q", tc.code, got)
			}
			if got := apierr.StatusOf(err); got != 400 {
				t.Fatalf("status: want=400 got=%d", got)
			}
		})
	}
}

func TestValidateStartRequestKeepsExplicitValues(t *testing.T) {
	start := time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC)
	req := StartCalendarRequest{
		Title:            "Q4 Push",
		Platforms:        []string{"blog"},
		DurationWeeks:    12,
		PostingFrequency: 5,
		Timezone:         "America/New_York",
		StartDate:        &start,
	}
	if err := validateStartRequest(&req); err != nil {
		t.Fatalf("validate: %v", err)
	}
	if req.Title != "Q4 Push" {
		t.Fatalf("title overwritten: %q", req.Title)
	}
	if req.Timezone != "America/New_York" {
		t.Fatalf("timezone overwritten: %q", req.Timezone)
	}
}

type fakeCalendarRepo struct {
	repos.ContentCalendarRepo
	calendars []*types.ContentCalendar
}

func (f *fakeCalendarRepo) GetByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.ContentCalendar, error) {
	return f.calendars, nil
}

func TestCalendarIDsForStrategyScopesToStrategy(t *testing.T) {
	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("init logger: %v", err)
	}
	strategyID := uuid.New()
	otherStrategyID := uuid.New()
	sameStrategy := &types.ContentCalendar{ID: uuid.New(), StrategyID: &strategyID}
	otherStrategy := &types.ContentCalendar{ID: uuid.New(), StrategyID: &otherStrategyID}
	noStrategy := &types.ContentCalendar{ID: uuid.New()}
	repo := &fakeCalendarRepo{calendars: []*types.ContentCalendar{sameStrategy, otherStrategy, noStrategy}}

	service := NewCalendarService(nil, log, repo, nil, nil).(*calendarService)
	dbc := dbctx.Context{Ctx: context.Background()}
	userID := uuid.New()

	ids, err := service.calendarIDsForStrategy(dbc, userID, &strategyID)
	if err != nil {
		t.Fatalf("scope by strategy: %v", err)
	}
	if len(ids) != 1 || ids[0] != sameStrategy.ID {
		t.Fatalf("strategy scope: want=[%s] got=%v", sameStrategy.ID, ids)
	}

	ids, err = service.calendarIDsForStrategy(dbc, userID, nil)
	if err != nil {
		t.Fatalf("scope without strategy: %v", err)
	}
	if len(ids) != 1 || ids[0] != noStrategy.ID {
		t.Fatalf("nil-strategy scope: want=[%s] got=%v", noStrategy.ID, ids)
	}
}
