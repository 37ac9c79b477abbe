package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	types "github.com/alwrity/alwrity-backend/internal/domain"
	"github.com/alwrity/alwrity-backend/internal/pkg/ctxutil"
	"github.com/alwrity/alwrity-backend/internal/platform/logger"
)

func testAuthService(t *testing.T) AuthService {
	t.Helper()
	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("init logger: %v", err)
	}
	return NewAuthService(nil, log, nil, nil, "unit-test-secret", time.Hour, 24*time.Hour)
}

func TestNormalizeEmail(t *testing.T) {
	cases := map[string]string{
		"  User@Example.COM ": "user@example.com",
		"plain@example.com":   "plain@example.com",
	}
	for in, want := range cases {
		if got := normalizeEmail(in); got != want {
			t.Fatalf("normalizeEmail(%q): want=%q got=%q", in, want, got)
		}
	}
}

func TestSetContextFromTokenRoundTrip(t *testing.T) {
	as := testAuthService(t).(*authService)
	userID := uuid.New()
	token, err := as.generateAccessToken(&types.User{ID: userID})
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}

	ctx, err := as.SetContextFromToken(context.Background(), token)
	if err != nil {
		t.Fatalf("set context: %v", err)
	}
	rd := ctxutil.GetRequestData(ctx)
	if rd == nil || rd.UserID != userID {
		t.Fatalf("request data not set: %+v", rd)
	}
}

func TestSetContextFromTokenRejectsGarbage(t *testing.T) {
	as := testAuthService(t)

	if _, err := as.SetContextFromToken(context.Background(), "not.a.jwt"); err == nil {
		t.Fatalf("garbage token accepted")
	}
}

func TestSetContextFromTokenEmptyIsNoop(t *testing.T) {
	as := testAuthService(t)

	ctx, err := as.SetContextFromToken(context.Background(), "")
	if err != nil {
		t.Fatalf("empty token errored: %v", err)
	}
	if ctxutil.GetRequestData(ctx) != nil {
		t.Fatalf("request data set for empty token")
	}
}

func TestAccessTTL(t *testing.T) {
	as := testAuthService(t)
	if as.AccessTTL() != time.Hour {
		t.Fatalf("access ttl: got=%v", as.AccessTTL())
	}
}
