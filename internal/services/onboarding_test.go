package services

import (
	"testing"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	types "github.com/alwrity/alwrity-backend/internal/domain"
)

func TestSeedStrategyFromSession(t *testing.T) {
	userID := uuid.New()
	session := &types.OnboardingSession{
		UserID:      userID,
		Industry:    "Fintech",
		Description: "Grow inbound leads for a payments product",
		Competitors: datatypes.JSON([]byte(`["stripe.com","adyen.com"]`)),
		Persona:     datatypes.JSON([]byte(`{"tone":"confident"}`)),
	}

	strategy := seedStrategyFromSession(session)

	if strategy.UserID != userID {
		t.Fatalf("user id not carried over")
	}
	if strategy.Name != "Fintech Content Strategy" {
		t.Fatalf("name: got=%q", strategy.Name)
	}
	if strategy.Industry != "Fintech" {
		t.Fatalf("industry: got=%q", strategy.Industry)
	}
	if strategy.Status != types.StrategyStatusDraft {
		t.Fatalf("status: want=draft got=%q", strategy.Status)
	}
	if len(strategy.TopCompetitors) == 0 || len(strategy.AudienceDemographics) == 0 {
		t.Fatalf("competitors/persona not seeded")
	}
	if strategy.BusinessObjectives != session.Description {
		t.Fatalf("business objectives: got=%q", strategy.BusinessObjectives)
	}
}

func TestSeedStrategyFromEmptySession(t *testing.T) {
	session := &types.OnboardingSession{UserID: uuid.New()}

	strategy := seedStrategyFromSession(session)

	if strategy.Name != "Initial Content Strategy" {
		t.Fatalf("fallback name: got=%q", strategy.Name)
	}
	if len(strategy.TopCompetitors) != 0 || len(strategy.AudienceDemographics) != 0 {
		t.Fatalf("empty session seeded JSON fields")
	}
}
