package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Onboarding step indexes. A session's current_step only moves forward.
const (
	OnboardingStepAPIKeys      = 1
	OnboardingStepWebsite      = 2
	OnboardingStepResearch     = 3
	OnboardingStepPersona      = 4
	OnboardingStepIntegrations = 5
	OnboardingStepFinish       = 6
)

const (
	OnboardingStatusInProgress = "in_progress"
	OnboardingStatusCompleted  = "completed"
)

// OnboardingSession is the single per-user record that accumulates everything
// collected during setup: site analysis, competitor research, and the writing
// persona. Completing it seeds the user's first content strategy.
type OnboardingSession struct {
	ID          uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	UserID      uuid.UUID `gorm:"type:uuid;not null;uniqueIndex" json:"user_id"`
	CurrentStep int       `gorm:"column:current_step;not null;default:1" json:"current_step"`
	Status      string    `gorm:"column:status;not null;index" json:"status"`

	WebsiteURL  string         `gorm:"column:website_url" json:"website_url"`
	Industry    string         `gorm:"column:industry" json:"industry"`
	Description string         `gorm:"column:description;type:text" json:"description"`
	Competitors datatypes.JSON `gorm:"column:competitors;type:jsonb" json:"competitors"`
	Persona     datatypes.JSON `gorm:"column:persona;type:jsonb" json:"persona"`
	// StepData keys are step indexes as strings; values are the raw form
	// payloads the client saved for that step.
	StepData datatypes.JSON `gorm:"column:step_data;type:jsonb" json:"step_data"`

	CompletedAt *time.Time     `gorm:"column:completed_at" json:"completed_at,omitempty"`
	CreatedAt   time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (OnboardingSession) TableName() string { return "onboarding_session" }
