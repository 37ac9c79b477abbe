package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	CalendarStatusGenerating = "generating"
	CalendarStatusReady      = "ready"
	CalendarStatusFailed     = "failed"
)

// ContentCalendar is the finished artifact of a calendar generation run:
// pillars, weekly themes, and the per-day schedule across platforms.
type ContentCalendar struct {
	ID         uuid.UUID  `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	UserID     uuid.UUID  `gorm:"type:uuid;not null;index" json:"user_id"`
	StrategyID *uuid.UUID `gorm:"type:uuid;column:strategy_id;index" json:"strategy_id,omitempty"`

	Title  string `gorm:"column:title;not null" json:"title"`
	Status string `gorm:"column:status;not null;index" json:"status"`

	Platforms        datatypes.JSON `gorm:"column:platforms;type:jsonb" json:"platforms"`
	DurationWeeks    int            `gorm:"column:duration_weeks;not null" json:"duration_weeks"`
	PostingFrequency int            `gorm:"column:posting_frequency;not null" json:"posting_frequency"`
	Timezone         string         `gorm:"column:timezone" json:"timezone"`
	StartDate        *time.Time     `gorm:"column:start_date" json:"start_date,omitempty"`

	Pillars          datatypes.JSON `gorm:"column:pillars;type:jsonb" json:"pillars"`
	WeeklyThemes     datatypes.JSON `gorm:"column:weekly_themes;type:jsonb" json:"weekly_themes"`
	PlatformStrategy datatypes.JSON `gorm:"column:platform_strategy;type:jsonb" json:"platform_strategy"`
	Schedule         datatypes.JSON `gorm:"column:schedule;type:jsonb" json:"schedule"`
	Recommendations  datatypes.JSON `gorm:"column:recommendations;type:jsonb" json:"recommendations"`

	// QualityScores maps step name -> 0..1 heuristic score; OverallQuality is
	// the step-weighted aggregate computed at assembly.
	QualityScores  datatypes.JSON `gorm:"column:quality_scores;type:jsonb" json:"quality_scores"`
	OverallQuality float64        `gorm:"column:overall_quality" json:"overall_quality"`

	CreatedAt time.Time      `gorm:"not null;default:now();index" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (ContentCalendar) TableName() string { return "content_calendar" }
