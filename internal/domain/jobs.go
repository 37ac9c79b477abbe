package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Job types handled by the background worker.
const (
	JobTypeCalendarBuild = "calendar_build"
)

const (
	JobStatusQueued    = "queued"
	JobStatusRunning   = "running"
	JobStatusSucceeded = "succeeded"
	JobStatusFailed    = "failed"
	JobStatusCanceled  = "canceled"
)

// JobRun is the durable record of one background generation run. The calendar
// pipeline is the main producer; Progress/StepIndex only move forward and
// StepScores gains exactly one entry per completed step.
type JobRun struct {
	ID          uuid.UUID  `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	OwnerUserID uuid.UUID  `gorm:"type:uuid;not null;index" json:"owner_user_id"`
	JobType     string     `gorm:"column:job_type;not null;index" json:"job_type"`
	EntityType  string     `gorm:"column:entity_type;index" json:"entity_type,omitempty"`
	EntityID    *uuid.UUID `gorm:"type:uuid;column:entity_id;index" json:"entity_id,omitempty"`

	Status    string `gorm:"column:status;not null;index" json:"status"`
	Stage     string `gorm:"column:stage;not null;index" json:"stage"`
	StepIndex int    `gorm:"column:step_index;not null;default:0" json:"step_index"`
	Progress  int    `gorm:"column:progress;not null;default:0" json:"progress"`
	Message   string `gorm:"column:message;type:text" json:"message,omitempty"`
	Attempts  int    `gorm:"column:attempts;not null;default:0" json:"attempts"`
	Error     string `gorm:"column:error" json:"error,omitempty"`

	StepScores datatypes.JSON `gorm:"column:step_scores;type:jsonb" json:"step_scores"`

	LockedAt    *time.Time `gorm:"column:locked_at;index" json:"locked_at,omitempty"`
	HeartbeatAt *time.Time `gorm:"column:heartbeat_at;index" json:"heartbeat_at,omitempty"`
	LastErrorAt *time.Time `gorm:"column:last_error_at;index" json:"last_error_at,omitempty"`

	Payload datatypes.JSON `gorm:"column:payload;type:jsonb" json:"payload"`
	Result  datatypes.JSON `gorm:"column:result;type:jsonb" json:"result"`

	CreatedAt time.Time      `gorm:"not null;default:now();index" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;default:now();index" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (JobRun) TableName() string { return "job_run" }

type JobEventKind string

const (
	JobEventCreated   JobEventKind = "created"
	JobEventProgress  JobEventKind = "progress"
	JobEventFailed    JobEventKind = "failed"
	JobEventSucceeded JobEventKind = "succeeded"
)

// JobRunEvent is an append-only ledger of job status/progress messages.
// This is the canonical transparency timeline shown while a calendar builds:
// each row carries the step, the message, and the data sources consulted.
type JobRunEvent struct {
	ID          uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	JobID       uuid.UUID `gorm:"type:uuid;not null;index" json:"job_id"`
	OwnerUserID uuid.UUID `gorm:"type:uuid;not null;index" json:"owner_user_id"`
	JobType     string    `gorm:"column:job_type;not null;index" json:"job_type"`

	Kind      string         `gorm:"column:kind;not null;index" json:"kind"`
	Stage     string         `gorm:"column:stage;not null" json:"stage"`
	StepIndex int            `gorm:"column:step_index;not null" json:"step_index"`
	Progress  int            `gorm:"column:progress;not null" json:"progress"`
	Message   string         `gorm:"column:message;type:text" json:"message,omitempty"`
	Sources   datatypes.JSON `gorm:"column:sources;type:jsonb" json:"sources,omitempty"`
	Data      datatypes.JSON `gorm:"column:data;type:jsonb" json:"data,omitempty"`

	CreatedAt time.Time      `gorm:"not null;default:now();index" json:"created_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (JobRunEvent) TableName() string { return "job_run_event" }
