package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// AICallLog records one model invocation for cost and quality auditing.
type AICallLog struct {
	ID          uuid.UUID  `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	OwnerUserID uuid.UUID  `gorm:"type:uuid;not null;index" json:"owner_user_id"`
	JobID       *uuid.UUID `gorm:"type:uuid;column:job_id;index" json:"job_id,omitempty"`

	Provider     string  `gorm:"column:provider;not null;index" json:"provider"`
	Model        string  `gorm:"column:model" json:"model"`
	Purpose      string  `gorm:"column:purpose;index" json:"purpose"`
	LatencyMS    int64   `gorm:"column:latency_ms" json:"latency_ms"`
	InputTokens  int     `gorm:"column:input_tokens" json:"input_tokens"`
	OutputTokens int     `gorm:"column:output_tokens" json:"output_tokens"`
	Quality      float64 `gorm:"column:quality" json:"quality"`
	Error        string  `gorm:"column:error" json:"error,omitempty"`

	Metadata datatypes.JSON `gorm:"column:metadata;type:jsonb" json:"metadata,omitempty"`

	CreatedAt time.Time      `gorm:"not null;default:now();index" json:"created_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (AICallLog) TableName() string { return "ai_call_log" }
