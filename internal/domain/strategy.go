package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	StrategyStatusDraft    = "draft"
	StrategyStatusActive   = "active"
	StrategyStatusArchived = "archived"
)

// ContentStrategy is the user's content-marketing configuration record.
// The flat field set mirrors the strategy-builder form; structured inputs
// (lists, maps) live in JSONB columns.
type ContentStrategy struct {
	ID     uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	UserID uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`

	Name     string `gorm:"column:name;not null" json:"name"`
	Industry string `gorm:"column:industry" json:"industry"`
	Status   string `gorm:"column:status;not null;index" json:"status"`

	// Business context
	BusinessObjectives     string         `gorm:"column:business_objectives;type:text" json:"business_objectives"`
	TargetMetrics          datatypes.JSON `gorm:"column:target_metrics;type:jsonb" json:"target_metrics"`
	ContentBudget          float64        `gorm:"column:content_budget" json:"content_budget"`
	TeamSize               int            `gorm:"column:team_size" json:"team_size"`
	ImplementationTimeline string         `gorm:"column:implementation_timeline" json:"implementation_timeline"`
	MarketShare            string         `gorm:"column:market_share" json:"market_share"`
	CompetitivePosition    string         `gorm:"column:competitive_position" json:"competitive_position"`
	PerformanceMetrics     datatypes.JSON `gorm:"column:performance_metrics;type:jsonb" json:"performance_metrics"`

	// Audience intelligence
	ContentPreferences   datatypes.JSON `gorm:"column:content_preferences;type:jsonb" json:"content_preferences"`
	ConsumptionPatterns  datatypes.JSON `gorm:"column:consumption_patterns;type:jsonb" json:"consumption_patterns"`
	AudiencePainPoints   datatypes.JSON `gorm:"column:audience_pain_points;type:jsonb" json:"audience_pain_points"`
	AudienceDemographics datatypes.JSON `gorm:"column:audience_demographics;type:jsonb" json:"audience_demographics"`
	BuyingJourney        datatypes.JSON `gorm:"column:buying_journey;type:jsonb" json:"buying_journey"`
	SeasonalTrends       datatypes.JSON `gorm:"column:seasonal_trends;type:jsonb" json:"seasonal_trends"`
	EngagementMetrics    datatypes.JSON `gorm:"column:engagement_metrics;type:jsonb" json:"engagement_metrics"`

	// Competitive intelligence
	TopCompetitors              datatypes.JSON `gorm:"column:top_competitors;type:jsonb" json:"top_competitors"`
	CompetitorContentStrategies datatypes.JSON `gorm:"column:competitor_content_strategies;type:jsonb" json:"competitor_content_strategies"`
	MarketGaps                  datatypes.JSON `gorm:"column:market_gaps;type:jsonb" json:"market_gaps"`
	IndustryTrends              datatypes.JSON `gorm:"column:industry_trends;type:jsonb" json:"industry_trends"`
	EmergingTrends              datatypes.JSON `gorm:"column:emerging_trends;type:jsonb" json:"emerging_trends"`

	// Content preferences
	PreferredFormats    datatypes.JSON `gorm:"column:preferred_formats;type:jsonb" json:"preferred_formats"`
	ContentMix          datatypes.JSON `gorm:"column:content_mix;type:jsonb" json:"content_mix"`
	ContentFrequency    string         `gorm:"column:content_frequency" json:"content_frequency"`
	OptimalTiming       datatypes.JSON `gorm:"column:optimal_timing;type:jsonb" json:"optimal_timing"`
	QualityMetrics      datatypes.JSON `gorm:"column:quality_metrics;type:jsonb" json:"quality_metrics"`
	EditorialGuidelines string         `gorm:"column:editorial_guidelines;type:text" json:"editorial_guidelines"`
	BrandVoice          string         `gorm:"column:brand_voice;type:text" json:"brand_voice"`

	// Performance & analytics
	TrafficSources        datatypes.JSON `gorm:"column:traffic_sources;type:jsonb" json:"traffic_sources"`
	ConversionRates       datatypes.JSON `gorm:"column:conversion_rates;type:jsonb" json:"conversion_rates"`
	ContentROITargets     string         `gorm:"column:content_roi_targets" json:"content_roi_targets"`
	ABTestingCapabilities bool           `gorm:"column:ab_testing_capabilities" json:"ab_testing_capabilities"`

	// AI recommendations, written by the recommendation engine. Confidence is
	// the heuristic quality score of the generated object.
	AIRecommendations datatypes.JSON `gorm:"column:ai_recommendations;type:jsonb" json:"ai_recommendations"`
	AIConfidence      float64        `gorm:"column:ai_confidence" json:"ai_confidence"`

	CreatedAt time.Time      `gorm:"not null;default:now();index" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (ContentStrategy) TableName() string { return "content_strategy" }
