package calendar_build

import (
	"gorm.io/gorm"

	"github.com/alwrity/alwrity-backend/internal/clients/openai"
	"github.com/alwrity/alwrity-backend/internal/data/repos"
	"github.com/alwrity/alwrity-backend/internal/platform/logger"
	"github.com/alwrity/alwrity-backend/internal/services"
)

type CalendarBuildPipeline struct {
	db             *gorm.DB
	log            *logger.Logger
	calendarRepo   repos.ContentCalendarRepo
	strategyRepo   repos.ContentStrategyRepo
	onboardingRepo repos.OnboardingSessionRepo
	aiLogRepo      repos.AICallLogRepo
	ai             openai.Client
	notify         services.JobNotifier
}

func NewCalendarBuildPipeline(
	db *gorm.DB,
	baseLog *logger.Logger,
	calendarRepo repos.ContentCalendarRepo,
	strategyRepo repos.ContentStrategyRepo,
	onboardingRepo repos.OnboardingSessionRepo,
	aiLogRepo repos.AICallLogRepo,
	ai openai.Client,
	notify services.JobNotifier,
) *CalendarBuildPipeline {
	return &CalendarBuildPipeline{
		db:             db,
		log:            baseLog.With("job", "calendar_build"),
		calendarRepo:   calendarRepo,
		strategyRepo:   strategyRepo,
		onboardingRepo: onboardingRepo,
		aiLogRepo:      aiLogRepo,
		ai:             ai,
		notify:         notify,
	}
}
