package app

import (
	"gorm.io/gorm"

	"github.com/alwrity/alwrity-backend/internal/data/repos"
	"github.com/alwrity/alwrity-backend/internal/platform/logger"
)

type Repos struct {
	User      repos.UserRepo
	UserToken repos.UserTokenRepo

	OnboardingSession repos.OnboardingSessionRepo
	ContentStrategy   repos.ContentStrategyRepo
	ContentCalendar   repos.ContentCalendarRepo

	JobRun      repos.JobRunRepo
	JobRunEvent repos.JobRunEventRepo
	AICallLog   repos.AICallLogRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		User:      repos.NewUserRepo(db, log),
		UserToken: repos.NewUserTokenRepo(db, log),

		OnboardingSession: repos.NewOnboardingSessionRepo(db, log),
		ContentStrategy:   repos.NewContentStrategyRepo(db, log),
		ContentCalendar:   repos.NewContentCalendarRepo(db, log),

		JobRun:      repos.NewJobRunRepo(db, log),
		JobRunEvent: repos.NewJobRunEventRepo(db, log),
		AICallLog:   repos.NewAICallLogRepo(db, log),
	}
}
