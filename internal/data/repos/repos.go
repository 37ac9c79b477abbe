package repos

import (
	"gorm.io/gorm"

	"github.com/alwrity/alwrity-backend/internal/data/repos/auth"
	"github.com/alwrity/alwrity-backend/internal/data/repos/content"
	"github.com/alwrity/alwrity-backend/internal/data/repos/jobs"
	"github.com/alwrity/alwrity-backend/internal/data/repos/user"
	"github.com/alwrity/alwrity-backend/internal/platform/logger"
)

type UserRepo = user.UserRepo
type UserTokenRepo = auth.UserTokenRepo

type OnboardingSessionRepo = content.OnboardingSessionRepo
type ContentStrategyRepo = content.ContentStrategyRepo
type ContentCalendarRepo = content.ContentCalendarRepo

type JobRunRepo = jobs.JobRunRepo
type JobRunEventRepo = jobs.JobRunEventRepo
type AICallLogRepo = jobs.AICallLogRepo

func NewUserRepo(db *gorm.DB, baseLog *logger.Logger) UserRepo { return user.NewUserRepo(db, baseLog) }
func NewUserTokenRepo(db *gorm.DB, baseLog *logger.Logger) UserTokenRepo {
	return auth.NewUserTokenRepo(db, baseLog)
}
func NewOnboardingSessionRepo(db *gorm.DB, baseLog *logger.Logger) OnboardingSessionRepo {
	return content.NewOnboardingSessionRepo(db, baseLog)
}
func NewContentStrategyRepo(db *gorm.DB, baseLog *logger.Logger) ContentStrategyRepo {
	return content.NewContentStrategyRepo(db, baseLog)
}
func NewContentCalendarRepo(db *gorm.DB, baseLog *logger.Logger) ContentCalendarRepo {
	return content.NewContentCalendarRepo(db, baseLog)
}
func NewJobRunRepo(db *gorm.DB, baseLog *logger.Logger) JobRunRepo {
	return jobs.NewJobRunRepo(db, baseLog)
}
func NewJobRunEventRepo(db *gorm.DB, baseLog *logger.Logger) JobRunEventRepo {
	return jobs.NewJobRunEventRepo(db, baseLog)
}
func NewAICallLogRepo(db *gorm.DB, baseLog *logger.Logger) AICallLogRepo {
	return jobs.NewAICallLogRepo(db, baseLog)
}
