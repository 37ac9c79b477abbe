package db

import (
	"gorm.io/gorm"

	types "github.com/alwrity/alwrity-backend/internal/domain"
)

func AutoMigrateAll(db *gorm.DB) error {
	return db.AutoMigrate(

		// Identity + auth
		&types.User{},
		&types.UserToken{},

		// Onboarding
		&types.OnboardingSession{},

		// Content strategy + calendar artifacts
		&types.ContentStrategy{},
		&types.ContentCalendar{},

		// Background generation runs
		&types.JobRun{},
		&types.JobRunEvent{},
		&types.AICallLog{},
	)
}
