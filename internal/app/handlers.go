package app

import (
	"gorm.io/gorm"

	httpH "github.com/alwrity/alwrity-backend/internal/http/handlers"
	"github.com/alwrity/alwrity-backend/internal/platform/logger"
	"github.com/alwrity/alwrity-backend/internal/sse"
)

type Handlers struct {
	Health     *httpH.HealthHandler
	Auth       *httpH.AuthHandler
	User       *httpH.UserHandler
	Onboarding *httpH.OnboardingHandler
	Strategy   *httpH.StrategyHandler
	Calendar   *httpH.CalendarHandler
	Job        *httpH.JobHandler
	Writer     *httpH.WriterHandler
	Realtime   *httpH.RealtimeHandler
}

func wireHandlers(db *gorm.DB, log *logger.Logger, s Services, hub *sse.SSEHub) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Health:     httpH.NewHealthHandler(db),
		Auth:       httpH.NewAuthHandler(s.Auth),
		User:       httpH.NewUserHandler(s.User),
		Onboarding: httpH.NewOnboardingHandler(s.Onboarding),
		Strategy:   httpH.NewStrategyHandler(s.Strategy),
		Calendar:   httpH.NewCalendarHandler(s.Calendar),
		Job:        httpH.NewJobHandler(s.Job),
		Writer:     httpH.NewWriterHandler(s.Writer),
		Realtime:   httpH.NewRealtimeHandler(log, hub),
	}
}
