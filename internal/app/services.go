package app

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/alwrity/alwrity-backend/internal/jobs/pipeline/calendar_build"
	jobruntime "github.com/alwrity/alwrity-backend/internal/jobs/runtime"
	jobworker "github.com/alwrity/alwrity-backend/internal/jobs/worker"
	"github.com/alwrity/alwrity-backend/internal/platform/logger"
	"github.com/alwrity/alwrity-backend/internal/services"
	"github.com/alwrity/alwrity-backend/internal/sse"
)

type Services struct {
	Auth       services.AuthService
	User       services.UserService
	Onboarding services.OnboardingService
	Strategy   services.StrategyService
	Calendar   services.CalendarService
	Writer     services.WriterService

	JobNotifier services.JobNotifier
	Job         services.JobService

	JobRegistry *jobruntime.Registry
	JobWorker   *jobworker.Worker
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg Config, r Repos, hub *sse.SSEHub, clients Clients) (Services, error) {
	log.Info("Wiring services...")

	jobNotifier := services.NewJobNotifier(log, hub, clients.SSEBus)
	jobService := services.NewJobService(db, log, r.JobRun, r.JobRunEvent, jobNotifier)

	authService := services.NewAuthService(
		db, log,
		r.User,
		r.UserToken,
		cfg.JWTSecretKey,
		cfg.AccessTokenTTL,
		cfg.RefreshTokenTTL,
	)

	userService := services.NewUserService(db, log, r.User)
	onboardingService := services.NewOnboardingService(db, log, r.OnboardingSession, r.ContentStrategy)
	strategyService := services.NewStrategyService(db, log, r.ContentStrategy, r.AICallLog, clients.OpenAI)
	calendarService := services.NewCalendarService(db, log, r.ContentCalendar, r.ContentStrategy, jobService)
	writerService := services.NewWriterService(db, log, r.AICallLog, clients.OpenAI)

	registry := jobruntime.NewRegistry()
	calendarPipeline := calendar_build.NewCalendarBuildPipeline(
		db, log,
		r.ContentCalendar,
		r.ContentStrategy,
		r.OnboardingSession,
		r.AICallLog,
		clients.OpenAI,
		jobNotifier,
	)
	if err := registry.Register(calendarPipeline); err != nil {
		return Services{}, fmt.Errorf("register calendar_build pipeline: %w", err)
	}

	worker := jobworker.NewWorker(db, log, r.JobRun, r.JobRunEvent, registry, jobNotifier)

	return Services{
		Auth:       authService,
		User:       userService,
		Onboarding: onboardingService,
		Strategy:   strategyService,
		Calendar:   calendarService,
		Writer:     writerService,

		JobNotifier: jobNotifier,
		Job:         jobService,

		JobRegistry: registry,
		JobWorker:   worker,
	}, nil
}
