package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/alwrity/alwrity-backend/internal/http/handlers"
	httpMW "github.com/alwrity/alwrity-backend/internal/http/middleware"
	"github.com/alwrity/alwrity-backend/internal/platform/logger"
)

type RouterConfig struct {
	ServiceName string
	Log         *logger.Logger

	AuthHandler    *httpH.AuthHandler
	AuthMiddleware *httpMW.AuthMiddleware

	UserHandler       *httpH.UserHandler
	OnboardingHandler *httpH.OnboardingHandler
	StrategyHandler   *httpH.StrategyHandler
	CalendarHandler   *httpH.CalendarHandler
	JobHandler        *httpH.JobHandler
	WriterHandler     *httpH.WriterHandler
	RealtimeHandler   *httpH.RealtimeHandler

	HealthHandler *httpH.HealthHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.Default()
	if cfg.ServiceName != "" {
		r.Use(otelgin.Middleware(cfg.ServiceName))
	}
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.CORS())
	if cfg.Log != nil {
		r.Use(httpMW.RequestLogger(cfg.Log))
	}

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}

	api := r.Group("/api")
	{
		// Auth (public). Refresh is public too: it authenticates with the
		// refresh token carried in the request body.
		if cfg.AuthHandler != nil {
			api.POST("/register", cfg.AuthHandler.Register)
			api.POST("/login", cfg.AuthHandler.Login)
			api.POST("/refresh", cfg.AuthHandler.Refresh)
		}
	}

	protected := api.Group("/")
	{
		if cfg.AuthMiddleware != nil {
			protected.Use(cfg.AuthMiddleware.RequireAuth())
		}

		// Auth (protected)
		if cfg.AuthHandler != nil {
			protected.POST("/logout", cfg.AuthHandler.Logout)
		}

		// Realtime (SSE)
		if cfg.RealtimeHandler != nil {
			protected.GET("/sse/stream", cfg.RealtimeHandler.Stream)
		}

		// User (Me)
		if cfg.UserHandler != nil {
			protected.GET("/me", cfg.UserHandler.GetMe)
			protected.PATCH("/me", cfg.UserHandler.UpdateName)
		}

		// Onboarding
		if cfg.OnboardingHandler != nil {
			protected.POST("/onboarding/start", cfg.OnboardingHandler.Start)
			protected.GET("/onboarding", cfg.OnboardingHandler.Get)
			protected.GET("/onboarding/summary", cfg.OnboardingHandler.Summary)
			protected.PUT("/onboarding/step/:step", cfg.OnboardingHandler.SaveStepData)
			protected.POST("/onboarding/step/:step/complete", cfg.OnboardingHandler.CompleteStep)
			protected.POST("/onboarding/complete", cfg.OnboardingHandler.Complete)
		}

		// Content strategies
		if cfg.StrategyHandler != nil {
			protected.POST("/strategies", cfg.StrategyHandler.Create)
			protected.GET("/strategies", cfg.StrategyHandler.List)
			protected.GET("/strategies/:id", cfg.StrategyHandler.Get)
			protected.PATCH("/strategies/:id", cfg.StrategyHandler.Update)
			protected.DELETE("/strategies/:id", cfg.StrategyHandler.Delete)
			protected.POST("/strategies/:id/ai-recommendations", cfg.StrategyHandler.GenerateRecommendations)
		}

		// Calendar generation
		if cfg.CalendarHandler != nil {
			protected.POST("/calendar-generation/start", cfg.CalendarHandler.StartGeneration)
			protected.GET("/calendars", cfg.CalendarHandler.List)
			protected.GET("/calendars/:id", cfg.CalendarHandler.Get)
			protected.DELETE("/calendars/:id", cfg.CalendarHandler.Delete)
		}

		// Jobs
		if cfg.JobHandler != nil {
			protected.GET("/jobs/:id", cfg.JobHandler.Get)
			protected.GET("/calendar-generation/:id/progress", cfg.JobHandler.Progress)
			protected.POST("/jobs/:id/cancel", cfg.JobHandler.Cancel)
			protected.POST("/jobs/:id/restart", cfg.JobHandler.Restart)
		}

		// Writer
		if cfg.WriterHandler != nil {
			protected.POST("/writer/linkedin", cfg.WriterHandler.LinkedIn)
			protected.POST("/writer/facebook", cfg.WriterHandler.Facebook)
		}
	}

	return r
}
