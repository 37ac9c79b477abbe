package app

import (
	"github.com/gin-gonic/gin"

	httpx "github.com/alwrity/alwrity-backend/internal/http"
	httpMW "github.com/alwrity/alwrity-backend/internal/http/middleware"
	"github.com/alwrity/alwrity-backend/internal/platform/logger"
)

func wireRouter(cfg Config, log *logger.Logger, h Handlers, authMW *httpMW.AuthMiddleware) *gin.Engine {
	log.Info("Wiring router...")
	return httpx.NewRouter(httpx.RouterConfig{
		ServiceName: cfg.ServiceName,
		Log:         log,

		AuthHandler:    h.Auth,
		AuthMiddleware: authMW,

		UserHandler:       h.User,
		OnboardingHandler: h.Onboarding,
		StrategyHandler:   h.Strategy,
		CalendarHandler:   h.Calendar,
		JobHandler:        h.Job,
		WriterHandler:     h.Writer,
		RealtimeHandler:   h.Realtime,

		HealthHandler: h.Health,
	})
}
