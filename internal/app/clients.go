package app

import (
	"github.com/alwrity/alwrity-backend/internal/clients/openai"
	"github.com/alwrity/alwrity-backend/internal/clients/redis"
	"github.com/alwrity/alwrity-backend/internal/platform/logger"
)

type Clients struct {
	OpenAI openai.Client
	SSEBus redis.SSEBus
}

func wireClients(log *logger.Logger) (Clients, error) {
	log.Info("Wiring clients...")

	ai, err := openai.NewClient(log)
	if err != nil {
		return Clients{}, err
	}

	// The Redis bus is optional: single-replica deployments run without it
	// and events go straight to the local hub.
	bus, err := redis.NewSSEBus(log)
	if err != nil {
		log.Warn("redis SSE bus unavailable; using local hub only", "error", err)
		bus = nil
	}

	return Clients{
		OpenAI: ai,
		SSEBus: bus,
	}, nil
}
