package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/alwrity/alwrity-backend/internal/pkg/ctxutil"
	"github.com/alwrity/alwrity-backend/internal/platform/logger"
	"github.com/alwrity/alwrity-backend/internal/sse"
)

type RealtimeHandler struct {
	log *logger.Logger
	hub *sse.SSEHub
}

func NewRealtimeHandler(log *logger.Logger, hub *sse.SSEHub) *RealtimeHandler {
	return &RealtimeHandler{
		log: log.With("component", "RealtimeHandler"),
		hub: hub,
	}
}

// Stream opens a server-sent-events connection subscribed to the calling
// user's channel. Job lifecycle events are published there by the worker.
func (rh *RealtimeHandler) Stream(c *gin.Context) {
	rd := ctxutil.GetRequestData(c.Request.Context())
	if rd == nil || rd.UserID == uuid.Nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}
	client := rh.hub.NewSSEClient(rd.UserID)
	rh.hub.AddChannel(client, rd.UserID.String())
	rh.log.Info("sse stream open", "user_id", rd.UserID.String(), "client_id", client.ID.String())

	rh.hub.ServeHTTP(c.Writer, c.Request, client)

	rh.hub.CloseClient(client)
	rh.log.Info("sse stream closed", "user_id", rd.UserID.String(), "client_id", client.ID.String())
}
