package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/alwrity/alwrity-backend/internal/pkg/dbctx"
	"github.com/alwrity/alwrity-backend/internal/http/response"
	"github.com/alwrity/alwrity-backend/internal/services"
)

type CalendarHandler struct {
	calendarService services.CalendarService
}

func NewCalendarHandler(calendarService services.CalendarService) *CalendarHandler {
	return &CalendarHandler{calendarService: calendarService}
}

func (ch *CalendarHandler) StartGeneration(c *gin.Context) {
	var req services.StartCalendarRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	calendar, job, err := ch.calendarService.StartGeneration(dbctx.Context{Ctx: c.Request.Context()}, req)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondCreated(c, gin.H{
		"calendar": calendar,
		"job_id":   job.ID.String(),
	})
}

func (ch *CalendarHandler) List(c *gin.Context) {
	calendars, err := ch.calendarService.ListForRequestUser(dbctx.Context{Ctx: c.Request.Context()})
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"calendars": calendars})
}

func (ch *CalendarHandler) Get(c *gin.Context) {
	calendarID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_calendar_id", err)
		return
	}
	calendar, err := ch.calendarService.GetByIDForRequestUser(dbctx.Context{Ctx: c.Request.Context()}, calendarID)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"calendar": calendar})
}

func (ch *CalendarHandler) Delete(c *gin.Context) {
	calendarID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_calendar_id", err)
		return
	}
	if err := ch.calendarService.Delete(dbctx.Context{Ctx: c.Request.Context()}, calendarID); err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"ok": true})
}
