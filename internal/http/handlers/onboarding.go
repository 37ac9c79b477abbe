package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/alwrity/alwrity-backend/internal/pkg/dbctx"
	"github.com/alwrity/alwrity-backend/internal/http/response"
	"github.com/alwrity/alwrity-backend/internal/services"
)

type OnboardingHandler struct {
	onboardingService services.OnboardingService
}

func NewOnboardingHandler(onboardingService services.OnboardingService) *OnboardingHandler {
	return &OnboardingHandler{onboardingService: onboardingService}
}

func (oh *OnboardingHandler) Start(c *gin.Context) {
	session, err := oh.onboardingService.StartOrResume(dbctx.Context{Ctx: c.Request.Context()})
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"session": session})
}

func (oh *OnboardingHandler) Get(c *gin.Context) {
	session, err := oh.onboardingService.Get(dbctx.Context{Ctx: c.Request.Context()})
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"session": session})
}

func (oh *OnboardingHandler) SaveStepData(c *gin.Context) {
	step, err := strconv.Atoi(c.Param("step"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_step", err)
		return
	}
	var data map[string]any
	if err := c.ShouldBindJSON(&data); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	session, err := oh.onboardingService.SaveStepData(dbctx.Context{Ctx: c.Request.Context()}, step, data)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"session": session})
}

func (oh *OnboardingHandler) CompleteStep(c *gin.Context) {
	step, err := strconv.Atoi(c.Param("step"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_step", err)
		return
	}
	session, err := oh.onboardingService.CompleteStep(dbctx.Context{Ctx: c.Request.Context()}, step)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"session": session})
}

func (oh *OnboardingHandler) Complete(c *gin.Context) {
	session, strategy, err := oh.onboardingService.Complete(dbctx.Context{Ctx: c.Request.Context()})
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"session": session, "strategy": strategy})
}

func (oh *OnboardingHandler) Summary(c *gin.Context) {
	session, err := oh.onboardingService.Get(dbctx.Context{Ctx: c.Request.Context()})
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{
		"status":       session.Status,
		"current_step": session.CurrentStep,
		"website_url":  session.WebsiteURL,
		"industry":     session.Industry,
		"description":  session.Description,
		"competitors":  session.Competitors,
		"persona":      session.Persona,
	})
}
