package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/alwrity/alwrity-backend/internal/pkg/dbctx"
	types "github.com/alwrity/alwrity-backend/internal/domain"
	"github.com/alwrity/alwrity-backend/internal/http/response"
	"github.com/alwrity/alwrity-backend/internal/services"
)

type StrategyHandler struct {
	strategyService services.StrategyService
}

func NewStrategyHandler(strategyService services.StrategyService) *StrategyHandler {
	return &StrategyHandler{strategyService: strategyService}
}

func (sh *StrategyHandler) Create(c *gin.Context) {
	var strategy types.ContentStrategy
	if err := c.ShouldBindJSON(&strategy); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	created, err := sh.strategyService.Create(dbctx.Context{Ctx: c.Request.Context()}, &strategy)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"strategy": created})
}

func (sh *StrategyHandler) List(c *gin.Context) {
	strategies, err := sh.strategyService.ListForRequestUser(dbctx.Context{Ctx: c.Request.Context()})
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"strategies": strategies})
}

func (sh *StrategyHandler) Get(c *gin.Context) {
	strategyID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_strategy_id", err)
		return
	}
	strategy, err := sh.strategyService.GetByIDForRequestUser(dbctx.Context{Ctx: c.Request.Context()}, strategyID)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"strategy": strategy})
}

func (sh *StrategyHandler) Update(c *gin.Context) {
	strategyID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_strategy_id", err)
		return
	}
	var fields map[string]any
	if err := c.ShouldBindJSON(&fields); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	strategy, err := sh.strategyService.Update(dbctx.Context{Ctx: c.Request.Context()}, strategyID, fields)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"strategy": strategy})
}

func (sh *StrategyHandler) Delete(c *gin.Context) {
	strategyID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_strategy_id", err)
		return
	}
	if err := sh.strategyService.Delete(dbctx.Context{Ctx: c.Request.Context()}, strategyID); err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"ok": true})
}

func (sh *StrategyHandler) GenerateRecommendations(c *gin.Context) {
	strategyID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_strategy_id", err)
		return
	}
	strategy, err := sh.strategyService.GenerateRecommendations(dbctx.Context{Ctx: c.Request.Context()}, strategyID)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"strategy": strategy})
}
