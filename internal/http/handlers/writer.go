package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/alwrity/alwrity-backend/internal/pkg/dbctx"
	"github.com/alwrity/alwrity-backend/internal/http/response"
	"github.com/alwrity/alwrity-backend/internal/services"
)

type WriterHandler struct {
	writerService services.WriterService
}

func NewWriterHandler(writerService services.WriterService) *WriterHandler {
	return &WriterHandler{writerService: writerService}
}

func (wh *WriterHandler) LinkedIn(c *gin.Context) {
	var req services.WriterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	result, err := wh.writerService.GenerateLinkedInPost(dbctx.Context{Ctx: c.Request.Context()}, req)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, result)
}

func (wh *WriterHandler) Facebook(c *gin.Context) {
	var req services.WriterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	result, err := wh.writerService.GenerateFacebookPost(dbctx.Context{Ctx: c.Request.Context()}, req)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, result)
}
