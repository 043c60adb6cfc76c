// Package http provides the ingest endpoint called by the profile read path after a
// profile is served.
package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/allisson/viewvault/internal/httputil"
	"github.com/allisson/viewvault/internal/pipeline/http/dto"
	pipelineUseCase "github.com/allisson/viewvault/internal/pipeline/usecase"
	customValidation "github.com/allisson/viewvault/internal/validation"
)

// ViewIDHeader carries the view id when a view reached Tier-1 but the request
// still failed, so the caller can reconcile it.
const ViewIDHeader = "X-View-Id"

// PipelineHandler handles ingest requests.
type PipelineHandler struct {
	pipelineUseCase pipelineUseCase.PipelineUseCase
	logger          *slog.Logger
}

// NewPipelineHandler creates a new pipeline handler with required dependencies.
func NewPipelineHandler(pipelineUseCase pipelineUseCase.PipelineUseCase, logger *slog.Logger) *PipelineHandler {
	return &PipelineHandler{
		pipelineUseCase: pipelineUseCase,
		logger:          logger,
	}
}

// RecordViewHandler ingests one profile view.
// POST /v1/views
func (h *PipelineHandler) RecordViewHandler(c *gin.Context) {
	var req dto.RecordViewRequest
	defer req.Wipe()

	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}
	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	viewID, err := h.pipelineUseCase.Record(c.Request.Context(), req.ToEvent())
	if err != nil {
		if viewID != uuid.Nil {
			c.Header(ViewIDHeader, viewID.String())
		}
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusCreated, dto.MapViewIDToResponse(viewID))
}
