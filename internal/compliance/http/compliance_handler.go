// Package http provides the HTTP handlers for the Tier-2 compliance surface. Every
// route requires the internal API key.
package http

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	authHTTP "github.com/allisson/viewvault/internal/auth/http"
	complianceDomain "github.com/allisson/viewvault/internal/compliance/domain"
	"github.com/allisson/viewvault/internal/compliance/http/dto"
	complianceUseCase "github.com/allisson/viewvault/internal/compliance/usecase"
	apperrors "github.com/allisson/viewvault/internal/errors"
	"github.com/allisson/viewvault/internal/httputil"
	customValidation "github.com/allisson/viewvault/internal/validation"
)

// ComplianceHandler handles HTTP requests for compliance queries, holds and the reaper.
type ComplianceHandler struct {
	complianceUseCase complianceUseCase.ComplianceUseCase
	logger            *slog.Logger
}

// NewComplianceHandler creates a new compliance handler with required dependencies.
func NewComplianceHandler(
	complianceUseCase complianceUseCase.ComplianceUseCase,
	logger *slog.Logger,
) *ComplianceHandler {
	return &ComplianceHandler{
		complianceUseCase: complianceUseCase,
		logger:            logger,
	}
}

// QueryHandler decrypts the records selected by the request body.
// POST /v1/compliance/query
// The plaintext buffers are wiped after the response is written.
func (h *ComplianceHandler) QueryHandler(c *gin.Context) {
	actor, ok := authHTTP.GetActor(c.Request.Context())
	if !ok {
		httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, h.logger)
		return
	}

	var req dto.QueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}
	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	views, err := h.complianceUseCase.Query(c.Request.Context(), actor, req.ToFilter(), req.Reason)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}
	defer complianceDomain.WipeViews(views)

	c.JSON(http.StatusOK, dto.MapDecryptedViewsToResponse(views))
}

// SetInvestigationHandler sets or clears the investigation hold on a record.
// PUT /v1/compliance/logs/:id/investigation
func (h *ComplianceHandler) SetInvestigationHandler(c *gin.Context) {
	actor, ok := authHTTP.GetActor(c.Request.Context())
	if !ok {
		httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, h.logger)
		return
	}

	logID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.HandleBadRequestGin(c, fmt.Errorf("invalid log id: %w", err), h.logger)
		return
	}

	var req dto.SetInvestigationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}
	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	record, err := h.complianceUseCase.SetInvestigation(
		c.Request.Context(),
		actor,
		logID,
		*req.UnderInvestigation,
		req.Reason,
	)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapComplianceRecordToResponse(record))
}

// StatsHandler counts records by retention state.
// GET /v1/compliance/stats
func (h *ComplianceHandler) StatsHandler(c *gin.Context) {
	actor, ok := authHTTP.GetActor(c.Request.Context())
	if !ok {
		httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, h.logger)
		return
	}

	stats, err := h.complianceUseCase.Stats(c.Request.Context(), actor, time.Now())
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapStatsToResponse(stats))
}

// CleanupHandler runs the reaper once. A run already in progress returns 409.
// POST /v1/compliance/cleanup
func (h *ComplianceHandler) CleanupHandler(c *gin.Context) {
	actor, ok := authHTTP.GetActor(c.Request.Context())
	if !ok {
		httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, h.logger)
		return
	}

	var req dto.CleanupRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			httputil.HandleBadRequestGin(c, err, h.logger)
			return
		}
	}
	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	result, err := h.complianceUseCase.Sweep(c.Request.Context(), complianceDomain.SweepOptions{
		Actor:     actor,
		BatchSize: req.BatchSize,
		DryRun:    req.DryRun,
	})
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapSweepResultToResponse(result))
}
