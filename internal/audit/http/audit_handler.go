// Package http provides the HTTP handler for reading the audit log.
package http

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	auditDomain "github.com/allisson/viewvault/internal/audit/domain"
	"github.com/allisson/viewvault/internal/audit/http/dto"
	auditUseCase "github.com/allisson/viewvault/internal/audit/usecase"
	"github.com/allisson/viewvault/internal/httputil"
)

// AuditHandler handles HTTP requests for audit log operations.
type AuditHandler struct {
	auditUseCase auditUseCase.AuditUseCase
	logger       *slog.Logger
}

// NewAuditHandler creates a new audit handler with required dependencies.
func NewAuditHandler(auditUseCase auditUseCase.AuditUseCase, logger *slog.Logger) *AuditHandler {
	return &AuditHandler{
		auditUseCase: auditUseCase,
		logger:       logger,
	}
}

// ListHandler retrieves audit records with pagination and optional filters.
// GET /v1/audit-logs?offset=0&limit=50&action=DELETE_T2&target_id=...&created_at_from=...&created_at_to=...
// Timestamps are RFC3339 and both boundaries are inclusive.
func (h *AuditHandler) ListHandler(c *gin.Context) {
	offset, limit, err := httputil.ParsePagination(c)
	if err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	filter := auditDomain.ListFilter{
		Action:   auditDomain.Action(c.Query("action")),
		TargetID: c.Query("target_id"),
		Offset:   offset,
		Limit:    limit,
	}

	if filter.From, err = parseTimeQuery(c, "created_at_from"); err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}
	if filter.To, err = parseTimeQuery(c, "created_at_to"); err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}
	if filter.From != nil && filter.To != nil && filter.From.After(*filter.To) {
		httputil.HandleValidationErrorGin(c,
			fmt.Errorf("created_at_from must be before or equal to created_at_to"),
			h.logger)
		return
	}

	records, err := h.auditUseCase.List(c.Request.Context(), filter)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapAuditRecordsToListResponse(records))
}

func parseTimeQuery(c *gin.Context, name string) (*time.Time, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	parsed, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, fmt.Errorf("invalid %s format: must be RFC3339 (e.g., 2026-02-01T00:00:00Z)", name)
	}
	utc := parsed.UTC()
	return &utc, nil
}
