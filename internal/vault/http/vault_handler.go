// Package http provides the HTTP handlers for the Tier-3 legal vault. Every route
// requires the internal API key; sealing and export also require two authorizers.
package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	authHTTP "github.com/allisson/viewvault/internal/auth/http"
	apperrors "github.com/allisson/viewvault/internal/errors"
	"github.com/allisson/viewvault/internal/httputil"
	customValidation "github.com/allisson/viewvault/internal/validation"
	"github.com/allisson/viewvault/internal/vault/http/dto"
	vaultUseCase "github.com/allisson/viewvault/internal/vault/usecase"
)

// VaultHandler handles HTTP requests for legal cases.
type VaultHandler struct {
	vaultUseCase vaultUseCase.VaultUseCase
	logger       *slog.Logger
}

// NewVaultHandler creates a new vault handler with required dependencies.
func NewVaultHandler(vaultUseCase vaultUseCase.VaultUseCase, logger *slog.Logger) *VaultHandler {
	return &VaultHandler{
		vaultUseCase: vaultUseCase,
		logger:       logger,
	}
}

// SealHandler seals views into a case.
// POST /v1/vault/cases/:caseId/seal
func (h *VaultHandler) SealHandler(c *gin.Context) {
	actor, ok := authHTTP.GetActor(c.Request.Context())
	if !ok {
		httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, h.logger)
		return
	}

	var req dto.SealRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}
	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	result, err := h.vaultUseCase.Seal(c.Request.Context(), req.ToInput(c.Param("caseId"), actor))
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapSealResultToResponse(result))
}

// ExportHandler returns the plaintext of a case. The export is wiped after the
// response is written.
// POST /v1/vault/cases/:caseId/export
func (h *VaultHandler) ExportHandler(c *gin.Context) {
	actor, ok := authHTTP.GetActor(c.Request.Context())
	if !ok {
		httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, h.logger)
		return
	}

	var req dto.ExportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}
	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	export, err := h.vaultUseCase.Export(c.Request.Context(), req.ToInput(c.Param("caseId"), actor))
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}
	defer export.Wipe()

	c.Header("Cache-Control", "no-store")
	c.JSON(http.StatusOK, dto.MapExportToResponse(export))
}

// CloseHandler destroys the records of a case and closes it.
// POST /v1/vault/cases/:caseId/close
func (h *VaultHandler) CloseHandler(c *gin.Context) {
	actor, ok := authHTTP.GetActor(c.Request.Context())
	if !ok {
		httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, h.logger)
		return
	}

	var req dto.CloseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}
	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	result, err := h.vaultUseCase.CloseCase(c.Request.Context(), req.ToInput(c.Param("caseId"), actor))
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapCloseResultToResponse(result))
}
