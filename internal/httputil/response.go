// Package httputil provides HTTP utility functions for request and response handling.
package httputil

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/allisson/viewvault/internal/errors"
)

// ErrorResponse represents a structured error response. Code carries the error
// kind (NOT_FOUND, CASE_CLOSED, STORE_UNAVAILABLE, ...).
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Code    string `json:"code,omitempty"`
}

type errorMapping struct {
	target  error
	status  int
	name    string
	message string // empty exposes the error text
}

// errorMappings is checked in order. Crypto failures come first so a wrapped
// decrypt failure is never reported as a storage problem. Only messages that
// cannot carry record data are exposed.
var errorMappings = []errorMapping{
	{apperrors.ErrCryptoFailed, http.StatusInternalServerError, "crypto_failed", "A cryptographic operation failed"},
	{apperrors.ErrNotFound, http.StatusNotFound, "not_found", "The requested resource was not found"},
	{apperrors.ErrConflict, http.StatusConflict, "conflict", "A conflict occurred with existing data"},
	{apperrors.ErrInvalidInput, http.StatusUnprocessableEntity, "invalid_input", ""},
	{apperrors.ErrUnauthorized, http.StatusUnauthorized, "unauthorized", "A valid internal API key is required"},
	{apperrors.ErrForbidden, http.StatusForbidden, "forbidden", ""},
	{apperrors.ErrGone, http.StatusGone, "gone", "The case is closed"},
	{apperrors.ErrUnavailable, http.StatusServiceUnavailable, "unavailable", "The store is temporarily unavailable"},
}

var internalError = errorMapping{
	status:  http.StatusInternalServerError,
	name:    "internal_error",
	message: "An internal error occurred",
}

// HandleErrorGin maps a domain error to its HTTP status and writes the JSON body.
// Server-side failures are logged at error level, client errors at warn.
func HandleErrorGin(c *gin.Context, err error, logger *slog.Logger) {
	if err == nil {
		return
	}

	mapping := internalError
	for _, m := range errorMappings {
		if apperrors.Is(err, m.target) {
			mapping = m
			break
		}
	}

	body := ErrorResponse{
		Error:   mapping.name,
		Message: mapping.message,
		Code:    string(apperrors.KindOf(err)),
	}
	if body.Message == "" {
		body.Message = err.Error()
	}

	if logger != nil {
		level := slog.LevelWarn
		if mapping.status >= http.StatusInternalServerError {
			level = slog.LevelError
		}
		logger.Log(c, level, "request failed",
			slog.Int("status_code", mapping.status),
			slog.String("error_code", body.Error),
			slog.Any("error", err),
		)
	}

	c.JSON(mapping.status, body)
}

// HandleBadRequestGin writes a 400 for malformed JSON or parameters.
func HandleBadRequestGin(c *gin.Context, err error, logger *slog.Logger) {
	writeClientError(c, http.StatusBadRequest, "bad_request", err, logger)
}

// HandleValidationErrorGin writes a 422 for requests that parse but fail validation.
func HandleValidationErrorGin(c *gin.Context, err error, logger *slog.Logger) {
	writeClientError(c, http.StatusUnprocessableEntity, "validation_error", err, logger)
}

func writeClientError(c *gin.Context, status int, name string, err error, logger *slog.Logger) {
	if logger != nil {
		logger.Warn("rejected request", slog.String("error_code", name), slog.Any("error", err))
	}
	c.JSON(status, ErrorResponse{
		Error:   name,
		Message: err.Error(),
		Code:    string(apperrors.KindInvalidInput),
	})
}
