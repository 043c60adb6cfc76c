package domain

import (
	apperrors "github.com/allisson/viewvault/internal/errors"
)

var (
	// ErrCaseNotFound indicates no legal case has the given id.
	ErrCaseNotFound = apperrors.Wrap(apperrors.ErrNotFound, "legal case not found")

	// ErrRecordNotFound indicates no vault record matched.
	ErrRecordNotFound = apperrors.Wrap(apperrors.ErrNotFound, "vault record not found")

	// ErrMissingAuth indicates fewer than two distinct authorizers were named.
	ErrMissingAuth = apperrors.Wrap(apperrors.ErrForbidden, "two distinct authorizers are required")

	// ErrCaseClosed indicates the case was closed and its records destroyed.
	ErrCaseClosed = apperrors.Wrap(apperrors.ErrGone, "legal case is closed")

	// ErrOrderMismatch indicates a case id was reused with a different order reference.
	ErrOrderMismatch = apperrors.Wrap(apperrors.ErrConflict, "case is registered under another order reference")

	// ErrInvalidRecord indicates a vault record failed validation.
	ErrInvalidRecord = apperrors.Wrap(apperrors.ErrInvalidInput, "invalid vault record")

	// ErrInvalidRequest indicates a seal, export or close request failed validation.
	ErrInvalidRequest = apperrors.Wrap(apperrors.ErrInvalidInput, "invalid vault request")
)
