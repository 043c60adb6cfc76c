package domain

import (
	apperrors "github.com/allisson/viewvault/internal/errors"
)

var (
	// ErrRecordNotFound indicates no compliance record matched.
	ErrRecordNotFound = apperrors.Wrap(apperrors.ErrNotFound, "compliance record not found")

	// ErrInvalidRecord indicates a compliance record failed validation.
	ErrInvalidRecord = apperrors.Wrap(apperrors.ErrInvalidInput, "invalid compliance record")

	// ErrInvalidFilter indicates a compliance query filter failed validation.
	ErrInvalidFilter = apperrors.Wrap(apperrors.ErrInvalidInput, "invalid compliance query")

	// ErrReaperBusy indicates another reaper instance holds the sweep lock.
	ErrReaperBusy = apperrors.Wrap(apperrors.ErrConflict, "compliance reaper already running")
)
