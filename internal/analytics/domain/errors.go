package domain

import (
	apperrors "github.com/allisson/viewvault/internal/errors"
)

var (
	// ErrInvalidRecord indicates an analytics record failed validation.
	ErrInvalidRecord = apperrors.Wrap(apperrors.ErrInvalidInput, "invalid analytics record")

	// ErrInvalidQuery indicates a dashboard query failed validation.
	ErrInvalidQuery = apperrors.Wrap(apperrors.ErrInvalidInput, "invalid dashboard query")

	// ErrNotProfileOwner indicates a privacy dashboard request for another owner's profile.
	ErrNotProfileOwner = apperrors.Wrap(apperrors.ErrForbidden, "not the profile owner")
)
