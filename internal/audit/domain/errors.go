package domain

import (
	apperrors "github.com/allisson/viewvault/internal/errors"
)

var (
	// ErrSignatureInvalid indicates an audit record whose signature does not verify.
	ErrSignatureInvalid = apperrors.New("audit record signature is invalid")

	// ErrInvalidEntry indicates an audit entry that cannot be appended.
	ErrInvalidEntry = apperrors.Wrap(apperrors.ErrInvalidInput, "invalid audit entry")
)
