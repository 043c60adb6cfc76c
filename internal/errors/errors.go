// Package errors provides standardized domain errors that express business intent
// rather than infrastructure details. These errors should be used by use cases
// and mapped to appropriate HTTP status codes by handlers.
package errors

import (
	"errors"
	"fmt"
)

// Standard domain errors that can be used across all domain modules.
var (
	// ErrNotFound indicates the requested resource does not exist.
	ErrNotFound = errors.New("not found")

	// ErrConflict indicates a conflict with existing data (e.g., duplicate key).
	ErrConflict = errors.New("conflict")

	// ErrInvalidInput indicates the input data is invalid or fails validation.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnauthorized indicates the request lacks a valid internal credential.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden indicates the caller did not supply the authorizations an operation requires.
	ErrForbidden = errors.New("forbidden")

	// ErrGone indicates the resource exists but has reached a terminal state (e.g., a closed case).
	ErrGone = errors.New("gone")

	// ErrCryptoFailed indicates an encryption or decryption failure, or an unavailable key.
	// It is fatal to the in-flight call and never retried with a different key.
	ErrCryptoFailed = errors.New("crypto failed")

	// ErrUnavailable indicates a transient storage backend failure.
	ErrUnavailable = errors.New("store unavailable")

	// ErrConfigInvalid indicates invalid or missing configuration detected at startup.
	ErrConfigInvalid = errors.New("config invalid")
)

// Kind is the externally visible error classification.
type Kind string

const (
	KindAuthFailed       Kind = "AUTH_FAILED"
	KindCryptoFailed     Kind = "CRYPTO_FAILED"
	KindStoreUnavailable Kind = "STORE_UNAVAILABLE"
	KindNotFound         Kind = "NOT_FOUND"
	KindMissingAuth      Kind = "MISSING_AUTH"
	KindCaseClosed       Kind = "CASE_CLOSED"
	KindConfigInvalid    Kind = "CONFIG_INVALID"
	KindInvalidInput     Kind = "INVALID_INPUT"
	KindConflict         Kind = "CONFLICT"
	KindInternal         Kind = "INTERNAL"
)

// KindOf classifies err. Crypto failures win over everything else so that a wrapped
// decrypt failure is never reported as a storage problem.
func KindOf(err error) Kind {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrCryptoFailed):
		return KindCryptoFailed
	case errors.Is(err, ErrUnauthorized):
		return KindAuthFailed
	case errors.Is(err, ErrForbidden):
		return KindMissingAuth
	case errors.Is(err, ErrGone):
		return KindCaseClosed
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrUnavailable):
		return KindStoreUnavailable
	case errors.Is(err, ErrConfigInvalid):
		return KindConfigInvalid
	case errors.Is(err, ErrInvalidInput):
		return KindInvalidInput
	case errors.Is(err, ErrConflict):
		return KindConflict
	default:
		return KindInternal
	}
}

// New creates a new error with the given message.
// This is a convenience wrapper around errors.New for consistency.
func New(message string) error {
	return errors.New(message)
}

// Wrap wraps an error with additional context while preserving the error chain.
// Use this to add context at each layer without losing the original error type.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Is reports whether any error in err's tree matches target.
// This is a convenience wrapper around errors.Is.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's tree that matches target.
// This is a convenience wrapper around errors.As.
func As(err error, target any) bool {
	return errors.As(err, target)
}

// Join is a convenience wrapper around errors.Join.
func Join(errs ...error) error {
	return errors.Join(errs...)
}
