// Package validation provides custom validation rules for the application.
package validation

import (
	"strings"

	"github.com/google/uuid"
	validation "github.com/jellydator/validation"

	apperrors "github.com/allisson/viewvault/internal/errors"
)

// WrapValidationError wraps validation errors as domain ErrInvalidInput
func WrapValidationError(err error) error {
	if err == nil {
		return nil
	}
	return apperrors.Wrap(apperrors.ErrInvalidInput, err.Error())
}

// UUID validates that a string is a canonical UUID.
var UUID = validation.NewStringRuleWithError(
	func(s string) bool {
		_, err := uuid.Parse(s)
		return err == nil
	},
	validation.NewError("validation_uuid", "must be a valid UUID"),
)

// NoWhitespace validates that string doesn't contain leading/trailing whitespace
var NoWhitespace = validation.NewStringRuleWithError(
	func(s string) bool {
		return s == strings.TrimSpace(s)
	},
	validation.NewError("validation_no_whitespace", "must not contain leading or trailing whitespace"),
)

// NotBlank validates that a string is not empty after trimming whitespace
var NotBlank = validation.NewStringRuleWithError(
	func(s string) bool {
		return strings.TrimSpace(s) != ""
	},
	validation.NewError("validation_not_blank", "must not be blank"),
)

// DistinctNames validates that a []string holds at least Min distinct non-blank names.
// Names are compared case-insensitively after trimming.
type DistinctNames struct {
	Min int
}

// Validate implements validation.Rule.
func (d DistinctNames) Validate(value interface{}) error {
	names, ok := value.([]string)
	if !ok {
		return validation.NewError("validation_distinct_names_type", "must be a list of names")
	}

	if CountDistinct(names) < d.Min {
		return validation.NewError(
			"validation_distinct_names",
			"must contain distinct names",
		).SetParams(map[string]any{"min": d.Min})
	}
	return nil
}

// CountDistinct counts the distinct non-blank names, ignoring case and surrounding whitespace.
func CountDistinct(names []string) int {
	seen := make(map[string]struct{}, len(names))
	for _, name := range names {
		key := strings.ToLower(strings.TrimSpace(name))
		if key == "" {
			continue
		}
		seen[key] = struct{}{}
	}
	return len(seen)
}
