package domain

import (
	validation "github.com/jellydator/validation"

	apperrors "github.com/allisson/viewvault/internal/errors"
)

// Validate checks the entry before it is turned into a record.
func (e Entry) Validate() error {
	actions := make([]any, len(Actions))
	for i, a := range Actions {
		actions[i] = a
	}

	err := validation.ValidateStruct(&e,
		validation.Field(&e.Actor, validation.Required, validation.Length(1, 255)),
		validation.Field(&e.Action, validation.Required, validation.In(actions...)),
		validation.Field(&e.TargetID, validation.Length(0, 255)),
		validation.Field(&e.Reason, validation.Length(0, 1024)),
		validation.Field(&e.Outcome, validation.Required, validation.In(OutcomeSuccess, OutcomeFailure)),
	)
	if err != nil {
		return apperrors.Wrap(ErrInvalidEntry, err.Error())
	}
	return nil
}
