package handler

import (
	"errors"
	"fmt"

	"github.com/glizzus/cronspan/internal/cronspan"
)

// UserError is an error type that is used to represent
// an error that should be displayed to the user.
type UserError struct {
	Message string
}

func (e *UserError) Error() string {
	return e.Message
}

var _ error = (*UserError)(nil)

// inputError turns a failure to read or decompose user input into a UserError.
func inputError(err error) error {
	var rangeErr *cronspan.InvalidRangeError
	if errors.As(err, &rangeErr) {
		return &UserError{
			Message: fmt.Sprintf("The start date %s is after the end date %s.", rangeErr.Start, rangeErr.End),
		}
	}
	return &UserError{Message: "Could not read your input: " + err.Error()}
}
