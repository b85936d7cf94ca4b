// Package errs holds the error values shared by the stores, the engine and the conversation flows.
package errs

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound         = errors.New("not found")
	ErrPermissionDenied = errors.New("permission denied")
	ErrNotConfigured    = errors.New("guild is not configured")
	ErrAlreadyClosed    = errors.New("application already closed")
	ErrClosed           = errors.New("application is closed")
	ErrLimitExceeded    = errors.New("submission limit reached")
	ErrDeliveryFailure  = errors.New("message could not be delivered")
	ErrConflict         = errors.New("id already in use")
)

// ValidationError reports malformed user input inside a conversation flow.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func Invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

// Delivery wraps a failed message delivery to a single recipient.
func Delivery(recipient string, err error) error {
	return fmt.Errorf("%w to %s: %v", ErrDeliveryFailure, recipient, err)
}
