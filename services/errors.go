package services

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// NotFoundError means a referenced table, order or menu item does not exist.
type NotFoundError struct {
	Message string
	Err     error
}

func (e *NotFoundError) Error() string { return e.Message }
func (e *NotFoundError) Unwrap() error { return e.Err }

// InvalidStateError means the requested transition is not allowed from the
// current table or order state.
type InvalidStateError struct {
	Message string
}

func (e *InvalidStateError) Error() string { return e.Message }

// ValidationError means the input was malformed.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

func IsNotFound(err error) bool {
	var target *NotFoundError
	return errors.As(err, &target)
}

func IsInvalidState(err error) bool {
	var target *InvalidStateError
	return errors.As(err, &target)
}

func IsValidation(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}

func notFound(resource string, id uint, err error) error {
	return &NotFoundError{Message: fmt.Sprintf("%s %d not found", resource, id), Err: err}
}

// lookupErr converts a gorm lookup failure into a NotFoundError when the row
// is missing and wraps anything else.
func lookupErr(resource string, id uint, err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return notFound(resource, id, err)
	}
	return fmt.Errorf("load %s %d: %w", resource, id, err)
}

// writeErr maps a violation of the one-active-order index onto the state
// machine error seen by callers.
func writeErr(action string, err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return &InvalidStateError{Message: "table already has an active order"}
	}
	return fmt.Errorf("%s: %w", action, err)
}
