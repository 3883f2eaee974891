package core

import (
	"errors"
	"fmt"
)

var (
	ErrValidation = errors.New("validation failed")
	// ErrInvalidInvite covers unknown, expired and already-used tokens alike.
	ErrInvalidInvite = errors.New("invalid or expired invite")
	ErrForbidden     = errors.New("forbidden")
	ErrNotFound      = errors.New("not found")
	ErrConflict      = errors.New("conflict")

	ErrInvalidDay    = NewValidationError("day", "invalid day")
	ErrInvalidMonth  = NewValidationError("month", "must be between 1 and 12")
	ErrInvalidAmount = NewValidationError("amount", "must be a positive number")
	ErrSameWallet    = NewValidationError("toWalletId", "must differ from fromWalletId")
	ErrEmptyUpdate   = NewValidationError("body", "no updatable fields supplied")
)

// ValidationError is a user-facing input error. It matches ErrValidation with errors.Is.
type ValidationError struct {
	Field string
	Msg   string
}

func NewValidationError(field, msg string) *ValidationError {
	return &ValidationError{Field: field, Msg: msg}
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Msg
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Msg)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}
