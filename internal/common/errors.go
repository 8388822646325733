// Package common provides shared utilities and types used across the application.
package common

import "errors"

// Common application errors.
var (
	// Ledger validation errors.
	ErrInvalidDate      = errors.New("invalid date")
	ErrCategoryNotFound = errors.New("category not found")
	ErrNotFound         = errors.New("not found")
	ErrEmptyName        = errors.New("name cannot be empty")
	ErrNameTooLong      = errors.New("name too long")
	ErrDuplicateName    = errors.New("name already exists")

	// Storage errors.
	ErrPersistence = errors.New("persistence failure")
)

// UserError pairs a terminal-safe message with the underlying cause.
type UserError struct {
	msg   string
	cause error
}

func (e *UserError) Error() string {
	if e.cause == nil {
		return e.msg
	}
	return e.msg + ": " + e.cause.Error()
}

func (e *UserError) Unwrap() error { return e.cause }

// Message returns the text meant for the terminal.
func (e *UserError) Message() string { return e.msg }

// NewUserError wraps err with a message safe to show the user.
func NewUserError(userMessage string, err error) error {
	return &UserError{msg: userMessage, cause: err}
}

// UserMessage extracts the user-facing message from an error, falling
// back to a generic one so storage internals never reach the terminal.
func UserMessage(err error) string {
	var userErr *UserError
	switch {
	case errors.As(err, &userErr):
		return userErr.Message()
	case errors.Is(err, ErrPersistence):
		return "something went wrong saving your changes; please try again"
	}
	return err.Error()
}
