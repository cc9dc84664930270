// Package apperr defines the error kinds surfaced by the service layer.
// Handlers translate a kind into an HTTP status; everything else is a 500.
package apperr

import (
	"errors"
	"fmt"
)

var (
	ErrValidation      = errors.New("validation error")
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrForbidden       = errors.New("forbidden")
	ErrNotFound        = errors.New("not found")
	ErrConflict        = errors.New("conflict")
)

// Error carries a human readable message alongside its kind.
type Error struct {
	Kind    error
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// Is lets errors.Is(err, ErrConflict) match an *Error of that kind.
func (e *Error) Is(target error) bool {
	return e.Kind == target
}

func (e *Error) Unwrap() error {
	return e.Kind
}

func newf(kind error, format string, args ...any) error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func Validation(format string, args ...any) error {
	return newf(ErrValidation, format, args...)
}

func Unauthenticated(format string, args ...any) error {
	return newf(ErrUnauthenticated, format, args...)
}

func Forbidden(format string, args ...any) error {
	return newf(ErrForbidden, format, args...)
}

func NotFound(format string, args ...any) error {
	return newf(ErrNotFound, format, args...)
}

func Conflict(format string, args ...any) error {
	return newf(ErrConflict, format, args...)
}

// InvalidTransition reports a status change whose precondition no longer holds.
func InvalidTransition(entity string, id uint, from, to string) error {
	return newf(ErrConflict, "%s %d is %s and cannot become %s", entity, id, from, to)
}

// Message returns the client-facing message for err, or "" if err has no kind.
func Message(err error) string {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return ""
}
