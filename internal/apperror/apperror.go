package apperror

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound    = errors.New("not found")
	ErrValidation  = errors.New("validation error")
	ErrUnavailable = errors.New("backend unavailable")
	ErrPersistence = errors.New("persistence failure")
)

type AppError struct {
	Err     error  // sentinel cause, for errors.Is checks
	Message string // human-readable error message
	Field   string // optional: field causing a validation error
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NotFound(resource, id string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found with id %s", resource, id),
	}
}

func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
	}
}

// Unavailable classifies any backend failure — network error, non-success
// status, or an explicit fallback signal in the response body — into the
// single signal the reconciling repository acts on. The cause is kept for
// logging; callers only ever branch on ErrUnavailable.
func Unavailable(op string, cause error) *AppError {
	err := ErrUnavailable
	msg := fmt.Sprintf("backend unavailable during %s", op)
	if cause != nil {
		// Wrap both the sentinel and the cause so errors.Is(err,
		// ErrUnavailable) and errors.As against the cause both work.
		err = fmt.Errorf("%w: %w", ErrUnavailable, cause)
		msg = fmt.Sprintf("%s: %v", msg, cause)
	}
	return &AppError{
		Err:     err,
		Message: msg,
	}
}

// PersistenceFailed reports that the local mirror could not read or write
// its persisted medium. These are logged and swallowed by the caller — the
// in-memory result stands even when durability was lost.
func PersistenceFailed(op string, cause error) *AppError {
	err := ErrPersistence
	if cause != nil {
		err = fmt.Errorf("%w: %w", ErrPersistence, cause)
	}
	return &AppError{
		Err:     err,
		Message: fmt.Sprintf("local persistence failed during %s: %v", op, cause),
	}
}
