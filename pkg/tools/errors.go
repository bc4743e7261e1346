package tools

import (
	"context"
	"errors"
	"fmt"

	"github.com/beq-project/beq/pkg/repository"
)

// ErrorKind classifies tool failures for the model and for callers.
type ErrorKind string

const (
	KindValidation ErrorKind = "validation"
	KindNotFound   ErrorKind = "not_found"
	KindConflict   ErrorKind = "conflict"
	KindAuth       ErrorKind = "auth"
	KindUpstream   ErrorKind = "upstream"
	KindDeadline   ErrorKind = "deadline"
	KindInternal   ErrorKind = "internal"
)

// Error is a structured tool failure. It is always recovered inside the
// registry and surfaced to the model as a tool-error message, never as an
// aborted turn.
type Error struct {
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`
	Hint    string    `json:"hint,omitempty"`
}

func (e *Error) Error() string {
	if e.Hint != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Kind, e.Message, e.Hint)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Errorf builds a structured tool error.
func Errorf(kind ErrorKind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// WithHint attaches a recovery hint for the model.
func (e *Error) WithHint(hint string) *Error {
	e.Hint = hint
	return e
}

// asToolError maps arbitrary handler errors onto the taxonomy. Structured
// errors pass through; repository sentinels and context errors are
// classified; anything else is internal.
func asToolError(err error) *Error {
	var te *Error
	if errors.As(err, &te) {
		return te
	}
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return &Error{Kind: KindNotFound, Message: err.Error(), Hint: "check the id or list existing items first"}
	case errors.Is(err, repository.ErrInvalidInput) || repository.IsValidationError(err):
		return &Error{Kind: KindValidation, Message: err.Error()}
	case errors.Is(err, context.DeadlineExceeded):
		return &Error{Kind: KindDeadline, Message: "tool execution timed out"}
	case errors.Is(err, context.Canceled):
		return &Error{Kind: KindDeadline, Message: "tool execution was cancelled"}
	default:
		return &Error{Kind: KindInternal, Message: err.Error()}
	}
}
