package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrUnauthenticated  = errors.New("unauthenticated")
	ErrPermissionDenied = errors.New("permission_denied")
	ErrInvalidArgument  = errors.New("invalid_argument")
	ErrNotFound         = errors.New("not_found")
	ErrInternal         = errors.New("internal")
	ErrValidation       = errors.New("validation")
)

// InternalError wraps an unclassified failure at an operation boundary. The
// original code/message stay attached for server-side diagnostics; callers
// only ever see Message.
type InternalError struct {
	Message string
	Code    string
	Cause   error
}

func (e *InternalError) Error() string {
	if e.Cause == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Cause)
}

func (e *InternalError) Unwrap() error { return ErrInternal }

// Classified reports whether err already carries one of the taxonomy kinds.
// Classified errors propagate unchanged; only unclassified failures get
// rewrapped.
func Classified(err error) bool {
	return errors.Is(err, ErrUnauthenticated) ||
		errors.Is(err, ErrPermissionDenied) ||
		errors.Is(err, ErrInvalidArgument) ||
		errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrInternal)
}

// Internal returns err unchanged when it is already classified, otherwise
// wraps it as an InternalError carrying the given caller-facing message.
func Internal(message string, err error) error {
	if err == nil {
		return nil
	}
	if Classified(err) {
		return err
	}
	return &InternalError{Message: message, Code: "unknown", Cause: err}
}

type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "validation failed"
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, e.Fields[k]))
	}
	return "validation failed: " + strings.Join(parts, ", ")
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

func NewValidationError(fields map[string]string) error {
	return &ValidationError{Fields: fields}
}
