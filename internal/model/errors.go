package model

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrNotFound   = errors.New("not found")
	ErrValidation = errors.New("validation error")
	ErrInvariant  = errors.New("invariant violation")
	ErrConflict   = errors.New("conflict")
)

// ValidationError carries per-field messages for malformed input.
type ValidationError struct {
	Fields map[string]string
}

func NewValidationError() *ValidationError {
	return &ValidationError{Fields: make(map[string]string)}
}

// Add records a message for field, keeping the first one.
func (e *ValidationError) Add(field, message string) {
	if _, ok := e.Fields[field]; !ok {
		e.Fields[field] = message
	}
}

func (e *ValidationError) Empty() bool { return len(e.Fields) == 0 }

// OrNil returns nil when no field failed.
func (e *ValidationError) OrNil() error {
	if e.Empty() {
		return nil
	}
	return e
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, e.Fields[k]))
	}
	return "validation error: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// FieldError is a shorthand for a single-field validation failure.
func FieldError(field, message string) error {
	e := NewValidationError()
	e.Add(field, message)
	return e
}

// InvariantError rejects an operation that would break a structural rule.
type InvariantError struct {
	Reason string
}

func (e *InvariantError) Error() string { return "invariant violation: " + e.Reason }

func (e *InvariantError) Is(target error) bool { return target == ErrInvariant }

// NotFound wraps ErrNotFound with the missing entity.
func NotFound(kind Kind, id uint) error {
	return fmt.Errorf("%s %d: %w", kind, id, ErrNotFound)
}
