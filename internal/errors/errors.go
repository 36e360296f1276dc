// Package errors provides custom error types for domain-specific errors.
package errors

import (
	"errors"
	"fmt"
)

// Standard sentinel errors
var (
	ErrUnknownStructure = errors.New("unknown structure type")
	ErrInvalidOrder     = errors.New("invalid order")
	ErrNoQuote          = errors.New("missing quote for leg")
	ErrNoExpiration     = errors.New("chain has no expirations")
	ErrAlreadySettled   = errors.New("position already settled")
	ErrUnknownSession   = errors.New("session not found")
	ErrCorruptState     = errors.New("corrupt persisted state")
	ErrStoreClosed      = errors.New("store is closed")
)

// ValidationError describes a malformed order that was rejected before
// pricing was attempted.
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s (%v): %s", e.Field, e.Value, e.Message)
}

// NewValidationError creates a new ValidationError.
func NewValidationError(field string, value interface{}, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Value:   value,
		Message: message,
	}
}

// StoreError represents a persistence failure.
type StoreError struct {
	Op  string
	Key string
	Err error
}

func (e *StoreError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("store error [%s] %s: %v", e.Op, e.Key, e.Err)
	}
	return fmt.Sprintf("store error [%s]: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// NewStoreError creates a new StoreError.
func NewStoreError(op, key string, err error) *StoreError {
	return &StoreError{Op: op, Key: key, Err: err}
}
