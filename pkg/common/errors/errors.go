package errors

import (
	"errors"
	"fmt"
)

// Common error types used across the taskpool library

var (
	// ErrClosed indicates that an operation was attempted on a closed resource
	ErrClosed = errors.New("resource is closed")

	// ErrTimeout indicates that an operation timed out
	ErrTimeout = errors.New("operation timed out")

	// ErrInvalidConfiguration indicates invalid configuration parameters
	ErrInvalidConfiguration = errors.New("invalid configuration")

	// ErrRateLimited indicates that a request was rate limited
	ErrRateLimited = errors.New("rate limited")

	// ErrQueueClosed indicates an enqueue on a work queue that no longer accepts tasks
	ErrQueueClosed = errors.New("work queue is closed")

	// ErrPoolShuttingDown indicates a submission after shutdown began.
	// It matches ErrClosed through errors.Is.
	ErrPoolShuttingDown = fmt.Errorf("worker pool is shutting down: %w", ErrClosed)

	// ErrCancelled is the outcome of a task that was discarded before it started
	ErrCancelled = errors.New("task cancelled before execution")

	// ErrAlreadyRetrieved is returned when a task outcome is retrieved more than once
	ErrAlreadyRetrieved = errors.New("result already retrieved")

	// ErrNilTask indicates a nil callable was submitted
	ErrNilTask = errors.New("task cannot be nil")
)

// ValidationError describes a configuration value that failed validation.
type ValidationError struct {
	Module string
	Field  string
	Value  interface{}
	Reason string
	Hint   string
}

// NewValidationError creates a ValidationError without a hint.
func NewValidationError(module, field string, value interface{}, reason string) *ValidationError {
	return &ValidationError{
		Module: module,
		Field:  field,
		Value:  value,
		Reason: reason,
	}
}

// WithHint attaches a remediation hint and returns the same error for chaining.
func (e *ValidationError) WithHint(hint string) *ValidationError {
	e.Hint = hint
	return e
}

func (e *ValidationError) Error() string {
	msg := fmt.Sprintf("%s: invalid %s=%v (%s)", e.Module, e.Field, e.Value, e.Reason)
	if e.Hint != "" {
		msg += " - " + e.Hint
	}
	return msg
}

// Unwrap makes every ValidationError match ErrInvalidConfiguration.
func (e *ValidationError) Unwrap() error {
	return ErrInvalidConfiguration
}

// OperationError records which operation of which module failed and why.
type OperationError struct {
	Module    string
	Operation string
	Cause     error
	Context   string
}

// NewOperationError creates an OperationError for the given cause.
func NewOperationError(module, operation string, cause error) *OperationError {
	return &OperationError{
		Module:    module,
		Operation: operation,
		Cause:     cause,
	}
}

// WithContext attaches free-form context and returns the same error for chaining.
func (e *OperationError) WithContext(context string) *OperationError {
	e.Context = context
	return e
}

func (e *OperationError) Error() string {
	msg := fmt.Sprintf("%s.%s failed: %v", e.Module, e.Operation, e.Cause)
	if e.Context != "" {
		msg += " (" + e.Context + ")"
	}
	return msg
}

func (e *OperationError) Unwrap() error {
	return e.Cause
}

// TaskError carries a panic recovered while a task was executing.
// Errors returned normally by a task are never wrapped in a TaskError.
type TaskError struct {
	// Panic is the value passed to panic.
	Panic interface{}

	// Stack is the goroutine stack captured at recovery time.
	Stack []byte
}

func (e *TaskError) Error() string {
	return fmt.Sprintf("task panicked: %v", e.Panic)
}

// Unwrap exposes the panic value when the task panicked with an error.
func (e *TaskError) Unwrap() error {
	if err, ok := e.Panic.(error); ok {
		return err
	}
	return nil
}

// IsRetryable returns true if the error indicates a condition that might
// be resolved by retrying the operation
func IsRetryable(err error) bool {
	return errors.Is(err, ErrTimeout) || errors.Is(err, ErrRateLimited)
}

// IsTemporary returns true if the error indicates a temporary condition
func IsTemporary(err error) bool {
	return errors.Is(err, ErrTimeout)
}

// IsCancelled reports whether err is the outcome of a task discarded before it ran.
func IsCancelled(err error) bool {
	return errors.Is(err, ErrCancelled)
}

// IsValidationError reports whether err is, or wraps, a ValidationError.
func IsValidationError(err error) bool {
	var verr *ValidationError
	return errors.As(err, &verr)
}

// IsPanic reports whether err is, or wraps, a recovered task panic.
func IsPanic(err error) bool {
	var terr *TaskError
	return errors.As(err, &terr)
}
