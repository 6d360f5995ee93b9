package errors

import (
	"errors"
	"strings"
	"testing"
)

func TestCommonErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"ErrClosed", ErrClosed, "resource is closed"},
		{"ErrTimeout", ErrTimeout, "operation timed out"},
		{"ErrInvalidConfiguration", ErrInvalidConfiguration, "invalid configuration"},
		{"ErrRateLimited", ErrRateLimited, "rate limited"},
		{"ErrQueueClosed", ErrQueueClosed, "work queue is closed"},
		{"ErrPoolShuttingDown", ErrPoolShuttingDown, "worker pool is shutting down: resource is closed"},
		{"ErrCancelled", ErrCancelled, "task cancelled before execution"},
		{"ErrAlreadyRetrieved", ErrAlreadyRetrieved, "result already retrieved"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPoolShuttingDownIsClosed(t *testing.T) {
	if !errors.Is(ErrPoolShuttingDown, ErrClosed) {
		t.Error("ErrPoolShuttingDown should match ErrClosed")
	}
	if errors.Is(ErrQueueClosed, ErrPoolShuttingDown) {
		t.Error("ErrQueueClosed should not match ErrPoolShuttingDown")
	}
}

func TestValidationError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *ValidationError
		want string
	}{
		{
			name: "without hint",
			err: &ValidationError{
				Module: "workerpool",
				Field:  "WorkerCount",
				Value:  0,
				Reason: "must be positive",
			},
			want: "workerpool: invalid WorkerCount=0 (must be positive)",
		},
		{
			name: "with hint",
			err: &ValidationError{
				Module: "workerpool",
				Field:  "WorkerCount",
				Value:  -3,
				Reason: "must be positive",
				Hint:   "use a value greater than 0",
			},
			want: "workerpool: invalid WorkerCount=-3 (must be positive) - use a value greater than 0",
		},
		{
			name: "string value",
			err: &ValidationError{
				Module: "scheduler",
				Field:  "cron",
				Value:  "",
				Reason: "cannot be empty",
			},
			want: "scheduler: invalid cron= (cannot be empty)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestValidationError_Unwrap(t *testing.T) {
	verr := NewValidationError("test", "field", 0, "test")

	if verr.Unwrap() != ErrInvalidConfiguration {
		t.Errorf("Unwrap() = %v, want ErrInvalidConfiguration", verr.Unwrap())
	}
	if !errors.Is(verr, ErrInvalidConfiguration) {
		t.Error("ValidationError should wrap ErrInvalidConfiguration")
	}
}

func TestValidationError_WithHint(t *testing.T) {
	err := NewValidationError("test", "field", 0, "invalid").
		WithHint("try using a positive value")

	if err.Hint != "try using a positive value" {
		t.Errorf("Hint = %q, want %q", err.Hint, "try using a positive value")
	}

	if result := err.WithHint("new hint"); result != err {
		t.Error("WithHint should return the same instance")
	}
}

func TestOperationError(t *testing.T) {
	cause := errors.New("connection refused")
	err := NewOperationError("distributed", "Wait", cause).WithContext("redis unreachable")

	want := "distributed.Wait failed: connection refused (redis unreachable)"
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if !errors.Is(err, cause) {
		t.Error("OperationError should wrap the cause error")
	}

	bare := NewOperationError("scheduler", "Start", cause)
	if got := bare.Error(); got != "scheduler.Start failed: connection refused" {
		t.Errorf("Error() = %q", got)
	}
}

func TestTaskError(t *testing.T) {
	t.Run("non-error panic value", func(t *testing.T) {
		err := &TaskError{Panic: "boom", Stack: []byte("goroutine 1")}
		if got := err.Error(); got != "task panicked: boom" {
			t.Errorf("Error() = %q", got)
		}
		if err.Unwrap() != nil {
			t.Error("Unwrap should be nil for non-error panic values")
		}
		if !IsPanic(err) {
			t.Error("IsPanic should recognise TaskError")
		}
	})

	t.Run("error panic value", func(t *testing.T) {
		cause := errors.New("bad state")
		err := &TaskError{Panic: cause}
		if !errors.Is(err, cause) {
			t.Error("TaskError should unwrap to the panicked error")
		}
	})
}

func TestClassifiers(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		retryable bool
		temporary bool
		cancelled bool
	}{
		{"timeout", ErrTimeout, true, true, false},
		{"rate limited", ErrRateLimited, true, false, false},
		{"closed", ErrClosed, false, false, false},
		{"cancelled", ErrCancelled, false, false, true},
		{"wrapped timeout", &OperationError{Cause: ErrTimeout}, true, true, false},
		{"wrapped cancelled", &OperationError{Cause: ErrCancelled}, false, false, true},
		{"random", errors.New("random"), false, false, false},
		{"nil", nil, false, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsRetryable(tt.err); got != tt.retryable {
				t.Errorf("IsRetryable() = %v, want %v", got, tt.retryable)
			}
			if got := IsTemporary(tt.err); got != tt.temporary {
				t.Errorf("IsTemporary() = %v, want %v", got, tt.temporary)
			}
			if got := IsCancelled(tt.err); got != tt.cancelled {
				t.Errorf("IsCancelled() = %v, want %v", got, tt.cancelled)
			}
		})
	}
}

func TestIsValidationError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"validation error", NewValidationError("test", "field", 0, "test"), true},
		{"wrapped validation error", &OperationError{Cause: NewValidationError("test", "field", 0, "test")}, true},
		{"operation error", &OperationError{Cause: errors.New("test")}, false},
		{"sentinel", ErrInvalidConfiguration, false},
		{"nil error", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsValidationError(tt.err); got != tt.want {
				t.Errorf("IsValidationError() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestErrorMessages(t *testing.T) {
	err := NewValidationError("mymodule", "myfield", 42, "must be less than 10").
		WithHint("use a value between 0 and 10")

	msg := err.Error()
	for _, part := range []string{"mymodule", "myfield", "42", "must be less than 10", "use a value between 0 and 10"} {
		if !strings.Contains(msg, part) {
			t.Errorf("error message should contain %q, got %q", part, msg)
		}
	}
}
