package validation

import (
	"errors"
	"testing"
	"time"

	tperrors "github.com/vnykmshr/taskpool/pkg/common/errors"
)

func TestValidatePositive(t *testing.T) {
	tests := []struct {
		name      string
		value     int
		wantError bool
	}{
		{"positive value", 10, false},
		{"one", 1, false},
		{"zero value", 0, true},
		{"negative value", -1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePositive("workerpool", "WorkerCount", tt.value)

			if tt.wantError {
				if !tperrors.IsValidationError(err) {
					t.Fatalf("expected ValidationError, got %T", err)
				}
				if !errors.Is(err, tperrors.ErrInvalidConfiguration) {
					t.Error("expected error to match ErrInvalidConfiguration")
				}
			} else if err != nil {
				t.Errorf("expected no error, got %v", err)
			}
		})
	}
}

func TestValidateNonNegative(t *testing.T) {
	tests := []struct {
		name      string
		value     float64
		wantError bool
	}{
		{"positive value", 10.5, false},
		{"zero value", 0, false},
		{"small negative", -0.001, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateNonNegative("distributed", "Rate", tt.value)
			if (err != nil) != tt.wantError {
				t.Errorf("ValidateNonNegative(%v) error = %v, wantError %v", tt.value, err, tt.wantError)
			}
		})
	}
}

func TestValidateNonNegativeDuration(t *testing.T) {
	if err := ValidateNonNegativeDuration("workerpool", "TaskTimeout", 0); err != nil {
		t.Errorf("zero duration should be valid, got %v", err)
	}
	if err := ValidateNonNegativeDuration("workerpool", "TaskTimeout", time.Second); err != nil {
		t.Errorf("positive duration should be valid, got %v", err)
	}
	if err := ValidateNonNegativeDuration("workerpool", "TaskTimeout", -time.Millisecond); err == nil {
		t.Error("negative duration should be rejected")
	}
}

func TestValidatePositiveFloat(t *testing.T) {
	if err := ValidatePositiveFloat("distributed", "Rate", 0.5); err != nil {
		t.Errorf("positive rate should be valid, got %v", err)
	}
	for _, v := range []float64{0, -1} {
		if err := ValidatePositiveFloat("distributed", "Rate", v); !errors.Is(err, tperrors.ErrInvalidConfiguration) {
			t.Errorf("ValidatePositiveFloat(%v) = %v, want ErrInvalidConfiguration", v, err)
		}
	}
}

func TestValidatePositiveDuration(t *testing.T) {
	if err := ValidatePositiveDuration("scheduler", "interval", time.Millisecond); err != nil {
		t.Errorf("positive interval should be valid, got %v", err)
	}
	if err := ValidatePositiveDuration("scheduler", "interval", 0); err == nil {
		t.Error("zero interval should be rejected")
	}
}

func TestValidateMaxLength(t *testing.T) {
	if err := ValidateMaxLength("scheduler", "id", "abc", 3); err != nil {
		t.Errorf("string at the limit should be valid, got %v", err)
	}
	err := ValidateMaxLength("scheduler", "id", "abcd", 3)
	var verr *tperrors.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected *ValidationError, got %T", err)
	}
	if verr.Field != "id" {
		t.Errorf("Field = %q", verr.Field)
	}
}

func TestValidateNotEmpty(t *testing.T) {
	err := ValidateNotEmpty("scheduler", "id", "")
	if err == nil {
		t.Fatal("empty string should be rejected")
	}

	var verr *tperrors.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected *ValidationError, got %T", err)
	}
	if verr.Hint != "provide a non-empty id" {
		t.Errorf("Hint = %q", verr.Hint)
	}

	if err := ValidateNotEmpty("scheduler", "id", "nightly"); err != nil {
		t.Errorf("non-empty should be accepted, got %v", err)
	}
}
