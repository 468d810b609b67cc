package saltedfs

import (
	"errors"
	"fmt"
	"testing"
)

func TestValidationError(t *testing.T) {
	tests := []struct {
		name    string
		err     *ValidationError
		wantMsg string
	}{
		{
			name: "with field",
			err: &ValidationError{
				Field:   "salt",
				Value:   4,
				Message: "too short",
			},
			wantMsg: "validation error: salt: too short",
		},
		{
			name: "without field",
			err: &ValidationError{
				Message: "invalid configuration",
			},
			wantMsg: "validation error: invalid configuration",
		},
		{
			name: "with wrapped error",
			err: &ValidationError{
				Field:   "algorithm",
				Message: "cipher algorithm is not registered",
				Err:     ErrUnsupportedAlgorithm,
			},
			wantMsg: "validation error: algorithm: cipher algorithm is not registered",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.wantMsg {
				t.Errorf("ValidationError.Error() = %q, want %q", got, tt.wantMsg)
			}
			if !errors.Is(tt.err, ErrInvalidArgument) {
				t.Error("ValidationError should match ErrInvalidArgument")
			}
			if tt.err.Err != nil && !errors.Is(tt.err, tt.err.Err) {
				t.Errorf("ValidationError should unwrap to %v", tt.err.Err)
			}
		})
	}
}

func TestConfigError(t *testing.T) {
	err := &ConfigError{Problems: []*ValidationError{
		{Field: "algorithm", Message: "cipher algorithm is not set"},
		{Field: "sink", Message: "output stream is not set"},
	}}

	want := "invalid configuration: algorithm: cipher algorithm is not set; sink: output stream is not set"
	if got := err.Error(); got != want {
		t.Errorf("ConfigError.Error() = %q, want %q", got, want)
	}
	if !errors.Is(err, ErrInvalidConfiguration) || !errors.Is(err, ErrInvalidArgument) {
		t.Error("ConfigError should match ErrInvalidConfiguration and ErrInvalidArgument")
	}
}

func TestCryptoError(t *testing.T) {
	tests := []struct {
		name    string
		err     *CryptoError
		wantMsg string
	}{
		{
			name: "with context",
			err: &CryptoError{
				Operation: "decrypt",
				ContextID: "5f1c",
				Message:   "bad padding",
				Err:       ErrInvalidPadding,
			},
			wantMsg: "decrypt failed (context 5f1c): bad padding",
		},
		{
			name: "without context",
			err: &CryptoError{
				Operation: "encrypt",
				Message:   "salt cannot be nil",
			},
			wantMsg: "encrypt failed: salt cannot be nil",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.wantMsg {
				t.Errorf("CryptoError.Error() = %q, want %q", got, tt.wantMsg)
			}
			if !errors.Is(tt.err, ErrCryptoOperation) {
				t.Error("CryptoError should match ErrCryptoOperation")
			}
		})
	}
}

func TestIOError(t *testing.T) {
	err := &IOError{Operation: "write", Message: "disk full"}
	if got, want := err.Error(), "io error: write: disk full"; got != want {
		t.Errorf("IOError.Error() = %q, want %q", got, want)
	}
}

func TestErrorCheckers(t *testing.T) {
	ve := &ValidationError{Message: "test"}
	cfg := &ConfigError{Problems: []*ValidationError{ve}}
	ce := &CryptoError{Operation: "encrypt", Message: "test"}
	ie := &IOError{Operation: "read", Message: "test"}
	genericErr := errors.New("generic error")

	tests := []struct {
		name string
		err  error
		fn   func(error) bool
		want bool
	}{
		{"IsValidationError with ValidationError", ve, IsValidationError, true},
		{"IsValidationError wrapped", fmt.Errorf("outer: %w", ve), IsValidationError, true},
		{"IsValidationError with other error", genericErr, IsValidationError, false},
		{"IsConfigError with ConfigError", cfg, IsConfigError, true},
		{"IsConfigError with other error", genericErr, IsConfigError, false},
		{"IsCryptoError with CryptoError", ce, IsCryptoError, true},
		{"IsCryptoError with other error", genericErr, IsCryptoError, false},
		{"IsIOError with IOError", ie, IsIOError, true},
		{"IsIOError with other error", genericErr, IsIOError, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.fn(tt.err); got != tt.want {
				t.Errorf("error checker = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestErrorConstructors(t *testing.T) {
	t.Run("NewValidationError", func(t *testing.T) {
		err := NewValidationError("field", 123, "invalid value")
		ve, ok := err.(*ValidationError)
		if !ok {
			t.Fatal("NewValidationError should create ValidationError")
		}
		if ve.Field != "field" || ve.Value != 123 || ve.Message != "invalid value" {
			t.Errorf("NewValidationError fields incorrect: %+v", ve)
		}
	})

	t.Run("NewCryptoError", func(t *testing.T) {
		err := NewCryptoError("decrypt", "ctx-1", ErrTruncatedInput)
		ce, ok := err.(*CryptoError)
		if !ok {
			t.Fatal("NewCryptoError should create CryptoError")
		}
		if ce.Operation != "decrypt" || ce.ContextID != "ctx-1" || ce.Message != ErrTruncatedInput.Error() {
			t.Errorf("NewCryptoError fields incorrect: %+v", ce)
		}
		if !errors.Is(err, ErrTruncatedInput) {
			t.Error("CryptoError should unwrap to its cause")
		}
	})

	t.Run("NewIOError", func(t *testing.T) {
		base := errors.New("broken pipe")
		err := NewIOError("close", base)
		ie, ok := err.(*IOError)
		if !ok {
			t.Fatal("NewIOError should create IOError")
		}
		if ie.Operation != "close" || !errors.Is(err, base) {
			t.Errorf("NewIOError fields incorrect: %+v", ie)
		}
	})
}
