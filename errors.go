package saltedfs

import (
	"errors"
	"fmt"
	"strings"
)

// Error types represent different categories of errors

// Common sentinel errors
var (
	ErrInvalidArgument      = errors.New("invalid argument")
	ErrInvalidConfiguration = errors.New("invalid configuration")
	ErrTruncatedInput       = errors.New("truncated input: salted header requires 16 bytes")
	ErrInvalidPadding       = errors.New("invalid padding - wrong key or corrupted ciphertext")
	ErrUnsupportedAlgorithm = errors.New("unsupported cipher algorithm")
	ErrCryptoOperation      = errors.New("cryptographic operation failed")
	ErrInvalidHeader        = errors.New("invalid salted header")
	ErrInvalidCiphertext    = errors.New("invalid ciphertext: length is not a multiple of the block size")
	ErrTransformFinished    = errors.New("cipher transform already finalized")
	ErrClosed               = errors.New("stream is closed")
	ErrNilConfig            = errors.New("config cannot be nil")
	ErrNilKeyProvider       = errors.New("key provider cannot be nil")
)

// ValidationError represents an invalid argument or configuration field
type ValidationError struct {
	Field   string // The field or parameter that failed validation
	Value   any    // The invalid value
	Message string // Human-readable error message
	Err     error  // Underlying error, if any
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation error: %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation error: %s", e.Message)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// Is reports ErrInvalidArgument for every validation error.
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidArgument
}

// ConfigError aggregates every field a builder rejected.
type ConfigError struct {
	Problems []*ValidationError
}

func (e *ConfigError) Error() string {
	msgs := make([]string, 0, len(e.Problems))
	for _, p := range e.Problems {
		msgs = append(msgs, fmt.Sprintf("%s: %s", p.Field, p.Message))
	}
	return fmt.Sprintf("invalid configuration: %s", strings.Join(msgs, "; "))
}

// Fields returns the names of the offending fields in check order.
func (e *ConfigError) Fields() []string {
	fields := make([]string, 0, len(e.Problems))
	for _, p := range e.Problems {
		fields = append(fields, p.Field)
	}
	return fields
}

func (e *ConfigError) Is(target error) bool {
	return target == ErrInvalidConfiguration || target == ErrInvalidArgument
}

// CryptoError wraps the root cause of a failed one-shot crypt command
type CryptoError struct {
	Operation string // "encrypt" or "decrypt"
	ContextID string // CryptContext ID, if known
	Message   string // Human-readable error message
	Err       error  // Underlying error
}

func (e *CryptoError) Error() string {
	if e.ContextID != "" {
		return fmt.Sprintf("%s failed (context %s): %s", e.Operation, e.ContextID, e.Message)
	}
	return fmt.Sprintf("%s failed: %s", e.Operation, e.Message)
}

func (e *CryptoError) Unwrap() error {
	return e.Err
}

func (e *CryptoError) Is(target error) bool {
	return target == ErrCryptoOperation
}

// IOError represents a failure of the underlying stream
type IOError struct {
	Operation string // "read", "write", "flush", "close"
	Message   string // Human-readable error message
	Err       error  // Underlying error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("io error: %s: %s", e.Operation, e.Message)
}

func (e *IOError) Unwrap() error {
	return e.Err
}

// Helper functions for creating structured errors

// NewValidationError creates a new validation error
func NewValidationError(field string, value any, message string) error {
	return &ValidationError{
		Field:   field,
		Value:   value,
		Message: message,
	}
}

// NewCryptoError creates a new crypto error
func NewCryptoError(operation, contextID string, err error) error {
	return &CryptoError{
		Operation: operation,
		ContextID: contextID,
		Message:   err.Error(),
		Err:       err,
	}
}

// NewIOError creates a new I/O error
func NewIOError(operation string, err error) error {
	return &IOError{
		Operation: operation,
		Message:   err.Error(),
		Err:       err,
	}
}

// Error checking helpers

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsConfigError checks if an error is an aggregated builder configuration error
func IsConfigError(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}

// IsCryptoError checks if an error is a crypt command failure
func IsCryptoError(err error) bool {
	var ce *CryptoError
	return errors.As(err, &ce)
}

// IsIOError checks if an error is an I/O error
func IsIOError(err error) bool {
	var ie *IOError
	return errors.As(err, &ie)
}
