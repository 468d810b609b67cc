package saltedfs

import (
	"fmt"
)

// Input validation helpers

// ValidateSalt checks that a salt is exactly SaltSize bytes
func ValidateSalt(salt []byte) error {
	if salt == nil {
		return &ValidationError{
			Field:   "salt",
			Message: "salt cannot be nil",
		}
	}
	if len(salt) != SaltSize {
		return &ValidationError{
			Field:   "salt",
			Value:   len(salt),
			Message: fmt.Sprintf("invalid salt size: got %d bytes, expected %d bytes", len(salt), SaltSize),
		}
	}
	return nil
}

// ValidateKey checks that a key is long enough for the algorithm
func ValidateKey(key []byte, alg CipherAlgorithm) error {
	if key == nil {
		return &ValidationError{
			Field:   "secret_key",
			Message: "secret key is not set",
		}
	}
	if len(key) < alg.KeySize() {
		return &ValidationError{
			Field:   "secret_key",
			Value:   len(key),
			Message: fmt.Sprintf("secret key too short: got %d bytes, need at least %d bytes for %s", len(key), alg.KeySize(), alg),
		}
	}
	return nil
}

// ValidateIV checks that an IV has exactly one block when the algorithm uses one
func ValidateIV(iv []byte, alg CipherAlgorithm) error {
	if !alg.UsesIV() {
		return nil
	}
	if iv == nil {
		return &ValidationError{
			Field:   "iv",
			Message: "iv is not set",
		}
	}
	if len(iv) != alg.IVSize() {
		return &ValidationError{
			Field:   "iv",
			Value:   len(iv),
			Message: fmt.Sprintf("invalid iv size: got %d bytes, expected %d bytes for %s", len(iv), alg.IVSize(), alg),
		}
	}
	return nil
}

// ValidateAlgorithm checks that an algorithm is set and registered
func ValidateAlgorithm(alg CipherAlgorithm) error {
	if alg == CipherUnspecified {
		return &ValidationError{
			Field:   "algorithm",
			Message: "cipher algorithm is not set",
		}
	}
	if !alg.IsValid() {
		return &ValidationError{
			Field:   "algorithm",
			Value:   alg,
			Message: "cipher algorithm is not registered",
			Err:     ErrUnsupportedAlgorithm,
		}
	}
	return nil
}

// ValidateOperation checks that an operation mode is set
func ValidateOperation(mode OperationMode) error {
	if !mode.IsValid() {
		return &ValidationError{
			Field:   "operation",
			Value:   mode,
			Message: "cipher operation is not set",
		}
	}
	return nil
}

// ValidateBufferSize checks a stream buffer size
func ValidateBufferSize(size int) error {
	if size < 0 {
		return &ValidationError{
			Field:   "buffer_size",
			Value:   size,
			Message: "size cannot be negative",
		}
	}
	return nil
}
