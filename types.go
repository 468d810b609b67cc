package saltedfs

import (
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"fmt"
	"hash"
	"strings"

	"github.com/absfs/absfs"
	"github.com/rs/zerolog"
)

// CipherAlgorithm identifies a registered block cipher suite
type CipherAlgorithm uint8

const (
	// CipherUnspecified is the zero value and is never valid
	CipherUnspecified CipherAlgorithm = iota
	// AES128CBC uses AES with a 128-bit key in CBC mode with PKCS#7 padding
	AES128CBC
	// AES256CBC uses AES with a 256-bit key in CBC mode with PKCS#7 padding
	AES256CBC
)

// TransformSeparator splits a transformation into algorithm, mode and padding.
const TransformSeparator = "/"

type algorithmSpec struct {
	name           string
	transformation string
	keyBits        int
	usesIV         bool
}

// registry is populated once and never modified.
var registry = map[CipherAlgorithm]algorithmSpec{
	AES128CBC: {name: "aes-128-cbc", transformation: "AES/CBC/PKCS7Padding", keyBits: 128, usesIV: true},
	AES256CBC: {name: "aes-256-cbc", transformation: "AES/CBC/PKCS7Padding", keyBits: 256, usesIV: true},
}

// ParseCipherAlgorithm looks up an algorithm by its OpenSSL name, e.g. "aes-256-cbc"
func ParseCipherAlgorithm(name string) (CipherAlgorithm, error) {
	name = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(name), "-"))
	for alg, spec := range registry {
		if spec.name == name {
			return alg, nil
		}
	}
	return CipherUnspecified, fmt.Errorf("%w: %q", ErrUnsupportedAlgorithm, name)
}

// IsValid reports whether the algorithm is in the registry
func (c CipherAlgorithm) IsValid() bool {
	_, ok := registry[c]
	return ok
}

// String returns the OpenSSL name of the algorithm
func (c CipherAlgorithm) String() string {
	if spec, ok := registry[c]; ok {
		return spec.name
	}
	if c == CipherUnspecified {
		return "unspecified"
	}
	return "unknown"
}

// Transformation returns the algorithm/mode/padding triple
func (c CipherAlgorithm) Transformation() string {
	return registry[c].transformation
}

// Algorithm returns the first part of the transformation ("AES")
func (c CipherAlgorithm) Algorithm() string {
	return c.transformPart(0)
}

// Mode returns the mode of operation ("CBC")
func (c CipherAlgorithm) Mode() string {
	return c.transformPart(1)
}

// Padding returns the padding scheme ("PKCS7Padding")
func (c CipherAlgorithm) Padding() string {
	return c.transformPart(2)
}

func (c CipherAlgorithm) transformPart(i int) string {
	parts := strings.Split(c.Transformation(), TransformSeparator)
	if i >= len(parts) {
		return ""
	}
	return parts[i]
}

// KeyBits returns the key length in bits
func (c CipherAlgorithm) KeyBits() int {
	return registry[c].keyBits
}

// KeySize returns the key length in bytes
func (c CipherAlgorithm) KeySize() int {
	return registry[c].keyBits / 8
}

// UsesIV reports whether the algorithm needs an initialization vector
func (c CipherAlgorithm) UsesIV() bool {
	return registry[c].usesIV
}

// IVSize returns the IV length in bytes, or 0 if no IV is used
func (c CipherAlgorithm) IVSize() int {
	if c.UsesIV() {
		return BlockSize
	}
	return 0
}

// BlockSize returns the cipher block size in bytes
func (c CipherAlgorithm) BlockSize() int {
	return BlockSize
}

// OperationMode selects the direction of a transform
type OperationMode uint8

const (
	// OperationUnspecified is the zero value and is never valid
	OperationUnspecified OperationMode = iota
	// Encrypt turns plaintext into ciphertext
	Encrypt
	// Decrypt turns ciphertext into plaintext
	Decrypt
)

// String returns the string representation of the operation mode
func (m OperationMode) String() string {
	switch m {
	case Encrypt:
		return "encrypt"
	case Decrypt:
		return "decrypt"
	case OperationUnspecified:
		return "unspecified"
	default:
		return "unknown"
	}
}

// IsValid reports whether the mode is Encrypt or Decrypt
func (m OperationMode) IsValid() bool {
	return m == Encrypt || m == Decrypt
}

// Digest represents the hash function used for key derivation
type Digest uint8

const (
	// DigestSHA256 is the default digest of OpenSSL 1.1.0 and later
	DigestSHA256 Digest = iota
	// DigestMD5 is the legacy default digest of OpenSSL before 1.1.0
	DigestMD5
	// DigestSHA1 hash function
	DigestSHA1
	// DigestSHA512 hash function
	DigestSHA512
)

// ParseDigest looks up a digest by its OpenSSL name, e.g. "sha256" or "md5"
func ParseDigest(name string) (Digest, error) {
	switch strings.ToLower(strings.ReplaceAll(strings.TrimSpace(name), "-", "")) {
	case "sha256", "":
		return DigestSHA256, nil
	case "md5":
		return DigestMD5, nil
	case "sha1":
		return DigestSHA1, nil
	case "sha512":
		return DigestSHA512, nil
	default:
		return 0, NewValidationError("digest", name, "unsupported digest")
	}
}

// String returns the OpenSSL name of the digest
func (d Digest) String() string {
	switch d {
	case DigestSHA256:
		return "sha256"
	case DigestMD5:
		return "md5"
	case DigestSHA1:
		return "sha1"
	case DigestSHA512:
		return "sha512"
	default:
		return "unknown"
	}
}

// New returns a fresh hash.Hash, or nil for an unknown digest
func (d Digest) New() hash.Hash {
	switch d {
	case DigestSHA256:
		return sha256.New()
	case DigestMD5:
		return md5.New()
	case DigestSHA1:
		return sha1.New()
	case DigestSHA512:
		return sha512.New()
	default:
		return nil
	}
}

// Size returns the digest output size in bytes
func (d Digest) Size() int {
	if h := d.New(); h != nil {
		return h.Size()
	}
	return 0
}

func (d Digest) isValid() bool {
	return d <= DigestSHA512
}

// DefaultBufferSize is the number of source bytes a Reader pulls per fill
const DefaultBufferSize = 512

// Config contains configuration for a StreamFactory
type Config struct {
	// Cipher suite to use; defaults to AES-256-CBC
	Cipher CipherAlgorithm

	// KeyProvider turns a salt into key and IV material
	KeyProvider KeyProvider

	// BufferSize is the Reader input buffer size, rounded up to a block multiple
	BufferSize int

	// SpoolFS holds decrypted archives while they are read; defaults to an
	// in-memory filesystem
	SpoolFS absfs.FileSystem

	// Logger receives debug events; nil disables logging
	Logger *zerolog.Logger
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c == nil {
		return ErrNilConfig
	}
	if c.KeyProvider == nil {
		return ErrNilKeyProvider
	}
	if c.Cipher != CipherUnspecified && !c.Cipher.IsValid() {
		return fmt.Errorf("%w: %d", ErrUnsupportedAlgorithm, c.Cipher)
	}
	if c.BufferSize < 0 {
		return NewValidationError("buffer_size", c.BufferSize, "buffer size cannot be negative")
	}
	return nil
}

func (c *Config) cipher() CipherAlgorithm {
	if c.Cipher == CipherUnspecified {
		return AES256CBC
	}
	return c.Cipher
}

func (c *Config) logger() zerolog.Logger {
	if c.Logger == nil {
		return zerolog.Nop()
	}
	return *c.Logger
}
