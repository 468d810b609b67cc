package saltedfs

import (
	"bytes"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
)

const (
	// Magic opens every salted container (as written by `openssl enc`)
	Magic = "Salted__"

	// SaltSize is the length of the salt that follows the magic
	SaltSize = 8

	// HeaderSize is the total header length: 8 bytes magic + 8 bytes salt
	HeaderSize = len(Magic) + SaltSize
)

// Header represents the 16-byte header of a salted container
type Header struct {
	Salt []byte // Salt for key derivation
}

// NewHeader creates a header for the given salt
func NewHeader(salt []byte) *Header {
	return &Header{Salt: salt}
}

// Size returns the total size of the header in bytes
func (h *Header) Size() int {
	return HeaderSize
}

// Bytes returns the encoded header
func (h *Header) Bytes() []byte {
	buf := make([]byte, 0, HeaderSize)
	buf = append(buf, Magic...)
	return append(buf, h.Salt...)
}

// WriteTo writes the header to the given writer in a single call
func (h *Header) WriteTo(w io.Writer) (int64, error) {
	if err := h.Validate(); err != nil {
		return 0, err
	}
	n, err := w.Write(h.Bytes())
	if err != nil {
		return int64(n), fmt.Errorf("failed to write salted header: %w", err)
	}
	return int64(n), nil
}

// ReadFrom reads the header from the given reader
func (h *Header) ReadFrom(r io.Reader) (int64, error) {
	buf := make([]byte, HeaderSize)
	n, err := io.ReadFull(r, buf)
	if err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return int64(n), fmt.Errorf("%w: got %d bytes", ErrTruncatedInput, n)
		}
		return int64(n), fmt.Errorf("failed to read salted header: %w", err)
	}

	if !bytes.Equal(buf[:len(Magic)], []byte(Magic)) {
		return int64(n), ErrInvalidHeader
	}
	h.Salt = buf[len(Magic):]
	return int64(n), nil
}

// Validate checks if the header is valid
func (h *Header) Validate() error {
	return ValidateSalt(h.Salt)
}

// WriteHeader writes "Salted__" followed by salt before any ciphertext
func WriteHeader(w io.Writer, salt []byte) error {
	_, err := NewHeader(salt).WriteTo(w)
	return err
}

// ReadHeader consumes exactly 16 bytes from r and returns the salt
func ReadHeader(r io.Reader) ([]byte, error) {
	h := &Header{}
	if _, err := h.ReadFrom(r); err != nil {
		return nil, err
	}
	return h.Salt, nil
}

// SaltFromContainer returns the salt of an in-memory container without
// consuming it.
func SaltFromContainer(data []byte) ([]byte, error) {
	if len(data) < HeaderSize {
		return nil, fmt.Errorf("%w: got %d bytes", ErrTruncatedInput, len(data))
	}
	return ReadHeader(bytes.NewReader(data[:HeaderSize]))
}

// GenerateSalt draws a fresh salt from crypto/rand
func GenerateSalt() ([]byte, error) {
	salt := make([]byte, SaltSize)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("failed to generate salt: %w", err)
	}
	return salt, nil
}
