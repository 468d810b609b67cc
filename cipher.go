package saltedfs

import (
	"crypto/aes"
	"crypto/cipher"
	"fmt"
)

// BlockSize is the AES block size shared by every registered algorithm
const BlockSize = aes.BlockSize

// Transform is an incremental block cipher transform
type Transform interface {
	// BlockSize returns the cipher block size in bytes
	BlockSize() int

	// Update feeds src and appends whatever output is ready to dst.
	// Output may be empty while the transform buffers a partial block.
	Update(dst, src []byte) ([]byte, error)

	// Final flushes the last block, applying or checking padding, and
	// appends it to dst. A transform cannot be used after Final.
	Final(dst []byte) ([]byte, error)
}

// NewTransform creates a transform for the given algorithm and direction.
// The key may be longer than the algorithm needs; only the prefix is used.
func NewTransform(alg CipherAlgorithm, mode OperationMode, key, iv []byte) (Transform, error) {
	if err := ValidateAlgorithm(alg); err != nil {
		return nil, err
	}
	if err := ValidateKey(key, alg); err != nil {
		return nil, err
	}
	if err := ValidateIV(iv, alg); err != nil {
		return nil, err
	}

	block, err := aes.NewCipher(key[:alg.KeySize()])
	if err != nil {
		return nil, fmt.Errorf("failed to create AES cipher: %w", err)
	}

	// Copy so later changes to the caller's IV do not leak into the stream.
	ivCopy := append([]byte(nil), iv...)

	switch mode {
	case Encrypt:
		return &cbcEncrypter{mode: cipher.NewCBCEncrypter(block, ivCopy)}, nil
	case Decrypt:
		return &cbcDecrypter{mode: cipher.NewCBCDecrypter(block, ivCopy)}, nil
	default:
		return nil, ValidateOperation(mode)
	}
}

// cbcEncrypter buffers a partial block and pads on Final
type cbcEncrypter struct {
	mode     cipher.BlockMode
	pending  []byte
	finished bool
}

func (e *cbcEncrypter) BlockSize() int { return e.mode.BlockSize() }

func (e *cbcEncrypter) Update(dst, src []byte) ([]byte, error) {
	if e.finished {
		return dst, ErrTransformFinished
	}
	e.pending = append(e.pending, src...)
	ready := len(e.pending) - len(e.pending)%e.mode.BlockSize()
	if ready == 0 {
		return dst, nil
	}
	dst = e.crypt(dst, e.pending[:ready])
	e.pending = append(e.pending[:0], e.pending[ready:]...)
	return dst, nil
}

func (e *cbcEncrypter) Final(dst []byte) ([]byte, error) {
	if e.finished {
		return dst, ErrTransformFinished
	}
	e.finished = true
	padded := pkcs7Pad(nil, e.pending, e.mode.BlockSize())
	e.pending = nil
	return e.crypt(dst, padded), nil
}

func (e *cbcEncrypter) crypt(dst, src []byte) []byte {
	start := len(dst)
	dst = append(dst, make([]byte, len(src))...)
	e.mode.CryptBlocks(dst[start:], src)
	return dst
}

// cbcDecrypter always holds back the last full block, since it may carry
// the padding that Final has to check.
type cbcDecrypter struct {
	mode     cipher.BlockMode
	pending  []byte
	finished bool
}

func (d *cbcDecrypter) BlockSize() int { return d.mode.BlockSize() }

func (d *cbcDecrypter) Update(dst, src []byte) ([]byte, error) {
	if d.finished {
		return dst, ErrTransformFinished
	}
	d.pending = append(d.pending, src...)
	bs := d.mode.BlockSize()
	ready := len(d.pending) - len(d.pending)%bs
	if ready == len(d.pending) {
		ready -= bs
	}
	if ready <= 0 {
		return dst, nil
	}
	dst = d.crypt(dst, d.pending[:ready])
	d.pending = append(d.pending[:0], d.pending[ready:]...)
	return dst, nil
}

func (d *cbcDecrypter) Final(dst []byte) ([]byte, error) {
	if d.finished {
		return dst, ErrTransformFinished
	}
	d.finished = true
	pending := d.pending
	d.pending = nil

	// An empty body is an empty plaintext, not an error.
	if len(pending) == 0 {
		return dst, nil
	}
	if len(pending) != d.mode.BlockSize() {
		return dst, ErrInvalidCiphertext
	}

	last := d.crypt(nil, pending)
	plain, err := pkcs7Unpad(last, d.mode.BlockSize())
	if err != nil {
		return dst, err
	}
	return append(dst, plain...), nil
}

func (d *cbcDecrypter) crypt(dst, src []byte) []byte {
	start := len(dst)
	dst = append(dst, make([]byte, len(src))...)
	d.mode.CryptBlocks(dst[start:], src)
	return dst
}
