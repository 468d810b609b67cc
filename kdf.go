package saltedfs

import (
	"crypto/md5"

	"golang.org/x/crypto/pbkdf2"
)

// BytesToKey stretches passphrase and salt into needed bytes the way
// OpenSSL's EVP_BytesToKey does:
//
//	D_1 = H^count(passphrase || salt)
//	D_i = H^count(D_{i-1} || passphrase || salt)
//
// where the extra count-1 rounds hash the previous digest alone. The
// concatenation D_1 || D_2 || ... is truncated to needed bytes.
func BytesToKey(passphrase, salt []byte, digest Digest, count, needed int) ([]byte, error) {
	if err := validateKDFInput(passphrase, salt); err != nil {
		return nil, err
	}
	if !digest.isValid() {
		return nil, NewValidationError("digest", digest, "unsupported digest")
	}
	if count < 1 {
		return nil, NewValidationError("count", count, "iteration count must be at least 1")
	}
	if needed < 1 {
		return nil, NewValidationError("needed", needed, "requested length must be at least 1")
	}

	h := digest.New()
	out := make([]byte, 0, needed+h.Size())
	var prev []byte
	for len(out) < needed {
		h.Reset()
		h.Write(prev)
		h.Write(passphrase)
		h.Write(salt)
		prev = h.Sum(nil)
		for i := 1; i < count; i++ {
			h.Reset()
			h.Write(prev)
			prev = h.Sum(nil)
		}
		out = append(out, prev...)
	}
	return out[:needed], nil
}

// DeriveKeyIV runs BytesToKey for exactly the key and IV lengths of alg
// and splits the result.
func DeriveKeyIV(passphrase, salt []byte, digest Digest, count int, alg CipherAlgorithm) (key, iv []byte, err error) {
	if !alg.IsValid() {
		return nil, nil, ErrUnsupportedAlgorithm
	}
	material, err := BytesToKey(passphrase, salt, digest, count, alg.KeySize()+alg.IVSize())
	if err != nil {
		return nil, nil, err
	}
	return splitKeyIV(material, alg)
}

// LegacyKeyIV reproduces the fixed two-round MD5 derivation used for
// AES-256 artifacts written before the generic KDF existed:
//
//	r1  = MD5(passphrase || salt)
//	r2  = MD5(r1 || passphrase || salt)
//	key = r1 || r2
//	iv  = MD5(r2 || passphrase || salt)
//
// The result is identical to DeriveKeyIV(passphrase, salt, DigestMD5, 1, AES256CBC).
func LegacyKeyIV(passphrase, salt []byte) (key, iv []byte, err error) {
	if err := validateKDFInput(passphrase, salt); err != nil {
		return nil, nil, err
	}

	round := func(prev []byte) []byte {
		h := md5.New()
		h.Write(prev)
		h.Write(passphrase)
		h.Write(salt)
		return h.Sum(nil)
	}

	r1 := round(nil)
	r2 := round(r1)
	key = append(append(make([]byte, 0, 2*md5.Size), r1...), r2...)
	iv = round(r2)
	return key, iv, nil
}

// PBKDF2KeyIV derives key and IV the way `openssl enc -pbkdf2` does: a
// single PBKDF2 output of key length plus IV length, split in two.
func PBKDF2KeyIV(passphrase, salt []byte, digest Digest, iterations int, alg CipherAlgorithm) (key, iv []byte, err error) {
	if err := validateKDFInput(passphrase, salt); err != nil {
		return nil, nil, err
	}
	if !alg.IsValid() {
		return nil, nil, ErrUnsupportedAlgorithm
	}
	if !digest.isValid() {
		return nil, nil, NewValidationError("digest", digest, "unsupported digest")
	}
	if iterations < 1 {
		return nil, nil, NewValidationError("iterations", iterations, "iteration count must be at least 1")
	}

	material := pbkdf2.Key(passphrase, salt, iterations, alg.KeySize()+alg.IVSize(), digest.New)
	return splitKeyIV(material, alg)
}

func splitKeyIV(material []byte, alg CipherAlgorithm) (key, iv []byte, err error) {
	keySize := alg.KeySize()
	key = material[:keySize]
	if alg.UsesIV() {
		iv = material[keySize : keySize+alg.IVSize()]
	}
	return key, iv, nil
}

func validateKDFInput(passphrase, salt []byte) error {
	if len(passphrase) == 0 {
		return NewValidationError("passphrase", nil, "passphrase cannot be empty")
	}
	return ValidateSalt(salt)
}
