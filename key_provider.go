package saltedfs

import (
	"fmt"
	"os"
)

// KeyProvider is an interface for turning a container salt into key material
type KeyProvider interface {
	// DeriveKeyIV derives the secret key and IV for alg from the given salt
	DeriveKeyIV(salt []byte, alg CipherAlgorithm) (key, iv []byte, err error)

	// GenerateSalt generates a new random salt
	GenerateSalt() ([]byte, error)
}

// BytesToKeyParams contains parameters for EVP_BytesToKey derivation
type BytesToKeyParams struct {
	Digest Digest // Hash function (default SHA-256)
	Count  int    // Rounds per digest block (default 1, as `openssl enc`)
}

// PBKDF2Params contains parameters for PBKDF2 key derivation
type PBKDF2Params struct {
	Digest     Digest // Hash function (default SHA-256)
	Iterations int    // Number of iterations (default 10000, as `openssl enc -pbkdf2`)
}

// KDF selects how a PassphraseKeyProvider stretches the passphrase
type KDF uint8

const (
	// KDFBytesToKey is OpenSSL's legacy EVP_BytesToKey
	KDFBytesToKey KDF = iota
	// KDFPBKDF2 is PBKDF2-HMAC as used by `openssl enc -pbkdf2`
	KDFPBKDF2
	// KDFLegacyMD5 is the fixed two-round MD5 derivation for AES-256
	KDFLegacyMD5
)

// String returns the string representation of the KDF
func (k KDF) String() string {
	switch k {
	case KDFBytesToKey:
		return "evp-bytestokey"
	case KDFPBKDF2:
		return "pbkdf2"
	case KDFLegacyMD5:
		return "legacy-md5"
	default:
		return "unknown"
	}
}

// PassphraseKeyProvider implements KeyProvider using passphrase-based key derivation
type PassphraseKeyProvider struct {
	passphrase   []byte
	kdf          KDF
	evpParams    BytesToKeyParams
	pbkdf2Params PBKDF2Params
}

// NewPassphraseKeyProvider creates a provider using EVP_BytesToKey
func NewPassphraseKeyProvider(passphrase []byte, params BytesToKeyParams) *PassphraseKeyProvider {
	if params.Count == 0 {
		params.Count = 1
	}
	return &PassphraseKeyProvider{
		passphrase: passphrase,
		kdf:        KDFBytesToKey,
		evpParams:  params,
	}
}

// NewPassphraseKeyProviderPBKDF2 creates a provider using PBKDF2
func NewPassphraseKeyProviderPBKDF2(passphrase []byte, params PBKDF2Params) *PassphraseKeyProvider {
	if params.Iterations == 0 {
		params.Iterations = 10000
	}
	return &PassphraseKeyProvider{
		passphrase:   passphrase,
		kdf:          KDFPBKDF2,
		pbkdf2Params: params,
	}
}

// NewLegacyKeyProvider creates a provider using the two-round MD5 derivation.
// It only serves AES-256-CBC.
func NewLegacyKeyProvider(passphrase []byte) *PassphraseKeyProvider {
	return &PassphraseKeyProvider{
		passphrase: passphrase,
		kdf:        KDFLegacyMD5,
	}
}

// KDF returns the derivation function in use
func (p *PassphraseKeyProvider) KDF() KDF {
	return p.kdf
}

// DeriveKeyIV derives key and IV from the passphrase and salt
func (p *PassphraseKeyProvider) DeriveKeyIV(salt []byte, alg CipherAlgorithm) ([]byte, []byte, error) {
	switch p.kdf {
	case KDFBytesToKey:
		return DeriveKeyIV(p.passphrase, salt, p.evpParams.Digest, p.evpParams.Count, alg)
	case KDFPBKDF2:
		return PBKDF2KeyIV(p.passphrase, salt, p.pbkdf2Params.Digest, p.pbkdf2Params.Iterations, alg)
	case KDFLegacyMD5:
		if alg != AES256CBC {
			return nil, nil, fmt.Errorf("%w: legacy derivation only supports %s, got %s",
				ErrUnsupportedAlgorithm, AES256CBC, alg)
		}
		return LegacyKeyIV(p.passphrase, salt)
	default:
		return nil, nil, NewValidationError("kdf", p.kdf, "unsupported key derivation function")
	}
}

// GenerateSalt generates a new random 8-byte salt
func (p *PassphraseKeyProvider) GenerateSalt() ([]byte, error) {
	return GenerateSalt()
}

// EnvKeyProvider implements KeyProvider using a passphrase held in an
// environment variable. The variable is read on every derivation.
type EnvKeyProvider struct {
	envVar string
	params BytesToKeyParams
}

// NewEnvKeyProvider creates a new environment variable key provider
func NewEnvKeyProvider(envVar string, params BytesToKeyParams) *EnvKeyProvider {
	if params.Count == 0 {
		params.Count = 1
	}
	return &EnvKeyProvider{
		envVar: envVar,
		params: params,
	}
}

// DeriveKeyIV derives key and IV from the passphrase in the environment
func (e *EnvKeyProvider) DeriveKeyIV(salt []byte, alg CipherAlgorithm) ([]byte, []byte, error) {
	passphrase := os.Getenv(e.envVar)
	if passphrase == "" {
		return nil, nil, fmt.Errorf("environment variable %s not set", e.envVar)
	}
	return DeriveKeyIV([]byte(passphrase), salt, e.params.Digest, e.params.Count, alg)
}

// GenerateSalt generates a new random 8-byte salt
func (e *EnvKeyProvider) GenerateSalt() ([]byte, error) {
	return GenerateSalt()
}
