package saltedfs

import (
	"bytes"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// CryptContext carries the inputs and the result of one crypt operation.
// A context belongs to a single operation and must not be shared.
type CryptContext struct {
	ID         uuid.UUID
	Mode       OperationMode
	Passphrase []byte
	Salt       []byte
	SecretKey  []byte
	IV         []byte
	Input      []byte
	Output     []byte

	// OutputName optionally records where the caller will store Output
	OutputName string
}

// NewCryptContext creates a context with a fresh ID
func NewCryptContext(mode OperationMode, passphrase, input []byte) *CryptContext {
	return &CryptContext{
		ID:         uuid.New(),
		Mode:       mode,
		Passphrase: passphrase,
		Input:      input,
	}
}

// CryptCommand encrypts or decrypts a whole in-memory payload at once
type CryptCommand struct {
	algorithm   CipherAlgorithm
	keyProvider KeyProvider
	logger      zerolog.Logger
}

// CommandOption configures a CryptCommand
type CommandOption func(*CryptCommand)

// WithKeyProvider derives missing key material through p instead of the
// default EVP_BytesToKey/SHA-256 over the context passphrase.
func WithKeyProvider(p KeyProvider) CommandOption {
	return func(c *CryptCommand) {
		c.keyProvider = p
	}
}

// WithLogger sets the logger for debug events
func WithLogger(l zerolog.Logger) CommandOption {
	return func(c *CryptCommand) {
		c.logger = l
	}
}

// NewCryptCommand creates a command for the given algorithm
func NewCryptCommand(alg CipherAlgorithm, opts ...CommandOption) *CryptCommand {
	c := &CryptCommand{
		algorithm: alg,
		logger:    zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Execute dispatches on ctx.Mode
func (c *CryptCommand) Execute(ctx *CryptContext) error {
	switch ctx.Mode {
	case Encrypt:
		return c.Encrypt(ctx)
	case Decrypt:
		return c.Decrypt(ctx)
	default:
		return NewCryptoError("execute", ctx.ID.String(), ValidateOperation(ctx.Mode))
	}
}

// Encrypt sets ctx.Output to the salted header followed by the ciphertext
// of ctx.Input. A missing salt is generated and missing key material is
// derived; both are stored back into ctx.
func (c *CryptCommand) Encrypt(ctx *CryptContext) error {
	if err := c.encrypt(ctx); err != nil {
		c.logger.Debug().Str("context", ctx.ID.String()).Err(err).Msg("encrypt failed")
		return NewCryptoError("encrypt", ctx.ID.String(), err)
	}
	c.logger.Debug().
		Str("context", ctx.ID.String()).
		Str("cipher", c.algorithm.String()).
		Int("input", len(ctx.Input)).
		Int("output", len(ctx.Output)).
		Msg("encrypt done")
	return nil
}

func (c *CryptCommand) encrypt(ctx *CryptContext) error {
	if ctx.Salt == nil {
		salt, err := c.generateSalt()
		if err != nil {
			return err
		}
		ctx.Salt = salt
	}
	if err := ValidateSalt(ctx.Salt); err != nil {
		return err
	}
	if err := c.ensureKeyMaterial(ctx); err != nil {
		return err
	}

	t, err := NewTransform(c.algorithm, Encrypt, ctx.SecretKey, ctx.IV)
	if err != nil {
		return err
	}

	out := make([]byte, 0, HeaderSize+len(ctx.Input)+BlockSize)
	out = append(out, NewHeader(ctx.Salt).Bytes()...)
	if out, err = t.Update(out, ctx.Input); err != nil {
		return err
	}
	if out, err = t.Final(out); err != nil {
		return err
	}
	ctx.Mode = Encrypt
	ctx.Output = out
	return nil
}

// Decrypt strips the salted header from ctx.Input and sets ctx.Output to
// the plaintext. An input that is exactly the header decrypts to an empty
// plaintext; a shorter one fails with ErrTruncatedInput.
func (c *CryptCommand) Decrypt(ctx *CryptContext) error {
	if err := c.decrypt(ctx); err != nil {
		c.logger.Debug().Str("context", ctx.ID.String()).Err(err).Msg("decrypt failed")
		return NewCryptoError("decrypt", ctx.ID.String(), err)
	}
	c.logger.Debug().
		Str("context", ctx.ID.String()).
		Str("cipher", c.algorithm.String()).
		Int("input", len(ctx.Input)).
		Int("output", len(ctx.Output)).
		Msg("decrypt done")
	return nil
}

func (c *CryptCommand) decrypt(ctx *CryptContext) error {
	salt, err := ReadHeader(bytes.NewReader(ctx.Input))
	if err != nil {
		return err
	}
	ctx.Salt = salt
	if err := c.ensureKeyMaterial(ctx); err != nil {
		return err
	}

	t, err := NewTransform(c.algorithm, Decrypt, ctx.SecretKey, ctx.IV)
	if err != nil {
		return err
	}

	body := ctx.Input[HeaderSize:]
	out := make([]byte, 0, len(body))
	if out, err = t.Update(out, body); err != nil {
		return err
	}
	if out, err = t.Final(out); err != nil {
		return err
	}
	ctx.Mode = Decrypt
	ctx.Output = out
	return nil
}

func (c *CryptCommand) generateSalt() ([]byte, error) {
	if c.keyProvider != nil {
		return c.keyProvider.GenerateSalt()
	}
	return GenerateSalt()
}

// ensureKeyMaterial derives key and IV unless the caller supplied them
func (c *CryptCommand) ensureKeyMaterial(ctx *CryptContext) error {
	if ctx.SecretKey != nil && (ctx.IV != nil || !c.algorithm.UsesIV()) {
		return nil
	}

	var (
		key, iv []byte
		err     error
	)
	if c.keyProvider != nil {
		key, iv, err = c.keyProvider.DeriveKeyIV(ctx.Salt, c.algorithm)
	} else {
		key, iv, err = DeriveKeyIV(ctx.Passphrase, ctx.Salt, DigestSHA256, 1, c.algorithm)
	}
	if err != nil {
		return err
	}
	ctx.SecretKey = key
	ctx.IV = iv
	return nil
}
