// Package config loads saltedenc settings from the environment.
//
// Every variable carries the SALTEDENC_ prefix. Command-line flags override
// the loaded values; see internal/cli.
package config

import (
	"errors"
	"fmt"

	"github.com/absfs/saltedfs"
	"github.com/caarlos0/env/v11"
	"github.com/rs/zerolog"
)

// EnvPrefix is prepended to every variable name
const EnvPrefix = "SALTEDENC_"

// ErrNoPassphrase is returned when neither the flag nor the environment
// supplies a passphrase.
var ErrNoPassphrase = errors.New("passphrase required: use --pass or " + EnvPrefix + "PASSPHRASE")

// Config holds the settings shared by every saltedenc command
type Config struct {
	Passphrase string `env:"PASSPHRASE"`
	Cipher     string `env:"CIPHER" envDefault:"aes-256-cbc"`
	Digest     string `env:"DIGEST" envDefault:"sha256"`
	PBKDF2     bool   `env:"PBKDF2"`
	Iterations int    `env:"ITER" envDefault:"10000"`
	Base64     bool   `env:"BASE64"`
	BufferSize int    `env:"BUFFER_SIZE" envDefault:"512"`
	LogLevel   string `env:"LOG_LEVEL" envDefault:"warn"`
}

// Load reads Config from the environment. Setting ITER selects PBKDF2, as
// the --iter flag does.
func Load() (*Config, error) {
	cfg := &Config{}
	iterSet := false
	opts := env.Options{
		Prefix: EnvPrefix,
		OnSet: func(tag string, _ any, isDefault bool) {
			if tag == EnvPrefix+"ITER" && !isDefault {
				iterSet = true
			}
		},
	}
	if err := env.ParseWithOptions(cfg, opts); err != nil {
		return nil, fmt.Errorf("error getting env configs: %w", err)
	}
	if iterSet {
		cfg.PBKDF2 = true
	}
	return cfg, nil
}

// KeyProvider builds the key provider the settings describe
func (c *Config) KeyProvider() (saltedfs.KeyProvider, error) {
	if c.Passphrase == "" {
		return nil, ErrNoPassphrase
	}
	digest, err := saltedfs.ParseDigest(c.Digest)
	if err != nil {
		return nil, err
	}

	if c.PBKDF2 {
		if c.Iterations < 1 {
			return nil, saltedfs.NewValidationError("iter", c.Iterations, "iteration count must be at least 1")
		}
		return saltedfs.NewPassphraseKeyProviderPBKDF2([]byte(c.Passphrase), saltedfs.PBKDF2Params{
			Digest:     digest,
			Iterations: c.Iterations,
		}), nil
	}
	return saltedfs.NewPassphraseKeyProvider([]byte(c.Passphrase), saltedfs.BytesToKeyParams{
		Digest: digest,
	}), nil
}

// StreamConfig translates the settings into a library Config
func (c *Config) StreamConfig(logger *zerolog.Logger) (*saltedfs.Config, error) {
	alg, err := saltedfs.ParseCipherAlgorithm(c.Cipher)
	if err != nil {
		return nil, err
	}
	provider, err := c.KeyProvider()
	if err != nil {
		return nil, err
	}

	cfg := &saltedfs.Config{
		Cipher:      alg,
		KeyProvider: provider,
		BufferSize:  c.BufferSize,
		Logger:      logger,
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
