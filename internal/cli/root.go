// Package cli implements the saltedenc commands.
package cli

import (
	"github.com/absfs/saltedfs"
	"github.com/absfs/saltedfs/internal/config"
	"github.com/absfs/saltedfs/internal/logging"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// app carries the state a command run shares across subcommands
type app struct {
	cfg     *config.Config
	logger  zerolog.Logger
	factory *saltedfs.StreamFactory

	// flag values; applied over cfg only when set
	pass     string
	cipher   string
	digest   string
	pbkdf2   bool
	iter     int
	base64   bool
	logLevel string
	verbose  bool
}

// NewRootCommand builds the saltedenc command tree
func NewRootCommand() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "saltedenc",
		Short: "Encrypt and decrypt OpenSSL salted containers",
		Long: `saltedenc reads and writes the "Salted__" container produced by
openssl enc: an 8-byte magic, an 8-byte salt and AES-CBC ciphertext whose key
and IV are derived from a passphrase.

Examples:
  saltedenc encrypt --in notes.txt --out notes.enc
  saltedenc decrypt --in notes.enc --out notes.txt --md md5
  saltedenc archive --out bundle.enc a.txt b.txt
  saltedenc extract --in bundle.enc --dir out/

Settings may also come from SALTEDENC_PASSPHRASE, SALTEDENC_CIPHER,
SALTEDENC_DIGEST, SALTEDENC_PBKDF2, SALTEDENC_ITER and SALTEDENC_LOG_LEVEL.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&a.pass, "pass", "k", "", "passphrase (default $SALTEDENC_PASSPHRASE)")
	flags.StringVar(&a.cipher, "cipher", "", "cipher name: aes-256-cbc or aes-128-cbc")
	flags.StringVar(&a.digest, "md", "", "key derivation digest: sha256, md5, sha1, sha512")
	flags.BoolVar(&a.pbkdf2, "pbkdf2", false, "derive the key with PBKDF2 instead of EVP_BytesToKey")
	flags.IntVar(&a.iter, "iter", 0, "PBKDF2 iteration count (default 10000)")
	flags.BoolVarP(&a.base64, "base64", "a", false, "base64 encode output / decode input")
	flags.StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn, error")
	flags.BoolVarP(&a.verbose, "verbose", "v", false, "shorthand for --log-level debug")

	root.AddCommand(newEncryptCommand(a))
	root.AddCommand(newDecryptCommand(a))
	root.AddCommand(newArchiveCommand(a))
	root.AddCommand(newExtractCommand(a))
	return root
}

// setup loads the environment, applies flag overrides and builds the
// logger and stream factory.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("pass") {
		cfg.Passphrase = a.pass
	}
	if flags.Changed("cipher") {
		cfg.Cipher = a.cipher
	}
	if flags.Changed("md") {
		cfg.Digest = a.digest
	}
	if flags.Changed("pbkdf2") {
		cfg.PBKDF2 = a.pbkdf2
	}
	if flags.Changed("iter") {
		cfg.Iterations = a.iter
		cfg.PBKDF2 = true
	}
	if flags.Changed("base64") {
		cfg.Base64 = a.base64
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = a.logLevel
	}
	if a.verbose {
		cfg.LogLevel = "debug"
	}
	a.cfg = cfg

	logger, err := logging.New(cmd.ErrOrStderr(), cfg.LogLevel)
	if err != nil {
		return err
	}
	a.logger = logger

	streamCfg, err := cfg.StreamConfig(&a.logger)
	if err != nil {
		return err
	}
	factory, err := saltedfs.NewStreamFactory(streamCfg)
	if err != nil {
		return err
	}
	a.factory = factory

	a.logger.Debug().
		Str("cipher", factory.Cipher().String()).
		Str("digest", cfg.Digest).
		Bool("pbkdf2", cfg.PBKDF2).
		Bool("base64", cfg.Base64).
		Msg("configured")
	return nil
}
