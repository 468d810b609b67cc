package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

func newEncryptCommand(a *app) *cobra.Command {
	var in, out string

	cmd := &cobra.Command{
		Use:   "encrypt",
		Short: "Encrypt a file into a salted container",
		Long: `Encrypt reads plaintext and writes "Salted__", a fresh random salt and
the AES-CBC ciphertext. The output decrypts with:

  openssl enc -d -aes-256-cbc -md sha256 -in FILE.enc`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.encrypt(cmd, in, out)
		},
	}

	cmd.Flags().StringVarP(&in, "in", "i", stdio, "plaintext input file, - for stdin")
	cmd.Flags().StringVarP(&out, "out", "o", stdio, "container output file, - for stdout")
	return cmd
}

func (a *app) encrypt(cmd *cobra.Command, in, out string) (err error) {
	src, err := openInput(cmd, in)
	if err != nil {
		return err
	}
	defer src.Close()

	dst, err := openOutput(cmd, out)
	if err != nil {
		return err
	}
	defer func() { err = dst.finish(err) }()

	sink := dst.w
	if a.cfg.Base64 {
		sink = newBase64Writer(dst.w)
	}

	w, params, err := a.factory.EncryptWriter(sink)
	if err != nil {
		return err
	}
	n, err := io.Copy(w, src)
	if err != nil {
		w.Close()
		return fmt.Errorf("encrypt failed: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("encrypt failed: %w", err)
	}

	a.logger.Debug().Hex("salt", params.Salt).Int64("bytes", n).Msg("encrypted")
	success(cmd, "Encrypted %s → %s (%s)", displayName(in), displayName(out), a.factory.Cipher())
	return nil
}
