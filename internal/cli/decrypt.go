package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

func newDecryptCommand(a *app) *cobra.Command {
	var in, out string

	cmd := &cobra.Command{
		Use:   "decrypt",
		Short: "Decrypt a salted container",
		Long: `Decrypt reads a "Salted__" container, derives key and IV from the
passphrase and the stored salt, and writes the plaintext. Containers written by
OpenSSL before 1.1.0 need --md md5.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.decrypt(cmd, in, out)
		},
	}

	cmd.Flags().StringVarP(&in, "in", "i", stdio, "container input file, - for stdin")
	cmd.Flags().StringVarP(&out, "out", "o", stdio, "plaintext output file, - for stdout")
	return cmd
}

func (a *app) decrypt(cmd *cobra.Command, in, out string) (err error) {
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

	var body io.Reader = src
	if a.cfg.Base64 {
		body = newBase64Reader(src)
	}

	r, params, err := a.factory.DecryptReader(body)
	if err != nil {
		return fmt.Errorf("decrypt failed: %w", err)
	}
	defer r.Close()

	n, err := io.Copy(dst.w, r)
	if err != nil {
		return fmt.Errorf("decrypt failed: %w", err)
	}

	a.logger.Debug().Hex("salt", params.Salt).Int64("bytes", n).Msg("decrypted")
	success(cmd, "Decrypted %s → %s", displayName(in), displayName(out))
	return nil
}
