package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/absfs/saltedfs"
	"github.com/spf13/cobra"
)

func newExtractCommand(a *app) *cobra.Command {
	var in, dir string

	cmd := &cobra.Command{
		Use:   "extract",
		Short: "Decrypt an archive and unpack its files",
		Long: `Extract decrypts a container written by "saltedenc archive" and writes
every entry into the target directory. Entries that would land outside the
directory are rejected.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.extract(cmd, in, dir)
		},
	}

	cmd.Flags().StringVarP(&in, "in", "i", stdio, "container input file, - for stdin")
	cmd.Flags().StringVarP(&dir, "dir", "C", ".", "directory to extract into")
	return cmd
}

func (a *app) extract(cmd *cobra.Command, in, dir string) error {
	src, err := openInput(cmd, in)
	if err != nil {
		return err
	}
	defer src.Close()

	var body io.Reader = src
	if a.cfg.Base64 {
		body = newBase64Reader(src)
	}

	ar, _, err := a.factory.ArchiveReader(body)
	if err != nil {
		return fmt.Errorf("extract failed: %w", err)
	}
	defer ar.Close()

	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create %s: %w", dir, err)
	}

	count := 0
	for {
		entry, err := ar.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
		if err := extractEntry(entry, dir); err != nil {
			return err
		}
		a.logger.Debug().Str("entry", entry.Name).Uint64("bytes", entry.Size).Msg("extracted entry")
		count++
	}

	success(cmd, "Extracted %d files → %s", count, displayName(dir))
	return nil
}

func extractEntry(entry *saltedfs.ArchiveEntry, dir string) error {
	if !filepath.IsLocal(entry.Name) {
		return fmt.Errorf("refusing to extract %q outside %s", entry.Name, dir)
	}
	target := filepath.Join(dir, entry.Name)
	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return err
	}

	rc, err := entry.Open()
	if err != nil {
		return fmt.Errorf("failed to open entry %s: %w", entry.Name, err)
	}
	defer rc.Close()

	f, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, rc); err != nil {
		f.Close()
		return fmt.Errorf("failed to write %s: %w", target, err)
	}
	return f.Close()
}
