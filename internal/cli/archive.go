package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

func newArchiveCommand(a *app) *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "archive FILE...",
		Short: "Bundle files into an encrypted ZIP archive",
		Long: `Archive writes the named files into a ZIP archive and encrypts the whole
archive as one salted container. Entries are stored under their base names.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.archive(cmd, out, args)
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", stdio, "container output file, - for stdout")
	return cmd
}

func (a *app) archive(cmd *cobra.Command, out string, files []string) (err error) {
	seen := make(map[string]string, len(files))
	for _, f := range files {
		name := filepath.Base(f)
		if prev, ok := seen[name]; ok {
			return fmt.Errorf("duplicate entry %s from %s and %s", name, prev, f)
		}
		seen[name] = f
	}

	dst, err := openOutput(cmd, out)
	if err != nil {
		return err
	}
	defer func() { err = dst.finish(err) }()

	sink := dst.w
	if a.cfg.Base64 {
		sink = newBase64Writer(dst.w)
	}

	aw, _, err := a.factory.ArchiveWriter(sink)
	if err != nil {
		return err
	}
	for _, f := range files {
		if err := addFile(aw.AddEntry, f); err != nil {
			aw.Close()
			return err
		}
		a.logger.Debug().Str("file", f).Msg("added entry")
	}
	if err := aw.Close(); err != nil {
		return fmt.Errorf("archive failed: %w", err)
	}

	success(cmd, "Archived %d files → %s", aw.Count(), displayName(out))
	return nil
}

func addFile(add func(string, io.Reader) error, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()
	return add(filepath.Base(path), f)
}
