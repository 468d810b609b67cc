package cli

import (
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// stdio names stdin or stdout in --in and --out
const stdio = "-"

// base64LineLength matches the line width of openssl enc -a
const base64LineLength = 64

// keepOpen hides Close so a cipher Writer cannot close stdout
type keepOpen struct {
	io.Writer
}

func openInput(cmd *cobra.Command, name string) (io.ReadCloser, error) {
	if name == "" || name == stdio {
		return io.NopCloser(cmd.InOrStdin()), nil
	}
	f, err := os.Open(name)
	if err != nil {
		return nil, fmt.Errorf("failed to open input: %w", err)
	}
	return f, nil
}

// output is a destination file that is removed again if the command fails
type output struct {
	w    io.Writer
	file *os.File
}

func openOutput(cmd *cobra.Command, name string) (*output, error) {
	if name == "" || name == stdio {
		return &output{w: keepOpen{cmd.OutOrStdout()}}, nil
	}
	f, err := os.OpenFile(name, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return nil, fmt.Errorf("failed to create output: %w", err)
	}
	return &output{w: f, file: f}, nil
}

// finish closes the file and removes it when err is non-nil
func (o *output) finish(err error) error {
	if o.file == nil {
		return err
	}
	cerr := o.file.Close()
	if errors.Is(cerr, os.ErrClosed) {
		cerr = nil
	}
	if err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(o.file.Name())
	}
	return err
}

// lineWriter breaks a base64 stream into lines
type lineWriter struct {
	w   io.Writer
	col int
}

func (l *lineWriter) Write(p []byte) (int, error) {
	written := 0
	for len(p) > 0 {
		n := min(base64LineLength-l.col, len(p))
		if _, err := l.w.Write(p[:n]); err != nil {
			return written, err
		}
		written += n
		l.col += n
		p = p[n:]
		if l.col == base64LineLength {
			if _, err := l.w.Write([]byte{'\n'}); err != nil {
				return written, err
			}
			l.col = 0
		}
	}
	return written, nil
}

// base64Writer encodes into w. Close flushes the final quantum, ends the
// last line and closes w when it is a Closer.
type base64Writer struct {
	enc   io.WriteCloser
	lines *lineWriter
	dst   io.Writer
}

func newBase64Writer(w io.Writer) *base64Writer {
	lines := &lineWriter{w: w}
	return &base64Writer{
		enc:   base64.NewEncoder(base64.StdEncoding, lines),
		lines: lines,
		dst:   w,
	}
}

func (b *base64Writer) Write(p []byte) (int, error) {
	return b.enc.Write(p)
}

func (b *base64Writer) Close() error {
	if err := b.enc.Close(); err != nil {
		return err
	}
	if b.lines.col > 0 {
		if _, err := b.dst.Write([]byte{'\n'}); err != nil {
			return err
		}
	}
	if c, ok := b.dst.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// newBase64Reader decodes r; line breaks are skipped by the decoder
func newBase64Reader(r io.Reader) io.Reader {
	return base64.NewDecoder(base64.StdEncoding, r)
}

func success(cmd *cobra.Command, format string, args ...any) {
	fmt.Fprintln(cmd.ErrOrStderr(), color.GreenString("✓")+" "+fmt.Sprintf(format, args...))
}

func displayName(name string) string {
	if name == "" || name == stdio {
		return color.CyanString("<stdio>")
	}
	return color.YellowString(name)
}
