package saltedfs

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"time"

	"github.com/absfs/absfs"
	"github.com/absfs/memfs"
	"github.com/google/uuid"
)

// ArchiveWriter writes a ZIP archive through an encrypting Writer. All
// entries share the one cipher stream; they are not encrypted separately.
type ArchiveWriter struct {
	zw     *zip.Writer
	cw     *Writer
	count  int
	closed bool
}

// NewArchiveWriter layers a ZIP writer over cw
func NewArchiveWriter(cw *Writer) *ArchiveWriter {
	return &ArchiveWriter{
		zw: zip.NewWriter(cw),
		cw: cw,
	}
}

// Create starts a new entry; the previous entry is complete once Create
// or Close is called.
func (a *ArchiveWriter) Create(name string) (io.Writer, error) {
	if a.closed {
		return nil, ErrClosed
	}
	if name == "" {
		return nil, NewValidationError("name", name, "entry name cannot be empty")
	}

	w, err := a.zw.CreateHeader(&zip.FileHeader{
		Name:     name,
		Method:   zip.Deflate,
		Modified: time.Now(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create entry %s: %w", name, err)
	}
	a.count++
	return w, nil
}

// AddEntry writes an entry with the contents of r
func (a *ArchiveWriter) AddEntry(name string, r io.Reader) error {
	w, err := a.Create(name)
	if err != nil {
		return err
	}
	if _, err := io.Copy(w, r); err != nil {
		return fmt.Errorf("failed to write entry %s: %w", name, err)
	}
	return nil
}

// Count returns the number of entries created so far
func (a *ArchiveWriter) Count() int {
	return a.count
}

// Flush pushes compressed data to the cipher stream and its sink
func (a *ArchiveWriter) Flush() error {
	if a.closed {
		return ErrClosed
	}
	if err := a.zw.Flush(); err != nil {
		return err
	}
	return a.cw.Flush()
}

// Close writes the central directory, finalizes the cipher and closes the
// sink. The cipher stream is closed even if the ZIP layer fails.
func (a *ArchiveWriter) Close() error {
	if a.closed {
		return nil
	}
	a.closed = true

	zerr := a.zw.Close()
	cerr := a.cw.Close()
	if zerr != nil {
		return fmt.Errorf("failed to finish archive: %w", zerr)
	}
	return cerr
}

// ArchiveEntry describes one file inside an encrypted archive
type ArchiveEntry struct {
	Name     string
	Size     uint64
	Modified time.Time
	file     *zip.File
}

// Open returns a reader for the entry contents
func (e *ArchiveEntry) Open() (io.ReadCloser, error) {
	return e.file.Open()
}

// ArchiveReader reads a ZIP archive from a decrypting Reader.
//
// archive/zip needs random access, so the plaintext is spooled to a file
// on an absfs.FileSystem first. The spool file is removed on Close.
type ArchiveReader struct {
	source    *Reader
	fs        absfs.FileSystem
	spoolPath string
	spool     absfs.File
	zr        *zip.Reader
	entries   []*ArchiveEntry
	next      int
	closed    bool
}

// NewArchiveReader drains cr into a spool file on spoolFS and opens the
// archive. A nil spoolFS uses a private in-memory filesystem.
func NewArchiveReader(cr *Reader, spoolFS absfs.FileSystem) (*ArchiveReader, error) {
	if spoolFS == nil {
		fs, err := memfs.NewFS()
		if err != nil {
			cr.Close()
			return nil, fmt.Errorf("failed to create spool filesystem: %w", err)
		}
		spoolFS = fs
	}

	ar := &ArchiveReader{
		source: cr,
		fs:     spoolFS,
	}
	if err := ar.load(); err != nil {
		ar.Close()
		return nil, err
	}
	return ar, nil
}

func (a *ArchiveReader) load() error {
	dir := a.fs.TempDir()
	if dir == "" {
		dir = "/"
	}
	if err := a.fs.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create spool directory: %w", err)
	}

	a.spoolPath = path.Join(dir, "saltedfs-"+uuid.New().String()+".zip")
	spool, err := a.fs.OpenFile(a.spoolPath, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		a.spoolPath = ""
		return fmt.Errorf("failed to create spool file: %w", err)
	}
	a.spool = spool

	size, err := io.Copy(spool, a.source)
	if err != nil {
		return fmt.Errorf("failed to decrypt archive: %w", err)
	}

	zr, err := zip.NewReader(spool, size)
	if err != nil {
		return fmt.Errorf("failed to open archive: %w", err)
	}
	a.zr = zr

	a.entries = make([]*ArchiveEntry, 0, len(zr.File))
	for _, f := range zr.File {
		a.entries = append(a.entries, &ArchiveEntry{
			Name:     f.Name,
			Size:     f.UncompressedSize64,
			Modified: f.Modified,
			file:     f,
		})
	}
	return nil
}

// Entries returns every entry in the order it was written
func (a *ArchiveReader) Entries() []*ArchiveEntry {
	return a.entries
}

// Next returns the next entry in write order, or io.EOF after the last
func (a *ArchiveReader) Next() (*ArchiveEntry, error) {
	if a.closed {
		return nil, ErrClosed
	}
	if a.next >= len(a.entries) {
		return nil, io.EOF
	}
	e := a.entries[a.next]
	a.next++
	return e, nil
}

// Open returns a reader for the named entry
func (a *ArchiveReader) Open(name string) (io.ReadCloser, error) {
	if a.closed {
		return nil, ErrClosed
	}
	for _, e := range a.entries {
		if e.Name == name {
			return e.Open()
		}
	}
	return nil, fmt.Errorf("archive entry %s: %w", name, os.ErrNotExist)
}

// Close removes the spool file and closes the decrypting source
func (a *ArchiveReader) Close() error {
	if a.closed {
		return nil
	}
	a.closed = true

	var errs []error
	if a.spool != nil {
		errs = append(errs, a.spool.Close())
	}
	if a.spoolPath != "" {
		errs = append(errs, a.fs.Remove(a.spoolPath))
	}
	errs = append(errs, a.source.Close())
	return errors.Join(errs...)
}
