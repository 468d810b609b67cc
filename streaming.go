package saltedfs

import (
	"errors"
	"io"
)

// Reader pulls bytes from a source through a Transform.
//
// Each fill reads up to the buffer size from the source and feeds it to
// the transform; the output is handed out across Read calls. When the
// source is exhausted the transform is finalized, which checks padding on
// decryption. A Reader is not safe for concurrent use.
type Reader struct {
	src       io.Reader
	transform Transform
	ibuf      []byte // source bytes for the next Update
	obuf      []byte // transform output backing array
	out       []byte // undelivered part of obuf
	done      bool   // source exhausted and transform finalized
	err       error  // sticky error
	closed    bool
}

func newReader(src io.Reader, t Transform, bufferSize int) *Reader {
	return &Reader{
		src:       src,
		transform: t,
		ibuf:      make([]byte, roundBufferSize(bufferSize, t.BlockSize())),
	}
}

// maxEmptyReads bounds consecutive (0, nil) reads from a source
const maxEmptyReads = 100

// roundBufferSize rounds size up to a multiple of the block size
func roundBufferSize(size, blockSize int) int {
	if size <= 0 {
		size = DefaultBufferSize
	}
	if rem := size % blockSize; rem != 0 {
		size += blockSize - rem
	}
	return size
}

// Read reads transformed bytes into p
func (r *Reader) Read(p []byte) (int, error) {
	if r.closed {
		return 0, ErrClosed
	}
	if len(p) == 0 {
		return 0, nil
	}

	for len(r.out) == 0 {
		if r.err != nil {
			return 0, r.err
		}
		if r.done {
			return 0, io.EOF
		}
		r.fill()
	}

	n := copy(p, r.out)
	r.out = r.out[n:]
	return n, nil
}

// fill pulls one buffer from the source. The transform may emit nothing
// for a given chunk while it buffers a partial block.
func (r *Reader) fill() {
	n, err := r.src.Read(r.ibuf)
	for empty := 1; n == 0 && err == nil; empty++ {
		if empty >= maxEmptyReads {
			r.err = NewIOError("read", io.ErrNoProgress)
			return
		}
		n, err = r.src.Read(r.ibuf)
	}
	if n > 0 {
		r.obuf, r.err = r.transform.Update(r.obuf[:0], r.ibuf[:n])
		r.out = r.obuf
		if r.err != nil {
			return
		}
	}

	switch {
	case errors.Is(err, io.EOF):
		r.finish()
	case err != nil:
		r.err = NewIOError("read", err)
	}
}

func (r *Reader) finish() {
	r.done = true
	start := len(r.out)
	buf, err := r.transform.Final(append(r.obuf[:0], r.out...))
	if err != nil {
		r.err = err
		r.out = buf[:start]
		return
	}
	r.obuf = buf
	r.out = buf
}

// Buffered returns the number of transformed bytes ready to be read
func (r *Reader) Buffered() int {
	return len(r.out)
}

// Close releases the source exactly once. If the stream was not read to
// the end the transform is still finalized; a padding error at that point
// is dropped because the caller already abandoned the stream.
func (r *Reader) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true

	if !r.done {
		r.done = true
		_, _ = r.transform.Final(nil)
	}
	r.out = nil

	if c, ok := r.src.(io.Closer); ok {
		if err := c.Close(); err != nil {
			return NewIOError("close", err)
		}
	}
	return nil
}

// flusher is implemented by sinks that buffer, e.g. *bufio.Writer
type flusher interface {
	Flush() error
}

// Writer pushes bytes through a Transform into a sink.
//
// Output is written to the sink as soon as the transform emits it. Close
// finalizes the transform, writes the last block and closes the sink. A
// Writer is not safe for concurrent use.
type Writer struct {
	dst       io.Writer
	transform Transform
	obuf      []byte
	err       error // sticky error
	closed    bool
}

func newWriter(dst io.Writer, t Transform) *Writer {
	return &Writer{
		dst:       dst,
		transform: t,
	}
}

// Write transforms p and writes the available output to the sink
func (w *Writer) Write(p []byte) (int, error) {
	if w.closed {
		return 0, ErrClosed
	}
	if w.err != nil {
		return 0, w.err
	}
	if len(p) == 0 {
		return 0, nil
	}

	out, err := w.transform.Update(w.obuf[:0], p)
	w.obuf = out
	if err != nil {
		w.err = err
		return 0, err
	}
	if err := w.emit(out); err != nil {
		return 0, err
	}
	return len(p), nil
}

// WriteString is a convenience wrapper around Write
func (w *Writer) WriteString(s string) (int, error) {
	return w.Write([]byte(s))
}

func (w *Writer) emit(out []byte) error {
	if len(out) == 0 {
		return nil
	}
	if _, err := w.dst.Write(out); err != nil {
		w.err = NewIOError("write", err)
		return w.err
	}
	return nil
}

// Flush pushes sink-buffered bytes downstream without finalizing the
// transform; a partial block stays in the transform until Close.
func (w *Writer) Flush() error {
	if w.closed {
		return ErrClosed
	}
	if w.err != nil {
		return w.err
	}
	return w.flushSink()
}

func (w *Writer) flushSink() error {
	if f, ok := w.dst.(flusher); ok {
		if err := f.Flush(); err != nil {
			w.err = NewIOError("flush", err)
			return w.err
		}
	}
	return nil
}

// Close finalizes the transform, writes the last block, flushes and closes
// the sink. The sink is closed exactly once even when finalization fails;
// the first error is returned. Repeated calls are no-ops.
func (w *Writer) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true

	firstErr := w.err
	if firstErr == nil {
		out, err := w.transform.Final(w.obuf[:0])
		w.obuf = out
		if err != nil {
			firstErr = err
		} else if err := w.emit(out); err != nil {
			firstErr = err
		} else if err := w.flushSink(); err != nil {
			firstErr = err
		}
	} else {
		_, _ = w.transform.Final(nil)
	}

	if c, ok := w.dst.(io.Closer); ok {
		if err := c.Close(); err != nil && firstErr == nil {
			firstErr = NewIOError("close", err)
		}
	}
	return firstErr
}

// FillReader makes every Read fill the caller's buffer unless the
// underlying reader reaches EOF first.
type FillReader struct {
	r    io.Reader
	done bool
}

// NewFillReader wraps r
func NewFillReader(r io.Reader) *FillReader {
	return &FillReader{r: r}
}

// Read reads until p is full or the underlying reader is exhausted
func (f *FillReader) Read(p []byte) (int, error) {
	if f.done {
		return 0, io.EOF
	}
	n, err := io.ReadFull(f.r, p)
	switch {
	case err == nil:
		return n, nil
	case errors.Is(err, io.ErrUnexpectedEOF), errors.Is(err, io.EOF):
		f.done = true
		if n == 0 {
			return 0, io.EOF
		}
		return n, nil
	default:
		return n, err
	}
}

// Close closes the underlying reader if it is an io.Closer
func (f *FillReader) Close() error {
	if c, ok := f.r.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
