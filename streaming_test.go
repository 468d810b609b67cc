package saltedfs

import (
	"bytes"
	"crypto/rand"
	"errors"
	"io"
	"testing"
	"testing/iotest"
)

// sinkBuffer records Flush and Close calls
type sinkBuffer struct {
	bytes.Buffer
	flushes int
	closes  int
}

func (s *sinkBuffer) Flush() error {
	s.flushes++
	return nil
}

func (s *sinkBuffer) Close() error {
	s.closes++
	return nil
}

type closingReader struct {
	io.Reader
	closes int
}

func (c *closingReader) Close() error {
	c.closes++
	return nil
}

func newTestWriter(t testing.TB, mode OperationMode, sink io.Writer) *Writer {
	t.Helper()
	key, iv := testKeyIV(t, AES256CBC)
	w, err := NewStreamBuilder().
		Algorithm(AES256CBC).
		Operation(mode).
		SecretKey(key).
		IV(iv).
		Sink(sink).
		BuildWriter()
	if err != nil {
		t.Fatalf("BuildWriter failed: %v", err)
	}
	return w
}

func newTestReader(t testing.TB, mode OperationMode, src io.Reader, bufferSize int) *Reader {
	t.Helper()
	key, iv := testKeyIV(t, AES256CBC)
	r, err := NewStreamBuilder().
		Algorithm(AES256CBC).
		Operation(mode).
		SecretKey(key).
		IV(iv).
		Source(src).
		BufferSize(bufferSize).
		BuildReader()
	if err != nil {
		t.Fatalf("BuildReader failed: %v", err)
	}
	return r
}

func encryptAll(t testing.TB, plain []byte) []byte {
	t.Helper()
	var sink bytes.Buffer
	w := newTestWriter(t, Encrypt, &sink)
	if _, err := w.Write(plain); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	return sink.Bytes()
}

func TestStreamRoundTrip(t *testing.T) {
	sizes := []int{0, 1, 15, 16, 17, 511, 512, 513, 4096, 100000}
	bufferSizes := []int{0, 1, 16, 100, 512, 8192}

	for _, size := range sizes {
		plain := make([]byte, size)
		rand.Read(plain)
		ct := encryptAll(t, plain)

		if want := (size/16 + 1) * 16; len(ct) != want {
			t.Errorf("size %d: ciphertext %d bytes, want %d", size, len(ct), want)
		}

		for _, bs := range bufferSizes {
			r := newTestReader(t, Decrypt, bytes.NewReader(ct), bs)
			got, err := io.ReadAll(r)
			if err != nil {
				t.Fatalf("size %d buffer %d: ReadAll failed: %v", size, bs, err)
			}
			if !bytes.Equal(got, plain) {
				t.Errorf("size %d buffer %d: plaintext mismatch", size, bs)
			}
			r.Close()
		}
	}
}

func TestStreamReaderEncrypts(t *testing.T) {
	plain := bytes.Repeat([]byte("abc"), 1000)
	want := encryptAll(t, plain)

	r := newTestReader(t, Encrypt, iotest.OneByteReader(bytes.NewReader(plain)), 64)
	got, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("ReadAll failed: %v", err)
	}
	if !bytes.Equal(got, want) {
		t.Error("encrypting Reader differs from encrypting Writer")
	}
}

func TestStreamWriterDecrypts(t *testing.T) {
	plain := []byte("hello, salted world")
	ct := encryptAll(t, plain)

	var sink sinkBuffer
	w := newTestWriter(t, Decrypt, &sink)
	for i := range ct {
		if _, err := w.Write(ct[i : i+1]); err != nil {
			t.Fatalf("Write failed: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if sink.String() != string(plain) {
		t.Errorf("got %q, want %q", sink.String(), plain)
	}
}

func TestStreamZeroLengthOps(t *testing.T) {
	var sink bytes.Buffer
	w := newTestWriter(t, Encrypt, &sink)
	if n, err := w.Write(nil); n != 0 || err != nil {
		t.Errorf("Write(nil) = %d, %v", n, err)
	}
	w.Close()

	r := newTestReader(t, Decrypt, bytes.NewReader(sink.Bytes()), 0)
	if n, err := r.Read(nil); n != 0 || err != nil {
		t.Errorf("Read(nil) = %d, %v", n, err)
	}
	got, err := io.ReadAll(r)
	if err != nil || len(got) != 0 {
		t.Errorf("empty stream: got %d bytes, err %v", len(got), err)
	}
}

func TestStreamReaderEmptyBody(t *testing.T) {
	r := newTestReader(t, Decrypt, bytes.NewReader(nil), 0)
	got, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("ReadAll failed: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("got %d bytes from an empty body", len(got))
	}
}

func TestStreamReaderTruncatedBody(t *testing.T) {
	ct := encryptAll(t, bytes.Repeat([]byte("x"), 40))

	r := newTestReader(t, Decrypt, bytes.NewReader(ct[:len(ct)-5]), 0)
	_, err := io.ReadAll(r)
	if !errors.Is(err, ErrInvalidCiphertext) {
		t.Errorf("expected ErrInvalidCiphertext, got %v", err)
	}

	// The error is sticky.
	if _, err := r.Read(make([]byte, 1)); !errors.Is(err, ErrInvalidCiphertext) {
		t.Errorf("second Read: %v", err)
	}
}

func TestStreamReaderSourceError(t *testing.T) {
	boom := errors.New("disk on fire")
	src := io.MultiReader(bytes.NewReader(make([]byte, 32)), failingReader{boom})

	r := newTestReader(t, Decrypt, src, 16)
	_, err := io.ReadAll(r)
	if !errors.Is(err, boom) {
		t.Fatalf("expected source error, got %v", err)
	}
	if !IsIOError(err) {
		t.Errorf("expected IOError, got %T", err)
	}
}

// stallingReader returns (0, nil) for the first stalls calls, then reads r.
// A nil r stalls forever.
type stallingReader struct {
	r      io.Reader
	stalls int
	calls  int
}

func (s *stallingReader) Read(p []byte) (int, error) {
	s.calls++
	if s.r == nil || s.calls <= s.stalls {
		return 0, nil
	}
	return s.r.Read(p)
}

func TestStreamReaderNoProgress(t *testing.T) {
	src := &stallingReader{}
	r := newTestReader(t, Decrypt, src, 16)

	_, err := r.Read(make([]byte, 16))
	if !errors.Is(err, io.ErrNoProgress) {
		t.Fatalf("expected io.ErrNoProgress, got %v", err)
	}
	if !IsIOError(err) {
		t.Errorf("expected IOError, got %T", err)
	}
	if src.calls != maxEmptyReads {
		t.Errorf("source read %d times, want %d", src.calls, maxEmptyReads)
	}
}

func TestStreamReaderToleratesEmptyReads(t *testing.T) {
	plain := bytes.Repeat([]byte("z"), 100)
	src := &stallingReader{r: bytes.NewReader(encryptAll(t, plain)), stalls: maxEmptyReads - 1}

	r := newTestReader(t, Decrypt, src, 0)
	got, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("ReadAll failed: %v", err)
	}
	if !bytes.Equal(got, plain) {
		t.Errorf("round trip mismatch")
	}
}

func TestStreamReaderClose(t *testing.T) {
	ct := encryptAll(t, bytes.Repeat([]byte("y"), 1000))
	src := &closingReader{Reader: bytes.NewReader(ct)}

	r := newTestReader(t, Decrypt, src, 0)
	buf := make([]byte, 10)
	if _, err := r.Read(buf); err != nil {
		t.Fatalf("Read failed: %v", err)
	}

	// Closing part way through does not report the unchecked padding.
	if err := r.Close(); err != nil {
		t.Errorf("Close failed: %v", err)
	}
	if err := r.Close(); err != nil {
		t.Errorf("second Close failed: %v", err)
	}
	if src.closes != 1 {
		t.Errorf("source closed %d times, want 1", src.closes)
	}
	if _, err := r.Read(buf); !errors.Is(err, ErrClosed) {
		t.Errorf("Read after Close: %v", err)
	}
}

func TestStreamWriterFlush(t *testing.T) {
	var sink sinkBuffer
	w := newTestWriter(t, Encrypt, &sink)

	w.Write([]byte("0123456789"))
	if err := w.Flush(); err != nil {
		t.Fatalf("Flush failed: %v", err)
	}
	if sink.flushes != 1 {
		t.Errorf("sink flushed %d times, want 1", sink.flushes)
	}
	// A partial block stays in the transform.
	if sink.Len() != 0 {
		t.Errorf("Flush wrote %d bytes of a partial block", sink.Len())
	}

	w.Write([]byte("0123456789"))
	if sink.Len() != 16 {
		t.Errorf("sink has %d bytes after crossing a block, want 16", sink.Len())
	}

	if err := w.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if sink.Len() != 32 {
		t.Errorf("sink has %d bytes after Close, want 32", sink.Len())
	}
}

func TestStreamWriterCloseOnce(t *testing.T) {
	var sink sinkBuffer
	w := newTestWriter(t, Encrypt, &sink)
	w.WriteString("data")

	if err := w.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Errorf("second Close failed: %v", err)
	}
	if sink.closes != 1 {
		t.Errorf("sink closed %d times, want 1", sink.closes)
	}
	if _, err := w.Write([]byte("more")); !errors.Is(err, ErrClosed) {
		t.Errorf("Write after Close: %v", err)
	}
	if err := w.Flush(); !errors.Is(err, ErrClosed) {
		t.Errorf("Flush after Close: %v", err)
	}
}

func TestStreamWriterCloseReportsFinalError(t *testing.T) {
	var sink sinkBuffer
	w := newTestWriter(t, Decrypt, &sink)

	w.Write(make([]byte, 20))
	err := w.Close()
	if !errors.Is(err, ErrInvalidCiphertext) {
		t.Errorf("expected ErrInvalidCiphertext, got %v", err)
	}
	if sink.closes != 1 {
		t.Errorf("sink closed %d times, want 1", sink.closes)
	}
}

type failingWriter struct{ err error }

func (w failingWriter) Write([]byte) (int, error) { return 0, w.err }

func TestStreamWriterSinkError(t *testing.T) {
	boom := errors.New("full")
	w := newTestWriter(t, Encrypt, failingWriter{boom})

	_, err := w.Write(make([]byte, 32))
	if !errors.Is(err, boom) || !IsIOError(err) {
		t.Fatalf("expected IOError wrapping sink error, got %v", err)
	}
	if _, err := w.Write([]byte("x")); !errors.Is(err, boom) {
		t.Errorf("error is not sticky: %v", err)
	}
	if err := w.Close(); !errors.Is(err, boom) {
		t.Errorf("Close: %v", err)
	}
}

func TestFillReader(t *testing.T) {
	data := []byte("abcdefghij")
	fr := NewFillReader(iotest.OneByteReader(bytes.NewReader(data)))

	buf := make([]byte, 4)
	for _, want := range []string{"abcd", "efgh", "ij"} {
		n, err := fr.Read(buf)
		if err != nil {
			t.Fatalf("Read failed: %v", err)
		}
		if string(buf[:n]) != want {
			t.Errorf("got %q, want %q", buf[:n], want)
		}
	}
	if _, err := fr.Read(buf); err != io.EOF {
		t.Errorf("expected io.EOF, got %v", err)
	}

	src := &closingReader{Reader: bytes.NewReader(nil)}
	NewFillReader(src).Close()
	if src.closes != 1 {
		t.Errorf("FillReader did not close its source")
	}
}

func TestRoundBufferSize(t *testing.T) {
	tests := []struct{ in, want int }{
		{0, 512},
		{-1, 512},
		{1, 16},
		{16, 16},
		{17, 32},
		{1000, 1008},
	}
	for _, tt := range tests {
		if got := roundBufferSize(tt.in, 16); got != tt.want {
			t.Errorf("roundBufferSize(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}
