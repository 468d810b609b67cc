package saltedfs

import (
	"bufio"
	"bytes"
	"io"
	"os"
	"testing"

	"github.com/absfs/memfs"
)

// TestIntegration_CommandAndStreamsAgree checks that the one-shot command
// and the streaming factory read each other's containers.
func TestIntegration_CommandAndStreamsAgree(t *testing.T) {
	passphrase := []byte("shared-secret")
	provider := NewPassphraseKeyProvider(passphrase, BytesToKeyParams{})
	f := newTestFactory(t, &Config{KeyProvider: provider})
	cmd := NewCryptCommand(AES256CBC)

	plain := bytes.Repeat([]byte("interop "), 777)

	// Command -> stream
	enc := NewCryptContext(Encrypt, passphrase, plain)
	if err := cmd.Execute(enc); err != nil {
		t.Fatalf("command encrypt failed: %v", err)
	}
	r, _, err := f.DecryptReader(bytes.NewReader(enc.Output))
	if err != nil {
		t.Fatalf("DecryptReader failed: %v", err)
	}
	got, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("ReadAll failed: %v", err)
	}
	r.Close()
	if !bytes.Equal(got, plain) {
		t.Error("stream could not read command output")
	}

	// Stream -> command
	var buf bytes.Buffer
	w, _, err := f.EncryptWriter(&buf)
	if err != nil {
		t.Fatalf("EncryptWriter failed: %v", err)
	}
	if _, err := io.Copy(w, bytes.NewReader(plain)); err != nil {
		t.Fatalf("Copy failed: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	dec := NewCryptContext(Decrypt, passphrase, buf.Bytes())
	if err := cmd.Execute(dec); err != nil {
		t.Fatalf("command decrypt failed: %v", err)
	}
	if !bytes.Equal(dec.Output, plain) {
		t.Error("command could not read stream output")
	}
}

// TestIntegration_FileOnMemfs writes a container to a memfs file through a
// buffered writer and reads it back.
func TestIntegration_FileOnMemfs(t *testing.T) {
	fs, err := memfs.NewFS()
	if err != nil {
		t.Fatalf("Failed to create memfs: %v", err)
	}
	f := newTestFactory(t, &Config{
		Cipher:      AES128CBC,
		KeyProvider: NewPassphraseKeyProviderPBKDF2([]byte("file-password"), PBKDF2Params{Iterations: 1000}),
	})

	content := bytes.Repeat([]byte("0123456789abcdef"), 4096)

	out, err := fs.OpenFile("/data.enc", os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		t.Fatalf("OpenFile failed: %v", err)
	}
	bw := bufio.NewWriter(out)
	w, _, err := f.EncryptWriter(bw)
	if err != nil {
		t.Fatalf("EncryptWriter failed: %v", err)
	}
	if _, err := w.Write(content); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	// Close flushes the bufio.Writer; it is not a Closer so the file stays open.
	if err := w.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	out.Close()

	info, err := fs.Stat("/data.enc")
	if err != nil {
		t.Fatalf("Stat failed: %v", err)
	}
	if want := int64(HeaderSize + len(content) + BlockSize); info.Size() != want {
		t.Errorf("file size = %d, want %d", info.Size(), want)
	}

	in, err := fs.Open("/data.enc")
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	r, _, err := f.DecryptReader(in)
	if err != nil {
		t.Fatalf("DecryptReader failed: %v", err)
	}
	got, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("ReadAll failed: %v", err)
	}
	if err := r.Close(); err != nil {
		t.Errorf("Close failed: %v", err)
	}
	if !bytes.Equal(got, content) {
		t.Error("content mismatch")
	}
}

// TestIntegration_PipeStreaming pushes a container through an io.Pipe so
// the reader never sees more than one write at a time.
func TestIntegration_PipeStreaming(t *testing.T) {
	f := newTestFactory(t, &Config{
		KeyProvider: NewPassphraseKeyProvider([]byte("pipe"), BytesToKeyParams{Digest: DigestSHA512, Count: 2}),
		BufferSize:  48,
	})

	plain := make([]byte, 10000)
	for i := range plain {
		plain[i] = byte(i * 7)
	}

	pr, pw := io.Pipe()
	go func() {
		w, _, err := f.EncryptWriter(pw)
		if err != nil {
			pw.CloseWithError(err)
			return
		}
		for i := 0; i < len(plain); i += 333 {
			end := min(i+333, len(plain))
			if _, err := w.Write(plain[i:end]); err != nil {
				pw.CloseWithError(err)
				return
			}
		}
		// Closes pw.
		w.Close()
	}()

	r, _, err := f.DecryptReader(pr)
	if err != nil {
		t.Fatalf("DecryptReader failed: %v", err)
	}
	got, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("ReadAll failed: %v", err)
	}
	if !bytes.Equal(got, plain) {
		t.Error("content mismatch")
	}
}
