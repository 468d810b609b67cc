package saltedfs

import (
	"fmt"
	"io"

	"github.com/absfs/absfs"
	"github.com/rs/zerolog"
)

// CipherParams reports the salt and derived key material of a stream
type CipherParams struct {
	Salt      []byte
	SecretKey []byte
	IV        []byte
}

// StreamFactory opens salted container streams for one Config. It holds
// no mutable state; one factory may serve any number of streams.
type StreamFactory struct {
	cipher      CipherAlgorithm
	keyProvider KeyProvider
	bufferSize  int
	spoolFS     absfs.FileSystem
	logger      zerolog.Logger
}

// NewStreamFactory validates config and creates a factory
func NewStreamFactory(config *Config) (*StreamFactory, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &StreamFactory{
		cipher:      config.cipher(),
		keyProvider: config.KeyProvider,
		bufferSize:  config.BufferSize,
		spoolFS:     config.SpoolFS,
		logger:      config.logger(),
	}, nil
}

// Cipher returns the algorithm streams are opened with
func (f *StreamFactory) Cipher() CipherAlgorithm {
	return f.cipher
}

func (f *StreamFactory) params(salt []byte) (*CipherParams, error) {
	key, iv, err := f.keyProvider.DeriveKeyIV(salt, f.cipher)
	if err != nil {
		return nil, fmt.Errorf("failed to derive key: %w", err)
	}
	return &CipherParams{Salt: salt, SecretKey: key, IV: iv}, nil
}

func (f *StreamFactory) newParams() (*CipherParams, error) {
	salt, err := f.keyProvider.GenerateSalt()
	if err != nil {
		return nil, err
	}
	if err := ValidateSalt(salt); err != nil {
		return nil, err
	}
	f.logger.Debug().Str("cipher", f.cipher.String()).Msg("generated salt")
	return f.params(salt)
}

func (f *StreamFactory) builder(mode OperationMode, p *CipherParams) *StreamBuilder {
	return NewStreamBuilder().
		Algorithm(f.cipher).
		Operation(mode).
		SecretKey(p.SecretKey).
		IV(p.IV).
		BufferSize(f.bufferSize)
}

// EncryptWriter writes a fresh salted header to w and returns a Writer
// that encrypts into it. Closing the Writer closes w.
func (f *StreamFactory) EncryptWriter(w io.Writer) (*Writer, *CipherParams, error) {
	p, err := f.newParams()
	if err != nil {
		return nil, nil, err
	}
	if err := WriteHeader(w, p.Salt); err != nil {
		return nil, nil, err
	}
	cw, err := f.builder(Encrypt, p).Sink(w).BuildWriter()
	if err != nil {
		return nil, nil, err
	}
	return cw, p, nil
}

// DecryptReader consumes the salted header of r and returns a Reader that
// yields the plaintext.
func (f *StreamFactory) DecryptReader(r io.Reader) (*Reader, *CipherParams, error) {
	salt, err := ReadHeader(r)
	if err != nil {
		return nil, nil, err
	}
	f.logger.Debug().Str("cipher", f.cipher.String()).Msg("read salted header")

	p, err := f.params(salt)
	if err != nil {
		return nil, nil, err
	}
	cr, err := f.builder(Decrypt, p).Source(r).BuildReader()
	if err != nil {
		return nil, nil, err
	}
	return cr, p, nil
}

// EncryptReader returns a Reader that yields a complete salted container
// (header then ciphertext) for the plaintext in r.
func (f *StreamFactory) EncryptReader(r io.Reader) (*Reader, *CipherParams, error) {
	p, err := f.newParams()
	if err != nil {
		return nil, nil, err
	}
	cr, err := f.builder(Encrypt, p).Source(r).BuildReader()
	if err != nil {
		return nil, nil, err
	}
	cr.out = NewHeader(p.Salt).Bytes()
	return cr, p, nil
}

// DecryptWriter returns a Writer that decrypts a container body into w.
// The caller has already consumed the header and passes its salt.
func (f *StreamFactory) DecryptWriter(w io.Writer, salt []byte) (*Writer, *CipherParams, error) {
	if err := ValidateSalt(salt); err != nil {
		return nil, nil, err
	}
	p, err := f.params(salt)
	if err != nil {
		return nil, nil, err
	}
	cw, err := f.builder(Decrypt, p).Sink(w).BuildWriter()
	if err != nil {
		return nil, nil, err
	}
	return cw, p, nil
}

// ArchiveWriter returns a ZIP writer whose output is encrypted into w
func (f *StreamFactory) ArchiveWriter(w io.Writer) (*ArchiveWriter, *CipherParams, error) {
	cw, p, err := f.EncryptWriter(w)
	if err != nil {
		return nil, nil, err
	}
	return NewArchiveWriter(cw), p, nil
}

// ArchiveReader decrypts r and opens the ZIP archive inside it
func (f *StreamFactory) ArchiveReader(r io.Reader) (*ArchiveReader, *CipherParams, error) {
	cr, p, err := f.DecryptReader(r)
	if err != nil {
		return nil, nil, err
	}
	ar, err := NewArchiveReader(cr, f.spoolFS)
	if err != nil {
		return nil, nil, err
	}
	f.logger.Debug().Int("entries", len(ar.Entries())).Msg("opened encrypted archive")
	return ar, p, nil
}
