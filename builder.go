package saltedfs

import (
	"io"
)

// StreamBuilder assembles a Reader or Writer. Setters may be called in any
// order; every field is checked at build time and all problems are
// reported together in a single *ConfigError.
type StreamBuilder struct {
	algorithm  CipherAlgorithm
	operation  OperationMode
	secretKey  []byte
	iv         []byte
	source     io.Reader
	sink       io.Writer
	bufferSize int
}

// NewStreamBuilder returns an empty builder
func NewStreamBuilder() *StreamBuilder {
	return &StreamBuilder{}
}

// Algorithm sets the cipher algorithm
func (b *StreamBuilder) Algorithm(alg CipherAlgorithm) *StreamBuilder {
	b.algorithm = alg
	return b
}

// Operation sets the transform direction
func (b *StreamBuilder) Operation(mode OperationMode) *StreamBuilder {
	b.operation = mode
	return b
}

// SecretKey sets the key; it must be at least the algorithm's key size
func (b *StreamBuilder) SecretKey(key []byte) *StreamBuilder {
	b.secretKey = key
	return b
}

// IV sets the initialization vector
func (b *StreamBuilder) IV(iv []byte) *StreamBuilder {
	b.iv = iv
	return b
}

// Source sets the stream a Reader pulls from
func (b *StreamBuilder) Source(r io.Reader) *StreamBuilder {
	b.source = r
	return b
}

// Sink sets the stream a Writer pushes to
func (b *StreamBuilder) Sink(w io.Writer) *StreamBuilder {
	b.sink = w
	return b
}

// BufferSize sets the Reader input buffer size (default 512)
func (b *StreamBuilder) BufferSize(size int) *StreamBuilder {
	b.bufferSize = size
	return b
}

// BuildReader validates the builder and returns a Reader over the source
func (b *StreamBuilder) BuildReader() (*Reader, error) {
	problems := b.validate()
	if b.source == nil {
		problems = append(problems, &ValidationError{Field: "source", Message: "input stream is not set"})
	}
	t, err := b.build(problems)
	if err != nil {
		return nil, err
	}
	return newReader(b.source, t, b.bufferSize), nil
}

// BuildWriter validates the builder and returns a Writer over the sink
func (b *StreamBuilder) BuildWriter() (*Writer, error) {
	problems := b.validate()
	if b.sink == nil {
		problems = append(problems, &ValidationError{Field: "sink", Message: "output stream is not set"})
	}
	t, err := b.build(problems)
	if err != nil {
		return nil, err
	}
	return newWriter(b.sink, t), nil
}

func (b *StreamBuilder) build(problems []*ValidationError) (Transform, error) {
	if len(problems) > 0 {
		return nil, &ConfigError{Problems: problems}
	}
	return NewTransform(b.algorithm, b.operation, b.secretKey, b.iv)
}

// validate checks the stream-independent fields
func (b *StreamBuilder) validate() []*ValidationError {
	var problems []*ValidationError
	add := func(err error) {
		if ve, ok := err.(*ValidationError); ok {
			problems = append(problems, ve)
		}
	}

	add(ValidateAlgorithm(b.algorithm))
	add(ValidateOperation(b.operation))
	// Key and IV sizes depend on a known algorithm.
	if b.algorithm.IsValid() {
		add(ValidateKey(b.secretKey, b.algorithm))
		add(ValidateIV(b.iv, b.algorithm))
	} else if len(b.secretKey) == 0 {
		add(&ValidationError{Field: "secret_key", Message: "secret key is not set"})
	}
	add(ValidateBufferSize(b.bufferSize))
	return problems
}
