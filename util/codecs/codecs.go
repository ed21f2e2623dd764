package codecs

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"
)

var bufferPool = sync.Pool{New: allocBuffer}

func allocBuffer() interface{} {
	return &bytes.Buffer{}
}

func getBuffer() *bytes.Buffer {
	return bufferPool.Get().(*bytes.Buffer)
}

func releaseBuffer(v *bytes.Buffer) {
	v.Reset()
	v.Grow(0)
	bufferPool.Put(v)
}

// Codec errors
var (
	ErrEmptyInput    = errors.New("empty input")
	ErrEmptyOutput   = errors.New("codec produced empty output")
	ErrUnknownFormat = errors.New("value is neither kubernetes protobuf nor json")
)

// Codec - translates between the binary form objects are stored in and
// editable YAML. Implementations must not modify the bytes they are given
// beyond the translation itself.
type Codec interface {
	// Decode - binary value into YAML
	Decode(ctx context.Context, r io.Reader) ([]byte, error)
	// Encode - YAML into binary value
	Encode(ctx context.Context, r io.Reader) ([]byte, error)
	Name() string
}
