package stream

import (
	"errors"
	"fmt"
	"io"
)

// ErrOutOfRange is returned when a slice extends beyond the source.
var ErrOutOfRange = errors.New("stream: slice out of range")

// Source is a random-access byte source of known length.
// Slice must return exactly length bytes or an error, and repeated calls
// with the same arguments must return the same bytes.
type Source interface {
	Len() int64
	Slice(offset, length int64) ([]byte, error)
}

// BytesSource serves slices of an in-memory buffer.
type BytesSource struct {
	data []byte
}

// NewBytesSource wraps data. The slices it returns alias data.
func NewBytesSource(data []byte) *BytesSource {
	return &BytesSource{data: data}
}

// Len implements Source.
func (s *BytesSource) Len() int64 {
	return int64(len(s.data))
}

// Slice implements Source.
func (s *BytesSource) Slice(offset, length int64) ([]byte, error) {
	if err := checkBounds(offset, length, s.Len()); err != nil {
		return nil, err
	}
	return s.data[offset : offset+length : offset+length], nil
}

// ReaderAtSource serves slices of any io.ReaderAt of known size.
type ReaderAtSource struct {
	r    io.ReaderAt
	size int64
}

// NewReaderAtSource wraps r, which must hold at least size bytes.
func NewReaderAtSource(r io.ReaderAt, size int64) *ReaderAtSource {
	return &ReaderAtSource{r: r, size: size}
}

// Len implements Source.
func (s *ReaderAtSource) Len() int64 {
	return s.size
}

// Slice implements Source. Every call reads into a fresh buffer.
func (s *ReaderAtSource) Slice(offset, length int64) ([]byte, error) {
	if err := checkBounds(offset, length, s.size); err != nil {
		return nil, err
	}

	buf := make([]byte, length)
	if _, err := io.ReadFull(io.NewSectionReader(s.r, offset, length), buf); err != nil {
		return nil, fmt.Errorf("stream: read %d bytes at offset %d: %w", length, offset, err)
	}
	return buf, nil
}

func checkBounds(offset, length, size int64) error {
	if offset < 0 || length < 0 || offset > size || length > size-offset {
		return fmt.Errorf("%w: offset %d length %d size %d", ErrOutOfRange, offset, length, size)
	}
	return nil
}
