package stream

import (
	"encoding/hex"
	"sync"

	"github.com/zeebo/blake3"
)

// DigestSink forwards writes to another sink and hashes every byte the
// inner sink takes, in order.
type DigestSink struct {
	inner Sink

	mu     sync.Mutex
	hasher *blake3.Hasher
	n      int64
}

// NewDigestSink wraps inner.
func NewDigestSink(inner Sink) *DigestSink {
	return &DigestSink{inner: inner, hasher: blake3.New()}
}

// Write implements Sink.
func (s *DigestSink) Write(p []byte) (bool, error) {
	accepted, err := s.inner.Write(p)
	if err != nil {
		return accepted, err
	}

	s.mu.Lock()
	_, _ = s.hasher.Write(p)
	s.n += int64(len(p))
	s.mu.Unlock()
	return accepted, nil
}

// OnDrained implements Sink.
func (s *DigestSink) OnDrained(fn func()) {
	s.inner.OnDrained(fn)
}

// Close implements Sink.
func (s *DigestSink) Close() error {
	return s.inner.Close()
}

// Sum returns the 32-byte blake3 digest of the bytes written so far.
func (s *DigestSink) Sum() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hasher.Sum(nil)
}

// Hex returns Sum as a lower-case hex string.
func (s *DigestSink) Hex() string {
	return hex.EncodeToString(s.Sum())
}

// Size returns the number of bytes hashed.
func (s *DigestSink) Size() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.n
}

var _ Sink = (*DigestSink)(nil)
