package testutil

import (
	"bytes"
	"sync"
	"time"

	"github.com/input-output-hk/catalyst-forge-libs/transfer/stream"
)

// BackpressureSink is a stream.Sink that reports backpressure every
// Threshold bytes and drains asynchronously after DrainDelay.
// It counts writes that arrive while it is stalled so tests can assert that
// the writer honoured the backpressure signal.
type BackpressureSink struct {
	Threshold  int
	DrainDelay time.Duration

	// WriteErr is returned once more than FailAfter bytes have been written
	WriteErr  error
	FailAfter int

	// CloseErr is returned by the first Close
	CloseErr error

	mu             sync.Mutex
	buf            bytes.Buffer
	pending        int
	stalled        bool
	stalls         int
	writesWhenFull int
	closeCalls     int
	closed         bool
}

// NewBackpressureSink creates a sink that stalls every threshold bytes.
func NewBackpressureSink(threshold int) *BackpressureSink {
	return &BackpressureSink{Threshold: threshold, DrainDelay: time.Millisecond}
}

// Write implements stream.Sink.
func (s *BackpressureSink) Write(p []byte) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return false, stream.ErrSinkClosed
	}
	if s.WriteErr != nil && s.buf.Len()+len(p) > s.FailAfter {
		return false, s.WriteErr
	}
	if s.stalled {
		s.writesWhenFull++
	}

	s.buf.Write(p)
	s.pending += len(p)
	if s.pending >= s.Threshold {
		if !s.stalled {
			s.stalls++
		}
		s.stalled = true
		return false, nil
	}
	return true, nil
}

// OnDrained implements stream.Sink.
func (s *BackpressureSink) OnDrained(fn func()) {
	s.mu.Lock()
	if !s.stalled {
		s.mu.Unlock()
		fn()
		return
	}
	delay := s.DrainDelay
	s.mu.Unlock()

	go func() {
		time.Sleep(delay)
		s.mu.Lock()
		s.pending = 0
		s.stalled = false
		s.mu.Unlock()
		fn()
	}()
}

// Close implements stream.Sink.
func (s *BackpressureSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closeCalls++
	if s.closed {
		return stream.ErrSinkClosed
	}
	s.closed = true
	return s.CloseErr
}

// Bytes returns a copy of everything written.
func (s *BackpressureSink) Bytes() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return bytes.Clone(s.buf.Bytes())
}

// Stalls returns how many times the sink reported backpressure.
func (s *BackpressureSink) Stalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stalls
}

// WritesWhenFull returns how many writes arrived while the sink was stalled.
func (s *BackpressureSink) WritesWhenFull() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writesWhenFull
}

// CloseCalls returns how many times Close was called.
func (s *BackpressureSink) CloseCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closeCalls
}

var _ stream.Sink = (*BackpressureSink)(nil)
