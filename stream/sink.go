package stream

import (
	"bytes"
	"errors"
	"io"
	"sync"

	"github.com/input-output-hk/catalyst-forge-libs/transfer/internal/pool"
)

// DefaultHighWaterMark is the queued byte count at which WriterSink starts
// reporting backpressure.
const DefaultHighWaterMark = 64 * 1024

// ErrSinkClosed is returned by Write and Close on a sink that is already closed.
var ErrSinkClosed = errors.New("stream: sink closed")

// Sink is a flow-controlled byte sink.
type Sink interface {
	// Write queues a copy of p. accepted is false when the sink is at or over
	// its high-water mark; the bytes are still kept.
	Write(p []byte) (accepted bool, err error)

	// OnDrained registers fn to run once when the sink drops below its
	// high-water mark, or immediately if it already is.
	OnDrained(fn func())

	// Close flushes queued bytes and releases the sink.
	Close() error
}

// WriterSink delivers chunks to an io.Writer from a background goroutine.
// A write error from the underlying writer is sticky: queued bytes are
// discarded and the error is returned by every later Write and by Close.
type WriterSink struct {
	w             io.Writer
	highWaterMark int

	mu      sync.Mutex
	cond    *sync.Cond
	queue   [][]byte
	queued  int
	waiters []func()
	err     error
	closed  bool
	done    chan struct{}
}

// NewWriterSink starts a sink that writes to w. A non-positive
// highWaterMark selects DefaultHighWaterMark. If w is an io.Closer it is
// closed by Close.
func NewWriterSink(w io.Writer, highWaterMark int) *WriterSink {
	if highWaterMark <= 0 {
		highWaterMark = DefaultHighWaterMark
	}

	s := &WriterSink{
		w:             w,
		highWaterMark: highWaterMark,
		done:          make(chan struct{}),
	}
	s.cond = sync.NewCond(&s.mu)
	go s.flush()
	return s
}

// Write implements Sink.
func (s *WriterSink) Write(p []byte) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return false, ErrSinkClosed
	}
	if s.err != nil {
		return false, s.err
	}
	if len(p) > 0 {
		s.queue = append(s.queue, pool.Copy(p))
		s.queued += len(p)
		s.cond.Signal()
	}
	return s.queued < s.highWaterMark, nil
}

// OnDrained implements Sink. Callbacks also fire when the sink fails or
// closes so a waiting writer can observe the outcome.
func (s *WriterSink) OnDrained(fn func()) {
	s.mu.Lock()
	if s.queued < s.highWaterMark || s.err != nil || s.closed {
		s.mu.Unlock()
		fn()
		return
	}
	s.waiters = append(s.waiters, fn)
	s.mu.Unlock()
}

// Buffered returns the number of bytes queued but not yet written.
func (s *WriterSink) Buffered() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.queued
}

// Close implements Sink. It waits for the queue to flush, then closes the
// underlying writer if it is an io.Closer.
func (s *WriterSink) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrSinkClosed
	}
	s.closed = true
	s.cond.Broadcast()
	s.mu.Unlock()

	<-s.done

	s.mu.Lock()
	err := s.err
	waiters := s.waiters
	s.waiters = nil
	s.mu.Unlock()
	for _, fn := range waiters {
		fn()
	}

	if c, ok := s.w.(io.Closer); ok {
		if cerr := c.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

func (s *WriterSink) flush() {
	defer close(s.done)

	for {
		s.mu.Lock()
		for len(s.queue) == 0 && !s.closed {
			s.cond.Wait()
		}
		if len(s.queue) == 0 {
			s.mu.Unlock()
			return
		}
		chunk := s.queue[0]
		s.queue[0] = nil
		s.queue = s.queue[1:]
		s.mu.Unlock()

		_, werr := s.w.Write(chunk)
		n := len(chunk)
		pool.Put(chunk)

		s.mu.Lock()
		s.queued -= n
		if werr != nil && s.err == nil {
			s.err = werr
			for _, dropped := range s.queue {
				pool.Put(dropped)
			}
			s.queue = nil
			s.queued = 0
		}
		var ready []func()
		if s.queued < s.highWaterMark || s.err != nil {
			ready = s.waiters
			s.waiters = nil
		}
		s.mu.Unlock()

		for _, fn := range ready {
			fn()
		}
	}
}

// BufferSink collects everything written to it in memory and never
// reports backpressure.
type BufferSink struct {
	mu     sync.Mutex
	buf    bytes.Buffer
	closed bool
}

// NewBufferSink creates an empty BufferSink.
func NewBufferSink() *BufferSink {
	return &BufferSink{}
}

// Write implements Sink.
func (s *BufferSink) Write(p []byte) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return false, ErrSinkClosed
	}
	s.buf.Write(p)
	return true, nil
}

// OnDrained implements Sink.
func (s *BufferSink) OnDrained(fn func()) {
	fn()
}

// Close implements Sink.
func (s *BufferSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrSinkClosed
	}
	s.closed = true
	return nil
}

// Bytes returns a copy of the collected bytes.
func (s *BufferSink) Bytes() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return bytes.Clone(s.buf.Bytes())
}

// Closed reports whether Close has been called.
func (s *BufferSink) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

var (
	_ Sink = (*WriterSink)(nil)
	_ Sink = (*BufferSink)(nil)
)
