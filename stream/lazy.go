package stream

import "sync"

// LazySink defers opening its underlying sink until the first write or
// close. A download that fails before any byte arrives never opens it,
// so an existing destination is left untouched.
type LazySink struct {
	open func() (Sink, error)

	mu    sync.Mutex
	inner Sink
	err   error
}

// NewLazySink returns a sink that calls open on first use.
func NewLazySink(open func() (Sink, error)) *LazySink {
	return &LazySink{open: open}
}

func (s *LazySink) sink() (Sink, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.inner == nil && s.err == nil {
		inner, err := s.open()
		if err != nil {
			s.err = err
			return nil, err
		}
		s.inner = inner
	}
	return s.inner, s.err
}

// Write implements Sink.
func (s *LazySink) Write(p []byte) (bool, error) {
	inner, err := s.sink()
	if err != nil {
		return false, err
	}
	return inner.Write(p)
}

// OnDrained implements Sink. An unopened sink holds nothing, so fn runs
// immediately.
func (s *LazySink) OnDrained(fn func()) {
	s.mu.Lock()
	inner := s.inner
	s.mu.Unlock()

	if inner == nil {
		fn()
		return
	}
	inner.OnDrained(fn)
}

// Close implements Sink. Closing an unopened sink opens it first, so an
// empty download still produces its destination.
func (s *LazySink) Close() error {
	inner, err := s.sink()
	if err != nil {
		return err
	}
	return inner.Close()
}

// Opened reports whether the underlying sink was opened.
func (s *LazySink) Opened() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inner != nil
}

// Discard closes the underlying sink if it was opened and never opens it
// otherwise.
func (s *LazySink) Discard() error {
	s.mu.Lock()
	inner := s.inner
	s.mu.Unlock()

	if inner == nil {
		return nil
	}
	return inner.Close()
}

var _ Sink = (*LazySink)(nil)
