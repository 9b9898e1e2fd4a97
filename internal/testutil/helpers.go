package testutil

import (
	"bytes"
	"fmt"
	"io"
	"math/rand"
	"strings"
	"time"
)

// GenerateRandomData generates size deterministic pseudo-random bytes.
// The same size always yields the same bytes, so failures are reproducible.
func GenerateRandomData(size int) []byte {
	data := make([]byte, size)
	rng := rand.New(rand.NewSource(int64(size)))
	_, _ = rng.Read(data)
	return data
}

// GenerateTestKey generates a test object key with optional prefix.
// This helps ensure test isolation by using unique keys.
func GenerateTestKey(prefix string) string {
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return fmt.Sprintf("%stest-object-%d-%d", prefix, time.Now().UnixNano(), rand.Int63n(100000))
}

// GenerateTestBucketName generates a valid, DNS-compliant test bucket name.
func GenerateTestBucketName(prefix string) string {
	name := fmt.Sprintf("%s-%d-%d", prefix, time.Now().Unix(), rand.Int31n(10000))
	name = strings.ReplaceAll(strings.ToLower(name), "_", "-")
	if len(name) > 63 {
		name = name[:63]
	}
	return name
}

// FailingBody returns a body that yields data and then fails with err.
func FailingBody(data []byte, err error) io.ReadCloser {
	return io.NopCloser(io.MultiReader(bytes.NewReader(data), &errReader{err: err}))
}

type errReader struct {
	err error
}

func (r *errReader) Read([]byte) (int, error) {
	return 0, r.err
}

// TrackingBody wraps a body and records whether it was closed.
type TrackingBody struct {
	io.Reader
	Closed bool
}

// NewTrackingBody wraps data in a TrackingBody.
func NewTrackingBody(data []byte) *TrackingBody {
	return &TrackingBody{Reader: bytes.NewReader(data)}
}

// Close marks the body as closed.
func (b *TrackingBody) Close() error {
	b.Closed = true
	return nil
}
