package testutil

import (
	"context"
	"io"
	"sync"

	"github.com/input-output-hk/catalyst-forge-libs/transfer/errors"
	"github.com/input-output-hk/catalyst-forge-libs/transfer/xfertypes"
)

// BackendBuilder provides a fluent interface for building MockBackend instances
// preloaded with common failure scenarios.
type BackendBuilder struct {
	mock *MockBackend
}

// NewBackendBuilder creates a builder around a MockBackend with an in-memory store.
func NewBackendBuilder() *BackendBuilder {
	mock, _ := NewMockBackend()
	return &BackendBuilder{mock: mock}
}

// Build returns the configured MockBackend.
func (b *BackendBuilder) Build() *MockBackend {
	return b.mock
}

// WithObject seeds the in-memory store with an object.
func (b *BackendBuilder) WithObject(target xfertypes.Target, data []byte) *BackendBuilder {
	if store, ok := b.mock.Backend.(interface {
		PutObject(xfertypes.Target, []byte, xfertypes.ObjectMetadata)
	}); ok {
		store.PutObject(target, data, xfertypes.ObjectMetadata{})
	}
	return b
}

// WithInitiateError makes InitiateMultipart fail.
func (b *BackendBuilder) WithInitiateError(err error) *BackendBuilder {
	b.mock.InitiateMultipartFunc = func(context.Context, xfertypes.Target, xfertypes.ObjectMetadata) (string, error) {
		return "", err
	}
	return b
}

// WithPartError makes UploadPart fail for one part index.
func (b *BackendBuilder) WithPartError(index int, err error) *BackendBuilder {
	inner := b.mock.Backend
	b.mock.UploadPartFunc = func(
		ctx context.Context, target xfertypes.Target, sessionID string, i int, data []byte,
	) (string, error) {
		if i == index {
			return "", err
		}
		return inner.UploadPart(ctx, target, sessionID, i, data)
	}
	return b
}

// WithCompleteError makes CompleteMultipart fail.
func (b *BackendBuilder) WithCompleteError(err error) *BackendBuilder {
	b.mock.CompleteMultipartFunc = func(context.Context, xfertypes.Target, string, []xfertypes.CompletedPart) error {
		return err
	}
	return b
}

// WithAbortError makes AbortMultipart fail.
func (b *BackendBuilder) WithAbortError(err error) *BackendBuilder {
	b.mock.AbortMultipartFunc = func(context.Context, xfertypes.Target, string) error {
		return err
	}
	return b
}

// WithObjectNotFound makes ProbeSize report absence.
func (b *BackendBuilder) WithObjectNotFound() *BackendBuilder {
	b.mock.ProbeSizeFunc = func(context.Context, xfertypes.Target) (int64, error) {
		return 0, errors.ErrNotFound
	}
	return b
}

// WithProbeError makes ProbeSize fail with err.
func (b *BackendBuilder) WithProbeError(err error) *BackendBuilder {
	b.mock.ProbeSizeFunc = func(context.Context, xfertypes.Target) (int64, error) {
		return 0, err
	}
	return b
}

// WithRangeError makes FetchRange fail for the range starting at start.
func (b *BackendBuilder) WithRangeError(start int64, err error) *BackendBuilder {
	inner := b.mock.Backend
	b.mock.FetchRangeFunc = func(
		ctx context.Context, target xfertypes.Target, s, e int64,
	) (io.ReadCloser, error) {
		if s == start {
			return nil, err
		}
		return inner.FetchRange(ctx, target, s, e)
	}
	return b
}

// WithCancelOnPart invokes cancel just before part index is handed to the store.
func (b *BackendBuilder) WithCancelOnPart(index int, cancel context.CancelFunc) *BackendBuilder {
	inner := b.mock.Backend
	var once sync.Once
	b.mock.UploadPartFunc = func(
		ctx context.Context, target xfertypes.Target, sessionID string, i int, data []byte,
	) (string, error) {
		if i == index {
			once.Do(cancel)
		}
		return inner.UploadPart(context.WithoutCancel(ctx), target, sessionID, i, data)
	}
	return b
}
