// Package testutil provides mocks and fixtures for the transfer packages.
// This package is internal and should only be used for testing within the module.
package testutil

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/input-output-hk/catalyst-forge-libs/transfer/backend"
	"github.com/input-output-hk/catalyst-forge-libs/transfer/backend/memory"
	"github.com/input-output-hk/catalyst-forge-libs/transfer/internal/s3api"
	"github.com/input-output-hk/catalyst-forge-libs/transfer/xfertypes"
)

// Backend method names recorded by MockBackend.
const (
	MethodProbeSize         = "ProbeSize"
	MethodInitiateMultipart = "InitiateMultipart"
	MethodUploadPart        = "UploadPart"
	MethodCompleteMultipart = "CompleteMultipart"
	MethodAbortMultipart    = "AbortMultipart"
	MethodFetchRange        = "FetchRange"
)

// Call is one recorded backend invocation.
type Call struct {
	Method string
	// Index is the part index for UploadPart, 0 otherwise
	Index int
	// Start and End are the inclusive byte range for FetchRange
	Start, End int64
	// Parts is the manifest passed to CompleteMultipart
	Parts []xfertypes.CompletedPart
}

// MockBackend is a backend.Backend whose operations can be overridden through
// function fields. Operations without an override are delegated to the
// embedded Backend, or return zero values when it is nil. Every call is recorded.
type MockBackend struct {
	backend.Backend

	ProbeSizeFunc         func(context.Context, xfertypes.Target) (int64, error)
	InitiateMultipartFunc func(context.Context, xfertypes.Target, xfertypes.ObjectMetadata) (string, error)
	UploadPartFunc        func(context.Context, xfertypes.Target, string, int, []byte) (string, error)
	CompleteMultipartFunc func(context.Context, xfertypes.Target, string, []xfertypes.CompletedPart) error
	AbortMultipartFunc    func(context.Context, xfertypes.Target, string) error
	FetchRangeFunc        func(context.Context, xfertypes.Target, int64, int64) (io.ReadCloser, error)

	mu    sync.Mutex
	calls []Call
}

// NewMockBackend returns a MockBackend delegating to a fresh in-memory store.
func NewMockBackend() (*MockBackend, *memory.Backend) {
	store := memory.New()
	return &MockBackend{Backend: store}, store
}

func (m *MockBackend) record(c Call) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, c)
}

// Calls returns a copy of every recorded call in order.
func (m *MockBackend) Calls() []Call {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Call(nil), m.calls...)
}

// CallCount returns how many times method was invoked.
func (m *MockBackend) CallCount(method string) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	for _, c := range m.calls {
		if c.Method == method {
			n++
		}
	}
	return n
}

// CallsTo returns the recorded calls to method in order.
func (m *MockBackend) CallsTo(method string) []Call {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []Call
	for _, c := range m.calls {
		if c.Method == method {
			out = append(out, c)
		}
	}
	return out
}

// ProbeSize mocks backend.Backend.ProbeSize.
func (m *MockBackend) ProbeSize(ctx context.Context, target xfertypes.Target) (int64, error) {
	m.record(Call{Method: MethodProbeSize})
	if m.ProbeSizeFunc != nil {
		return m.ProbeSizeFunc(ctx, target)
	}
	if m.Backend != nil {
		return m.Backend.ProbeSize(ctx, target)
	}
	return 0, nil
}

// InitiateMultipart mocks backend.Backend.InitiateMultipart.
func (m *MockBackend) InitiateMultipart(
	ctx context.Context,
	target xfertypes.Target,
	meta xfertypes.ObjectMetadata,
) (string, error) {
	m.record(Call{Method: MethodInitiateMultipart})
	if m.InitiateMultipartFunc != nil {
		return m.InitiateMultipartFunc(ctx, target, meta)
	}
	if m.Backend != nil {
		return m.Backend.InitiateMultipart(ctx, target, meta)
	}
	return "mock-session-id", nil
}

// UploadPart mocks backend.Backend.UploadPart.
func (m *MockBackend) UploadPart(
	ctx context.Context,
	target xfertypes.Target,
	sessionID string,
	index int,
	data []byte,
) (string, error) {
	m.record(Call{Method: MethodUploadPart, Index: index})
	if m.UploadPartFunc != nil {
		return m.UploadPartFunc(ctx, target, sessionID, index, data)
	}
	if m.Backend != nil {
		return m.Backend.UploadPart(ctx, target, sessionID, index, data)
	}
	return fmt.Sprintf(`"etag-%d"`, index), nil
}

// CompleteMultipart mocks backend.Backend.CompleteMultipart.
func (m *MockBackend) CompleteMultipart(
	ctx context.Context,
	target xfertypes.Target,
	sessionID string,
	parts []xfertypes.CompletedPart,
) error {
	m.record(Call{Method: MethodCompleteMultipart, Parts: append([]xfertypes.CompletedPart(nil), parts...)})
	if m.CompleteMultipartFunc != nil {
		return m.CompleteMultipartFunc(ctx, target, sessionID, parts)
	}
	if m.Backend != nil {
		return m.Backend.CompleteMultipart(ctx, target, sessionID, parts)
	}
	return nil
}

// AbortMultipart mocks backend.Backend.AbortMultipart.
func (m *MockBackend) AbortMultipart(ctx context.Context, target xfertypes.Target, sessionID string) error {
	m.record(Call{Method: MethodAbortMultipart})
	if m.AbortMultipartFunc != nil {
		return m.AbortMultipartFunc(ctx, target, sessionID)
	}
	if m.Backend != nil {
		return m.Backend.AbortMultipart(ctx, target, sessionID)
	}
	return nil
}

// FetchRange mocks backend.Backend.FetchRange.
func (m *MockBackend) FetchRange(
	ctx context.Context,
	target xfertypes.Target,
	start, endInclusive int64,
) (io.ReadCloser, error) {
	m.record(Call{Method: MethodFetchRange, Start: start, End: endInclusive})
	if m.FetchRangeFunc != nil {
		return m.FetchRangeFunc(ctx, target, start, endInclusive)
	}
	if m.Backend != nil {
		return m.Backend.FetchRange(ctx, target, start, endInclusive)
	}
	return io.NopCloser(bytes.NewReader(nil)), nil
}

// MockS3Client is a mock implementation of the S3API interface for testing.
// It allows customization of each S3 operation through function fields.
type MockS3Client struct {
	HeadObjectFunc              func(context.Context, *s3.HeadObjectInput, ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	GetObjectFunc               func(context.Context, *s3.GetObjectInput, ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObjectFunc               func(context.Context, *s3.PutObjectInput, ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	CreateMultipartUploadFunc   func(context.Context, *s3.CreateMultipartUploadInput, ...func(*s3.Options)) (*s3.CreateMultipartUploadOutput, error)
	UploadPartFunc              func(context.Context, *s3.UploadPartInput, ...func(*s3.Options)) (*s3.UploadPartOutput, error)
	CompleteMultipartUploadFunc func(context.Context, *s3.CompleteMultipartUploadInput, ...func(*s3.Options)) (*s3.CompleteMultipartUploadOutput, error)
	AbortMultipartUploadFunc    func(context.Context, *s3.AbortMultipartUploadInput, ...func(*s3.Options)) (*s3.AbortMultipartUploadOutput, error)
}

// HeadObject mocks the S3 HeadObject operation.
func (m *MockS3Client) HeadObject(
	ctx context.Context,
	params *s3.HeadObjectInput,
	optFns ...func(*s3.Options),
) (*s3.HeadObjectOutput, error) {
	if m.HeadObjectFunc != nil {
		return m.HeadObjectFunc(ctx, params, optFns...)
	}
	return &s3.HeadObjectOutput{}, nil
}

// GetObject mocks the S3 GetObject operation.
func (m *MockS3Client) GetObject(
	ctx context.Context,
	params *s3.GetObjectInput,
	optFns ...func(*s3.Options),
) (*s3.GetObjectOutput, error) {
	if m.GetObjectFunc != nil {
		return m.GetObjectFunc(ctx, params, optFns...)
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(nil))}, nil
}

// PutObject mocks the S3 PutObject operation.
func (m *MockS3Client) PutObject(
	ctx context.Context,
	params *s3.PutObjectInput,
	optFns ...func(*s3.Options),
) (*s3.PutObjectOutput, error) {
	if m.PutObjectFunc != nil {
		return m.PutObjectFunc(ctx, params, optFns...)
	}
	return &s3.PutObjectOutput{}, nil
}

// CreateMultipartUpload mocks the S3 CreateMultipartUpload operation.
func (m *MockS3Client) CreateMultipartUpload(
	ctx context.Context,
	params *s3.CreateMultipartUploadInput,
	optFns ...func(*s3.Options),
) (*s3.CreateMultipartUploadOutput, error) {
	if m.CreateMultipartUploadFunc != nil {
		return m.CreateMultipartUploadFunc(ctx, params, optFns...)
	}
	return &s3.CreateMultipartUploadOutput{}, nil
}

// UploadPart mocks the S3 UploadPart operation.
func (m *MockS3Client) UploadPart(
	ctx context.Context,
	params *s3.UploadPartInput,
	optFns ...func(*s3.Options),
) (*s3.UploadPartOutput, error) {
	if m.UploadPartFunc != nil {
		return m.UploadPartFunc(ctx, params, optFns...)
	}
	return &s3.UploadPartOutput{}, nil
}

// CompleteMultipartUpload mocks the S3 CompleteMultipartUpload operation.
func (m *MockS3Client) CompleteMultipartUpload(
	ctx context.Context,
	params *s3.CompleteMultipartUploadInput,
	optFns ...func(*s3.Options),
) (*s3.CompleteMultipartUploadOutput, error) {
	if m.CompleteMultipartUploadFunc != nil {
		return m.CompleteMultipartUploadFunc(ctx, params, optFns...)
	}
	return &s3.CompleteMultipartUploadOutput{}, nil
}

// AbortMultipartUpload mocks the S3 AbortMultipartUpload operation.
func (m *MockS3Client) AbortMultipartUpload(
	ctx context.Context,
	params *s3.AbortMultipartUploadInput,
	optFns ...func(*s3.Options),
) (*s3.AbortMultipartUploadOutput, error) {
	if m.AbortMultipartUploadFunc != nil {
		return m.AbortMultipartUploadFunc(ctx, params, optFns...)
	}
	return &s3.AbortMultipartUploadOutput{}, nil
}

// Ensure the mocks implement their interfaces
var (
	_ backend.Backend = (*MockBackend)(nil)
	_ s3api.S3API     = (*MockS3Client)(nil)
)
