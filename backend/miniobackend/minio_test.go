package miniobackend

import (
	"context"
	stderrors "errors"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/input-output-hk/catalyst-forge-libs/transfer/errors"
	"github.com/input-output-hk/catalyst-forge-libs/transfer/xfertypes"
)

var target = xfertypes.Target{Bucket: "test-bucket", Key: "path/object.bin"}

// fakeCore records calls and serves canned responses.
type fakeCore struct {
	statErr     error
	size        int64
	uploadID    string
	partErr     error
	completeErr error
	abortErr    error
	getErr      error
	body        string

	gotPutOpts      minio.PutObjectOptions
	gotParts        []minio.CompletePart
	gotGetOpts      minio.GetObjectOptions
	gotPutSize      int64
	aborted         []string
	putObjectCalled bool
	getCalled       bool
}

func (f *fakeCore) StatObject(
	context.Context, string, string, minio.StatObjectOptions,
) (minio.ObjectInfo, error) {
	if f.statErr != nil {
		return minio.ObjectInfo{}, f.statErr
	}
	return minio.ObjectInfo{Size: f.size}, nil
}

func (f *fakeCore) NewMultipartUpload(
	_ context.Context, _, _ string, opts minio.PutObjectOptions,
) (string, error) {
	f.gotPutOpts = opts
	return f.uploadID, nil
}

func (f *fakeCore) PutObjectPart(
	_ context.Context, _, _, _ string, partID int, data io.Reader, _ int64, _ minio.PutObjectPartOptions,
) (minio.ObjectPart, error) {
	if f.partErr != nil {
		return minio.ObjectPart{}, f.partErr
	}
	b, _ := io.ReadAll(data)
	return minio.ObjectPart{PartNumber: partID, ETag: "etag-" + string(b)}, nil
}

func (f *fakeCore) CompleteMultipartUpload(
	_ context.Context, _, _, _ string, parts []minio.CompletePart, _ minio.PutObjectOptions,
) (minio.UploadInfo, error) {
	f.gotParts = parts
	return minio.UploadInfo{}, f.completeErr
}

func (f *fakeCore) AbortMultipartUpload(_ context.Context, _, _, uploadID string) error {
	f.aborted = append(f.aborted, uploadID)
	return f.abortErr
}

func (f *fakeCore) GetObject(
	_ context.Context, _, _ string, opts minio.GetObjectOptions,
) (io.ReadCloser, minio.ObjectInfo, http.Header, error) {
	f.gotGetOpts = opts
	f.getCalled = true
	if f.getErr != nil {
		return nil, minio.ObjectInfo{}, nil, f.getErr
	}
	return io.NopCloser(strings.NewReader(f.body)), minio.ObjectInfo{}, nil, nil
}

func (f *fakeCore) PutObject(
	_ context.Context, _, _ string, _ io.Reader, size int64, _, _ string, opts minio.PutObjectOptions,
) (minio.UploadInfo, error) {
	f.putObjectCalled = true
	f.gotPutSize = size
	f.gotPutOpts = opts
	return minio.UploadInfo{}, nil
}

func TestBackend_ProbeSize(t *testing.T) {
	b := &Backend{core: &fakeCore{size: 1234}}
	size, err := b.ProbeSize(context.Background(), target)
	require.NoError(t, err)
	assert.Equal(t, int64(1234), size)
}

func TestBackend_ProbeSize_Errors(t *testing.T) {
	tests := []struct {
		name         string
		err          error
		wantNotFound bool
	}{
		{name: "no such key", err: minio.ErrorResponse{Code: "NoSuchKey"}, wantNotFound: true},
		{name: "not found code", err: minio.ErrorResponse{Code: "NotFound"}, wantNotFound: true},
		{name: "status 404", err: minio.ErrorResponse{StatusCode: http.StatusNotFound}, wantNotFound: true},
		{name: "access denied", err: minio.ErrorResponse{Code: "AccessDenied", StatusCode: http.StatusForbidden}},
		{name: "no such bucket", err: minio.ErrorResponse{Code: "NoSuchBucket", StatusCode: http.StatusNotFound}},
		{name: "network", err: stderrors.New("dial tcp: connection refused")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := &Backend{core: &fakeCore{statErr: tt.err}}
			_, err := b.ProbeSize(context.Background(), target)
			require.Error(t, err)
			assert.Equal(t, tt.wantNotFound, errors.IsNotFound(err))
		})
	}
}

func TestBackend_UploadPart_MissingSession(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{name: "no such upload", err: minio.ErrorResponse{Code: "NoSuchUpload", StatusCode: http.StatusNotFound}},
		{name: "bare 404", err: minio.ErrorResponse{StatusCode: http.StatusNotFound}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := &Backend{core: &fakeCore{partErr: tt.err}}
			_, err := b.UploadPart(context.Background(), target, "upload-1", 1, []byte("data"))
			require.Error(t, err)
			assert.False(t, errors.IsNotFound(err))
		})
	}
}

func TestBackend_MultipartLifecycle(t *testing.T) {
	core := &fakeCore{uploadID: "upload-1"}
	b := &Backend{core: core}
	ctx := context.Background()

	meta := xfertypes.ObjectMetadata{
		ContentType: "text/plain",
		Metadata:    map[string]string{"owner": "ci"},
	}
	id, err := b.InitiateMultipart(ctx, target, meta)
	require.NoError(t, err)
	assert.Equal(t, "upload-1", id)
	assert.Equal(t, "text/plain", core.gotPutOpts.ContentType)
	assert.Equal(t, "ci", core.gotPutOpts.UserMetadata["owner"])

	etag, err := b.UploadPart(ctx, target, id, 1, []byte("abc"))
	require.NoError(t, err)
	assert.Equal(t, "etag-abc", etag)

	err = b.CompleteMultipart(ctx, target, id, []xfertypes.CompletedPart{
		{Index: 1, ETag: "etag-abc"},
		{Index: 2, ETag: "etag-def"},
	})
	require.NoError(t, err)
	assert.Equal(t, []minio.CompletePart{
		{PartNumber: 1, ETag: "etag-abc"},
		{PartNumber: 2, ETag: "etag-def"},
	}, core.gotParts)
	assert.Empty(t, core.aborted)
}

func TestBackend_CompleteMultipart_ZeroParts(t *testing.T) {
	core := &fakeCore{uploadID: "upload-empty"}
	b := &Backend{core: core}
	ctx := context.Background()

	id, err := b.InitiateMultipart(ctx, target, xfertypes.ObjectMetadata{ContentType: "application/json"})
	require.NoError(t, err)

	require.NoError(t, b.CompleteMultipart(ctx, target, id, nil))
	assert.Equal(t, []string{"upload-empty"}, core.aborted)
	assert.True(t, core.putObjectCalled)
	assert.Equal(t, int64(0), core.gotPutSize)
	assert.Equal(t, "application/json", core.gotPutOpts.ContentType)
	assert.Nil(t, core.gotParts)
}

func TestBackend_UploadPart_Error(t *testing.T) {
	b := &Backend{core: &fakeCore{partErr: minio.ErrorResponse{Code: "InternalError", StatusCode: 500}}}
	_, err := b.UploadPart(context.Background(), target, "id", 3, []byte("x"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "put object part 3")
	assert.False(t, errors.IsNotFound(err))
}

func TestBackend_CompleteMultipart_Error(t *testing.T) {
	b := &Backend{core: &fakeCore{completeErr: stderrors.New("invalid part")}}
	err := b.CompleteMultipart(context.Background(), target, "id", []xfertypes.CompletedPart{{Index: 1, ETag: "e"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid part")
}

func TestBackend_AbortMultipart(t *testing.T) {
	t.Run("no such upload ignored", func(t *testing.T) {
		b := &Backend{core: &fakeCore{abortErr: minio.ErrorResponse{Code: "NoSuchUpload", StatusCode: 404}}}
		assert.NoError(t, b.AbortMultipart(context.Background(), target, "gone"))
	})

	t.Run("other errors returned", func(t *testing.T) {
		b := &Backend{core: &fakeCore{abortErr: minio.ErrorResponse{Code: "AccessDenied", StatusCode: 403}}}
		assert.Error(t, b.AbortMultipart(context.Background(), target, "id"))
	})
}

func TestBackend_FetchRange(t *testing.T) {
	core := &fakeCore{body: "hello"}
	b := &Backend{core: core}

	body, err := b.FetchRange(context.Background(), target, 10, 14)
	require.NoError(t, err)
	defer body.Close()

	data, err := io.ReadAll(body)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))
	assert.Equal(t, "bytes=10-14", core.gotGetOpts.Header().Get("Range"))
}

func TestBackend_FetchRange_Errors(t *testing.T) {
	b := &Backend{core: &fakeCore{getErr: minio.ErrorResponse{Code: "NoSuchKey", StatusCode: 404}}}
	_, err := b.FetchRange(context.Background(), target, 0, 9)
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))

	tests := []struct {
		name       string
		start, end int64
	}{
		{name: "inverted", start: 9, end: 0},
		{name: "negative start", start: -1, end: 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			core := &fakeCore{body: "unused"}
			b := &Backend{core: core}

			_, err := b.FetchRange(context.Background(), target, tt.start, tt.end)
			require.Error(t, err)
			assert.Contains(t, err.Error(), "invalid range")
			assert.False(t, core.getCalled, "no request for an invalid range")
		})
	}
}

func TestNew(t *testing.T) {
	t.Run("requires endpoint", func(t *testing.T) {
		_, err := New()
		require.Error(t, err)
	})

	t.Run("scheme selects tls", func(t *testing.T) {
		b, err := New(
			WithEndpoint("http://localhost:9000/"),
			WithCredentials("minioadmin", "minioadmin", ""),
			WithRegion("us-east-1"),
		)
		require.NoError(t, err)
		core, ok := b.core.(*minio.Core)
		require.True(t, ok)
		assert.Equal(t, "http", core.EndpointURL().Scheme)
		assert.Equal(t, "localhost:9000", core.EndpointURL().Host)
	})

	t.Run("timeout", func(t *testing.T) {
		b, err := New(
			WithEndpoint("localhost:9000"),
			WithSecure(false),
			WithTimeout(5*time.Second),
		)
		require.NoError(t, err)
		assert.NotNil(t, b)
	})
}

func TestNewTransport(t *testing.T) {
	tr, err := newTransport(&Config{})
	require.NoError(t, err)
	assert.Nil(t, tr)

	tr, err = newTransport(&Config{Secure: true, Timeout: 3 * time.Second})
	require.NoError(t, err)
	httpTr, ok := tr.(*http.Transport)
	require.True(t, ok)
	assert.Equal(t, 3*time.Second, httpTr.ResponseHeaderTimeout)
	assert.NotNil(t, httpTr.TLSClientConfig)
}
