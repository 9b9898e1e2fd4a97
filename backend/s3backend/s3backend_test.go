package s3backend

import (
	"bytes"
	"context"
	stderrors "errors"
	"io"
	"net/http"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	smithyhttp "github.com/aws/smithy-go/transport/http"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/input-output-hk/catalyst-forge-libs/transfer/errors"
	"github.com/input-output-hk/catalyst-forge-libs/transfer/internal/testutil"
	"github.com/input-output-hk/catalyst-forge-libs/transfer/xfertypes"
)

var target = xfertypes.Target{Bucket: "test-bucket", Key: "path/object.bin"}

func TestBackend_ProbeSize(t *testing.T) {
	mock := &testutil.MockS3Client{
		HeadObjectFunc: func(
			_ context.Context, params *s3.HeadObjectInput, _ ...func(*s3.Options),
		) (*s3.HeadObjectOutput, error) {
			assert.Equal(t, "test-bucket", aws.ToString(params.Bucket))
			assert.Equal(t, "path/object.bin", aws.ToString(params.Key))
			return &s3.HeadObjectOutput{ContentLength: aws.Int64(42)}, nil
		},
	}

	size, err := NewWithClient(mock).ProbeSize(context.Background(), target)
	require.NoError(t, err)
	assert.Equal(t, int64(42), size)
}

func TestBackend_ProbeSize_Errors(t *testing.T) {
	notFoundResponse := &smithyhttp.ResponseError{
		Response: &smithyhttp.Response{Response: &http.Response{StatusCode: http.StatusNotFound}},
		Err:      stderrors.New("not found"),
	}

	tests := []struct {
		name         string
		err          error
		wantNotFound bool
	}{
		{name: "not found type", err: &types.NotFound{}, wantNotFound: true},
		{name: "no such key", err: &types.NoSuchKey{}, wantNotFound: true},
		{name: "generic not found code", err: &smithy.GenericAPIError{Code: "NotFound"}, wantNotFound: true},
		{name: "http 404", err: notFoundResponse, wantNotFound: true},
		{name: "access denied", err: &smithy.GenericAPIError{Code: "AccessDenied"}},
		{name: "no such bucket", err: &smithy.GenericAPIError{Code: "NoSuchBucket"}},
		{name: "network", err: stderrors.New("dial tcp: connection refused")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := &testutil.MockS3Client{
				HeadObjectFunc: func(
					context.Context, *s3.HeadObjectInput, ...func(*s3.Options),
				) (*s3.HeadObjectOutput, error) {
					return nil, tt.err
				},
			}

			_, err := NewWithClient(mock).ProbeSize(context.Background(), target)
			require.Error(t, err)
			assert.Equal(t, tt.wantNotFound, errors.IsNotFound(err))
			assert.ErrorIs(t, err, tt.err)
		})
	}
}

func TestBackend_InitiateMultipart(t *testing.T) {
	var got *s3.CreateMultipartUploadInput
	mock := &testutil.MockS3Client{
		CreateMultipartUploadFunc: func(
			_ context.Context, params *s3.CreateMultipartUploadInput, _ ...func(*s3.Options),
		) (*s3.CreateMultipartUploadOutput, error) {
			got = params
			return &s3.CreateMultipartUploadOutput{UploadId: aws.String("upload-1")}, nil
		},
	}

	id, err := NewWithClient(mock).InitiateMultipart(context.Background(), target, xfertypes.ObjectMetadata{
		ContentType: "application/gzip",
		Metadata:    map[string]string{"build": "42"},
	})
	require.NoError(t, err)
	assert.Equal(t, "upload-1", id)
	assert.Equal(t, "application/gzip", aws.ToString(got.ContentType))
	assert.Equal(t, map[string]string{"build": "42"}, got.Metadata)
}

func TestBackend_InitiateMultipart_MissingID(t *testing.T) {
	_, err := NewWithClient(&testutil.MockS3Client{}).InitiateMultipart(
		context.Background(), target, xfertypes.ObjectMetadata{})
	assert.Error(t, err)
}

func TestBackend_UploadPart(t *testing.T) {
	mock := &testutil.MockS3Client{
		UploadPartFunc: func(
			_ context.Context, params *s3.UploadPartInput, _ ...func(*s3.Options),
		) (*s3.UploadPartOutput, error) {
			assert.Equal(t, "upload-1", aws.ToString(params.UploadId))
			assert.Equal(t, int32(3), aws.ToInt32(params.PartNumber))
			assert.Equal(t, int64(5), aws.ToInt64(params.ContentLength))
			body, err := io.ReadAll(params.Body)
			require.NoError(t, err)
			assert.Equal(t, "hello", string(body))
			return &s3.UploadPartOutput{ETag: aws.String(`"abc"`)}, nil
		},
	}

	etag, err := NewWithClient(mock).UploadPart(context.Background(), target, "upload-1", 3, []byte("hello"))
	require.NoError(t, err)
	assert.Equal(t, `"abc"`, etag)
}

func TestBackend_MissingSessionIsNotAbsence(t *testing.T) {
	bare404 := &smithyhttp.ResponseError{
		Response: &smithyhttp.Response{Response: &http.Response{StatusCode: http.StatusNotFound}},
		Err:      stderrors.New("not found"),
	}
	noSuchUpload := &smithyhttp.ResponseError{
		Response: &smithyhttp.Response{Response: &http.Response{StatusCode: http.StatusNotFound}},
		Err:      &types.NoSuchUpload{},
	}

	for name, failure := range map[string]error{"bare 404": bare404, "no such upload": noSuchUpload} {
		t.Run(name, func(t *testing.T) {
			mock := &testutil.MockS3Client{
				UploadPartFunc: func(
					context.Context, *s3.UploadPartInput, ...func(*s3.Options),
				) (*s3.UploadPartOutput, error) {
					return nil, failure
				},
				CompleteMultipartUploadFunc: func(
					context.Context, *s3.CompleteMultipartUploadInput, ...func(*s3.Options),
				) (*s3.CompleteMultipartUploadOutput, error) {
					return nil, failure
				},
			}
			b := NewWithClient(mock)

			_, err := b.UploadPart(context.Background(), target, "upload-1", 1, []byte("data"))
			require.Error(t, err)
			assert.False(t, errors.IsNotFound(err))

			err = b.CompleteMultipart(context.Background(), target, "upload-1",
				[]xfertypes.CompletedPart{{Index: 1, ETag: `"abc"`}})
			require.Error(t, err)
			assert.False(t, errors.IsNotFound(err))
		})
	}
}

func TestBackend_CompleteMultipart(t *testing.T) {
	var got *s3.CompleteMultipartUploadInput
	mock := &testutil.MockS3Client{
		CompleteMultipartUploadFunc: func(
			_ context.Context, params *s3.CompleteMultipartUploadInput, _ ...func(*s3.Options),
		) (*s3.CompleteMultipartUploadOutput, error) {
			got = params
			return &s3.CompleteMultipartUploadOutput{}, nil
		},
	}

	err := NewWithClient(mock).CompleteMultipart(context.Background(), target, "upload-1", []xfertypes.CompletedPart{
		{Index: 1, ETag: `"a"`},
		{Index: 2, ETag: `"b"`},
	})
	require.NoError(t, err)

	require.NotNil(t, got.MultipartUpload)
	require.Len(t, got.MultipartUpload.Parts, 2)
	assert.Equal(t, int32(1), aws.ToInt32(got.MultipartUpload.Parts[0].PartNumber))
	assert.Equal(t, `"a"`, aws.ToString(got.MultipartUpload.Parts[0].ETag))
	assert.Equal(t, int32(2), aws.ToInt32(got.MultipartUpload.Parts[1].PartNumber))
}

func TestBackend_CompleteMultipart_ZeroParts(t *testing.T) {
	var (
		aborted bool
		put     *s3.PutObjectInput
	)
	mock := &testutil.MockS3Client{
		CreateMultipartUploadFunc: func(
			context.Context, *s3.CreateMultipartUploadInput, ...func(*s3.Options),
		) (*s3.CreateMultipartUploadOutput, error) {
			return &s3.CreateMultipartUploadOutput{UploadId: aws.String("upload-empty")}, nil
		},
		AbortMultipartUploadFunc: func(
			_ context.Context, params *s3.AbortMultipartUploadInput, _ ...func(*s3.Options),
		) (*s3.AbortMultipartUploadOutput, error) {
			aborted = aws.ToString(params.UploadId) == "upload-empty"
			return &s3.AbortMultipartUploadOutput{}, nil
		},
		PutObjectFunc: func(
			_ context.Context, params *s3.PutObjectInput, _ ...func(*s3.Options),
		) (*s3.PutObjectOutput, error) {
			put = params
			return &s3.PutObjectOutput{}, nil
		},
		CompleteMultipartUploadFunc: func(
			context.Context, *s3.CompleteMultipartUploadInput, ...func(*s3.Options),
		) (*s3.CompleteMultipartUploadOutput, error) {
			t.Fatal("empty manifest must not be sent")
			return nil, nil
		},
	}

	b := NewWithClient(mock)
	id, err := b.InitiateMultipart(context.Background(), target, xfertypes.ObjectMetadata{ContentType: "text/plain"})
	require.NoError(t, err)
	require.NoError(t, b.CompleteMultipart(context.Background(), target, id, nil))

	assert.True(t, aborted)
	require.NotNil(t, put)
	assert.Equal(t, int64(0), aws.ToInt64(put.ContentLength))
	assert.Equal(t, "text/plain", aws.ToString(put.ContentType))
}

func TestBackend_AbortMultipart(t *testing.T) {
	t.Run("unknown upload is ignored", func(t *testing.T) {
		mock := &testutil.MockS3Client{
			AbortMultipartUploadFunc: func(
				context.Context, *s3.AbortMultipartUploadInput, ...func(*s3.Options),
			) (*s3.AbortMultipartUploadOutput, error) {
				return nil, &types.NoSuchUpload{}
			},
		}
		assert.NoError(t, NewWithClient(mock).AbortMultipart(context.Background(), target, "gone"))
	})

	t.Run("other errors are returned", func(t *testing.T) {
		denied := &smithy.GenericAPIError{Code: "AccessDenied"}
		mock := &testutil.MockS3Client{
			AbortMultipartUploadFunc: func(
				context.Context, *s3.AbortMultipartUploadInput, ...func(*s3.Options),
			) (*s3.AbortMultipartUploadOutput, error) {
				return nil, denied
			},
		}
		assert.ErrorIs(t, NewWithClient(mock).AbortMultipart(context.Background(), target, "id"), denied)
	})
}

func TestBackend_FetchRange(t *testing.T) {
	mock := &testutil.MockS3Client{
		GetObjectFunc: func(
			_ context.Context, params *s3.GetObjectInput, _ ...func(*s3.Options),
		) (*s3.GetObjectOutput, error) {
			assert.Equal(t, "bytes=5000000-9999999", aws.ToString(params.Range))
			return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader([]byte("range")))}, nil
		},
	}

	body, err := NewWithClient(mock).FetchRange(context.Background(), target, 5_000_000, 9_999_999)
	require.NoError(t, err)
	defer body.Close()

	data, err := io.ReadAll(body)
	require.NoError(t, err)
	assert.Equal(t, "range", string(data))
}

func TestBackend_FetchRange_NotFound(t *testing.T) {
	mock := &testutil.MockS3Client{
		GetObjectFunc: func(context.Context, *s3.GetObjectInput, ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
			return nil, &types.NoSuchKey{}
		},
	}

	_, err := NewWithClient(mock).FetchRange(context.Background(), target, 0, 1)
	assert.True(t, errors.IsNotFound(err))
}

func TestNew_AppliesOptions(t *testing.T) {
	b, err := New(context.Background(),
		WithRegion("eu-west-1"),
		WithEndpoint("http://localhost:4566"),
		WithCredentials("test", "test", ""),
		WithForcePathStyle(true),
		WithMaxRetries(5),
	)
	require.NoError(t, err)
	require.NotNil(t, b)

	client, ok := b.client.(*s3.Client)
	require.True(t, ok)
	opts := client.Options()
	assert.Equal(t, "eu-west-1", opts.Region)
	assert.True(t, opts.UsePathStyle)
	assert.Equal(t, "http://localhost:4566", aws.ToString(opts.BaseEndpoint))
}
