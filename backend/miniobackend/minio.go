// Package miniobackend implements backend.Backend with the MinIO Go client.
package miniobackend

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/input-output-hk/catalyst-forge-libs/transfer/backend"
	"github.com/input-output-hk/catalyst-forge-libs/transfer/errors"
	"github.com/input-output-hk/catalyst-forge-libs/transfer/xfertypes"
)

// coreAPI is the subset of *minio.Core used by the backend.
type coreAPI interface {
	StatObject(ctx context.Context, bucket, object string, opts minio.StatObjectOptions) (minio.ObjectInfo, error)
	NewMultipartUpload(ctx context.Context, bucket, object string, opts minio.PutObjectOptions) (string, error)
	PutObjectPart(
		ctx context.Context,
		bucket, object, uploadID string,
		partID int,
		data io.Reader,
		size int64,
		opts minio.PutObjectPartOptions,
	) (minio.ObjectPart, error)
	CompleteMultipartUpload(
		ctx context.Context,
		bucket, object, uploadID string,
		parts []minio.CompletePart,
		opts minio.PutObjectOptions,
	) (minio.UploadInfo, error)
	AbortMultipartUpload(ctx context.Context, bucket, object, uploadID string) error
	GetObject(
		ctx context.Context,
		bucket, object string,
		opts minio.GetObjectOptions,
	) (io.ReadCloser, minio.ObjectInfo, http.Header, error)
	PutObject(
		ctx context.Context,
		bucket, object string,
		data io.Reader,
		size int64,
		md5Base64, sha256Hex string,
		opts minio.PutObjectOptions,
	) (minio.UploadInfo, error)
}

// Backend stores objects on a MinIO server or any S3-compatible endpoint
// reachable through the MinIO client.
type Backend struct {
	core     coreAPI
	sessions sync.Map
}

// New creates a MinIO backend.
func New(opts ...Option) (*Backend, error) {
	cfg := &Config{Secure: true}
	for _, opt := range opts {
		opt(cfg)
	}

	endpoint := cfg.Endpoint
	switch {
	case strings.HasPrefix(endpoint, "https://"):
		endpoint = strings.TrimPrefix(endpoint, "https://")
		cfg.Secure = true
	case strings.HasPrefix(endpoint, "http://"):
		endpoint = strings.TrimPrefix(endpoint, "http://")
		cfg.Secure = false
	}
	endpoint = strings.TrimSuffix(endpoint, "/")
	if endpoint == "" {
		return nil, fmt.Errorf("miniobackend: endpoint is required")
	}

	transport, err := newTransport(cfg)
	if err != nil {
		return nil, fmt.Errorf("miniobackend: create transport: %w", err)
	}

	core, err := minio.NewCore(endpoint, &minio.Options{
		Creds:     credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, cfg.SessionToken),
		Secure:    cfg.Secure,
		Region:    cfg.Region,
		Transport: transport,
	})
	if err != nil {
		return nil, fmt.Errorf("miniobackend: create client: %w", err)
	}
	return &Backend{core: core}, nil
}

// newTransport returns nil when no timeout is set so minio-go keeps its
// own default transport.
func newTransport(cfg *Config) (http.RoundTripper, error) {
	if cfg.Timeout <= 0 {
		return nil, nil
	}
	tr, err := minio.DefaultTransport(cfg.Secure)
	if err != nil {
		return nil, err
	}
	tr.ResponseHeaderTimeout = cfg.Timeout
	return tr, nil
}

// ProbeSize implements backend.Backend.
func (b *Backend) ProbeSize(ctx context.Context, target xfertypes.Target) (int64, error) {
	info, err := b.core.StatObject(ctx, target.Bucket, target.Key, minio.StatObjectOptions{})
	if err != nil {
		return 0, translateLookupError("stat object", err)
	}
	return info.Size, nil
}

// InitiateMultipart implements backend.Backend.
func (b *Backend) InitiateMultipart(
	ctx context.Context,
	target xfertypes.Target,
	meta xfertypes.ObjectMetadata,
) (string, error) {
	uploadID, err := b.core.NewMultipartUpload(ctx, target.Bucket, target.Key, putOptions(meta))
	if err != nil {
		return "", translateError("new multipart upload", err)
	}
	b.sessions.Store(uploadID, meta)
	return uploadID, nil
}

// UploadPart implements backend.Backend.
func (b *Backend) UploadPart(
	ctx context.Context,
	target xfertypes.Target,
	sessionID string,
	index int,
	data []byte,
) (string, error) {
	part, err := b.core.PutObjectPart(ctx, target.Bucket, target.Key, sessionID, index,
		bytes.NewReader(data), int64(len(data)), minio.PutObjectPartOptions{})
	if err != nil {
		return "", translateError(fmt.Sprintf("put object part %d", index), err)
	}
	return part.ETag, nil
}

// CompleteMultipart implements backend.Backend.
// An upload with no parts is aborted and written as an empty object.
func (b *Backend) CompleteMultipart(
	ctx context.Context,
	target xfertypes.Target,
	sessionID string,
	parts []xfertypes.CompletedPart,
) error {
	metaValue, _ := b.sessions.LoadAndDelete(sessionID)
	meta, _ := metaValue.(xfertypes.ObjectMetadata)

	if len(parts) == 0 {
		if err := b.AbortMultipart(ctx, target, sessionID); err != nil {
			return err
		}
		_, err := b.core.PutObject(ctx, target.Bucket, target.Key, bytes.NewReader(nil), 0, "", "", putOptions(meta))
		if err != nil {
			return translateError("put empty object", err)
		}
		return nil
	}

	completed := make([]minio.CompletePart, len(parts))
	for i, p := range parts {
		completed[i] = minio.CompletePart{PartNumber: p.Index, ETag: p.ETag}
	}

	if _, err := b.core.CompleteMultipartUpload(ctx, target.Bucket, target.Key, sessionID, completed,
		putOptions(meta)); err != nil {
		return translateError("complete multipart upload", err)
	}
	return nil
}

// AbortMultipart implements backend.Backend.
func (b *Backend) AbortMultipart(ctx context.Context, target xfertypes.Target, sessionID string) error {
	b.sessions.Delete(sessionID)

	err := b.core.AbortMultipartUpload(ctx, target.Bucket, target.Key, sessionID)
	if err != nil && minio.ToErrorResponse(err).Code != "NoSuchUpload" {
		return translateError("abort multipart upload", err)
	}
	return nil
}

// FetchRange implements backend.Backend.
func (b *Backend) FetchRange(
	ctx context.Context,
	target xfertypes.Target,
	start, endInclusive int64,
) (io.ReadCloser, error) {
	if start < 0 || start > endInclusive {
		return nil, fmt.Errorf("miniobackend: invalid range %d-%d", start, endInclusive)
	}

	opts := minio.GetObjectOptions{}
	if err := opts.SetRange(start, endInclusive); err != nil {
		return nil, fmt.Errorf("miniobackend: set range: %w", err)
	}

	body, _, _, err := b.core.GetObject(ctx, target.Bucket, target.Key, opts)
	if err != nil {
		return nil, translateLookupError("get object range", err)
	}
	return body, nil
}

func putOptions(meta xfertypes.ObjectMetadata) minio.PutObjectOptions {
	return minio.PutObjectOptions{
		ContentType:  meta.ContentType,
		UserMetadata: meta.Metadata,
	}
}

// translateError marks a missing key with errors.ErrNotFound. Missing
// buckets and upload sessions keep their own error.
func translateError(action string, err error) error {
	return wrapError(action, err, isNotFound(err, false))
}

// translateLookupError is translateError for object reads, where a 404
// without an error code also means the key is absent.
func translateLookupError(action string, err error) error {
	return wrapError(action, err, isNotFound(err, true))
}

func wrapError(action string, err error, notFound bool) error {
	if notFound {
		return fmt.Errorf("miniobackend: %s: %w: %w", action, errors.ErrNotFound, err)
	}
	return fmt.Errorf("miniobackend: %s: %w", action, err)
}

func isNotFound(err error, lookup bool) bool {
	resp := minio.ToErrorResponse(err)
	switch resp.Code {
	case "NoSuchKey", "NotFound":
		return true
	case "NoSuchBucket", "NoSuchUpload":
		return false
	}
	return lookup && resp.StatusCode == http.StatusNotFound
}

var (
	_ backend.Backend = (*Backend)(nil)
	_ coreAPI         = (*minio.Core)(nil)
)
