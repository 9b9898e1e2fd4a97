// Package s3backend implements backend.Backend on top of the AWS SDK S3 client.
package s3backend

import (
	"bytes"
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	smithyhttp "github.com/aws/smithy-go/transport/http"

	"github.com/input-output-hk/catalyst-forge-libs/transfer/backend"
	"github.com/input-output-hk/catalyst-forge-libs/transfer/errors"
	"github.com/input-output-hk/catalyst-forge-libs/transfer/internal/s3api"
	"github.com/input-output-hk/catalyst-forge-libs/transfer/xfertypes"
)

// Backend stores objects in Amazon S3 or an S3-compatible service.
type Backend struct {
	client s3api.S3API

	// sessions remembers the metadata of open uploads so an empty upload
	// can be written as a plain object with the same metadata.
	sessions sync.Map
}

// New creates an S3 backend, loading credentials from the default chain
// unless static credentials are configured.
func New(ctx context.Context, opts ...Option) (*Backend, error) {
	cfg := &Config{
		MaxRetries: 3,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	var awsCfg aws.Config
	if cfg.CustomAWSConfig != nil {
		awsCfg = *cfg.CustomAWSConfig
	} else {
		var loadOpts []func(*config.LoadOptions) error
		if cfg.AccessKeyID != "" {
			loadOpts = append(loadOpts, config.WithCredentialsProvider(
				credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, cfg.SessionToken)))
		}

		var err error
		awsCfg, err = config.LoadDefaultConfig(ctx, loadOpts...)
		if err != nil {
			return nil, fmt.Errorf("s3backend: load aws config: %w", err)
		}
	}

	if cfg.Region != "" {
		awsCfg.Region = cfg.Region
	} else if awsCfg.Region == "" {
		awsCfg.Region = "us-east-1"
	}
	if cfg.MaxRetries > 0 {
		awsCfg.RetryMaxAttempts = cfg.MaxRetries
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.ForcePathStyle
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		if cfg.Timeout > 0 {
			o.HTTPClient = &http.Client{Timeout: cfg.Timeout}
		}
	})

	return NewWithClient(client), nil
}

// NewWithClient creates a backend over an existing S3 client.
// This is primarily used for testing with mocked clients.
func NewWithClient(client s3api.S3API) *Backend {
	return &Backend{client: client}
}

// ProbeSize implements backend.Backend.
func (b *Backend) ProbeSize(ctx context.Context, target xfertypes.Target) (int64, error) {
	out, err := b.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(target.Bucket),
		Key:    aws.String(target.Key),
	})
	if err != nil {
		return 0, translateLookupError("head object", err)
	}
	return aws.ToInt64(out.ContentLength), nil
}

// InitiateMultipart implements backend.Backend.
func (b *Backend) InitiateMultipart(
	ctx context.Context,
	target xfertypes.Target,
	meta xfertypes.ObjectMetadata,
) (string, error) {
	input := &s3.CreateMultipartUploadInput{
		Bucket: aws.String(target.Bucket),
		Key:    aws.String(target.Key),
	}
	if meta.ContentType != "" {
		input.ContentType = aws.String(meta.ContentType)
	}
	if len(meta.Metadata) > 0 {
		input.Metadata = meta.Metadata
	}

	out, err := b.client.CreateMultipartUpload(ctx, input)
	if err != nil {
		return "", translateError("create multipart upload", err)
	}

	uploadID := aws.ToString(out.UploadId)
	if uploadID == "" {
		return "", fmt.Errorf("s3backend: create multipart upload returned no upload id")
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
	out, err := b.client.UploadPart(ctx, &s3.UploadPartInput{
		Bucket:        aws.String(target.Bucket),
		Key:           aws.String(target.Key),
		UploadId:      aws.String(sessionID),
		PartNumber:    aws.Int32(int32(index)),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
	})
	if err != nil {
		return "", translateError(fmt.Sprintf("upload part %d", index), err)
	}
	return aws.ToString(out.ETag), nil
}

// CompleteMultipart implements backend.Backend.
// S3 rejects an empty manifest, so an upload with no parts is aborted and
// the object is written with a single empty PutObject instead.
func (b *Backend) CompleteMultipart(
	ctx context.Context,
	target xfertypes.Target,
	sessionID string,
	parts []xfertypes.CompletedPart,
) error {
	metaValue, _ := b.sessions.LoadAndDelete(sessionID)

	if len(parts) == 0 {
		meta, _ := metaValue.(xfertypes.ObjectMetadata)
		return b.putEmpty(ctx, target, sessionID, meta)
	}

	completed := make([]types.CompletedPart, len(parts))
	for i, p := range parts {
		completed[i] = types.CompletedPart{
			PartNumber: aws.Int32(int32(p.Index)),
			ETag:       aws.String(p.ETag),
		}
	}

	_, err := b.client.CompleteMultipartUpload(ctx, &s3.CompleteMultipartUploadInput{
		Bucket:          aws.String(target.Bucket),
		Key:             aws.String(target.Key),
		UploadId:        aws.String(sessionID),
		MultipartUpload: &types.CompletedMultipartUpload{Parts: completed},
	})
	if err != nil {
		return translateError("complete multipart upload", err)
	}
	return nil
}

func (b *Backend) putEmpty(
	ctx context.Context,
	target xfertypes.Target,
	sessionID string,
	meta xfertypes.ObjectMetadata,
) error {
	if err := b.AbortMultipart(ctx, target, sessionID); err != nil {
		return err
	}

	input := &s3.PutObjectInput{
		Bucket:        aws.String(target.Bucket),
		Key:           aws.String(target.Key),
		Body:          bytes.NewReader(nil),
		ContentLength: aws.Int64(0),
	}
	if meta.ContentType != "" {
		input.ContentType = aws.String(meta.ContentType)
	}
	if len(meta.Metadata) > 0 {
		input.Metadata = meta.Metadata
	}

	if _, err := b.client.PutObject(ctx, input); err != nil {
		return translateError("put empty object", err)
	}
	return nil
}

// AbortMultipart implements backend.Backend.
// Aborting an upload the service no longer knows about is not an error.
func (b *Backend) AbortMultipart(ctx context.Context, target xfertypes.Target, sessionID string) error {
	b.sessions.Delete(sessionID)

	_, err := b.client.AbortMultipartUpload(ctx, &s3.AbortMultipartUploadInput{
		Bucket:   aws.String(target.Bucket),
		Key:      aws.String(target.Key),
		UploadId: aws.String(sessionID),
	})
	if err != nil && errorCode(err) != "NoSuchUpload" {
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
	out, err := b.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(target.Bucket),
		Key:    aws.String(target.Key),
		Range:  aws.String(fmt.Sprintf("bytes=%d-%d", start, endInclusive)),
	})
	if err != nil {
		return nil, translateLookupError("get object range", err)
	}
	if out.Body == nil {
		return nil, fmt.Errorf("s3backend: get object range returned no body")
	}
	return out.Body, nil
}

// translateError marks absence with errors.ErrNotFound and keeps the SDK
// error reachable for callers that inspect it.
func translateError(action string, err error) error {
	return wrapError(action, err, isNotFound(err, false))
}

// translateLookupError is translateError for HeadObject and GetObject,
// where a bare 404 without an error code also means the key is absent.
func translateLookupError(action string, err error) error {
	return wrapError(action, err, isNotFound(err, true))
}

func wrapError(action string, err error, notFound bool) error {
	if notFound {
		return fmt.Errorf("s3backend: %s: %w: %w", action, errors.ErrNotFound, err)
	}
	return fmt.Errorf("s3backend: %s: %w", action, err)
}

// isNotFound reports whether err means the object key is absent. A missing
// bucket or upload session is a different failure even though S3 answers
// both with a 404.
func isNotFound(err error, lookup bool) bool {
	switch errorCode(err) {
	case "NotFound", "NoSuchKey":
		return true
	case "NoSuchBucket", "NoSuchUpload":
		return false
	}
	if !lookup {
		return false
	}

	var respErr *smithyhttp.ResponseError
	return stderrors.As(err, &respErr) && respErr.HTTPStatusCode() == http.StatusNotFound
}

func errorCode(err error) string {
	var apiErr smithy.APIError
	if stderrors.As(err, &apiErr) {
		return apiErr.ErrorCode()
	}
	return ""
}

var _ backend.Backend = (*Backend)(nil)
