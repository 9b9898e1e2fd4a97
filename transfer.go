package transfer

import (
	"context"
	"fmt"
	"io"
	"mime"
	"path/filepath"

	"github.com/gabriel-vasile/mimetype"

	"github.com/input-output-hk/catalyst-forge-libs/transfer/errors"
	"github.com/input-output-hk/catalyst-forge-libs/transfer/internal/validation"
	"github.com/input-output-hk/catalyst-forge-libs/transfer/stream"
	"github.com/input-output-hk/catalyst-forge-libs/transfer/xfertypes"
)

const (
	// DefaultContentType is used when detection finds nothing more specific.
	DefaultContentType = "application/octet-stream"

	// sniffLength is how many leading bytes are inspected for content type detection.
	sniffLength = 3072
)

// UploadMultipart uploads source to bucket/key through a multipart session.
//
// On failure after the session was opened the returned session is non-nil
// and its State is SessionAborted (part failure, cancellation) or
// SessionInProgress (completion failure).
func (c *Client) UploadMultipart(
	ctx context.Context,
	bucket, key string,
	source stream.Source,
	opts ...xfertypes.UploadOption,
) (*xfertypes.UploadSession, error) {
	const op = "upload"
	target := xfertypes.Target{Bucket: bucket, Key: key}

	if err := validation.ValidateTarget(op, target); err != nil {
		return nil, err
	}
	if source == nil {
		return nil, errors.New(errors.KindInvalidInput, op, errors.ErrInvalidInput).
			WithTarget(bucket, key).
			WithMessage("source cannot be nil")
	}

	cfg, err := c.uploadConfig(op, opts)
	if err != nil {
		return nil, err
	}
	if cfg.Metadata.ContentType == "" {
		cfg.Metadata.ContentType = detectContentType(source)
	}

	return c.uploader.Upload(ctx, target, source, cfg)
}

// UploadFile uploads the file at path, read through the client filesystem.
// When no content type is given it is detected from the file contents,
// falling back to the file extension.
func (c *Client) UploadFile(
	ctx context.Context,
	bucket, key, path string,
	opts ...xfertypes.UploadOption,
) (*xfertypes.UploadSession, error) {
	const op = "uploadFile"
	target := xfertypes.Target{Bucket: bucket, Key: key}

	if err := validation.ValidateTarget(op, target); err != nil {
		return nil, err
	}
	if path == "" {
		return nil, errors.New(errors.KindInvalidInput, op, errors.ErrInvalidInput).
			WithTarget(bucket, key).
			WithMessage("path cannot be empty")
	}

	cfg, err := c.uploadConfig(op, opts)
	if err != nil {
		return nil, err
	}

	source, err := stream.OpenFileSource(c.config.Filesystem, path)
	if err != nil {
		return nil, errors.New(errors.KindInvalidInput, op, err).WithTarget(bucket, key)
	}
	defer source.Close()

	if cfg.Metadata.ContentType == "" {
		cfg.Metadata.ContentType = detectContentType(source)
		if cfg.Metadata.ContentType == DefaultContentType {
			if byExt := mime.TypeByExtension(filepath.Ext(path)); byExt != "" {
				cfg.Metadata.ContentType = byExt
			}
		}
	}

	c.logger.Debug("uploading file",
		"bucket", bucket,
		"key", key,
		"path", path,
		"size", source.Len(),
		"content_type", cfg.Metadata.ContentType)

	return c.uploader.Upload(ctx, target, source, cfg)
}

// Put uploads data held in memory.
func (c *Client) Put(
	ctx context.Context,
	bucket, key string,
	data []byte,
	opts ...xfertypes.UploadOption,
) error {
	_, err := c.UploadMultipart(ctx, bucket, key, stream.NewBytesSource(data), opts...)
	return err
}

// DownloadRanged streams bucket/key into sink one range at a time.
//
// The sink is closed when the download succeeds. On failure it is left open
// so the caller can inspect or discard what was written.
func (c *Client) DownloadRanged(
	ctx context.Context,
	bucket, key string,
	sink stream.Sink,
	opts ...xfertypes.DownloadOption,
) (*xfertypes.DownloadState, error) {
	const op = "download"
	target := xfertypes.Target{Bucket: bucket, Key: key}

	if err := validation.ValidateTarget(op, target); err != nil {
		return nil, err
	}
	if sink == nil {
		return nil, errors.New(errors.KindInvalidInput, op, errors.ErrInvalidInput).
			WithTarget(bucket, key).
			WithMessage("sink cannot be nil")
	}

	cfg, err := c.downloadConfig(op, opts)
	if err != nil {
		return nil, err
	}

	return c.downloader.Download(ctx, target, sink, cfg)
}

// Download streams bucket/key into w. Writes to w happen on a separate
// goroutine behind a bounded buffer; w is never closed.
func (c *Client) Download(
	ctx context.Context,
	bucket, key string,
	w io.Writer,
	opts ...xfertypes.DownloadOption,
) (*xfertypes.DownloadState, error) {
	if w == nil {
		return nil, errors.New(errors.KindInvalidInput, "download", errors.ErrInvalidInput).
			WithTarget(bucket, key).
			WithMessage("writer cannot be nil")
	}

	sink := stream.NewWriterSink(struct{ io.Writer }{w}, c.config.HighWaterMark)
	state, err := c.DownloadRanged(ctx, bucket, key, sink, opts...)
	if err != nil {
		_ = sink.Close()
	}
	return state, err
}

// DownloadFile downloads bucket/key into the file at path, creating parent
// directories as needed. The file is created only once the object has been
// found; a failure after that leaves a partial file behind.
func (c *Client) DownloadFile(
	ctx context.Context,
	bucket, key, path string,
	opts ...xfertypes.DownloadOption,
) (*xfertypes.DownloadState, error) {
	const op = "downloadFile"
	target := xfertypes.Target{Bucket: bucket, Key: key}

	if err := validation.ValidateTarget(op, target); err != nil {
		return nil, err
	}
	if path == "" {
		return nil, errors.New(errors.KindInvalidInput, op, errors.ErrInvalidInput).
			WithTarget(bucket, key).
			WithMessage("path cannot be empty")
	}

	sink := stream.NewLazySink(func() (stream.Sink, error) {
		return stream.OpenFileSink(c.config.Filesystem, path, c.config.HighWaterMark)
	})

	state, err := c.DownloadRanged(ctx, bucket, key, sink, opts...)
	if err != nil {
		_ = sink.Discard()
		return state, err
	}
	return state, nil
}

// Get downloads bucket/key into memory.
func (c *Client) Get(
	ctx context.Context,
	bucket, key string,
	opts ...xfertypes.DownloadOption,
) ([]byte, error) {
	sink := stream.NewBufferSink()
	if _, err := c.DownloadRanged(ctx, bucket, key, sink, opts...); err != nil {
		return nil, err
	}
	return sink.Bytes(), nil
}

// Size returns the content length of bucket/key.
func (c *Client) Size(ctx context.Context, bucket, key string) (int64, error) {
	const op = "size"
	target := xfertypes.Target{Bucket: bucket, Key: key}

	if err := validation.ValidateTarget(op, target); err != nil {
		return 0, err
	}

	size, err := c.backend.ProbeSize(ctx, target)
	if err != nil {
		switch {
		case errors.IsNotFound(err):
			return 0, errors.New(errors.KindNotFound, op, err).WithTarget(bucket, key)
		case ctx.Err() != nil:
			return 0, errors.New(errors.KindCancelled, op, ctx.Err()).WithTarget(bucket, key)
		default:
			return 0, errors.New(errors.KindSizeProbeFailed, op, err).WithTarget(bucket, key)
		}
	}
	return size, nil
}

// Exists reports whether bucket/key exists. Absence is not an error.
func (c *Client) Exists(ctx context.Context, bucket, key string) (bool, error) {
	if _, err := c.Size(ctx, bucket, key); err != nil {
		if errors.IsNotFound(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// uploadConfig resolves per-call upload options over the client defaults.
func (c *Client) uploadConfig(op string, opts []xfertypes.UploadOption) (*xfertypes.UploadConfig, error) {
	options := &xfertypes.UploadOptionConfig{
		PartSize:    c.config.PartSize,
		Concurrency: c.config.Concurrency,
	}
	for _, opt := range opts {
		opt(options)
	}

	if err := validation.ValidatePartSize(op, options.PartSize); err != nil {
		return nil, err
	}
	if err := validation.ValidateConcurrency(op, options.Concurrency); err != nil {
		return nil, err
	}
	if err := validation.ValidateMetadata(op, options.Metadata); err != nil {
		return nil, err
	}

	return &xfertypes.UploadConfig{
		Metadata: xfertypes.ObjectMetadata{
			ContentType: options.ContentType,
			Metadata:    options.Metadata,
		},
		ProgressTracker: options.ProgressTracker,
		PartSize:        options.PartSize,
		Concurrency:     options.Concurrency,
		MaxParts:        c.config.MaxParts,
		AbortTimeout:    c.config.AbortTimeout,
	}, nil
}

// downloadConfig resolves per-call download options over the client defaults.
func (c *Client) downloadConfig(op string, opts []xfertypes.DownloadOption) (*xfertypes.DownloadConfig, error) {
	options := &xfertypes.DownloadOptionConfig{
		PartSize:  c.config.PartSize,
		ChunkSize: c.config.ChunkSize,
	}
	for _, opt := range opts {
		opt(options)
	}

	if err := validation.ValidatePartSize(op, options.PartSize); err != nil {
		return nil, err
	}
	if options.ChunkSize < 1 {
		return nil, errors.New(errors.KindInvalidInput, op, errors.ErrInvalidInput).
			WithMessage(fmt.Sprintf("chunk size must be positive, got %d", options.ChunkSize))
	}

	return &xfertypes.DownloadConfig{
		ProgressTracker: options.ProgressTracker,
		PartSize:        options.PartSize,
		ChunkSize:       options.ChunkSize,
	}, nil
}

// detectContentType sniffs the leading bytes of source.
func detectContentType(source stream.Source) string {
	n := min(source.Len(), sniffLength)
	if n == 0 {
		return DefaultContentType
	}
	head, err := source.Slice(0, n)
	if err != nil {
		return DefaultContentType
	}
	return mimetype.Detect(head).String()
}
