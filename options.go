package transfer

import (
	"log/slog"
	"time"

	"github.com/go-git/go-billy/v5"

	"github.com/input-output-hk/catalyst-forge-libs/transfer/xfertypes"
)

// WithPartSize sets the default part size for uploads and downloads.
// Default is 8MB.
func WithPartSize(partSize int64) xfertypes.Option {
	return func(c *xfertypes.ClientConfig) {
		c.PartSize = partSize
	}
}

// WithConcurrency sets how many upload parts may be in flight at once.
// Default is 1, which uploads parts strictly in order.
func WithConcurrency(concurrency int) xfertypes.Option {
	return func(c *xfertypes.ClientConfig) {
		c.Concurrency = concurrency
	}
}

// WithChunkSize sets the read size used when copying range bodies into a sink.
func WithChunkSize(chunkSize int) xfertypes.Option {
	return func(c *xfertypes.ClientConfig) {
		if chunkSize > 0 {
			c.ChunkSize = chunkSize
		}
	}
}

// WithHighWaterMark sets the buffered byte count at which sinks created by
// the client report backpressure.
func WithHighWaterMark(highWaterMark int) xfertypes.Option {
	return func(c *xfertypes.ClientConfig) {
		if highWaterMark > 0 {
			c.HighWaterMark = highWaterMark
		}
	}
}

// WithMaxParts caps the part count of an upload. The part size is doubled
// until the source fits. Zero disables the cap.
func WithMaxParts(maxParts int) xfertypes.Option {
	return func(c *xfertypes.ClientConfig) {
		c.MaxParts = maxParts
	}
}

// WithAbortTimeout bounds the abort request sent after a failed upload.
func WithAbortTimeout(timeout time.Duration) xfertypes.Option {
	return func(c *xfertypes.ClientConfig) {
		if timeout > 0 {
			c.AbortTimeout = timeout
		}
	}
}

// WithLogger sets the structured logger. Default discards all records.
func WithLogger(logger *slog.Logger) xfertypes.Option {
	return func(c *xfertypes.ClientConfig) {
		c.Logger = logger
	}
}

// WithFilesystem sets the filesystem used by UploadFile and DownloadFile.
// If not specified, defaults to the OS filesystem rooted at /.
func WithFilesystem(filesystem billy.Filesystem) xfertypes.Option {
	return func(c *xfertypes.ClientConfig) {
		c.Filesystem = filesystem
	}
}

// WithContentType sets the content type for upload operations.
// When unset the type is detected from the first bytes of the source.
func WithContentType(contentType string) xfertypes.UploadOption {
	return func(c *xfertypes.UploadOptionConfig) {
		c.ContentType = contentType
	}
}

// WithMetadata sets custom metadata for upload operations.
func WithMetadata(metadata map[string]string) xfertypes.UploadOption {
	return func(c *xfertypes.UploadOptionConfig) {
		c.Metadata = metadata
	}
}

// WithProgress sets a progress tracker for upload operations.
func WithProgress(tracker xfertypes.ProgressTracker) xfertypes.UploadOption {
	return func(c *xfertypes.UploadOptionConfig) {
		c.ProgressTracker = tracker
	}
}

// WithUploadPartSize overrides the client part size for one upload.
func WithUploadPartSize(partSize int64) xfertypes.UploadOption {
	return func(c *xfertypes.UploadOptionConfig) {
		c.PartSize = partSize
	}
}

// WithUploadConcurrency overrides the client concurrency for one upload.
func WithUploadConcurrency(concurrency int) xfertypes.UploadOption {
	return func(c *xfertypes.UploadOptionConfig) {
		c.Concurrency = concurrency
	}
}

// WithDownloadProgress sets a progress tracker for download operations.
func WithDownloadProgress(tracker xfertypes.ProgressTracker) xfertypes.DownloadOption {
	return func(c *xfertypes.DownloadOptionConfig) {
		c.ProgressTracker = tracker
	}
}

// WithDownloadPartSize overrides the client range size for one download.
func WithDownloadPartSize(partSize int64) xfertypes.DownloadOption {
	return func(c *xfertypes.DownloadOptionConfig) {
		c.PartSize = partSize
	}
}

// WithDownloadChunkSize overrides the client chunk size for one download.
func WithDownloadChunkSize(chunkSize int) xfertypes.DownloadOption {
	return func(c *xfertypes.DownloadOptionConfig) {
		c.ChunkSize = chunkSize
	}
}
