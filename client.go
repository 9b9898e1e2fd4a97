package transfer

import (
	"log/slog"

	"github.com/go-git/go-billy/v5/osfs"

	"github.com/input-output-hk/catalyst-forge-libs/transfer/backend"
	"github.com/input-output-hk/catalyst-forge-libs/transfer/errors"
	"github.com/input-output-hk/catalyst-forge-libs/transfer/internal/planner"
	"github.com/input-output-hk/catalyst-forge-libs/transfer/internal/transfer/multipart"
	"github.com/input-output-hk/catalyst-forge-libs/transfer/internal/transfer/ranged"
	"github.com/input-output-hk/catalyst-forge-libs/transfer/internal/validation"
	"github.com/input-output-hk/catalyst-forge-libs/transfer/stream"
	"github.com/input-output-hk/catalyst-forge-libs/transfer/xfertypes"
)

// Client runs chunked transfers against a single backend.
// It is safe for concurrent use; each call owns its own session or state.
type Client struct {
	backend    backend.Backend
	config     xfertypes.ClientConfig
	uploader   *multipart.Uploader
	downloader *ranged.Downloader
	logger     *slog.Logger
}

// New creates a transfer client over b with the provided options.
//
// Example:
//
//	client, err := transfer.New(b,
//	    transfer.WithConcurrency(4),
//	    transfer.WithLogger(logger),
//	)
func New(b backend.Backend, opts ...xfertypes.Option) (*Client, error) {
	if b == nil {
		return nil, errors.New(errors.KindInvalidInput, "new", errors.ErrInvalidInput).
			WithMessage("backend cannot be nil")
	}

	cfg := xfertypes.ClientConfig{
		PartSize:      planner.DefaultPartSize,
		Concurrency:   multipart.DefaultConcurrency,
		ChunkSize:     ranged.DefaultChunkSize,
		HighWaterMark: stream.DefaultHighWaterMark,
		AbortTimeout:  multipart.DefaultAbortTimeout,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	if err := validation.ValidatePartSize("new", cfg.PartSize); err != nil {
		return nil, err
	}
	if err := validation.ValidateConcurrency("new", cfg.Concurrency); err != nil {
		return nil, err
	}

	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.DiscardHandler)
	}
	if cfg.Filesystem == nil {
		cfg.Filesystem = osfs.New("/")
	}

	return &Client{
		backend:    b,
		config:     cfg,
		uploader:   multipart.NewUploader(b, cfg.Logger),
		downloader: ranged.NewDownloader(b, cfg.Logger),
		logger:     cfg.Logger,
	}, nil
}

// Config returns a copy of the resolved client configuration.
func (c *Client) Config() xfertypes.ClientConfig {
	return c.config
}
