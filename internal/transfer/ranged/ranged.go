// Package ranged drives ranged downloads: it probes the object size, fetches
// the planned byte ranges in order, and streams them into a sink while
// honouring the sink's backpressure.
package ranged

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/input-output-hk/catalyst-forge-libs/transfer/backend"
	"github.com/input-output-hk/catalyst-forge-libs/transfer/errors"
	"github.com/input-output-hk/catalyst-forge-libs/transfer/internal/planner"
	"github.com/input-output-hk/catalyst-forge-libs/transfer/internal/pool"
	"github.com/input-output-hk/catalyst-forge-libs/transfer/stream"
	"github.com/input-output-hk/catalyst-forge-libs/transfer/xfertypes"
)

// DefaultChunkSize is the read size used for range bodies (64KB).
const DefaultChunkSize = pool.MediumChunkSize

const op = "download"

// Downloader handles ranged download operations
type Downloader struct {
	backend backend.Backend
	logger  *slog.Logger
}

// NewDownloader creates a new ranged downloader
func NewDownloader(b backend.Backend, logger *slog.Logger) *Downloader {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Downloader{
		backend: b,
		logger:  logger,
	}
}

// Download streams the object at target into sink.
//
// Ranges are fetched one at a time in ascending order. Each range body is
// read in chunks; when the sink reports backpressure the downloader waits for
// it to drain before reading further. The sink is closed after the last
// range. On failure the sink is left open and bytes already written stay
// there; the returned state reports how many.
func (d *Downloader) Download(
	ctx context.Context,
	target xfertypes.Target,
	sink stream.Sink,
	cfg *xfertypes.DownloadConfig,
) (*xfertypes.DownloadState, error) {
	startTime := time.Now()
	tracker := cfg.ProgressTracker
	if tracker == nil {
		tracker = xfertypes.NopProgressTracker{}
	}
	state := &xfertypes.DownloadState{Target: target}

	fail := func(err error) (*xfertypes.DownloadState, error) {
		state.Duration = time.Since(startTime)
		tracker.Error(err)
		return state, err
	}

	if err := ctx.Err(); err != nil {
		return fail(cancelled(target, err))
	}

	total, err := d.backend.ProbeSize(ctx, target)
	if err != nil {
		switch {
		case errors.IsNotFound(err):
			return fail(errors.New(errors.KindNotFound, op, err).WithTarget(target.Bucket, target.Key))
		case ctx.Err() != nil:
			return fail(cancelled(target, ctx.Err()))
		default:
			return fail(errors.New(errors.KindSizeProbeFailed, op, err).WithTarget(target.Bucket, target.Key))
		}
	}
	state.TotalBytes = total

	partSize := cfg.PartSize
	if partSize <= 0 {
		partSize = planner.DefaultPartSize
	}
	plan, err := planner.Plan(total, partSize)
	if err != nil {
		return fail(err)
	}

	d.logger.Debug("ranged download started",
		"bucket", target.Bucket,
		"key", target.Key,
		"size", total,
		"ranges", plan.Len())

	chunkSize := cfg.ChunkSize
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	buf := pool.Get(chunkSize)
	defer pool.Put(buf)

	if plan.Len() == 0 {
		tracker.Update(0, 0)
	}
	for _, part := range plan {
		if err := ctx.Err(); err != nil {
			return fail(cancelled(target, err))
		}
		if err := d.fetchRange(ctx, target, part, sink, buf, state, tracker); err != nil {
			return fail(err)
		}
	}

	if err := sink.Close(); err != nil {
		return fail(errors.New(errors.KindSinkWriteFailed, op, err).
			WithTarget(target.Bucket, target.Key).
			WithMessage("close sink"))
	}

	state.Duration = time.Since(startTime)
	tracker.Complete()

	d.logger.Info("ranged download completed",
		"bucket", target.Bucket,
		"key", target.Key,
		"size", state.BytesWritten,
		"duration", state.Duration)

	return state, nil
}

// fetchRange copies one range body into the sink chunk by chunk.
func (d *Downloader) fetchRange(
	ctx context.Context,
	target xfertypes.Target,
	part xfertypes.PartSpec,
	sink stream.Sink,
	buf []byte,
	state *xfertypes.DownloadState,
	tracker xfertypes.ProgressTracker,
) error {
	rangeErr := func(err error) error {
		if ctx.Err() != nil && isContextError(err) {
			return cancelled(target, err)
		}
		return errors.New(errors.KindRangeFetchFailed, op, err).
			WithTarget(target.Bucket, target.Key).
			WithIndex(part.Index)
	}

	d.logger.Debug("fetching range",
		"key", target.Key,
		"range", part.Index,
		"start", part.Offset,
		"end", part.End())

	body, err := d.backend.FetchRange(ctx, target, part.Offset, part.End())
	if err != nil {
		return rangeErr(err)
	}
	defer func() {
		_ = body.Close()
	}()

	var received int64
	for {
		n, readErr := body.Read(buf)
		if n > 0 {
			if received+int64(n) > part.Length {
				return rangeErr(fmt.Errorf("body exceeds range length %d", part.Length))
			}
			received += int64(n)

			accepted, err := sink.Write(buf[:n])
			if err != nil {
				return errors.New(errors.KindSinkWriteFailed, op, err).WithTarget(target.Bucket, target.Key)
			}
			state.BytesWritten += int64(n)
			tracker.Update(state.BytesWritten, state.TotalBytes)

			if !accepted {
				if err := waitDrained(ctx, target, sink); err != nil {
					return err
				}
			}
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			return rangeErr(readErr)
		}
	}

	if received != part.Length {
		return rangeErr(fmt.Errorf("short body: received %d of %d bytes", received, part.Length))
	}
	return nil
}

// waitDrained blocks until the sink drops below its high-water mark or ctx is done.
func waitDrained(ctx context.Context, target xfertypes.Target, sink stream.Sink) error {
	drained := make(chan struct{})
	var once sync.Once
	sink.OnDrained(func() {
		once.Do(func() { close(drained) })
	})

	select {
	case <-drained:
		return nil
	case <-ctx.Done():
		return cancelled(target, ctx.Err())
	}
}

func cancelled(target xfertypes.Target, cause error) error {
	return errors.New(errors.KindCancelled, op, cause).WithTarget(target.Bucket, target.Key)
}

func isContextError(err error) bool {
	return stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded)
}
