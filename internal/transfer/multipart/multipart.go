// Package multipart drives multipart uploads: it opens a session, sends the
// planned parts, and either completes the session or aborts it on failure.
package multipart

import (
	"context"
	stderrors "errors"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/input-output-hk/catalyst-forge-libs/transfer/backend"
	"github.com/input-output-hk/catalyst-forge-libs/transfer/errors"
	"github.com/input-output-hk/catalyst-forge-libs/transfer/internal/planner"
	"github.com/input-output-hk/catalyst-forge-libs/transfer/stream"
	"github.com/input-output-hk/catalyst-forge-libs/transfer/xfertypes"
)

const (
	// DefaultConcurrency uploads parts one at a time.
	DefaultConcurrency = 1

	// DefaultAbortTimeout bounds the cleanup request sent after a failure.
	DefaultAbortTimeout = 30 * time.Second

	op = "upload"
)

// Uploader handles multipart upload operations
type Uploader struct {
	backend backend.Backend
	logger  *slog.Logger
}

// NewUploader creates a new multipart uploader
func NewUploader(b backend.Backend, logger *slog.Logger) *Uploader {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Uploader{
		backend: b,
		logger:  logger,
	}
}

// Upload sends source to target as a multipart upload.
//
// Parts are read from source and sent in ascending index order. When
// cfg.Concurrency is above one, up to that many parts are in flight at once
// and the manifest is sorted before completion. If any part fails the
// session is aborted once and the error carries the failing part index.
// A completion failure is returned without aborting.
//
// The returned session is nil when the upload failed before a session was
// opened.
func (u *Uploader) Upload(
	ctx context.Context,
	target xfertypes.Target,
	source stream.Source,
	cfg *xfertypes.UploadConfig,
) (*xfertypes.UploadSession, error) {
	startTime := time.Now()
	tracker := trackerOf(cfg.ProgressTracker)

	if err := ctx.Err(); err != nil {
		return nil, u.fail(tracker, cancelled(target, err))
	}

	total := source.Len()
	partSize := cfg.PartSize
	if partSize <= 0 {
		partSize = planner.DefaultPartSize
	}
	partSize = planner.FitPartSize(total, partSize, cfg.MaxParts)

	plan, err := planner.Plan(total, partSize)
	if err != nil {
		return nil, u.fail(tracker, err)
	}

	session := &xfertypes.UploadSession{
		Target: target,
		Parts:  make(map[int]xfertypes.PartRecord, plan.Len()),
		State:  xfertypes.SessionInitiated,
		Size:   total,
	}

	sessionID, err := u.backend.InitiateMultipart(ctx, target, cfg.Metadata)
	if err != nil {
		if ctx.Err() != nil {
			return nil, u.fail(tracker, cancelled(target, ctx.Err()))
		}
		return nil, u.fail(tracker, errors.New(errors.KindInitiationFailed, op, err).
			WithTarget(target.Bucket, target.Key))
	}
	session.SessionID = sessionID
	session.State = xfertypes.SessionInProgress

	u.logger.Debug("multipart upload initiated",
		"bucket", target.Bucket,
		"key", target.Key,
		"upload_id", sessionID,
		"size", total,
		"part_size", partSize,
		"parts", plan.Len())

	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}

	if plan.Len() == 0 {
		tracker.Update(0, 0)
	} else if concurrency == 1 {
		err = u.uploadSequential(ctx, session, source, plan, tracker)
	} else {
		err = u.uploadConcurrent(ctx, session, source, plan, tracker, concurrency)
	}
	if err != nil {
		session.State = xfertypes.SessionAborted
		u.abort(ctx, session, cfg.AbortTimeout)
		session.Duration = time.Since(startTime)
		return session, u.fail(tracker, err)
	}

	if err := u.backend.CompleteMultipart(ctx, target, sessionID, session.CompletedParts()); err != nil {
		session.Duration = time.Since(startTime)
		return session, u.fail(tracker, errors.New(errors.KindCompletionFailed, op, err).
			WithTarget(target.Bucket, target.Key))
	}

	session.State = xfertypes.SessionCompleted
	session.Duration = time.Since(startTime)
	tracker.Complete()

	u.logger.Info("multipart upload completed",
		"bucket", target.Bucket,
		"key", target.Key,
		"size", total,
		"parts", len(session.Parts),
		"duration", session.Duration)

	return session, nil
}

// uploadSequential sends parts one at a time in plan order.
func (u *Uploader) uploadSequential(
	ctx context.Context,
	session *xfertypes.UploadSession,
	source stream.Source,
	plan xfertypes.PartPlan,
	tracker xfertypes.ProgressTracker,
) error {
	var sent int64
	for _, part := range plan {
		if err := ctx.Err(); err != nil {
			return cancelled(session.Target, err)
		}

		record, err := u.uploadPart(ctx, session, source, part)
		if err != nil {
			return err
		}

		session.Parts[part.Index] = record
		sent += record.Length
		tracker.Update(sent, session.Size)
	}
	return nil
}

// uploadConcurrent sends parts through a bounded errgroup. Parts are
// dispatched in plan order; the first failure stops further dispatch.
func (u *Uploader) uploadConcurrent(
	ctx context.Context,
	session *xfertypes.UploadSession,
	source stream.Source,
	plan xfertypes.PartPlan,
	tracker xfertypes.ProgressTracker,
	concurrency int,
) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	var (
		mu   sync.Mutex
		sent int64
	)

	for _, part := range plan {
		if gctx.Err() != nil {
			break
		}

		g.Go(func() error {
			if gctx.Err() != nil {
				return nil
			}

			record, err := u.uploadPart(gctx, session, source, part)
			if err != nil {
				return err
			}

			mu.Lock()
			defer mu.Unlock()
			session.Parts[part.Index] = record
			sent += record.Length
			tracker.Update(sent, session.Size)
			return nil
		})
	}

	err := g.Wait()
	if err == nil && ctx.Err() != nil {
		err = cancelled(session.Target, ctx.Err())
	}
	if err != nil && ctx.Err() != nil && errors.KindOf(err) != errors.KindPartFailed {
		err = cancelled(session.Target, ctx.Err())
	}
	return err
}

// uploadPart slices one part from source and hands it to the backend.
func (u *Uploader) uploadPart(
	ctx context.Context,
	session *xfertypes.UploadSession,
	source stream.Source,
	part xfertypes.PartSpec,
) (xfertypes.PartRecord, error) {
	target := session.Target

	data, err := source.Slice(part.Offset, part.Length)
	if err != nil {
		return xfertypes.PartRecord{}, errors.New(errors.KindPartFailed, op, err).
			WithTarget(target.Bucket, target.Key).
			WithIndex(part.Index).
			WithMessage("read source")
	}

	u.logger.Debug("uploading part",
		"key", target.Key,
		"part", part.Index,
		"offset", part.Offset,
		"length", part.Length)

	etag, err := u.backend.UploadPart(ctx, target, session.SessionID, part.Index, data)
	if err != nil {
		if ctx.Err() != nil && isContextError(err) {
			return xfertypes.PartRecord{}, cancelled(target, err)
		}
		return xfertypes.PartRecord{}, errors.New(errors.KindPartFailed, op, err).
			WithTarget(target.Bucket, target.Key).
			WithIndex(part.Index)
	}

	return xfertypes.PartRecord{ETag: etag, Length: part.Length}, nil
}

// abort discards the session. It runs even if ctx is already cancelled and
// only logs failures so the original error is the one reported.
func (u *Uploader) abort(ctx context.Context, session *xfertypes.UploadSession, timeout time.Duration) {
	if timeout <= 0 {
		timeout = DefaultAbortTimeout
	}

	abortCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
	defer cancel()

	if err := u.backend.AbortMultipart(abortCtx, session.Target, session.SessionID); err != nil {
		u.logger.Warn("failed to abort multipart upload",
			"bucket", session.Target.Bucket,
			"key", session.Target.Key,
			"upload_id", session.SessionID,
			"error", err)
		return
	}

	u.logger.Debug("multipart upload aborted",
		"key", session.Target.Key,
		"upload_id", session.SessionID)
}

func (u *Uploader) fail(tracker xfertypes.ProgressTracker, err error) error {
	tracker.Error(err)
	return err
}

func cancelled(target xfertypes.Target, cause error) error {
	return errors.New(errors.KindCancelled, op, cause).WithTarget(target.Bucket, target.Key)
}

func isContextError(err error) bool {
	return stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded)
}

func trackerOf(t xfertypes.ProgressTracker) xfertypes.ProgressTracker {
	if t == nil {
		return xfertypes.NopProgressTracker{}
	}
	return t
}
