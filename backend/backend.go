// Package backend defines the storage backend consumed by the transfer orchestrators.
//
// A Backend already knows how to authenticate and speak the wire protocol of
// an object store. The orchestrators only sequence its calls; they never
// retry, so any retry policy belongs to the Backend implementation.
package backend

import (
	"context"
	"io"

	"github.com/input-output-hk/catalyst-forge-libs/transfer/xfertypes"
)

// Backend is the set of object-store operations a chunked transfer needs.
// Implementations must be safe for concurrent use by independent transfers.
type Backend interface {
	// ProbeSize returns the content length of the object.
	// Absence must be reported by wrapping errors.ErrNotFound.
	ProbeSize(ctx context.Context, target xfertypes.Target) (int64, error)

	// InitiateMultipart opens a multipart session and returns its id.
	InitiateMultipart(ctx context.Context, target xfertypes.Target, meta xfertypes.ObjectMetadata) (string, error)

	// UploadPart submits one part under its 1-based index and returns the
	// acknowledgment tag. data must not be retained after the call returns.
	UploadPart(ctx context.Context, target xfertypes.Target, sessionID string, index int, data []byte) (string, error)

	// CompleteMultipart assembles the object from parts sorted ascending by index.
	// An empty manifest produces a zero-byte object.
	CompleteMultipart(ctx context.Context, target xfertypes.Target, sessionID string, parts []xfertypes.CompletedPart) error

	// AbortMultipart discards a session and any uploaded parts.
	AbortMultipart(ctx context.Context, target xfertypes.Target, sessionID string) error

	// FetchRange returns the bytes in [start, endInclusive] of the object.
	// The caller closes the returned body.
	FetchRange(ctx context.Context, target xfertypes.Target, start, endInclusive int64) (io.ReadCloser, error)
}
