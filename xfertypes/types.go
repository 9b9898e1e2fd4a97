// Package xfertypes provides shared type definitions for the transfer module.
package xfertypes

import (
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/go-git/go-billy/v5"
)

// Target identifies the object being transferred.
// It is immutable for the duration of a transfer.
type Target struct {
	// Bucket is the bucket holding the object
	Bucket string

	// Key is the object key within the bucket
	Key string
}

// String returns the target as bucket/key.
func (t Target) String() string {
	return t.Bucket + "/" + t.Key
}

// PartSpec is one contiguous byte interval of an object.
type PartSpec struct {
	// Index is the 1-based position in transfer order
	Index int

	// Offset is the first byte of the part
	Offset int64

	// Length is the number of bytes in the part, always positive
	Length int64
}

// End returns the offset of the last byte of the part (inclusive).
func (p PartSpec) End() int64 {
	return p.Offset + p.Length - 1
}

// Range returns the part as an HTTP range header value.
func (p PartSpec) Range() string {
	return fmt.Sprintf("bytes=%d-%d", p.Offset, p.End())
}

// PartPlan is the ordered partition of an object into parts.
// Offsets are contiguous and ascending; lengths sum to the object size.
type PartPlan []PartSpec

// Len returns the number of parts in the plan.
func (p PartPlan) Len() int {
	return len(p)
}

// TotalSize returns the sum of all part lengths.
func (p PartPlan) TotalSize() int64 {
	var total int64
	for _, part := range p {
		total += part.Length
	}
	return total
}

// SessionState is the lifecycle state of a multipart upload session.
type SessionState int

// Upload session states. Completed and Aborted are terminal.
const (
	SessionInitiated SessionState = iota
	SessionInProgress
	SessionCompleted
	SessionAborted
)

func (s SessionState) String() string {
	switch s {
	case SessionInitiated:
		return "initiated"
	case SessionInProgress:
		return "in_progress"
	case SessionCompleted:
		return "completed"
	case SessionAborted:
		return "aborted"
	default:
		return fmt.Sprintf("SessionState(%d)", int(s))
	}
}

// PartRecord is the backend acknowledgment for one uploaded part.
type PartRecord struct {
	// ETag is the opaque acknowledgment tag, required verbatim at completion
	ETag string

	// Length is the number of bytes in the part
	Length int64
}

// CompletedPart is one entry of the completion manifest.
type CompletedPart struct {
	Index int
	ETag  string
}

// UploadSession is the state of a multipart upload.
type UploadSession struct {
	// Target is the object being uploaded
	Target Target

	// SessionID is the opaque id issued by the backend at initiation
	SessionID string

	// Parts maps part index to its acknowledgment
	Parts map[int]PartRecord

	// State is the current lifecycle state
	State SessionState

	// Size is the total size of the source in bytes
	Size int64

	// Duration is how long the upload took
	Duration time.Duration
}

// CompletedParts returns the completion manifest sorted ascending by index.
func (s *UploadSession) CompletedParts() []CompletedPart {
	parts := make([]CompletedPart, 0, len(s.Parts))
	for index, record := range s.Parts {
		parts = append(parts, CompletedPart{Index: index, ETag: record.ETag})
	}
	sort.Slice(parts, func(i, j int) bool {
		return parts[i].Index < parts[j].Index
	})
	return parts
}

// BytesTransferred returns the sum of acknowledged part lengths.
func (s *UploadSession) BytesTransferred() int64 {
	var total int64
	for _, record := range s.Parts {
		total += record.Length
	}
	return total
}

// DownloadState is the state of a ranged download.
type DownloadState struct {
	// Target is the object being downloaded
	Target Target

	// TotalBytes is the object size reported by the size probe
	TotalBytes int64

	// BytesWritten is the number of bytes accepted by the sink so far
	BytesWritten int64

	// Duration is how long the download took
	Duration time.Duration
}

// ObjectMetadata is passed to the backend when a multipart session is opened.
type ObjectMetadata struct {
	// ContentType is the MIME type of the object
	ContentType string

	// Metadata contains user-defined metadata
	Metadata map[string]string
}

// ProgressEvent is a cumulative progress snapshot.
type ProgressEvent struct {
	BytesTransferred int64
	TotalBytes       int64
}

// ProgressTracker defines the interface for tracking transfer progress.
// Update is called synchronously after each chunk is accepted by the sink
// (download) or each part is acknowledged by the backend (upload).
type ProgressTracker interface {
	// Update is called with cumulative transfer progress
	Update(bytesTransferred, totalBytes int64)

	// Complete is called when the transfer completes successfully
	Complete()

	// Error is called when the transfer fails
	Error(err error)
}

// ProgressFunc adapts a plain callback to the ProgressTracker interface.
type ProgressFunc func(ProgressEvent)

// Update implements ProgressTracker.
func (f ProgressFunc) Update(bytesTransferred, totalBytes int64) {
	f(ProgressEvent{BytesTransferred: bytesTransferred, TotalBytes: totalBytes})
}

// Complete implements ProgressTracker.
func (f ProgressFunc) Complete() {}

// Error implements ProgressTracker.
func (f ProgressFunc) Error(error) {}

// NopProgressTracker discards all progress reports.
type NopProgressTracker struct{}

// Update implements ProgressTracker.
func (NopProgressTracker) Update(int64, int64) {}

// Complete implements ProgressTracker.
func (NopProgressTracker) Complete() {}

// Error implements ProgressTracker.
func (NopProgressTracker) Error(error) {}

// UploadConfig holds the resolved configuration for one multipart upload.
type UploadConfig struct {
	Metadata        ObjectMetadata
	ProgressTracker ProgressTracker
	PartSize        int64
	Concurrency     int
	MaxParts        int
	AbortTimeout    time.Duration
}

// DownloadConfig holds the resolved configuration for one ranged download.
type DownloadConfig struct {
	ProgressTracker ProgressTracker
	PartSize        int64
	ChunkSize       int
}

// Configuration types for functional options

// ClientConfig holds configuration for the transfer client.
type ClientConfig struct {
	PartSize      int64
	Concurrency   int
	ChunkSize     int
	HighWaterMark int
	MaxParts      int
	AbortTimeout  time.Duration
	Logger        *slog.Logger
	Filesystem    billy.Filesystem // Filesystem abstraction for file transfers
}

// UploadOptionConfig holds configuration for upload operations via functional options.
type UploadOptionConfig struct {
	ContentType     string
	Metadata        map[string]string
	ProgressTracker ProgressTracker
	PartSize        int64
	Concurrency     int
}

// DownloadOptionConfig holds configuration for download operations via functional options.
type DownloadOptionConfig struct {
	ProgressTracker ProgressTracker
	PartSize        int64
	ChunkSize       int
}

// Option is a functional option for configuring the transfer client.
type (
	Option func(*ClientConfig)
	// UploadOption is a functional option for configuring upload operations.
	UploadOption func(*UploadOptionConfig)
	// DownloadOption is a functional option for configuring download operations.
	DownloadOption func(*DownloadOptionConfig)
)
