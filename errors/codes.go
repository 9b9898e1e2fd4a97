// Package errors provides the error taxonomy for chunked object transfers.
// It extends Go's standard error handling with transfer-specific kinds, the
// target and part index that failed, and the underlying cause.
package errors

// Kind identifies the phase of a transfer that failed.
// Kinds are string-based for debuggability and natural log output.
type Kind string

const (
	// Upload kinds.

	// KindInitiationFailed indicates the backend refused to open a multipart session.
	KindInitiationFailed Kind = "INITIATION_FAILED"

	// KindPartFailed indicates a part could not be read or submitted.
	KindPartFailed Kind = "PART_FAILED"

	// KindCompletionFailed indicates the completion call failed after all parts were acknowledged.
	KindCompletionFailed Kind = "COMPLETION_FAILED"

	// Download kinds.

	// KindSizeProbeFailed indicates the object size could not be determined.
	KindSizeProbeFailed Kind = "SIZE_PROBE_FAILED"

	// KindRangeFetchFailed indicates a ranged fetch failed or returned a short body.
	KindRangeFetchFailed Kind = "RANGE_FETCH_FAILED"

	// KindSinkWriteFailed indicates the sink rejected a write or failed to close.
	KindSinkWriteFailed Kind = "SINK_WRITE_FAILED"

	// Shared kinds.

	// KindCancelled indicates the caller cancelled the transfer.
	KindCancelled Kind = "CANCELLED"

	// KindNotFound indicates the object does not exist.
	KindNotFound Kind = "NOT_FOUND"

	// KindInvalidInput indicates the transfer arguments were rejected before any backend call.
	KindInvalidInput Kind = "INVALID_INPUT"

	// KindUnknown is reported by KindOf for errors outside this taxonomy.
	KindUnknown Kind = "UNKNOWN"
)

// String returns the kind as a lower-case phrase suitable for error messages.
func (k Kind) String() string {
	switch k {
	case KindInitiationFailed:
		return "initiation failed"
	case KindPartFailed:
		return "part failed"
	case KindCompletionFailed:
		return "completion failed"
	case KindSizeProbeFailed:
		return "size probe failed"
	case KindRangeFetchFailed:
		return "range fetch failed"
	case KindSinkWriteFailed:
		return "sink write failed"
	case KindCancelled:
		return "cancelled"
	case KindNotFound:
		return "not found"
	case KindInvalidInput:
		return "invalid input"
	default:
		return "unknown error"
	}
}

// Indexed reports whether errors of this kind carry a part or range index.
func (k Kind) Indexed() bool {
	return k == KindPartFailed || k == KindRangeFetchFailed
}
