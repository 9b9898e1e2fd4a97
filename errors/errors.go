package errors

import (
	"errors"
	"fmt"
)

// Error represents a transfer failure with context about where it happened.
// It wraps the underlying backend, source or sink error.
type Error struct {
	// Kind is the phase that failed
	Kind Kind

	// Op is the operation that failed (e.g., "upload", "download")
	Op string

	// Bucket is the bucket of the transfer target (if applicable)
	Bucket string

	// Key is the object key of the transfer target (if applicable)
	Key string

	// Index is the 1-based part or range index for indexed kinds, 0 otherwise
	Index int

	// Err is the underlying cause
	Err error
}

// Error implements the error interface by providing a formatted error message.
func (e *Error) Error() string {
	prefix := "transfer." + e.Op
	switch {
	case e.Bucket != "" && e.Key != "":
		prefix = fmt.Sprintf("%s %s/%s", prefix, e.Bucket, e.Key)
	case e.Bucket != "":
		prefix = fmt.Sprintf("%s bucket %s", prefix, e.Bucket)
	case e.Key != "":
		prefix = fmt.Sprintf("%s object %s", prefix, e.Key)
	}

	if e.Index > 0 {
		unit := "part"
		if e.Kind == KindRangeFetchFailed {
			unit = "range"
		}
		prefix = fmt.Sprintf("%s: %s %d", prefix, unit, e.Index)
	}

	if e.Err == nil {
		return fmt.Sprintf("%s: %s", prefix, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", prefix, e.Kind, e.Err)
}

// Unwrap returns the underlying error for error chaining support.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is the sentinel for this error's kind.
func (e *Error) Is(target error) bool {
	sentinel, ok := kindSentinels[e.Kind]
	return ok && target == sentinel
}

// WithTarget adds bucket and key context to an existing error.
func (e *Error) WithTarget(bucket, key string) *Error {
	e.Bucket = bucket
	e.Key = key
	return e
}

// WithIndex records the part or range index that failed.
func (e *Error) WithIndex(index int) *Error {
	e.Index = index
	return e
}

// WithMessage wraps the underlying error with a custom message.
func (e *Error) WithMessage(message string) *Error {
	if e.Err == nil {
		e.Err = errors.New(message)
		return e
	}
	e.Err = fmt.Errorf("%s: %w", message, e.Err)
	return e
}

// New creates a new Error of the given kind for an operation.
func New(kind Kind, op string, err error) *Error {
	return &Error{
		Kind: kind,
		Op:   op,
		Err:  err,
	}
}

// Sentinel errors, one per kind. *Error values match them through errors.Is.
var (
	ErrInitiationFailed = errors.New("transfer: initiation failed")
	ErrPartFailed       = errors.New("transfer: part failed")
	ErrCompletionFailed = errors.New("transfer: completion failed")
	ErrSizeProbeFailed  = errors.New("transfer: size probe failed")
	ErrRangeFetchFailed = errors.New("transfer: range fetch failed")
	ErrSinkWriteFailed  = errors.New("transfer: sink write failed")
	ErrCancelled        = errors.New("transfer: cancelled")

	// ErrNotFound indicates that the object does not exist.
	// Backends wrap it when the store reports absence.
	ErrNotFound = errors.New("transfer: object not found")

	// ErrInvalidInput indicates that the provided input is invalid.
	ErrInvalidInput = errors.New("transfer: invalid input")
)

var kindSentinels = map[Kind]error{
	KindInitiationFailed: ErrInitiationFailed,
	KindPartFailed:       ErrPartFailed,
	KindCompletionFailed: ErrCompletionFailed,
	KindSizeProbeFailed:  ErrSizeProbeFailed,
	KindRangeFetchFailed: ErrRangeFetchFailed,
	KindSinkWriteFailed:  ErrSinkWriteFailed,
	KindCancelled:        ErrCancelled,
	KindNotFound:         ErrNotFound,
	KindInvalidInput:     ErrInvalidInput,
}

// KindOf returns the kind of the outermost *Error in err's chain.
// Bare sentinels map to their kind; anything else is KindUnknown.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	for kind, sentinel := range kindSentinels {
		if errors.Is(err, sentinel) {
			return kind
		}
	}
	return KindUnknown
}

// IndexOf returns the part or range index carried by err, or 0.
func IndexOf(err error) int {
	var e *Error
	if errors.As(err, &e) {
		return e.Index
	}
	return 0
}

// IsNotFound checks if an error indicates that an object was not found.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsCancelled checks if an error indicates the transfer was cancelled.
func IsCancelled(err error) bool {
	return errors.Is(err, ErrCancelled)
}

// IsInvalidInput checks if an error indicates invalid input.
func IsInvalidInput(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}
