// Package validation checks transfer arguments before any backend call is made.
//
// A transfer that fails validation never opens a session, so nothing needs
// to be aborted.
package validation

import (
	"fmt"
	"net"
	"strings"
	"unicode"

	"github.com/input-output-hk/catalyst-forge-libs/transfer/errors"
	"github.com/input-output-hk/catalyst-forge-libs/transfer/xfertypes"
)

const (
	// MaxKeyLength is the longest object key accepted by S3-compatible stores.
	MaxKeyLength = 1024

	// MaxMetadataKeyLength bounds a single user metadata key.
	MaxMetadataKeyLength = 128

	// MaxMetadataValueLength bounds a single user metadata value.
	MaxMetadataValueLength = 2048
)

// ValidateTarget checks the bucket name and object key of a transfer target.
func ValidateTarget(op string, target xfertypes.Target) error {
	if reason := bucketProblem(target.Bucket); reason != "" {
		return invalid(op, reason).WithTarget(target.Bucket, target.Key)
	}
	if reason := keyProblem(target.Key); reason != "" {
		return invalid(op, reason).WithTarget(target.Bucket, target.Key)
	}
	return nil
}

// ValidatePartSize rejects part sizes the planner cannot use.
func ValidatePartSize(op string, partSize int64) error {
	if partSize < 1 {
		return invalid(op, fmt.Sprintf("part size must be positive, got %d", partSize))
	}
	return nil
}

// ValidateConcurrency rejects non-positive part concurrency.
func ValidateConcurrency(op string, concurrency int) error {
	if concurrency < 1 {
		return invalid(op, fmt.Sprintf("concurrency must be at least 1, got %d", concurrency))
	}
	return nil
}

// ValidateMetadata checks user metadata keys and values.
func ValidateMetadata(op string, metadata map[string]string) error {
	for key, value := range metadata {
		if reason := metadataKeyProblem(key); reason != "" {
			return invalid(op, reason)
		}
		if len(value) > MaxMetadataValueLength {
			return invalid(op, fmt.Sprintf("metadata value for %q exceeds %d bytes", key, MaxMetadataValueLength))
		}
		for _, r := range value {
			if !unicode.IsPrint(r) && r != '\t' {
				return invalid(op, fmt.Sprintf("metadata value for %q contains non-printable characters", key))
			}
		}
	}
	return nil
}

func invalid(op, reason string) *errors.Error {
	return errors.New(errors.KindInvalidInput, op, errors.ErrInvalidInput).WithMessage(reason)
}

// bucketProblem applies the DNS-compatible bucket naming rules.
func bucketProblem(bucket string) string {
	switch {
	case bucket == "":
		return "bucket name cannot be empty"
	case len(bucket) < 3 || len(bucket) > 63:
		return "bucket name must be between 3 and 63 characters long"
	}

	for i, r := range bucket {
		if !(r >= 'a' && r <= 'z') && !(r >= '0' && r <= '9') && r != '.' && r != '-' {
			return "bucket name can only contain lowercase letters, numbers, dots, and hyphens"
		}
		if i > 0 && (r == '.' || r == '-') && rune(bucket[i-1]) == r {
			return "bucket name cannot contain two adjacent periods or hyphens"
		}
	}

	first, last := bucket[0], bucket[len(bucket)-1]
	if first == '.' || first == '-' || last == '.' || last == '-' {
		return "bucket name cannot start or end with a hyphen or dot"
	}
	if net.ParseIP(bucket) != nil {
		return "bucket name cannot be formatted as an IP address"
	}
	if bucket == "localhost" {
		return "bucket name cannot be a reserved word"
	}
	return ""
}

// keyProblem rejects empty keys, over-long keys, control characters and
// keys that escape the bucket root when treated as paths.
func keyProblem(key string) string {
	switch {
	case key == "":
		return "object key cannot be empty"
	case len(key) > MaxKeyLength:
		return fmt.Sprintf("object key cannot exceed %d bytes", MaxKeyLength)
	}

	for _, r := range key {
		if unicode.IsControl(r) {
			return "object key cannot contain control characters"
		}
	}

	if strings.HasPrefix(key, "/") || hasDriveLetter(key) {
		return "object key cannot be an absolute path"
	}
	for _, segment := range strings.FieldsFunc(key, isPathSeparator) {
		if segment == ".." {
			return "object key cannot contain path traversal sequences"
		}
	}
	return ""
}

func isPathSeparator(r rune) bool {
	return r == '/' || r == '\\'
}

func hasDriveLetter(key string) bool {
	return len(key) >= 3 && key[1] == ':' && (key[2] == '\\' || key[2] == '/')
}

func metadataKeyProblem(key string) string {
	if key == "" {
		return "metadata key cannot be empty"
	}
	if len(key) > MaxMetadataKeyLength {
		return fmt.Sprintf("metadata key cannot exceed %d characters", MaxMetadataKeyLength)
	}
	lower := strings.ToLower(key)
	for _, prefix := range []string{"aws:", "x-amz-", "x-amz:"} {
		if strings.HasPrefix(lower, prefix) {
			return fmt.Sprintf("metadata key cannot start with reserved prefix: %s", prefix)
		}
	}
	for _, r := range key {
		if r <= ' ' || r > '~' {
			return "metadata key can only contain printable ASCII characters without spaces"
		}
	}
	return ""
}
