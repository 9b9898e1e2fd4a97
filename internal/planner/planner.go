package planner

import (
	"fmt"

	"github.com/input-output-hk/catalyst-forge-libs/transfer/errors"
	"github.com/input-output-hk/catalyst-forge-libs/transfer/xfertypes"
)

const (
	// DefaultPartSize is the part size used when none is configured (8MB)
	DefaultPartSize = 8 * 1024 * 1024

	// MaxS3Parts is the largest part count S3-compatible stores accept.
	MaxS3Parts = 10000
)

// Plan partitions totalSize bytes into parts of partSize bytes.
// Part i (1-based) spans [(i-1)*partSize, min(i*partSize, totalSize)-1]; only
// the last part may be shorter than partSize and no part is ever empty.
// A zero-byte object yields an empty plan.
func Plan(totalSize, partSize int64) (xfertypes.PartPlan, error) {
	if partSize < 1 {
		return nil, errors.New(errors.KindInvalidInput, "plan", errors.ErrInvalidInput).
			WithMessage(fmt.Sprintf("part size must be at least 1, got %d", partSize))
	}
	if totalSize < 0 {
		return nil, errors.New(errors.KindInvalidInput, "plan", errors.ErrInvalidInput).
			WithMessage(fmt.Sprintf("total size cannot be negative, got %d", totalSize))
	}

	count := PartCount(totalSize, partSize)
	plan := make(xfertypes.PartPlan, 0, count)
	for i := int64(0); i < count; i++ {
		offset := i * partSize
		length := min(partSize, totalSize-offset)
		plan = append(plan, xfertypes.PartSpec{
			Index:  int(i) + 1,
			Offset: offset,
			Length: length,
		})
	}
	return plan, nil
}

// PartCount returns ceil(totalSize / partSize).
func PartCount(totalSize, partSize int64) int64 {
	if totalSize <= 0 || partSize <= 0 {
		return 0
	}
	return (totalSize + partSize - 1) / partSize // Ceiling division
}

// FitPartSize doubles partSize until totalSize fits in at most maxParts parts.
// A non-positive maxParts disables the limit.
func FitPartSize(totalSize, partSize int64, maxParts int) int64 {
	if maxParts <= 0 || partSize <= 0 {
		return partSize
	}
	for PartCount(totalSize, partSize) > int64(maxParts) {
		partSize *= 2
	}
	return partSize
}
