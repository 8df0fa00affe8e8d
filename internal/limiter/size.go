package limiter

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/harrison/prunefiles/internal/models"
)

// SizeLimiter keeps the longest run of trailing records whose cumulative
// size stays within MaxBytes. The first record (walking backwards) that
// pushes the total over the budget is pruned together with every record
// before it. A total exactly equal to MaxBytes is kept.
type SizeLimiter struct {
	maxBytes int64
	reason   string
}

// NewSizeLimiter creates a size limiter. maxBytes must not be negative.
// An empty reason defaults to "keep-size <= <humanized bytes>".
func NewSizeLimiter(maxBytes int64, reason string) (*SizeLimiter, error) {
	if maxBytes < 0 {
		return nil, fmt.Errorf("%w: keep-size must be >= 0, got %d", ErrInvalidLimit, maxBytes)
	}
	if reason == "" {
		reason = fmt.Sprintf("keep-size <= %s", humanize.Bytes(uint64(maxBytes)))
	}
	return &SizeLimiter{maxBytes: maxBytes, reason: reason}, nil
}

// Name implements Limiter.
func (l *SizeLimiter) Name() string {
	return "keep-size"
}

// MaxBytes returns the size budget.
func (l *SizeLimiter) MaxBytes() int64 {
	return l.maxBytes
}

// Reason returns the text appended to pruned records.
func (l *SizeLimiter) Reason() string {
	return l.reason
}

// Apply implements Limiter. Sizes are read only until the budget is
// exceeded; a stat failure aborts with the record's error.
func (l *SizeLimiter) Apply(records []*models.FileRecord) error {
	var total int64
	exceeded := false
	for i := len(records) - 1; i >= 0; i-- {
		r := records[i]
		if !exceeded {
			size, err := r.Size()
			if err != nil {
				return err
			}
			total += size
			exceeded = total > l.maxBytes
		}
		if exceeded {
			r.AddPruneReason(l.reason)
		}
	}
	return nil
}
