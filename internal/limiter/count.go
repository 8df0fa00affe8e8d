package limiter

import (
	"fmt"

	"github.com/harrison/prunefiles/internal/models"
)

// CountLimiter keeps the last MaxCount records and prunes every earlier one.
type CountLimiter struct {
	maxCount int
	reason   string
}

// NewCountLimiter creates a count limiter. maxCount must be positive.
// An empty reason defaults to "keep-count <= N".
func NewCountLimiter(maxCount int, reason string) (*CountLimiter, error) {
	if maxCount <= 0 {
		return nil, fmt.Errorf("%w: keep-count must be > 0, got %d", ErrInvalidLimit, maxCount)
	}
	if reason == "" {
		reason = fmt.Sprintf("keep-count <= %d", maxCount)
	}
	return &CountLimiter{maxCount: maxCount, reason: reason}, nil
}

// Name implements Limiter.
func (l *CountLimiter) Name() string {
	return "keep-count"
}

// MaxCount returns the number of records kept.
func (l *CountLimiter) MaxCount() int {
	return l.maxCount
}

// Reason returns the text appended to pruned records.
func (l *CountLimiter) Reason() string {
	return l.reason
}

// Apply implements Limiter.
func (l *CountLimiter) Apply(records []*models.FileRecord) error {
	cut := len(records) - l.maxCount
	for i := 0; i < cut; i++ {
		records[i].AddPruneReason(l.reason)
	}
	return nil
}
