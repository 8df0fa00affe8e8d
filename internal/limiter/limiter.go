// Package limiter implements retention policies that mark excess files for
// pruning.
//
// Limiters receive the orchestrator's record slice already sorted
// ascending by sort key, so the records that sort last are the most recent
// and are the ones kept. A limiter never removes records from the slice; it
// only appends its reason to records that exceed its threshold.
package limiter

import (
	"errors"

	"github.com/harrison/prunefiles/internal/models"
)

// ErrInvalidLimit is returned when a limiter is constructed with an
// out-of-range threshold.
var ErrInvalidLimit = errors.New("invalid limit")

// Limiter is a retention policy.
type Limiter interface {
	// Name identifies the limiter in logs (e.g. "keep-count").
	Name() string

	// Apply appends the limiter's reason to every record it prunes.
	Apply(records []*models.FileRecord) error
}
