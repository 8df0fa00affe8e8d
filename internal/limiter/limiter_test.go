package limiter

import (
	"fmt"
	"testing"

	"github.com/harrison/prunefiles/internal/models"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newRecords writes one file per size under /data and returns the records
// in the given order.
func newRecords(t *testing.T, sizes ...int) []*models.FileRecord {
	t.Helper()
	fs := afero.NewMemMapFs()
	records := make([]*models.FileRecord, 0, len(sizes))
	for i, size := range sizes {
		path := fmt.Sprintf("/data/a_%d.log", i+1)
		require.NoError(t, afero.WriteFile(fs, path, make([]byte, size), 0644))
		records = append(records, models.NewFileRecord(fs, path))
	}
	return records
}

func prunedNames(records []*models.FileRecord) []string {
	names := []string{}
	for _, r := range records {
		if r.Pruned() {
			names = append(names, r.Name)
		}
	}
	return names
}

func TestNewCountLimiterValidation(t *testing.T) {
	for _, n := range []int{0, -1} {
		_, err := NewCountLimiter(n, "")
		assert.ErrorIs(t, err, ErrInvalidLimit)
	}

	l, err := NewCountLimiter(2, "")
	require.NoError(t, err)
	assert.Equal(t, "keep-count <= 2", l.Reason())
	assert.Equal(t, "keep-count", l.Name())
	assert.Equal(t, 2, l.MaxCount())
}

func TestCountLimiterApply(t *testing.T) {
	tests := []struct {
		name     string
		count    int
		files    int
		expected []string
	}{
		{"prunes oldest", 2, 3, []string{"a_1.log"}},
		{"keeps exactly N", 3, 3, []string{}},
		{"count above file count", 10, 3, []string{}},
		{"keeps one", 1, 4, []string{"a_1.log", "a_2.log", "a_3.log"}},
		{"empty list", 1, 0, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sizes := make([]int, tt.files)
			records := newRecords(t, sizes...)

			l, err := NewCountLimiter(tt.count, "")
			require.NoError(t, err)
			require.NoError(t, l.Apply(records))

			assert.Equal(t, tt.expected, prunedNames(records))
		})
	}
}

func TestNewSizeLimiterValidation(t *testing.T) {
	_, err := NewSizeLimiter(-1, "")
	assert.ErrorIs(t, err, ErrInvalidLimit)

	l, err := NewSizeLimiter(0, "")
	require.NoError(t, err)
	assert.Equal(t, int64(0), l.MaxBytes())
	assert.Equal(t, "keep-size", l.Name())

	l, err = NewSizeLimiter(150, "keep-size <= 150B")
	require.NoError(t, err)
	assert.Equal(t, "keep-size <= 150B", l.Reason())
}

func TestSizeLimiterApply(t *testing.T) {
	tests := []struct {
		name     string
		budget   int64
		sizes    []int
		expected []string
	}{
		{"walks from the end", 150, []int{100, 100, 100}, []string{"a_1.log", "a_2.log"}},
		{"boundary is kept", 200, []int{100, 100, 100}, []string{"a_1.log"}},
		{"everything fits", 1000, []int{100, 100, 100}, []string{}},
		{"newest alone too big", 50, []int{10, 10, 100}, []string{"a_1.log", "a_2.log", "a_3.log"}},
		{"zero budget keeps empty files", 0, []int{0, 0, 1, 0}, []string{"a_1.log", "a_2.log", "a_3.log"}},
		{"small old files still pruned once exceeded", 150, []int{1, 100, 100}, []string{"a_1.log", "a_2.log"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records := newRecords(t, tt.sizes...)

			l, err := NewSizeLimiter(tt.budget, "")
			require.NoError(t, err)
			require.NoError(t, l.Apply(records))

			assert.Equal(t, tt.expected, prunedNames(records))
		})
	}
}

func TestSizeLimiterStatError(t *testing.T) {
	fs := afero.NewMemMapFs()
	records := []*models.FileRecord{models.NewFileRecord(fs, "/data/gone.log")}

	l, err := NewSizeLimiter(10, "")
	require.NoError(t, err)

	err = l.Apply(records)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "gone.log")
	assert.False(t, records[0].Pruned())
}

func TestLimitersAccumulateReasons(t *testing.T) {
	records := newRecords(t, 100, 100, 100)

	count, err := NewCountLimiter(2, "")
	require.NoError(t, err)
	size, err := NewSizeLimiter(150, "keep-size <= 150B")
	require.NoError(t, err)

	for _, l := range []Limiter{count, size} {
		require.NoError(t, l.Apply(records))
	}

	assert.Equal(t, []string{"keep-count <= 2", "keep-size <= 150B"}, records[0].PruneReasons)
	assert.Equal(t, "keep-count <= 2", records[0].PrimaryReason())
	assert.Equal(t, []string{"keep-size <= 150B"}, records[1].PruneReasons)
	assert.False(t, records[2].Pruned())
}
