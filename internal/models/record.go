package models

import (
	"path/filepath"
	"strings"
	"sync"

	"github.com/harrison/prunefiles/internal/matcher"
	"github.com/spf13/afero"
)

// FileRecord is the per-file state threaded through a prune run.
//
// Path and Name are fixed at construction. OrderBy defaults to the file
// stem and may be replaced by a captured pattern field before sorting.
// PruneReasons is append-only; a record with any reason is removed and
// the first reason is the one reported.
type FileRecord struct {
	Path         string        // Full path of the file
	Name         string        // Base name
	OrderBy      matcher.Value // Sort key
	IsMatch      bool          // False when a pattern is configured and rejected the name
	PruneReasons []string      // Reasons appended by limiters, in application order

	fs       afero.Fs
	sizeOnce sync.Once
	size     int64
	sizeErr  error
}

// NewFileRecord creates a record for path. The size is not read until
// Size is first called.
func NewFileRecord(fs afero.Fs, path string) *FileRecord {
	name := filepath.Base(path)
	return &FileRecord{
		Path:    path,
		Name:    name,
		OrderBy: matcher.StringValue(Stem(name)),
		IsMatch: true,
		fs:      fs,
	}
}

// Size returns the file size in bytes. The first call stats the file;
// later calls return the cached result even if the file changed on disk.
func (r *FileRecord) Size() (int64, error) {
	r.sizeOnce.Do(func() {
		info, err := r.fs.Stat(r.Path)
		if err != nil {
			r.sizeErr = err
			return
		}
		r.size = info.Size()
	})
	return r.size, r.sizeErr
}

// AddPruneReason marks the record for removal.
func (r *FileRecord) AddPruneReason(reason string) {
	r.PruneReasons = append(r.PruneReasons, reason)
}

// Pruned reports whether any limiter marked the record.
func (r *FileRecord) Pruned() bool {
	return len(r.PruneReasons) > 0
}

// PrimaryReason returns the first recorded prune reason, or "" if none.
func (r *FileRecord) PrimaryReason() string {
	if len(r.PruneReasons) == 0 {
		return ""
	}
	return r.PruneReasons[0]
}

// String returns the record path.
func (r *FileRecord) String() string {
	return r.Path
}

// Stem returns name without its final extension. Dot files without a
// further extension (".env") and names ending in a bare dot ("backup.")
// are returned unchanged.
func Stem(name string) string {
	ext := filepath.Ext(name)
	if ext == name || ext == "." {
		return name
	}
	return strings.TrimSuffix(name, ext)
}
