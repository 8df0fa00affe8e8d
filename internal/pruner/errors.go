package pruner

import (
	"errors"
	"fmt"
	"io/fs"
)

// FilesystemError reports a listing, stat or delete failure during a run.
// The run stops at the first one.
type FilesystemError struct {
	Op   string // "list", "stat" or "remove"
	Path string // Path the operation was applied to
	Err  error  // Underlying error
}

// newFilesystemError builds a FilesystemError, flattening a *fs.PathError
// so the path is not repeated in the message.
func newFilesystemError(op, path string, err error) *FilesystemError {
	var pathErr *fs.PathError
	if errors.As(err, &pathErr) {
		if path == "" {
			path = pathErr.Path
		}
		err = pathErr.Err
	}
	return &FilesystemError{Op: op, Path: path, Err: err}
}

// Error implements the error interface for FilesystemError.
func (e *FilesystemError) Error() string {
	return fmt.Sprintf("failed to %s %s: %v", e.Op, e.Path, e.Err)
}

// Unwrap returns the underlying error for error wrapping support.
func (e *FilesystemError) Unwrap() error {
	return e.Err
}
