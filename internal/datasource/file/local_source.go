// Package file implements a local filesystem-backed data source.
package file

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Local is a filesystem data source that opens files from the local disk.
type Local struct{ path string }

// NewLocal returns a new Local data source bound to the provided filesystem
// path. The returned value is safe for concurrent use.
func NewLocal(path string) *Local { return &Local{path: path} }

// Path returns the bound filesystem path.
func (l *Local) Path() string { return l.path }

// Name returns the base name of the file, used to locate errors.
func (l *Local) Name() string { return filepath.Base(l.path) }

// Open opens the configured path for reading.
//
// Behavior:
//   - If the context is already done, Open returns the context error without
//     touching the filesystem.
//   - The file is hinted for sequential read-ahead where the OS supports it;
//     a failed hint is ignored.
//   - Filesystem errors are wrapped with the path and still match
//     errors.Is(err, os.ErrNotExist).
func (l *Local) Open(ctx context.Context) (io.ReadCloser, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}
	f, err := os.Open(l.path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", l.path, err)
	}
	adviseSequential(f)
	return f, nil
}
