// Package datasource abstracts where source table bytes come from.
package datasource

import (
	"context"
	"io"
)

// Source opens a readable stream for one source table. Name identifies the
// source in error messages and logs.
type Source interface {
	Open(ctx context.Context) (io.ReadCloser, error)
	Name() string
}
