// Package parser opens source tables as header-indexed row streams,
// independent of the file format.
package parser

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"ratetables/internal/config"
	"ratetables/internal/parser/csv"
	"ratetables/internal/parser/xlsx"
)

// RowReader yields the data rows of one source table.
type RowReader interface {
	// Header returns the column names in source order.
	Header() []string
	// Next returns the next data row and its source line, or io.EOF.
	Next() (line int, cells []string, err error)
	Close() error
}

// Kind returns the reader kind for a file: the configured kind when set,
// otherwise "xlsx" for .xlsx/.xlsm files and "csv" for everything else.
func Kind(configured, path string) string {
	if configured != "" {
		return configured
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		return "xlsx"
	}
	return "csv"
}

// Open returns a RowReader of the given kind over r.
func Open(kind string, r io.Reader, opt config.Options) (RowReader, error) {
	switch kind {
	case "csv":
		cr, err := csv.NewReader(r, opt)
		if err != nil {
			return nil, err
		}
		return nopCloser{cr}, nil
	case "xlsx":
		return xlsx.NewReader(r, opt)
	}
	return nil, fmt.Errorf("unknown parser kind %q", kind)
}

type nopCloser struct{ *csv.Reader }

func (nopCloser) Close() error { return nil }
