// Package csv reads delimited text source tables row by row.
//
// The first record is the header. Header cells are trimmed and a UTF-8 BOM on
// the first cell is dropped, so lookups by column name work on files exported
// from spreadsheets. Data cells are returned verbatim; cleaning them is the
// converters' job.
package csv

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"ratetables/internal/config"
)

// Reader yields the data rows of one delimited file.
type Reader struct {
	cr     *csv.Reader
	header []string
}

// NewReader reads the header from r and returns a Reader positioned at the
// first data row.
//
// Options (all optional):
//   - comma (string; first rune used; default tab)
//   - lazy_quotes (bool; default false) → csv.Reader.LazyQuotes
//   - fields_per_record (int; 0=variable, >0=enforce)
func NewReader(r io.Reader, opt config.Options) (*Reader, error) {
	cr := csv.NewReader(r)
	cr.Comma = opt.Rune("comma", '\t')
	cr.LazyQuotes = opt.Bool("lazy_quotes", false)
	cr.FieldsPerRecord = -1 // tolerant by default
	if n := opt.Int("fields_per_record", 0); n > 0 {
		cr.FieldsPerRecord = n
	}

	hdr, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("read header: empty input")
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	header := make([]string, len(hdr))
	copy(header, hdr)
	StripHeaderBOM(header)
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	return &Reader{cr: cr, header: header}, nil
}

// Header returns the trimmed header names in file order.
func (r *Reader) Header() []string { return r.header }

// Next returns the next data row and the source line it starts on. It returns
// io.EOF after the last row. Empty lines are skipped.
func (r *Reader) Next() (int, []string, error) {
	rec, err := r.cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return 0, nil, io.EOF
		}
		var pe *csv.ParseError
		if errors.As(err, &pe) {
			return pe.StartLine, nil, err
		}
		return 0, nil, err
	}
	line, _ := r.cr.FieldPos(0)
	return line, rec, nil
}
