// Package xlsx reads source tables from Excel workbooks.
package xlsx

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"ratetables/internal/config"
)

// Reader yields the data rows of one worksheet. Line numbers are worksheet
// row numbers, so the first data row is line 2.
type Reader struct {
	f      *excelize.File
	rows   *excelize.Rows
	header []string
	line   int
}

// NewReader opens the workbook in r and reads the header row of the sheet
// named by the "sheet" option (default: the first sheet).
func NewReader(r io.Reader, opt config.Options) (*Reader, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}

	sheet := opt.String("sheet", "")
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			_ = f.Close()
			return nil, fmt.Errorf("open workbook: no sheets")
		}
		sheet = sheets[0]
	}

	rows, err := f.Rows(sheet)
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("sheet %q: %w", sheet, err)
	}

	x := &Reader{f: f, rows: rows}
	_, hdr, err := x.Next()
	if err != nil {
		_ = x.Close()
		if err == io.EOF {
			return nil, fmt.Errorf("read header: sheet %q is empty", sheet)
		}
		return nil, fmt.Errorf("read header: %w", err)
	}
	for i := range hdr {
		hdr[i] = strings.TrimSpace(hdr[i])
	}
	x.header = hdr
	return x, nil
}

// Header returns the trimmed header names in column order.
func (x *Reader) Header() []string { return x.header }

// Next returns the next non-empty row and its worksheet row number, or
// io.EOF after the last row. Cells are raw values, unformatted.
func (x *Reader) Next() (int, []string, error) {
	for x.rows.Next() {
		x.line++
		cells, err := x.rows.Columns(excelize.Options{RawCellValue: true})
		if err != nil {
			return x.line, nil, err
		}
		if blank(cells) {
			continue
		}
		return x.line, cells, nil
	}
	if err := x.rows.Error(); err != nil {
		return x.line, nil, err
	}
	return 0, nil, io.EOF
}

// Close releases the workbook.
func (x *Reader) Close() error {
	err := x.rows.Close()
	if cerr := x.f.Close(); err == nil {
		err = cerr
	}
	return err
}

func blank(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
