// Package tableload reads one source table into converted, filtered and
// renamed records.
//
// A Spec declares which source columns are used, how each is converted and
// what it is called downstream. Loading is all-or-nothing: the first token
// that fails conversion aborts the table with a *ratetable.FieldError naming
// the file, line and source column.
package tableload

import (
	"context"
	"errors"
	"fmt"
	"io"

	"ratetables/internal/config"
	"ratetables/internal/convert"
	"ratetables/internal/datasource"
	"ratetables/internal/parser"
	"ratetables/internal/ratetable"
)

// ErrMissingColumn is returned when a declared source column is absent from
// the header.
var ErrMissingColumn = errors.New("missing column")

// Column declares one source column.
type Column struct {
	Source  string       // header name in the source file
	Name    string       // name in the loaded record; defaults to Source
	Convert convert.Func // token converter
}

func (c Column) name() string {
	if c.Name != "" {
		return c.Name
	}
	return c.Source
}

// Filter keeps only rows whose converted Column value is in Allowed.
type Filter struct {
	Column  string // source column name; must be declared in Spec.Columns
	Allowed []any
}

// Spec describes how to load one source table.
type Spec struct {
	Name    string
	Columns []Column
	Filter  *Filter
}

// Validate checks that the spec is internally consistent.
func (s Spec) Validate() error {
	seen := make(map[string]bool, len(s.Columns))
	for _, c := range s.Columns {
		if c.Source == "" || c.Convert == nil {
			return fmt.Errorf("table %s: column %q needs a source name and a converter", s.Name, c.Source)
		}
		if seen[c.name()] {
			return fmt.Errorf("table %s: duplicate output column %q", s.Name, c.name())
		}
		seen[c.name()] = true
	}
	if s.Filter != nil && s.column(s.Filter.Column) < 0 {
		return fmt.Errorf("table %s: filter column %q is not declared", s.Name, s.Filter.Column)
	}
	return nil
}

func (s Spec) column(source string) int {
	for i, c := range s.Columns {
		if c.Source == source {
			return i
		}
	}
	return -1
}

// Table is a loaded source table. Records keep source order.
type Table struct {
	Name    string
	File    string
	Read    int // data rows read, before filtering
	Records []Record
}

// Options controls how a source is parsed.
type Options struct {
	Kind   string // "csv" or "xlsx"; empty picks by file extension
	Parser config.Options
}

// Load reads src according to spec.
func Load(ctx context.Context, src datasource.Source, spec Spec, opt Options) (*Table, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}

	rc, err := src.Open(ctx)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	file := src.Name()
	rr, err := parser.Open(parser.Kind(opt.Kind, file), rc, opt.Parser)
	if err != nil {
		return nil, &ratetable.FieldError{File: file, Line: 1, Err: err}
	}
	defer rr.Close()

	index := make(map[string]int, len(rr.Header()))
	for i, h := range rr.Header() {
		if _, dup := index[h]; !dup {
			index[h] = i
		}
	}
	cols := make([]int, len(spec.Columns))
	for i, c := range spec.Columns {
		ix, ok := index[c.Source]
		if !ok {
			return nil, &ratetable.FieldError{File: file, Line: 1, Column: c.Source, Err: ErrMissingColumn}
		}
		cols[i] = ix
	}

	filterAt := -1
	var allowed map[any]struct{}
	if spec.Filter != nil {
		filterAt = spec.column(spec.Filter.Column)
		allowed = make(map[any]struct{}, len(spec.Filter.Allowed))
		for _, v := range spec.Filter.Allowed {
			allowed[v] = struct{}{}
		}
	}

	t := &Table{Name: spec.Name, File: file}
	for n := 0; ; n++ {
		if n%4096 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		line, cells, err := rr.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, &ratetable.FieldError{File: file, Line: line, Err: err}
		}
		t.Read++

		values := make([]any, len(spec.Columns))
		for i, c := range spec.Columns {
			raw := ""
			if cols[i] < len(cells) {
				raw = cells[cols[i]]
			}
			v, err := c.Convert(raw)
			if err != nil {
				return nil, &ratetable.FieldError{File: file, Line: line, Column: c.Source, Err: err}
			}
			values[i] = v
		}

		if filterAt >= 0 {
			if _, ok := allowed[values[filterAt]]; !ok {
				continue
			}
		}

		named := make(map[string]any, len(values))
		for i, c := range spec.Columns {
			named[c.name()] = values[i]
		}
		t.Records = append(t.Records, newRecord(line, named))
	}
	return t, nil
}
