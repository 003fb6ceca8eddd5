package csv

import (
	"bytes"
	"encoding/csv"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ratetables/internal/config"
)

/*
makeCSV builds a delimited document in-memory with the given header and rows.
It uses encoding/csv so quoting and escaping match what real exports produce.
*/
func makeCSV(delim rune, header []string, rows [][]string, useCRLF bool) []byte {
	var b bytes.Buffer
	w := csv.NewWriter(&b)
	w.Comma = delim
	w.UseCRLF = useCRLF
	if header != nil {
		_ = w.Write(header)
	}
	for _, r := range rows {
		_ = w.Write(r)
	}
	w.Flush()
	return b.Bytes()
}

type row struct {
	line  int
	cells []string
}

func drain(t *testing.T, r *Reader) []row {
	t.Helper()
	var out []row
	for {
		line, cells, err := r.Next()
		if errors.Is(err, io.EOF) {
			return out
		}
		require.NoError(t, err)
		out = append(out, row{line: line, cells: append([]string(nil), cells...)})
	}
}

func TestReader_TabDefault(t *testing.T) {
	t.Parallel()

	doc := makeCSV('\t',
		[]string{"\ufeffBandTable", " Band ", "MaxFaceUnits"},
		[][]string{{"STD", "1", "100"}, {"STD", "2", "250"}},
		false)

	r, err := NewReader(bytes.NewReader(doc), config.Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{"BandTable", "Band", "MaxFaceUnits"}, r.Header())

	got := drain(t, r)
	assert.Equal(t, []row{
		{line: 2, cells: []string{"STD", "1", "100"}},
		{line: 3, cells: []string{"STD", "2", "250"}},
	}, got)
}

func TestReader_CommaOptionAndCRLF(t *testing.T) {
	t.Parallel()

	doc := makeCSV(',', []string{"a", "b"}, [][]string{{"x, y", "1"}, {"z", "2"}}, true)
	r, err := NewReader(bytes.NewReader(doc), config.Options{"comma": ","})
	require.NoError(t, err)

	got := drain(t, r)
	require.Len(t, got, 2)
	assert.Equal(t, []string{"x, y", "1"}, got[0].cells)
	assert.Equal(t, 3, got[1].line)
}

func TestReader_LineNumbersSkipBlankAndMultiline(t *testing.T) {
	t.Parallel()

	doc := "h1\th2\n\nv1\t\"multi\nline\"\nv2\tok\n"
	r, err := NewReader(strings.NewReader(doc), config.Options{})
	require.NoError(t, err)

	got := drain(t, r)
	require.Len(t, got, 2)
	assert.Equal(t, 3, got[0].line)
	assert.Equal(t, "multi\nline", got[0].cells[1])
	assert.Equal(t, 5, got[1].line)
}

func TestReader_VariableWidthTolerated(t *testing.T) {
	t.Parallel()

	r, err := NewReader(strings.NewReader("a\tb\tc\n1\t2\n"), config.Options{})
	require.NoError(t, err)
	got := drain(t, r)
	assert.Equal(t, []string{"1", "2"}, got[0].cells)
}

func TestReader_FieldsPerRecordEnforced(t *testing.T) {
	t.Parallel()

	r, err := NewReader(strings.NewReader("a\tb\n1\n"), config.Options{"fields_per_record": float64(2)})
	require.NoError(t, err)
	line, _, err := r.Next()
	require.Error(t, err)
	assert.Equal(t, 2, line)
}

func TestReader_LazyQuotes(t *testing.T) {
	t.Parallel()

	doc := "a\tb\nsay \"hi\"\t1\n"

	r, err := NewReader(strings.NewReader(doc), config.Options{})
	require.NoError(t, err)
	_, _, err = r.Next()
	require.Error(t, err)

	r, err = NewReader(strings.NewReader(doc), config.Options{"lazy_quotes": true})
	require.NoError(t, err)
	_, cells, err := r.Next()
	require.NoError(t, err)
	assert.Equal(t, `say "hi"`, cells[0])
}

func TestReader_EmptyInput(t *testing.T) {
	t.Parallel()

	_, err := NewReader(strings.NewReader(""), config.Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty input")
}

func TestStripHeaderBOM(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []string{"a", "b"}, StripHeaderBOM([]string{"\ufeffa", "b"}))
	assert.Empty(t, StripHeaderBOM(nil))
}
