package xlsx

import (
	"bytes"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"ratetables/internal/config"
)

// workbook builds an in-memory workbook with one sheet per entry.
func workbook(tb testing.TB, sheets map[string][][]any) *bytes.Buffer {
	tb.Helper()

	f := excelize.NewFile()
	defer f.Close()

	first := true
	for name, rows := range sheets {
		if first {
			require.NoError(tb, f.SetSheetName("Sheet1", name))
			first = false
		} else {
			_, err := f.NewSheet(name)
			require.NoError(tb, err)
		}
		for i, r := range rows {
			cell, err := excelize.CoordinatesToCellName(1, i+1)
			require.NoError(tb, err)
			r := r
			require.NoError(tb, f.SetSheetRow(name, cell, &r))
		}
	}
	buf, err := f.WriteToBuffer()
	require.NoError(tb, err)
	return buf
}

func TestReader_FirstSheet(t *testing.T) {
	t.Parallel()

	buf := workbook(t, map[string][][]any{
		"Bands": {
			{" BandTable", "Band", "MaxFaceUnits "},
			{"STD", "1", "100"},
			{nil, nil, nil},
			{"STD", "2", "250"},
		},
	})

	r, err := NewReader(buf, config.Options{})
	require.NoError(t, err)
	defer r.Close()

	assert.Equal(t, []string{"BandTable", "Band", "MaxFaceUnits"}, r.Header())

	line, cells, err := r.Next()
	require.NoError(t, err)
	assert.Equal(t, 2, line)
	assert.Equal(t, []string{"STD", "1", "100"}, cells)

	line, cells, err = r.Next()
	require.NoError(t, err)
	assert.Equal(t, 4, line)
	assert.Equal(t, []string{"STD", "2", "250"}, cells)

	_, _, err = r.Next()
	assert.True(t, errors.Is(err, io.EOF))
}

func TestReader_NamedSheet(t *testing.T) {
	t.Parallel()

	buf := workbook(t, map[string][][]any{
		"Rates": {{"PlanCode"}, {"ULA20"}},
	})

	r, err := NewReader(buf, config.Options{"sheet": "Rates"})
	require.NoError(t, err)
	defer r.Close()
	_, cells, err := r.Next()
	require.NoError(t, err)
	assert.Equal(t, []string{"ULA20"}, cells)
}

func TestReader_MissingSheet(t *testing.T) {
	t.Parallel()

	buf := workbook(t, map[string][][]any{"Rates": {{"a"}}})
	_, err := NewReader(buf, config.Options{"sheet": "Nope"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `sheet "Nope"`)
}

func TestReader_NotAWorkbook(t *testing.T) {
	t.Parallel()

	_, err := NewReader(bytes.NewReader([]byte("plain\ttext\n")), config.Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "open workbook")
}
