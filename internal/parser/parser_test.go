package parser

import (
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ratetables/internal/config"
)

func TestKind(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "csv", Kind("", "BandTable.txt"))
	assert.Equal(t, "xlsx", Kind("", "tables/Band.XLSX"))
	assert.Equal(t, "csv", Kind("csv", "Band.xlsx"))
}

func TestOpen_CSV(t *testing.T) {
	t.Parallel()

	r, err := Open("csv", strings.NewReader("A\tB\n1\t2\n"), config.Options{})
	require.NoError(t, err)
	defer r.Close()

	assert.Equal(t, []string{"A", "B"}, r.Header())
	line, cells, err := r.Next()
	require.NoError(t, err)
	assert.Equal(t, 2, line)
	assert.Equal(t, []string{"1", "2"}, cells)
	_, _, err = r.Next()
	assert.True(t, errors.Is(err, io.EOF))
}

func TestOpen_UnknownKind(t *testing.T) {
	t.Parallel()

	_, err := Open("xml", strings.NewReader(""), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown parser kind "xml"`)
}
