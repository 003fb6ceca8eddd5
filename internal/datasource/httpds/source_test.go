package httpds

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRemote_OpenAndName(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "BandTable\tBand\tMaxFaceUnits\n")
	}))
	defer srv.Close()

	r := NewRemote(fastClient(0), srv.URL+"/exports/BandTable.txt?v=2")
	assert.Equal(t, "BandTable.txt", r.Name())

	rc, err := r.Open(context.Background())
	require.NoError(t, err)
	defer rc.Close()
	body, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "BandTable\tBand\tMaxFaceUnits\n", string(body))
}

func TestRemote_NameFallsBackToURL(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "http://host", NewRemote(nil, "http://host").Name())
}
