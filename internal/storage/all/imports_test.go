package all

import (
	"testing"

	"ratetables/internal/storage"
)

func TestAllBackendsRegistered(t *testing.T) {
	t.Parallel()

	have := map[string]bool{}
	for _, k := range storage.ListKinds() {
		have[k] = true
	}
	for _, want := range []string{"sqlite", "postgres", "mssql"} {
		if !have[want] {
			t.Errorf("storage kind %q not registered; have %v", want, storage.ListKinds())
		}
	}
}
