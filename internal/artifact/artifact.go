// Package artifact persists the typed tables of a transform run as
// self-describing JSON documents, one per table, and reads them back for the
// load stage.
//
// Each document is
//
//	{"format":"ratetables.artifact","version":"1.0.0","table":"premium_band",
//	 "run_id":"…","created_at":"…","columns":[…],"count":N,"checksum":"…",
//	 "records":[…]}
//
// where checksum is the xxh3-64 hash (hex) of the compact JSON encoding of
// records. Readers accept any 1.x version, verify count and checksum, check
// the records against a JSON Schema derived from the table definition, and
// refuse a set whose documents come from different runs.
package artifact

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/google/uuid"
	"github.com/zeebo/xxh3"
)

const (
	// FormatName identifies artifact documents.
	FormatName = "ratetables.artifact"
	// Version is the document version written by this package.
	Version = "1.0.0"
)

// accepted is the range of document versions this package can read.
var accepted = mustConstraint("^1.0.0")

func mustConstraint(c string) *semver.Constraints {
	cs, err := semver.NewConstraint(c)
	if err != nil {
		panic(err)
	}
	return cs
}

var (
	ErrFormat   = errors.New("not a rate-table artifact")
	ErrVersion  = errors.New("unsupported artifact version")
	ErrChecksum = errors.New("artifact checksum mismatch")
	ErrCount    = errors.New("artifact record count mismatch")
	ErrMixedRun = errors.New("artifacts come from different runs")
)

// Header describes one artifact document.
type Header struct {
	Format    string    `json:"format"`
	Version   string    `json:"version"`
	Table     string    `json:"table"`
	RunID     uuid.UUID `json:"run_id"`
	CreatedAt time.Time `json:"created_at"`
	Columns   []string  `json:"columns"`
	Count     int       `json:"count"`
	Checksum  string    `json:"checksum"`
}

type document struct {
	Header
	Records json.RawMessage `json:"records"`
}

// Path returns the artifact path of table inside dir.
func Path(dir, table string) string { return filepath.Join(dir, table+".json") }

// Checksum returns the hex xxh3-64 hash of a compact JSON payload.
func Checksum(payload []byte) string {
	return fmt.Sprintf("%016x", xxh3.Hash(payload))
}

// columnar is implemented by every table entity.
type columnar interface{ Columns() []string }

// WriteTable writes rows as the artifact for table, replacing any previous
// file atomically.
func WriteTable[T columnar](dir, table string, runID uuid.UUID, createdAt time.Time, rows []T) (Header, error) {
	if rows == nil {
		rows = []T{}
	}
	payload, err := json.Marshal(rows)
	if err != nil {
		return Header{}, fmt.Errorf("encode %s: %w", table, err)
	}

	var zero T
	h := Header{
		Format:    FormatName,
		Version:   Version,
		Table:     table,
		RunID:     runID,
		CreatedAt: createdAt.UTC(),
		Columns:   zero.Columns(),
		Count:     len(rows),
		Checksum:  Checksum(payload),
	}
	doc, err := json.Marshal(document{Header: h, Records: payload})
	if err != nil {
		return Header{}, fmt.Errorf("encode %s: %w", table, err)
	}

	if err := writeFileAtomic(Path(dir, table), append(doc, '\n')); err != nil {
		return Header{}, err
	}
	return h, nil
}

// ReadTable reads and verifies the artifact for table.
func ReadTable[T any](dir, table string) (Header, []T, error) {
	path := Path(dir, table)
	raw, err := os.ReadFile(path)
	if err != nil {
		return Header{}, nil, fmt.Errorf("read artifact: %w", err)
	}

	var doc document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return Header{}, nil, fmt.Errorf("%s: %w: %v", path, ErrFormat, err)
	}
	h := doc.Header
	if h.Format != FormatName {
		return h, nil, fmt.Errorf("%s: %w: format %q", path, ErrFormat, h.Format)
	}
	v, err := semver.NewVersion(h.Version)
	if err != nil || !accepted.Check(v) {
		return h, nil, fmt.Errorf("%s: %w %q (want %s)", path, ErrVersion, h.Version, accepted)
	}
	if h.Table != table {
		return h, nil, fmt.Errorf("%s: %w: holds table %q, want %q", path, ErrFormat, h.Table, table)
	}

	var compact bytes.Buffer
	if err := json.Compact(&compact, doc.Records); err != nil {
		return h, nil, fmt.Errorf("%s: %w: records: %v", path, ErrFormat, err)
	}
	if sum := Checksum(compact.Bytes()); sum != h.Checksum {
		return h, nil, fmt.Errorf("%s: %w: got %s, header says %s", path, ErrChecksum, sum, h.Checksum)
	}

	if err := validateRecords(table, compact.Bytes()); err != nil {
		return h, nil, fmt.Errorf("%s: %w", path, err)
	}

	var rows []T
	if err := json.Unmarshal(compact.Bytes(), &rows); err != nil {
		return h, nil, fmt.Errorf("%s: decode records: %w", path, err)
	}
	if len(rows) != h.Count {
		return h, nil, fmt.Errorf("%s: %w: %d records, header says %d", path, ErrCount, len(rows), h.Count)
	}
	return h, rows, nil
}

func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create artifact dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create artifact: %w", err)
	}
	defer os.Remove(tmp.Name()) // no-op after a successful rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename %s: %w", path, err)
	}
	return nil
}
