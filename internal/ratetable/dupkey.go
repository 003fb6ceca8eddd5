package ratetable

import (
	"fmt"
	"strings"

	"github.com/zeebo/xxh3"
)

// Keyed is one primary key with the line it came from: a source line during
// transform, a record number when checking an artifact set.
type Keyed struct {
	Key  []any
	Line int
}

// CheckDuplicates fails with a *DuplicateKeyError naming both lines of the
// first repeated key. Keys are bucketed by their xxh3 hash and compared
// exactly within a bucket.
func CheckDuplicates(table, file string, rows []Keyed) error {
	type seen struct {
		enc  string
		line int
	}
	buckets := make(map[uint64][]seen, len(rows))
	for _, r := range rows {
		enc := encodeKey(r.Key)
		h := xxh3.HashString(enc)
		for _, s := range buckets[h] {
			if s.enc == enc {
				return &DuplicateKeyError{
					Table: table,
					Key:   r.Key,
					File:  file,
					Lines: []int{s.line, r.Line},
				}
			}
		}
		buckets[h] = append(buckets[h], seen{enc: enc, line: r.Line})
	}
	return nil
}

// encodeKey renders a key unambiguously: type and value per part, unit
// separated.
func encodeKey(key []any) string {
	var b strings.Builder
	for _, v := range key {
		fmt.Fprintf(&b, "%T:%v\x1f", v, v)
	}
	return b.String()
}

// KeysOf pairs the primary key of every row with its 1-based position.
func KeysOf[T Row](rows []T) []Keyed {
	out := make([]Keyed, len(rows))
	for i := range rows {
		out[i] = Keyed{Key: rows[i].Key(), Line: i + 1}
	}
	return out
}
