// Package ddl is the SQLite dialect of the generic ddl model.
//
// SQLite has dynamic typing, so the mapping picks canonical affinities:
// integers and booleans (0/1) are INTEGER, floats REAL, everything else TEXT.
package ddl

import (
	"strings"

	gddl "ratetables/internal/ddl"
)

// Dialect implements ddl.Dialect for SQLite.
type Dialect struct{}

var _ gddl.Dialect = Dialect{}

// QuoteIdent double-quotes an identifier, doubling embedded quotes.
func (Dialect) QuoteIdent(id string) string {
	return `"` + strings.ReplaceAll(id, `"`, `""`) + `"`
}

// MapType maps a logical type into a SQLite column type.
func (Dialect) MapType(kind string) string {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case gddl.TypeInt, gddl.TypeBool:
		return "INTEGER"
	case gddl.TypeFloat:
		return "REAL"
	default:
		return "TEXT"
	}
}
