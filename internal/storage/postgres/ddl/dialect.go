// Package ddl is the Postgres dialect of the generic ddl model.
package ddl

import (
	"strings"

	gddl "ratetables/internal/ddl"
)

// Dialect implements ddl.Dialect for Postgres.
type Dialect struct{}

var _ gddl.Dialect = Dialect{}

// QuoteIdent safely quotes a single identifier segment for Postgres.
func (Dialect) QuoteIdent(id string) string {
	return `"` + strings.ReplaceAll(id, `"`, `""`) + `"`
}

// MapType normalizes a logical type into a Postgres SQL type.
//
//	"int"   -> BIGINT
//	"bool"  -> SMALLINT (stored as 0/1)
//	"float" -> DOUBLE PRECISION
//	else    -> TEXT
func (Dialect) MapType(kind string) string {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case gddl.TypeInt:
		return "BIGINT"
	case gddl.TypeBool:
		return "SMALLINT"
	case gddl.TypeFloat:
		return "DOUBLE PRECISION"
	default:
		return "TEXT"
	}
}
