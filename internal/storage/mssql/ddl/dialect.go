// Package ddl is the SQL Server dialect of the generic ddl model.
//
// Identifiers use bracket quoting. Text columns take part in primary keys, so
// they are bounded NVARCHAR rather than NVARCHAR(MAX).
package ddl

import (
	"strings"

	gddl "ratetables/internal/ddl"
)

// TextType is the SQL type of text columns.
const TextType = "NVARCHAR(64)"

// Dialect implements ddl.Dialect for SQL Server.
type Dialect struct{}

var _ gddl.Dialect = Dialect{}

// QuoteIdent quotes a single identifier segment using bracket syntax,
// escaping any closing brackets.
//
//	name      -> [name]
//	weird]id  -> [weird]]id]
func (Dialect) QuoteIdent(id string) string {
	return "[" + strings.ReplaceAll(id, "]", "]]") + "]"
}

// MapType maps a logical type into a SQL Server column type.
func (Dialect) MapType(kind string) string {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case gddl.TypeInt:
		return "BIGINT"
	case gddl.TypeBool:
		return "TINYINT"
	case gddl.TypeFloat:
		return "FLOAT"
	default:
		return TextType
	}
}
