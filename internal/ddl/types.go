package ddl

// Logical column types understood by every Dialect.
const (
	TypeText  = "text"
	TypeInt   = "int"
	TypeFloat = "float"
	TypeBool  = "bool"
)

// ColumnDef describes a single column of a table definition.
//
// Fields:
//   - Name: column name (unquoted; quoting happens at render time)
//   - Type: logical type (TypeText, TypeInt, TypeFloat, TypeBool), mapped to a
//     SQL type by the Dialect
//   - Nullable: whether NULL is allowed
type ColumnDef struct {
	Name     string
	Type     string
	Nullable bool
}

// ForeignKey relates Columns of the owning table to RefColumns of RefTable.
//
// The referenced columns are not unique in RefTable (a rate description names
// a band table that has many band rows and vice versa), so the relationship is
// not rendered as a SQL constraint. It is checked by the queries returned from
// OrphanQuery and MissingChildQuery.
type ForeignKey struct {
	Columns    []string
	RefTable   string
	RefColumns []string
}

// Index is a named secondary index.
type Index struct {
	Name    string
	Columns []string
	Unique  bool
}

// TableDef is a table name, its ordered columns, the primary key, declared
// relationships and secondary indexes.
type TableDef struct {
	Name        string
	Columns     []ColumnDef
	PrimaryKey  []string
	ForeignKeys []ForeignKey
	Indexes     []Index
}

// Column returns the column named name.
func (t TableDef) Column(name string) (ColumnDef, bool) {
	for _, c := range t.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return ColumnDef{}, false
}

// ColumnNames returns the column names in declaration order.
func (t TableDef) ColumnNames() []string {
	out := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		out[i] = c.Name
	}
	return out
}

// Dialect adapts the generic model to one SQL backend.
type Dialect interface {
	// QuoteIdent quotes a single identifier.
	QuoteIdent(name string) string
	// MapType returns the SQL type for a logical column type.
	MapType(kind string) string
}
