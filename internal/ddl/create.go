// Package ddl defines a small, backend-agnostic model for the rate-table
// schema and renders it through a Dialect.
//
// Renderers emit one statement per string without a trailing semicolon so
// callers can execute them one at a time on any driver.
package ddl

import (
	"fmt"
	"strings"
)

// Validate checks that t is renderable: a name, at least one column, no
// duplicate columns, and keys and indexes that name existing columns.
func (t TableDef) Validate() error {
	name := strings.TrimSpace(t.Name)
	if name == "" {
		return fmt.Errorf("ddl: table name must not be empty")
	}
	if len(t.Columns) == 0 {
		return fmt.Errorf("ddl: table %s: at least one column is required", name)
	}
	seen := make(map[string]bool, len(t.Columns))
	for _, c := range t.Columns {
		if strings.TrimSpace(c.Name) == "" {
			return fmt.Errorf("ddl: table %s: column with empty name", name)
		}
		if strings.TrimSpace(c.Type) == "" {
			return fmt.Errorf("ddl: table %s: column %s missing type", name, c.Name)
		}
		if seen[c.Name] {
			return fmt.Errorf("ddl: table %s: duplicate column %s", name, c.Name)
		}
		seen[c.Name] = true
	}
	for _, k := range t.PrimaryKey {
		if c, ok := t.Column(k); !ok {
			return fmt.Errorf("ddl: table %s: primary key column %s does not exist", name, k)
		} else if c.Nullable {
			return fmt.Errorf("ddl: table %s: primary key column %s is nullable", name, k)
		}
	}
	for _, fk := range t.ForeignKeys {
		if len(fk.Columns) == 0 || len(fk.Columns) != len(fk.RefColumns) || fk.RefTable == "" {
			return fmt.Errorf("ddl: table %s: malformed foreign key to %q", name, fk.RefTable)
		}
		for _, c := range fk.Columns {
			if !seen[c] {
				return fmt.Errorf("ddl: table %s: foreign key column %s does not exist", name, c)
			}
		}
	}
	for _, ix := range t.Indexes {
		if ix.Name == "" || len(ix.Columns) == 0 {
			return fmt.Errorf("ddl: table %s: index needs a name and columns", name)
		}
		for _, c := range ix.Columns {
			if !seen[c] {
				return fmt.Errorf("ddl: table %s: index %s column %s does not exist", name, ix.Name, c)
			}
		}
	}
	return nil
}

// CreateTable renders
//
//	CREATE TABLE <name> (
//	  <col> <type> [NOT NULL],
//	  ...,
//	  PRIMARY KEY (<pk-cols>)
//	)
func CreateTable(d Dialect, t TableDef) (string, error) {
	if err := t.Validate(); err != nil {
		return "", err
	}
	cols := make([]string, 0, len(t.Columns)+1)
	for _, c := range t.Columns {
		def := d.QuoteIdent(c.Name) + " " + d.MapType(c.Type)
		if !c.Nullable {
			def += " NOT NULL"
		}
		cols = append(cols, def)
	}
	if len(t.PrimaryKey) > 0 {
		cols = append(cols, fmt.Sprintf("PRIMARY KEY (%s)", quoteList(d, t.PrimaryKey)))
	}
	return fmt.Sprintf("CREATE TABLE %s (\n  %s\n)", d.QuoteIdent(t.Name), strings.Join(cols, ",\n  ")), nil
}

// CreateIndexes renders one CREATE [UNIQUE] INDEX statement per index.
func CreateIndexes(d Dialect, t TableDef) []string {
	out := make([]string, 0, len(t.Indexes))
	for _, ix := range t.Indexes {
		kw := "CREATE INDEX"
		if ix.Unique {
			kw = "CREATE UNIQUE INDEX"
		}
		out = append(out, fmt.Sprintf("%s %s ON %s (%s)",
			kw, d.QuoteIdent(ix.Name), d.QuoteIdent(t.Name), quoteList(d, ix.Columns)))
	}
	return out
}

// DropTable renders DROP TABLE IF EXISTS for name.
func DropTable(d Dialect, name string) string {
	return "DROP TABLE IF EXISTS " + d.QuoteIdent(name)
}

// OrphanQuery selects the distinct key values of child that have no match in
// the referenced table. Each result row holds the fk.Columns values.
func OrphanQuery(d Dialect, child string, fk ForeignKey) string {
	return fmt.Sprintf(
		"SELECT DISTINCT %s FROM %s c WHERE NOT EXISTS (SELECT 1 FROM %s p WHERE %s) ORDER BY %s",
		prefixed(d, "c", fk.Columns),
		d.QuoteIdent(child),
		d.QuoteIdent(fk.RefTable),
		joinOn(d, fk.RefColumns, fk.Columns),
		prefixed(d, "c", fk.Columns),
	)
}

// MissingChildQuery selects, for every row of the referenced table whose
// referenced columns are non-null, the values that have no row in child.
// Each result row holds the fk.RefColumns values followed by the values of
// owner, a column of the referenced table identifying the referencing row.
func MissingChildQuery(d Dialect, child string, fk ForeignKey, owner string) string {
	notNull := make([]string, len(fk.RefColumns))
	for i, c := range fk.RefColumns {
		notNull[i] = "p." + d.QuoteIdent(c) + " IS NOT NULL"
	}
	return fmt.Sprintf(
		"SELECT %s, p.%s FROM %s p WHERE %s AND NOT EXISTS (SELECT 1 FROM %s c WHERE %s) ORDER BY p.%s",
		prefixed(d, "p", fk.RefColumns),
		d.QuoteIdent(owner),
		d.QuoteIdent(fk.RefTable),
		strings.Join(notNull, " AND "),
		d.QuoteIdent(child),
		joinOn(d, fk.RefColumns, fk.Columns),
		d.QuoteIdent(owner),
	)
}

func quoteList(d Dialect, cols []string) string {
	q := make([]string, len(cols))
	for i, c := range cols {
		q[i] = d.QuoteIdent(c)
	}
	return strings.Join(q, ", ")
}

func prefixed(d Dialect, alias string, cols []string) string {
	q := make([]string, len(cols))
	for i, c := range cols {
		q[i] = alias + "." + d.QuoteIdent(c)
	}
	return strings.Join(q, ", ")
}

// joinOn renders p.<ref> = c.<col> pairs.
func joinOn(d Dialect, ref, cols []string) string {
	conds := make([]string, len(cols))
	for i := range cols {
		conds[i] = fmt.Sprintf("p.%s = c.%s", d.QuoteIdent(ref[i]), d.QuoteIdent(cols[i]))
	}
	return strings.Join(conds, " AND ")
}
