package load

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"ratetables/internal/ddl"
	"ratetables/internal/ratetable"
	"ratetables/internal/schema"
	"ratetables/internal/storage"
)

// checkIntegrity runs, for every declared foreign key, the orphan query
// (child rows without a parent) and the missing-child query (a parent naming
// a table that has no rows). All violations are joined into one error.
func checkIntegrity(ctx context.Context, tx storage.Tx, tables []ddl.TableDef) error {
	d := tx.Dialect()
	var errs []error
	for _, td := range tables {
		for _, fk := range td.ForeignKeys {
			rows, err := tx.QueryStrings(ctx, ddl.MissingChildQuery(d, td.Name, fk, schema.Owner))
			if err != nil {
				return fmt.Errorf("integrity check %s -> %s: %w", fk.RefTable, td.Name, err)
			}
			for _, r := range rows {
				errs = append(errs, &ratetable.IntegrityError{
					Table:  fk.RefTable,
					Column: strings.Join(fk.RefColumns, ","),
					Value:  strings.Join(r[:len(fk.RefColumns)], ","),
					Ref:    td.Name + "." + strings.Join(fk.Columns, ","),
					Owner:  schema.Owner + "=" + r[len(fk.RefColumns)],
				})
			}

			rows, err = tx.QueryStrings(ctx, ddl.OrphanQuery(d, td.Name, fk))
			if err != nil {
				return fmt.Errorf("integrity check %s -> %s: %w", td.Name, fk.RefTable, err)
			}
			for _, r := range rows {
				errs = append(errs, &ratetable.IntegrityError{
					Table:  td.Name,
					Column: strings.Join(fk.Columns, ","),
					Value:  strings.Join(r, ","),
					Ref:    fk.RefTable + "." + strings.Join(fk.RefColumns, ","),
				})
			}
		}
	}
	return errors.Join(errs...)
}
