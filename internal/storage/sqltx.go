package storage

import (
	"context"
	"database/sql"
	"strings"
)

// SQLTx implements the statement side of Tx on a database/sql transaction.
// Backends built on database/sql embed it and add CopyFrom and Dialect.
type SQLTx struct {
	Tx *sql.Tx
}

// Exec runs one statement. Blank statements are skipped.
func (t SQLTx) Exec(ctx context.Context, query string) error {
	if strings.TrimSpace(query) == "" {
		return nil
	}
	_, err := t.Tx.ExecContext(ctx, query)
	return err
}

// QueryStrings runs query and returns every row as strings.
func (t SQLTx) QueryStrings(ctx context.Context, query string) ([][]string, error) {
	rows, err := t.Tx.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return ScanStrings(rows)
}

func (t SQLTx) Commit(context.Context) error   { return t.Tx.Commit() }
func (t SQLTx) Rollback(context.Context) error { return t.Tx.Rollback() }

// ScanStrings drains rows, rendering every column as a string and NULL as "".
func ScanStrings(rows *sql.Rows) ([][]string, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	var out [][]string
	vals := make([]sql.NullString, len(cols))
	ptrs := make([]any, len(cols))
	for i := range vals {
		ptrs[i] = &vals[i]
	}
	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		row := make([]string, len(cols))
		for i, v := range vals {
			row[i] = v.String
		}
		out = append(out, row)
	}
	return out, rows.Err()
}
