// Package sqlite implements a SQLite-backed storage.Repository using
// database/sql and the pure-Go modernc.org/sqlite driver. SQLite has no bulk
// load API, so CopyFrom runs a prepared INSERT per row inside the load
// transaction.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	gddl "ratetables/internal/ddl"
	"ratetables/internal/ratetable"
	"ratetables/internal/storage"
	sqliteddl "ratetables/internal/storage/sqlite/ddl"
)

// Repository is a SQLite-backed implementation of storage.Repository.
type Repository struct {
	db *sql.DB
}

// Open opens a SQLite database. dsn is a file path, a file: URI or ":memory:".
// The pool is limited to one connection: a load is a single transaction and an
// in-memory database exists only on the connection that created it.
func Open(dsn string) (*sql.DB, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, fmt.Errorf("sqlite: DSN must not be empty")
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open: %w", err)
	}
	db.SetMaxOpenConns(1)
	return db, nil
}

// New wraps an open database.
func New(db *sql.DB) *Repository { return &Repository{db: db} }

// NewRepository opens dsn, pings it and returns a Repository plus a Close
// function for cleanup.
func NewRepository(ctx context.Context, dsn string) (*Repository, func(), error) {
	db, err := Open(dsn)
	if err != nil {
		return nil, nil, err
	}

	// Apply a basic ping with context to fail fast on invalid DSNs.
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("sqlite: ping: %w", err)
	}
	return New(db), func() { db.Close() }, nil
}

// Begin starts the load transaction.
func (r *Repository) Begin(ctx context.Context) (storage.Tx, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("sqlite: begin tx: %w", err)
	}
	return &Tx{SQLTx: storage.SQLTx{Tx: tx}}, nil
}

// Tx is a SQLite load transaction.
type Tx struct {
	storage.SQLTx
}

var _ storage.Tx = (*Tx)(nil)

// Dialect implements storage.Tx.
func (*Tx) Dialect() gddl.Dialect { return sqliteddl.Dialect{} }

// CopyFrom inserts rows with a prepared INSERT INTO <table> (<cols>) VALUES
// (?, ...). len(row) must equal len(columns) for every row.
func (t *Tx) CopyFrom(ctx context.Context, table string, columns []string, rows [][]any) (int64, error) {
	if len(columns) == 0 {
		return 0, fmt.Errorf("sqlite: CopyFrom: columns must not be empty")
	}
	if len(rows) == 0 {
		return 0, nil
	}

	d := sqliteddl.Dialect{}
	quoted := make([]string, len(columns))
	placeholders := make([]string, len(columns))
	for i, c := range columns {
		quoted[i] = d.QuoteIdent(c)
		placeholders[i] = "?"
	}
	stmtSQL := fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s)",
		d.QuoteIdent(table),
		strings.Join(quoted, ", "),
		strings.Join(placeholders, ", "),
	)

	stmt, err := t.Tx.PrepareContext(ctx, stmtSQL)
	if err != nil {
		return 0, fmt.Errorf("sqlite: prepare insert: %w", err)
	}
	defer stmt.Close()

	var inserted int64
	for _, row := range rows {
		if len(row) != len(columns) {
			return inserted, fmt.Errorf("sqlite: CopyFrom: row length %d != columns length %d", len(row), len(columns))
		}
		if _, err := stmt.ExecContext(ctx, row...); err != nil {
			if isUniqueViolation(err) {
				return inserted, &ratetable.DuplicateKeyError{Table: table, Key: t.keyOf(ctx, table, columns, row), Err: err}
			}
			return inserted, fmt.Errorf("sqlite: insert into %s: %w", table, err)
		}
		inserted++
	}
	return inserted, nil
}

func isUniqueViolation(err error) bool {
	var se *sqlite.Error
	if !errors.As(err, &se) {
		return false
	}
	switch se.Code() {
	case sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3.SQLITE_CONSTRAINT_UNIQUE:
		return true
	}
	// Without extended result codes only the primary code is set.
	return se.Code()&0xff == sqlite3.SQLITE_CONSTRAINT &&
		strings.Contains(se.Error(), "UNIQUE constraint failed")
}

// keyOf returns the primary-key values of a row that collided, in key order.
// The whole row is returned when the key columns cannot be resolved.
func (t *Tx) keyOf(ctx context.Context, table string, columns []string, row []any) []any {
	whole := append([]any(nil), row...)
	keyCols, err := t.primaryKey(ctx, table)
	if err != nil || len(keyCols) == 0 {
		return whole
	}
	at := make(map[string]int, len(columns))
	for i, c := range columns {
		at[c] = i
	}
	key := make([]any, 0, len(keyCols))
	for _, c := range keyCols {
		i, ok := at[c]
		if !ok {
			return whole
		}
		key = append(key, row[i])
	}
	return key
}

func (t *Tx) primaryKey(ctx context.Context, table string) ([]string, error) {
	rows, err := t.Tx.QueryContext(ctx, `SELECT name FROM pragma_table_info(?) WHERE pk > 0 ORDER BY pk`, table)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var cols []string
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, err
		}
		cols = append(cols, c)
	}
	return cols, rows.Err()
}
