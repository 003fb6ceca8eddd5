// Package mssql implements a Microsoft SQL Server repository using the
// go-mssqldb bulk copy API. A load runs in one database/sql transaction and
// each batch is streamed with INSERT BULK.
package mssql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	mssql "github.com/microsoft/go-mssqldb"
	"github.com/microsoft/go-mssqldb/msdsn"

	gddl "ratetables/internal/ddl"
	"ratetables/internal/ratetable"
	"ratetables/internal/storage"
	msddl "ratetables/internal/storage/mssql/ddl"
)

// SQL Server error numbers for unique index and primary key violations.
const (
	errDupKeyIndex      = 2601
	errDupKeyConstraint = 2627
)

// Repository is an MSSQL-backed implementation of storage.Repository.
type Repository struct {
	db *sql.DB
}

// New wraps an open database handle.
func New(db *sql.DB) *Repository { return &Repository{db: db} }

// NewRepository constructs a Repository and returns a Close function for cleanup.
func NewRepository(ctx context.Context, dsn string) (*Repository, func(), error) {
	// Validate DSN early to fail fast on obvious mistakes.
	if _, err := msdsn.Parse(dsn); err != nil {
		return nil, nil, fmt.Errorf("mssql dsn: %w", err)
	}
	db, err := sql.Open("sqlserver", dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("sql.Open: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("ping: %w", err)
	}
	return New(db), func() { _ = db.Close() }, nil
}

// Begin starts the load transaction.
func (r *Repository) Begin(ctx context.Context) (storage.Tx, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	return &Tx{SQLTx: storage.SQLTx{Tx: tx}}, nil
}

// Tx is a SQL Server load transaction.
type Tx struct {
	storage.SQLTx
}

var _ storage.Tx = (*Tx)(nil)

// Dialect implements storage.Tx.
func (*Tx) Dialect() gddl.Dialect { return msddl.Dialect{} }

// CopyFrom bulk-copies rows into table inside the transaction.
func (t *Tx) CopyFrom(ctx context.Context, table string, columns []string, rows [][]any) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}

	stmt, err := t.Tx.PrepareContext(ctx, mssql.CopyIn(table, mssql.BulkOptions{}, columns...))
	if err != nil {
		return 0, fmt.Errorf("prepare bulk: %w", err)
	}
	for i := range rows {
		if _, err := stmt.ExecContext(ctx, rows[i]...); err != nil {
			_ = stmt.Close()
			return 0, mapError(table, fmt.Errorf("bulk row %d: %w", i, err))
		}
	}
	res, err := stmt.ExecContext(ctx)
	if cerr := stmt.Close(); cerr != nil && err == nil {
		err = cerr
	}
	if err != nil {
		return 0, mapError(table, fmt.Errorf("bulk finalize: %w", err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return n, nil
}

func mapError(table string, err error) error {
	var me mssql.Error
	if errors.As(err, &me) && (me.Number == errDupKeyConstraint || me.Number == errDupKeyIndex) {
		return &ratetable.DuplicateKeyError{Table: table, Err: err}
	}
	return err
}
