// Package postgres implements a Postgres repository using pgx v5. A load runs
// in one pgx transaction and rows are bulk-loaded with COPY.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	gddl "ratetables/internal/ddl"
	"ratetables/internal/ratetable"
	"ratetables/internal/storage"
	pgddl "ratetables/internal/storage/postgres/ddl"
)

// uniqueViolation is the SQLSTATE of a unique or primary-key violation.
const uniqueViolation = "23505"

// Repository is a Postgres-backed implementation of storage.Repository.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a Repository and returns a Close function for cleanup.
func NewRepository(ctx context.Context, dsn string) (*Repository, func(), error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("pgxpool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("ping: %w", err)
	}
	return &Repository{pool: pool}, pool.Close, nil
}

// Begin starts the load transaction.
func (r *Repository) Begin(ctx context.Context) (storage.Tx, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	return &Tx{tx: tx}, nil
}

// pgxTx is the subset of pgx.Tx used by the load.
type pgxTx interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error)
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// Tx is a Postgres load transaction.
type Tx struct {
	tx pgxTx
}

var _ storage.Tx = (*Tx)(nil)

// Dialect implements storage.Tx.
func (*Tx) Dialect() gddl.Dialect { return pgddl.Dialect{} }

// Exec implements storage.Tx.
func (t *Tx) Exec(ctx context.Context, sql string) error {
	_, err := t.tx.Exec(ctx, sql)
	return err
}

// CopyFrom streams rows into table with COPY.
func (t *Tx) CopyFrom(ctx context.Context, table string, columns []string, rows [][]any) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	n, err := t.tx.CopyFrom(ctx, pgx.Identifier{table}, columns, pgx.CopyFromRows(rows))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			if pgErr.Code == uniqueViolation {
				return n, &ratetable.DuplicateKeyError{Table: table, Err: err}
			}
			if pgErr.Detail != "" {
				return n, fmt.Errorf("copy into %s: %s (%s): %w", table, pgErr.Detail, pgErr.SQLState(), err)
			}
		}
		return n, fmt.Errorf("copy into %s: %w", table, err)
	}
	return n, nil
}

// QueryStrings implements storage.Tx.
func (t *Tx) QueryStrings(ctx context.Context, sql string) ([][]string, error) {
	rows, err := t.tx.Query(ctx, sql)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out [][]string
	for rows.Next() {
		vals, err := rows.Values()
		if err != nil {
			return nil, err
		}
		row := make([]string, len(vals))
		for i, v := range vals {
			row[i] = toString(v)
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func (t *Tx) Commit(ctx context.Context) error   { return t.tx.Commit(ctx) }
func (t *Tx) Rollback(ctx context.Context) error { return t.tx.Rollback(ctx) }

// toString converts values to their string representation; nil becomes "".
func toString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	default:
		return fmt.Sprint(t)
	}
}
