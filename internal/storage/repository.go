// Package storage contains the backend-agnostic contracts of the relational
// store and a registry of backend factories.
//
// Backends register themselves from init(); import
// ratetables/internal/storage/all to enable every built-in backend.
package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"ratetables/internal/ddl"
)

// Config selects and configures a backend.
type Config struct {
	Kind string
	DSN  string
}

// Repository is an open connection to a relational store.
type Repository interface {
	// Begin starts the transaction a whole load runs in.
	Begin(ctx context.Context) (Tx, error)
	Close()
}

// Tx is a backend transaction. Nothing written through a Tx is visible to
// other sessions before Commit.
type Tx interface {
	// Exec runs a single statement, typically DDL.
	Exec(ctx context.Context, sql string) error

	// CopyFrom bulk-inserts rows aligned to columns into table and returns
	// the number of rows inserted. Unique-constraint failures unwrap to
	// ratetable.ErrDuplicateKey.
	CopyFrom(ctx context.Context, table string, columns []string, rows [][]any) (int64, error)

	// QueryStrings runs a query whose columns are all text or integer and
	// returns every row rendered as strings. NULL becomes "".
	QueryStrings(ctx context.Context, query string) ([][]string, error)

	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error

	// Dialect renders DDL and queries for this backend.
	Dialect() ddl.Dialect
}

// Factory opens a Repository for cfg.
type Factory func(ctx context.Context, cfg Config) (Repository, error)

var (
	mu        sync.RWMutex
	factories = map[string]Factory{}
)

// Register registers (or replaces) the factory for kind.
func Register(kind string, f Factory) {
	mu.Lock()
	defer mu.Unlock()
	factories[kind] = f
}

// New opens a Repository using the factory registered for cfg.Kind.
func New(ctx context.Context, cfg Config) (Repository, error) {
	mu.RLock()
	f, ok := factories[cfg.Kind]
	mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unsupported storage.kind=%s", cfg.Kind)
	}
	return f(ctx, cfg)
}

// ListKinds returns the registered kinds, sorted.
func ListKinds() []string {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]string, 0, len(factories))
	for k := range factories {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
