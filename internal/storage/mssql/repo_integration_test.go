//go:build integration

package mssql

import (
	"context"
	"os"
	"testing"
	"time"

	gddl "ratetables/internal/ddl"
)

// getTestDSN reads the MSSQL_TEST_DSN environment variable.
// If it is empty, the caller should skip the test.
func getTestDSN(t *testing.T) string {
	t.Helper()
	dsn := os.Getenv("MSSQL_TEST_DSN")
	if dsn == "" {
		t.Skip("MSSQL_TEST_DSN not set; skipping MSSQL integration tests")
	}
	return dsn
}

// TestBulkCopyIntegration creates a table, bulk-copies into it and rolls the
// transaction back on a real SQL Server.
func TestBulkCopyIntegration(t *testing.T) {
	dsn := getTestDSN(t)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	repo, closeFn, err := NewRepository(ctx, dsn)
	if err != nil {
		t.Fatalf("NewRepository() error = %v, want nil", err)
	}
	defer closeFn()

	tx, err := repo.Begin(ctx)
	if err != nil {
		t.Fatalf("Begin() error = %v", err)
	}
	defer tx.Rollback(ctx)

	td := gddl.TableDef{
		Name: "ratetables_it_band",
		Columns: []gddl.ColumnDef{
			{Name: "band_table", Type: gddl.TypeText},
			{Name: "premium_band", Type: gddl.TypeInt},
		},
		PrimaryKey: []string{"band_table", "premium_band"},
	}
	stmt, err := gddl.CreateTable(tx.Dialect(), td)
	if err != nil {
		t.Fatal(err)
	}
	if err := tx.Exec(ctx, stmt); err != nil {
		t.Fatalf("create: %v", err)
	}
	n, err := tx.CopyFrom(ctx, td.Name, td.ColumnNames(), [][]any{{"std", int64(1)}, {"std", int64(2)}})
	if err != nil {
		t.Fatalf("CopyFrom() error = %v", err)
	}
	if n != 2 {
		t.Fatalf("CopyFrom() = %d, want 2", n)
	}
}
