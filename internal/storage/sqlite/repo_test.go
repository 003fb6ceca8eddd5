package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	gddl "ratetables/internal/ddl"
	"ratetables/internal/ratetable"
	"ratetables/internal/storage"
)

/*
Package-level test helpers (TB-aware)
*/

func newMemDB(tb testing.TB) *sql.DB {
	tb.Helper()
	db, err := Open(":memory:")
	if err != nil {
		tb.Fatalf("open sqlite :memory:: %v", err)
	}
	tb.Cleanup(func() { _ = db.Close() })
	return db
}

func begin(tb testing.TB, r *Repository) storage.Tx {
	tb.Helper()
	tx, err := r.Begin(context.Background())
	if err != nil {
		tb.Fatalf("begin: %v", err)
	}
	return tx
}

func chargeTable() gddl.TableDef {
	return gddl.TableDef{
		Name: "policy_charge",
		Columns: []gddl.ColumnDef{
			{Name: "charges_table", Type: gddl.TypeText},
			{Name: "billing_frequency", Type: gddl.TypeInt},
			{Name: "paid_by_invoice", Type: gddl.TypeBool},
			{Name: "policy_charges", Type: gddl.TypeFloat},
		},
		PrimaryKey: []string{"charges_table", "billing_frequency", "paid_by_invoice"},
	}
}

func mustCreate(tb testing.TB, tx storage.Tx, td gddl.TableDef) {
	tb.Helper()
	stmt, err := gddl.CreateTable(tx.Dialect(), td)
	if err != nil {
		tb.Fatalf("render: %v", err)
	}
	if err := tx.Exec(context.Background(), stmt); err != nil {
		tb.Fatalf("exec %q: %v", stmt, err)
	}
}

/*
Unit tests
*/

func TestCopyFromAndQueryStrings(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	r := New(newMemDB(t))
	tx := begin(t, r)
	mustCreate(t, tx, chargeTable())

	cols := chargeTable().ColumnNames()
	n, err := tx.CopyFrom(ctx, "policy_charge", cols, [][]any{
		{"c1", int64(12), int64(0), 54.0},
		{"c1", int64(1), int64(1), 6.19},
	})
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	got, err := tx.QueryStrings(ctx, `SELECT "charges_table", "billing_frequency", "paid_by_invoice" FROM "policy_charge" ORDER BY "billing_frequency"`)
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"c1", "1", "1"}, {"c1", "12", "0"}}, got)

	require.NoError(t, tx.Commit(ctx))
}

func TestCopyFromEmptyRows(t *testing.T) {
	t.Parallel()

	tx := &Tx{} // must not be used in this path
	n, err := tx.CopyFrom(context.Background(), "t", []string{"a"}, nil)
	require.NoError(t, err)
	assert.Zero(t, n)

	_, err = tx.CopyFrom(context.Background(), "t", nil, [][]any{{1}})
	assert.Error(t, err)
}

func TestCopyFromRowLengthMismatch(t *testing.T) {
	t.Parallel()

	r := New(newMemDB(t))
	tx := begin(t, r)
	defer tx.Rollback(context.Background())
	mustCreate(t, tx, chargeTable())

	_, err := tx.CopyFrom(context.Background(), "policy_charge", chargeTable().ColumnNames(), [][]any{{"c1"}})
	assert.ErrorContains(t, err, "row length 1 != columns length 4")
}

func TestCopyFromDuplicateKey(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	r := New(newMemDB(t))
	tx := begin(t, r)
	defer tx.Rollback(ctx)
	mustCreate(t, tx, chargeTable())

	row := []any{"c1", int64(12), int64(0), 54.0}
	n, err := tx.CopyFrom(ctx, "policy_charge", chargeTable().ColumnNames(), [][]any{row, row})
	assert.EqualValues(t, 1, n)
	require.ErrorIs(t, err, ratetable.ErrDuplicateKey)

	var dk *ratetable.DuplicateKeyError
	require.True(t, errors.As(err, &dk))
	assert.Equal(t, "policy_charge", dk.Table)
	assert.Equal(t, []any{"c1", int64(12), int64(0)}, dk.Key)
}

func TestCopyFromDuplicateKeyInKeyOrder(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	r := New(newMemDB(t))
	tx := begin(t, r)
	defer tx.Rollback(ctx)
	mustCreate(t, tx, chargeTable())

	// Columns in a different order from the key.
	cols := []string{"policy_charges", "paid_by_invoice", "billing_frequency", "charges_table"}
	rows := [][]any{
		{54.0, int64(0), int64(12), "c1"},
		{60.0, int64(0), int64(12), "c1"},
	}
	_, err := tx.CopyFrom(ctx, "policy_charge", cols, rows)

	var dk *ratetable.DuplicateKeyError
	require.True(t, errors.As(err, &dk))
	assert.Equal(t, []any{"c1", int64(12), int64(0)}, dk.Key)
}

func TestRollbackDiscardsEverything(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	r := New(newMemDB(t))

	tx := begin(t, r)
	mustCreate(t, tx, chargeTable())
	_, err := tx.CopyFrom(ctx, "policy_charge", chargeTable().ColumnNames(), [][]any{{"c1", int64(1), int64(0), 1.0}})
	require.NoError(t, err)
	require.NoError(t, tx.Rollback(ctx))

	tx = begin(t, r)
	defer tx.Rollback(ctx)
	got, err := tx.QueryStrings(ctx, `SELECT name FROM sqlite_master WHERE type = 'table'`)
	require.NoError(t, err)
	assert.Empty(t, got, "DDL is transactional in SQLite")
}

func TestNullsRoundTripAsEmptyStrings(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	r := New(newMemDB(t))
	tx := begin(t, r)
	defer tx.Rollback(ctx)

	mustCreate(t, tx, gddl.TableDef{
		Name: "rate_description",
		Columns: []gddl.ColumnDef{
			{Name: "plan_code", Type: gddl.TypeText},
			{Name: "cash_value_table", Type: gddl.TypeText, Nullable: true},
		},
		PrimaryKey: []string{"plan_code"},
	})
	_, err := tx.CopyFrom(ctx, "rate_description", []string{"plan_code", "cash_value_table"}, [][]any{{"ula20", nil}})
	require.NoError(t, err)

	got, err := tx.QueryStrings(ctx, `SELECT plan_code, cash_value_table, cash_value_table IS NULL FROM rate_description`)
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"ula20", "", "1"}}, got)
}

func TestOpenRejectsEmptyDSN(t *testing.T) {
	t.Parallel()
	_, err := Open("  ")
	assert.Error(t, err)
}
