package storage

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLTx_QueryStrings(t *testing.T) {
	t.Parallel()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT band_table, plan_code").
		WillReturnRows(sqlmock.NewRows([]string{"band_table", "plan_code"}).
			AddRow("std", "ula20").
			AddRow(nil, "w19gnc").
			AddRow("wb", int64(7)))
	mock.ExpectCommit()

	ctx := context.Background()
	sqlTx, err := db.BeginTx(ctx, nil)
	require.NoError(t, err)
	tx := SQLTx{Tx: sqlTx}

	got, err := tx.QueryStrings(ctx, "SELECT band_table, plan_code FROM rate_description")
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"std", "ula20"}, {"", "w19gnc"}, {"wb", "7"}}, got)

	require.NoError(t, tx.Commit(ctx))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLTx_Exec(t *testing.T) {
	t.Parallel()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	boom := errors.New("boom")
	mock.ExpectBegin()
	mock.ExpectExec("DROP TABLE IF EXISTS").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE TABLE").WillReturnError(boom)
	mock.ExpectRollback()

	ctx := context.Background()
	sqlTx, err := db.BeginTx(ctx, nil)
	require.NoError(t, err)
	tx := SQLTx{Tx: sqlTx}

	require.NoError(t, tx.Exec(ctx, `DROP TABLE IF EXISTS "t"`))
	require.NoError(t, tx.Exec(ctx, "   "), "blank statements are skipped")
	assert.ErrorIs(t, tx.Exec(ctx, `CREATE TABLE "t" (a INT)`), boom)
	require.NoError(t, tx.Rollback(ctx))
	assert.NoError(t, mock.ExpectationsWereMet())
}
