package sql

import (
	"context"
	"errors"
	"testing"

	"github.com/syssam/grid/dialect"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenDB(t *testing.T) {
	tests := []struct {
		name    string
		driver  string
		dialect string
	}{
		{"Postgres", dialect.Postgres, dialect.Postgres},
		{"MySQL", dialect.MySQL, dialect.MySQL},
		{"SQLite", dialect.SQLite, dialect.SQLite},
		{"SQLite3", "sqlite3", dialect.SQLite},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, _, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()

			drv := OpenDB(tt.driver, db)
			require.NotNil(t, drv)
			assert.Equal(t, tt.dialect, drv.Dialect())
			assert.Same(t, db, drv.DB())
		})
	}
}

func TestDriverQuery(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	drv := OpenDB(dialect.MySQL, db)

	t.Run("scan_maps", func(t *testing.T) {
		mock.ExpectQuery("SELECT id, name FROM users").
			WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).
				AddRow(1, []byte("Alice")).
				AddRow(2, "Bob"))

		rows := &Rows{}
		err := drv.Query(context.Background(), "SELECT id, name FROM users", []any{}, rows)
		require.NoError(t, err)
		got, err := ScanMaps(rows)
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, "Alice", got[0]["name"])
		assert.Equal(t, "Bob", got[1]["name"])
		assert.EqualValues(t, 2, got[1]["id"])
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("empty_result", func(t *testing.T) {
		mock.ExpectQuery("SELECT id FROM users").
			WillReturnRows(sqlmock.NewRows([]string{"id"}))

		rows := &Rows{}
		require.NoError(t, drv.Query(context.Background(), "SELECT id FROM users", []any{}, rows))
		got, err := ScanMaps(rows)
		require.NoError(t, err)
		assert.Empty(t, got)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("query_error", func(t *testing.T) {
		mock.ExpectQuery("SELECT").WillReturnError(errors.New("database error"))

		rows := &Rows{}
		err := drv.Query(context.Background(), "SELECT", []any{}, rows)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "dialect/sql: query")
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("invalid_target", func(t *testing.T) {
		err := drv.Query(context.Background(), "SELECT", []any{}, nil)
		require.Error(t, err)
	})

	t.Run("invalid_args", func(t *testing.T) {
		err := drv.Query(context.Background(), "SELECT", nil, &Rows{})
		require.Error(t, err)
	})
}

func TestDriverExec(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	drv := OpenDB(dialect.MySQL, db)

	t.Run("result", func(t *testing.T) {
		mock.ExpectExec("INSERT INTO users").
			WillReturnResult(sqlmock.NewResult(7, 1))

		var res Result
		err := drv.Exec(context.Background(), "INSERT INTO users (name) VALUES ('test')", []any{}, &res)
		require.NoError(t, err)
		id, err := res.LastInsertId()
		require.NoError(t, err)
		assert.EqualValues(t, 7, id)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("nil_target", func(t *testing.T) {
		mock.ExpectExec("DELETE FROM users").
			WillReturnResult(sqlmock.NewResult(0, 3))

		err := drv.Exec(context.Background(), "DELETE FROM users WHERE 1", []any{}, nil)
		require.NoError(t, err)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("exec_error", func(t *testing.T) {
		mock.ExpectExec("DELETE").WillReturnError(errors.New("constraint violation"))

		err := drv.Exec(context.Background(), "DELETE FROM users", []any{}, nil)
		require.Error(t, err)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("invalid_target", func(t *testing.T) {
		var n int
		err := drv.Exec(context.Background(), "DELETE FROM users", []any{}, &n)
		require.Error(t, err)
	})
}

func TestDriverTransaction(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	drv := OpenDB(dialect.SQLite, db)

	t.Run("commit", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectExec("INSERT INTO users").WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectCommit()

		tx, err := drv.Tx(context.Background())
		require.NoError(t, err)
		require.NoError(t, tx.Exec(context.Background(), "INSERT INTO users (name) VALUES ('test')", []any{}, nil))
		require.NoError(t, tx.Commit())
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rollback", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectExec("INSERT INTO users").WillReturnError(errors.New("error"))
		mock.ExpectRollback()

		tx, err := drv.Tx(context.Background())
		require.NoError(t, err)
		require.Error(t, tx.Exec(context.Background(), "INSERT INTO users (name) VALUES ('test')", []any{}, nil))
		require.NoError(t, tx.Rollback())
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("escape_in_tx", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectRollback()

		tx, err := drv.Tx(context.Background())
		require.NoError(t, err)
		esc, ok := tx.(dialect.Escaper)
		require.True(t, ok)
		assert.Equal(t, "it''s", esc.Escape("it's"))
		require.NoError(t, tx.Rollback())
	})
}

func TestEscape(t *testing.T) {
	tests := []struct {
		name    string
		dialect string
		input   string
		want    string
	}{
		{"mysql_plain", dialect.MySQL, "hello", "hello"},
		{"mysql_quote", dialect.MySQL, "O'Brien", `O\'Brien`},
		{"mysql_backslash", dialect.MySQL, `a\b`, `a\\b`},
		{"mysql_double_quote", dialect.MySQL, `say "hi"`, `say \"hi\"`},
		{"mysql_newline", dialect.MySQL, "a\nb\r", `a\nb\r`},
		{"mysql_nul", dialect.MySQL, "a\x00b", `a\0b`},
		{"mysql_ctrl_z", dialect.MySQL, "a\x1ab", `a\Zb`},
		{"sqlite_quote", dialect.SQLite, "O'Brien", "O''Brien"},
		{"sqlite_backslash", dialect.SQLite, `a\b`, `a\b`},
		{"postgres_quote", dialect.Postgres, "it's", "it''s"},
		{"sqlite3_alias", "sqlite3", "it's", "it''s"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Escape(tt.dialect, tt.input))
		})
	}
}

func TestEscaperOf(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	drv := OpenDB(dialect.MySQL, db)
	assert.Equal(t, `\'`, EscaperOf(drv).Escape("'"))
	assert.Equal(t, "O''Brien", EscaperOf(bareDriver{drv}).Escape("O'Brien"))
	assert.Equal(t, `a\nb`, EscaperFor(dialect.MySQL).Escape("a\nb"))
	assert.Equal(t, "a\nb", EscaperFor(dialect.SQLite).Escape("a\nb"))
}

// bareDriver hides the Escape method of the embedded driver.
type bareDriver struct{ dialect.Driver }

func (bareDriver) Dialect() string { return dialect.Postgres }
