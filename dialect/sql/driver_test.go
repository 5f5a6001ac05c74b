package sql

import (
	"context"
	stdsql "database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/dbcon/dialect"
)

func newMock(t *testing.T, d string) (*Driver, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	drv, err := OpenDB(context.Background(), d, db)
	require.NoError(t, err)
	return drv, mock
}

// TestOpenDB tests the OpenDB function with different dialects.
func TestOpenDB(t *testing.T) {
	tests := []struct {
		name    string
		dialect string
	}{
		{"Postgres", dialect.Postgres},
		{"MySQL", dialect.MySQL},
		{"SQLite", dialect.SQLite},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			drv, mock := newMock(t, tt.dialect)
			assert.Equal(t, tt.dialect, drv.Dialect())
			assert.NotNil(t, drv.DB())
			mock.ExpectClose()
			require.NoError(t, drv.Close())
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestOpenSQLite(t *testing.T) {
	drv, err := Open(context.Background(), dialect.SQLite, ":memory:")
	require.NoError(t, err)
	defer drv.Close()

	require.NoError(t, drv.Exec(context.Background(), "CREATE TABLE t (id INTEGER PRIMARY KEY, name TEXT)", []any{}, nil))
	var res Result
	require.NoError(t, drv.Exec(context.Background(), "INSERT INTO t (name) VALUES ('a')", []any{}, &res))
	id, err := res.LastInsertId()
	require.NoError(t, err)
	assert.Equal(t, int64(1), id)

	// The table is only visible on the pinned connection of the in-memory database.
	rows := &Rows{}
	require.NoError(t, drv.Query(context.Background(), "SELECT id, name FROM t", []any{}, rows))
	columns, records, err := ScanMaps(rows)
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "name"}, columns)
	require.Len(t, records, 1)
	assert.Equal(t, "a", records[0]["name"])
}

func TestOpenUnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), "oracle", "dsn")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dialect/sql: open")
}

func TestOpenDBConnectError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	mock.ExpectClose()
	require.NoError(t, db.Close())
	_, err = OpenDB(context.Background(), dialect.MySQL, db)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dialect/sql: connect")
	require.NoError(t, mock.ExpectationsWereMet())
}

// TestDriverQuery tests query operations.
func TestDriverQuery(t *testing.T) {
	drv, mock := newMock(t, dialect.MySQL)

	t.Run("simple_query", func(t *testing.T) {
		mock.ExpectQuery("SELECT id, name FROM users").
			WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).
				AddRow(1, "Alice").
				AddRow(2, []byte("Bob")))

		rows := &Rows{}
		err := drv.Query(context.Background(), "SELECT id, name FROM users", []any{}, rows)
		require.NoError(t, err)
		columns, records, err := ScanMaps(rows)
		require.NoError(t, err)
		assert.Equal(t, []string{"id", "name"}, columns)
		require.Len(t, records, 2)
		assert.Equal(t, "Alice", records[0]["name"])
		assert.Equal(t, "Bob", records[1]["name"], "[]byte values are converted to strings")
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

	t.Run("invalid_destination", func(t *testing.T) {
		var rows stdsql.Rows
		err := drv.Query(context.Background(), "SELECT 1", []any{}, &rows)
		require.Error(t, err)
	})

	t.Run("invalid_args", func(t *testing.T) {
		err := drv.Query(context.Background(), "SELECT 1", "nope", &Rows{})
		require.Error(t, err)
	})
}

// TestDriverExec tests execute operations.
func TestDriverExec(t *testing.T) {
	drv, mock := newMock(t, dialect.MySQL)

	t.Run("simple_exec", func(t *testing.T) {
		mock.ExpectExec("INSERT INTO users (name) VALUES ('test')").
			WillReturnResult(sqlmock.NewResult(1, 1))

		err := drv.Exec(context.Background(), "INSERT INTO users (name) VALUES ('test')", []any{}, nil)
		require.NoError(t, err)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("exec_with_result", func(t *testing.T) {
		mock.ExpectExec("UPDATE users SET name = 'x'").
			WillReturnResult(sqlmock.NewResult(0, 3))

		var res Result
		err := drv.Exec(context.Background(), "UPDATE users SET name = 'x'", []any{}, &res)
		require.NoError(t, err)
		n, err := res.RowsAffected()
		require.NoError(t, err)
		assert.Equal(t, int64(3), n)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("exec_error", func(t *testing.T) {
		mock.ExpectExec("DELETE FROM users").WillReturnError(errors.New("constraint violation"))

		err := drv.Exec(context.Background(), "DELETE FROM users", []any{}, nil)
		require.Error(t, err)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("invalid_destination", func(t *testing.T) {
		var n int
		err := drv.Exec(context.Background(), "DELETE FROM users", []any{}, &n)
		require.Error(t, err)
	})
}

// TestDriverTransaction tests transaction operations.
func TestDriverTransaction(t *testing.T) {
	drv, mock := newMock(t, dialect.MySQL)

	t.Run("successful_commit", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectExec("INSERT INTO users (name) VALUES ('test')").WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectCommit()

		tx, err := drv.Tx(context.Background())
		require.NoError(t, err)
		err = tx.Exec(context.Background(), "INSERT INTO users (name) VALUES ('test')", []any{}, nil)
		require.NoError(t, err)
		require.NoError(t, tx.Commit())
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rollback", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectExec("INSERT INTO users (name) VALUES ('test')").WillReturnError(errors.New("error"))
		mock.ExpectRollback()

		tx, err := drv.Tx(context.Background())
		require.NoError(t, err)
		err = tx.Exec(context.Background(), "INSERT INTO users (name) VALUES ('test')", []any{}, nil)
		require.Error(t, err)
		require.NoError(t, tx.Rollback())
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("begin_error", func(t *testing.T) {
		mock.ExpectBegin().WillReturnError(errors.New("busy"))

		_, err := drv.Tx(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "dialect/sql: begin")
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestSetVars(t *testing.T) {
	t.Run("sorted_and_escaped", func(t *testing.T) {
		drv, mock := newMock(t, dialect.MySQL)
		mock.ExpectExec("SET sql_mode = 'ANSI'").WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec(`SET time_zone = 'it\'s'`).WillReturnResult(sqlmock.NewResult(0, 0))

		err := drv.SetVars(context.Background(), map[string]string{
			"time_zone": "it's",
			"sql_mode":  "ANSI",
		})
		require.NoError(t, err)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("invalid_name", func(t *testing.T) {
		drv, _ := newMock(t, dialect.MySQL)
		err := drv.SetVars(context.Background(), map[string]string{"foo; DROP TABLE users; --": "bar"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid session variable name")
	})

	t.Run("exec_error", func(t *testing.T) {
		drv, mock := newMock(t, dialect.Postgres)
		mock.ExpectExec("SET search_path = 'app'").WillReturnError(errors.New("denied"))
		err := drv.SetVars(context.Background(), map[string]string{"search_path": "app"})
		require.Error(t, err)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

// TestIsValidIdentifier tests SQL identifier validation.
func TestIsValidIdentifier(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected bool
	}{
		{"valid_simple", "foo", true},
		{"valid_with_underscore", "foo_bar", true},
		{"valid_with_number", "utf8_bin", true},
		{"valid_with_dot", "schema.table", true},
		{"valid_starting_underscore", "_private", true},
		{"invalid_empty", "", false},
		{"invalid_starting_number", "123foo", false},
		{"invalid_with_space", "foo bar", false},
		{"invalid_with_quote", "foo'bar", false},
		{"invalid_with_semicolon", "foo;DROP TABLE", false},
		{"invalid_with_dash", "foo-bar", false},
		{"invalid_too_long", string(make([]byte, 129)), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsValidIdentifier(tt.input))
		})
	}
}
