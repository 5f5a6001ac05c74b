package sql

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/dbcon/dialect"
)

func TestStatsDriver(t *testing.T) {
	drv, mock := newMock(t, dialect.MySQL)
	var slow []string
	stats := NewStatsDriver(drv,
		WithSlowThreshold(-1),
		WithSlowQueryHook(func(_ context.Context, query string, _ time.Duration) {
			slow = append(slow, query)
		}),
	)

	mock.ExpectQuery("SELECT 1").WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))
	mock.ExpectExec("DELETE FROM t").WillReturnError(errors.New("boom"))
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO t VALUES (1)").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	rows := &Rows{}
	require.NoError(t, stats.Query(context.Background(), "SELECT 1", []any{}, rows))
	require.NoError(t, rows.Close())
	require.Error(t, stats.Exec(context.Background(), "DELETE FROM t", []any{}, nil))

	tx, err := stats.Tx(context.Background())
	require.NoError(t, err)
	require.NoError(t, tx.Exec(context.Background(), "INSERT INTO t VALUES (1)", []any{}, nil))
	require.NoError(t, tx.Commit())
	require.NoError(t, mock.ExpectationsWereMet())

	s := stats.QueryStats().Stats()
	assert.Equal(t, int64(1), s.TotalQueries)
	assert.Equal(t, int64(2), s.TotalExecs)
	assert.Equal(t, int64(1), s.Errors)
	assert.Equal(t, int64(3), s.SlowQueries)
	assert.Equal(t, []string{"SELECT 1", "DELETE FROM t", "INSERT INTO t VALUES (1)"}, slow)
	assert.Contains(t, s.String(), "queries=1 execs=2")

	stats.QueryStats().Reset()
	assert.Equal(t, StatsSnapshot{}, stats.QueryStats().Stats())
	assert.Zero(t, StatsSnapshot{}.AvgQueryDuration())
}

func TestStatsDriverSharedStats(t *testing.T) {
	drv, mock := newMock(t, dialect.MySQL)
	shared := &QueryStats{}
	stats := NewStatsDriver(drv, WithStats(shared), WithSlowThreshold(time.Hour))

	mock.ExpectExec("DELETE FROM t").WillReturnResult(sqlmock.NewResult(0, 0))
	require.NoError(t, stats.Exec(context.Background(), "DELETE FROM t", []any{}, nil))
	assert.Equal(t, int64(1), shared.TotalExecs.Load())
	assert.Zero(t, shared.SlowQueries.Load())
}

func TestSlowQueryLog(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	drv, mock := newMock(t, dialect.MySQL)
	stats := NewStatsDriver(drv, WithSlowThreshold(-1), WithSlowQueryLog(logger))

	mock.ExpectExec("DELETE FROM t").WillReturnResult(sqlmock.NewResult(0, 0))
	require.NoError(t, stats.Exec(context.Background(), "DELETE FROM t", []any{}, nil))
	assert.Contains(t, buf.String(), "slow query detected")
	assert.Contains(t, buf.String(), "DELETE FROM t")
}

func TestDebugDriver(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	drv, mock := newMock(t, dialect.MySQL)
	debug := NewDebugDriver(drv, logger)

	mock.ExpectQuery("SELECT 1").WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))
	mock.ExpectBegin()
	mock.ExpectExec("UPDATE t SET a = 1").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectRollback()

	rows := &Rows{}
	require.NoError(t, debug.Query(context.Background(), "SELECT 1", []any{}, rows))
	require.NoError(t, rows.Close())
	tx, err := debug.Tx(context.Background())
	require.NoError(t, err)
	require.NoError(t, tx.Exec(context.Background(), "UPDATE t SET a = 1", []any{}, nil))
	require.NoError(t, tx.Rollback())
	require.NoError(t, mock.ExpectationsWereMet())

	out := buf.String()
	assert.Contains(t, out, `msg=query sql="SELECT 1"`)
	assert.Contains(t, out, "begin transaction")
	assert.Contains(t, out, `msg="tx exec" sql="UPDATE t SET a = 1"`)
	assert.Contains(t, out, "rollback transaction")
}
