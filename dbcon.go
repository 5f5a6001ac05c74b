package dbcon

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/syssam/dbcon/config"
	"github.com/syssam/dbcon/dialect"
	"github.com/syssam/dbcon/dialect/sql"
)

// DB is a statement builder bound to one database connection.
//
// Clause methods (Select, Join, Where, ...) accumulate fragments on the DB;
// a terminal method (Get, Query, Exec, Insert, Update, Delete) assembles
// one statement from them, runs it and clears the fragments it consumed.
// The connection is opened on first use. A DB is not safe for concurrent
// use; callers that need parallelism use one DB per goroutine.
type DB struct {
	cfg     config.Config
	dialect string
	open    Opener
	log     *slog.Logger
	session uuid.UUID

	debug     bool
	stats     *sql.QueryStats
	statsOpts []sql.StatsOption

	drv  dialect.Driver
	tx   dialect.Tx
	inTx bool

	lastQuery    string
	lastErr      error
	lastInsertID int64
	rowsAffected int64

	clauses
}

// New returns a disconnected DB for the given credentials.
func New(cfg config.Config, opts ...Option) *DB {
	d := &DB{
		cfg:     cfg,
		dialect: cfg.Dialect,
		open:    openDriver,
		log:     slog.Default(),
		session: uuid.New(),
	}
	if d.dialect == "" {
		d.dialect = dialect.MySQL
	}
	for _, opt := range opts {
		opt(d)
	}
	d.log = d.log.With("session", d.session.String(), "dialect", d.dialect)
	return d
}

// openDriver is the default Opener.
func openDriver(ctx context.Context, cfg config.Config) (dialect.Driver, error) {
	name := cfg.Dialect
	if name == "" {
		name = dialect.MySQL
	}
	return sql.Open(ctx, name, cfg.DSN())
}

// Dialect returns the dialect used for quoting and escaping.
func (d *DB) Dialect() string { return d.dialect }

// Session returns the id attached to every log record of this DB.
func (d *DB) Session() uuid.UUID { return d.session }

// LastQuery returns the most recently executed statement.
func (d *DB) LastQuery() string { return d.lastQuery }

// LastError returns the driver error of the most recent failed operation,
// or nil if it succeeded.
func (d *DB) LastError() error { return d.lastErr }

// LastInsertID returns the id generated by the most recent statement run
// through Exec, Insert, Update or Delete. Dialects without LAST_INSERT_ID
// support report 0.
func (d *DB) LastInsertID() int64 { return d.lastInsertID }

// RowsAffected returns the number of rows changed by the most recent
// non-result statement.
func (d *DB) RowsAffected() int64 { return d.rowsAffected }

// Stats returns a snapshot of the statement counters, or false if the DB
// was created without WithStats.
func (d *DB) Stats() (sql.StatsSnapshot, bool) {
	if d.stats == nil {
		return sql.StatsSnapshot{}, false
	}
	return d.stats.Stats(), true
}
