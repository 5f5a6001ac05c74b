package dbcon

import (
	"context"
	"log/slog"

	"github.com/syssam/dbcon/config"
	"github.com/syssam/dbcon/dialect"
	"github.com/syssam/dbcon/dialect/sql"
)

// Opener establishes the connection of a DB. It is called by Connect,
// at most once per disconnected period.
type Opener func(ctx context.Context, cfg config.Config) (dialect.Driver, error)

// Option configures a DB.
type Option func(*DB)

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(d *DB) {
		if l != nil {
			d.log = l
		}
	}
}

// WithOpener replaces the default opener, which connects with the
// database/sql driver registered for the configured dialect.
func WithOpener(o Opener) Option {
	return func(d *DB) {
		if o != nil {
			d.open = o
		}
	}
}

// WithDriver makes the DB use an already established driver for its first
// connection. After Disconnect the driver is closed and Connect fails.
func WithDriver(drv dialect.Driver) Option {
	return WithOpener(func(context.Context, config.Config) (dialect.Driver, error) {
		if drv == nil {
			return nil, ErrNotConnected
		}
		d := drv
		drv = nil
		return d, nil
	})
}

// WithDebug logs every statement at debug level.
func WithDebug() Option {
	return func(d *DB) {
		d.debug = true
	}
}

// WithStats records statement counters into stats. The counters survive
// reconnects. Additional options tune slow query detection.
func WithStats(stats *sql.QueryStats, opts ...sql.StatsOption) Option {
	return func(d *DB) {
		if stats == nil {
			stats = &sql.QueryStats{}
		}
		d.stats = stats
		d.statsOpts = append(opts, sql.WithStats(stats))
	}
}

// instrument wraps a freshly opened driver according to the options.
func (d *DB) instrument(drv dialect.Driver) dialect.Driver {
	if d.debug {
		drv = sql.NewDebugDriver(drv, d.log)
	}
	if d.stats != nil {
		drv = sql.NewStatsDriver(drv, d.statsOpts...)
	}
	return drv
}
