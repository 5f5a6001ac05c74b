package sql

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"maps"
	"regexp"
	"slices"
	"strings"

	// Registers the "mysql" driver.
	_ "github.com/go-sql-driver/mysql"
	// Registers the "postgres" driver.
	_ "github.com/lib/pq"
	// Registers the "sqlite" driver.
	_ "modernc.org/sqlite"

	"github.com/syssam/dbcon/dialect"
)

// validIdentifierRe validates SQL identifiers (alphanumeric, underscores, dots for schema.name)
var validIdentifierRe = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_.]*$`)

// IsValidIdentifier checks if the string is a valid SQL identifier.
func IsValidIdentifier(s string) bool {
	return s != "" && len(s) <= 128 && validIdentifierRe.MatchString(s)
}

// Driver is a dialect.Driver implementation for SQL based databases.
// All statements run on one connection taken from the pool at open time,
// so session state (charset, variables, transactions) is kept between calls.
type Driver struct {
	Conn
	dialect string
	db      *sql.DB
	conn    *sql.Conn
}

// Open opens a pool for the dialect's registered driver and pins one connection.
// The returned Driver owns the pool and closes it in Close.
func Open(ctx context.Context, dialect, source string) (*Driver, error) {
	db, err := sql.Open(dialect, source)
	if err != nil {
		return nil, fmt.Errorf("dialect/sql: open: %w", err)
	}
	drv, err := OpenDB(ctx, dialect, db)
	if err != nil {
		return nil, errors.Join(err, db.Close())
	}
	return drv, nil
}

// OpenDB pins one connection of the given database/sql.DB and wraps it with a Driver.
// The Driver takes ownership of db.
func OpenDB(ctx context.Context, dialect string, db *sql.DB) (*Driver, error) {
	conn, err := db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("dialect/sql: connect: %w", err)
	}
	return &Driver{
		Conn:    Conn{conn, dialect},
		dialect: dialect,
		db:      db,
		conn:    conn,
	}, nil
}

// DB returns the underlying *sql.DB instance.
func (d *Driver) DB() *sql.DB {
	return d.db
}

// Dialect implements the dialect.Dialect method.
func (d *Driver) Dialect() string {
	// If the underlying driver is wrapped with a telemetry driver.
	for _, name := range []string{dialect.MySQL, dialect.SQLite, dialect.Postgres} {
		if strings.HasPrefix(d.dialect, name) {
			return name
		}
	}
	return d.dialect
}

// Tx starts and returns a transaction.
func (d *Driver) Tx(ctx context.Context) (dialect.Tx, error) {
	return d.BeginTx(ctx, nil)
}

// BeginTx starts a transaction with options.
func (d *Driver) BeginTx(ctx context.Context, opts *TxOptions) (dialect.Tx, error) {
	tx, err := d.conn.BeginTx(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("dialect/sql: begin: %w", err)
	}
	return &Tx{
		Conn: Conn{tx, d.dialect},
		Tx:   tx,
	}, nil
}

// SetVars sets session variables on the pinned connection. Names are
// validated as identifiers and values are escaped for the dialect.
func (d *Driver) SetVars(ctx context.Context, vars map[string]string) error {
	for _, k := range slices.Sorted(maps.Keys(vars)) {
		if !IsValidIdentifier(k) {
			return fmt.Errorf("dialect/sql: invalid session variable name: %q", k)
		}
		q := fmt.Sprintf("SET %s = '%s'", k, dialect.EscapeString(d.dialect, vars[k]))
		if _, err := d.conn.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("dialect/sql: set session variable %s: %w", k, err)
		}
	}
	return nil
}

// Close returns the pinned connection and closes the pool.
func (d *Driver) Close() error {
	return errors.Join(d.conn.Close(), d.db.Close())
}

// Tx implements dialect.Tx interface.
type Tx struct {
	Conn
	driver.Tx
}

// ExecQuerier wraps the standard Exec and Query methods.
type ExecQuerier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// Conn implements dialect.ExecQuerier given ExecQuerier.
type Conn struct {
	ExecQuerier
	dialect string
}

// Exec implements the dialect.Exec method.
func (c Conn) Exec(ctx context.Context, query string, args, v any) error {
	argv, ok := args.([]any)
	if !ok {
		return fmt.Errorf("dialect/sql: invalid type %T. expect []any for args", args)
	}
	switch v := v.(type) {
	case nil:
		if _, err := c.ExecContext(ctx, query, argv...); err != nil {
			return fmt.Errorf("dialect/sql: exec: %w", err)
		}
	case *sql.Result:
		res, err := c.ExecContext(ctx, query, argv...)
		if err != nil {
			return fmt.Errorf("dialect/sql: exec: %w", err)
		}
		*v = res
	default:
		return fmt.Errorf("dialect/sql: invalid type %T. expect *sql.Result", v)
	}
	return nil
}

// Query implements the dialect.Query method.
func (c Conn) Query(ctx context.Context, query string, args, v any) error {
	vr, ok := v.(*Rows)
	if !ok {
		return fmt.Errorf("dialect/sql: invalid type %T. expect *sql.Rows", v)
	}
	argv, ok := args.([]any)
	if !ok {
		return fmt.Errorf("dialect/sql: invalid type %T. expect []any for args", args)
	}
	rows, err := c.QueryContext(ctx, query, argv...)
	if err != nil {
		return fmt.Errorf("dialect/sql: query: %w", err)
	}
	*vr = Rows{rows}
	return nil
}

var _ dialect.Driver = (*Driver)(nil)

type (
	// Rows wraps the sql.Rows to avoid locks copy.
	Rows struct{ ColumnScanner }
	// Result is an alias to sql.Result.
	Result = sql.Result
	// TxOptions holds the transaction options to be used in DB.BeginTx.
	TxOptions = sql.TxOptions
)

// ColumnScanner is the interface that wraps the standard
// sql.Rows methods used for scanning database rows.
type ColumnScanner interface {
	Close() error
	ColumnTypes() ([]*sql.ColumnType, error)
	Columns() ([]string, error)
	Err() error
	Next() bool
	NextResultSet() bool
	Scan(dest ...any) error
}

// ScanMaps reads every remaining row of rs into column-name keyed maps and
// closes rs. []byte values are copied into strings.
func ScanMaps(rs ColumnScanner) (columns []string, rows []map[string]any, err error) {
	defer func() { err = errors.Join(err, rs.Close()) }()
	columns, err = rs.Columns()
	if err != nil {
		return nil, nil, fmt.Errorf("dialect/sql: columns: %w", err)
	}
	for rs.Next() {
		values := make([]any, len(columns))
		dest := make([]any, len(columns))
		for i := range values {
			dest[i] = &values[i]
		}
		if err := rs.Scan(dest...); err != nil {
			return nil, nil, fmt.Errorf("dialect/sql: scan: %w", err)
		}
		row := make(map[string]any, len(columns))
		for i, c := range columns {
			if b, ok := values[i].([]byte); ok {
				row[c] = string(b)
				continue
			}
			row[c] = values[i]
		}
		rows = append(rows, row)
	}
	if err := rs.Err(); err != nil {
		return nil, nil, fmt.Errorf("dialect/sql: rows: %w", err)
	}
	return columns, rows, nil
}
