// Package dialect provides the database dialect abstraction of dbcon.
//
// This package defines the interfaces the statement builder runs on and the
// rules that differ between backends: identifier quoting, value escaping and
// the statement that forces UTF-8 client encoding.
//
// # Supported Dialects
//
//   - MySQL: MySQL/MariaDB database
//   - Postgres: PostgreSQL database
//   - SQLite: SQLite database
//
// Each dialect is identified by a constant string:
//
//	dialect.MySQL    = "mysql"
//	dialect.Postgres = "postgres"
//	dialect.SQLite   = "sqlite"
//
// # Driver Interface
//
// A Driver is backed by exactly one connection:
//
//	type Driver interface {
//	    ExecQuerier
//	    Tx(ctx context.Context) (Tx, error)
//	    Close() error
//	    Dialect() string
//	}
//
// # Quoting
//
//	dialect.QuoteIdent(dialect.MySQL, "users")       // `users`
//	dialect.QuoteIdent(dialect.Postgres, "users")    // "users"
//	dialect.EscapeString(dialect.MySQL, "it's")      // it\'s
//	dialect.EscapeString(dialect.SQLite, "it's")     // it''s
//
// The dialect/sql sub-package implements Driver on top of database/sql.
package dialect
