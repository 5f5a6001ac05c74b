// Package sql implements the dialect.Driver interface on top of database/sql.
//
// A Driver pins exactly one connection from the pool and runs every
// statement on it, so session state set after connecting (client charset,
// session variables, an open transaction) applies to all later statements.
//
// # Opening
//
//	drv, err := sql.Open(ctx, dialect.MySQL, "user:pass@tcp(localhost:3306)/app?charset=utf8")
//	if err != nil {
//	    return err
//	}
//	defer drv.Close()
//
// The "mysql", "postgres" and "sqlite" database/sql drivers are registered
// by importing this package.
//
// # Executing
//
//	var res sql.Result
//	err := drv.Exec(ctx, "DELETE FROM `users`", []any{}, &res)
//
//	rows := &sql.Rows{}
//	if err := drv.Query(ctx, "SELECT * FROM `users`", []any{}, rows); err != nil {
//	    return err
//	}
//	columns, records, err := sql.ScanMaps(rows)
//
// # Errors
//
// IsUniqueConstraintError, IsForeignKeyConstraintError and
// IsCheckConstraintError classify driver errors of the three supported
// drivers.
//
// # Instrumentation
//
// NewStatsDriver counts statements and detects slow ones; NewDebugDriver
// logs every statement through log/slog.
package sql
