// Package dbcon is a stateful SQL statement builder and executor bound to a
// single database connection.
//
// Clause methods accumulate escaped fragments on a DB. A terminal method
// assembles them into one statement, runs it on the connection (opened on
// first use) and clears the fragments it consumed:
//
//	db := dbcon.New(config.Config{
//	    Hostname: "localhost",
//	    Username: "app",
//	    Password: "secret",
//	    Database: "shop",
//	})
//	defer db.Close()
//
//	res, err := db.Select("id, name").Where("active", 1).Get(ctx, "users")
//	// SELECT `id`, `name` FROM `users` WHERE `active`= '1'
//
//	err = db.Insert(ctx, "users", map[string]any{"name": "Ann"})
//	// INSERT INTO `users` (`name`) VALUES ('Ann')
//	id := db.LastInsertID()
//
// # Consumed Fragments
//
// Get consumes every fragment. Query, Exec, Update and Delete append and
// consume only WHERE, ORDER BY and LIMIT; GROUP BY, JOIN, SELECT and UNION
// stay pending for a later Get. QueryWith and ExecWith take the set
// explicitly:
//
//	db.Where("id", 7).GroupBy("kind")
//	db.QueryWith(ctx, "SELECT kind, COUNT(*) FROM items", dbcon.ClauseWhere|dbcon.ClauseGroup)
//
// Invalid clause input such as an unknown ORDER BY direction is not
// rendered. It is reported by the next terminal call as an error matching
// ErrInvalidInput.
//
// # Transactions
//
// BeginTransaction switches the DB into transaction mode. Commit and
// Rollback finish the statements run so far while staying in that mode;
// EndTransaction commits and leaves it. Close rolls back whatever was not
// committed before disconnecting.
//
// A DB is not safe for concurrent use.
package dbcon
