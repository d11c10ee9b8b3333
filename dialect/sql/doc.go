// Package sql implements dialect.Driver on top of database/sql and holds the
// primitives the query builder needs to turn Go values into SQL text.
//
// # Driver
//
// Driver wraps a *sql.DB. Statements are executed with Exec, which scans a
// Result, and Query, which fills a *Rows:
//
//	drv, err := sql.Open(dialect.MySQL, dsn)
//	var res sql.Result
//	err = drv.Exec(ctx, "DELETE FROM `users` WHERE `users`.`id` = 5", []any{}, &res)
//
//	rows := &sql.Rows{}
//	err = drv.Query(ctx, "SELECT * FROM `users`", []any{}, rows)
//	maps, err := sql.ScanMaps(rows)
//
// # Values
//
// Wrapper renders Go values as literals. Strings are escaped with the rules
// of the driver's dialect (see Escape) before being quoted:
//
//	w := sql.NewWrapper(drv)
//	w.Wrap(nil)            // NULL
//	w.Wrap(true)           // 1
//	w.Wrap("42")           // 42
//	w.Wrap([]any{1, "a"})  // (1,'a')
//	w.Wrap("O'Brien")      // 'O\'Brien' on MySQL, 'O''Brien' elsewhere
//
// # Decorators
//
// StatsDriver counts statements and reports slow ones, DebugDriver logs
// every statement through log/slog. Both wrap any dialect.Driver and keep
// the Escape behavior of the driver they wrap.
//
// # Errors
//
// Classify maps MySQL, PostgreSQL and SQLite driver errors to the
// constraint they violated.
package sql
