// Package dialect defines the execution contract the query builder runs on.
//
// The builder in package grid compiles its state into SQL text with every
// literal already embedded, and hands that text to a Driver. A Driver is
// anything that can execute a statement, run a query, start a transaction
// and report its dialect name:
//
//	type Driver interface {
//	    Exec(ctx context.Context, query string, args, v any) error
//	    Query(ctx context.Context, query string, args, v any) error
//	    Tx(ctx context.Context) (Tx, error)
//	    Close() error
//	    Dialect() string
//	}
//
// # Dialect Constants
//
//	dialect.MySQL    = "mysql"
//	dialect.SQLite   = "sqlite"
//	dialect.Postgres = "postgres"
//
// The dialect name decides string escaping (see Escaper) and the "all rows"
// bound used by an offset-only LIMIT (see MaxRows).
//
// # Usage
//
//	import (
//	    "github.com/syssam/grid/dialect"
//	    "github.com/syssam/grid/dialect/sql"
//	)
//
//	drv, err := sql.Open(dialect.MySQL, "user:pass@tcp(localhost:3306)/shop")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer drv.Close()
//
// # Sub-packages
//
//   - dialect/sql: database/sql backed Driver, value wrapping, row scanning,
//     statistics and debug decorators, backend error classification
package dialect
