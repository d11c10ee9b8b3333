// Command grid compiles and runs queries against a YAML schema of tables,
// aliases and associations.
//
//	grid sql --table orders --filter "amount > ?" --arg 100 --fields id,amount
//	grid query --dsn "user:pass@tcp(localhost:3306)/shop" --table orders --limit 10
//	grid schema validate --schema shop.yaml
package main

import (
	"fmt"
	"os"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// Version information, set at build time.
var (
	Version = "dev"
	Commit  = "unknown"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	root := newRootCommand(os.Stdout, os.Stderr)
	root.SetArgs(args)
	return root.Execute()
}
