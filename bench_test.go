package grid_test

import (
	"testing"

	"github.com/syssam/grid"
	"github.com/syssam/grid/dialect"
	"github.com/syssam/grid/schema"
)

func benchGrid(b *testing.B, d string) *grid.Grid {
	b.Helper()
	defs, err := schema.Parse([]byte(shop))
	if err != nil {
		b.Fatal(err)
	}
	return grid.New(nil, grid.WithSchema(schema.Load(defs)), grid.WithDialect(d), grid.WithLogger(quiet()))
}

func BenchmarkCompileSelect_Simple(b *testing.B) {
	for _, d := range []string{dialect.SQLite, dialect.MySQL} {
		g := benchGrid(b, d)
		b.Run(d, func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				if _, err := g.Table("customers").CompileSelect("id", "customer", "mail"); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

func BenchmarkCompileSelect_WithJoins(b *testing.B) {
	for _, d := range []string{dialect.SQLite, dialect.MySQL} {
		g := benchGrid(b, d)
		b.Run(d, func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				_, err := g.Table("orders").
					Filter("customer = ? AND amount > ?", "a8m", 10).
					OrderBy("created", "desc").
					Limit(10).
					CompileSelect("id", "amount", "customer")
				if err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

func BenchmarkCompileSelect_Complex(b *testing.B) {
	for _, d := range []string{dialect.SQLite, dialect.MySQL} {
		g := benchGrid(b, d)
		b.Run(d, func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				_, err := g.Table("orders").
					Filter("status = ? AND (amount > ? OR customer LIKE %?%)", "active", 18, "admin").
					Filter("id IN ?", []int{1, 2, 3}).
					GroupBy("customer_id").
					OrderBy("customer_id").
					Limit(10, 20).
					CompileSelect("count(id)", "customer_id")
				if err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

func BenchmarkCompileInsert(b *testing.B) {
	g := benchGrid(b, dialect.MySQL)
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		if _, err := g.Table("orders").CompileInsert(grid.Values{"customer_id": 2, "amount": 30, "status": "new"}); err != nil {
			b.Fatal(err)
		}
	}
}
