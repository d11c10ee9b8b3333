package sql

import (
	"testing"
	"time"

	"github.com/syssam/grid/dialect"
)

func BenchmarkEscape(b *testing.B) {
	for _, d := range []string{dialect.SQLite, dialect.MySQL, dialect.Postgres} {
		b.Run(d, func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				Escape(d, "O'Brien said \"hi\"\n")
			}
		})
	}
}

func BenchmarkWrap_Scalars(b *testing.B) {
	for _, d := range []string{dialect.SQLite, dialect.MySQL, dialect.Postgres} {
		w := NewWrapper(EscaperFor(d))
		created := time.Date(2009, 11, 10, 23, 0, 0, 0, time.UTC)
		b.Run(d, func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				w.Wrap(30)
				w.Wrap("42")
				w.Wrap("Ariel")
				w.Wrap(created)
				w.Wrap(nil)
			}
		})
	}
}

func BenchmarkWrap_Slice(b *testing.B) {
	for _, d := range []string{dialect.SQLite, dialect.MySQL, dialect.Postgres} {
		w := NewWrapper(EscaperFor(d))
		ids := []any{1, 2, 3, "a8m", "it's", 6, 7, 8}
		b.Run(d, func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				w.Wrap(ids)
			}
		})
	}
}
