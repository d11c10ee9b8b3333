package grid

import (
	"strings"

	"github.com/syssam/grid/graph"
	"github.com/syssam/grid/schema"
)

// state is the query under construction.
type state struct {
	table   string
	assoc   graph.Assoc
	where   []string
	args    []any
	orderBy []order
	groupBy []string
	limit   int
	offset  int
}

type order struct {
	field string
	dir   string
}

func (s *state) reset() {
	*s = state{assoc: graph.AllAssoc}
}

// Table selects the table statements run against. The name may carry a
// suffix: "orders*" joins no associations, "orders|customers,notes" joins
// only the listed ones. An unknown table is recorded as an error and
// clears the query.
func (g *Grid) Table(name string) *Grid {
	name = strings.TrimSpace(name)
	if base, ok := strings.CutSuffix(name, "*"); ok {
		name = base
		g.st.assoc = graph.NoAssoc
	}
	if base, tables, ok := strings.Cut(name, "|"); ok {
		name = base
		g.st.assoc = graph.OnlyAssoc(schema.SplitList(tables)...)
	}
	if !g.Registry().Has(name) {
		g.fail(UnknownTable, "", nil)
		g.st.reset()
		return g
	}
	g.st.table = name
	return g
}

// From is an alias for Table.
func (g *Grid) From(name string) *Grid {
	return g.Table(name)
}

// Filter adds a condition. Conditions are joined with AND. Each ? in
// fragment consumes one of args, in order:
//
//	g.Table("users").Filter("age > ? AND name LIKE %?%", 30, "bo")
//
// A blank fragment adds no condition and does not count as a filter for
// Update, Delete and Scrub.
func (g *Grid) Filter(fragment string, args ...any) *Grid {
	if strings.TrimSpace(fragment) != "" {
		g.st.where = append(g.st.where, fragment)
	}
	g.st.args = append(g.st.args, args...)
	return g
}

// Where is an alias for Filter.
func (g *Grid) Where(fragment string, args ...any) *Grid {
	return g.Filter(fragment, args...)
}

// OrderBy sorts by field, ascending unless dir says otherwise.
func (g *Grid) OrderBy(field string, dir ...string) *Grid {
	d := "ASC"
	if len(dir) > 0 && dir[0] != "" {
		d = graph.Upper(dir[0])
	}
	g.st.orderBy = append(g.st.orderBy, order{field: field, dir: d})
	return g
}

// GroupBy groups by field.
func (g *Grid) GroupBy(field string) *Grid {
	g.st.groupBy = append(g.st.groupBy, field)
	return g
}

// Limit caps the number of rows. A non-zero offset may be given too.
func (g *Grid) Limit(n int, offset ...int) *Grid {
	g.st.limit = n
	if len(offset) > 0 && offset[0] != 0 {
		g.st.offset = offset[0]
	}
	return g
}

// Offset skips the first n rows.
func (g *Grid) Offset(n int) *Grid {
	g.st.offset = n
	return g
}

// SuppressAssociations joins no associated table.
func (g *Grid) SuppressAssociations() *Grid {
	g.st.assoc = graph.NoAssoc
	return g
}

// NoRel is an alias for SuppressAssociations.
func (g *Grid) NoRel() *Grid {
	return g.SuppressAssociations()
}

// Associations joins only the listed associated tables.
func (g *Grid) Associations(tables ...string) *Grid {
	g.st.assoc = graph.OnlyAssoc(tables...)
	return g
}
