package grid

import (
	"errors"
	"sort"
	"strconv"
	"strings"

	"github.com/syssam/grid/dialect"
	"github.com/syssam/grid/dialect/sql"
	"github.com/syssam/grid/graph"
	"github.com/syssam/grid/querylanguage"
	"github.com/syssam/grid/schema"
)

// env resolves WHERE operands against a scope and renders literals.
type env struct {
	*graph.Scope
	sql.Wrapper
}

// scope returns the field scope of the selected table.
func (g *Grid) scope(assoc graph.Assoc) (*graph.Scope, error) {
	if g.st.table == "" {
		return nil, g.fail(NoTable, "", nil)
	}
	return graph.NewScope(g.Registry(), g.st.table, assoc), nil
}

// where compiles the filters of the query, or returns "" when there are
// none.
func (g *Grid) where(s *graph.Scope) (string, error) {
	w, err := querylanguage.Compile(g.st.where, g.st.args, env{Scope: s, Wrapper: g.wrapper()})
	switch {
	case errors.Is(err, querylanguage.ErrPlaceholderMismatch):
		return "", g.fail(PlaceholderMismatch, "", err)
	case err != nil:
		return "", g.fail(BadQuery, "", err)
	}
	return w, nil
}

// requireWhere refuses destructive statements without filters.
func (g *Grid) requireWhere() error {
	if len(g.st.where) == 0 {
		return g.fail(NoWhere, "", nil)
	}
	return nil
}

func lookup(s *graph.Scope, field string) string {
	if ref, ok := s.Lookup(field); ok {
		return ref
	}
	return field
}

// modifiers renders the WHERE and GROUP BY clauses shared by SELECT and
// COUNT.
func (g *Grid) modifiers(s *graph.Scope) (string, error) {
	var sb strings.Builder
	w, err := g.where(s)
	if err != nil {
		return "", err
	}
	if w != "" {
		sb.WriteString(" WHERE ")
		sb.WriteString(w)
	}
	if len(g.st.groupBy) > 0 {
		groups := make([]string, len(g.st.groupBy))
		for i, f := range g.st.groupBy {
			groups[i] = lookup(s, f)
		}
		sb.WriteString(" GROUP BY ")
		sb.WriteString(strings.Join(groups, ", "))
	}
	return sb.String(), nil
}

func (g *Grid) orderClause(s *graph.Scope) string {
	if len(g.st.orderBy) == 0 {
		return ""
	}
	items := make([]string, len(g.st.orderBy))
	for i, o := range g.st.orderBy {
		items[i] = lookup(s, o.field) + " " + o.dir
	}
	return " ORDER BY " + strings.Join(items, ", ")
}

// limitClause renders LIMIT:
//
//	limit only     LIMIT n
//	offset only    LIMIT off,<max rows of the dialect>
//	both           LIMIT off,n  (LIMIT off with WithLegacyLimit)
func (g *Grid) limitClause() string {
	limit, offset := g.st.limit, g.st.offset
	switch {
	case limit > 0 && offset > 0:
		if g.legacyLimit {
			return " LIMIT " + strconv.Itoa(offset)
		}
		return " LIMIT " + strconv.Itoa(offset) + "," + strconv.Itoa(limit)
	case limit > 0:
		return " LIMIT " + strconv.Itoa(limit)
	case offset > 0:
		return " LIMIT " + strconv.Itoa(offset) + "," + dialect.MaxRows(g.dialect)
	}
	return ""
}

func (g *Grid) buildSelect(fields []string) (string, error) {
	s, err := g.scope(g.st.assoc)
	if err != nil {
		return "", err
	}
	mods, err := g.modifiers(s)
	if err != nil {
		return "", err
	}
	projection := s.Select(fields...)
	if projection == "" {
		projection = "*"
	}
	return "SELECT " + projection + " FROM " + sql.Ident(s.Table()) + s.JoinClause() + mods + g.orderClause(s) + g.limitClause(), nil
}

func (g *Grid) buildCount() (string, error) {
	s, err := g.scope(g.st.assoc)
	if err != nil {
		return "", err
	}
	mods, err := g.modifiers(s)
	if err != nil {
		return "", err
	}
	return "SELECT COUNT(*) AS `count` FROM " + sql.Ident(s.Table()) + s.JoinClause() + mods, nil
}

func (g *Grid) buildUpdate(values Values) (string, error) {
	if err := g.requireWhere(); err != nil {
		return "", err
	}
	s, err := g.scope(g.st.assoc)
	if err != nil {
		return "", err
	}
	pairs := s.Assignments(values, g.wrapper())
	if len(pairs) == 0 {
		return "", g.fail(BadQuery, "", errors.New("no value matches a field of "+s.Table()))
	}
	w, err := g.where(s)
	if err != nil {
		return "", err
	}
	return "UPDATE " + sql.Ident(s.Table()) + s.JoinClause() + " SET " + strings.Join(pairs, ", ") + " WHERE " + w, nil
}

// deleteWhere returns the table and compiled filter of a DELETE. Only the
// fields of the table itself resolve, as DELETE carries no joins.
func (g *Grid) deleteWhere() (*graph.Scope, string, error) {
	if err := g.requireWhere(); err != nil {
		return nil, "", err
	}
	s, err := g.scope(graph.NoAssoc)
	if err != nil {
		return nil, "", err
	}
	w, err := g.where(s)
	if err != nil {
		return nil, "", err
	}
	return s, w, nil
}

func (g *Grid) buildDelete() (string, error) {
	s, w, err := g.deleteWhere()
	if err != nil {
		return "", err
	}
	return "DELETE FROM " + sql.Ident(s.Table()) + " WHERE " + w, nil
}

// scrubPlan holds the statements of a cascading delete.
type scrubPlan struct {
	table string
	// keys selects the parent key of each child join, in declaration
	// order.
	keys     []string
	children schema.Joins
	parent   string
}

// childDelete renders the DELETE of the child rows whose foreign key is
// in keys.
func childDelete(jn schema.Join, keys []any, w sql.Wrapper) string {
	return "DELETE FROM " + sql.Ident(jn.Table) + " WHERE " + sql.Column(jn.Table, jn.Foreign) + " IN " + w.Wrap(keys)
}

func (g *Grid) buildScrub() (*scrubPlan, error) {
	s, w, err := g.deleteWhere()
	if err != nil {
		return nil, err
	}
	table := s.Table()
	p := &scrubPlan{
		table:    table,
		children: g.Registry().Children(table),
		parent:   "DELETE FROM " + sql.Ident(table) + " WHERE " + w,
	}
	for _, jn := range p.children {
		p.keys = append(p.keys, "SELECT "+sql.Column(table, jn.Local)+" FROM "+sql.Ident(table)+" WHERE "+w)
	}
	return p, nil
}

func (g *Grid) buildInsert(values Values) (string, error) {
	if g.st.table == "" {
		return "", g.fail(NoTable, "", nil)
	}
	var (
		table = g.st.table
		reg   = g.Registry()
		w     = g.wrapper()
		cols  []string
		vals  []string
		seen  = make(map[string]bool)
	)
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		f := reg.FieldOf(table, k)
		if seen[f] {
			continue
		}
		seen[f] = true
		cols = append(cols, sql.Ident(f))
		vals = append(vals, w.Wrap(values[k]))
	}
	defaults := reg.Defaults(table)
	fields := make([]string, 0, len(defaults))
	for f := range defaults {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	for _, f := range fields {
		if seen[f] {
			continue
		}
		gen, ok := g.gens.Lookup(defaults[f])
		if !ok {
			continue
		}
		cols = append(cols, sql.Ident(f))
		vals = append(vals, w.Wrap(gen()))
	}
	if len(cols) == 0 {
		return "", g.fail(BadQuery, "", errors.New("nothing to insert into "+table))
	}
	return "INSERT INTO " + sql.Ident(table) + " (" + strings.Join(cols, ",") + ") VALUES (" + strings.Join(vals, ",") + ")", nil
}
