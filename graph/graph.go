package graph

import (
	"regexp"
	"slices"
	"sort"
	"strings"

	"github.com/syssam/grid/dialect/sql"
	"github.com/syssam/grid/schema"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Assoc selects which declared associations of a table are joined.
type Assoc struct {
	none   bool
	tables []string
}

var (
	// AllAssoc joins every declared association. It is the zero value.
	AllAssoc = Assoc{}
	// NoAssoc joins nothing.
	NoAssoc = Assoc{none: true}
)

// OnlyAssoc joins the named associations. Names the table does not
// declare are ignored, so OnlyAssoc() joins nothing.
func OnlyAssoc(tables ...string) Assoc {
	return Assoc{tables: append([]string{}, tables...)}
}

// IsNone reports whether no association is joined.
func (a Assoc) IsNone() bool { return a.none }

// Explicit returns the named tables of an OnlyAssoc mode.
func (a Assoc) Explicit() []string { return a.tables }

// filter returns the declared joins this mode keeps, in declaration order.
func (a Assoc) filter(joins schema.Joins) schema.Joins {
	switch {
	case a.none:
		return nil
	case a.tables == nil:
		return joins
	}
	var out schema.Joins
	for _, jn := range joins {
		if slices.Contains(a.tables, jn.Table) {
			out = append(out, jn)
		}
	}
	return out
}

// aggregateRe matches "func(field)".
var aggregateRe = regexp.MustCompile(`(?i)^([a-z_]+)\(([a-z0-9_]+)\)$`)

// Field is a requested name resolved to its table and column.
type Field struct {
	Table     string
	Column    string
	Requested string
	// Aggregate is the upper-cased function name of "func(field)" requests.
	Aggregate string
	// Aliases are the output names the field is projected under.
	Aliases []string
}

// Qualified returns the `table`.`column` reference of f.
func (f Field) Qualified() string {
	return sql.Column(f.Table, f.Column)
}

// Scope resolves field names for one table and its active associations.
type Scope struct {
	reg        *schema.Registry
	table      string
	joins      schema.Joins
	candidates []schema.Column
}

// NewScope returns the scope of table. The candidate fields are the
// fields of table followed by those of every joined table, in declaration
// order; the first candidate matching a name wins.
func NewScope(reg *schema.Registry, table string, assoc Assoc) *Scope {
	s := &Scope{
		reg:   reg,
		table: table,
		joins: assoc.filter(reg.Assoc(table)),
	}
	s.candidates = slices.Clone(reg.Columns(table))
	for _, jn := range s.joins {
		s.candidates = append(s.candidates, reg.Columns(jn.Table)...)
	}
	return s
}

// Table returns the primary table of the scope.
func (s *Scope) Table() string { return s.table }

// Joins returns the joined associations.
func (s *Scope) Joins() schema.Joins { return s.joins }

// JoinClause renders the LEFT JOINs of the scope, each with a leading space.
func (s *Scope) JoinClause() string {
	var sb strings.Builder
	for _, jn := range s.joins {
		sb.WriteString(" LEFT JOIN ")
		sb.WriteString(sql.Ident(jn.Table))
		sb.WriteString(" ON ")
		sb.WriteString(sql.Column(s.table, jn.Local))
		sb.WriteString(" = ")
		sb.WriteString(sql.Column(jn.Table, jn.Foreign))
	}
	return sb.String()
}

// match resolves one requested name.
func (s *Scope) match(name string) (Field, bool) {
	name = strings.TrimSpace(name)
	f := Field{Requested: name}
	if m := aggregateRe.FindStringSubmatch(name); m != nil {
		f.Aggregate, name = Upper(m[1]), m[2]
	}
	table, field, qualified := strings.Cut(name, ".")
	if !qualified {
		field = name
	}
	for _, c := range s.candidates {
		if qualified && c.Table != table {
			continue
		}
		if c.Field == s.reg.FieldOf(c.Table, field) {
			f.Table, f.Column = c.Table, c.Field
			return f, true
		}
	}
	return Field{}, false
}

// Lookup resolves name, a field or alias of the scope optionally written
// as "table.field" or wrapped in an aggregate like "count(id)", to a
// quoted column reference.
func (s *Scope) Lookup(name string) (string, bool) {
	f, ok := s.match(name)
	if !ok {
		return "", false
	}
	if f.Aggregate != "" {
		return f.Aggregate + "(" + f.Qualified() + ")", true
	}
	return f.Qualified(), true
}

// Qualified resolves "table.field" against every table of the registry,
// joined or not.
func (s *Scope) Qualified(name string) (string, bool) {
	table, field, ok := strings.Cut(name, ".")
	if !ok || !s.reg.HasField(table, field) {
		return "", false
	}
	return sql.Column(table, s.reg.FieldOf(table, field)), true
}

// Resolve returns the fields matching names. A name may list several
// fields separated by commas. When nothing matches, every candidate field
// is returned. Each field carries the output names it is projected under:
// "table.field", then "field" unless an earlier field claimed it, then
// "table.alias" and "alias" likewise for the field's alias.
func (s *Scope) Resolve(names ...string) []Field {
	var fields []Field
	for _, n := range names {
		for _, name := range schema.SplitList(n) {
			if f, ok := s.match(name); ok {
				fields = append(fields, f)
			}
		}
	}
	if len(fields) == 0 {
		fields = make([]Field, len(s.candidates))
		for i, c := range s.candidates {
			fields[i] = Field{Table: c.Table, Column: c.Field, Requested: c.Field}
		}
	}
	taken := make(map[string]bool)
	for i := range fields {
		f := &fields[i]
		f.Aliases = append(f.Aliases, f.Table+"."+f.Column)
		if !taken[f.Column] {
			taken[f.Column] = true
			f.Aliases = append(f.Aliases, f.Column)
		}
		if alias := s.reg.AliasOf(f.Table, f.Column); alias != "" {
			f.Aliases = append(f.Aliases, f.Table+"."+alias)
			if !taken[alias] {
				taken[alias] = true
				f.Aliases = append(f.Aliases, alias)
			}
		}
	}
	return fields
}

// Select renders the projection of names. Every field is emitted once per
// output name; aggregates are emitted once, named after the function.
//
//	`orders`.`id` AS `orders.id`, `orders`.`id` AS `id`, COUNT(`orders`.`id`) AS `count`
func (s *Scope) Select(names ...string) string {
	var parts []string
	for _, f := range s.Resolve(names...) {
		if f.Aggregate != "" {
			parts = append(parts, f.Aggregate+"("+f.Qualified()+") AS "+sql.Ident(strings.ToLower(f.Aggregate)))
			continue
		}
		for _, a := range f.Aliases {
			parts = append(parts, f.Qualified()+" AS "+sql.Ident(a))
		}
	}
	return strings.Join(parts, ", ")
}

// Wrapper renders literal values.
type Wrapper interface {
	Wrap(v any) string
}

// Assignments renders the `table`.`field`=value pairs of an UPDATE for
// the keys of values that resolve, in sorted key order.
func (s *Scope) Assignments(values map[string]any, w Wrapper) []string {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var pairs []string
	for _, k := range keys {
		f, ok := s.match(k)
		if !ok || f.Aggregate != "" {
			continue
		}
		pairs = append(pairs, f.Qualified()+"="+w.Wrap(values[k]))
	}
	return pairs
}

// Upper upper-cases SQL keywords such as function names and sort
// directions.
func Upper(s string) string {
	return cases.Upper(language.Und).String(s)
}
