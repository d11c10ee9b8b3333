package main

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"

	"github.com/syssam/grid"
)

// statement flags shared by the sql and query commands.
type statement struct {
	table   string
	fields  []string
	filters []string
	args    []string
	orders  []string
	groups  []string
	limit   int
	offset  int
	noRel   bool
	assoc   []string
	op      string
	set     []string
}

func (s *statement) register(fs *pflag.FlagSet, ops []string) {
	fs.StringVarP(&s.table, "table", "t", "", "table to query; name* joins nothing, name|a,b joins only a and b")
	fs.StringSliceVar(&s.fields, "fields", nil, "fields or aliases to select, e.g. id,amount or count(id)")
	fs.StringArrayVarP(&s.filters, "filter", "w", nil, "filter fragment with ? placeholders (repeatable, joined with AND)")
	fs.StringArrayVarP(&s.args, "arg", "a", nil, "placeholder argument (repeatable, bound in order)")
	fs.StringArrayVar(&s.orders, "order", nil, `sort key with optional direction, e.g. "amount desc" (repeatable)`)
	fs.StringArrayVar(&s.groups, "group", nil, "group by field (repeatable)")
	fs.IntVar(&s.limit, "limit", 0, "maximum number of rows")
	fs.IntVar(&s.offset, "offset", 0, "number of rows to skip")
	fs.BoolVar(&s.noRel, "no-rel", false, "join no associated table")
	fs.StringSliceVar(&s.assoc, "assoc", nil, "join only these associated tables")
	fs.StringVar(&s.op, "op", ops[0], "statement: "+strings.Join(ops, ", "))
	fs.StringArrayVar(&s.set, "set", nil, "field=value written by update and insert (repeatable)")
}

// values parses the --set pairs. NULL stands for a null value.
func (s *statement) values() (grid.Values, error) {
	vals := make(grid.Values, len(s.set))
	for _, kv := range s.set {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || strings.TrimSpace(k) == "" {
			return nil, fmt.Errorf("invalid --set %q: want field=value", kv)
		}
		if v == "NULL" {
			vals[strings.TrimSpace(k)] = nil
			continue
		}
		vals[strings.TrimSpace(k)] = v
	}
	return vals, nil
}

// apply configures g with the statement.
func (s *statement) apply(g *grid.Grid) error {
	if len(s.args) > 0 && len(s.filters) == 0 {
		return fmt.Errorf("--arg given without --filter")
	}
	g.Table(s.table)
	if s.noRel {
		g.NoRel()
	}
	if len(s.assoc) > 0 {
		g.Associations(s.assoc...)
	}
	args := make([]any, len(s.args))
	for i, a := range s.args {
		args[i] = a
	}
	for i, f := range s.filters {
		if i == 0 {
			g.Filter(f, args...)
			continue
		}
		g.Filter(f)
	}
	for _, o := range s.orders {
		field, dir, _ := strings.Cut(strings.TrimSpace(o), " ")
		g.OrderBy(field, strings.TrimSpace(dir))
	}
	for _, f := range s.groups {
		g.GroupBy(f)
	}
	if s.limit > 0 {
		g.Limit(s.limit)
	}
	if s.offset > 0 {
		g.Offset(s.offset)
	}
	return nil
}

func checkOp(op string, ops []string) error {
	for _, o := range ops {
		if o == op {
			return nil
		}
	}
	return fmt.Errorf("unknown --op %q: want one of %s", op, strings.Join(ops, ", "))
}
