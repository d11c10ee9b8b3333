package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/syssam/grid"
)

var compileOps = []string{"select", "count", "update", "delete", "insert"}

func newSQLCommand(a *app) *cobra.Command {
	var s statement
	cmd := &cobra.Command{
		Use:   "sql",
		Short: "Print the SQL of a statement without running it",
		Example: `  grid sql --table orders --filter "amount > ? AND customer LIKE %?%" --arg 100 --arg bob --fields id,amount
  grid sql --table orders --op update --filter "id = ?" --arg 7 --set status=paid`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := checkOp(s.op, compileOps); err != nil {
				return err
			}
			reg, err := a.registry()
			if err != nil {
				return err
			}
			g := grid.New(nil, a.gridOptions(reg)...)
			g.HideErrors()
			q, err := compile(g, &s)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(a.stdout, q)
			return err
		},
	}
	s.register(cmd.Flags(), compileOps)
	_ = cmd.MarkFlagRequired("table")
	return cmd
}

func compile(g *grid.Grid, s *statement) (string, error) {
	vals, err := s.values()
	if err != nil {
		return "", err
	}
	if err := s.apply(g); err != nil {
		return "", err
	}
	switch s.op {
	case "count":
		return g.CompileCount()
	case "update":
		return g.CompileUpdate(vals)
	case "delete":
		return g.CompileDelete()
	case "insert":
		return g.CompileInsert(vals)
	default:
		return g.CompileSelect(s.fields...)
	}
}
