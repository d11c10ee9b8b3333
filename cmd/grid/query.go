package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/syssam/grid"
	"github.com/syssam/grid/cmd/grid/internal/output"
	"github.com/syssam/grid/dialect"
	"github.com/syssam/grid/dialect/sql"
)

var runOps = []string{"select", "one", "count", "update", "delete", "scrub", "insert"}

func newQueryCommand(a *app) *cobra.Command {
	var (
		s      statement
		raw    string
		atomic bool
	)
	cmd := &cobra.Command{
		Use:   "query",
		Short: "Run a statement and print its result",
		Example: `  grid query --driver sqlite --dsn shop.db --table orders --order "created desc" --limit 10
  grid query --table customers --op scrub --filter "mail = ?" --arg bob@example.com --atomic
  grid query --raw "SELECT VERSION()"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if raw == "" && s.table == "" {
				return errors.New(`required flag "table" or "raw" not set`)
			}
			if err := checkOp(s.op, runOps); err != nil {
				return err
			}
			if a.cfg.DSN == "" {
				return errors.New("no data source name: set --dsn, GRID_DSN or DATABASE_URL")
			}
			reg, err := a.registry()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			drv, stats, err := a.open(ctx)
			if err != nil {
				return err
			}
			opts := a.gridOptions(reg)
			if atomic {
				opts = append(opts, grid.WithAtomicScrub())
			}
			g := grid.New(drv, opts...)
			defer g.Close()
			g.HideErrors()

			if raw != "" {
				rows, err := g.RawQuery(ctx, raw)
				if err != nil {
					return err
				}
				err = output.Rows(a.stdout, a.cfg.Format, rows)
				a.report(stats)
				return err
			}
			err = a.execute(ctx, g, &s)
			a.report(stats)
			return err
		},
	}
	s.register(cmd.Flags(), runOps)
	cmd.Flags().StringVar(&raw, "raw", "", "run this SQL verbatim instead of building a statement")
	cmd.Flags().BoolVar(&atomic, "atomic", false, "run scrub in one transaction")
	return cmd
}

// open connects to the configured database. Statements are counted and
// slow ones logged; with debug on, every statement is logged too.
func (a *app) open(ctx context.Context) (dialect.Driver, *sql.StatsDriver, error) {
	conn, err := sql.Open(a.cfg.Driver, a.cfg.DSN)
	if err != nil {
		return nil, nil, err
	}
	if err := conn.Ping(ctx); err != nil {
		conn.Close()
		return nil, nil, fmt.Errorf("connect: %w", err)
	}
	stats := sql.NewStatsDriver(conn,
		sql.WithSlowThreshold(a.cfg.SlowThreshold),
		sql.WithSlowLog(a.logger),
	)
	if a.cfg.Debug {
		return sql.NewDebugDriver(stats, sql.DebugWithLogger(a.logger)), stats, nil
	}
	return stats, stats, nil
}

func (a *app) execute(ctx context.Context, g *grid.Grid, s *statement) error {
	vals, err := s.values()
	if err != nil {
		return err
	}
	if err := s.apply(g); err != nil {
		return err
	}
	switch s.op {
	case "one":
		row, err := g.FetchOne(ctx, s.fields...)
		if err != nil {
			return err
		}
		return output.Rows(a.stdout, a.cfg.Format, []map[string]any{row})
	case "count":
		n, err := g.Count(ctx)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(a.stdout, n)
		return err
	case "update":
		return a.affected(g.Update(ctx, vals))
	case "delete":
		return a.affected(g.Delete(ctx))
	case "scrub":
		return a.affected(g.Scrub(ctx))
	case "insert":
		id, err := g.Insert(ctx, vals)
		if err != nil {
			return err
		}
		success.Fprintf(a.stdout, "inserted id %d\n", id)
		return nil
	default:
		rows, err := g.FetchAll(ctx, s.fields...)
		if err != nil {
			return err
		}
		return output.Rows(a.stdout, a.cfg.Format, rows)
	}
}

func (a *app) affected(n int64, err error) error {
	if err != nil {
		return err
	}
	success.Fprintf(a.stdout, "%d rows affected\n", n)
	return nil
}

// report prints the statement counters when debugging.
func (a *app) report(stats *sql.StatsDriver) {
	if a.cfg.Debug {
		fmt.Fprintln(a.stderr, stats.Counters().Snapshot())
	}
}
