package main

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/fatih/color"
	"github.com/pterm/pterm"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/syssam/grid"
	"github.com/syssam/grid/cmd/grid/internal/config"
	"github.com/syssam/grid/cmd/grid/internal/output"
	"github.com/syssam/grid/schema"
)

var (
	header  = color.New(color.FgCyan, color.Bold)
	success = color.New(color.FgGreen, color.Bold)
	warning = color.New(color.FgYellow)
	failure = color.New(color.FgRed, color.Bold)
)

// app carries what every command shares once the configuration is loaded.
type app struct {
	v       *viper.Viper
	cfgFile string
	cfg     *config.Config
	logger  *slog.Logger
	stdout  io.Writer
	stderr  io.Writer
}

// flagKeys maps persistent flag names to configuration keys.
var flagKeys = map[string]string{
	"schema":         "schema",
	"driver":         "driver",
	"dsn":            "dsn",
	"format":         "format",
	"debug":          "debug",
	"legacy-limit":   "legacy_limit",
	"slow-threshold": "slow_threshold",
}

func newRootCommand(stdout, stderr io.Writer) *cobra.Command {
	a := &app{v: viper.New(), stdout: stdout, stderr: stderr}
	root := &cobra.Command{
		Use:           "grid",
		Short:         "Compile and run grid queries",
		Long:          "grid builds SQL statements from a table, filters and field names resolved against a YAML schema.",
		Version:       fmt.Sprintf("%s (commit: %s)", Version, Commit),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return a.load()
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	pf := root.PersistentFlags()
	pf.StringVar(&a.cfgFile, "config", "", "config file (default is .grid.yaml)")
	pf.String("schema", "", "schema YAML file (default schema.yaml)")
	pf.String("driver", "", "database driver: mysql, sqlite or postgres (default mysql)")
	pf.String("dsn", "", "data source name (default $DATABASE_URL)")
	pf.StringP("format", "f", "", "output format: "+strings.Join(output.Formats, ", ")+" (default table)")
	pf.Bool("debug", false, "log every statement and print statement counters")
	pf.Bool("legacy-limit", false, "render limit with offset as LIMIT <offset>")
	pf.Duration("slow-threshold", 0, "log statements slower than this (default 200ms)")
	for name, key := range flagKeys {
		_ = a.v.BindPFlag(key, pf.Lookup(name))
	}

	root.AddCommand(newSQLCommand(a), newQueryCommand(a), newSchemaCommand(a))
	return root
}

func (a *app) load() error {
	cfg, err := config.Load(a.v, a.cfgFile)
	if err != nil {
		return err
	}
	a.cfg = cfg
	if color.NoColor {
		pterm.DisableColor()
	}
	a.logger = slog.New(slog.NewTextHandler(a.stderr, nil))
	return nil
}

// registry reads the configured schema.
func (a *app) registry() (*schema.Registry, error) {
	data, err := afero.ReadFile(config.AppFs, a.cfg.Schema)
	if err != nil {
		return nil, fmt.Errorf("read schema: %w", err)
	}
	defs, err := schema.Parse(data)
	if err != nil {
		return nil, err
	}
	return schema.Load(defs), nil
}

// gridOptions returns the options shared by the commands building a Grid.
func (a *app) gridOptions(reg *schema.Registry) []grid.Option {
	opts := []grid.Option{
		grid.WithSchema(reg),
		grid.WithDialect(a.cfg.Driver),
		grid.WithLogger(a.logger),
	}
	if a.cfg.LegacyLimit {
		opts = append(opts, grid.WithLegacyLimit())
	}
	return opts
}
