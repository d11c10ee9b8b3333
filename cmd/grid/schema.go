package main

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/syssam/grid/cmd/grid/internal/output"
	"github.com/syssam/grid/schema"
)

func newSchemaCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Inspect the schema",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "validate",
			Short: "Check aliases, joins and defaults of the schema",
			Args:  cobra.NoArgs,
			RunE: func(*cobra.Command, []string) error {
				reg, err := a.registry()
				if err != nil {
					return err
				}
				res := schema.Validate(reg, schema.CheckGenerators(schema.NewGenerators()))
				printValidation(a.stdout, res)
				return res.Err()
			},
		},
		&cobra.Command{
			Use:   "show [table...]",
			Short: "Print the tables of the schema",
			RunE: func(_ *cobra.Command, args []string) error {
				reg, err := a.registry()
				if err != nil {
					return err
				}
				names := args
				if len(names) == 0 {
					names = reg.Tables()
				}
				tables := make(schema.Definitions, len(names))
				for _, n := range names {
					t, ok := reg.Table(n)
					if !ok {
						return fmt.Errorf("unknown table %q", n)
					}
					tables[n] = t
				}
				if a.cfg.Format != "table" {
					return output.Encode(a.stdout, a.cfg.Format, tables)
				}
				for i, n := range names {
					if i > 0 {
						fmt.Fprintln(a.stdout)
					}
					printTable(a.stdout, tables[n])
				}
				return nil
			},
		},
	)
	return cmd
}

func printValidation(w io.Writer, res *schema.ValidationResult) {
	for _, e := range res.Errors {
		failure.Fprint(w, "error   ")
		fmt.Fprintln(w, e.Error())
	}
	for _, e := range res.Warnings {
		warning.Fprint(w, "warning ")
		fmt.Fprintln(w, e.Error())
	}
	if !res.HasErrors() && !res.HasWarnings() {
		success.Fprintln(w, "No issues found")
	}
}

func printTable(w io.Writer, t *schema.Table) {
	header.Fprintln(w, t.Name)
	fmt.Fprintf(w, "  fields    %s\n", strings.Join(t.Fields, ", "))
	if len(t.Alias) > 0 {
		fmt.Fprintf(w, "  alias     %s\n", pairs(t.Alias, " -> "))
	}
	for _, jn := range t.Assoc {
		fmt.Fprintf(w, "  assoc     %s ON %s = %s.%s\n", jn.Table, jn.Local, jn.Table, jn.Foreign)
	}
	for _, jn := range t.Children {
		fmt.Fprintf(w, "  children  %s ON %s = %s.%s\n", jn.Table, jn.Local, jn.Table, jn.Foreign)
	}
	if len(t.Defaults) > 0 {
		fmt.Fprintf(w, "  defaults  %s\n", pairs(t.Defaults, ": "))
	}
}

// pairs renders m sorted by key.
func pairs(m map[string]string, sep string) string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]string, len(keys))
	for i, k := range keys {
		out[i] = k + sep + m[k]
	}
	return strings.Join(out, ", ")
}
