// Package output renders result rows and documents for the grid command.
package output

import (
	"fmt"
	"io"
	"sort"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/pterm/pterm"
	"github.com/vmihailenco/msgpack/v5"
	"gopkg.in/yaml.v3"
)

// Formats lists the supported output formats.
var Formats = []string{"table", "json", "yaml", "msgpack"}

// Encode writes v to w in format. The table format is not a document
// format and is rejected.
func Encode(w io.Writer, format string, v any) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	case "msgpack":
		enc := msgpack.NewEncoder(w)
		enc.SetSortMapKeys(true)
		return enc.Encode(v)
	default:
		return fmt.Errorf("output: unsupported format %q", format)
	}
}

// Rows writes rows to w in format. The table format prints one column per
// key, keys sorted, under a styled header row.
func Rows(w io.Writer, format string, rows []map[string]any) error {
	if format != "table" {
		if rows == nil {
			rows = []map[string]any{}
		}
		return Encode(w, format, rows)
	}
	cols := columns(rows)
	if len(cols) == 0 {
		_, err := fmt.Fprintln(w, "(no rows)")
		return err
	}
	data := pterm.TableData{cols}
	for _, r := range rows {
		cells := make([]string, len(cols))
		for i, c := range cols {
			cells[i] = cell(r[c])
		}
		data = append(data, cells)
	}
	out, err := pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
	if err != nil {
		return fmt.Errorf("output: render table: %w", err)
	}
	_, err = fmt.Fprintln(w, strings.TrimRight(out, "\n"))
	return err
}

func columns(rows []map[string]any) []string {
	seen := make(map[string]bool)
	var cols []string
	for _, r := range rows {
		for k := range r {
			if !seen[k] {
				seen[k] = true
				cols = append(cols, k)
			}
		}
	}
	sort.Strings(cols)
	return cols
}

func cell(v any) string {
	switch v := v.(type) {
	case nil:
		return "NULL"
	case []byte:
		return string(v)
	default:
		return fmt.Sprint(v)
	}
}
