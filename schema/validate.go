package schema

import (
	"fmt"
	"regexp"
	"slices"
	"sort"
	"strings"
)

// identRe matches names that can be quoted as identifiers without surprises.
var identRe = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

func isIdent(s string) bool {
	return len(s) <= 64 && identRe.MatchString(s)
}

// ValidationError represents one schema problem.
type ValidationError struct {
	Table   string
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s.%s: %s", e.Table, e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Table, e.Message)
}

// ValidationResult holds the results of schema validation.
type ValidationResult struct {
	Errors   []*ValidationError
	Warnings []*ValidationError
}

// HasErrors returns true if there are any validation errors.
func (r *ValidationResult) HasErrors() bool {
	return len(r.Errors) > 0
}

// HasWarnings returns true if there are any validation warnings.
func (r *ValidationResult) HasWarnings() bool {
	return len(r.Warnings) > 0
}

// Err returns the errors joined into one, or nil.
func (r *ValidationResult) Err() error {
	if !r.HasErrors() {
		return nil
	}
	msgs := make([]string, len(r.Errors))
	for i, e := range r.Errors {
		msgs[i] = e.Error()
	}
	return fmt.Errorf("schema: invalid: %s", strings.Join(msgs, "; "))
}

// String returns a human-readable summary of the validation result.
func (r *ValidationResult) String() string {
	var sb strings.Builder
	if len(r.Errors) > 0 {
		sb.WriteString("Errors:\n")
		for _, e := range r.Errors {
			sb.WriteString("  - ")
			sb.WriteString(e.Error())
			sb.WriteString("\n")
		}
	}
	if len(r.Warnings) > 0 {
		sb.WriteString("Warnings:\n")
		for _, w := range r.Warnings {
			sb.WriteString("  - ")
			sb.WriteString(w.Error())
			sb.WriteString("\n")
		}
	}
	if !r.HasErrors() && !r.HasWarnings() {
		sb.WriteString("No issues found")
	}
	return sb.String()
}

func (r *ValidationResult) errorf(table, field, format string, args ...any) {
	r.Errors = append(r.Errors, &ValidationError{Table: table, Field: field, Message: fmt.Sprintf(format, args...)})
}

func (r *ValidationResult) warnf(table, field, format string, args ...any) {
	r.Warnings = append(r.Warnings, &ValidationError{Table: table, Field: field, Message: fmt.Sprintf(format, args...)})
}

// ValidateOption configures schema validation.
type ValidateOption func(*validateConfig)

type validateConfig struct {
	generators *Generators
}

// CheckGenerators makes Validate warn about defaults naming a generator
// that is not registered in g.
func CheckGenerators(g *Generators) ValidateOption {
	return func(c *validateConfig) {
		c.generators = g
	}
}

// Validate checks the references a registry holds: alias targets, join
// tables and keys, and default fields. Nothing else in the module relies
// on it; unresolved references otherwise surface as unresolved fields at
// query time.
//
//	reg, _ := schema.LoadFile("schema.yaml")
//	if res := schema.Validate(reg, schema.CheckGenerators(gens)); res.HasErrors() {
//	    log.Fatal(res)
//	}
func Validate(reg *Registry, opts ...ValidateOption) *ValidationResult {
	cfg := &validateConfig{}
	for _, opt := range opts {
		opt(cfg)
	}
	result := &ValidationResult{}
	for _, name := range reg.Tables() {
		t, _ := reg.Table(name)
		validateTable(reg, t, cfg, result)
	}
	return result
}

func validateTable(reg *Registry, t *Table, cfg *validateConfig, result *ValidationResult) {
	if !isIdent(t.Name) {
		result.errorf(t.Name, "", "invalid table name")
	}
	if len(t.Fields) == 0 {
		result.warnf(t.Name, "", "table declares no fields")
	}
	seen := make(map[string]bool, len(t.Fields))
	for _, f := range t.Fields {
		if seen[f] {
			result.errorf(t.Name, f, "duplicate field name")
		}
		seen[f] = true
		if !isIdent(f) {
			result.errorf(t.Name, f, "invalid field name")
		}
	}

	aliases := make([]string, 0, len(t.Alias))
	for a := range t.Alias {
		aliases = append(aliases, a)
	}
	sort.Strings(aliases)
	targets := make(map[string]string, len(aliases))
	for _, a := range aliases {
		f := t.Alias[a]
		if !seen[f] {
			result.errorf(t.Name, a, "alias targets unknown field %q", f)
			continue
		}
		if seen[a] && a != f {
			result.errorf(t.Name, a, "alias shadows field %q", a)
		}
		if prev, ok := targets[f]; ok {
			result.warnf(t.Name, f, "field has aliases %q and %q; only %q is projected", prev, a, prev)
			continue
		}
		targets[f] = a
	}

	validateJoins(reg, t, t.Assoc, "association", result)
	validateJoins(reg, t, t.Children, "child", result)

	fields := make([]string, 0, len(t.Defaults))
	for f := range t.Defaults {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	for _, f := range fields {
		if !slices.Contains(t.Fields, reg.FieldOf(t.Name, f)) {
			result.warnf(t.Name, f, "default for unknown field")
		}
		if cfg.generators == nil {
			continue
		}
		if _, ok := cfg.generators.Lookup(t.Defaults[f]); !ok {
			result.warnf(t.Name, f, "default generator %q is not registered; the field will be left out of inserts", t.Defaults[f])
		}
	}
}

func validateJoins(reg *Registry, t *Table, joins Joins, kind string, result *ValidationResult) {
	for _, jn := range joins {
		target, ok := reg.Table(jn.Table)
		if !ok {
			result.errorf(t.Name, "", "%s references unknown table %q", kind, jn.Table)
			continue
		}
		if !slices.Contains(t.Fields, jn.Local) {
			result.errorf(t.Name, jn.Local, "%s key for %q is not a field", kind, jn.Table)
		}
		if !slices.Contains(target.Fields, jn.Foreign) {
			result.errorf(jn.Table, jn.Foreign, "%s key from %q is not a field", kind, t.Name)
		}
	}
}
