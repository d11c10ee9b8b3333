package schema

import (
	"slices"
	"sort"
)

// Column is a field qualified by its table.
type Column struct {
	Table string
	Field string
}

// Registry is an immutable, indexed view of Definitions. Build one with
// Load; to change the schema, load a new Registry.
type Registry struct {
	tables  map[string]*Table
	columns map[string][]Column
	// aliasOf maps table -> field -> alias.
	aliasOf map[string]map[string]string
	// fieldOf maps table -> alias -> field.
	fieldOf map[string]map[string]string
}

// Load indexes defs into a Registry. The definitions must not be modified
// afterwards.
func Load(defs Definitions) *Registry {
	r := &Registry{
		tables:  make(map[string]*Table, len(defs)),
		columns: make(map[string][]Column, len(defs)),
		aliasOf: make(map[string]map[string]string, len(defs)),
		fieldOf: make(map[string]map[string]string, len(defs)),
	}
	for name, t := range defs {
		if t == nil {
			t = &Table{}
		}
		t.Name = name
		r.tables[name] = t
		cols := make([]Column, len(t.Fields))
		for i, f := range t.Fields {
			cols[i] = Column{Table: name, Field: f}
		}
		r.columns[name] = cols
		aliases := make([]string, 0, len(t.Alias))
		for a := range t.Alias {
			aliases = append(aliases, a)
		}
		sort.Strings(aliases)
		aliasOf := make(map[string]string, len(aliases))
		fieldOf := make(map[string]string, len(aliases))
		for _, a := range aliases {
			f := t.Alias[a]
			fieldOf[a] = f
			// A field with several aliases projects the first one only.
			if _, ok := aliasOf[f]; !ok {
				aliasOf[f] = a
			}
		}
		r.aliasOf[name] = aliasOf
		r.fieldOf[name] = fieldOf
	}
	return r
}

// Table returns the declaration of the named table.
func (r *Registry) Table(name string) (*Table, bool) {
	t, ok := r.tables[name]
	return t, ok
}

// Has reports whether the table is declared.
func (r *Registry) Has(name string) bool {
	_, ok := r.tables[name]
	return ok
}

// Tables returns the declared table names in sorted order.
func (r *Registry) Tables() []string {
	names := make([]string, 0, len(r.tables))
	for n := range r.tables {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Columns returns the qualified fields of table in declaration order.
func (r *Registry) Columns(table string) []Column {
	return r.columns[table]
}

// AliasOf returns the alias projected for field, or "" if it has none.
func (r *Registry) AliasOf(table, field string) string {
	return r.aliasOf[table][field]
}

// FieldOf returns the real field behind name. Names that are not aliases
// are returned unchanged.
func (r *Registry) FieldOf(table, name string) string {
	if f, ok := r.fieldOf[table][name]; ok {
		return f
	}
	return name
}

// HasField reports whether name is a field or an alias of table.
func (r *Registry) HasField(table, name string) bool {
	t, ok := r.tables[table]
	if !ok {
		return false
	}
	return slices.Contains(t.Fields, r.FieldOf(table, name))
}

// Assoc returns the associations of table.
func (r *Registry) Assoc(table string) Joins {
	if t, ok := r.tables[table]; ok {
		return t.Assoc
	}
	return nil
}

// Children returns the cascade targets of table.
func (r *Registry) Children(table string) Joins {
	if t, ok := r.tables[table]; ok {
		return t.Children
	}
	return nil
}

// Defaults returns the default generators of table.
func (r *Registry) Defaults(table string) map[string]string {
	if t, ok := r.tables[table]; ok {
		return t.Defaults
	}
	return nil
}
