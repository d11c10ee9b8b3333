package schema

import (
	"fmt"
	"os"
	"strings"

	"github.com/go-openapi/inflect"
	"gopkg.in/yaml.v3"
)

// Definitions maps table names to their declarations, as read from a
// schema document.
type Definitions map[string]*Table

// Table declares the fields, aliases and joins of one table.
//
//	orders:
//	  fields: id, customer_id, total, created
//	  alias:
//	    amount: total
//	  assoc:
//	    customers: [customer_id, id]
//	  children:
//	    order_items: [id, order_id]
//	  defaults:
//	    created: now
type Table struct {
	// Name is filled in from the document key.
	Name string `yaml:"-"`
	// Fields lists the columns in declaration order. The document may
	// give them as a sequence or as one comma separated string.
	Fields FieldList `yaml:"fields"`
	// Alias maps an alternate name to a real field.
	Alias map[string]string `yaml:"alias,omitempty"`
	// Assoc lists the tables LEFT JOINed into selects, in order.
	Assoc Joins `yaml:"assoc,omitempty"`
	// Children lists the tables cascaded by scrub.
	Children Joins `yaml:"children,omitempty"`
	// Defaults maps a field to the name of the generator that fills it
	// when an insert omits it.
	Defaults map[string]string `yaml:"defaults,omitempty"`
}

// FieldList is an ordered list of field names.
type FieldList []string

// UnmarshalYAML accepts both "a, b, c" and [a, b, c].
func (f *FieldList) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		*f = SplitList(value.Value)
		return nil
	case yaml.SequenceNode:
		var names []string
		if err := value.Decode(&names); err != nil {
			return err
		}
		*f = names
		return nil
	default:
		return fmt.Errorf("schema: line %d: fields must be a string or a sequence", value.Line)
	}
}

// Join is a LEFT JOIN or cascade edge: Local is the column on the owning
// table, Foreign the column on Table.
type Join struct {
	Table   string
	Local   string
	Foreign string
}

// Joins keeps joins in declaration order.
type Joins []Join

// Tables returns the joined table names in order.
func (j Joins) Tables() []string {
	names := make([]string, len(j))
	for i := range j {
		names[i] = j[i].Table
	}
	return names
}

// Find returns the join targeting table.
func (j Joins) Find(table string) (Join, bool) {
	for _, jn := range j {
		if jn.Table == table {
			return jn, true
		}
	}
	return Join{}, false
}

// UnmarshalYAML decodes a mapping of table to [local, foreign]. A null value
// derives the keys by convention: <singular table>_id on the owning table and
// id on the joined table.
func (j *Joins) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.MappingNode {
		return fmt.Errorf("schema: line %d: joins must be a mapping", value.Line)
	}
	joins := make(Joins, 0, len(value.Content)/2)
	for i := 0; i+1 < len(value.Content); i += 2 {
		key, val := value.Content[i], value.Content[i+1]
		jn := Join{Table: key.Value}
		switch {
		case val.Tag == "!!null":
			jn.Local, jn.Foreign = ConventionalKeys(key.Value)
		case val.Kind == yaml.SequenceNode:
			var pair []string
			if err := val.Decode(&pair); err != nil {
				return err
			}
			if len(pair) != 2 {
				return fmt.Errorf("schema: line %d: join %q needs exactly two keys, got %d", val.Line, key.Value, len(pair))
			}
			jn.Local, jn.Foreign = pair[0], pair[1]
		case val.Kind == yaml.ScalarNode:
			pair := SplitList(val.Value)
			if len(pair) != 2 {
				return fmt.Errorf("schema: line %d: join %q needs exactly two keys", val.Line, key.Value)
			}
			jn.Local, jn.Foreign = pair[0], pair[1]
		default:
			return fmt.Errorf("schema: line %d: join %q must be a [local, foreign] pair", val.Line, key.Value)
		}
		joins = append(joins, jn)
	}
	*j = joins
	return nil
}

// MarshalYAML writes joins back as an ordered mapping.
func (j Joins) MarshalYAML() (any, error) {
	node := &yaml.Node{Kind: yaml.MappingNode}
	for _, jn := range j {
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Value: jn.Table},
			&yaml.Node{Kind: yaml.SequenceNode, Style: yaml.FlowStyle, Content: []*yaml.Node{
				{Kind: yaml.ScalarNode, Value: jn.Local},
				{Kind: yaml.ScalarNode, Value: jn.Foreign},
			}},
		)
	}
	return node, nil
}

// ConventionalKeys returns the join keys used when a document omits them.
func ConventionalKeys(table string) (local, foreign string) {
	return inflect.Singularize(table) + "_id", "id"
}

// SplitList splits a comma separated list and trims every element.
// Empty elements are dropped.
func SplitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Parse decodes a YAML schema document.
func Parse(data []byte) (Definitions, error) {
	var defs Definitions
	if err := yaml.Unmarshal(data, &defs); err != nil {
		return nil, fmt.Errorf("schema: parse: %w", err)
	}
	for name, t := range defs {
		if t == nil {
			t = &Table{}
			defs[name] = t
		}
		t.Name = name
	}
	return defs, nil
}

// LoadFile reads and parses the schema document at path and builds a
// Registry from it.
func LoadFile(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("schema: read %s: %w", path, err)
	}
	defs, err := Parse(data)
	if err != nil {
		return nil, err
	}
	return Load(defs), nil
}
