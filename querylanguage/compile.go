package querylanguage

import (
	"errors"
	"fmt"
	"strings"

	"github.com/syssam/grid/dialect/sql"
)

// ErrPlaceholderMismatch is returned when the placeholders of the filter
// templates cannot be paired one to one with the bound arguments.
var ErrPlaceholderMismatch = errors.New("the number of arguments did not match the number of question marks")

// Env resolves field names and renders literals for Compile.
type Env interface {
	// Lookup resolves a field or alias of the active tables to a quoted
	// column reference.
	Lookup(name string) (string, bool)
	// Qualified resolves "table.field" against the whole schema.
	Qualified(name string) (string, bool)
	// Wrap renders a literal value.
	Wrap(v any) string
}

// Compile joins fragments with AND, each in its own group, and renders the
// result as a WHERE condition (without the keyword). Arguments are bound
// to placeholders left to right across all fragments:
//
//	?          the argument, inserted raw when it stands alone (nil is NULL)
//	<op> ?     the argument, wrapped as a literal
//	? <op>     the argument, resolved as a field name when possible
//	%? ?% %?%  the argument inside a LIKE pattern, wrapped as a string
//
// Any other ? outside quotes, as in "id IN (?,?)" or "DATE(created) > ?",
// is replaced by its argument wrapped as a literal. Blank fragments are
// ignored.
//
// Written operands are resolved through env: a "table.field" left operand
// is quoted as is, other names go through Lookup and stay verbatim when
// they do not resolve. A right operand that is neither a placeholder nor a
// quoted literal is a column when Lookup or Qualified knows it, and a
// literal otherwise.
func Compile(fragments []string, args []any, env Env) (string, error) {
	fragments = nonBlank(fragments)
	if len(fragments) == 0 {
		if len(args) > 0 {
			return "", fmt.Errorf("%w: 0 placeholders, %d arguments", ErrPlaceholderMismatch, len(args))
		}
		return "", nil
	}
	src := "(" + strings.Join(fragments, ") AND (") + ")"
	n, err := CountPlaceholders(src)
	if err != nil {
		return "", err
	}
	if n != len(args) {
		return "", fmt.Errorf("%w: %d placeholders, %d arguments", ErrPlaceholderMismatch, n, len(args))
	}
	nodes, err := Parse(src)
	if err != nil {
		return "", err
	}
	c := &compiler{env: env, args: args}
	parts := make([]string, len(nodes))
	for i, node := range nodes {
		parts[i] = c.node(node)
	}
	if c.next != len(args) {
		return "", fmt.Errorf("%w: %d of %d arguments bound", ErrPlaceholderMismatch, c.next, len(args))
	}
	return join(parts), nil
}

type compiler struct {
	env  Env
	args []any
	next int
}

func (c *compiler) arg() any {
	v := c.args[c.next]
	c.next++
	return v
}

func (c *compiler) node(n Node) string {
	switch n.Kind {
	case Placeholder:
		v := c.arg()
		if v == nil {
			return "NULL"
		}
		return fmt.Sprint(v)
	case Comparison:
		left := c.left(n.Left)
		var right string
		if strings.HasSuffix(n.Op, "BETWEEN") {
			right = c.bind(n.Right)
		} else {
			right = c.right(n.Right)
		}
		if right == "" {
			return left + " " + n.Op
		}
		return left + " " + n.Op + " " + right
	case Raw:
		return c.bind(n.Text)
	default:
		return n.Text
	}
}

// bind replaces every ? outside quotes in text with its argument, wrapped
// as a literal.
func (c *compiler) bind(text string) string {
	if !strings.Contains(text, "?") {
		return text
	}
	toks, err := lex(text)
	if err != nil {
		return text
	}
	var sb strings.Builder
	for _, t := range toks {
		if t.Type != tokWord {
			sb.WriteString(t.Value)
			continue
		}
		parts := strings.Split(t.Value, "?")
		for i, p := range parts {
			if i > 0 {
				sb.WriteString(c.env.Wrap(c.arg()))
			}
			sb.WriteString(p)
		}
	}
	return sb.String()
}

func (c *compiler) left(s string) string {
	if s == "?" {
		v := c.arg()
		name, ok := v.(string)
		if !ok {
			return c.env.Wrap(v)
		}
		if ref, ok := c.column(name); ok {
			return ref
		}
		return c.env.Wrap(v)
	}
	if ref, ok := c.column(s); ok {
		return ref
	}
	return s
}

// column resolves a written left operand.
func (c *compiler) column(name string) (string, bool) {
	if t, f, ok := strings.Cut(name, "."); ok {
		if t == "" || f == "" {
			return "", false
		}
		return sql.Column(t, f), true
	}
	return c.env.Lookup(name)
}

func (c *compiler) right(s string) string {
	switch {
	case s == "":
		return ""
	case s == "?":
		return c.env.Wrap(c.arg())
	case s == "%?" || s == "?%" || s == "%?%":
		return c.env.Wrap(strings.Replace(s, "?", fmt.Sprint(c.arg()), 1))
	case strings.EqualFold(s, "NULL"):
		return "NULL"
	case isStringLiteral(s), strings.HasPrefix(s, "`"):
		return s
	}
	if n, err := CountPlaceholders(s); err == nil && n > 0 {
		return c.bind(s)
	}
	if ref, ok := c.env.Lookup(s); ok {
		return ref
	}
	if ref, ok := c.env.Qualified(s); ok {
		return ref
	}
	return c.env.Wrap(s)
}

func nonBlank(fragments []string) []string {
	out := fragments[:0:0]
	for _, f := range fragments {
		if strings.TrimSpace(f) != "" {
			out = append(out, f)
		}
	}
	return out
}

// join space-separates parts, without padding inside parentheses.
func join(parts []string) string {
	var sb strings.Builder
	for i, p := range parts {
		if i > 0 && parts[i-1] != "(" && p != ")" {
			sb.WriteByte(' ')
		}
		sb.WriteString(p)
	}
	return sb.String()
}
