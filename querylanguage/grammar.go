package querylanguage

import (
	"regexp"
	"strings"
)

// Kind identifies a node of a filter template.
type Kind uint8

// Node kinds.
const (
	Connective Kind = iota + 1
	GroupOpen
	GroupClose
	Placeholder
	Comparison
	Raw
)

var kindNames = [...]string{
	Connective:  "connective",
	GroupOpen:   "group-open",
	GroupClose:  "group-close",
	Placeholder: "placeholder",
	Comparison:  "comparison",
	Raw:         "raw",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) && kindNames[k] != "" {
		return kindNames[k]
	}
	return "invalid"
}

// Node is one element of a parsed filter template. Text holds the source
// of connectives, parentheses and raw chunks; comparisons carry their
// three parts instead.
type Node struct {
	Kind  Kind
	Text  string
	Left  string
	Op    string
	Right string
}

func (n Node) String() string {
	if n.Kind == Comparison {
		if n.Right == "" {
			return n.Left + " " + n.Op
		}
		return n.Left + " " + n.Op + " " + n.Right
	}
	return n.Text
}

// comparisonRe matches "<left> <op> <right>". Symbolic operators may touch
// their operands; word operators need whitespace around them.
var comparisonRe = regexp.MustCompile(
	`(?is)^(\?|[.a-z0-9_-]+)(?:\s*([<=>!]+)|\s+(IS(?:\s+NOT)?|(?:NOT\s+)?(?:LIKE|IN|BETWEEN))\b)\s*(.*)$`,
)

// Parse splits a filter template into nodes. Chunks between connectives
// and parentheses are trimmed and empty chunks dropped.
func Parse(src string) ([]Node, error) {
	toks, err := lex(src)
	if err != nil {
		return nil, err
	}
	var (
		nodes []Node
		chunk strings.Builder
	)
	flush := func() {
		text := strings.TrimSpace(chunk.String())
		chunk.Reset()
		if text != "" {
			nodes = append(nodes, parseChunk(text))
		}
	}
	for i, t := range toks {
		switch {
		case t.Type == tokOpen:
			flush()
			nodes = append(nodes, Node{Kind: GroupOpen, Text: "("})
		case t.Type == tokClose:
			flush()
			nodes = append(nodes, Node{Kind: GroupClose, Text: ")"})
		case t.Type == tokLogical:
			flush()
			nodes = append(nodes, Node{Kind: Connective, Text: t.Value})
		case isConnective(toks, i):
			flush()
			nodes = append(nodes, Node{Kind: Connective, Text: strings.ToUpper(t.Value)})
		default:
			chunk.WriteString(t.Value)
		}
	}
	flush()
	return nodes, nil
}

func parseChunk(text string) Node {
	if text == "?" {
		return Node{Kind: Placeholder, Text: text}
	}
	m := comparisonRe.FindStringSubmatch(text)
	if m == nil {
		return Node{Kind: Raw, Text: text}
	}
	left, op, right := m[1], m[2], strings.TrimSpace(m[4])
	if op == "" {
		op = strings.Join(strings.Fields(strings.ToUpper(m[3])), " ")
	}
	// Only IN may take its operand from the group that follows.
	if right == "" && op != "IN" && op != "NOT IN" {
		return Node{Kind: Raw, Text: text}
	}
	return Node{Kind: Comparison, Left: left, Op: op, Right: right}
}

// isStringLiteral reports whether s is exactly one single- or
// double-quoted literal.
func isStringLiteral(s string) bool {
	if len(s) < 2 || (s[0] != '\'' && s[0] != '"') {
		return false
	}
	toks, err := lex(s)
	return err == nil && len(toks) == 1 && (toks[0].Type == tokString || toks[0].Type == tokDString)
}
