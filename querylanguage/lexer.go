package querylanguage

import (
	"fmt"
	"strings"

	"github.com/alecthomas/participle/v2/lexer"
)

// whereLexer splits a filter template into the tokens the grammar is built
// from. Quoted literals are single tokens, so connectives and parentheses
// inside them never split a comparison.
var whereLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "String", Pattern: `'(?:[^'\\]|\\.|'')*'`},
	{Name: "DString", Pattern: `"(?:[^"\\]|\\.|"")*"`},
	{Name: "Quoted", Pattern: "`[^`]*`"},
	{Name: "Logical", Pattern: `\|\||&&`},
	{Name: "Open", Pattern: `\(`},
	{Name: "Close", Pattern: `\)`},
	{Name: "Space", Pattern: `\s+`},
	{Name: "Word", Pattern: "[^\\s()'\"`|&]+"},
	{Name: "Punct", Pattern: "[|&'\"`]"},
})

var (
	symbols      = whereLexer.Symbols()
	tokString    = symbols["String"]
	tokDString   = symbols["DString"]
	tokLogical   = symbols["Logical"]
	tokOpen      = symbols["Open"]
	tokClose     = symbols["Close"]
	tokSpace     = symbols["Space"]
	tokWord      = symbols["Word"]
	connectiveOf = map[string]bool{"NOT": true, "OR": true, "XOR": true, "AND": true}
)

// lex returns the tokens of src without the trailing EOF.
func lex(src string) ([]lexer.Token, error) {
	l, err := whereLexer.LexString("", src)
	if err != nil {
		return nil, fmt.Errorf("querylanguage: %w", err)
	}
	toks, err := lexer.ConsumeAll(l)
	if err != nil {
		return nil, fmt.Errorf("querylanguage: %w", err)
	}
	if n := len(toks); n > 0 && toks[n-1].EOF() {
		toks = toks[:n-1]
	}
	return toks, nil
}

// CountPlaceholders returns the number of ? outside quoted literals.
func CountPlaceholders(src string) (int, error) {
	toks, err := lex(src)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, t := range toks {
		if t.Type == tokWord {
			n += strings.Count(t.Value, "?")
		}
	}
	return n, nil
}

// isConnective reports whether toks[i] is a word connective. NOT is kept
// inside the comparison when it belongs to IS NOT or NOT LIKE/IN/BETWEEN,
// and AND when it separates the bounds of BETWEEN.
func isConnective(toks []lexer.Token, i int) bool {
	t := toks[i]
	if t.Type != tokWord {
		return false
	}
	word := strings.ToUpper(t.Value)
	if !connectiveOf[word] {
		return false
	}
	if word == "AND" {
		return !closesBetween(toks, i)
	}
	if word != "NOT" {
		return true
	}
	if prev, ok := adjacentWord(toks, i, -1); ok && strings.EqualFold(prev, "IS") {
		return false
	}
	if next, ok := adjacentWord(toks, i, 1); ok && (strings.EqualFold(next, "LIKE") || strings.EqualFold(next, "IN") || strings.EqualFold(next, "BETWEEN")) {
		prev, ok := adjacentWord(toks, i, -1)
		return !ok || connectiveOf[strings.ToUpper(prev)]
	}
	return true
}

// adjacentWord returns the word next to toks[i] in direction dir, skipping
// whitespace.
func adjacentWord(toks []lexer.Token, i, dir int) (string, bool) {
	for j := i + dir; j >= 0 && j < len(toks); j += dir {
		switch toks[j].Type {
		case tokSpace:
			continue
		case tokWord:
			return toks[j].Value, true
		default:
			return "", false
		}
	}
	return "", false
}

// closesBetween reports whether the AND at toks[i] follows "BETWEEN <word>".
func closesBetween(toks []lexer.Token, i int) bool {
	words := 0
	for j := i - 1; j >= 0; j-- {
		switch toks[j].Type {
		case tokSpace:
			continue
		case tokWord, tokString, tokDString:
			words++
			if words == 2 {
				return strings.EqualFold(toks[j].Value, "BETWEEN")
			}
		default:
			return false
		}
	}
	return false
}
