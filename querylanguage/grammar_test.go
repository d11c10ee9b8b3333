package querylanguage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []Node
	}{
		{
			name:  "comparison",
			input: "age > ?",
			want:  []Node{{Kind: Comparison, Left: "age", Op: ">", Right: "?"}},
		},
		{
			name:  "tight_operator",
			input: "age>=30",
			want:  []Node{{Kind: Comparison, Left: "age", Op: ">=", Right: "30"}},
		},
		{
			name:  "connectives",
			input: "(a = 1) and (b != 2) || c <> 3",
			want: []Node{
				{Kind: GroupOpen, Text: "("},
				{Kind: Comparison, Left: "a", Op: "=", Right: "1"},
				{Kind: GroupClose, Text: ")"},
				{Kind: Connective, Text: "AND"},
				{Kind: GroupOpen, Text: "("},
				{Kind: Comparison, Left: "b", Op: "!=", Right: "2"},
				{Kind: GroupClose, Text: ")"},
				{Kind: Connective, Text: "||"},
				{Kind: Comparison, Left: "c", Op: "<>", Right: "3"},
			},
		},
		{
			name:  "not_prefix",
			input: "NOT deleted = 1 XOR x = 2",
			want: []Node{
				{Kind: Connective, Text: "NOT"},
				{Kind: Comparison, Left: "deleted", Op: "=", Right: "1"},
				{Kind: Connective, Text: "XOR"},
				{Kind: Comparison, Left: "x", Op: "=", Right: "2"},
			},
		},
		{
			name:  "not_like",
			input: "name not like %?%",
			want:  []Node{{Kind: Comparison, Left: "name", Op: "NOT LIKE", Right: "%?%"}},
		},
		{
			name:  "in_group",
			input: "id IN (1,2)",
			want: []Node{
				{Kind: Comparison, Left: "id", Op: "IN"},
				{Kind: GroupOpen, Text: "("},
				{Kind: Raw, Text: "1,2"},
				{Kind: GroupClose, Text: ")"},
			},
		},
		{
			name:  "is_not_null",
			input: "email IS NOT NULL",
			want:  []Node{{Kind: Comparison, Left: "email", Op: "IS NOT", Right: "NULL"}},
		},
		{
			name:  "quoted_connective",
			input: "title = 'salt AND pepper (fine)'",
			want:  []Node{{Kind: Comparison, Left: "title", Op: "=", Right: "'salt AND pepper (fine)'"}},
		},
		{
			name:  "double_quoted_connective",
			input: `title = "salt AND pepper (fine)" OR x = 1`,
			want: []Node{
				{Kind: Comparison, Left: "title", Op: "=", Right: `"salt AND pepper (fine)"`},
				{Kind: Connective, Text: "OR"},
				{Kind: Comparison, Left: "x", Op: "=", Right: "1"},
			},
		},
		{
			name:  "between",
			input: "age BETWEEN ? AND ? AND x = 1",
			want: []Node{
				{Kind: Comparison, Left: "age", Op: "BETWEEN", Right: "? AND ?"},
				{Kind: Connective, Text: "AND"},
				{Kind: Comparison, Left: "x", Op: "=", Right: "1"},
			},
		},
		{
			name:  "not_between",
			input: "age not between 1 and 5",
			want:  []Node{{Kind: Comparison, Left: "age", Op: "NOT BETWEEN", Right: "1 and 5"}},
		},
		{
			name:  "placeholder",
			input: "? && x",
			want: []Node{
				{Kind: Placeholder, Text: "?"},
				{Kind: Connective, Text: "&&"},
				{Kind: Raw, Text: "x"},
			},
		},
		{
			name:  "word_inside_name",
			input: "brand = 1 ANDROID",
			want:  []Node{{Kind: Comparison, Left: "brand", Op: "=", Right: "1 ANDROID"}},
		},
		{
			name:  "no_operator",
			input: "pin x",
			want:  []Node{{Kind: Raw, Text: "pin x"}},
		},
		{
			name:  "missing_right",
			input: "x =",
			want:  []Node{{Kind: Raw, Text: "x ="}},
		},
		{
			name:  "empty_group",
			input: "( )",
			want: []Node{
				{Kind: GroupOpen, Text: "("},
				{Kind: GroupClose, Text: ")"},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCountPlaceholders(t *testing.T) {
	for input, want := range map[string]int{
		"":                        0,
		"a = ?":                   1,
		"a = ? AND b LIKE %?%":    2,
		"a = '?' AND b = ?":       1,
		"`we?ird` = ?":            1,
		"a IN ? OR (b = ?)":       2,
		"note = 'it''s ? really'": 0,
		`a = "?" AND b = ?`:       1,
		"id IN (?,?)":             2,
	} {
		n, err := CountPlaceholders(input)
		require.NoError(t, err)
		assert.Equal(t, want, n, input)
	}
}

func TestNodeString(t *testing.T) {
	assert.Equal(t, "a = 1", Node{Kind: Comparison, Left: "a", Op: "=", Right: "1"}.String())
	assert.Equal(t, "a IN", Node{Kind: Comparison, Left: "a", Op: "IN"}.String())
	assert.Equal(t, "AND", Node{Kind: Connective, Text: "AND"}.String())
	assert.Equal(t, "comparison", Comparison.String())
	assert.Equal(t, "invalid", Kind(0).String())
	assert.Equal(t, "invalid", Kind(42).String())
}

func TestIsStringLiteral(t *testing.T) {
	assert.True(t, isStringLiteral("'abc'"))
	assert.True(t, isStringLiteral("'it''s'"))
	assert.True(t, isStringLiteral(`'a\'b'`))
	assert.False(t, isStringLiteral("'a' 'b'"))
	assert.False(t, isStringLiteral("abc"))
	assert.False(t, isStringLiteral("'"))
	assert.True(t, isStringLiteral(`"a AND b"`))
	assert.True(t, isStringLiteral(`"say ""hi"""`))
	assert.False(t, isStringLiteral(`"a" "b"`))
}
