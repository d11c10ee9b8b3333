package sql

import (
	"testing"
	"time"

	"github.com/syssam/grid/dialect"

	"github.com/stretchr/testify/assert"
)

type stringer struct{ s string }

func (s stringer) String() string { return s.s }

func TestWrap(t *testing.T) {
	w := NewWrapper(EscaperOf(bareDriver{}))
	ts := time.Date(2024, 3, 9, 14, 5, 0, 0, time.UTC)
	n := 12
	tests := []struct {
		name  string
		input any
		want  string
	}{
		{"nil", nil, "NULL"},
		{"true", true, "1"},
		{"false", false, "0"},
		{"int", 42, "42"},
		{"negative_int64", int64(-7), "-7"},
		{"uint8", uint8(255), "255"},
		{"uint64_max", uint64(18446744073709551615), "18446744073709551615"},
		{"integer_string", "42", "42"},
		{"negative_integer_string", "-7", "-7"},
		{"leading_zero_string", "007", "'007'"},
		{"plus_sign_string", "+7", "'+7'"},
		{"float_string", "1.5", "'1.5'"},
		{"string", "Bob", "'Bob'"},
		{"escaped_string", "O'Brien", "'O''Brien'"},
		{"empty_string", "", "''"},
		{"float", 3.25, "'3.25'"},
		{"bytes", []byte("raw"), "'raw'"},
		{"time", ts, "'2024-03-09 14:05:00'"},
		{"stringer", stringer{"x"}, "'x'"},
		{"mixed_slice", []any{1, "a"}, "(1,'a')"},
		{"int_slice", []int{1, 2, 3}, "(1,2,3)"},
		{"string_slice", []string{"a", "b'c"}, "('a','b''c')"},
		{"empty_slice", []int{}, "()"},
		{"pointer", &n, "12"},
		{"nil_pointer", (*int)(nil), "NULL"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, w.Wrap(tt.input))
		})
	}
}

func TestWrapIdent(t *testing.T) {
	w := NewWrapper(EscaperOf(bareDriver{}))
	assert.Equal(t, "`name`", w.WrapIdent("name"))
	assert.Equal(t, "`we``ird`", w.WrapIdent("we`ird"))
	assert.Equal(t, "5", w.WrapIdent(5))
	assert.Equal(t, "NULL", w.WrapIdent(nil))
	// Slice elements are always values.
	assert.Equal(t, "('a')", w.WrapIdent([]string{"a"}))
}

func TestWrapMySQL(t *testing.T) {
	w := NewWrapper(EscaperOf(mysqlOnly{}))
	assert.Equal(t, `'O\'Brien'`, w.Wrap("O'Brien"))
	assert.Equal(t, `'%bob%'`, w.String("%bob%"))
	assert.Equal(t, `'42'`, w.String("42"))
}

type mysqlOnly struct{ dialect.Driver }

func (mysqlOnly) Dialect() string { return dialect.MySQL }

func TestIsInteger(t *testing.T) {
	for s, want := range map[string]bool{
		"0":                    true,
		"42":                   true,
		"-1":                   true,
		"18446744073709551615": true,
		"":                     false,
		"-":                    false,
		"-0":                   false,
		"01":                   false,
		"1e3":                  false,
		" 1":                   false,
		"abc":                  false,
	} {
		assert.Equal(t, want, IsInteger(s), s)
	}
}

func TestColumn(t *testing.T) {
	assert.Equal(t, "`users`", Ident("users"))
	assert.Equal(t, "`orders`.`customer_id`", Column("orders", "customer_id"))
}
