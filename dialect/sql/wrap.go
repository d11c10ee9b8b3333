package sql

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/syssam/grid/dialect"
)

// TimeLayout is the layout used for time.Time literals.
const TimeLayout = "2006-01-02 15:04:05"

// Wrapper renders Go values as SQL literals or identifiers. It never
// escapes on its own and delegates to the bound dialect.Escaper.
type Wrapper struct {
	esc dialect.Escaper
}

// NewWrapper returns a Wrapper that escapes strings with esc.
func NewWrapper(esc dialect.Escaper) Wrapper {
	return Wrapper{esc: esc}
}

// Wrap renders v as a value literal:
//
//	nil                     NULL
//	bool                    1 or 0
//	integers                bare digits
//	canonical integer text  bare digits ("42", "-7", not "007")
//	slices and arrays       (a,b,c), each element wrapped as a value
//	time.Time               '2006-01-02 15:04:05'
//	anything else           escaped and single-quoted
func (w Wrapper) Wrap(v any) string {
	return w.wrap(v, false)
}

// WrapIdent renders v the way Wrap does, but quotes non-numeric scalars
// with backticks instead of single quotes.
func (w Wrapper) WrapIdent(v any) string {
	return w.wrap(v, true)
}

// String escapes and single-quotes s without numeric detection.
func (w Wrapper) String(s string) string {
	return "'" + w.esc.Escape(s) + "'"
}

func (w Wrapper) wrap(v any, ident bool) string {
	switch v := v.(type) {
	case nil:
		return "NULL"
	case bool:
		if v {
			return "1"
		}
		return "0"
	case int:
		return strconv.Itoa(v)
	case int8, int16, int32, int64:
		return strconv.FormatInt(reflect.ValueOf(v).Int(), 10)
	case uint, uint8, uint16, uint32, uint64:
		return strconv.FormatUint(reflect.ValueOf(v).Uint(), 10)
	case string:
		if IsInteger(v) {
			return v
		}
		return w.quote(v, ident)
	case []byte:
		return w.quote(string(v), ident)
	case time.Time:
		return w.quote(v.Format(TimeLayout), ident)
	case *time.Time:
		if v == nil {
			return "NULL"
		}
		return w.quote(v.Format(TimeLayout), ident)
	case fmt.Stringer:
		return w.quote(v.String(), ident)
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		parts := make([]string, rv.Len())
		for i := range parts {
			parts[i] = w.wrap(rv.Index(i).Interface(), false)
		}
		return "(" + strings.Join(parts, ",") + ")"
	case reflect.Pointer:
		if rv.IsNil() {
			return "NULL"
		}
		return w.wrap(rv.Elem().Interface(), ident)
	case reflect.Float32, reflect.Float64:
		return w.quote(strconv.FormatFloat(rv.Float(), 'f', -1, 64), ident)
	}
	return w.quote(fmt.Sprint(v), ident)
}

func (w Wrapper) quote(s string, ident bool) string {
	if ident {
		return "`" + strings.ReplaceAll(s, "`", "``") + "`"
	}
	return "'" + w.esc.Escape(s) + "'"
}

// IsInteger reports whether s is the canonical decimal form of an integer:
// an optional minus sign followed by digits without leading zeros.
func IsInteger(s string) bool {
	if s == "" {
		return false
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		u, uerr := strconv.ParseUint(s, 10, 64)
		return uerr == nil && strconv.FormatUint(u, 10) == s
	}
	return strconv.FormatInt(n, 10) == s
}

// Ident quotes a single identifier with backticks.
func Ident(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}

// Column returns the qualified `table`.`column` reference.
func Column(table, column string) string {
	return Ident(table) + "." + Ident(column)
}
