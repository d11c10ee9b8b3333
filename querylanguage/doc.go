// Package querylanguage compiles filter templates into SQL conditions.
//
// A template is SQL with ? placeholders:
//
//	age > ?
//	name = ? AND (email LIKE %?% OR customers.name = ?)
//	status IN ?
//
// Templates are split on the connectives NOT, OR, ||, XOR, AND and && and
// on parentheses into a small grammar (see Node). Every chunk between
// them is a placeholder, a comparison "<left> <op> <right>" or raw text
// that is passed through untouched. Comparisons have their operands
// resolved to columns or rendered as literals by an Env; see Compile.
package querylanguage
