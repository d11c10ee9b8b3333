package grid

import (
	"errors"
	"fmt"

	"github.com/syssam/grid/dialect/sql"
	"github.com/syssam/grid/querylanguage"
)

// Kind classifies the failures a Grid reports.
type Kind uint8

// Error kinds.
const (
	Unexpected Kind = iota
	NoDatabase
	ConnectionFailed
	NoTable
	UnknownTable
	NoWhere
	PlaceholderMismatch
	BadQuery
	Backend
)

var kindMessages = [...]string{
	Unexpected:          "An unexpected error occurred.",
	NoDatabase:          "Database not specified.",
	ConnectionFailed:    "Could not connect to server.",
	NoTable:             "Table not specified.",
	UnknownTable:        "The specified table does not exist.",
	NoWhere:             "No WHERE clause was supplied.",
	PlaceholderMismatch: "The number of arguments did not match the number of question marks.",
	BadQuery:            "The query could not be processed.",
	Backend:             "The database rejected the statement.",
}

var kindNames = [...]string{
	Unexpected:          "unexpected",
	NoDatabase:          "no-database",
	ConnectionFailed:    "connection-failed",
	NoTable:             "no-table",
	UnknownTable:        "unknown-table",
	NoWhere:             "no-where",
	PlaceholderMismatch: "placeholder-mismatch",
	BadQuery:            "bad-query",
	Backend:             "backend",
}

// String returns the short name of k.
func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return kindNames[Unexpected]
}

// Message returns the fixed, human readable message of k.
func (k Kind) Message() string {
	if int(k) < len(kindMessages) {
		return kindMessages[k]
	}
	return kindMessages[Unexpected]
}

// Sentinel errors, one per kind. errors.Is matches an *Error against the
// sentinel of its kind.
var (
	ErrUnexpected       = errors.New("grid: unexpected error")
	ErrNoDatabase       = errors.New("grid: database not specified")
	ErrConnectionFailed = errors.New("grid: could not connect to server")
	ErrNoTable          = errors.New("grid: table not specified")
	ErrUnknownTable     = errors.New("grid: the specified table does not exist")
	ErrNoWhere          = errors.New("grid: no WHERE clause was supplied")
	// ErrPlaceholderMismatch is the compiler's error, so either package's
	// value can be matched.
	ErrPlaceholderMismatch = querylanguage.ErrPlaceholderMismatch
	ErrBadQuery            = errors.New("grid: the query could not be processed")
	ErrBackend             = errors.New("grid: database error")

	// ErrNotFound is returned by FetchOne when no row matches. It is not
	// recorded in the error log.
	ErrNotFound = errors.New("grid: no matching row")
)

var kindSentinels = [...]error{
	Unexpected:          ErrUnexpected,
	NoDatabase:          ErrNoDatabase,
	ConnectionFailed:    ErrConnectionFailed,
	NoTable:             ErrNoTable,
	UnknownTable:        ErrUnknownTable,
	NoWhere:             ErrNoWhere,
	PlaceholderMismatch: ErrPlaceholderMismatch,
	BadQuery:            ErrBadQuery,
	Backend:             ErrBackend,
}

// Error is a failure reported by a Grid.
type Error struct {
	Kind Kind
	// Source is the file:line of the Grid call that failed.
	Source string
	// Query is the statement in flight, if any.
	Query string
	// Err is the underlying cause, if any.
	Err error
}

// Error returns the error string.
func (e *Error) Error() string {
	msg := "grid: " + e.Kind.Message()
	if e.Err != nil && !errors.Is(e.Err, kindSentinels[e.kind()]) {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is the sentinel of e's kind.
// This allows errors.Is(err, ErrNoWhere) to return true.
func (e *Error) Is(target error) bool {
	return target == kindSentinels[e.kind()]
}

// Violation reports the constraint a Backend error violated.
func (e *Error) Violation() sql.Violation {
	if e.Kind != Backend {
		return sql.NoViolation
	}
	return sql.Classify(e.Err)
}

func (e *Error) kind() Kind {
	if int(e.Kind) < len(kindSentinels) {
		return e.Kind
	}
	return Unexpected
}

// KindOf returns the kind of err, or Unexpected when err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.kind()
	}
	return Unexpected
}

// IsNoTable returns true if no table was selected.
func IsNoTable(err error) bool {
	return err != nil && (errors.Is(err, ErrNoTable) || errors.Is(err, ErrUnknownTable))
}

// IsNoWhere returns true if a destructive statement was refused for
// lacking a WHERE clause.
func IsNoWhere(err error) bool {
	return err != nil && errors.Is(err, ErrNoWhere)
}

// IsPlaceholderMismatch returns true if the filter placeholders did not
// match the bound arguments.
func IsPlaceholderMismatch(err error) bool {
	return err != nil && errors.Is(err, ErrPlaceholderMismatch)
}

// IsBackend returns true if the database rejected a statement.
func IsBackend(err error) bool {
	return err != nil && errors.Is(err, ErrBackend)
}

// IsConstraintError returns true if the database rejected a statement for
// violating a unique, foreign key or check constraint.
func IsConstraintError(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Violation() != sql.NoViolation
}

// IsNotFound returns true if FetchOne matched no row.
func IsNotFound(err error) bool {
	return err != nil && errors.Is(err, ErrNotFound)
}

// Record is one entry of the error log.
type Record struct {
	Message string
	Kind    Kind
	Source  string
	Query   string
	Err     error
}

// String formats r the way it is echoed.
func (r Record) String() string {
	if r.Source == "" {
		return r.Message
	}
	return fmt.Sprintf("%s (%s)", r.Message, r.Source)
}

// ErrorLog is the append-only history of the failures of a Grid.
type ErrorLog struct {
	records []Record
}

func (l *ErrorLog) append(r Record) {
	l.records = append(l.records, r)
}

// Records returns a copy of the log, oldest first.
func (l *ErrorLog) Records() []Record {
	return append([]Record(nil), l.records...)
}

// Len returns the number of records.
func (l *ErrorLog) Len() int {
	return len(l.records)
}

// Last returns the most recent record.
func (l *ErrorLog) Last() (Record, bool) {
	if len(l.records) == 0 {
		return Record{}, false
	}
	return l.records[len(l.records)-1], true
}

// LastError returns the message of the most recent record, or "".
func (l *ErrorLog) LastError() string {
	r, _ := l.Last()
	return r.Message
}
