package sql

import (
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// Violation classifies a backend error by the constraint it violated.
type Violation uint8

// Violation values.
const (
	NoViolation Violation = iota
	UniqueViolation
	ForeignKeyViolation
	CheckViolation
)

func (v Violation) String() string {
	switch v {
	case UniqueViolation:
		return "unique"
	case ForeignKeyViolation:
		return "foreign key"
	case CheckViolation:
		return "check"
	default:
		return "none"
	}
}

// PostgreSQL SQLSTATE codes for constraint violations (class 23).
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgCheckViolation      = "23514"
)

// MySQL error numbers for constraint violations.
const (
	mysqlDuplicateEntry   = 1062
	mysqlForeignKeyParent = 1451 // cannot delete or update a parent row
	mysqlForeignKeyChild  = 1452 // cannot add or update a child row
	mysqlCheckViolation   = 3819
)

// Classify reports which constraint, if any, err violated. It understands
// the error types of the MySQL, PostgreSQL and SQLite drivers and falls
// back to matching their message text.
func Classify(err error) Violation {
	if err == nil {
		return NoViolation
	}
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		switch myErr.Number {
		case mysqlDuplicateEntry:
			return UniqueViolation
		case mysqlForeignKeyParent, mysqlForeignKeyChild:
			return ForeignKeyViolation
		case mysqlCheckViolation:
			return CheckViolation
		}
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch string(pqErr.Code) {
		case pgUniqueViolation:
			return UniqueViolation
		case pgForeignKeyViolation:
			return ForeignKeyViolation
		case pgCheckViolation:
			return CheckViolation
		}
	}
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		switch liteErr.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return UniqueViolation
		case sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY:
			return ForeignKeyViolation
		case sqlite3.SQLITE_CONSTRAINT_CHECK:
			return CheckViolation
		}
	}
	msg := err.Error()
	switch {
	case containsAny(msg, "Error 1062", "violates unique constraint", "UNIQUE constraint failed"):
		return UniqueViolation
	case containsAny(msg, "Error 1451", "Error 1452", "violates foreign key constraint", "FOREIGN KEY constraint failed"):
		return ForeignKeyViolation
	case containsAny(msg, "Error 3819", "violates check constraint", "CHECK constraint failed"):
		return CheckViolation
	}
	return NoViolation
}

// IsUniqueConstraintError reports if err resulted from a uniqueness constraint violation.
func IsUniqueConstraintError(err error) bool { return Classify(err) == UniqueViolation }

// IsForeignKeyConstraintError reports if err resulted from a foreign-key constraint violation.
func IsForeignKeyConstraintError(err error) bool { return Classify(err) == ForeignKeyViolation }

// IsCheckConstraintError reports if err resulted from a check constraint violation.
func IsCheckConstraintError(err error) bool { return Classify(err) == CheckViolation }

// IsConstraintError reports if err resulted from any constraint violation.
func IsConstraintError(err error) bool { return Classify(err) != NoViolation }

func containsAny(s string, substrings ...string) bool {
	for _, sub := range substrings {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
