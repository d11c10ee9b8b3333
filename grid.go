package grid

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"

	"github.com/syssam/grid/dialect"
	"github.com/syssam/grid/dialect/sql"
	"github.com/syssam/grid/schema"
)

// Row is one result row keyed by output column name.
type Row = map[string]any

// Values maps field names or aliases to the values written by Insert and
// Update.
type Values = map[string]any

// Grid builds statements against a schema registry and runs them through
// a dialect.Driver. Configuration calls chain and accumulate state; every
// terminal call (CompileSelect, FetchAll, Update, ...) consumes the state
// and resets it, whether it succeeds or fails.
//
// A Grid is not safe for concurrent use. Use one Grid per logical request;
// the driver underneath may be shared.
type Grid struct {
	drv      dialect.Driver
	dialect  string
	database string
	src      *schema.Source
	gens     *schema.Generators
	logger   *slog.Logger

	showErrors  bool
	legacyLimit bool
	atomicScrub bool

	cache    Cache
	cacheTTL time.Duration

	st   state
	errs ErrorLog

	lastQuery string
	queries   []string
	affected  int64
	insertID  int64
}

// Option configures a Grid.
type Option func(*Grid)

// WithSchema serves the statements of the Grid from reg.
func WithSchema(reg *schema.Registry) Option {
	return func(g *Grid) {
		g.src = schema.NewSource(reg)
	}
}

// WithSchemaSource makes the Grid read the registry from src at every
// statement, so reloads done by schema.Watch are picked up.
func WithSchemaSource(src *schema.Source) Option {
	return func(g *Grid) {
		g.src = src
	}
}

// WithGenerators sets the generators used for insert defaults.
// The default is schema.NewGenerators().
func WithGenerators(gens *schema.Generators) Option {
	return func(g *Grid) {
		g.gens = gens
	}
}

// WithLogger sets the logger errors are echoed to.
// The default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(g *Grid) {
		g.logger = logger
	}
}

// WithDialect sets the dialect used for escaping and LIMIT rendering when
// the Grid has no driver. It is ignored otherwise.
func WithDialect(name string) Option {
	return func(g *Grid) {
		g.dialect = name
	}
}

// WithDatabase records the name of the database the driver is bound to.
func WithDatabase(name string) Option {
	return func(g *Grid) {
		g.database = name
	}
}

// WithLegacyLimit renders Limit(n, off) as "LIMIT off", the offset
// overwriting the row count, instead of "LIMIT off,n".
func WithLegacyLimit() Option {
	return func(g *Grid) {
		g.legacyLimit = true
	}
}

// WithAtomicScrub runs the statements of Scrub in one transaction.
func WithAtomicScrub() Option {
	return func(g *Grid) {
		g.atomicScrub = true
	}
}

// New returns a Grid running statements on drv. A nil drv gives a Grid
// that only compiles statements.
func New(drv dialect.Driver, opts ...Option) *Grid {
	g := &Grid{
		drv:        drv,
		dialect:    dialect.MySQL,
		showErrors: true,
	}
	for _, opt := range opts {
		opt(g)
	}
	if drv != nil {
		g.dialect = drv.Dialect()
	}
	if g.src == nil {
		g.src = schema.NewSource(schema.Load(nil))
	}
	if g.gens == nil {
		g.gens = schema.NewGenerators()
	}
	if g.logger == nil {
		g.logger = slog.Default()
	}
	g.st.reset()
	return g
}

// Open opens a connection to the database named in dsn and checks it with
// a ping. The returned error is a *Error of kind NoDatabase or
// ConnectionFailed.
func Open(ctx context.Context, driverName, dsn string, opts ...Option) (*Grid, error) {
	database, err := databaseOf(driverName, dsn)
	if err != nil {
		return nil, &Error{Kind: ConnectionFailed, Source: caller(), Err: err}
	}
	if database == "" {
		return nil, &Error{Kind: NoDatabase, Source: caller(), Err: ErrNoDatabase}
	}
	drv, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, &Error{Kind: ConnectionFailed, Source: caller(), Err: err}
	}
	if err := drv.Ping(ctx); err != nil {
		drv.Close()
		return nil, &Error{Kind: ConnectionFailed, Source: caller(), Err: err}
	}
	return New(drv, append([]Option{WithDatabase(database)}, opts...)...), nil
}

// databaseOf extracts the database name from dsn.
func databaseOf(driverName, dsn string) (string, error) {
	switch {
	case strings.HasPrefix(driverName, dialect.MySQL):
		cfg, err := mysql.ParseDSN(dsn)
		if err != nil {
			return "", err
		}
		return cfg.DBName, nil
	case strings.HasPrefix(driverName, dialect.SQLite):
		name, _, _ := strings.Cut(strings.TrimPrefix(dsn, "file:"), "?")
		return name, nil
	case strings.HasPrefix(driverName, dialect.Postgres):
		kv := dsn
		if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
			var err error
			if kv, err = pq.ParseURL(dsn); err != nil {
				return "", err
			}
		}
		for _, f := range strings.Fields(kv) {
			if v, ok := strings.CutPrefix(f, "dbname="); ok {
				return strings.Trim(v, "'"), nil
			}
		}
		return "", nil
	default:
		return dsn, nil
	}
}

// Driver returns the driver of g, or nil.
func (g *Grid) Driver() dialect.Driver { return g.drv }

// Close closes the driver.
func (g *Grid) Close() error {
	if g.drv == nil {
		return nil
	}
	return g.drv.Close()
}

// IsConnected reports whether g has a driver to run statements on.
func (g *Grid) IsConnected() bool { return g.drv != nil }

// Database returns the database name set by Open or WithDatabase.
func (g *Grid) Database() string { return g.database }

// Dialect returns the dialect statements are rendered for.
func (g *Grid) Dialect() string { return g.dialect }

// Registry returns the schema registry currently in use.
func (g *Grid) Registry() *schema.Registry { return g.src.Registry() }

// LastQuery returns the last statement sent to the driver.
func (g *Grid) LastQuery() string { return g.lastQuery }

// Queries returns every statement sent to the driver, oldest first.
func (g *Grid) Queries() []string { return append([]string(nil), g.queries...) }

// QueryCount returns the number of statements sent to the driver.
func (g *Grid) QueryCount() int { return len(g.queries) }

// AffectedRows returns the rows affected by the last Update, Delete or
// Scrub.
func (g *Grid) AffectedRows() int64 { return g.affected }

// InsertID returns the id generated by the last Insert.
func (g *Grid) InsertID() int64 { return g.insertID }

// Errors returns the error log.
func (g *Grid) Errors() *ErrorLog { return &g.errs }

// LastError returns the message of the most recent failure, or "".
func (g *Grid) LastError() string { return g.errs.LastError() }

// ShowErrors turns logging of failures on or off. It is on by default.
func (g *Grid) ShowErrors(show bool) { g.showErrors = show }

// HideErrors stops failures from being logged. They are still recorded.
func (g *Grid) HideErrors() { g.ShowErrors(false) }

// EscapeString escapes s for a single-quoted literal of the Grid's dialect.
func (g *Grid) EscapeString(s string) string { return g.escaper().Escape(s) }

// Alias returns the real field behind alias in the selected table, or
// alias itself.
func (g *Grid) Alias(alias string) string {
	return g.Registry().FieldOf(g.st.table, alias)
}

func (g *Grid) escaper() dialect.Escaper {
	if g.drv != nil {
		return sql.EscaperOf(g.drv)
	}
	return sql.EscaperFor(g.dialect)
}

func (g *Grid) wrapper() sql.Wrapper {
	return sql.NewWrapper(g.escaper())
}

// fail records a failure of the given kind and returns it as an error.
func (g *Grid) fail(kind Kind, query string, cause error) error {
	if cause == nil {
		cause = kindSentinels[kind]
	}
	e := &Error{Kind: kind, Source: caller(), Query: query, Err: cause}
	msg := kind.Message()
	if !errors.Is(cause, kindSentinels[kind]) {
		msg += " " + cause.Error()
	}
	g.errs.append(Record{Message: msg, Kind: kind, Source: e.Source, Query: query, Err: e})
	if g.showErrors {
		attrs := []any{
			slog.String("kind", kind.String()),
			slog.String("error", msg),
			slog.String("source", e.Source),
			slog.String("query", query),
		}
		if v := e.Violation(); v != sql.NoViolation {
			attrs = append(attrs, slog.String("violation", v.String()))
		}
		g.logger.Error("grid error", attrs...)
	}
	return e
}

// pkgPrefix prefixes the function names of this package in stack frames.
const pkgPrefix = "github.com/syssam/grid."

// caller returns the file:line of the first frame outside this package.
func caller() string {
	pcs := make([]uintptr, 16)
	n := runtime.Callers(2, pcs)
	frames := runtime.CallersFrames(pcs[:n])
	for {
		f, more := frames.Next()
		if !strings.HasPrefix(f.Function, pkgPrefix) {
			return fmt.Sprintf("%s:%d", f.File, f.Line)
		}
		if !more {
			return ""
		}
	}
}
