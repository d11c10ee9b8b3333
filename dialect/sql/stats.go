package sql

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/syssam/grid/dialect"
)

// Counters holds statement execution counters. It is safe for concurrent use.
type Counters struct {
	queries  atomic.Int64
	execs    atomic.Int64
	duration atomic.Int64 // nanoseconds
	slow     atomic.Int64
	errors   atomic.Int64
}

// Snapshot returns a point-in-time copy of the counters.
func (c *Counters) Snapshot() Snapshot {
	return Snapshot{
		Queries:  c.queries.Load(),
		Execs:    c.execs.Load(),
		Duration: time.Duration(c.duration.Load()),
		Slow:     c.slow.Load(),
		Errors:   c.errors.Load(),
	}
}

// Reset zeroes all counters.
func (c *Counters) Reset() {
	c.queries.Store(0)
	c.execs.Store(0)
	c.duration.Store(0)
	c.slow.Store(0)
	c.errors.Store(0)
}

// Snapshot is a point-in-time copy of Counters.
type Snapshot struct {
	Queries  int64
	Execs    int64
	Duration time.Duration
	Slow     int64
	Errors   int64
}

// Avg returns the mean statement duration.
func (s Snapshot) Avg() time.Duration {
	total := s.Queries + s.Execs
	if total == 0 {
		return 0
	}
	return s.Duration / time.Duration(total)
}

func (s Snapshot) String() string {
	return fmt.Sprintf(
		"queries=%d execs=%d duration=%s avg=%s slow=%d errors=%d",
		s.Queries, s.Execs, s.Duration, s.Avg(), s.Slow, s.Errors,
	)
}

// SlowHook is called for every statement slower than the threshold.
type SlowHook func(ctx context.Context, query string, d time.Duration)

// StatsDriver decorates a dialect.Driver with statement counters and slow
// statement detection.
type StatsDriver struct {
	dialect.Driver
	counters  *Counters
	threshold time.Duration
	hook      SlowHook
	mu        sync.RWMutex
}

// StatsOption configures a StatsDriver.
type StatsOption func(*StatsDriver)

// WithSlowThreshold sets the duration above which a statement counts as
// slow. Default is 100ms.
func WithSlowThreshold(d time.Duration) StatsOption {
	return func(s *StatsDriver) {
		s.threshold = d
	}
}

// WithSlowHook sets the callback invoked for slow statements.
func WithSlowHook(hook SlowHook) StatsOption {
	return func(s *StatsDriver) {
		s.hook = hook
	}
}

// WithSlowLog logs slow statements at warn level on logger, or on the
// default logger when logger is nil.
func WithSlowLog(logger *slog.Logger) StatsOption {
	if logger == nil {
		logger = slog.Default()
	}
	return WithSlowHook(func(ctx context.Context, query string, d time.Duration) {
		logger.WarnContext(ctx, "slow query detected", "duration", d, "query", query)
	})
}

// NewStatsDriver wraps drv with statement counters.
//
//	drv, _ := sql.Open(dialect.MySQL, dsn)
//	sd := sql.NewStatsDriver(drv,
//	    sql.WithSlowThreshold(200*time.Millisecond),
//	    sql.WithSlowLog(nil),
//	)
//	g := grid.New(sd, grid.WithSchema(reg))
//	...
//	fmt.Println(sd.Counters().Snapshot())
func NewStatsDriver(drv dialect.Driver, opts ...StatsOption) *StatsDriver {
	s := &StatsDriver{
		Driver:    drv,
		counters:  &Counters{},
		threshold: 100 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Counters returns the live counters of the driver.
func (d *StatsDriver) Counters() *Counters {
	return d.counters
}

// SlowThreshold returns the current slow statement threshold.
func (d *StatsDriver) SlowThreshold() time.Duration {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.threshold
}

// SetSlowThreshold updates the slow statement threshold.
func (d *StatsDriver) SetSlowThreshold(threshold time.Duration) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.threshold = threshold
}

// Escape implements dialect.Escaper by delegating to the wrapped driver.
func (d *StatsDriver) Escape(s string) string {
	return EscaperOf(d.Driver).Escape(s)
}

// Query runs a query and records it.
func (d *StatsDriver) Query(ctx context.Context, query string, args, v any) error {
	start := time.Now()
	err := d.Driver.Query(ctx, query, args, v)
	d.record(ctx, query, start, err, true)
	return err
}

// Exec runs a statement and records it.
func (d *StatsDriver) Exec(ctx context.Context, query string, args, v any) error {
	start := time.Now()
	err := d.Driver.Exec(ctx, query, args, v)
	d.record(ctx, query, start, err, false)
	return err
}

func (d *StatsDriver) record(ctx context.Context, query string, start time.Time, err error, isQuery bool) {
	elapsed := time.Since(start)
	if isQuery {
		d.counters.queries.Add(1)
	} else {
		d.counters.execs.Add(1)
	}
	d.counters.duration.Add(int64(elapsed))
	if err != nil {
		d.counters.errors.Add(1)
	}
	d.mu.RLock()
	threshold, hook := d.threshold, d.hook
	d.mu.RUnlock()
	if elapsed > threshold {
		d.counters.slow.Add(1)
		if hook != nil {
			hook(ctx, query, elapsed)
		}
	}
}

// Tx starts a transaction whose statements are also recorded.
func (d *StatsDriver) Tx(ctx context.Context) (dialect.Tx, error) {
	tx, err := d.Driver.Tx(ctx)
	if err != nil {
		return nil, err
	}
	return &statsTx{Tx: tx, driver: d}, nil
}

type statsTx struct {
	dialect.Tx
	driver *StatsDriver
}

func (tx *statsTx) Query(ctx context.Context, query string, args, v any) error {
	start := time.Now()
	err := tx.Tx.Query(ctx, query, args, v)
	tx.driver.record(ctx, query, start, err, true)
	return err
}

func (tx *statsTx) Exec(ctx context.Context, query string, args, v any) error {
	start := time.Now()
	err := tx.Tx.Exec(ctx, query, args, v)
	tx.driver.record(ctx, query, start, err, false)
	return err
}

// DebugDriver decorates a dialect.Driver and logs every statement.
type DebugDriver struct {
	dialect.Driver
	logger *slog.Logger
	level  slog.Level
}

// DebugOption configures a DebugDriver.
type DebugOption func(*DebugDriver)

// DebugWithLogger sets the logger statements are written to.
func DebugWithLogger(l *slog.Logger) DebugOption {
	return func(d *DebugDriver) {
		d.logger = l
	}
}

// DebugWithLevel sets the level statements are logged at. Default is info.
func DebugWithLevel(level slog.Level) DebugOption {
	return func(d *DebugDriver) {
		d.level = level
	}
}

// NewDebugDriver wraps drv with statement logging.
func NewDebugDriver(drv dialect.Driver, opts ...DebugOption) *DebugDriver {
	d := &DebugDriver{
		Driver: drv,
		logger: slog.Default(),
		level:  slog.LevelInfo,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Escape implements dialect.Escaper by delegating to the wrapped driver.
func (d *DebugDriver) Escape(s string) string {
	return EscaperOf(d.Driver).Escape(s)
}

// Query logs and runs a query.
func (d *DebugDriver) Query(ctx context.Context, query string, args, v any) error {
	d.logger.Log(ctx, d.level, "query", "sql", query)
	return d.Driver.Query(ctx, query, args, v)
}

// Exec logs and runs a statement.
func (d *DebugDriver) Exec(ctx context.Context, query string, args, v any) error {
	d.logger.Log(ctx, d.level, "exec", "sql", query)
	return d.Driver.Exec(ctx, query, args, v)
}

// Tx starts a transaction whose statements are also logged.
func (d *DebugDriver) Tx(ctx context.Context) (dialect.Tx, error) {
	d.logger.Log(ctx, d.level, "begin transaction")
	tx, err := d.Driver.Tx(ctx)
	if err != nil {
		return nil, err
	}
	return &debugTx{Tx: tx, drv: d}, nil
}

type debugTx struct {
	dialect.Tx
	drv *DebugDriver
}

func (tx *debugTx) Query(ctx context.Context, query string, args, v any) error {
	tx.drv.logger.Log(ctx, tx.drv.level, "tx query", "sql", query)
	return tx.Tx.Query(ctx, query, args, v)
}

func (tx *debugTx) Exec(ctx context.Context, query string, args, v any) error {
	tx.drv.logger.Log(ctx, tx.drv.level, "tx exec", "sql", query)
	return tx.Tx.Exec(ctx, query, args, v)
}

func (tx *debugTx) Commit() error {
	tx.drv.logger.Log(context.Background(), tx.drv.level, "commit transaction")
	return tx.Tx.Commit()
}

func (tx *debugTx) Rollback() error {
	tx.drv.logger.Log(context.Background(), tx.drv.level, "rollback transaction")
	return tx.Tx.Rollback()
}

var (
	_ dialect.Driver  = (*StatsDriver)(nil)
	_ dialect.Escaper = (*StatsDriver)(nil)
	_ dialect.Driver  = (*DebugDriver)(nil)
	_ dialect.Escaper = (*DebugDriver)(nil)
)
