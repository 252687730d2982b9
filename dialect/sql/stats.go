package sql

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/syssam/relmap/dialect"
)

// QueryStats holds statement execution statistics.
type QueryStats struct {
	// Queries is the number of row-returning statements executed.
	Queries atomic.Int64
	// Execs is the number of statements executed without a result set,
	// including inserts that report a generated id.
	Execs atomic.Int64
	// Txs is the number of transactions started.
	Txs atomic.Int64
	// Duration is the time spent executing statements, in nanoseconds.
	Duration atomic.Int64
	// Slow is the number of statements exceeding the slow threshold.
	Slow atomic.Int64
	// Errors is the number of failed statements.
	Errors atomic.Int64
}

// Stats returns a snapshot of the current statistics.
func (s *QueryStats) Stats() StatsSnapshot {
	return StatsSnapshot{
		Queries:  s.Queries.Load(),
		Execs:    s.Execs.Load(),
		Txs:      s.Txs.Load(),
		Duration: time.Duration(s.Duration.Load()),
		Slow:     s.Slow.Load(),
		Errors:   s.Errors.Load(),
	}
}

// Reset resets all statistics to zero.
func (s *QueryStats) Reset() {
	s.Queries.Store(0)
	s.Execs.Store(0)
	s.Txs.Store(0)
	s.Duration.Store(0)
	s.Slow.Store(0)
	s.Errors.Store(0)
}

// StatsSnapshot is a point-in-time snapshot of QueryStats.
type StatsSnapshot struct {
	Queries  int64
	Execs    int64
	Txs      int64
	Duration time.Duration
	Slow     int64
	Errors   int64
}

// Avg returns the average statement duration.
func (s StatsSnapshot) Avg() time.Duration {
	total := s.Queries + s.Execs
	if total == 0 {
		return 0
	}
	return s.Duration / time.Duration(total)
}

// String returns a human-readable summary of the statistics.
func (s StatsSnapshot) String() string {
	return fmt.Sprintf("queries=%d execs=%d txs=%d duration=%s avg=%s slow=%d errors=%d",
		s.Queries, s.Execs, s.Txs, s.Duration, s.Avg(), s.Slow, s.Errors)
}

// SlowQueryHook is called when a statement exceeds the slow threshold.
type SlowQueryHook func(ctx context.Context, query string, duration time.Duration)

// StatsDriver wraps a dialect.Driver with statement statistics.
type StatsDriver struct {
	dialect.Driver
	stats *QueryStats

	mu            sync.RWMutex
	slowThreshold time.Duration
	slowHook      SlowQueryHook
}

// StatsOption configures the StatsDriver.
type StatsOption func(*StatsDriver)

// WithSlowThreshold sets the threshold for slow statement detection.
// Default is 100ms.
func WithSlowThreshold(d time.Duration) StatsOption {
	return func(s *StatsDriver) {
		s.slowThreshold = d
	}
}

// WithSlowQueryHook sets a callback for slow statements.
func WithSlowQueryHook(hook SlowQueryHook) StatsOption {
	return func(s *StatsDriver) {
		s.slowHook = hook
	}
}

// WithSlowQueryLog logs slow statements to the given logger at warn level.
// A nil logger uses slog.Default.
func WithSlowQueryLog(logger *slog.Logger) StatsOption {
	return WithSlowQueryHook(func(ctx context.Context, query string, duration time.Duration) {
		l := logger
		if l == nil {
			l = slog.Default()
		}
		l.WarnContext(ctx, "slow query detected", "duration", duration, "sql", query)
	})
}

// NewStatsDriver wraps drv with statistics collection.
//
//	drv, _ := sql.Open("postgres://localhost/app")
//	sd := sql.NewStatsDriver(drv,
//	    sql.WithSlowThreshold(200*time.Millisecond),
//	    sql.WithSlowQueryLog(nil),
//	)
//	client := relmap.NewClient(sd)
//	...
//	fmt.Println(sd.QueryStats().Stats())
func NewStatsDriver(drv dialect.Driver, opts ...StatsOption) *StatsDriver {
	s := &StatsDriver{
		Driver:        drv,
		stats:         &QueryStats{},
		slowThreshold: 100 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// OpenWithStats opens uri with statistics collection enabled.
func OpenWithStats(uri string, opts ...StatsOption) (*StatsDriver, *QueryStats, error) {
	drv, err := Open(uri)
	if err != nil {
		return nil, nil, err
	}
	sd := NewStatsDriver(drv, opts...)
	return sd, sd.QueryStats(), nil
}

// Unwrap returns the wrapped driver.
func (d *StatsDriver) Unwrap() dialect.Driver { return d.Driver }

// QueryStats returns the collected statistics.
func (d *StatsDriver) QueryStats() *QueryStats {
	return d.stats
}

// SlowThreshold returns the current slow statement threshold.
func (d *StatsDriver) SlowThreshold() time.Duration {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.slowThreshold
}

// SetSlowThreshold updates the slow statement threshold.
func (d *StatsDriver) SetSlowThreshold(threshold time.Duration) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.slowThreshold = threshold
}

// Exec executes a statement and records statistics.
func (d *StatsDriver) Exec(ctx context.Context, query string) error {
	return d.exec(ctx, d.Driver, query)
}

// ExecReturningID executes an insert and records statistics.
func (d *StatsDriver) ExecReturningID(ctx context.Context, query string) (uint64, error) {
	return d.execReturningID(ctx, d.Driver, query)
}

// Query executes a query and records statistics.
func (d *StatsDriver) Query(ctx context.Context, query string) (dialect.Cursor, error) {
	return d.query(ctx, d.Driver, query)
}

// Tx starts a transaction that also records statistics.
func (d *StatsDriver) Tx(ctx context.Context) (dialect.Tx, error) {
	tx, err := d.Driver.Tx(ctx)
	if err != nil {
		return nil, err
	}
	d.stats.Txs.Add(1)
	return &StatsTx{Tx: tx, driver: d}, nil
}

func (d *StatsDriver) exec(ctx context.Context, ex dialect.Executor, query string) error {
	start := time.Now()
	err := ex.Exec(ctx, query)
	d.record(ctx, query, start, err, false)
	return err
}

func (d *StatsDriver) execReturningID(ctx context.Context, ex dialect.Executor, query string) (uint64, error) {
	start := time.Now()
	id, err := ex.ExecReturningID(ctx, query)
	d.record(ctx, query, start, err, false)
	return id, err
}

func (d *StatsDriver) query(ctx context.Context, ex dialect.Executor, query string) (dialect.Cursor, error) {
	start := time.Now()
	cur, err := ex.Query(ctx, query)
	d.record(ctx, query, start, err, true)
	return cur, err
}

func (d *StatsDriver) record(ctx context.Context, query string, start time.Time, err error, isQuery bool) {
	duration := time.Since(start)
	if isQuery {
		d.stats.Queries.Add(1)
	} else {
		d.stats.Execs.Add(1)
	}
	d.stats.Duration.Add(int64(duration))
	if err != nil {
		d.stats.Errors.Add(1)
	}
	d.mu.RLock()
	threshold, hook := d.slowThreshold, d.slowHook
	d.mu.RUnlock()
	if duration > threshold {
		d.stats.Slow.Add(1)
		if hook != nil {
			hook(ctx, query, duration)
		}
	}
}

// StatsTx wraps a transaction with statistics collection.
type StatsTx struct {
	dialect.Tx
	driver *StatsDriver
}

// Exec executes a statement within the transaction and records statistics.
func (tx *StatsTx) Exec(ctx context.Context, query string) error {
	return tx.driver.exec(ctx, tx.Tx, query)
}

// ExecReturningID executes an insert within the transaction and records statistics.
func (tx *StatsTx) ExecReturningID(ctx context.Context, query string) (uint64, error) {
	return tx.driver.execReturningID(ctx, tx.Tx, query)
}

// Query executes a query within the transaction and records statistics.
func (tx *StatsTx) Query(ctx context.Context, query string) (dialect.Cursor, error) {
	return tx.driver.query(ctx, tx.Tx, query)
}

// DebugDriver logs every statement before it is executed.
type DebugDriver struct {
	dialect.Driver
	log *slog.Logger
}

// NewDebugDriver wraps drv with debug logging. A nil logger uses
// slog.Default.
func NewDebugDriver(drv dialect.Driver, logger *slog.Logger) *DebugDriver {
	if logger == nil {
		logger = slog.Default()
	}
	return &DebugDriver{Driver: drv, log: logger}
}

// Unwrap returns the wrapped driver.
func (d *DebugDriver) Unwrap() dialect.Driver { return d.Driver }

// Exec logs and executes a statement.
func (d *DebugDriver) Exec(ctx context.Context, query string) error {
	d.log.DebugContext(ctx, "exec", "sql", query)
	return d.Driver.Exec(ctx, query)
}

// ExecReturningID logs and executes an insert.
func (d *DebugDriver) ExecReturningID(ctx context.Context, query string) (uint64, error) {
	d.log.DebugContext(ctx, "exec", "sql", query)
	return d.Driver.ExecReturningID(ctx, query)
}

// Query logs and executes a query.
func (d *DebugDriver) Query(ctx context.Context, query string) (dialect.Cursor, error) {
	d.log.DebugContext(ctx, "query", "sql", query)
	return d.Driver.Query(ctx, query)
}

// Tx starts a transaction with debug logging.
func (d *DebugDriver) Tx(ctx context.Context) (dialect.Tx, error) {
	d.log.DebugContext(ctx, "begin transaction")
	tx, err := d.Driver.Tx(ctx)
	if err != nil {
		return nil, err
	}
	return &DebugTx{Tx: tx, log: d.log}, nil
}

// DebugTx wraps a transaction with debug logging.
type DebugTx struct {
	dialect.Tx
	log *slog.Logger
}

// Exec logs and executes a statement within the transaction.
func (tx *DebugTx) Exec(ctx context.Context, query string) error {
	tx.log.DebugContext(ctx, "tx exec", "sql", query)
	return tx.Tx.Exec(ctx, query)
}

// ExecReturningID logs and executes an insert within the transaction.
func (tx *DebugTx) ExecReturningID(ctx context.Context, query string) (uint64, error) {
	tx.log.DebugContext(ctx, "tx exec", "sql", query)
	return tx.Tx.ExecReturningID(ctx, query)
}

// Query logs and executes a query within the transaction.
func (tx *DebugTx) Query(ctx context.Context, query string) (dialect.Cursor, error) {
	tx.log.DebugContext(ctx, "tx query", "sql", query)
	return tx.Tx.Query(ctx, query)
}

// Commit logs and commits the transaction.
func (tx *DebugTx) Commit() error {
	tx.log.Debug("commit transaction")
	return tx.Tx.Commit()
}

// Rollback logs and rolls back the transaction.
func (tx *DebugTx) Rollback() error {
	tx.log.Debug("rollback transaction")
	return tx.Tx.Rollback()
}

var (
	_ dialect.Driver = (*StatsDriver)(nil)
	_ dialect.Tx     = (*StatsTx)(nil)
	_ dialect.Driver = (*DebugDriver)(nil)
	_ dialect.Tx     = (*DebugTx)(nil)
)
