package relmap

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/syssam/relmap/dialect"
	"github.com/syssam/relmap/dialect/sql"
	"github.com/syssam/relmap/schema"
)

// Option configures a Client.
type Option func(*config)

type config struct {
	driver   dialect.Driver
	registry *schema.Registry
	log      *slog.Logger
	debug    bool
	stats    []sql.StatsOption
	// withStats is set by WithStats, even without options.
	withStats bool
}

// WithRegistry sets the registry used to resolve type mappings. The default
// is schema.Default.
func WithRegistry(r *schema.Registry) Option {
	return func(c *config) {
		c.registry = r
	}
}

// WithLogger sets the logger for statements and failures. The default is
// slog.Default.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		c.log = l
	}
}

// Debug logs every statement sent to the engine at debug level.
func Debug() Option {
	return func(c *config) {
		c.debug = true
	}
}

// WithStats wraps the driver with a sql.StatsDriver.
func WithStats(opts ...sql.StatsOption) Option {
	return func(c *config) {
		c.withStats = true
		c.stats = append(c.stats, opts...)
	}
}

// Client runs compiled statements against a driver. A Client is safe for
// concurrent use; a Client returned by Tx.Client is bound to its
// transaction.
type Client struct {
	config
	builder sql.Builder
}

// NewClient returns a client for drv.
func NewClient(drv dialect.Driver, opts ...Option) *Client {
	cfg := config{driver: drv, registry: schema.Default, log: slog.Default()}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.withStats {
		cfg.driver = sql.NewStatsDriver(cfg.driver, cfg.stats...)
	}
	if cfg.debug {
		cfg.driver = sql.NewDebugDriver(cfg.driver, cfg.log)
	}
	return &Client{config: cfg, builder: sql.Dialect(cfg.driver.Dialect())}
}

// Open connects to the database at uri and returns a client for it. See
// sql.Open for the accepted forms.
//
//	client, err := relmap.Open(ctx, "sqlite://app.db", relmap.Debug())
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
func Open(ctx context.Context, uri string, opts ...Option) (*Client, error) {
	drv, err := sql.Connect(ctx, uri)
	if err != nil {
		return nil, fmt.Errorf("relmap: %w", err)
	}
	return NewClient(drv, opts...), nil
}

// Dialect returns the dialect of the underlying driver.
func (c *Client) Dialect() string {
	return c.builder.Name()
}

// Driver returns the driver statements are sent to.
func (c *Client) Driver() dialect.Driver {
	return c.driver
}

// Stats returns the statistics collected when the client was created
// WithStats.
func (c *Client) Stats() (*sql.QueryStats, bool) {
	drv := c.driver
	for {
		switch d := drv.(type) {
		case *sql.StatsDriver:
			return d.QueryStats(), true
		case interface{ Unwrap() dialect.Driver }:
			drv = d.Unwrap()
		default:
			return nil, false
		}
	}
}

// Close closes the database connection.
func (c *Client) Close() error {
	return c.driver.Close()
}

// Tx starts a transaction and returns a transactional client.
func (c *Client) Tx(ctx context.Context) (*Tx, error) {
	return c.BeginTx(ctx, nil)
}

// BeginTx starts a transaction with options. Drivers that cannot take
// options start a default transaction when opts is nil.
func (c *Client) BeginTx(ctx context.Context, opts *sql.TxOptions) (*Tx, error) {
	if _, ok := c.driver.(*txDriver); ok {
		return nil, ErrTxStarted
	}
	var (
		tx  dialect.Tx
		err error
	)
	if b, ok := c.driver.(interface {
		BeginTx(context.Context, *sql.TxOptions) (dialect.Tx, error)
	}); ok {
		tx, err = b.BeginTx(ctx, opts)
	} else if opts == nil {
		tx, err = c.driver.Tx(ctx)
	} else {
		return nil, fmt.Errorf("relmap: driver %T does not support transaction options", c.driver)
	}
	if err != nil {
		return nil, fmt.Errorf("relmap: starting a transaction: %w", err)
	}
	cfg := c.config
	cfg.driver = &txDriver{tx: tx, drv: c.driver}
	return &Tx{client: &Client{config: cfg, builder: c.builder}}, nil
}

// mapping resolves the type mapping of T in the client registry.
func mapping[T any, PT interface {
	*T
	schema.Schemer
}](c *Client) *schema.TypeMapping {
	return schema.Mapping[T, PT](c.registry)
}

// exec runs a statement that returns no rows.
func (c *Client) exec(ctx context.Context, m *schema.TypeMapping, op, query string) error {
	if query == "" {
		return c.invalid(ctx, m, op)
	}
	if err := c.driver.Exec(ctx, query); err != nil {
		return c.fail(ctx, execError(m.Table, op, query, err, false))
	}
	c.log.DebugContext(ctx, "statement executed", "op", op, "table", m.Table, "sql", query)
	return nil
}

// query runs a statement that returns rows. The caller closes the cursor.
func (c *Client) query(ctx context.Context, m *schema.TypeMapping, op, query string) (dialect.Cursor, error) {
	if query == "" {
		return nil, c.invalid(ctx, m, op)
	}
	cur, err := c.driver.Query(ctx, query)
	if err != nil {
		return nil, c.fail(ctx, execError(m.Table, op, query, err, true))
	}
	c.log.DebugContext(ctx, "statement executed", "op", op, "table", m.Table, "sql", query)
	return cur, nil
}

func (c *Client) invalid(ctx context.Context, m *schema.TypeMapping, op string) error {
	return c.fail(ctx, &InvalidArgumentError{Entity: m.Table, Op: op})
}

func (c *Client) fail(ctx context.Context, err error) error {
	attrs := []any{"err", err}
	switch e := err.(type) {
	case *QueryError:
		attrs = append(attrs, "op", e.Op, "table", e.Entity, "sql", e.SQL)
	case *MutationError:
		attrs = append(attrs, "op", e.Op, "table", e.Entity, "sql", e.SQL)
	case *InvalidArgumentError:
		attrs = append(attrs, "op", e.Op, "table", e.Entity)
	}
	c.log.ErrorContext(ctx, "statement failed", attrs...)
	return err
}

// txDriver binds a client to a transaction.
type txDriver struct {
	tx  dialect.Tx
	drv dialect.Driver
}

// Exec implements the dialect.Executor interface.
func (d *txDriver) Exec(ctx context.Context, query string) error {
	return d.tx.Exec(ctx, query)
}

// ExecReturningID implements the dialect.Executor interface.
func (d *txDriver) ExecReturningID(ctx context.Context, query string) (uint64, error) {
	return d.tx.ExecReturningID(ctx, query)
}

// Query implements the dialect.Executor interface.
func (d *txDriver) Query(ctx context.Context, query string) (dialect.Cursor, error) {
	return d.tx.Query(ctx, query)
}

// Tx returns ErrTxStarted. Nested transactions are not supported.
func (*txDriver) Tx(context.Context) (dialect.Tx, error) {
	return nil, ErrTxStarted
}

// Dialect returns the dialect of the parent driver.
func (d *txDriver) Dialect() string { return d.drv.Dialect() }

// Close is a nop. The transaction is ended by Commit or Rollback.
func (*txDriver) Close() error { return nil }

// Unwrap returns the driver the transaction was started on.
func (d *txDriver) Unwrap() dialect.Driver { return d.drv }

var _ dialect.Driver = (*txDriver)(nil)
