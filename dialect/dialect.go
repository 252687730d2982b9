package dialect

import "context"

// Dialect names.
const (
	MySQL    = "mysql"
	SQLite   = "sqlite"
	Postgres = "postgres"
)

// Executor runs SQL text produced by the statement compilers.
type Executor interface {
	// Exec runs a statement that returns no rows.
	Exec(ctx context.Context, query string) error
	// ExecReturningID runs an INSERT statement and returns the id generated
	// by the engine for the autoincrement column.
	ExecReturningID(ctx context.Context, query string) (uint64, error)
	// Query runs a statement that returns rows. The caller owns the cursor
	// and must close it.
	Query(ctx context.Context, query string) (Cursor, error)
}

// Driver is the interface an engine adapter implements.
type Driver interface {
	Executor
	// Tx starts a transaction.
	Tx(ctx context.Context) (Tx, error)
	// Dialect returns the dialect name of the engine.
	Dialect() string
	// Close releases the engine connection.
	Close() error
}

// Tx is a transaction started by a Driver.
type Tx interface {
	Executor
	Commit() error
	Rollback() error
}

// Cursor is a forward-only, single-pass row source. It must not be shared
// between goroutines.
type Cursor interface {
	// Columns returns the names of the returned columns, in order.
	Columns() ([]string, error)
	// Next advances to the next row. It returns false when the rows are
	// exhausted or an error occurred; see Err.
	Next() bool
	// Value returns the raw text of column i in the current row. ok is false
	// if the value is SQL NULL.
	Value(i int) (text string, ok bool)
	// Err returns the error, if any, encountered during iteration.
	Err() error
	// Close releases the cursor.
	Close() error
}
