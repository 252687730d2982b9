// Package dialect defines the narrow contract between the mapping core and a
// SQL engine.
//
// The core hands the engine SQL text produced by the statement compilers in
// dialect/sql and nothing else. An engine adapter implements Driver:
//
//	type Driver interface {
//	    Exec(ctx context.Context, query string) error
//	    ExecReturningID(ctx context.Context, query string) (uint64, error)
//	    Query(ctx context.Context, query string) (Cursor, error)
//	    Tx(ctx context.Context) (Tx, error)
//	    Dialect() string
//	    Close() error
//	}
//
// Query returns a Cursor, a forward-only row source that exposes the returned
// column names and the raw text of each value, with SQL NULL reported
// separately from the empty string.
//
// # Supported Dialects
//
//   - Postgres: PostgreSQL database
//   - MySQL: MySQL/MariaDB database
//   - SQLite: SQLite database
//
// # Usage
//
//	import (
//	    "github.com/syssam/relmap/dialect/sql"
//	)
//
//	drv, err := sql.Connect(ctx, "sqlite://app.db")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer drv.Close()
package dialect
