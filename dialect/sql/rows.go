package sql

import (
	"database/sql"
	"fmt"

	"github.com/syssam/relmap/dialect"
)

// ColumnScanner is the interface that wraps the standard
// sql.Rows methods used for scanning database rows.
type ColumnScanner interface {
	Close() error
	Columns() ([]string, error)
	Err() error
	Next() bool
	Scan(dest ...any) error
}

// Rows adapts a ColumnScanner to the dialect.Cursor interface. Every value is
// scanned as text.
type Rows struct {
	ColumnScanner
	values []sql.NullString
	dest   []any
	err    error
}

// NewRows returns a cursor over rs.
func NewRows(rs ColumnScanner) *Rows {
	return &Rows{ColumnScanner: rs}
}

// Next advances to the next row and scans its values.
func (r *Rows) Next() bool {
	if r.err != nil || !r.ColumnScanner.Next() {
		return false
	}
	if r.dest == nil {
		columns, err := r.ColumnScanner.Columns()
		if err != nil {
			r.err = err
			return false
		}
		r.values = make([]sql.NullString, len(columns))
		r.dest = make([]any, len(columns))
		for i := range r.values {
			r.dest[i] = &r.values[i]
		}
	}
	if err := r.ColumnScanner.Scan(r.dest...); err != nil {
		r.err = fmt.Errorf("dialect/sql: scan: %w", err)
		return false
	}
	return true
}

// Value returns the text of column i in the current row.
func (r *Rows) Value(i int) (string, bool) {
	if i < 0 || i >= len(r.values) {
		return "", false
	}
	v := r.values[i]
	return v.String, v.Valid
}

// Err returns the scan or iteration error, if any.
func (r *Rows) Err() error {
	if r.err != nil {
		return r.err
	}
	return r.ColumnScanner.Err()
}

var _ dialect.Cursor = (*Rows)(nil)

type (
	// Result is an alias to sql.Result.
	Result = sql.Result
	// NullString is an alias to sql.NullString.
	NullString = sql.NullString
	// NullFloat64 is an alias to sql.NullFloat64.
	NullFloat64 = sql.NullFloat64
	// TxOptions holds the transaction options to be used in DB.BeginTx.
	TxOptions = sql.TxOptions
)
