package sql

import (
	"fmt"

	"github.com/syssam/relmap/dialect"
	"github.com/syssam/relmap/schema"
	"github.com/syssam/relmap/schema/field"
)

// SchemaMismatchError is returned when a result column has no counterpart in
// the mapping of the scanned type.
type SchemaMismatchError struct {
	Table  string
	Column string
}

// Error returns the error string.
func (e *SchemaMismatchError) Error() string {
	return fmt.Sprintf("dialect/sql: result column %q is not mapped by table %q", e.Column, e.Table)
}

// ScanAll reads every remaining row of the cursor into a new *T. Result
// columns are matched to the mapping by exact name. A NULL value leaves the
// field at its zero value. The cursor is not closed.
//
// If any result column is unknown, no rows are read and a
// *SchemaMismatchError is returned.
func ScanAll[T any](cur dialect.Cursor, m *schema.TypeMapping) ([]*T, error) {
	names, err := cur.Columns()
	if err != nil {
		return nil, fmt.Errorf("dialect/sql: read columns: %w", err)
	}
	columns := make([]*field.Descriptor, len(names))
	for i, name := range names {
		c, ok := m.Column(name)
		if !ok {
			return nil, &SchemaMismatchError{Table: m.Table, Column: name}
		}
		columns[i] = c
	}
	var objs []*T
	for cur.Next() {
		obj := new(T)
		for i, c := range columns {
			text, ok := cur.Value(i)
			if !ok {
				continue
			}
			if err := c.Write(obj, text); err != nil {
				return nil, fmt.Errorf("dialect/sql: scan column %q: %w", c.Name, err)
			}
		}
		objs = append(objs, obj)
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("dialect/sql: scan rows: %w", err)
	}
	return objs, nil
}

// ScanValue reads the first column of the first row. ok is false if there are
// no rows or the value is NULL.
func ScanValue(cur dialect.Cursor) (text string, ok bool, err error) {
	if cur.Next() {
		text, ok = cur.Value(0)
	}
	if err := cur.Err(); err != nil {
		return "", false, fmt.Errorf("dialect/sql: scan value: %w", err)
	}
	return text, ok, nil
}
