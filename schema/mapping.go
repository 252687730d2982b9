package schema

import (
	"fmt"

	"github.com/syssam/relmap/schema/field"
)

// TypeMapping associates a Go type with its table name and ordered columns.
// Column order is registration order and is the canonical order of every
// generated statement.
type TypeMapping struct {
	Table   string
	Columns []*field.Descriptor
}

// Table returns a TypeMapping for the given table name and fields.
func Table(name string, fields ...*field.Builder) *TypeMapping {
	m := &TypeMapping{Table: name, Columns: make([]*field.Descriptor, 0, len(fields))}
	for _, f := range fields {
		m.Columns = append(m.Columns, f.Descriptor())
	}
	return m
}

// Column returns the descriptor of the named column.
func (m *TypeMapping) Column(name string) (*field.Descriptor, bool) {
	for _, c := range m.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return nil, false
}

// ColumnNames returns the column names in registration order.
func (m *TypeMapping) ColumnNames() []string {
	names := make([]string, len(m.Columns))
	for i, c := range m.Columns {
		names[i] = c.Name
	}
	return names
}

// PrimaryKey returns the columns flagged as primary key.
func (m *TypeMapping) PrimaryKey() []*field.Descriptor {
	var pk []*field.Descriptor
	for _, c := range m.Columns {
		if c.PrimaryKey {
			pk = append(pk, c)
		}
	}
	return pk
}

// AutoIncrement returns the engine generated column, if any.
func (m *TypeMapping) AutoIncrement() (*field.Descriptor, bool) {
	for _, c := range m.Columns {
		if c.AutoIncrement {
			return c, true
		}
	}
	return nil, false
}

// Err returns an error if the mapping cannot be registered.
func (m *TypeMapping) Err() error {
	if m.Table == "" {
		return fmt.Errorf("schema: missing table name")
	}
	if len(m.Columns) == 0 {
		return fmt.Errorf("schema: table %q has no columns", m.Table)
	}
	var (
		auto int
		seen = make(map[string]struct{}, len(m.Columns))
	)
	for _, c := range m.Columns {
		if c == nil {
			return fmt.Errorf("schema: table %q has a nil column", m.Table)
		}
		if err := c.Err(); err != nil {
			return fmt.Errorf("schema: table %q: %w", m.Table, err)
		}
		if _, ok := seen[c.Name]; ok {
			return fmt.Errorf("schema: table %q: duplicate column %q", m.Table, c.Name)
		}
		seen[c.Name] = struct{}{}
		if c.AutoIncrement {
			auto++
		}
	}
	if auto > 1 {
		return fmt.Errorf("schema: table %q has %d autoincrement columns", m.Table, auto)
	}
	return nil
}

// Equal reports if both mappings describe the same table and columns.
func (m *TypeMapping) Equal(o *TypeMapping) bool {
	if m.Table != o.Table || len(m.Columns) != len(o.Columns) {
		return false
	}
	for i := range m.Columns {
		if !m.Columns[i].Equal(o.Columns[i]) {
			return false
		}
	}
	return true
}

// TableConstraint holds table-level clauses supplied when a table is created.
type TableConstraint struct {
	// PrimaryKey emits a composite PRIMARY KEY clause. Column-level primary
	// key flags are not emitted when it is set.
	PrimaryKey []string
	// Unique emits one UNIQUE clause per column set.
	Unique [][]string
	// Extra clauses are appended verbatim, in order.
	Extra []string
	// IfNotExists emits CREATE TABLE IF NOT EXISTS.
	IfNotExists bool
}
