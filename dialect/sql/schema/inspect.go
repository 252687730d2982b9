// Package schema reads the definition of live tables and reports drift
// against the mapping of a Go type.
package schema

import (
	"context"
	"errors"
	"fmt"

	"ariga.io/atlas/sql/migrate"
	"ariga.io/atlas/sql/mysql"
	"ariga.io/atlas/sql/postgres"
	"ariga.io/atlas/sql/schema"
	"ariga.io/atlas/sql/sqlite"

	"github.com/syssam/relmap/dialect"
	"github.com/syssam/relmap/dialect/sql"
	relschema "github.com/syssam/relmap/schema"
)

// ErrTableNotFound is returned by Inspect when the table does not exist.
var ErrTableNotFound = errors.New("dialect/sql/schema: table not found")

// Table is the comparable shape of a table.
type Table struct {
	Name       string
	Columns    []*Column
	PrimaryKey []string
}

// Column is the comparable shape of a column.
type Column struct {
	Name     string
	Type     string
	Size     int
	Nullable bool
	Unique   bool
}

// FromMapping returns the table the builder creates for m in the given
// dialect.
func FromMapping(m *relschema.TypeMapping, name string) *Table {
	b := sql.Dialect(name)
	t := &Table{Name: m.Table, Columns: make([]*Column, 0, len(m.Columns))}
	for _, c := range m.Columns {
		t.Columns = append(t.Columns, &Column{
			Name:     c.Name,
			Type:     b.ColumnType(c),
			Size:     c.Size,
			Nullable: c.Nullable && !c.PrimaryKey,
			Unique:   c.Unique,
		})
		if c.PrimaryKey {
			t.PrimaryKey = append(t.PrimaryKey, c.Name)
		}
	}
	return t
}

// Inspect reads the definition of a live table.
func Inspect(ctx context.Context, db schema.ExecQuerier, name, table string) (*Table, error) {
	drv, err := open(db, name)
	if err != nil {
		return nil, err
	}
	s, err := drv.InspectSchema(ctx, "", &schema.InspectOptions{Tables: []string{table}})
	if err != nil {
		if schema.IsNotExistError(err) {
			return nil, fmt.Errorf("%w: %s", ErrTableNotFound, table)
		}
		return nil, fmt.Errorf("dialect/sql/schema: inspect %s: %w", table, err)
	}
	t, ok := s.Table(table)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrTableNotFound, table)
	}
	return convert(t), nil
}

// Check inspects the table of m and compares it with the mapping.
func Check(ctx context.Context, db schema.ExecQuerier, name string, m *relschema.TypeMapping, opts ...ValidateOption) (*ValidationResult, error) {
	live, err := Inspect(ctx, db, name, m.Table)
	if err != nil {
		return nil, err
	}
	return Diff(live, FromMapping(m, name), opts...), nil
}

func open(db schema.ExecQuerier, name string) (migrate.Driver, error) {
	var (
		drv migrate.Driver
		err error
	)
	switch name {
	case dialect.SQLite:
		drv, err = sqlite.Open(db)
	case dialect.MySQL:
		drv, err = mysql.Open(db)
	case dialect.Postgres:
		drv, err = postgres.Open(db)
	default:
		return nil, fmt.Errorf("dialect/sql/schema: unsupported dialect %q", name)
	}
	if err != nil {
		return nil, fmt.Errorf("dialect/sql/schema: open %s inspector: %w", name, err)
	}
	return drv, nil
}

func convert(t *schema.Table) *Table {
	out := &Table{Name: t.Name, Columns: make([]*Column, 0, len(t.Columns))}
	unique := make(map[string]bool)
	for _, idx := range t.Indexes {
		if idx.Unique && len(idx.Parts) == 1 && idx.Parts[0].C != nil {
			unique[idx.Parts[0].C.Name] = true
		}
	}
	for _, c := range t.Columns {
		col := &Column{Name: c.Name, Unique: unique[c.Name]}
		if c.Type != nil {
			col.Type = c.Type.Raw
			col.Nullable = c.Type.Null
			if st, ok := c.Type.Type.(*schema.StringType); ok {
				col.Size = st.Size
			}
		}
		out.Columns = append(out.Columns, col)
	}
	if t.PrimaryKey != nil {
		for _, p := range t.PrimaryKey.Parts {
			if p.C != nil {
				out.PrimaryKey = append(out.PrimaryKey, p.C.Name)
			}
		}
	}
	return out
}
