package relmap

import (
	"context"
	"errors"
	"fmt"

	"github.com/syssam/relmap/codec"
	"github.com/syssam/relmap/dialect"
	"github.com/syssam/relmap/dialect/sql"
	sqlschema "github.com/syssam/relmap/dialect/sql/schema"
	"github.com/syssam/relmap/schema"
)

// CreateTable creates the table of T.
func CreateTable[T any, PT interface {
	*T
	schema.Schemer
}](ctx context.Context, c *Client, constraint schema.TableConstraint) error {
	m := mapping[T, PT](c)
	return c.exec(ctx, m, "create table", c.builder.CreateTable(m.Table, m.Columns, constraint))
}

// DropTable drops the table of T.
func DropTable[T any, PT interface {
	*T
	schema.Schemer
}](ctx context.Context, c *Client) error {
	m := mapping[T, PT](c)
	return c.exec(ctx, m, "drop table", c.builder.DropTable(m.Table))
}

// Query returns the rows of T matching p, in result order.
//
//	users, err := relmap.Query[User](ctx, client, sql.QueryParams{
//	    Where:   sql.GT("age", 20),
//	    OrderBy: []sql.Order{sql.Desc("age")},
//	})
func Query[T any, PT interface {
	*T
	schema.Schemer
}](ctx context.Context, c *Client, p sql.QueryParams) ([]*T, error) {
	m := mapping[T, PT](c)
	query := c.builder.Select(m.Table, m.Columns, p)
	cur, err := c.query(ctx, m, "select", query)
	if err != nil {
		return nil, err
	}
	defer cur.Close()
	objs, err := sql.ScanAll[T](cur, m)
	if err != nil {
		return nil, c.fail(ctx, scanError(m.Table, "select", query, err))
	}
	return objs, nil
}

// First returns the first row of T matching p. It returns a *NotFoundError
// if no row matches.
func First[T any, PT interface {
	*T
	schema.Schemer
}](ctx context.Context, c *Client, p sql.QueryParams) (*T, error) {
	objs, err := Query[T, PT](ctx, c, p.WithLimit(1))
	if err != nil {
		return nil, err
	}
	if len(objs) == 0 {
		return nil, &NotFoundError{label: mapping[T, PT](c).Table}
	}
	return objs[0], nil
}

// FindByPK returns the row of T with the given primary key values, in the
// order the key columns were registered.
func FindByPK[T any, PT interface {
	*T
	schema.Schemer
}](ctx context.Context, c *Client, keys ...any) (*T, error) {
	m := mapping[T, PT](c)
	pk := m.PrimaryKey()
	if len(pk) == 0 || len(pk) != len(keys) {
		return nil, c.fail(ctx, &InvalidArgumentError{
			Entity: m.Table,
			Op:     "select",
			Reason: fmt.Sprintf("table has %d primary key columns, got %d values", len(pk), len(keys)),
		})
	}
	conds := make([]*sql.Condition, len(pk))
	for i, col := range pk {
		conds[i] = sql.EQ(col.Name, keys[i])
	}
	objs, err := Query[T, PT](ctx, c, sql.QueryParams{Where: sql.All(conds...)}.WithLimit(2))
	if err != nil {
		return nil, err
	}
	var id any = keys
	if len(keys) == 1 {
		id = keys[0]
	}
	switch len(objs) {
	case 0:
		return nil, &NotFoundError{label: m.Table, id: id}
	case 1:
		return objs[0], nil
	default:
		return nil, &NotSingularError{label: m.Table, count: len(objs)}
	}
}

// Insert stores obj. An unset autoincrement key is left to the engine.
func Insert[T any, PT interface {
	*T
	schema.Schemer
}](ctx context.Context, c *Client, obj *T, p sql.ModifyParams) error {
	m := mapping[T, PT](c)
	return c.exec(ctx, m, "insert", c.builder.Insert(obj, m.Table, m.Columns, p))
}

// InsertReturningID stores obj and returns the id generated by the engine.
// If T has an autoincrement column that was unset, the id is written back to
// obj.
func InsertReturningID[T any, PT interface {
	*T
	schema.Schemer
}](ctx context.Context, c *Client, obj *T, p sql.ModifyParams) (uint64, error) {
	m := mapping[T, PT](c)
	query := c.builder.Insert(obj, m.Table, m.Columns, p)
	if query == "" {
		return 0, c.invalid(ctx, m, "insert")
	}
	var (
		auto, hasAuto = m.AutoIncrement()
		unset         bool
	)
	if hasAuto {
		_, present, err := auto.Read(obj)
		unset = err == nil && !present
	}
	id, err := c.driver.ExecReturningID(ctx, query)
	if err != nil {
		return 0, c.fail(ctx, execError(m.Table, "insert", query, err, false))
	}
	c.log.DebugContext(ctx, "statement executed", "op", "insert", "table", m.Table, "sql", query, "id", id)
	if unset && id > 0 {
		if err := auto.Write(obj, codec.Encode(id)); err != nil {
			return id, fmt.Errorf("relmap: set generated id of %s: %w", m.Table, err)
		}
	}
	return id, nil
}

// Update writes obj to the rows matching p.Where. An empty condition updates
// every row of the table.
func Update[T any, PT interface {
	*T
	schema.Schemer
}](ctx context.Context, c *Client, obj *T, p sql.ModifyParams) error {
	m := mapping[T, PT](c)
	return c.exec(ctx, m, "update", c.builder.Update(obj, m.Table, m.Columns, p))
}

// Remove deletes the rows of T matching cond. An empty condition deletes
// every row of the table.
func Remove[T any, PT interface {
	*T
	schema.Schemer
}](ctx context.Context, c *Client, cond *sql.Condition) error {
	m := mapping[T, PT](c)
	return c.exec(ctx, m, "delete", c.builder.Delete(m.Table, cond))
}

// Sum returns the sum of column over the rows matching cond. The result is
// not Valid if no row matches.
func Sum[T any, PT interface {
	*T
	schema.Schemer
}](ctx context.Context, c *Client, column string, cond *sql.Condition) (sql.NullFloat64, error) {
	m := mapping[T, PT](c)
	return aggregate(ctx, c, m, "sum", mustColumn(m, column, c.builder.Sum(m.Table, column, cond)))
}

// Average returns the average of column over the rows matching cond. The
// result is not Valid if no row matches.
func Average[T any, PT interface {
	*T
	schema.Schemer
}](ctx context.Context, c *Client, column string, cond *sql.Condition) (sql.NullFloat64, error) {
	m := mapping[T, PT](c)
	return aggregate(ctx, c, m, "avg", mustColumn(m, column, c.builder.Average(m.Table, column, cond)))
}

// Count returns the number of rows of T matching cond.
func Count[T any, PT interface {
	*T
	schema.Schemer
}](ctx context.Context, c *Client, cond *sql.Condition) (uint64, error) {
	m := mapping[T, PT](c)
	query := c.builder.Count(m.Table, cond)
	text, ok, err := scalar(ctx, c, m, "count", query)
	if err != nil || !ok {
		return 0, err
	}
	n, err := codec.Decode[uint64](text)
	if err != nil {
		return 0, c.fail(ctx, err)
	}
	return n, nil
}

// CheckSchema compares the live table of T with its mapping. The client
// must be backed by a *sql.Driver, possibly wrapped.
func CheckSchema[T any, PT interface {
	*T
	schema.Schemer
}](ctx context.Context, c *Client, opts ...sqlschema.ValidateOption) (*sqlschema.ValidationResult, error) {
	m := mapping[T, PT](c)
	drv, ok := sqlDriver(c.driver)
	if !ok {
		return nil, fmt.Errorf("relmap: check schema of %s: driver %T does not expose a database", m.Table, c.driver)
	}
	result, err := sqlschema.Check(ctx, drv.DB(), drv.Dialect(), m, opts...)
	if err != nil {
		return nil, fmt.Errorf("relmap: check schema of %s: %w", m.Table, err)
	}
	return result, nil
}

func aggregate(ctx context.Context, c *Client, m *schema.TypeMapping, op, query string) (sql.NullFloat64, error) {
	text, ok, err := scalar(ctx, c, m, op, query)
	if err != nil || !ok {
		return sql.NullFloat64{}, err
	}
	f, err := codec.Decode[float64](text)
	if err != nil {
		return sql.NullFloat64{}, c.fail(ctx, err)
	}
	return sql.NullFloat64{Float64: f, Valid: true}, nil
}

// scalar runs query and returns the first value of the first row.
func scalar(ctx context.Context, c *Client, m *schema.TypeMapping, op, query string) (string, bool, error) {
	cur, err := c.query(ctx, m, op, query)
	if err != nil {
		return "", false, err
	}
	defer cur.Close()
	text, ok, err := sql.ScanValue(cur)
	if err != nil {
		return "", false, c.fail(ctx, execError(m.Table, op, query, err, true))
	}
	return text, ok, nil
}

// mustColumn returns query if column is mapped by m, and "" otherwise.
func mustColumn(m *schema.TypeMapping, column, query string) string {
	if _, ok := m.Column(column); !ok {
		return ""
	}
	return query
}

// scanError keeps marshalling errors as is and wraps cursor failures.
func scanError(table, op, query string, err error) error {
	var (
		mismatch *SchemaMismatchError
		conv     *ConversionError
	)
	if errors.As(err, &mismatch) || errors.As(err, &conv) {
		return err
	}
	return execError(table, op, query, err, true)
}

// sqlDriver returns the *sql.Driver behind drv.
func sqlDriver(drv dialect.Driver) (*sql.Driver, bool) {
	for {
		switch d := drv.(type) {
		case *sql.Driver:
			return d, true
		case interface{ Unwrap() dialect.Driver }:
			drv = d.Unwrap()
		default:
			return nil, false
		}
	}
}
