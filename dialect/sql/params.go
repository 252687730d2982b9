package sql

// Order is a single ORDER BY term.
type Order struct {
	Column string
	Desc   bool
}

// Asc returns an ascending order term.
func Asc(column string) Order { return Order{Column: column} }

// Desc returns a descending order term.
func Desc(column string) Order { return Order{Column: column, Desc: true} }

// QueryParams describes a SELECT statement.
type QueryParams struct {
	// Columns restricts the projection. The selected columns are emitted in
	// registration order; an empty list selects *.
	Columns []string
	Where   *Condition
	OrderBy []Order
	Limit   *uint64
	Offset  *uint64
}

// WithLimit returns a copy of p limited to n rows.
func (p QueryParams) WithLimit(n uint64) QueryParams {
	p.Limit = &n
	return p
}

// WithOffset returns a copy of p that skips the first n rows.
func (p QueryParams) WithOffset(n uint64) QueryParams {
	p.Offset = &n
	return p
}

// ModifyParams scopes INSERT and UPDATE statements.
type ModifyParams struct {
	// Where scopes UPDATE statements. It is ignored by INSERT. An empty
	// condition updates every row.
	Where *Condition
	// Columns restricts the columns written. For UPDATE the default is every
	// column that is neither a primary key nor autoincrement; for INSERT it is
	// every column.
	Columns []string
}
