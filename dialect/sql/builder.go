package sql

import (
	"strconv"
	"strings"

	"github.com/syssam/relmap/dialect"
	"github.com/syssam/relmap/schema"
	"github.com/syssam/relmap/schema/field"
)

// Builder compiles statements for one SQL dialect. It holds no state besides
// the dialect name and is safe for concurrent use.
//
// Every method returns the empty string when the statement cannot be compiled:
// an invalid table or column name, no columns, an unknown column in the
// parameters, or a value that cannot be rendered.
type Builder struct {
	dialect string
}

// Dialect returns a Builder for the given dialect. Unknown dialects compile
// with SQLite rules.
func Dialect(name string) Builder {
	return Builder{dialect: name}
}

// Name returns the dialect name of the builder.
func (b Builder) Name() string {
	return b.dialect
}

// CreateTable compiles a CREATE TABLE statement with one column clause per
// descriptor, in order, followed by the table constraint clauses.
//
//	CREATE TABLE User (id INTEGER PRIMARY KEY AUTOINCREMENT, name TEXT, age INTEGER)
func (b Builder) CreateTable(table string, columns []*field.Descriptor, c schema.TableConstraint) string {
	if !isValidIdentifier(table) || len(columns) == 0 {
		return ""
	}
	var pk []string
	for _, col := range columns {
		if col.PrimaryKey {
			pk = append(pk, col.Name)
		}
	}
	// Column-level PRIMARY KEY is only emitted for a single key column that is
	// not overridden by the table constraint.
	inlinePK := len(c.PrimaryKey) == 0 && len(pk) == 1
	tablePK := c.PrimaryKey
	if len(tablePK) == 0 && len(pk) > 1 {
		tablePK = pk
	}
	clauses := make([]string, 0, len(columns)+len(c.Unique)+len(c.Extra)+1)
	for _, col := range columns {
		clause, ok := b.columnClause(col, inlinePK)
		if !ok {
			return ""
		}
		clauses = append(clauses, clause)
	}
	if len(tablePK) > 0 {
		if !hasColumns(columns, tablePK) {
			return ""
		}
		clauses = append(clauses, "PRIMARY KEY ("+strings.Join(tablePK, ", ")+")")
	}
	for _, set := range c.Unique {
		if len(set) == 0 || !hasColumns(columns, set) {
			return ""
		}
		clauses = append(clauses, "UNIQUE ("+strings.Join(set, ", ")+")")
	}
	for _, extra := range c.Extra {
		if extra = strings.TrimSpace(extra); extra != "" {
			clauses = append(clauses, extra)
		}
	}
	var sb strings.Builder
	sb.WriteString("CREATE TABLE ")
	if c.IfNotExists {
		sb.WriteString("IF NOT EXISTS ")
	}
	sb.WriteString(table)
	sb.WriteString(" (")
	sb.WriteString(strings.Join(clauses, ", "))
	sb.WriteString(")")
	return sb.String()
}

func (b Builder) columnClause(col *field.Descriptor, inlinePK bool) (string, bool) {
	if !isValidIdentifier(col.Name) || !col.Type.Valid() {
		return "", false
	}
	var sb strings.Builder
	sb.WriteString(col.Name)
	sb.WriteByte(' ')
	sb.WriteString(b.affinity(col))
	if col.PrimaryKey && inlinePK {
		sb.WriteString(" PRIMARY KEY")
	}
	if col.AutoIncrement {
		if !col.Type.Integer() {
			return "", false
		}
		switch b.dialect {
		case dialect.MySQL:
			sb.WriteString(" AUTO_INCREMENT")
		case dialect.Postgres:
			// Expressed by the SERIAL affinity.
		default:
			if !col.PrimaryKey || !inlinePK {
				return "", false
			}
			sb.WriteString(" AUTOINCREMENT")
		}
	}
	if !col.Nullable && !col.PrimaryKey {
		sb.WriteString(" NOT NULL")
	}
	if col.Unique && !(col.PrimaryKey && inlinePK) {
		sb.WriteString(" UNIQUE")
	}
	return sb.String(), true
}

// DropTable compiles a DROP TABLE statement.
func (b Builder) DropTable(table string) string {
	if !isValidIdentifier(table) {
		return ""
	}
	return "DROP TABLE " + table
}

// Select compiles a SELECT statement.
//
//	SELECT <projection> FROM <table> [WHERE ...] [ORDER BY ...] [LIMIT n] [OFFSET m]
func (b Builder) Select(table string, columns []*field.Descriptor, p QueryParams) string {
	if !isValidIdentifier(table) || len(columns) == 0 {
		return ""
	}
	projection := "*"
	if len(p.Columns) > 0 {
		selected, ok := pick(columns, p.Columns)
		if !ok {
			return ""
		}
		names := make([]string, len(selected))
		for i, c := range selected {
			names[i] = c.Name
		}
		projection = strings.Join(names, ", ")
	}
	where, ok := b.Condition(p.Where)
	if !ok {
		return ""
	}
	var sb strings.Builder
	sb.WriteString("SELECT ")
	sb.WriteString(projection)
	sb.WriteString(" FROM ")
	sb.WriteString(table)
	writeWhere(&sb, where)
	if len(p.OrderBy) > 0 {
		terms := make([]string, len(p.OrderBy))
		for i, o := range p.OrderBy {
			if !hasColumns(columns, []string{o.Column}) {
				return ""
			}
			dir := " ASC"
			if o.Desc {
				dir = " DESC"
			}
			terms[i] = o.Column + dir
		}
		sb.WriteString(" ORDER BY ")
		sb.WriteString(strings.Join(terms, ", "))
	}
	b.writeLimit(&sb, p.Limit, p.Offset)
	return sb.String()
}

func (b Builder) writeLimit(sb *strings.Builder, limit, offset *uint64) {
	switch {
	case limit != nil:
		sb.WriteString(" LIMIT ")
		sb.WriteString(strconv.FormatUint(*limit, 10))
	case offset != nil && b.dialect == dialect.MySQL:
		sb.WriteString(" LIMIT 18446744073709551615")
	case offset != nil && b.dialect != dialect.Postgres:
		sb.WriteString(" LIMIT -1")
	}
	if offset != nil {
		sb.WriteString(" OFFSET ")
		sb.WriteString(strconv.FormatUint(*offset, 10))
	}
}

// Insert compiles an INSERT statement for obj. An autoincrement column is
// left out while its value is unset. On Postgres the statement returns the
// autoincrement column so the generated id can be read back.
//
//	INSERT INTO User (name, age) VALUES ('Alice', 30)
func (b Builder) Insert(obj any, table string, columns []*field.Descriptor, p ModifyParams) string {
	if !isValidIdentifier(table) || len(columns) == 0 {
		return ""
	}
	targets := columns
	if len(p.Columns) > 0 {
		var ok bool
		if targets, ok = pick(columns, p.Columns); !ok {
			return ""
		}
	}
	var (
		names    = make([]string, 0, len(targets))
		values   = make([]string, 0, len(targets))
		returned string
	)
	for _, c := range targets {
		if c.AutoIncrement {
			returned = c.Name
			if _, present, err := c.Read(obj); err != nil {
				return ""
			} else if !present {
				continue
			}
		}
		lit, ok := b.columnLiteral(c, obj)
		if !ok {
			return ""
		}
		names = append(names, c.Name)
		values = append(values, lit)
	}
	var sb strings.Builder
	sb.WriteString("INSERT INTO ")
	sb.WriteString(table)
	switch {
	case len(names) > 0:
		sb.WriteString(" (")
		sb.WriteString(strings.Join(names, ", "))
		sb.WriteString(") VALUES (")
		sb.WriteString(strings.Join(values, ", "))
		sb.WriteString(")")
	case b.dialect == dialect.MySQL:
		sb.WriteString(" () VALUES ()")
	default:
		sb.WriteString(" DEFAULT VALUES")
	}
	if b.dialect == dialect.Postgres && returned != "" {
		sb.WriteString(" RETURNING ")
		sb.WriteString(returned)
	}
	return sb.String()
}

// Update compiles an UPDATE statement that writes the fields of obj. An empty
// condition compiles without a WHERE clause and updates every row.
//
//	UPDATE User SET name = 'Bob', age = 31 WHERE (id = 1)
func (b Builder) Update(obj any, table string, columns []*field.Descriptor, p ModifyParams) string {
	if !isValidIdentifier(table) || len(columns) == 0 {
		return ""
	}
	var targets []*field.Descriptor
	if len(p.Columns) > 0 {
		var ok bool
		if targets, ok = pick(columns, p.Columns); !ok {
			return ""
		}
	} else {
		for _, c := range columns {
			if c.PrimaryKey {
				continue
			}
			// an unset autoincrement value is left to the engine
			if c.AutoIncrement {
				if _, present, err := c.Read(obj); err != nil {
					return ""
				} else if !present {
					continue
				}
			}
			targets = append(targets, c)
		}
	}
	if len(targets) == 0 {
		return ""
	}
	sets := make([]string, len(targets))
	for i, c := range targets {
		lit, ok := b.columnLiteral(c, obj)
		if !ok {
			return ""
		}
		sets[i] = c.Name + " = " + lit
	}
	where, ok := b.Condition(p.Where)
	if !ok {
		return ""
	}
	var sb strings.Builder
	sb.WriteString("UPDATE ")
	sb.WriteString(table)
	sb.WriteString(" SET ")
	sb.WriteString(strings.Join(sets, ", "))
	writeWhere(&sb, where)
	return sb.String()
}

// Delete compiles a DELETE statement. An empty condition compiles without a
// WHERE clause and deletes every row.
func (b Builder) Delete(table string, where *Condition) string {
	return b.scoped("DELETE FROM "+table, table, where)
}

// Sum compiles a SELECT SUM(column) statement.
func (b Builder) Sum(table, column string, where *Condition) string {
	return b.aggregate("SUM", table, column, where)
}

// Average compiles a SELECT AVG(column) statement.
func (b Builder) Average(table, column string, where *Condition) string {
	return b.aggregate("AVG", table, column, where)
}

// Count compiles a SELECT COUNT(*) statement.
func (b Builder) Count(table string, where *Condition) string {
	return b.scoped("SELECT COUNT(*) FROM "+table, table, where)
}

func (b Builder) aggregate(fn, table, column string, where *Condition) string {
	if !isValidIdentifier(column) {
		return ""
	}
	return b.scoped("SELECT "+fn+"("+column+") FROM "+table, table, where)
}

func (b Builder) scoped(stmt, table string, where *Condition) string {
	if !isValidIdentifier(table) {
		return ""
	}
	cond, ok := b.Condition(where)
	if !ok {
		return ""
	}
	var sb strings.Builder
	sb.WriteString(stmt)
	writeWhere(&sb, cond)
	return sb.String()
}

func writeWhere(sb *strings.Builder, cond string) {
	if cond != "" {
		sb.WriteString(" WHERE ")
		sb.WriteString(cond)
	}
}

// pick returns the named columns in registration order. ok is false if a
// name is unknown.
func pick(columns []*field.Descriptor, names []string) ([]*field.Descriptor, bool) {
	want := make(map[string]struct{}, len(names))
	for _, n := range names {
		want[n] = struct{}{}
	}
	picked := make([]*field.Descriptor, 0, len(want))
	for _, c := range columns {
		if _, ok := want[c.Name]; ok {
			picked = append(picked, c)
			delete(want, c.Name)
		}
	}
	return picked, len(want) == 0
}

func hasColumns(columns []*field.Descriptor, names []string) bool {
	_, ok := pick(columns, names)
	return ok
}
