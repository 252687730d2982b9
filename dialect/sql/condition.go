package sql

import (
	"strings"
)

type condOp uint8

const (
	condEmpty condOp = iota
	condCompare
	condAnd
	condOr
	condNot
)

// Condition is a boolean expression tree used to scope queries, updates and
// deletions. The zero value and a nil *Condition match every row.
type Condition struct {
	op       condOp
	column   string
	operator string
	value    any
	values   []any
	left     *Condition
	right    *Condition
}

// IsEmpty reports if the condition matches every row without filtering.
func (c *Condition) IsEmpty() bool {
	return c == nil || c.op == condEmpty
}

// Empty returns a condition that matches every row.
func Empty() *Condition {
	return &Condition{}
}

// Compare returns a comparison of a column against a literal value. Supported
// operators are =, <>, !=, <, <=, >, >=, LIKE and NOT LIKE. Comparing with
// a nil value using = or <> compiles to IS NULL or IS NOT NULL.
func Compare(column, op string, v any) *Condition {
	return &Condition{op: condCompare, column: column, operator: strings.ToUpper(strings.TrimSpace(op)), value: v}
}

// And returns a condition that matches rows matched by both l and r.
func And(l, r *Condition) *Condition {
	return &Condition{op: condAnd, left: l, right: r}
}

// Or returns a condition that matches rows matched by l or r.
func Or(l, r *Condition) *Condition {
	return &Condition{op: condOr, left: l, right: r}
}

// Not returns the negation of c.
func Not(c *Condition) *Condition {
	return &Condition{op: condNot, left: c}
}

// All folds the conditions with AND, left to right.
func All(cs ...*Condition) *Condition {
	return fold(And, cs)
}

// Any folds the conditions with OR, left to right.
func Any(cs ...*Condition) *Condition {
	return fold(Or, cs)
}

func fold(join func(l, r *Condition) *Condition, cs []*Condition) *Condition {
	if len(cs) == 0 {
		return Empty()
	}
	c := cs[0]
	for _, next := range cs[1:] {
		c = join(c, next)
	}
	return c
}

// EQ returns a "column = v" condition.
func EQ(column string, v any) *Condition { return Compare(column, "=", v) }

// NEQ returns a "column <> v" condition.
func NEQ(column string, v any) *Condition { return Compare(column, "<>", v) }

// GT returns a "column > v" condition.
func GT(column string, v any) *Condition { return Compare(column, ">", v) }

// GTE returns a "column >= v" condition.
func GTE(column string, v any) *Condition { return Compare(column, ">=", v) }

// LT returns a "column < v" condition.
func LT(column string, v any) *Condition { return Compare(column, "<", v) }

// LTE returns a "column <= v" condition.
func LTE(column string, v any) *Condition { return Compare(column, "<=", v) }

// Like returns a "column LIKE pattern" condition.
func Like(column, pattern string) *Condition { return Compare(column, "LIKE", pattern) }

// NotLike returns a "column NOT LIKE pattern" condition.
func NotLike(column, pattern string) *Condition { return Compare(column, "NOT LIKE", pattern) }

// Contains returns a condition that matches values containing substr.
func Contains(column, substr string) *Condition { return Like(column, "%"+substr+"%") }

// HasPrefix returns a condition that matches values starting with prefix.
func HasPrefix(column, prefix string) *Condition { return Like(column, prefix+"%") }

// HasSuffix returns a condition that matches values ending with suffix.
func HasSuffix(column, suffix string) *Condition { return Like(column, "%"+suffix) }

// IsNull returns a "column IS NULL" condition.
func IsNull(column string) *Condition {
	return &Condition{op: condCompare, column: column, operator: "IS NULL"}
}

// NotNull returns a "column IS NOT NULL" condition.
func NotNull(column string) *Condition {
	return &Condition{op: condCompare, column: column, operator: "IS NOT NULL"}
}

// In returns a "column IN (vs...)" condition. An empty list does not compile.
func In(column string, vs ...any) *Condition {
	return &Condition{op: condCompare, column: column, operator: "IN", values: vs}
}

// NotIn returns a "column NOT IN (vs...)" condition. An empty list does not
// compile.
func NotIn(column string, vs ...any) *Condition {
	return &Condition{op: condCompare, column: column, operator: "NOT IN", values: vs}
}

var operators = map[string]bool{
	"=":        true,
	"<>":       true,
	"!=":       true,
	"<":        true,
	"<=":       true,
	">":        true,
	">=":       true,
	"LIKE":     true,
	"NOT LIKE": true,
}

// Condition compiles c into SQL boolean text. Every comparison and compound
// node is parenthesized:
//
//	And(GT("age", 18), LT("age", 30)) // ((age > 18) AND (age < 30))
//
// An empty condition compiles to "". ok is false if c cannot be compiled
// (invalid column name, unknown operator, unsupported value).
//
// Values are escaped into literals, they are not bound as parameters.
func (b Builder) Condition(c *Condition) (text string, ok bool) {
	if c.IsEmpty() {
		return "", true
	}
	switch c.op {
	case condCompare:
		return b.comparison(c)
	case condAnd:
		l, lok := b.Condition(c.left)
		r, rok := b.Condition(c.right)
		switch {
		case !lok || !rok:
			return "", false
		case l == "":
			return r, true
		case r == "":
			return l, true
		}
		return "(" + l + " AND " + r + ")", true
	case condOr:
		l, lok := b.Condition(c.left)
		r, rok := b.Condition(c.right)
		switch {
		case !lok || !rok:
			return "", false
		case l == "" || r == "":
			// One side matches every row.
			return "", true
		}
		return "(" + l + " OR " + r + ")", true
	case condNot:
		inner, ok := b.Condition(c.left)
		switch {
		case !ok:
			return "", false
		case inner == "":
			return "(1 = 0)", true
		}
		return "(NOT " + inner + ")", true
	}
	return "", false
}

func (b Builder) comparison(c *Condition) (string, bool) {
	if !isValidIdentifier(c.column) {
		return "", false
	}
	switch c.operator {
	case "IS NULL", "IS NOT NULL":
		return "(" + c.column + " " + c.operator + ")", true
	case "IN", "NOT IN":
		if len(c.values) == 0 {
			return "", false
		}
		lits := make([]string, len(c.values))
		for i, v := range c.values {
			lit, ok := b.Literal(v)
			if !ok || lit == "NULL" {
				return "", false
			}
			lits[i] = lit
		}
		return "(" + c.column + " " + c.operator + " (" + strings.Join(lits, ", ") + "))", true
	}
	if !operators[c.operator] {
		return "", false
	}
	lit, ok := b.Literal(c.value)
	if !ok {
		return "", false
	}
	if lit == "NULL" {
		switch c.operator {
		case "=":
			return "(" + c.column + " IS NULL)", true
		case "<>", "!=":
			return "(" + c.column + " IS NOT NULL)", true
		default:
			return "", false
		}
	}
	return "(" + c.column + " " + c.operator + " " + lit + ")", true
}
