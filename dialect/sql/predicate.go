package sql

// Field is a typed column name that builds conditions. It keeps the value
// type of comparisons in line with the Go type of the mapped field.
//
//	var Age = sql.Field[int]("age")
//	cond := sql.And(Age.GT(18), Age.LT(30))
type Field[V any] string

// Name returns the column name.
func (f Field[V]) Name() string { return string(f) }

// EQ returns a condition that checks if the column equals v.
func (f Field[V]) EQ(v V) *Condition { return EQ(string(f), v) }

// NEQ returns a condition that checks if the column does not equal v.
func (f Field[V]) NEQ(v V) *Condition { return NEQ(string(f), v) }

// GT returns a condition that checks if the column is greater than v.
func (f Field[V]) GT(v V) *Condition { return GT(string(f), v) }

// GTE returns a condition that checks if the column is greater than or equal to v.
func (f Field[V]) GTE(v V) *Condition { return GTE(string(f), v) }

// LT returns a condition that checks if the column is less than v.
func (f Field[V]) LT(v V) *Condition { return LT(string(f), v) }

// LTE returns a condition that checks if the column is less than or equal to v.
func (f Field[V]) LTE(v V) *Condition { return LTE(string(f), v) }

// In returns a condition that checks if the column value is in vs.
func (f Field[V]) In(vs ...V) *Condition { return In(string(f), anys(vs)...) }

// NotIn returns a condition that checks if the column value is not in vs.
func (f Field[V]) NotIn(vs ...V) *Condition { return NotIn(string(f), anys(vs)...) }

// IsNull returns a condition that checks if the column is NULL.
func (f Field[V]) IsNull() *Condition { return IsNull(string(f)) }

// NotNull returns a condition that checks if the column is not NULL.
func (f Field[V]) NotNull() *Condition { return NotNull(string(f)) }

// StringField is a typed string column with pattern matching conditions.
type StringField string

// Name returns the column name.
func (f StringField) Name() string { return string(f) }

// Field returns the column as a Field[string].
func (f StringField) Field() Field[string] { return Field[string](f) }

// EQ returns a condition that checks if the column equals v.
func (f StringField) EQ(v string) *Condition { return EQ(string(f), v) }

// NEQ returns a condition that checks if the column does not equal v.
func (f StringField) NEQ(v string) *Condition { return NEQ(string(f), v) }

// In returns a condition that checks if the column value is in vs.
func (f StringField) In(vs ...string) *Condition { return f.Field().In(vs...) }

// Like returns a condition that matches the column against a LIKE pattern.
func (f StringField) Like(pattern string) *Condition { return Like(string(f), pattern) }

// Contains returns a condition that checks if the column contains substr.
func (f StringField) Contains(substr string) *Condition { return Contains(string(f), substr) }

// HasPrefix returns a condition that checks if the column starts with prefix.
func (f StringField) HasPrefix(prefix string) *Condition { return HasPrefix(string(f), prefix) }

// HasSuffix returns a condition that checks if the column ends with suffix.
func (f StringField) HasSuffix(suffix string) *Condition { return HasSuffix(string(f), suffix) }

// IsNull returns a condition that checks if the column is NULL.
func (f StringField) IsNull() *Condition { return IsNull(string(f)) }

// NotNull returns a condition that checks if the column is not NULL.
func (f StringField) NotNull() *Condition { return NotNull(string(f)) }

func anys[V any](vs []V) []any {
	out := make([]any, len(vs))
	for i, v := range vs {
		out[i] = v
	}
	return out
}
