package schema

import (
	"fmt"
	"strings"
)

// ValidationError represents a drift between a live table and its mapping.
type ValidationError struct {
	Table   string
	Column  string
	Message string
	// Breaking indicates that generated statements fail against the table.
	Breaking bool
}

func (e *ValidationError) Error() string {
	if e.Column != "" {
		return fmt.Sprintf("%s.%s: %s", e.Table, e.Column, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Table, e.Message)
}

// ValidationResult holds the results of schema validation.
type ValidationResult struct {
	Errors   []*ValidationError
	Warnings []*ValidationError
}

// HasErrors returns true if there are any validation errors.
func (r *ValidationResult) HasErrors() bool {
	return len(r.Errors) > 0
}

// HasWarnings returns true if there are any validation warnings.
func (r *ValidationResult) HasWarnings() bool {
	return len(r.Warnings) > 0
}

// Err returns the first error, or nil.
func (r *ValidationResult) Err() error {
	if len(r.Errors) == 0 {
		return nil
	}
	return r.Errors[0]
}

// String returns a human-readable summary of the validation result.
func (r *ValidationResult) String() string {
	var sb strings.Builder
	write := func(title string, errs []*ValidationError) {
		if len(errs) == 0 {
			return
		}
		sb.WriteString(title)
		sb.WriteString(":\n")
		for _, e := range errs {
			sb.WriteString("  - ")
			sb.WriteString(e.Error())
			if e.Breaking {
				sb.WriteString(" [BREAKING]")
			}
			sb.WriteString("\n")
		}
	}
	write("Errors", r.Errors)
	write("Warnings", r.Warnings)
	if !r.HasErrors() && !r.HasWarnings() {
		sb.WriteString("No issues found")
	}
	return sb.String()
}

func (r *ValidationResult) add(err *ValidationError, warn bool) {
	if warn {
		r.Warnings = append(r.Warnings, err)
	} else {
		r.Errors = append(r.Errors, err)
	}
}

// ValidateOption configures schema validation.
type ValidateOption func(*validateConfig)

type validateConfig struct {
	allowUnmapped  bool
	allowNullable  bool
	compareTypes   bool
	compareUniques bool
}

// AllowUnmappedColumns reports live columns missing from the mapping as
// warnings. Projected queries still work against such tables.
func AllowUnmappedColumns() ValidateOption {
	return func(c *validateConfig) {
		c.allowUnmapped = true
	}
}

// AllowNullable reports NOT NULL mapped columns that are nullable in the
// database as warnings instead of errors.
func AllowNullable() ValidateOption {
	return func(c *validateConfig) {
		c.allowNullable = true
	}
}

// CompareTypes warns when a live column type differs from the mapped
// affinity.
func CompareTypes() ValidateOption {
	return func(c *validateConfig) {
		c.compareTypes = true
	}
}

// CompareUniques warns when UNIQUE constraints differ.
func CompareUniques() ValidateOption {
	return func(c *validateConfig) {
		c.compareUniques = true
	}
}

// Diff compares the live table with the table derived from a mapping.
//
//	live, err := schema.Inspect(ctx, db, dialect.SQLite, "users")
//	result := schema.Diff(live, schema.FromMapping(m, dialect.SQLite))
//	if result.HasErrors() {
//	    log.Fatal(result)
//	}
func Diff(live, desired *Table, opts ...ValidateOption) *ValidationResult {
	cfg := &validateConfig{}
	for _, opt := range opts {
		opt(cfg)
	}
	result := &ValidationResult{}
	liveCols := make(map[string]*Column, len(live.Columns))
	for _, c := range live.Columns {
		liveCols[strings.ToLower(c.Name)] = c
	}
	pk := make(map[string]bool, len(desired.PrimaryKey))
	for _, name := range desired.PrimaryKey {
		pk[strings.ToLower(name)] = true
	}
	mapped := make(map[string]struct{}, len(desired.Columns))
	for _, want := range desired.Columns {
		key := strings.ToLower(want.Name)
		mapped[key] = struct{}{}
		got, ok := liveCols[key]
		if !ok {
			result.add(&ValidationError{
				Table:    desired.Name,
				Column:   want.Name,
				Message:  "column does not exist in the database",
				Breaking: true,
			}, false)
			continue
		}
		if cfg.compareTypes && !sameType(got.Type, want.Type) {
			result.add(&ValidationError{
				Table:   desired.Name,
				Column:  want.Name,
				Message: fmt.Sprintf("column type is %s, mapped as %s", got.Type, want.Type),
			}, true)
		}
		// Some engines report key columns as nullable.
		if got.Nullable && !want.Nullable && !pk[key] {
			result.add(&ValidationError{
				Table:   desired.Name,
				Column:  want.Name,
				Message: "column is nullable in the database but mapped as NOT NULL",
			}, cfg.allowNullable)
		}
		if !got.Nullable && want.Nullable && !pk[key] {
			result.add(&ValidationError{
				Table:   desired.Name,
				Column:  want.Name,
				Message: "column is NOT NULL in the database; absent values fail on insert",
			}, true)
		}
		if got.Size > 0 && want.Size > got.Size {
			result.add(&ValidationError{
				Table:   desired.Name,
				Column:  want.Name,
				Message: fmt.Sprintf("column size %d is smaller than mapped size %d", got.Size, want.Size),
			}, true)
		}
		if cfg.compareUniques && got.Unique != want.Unique {
			result.add(&ValidationError{
				Table:   desired.Name,
				Column:  want.Name,
				Message: fmt.Sprintf("UNIQUE is %t in the database, mapped as %t", got.Unique, want.Unique),
			}, true)
		}
	}
	for _, c := range live.Columns {
		if _, ok := mapped[strings.ToLower(c.Name)]; ok {
			continue
		}
		err := &ValidationError{
			Table:    desired.Name,
			Column:   c.Name,
			Message:  "column is not mapped; SELECT * results cannot be scanned",
			Breaking: true,
		}
		if !c.Nullable {
			err.Message = "NOT NULL column is not mapped; inserts fail and SELECT * results cannot be scanned"
		}
		result.add(err, cfg.allowUnmapped)
	}
	if !sameColumns(live.PrimaryKey, desired.PrimaryKey) {
		result.add(&ValidationError{
			Table:   desired.Name,
			Message: fmt.Sprintf("primary key is (%s), mapped as (%s)", strings.Join(live.PrimaryKey, ", "), strings.Join(desired.PrimaryKey, ", ")),
		}, true)
	}
	return result
}

// ValidateTable validates a single table definition.
func ValidateTable(t *Table) *ValidationResult {
	result := &ValidationResult{}
	if len(t.PrimaryKey) == 0 {
		result.add(&ValidationError{
			Table:   t.Name,
			Message: "table has no primary key",
		}, true)
	}
	names := make(map[string]bool, len(t.Columns))
	for _, c := range t.Columns {
		if names[c.Name] {
			result.add(&ValidationError{
				Table:   t.Name,
				Column:  c.Name,
				Message: "duplicate column name",
			}, false)
		}
		names[c.Name] = true
	}
	for _, pk := range t.PrimaryKey {
		if !names[pk] {
			result.add(&ValidationError{
				Table:   t.Name,
				Message: fmt.Sprintf("primary key references non-existent column %q", pk),
			}, false)
		}
	}
	return result
}

// sameType compares the base names of two column types, ignoring case and
// size arguments.
func sameType(a, b string) bool {
	base := func(s string) string {
		if i := strings.IndexByte(s, '('); i >= 0 {
			s = s[:i]
		}
		return strings.ToLower(strings.TrimSpace(s))
	}
	return base(a) == base(b)
}

func sameColumns(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !strings.EqualFold(a[i], b[i]) {
			return false
		}
	}
	return true
}
