package gen

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for common failure cases.
var (
	// ErrInvalidStruct indicates a struct that cannot be mapped.
	ErrInvalidStruct = errors.New("relmapgen: invalid struct")
	// ErrInvalidConfig indicates a generator configuration error.
	ErrInvalidConfig = errors.New("relmapgen: invalid configuration")
)

// StructError reports a struct or struct field that cannot be mapped.
type StructError struct {
	Pos     string // file:line:column of the offending declaration
	Type    string
	Field   string
	Message string
}

// Error implements the error interface.
func (e *StructError) Error() string {
	var b strings.Builder
	if e.Pos != "" {
		b.WriteString(e.Pos)
		b.WriteString(": ")
	}
	b.WriteString("relmapgen: ")
	b.WriteString(e.Type)
	if e.Field != "" {
		b.WriteString(".")
		b.WriteString(e.Field)
	}
	b.WriteString(": ")
	b.WriteString(e.Message)
	return b.String()
}

// Is reports whether the target matches ErrInvalidStruct.
func (e *StructError) Is(target error) bool {
	return target == ErrInvalidStruct
}

// ConfigError represents a configuration error.
type ConfigError struct {
	Option  string
	Value   any
	Message string
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	return fmt.Sprintf("relmapgen: config error for %q (value: %v): %s", e.Option, e.Value, e.Message)
}

// Is reports whether the target matches ErrInvalidConfig.
func (e *ConfigError) Is(target error) bool {
	return target == ErrInvalidConfig
}
