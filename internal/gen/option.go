package gen

import (
	"path/filepath"
	"strings"
)

// TableCase selects how struct names become table names.
type TableCase string

// Table name styles.
const (
	CaseKeep  TableCase = "keep"  // User -> User
	CaseLower TableCase = "lower" // UserAccount -> useraccount
	CaseSnake TableCase = "snake" // UserAccount -> user_account
)

// DefaultOutput is the name of the file written into every package.
const DefaultOutput = "relmap_schema.go"

// Config holds the generator configuration.
type Config struct {
	// TableCase is the table naming style. Defaults to CaseKeep.
	TableCase TableCase
	// Plural pluralizes table names after casing.
	Plural bool
	// Output is the file name written into each package directory.
	Output string
	// Dir is the directory patterns are resolved from. Defaults to the
	// working directory.
	Dir string
	// Tags are build tags passed to the package loader.
	Tags []string
}

// Option configures code generation.
type Option func(*Config) error

// WithTableCase sets the table naming style.
func WithTableCase(c string) Option {
	return func(cfg *Config) error {
		switch tc := TableCase(c); tc {
		case CaseKeep, CaseLower, CaseSnake:
			cfg.TableCase = tc
			return nil
		default:
			return &ConfigError{Option: "TableCase", Value: c, Message: "use keep, lower or snake"}
		}
	}
}

// WithPlural pluralizes generated table names.
func WithPlural() Option {
	return func(cfg *Config) error {
		cfg.Plural = true
		return nil
	}
}

// WithOutput sets the generated file name.
func WithOutput(name string) Option {
	return func(cfg *Config) error {
		if name == "" || filepath.Base(name) != name || !strings.HasSuffix(name, ".go") {
			return &ConfigError{Option: "Output", Value: name, Message: "must be a plain .go file name"}
		}
		if strings.HasSuffix(name, "_test.go") {
			return &ConfigError{Option: "Output", Value: name, Message: "must not be a test file"}
		}
		cfg.Output = name
		return nil
	}
}

// WithDir sets the directory patterns are resolved from.
func WithDir(dir string) Option {
	return func(cfg *Config) error {
		cfg.Dir = dir
		return nil
	}
}

// WithBuildTags sets build tags for loading packages.
func WithBuildTags(tags ...string) Option {
	return func(cfg *Config) error {
		cfg.Tags = append(cfg.Tags, tags...)
		return nil
	}
}
