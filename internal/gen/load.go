package gen

import (
	"fmt"
	"go/token"
	"go/types"
	"reflect"

	"github.com/go-openapi/inflect"
	"github.com/hashicorp/go-multierror"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Package is a loaded Go package and the structs found in it.
type Package struct {
	Name    string
	Path    string
	Dir     string
	Structs []*Struct
}

// Struct is a struct type that gets a generated Schema method.
type Struct struct {
	Name   string
	Table  string
	Fields []*Field
}

// Builder names the schema/field constructor a column is built with.
type Builder string

// Field constructors.
const (
	BuilderValue    Builder = "Value"
	BuilderOptional Builder = "Optional"
	BuilderMsgpack  Builder = "Msgpack"
)

// Field is a mapped struct field.
type Field struct {
	Name          string // Go field name
	Column        string
	Type          types.Type
	Builder       Builder
	PrimaryKey    bool
	AutoIncrement bool
	Required      bool
	Unique        bool
	Size          int
}

// naming turns Go identifiers into column and table names.
var naming = func() *inflect.Ruleset {
	rs := inflect.NewDefaultRuleset()
	// Longer acronyms first: "UUID" must not be rewritten by "ID".
	for _, a := range []string{"UUID", "HTTP", "HTML", "JSON", "URL", "API", "SQL", "ID"} {
		rs.AddAcronym(a)
	}
	return rs
}()

func (g *Generator) tableName(name string) string {
	switch g.cfg.TableCase {
	case CaseLower:
		name = cases.Lower(language.Und).String(name)
	case CaseSnake:
		name = naming.Underscore(name)
	}
	if g.cfg.Plural {
		name = naming.Pluralize(name)
	}
	return name
}

// structs returns the mappable structs declared in pkg, in name order. Structs
// without any `db` tag, and structs that already declare a Schema method, are
// ignored.
func (g *Generator) structs(pkg *types.Package, fset *token.FileSet) ([]*Struct, error) {
	var (
		errs   *multierror.Error
		result []*Struct
		scope  = pkg.Scope()
	)
	for _, name := range scope.Names() {
		obj, ok := scope.Lookup(name).(*types.TypeName)
		if !ok || obj.IsAlias() {
			continue
		}
		named, ok := obj.Type().(*types.Named)
		if !ok {
			continue
		}
		st, ok := named.Underlying().(*types.Struct)
		if !ok || !tagged(st) || hasSchema(named) {
			continue
		}
		s, err := g.inspect(obj, named, st, fset)
		if err != nil {
			errs = multierror.Append(errs, err)
			continue
		}
		result = append(result, s)
	}
	return result, errs.ErrorOrNil()
}

func (g *Generator) inspect(obj *types.TypeName, named *types.Named, st *types.Struct, fset *token.FileSet) (*Struct, error) {
	fail := func(pos token.Pos, field, format string, args ...any) error {
		return &StructError{
			Pos:     fset.Position(pos).String(),
			Type:    obj.Name(),
			Field:   field,
			Message: fmt.Sprintf(format, args...),
		}
	}
	if named.TypeParams().Len() > 0 {
		return nil, fail(obj.Pos(), "", "generic types are not supported")
	}
	var (
		errs *multierror.Error
		s    = &Struct{Name: obj.Name(), Table: g.tableName(obj.Name())}
		seen = make(map[string]string)
	)
	for i := range st.NumFields() {
		v := st.Field(i)
		raw, ok := reflect.StructTag(st.Tag(i)).Lookup("db")
		if (!ok && !v.Exported()) || v.Name() == "_" {
			continue
		}
		t, err := parseTag(raw)
		if err != nil {
			errs = multierror.Append(errs, fail(v.Pos(), v.Name(), "%v", err))
			continue
		}
		if t.skip {
			continue
		}
		if v.Embedded() {
			errs = multierror.Append(errs, fail(v.Pos(), v.Name(), `embedded fields are not supported, tag it with db:"-"`))
			continue
		}
		f, err := newField(v, t)
		if err != nil {
			errs = multierror.Append(errs, fail(v.Pos(), v.Name(), "%v", err))
			continue
		}
		if prev, ok := seen[f.Column]; ok {
			errs = multierror.Append(errs, fail(v.Pos(), v.Name(), "column %q is already mapped by %s", f.Column, prev))
			continue
		}
		seen[f.Column] = f.Name
		s.Fields = append(s.Fields, f)
	}
	if err := errs.ErrorOrNil(); err != nil {
		return nil, err
	}
	if len(s.Fields) == 0 {
		return nil, fail(obj.Pos(), "", "no mapped fields")
	}
	return s, nil
}

func newField(v *types.Var, t tag) (*Field, error) {
	f := &Field{
		Name:          v.Name(),
		Column:        t.column,
		Type:          v.Type(),
		PrimaryKey:    t.pk,
		AutoIncrement: t.auto,
		Required:      t.notnull,
		Unique:        t.unique,
		Size:          t.size,
	}
	if f.Column == "" {
		f.Column = naming.Underscore(v.Name())
	}
	elem := types.Unalias(v.Type())
	switch p, isPtr := elem.(*types.Pointer); {
	case t.msgpack:
		f.Builder = BuilderMsgpack
	case scalar(elem):
		f.Builder = BuilderValue
	case isPtr && scalar(p.Elem()):
		f.Builder = BuilderOptional
		elem = types.Unalias(p.Elem())
	default:
		return nil, fmt.Errorf("unsupported type %s, tag it with msgpack or db:\"-\"", v.Type())
	}
	if f.AutoIncrement && (f.Builder == BuilderMsgpack || !integer(elem)) {
		return nil, fmt.Errorf("autoincrement column %q must be an integer", f.Column)
	}
	return f, nil
}

// scalar reports whether t satisfies codec.Scalar.
func scalar(t types.Type) bool {
	t = types.Unalias(t)
	if n, ok := t.(*types.Named); ok && n.Obj().Pkg() != nil {
		switch n.Obj().Pkg().Path() + "." + n.Obj().Name() {
		case "time.Time", "github.com/google/uuid.UUID":
			return true
		}
	}
	switch u := t.Underlying().(type) {
	case *types.Basic:
		return u.Info()&(types.IsBoolean|types.IsInteger|types.IsFloat|types.IsString) != 0 &&
			u.Info()&types.IsUntyped == 0 && u.Kind() != types.Uintptr
	case *types.Slice:
		// Only []byte itself; named byte slices do not match the constraint.
		b, ok := types.Unalias(u.Elem()).(*types.Basic)
		_, isNamed := t.(*types.Named)
		return ok && b.Kind() == types.Byte && !isNamed
	}
	return false
}

func integer(t types.Type) bool {
	b, ok := t.Underlying().(*types.Basic)
	return ok && b.Info()&types.IsInteger != 0
}

func tagged(st *types.Struct) bool {
	for i := range st.NumFields() {
		if _, ok := reflect.StructTag(st.Tag(i)).Lookup("db"); ok {
			return true
		}
	}
	return false
}

func hasSchema(named *types.Named) bool {
	for i := range named.NumMethods() {
		if named.Method(i).Name() == "Schema" {
			return true
		}
	}
	return false
}
