// Package gen generates Schema methods for structs annotated with `db` tags.
//
// Given
//
//	type User struct {
//		ID   int64  `db:"id,pk,autoincrement"`
//		Name string `db:"name,notnull"`
//		Nick *string
//	}
//
// the generator writes a file next to the struct declaring
//
//	func (*User) Schema() *schema.TypeMapping {
//		return schema.Table("User",
//			field.Value("id", func(e *User) *int64 { return &e.ID }).PrimaryKey().AutoIncrement(),
//			field.Value("name", func(e *User) *string { return &e.Name }).Required(),
//			field.Optional("nick", func(e *User) **string { return &e.Nick }),
//		)
//	}
package gen

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"go/types"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
	"sync"

	"github.com/dave/jennifer/jen"
	"github.com/hashicorp/go-multierror"
	"golang.org/x/sync/errgroup"
	"golang.org/x/tools/go/packages"
)

const (
	schemaPkg = "github.com/syssam/relmap/schema"
	fieldPkg  = "github.com/syssam/relmap/schema/field"

	headerText = "Code generated by relmapgen. DO NOT EDIT."
)

const loadMode = packages.NeedName | packages.NeedFiles | packages.NeedSyntax |
	packages.NeedTypes | packages.NeedTypesInfo

// Generator writes schema files for Go packages.
type Generator struct {
	cfg Config
}

// New returns a generator configured with opts.
func New(opts ...Option) (*Generator, error) {
	cfg := Config{TableCase: CaseKeep, Output: DefaultOutput}
	for _, opt := range opts {
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}
	return &Generator{cfg: cfg}, nil
}

// Config returns the generator configuration.
func (g *Generator) Config() Config {
	return g.cfg
}

// Load loads the packages matched by patterns and collects their mappable
// structs. The current directory is loaded when no pattern is given.
func (g *Generator) Load(ctx context.Context, patterns ...string) ([]*Package, error) {
	if len(patterns) == 0 {
		patterns = []string{"."}
	}
	overlay, err := g.overlay(ctx, patterns)
	if err != nil {
		return nil, err
	}
	cfg := g.loadConfig(ctx, loadMode)
	cfg.Overlay = overlay
	pkgs, err := packages.Load(cfg, patterns...)
	if err != nil {
		return nil, fmt.Errorf("relmapgen: loading packages: %w", err)
	}
	var (
		errs   *multierror.Error
		result = make([]*Package, 0, len(pkgs))
	)
	for _, p := range pkgs {
		if err := loadErr(p); err != nil {
			errs = multierror.Append(errs, err)
			continue
		}
		structs, err := g.structs(p.Types, p.Fset)
		if err != nil {
			errs = multierror.Append(errs, err)
			continue
		}
		result = append(result, &Package{
			Name:    p.Name,
			Path:    p.PkgPath,
			Dir:     pkgDir(p),
			Structs: structs,
		})
	}
	if err := errs.ErrorOrNil(); err != nil {
		return nil, err
	}
	return result, nil
}

func (g *Generator) loadConfig(ctx context.Context, mode packages.LoadMode) *packages.Config {
	cfg := &packages.Config{Context: ctx, Mode: mode, Dir: g.cfg.Dir}
	if len(g.cfg.Tags) > 0 {
		cfg.BuildFlags = []string{"-tags=" + strings.Join(g.cfg.Tags, ",")}
	}
	return cfg
}

// overlay replaces previously generated files with an empty file of the same
// package. A stale schema file may no longer compile against the structs it
// was generated from.
func (g *Generator) overlay(ctx context.Context, patterns []string) (map[string][]byte, error) {
	pkgs, err := packages.Load(g.loadConfig(ctx, packages.NeedName|packages.NeedFiles), patterns...)
	if err != nil {
		return nil, fmt.Errorf("relmapgen: listing packages: %w", err)
	}
	overlay := make(map[string][]byte)
	for _, p := range pkgs {
		for _, file := range p.GoFiles {
			if filepath.Base(file) != g.cfg.Output {
				continue
			}
			if src, err := os.ReadFile(file); err == nil && generated(src) {
				overlay[file] = []byte("package " + p.Name + "\n")
			}
		}
	}
	return overlay, nil
}

// Dirs returns the directories of the packages matched by patterns.
func (g *Generator) Dirs(ctx context.Context, patterns ...string) ([]string, error) {
	if len(patterns) == 0 {
		patterns = []string{"."}
	}
	pkgs, err := packages.Load(g.loadConfig(ctx, packages.NeedName|packages.NeedFiles), patterns...)
	if err != nil {
		return nil, fmt.Errorf("relmapgen: listing packages: %w", err)
	}
	dirs := make([]string, 0, len(pkgs))
	for _, p := range pkgs {
		if dir := pkgDir(p); dir != "" {
			dirs = append(dirs, dir)
		}
	}
	slices.Sort(dirs)
	return slices.Compact(dirs), nil
}

func loadErr(p *packages.Package) error {
	var errs *multierror.Error
	for _, e := range p.Errors {
		errs = multierror.Append(errs, e)
	}
	if err := errs.ErrorOrNil(); err != nil {
		return fmt.Errorf("relmapgen: package %s: %w", p.PkgPath, err)
	}
	if p.Types == nil {
		return fmt.Errorf("relmapgen: package %s: missing type information", p.PkgPath)
	}
	return nil
}

func pkgDir(p *packages.Package) string {
	if p.Dir != "" {
		return p.Dir
	}
	if len(p.GoFiles) > 0 {
		return filepath.Dir(p.GoFiles[0])
	}
	return ""
}

// Render returns the generated source of p.
func (g *Generator) Render(p *Package) ([]byte, error) {
	f := jen.NewFilePathName(p.Path, p.Name)
	f.HeaderComment(headerText)
	f.ImportName(schemaPkg, "schema")
	f.ImportName(fieldPkg, "field")
	for _, s := range p.Structs {
		if err := genSchema(f, p.Path, s); err != nil {
			return nil, err
		}
	}
	var buf bytes.Buffer
	if err := f.Render(&buf); err != nil {
		return nil, fmt.Errorf("relmapgen: render %s: %w", p.Path, err)
	}
	return buf.Bytes(), nil
}

func genSchema(f *jen.File, pkgPath string, s *Struct) error {
	args := make([]jen.Code, 0, len(s.Fields)+2)
	args = append(args, jen.Lit(s.Table))
	for _, fd := range s.Fields {
		typ, err := typeCode(fd.Type, pkgPath)
		if err != nil {
			return &StructError{Type: s.Name, Field: fd.Name, Message: err.Error()}
		}
		ref := jen.Func().Params(jen.Id("e").Op("*").Id(s.Name)).Op("*").Add(typ).Block(
			jen.Return(jen.Op("&").Id("e").Dot(fd.Name)),
		)
		c := jen.Qual(fieldPkg, string(fd.Builder)).Call(jen.Lit(fd.Column), ref)
		if fd.PrimaryKey {
			c.Dot("PrimaryKey").Call()
		}
		if fd.AutoIncrement {
			c.Dot("AutoIncrement").Call()
		}
		if fd.Required {
			c.Dot("Required").Call()
		}
		if fd.Unique {
			c.Dot("Unique").Call()
		}
		if fd.Size > 0 {
			c.Dot("Size").Call(jen.Lit(fd.Size))
		}
		args = append(args, jen.Line().Add(c))
	}
	args = append(args, jen.Line())

	f.Line()
	f.Commentf("Schema returns the table mapping of %s.", s.Name)
	f.Func().Params(jen.Op("*").Id(s.Name)).Id("Schema").Params().Op("*").Qual(schemaPkg, "TypeMapping").Block(
		jen.Return(jen.Qual(schemaPkg, "Table").Call(args...)),
	)
	return nil
}

// typeCode spells t as seen from the package pkgPath.
func typeCode(t types.Type, pkgPath string) (jen.Code, error) {
	switch t := t.(type) {
	case *types.Alias:
		return typeCode(types.Unalias(t), pkgPath)
	case *types.Basic:
		return jen.Id(t.Name()), nil
	case *types.Named:
		obj := t.Obj()
		if t.TypeArgs().Len() > 0 {
			return nil, fmt.Errorf("generic type %s is not supported", t)
		}
		if obj.Pkg() == nil || obj.Pkg().Path() == pkgPath {
			return jen.Id(obj.Name()), nil
		}
		return jen.Qual(obj.Pkg().Path(), obj.Name()), nil
	case *types.Pointer:
		elem, err := typeCode(t.Elem(), pkgPath)
		if err != nil {
			return nil, err
		}
		return jen.Op("*").Add(elem), nil
	case *types.Slice:
		elem, err := typeCode(t.Elem(), pkgPath)
		if err != nil {
			return nil, err
		}
		return jen.Index().Add(elem), nil
	case *types.Array:
		elem, err := typeCode(t.Elem(), pkgPath)
		if err != nil {
			return nil, err
		}
		return jen.Index(jen.Lit(int(t.Len()))).Add(elem), nil
	case *types.Map:
		key, err := typeCode(t.Key(), pkgPath)
		if err != nil {
			return nil, err
		}
		elem, err := typeCode(t.Elem(), pkgPath)
		if err != nil {
			return nil, err
		}
		return jen.Map(key).Add(elem), nil
	}
	return nil, fmt.Errorf("type %s cannot be spelled in generated code", t)
}

// Generate loads the packages matched by patterns and writes the schema file
// of each one. It returns the sorted paths of the files written or removed;
// files whose content is unchanged are not touched.
func (g *Generator) Generate(ctx context.Context, patterns ...string) ([]string, error) {
	pkgs, err := g.Load(ctx, patterns...)
	if err != nil {
		return nil, err
	}
	var (
		mu      sync.Mutex
		changed []string
	)
	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(runtime.GOMAXPROCS(0))
	for _, p := range pkgs {
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			path, ok, err := g.write(p)
			if err != nil || !ok {
				return err
			}
			mu.Lock()
			changed = append(changed, path)
			mu.Unlock()
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	slices.Sort(changed)
	return changed, nil
}

// write updates the schema file of p. A stale generated file is removed when
// the package no longer has mapped structs. Files not written by the generator
// are never overwritten.
func (g *Generator) write(p *Package) (string, bool, error) {
	path := filepath.Join(p.Dir, g.cfg.Output)
	prev, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return "", false, fmt.Errorf("relmapgen: read %s: %w", path, err)
	}
	exists := err == nil
	if exists && !generated(prev) {
		return "", false, fmt.Errorf("relmapgen: %s exists and was not generated by relmapgen", path)
	}
	if len(p.Structs) == 0 {
		if !exists {
			return "", false, nil
		}
		if err := os.Remove(path); err != nil {
			return "", false, fmt.Errorf("relmapgen: remove %s: %w", path, err)
		}
		return path, true, nil
	}
	src, err := g.Render(p)
	if err != nil {
		return "", false, err
	}
	if bytes.Equal(prev, src) {
		return "", false, nil
	}
	if err := os.WriteFile(path, src, 0o644); err != nil {
		return "", false, fmt.Errorf("relmapgen: write %s: %w", path, err)
	}
	return path, true, nil
}

func generated(src []byte) bool {
	return bytes.HasPrefix(src, []byte("// "+headerText))
}
