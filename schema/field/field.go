package field

import (
	"fmt"
	"reflect"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/syssam/relmap/codec"
)

// Descriptor describes a single column of a mapped type. Descriptors are
// immutable once built; the registry shares them between goroutines.
type Descriptor struct {
	Name          string
	Type          Type
	Size          int  // VARCHAR size, 0 for the dialect default
	PrimaryKey    bool // column-level PRIMARY KEY
	AutoIncrement bool // generated by the engine, skipped on insert while unset
	Nullable      bool // false emits NOT NULL
	Unique        bool

	// Read returns the text form of the field held by obj. present is false
	// when the value is absent (nil pointer, nil blob, unset autoincrement key)
	// and must be written as NULL or skipped.
	Read func(obj any) (text string, present bool, err error)

	// Write parses text and stores it into the field held by obj. It is never
	// called for SQL NULL.
	Write func(obj any, text string) error
}

// Equal reports if two descriptors carry the same column metadata. Accessors
// are not compared.
func (d *Descriptor) Equal(o *Descriptor) bool {
	return d.Name == o.Name &&
		d.Type == o.Type &&
		d.Size == o.Size &&
		d.PrimaryKey == o.PrimaryKey &&
		d.AutoIncrement == o.AutoIncrement &&
		d.Nullable == o.Nullable &&
		d.Unique == o.Unique
}

// Err returns an error if the descriptor cannot be used.
func (d *Descriptor) Err() error {
	switch {
	case d.Name == "":
		return fmt.Errorf("field: missing column name")
	case !d.Type.Valid():
		return fmt.Errorf("field: column %q has invalid type", d.Name)
	case d.Read == nil || d.Write == nil:
		return fmt.Errorf("field: column %q is missing accessors", d.Name)
	case d.AutoIncrement && !d.Type.Integer():
		return fmt.Errorf("field: autoincrement column %q must be an integer, got %s", d.Name, d.Type)
	}
	return nil
}

// Builder configures a column before it is turned into a Descriptor.
type Builder struct {
	desc  Descriptor
	read  func(obj any, auto bool) (string, bool, error)
	write func(obj any, text string) error
}

// PrimaryKey marks the column as the primary key.
func (b *Builder) PrimaryKey() *Builder {
	b.desc.PrimaryKey = true
	b.desc.Nullable = false
	return b
}

// AutoIncrement marks the column as engine generated. A zero value is
// treated as unset and the column is left out of INSERT statements.
func (b *Builder) AutoIncrement() *Builder {
	b.desc.AutoIncrement = true
	return b
}

// Required marks the column as NOT NULL.
func (b *Builder) Required() *Builder {
	b.desc.Nullable = false
	return b
}

// Unique adds a UNIQUE constraint on the column.
func (b *Builder) Unique() *Builder {
	b.desc.Unique = true
	return b
}

// Size sets the maximum length of a string column.
func (b *Builder) Size(n int) *Builder {
	b.desc.Size = n
	return b
}

// Descriptor returns the column descriptor.
func (b *Builder) Descriptor() *Descriptor {
	d := b.desc
	read, auto := b.read, d.AutoIncrement
	d.Read = func(obj any) (string, bool, error) {
		return read(obj, auto)
	}
	d.Write = b.write
	return &d
}

// Value returns a builder for a scalar field of T. Both type parameters are
// inferred from the reference function.
func Value[T any, V codec.Scalar](name string, ref func(*T) *V) *Builder {
	return &Builder{
		desc: Descriptor{
			Name:     name,
			Type:     TypeOf(reflect.TypeOf((*V)(nil)).Elem()),
			Nullable: true,
		},
		read: func(obj any, auto bool) (string, bool, error) {
			e, err := entity[T](name, obj)
			if err != nil {
				return "", false, err
			}
			v := *ref(e)
			if absent(reflect.ValueOf(v), auto) {
				return "", false, nil
			}
			return codec.Encode(v), true, nil
		},
		write: func(obj any, text string) error {
			e, err := entity[T](name, obj)
			if err != nil {
				return err
			}
			v, err := codec.Decode[V](text)
			if err != nil {
				return err
			}
			*ref(e) = v
			return nil
		},
	}
}

// Optional returns a builder for a pointer field of T. A nil pointer is
// absent; a NULL column leaves the pointer nil.
func Optional[T any, V codec.Scalar](name string, ref func(*T) **V) *Builder {
	return &Builder{
		desc: Descriptor{
			Name:     name,
			Type:     TypeOf(reflect.TypeOf((*V)(nil)).Elem()),
			Nullable: true,
		},
		read: func(obj any, auto bool) (string, bool, error) {
			e, err := entity[T](name, obj)
			if err != nil {
				return "", false, err
			}
			p := *ref(e)
			if p == nil || absent(reflect.ValueOf(*p), auto) {
				return "", false, nil
			}
			return codec.Encode(*p), true, nil
		},
		write: func(obj any, text string) error {
			e, err := entity[T](name, obj)
			if err != nil {
				return err
			}
			v, err := codec.Decode[V](text)
			if err != nil {
				return err
			}
			*ref(e) = &v
			return nil
		},
	}
}

// Msgpack returns a builder for a field of any type stored as a msgpack
// encoded blob. Nil maps, slices and pointers are absent.
func Msgpack[T any, V any](name string, ref func(*T) *V) *Builder {
	return &Builder{
		desc: Descriptor{
			Name:     name,
			Type:     TypeMsgpack,
			Nullable: true,
		},
		read: func(obj any, _ bool) (string, bool, error) {
			e, err := entity[T](name, obj)
			if err != nil {
				return "", false, err
			}
			v := ref(e)
			if nilValue(reflect.ValueOf(*v)) {
				return "", false, nil
			}
			b, err := msgpack.Marshal(v)
			if err != nil {
				return "", false, &codec.ConversionError{Type: fmt.Sprintf("%T", *v), Err: err}
			}
			return string(b), true, nil
		},
		write: func(obj any, text string) error {
			e, err := entity[T](name, obj)
			if err != nil {
				return err
			}
			v := ref(e)
			if err := msgpack.Unmarshal([]byte(text), v); err != nil {
				return &codec.ConversionError{Text: text, Type: fmt.Sprintf("%T", *v), Err: err}
			}
			return nil
		},
	}
}

// Bool returns a builder for a bool field.
func Bool[T any](name string, ref func(*T) *bool) *Builder { return Value(name, ref) }

// Int returns a builder for an int field.
func Int[T any](name string, ref func(*T) *int) *Builder { return Value(name, ref) }

// Int32 returns a builder for an int32 field.
func Int32[T any](name string, ref func(*T) *int32) *Builder { return Value(name, ref) }

// Int64 returns a builder for an int64 field.
func Int64[T any](name string, ref func(*T) *int64) *Builder { return Value(name, ref) }

// Uint64 returns a builder for a uint64 field.
func Uint64[T any](name string, ref func(*T) *uint64) *Builder { return Value(name, ref) }

// Float64 returns a builder for a float64 field.
func Float64[T any](name string, ref func(*T) *float64) *Builder { return Value(name, ref) }

// String returns a builder for a string field.
func String[T any](name string, ref func(*T) *string) *Builder { return Value(name, ref) }

// Bytes returns a builder for a []byte field.
func Bytes[T any](name string, ref func(*T) *[]byte) *Builder { return Value(name, ref) }

// entity asserts that obj is a *T.
func entity[T any](name string, obj any) (*T, error) {
	e, ok := obj.(*T)
	if !ok || e == nil {
		return nil, fmt.Errorf("field: column %q expects %T, got %T", name, (*T)(nil), obj)
	}
	return e, nil
}

// absent reports if v must be treated as a missing value.
func absent(v reflect.Value, auto bool) bool {
	if auto && v.IsZero() {
		return true
	}
	return v.Kind() == reflect.Slice && v.IsNil()
}

func nilValue(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Invalid:
		return true
	case reflect.Map, reflect.Slice, reflect.Pointer, reflect.Interface:
		return v.IsNil()
	}
	return false
}
