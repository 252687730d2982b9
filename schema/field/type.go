package field

import (
	"reflect"
	"time"

	"github.com/google/uuid"

	"github.com/syssam/relmap/codec"
)

// Type is the Go type family of a field. It selects the column affinity and
// the literal form of its values.
type Type uint8

// Field types.
const (
	TypeInvalid Type = iota
	TypeBool
	TypeInt
	TypeInt8
	TypeInt16
	TypeInt32
	TypeInt64
	TypeUint
	TypeUint8
	TypeUint16
	TypeUint32
	TypeUint64
	TypeFloat32
	TypeFloat64
	TypeString
	TypeBytes
	TypeTime
	TypeUUID
	TypeMsgpack
)

var typeNames = [...]string{
	TypeInvalid: "invalid",
	TypeBool:    "bool",
	TypeInt:     "int",
	TypeInt8:    "int8",
	TypeInt16:   "int16",
	TypeInt32:   "int32",
	TypeInt64:   "int64",
	TypeUint:    "uint",
	TypeUint8:   "uint8",
	TypeUint16:  "uint16",
	TypeUint32:  "uint32",
	TypeUint64:  "uint64",
	TypeFloat32: "float32",
	TypeFloat64: "float64",
	TypeString:  "string",
	TypeBytes:   "[]byte",
	TypeTime:    "time.Time",
	TypeUUID:    "uuid.UUID",
	TypeMsgpack: "msgpack",
}

// String returns the type name.
func (t Type) String() string {
	if int(t) < len(typeNames) {
		return typeNames[t]
	}
	return typeNames[TypeInvalid]
}

// Valid reports if the type is a known field type.
func (t Type) Valid() bool {
	return t > TypeInvalid && t <= TypeMsgpack
}

// Integer reports if the type is a signed or unsigned integer.
func (t Type) Integer() bool {
	return t >= TypeInt && t <= TypeUint64
}

// Kind returns the codec kind used to render values of this type.
func (t Type) Kind() codec.Kind {
	switch {
	case t == TypeBool:
		return codec.KindBool
	case t.Integer():
		return codec.KindInteger
	case t == TypeFloat32 || t == TypeFloat64:
		return codec.KindReal
	case t == TypeString:
		return codec.KindText
	case t == TypeBytes || t == TypeMsgpack:
		return codec.KindBlob
	case t == TypeTime:
		return codec.KindTime
	case t == TypeUUID:
		return codec.KindUUID
	default:
		return codec.KindNull
	}
}

var (
	timeType = reflect.TypeOf(time.Time{})
	uuidType = reflect.TypeOf(uuid.UUID{})
)

// TypeOf returns the field type of a Go type, or TypeInvalid.
func TypeOf(rt reflect.Type) Type {
	switch rt {
	case timeType:
		return TypeTime
	case uuidType:
		return TypeUUID
	}
	switch rt.Kind() {
	case reflect.Bool:
		return TypeBool
	case reflect.Int:
		return TypeInt
	case reflect.Int8:
		return TypeInt8
	case reflect.Int16:
		return TypeInt16
	case reflect.Int32:
		return TypeInt32
	case reflect.Int64:
		return TypeInt64
	case reflect.Uint:
		return TypeUint
	case reflect.Uint8:
		return TypeUint8
	case reflect.Uint16:
		return TypeUint16
	case reflect.Uint32:
		return TypeUint32
	case reflect.Uint64:
		return TypeUint64
	case reflect.Float32:
		return TypeFloat32
	case reflect.Float64:
		return TypeFloat64
	case reflect.String:
		return TypeString
	case reflect.Slice:
		if rt.Elem().Kind() == reflect.Uint8 {
			return TypeBytes
		}
	}
	return TypeInvalid
}

// Time returns a builder for a time.Time field.
func Time[T any](name string, ref func(*T) *time.Time) *Builder { return Value(name, ref) }

// UUID returns a builder for a uuid.UUID field.
func UUID[T any](name string, ref func(*T) *uuid.UUID) *Builder { return Value(name, ref) }
