// Package codec converts scalar Go values to and from the textual form used in
// generated SQL and returned by database drivers.
//
// Encode produces the canonical text of a value; quoting and escaping for a
// particular SQL dialect is applied later by dialect/sql. Decode parses the raw
// text returned by a driver back into a typed value and fails with a
// *ConversionError when the text does not fit the target type.
package codec

import (
	"database/sql/driver"
	"fmt"
	"reflect"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// Kind is the coarse SQL category of a scalar value. It selects the literal
// form used when the value is written into a statement.
type Kind uint8

// Scalar kinds.
const (
	KindNull Kind = iota
	KindInteger
	KindReal
	KindBool
	KindText
	KindBlob
	KindTime
	KindUUID
)

var kindNames = [...]string{
	KindNull:    "null",
	KindInteger: "integer",
	KindReal:    "real",
	KindBool:    "bool",
	KindText:    "text",
	KindBlob:    "blob",
	KindTime:    "time",
	KindUUID:    "uuid",
}

// String returns the kind name.
func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "kind(" + strconv.Itoa(int(k)) + ")"
}

// Scalar is the set of Go types a persisted field may hold.
type Scalar interface {
	~bool | ~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 |
		~float32 | ~float64 | ~string | []byte | time.Time | uuid.UUID
}

// TimeLayout is the canonical text layout of time values.
const TimeLayout = time.RFC3339Nano

var (
	timeType = reflect.TypeOf(time.Time{})
	uuidType = reflect.TypeOf(uuid.UUID{})
)

// ConversionError is returned when text cannot be parsed into, or a value
// cannot be rendered from, the requested Go type.
type ConversionError struct {
	Text string // Raw text, empty when encoding failed
	Type string // Target or source Go type
	Err  error  // Underlying parse error
}

// Error returns the error string.
func (e *ConversionError) Error() string {
	if e.Text == "" && e.Err != nil {
		return fmt.Sprintf("codec: cannot convert %s: %v", e.Type, e.Err)
	}
	return fmt.Sprintf("codec: cannot convert %q to %s: %v", e.Text, e.Type, e.Err)
}

// Unwrap returns the underlying error.
func (e *ConversionError) Unwrap() error {
	return e.Err
}

// Encode returns the canonical text of v.
func Encode[V Scalar](v V) string {
	s, _, _ := encodeValue(reflect.ValueOf(v))
	return s
}

// KindOf returns the kind of the scalar type V.
func KindOf[V Scalar]() Kind {
	return kindOf(reflect.TypeOf((*V)(nil)).Elem())
}

// Decode parses s into a value of type V.
func Decode[V Scalar](s string) (V, error) {
	var v V
	if err := decodeValue(reflect.ValueOf(&v).Elem(), s); err != nil {
		return v, err
	}
	return v, nil
}

// EncodeAny returns the canonical text and kind of an arbitrary value. A nil
// value, a nil pointer or a driver.Valuer reporting nil encode as KindNull.
func EncodeAny(v any) (string, Kind, error) {
	if v == nil {
		return "", KindNull, nil
	}
	if vr, ok := v.(driver.Valuer); ok {
		dv, err := vr.Value()
		if err != nil {
			return "", KindNull, &ConversionError{Type: fmt.Sprintf("%T", v), Err: err}
		}
		if dv == nil {
			return "", KindNull, nil
		}
		// UUID implements Valuer; keep its kind.
		if _, ok := v.(uuid.UUID); !ok {
			return encodeValue(reflect.ValueOf(dv))
		}
	}
	return encodeValue(reflect.ValueOf(v))
}

func encodeValue(rv reflect.Value) (string, Kind, error) {
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return "", KindNull, nil
		}
		rv = rv.Elem()
	}
	switch rv.Type() {
	case timeType:
		return rv.Interface().(time.Time).Format(TimeLayout), KindTime, nil
	case uuidType:
		return rv.Interface().(uuid.UUID).String(), KindUUID, nil
	}
	switch rv.Kind() {
	case reflect.Bool:
		return strconv.FormatBool(rv.Bool()), KindBool, nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(rv.Int(), 10), KindInteger, nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(rv.Uint(), 10), KindInteger, nil
	case reflect.Float32:
		return strconv.FormatFloat(rv.Float(), 'g', -1, 32), KindReal, nil
	case reflect.Float64:
		return strconv.FormatFloat(rv.Float(), 'g', -1, 64), KindReal, nil
	case reflect.String:
		return rv.String(), KindText, nil
	case reflect.Slice:
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			if rv.IsNil() {
				return "", KindNull, nil
			}
			return string(rv.Bytes()), KindBlob, nil
		}
	}
	return "", KindNull, &ConversionError{Type: rv.Type().String(), Err: fmt.Errorf("unsupported type")}
}

func kindOf(t reflect.Type) Kind {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	switch t {
	case timeType:
		return KindTime
	case uuidType:
		return KindUUID
	}
	switch t.Kind() {
	case reflect.Bool:
		return KindBool
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return KindInteger
	case reflect.Float32, reflect.Float64:
		return KindReal
	case reflect.String:
		return KindText
	case reflect.Slice:
		if t.Elem().Kind() == reflect.Uint8 {
			return KindBlob
		}
	}
	return KindNull
}

func decodeValue(rv reflect.Value, s string) error {
	fail := func(err error) error {
		return &ConversionError{Text: s, Type: rv.Type().String(), Err: err}
	}
	switch rv.Type() {
	case timeType:
		t, err := ParseTime(s)
		if err != nil {
			return fail(err)
		}
		rv.Set(reflect.ValueOf(t))
		return nil
	case uuidType:
		u, err := uuid.Parse(s)
		if err != nil {
			return fail(err)
		}
		rv.Set(reflect.ValueOf(u))
		return nil
	}
	switch rv.Kind() {
	case reflect.Bool:
		b, err := strconv.ParseBool(s)
		if err != nil {
			return fail(err)
		}
		rv.SetBool(b)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(s, 10, rv.Type().Bits())
		if err != nil {
			return fail(err)
		}
		rv.SetInt(n)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, err := strconv.ParseUint(s, 10, rv.Type().Bits())
		if err != nil {
			return fail(err)
		}
		rv.SetUint(n)
	case reflect.Float32, reflect.Float64:
		f, err := strconv.ParseFloat(s, rv.Type().Bits())
		if err != nil {
			return fail(err)
		}
		rv.SetFloat(f)
	case reflect.String:
		rv.SetString(s)
	case reflect.Slice:
		if rv.Type().Elem().Kind() != reflect.Uint8 {
			return fail(fmt.Errorf("unsupported type"))
		}
		rv.SetBytes([]byte(s))
	default:
		return fail(fmt.Errorf("unsupported type"))
	}
	return nil
}

// timeLayouts are tried in order by ParseTime. They cover the canonical layout
// and the forms SQLite, MySQL and Postgres drivers hand back as text.
var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999 -0700 MST",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

// ParseTime parses a driver time string using the known layouts.
func ParseTime(s string) (time.Time, error) {
	var first error
	for _, layout := range timeLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t, nil
		}
		if first == nil {
			first = err
		}
	}
	return time.Time{}, first
}
