package sql

import (
	"encoding/hex"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/syssam/relmap/codec"
	"github.com/syssam/relmap/dialect"
	"github.com/syssam/relmap/schema/field"
)

// validIdentifierRe validates SQL identifiers (alphanumeric, underscores, dots for schema.name)
var validIdentifierRe = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_.]*$`)

// isValidIdentifier checks if the string is a valid SQL identifier.
func isValidIdentifier(s string) bool {
	return s != "" && len(s) <= 128 && validIdentifierRe.MatchString(s)
}

// mysqlTimeLayout is the DATETIME(6) literal layout accepted by MySQL.
const mysqlTimeLayout = "2006-01-02 15:04:05.999999"

// Literal renders an arbitrary Go value as a SQL literal of the builder's
// dialect. nil renders as NULL. ok is false for unsupported values.
func (b Builder) Literal(v any) (string, bool) {
	text, kind, err := codec.EncodeAny(v)
	if err != nil {
		return "", false
	}
	return b.literal(kind, text)
}

// columnLiteral renders the value read from a column descriptor.
func (b Builder) columnLiteral(d *field.Descriptor, obj any) (string, bool) {
	text, present, err := d.Read(obj)
	if err != nil {
		return "", false
	}
	if !present {
		return "NULL", true
	}
	return b.literal(d.Type.Kind(), text)
}

func (b Builder) literal(kind codec.Kind, text string) (string, bool) {
	switch kind {
	case codec.KindNull:
		return "NULL", true
	case codec.KindInteger:
		return text, true
	case codec.KindReal:
		f, err := strconv.ParseFloat(text, 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return "", false
		}
		return text, true
	case codec.KindBool:
		t, err := strconv.ParseBool(text)
		if err != nil {
			return "", false
		}
		if b.dialect == dialect.Postgres {
			return strings.ToUpper(strconv.FormatBool(t)), true
		}
		if t {
			return "1", true
		}
		return "0", true
	case codec.KindText, codec.KindUUID:
		return b.quote(text), true
	case codec.KindTime:
		if b.dialect == dialect.MySQL {
			t, err := codec.ParseTime(text)
			if err != nil {
				return "", false
			}
			return b.quote(t.UTC().Format(mysqlTimeLayout)), true
		}
		return b.quote(text), true
	case codec.KindBlob:
		if b.dialect == dialect.Postgres {
			return `'\x` + hex.EncodeToString([]byte(text)) + `'::bytea`, true
		}
		return "X'" + strings.ToUpper(hex.EncodeToString([]byte(text))) + "'", true
	}
	return "", false
}

// quote returns s as a single-quoted string literal. MySQL also treats the
// backslash as an escape character.
func (b Builder) quote(s string) string {
	if b.dialect == dialect.MySQL && strings.Contains(s, `\`) {
		s = strings.ReplaceAll(s, `\`, `\\`)
	}
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// ColumnType returns the column type emitted by CreateTable for d.
func (b Builder) ColumnType(d *field.Descriptor) string {
	return b.affinity(d)
}

// affinity returns the column type of d in the builder's dialect.
func (b Builder) affinity(d *field.Descriptor) string {
	switch b.dialect {
	case dialect.MySQL:
		return mysqlAffinity(d)
	case dialect.Postgres:
		return postgresAffinity(d)
	default:
		return sqliteAffinity(d)
	}
}

func sqliteAffinity(d *field.Descriptor) string {
	switch {
	case d.Type == field.TypeBool:
		return "BOOLEAN"
	case d.Type.Integer():
		// AUTOINCREMENT is only accepted on an INTEGER PRIMARY KEY column.
		return "INTEGER"
	case d.Type == field.TypeFloat32 || d.Type == field.TypeFloat64:
		return "REAL"
	case d.Type == field.TypeBytes || d.Type == field.TypeMsgpack:
		return "BLOB"
	case d.Type == field.TypeTime:
		return "DATETIME"
	default:
		return "TEXT"
	}
}

func mysqlAffinity(d *field.Descriptor) string {
	switch d.Type {
	case field.TypeBool:
		return "BOOLEAN"
	case field.TypeInt8:
		return "TINYINT"
	case field.TypeInt16:
		return "SMALLINT"
	case field.TypeInt32:
		return "INT"
	case field.TypeInt, field.TypeInt64:
		return "BIGINT"
	case field.TypeUint8:
		return "TINYINT UNSIGNED"
	case field.TypeUint16:
		return "SMALLINT UNSIGNED"
	case field.TypeUint32:
		return "INT UNSIGNED"
	case field.TypeUint, field.TypeUint64:
		return "BIGINT UNSIGNED"
	case field.TypeFloat32:
		return "FLOAT"
	case field.TypeFloat64:
		return "DOUBLE"
	case field.TypeBytes, field.TypeMsgpack:
		return "BLOB"
	case field.TypeTime:
		return "DATETIME(6)"
	case field.TypeUUID:
		return "CHAR(36)"
	default:
		size := d.Size
		if size <= 0 {
			size = 255
		}
		return "VARCHAR(" + strconv.Itoa(size) + ")"
	}
}

func postgresAffinity(d *field.Descriptor) string {
	switch d.Type {
	case field.TypeBool:
		return "BOOLEAN"
	case field.TypeInt8, field.TypeInt16, field.TypeUint8:
		if d.AutoIncrement {
			return "SMALLSERIAL"
		}
		return "SMALLINT"
	case field.TypeInt32, field.TypeUint16:
		if d.AutoIncrement {
			return "SERIAL"
		}
		return "INTEGER"
	case field.TypeInt, field.TypeInt64, field.TypeUint, field.TypeUint32, field.TypeUint64:
		if d.AutoIncrement {
			return "BIGSERIAL"
		}
		return "BIGINT"
	case field.TypeFloat32:
		return "REAL"
	case field.TypeFloat64:
		return "DOUBLE PRECISION"
	case field.TypeBytes, field.TypeMsgpack:
		return "BYTEA"
	case field.TypeTime:
		return "TIMESTAMPTZ"
	case field.TypeUUID:
		return "UUID"
	default:
		if d.Size > 0 {
			return "VARCHAR(" + strconv.Itoa(d.Size) + ")"
		}
		return "TEXT"
	}
}
