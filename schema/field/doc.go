// Package field provides column descriptors and the fluent builders that
// create them for persisted Go types.
//
// A descriptor couples column metadata (name, type, key and null flags) with a
// pair of accessors that read a field of an entity as text and write text back
// into it. Builders take a reference function that returns the address of the
// struct field, so no reflection over struct layout is needed:
//
//	field.Uint64("id", func(u *User) *uint64 { return &u.ID }).PrimaryKey().AutoIncrement()
//	field.String("name", func(u *User) *string { return &u.Name })
//	field.Int32("age", func(u *User) *int32 { return &u.Age })
//
// # Field Types
//
// Any scalar accepted by the codec package can be mapped with the generic
// Value builder; the typed shorthands only fix the value type:
//
//	field.Value("status", func(o *Order) *Status { return &o.Status }) // type Status string
//	field.Time("created_at", func(o *Order) *time.Time { return &o.CreatedAt })
//	field.UUID("ref", func(o *Order) *uuid.UUID { return &o.Ref })
//
// Pointer fields are mapped with Optional. A nil pointer reads as absent and is
// written as NULL:
//
//	field.Optional("nickname", func(u *User) **string { return &u.Nickname })
//
// Structured values are stored as msgpack blobs:
//
//	field.Msgpack("tags", func(u *User) *[]string { return &u.Tags })
//
// # Field Options
//
//	field.Int64("id", ref).
//	    PrimaryKey().     // PRIMARY KEY
//	    AutoIncrement()   // skipped on insert while the value is zero
//	field.String("email", ref).
//	    Required().       // NOT NULL
//	    Unique().         // UNIQUE
//	    Size(255)         // VARCHAR size on MySQL
package field
