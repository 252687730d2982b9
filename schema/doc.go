// Package schema holds the process-wide registry that maps Go types to their
// table layout.
//
// A persisted type describes itself by implementing Schemer. The registry asks
// the type for its TypeMapping the first time the type is used and keeps the
// result for the lifetime of the process:
//
//	type User struct {
//	    ID   uint64
//	    Name string
//	    Age  int32
//	}
//
//	func (User) Schema() *schema.TypeMapping {
//	    return schema.Table("User",
//	        field.Uint64("id", func(u *User) *uint64 { return &u.ID }).PrimaryKey().AutoIncrement(),
//	        field.String("name", func(u *User) *string { return &u.Name }),
//	        field.Int32("age", func(u *User) *int32 { return &u.Age }),
//	    )
//	}
//
//	m := schema.Mapping[User](schema.Default)
//
// Lookups of registered types take a lock-free path. First registration of a
// type runs under a mutex, so the Schema method is called at most once per
// registry even when many goroutines race on first use.
//
// Registering a type twice with identical metadata is a no-op. Registering it
// with different metadata, or a Schema method that returns nil or an invalid
// mapping, is a programming error and panics.
package schema
