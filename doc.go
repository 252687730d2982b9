// Package relmap maps Go structs to SQL tables.
//
// A persisted type describes its table once, through a Schema method on
// its pointer receiver:
//
//	type User struct {
//	    ID   int64
//	    Name string
//	    Age  int
//	}
//
//	func (*User) Schema() *schema.TypeMapping {
//	    return schema.Table("User",
//	        field.Int64("id", func(u *User) *int64 { return &u.ID }).PrimaryKey().AutoIncrement(),
//	        field.String("name", func(u *User) *string { return &u.Name }),
//	        field.Int("age", func(u *User) *int { return &u.Age }),
//	    )
//	}
//
// The mapping is registered on first use and shared by every client. The
// generic operations compile a statement for the dialect of the client, run
// it and marshal the result:
//
//	client, err := relmap.Open(ctx, ":memory:")
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	err = relmap.CreateTable[User](ctx, client, schema.TableConstraint{})
//	err = relmap.Insert(ctx, client, &User{Name: "Alice", Age: 30}, sql.ModifyParams{})
//	users, err := relmap.Query[User](ctx, client, sql.QueryParams{Where: sql.GT("age", 20)})
//
// Values are rendered as escaped SQL literals. Statements are not prepared
// and no parameters are bound.
//
// Schema methods can be generated from struct tags with cmd/relmapgen.
package relmap
