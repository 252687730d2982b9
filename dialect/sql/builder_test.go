package sql

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/relmap/dialect"
	"github.com/syssam/relmap/schema"
	"github.com/syssam/relmap/schema/field"
)

type user struct {
	ID   int64
	Name string
	Age  int
}

var userMapping = schema.Table("User",
	field.Int64("id", func(u *user) *int64 { return &u.ID }).PrimaryKey().AutoIncrement(),
	field.String("name", func(u *user) *string { return &u.Name }),
	field.Int("age", func(u *user) *int { return &u.Age }),
)

type account struct {
	ID      uuid.UUID
	Email   string
	Nick    *string
	Active  bool
	Balance float64
	Avatar  []byte
	Created time.Time
}

var accountMapping = schema.Table("accounts",
	field.UUID("id", func(a *account) *uuid.UUID { return &a.ID }).PrimaryKey(),
	field.String("email", func(a *account) *string { return &a.Email }).Required().Unique().Size(128),
	field.Optional("nick", func(a *account) **string { return &a.Nick }),
	field.Bool("active", func(a *account) *bool { return &a.Active }),
	field.Float64("balance", func(a *account) *float64 { return &a.Balance }),
	field.Bytes("avatar", func(a *account) *[]byte { return &a.Avatar }),
	field.Time("created", func(a *account) *time.Time { return &a.Created }),
)

func TestBuilder_UserScenario(t *testing.T) {
	b := Dialect(dialect.SQLite)
	assert.Equal(t,
		"CREATE TABLE User (id INTEGER PRIMARY KEY AUTOINCREMENT, name TEXT, age INTEGER)",
		b.CreateTable(userMapping.Table, userMapping.Columns, schema.TableConstraint{}),
	)
	assert.Equal(t,
		"INSERT INTO User (name, age) VALUES ('Alice', 30)",
		b.Insert(&user{Name: "Alice", Age: 30}, userMapping.Table, userMapping.Columns, ModifyParams{}),
	)
	assert.Equal(t,
		"SELECT * FROM User WHERE (age > 20)",
		b.Select(userMapping.Table, userMapping.Columns, QueryParams{Where: GT("age", 20)}),
	)
}

func TestBuilder_CreateTable(t *testing.T) {
	tests := []struct {
		name       string
		dialect    string
		mapping    *schema.TypeMapping
		constraint schema.TableConstraint
		want       string
	}{
		{
			name:    "mysql",
			dialect: dialect.MySQL,
			mapping: userMapping,
			want:    "CREATE TABLE User (id BIGINT PRIMARY KEY AUTO_INCREMENT, name VARCHAR(255), age BIGINT)",
		},
		{
			name:    "postgres",
			dialect: dialect.Postgres,
			mapping: userMapping,
			want:    "CREATE TABLE User (id BIGSERIAL PRIMARY KEY, name TEXT, age BIGINT)",
		},
		{
			name:       "if not exists",
			dialect:    dialect.SQLite,
			mapping:    userMapping,
			constraint: schema.TableConstraint{IfNotExists: true, Unique: [][]string{{"name", "age"}}, Extra: []string{"CHECK (age >= 0)"}},
			want:       "CREATE TABLE IF NOT EXISTS User (id INTEGER PRIMARY KEY AUTOINCREMENT, name TEXT, age INTEGER, UNIQUE (name, age), CHECK (age >= 0))",
		},
		{
			name:    "sqlite types",
			dialect: dialect.SQLite,
			mapping: accountMapping,
			want:    "CREATE TABLE accounts (id TEXT PRIMARY KEY, email TEXT NOT NULL UNIQUE, nick TEXT, active BOOLEAN, balance REAL, avatar BLOB, created DATETIME)",
		},
		{
			name:    "postgres types",
			dialect: dialect.Postgres,
			mapping: accountMapping,
			want:    "CREATE TABLE accounts (id UUID PRIMARY KEY, email VARCHAR(128) NOT NULL UNIQUE, nick TEXT, active BOOLEAN, balance DOUBLE PRECISION, avatar BYTEA, created TIMESTAMPTZ)",
		},
		{
			name:    "mysql types",
			dialect: dialect.MySQL,
			mapping: accountMapping,
			want:    "CREATE TABLE accounts (id CHAR(36) PRIMARY KEY, email VARCHAR(128) NOT NULL UNIQUE, nick VARCHAR(255), active BOOLEAN, balance DOUBLE, avatar BLOB, created DATETIME(6))",
		},
		{
			name:    "autoincrement needs inline key",
			dialect: dialect.SQLite,
			mapping: userMapping,
			constraint: schema.TableConstraint{
				PrimaryKey: []string{"id", "name"},
			},
			want: "",
		},
		{
			name:       "unknown unique column",
			dialect:    dialect.SQLite,
			mapping:    accountMapping,
			constraint: schema.TableConstraint{Unique: [][]string{{"missing"}}},
			want:       "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Dialect(tt.dialect).CreateTable(tt.mapping.Table, tt.mapping.Columns, tt.constraint)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBuilder_CreateTableCompositeKey(t *testing.T) {
	type membership struct {
		UserID  int64
		GroupID int64
	}
	m := schema.Table("memberships",
		field.Int64("user_id", func(m *membership) *int64 { return &m.UserID }).PrimaryKey(),
		field.Int64("group_id", func(m *membership) *int64 { return &m.GroupID }).PrimaryKey(),
	)
	assert.Equal(t,
		"CREATE TABLE memberships (user_id INTEGER, group_id INTEGER, PRIMARY KEY (user_id, group_id))",
		Dialect(dialect.SQLite).CreateTable(m.Table, m.Columns, schema.TableConstraint{}),
	)
}

func TestBuilder_InvalidIdentifiers(t *testing.T) {
	b := Dialect(dialect.SQLite)
	assert.Empty(t, b.CreateTable("users; DROP TABLE x", userMapping.Columns, schema.TableConstraint{}))
	assert.Empty(t, b.CreateTable("users", nil, schema.TableConstraint{}))
	assert.Empty(t, b.DropTable("1users"))
	assert.Empty(t, b.Select("", userMapping.Columns, QueryParams{}))
	assert.Empty(t, b.Select("User", userMapping.Columns, QueryParams{Where: EQ("age) OR (1", 1)}))
	assert.Empty(t, b.Delete("User; --", nil))
	assert.Empty(t, b.Sum("User", "age)", nil))
	assert.Equal(t, "DROP TABLE User", b.DropTable("User"))
}

func TestBuilder_Select(t *testing.T) {
	tests := []struct {
		name    string
		dialect string
		params  QueryParams
		want    string
	}{
		{
			name: "all",
			want: "SELECT * FROM User",
		},
		{
			name:   "projection in registration order",
			params: QueryParams{Columns: []string{"age", "id"}},
			want:   "SELECT id, age FROM User",
		},
		{
			name:   "order limit offset",
			params: QueryParams{OrderBy: []Order{Desc("age"), Asc("name")}}.WithLimit(10).WithOffset(20),
			want:   "SELECT * FROM User ORDER BY age DESC, name ASC LIMIT 10 OFFSET 20",
		},
		{
			name:   "sqlite offset only",
			params: QueryParams{}.WithOffset(5),
			want:   "SELECT * FROM User LIMIT -1 OFFSET 5",
		},
		{
			name:    "mysql offset only",
			dialect: dialect.MySQL,
			params:  QueryParams{}.WithOffset(5),
			want:    "SELECT * FROM User LIMIT 18446744073709551615 OFFSET 5",
		},
		{
			name:    "postgres offset only",
			dialect: dialect.Postgres,
			params:  QueryParams{}.WithOffset(5),
			want:    "SELECT * FROM User OFFSET 5",
		},
		{
			name:   "unknown projection column",
			params: QueryParams{Columns: []string{"email"}},
			want:   "",
		},
		{
			name:   "unknown order column",
			params: QueryParams{OrderBy: []Order{Asc("email")}},
			want:   "",
		},
		{
			name:   "condition",
			params: QueryParams{Where: And(GT("age", 18), LT("age", 30)), Columns: []string{"name"}},
			want:   "SELECT name FROM User WHERE ((age > 18) AND (age < 30))",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Dialect(tt.dialect).Select(userMapping.Table, userMapping.Columns, tt.params)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBuilder_Insert(t *testing.T) {
	alice := &user{Name: "Alice", Age: 30}
	t.Run("explicit key", func(t *testing.T) {
		got := Dialect(dialect.SQLite).Insert(&user{ID: 7, Name: "Bob", Age: 40}, "User", userMapping.Columns, ModifyParams{})
		assert.Equal(t, "INSERT INTO User (id, name, age) VALUES (7, 'Bob', 40)", got)
	})
	t.Run("postgres returning", func(t *testing.T) {
		got := Dialect(dialect.Postgres).Insert(alice, "User", userMapping.Columns, ModifyParams{})
		assert.Equal(t, "INSERT INTO User (name, age) VALUES ('Alice', 30) RETURNING id", got)
	})
	t.Run("columns", func(t *testing.T) {
		got := Dialect(dialect.SQLite).Insert(alice, "User", userMapping.Columns, ModifyParams{Columns: []string{"name"}})
		assert.Equal(t, "INSERT INTO User (name) VALUES ('Alice')", got)
	})
	t.Run("escaping", func(t *testing.T) {
		u := &user{Name: `O'Brien \ co`}
		assert.Equal(t, `INSERT INTO User (name, age) VALUES ('O''Brien \ co', 0)`,
			Dialect(dialect.SQLite).Insert(u, "User", userMapping.Columns, ModifyParams{}))
		assert.Equal(t, `INSERT INTO User (name, age) VALUES ('O''Brien \\ co', 0)`,
			Dialect(dialect.MySQL).Insert(u, "User", userMapping.Columns, ModifyParams{}))
	})
	t.Run("null and typed literals", func(t *testing.T) {
		a := &account{
			ID:      uuid.MustParse("7d444840-9dc0-11d1-b245-5ffdce74fad2"),
			Email:   "a@example.com",
			Active:  true,
			Balance: 1.5,
			Avatar:  []byte{0xca, 0xfe},
			Created: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
		}
		assert.Equal(t,
			"INSERT INTO accounts (id, email, nick, active, balance, avatar, created) VALUES "+
				"('7d444840-9dc0-11d1-b245-5ffdce74fad2', 'a@example.com', NULL, 1, 1.5, X'CAFE', '2024-01-02T03:04:05Z')",
			Dialect(dialect.SQLite).Insert(a, accountMapping.Table, accountMapping.Columns, ModifyParams{}),
		)
		assert.Equal(t,
			"INSERT INTO accounts (id, email, nick, active, balance, avatar, created) VALUES "+
				`('7d444840-9dc0-11d1-b245-5ffdce74fad2', 'a@example.com', NULL, TRUE, 1.5, '\xcafe'::bytea, '2024-01-02T03:04:05Z')`,
			Dialect(dialect.Postgres).Insert(a, accountMapping.Table, accountMapping.Columns, ModifyParams{}),
		)
		assert.Equal(t,
			"INSERT INTO accounts (id, email, nick, active, balance, avatar, created) VALUES "+
				"('7d444840-9dc0-11d1-b245-5ffdce74fad2', 'a@example.com', NULL, 1, 1.5, X'CAFE', '2024-01-02 03:04:05')",
			Dialect(dialect.MySQL).Insert(a, accountMapping.Table, accountMapping.Columns, ModifyParams{}),
		)
	})
	t.Run("default values", func(t *testing.T) {
		type counter struct{ ID int64 }
		cols := []*field.Descriptor{
			field.Int64("id", func(c *counter) *int64 { return &c.ID }).PrimaryKey().AutoIncrement().Descriptor(),
		}
		assert.Equal(t, "INSERT INTO counters DEFAULT VALUES", Dialect(dialect.SQLite).Insert(&counter{}, "counters", cols, ModifyParams{}))
		assert.Equal(t, "INSERT INTO counters () VALUES ()", Dialect(dialect.MySQL).Insert(&counter{}, "counters", cols, ModifyParams{}))
		assert.Equal(t, "INSERT INTO counters DEFAULT VALUES RETURNING id", Dialect(dialect.Postgres).Insert(&counter{}, "counters", cols, ModifyParams{}))
	})
	t.Run("wrong object type", func(t *testing.T) {
		assert.Empty(t, Dialect(dialect.SQLite).Insert(&account{}, "User", userMapping.Columns, ModifyParams{}))
	})
}

func TestBuilder_Update(t *testing.T) {
	b := Dialect(dialect.SQLite)
	bob := &user{ID: 1, Name: "Bob", Age: 31}
	assert.Equal(t,
		"UPDATE User SET name = 'Bob', age = 31 WHERE (id = 1)",
		b.Update(bob, "User", userMapping.Columns, ModifyParams{Where: EQ("id", 1)}),
	)
	assert.Equal(t,
		"UPDATE User SET age = 31",
		b.Update(bob, "User", userMapping.Columns, ModifyParams{Columns: []string{"age"}}),
	)
	assert.Equal(t,
		"UPDATE User SET name = 'Bob', age = 31",
		b.Update(bob, "User", userMapping.Columns, ModifyParams{Where: Empty()}),
		"an empty condition updates every row",
	)
	assert.Empty(t, b.Update(bob, "User", userMapping.Columns, ModifyParams{Columns: []string{"missing"}}))

	type ticket struct {
		Code string
		Seq  int64
	}
	cols := []*field.Descriptor{
		field.String("code", func(t *ticket) *string { return &t.Code }).PrimaryKey().Descriptor(),
		field.Int64("seq", func(t *ticket) *int64 { return &t.Seq }).AutoIncrement().Descriptor(),
	}
	assert.Equal(t,
		"UPDATE tickets SET seq = 9 WHERE (code = 'A')",
		b.Update(&ticket{Code: "A", Seq: 9}, "tickets", cols, ModifyParams{Where: EQ("code", "A")}),
		"a set autoincrement column that is not a primary key is written",
	)
	assert.Empty(t, b.Update(&ticket{Code: "A"}, "tickets", cols, ModifyParams{}), "nothing to set")
}

func TestBuilder_DeleteAndAggregates(t *testing.T) {
	b := Dialect(dialect.SQLite)
	assert.Equal(t, "DELETE FROM User", b.Delete("User", nil))
	assert.Equal(t, "DELETE FROM User WHERE (age < 18)", b.Delete("User", LT("age", 18)))
	assert.Equal(t, "SELECT SUM(age) FROM User", b.Sum("User", "age", Empty()))
	assert.Equal(t, "SELECT AVG(age) FROM User WHERE (name LIKE 'A%')", b.Average("User", "age", HasPrefix("name", "A")))
	assert.Equal(t, "SELECT COUNT(*) FROM User WHERE (age >= 21)", b.Count("User", GTE("age", 21)))
	assert.Empty(t, b.Count("User", In("age")))
}

func TestPick(t *testing.T) {
	got, ok := pick(userMapping.Columns, []string{"age", "id", "age"})
	require.True(t, ok)
	require.Len(t, got, 2)
	assert.Equal(t, "id", got[0].Name)
	assert.Equal(t, "age", got[1].Name)
	_, ok = pick(userMapping.Columns, []string{"nope"})
	assert.False(t, ok)
}
