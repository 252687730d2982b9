// Package sql compiles statements for SQL engines and executes them through
// database/sql.
//
// # Compiling
//
// A Builder renders complete statements as text for one dialect. Values are
// escaped into SQL literals; nothing is bound as a parameter:
//
//	b := sql.Dialect(dialect.SQLite)
//	b.Select("User", m.Columns, sql.QueryParams{Where: sql.GT("age", 20)})
//	// SELECT * FROM User WHERE (age > 20)
//
// Every method returns "" when the statement cannot be compiled.
//
// # Conditions
//
//	sql.EQ("name", "john")                  // (name = 'john')
//	sql.NEQ("status", nil)                  // (status IS NOT NULL)
//	sql.And(sql.GT("age", 18), sql.LT("age", 30))
//	                                        // ((age > 18) AND (age < 30))
//	sql.Not(sql.Contains("name", "bot"))    // (NOT (name LIKE '%bot%'))
//	sql.In("status", "active", "pending")   // (status IN ('active', 'pending'))
//
// Field and StringField give the same conditions with typed values.
//
// # Executing
//
// Open detects the dialect from a connection URI and returns a Driver
// implementing dialect.Driver. Query results are read with ScanAll:
//
//	drv, err := sql.Open("file:app.db")
//	cur, err := drv.Query(ctx, query)
//	defer cur.Close()
//	users, err := sql.ScanAll[User](cur, m)
//
// NewStatsDriver and NewDebugDriver wrap any dialect.Driver with statement
// statistics and slog output.
package sql
