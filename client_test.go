package relmap_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"reflect"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/relmap"
	"github.com/syssam/relmap/dialect"
	"github.com/syssam/relmap/dialect/sql"
	"github.com/syssam/relmap/schema"
)

func newMockClient(t *testing.T, name string, opts ...relmap.Option) (*relmap.Client, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	client := relmap.NewClient(sql.OpenDB(name, db), opts...)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		_ = db.Close()
	})
	return client, mock
}

func TestClient_Dialect(t *testing.T) {
	for _, name := range []string{dialect.SQLite, dialect.MySQL, dialect.Postgres} {
		client, _ := newMockClient(t, name)
		assert.Equal(t, name, client.Dialect())
	}
}

func TestClient_ExecError(t *testing.T) {
	ctx := context.Background()
	client, mock := newMockClient(t, dialect.SQLite)
	mock.ExpectExec("DELETE FROM User WHERE (age < 18)").WillReturnError(errors.New("disk I/O error"))

	err := relmap.Remove[User](ctx, client, sql.LT("age", 18))
	require.Error(t, err)
	assert.ErrorIs(t, err, relmap.ErrExecFailed)
	var me *relmap.MutationError
	require.True(t, errors.As(err, &me))
	assert.Equal(t, "User", me.Entity)
	assert.Equal(t, "delete", me.Op)
	assert.Equal(t, "DELETE FROM User WHERE (age < 18)", me.SQL)
	assert.Contains(t, err.Error(), "disk I/O error")
	assert.False(t, relmap.IsConstraintError(err))
}

func TestClient_ConstraintError(t *testing.T) {
	ctx := context.Background()
	client, mock := newMockClient(t, dialect.SQLite)
	mock.ExpectExec("INSERT INTO User (name, age) VALUES ('Alice', 30)").
		WillReturnError(errors.New("constraint failed: UNIQUE constraint failed: User.name (2067)"))

	err := relmap.Insert(ctx, client, &User{Name: "Alice", Age: 30}, sql.ModifyParams{})
	require.Error(t, err)
	assert.True(t, relmap.IsConstraintError(err))
	assert.True(t, relmap.IsMutationError(err))
	assert.True(t, sql.IsUniqueConstraintError(err))
}

func TestClient_QueryError(t *testing.T) {
	ctx := context.Background()
	client, mock := newMockClient(t, dialect.MySQL)
	mock.ExpectQuery("SELECT COUNT(*) FROM User").WillReturnError(errors.New("connection reset"))

	_, err := relmap.Count[User](ctx, client, nil)
	require.Error(t, err)
	assert.True(t, relmap.IsQueryError(err))
	assert.ErrorIs(t, err, relmap.ErrExecFailed)
}

func TestClient_RowError(t *testing.T) {
	ctx := context.Background()
	client, mock := newMockClient(t, dialect.SQLite)
	rows := sqlmock.NewRows([]string{"id", "name", "age"}).
		AddRow(1, "Alice", 30).
		AddRow(2, "Bob", 40).
		RowError(1, errors.New("page corrupted"))
	mock.ExpectQuery("SELECT * FROM User").WillReturnRows(rows)

	users, err := relmap.Query[User](ctx, client, sql.QueryParams{})
	require.Error(t, err)
	assert.Nil(t, users)
	assert.True(t, relmap.IsQueryError(err))
}

func TestClient_SchemaMismatch(t *testing.T) {
	ctx := context.Background()
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	client, mock := newMockClient(t, dialect.SQLite, relmap.WithLogger(logger))
	rows := sqlmock.NewRows([]string{"id", "name", "age", "email"}).AddRow(1, "Alice", 30, "a@example.com")
	mock.ExpectQuery("SELECT * FROM User").WillReturnRows(rows)

	users, err := relmap.Query[User](ctx, client, sql.QueryParams{})
	require.Error(t, err)
	assert.Nil(t, users)
	assert.True(t, relmap.IsSchemaMismatch(err))
	var e *relmap.SchemaMismatchError
	require.True(t, errors.As(err, &e))
	assert.Equal(t, "email", e.Column)
	assert.Contains(t, buf.String(), "level=ERROR")
	assert.Contains(t, buf.String(), "statement failed")
}

func TestClient_ConversionError(t *testing.T) {
	ctx := context.Background()
	client, mock := newMockClient(t, dialect.SQLite)
	rows := sqlmock.NewRows([]string{"id", "age"}).AddRow(1, "thirty")
	mock.ExpectQuery("SELECT id, age FROM User").WillReturnRows(rows)

	_, err := relmap.Query[User](ctx, client, sql.QueryParams{Columns: []string{"id", "age"}})
	require.Error(t, err)
	assert.True(t, relmap.IsConversionError(err))
	assert.False(t, relmap.IsQueryError(err))
}

func TestClient_PostgresInsertReturningID(t *testing.T) {
	ctx := context.Background()
	client, mock := newMockClient(t, dialect.Postgres)
	mock.ExpectQuery("INSERT INTO User (name, age) VALUES ('Alice', 30) RETURNING id").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))

	u := &User{Name: "Alice", Age: 30}
	id, err := relmap.InsertReturningID(ctx, client, u, sql.ModifyParams{})
	require.NoError(t, err)
	assert.EqualValues(t, 7, id)
	assert.EqualValues(t, 7, u.ID)
}

func TestClient_DebugLog(t *testing.T) {
	ctx := context.Background()
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	client, mock := newMockClient(t, dialect.SQLite, relmap.WithLogger(logger), relmap.Debug())
	mock.ExpectExec("DROP TABLE User").WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, relmap.DropTable[User](ctx, client))
	out := buf.String()
	assert.Contains(t, out, "msg=exec")
	assert.Contains(t, out, `sql="DROP TABLE User"`)
	assert.Contains(t, out, "statement executed")
}

func TestClient_Stats(t *testing.T) {
	ctx := context.Background()
	client, mock := newMockClient(t, dialect.SQLite, relmap.WithStats(), relmap.Debug())
	mock.ExpectExec("DROP TABLE User").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT COUNT(*) FROM User").WillReturnError(errors.New("no such table: User"))

	require.NoError(t, relmap.DropTable[User](ctx, client))
	_, err := relmap.Count[User](ctx, client, nil)
	require.Error(t, err)

	stats, ok := client.Stats()
	require.True(t, ok)
	snap := stats.Stats()
	assert.EqualValues(t, 1, snap.Execs)
	assert.EqualValues(t, 1, snap.Queries)
	assert.EqualValues(t, 1, snap.Errors)

	plain, _ := newMockClient(t, dialect.SQLite)
	_, ok = plain.Stats()
	assert.False(t, ok)
}

func TestClient_Registry(t *testing.T) {
	ctx := context.Background()
	reg := schema.NewRegistry()
	client, mock := newMockClient(t, dialect.SQLite, relmap.WithRegistry(reg))
	mock.ExpectExec("DROP TABLE User").WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, relmap.DropTable[User](ctx, client))
	m, ok := reg.Lookup(reflect.TypeFor[User]())
	require.True(t, ok)
	assert.Equal(t, "User", m.Table)
}

func TestTx(t *testing.T) {
	ctx := context.Background()

	t.Run("Commit", func(t *testing.T) {
		client, mock := newMockClient(t, dialect.SQLite)
		mock.ExpectBegin()
		mock.ExpectExec("INSERT INTO User (name, age) VALUES ('Alice', 30)").WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectCommit()

		tx, err := client.Tx(ctx)
		require.NoError(t, err)
		require.NoError(t, relmap.Insert(ctx, tx.Client(), &User{Name: "Alice", Age: 30}, sql.ModifyParams{}))
		require.NoError(t, tx.Commit())
		assert.Error(t, tx.Commit())
		assert.Error(t, tx.Rollback())
	})

	t.Run("Nested", func(t *testing.T) {
		client, mock := newMockClient(t, dialect.SQLite)
		mock.ExpectBegin()
		mock.ExpectRollback()

		tx, err := client.Tx(ctx)
		require.NoError(t, err)
		_, err = tx.Client().Tx(ctx)
		assert.ErrorIs(t, err, relmap.ErrTxStarted)
		require.NoError(t, tx.Rollback())
	})

	t.Run("BeginError", func(t *testing.T) {
		client, mock := newMockClient(t, dialect.SQLite)
		mock.ExpectBegin().WillReturnError(errors.New("database is locked"))

		_, err := client.Tx(ctx)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "database is locked")
	})
}

func TestWithTx(t *testing.T) {
	ctx := context.Background()

	t.Run("Commit", func(t *testing.T) {
		client, mock := newMockClient(t, dialect.SQLite)
		mock.ExpectBegin()
		mock.ExpectExec("DELETE FROM User").WillReturnResult(sqlmock.NewResult(0, 3))
		mock.ExpectCommit()

		err := relmap.WithTx(ctx, client, func(tx *relmap.Tx) error {
			return relmap.Remove[User](ctx, tx.Client(), nil)
		})
		require.NoError(t, err)
	})

	t.Run("RollbackOnError", func(t *testing.T) {
		client, mock := newMockClient(t, dialect.SQLite)
		mock.ExpectBegin()
		mock.ExpectRollback()

		want := errors.New("abort")
		err := relmap.WithTx(ctx, client, func(*relmap.Tx) error { return want })
		assert.ErrorIs(t, err, want)
	})

	t.Run("RollbackFailure", func(t *testing.T) {
		client, mock := newMockClient(t, dialect.SQLite)
		mock.ExpectBegin()
		mock.ExpectRollback().WillReturnError(errors.New("conn closed"))

		want := errors.New("abort")
		err := relmap.WithTx(ctx, client, func(*relmap.Tx) error { return want })
		var re *relmap.RollbackError
		require.True(t, errors.As(err, &re))
		assert.ErrorIs(t, err, want)
		assert.Contains(t, err.Error(), "conn closed")
	})

	t.Run("RollbackOnPanic", func(t *testing.T) {
		client, mock := newMockClient(t, dialect.SQLite)
		mock.ExpectBegin()
		mock.ExpectRollback()

		assert.PanicsWithValue(t, "boom", func() {
			_ = relmap.WithTx(ctx, client, func(*relmap.Tx) error { panic("boom") })
		})
	})

	t.Run("CommittedByFn", func(t *testing.T) {
		client, mock := newMockClient(t, dialect.SQLite)
		mock.ExpectBegin()
		mock.ExpectCommit()

		err := relmap.WithTx(ctx, client, func(tx *relmap.Tx) error { return tx.Commit() })
		require.NoError(t, err)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("RolledBackByFn", func(t *testing.T) {
		client, mock := newMockClient(t, dialect.SQLite)
		mock.ExpectBegin()
		mock.ExpectRollback()

		err := relmap.WithTx(ctx, client, func(tx *relmap.Tx) error { return tx.Rollback() })
		require.NoError(t, err)

		client, mock = newMockClient(t, dialect.SQLite)
		mock.ExpectBegin()
		mock.ExpectRollback()
		want := errors.New("abort")
		err = relmap.WithTx(ctx, client, func(tx *relmap.Tx) error {
			require.NoError(t, tx.Rollback())
			return want
		})
		assert.ErrorIs(t, err, want)
		var re *relmap.RollbackError
		assert.False(t, errors.As(err, &re))
		require.NoError(t, mock.ExpectationsWereMet())
	})
}
