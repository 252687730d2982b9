package sql

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/relmap/codec"
)

// sliceCursor is an in-memory dialect.Cursor. A nil cell is SQL NULL.
type sliceCursor struct {
	columns []string
	rows    [][]*string
	pos     int
	err     error
	closed  bool
}

func (c *sliceCursor) Columns() ([]string, error) { return c.columns, nil }

func (c *sliceCursor) Next() bool {
	if c.pos >= len(c.rows) {
		return false
	}
	c.pos++
	return true
}

func (c *sliceCursor) Value(i int) (string, bool) {
	v := c.rows[c.pos-1][i]
	if v == nil {
		return "", false
	}
	return *v, true
}

func (c *sliceCursor) Err() error { return c.err }

func (c *sliceCursor) Close() error {
	c.closed = true
	return nil
}

func TestScanAll(t *testing.T) {
	cur := &sliceCursor{
		columns: []string{"id", "name", "age"},
		rows: [][]*string{
			{ptr("1"), ptr("Alice"), ptr("30")},
			{ptr("2"), nil, ptr("41")},
		},
	}
	users, err := ScanAll[user](cur, userMapping)
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, &user{ID: 1, Name: "Alice", Age: 30}, users[0])
	assert.Equal(t, &user{ID: 2, Age: 41}, users[1], "NULL leaves the zero value")
	assert.False(t, cur.closed, "the caller owns the cursor")
}

func TestScanAll_Projection(t *testing.T) {
	cur := &sliceCursor{
		columns: []string{"age"},
		rows:    [][]*string{{ptr("9")}},
	}
	users, err := ScanAll[user](cur, userMapping)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, 9, users[0].Age)
}

func TestScanAll_Empty(t *testing.T) {
	users, err := ScanAll[user](&sliceCursor{columns: []string{"id"}}, userMapping)
	require.NoError(t, err)
	assert.Empty(t, users)
}

func TestScanAll_SchemaMismatch(t *testing.T) {
	cur := &sliceCursor{
		columns: []string{"id", "nickname"},
		rows:    [][]*string{{ptr("1"), ptr("al")}},
	}
	users, err := ScanAll[user](cur, userMapping)
	assert.Nil(t, users)
	var mismatch *SchemaMismatchError
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, "User", mismatch.Table)
	assert.Equal(t, "nickname", mismatch.Column)
	assert.Equal(t, 0, cur.pos, "no rows are read")
}

func TestScanAll_ConversionError(t *testing.T) {
	cur := &sliceCursor{
		columns: []string{"age"},
		rows:    [][]*string{{ptr("old")}},
	}
	_, err := ScanAll[user](cur, userMapping)
	var conv *codec.ConversionError
	require.ErrorAs(t, err, &conv)
	assert.Equal(t, "old", conv.Text)
}

func TestScanAll_CursorError(t *testing.T) {
	boom := errors.New("boom")
	_, err := ScanAll[user](&sliceCursor{columns: []string{"id"}, err: boom}, userMapping)
	assert.ErrorIs(t, err, boom)
}

func TestScanValue(t *testing.T) {
	text, ok, err := ScanValue(&sliceCursor{columns: []string{"n"}, rows: [][]*string{{ptr("3")}}})
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "3", text)

	_, ok, err = ScanValue(&sliceCursor{columns: []string{"n"}, rows: [][]*string{{nil}}})
	require.NoError(t, err)
	assert.False(t, ok)

	_, ok, err = ScanValue(&sliceCursor{columns: []string{"n"}})
	require.NoError(t, err)
	assert.False(t, ok)
}
