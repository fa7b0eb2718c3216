package routes

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_CopiesEntries(t *testing.T) {
	t.Parallel()

	entries := map[string]string{"/a": "1"}
	table, err := New(entries)
	require.NoError(t, err)

	entries["/a"] = "changed"
	entries["/b"] = "2"

	body, _ := table.Lookup("/a")
	assert.Equal(t, "1", body)
	assert.Equal(t, 1, table.Len())
}

func TestNew_RejectsReservedPath(t *testing.T) {
	t.Parallel()

	_, err := New(map[string]string{EchoPath: "x"})
	assert.ErrorIs(t, err, ErrReservedPath)
}

func TestTable_Paths(t *testing.T) {
	t.Parallel()

	table, err := New(map[string]string{"/b": "", "/a": "", "/c/d": ""})
	require.NoError(t, err)
	assert.Equal(t, []string{"/a", "/b", "/c/d"}, table.Paths())
}

func TestTable_Nil(t *testing.T) {
	t.Parallel()

	var table *Table
	_, ok := table.Lookup("/a")
	assert.False(t, ok)
	assert.Equal(t, 0, table.Len())
	assert.Nil(t, table.Paths())
}

func TestValidatePath(t *testing.T) {
	t.Parallel()

	valid := []string{"/", "/status", "/a/b/c", "/with-dash_and.dot", "/echo/sub"}
	for _, p := range valid {
		assert.NoError(t, ValidatePath(p), p)
	}

	invalid := []string{"", "status", "/a b", "/a#frag", "/a?x=1", "/echo"}
	for _, p := range invalid {
		assert.Error(t, ValidatePath(p), p)
	}
}
