package loader

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/privata-labs/privata/services"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestLoadDir_ColumnOrientedTables(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "users.csv", "user_id,name\n1,Alice\n2,Bob\n")
	writeFile(t, dir, "orders.csv", "order_id,total\n10,9.99\n")
	writeFile(t, dir, "notes.txt", "not a dataset")

	l := NewCSVLoader(zap.NewNop())
	tables, err := l.LoadDir(dir)
	require.NoError(t, err)
	require.Len(t, tables, 2)

	// Name order: orders before users.
	assert.Equal(t, "orders", tables[0].Name)
	assert.Equal(t, "users", tables[1].Name)

	users := tables[1]
	require.Len(t, users.Columns, 2)
	assert.Equal(t, "user_id", users.Columns[0].Name)
	assert.Equal(t, []string{"1", "2"}, users.Columns[0].Values)
	assert.Equal(t, []string{"Alice", "Bob"}, users.Columns[1].Values)
	assert.Equal(t, 2, users.RowCount())
}

func TestLoadFile_ShortRowsBecomeNulls(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "ragged.csv", "a,b,c\n1,2,3\n4,5\n")

	l := NewCSVLoader(zap.NewNop())
	table, err := l.LoadFile(filepath.Join(dir, "ragged.csv"))
	require.NoError(t, err)

	assert.Equal(t, []string{"3", ""}, table.Columns[2].Values)
	assert.Equal(t, 2, table.RowCount())
}

func TestLoadFile_EmptyFileIsLoadError(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "empty.csv", "")

	l := NewCSVLoader(zap.NewNop())
	_, err := l.LoadFile(filepath.Join(dir, "empty.csv"))
	require.Error(t, err)
	assert.True(t, services.IsLoadError(err))
}

func TestLoadFile_MissingFileIsLoadError(t *testing.T) {
	l := NewCSVLoader(zap.NewNop())
	_, err := l.LoadFile(filepath.Join(t.TempDir(), "absent.csv"))
	require.Error(t, err)
	assert.True(t, services.IsLoadError(err))
}

func TestLoadDir_EmptyDirectoryYieldsNoTables(t *testing.T) {
	l := NewCSVLoader(zap.NewNop())
	tables, err := l.LoadDir(t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, tables)
}
