package sheet

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sheet.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestCSVFetch(t *testing.T) {
	path := writeCSV(t, "ID,NAME,DKP SCORE\n1,Alice,\"1,200\"\n2,Bob,900\n")
	snap, err := NewCSV(path).Fetch(context.Background())
	require.NoError(t, err)

	assert.NotEmpty(t, snap.ID)
	assert.False(t, snap.FetchedAt.IsZero())
	assert.Equal(t, []string{"ID", "NAME", "DKP SCORE"}, snap.Header)
	require.Len(t, snap.Rows, 2)
	assert.Equal(t, []string{"1", "Alice", "1,200"}, snap.Rows[0])
}

func TestCSVFetchRaggedRows(t *testing.T) {
	path := writeCSV(t, "ID,NAME,DKP SCORE\n1,Alice\n")
	snap, err := NewCSV(path).Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, snap.Rows, 1)
	assert.Equal(t, []string{"1", "Alice"}, snap.Rows[0])
}

func TestCSVFetchEmptyFile(t *testing.T) {
	path := writeCSV(t, "")
	_, err := NewCSV(path).Fetch(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no header row")
}

func TestCSVFetchMissingFile(t *testing.T) {
	_, err := NewCSV(filepath.Join(t.TempDir(), "nope.csv")).Fetch(context.Background())
	require.Error(t, err)
}

func TestCSVSetCell(t *testing.T) {
	path := writeCSV(t, "ID,NAME,Discord ID\n1,Alice,\n2,Bob,user#2\n")
	src := NewCSV(path)
	ctx := context.Background()

	require.NoError(t, src.SetCell(ctx, 1, 2, "user#1"))

	snap, err := src.Fetch(ctx)
	require.NoError(t, err)
	assert.Equal(t, "user#1", snap.Rows[0][2])
	// Other cells untouched.
	assert.Equal(t, "user#2", snap.Rows[1][2])
}

func TestCSVSetCellExtendsShortRow(t *testing.T) {
	path := writeCSV(t, "ID,NAME,Discord ID\n1,Alice\n")
	src := NewCSV(path)
	ctx := context.Background()

	require.NoError(t, src.SetCell(ctx, 1, 2, "user#1"))

	snap, err := src.Fetch(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "Alice", "user#1"}, snap.Rows[0])
}

func TestCSVSetCellRowOutOfRange(t *testing.T) {
	path := writeCSV(t, "ID\n1\n")
	err := NewCSV(path).SetCell(context.Background(), 5, 0, "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "out of range")
}

func TestNewPicksSourceByLocation(t *testing.T) {
	src, err := New("data/sheet.csv", Options{})
	require.NoError(t, err)
	assert.IsType(t, &CSVSource{}, src)

	src, err = New("data/Sheet.XLSX", Options{})
	require.NoError(t, err)
	assert.IsType(t, &XLSXSource{}, src)

	src, err = New("https://example.com/export?format=csv", Options{})
	require.NoError(t, err)
	assert.IsType(t, &HTTPSource{}, src)

	_, err = New("", Options{})
	require.Error(t, err)
}
