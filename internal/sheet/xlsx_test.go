package sheet

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"
)

func writeXLSX(t *testing.T, worksheet string, rows [][]string) string {
	t.Helper()
	f := xlsx.NewFile()
	ws, err := f.AddSheet(worksheet)
	require.NoError(t, err)
	for _, row := range rows {
		r := ws.AddRow()
		for _, cell := range row {
			r.AddCell().SetString(cell)
		}
	}
	path := filepath.Join(t.TempDir(), "sheet.xlsx")
	require.NoError(t, f.Save(path))
	return path
}

func TestXLSXFetch(t *testing.T) {
	path := writeXLSX(t, "Discord-Bot", [][]string{
		{"ID", "NAME", "DKP SCORE"},
		{"1", "Alice", "1,200"},
	})

	snap, err := NewXLSX(path, "Discord-Bot").Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"ID", "NAME", "DKP SCORE"}, snap.Header)
	require.Len(t, snap.Rows, 1)
	assert.Equal(t, []string{"1", "Alice", "1,200"}, snap.Rows[0])
}

func TestXLSXFetchDefaultsToFirstSheet(t *testing.T) {
	path := writeXLSX(t, "Whatever", [][]string{{"ID"}, {"1"}})
	snap, err := NewXLSX(path, "").Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"ID"}, snap.Header)
}

func TestXLSXFetchUnknownWorksheet(t *testing.T) {
	path := writeXLSX(t, "Main", [][]string{{"ID"}})
	_, err := NewXLSX(path, "Missing").Fetch(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), `worksheet "Missing" not found`)
}

func TestXLSXSetCell(t *testing.T) {
	path := writeXLSX(t, "Main", [][]string{
		{"ID", "NAME", "Discord ID"},
		{"1", "Alice"},
	})
	src := NewXLSX(path, "Main")
	ctx := context.Background()

	// Column beyond the row's cells is created on demand.
	require.NoError(t, src.SetCell(ctx, 1, 2, "user#1"))

	snap, err := src.Fetch(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "Alice", "user#1"}, snap.Rows[0])

	require.Error(t, src.SetCell(ctx, 9, 0, "x"))
}
