package sheet

import (
	"context"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
)

// XLSXSource reads snapshots from a local XLSX workbook and supports
// write-back for linking.
type XLSXSource struct {
	path      string
	worksheet string // first sheet when empty
}

// NewXLSX creates an XLSX file source.
func NewXLSX(path, worksheet string) *XLSXSource {
	return &XLSXSource{path: path, worksheet: worksheet}
}

// Fetch reads the configured worksheet as one snapshot.
func (s *XLSXSource) Fetch(ctx context.Context) (*Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, eris.Wrap(err, "xlsx: fetch cancelled")
	}
	f, err := xlsx.OpenFile(s.path)
	if err != nil {
		return nil, eris.Wrap(err, "xlsx: open file")
	}
	ws, err := s.sheet(f)
	if err != nil {
		return nil, err
	}

	records := make([][]string, 0, len(ws.Rows))
	for _, row := range ws.Rows {
		cells := make([]string, len(row.Cells))
		for j, c := range row.Cells {
			cells[j] = c.String()
		}
		records = append(records, cells)
	}
	return newSnapshot(records)
}

// SetCell updates one cell in place and saves the workbook.
func (s *XLSXSource) SetCell(ctx context.Context, row, col int, value string) error {
	if err := ctx.Err(); err != nil {
		return eris.Wrap(err, "xlsx: set cell cancelled")
	}
	f, err := xlsx.OpenFile(s.path)
	if err != nil {
		return eris.Wrap(err, "xlsx: open file")
	}
	ws, err := s.sheet(f)
	if err != nil {
		return err
	}
	if row < 0 || row >= len(ws.Rows) {
		return eris.Errorf("xlsx: row %d out of range (%d rows)", row, len(ws.Rows))
	}
	r := ws.Rows[row]
	for len(r.Cells) <= col {
		r.AddCell()
	}
	r.Cells[col].SetString(value)

	if err := f.Save(s.path); err != nil {
		return eris.Wrap(err, "xlsx: save file")
	}
	return nil
}

func (s *XLSXSource) sheet(f *xlsx.File) (*xlsx.Sheet, error) {
	if s.worksheet != "" {
		ws, ok := f.Sheet[s.worksheet]
		if !ok {
			return nil, eris.Errorf("xlsx: worksheet %q not found", s.worksheet)
		}
		return ws, nil
	}
	if len(f.Sheets) == 0 {
		return nil, eris.New("xlsx: workbook has no sheets")
	}
	return f.Sheets[0], nil
}
