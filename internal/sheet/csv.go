package sheet

import (
	"context"
	"encoding/csv"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
)

// CSVSource reads snapshots from a local CSV file and supports write-back
// for linking.
type CSVSource struct {
	path string
}

// NewCSV creates a CSV file source.
func NewCSV(path string) *CSVSource {
	return &CSVSource{path: path}
}

// Fetch reads the whole file as one snapshot. Rows may be ragged; record
// length validation is disabled because human-edited exports rarely pad
// trailing cells.
func (s *CSVSource) Fetch(ctx context.Context) (*Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, eris.Wrap(err, "csv: fetch cancelled")
	}
	records, err := s.read()
	if err != nil {
		return nil, err
	}
	return newSnapshot(records)
}

// SetCell rewrites the file with one cell changed. The write goes through a
// temp file in the same directory and a rename, so a crash never leaves a
// half-written sheet.
func (s *CSVSource) SetCell(ctx context.Context, row, col int, value string) error {
	if err := ctx.Err(); err != nil {
		return eris.Wrap(err, "csv: set cell cancelled")
	}
	records, err := s.read()
	if err != nil {
		return err
	}
	if row < 0 || row >= len(records) {
		return eris.Errorf("csv: row %d out of range (%d rows)", row, len(records))
	}
	for len(records[row]) <= col {
		records[row] = append(records[row], "")
	}
	records[row][col] = value

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".sheet-*.csv")
	if err != nil {
		return eris.Wrap(err, "csv: create temp file")
	}
	defer os.Remove(tmp.Name())

	w := csv.NewWriter(tmp)
	if err := w.WriteAll(records); err != nil {
		tmp.Close()
		return eris.Wrap(err, "csv: write rows")
	}
	if err := tmp.Close(); err != nil {
		return eris.Wrap(err, "csv: close temp file")
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return eris.Wrap(err, "csv: replace file")
	}
	return nil
}

func (s *CSVSource) read() ([][]string, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, eris.Wrap(err, "csv: open file")
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return nil, eris.Wrap(err, "csv: read rows")
	}
	return records, nil
}
