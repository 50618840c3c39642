// Package sheet fetches spreadsheet snapshots. A Snapshot is one immutable
// read of the sheet (header plus data rows); every query works on its own
// snapshot, so the core never shares mutable state between queries.
package sheet

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
)

// Snapshot is one fetched copy of the sheet.
type Snapshot struct {
	ID        string     `json:"id"`
	Header    []string   `json:"header"`
	Rows      [][]string `json:"-"`
	FetchedAt time.Time  `json:"fetched_at"`
}

// newSnapshot splits raw sheet rows into header and data and tags the
// snapshot with a fetch id for log correlation.
func newSnapshot(records [][]string) (*Snapshot, error) {
	if len(records) == 0 {
		return nil, eris.New("sheet: empty sheet, no header row")
	}
	return &Snapshot{
		ID:        uuid.New().String(),
		Header:    records[0],
		Rows:      records[1:],
		FetchedAt: time.Now().UTC(),
	}, nil
}

// Source produces snapshots. Fetch blocks on I/O and honors ctx; the core
// itself never suspends.
type Source interface {
	Fetch(ctx context.Context) (*Snapshot, error)
}

// Writer is implemented by sources that support cell write-back, used by
// the account-linking commands. Row 0 is the header row; columns are
// 0-based.
type Writer interface {
	SetCell(ctx context.Context, row, col int, value string) error
}

// Options tunes source construction.
type Options struct {
	Worksheet  string  // XLSX worksheet name; first sheet when empty
	RatePerSec float64 // HTTP fetch rate limit; unlimited when 0
	Timeout    time.Duration
	UserAgent  string
}

// New builds a source from a location string: an http(s) URL becomes a
// rate-limited CSV-export fetcher, a .xlsx path a worksheet reader, and
// anything else is read as a local CSV file.
func New(location string, opts Options) (Source, error) {
	if u, err := url.Parse(location); err == nil && (u.Scheme == "http" || u.Scheme == "https") {
		return NewHTTP(location, opts), nil
	}
	if strings.HasSuffix(strings.ToLower(location), ".xlsx") {
		return NewXLSX(location, opts.Worksheet), nil
	}
	if location == "" {
		return nil, eris.New("sheet: no source configured")
	}
	return NewCSV(location), nil
}
