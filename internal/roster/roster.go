// Package roster builds the per-snapshot player index: one normalized
// record per sheet row, with lookups by player id and by linked chat
// identity. Data-integrity problems are collected as warnings, never
// fatal errors; the first occurrence of a duplicated id or link stays
// authoritative.
package roster

import (
	"fmt"
	"strings"

	"github.com/Makaveli-BG/dkp-discord-bot/internal/normalize"
	"github.com/Makaveli-BG/dkp-discord-bot/internal/schema"
)

// Metric is one normalized statistic on a record. Display keeps the cell
// text exactly as the sheet shows it.
type Metric struct {
	Key       string           `json:"key"`
	Header    string           `json:"header"`
	Value     normalize.Value  `json:"value"`
	Display   string           `json:"display"`
	Direction schema.Direction `json:"-"`
}

// Record is one sheet row, normalized and immutable after Build.
type Record struct {
	PlayerID      string            `json:"player_id"`
	Name          string            `json:"name"`
	LinkedAccount string            `json:"linked_account,omitempty"`
	Metrics       map[string]Metric `json:"metrics"`
	MetricKeys    []string          `json:"-"` // column order
	Extras        map[string]string `json:"extras,omitempty"`
	Row           int               `json:"row"` // sheet row, header = 0
}

// WarningKind classifies an integrity warning.
type WarningKind string

const (
	// WarnBlankID marks a row skipped for having no player id.
	WarnBlankID WarningKind = "blank_id"
	// WarnDuplicateID marks a row discarded for repeating a player id.
	WarnDuplicateID WarningKind = "duplicate_id"
	// WarnDuplicateLink marks a row whose linked account was already
	// claimed by an earlier row.
	WarnDuplicateLink WarningKind = "duplicate_link"
)

// Warning records a non-fatal data problem found during ingestion.
type Warning struct {
	Row     int         `json:"row"`
	Kind    WarningKind `json:"kind"`
	Message string      `json:"message"`
}

// Index holds the snapshot's records in insertion order plus id and
// linked-account lookups. Insertion order is what downstream ranking uses
// to break ties, so it is preserved exactly.
type Index struct {
	records []*Record
	byID    map[string]*Record
	byLink  map[string]*Record
}

// Build normalizes data rows against the schema and assembles the index.
// Rows are the sheet's data rows, in sheet order, with the header already
// removed; warnings reference sheet rows counting the header as row 0.
func Build(rows [][]string, sc *schema.Schema) (*Index, []Warning) {
	idx := &Index{
		byID:   make(map[string]*Record, len(rows)),
		byLink: make(map[string]*Record, len(rows)),
	}
	var warnings []Warning

	idCol := sc.PlayerIDCol()
	if idCol < 0 {
		// Identity falls back to the linked-account column when the sheet
		// has no dedicated id column. Infer guarantees one of the two.
		idCol = sc.LinkedAccountCol()
	}

	for i, row := range rows {
		sheetRow := i + 1

		id := strings.TrimSpace(cell(row, idCol))
		if id == "" {
			warnings = append(warnings, Warning{
				Row:     sheetRow,
				Kind:    WarnBlankID,
				Message: fmt.Sprintf("row %d skipped: blank player id", sheetRow),
			})
			continue
		}
		if prev, ok := idx.byID[id]; ok {
			warnings = append(warnings, Warning{
				Row:     sheetRow,
				Kind:    WarnDuplicateID,
				Message: fmt.Sprintf("row %d skipped: player id %q already seen at row %d", sheetRow, id, prev.Row),
			})
			continue
		}

		rec := buildRecord(row, sc, sheetRow, id)
		idx.records = append(idx.records, rec)
		idx.byID[id] = rec

		if rec.LinkedAccount == "" {
			continue
		}
		if prev, ok := idx.byLink[rec.LinkedAccount]; ok {
			warnings = append(warnings, Warning{
				Row:     sheetRow,
				Kind:    WarnDuplicateLink,
				Message: fmt.Sprintf("row %d: account %q already linked to player %q at row %d", sheetRow, rec.LinkedAccount, prev.PlayerID, prev.Row),
			})
			continue
		}
		idx.byLink[rec.LinkedAccount] = rec
	}

	return idx, warnings
}

func buildRecord(row []string, sc *schema.Schema, sheetRow int, id string) *Record {
	rec := &Record{
		PlayerID: id,
		Metrics:  make(map[string]Metric),
		Row:      sheetRow,
	}
	if c := sc.PlayerNameCol(); c >= 0 {
		rec.Name = strings.TrimSpace(cell(row, c))
	}
	if c := sc.LinkedAccountCol(); c >= 0 && c != sc.PlayerIDCol() {
		rec.LinkedAccount = strings.TrimSpace(cell(row, c))
	}

	for _, col := range sc.Columns {
		raw := cell(row, col.Index)
		switch col.Role {
		case schema.RoleMetric:
			rec.Metrics[col.Key] = Metric{
				Key:       col.Key,
				Header:    col.Header,
				Value:     normalize.Normalize(raw, col.Kind),
				Display:   strings.TrimSpace(raw),
				Direction: col.Direction,
			}
			rec.MetricKeys = append(rec.MetricKeys, col.Key)
		case schema.RoleExtra:
			if v := strings.TrimSpace(raw); v != "" && col.Header != "" {
				if rec.Extras == nil {
					rec.Extras = make(map[string]string)
				}
				rec.Extras[col.Header] = v
			}
		}
	}
	return rec
}

func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return row[i]
}

// ByPlayerID returns the record for a player id, or nil.
func (x *Index) ByPlayerID(id string) *Record {
	return x.byID[strings.TrimSpace(id)]
}

// ByLinkedAccount returns the record linked to a chat identity, or nil.
func (x *Index) ByLinkedAccount(account string) *Record {
	return x.byLink[strings.TrimSpace(account)]
}

// All returns the records in sheet insertion order.
func (x *Index) All() []*Record {
	return x.records
}

// Len returns the number of indexed records.
func (x *Index) Len() int {
	return len(x.records)
}

// Sample returns the first record for debug introspection, or nil when the
// snapshot holds no usable rows.
func (x *Index) Sample() *Record {
	if len(x.records) == 0 {
		return nil
	}
	return x.records[0]
}
