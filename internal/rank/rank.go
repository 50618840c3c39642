// Package rank produces leaderboards over an indexed snapshot. Only players
// with a numeric value for the requested metric are ranked; Missing and Text
// values drop the player from the board entirely rather than ranking last.
package rank

import (
	"sort"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/Makaveli-BG/dkp-discord-bot/internal/normalize"
	"github.com/Makaveli-BG/dkp-discord-bot/internal/roster"
	"github.com/Makaveli-BG/dkp-discord-bot/internal/schema"
)

// DefaultTopN is the leaderboard size when the caller does not override it.
const DefaultTopN = 10

// Sentinel errors for per-query failures. Other queries against the same
// snapshot are unaffected.
var (
	// ErrUnknownMetric means the requested key is not in the catalog.
	ErrUnknownMetric = eris.New("rank: unknown metric")
	// ErrMetricNotInSheet means the key is valid but the snapshot's schema
	// has no column (or component columns) for it.
	ErrMetricNotInSheet = eris.New("rank: metric not present in sheet")
)

// Entry is one leaderboard position. Rank is 1-based; ties keep the sheet's
// insertion order and still occupy distinct sequential ranks.
type Entry struct {
	Rank     int     `json:"rank"`
	PlayerID string  `json:"player_id"`
	Name     string  `json:"name"`
	Display  string  `json:"display"`
	Value    float64 `json:"value"`
}

// Board is the result of one leaderboard query.
type Board struct {
	Metric    string  `json:"metric"`  // canonical key
	Label     string  `json:"label"`   // column header or derived label
	Top       []Entry `json:"top"`
	Requester *Entry  `json:"requester,omitempty"`
	Total     int     `json:"total"` // players ranked, including beyond Top
}

// derived metrics are computed from two underlying columns. kvk is the
// T4 + T5 kill total.
type derivedMetric struct {
	label      string
	components [2]string
}

var derivedMetrics = map[string]derivedMetric{
	"kvk": {label: "KVK KILLS (T4 + T5)", components: [2]string{"kills", "kills_t5"}},
}

// directKeys is the fixed catalog of column-backed metric keys accepted by
// commands, matching the sheet layout the default schema rules produce.
var directKeys = []string{"score", "goal", "rate", "kills", "power", "dead"}

// Metrics returns every key the engine accepts, for command validation.
func Metrics() []string {
	keys := make([]string, 0, len(directKeys)+len(derivedMetrics))
	keys = append(keys, directKeys...)
	for k := range derivedMetrics {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Known reports whether key is in the catalog.
func Known(key string) bool {
	key = strings.ToLower(strings.TrimSpace(key))
	if _, ok := derivedMetrics[key]; ok {
		return true
	}
	for _, k := range directKeys {
		if k == key {
			return true
		}
	}
	return false
}

// Leaderboard ranks all players with a comparable value for the metric,
// descending, and returns the top topN entries. When requesterID names a
// ranked player, their entry is attached even if it falls outside the top,
// so callers can always show "your position". topN <= 0 uses DefaultTopN.
func Leaderboard(idx *roster.Index, sc *schema.Schema, key, requesterID string, topN int) (*Board, error) {
	key = strings.ToLower(strings.TrimSpace(key))
	if !Known(key) {
		return nil, eris.Wrapf(ErrUnknownMetric, "%q", key)
	}
	if topN <= 0 {
		topN = DefaultTopN
	}

	read, label, err := resolver(sc, key)
	if err != nil {
		return nil, err
	}

	entries := make([]Entry, 0, idx.Len())
	for _, rec := range idx.All() {
		value, display, ok := read(rec)
		if !ok {
			continue
		}
		entries = append(entries, Entry{
			PlayerID: rec.PlayerID,
			Name:     rec.Name,
			Display:  display,
			Value:    value,
		})
	}

	// Stable sort keeps insertion order among exact ties, so "first seen
	// wins" the earlier rank.
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Value > entries[j].Value
	})
	for i := range entries {
		entries[i].Rank = i + 1
	}

	board := &Board{Metric: key, Label: label, Total: len(entries)}
	if len(entries) > topN {
		board.Top = entries[:topN]
	} else {
		board.Top = entries
	}

	if requesterID != "" {
		for i := range entries {
			if entries[i].PlayerID == requesterID {
				e := entries[i]
				board.Requester = &e
				break
			}
		}
	}
	return board, nil
}

// readFunc extracts a metric's numeric value and display string from a
// record, reporting ok=false when the player has no comparable value.
type readFunc func(*roster.Record) (float64, string, bool)

func resolver(sc *schema.Schema, key string) (readFunc, string, error) {
	if d, ok := derivedMetrics[key]; ok {
		for _, comp := range d.components {
			if _, ok := sc.Metric(comp); !ok {
				return nil, "", eris.Wrapf(ErrMetricNotInSheet, "%q needs component %q", key, comp)
			}
		}
		return derivedReader(d), d.label, nil
	}

	col, ok := sc.Metric(key)
	if !ok {
		return nil, "", eris.Wrapf(ErrMetricNotInSheet, "%q", key)
	}
	read := func(rec *roster.Record) (float64, string, bool) {
		m, ok := rec.Metrics[key]
		if !ok {
			return 0, "", false
		}
		v, ok := m.Value.Float64()
		if !ok {
			return 0, "", false
		}
		return v, m.Display, true
	}
	return read, col.Header, nil
}

// derivedReader sums the two component metrics. A player missing either
// component (or carrying text in one) is excluded, never padded with zero.
func derivedReader(d derivedMetric) readFunc {
	return func(rec *roster.Record) (float64, string, bool) {
		var total int64
		for _, comp := range d.components {
			m, ok := rec.Metrics[comp]
			if !ok || m.Value.Type != normalize.Integer {
				return 0, "", false
			}
			total += m.Value.Int
		}
		return float64(total), normalize.FormatInt(total), true
	}
}
