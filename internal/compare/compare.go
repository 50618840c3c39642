// Package compare produces pairwise player comparisons: one verdict per
// shared metric plus aggregate advantage counts. Output is plain data;
// rendering (emoji, charts) belongs to the caller.
package compare

import (
	"github.com/Makaveli-BG/dkp-discord-bot/internal/normalize"
	"github.com/Makaveli-BG/dkp-discord-bot/internal/roster"
	"github.com/Makaveli-BG/dkp-discord-bot/internal/schema"
)

// Verdict classifies one metric pair.
type Verdict string

const (
	// ABetter means the first player holds the favorable value.
	ABetter Verdict = "a_better"
	// BBetter means the second player holds the favorable value.
	BBetter Verdict = "b_better"
	// Tied means both values are numerically equal.
	Tied Verdict = "tied"
	// Incomparable means at least one side is Missing or Text.
	Incomparable Verdict = "incomparable"
)

// MetricResult is the verdict for one shared metric.
type MetricResult struct {
	Key      string          `json:"key"`
	Header   string          `json:"header"`
	A        normalize.Value `json:"a"`
	B        normalize.Value `json:"b"`
	DisplayA string          `json:"display_a"`
	DisplayB string          `json:"display_b"`
	Verdict  Verdict         `json:"verdict"`
}

// Result is a full comparison between two players.
type Result struct {
	PlayerA string         `json:"player_a"`
	PlayerB string         `json:"player_b"`
	NameA   string         `json:"name_a"`
	NameB   string         `json:"name_b"`
	Metrics []MetricResult `json:"metrics"`
	AWins   int            `json:"a_wins"`
	BWins   int            `json:"b_wins"`
}

// Players compares two records metric by metric. Only metrics present on
// both records participate; one-sided metrics are omitted, not zeroed.
// Ties and incomparable pairs count toward neither side. The function is
// pure and deterministic: metrics appear in a's column order.
func Players(a, b *roster.Record) *Result {
	res := &Result{
		PlayerA: a.PlayerID,
		PlayerB: b.PlayerID,
		NameA:   a.Name,
		NameB:   b.Name,
	}

	for _, key := range a.MetricKeys {
		ma, okA := a.Metrics[key]
		mb, okB := b.Metrics[key]
		if !okA || !okB {
			continue
		}

		mr := MetricResult{
			Key:      key,
			Header:   ma.Header,
			A:        ma.Value,
			B:        mb.Value,
			DisplayA: ma.Display,
			DisplayB: mb.Display,
			Verdict:  verdict(ma, mb),
		}
		switch mr.Verdict {
		case ABetter:
			res.AWins++
		case BBetter:
			res.BWins++
		}
		res.Metrics = append(res.Metrics, mr)
	}
	return res
}

func verdict(a, b roster.Metric) Verdict {
	va, okA := a.Value.Float64()
	vb, okB := b.Value.Float64()
	if !okA || !okB {
		return Incomparable
	}
	if va == vb {
		return Tied
	}
	aFavored := va > vb
	if a.Direction == schema.LowerBetter {
		aFavored = !aFavored
	}
	if aFavored {
		return ABetter
	}
	return BBetter
}
