// Package normalize converts raw spreadsheet cell text into typed,
// comparable values. Normalization is total: any input maps to exactly one
// Value, with unparseable text degrading to Text rather than an error.
package normalize

import (
	"math"
	"strconv"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Kind is the expected value shape of a column, assigned by schema inference.
type Kind int

const (
	// KindOpaque marks columns whose cells are kept as raw text.
	KindOpaque Kind = iota
	// KindInteger marks plain whole-number columns (e.g. DKP score).
	KindInteger
	// KindPercentage marks rate columns where values are fractions of 100.
	KindPercentage
	// KindScaledCount marks large counts commonly abbreviated with K/M
	// suffixes (kills, power, deaths).
	KindScaledCount
)

// String returns the configuration name of the kind.
func (k Kind) String() string {
	switch k {
	case KindInteger:
		return "integer"
	case KindPercentage:
		return "percentage"
	case KindScaledCount:
		return "scaled-count"
	default:
		return "opaque"
	}
}

// ParseKind maps a configuration name to a Kind.
func ParseKind(s string) (Kind, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "integer":
		return KindInteger, true
	case "percentage":
		return KindPercentage, true
	case "scaled-count", "scaled_count":
		return KindScaledCount, true
	case "opaque", "opaque-text", "text":
		return KindOpaque, true
	default:
		return KindOpaque, false
	}
}

// Type discriminates the variants of a normalized Value.
type Type int

const (
	// Missing is produced by blank cells.
	Missing Type = iota
	// Integer holds a whole number.
	Integer
	// Ratio holds a fraction, optionally displayed as a percentage.
	Ratio
	// Text is the fallback for cells no numeric pattern matches.
	Text
)

// Value is the normalized form of one cell. Exactly one variant is
// meaningful, selected by Type.
type Value struct {
	Type    Type    `json:"type"`
	Int     int64   `json:"int,omitempty"`
	Ratio   float64 `json:"ratio,omitempty"`
	Percent bool    `json:"percent,omitempty"`
	Text    string  `json:"text,omitempty"`
}

// english groups digits with commas, matching how the source sheets format
// large numbers.
var english = message.NewPrinter(language.English)

// Normalize converts raw cell text into a Value for a column of the given
// kind. It trims whitespace, strips comma separators, applies K/M suffix
// multipliers, and interprets a trailing % as a ratio. K/M scaling happens in
// float space; the result is rounded half away from zero when the kind calls
// for an integer. The function is pure and never fails.
func Normalize(raw string, kind Kind) Value {
	s := strings.TrimSpace(raw)
	if s == "" {
		return Value{Type: Missing}
	}
	if kind == KindOpaque {
		return Value{Type: Text, Text: s}
	}

	body := s
	percent := false
	if strings.HasSuffix(body, "%") {
		percent = true
		body = strings.TrimSpace(strings.TrimSuffix(body, "%"))
	}
	body = strings.ReplaceAll(body, ",", "")

	mult := 1.0
	if n := len(body); n > 0 {
		switch body[n-1] {
		case 'k', 'K':
			mult = 1e3
			body = body[:n-1]
		case 'm', 'M':
			mult = 1e6
			body = body[:n-1]
		}
	}

	f, err := strconv.ParseFloat(strings.TrimSpace(body), 64)
	if err != nil {
		return Value{Type: Text, Text: s}
	}
	f *= mult

	if percent || kind == KindPercentage {
		return Value{Type: Ratio, Ratio: f / 100, Percent: true}
	}
	return Value{Type: Integer, Int: int64(math.Round(f))}
}

// Float64 returns the numeric magnitude of the value and whether the value
// is comparable. Missing and Text values are not comparable and are excluded
// from ranking and comparison.
func (v Value) Float64() (float64, bool) {
	switch v.Type {
	case Integer:
		return float64(v.Int), true
	case Ratio:
		return v.Ratio, true
	default:
		return 0, false
	}
}

// Comparable reports whether the value carries a number.
func (v Value) Comparable() bool {
	_, ok := v.Float64()
	return ok
}

// Display renders the canonical display string for the value. Normalizing
// the display string yields a semantically equal Value, so normalization is
// idempotent over its own output.
func (v Value) Display() string {
	switch v.Type {
	case Integer:
		return FormatInt(v.Int)
	case Ratio:
		s := strconv.FormatFloat(v.Ratio*100, 'f', -1, 64)
		if v.Percent {
			return s + "%"
		}
		return strconv.FormatFloat(v.Ratio, 'f', -1, 64)
	case Text:
		return v.Text
	default:
		return ""
	}
}

// FormatInt renders a whole number with comma digit grouping ("1,500").
func FormatInt(n int64) string {
	return english.Sprintf("%d", n)
}
