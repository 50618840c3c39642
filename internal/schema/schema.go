// Package schema infers the semantic layout of a sheet from its header row.
// Headers are human-edited free text, so columns are classified by an
// explicit ordered table of keyword rules; the first matching rule wins and
// role collisions are surfaced as errors rather than resolved silently.
package schema

import (
	"strings"

	"github.com/rotisserie/eris"

	"github.com/Makaveli-BG/dkp-discord-bot/internal/normalize"
)

// Role is the semantic function of a column.
type Role int

const (
	// RoleExtra marks columns matched by no rule; their cells are kept as
	// opaque text.
	RoleExtra Role = iota
	// RolePlayerID is the sheet's primary player identifier.
	RolePlayerID
	// RolePlayerName is the in-game display name.
	RolePlayerName
	// RoleLinkedAccount is the external chat identity linked to the row.
	RoleLinkedAccount
	// RoleMetric is a named, typed statistic.
	RoleMetric
)

// String returns the configuration name of the role.
func (r Role) String() string {
	switch r {
	case RolePlayerID:
		return "player_id"
	case RolePlayerName:
		return "player_name"
	case RoleLinkedAccount:
		return "linked_account"
	case RoleMetric:
		return "metric"
	default:
		return "extra"
	}
}

// ParseRole maps a configuration name to a Role.
func ParseRole(s string) (Role, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "player_id":
		return RolePlayerID, true
	case "player_name":
		return RolePlayerName, true
	case "linked_account":
		return RoleLinkedAccount, true
	case "metric":
		return RoleMetric, true
	case "extra":
		return RoleExtra, true
	default:
		return RoleExtra, false
	}
}

// Direction states whether a higher or lower value is favorable for a
// metric. It drives comparison verdicts; it is never assumed.
type Direction int

const (
	// HigherBetter favors larger values (scores, kills, power).
	HigherBetter Direction = iota
	// LowerBetter favors smaller values (deaths).
	LowerBetter
)

// String returns the configuration name of the direction.
func (d Direction) String() string {
	if d == LowerBetter {
		return "lower"
	}
	return "higher"
}

// ParseDirection maps a configuration name to a Direction.
func ParseDirection(s string) (Direction, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "higher", "higher-better", "":
		return HigherBetter, true
	case "lower", "lower-better":
		return LowerBetter, true
	default:
		return HigherBetter, false
	}
}

// Column is one classified header cell.
type Column struct {
	Index     int            `json:"index"`
	Header    string         `json:"header"`
	Role      Role           `json:"-"`
	RoleName  string         `json:"role"`
	Key       string         `json:"key,omitempty"` // canonical metric key, RoleMetric only
	Kind      normalize.Kind `json:"-"`
	Direction Direction      `json:"-"`
}

// Schema is the inferred layout of one snapshot, built once per fetch.
type Schema struct {
	Columns []Column

	playerID      int
	playerName    int
	linkedAccount int
	metrics       map[string]int // metric key → index into Columns
	metricOrder   []string
}

// ErrNoIdentityColumn is returned when neither a player-id nor a
// linked-account column can be found. At least one identity column is
// mandatory.
var ErrNoIdentityColumn = eris.New("schema: no identity column found")

// Infer classifies each header cell with the given ordered rules and
// validates the result. A role collision (two columns claiming the same
// identity role, or two metric columns with the same key) is an error naming
// both column positions.
func Infer(header []string, rules []Rule) (*Schema, error) {
	s := &Schema{
		Columns:       make([]Column, len(header)),
		playerID:      -1,
		playerName:    -1,
		linkedAccount: -1,
		metrics:       make(map[string]int),
	}

	for i, cell := range header {
		col := classify(i, cell, rules)
		s.Columns[i] = col

		switch col.Role {
		case RolePlayerID:
			if s.playerID >= 0 {
				return nil, eris.Errorf("schema: columns %d and %d both claim the player-id role", s.playerID, i)
			}
			s.playerID = i
		case RolePlayerName:
			if s.playerName >= 0 {
				return nil, eris.Errorf("schema: columns %d and %d both claim the player-name role", s.playerName, i)
			}
			s.playerName = i
		case RoleLinkedAccount:
			if s.linkedAccount >= 0 {
				return nil, eris.Errorf("schema: columns %d and %d both claim the linked-account role", s.linkedAccount, i)
			}
			s.linkedAccount = i
		case RoleMetric:
			if prev, ok := s.metrics[col.Key]; ok {
				return nil, eris.Errorf("schema: columns %d and %d both map to metric %q", prev, i, col.Key)
			}
			s.metrics[col.Key] = i
			s.metricOrder = append(s.metricOrder, col.Key)
		}
	}

	if s.playerID < 0 && s.linkedAccount < 0 {
		return nil, ErrNoIdentityColumn
	}
	return s, nil
}

func classify(index int, header string, rules []Rule) Column {
	col := Column{Index: index, Header: header, Role: RoleExtra, Kind: normalize.KindOpaque}
	folded := strings.ToLower(strings.TrimSpace(header))
	if folded == "" {
		col.RoleName = col.Role.String()
		return col
	}
	for _, r := range rules {
		if !r.matches(folded) {
			continue
		}
		col.Role = r.Role
		col.Key = r.Key
		col.Kind = r.Kind
		col.Direction = r.Direction
		break
	}
	col.RoleName = col.Role.String()
	return col
}

// PlayerIDCol returns the player-id column index, or -1 when absent.
func (s *Schema) PlayerIDCol() int { return s.playerID }

// PlayerNameCol returns the player-name column index, or -1 when absent.
func (s *Schema) PlayerNameCol() int { return s.playerName }

// LinkedAccountCol returns the linked-account column index, or -1 when absent.
func (s *Schema) LinkedAccountCol() int { return s.linkedAccount }

// Metric returns the column for a canonical metric key.
func (s *Schema) Metric(key string) (Column, bool) {
	i, ok := s.metrics[key]
	if !ok {
		return Column{}, false
	}
	return s.Columns[i], true
}

// MetricKeys returns the canonical metric keys in column order.
func (s *Schema) MetricKeys() []string {
	keys := make([]string, len(s.metricOrder))
	copy(keys, s.metricOrder)
	return keys
}

// Dump returns a read-only description of the inferred layout for debug
// introspection.
func (s *Schema) Dump() []Column {
	out := make([]Column, len(s.Columns))
	copy(out, s.Columns)
	return out
}
