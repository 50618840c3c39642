package schema

import (
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/Makaveli-BG/dkp-discord-bot/internal/normalize"
)

// Rule maps header text onto a column role. Rules are evaluated in order
// against each header cell and the first match wins, so more specific rules
// must precede broader ones (the kvk rule fires before the t4-kills rule,
// or "KVK KILLS | T4 + T5" would collide with "BASE T4 KILLS").
type Rule struct {
	// Exact matches the whole header, case-insensitively, when set.
	Exact string
	// Keywords must all appear in the header (case-insensitive substring)
	// when Exact is empty.
	Keywords []string

	Role      Role
	Key       string // canonical metric key, RoleMetric only
	Kind      normalize.Kind
	Direction Direction
}

func (r Rule) matches(folded string) bool {
	if r.Exact != "" {
		return folded == strings.ToLower(r.Exact)
	}
	if len(r.Keywords) == 0 {
		return false
	}
	for _, kw := range r.Keywords {
		if !strings.Contains(folded, strings.ToLower(kw)) {
			return false
		}
	}
	return true
}

// DefaultRules is the built-in matching policy, modeled on the alliance
// sheet layout: ID / IN-GAME NAME / Discord ID identity columns, DKP
// score/goal/rate, per-tier kill counts, power, and deaths. Deployments with
// different headers replace it wholesale via Load.
func DefaultRules() []Rule {
	return []Rule{
		{Keywords: []string{"discord"}, Role: RoleLinkedAccount},
		{Exact: "id", Role: RolePlayerID},
		{Keywords: []string{"name"}, Role: RolePlayerName},
		{Keywords: []string{"kvk"}, Role: RoleMetric, Key: "kvk_kills", Kind: normalize.KindScaledCount, Direction: HigherBetter},
		{Keywords: []string{"dkp", "score"}, Role: RoleMetric, Key: "score", Kind: normalize.KindInteger, Direction: HigherBetter},
		{Keywords: []string{"dkp", "goal"}, Role: RoleMetric, Key: "goal", Kind: normalize.KindInteger, Direction: HigherBetter},
		{Keywords: []string{"dkp", "rate"}, Role: RoleMetric, Key: "rate", Kind: normalize.KindPercentage, Direction: HigherBetter},
		{Keywords: []string{"t4", "kill"}, Role: RoleMetric, Key: "kills", Kind: normalize.KindScaledCount, Direction: HigherBetter},
		{Keywords: []string{"t5", "kill"}, Role: RoleMetric, Key: "kills_t5", Kind: normalize.KindScaledCount, Direction: HigherBetter},
		{Keywords: []string{"kill"}, Role: RoleMetric, Key: "kills", Kind: normalize.KindScaledCount, Direction: HigherBetter},
		// POWER WEIGHT sits next to BASE POWER on the sheet; it is a derived
		// bookkeeping column, not the power metric.
		{Keywords: []string{"power", "weight"}, Role: RoleExtra},
		{Keywords: []string{"power"}, Role: RoleMetric, Key: "power", Kind: normalize.KindScaledCount, Direction: HigherBetter},
		{Keywords: []string{"dead"}, Role: RoleMetric, Key: "dead", Kind: normalize.KindScaledCount, Direction: LowerBetter},
		{Keywords: []string{"id"}, Role: RolePlayerID},
	}
}

// ruleSpec is the YAML form of a Rule.
type ruleSpec struct {
	Exact     string   `yaml:"exact"`
	Keywords  []string `yaml:"keywords"`
	Role      string   `yaml:"role"`
	Key       string   `yaml:"key"`
	Kind      string   `yaml:"kind"`
	Direction string   `yaml:"direction"`
}

type rulesFile struct {
	Rules []ruleSpec `yaml:"rules"`
}

// Load reads a replacement rule table from a YAML file. The file replaces
// the default policy entirely; it is validated eagerly so a typo fails at
// startup rather than misclassifying columns at query time.
func Load(path string) ([]Rule, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "schema: read rules file")
	}
	var f rulesFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, eris.Wrap(err, "schema: parse rules file")
	}
	if len(f.Rules) == 0 {
		return nil, eris.Errorf("schema: rules file %s defines no rules", path)
	}

	rules := make([]Rule, 0, len(f.Rules))
	for i, spec := range f.Rules {
		r, err := spec.compile()
		if err != nil {
			return nil, eris.Wrapf(err, "schema: rule %d", i)
		}
		rules = append(rules, r)
	}
	return rules, nil
}

func (s ruleSpec) compile() (Rule, error) {
	if s.Exact == "" && len(s.Keywords) == 0 {
		return Rule{}, eris.New("needs exact or keywords")
	}
	role, ok := ParseRole(s.Role)
	if !ok {
		return Rule{}, eris.Errorf("unknown role %q", s.Role)
	}
	r := Rule{Exact: s.Exact, Keywords: s.Keywords, Role: role}
	if role != RoleMetric {
		return r, nil
	}

	if s.Key == "" {
		return Rule{}, eris.New("metric rule needs a key")
	}
	r.Key = s.Key
	kind, ok := normalize.ParseKind(s.Kind)
	if !ok {
		return Rule{}, eris.Errorf("unknown kind %q", s.Kind)
	}
	r.Kind = kind
	dir, ok := ParseDirection(s.Direction)
	if !ok {
		return Rule{}, eris.Errorf("unknown direction %q", s.Direction)
	}
	r.Direction = dir
	return r, nil
}
