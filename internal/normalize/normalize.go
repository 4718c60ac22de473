/*
Package normalize turns verbose catalog descriptions into short display names.

Catalog text follows a loose "<food>, <qualifier>, <cut>, <prep>" grammar with
optional segments in any order. A Normalizer walks a priority-ordered table of
Rules and the first rule that matches renders the name from its captures.
Descriptions no rule recognizes keep their first comma-separated segment.
*/
package normalize

import (
	"regexp"
	"sort"
	"strings"
)

// Unnamed is returned for non-empty input that contains nothing but
// separators and whitespace.
const Unnamed = "Unnamed food"

var (
	whitespaceRun = regexp.MustCompile(`\s+`)
	edgeNoise     = " \t\r\n,;"
)

// Normalizer applies a fixed rule table. It is safe for concurrent use.
type Normalizer struct {
	rules []Rule
}

// New returns a Normalizer over rules. Rules are evaluated by descending
// Priority; rules sharing a priority keep their slice order. The generic
// first-segment rule is always appended last, so callers never need to
// include it.
func New(rules ...Rule) *Normalizer {
	sorted := make([]Rule, 0, len(rules)+1)
	sorted = append(sorted, rules...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Priority > sorted[j].Priority
	})
	sorted = append(sorted, fallbackRule)
	return &Normalizer{rules: sorted}
}

// Default returns a Normalizer over DefaultRules.
func Default() *Normalizer {
	return New(DefaultRules...)
}

// Rules returns the evaluation order, fallback included.
func (n *Normalizer) Rules() []Rule {
	out := make([]Rule, len(n.rules))
	copy(out, n.rules)
	return out
}

// Normalize returns the display name for raw. Blank input yields "", any
// other input yields a non-empty name.
func (n *Normalizer) Normalize(raw string) string {
	name, _ := n.Explain(raw)
	return name
}

// Explain is Normalize plus the name of the rule that produced the result.
// The rule name is empty for blank input.
func (n *Normalizer) Explain(raw string) (string, string) {
	raw = whitespaceRun.ReplaceAllString(strings.TrimSpace(raw), " ")
	if raw == "" {
		return "", ""
	}

	for _, r := range n.rules {
		out, ok := r.apply(raw)
		if !ok {
			continue
		}
		if out = clean(out); out != "" {
			return out, r.Name
		}
	}
	return Unnamed, fallbackRule.Name
}

func clean(s string) string {
	s = whitespaceRun.ReplaceAllString(s, " ")
	s = strings.Trim(s, edgeNoise)
	// "( " and " )" can appear when a capture ends in a separator.
	s = strings.ReplaceAll(s, "( ", "(")
	s = strings.ReplaceAll(s, " )", ")")
	s = strings.ReplaceAll(s, "()", "")
	return strings.Trim(whitespaceRun.ReplaceAllString(s, " "), edgeNoise)
}

var std = Default()

// Normalize runs the default rule table.
func Normalize(raw string) string {
	return std.Normalize(raw)
}
