package rules

import (
	"sort"
	"strings"
)

var (
	registry  []Rule
	ruleIndex = map[string]int{} // UPPER(rule id) -> registry index
)

// Register adds a rule to the closed registry. New rules register here;
// there is no open-ended plugin mechanism.
func Register(r Rule) {
	registry = append(registry, r)
	ruleIndex[strings.ToUpper(r.ID)] = len(registry) - 1
}

// All returns every registered rule sorted by id for deterministic
// iteration and listing.
func All() []Rule {
	out := make([]Rule, len(registry))
	copy(out, registry)
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Get looks a rule up by id, case-insensitively.
func Get(id string) (Rule, bool) {
	idx, ok := ruleIndex[strings.ToUpper(strings.TrimSpace(id))]
	if !ok {
		return Rule{}, false
	}
	return registry[idx], true
}
