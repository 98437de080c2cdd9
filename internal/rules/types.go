package rules

import (
	"fmt"
	"strings"

	"covlint/internal/config"
	"covlint/internal/corpus"
	"covlint/internal/ir"
)

// Rule is a single stateless check. Exactly one of CheckUnit/CheckTest
// is set: coverage rules inspect source units, the marker rule inspects
// test definitions. Both must be pure functions of their arguments so
// the engine can run them concurrently.
type Rule struct {
	ID   string
	Name string

	CheckUnit func(u ir.CheckableUnit, idx *corpus.Index, cfg *config.Config) *ir.Violation
	CheckTest func(tf ir.TestFunction, cfg *config.Config) *ir.Violation
}

// requireTierTest builds the shared shape of the coverage rules: the
// unit must have a test candidate in the given tier.
func requireTierTest(id, name string, tier ir.Tier) Rule {
	return Rule{
		ID:   id,
		Name: name,
		CheckUnit: func(u ir.CheckableUnit, idx *corpus.Index, cfg *config.Config) *ir.Violation {
			if u.IsBuiltin || u.IsPrivate || u.IsSuppressed(id) {
				return nil
			}
			expected := corpus.DeriveTestNames(u.Name, u.Class, tier)
			if idx.HasCandidate(tier, expected) {
				return nil
			}
			return &ir.Violation{
				RuleID:   id,
				RuleName: name,
				UnitName: u.Name,
				Class:    u.Class,
				FilePath: u.FilePath,
				Line:     u.Line,
				Severity: ir.SeverityError,
				Message: fmt.Sprintf(
					"[%s] %s has no %s test found. Expected one of: %s in %s directories",
					id, describeUnit(u), tier, strings.Join(expected, ", "),
					strings.Join(cfg.TestDirectories, " or "),
				),
			}
		},
	}
}

func describeUnit(u ir.CheckableUnit) string {
	if u.Class != "" {
		return fmt.Sprintf("Method '%s.%s'", u.Class, u.Name)
	}
	return fmt.Sprintf("Function '%s'", u.Name)
}
