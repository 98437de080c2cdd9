package corpus

import (
	"strings"

	"covlint/internal/ir"
)

// DeriveTestNames maps a function (and optional owning class) to every
// test-name spelling that satisfies the tier's convention. The result
// is deterministic: same inputs, same names in the same order.
func DeriveTestNames(function, class string, tier ir.Tier) []string {
	var names []string
	if class != "" {
		switch tier {
		case ir.TierIntegration:
			names = append(names,
				"test_integration_"+class+"_"+function,
				"test_int_"+class+"_"+function,
				"test_"+class+"_"+function,
			)
		case ir.TierE2E:
			names = append(names,
				"test_e2e_"+class+"_"+function,
				"test_end_to_end_"+class+"_"+function,
				"test_"+class+"_"+function,
			)
		default:
			names = append(names,
				"test_"+class+"_"+function,
				"test_"+strings.ToLower(class)+"_"+function,
				"test_unit_"+class+"_"+function,
			)
		}
	}
	names = append(names, standaloneNames(function, tier)...)
	return dedupe(names)
}

// standaloneNames is the vocabulary for module-level functions. The
// bare test_<name> fallback is accepted in every tier.
func standaloneNames(function string, tier ir.Tier) []string {
	switch tier {
	case ir.TierIntegration:
		return []string{
			"test_integration_" + function,
			"test_int_" + function,
			"test_" + function,
		}
	case ir.TierE2E:
		return []string{
			"test_e2e_" + function,
			"test_end_to_end_" + function,
			"test_" + function,
		}
	case ir.TierUnit:
		return []string{
			"test_" + function,
			"test_unit_" + function,
		}
	default:
		return []string{
			"test_" + function,
			"test_unit_" + function,
			"test_integration_" + function,
			"test_e2e_" + function,
		}
	}
}

func dedupe(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	out := names[:0]
	for _, n := range names {
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}
