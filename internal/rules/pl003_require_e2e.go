package rules

import "covlint/internal/ir"

func init() {
	Register(requireTierTest("PL003", "require-e2e-test", ir.TierE2E))
}
