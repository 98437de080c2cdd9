package rules

import "covlint/internal/ir"

func init() {
	Register(requireTierTest("PL001", "require-unit-test", ir.TierUnit))
}
