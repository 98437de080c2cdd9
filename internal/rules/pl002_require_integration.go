package rules

import "covlint/internal/ir"

func init() {
	Register(requireTierTest("PL002", "require-integration-test", ir.TierIntegration))
}
