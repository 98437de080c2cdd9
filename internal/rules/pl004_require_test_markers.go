package rules

import (
	"fmt"

	"covlint/internal/config"
	"covlint/internal/ir"
)

func init() {
	Register(Rule{
		ID:        "PL004",
		Name:      "require-test-markers",
		CheckTest: checkTestMarkers,
	})
}

// checkTestMarkers requires every tiered test definition to carry the
// marker matching its directory tier. General-tier files are exempt:
// no single marker can be required of them.
func checkTestMarkers(tf ir.TestFunction, cfg *config.Config) *ir.Violation {
	if tf.Tier == ir.TierGeneral {
		return nil
	}
	if tf.IsSuppressed("PL004") {
		return nil
	}
	if tf.HasMarker(tf.Tier) {
		return nil
	}
	marker := "@pytest.mark." + tf.Tier.String()
	return &ir.Violation{
		RuleID:   "PL004",
		RuleName: "require-test-markers",
		UnitName: tf.Name,
		FilePath: tf.FilePath,
		Line:     tf.Line,
		Severity: ir.SeverityError,
		Message: fmt.Sprintf(
			"[PL004] Test function '%s' is missing required marker %s",
			tf.Name, marker,
		),
		FixContent: marker,
	}
}
