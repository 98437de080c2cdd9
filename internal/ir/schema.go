package ir

import "strings"

// Tier identifies which test hierarchy a test file belongs to, derived
// from its nearest tier-named ancestor directory.
type Tier int

const (
	// TierGeneral covers test files sitting directly under a test root
	// with no tier subdirectory. General tests satisfy candidate
	// queries for every tier but carry no marker requirement.
	TierGeneral Tier = iota
	TierUnit
	TierIntegration
	TierE2E
)

func (t Tier) String() string {
	switch t {
	case TierUnit:
		return "unit"
	case TierIntegration:
		return "integration"
	case TierE2E:
		return "e2e"
	default:
		return "general"
	}
}

// TierFromPath classifies a test file by its nearest tier-named
// ancestor directory. The file name itself is never considered.
func TierFromPath(path string) Tier {
	parts := strings.Split(strings.ReplaceAll(path, "\\", "/"), "/")
	// Walk from the file upward so the nearest directory wins.
	for i := len(parts) - 2; i >= 0; i-- {
		switch parts[i] {
		case "unit":
			return TierUnit
		case "integration":
			return TierIntegration
		case "e2e":
			return TierE2E
		}
	}
	return TierGeneral
}

// CheckableUnit is a function or method eligible for coverage rules.
// Immutable once produced by the analyzer.
type CheckableUnit struct {
	Name       string              `json:"name"`
	Class      string              `json:"class,omitempty"` // owning class, empty for module-level functions
	FilePath   string              `json:"file_path"`
	Line       int                 `json:"line"` // 1-based declaration line
	Indent     string              `json:"-"`    // leading whitespace of the declaration line
	IsPrivate  bool                `json:"is_private"`
	IsBuiltin  bool                `json:"is_builtin"` // __init__, dunder, or protocol method; always exempt
	Suppressed map[string]struct{} `json:"-"`          // rule ids disabled via noqa on the declaration line
}

// IsSuppressed reports whether the unit carries a noqa for the rule.
func (u *CheckableUnit) IsSuppressed(ruleID string) bool {
	_, ok := u.Suppressed[ruleID]
	return ok
}

// TestFunction is a test definition discovered in the corpus, carrying
// the state the marker rule and the fixer need.
type TestFunction struct {
	Name           string   `json:"name"`
	FilePath       string   `json:"file_path"`
	Line           int      `json:"line"`
	Indent         string   `json:"-"`
	Tier           Tier     `json:"-"`
	Decorators     []string `json:"decorators,omitempty"` // raw decorator expressions, in source order
	Markers        []string `json:"markers,omitempty"`    // tier markers recognized among the decorators
	Suppressed     map[string]struct{}
	FileSuppressed map[string]struct{} // rule ids suppressed for the whole file
}

// IsSuppressed reports whether the rule is disabled for this test at
// either line or file scope.
func (f *TestFunction) IsSuppressed(ruleID string) bool {
	if _, ok := f.Suppressed[ruleID]; ok {
		return true
	}
	_, ok := f.FileSuppressed[ruleID]
	return ok
}

// HasMarker reports whether one of the recognized markers matches the tier.
func (f *TestFunction) HasMarker(tier Tier) bool {
	want := tier.String()
	for _, m := range f.Markers {
		if m == want {
			return true
		}
	}
	return false
}

// Severity of a violation.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Violation is a single rule finding. Produced once, never mutated.
type Violation struct {
	RuleID   string   `json:"rule"`
	RuleName string   `json:"rule_name"`
	UnitName string   `json:"function"`
	Class    string   `json:"class,omitempty"`
	FilePath string   `json:"file"`
	Line     int      `json:"line"`
	Message  string   `json:"message"`
	Severity Severity `json:"severity"`

	// FixContent is the decorator line (without indentation) that
	// resolves the violation, set only when a textual fix exists.
	FixContent string `json:"-"`
}

// Warning is a non-fatal per-file problem surfaced alongside violations.
type Warning struct {
	FilePath string `json:"file"`
	Message  string `json:"message"`
}
