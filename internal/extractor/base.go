package extractor

import (
	"regexp"

	"covlint/internal/ir"
)

// FileAnalysis is everything the analyzer learns from one source file.
type FileAnalysis struct {
	Path string

	// Units are the checkable functions and methods, in source order.
	Units []ir.CheckableUnit

	// Tests are the test_* definitions found in the file, in source
	// order. Tier is left as TierGeneral; the corpus fills it in from
	// the file's location.
	Tests []ir.TestFunction

	// FileSuppressed holds rule ids disabled for the whole file by a
	// leading noqa comment.
	FileSuppressed map[string]struct{}
}

// markerRe recognizes a tier marker decorator expression: `mark.<tier>`
// under any dotted namespace (`pytest.mark.unit`, `mark.e2e`), with an
// optional empty call.
var markerRe = regexp.MustCompile(`^(?:[A-Za-z_][A-Za-z0-9_]*\.)*mark\.(unit|integration|e2e)(?:\(\))?$`)

// MarkerFromDecorator returns the tier name a decorator expression
// attaches, or "" when the decorator is not a tier marker. The
// expression must already be stripped of its leading `@`.
func MarkerFromDecorator(expr string) string {
	m := markerRe.FindStringSubmatch(expr)
	if m == nil {
		return ""
	}
	return m[1]
}

// testNameRe matches the definitions pytest would collect as tests.
var testNameRe = regexp.MustCompile(`^test_\w+$`)

// IsTestName reports whether a function name is a test definition name.
func IsTestName(name string) bool {
	return testNameRe.MatchString(name)
}
