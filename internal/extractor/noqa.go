package extractor

import (
	"regexp"
	"strings"
)

// noqaRe captures everything after a `# noqa` or `# noqa:` comment.
var noqaRe = regexp.MustCompile(`#\s*noqa(?:\s*:)?\s*(.*)`)

// ParseNoqa extracts the rule ids suppressed on a line. Accepted forms:
//
//	# noqa PL001
//	# noqa: PL001
//	# noqa PL001, PL002
//	# noqa: PL001, PL002
//
// A bare `# noqa` with no ids suppresses nothing.
func ParseNoqa(line string) map[string]struct{} {
	rules := make(map[string]struct{})
	m := noqaRe.FindStringSubmatch(line)
	if m == nil {
		return rules
	}
	for _, part := range strings.Split(m[1], ",") {
		id := strings.TrimSpace(part)
		if strings.HasPrefix(id, "PL") && len(id) > 2 {
			rules[id] = struct{}{}
		}
	}
	return rules
}

// fileNoqaScanLimit bounds how far into a file the file-scope noqa scan
// looks; fileNoqaLineLimit is how early the comment must sit to count
// as file-scoped rather than annotating the first declaration.
const (
	fileNoqaScanLimit = 5
	fileNoqaLineLimit = 3
)

// parseFileNoqa collects rule ids suppressed for the whole file: a noqa
// comment within the first few comment or docstring lines, before any
// code.
func parseFileNoqa(lines []string) map[string]struct{} {
	suppressed := make(map[string]struct{})
	for i, line := range lines {
		if i >= fileNoqaScanLimit {
			break
		}
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if !strings.HasPrefix(trimmed, "#") && !strings.HasPrefix(trimmed, `"""`) {
			break
		}
		if i < fileNoqaLineLimit {
			for id := range ParseNoqa(line) {
				suppressed[id] = struct{}{}
			}
		}
	}
	return suppressed
}
