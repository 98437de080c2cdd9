package report

import (
	"fmt"
	"strings"

	"covlint/internal/ir"
)

type textGenerator struct{}

func (g *textGenerator) Format() string { return "text" }

func (g *textGenerator) Generate(violations []ir.Violation, warnings []ir.Warning) (string, error) {
	var b strings.Builder

	for _, w := range warnings {
		fmt.Fprintf(&b, "warning: %s: %s\n", w.FilePath, w.Message)
	}
	if len(warnings) > 0 {
		b.WriteString("\n")
	}

	for _, v := range violations {
		fmt.Fprintf(&b, "%s:%d: %s\n", v.FilePath, v.Line, v.Message)
	}

	if len(violations) == 0 {
		b.WriteString("No test coverage issues found.\n")
		return b.String(), nil
	}

	fmt.Fprintf(&b, "\nFound %d test coverage issue%s\n", len(violations), plural(len(violations)))
	b.WriteString("Tip: suppress a finding with a '# noqa: PL001' comment on the offending line.\n")
	return b.String(), nil
}

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}
