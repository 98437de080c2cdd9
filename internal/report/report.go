package report

import (
	"fmt"

	"covlint/internal/ir"
)

// Generator renders a lint result into a final output document.
type Generator interface {
	Format() string
	Generate(violations []ir.Violation, warnings []ir.Warning) (string, error)
}

// New returns the generator for the given output format.
func New(format string) (Generator, error) {
	switch format {
	case "text", "":
		return &textGenerator{}, nil
	case "json":
		return &jsonGenerator{}, nil
	case "junit":
		return &junitGenerator{}, nil
	default:
		return nil, fmt.Errorf("unknown output format %q (expected text, json, or junit)", format)
	}
}
