package report

import (
	"encoding/json"

	"covlint/internal/ir"
)

type jsonGenerator struct{}

// jsonDocument is the stable machine-readable schema. Field names are
// part of the output contract; do not rename them.
type jsonDocument struct {
	Violations []jsonViolation `json:"violations"`
	Warnings   []jsonWarning   `json:"warnings"`
	Total      int             `json:"total"`
}

type jsonViolation struct {
	Rule     string `json:"rule"`
	RuleName string `json:"rule_name"`
	Function string `json:"function"`
	Class    string `json:"class,omitempty"`
	File     string `json:"file"`
	Line     int    `json:"line"`
	Message  string `json:"message"`
	Severity string `json:"severity"`
}

type jsonWarning struct {
	File    string `json:"file"`
	Message string `json:"message"`
}

func (g *jsonGenerator) Format() string { return "json" }

func (g *jsonGenerator) Generate(violations []ir.Violation, warnings []ir.Warning) (string, error) {
	doc := jsonDocument{
		Violations: make([]jsonViolation, 0, len(violations)),
		Warnings:   make([]jsonWarning, 0, len(warnings)),
		Total:      len(violations),
	}
	for _, v := range violations {
		doc.Violations = append(doc.Violations, jsonViolation{
			Rule:     v.RuleID,
			RuleName: v.RuleName,
			Function: v.UnitName,
			Class:    v.Class,
			File:     v.FilePath,
			Line:     v.Line,
			Message:  v.Message,
			Severity: string(v.Severity),
		})
	}
	for _, w := range warnings {
		doc.Warnings = append(doc.Warnings, jsonWarning{File: w.FilePath, Message: w.Message})
	}

	out, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", err
	}
	return string(out) + "\n", nil
}
