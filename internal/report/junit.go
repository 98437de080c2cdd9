package report

import (
	"encoding/xml"
	"fmt"

	"covlint/internal/ir"
	"covlint/internal/rules"
)

type junitGenerator struct{}

// One testsuite per rule; each violation under a rule becomes a failed
// testcase. CI systems can then break the run down per rule.
type junitSuites struct {
	XMLName  xml.Name     `xml:"testsuites"`
	Tests    int          `xml:"tests,attr"`
	Failures int          `xml:"failures,attr"`
	Suites   []junitSuite `xml:"testsuite"`
}

type junitSuite struct {
	Name     string      `xml:"name,attr"`
	Tests    int         `xml:"tests,attr"`
	Failures int         `xml:"failures,attr"`
	Cases    []junitCase `xml:"testcase"`
}

type junitCase struct {
	Name      string        `xml:"name,attr"`
	ClassName string        `xml:"classname,attr"`
	Failure   *junitFailure `xml:"failure,omitempty"`
}

type junitFailure struct {
	Message string `xml:"message,attr"`
	Type    string `xml:"type,attr"`
	Body    string `xml:",chardata"`
}

func (g *junitGenerator) Format() string { return "junit" }

func (g *junitGenerator) Generate(violations []ir.Violation, _ []ir.Warning) (string, error) {
	byRule := make(map[string][]ir.Violation)
	for _, v := range violations {
		byRule[v.RuleID] = append(byRule[v.RuleID], v)
	}

	doc := junitSuites{Failures: len(violations)}
	for _, r := range rules.All() {
		vs := byRule[r.ID]
		suite := junitSuite{
			Name:     fmt.Sprintf("covlint.%s", r.ID),
			Tests:    len(vs),
			Failures: len(vs),
		}
		for _, v := range vs {
			name := v.UnitName
			if v.Class != "" {
				name = v.Class + "." + v.UnitName
			}
			suite.Cases = append(suite.Cases, junitCase{
				Name:      name,
				ClassName: v.FilePath,
				Failure: &junitFailure{
					Message: v.Message,
					Type:    r.Name,
					Body:    fmt.Sprintf("%s:%d", v.FilePath, v.Line),
				},
			})
		}
		doc.Tests += len(vs)
		doc.Suites = append(doc.Suites, suite)
	}

	out, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", err
	}
	return xml.Header + string(out) + "\n", nil
}
