package extractor

import (
	"context"
	"os"
	"regexp"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"

	"covlint/internal/ir"
)

// Analyzer parses Python source files into checkable units and test
// definitions. It is stateless apart from the strict flag and safe for
// concurrent use; every call builds its own parser.
type Analyzer struct {
	strict bool
}

// NewAnalyzer returns an analyzer. In strict mode name-based privacy is
// ignored and every non-builtin definition is checkable.
func NewAnalyzer(strict bool) *Analyzer {
	return &Analyzer{strict: strict}
}

// AnalyzeFile reads and analyzes a single source file. Failures are
// reported as *ir.ParseError so callers can skip the file and continue.
func (a *Analyzer) AnalyzeFile(ctx context.Context, path string) (*FileAnalysis, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, &ir.ParseError{Path: path, Err: err}
	}
	return a.AnalyzeSource(ctx, path, src)
}

// AnalyzeSource analyzes in-memory source, attributed to path.
func (a *Analyzer) AnalyzeSource(ctx context.Context, path string, src []byte) (*FileAnalysis, error) {
	parser := sitter.NewParser()
	parser.SetLanguage(python.GetLanguage())

	tree, err := parser.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, &ir.ParseError{Path: path, Err: err}
	}
	defer tree.Close()

	lines := strings.Split(string(src), "\n")
	fa := &FileAnalysis{
		Path:           path,
		FileSuppressed: parseFileNoqa(lines),
	}
	exports := extractExportList(src)

	root := tree.RootNode()
	for i := 0; i < int(root.NamedChildCount()); i++ {
		a.collectTopLevel(root.NamedChild(i), src, lines, fa, exports)
	}
	return fa, nil
}

// collectTopLevel dispatches one module-level statement. Definitions
// nested inside function bodies are deliberately not visited: only
// module-level functions and class methods are checkable.
func (a *Analyzer) collectTopLevel(node *sitter.Node, src []byte, lines []string, fa *FileAnalysis, exports map[string]struct{}) {
	switch node.Type() {
	case "function_definition":
		a.addFunction(node, nil, "", false, src, lines, fa, exports)
	case "class_definition":
		a.collectClass(node, src, lines, fa, exports)
	case "decorated_definition":
		def := node.ChildByFieldName("definition")
		if def == nil {
			return
		}
		decorators := decoratorExprs(node, src)
		switch def.Type() {
		case "function_definition":
			a.addFunction(def, decorators, "", false, src, lines, fa, exports)
		case "class_definition":
			a.collectClass(def, src, lines, fa, exports)
		}
	}
}

// collectClass walks a class body and records its methods. Nested
// classes are visited with the innermost class as the owning type.
func (a *Analyzer) collectClass(class *sitter.Node, src []byte, lines []string, fa *FileAnalysis, exports map[string]struct{}) {
	nameNode := class.ChildByFieldName("name")
	body := class.ChildByFieldName("body")
	if nameNode == nil || body == nil {
		return
	}
	className := nameNode.Content(src)

	isProtocol := false
	if supers := class.ChildByFieldName("superclasses"); supers != nil {
		isProtocol = strings.Contains(supers.Content(src), "Protocol")
	}

	for i := 0; i < int(body.NamedChildCount()); i++ {
		stmt := body.NamedChild(i)
		switch stmt.Type() {
		case "function_definition":
			a.addFunction(stmt, nil, className, isProtocol, src, lines, fa, exports)
		case "class_definition":
			a.collectClass(stmt, src, lines, fa, exports)
		case "decorated_definition":
			def := stmt.ChildByFieldName("definition")
			if def == nil {
				continue
			}
			decorators := decoratorExprs(stmt, src)
			switch def.Type() {
			case "function_definition":
				a.addFunction(def, decorators, className, isProtocol, src, lines, fa, exports)
			case "class_definition":
				a.collectClass(def, src, lines, fa, exports)
			}
		}
	}
}

func (a *Analyzer) addFunction(def *sitter.Node, decorators []string, className string, isProtocol bool, src []byte, lines []string, fa *FileAnalysis, exports map[string]struct{}) {
	nameNode := def.ChildByFieldName("name")
	if nameNode == nil {
		return
	}
	name := nameNode.Content(src)

	row := int(def.StartPoint().Row)
	line := ""
	if row < len(lines) {
		line = lines[row]
	}
	indent := line[:len(line)-len(strings.TrimLeft(line, " \t"))]
	suppressed := ParseNoqa(line)

	if IsTestName(name) {
		markers := make([]string, 0, len(decorators))
		for _, d := range decorators {
			if m := MarkerFromDecorator(d); m != "" {
				markers = append(markers, m)
			}
		}
		fa.Tests = append(fa.Tests, ir.TestFunction{
			Name:           name,
			FilePath:       fa.Path,
			Line:           row + 1,
			Indent:         indent,
			Decorators:     decorators,
			Markers:        markers,
			Suppressed:     suppressed,
			FileSuppressed: fa.FileSuppressed,
		})
	}

	fa.Units = append(fa.Units, ir.CheckableUnit{
		Name:       name,
		Class:      className,
		FilePath:   fa.Path,
		Line:       row + 1,
		Indent:     indent,
		IsPrivate:  a.isPrivate(name, className, exports),
		IsBuiltin:  isBuiltin(name, className, isProtocol),
		Suppressed: suppressed,
	})
}

// isBuiltin reports whether the definition is exempt regardless of
// strict mode: constructors, dunder methods, and protocol methods.
func isBuiltin(name, className string, isProtocol bool) bool {
	if name == "__init__" {
		return true
	}
	if strings.HasPrefix(name, "__") && strings.HasSuffix(name, "__") {
		return true
	}
	return isProtocol && className != ""
}

func (a *Analyzer) isPrivate(name, className string, exports map[string]struct{}) bool {
	if a.strict {
		return false
	}
	if className != "" {
		if strings.HasPrefix(name, "_") {
			return true
		}
		// A method is only public when its class is.
		return !publicName(className, exports)
	}
	return !publicName(name, exports)
}

// publicName applies the module export list when present, otherwise the
// underscore convention.
func publicName(name string, exports map[string]struct{}) bool {
	if exports != nil {
		_, ok := exports[name]
		return ok
	}
	return !strings.HasPrefix(name, "_")
}

// decoratorExprs returns the decorator expressions of a
// decorated_definition, stripped of the leading `@`, inline comments,
// and surrounding whitespace, in source order.
func decoratorExprs(decorated *sitter.Node, src []byte) []string {
	var out []string
	for i := 0; i < int(decorated.NamedChildCount()); i++ {
		child := decorated.NamedChild(i)
		if child.Type() != "decorator" {
			continue
		}
		expr := strings.TrimSpace(strings.TrimPrefix(child.Content(src), "@"))
		if idx := strings.Index(expr, "#"); idx >= 0 {
			expr = strings.TrimSpace(expr[:idx])
		}
		out = append(out, expr)
	}
	return out
}

var (
	exportListRe = regexp.MustCompile(`(?s)__all__\s*=\s*\[(.*?)\]`)
	exportNameRe = regexp.MustCompile(`['"]([^'"]+)['"]`)
)

// extractExportList finds a module-level `__all__ = [...]` assignment.
// Returns nil when the module declares no export list, in which case
// the underscore convention applies.
func extractExportList(src []byte) map[string]struct{} {
	m := exportListRe.FindSubmatch(src)
	if m == nil {
		return nil
	}
	exports := make(map[string]struct{})
	for _, name := range exportNameRe.FindAllSubmatch(m[1], -1) {
		exports[string(name[1])] = struct{}{}
	}
	return exports
}
