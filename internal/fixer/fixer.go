package fixer

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"covlint/internal/config"
	"covlint/internal/extractor"
	"covlint/internal/ir"
	"covlint/internal/rules"
)

// Result summarizes one fix pass.
type Result struct {
	FilesFixed int
	Applied    map[string]int // file path -> fixes written
	Conflicts  []ir.Warning   // fixes skipped because the file changed underneath
	Unresolved []ir.Violation // violations still present after re-evaluation
}

// Apply writes the marker fixes for the given violations. Only
// violations carrying FixContent are actionable; others are ignored.
// Files are processed one at a time and each file is re-evaluated after
// writing, so a fix that did not take effect surfaces in Unresolved
// instead of disappearing.
func Apply(ctx context.Context, projectRoot string, cfg *config.Config, violations []ir.Violation) (*Result, error) {
	byFile := make(map[string][]ir.Violation)
	for _, v := range violations {
		if v.FixContent == "" {
			continue
		}
		byFile[v.FilePath] = append(byFile[v.FilePath], v)
	}

	res := &Result{Applied: make(map[string]int, len(byFile))}

	paths := make([]string, 0, len(byFile))
	for p := range byFile {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	for _, path := range paths {
		applied, conflicts, err := fixFile(path, byFile[path])
		if err != nil {
			return nil, err
		}
		res.Conflicts = append(res.Conflicts, conflicts...)
		if applied > 0 {
			res.Applied[path] = applied
			res.FilesFixed++
			slog.Info("applied fixes", "file", path, "count", applied)
		}
		unresolved, err := recheck(ctx, projectRoot, cfg, path)
		if err != nil {
			return nil, err
		}
		res.Unresolved = append(res.Unresolved, unresolved...)
	}
	return res, nil
}

// fixFile inserts the marker lines into one file. Violations are
// applied in descending line order so earlier insertions never shift
// later targets. Returns the number of insertions written.
func fixFile(path string, violations []ir.Violation) (int, []ir.Warning, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, nil, fmt.Errorf("stat %s: %w", path, err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, nil, fmt.Errorf("read %s: %w", path, err)
	}
	lines := strings.SplitAfter(string(data), "\n")

	sorted := make([]ir.Violation, len(violations))
	copy(sorted, violations)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Line > sorted[j].Line })

	var conflicts []ir.Warning
	applied := 0
	for _, v := range sorted {
		idx := v.Line - 1
		if idx < 0 || idx >= len(lines) || !declares(lines[idx], v.UnitName) {
			conflict := &ir.FixConflictError{
				Path: path, Line: v.Line,
				Reason: fmt.Sprintf("expected declaration of %q", v.UnitName),
			}
			conflicts = append(conflicts, ir.Warning{FilePath: path, Message: conflict.Error()})
			continue
		}

		decl := lines[idx]
		indent := decl[:len(decl)-len(strings.TrimLeft(decl, " \t"))]

		// The marker goes above the whole decorator block.
		insert := idx
		for insert > 0 && strings.HasPrefix(strings.TrimSpace(lines[insert-1]), "@") {
			insert--
		}

		if blockHasMarker(lines[insert:idx], v.FixContent) {
			continue // already fixed; applying twice must be a no-op
		}

		ending := "\n"
		if strings.HasSuffix(decl, "\r\n") {
			ending = "\r\n"
		}
		marker := indent + v.FixContent + ending
		lines = append(lines[:insert], append([]string{marker}, lines[insert:]...)...)
		applied++
	}

	if applied > 0 {
		if err := os.WriteFile(path, []byte(strings.Join(lines, "")), info.Mode().Perm()); err != nil {
			return 0, conflicts, fmt.Errorf("write %s: %w", path, err)
		}
	}
	return applied, conflicts, nil
}

// declares reports whether the line is the def of the named function.
func declares(line, name string) bool {
	trimmed := strings.TrimSpace(line)
	for _, prefix := range []string{"def ", "async def "} {
		if rest, ok := strings.CutPrefix(trimmed, prefix); ok {
			rest = strings.TrimSpace(rest)
			return strings.HasPrefix(rest, name) &&
				strings.HasPrefix(strings.TrimSpace(rest[len(name):]), "(")
		}
	}
	return false
}

// blockHasMarker reports whether the decorator block already carries a
// marker equivalent to fix (same tier, any namespace).
func blockHasMarker(block []string, fix string) bool {
	want := extractor.MarkerFromDecorator(strings.TrimPrefix(fix, "@"))
	for _, line := range block {
		expr := strings.TrimSpace(line)
		if !strings.HasPrefix(expr, "@") {
			continue
		}
		expr = strings.TrimSpace(strings.TrimPrefix(expr, "@"))
		if i := strings.Index(expr, "#"); i >= 0 {
			expr = strings.TrimSpace(expr[:i])
		}
		if m := extractor.MarkerFromDecorator(expr); m != "" && m == want {
			return true
		}
	}
	return false
}

// recheck re-analyzes a fixed file and re-runs the marker rule against
// it. Anything still violating comes back for the report.
func recheck(ctx context.Context, projectRoot string, cfg *config.Config, path string) ([]ir.Violation, error) {
	rule, ok := rules.Get("PL004")
	if !ok || rule.CheckTest == nil {
		return nil, nil
	}
	analyzer := extractor.NewAnalyzer(cfg.Strict)
	fa, err := analyzer.AnalyzeFile(ctx, path)
	if err != nil {
		return nil, err
	}
	rel, err := filepath.Rel(projectRoot, path)
	if err != nil {
		rel = path
	}
	tier := ir.TierFromPath(rel)

	var unresolved []ir.Violation
	for _, tf := range fa.Tests {
		tf.Tier = tier
		if v := rule.CheckTest(tf, cfg); v != nil {
			unresolved = append(unresolved, *v)
		}
	}
	return unresolved, nil
}
