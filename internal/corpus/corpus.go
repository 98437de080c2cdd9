package corpus

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"golang.org/x/sync/errgroup"

	"covlint/internal/config"
	"covlint/internal/extractor"
	"covlint/internal/ir"
)

// Index is the frozen view of every test definition under the
// configured test roots. Built once per run; all reads afterwards are
// lock-free because nothing mutates it.
type Index struct {
	names   map[ir.Tier]map[string]struct{}
	markers map[string][]string
	tests   []ir.TestFunction
}

func markerKey(tier ir.Tier, file, name string) string {
	return fmt.Sprintf("%s|%s|%s", tier, file, name)
}

// skipDirs are never descended into while walking test roots.
var skipDirs = map[string]bool{
	"__pycache__":  true,
	".venv":        true,
	"venv":         true,
	"env":          true,
	".env":         true,
	".git":         true,
	"node_modules": true,
}

// Build walks the configured test roots under projectRoot, parses every
// accepted test file in parallel, and merges the results into a frozen
// Index. Merge order is the sorted file path order, so duplicate test
// names resolve first-writer-wins deterministically. Per-file problems
// come back as warnings, never as a failed build.
func Build(ctx context.Context, projectRoot string, cfg *config.Config) (*Index, []ir.Warning) {
	files := discoverTestFiles(projectRoot, cfg)

	type parsed struct {
		analysis *extractor.FileAnalysis
		err      error
	}
	results := make([]parsed, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())
	analyzer := extractor.NewAnalyzer(false)
	for i, path := range files {
		i, path := i, path
		g.Go(func() error {
			fa, err := analyzer.AnalyzeFile(gctx, path)
			results[i] = parsed{analysis: fa, err: err}
			return nil
		})
	}
	_ = g.Wait() // workers record errors per file and never fail the group

	idx := &Index{
		names: map[ir.Tier]map[string]struct{}{
			ir.TierGeneral:     {},
			ir.TierUnit:        {},
			ir.TierIntegration: {},
			ir.TierE2E:         {},
		},
		markers: map[string][]string{},
	}
	var warnings []ir.Warning

	for i, path := range files {
		res := results[i]
		if res.err != nil {
			warnings = append(warnings, ir.Warning{FilePath: path, Message: res.err.Error()})
			continue
		}
		rel, err := filepath.Rel(projectRoot, path)
		if err != nil {
			warnings = append(warnings, ir.Warning{
				FilePath: path,
				Message:  (&ir.IndexInconsistencyError{Path: path}).Error(),
			})
			continue
		}
		tier := ir.TierFromPath(rel)
		for _, tf := range res.analysis.Tests {
			tf.Tier = tier
			idx.names[tier][tf.Name] = struct{}{}
			key := markerKey(tier, path, tf.Name)
			if _, ok := idx.markers[key]; !ok {
				idx.markers[key] = tf.Markers
			}
			idx.tests = append(idx.tests, tf)
		}
	}
	return idx, warnings
}

// HasCandidate reports whether any of the derived names is defined in
// the tier. General-tier tests satisfy queries for every tier.
func (x *Index) HasCandidate(tier ir.Tier, names []string) bool {
	for _, name := range names {
		if _, ok := x.names[tier][name]; ok {
			return true
		}
		if _, ok := x.names[ir.TierGeneral][name]; ok {
			return true
		}
	}
	return false
}

// MarkerStatus returns the marker set attached to a test definition, as
// recorded at build time.
func (x *Index) MarkerStatus(tier ir.Tier, file, name string) []string {
	return x.markers[markerKey(tier, file, name)]
}

// TestFunctions returns every indexed test definition in sorted file
// path order.
func (x *Index) TestFunctions() []ir.TestFunction {
	return x.tests
}

// Size returns the number of indexed test definitions.
func (x *Index) Size() int {
	return len(x.tests)
}

// discoverTestFiles walks each configured test root and returns the
// sorted list of files matching the test filename patterns.
func discoverTestFiles(projectRoot string, cfg *config.Config) []string {
	var files []string
	for _, dir := range cfg.TestDirectories {
		root := filepath.Join(projectRoot, dir)
		if fi, err := os.Stat(root); err != nil || !fi.IsDir() {
			continue
		}
		_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return nil // skip unreadable entries
			}
			if d.IsDir() {
				if skipDirs[d.Name()] || strings.HasPrefix(d.Name(), ".") && d.Name() != "." {
					return filepath.SkipDir
				}
				return nil
			}
			if !strings.HasSuffix(d.Name(), ".py") {
				return nil
			}
			if matchesAny(cfg.TestPatterns, d.Name()) {
				files = append(files, path)
			}
			return nil
		})
	}
	sort.Strings(files)
	return files
}

func matchesAny(patterns []string, name string) bool {
	for _, p := range patterns {
		if ok, err := doublestar.Match(p, name); err == nil && ok {
			return true
		}
	}
	return false
}
