package linter

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"covlint/internal/config"
	"covlint/internal/corpus"
	"covlint/internal/crawler"
	"covlint/internal/extractor"
	"covlint/internal/fixer"
	"covlint/internal/git"
	"covlint/internal/ir"
	"covlint/internal/rules"
)

// Linter runs the full evaluation pipeline: source analysis and corpus
// construction in parallel, then rule evaluation against the frozen
// index.
type Linter struct {
	cfg *config.Config
}

// Result is the outcome of one run.
type Result struct {
	Violations []ir.Violation
	Warnings   []ir.Warning
}

func New(cfg *config.Config) *Linter {
	return &Linter{cfg: cfg}
}

// LintProject checks every discoverable source file under root.
func (l *Linter) LintProject(ctx context.Context, root string) (*Result, error) {
	files, err := crawler.FindPythonFiles(root, l.cfg)
	if err != nil {
		return nil, fmt.Errorf("discover source files: %w", err)
	}
	return l.LintFiles(ctx, root, files)
}

// LintChanged checks only files with git changes (staged, unstaged, or
// untracked).
func (l *Linter) LintChanged(ctx context.Context, root string) (*Result, error) {
	if !git.IsRepository(root) {
		return nil, fmt.Errorf("%s is not inside a git repository", root)
	}
	files, err := git.ChangedFiles(root)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return &Result{}, nil
	}
	return l.LintFiles(ctx, root, files)
}

// LintFiles evaluates the enabled rules against the given source files.
// Per-file parse failures become warnings; only context cancellation
// aborts the run.
func (l *Linter) LintFiles(ctx context.Context, root string, files []string) (*Result, error) {
	analyzer := extractor.NewAnalyzer(l.cfg.Strict)

	analyses := make([]*extractor.FileAnalysis, len(files))
	parseErrs := make([]error, len(files))

	var idx *corpus.Index
	var corpusWarnings []ir.Warning

	// Phase 1+2: source analysis and corpus construction run
	// concurrently; both must finish before any rule fires.
	phase, phaseCtx := errgroup.WithContext(ctx)
	phase.Go(func() error {
		g, gctx := errgroup.WithContext(phaseCtx)
		g.SetLimit(runtime.NumCPU())
		for i, path := range files {
			i, path := i, path
			g.Go(func() error {
				fa, err := analyzer.AnalyzeFile(gctx, path)
				analyses[i], parseErrs[i] = fa, err
				return nil
			})
		}
		return g.Wait()
	})
	phase.Go(func() error {
		idx, corpusWarnings = corpus.Build(phaseCtx, root, l.cfg)
		return nil
	})
	if err := phase.Wait(); err != nil {
		return nil, err
	}
	slog.Debug("analysis complete", "source_files", len(files), "test_functions", idx.Size())

	unitRules, testRules := l.enabledRules()

	// Phase 3: evaluate against the now-frozen index. Workers own
	// disjoint file slots, so violation collection is race-free.
	perFile := make([][]ir.Violation, len(files))
	eval, _ := errgroup.WithContext(ctx)
	eval.SetLimit(runtime.NumCPU())
	for i := range files {
		i := i
		eval.Go(func() error {
			fa := analyses[i]
			if fa == nil {
				return nil
			}
			for _, unit := range fa.Units {
				for _, r := range unitRules {
					if v := r.CheckUnit(unit, idx, l.cfg); v != nil {
						perFile[i] = append(perFile[i], *v)
					}
				}
			}
			return nil
		})
	}

	var markerViolations []ir.Violation
	var markerMu sync.Mutex
	if len(testRules) > 0 {
		eval.Go(func() error {
			for _, tf := range idx.TestFunctions() {
				for _, r := range testRules {
					if v := r.CheckTest(tf, l.cfg); v != nil {
						markerMu.Lock()
						markerViolations = append(markerViolations, *v)
						markerMu.Unlock()
					}
				}
			}
			return nil
		})
	}
	if err := eval.Wait(); err != nil {
		return nil, err
	}

	res := &Result{Warnings: corpusWarnings}
	for i, err := range parseErrs {
		if err != nil {
			res.Warnings = append(res.Warnings, ir.Warning{FilePath: files[i], Message: err.Error()})
		}
	}
	for _, vs := range perFile {
		res.Violations = append(res.Violations, vs...)
	}
	res.Violations = append(res.Violations, markerViolations...)

	sortViolations(res.Violations)
	sort.Slice(res.Warnings, func(i, j int) bool {
		return res.Warnings[i].FilePath < res.Warnings[j].FilePath
	})
	return res, nil
}

// Fix applies marker fixes for the given violations and re-evaluates
// each touched file.
func (l *Linter) Fix(ctx context.Context, root string, violations []ir.Violation) (*fixer.Result, error) {
	return fixer.Apply(ctx, root, l.cfg, violations)
}

func (l *Linter) enabledRules() (unit, test []rules.Rule) {
	for _, r := range rules.All() {
		if !l.cfg.RuleEnabled(r.ID) {
			continue
		}
		if r.CheckUnit != nil {
			unit = append(unit, r)
		}
		if r.CheckTest != nil {
			test = append(test, r)
		}
	}
	return unit, test
}

// sortViolations makes report order reproducible regardless of worker
// completion order.
func sortViolations(vs []ir.Violation) {
	sort.Slice(vs, func(i, j int) bool {
		if vs[i].FilePath != vs[j].FilePath {
			return vs[i].FilePath < vs[j].FilePath
		}
		if vs[i].Line != vs[j].Line {
			return vs[i].Line < vs[j].Line
		}
		return vs[i].RuleID < vs[j].RuleID
	})
}
