package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"covlint/internal/config"
	"covlint/internal/ir"
	"covlint/internal/linter"
	"covlint/internal/report"
	"covlint/internal/rules"

	"github.com/spf13/cobra"
)

const version = "0.1.0"

var (
	rootCmd = &cobra.Command{
		Use:           "covlint",
		Short:         "Test coverage linter for Python projects",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flagFormat      string
	flagFailOnError bool
	flagExclude     []string
	flagStrict      bool
	flagChangedOnly bool
	flagFix         bool
	flagVerbose     bool
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(2)
	}
}

func init() {
	checkCmd.Flags().StringVarP(&flagFormat, "format", "f", "", "Output format: text, json, or junit")
	checkCmd.Flags().BoolVar(&flagFailOnError, "fail-on-error", false, "Exit non-zero when violations are found")
	checkCmd.Flags().StringArrayVarP(&flagExclude, "exclude", "e", nil, "Glob pattern of files to skip (repeatable)")
	checkCmd.Flags().BoolVar(&flagStrict, "strict", false, "Also require tests for private functions")
	checkCmd.Flags().BoolVar(&flagChangedOnly, "changed-only", false, "Only check files with git changes")
	checkCmd.Flags().BoolVar(&flagFix, "fix", false, "Insert missing test markers in place")
	checkCmd.Flags().BoolVarP(&flagVerbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(rulesCmd)
	rootCmd.AddCommand(versionCmd)
}

func setupLogging(verbose bool) {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}

// loadConfig merges CLI flags over the discovered file config.
func loadConfig(root string) (*config.Config, error) {
	cfg, err := config.Load(root)
	if err != nil {
		return nil, err
	}
	if flagFormat != "" {
		cfg.OutputFormat = flagFormat
	}
	if flagFailOnError {
		cfg.FailOnError = true
	}
	if flagStrict {
		cfg.Strict = true
	}
	cfg.ExcludePatterns = append(cfg.ExcludePatterns, flagExclude...)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

var checkCmd = &cobra.Command{
	Use:   "check [path]",
	Short: "Check that every checkable function has tests in the right tier",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		setupLogging(flagVerbose)

		path := "."
		if len(args) > 0 {
			path = args[0]
		}
		root, err := filepath.Abs(path)
		if err != nil {
			return err
		}
		if info, err := os.Stat(root); err != nil || !info.IsDir() {
			return fmt.Errorf("%s is not a directory", root)
		}

		cfg, err := loadConfig(root)
		if err != nil {
			var cerr *ir.ConfigError
			if errors.As(err, &cerr) {
				return cerr
			}
			return err
		}

		gen, err := report.New(cfg.OutputFormat)
		if err != nil {
			return err
		}

		ctx := context.Background()
		l := linter.New(cfg)

		start := time.Now()
		var res *linter.Result
		if flagChangedOnly {
			res, err = l.LintChanged(ctx, root)
		} else {
			res, err = l.LintProject(ctx, root)
		}
		if err != nil {
			return err
		}
		slog.Debug("lint finished", "violations", len(res.Violations), "warnings", len(res.Warnings), "elapsed", time.Since(start))

		if flagFix && len(res.Violations) > 0 {
			fixed, err := l.Fix(ctx, root, res.Violations)
			if err != nil {
				return err
			}
			if fixed.FilesFixed > 0 {
				fmt.Fprintf(os.Stderr, "Fixed %d file(s)\n", fixed.FilesFixed)
			}
			res.Warnings = append(res.Warnings, fixed.Conflicts...)
			res.Violations = replaceFixedViolations(res.Violations, fixed.Unresolved)
		}

		out, err := gen.Generate(res.Violations, res.Warnings)
		if err != nil {
			return err
		}
		fmt.Print(out)

		if len(res.Violations) > 0 && cfg.FailOnError {
			os.Exit(1)
		}
		return nil
	},
}

// replaceFixedViolations drops the fixable violations that were just
// applied and keeps everything else, plus whatever the re-check says is
// still broken.
func replaceFixedViolations(all, unresolved []ir.Violation) []ir.Violation {
	kept := all[:0:0]
	for _, v := range all {
		if v.FixContent == "" {
			kept = append(kept, v)
		}
	}
	return append(kept, unresolved...)
}

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "List the available rules",
	Run: func(cmd *cobra.Command, args []string) {
		for _, r := range rules.All() {
			fmt.Printf("%s  %s\n", r.ID, r.Name)
		}
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the covlint version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("covlint %s\n", version)
	},
}
