package crawler

import (
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"covlint/internal/config"
)

// skipDirs are never descended into while scanning for source files.
var skipDirs = map[string]bool{
	"__pycache__":  true,
	".venv":        true,
	"venv":         true,
	"env":          true,
	".env":         true,
	".git":         true,
	"node_modules": true,
	"vendor":       true,
	"dist":         true,
	"build":        true,
}

// FindPythonFiles walks the project root and returns the sorted list of
// Python source files to check. Configured test roots directly under
// the project root are skipped: their contents feed the test corpus,
// not the analyzer. Exclude patterns match against the slash-separated
// path relative to root.
func FindPythonFiles(root string, cfg *config.Config) ([]string, error) {
	testRoots := make(map[string]bool, len(cfg.TestDirectories))
	for _, d := range cfg.TestDirectories {
		testRoots[d] = true
	}

	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // skip unreadable entries
		}
		rel, rerr := filepath.Rel(root, path)
		if rerr != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			if path == root {
				return nil
			}
			name := d.Name()
			if skipDirs[name] || strings.HasPrefix(name, ".") {
				return filepath.SkipDir
			}
			// Test roots only count at the top level; a nested
			// directory that happens to share the name is source.
			if testRoots[name] && !strings.Contains(rel, "/") {
				return filepath.SkipDir
			}
			return nil
		}

		if !strings.HasSuffix(d.Name(), ".py") {
			return nil
		}
		if excluded(cfg.ExcludePatterns, rel) {
			return nil
		}
		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

func excluded(patterns []string, rel string) bool {
	for _, p := range patterns {
		if ok, err := doublestar.Match(p, rel); err == nil && ok {
			return true
		}
		// A bare filename pattern should also match at any depth.
		if ok, err := doublestar.Match(p, filepath.Base(rel)); err == nil && ok {
			return true
		}
	}
	return false
}
