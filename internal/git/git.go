package git

import (
	"bufio"
	"bytes"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
)

// IsRepository reports whether path sits inside a git work tree.
func IsRepository(path string) bool {
	cmd := exec.Command("git", "rev-parse", "--git-dir")
	cmd.Dir = path
	return cmd.Run() == nil
}

// ChangedFiles returns the Python files with staged, unstaged, or
// untracked changes, as absolute paths under root, deduplicated in
// first-seen order.
func ChangedFiles(root string) ([]string, error) {
	commands := [][]string{
		{"diff", "--cached", "--name-only"},
		{"diff", "--name-only"},
		{"ls-files", "--others", "--exclude-standard"},
	}

	seen := make(map[string]struct{})
	var files []string
	for _, args := range commands {
		out, err := runGit(root, args)
		if err != nil {
			return nil, err
		}
		scanner := bufio.NewScanner(bytes.NewReader(out))
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" || !strings.HasSuffix(line, ".py") {
				continue
			}
			path := filepath.Join(root, line)
			if _, ok := seen[path]; ok {
				continue
			}
			seen[path] = struct{}{}
			files = append(files, path)
		}
	}
	return files, nil
}

func runGit(root string, args []string) ([]byte, error) {
	cmd := exec.Command("git", args...)
	cmd.Dir = root
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("git %s: %w", strings.Join(args, " "), err)
	}
	return out, nil
}
