package git

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func initRepo(t *testing.T) string {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}
	root := t.TempDir()
	run(t, root, "init")
	run(t, root, "config", "user.email", "test@example.com")
	run(t, root, "config", "user.name", "test")
	return root
}

func run(t *testing.T, root string, args ...string) {
	t.Helper()
	cmd := exec.Command("git", args...)
	cmd.Dir = root
	out, err := cmd.CombinedOutput()
	require.NoError(t, err, "git %v: %s", args, out)
}

func write(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestIsRepository(t *testing.T) {
	root := initRepo(t)
	assert.True(t, IsRepository(root))
	assert.False(t, IsRepository(t.TempDir()))
}

func TestChangedFiles(t *testing.T) {
	root := initRepo(t)

	write(t, root, "committed.py", "x = 1\n")
	write(t, root, "notes.txt", "hello\n")
	run(t, root, "add", ".")
	run(t, root, "commit", "-m", "initial")

	write(t, root, "committed.py", "x = 2\n") // unstaged change
	write(t, root, "staged.py", "y = 1\n")
	run(t, root, "add", "staged.py")
	write(t, root, "untracked.py", "z = 1\n")
	write(t, root, "untracked.txt", "ignored\n")

	files, err := ChangedFiles(root)
	require.NoError(t, err)

	rels := make([]string, 0, len(files))
	for _, f := range files {
		rel, err := filepath.Rel(root, f)
		require.NoError(t, err)
		rels = append(rels, filepath.ToSlash(rel))
	}

	assert.ElementsMatch(t, []string{"committed.py", "staged.py", "untracked.py"}, rels)
}

func TestChangedFiles_CleanRepo(t *testing.T) {
	root := initRepo(t)
	write(t, root, "app.py", "x = 1\n")
	run(t, root, "add", ".")
	run(t, root, "commit", "-m", "initial")

	files, err := ChangedFiles(root)
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestChangedFiles_Dedup(t *testing.T) {
	root := initRepo(t)
	write(t, root, "app.py", "x = 1\n")
	run(t, root, "add", ".")
	run(t, root, "commit", "-m", "initial")

	// Staged and then modified again: shows up in both diffs.
	write(t, root, "app.py", "x = 2\n")
	run(t, root, "add", "app.py")
	write(t, root, "app.py", "x = 3\n")

	files, err := ChangedFiles(root)
	require.NoError(t, err)
	assert.Len(t, files, 1)
}
