package git

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// initRepo creates a repo in dir on branch main with one commit holding files.
func initRepo(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git binary not available")
	}
	commitFiles(t, dir, files, "git init", "git branch -M main")
}

func commitFiles(t *testing.T, dir string, files map[string]string, pre ...string) {
	t.Helper()
	for path, content := range files {
		full := filepath.Join(dir, path)
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
		require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
	}
	steps := append(pre, "git add .", "git commit -q -m update")
	for _, c := range steps {
		cmd := exec.Command("sh", "-c", c)
		cmd.Dir = dir
		cmd.Env = append(os.Environ(), "GIT_AUTHOR_NAME=test", "GIT_AUTHOR_EMAIL=test@test", "GIT_COMMITTER_NAME=test", "GIT_COMMITTER_EMAIL=test@test")
		out, err := cmd.CombinedOutput()
		require.NoError(t, err, "run %q: %s", c, out)
	}
}

func revParse(t *testing.T, dir string) string {
	t.Helper()
	out, err := exec.Command("git", "-C", dir, "rev-parse", "HEAD").Output()
	require.NoError(t, err)
	return strings.TrimSpace(string(out))
}

func TestCloneAndHead(t *testing.T) {
	src := t.TempDir()
	initRepo(t, src, map[string]string{"Go.gitignore": "*.test\n"})

	dest := filepath.Join(t.TempDir(), "mirror")
	c := &Client{}

	rev, err := c.Clone(context.Background(), "file://"+src, dest, "main")
	require.NoError(t, err)
	assert.Equal(t, revParse(t, src), rev)

	head, err := c.Head(dest)
	require.NoError(t, err)
	assert.Equal(t, rev, head)

	assert.FileExists(t, filepath.Join(dest, "Go.gitignore"))
	assert.True(t, IsRepo(dest))
}

func TestCloneMissingBranch(t *testing.T) {
	src := t.TempDir()
	initRepo(t, src, map[string]string{"Go.gitignore": "*.test\n"})

	c := &Client{}
	_, err := c.Clone(context.Background(), "file://"+src, filepath.Join(t.TempDir(), "m"), "does-not-exist")
	assert.Error(t, err)
}

func TestUpdate(t *testing.T) {
	src := t.TempDir()
	initRepo(t, src, map[string]string{"Go.gitignore": "*.test\n"})

	dest := filepath.Join(t.TempDir(), "mirror")
	c := &Client{}
	ctx := context.Background()

	first, err := c.Clone(ctx, "file://"+src, dest, "main")
	require.NoError(t, err)

	rev, changed, err := c.Update(ctx, dest, "main")
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, first, rev)

	commitFiles(t, src, map[string]string{"Global/Windows.gitignore": "Thumbs.db\n"})

	rev, changed, err = c.Update(ctx, dest, "main")
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, revParse(t, src), rev)
	assert.FileExists(t, filepath.Join(dest, "Global", "Windows.gitignore"))
}

func TestUpdateKeepsUntrackedFiles(t *testing.T) {
	src := t.TempDir()
	initRepo(t, src, map[string]string{"Go.gitignore": "*.test\n"})

	dest := filepath.Join(t.TempDir(), "mirror")
	c := &Client{}
	ctx := context.Background()

	_, err := c.Clone(ctx, "file://"+src, dest, "main")
	require.NoError(t, err)

	marker := filepath.Join(dest, ".marker")
	require.NoError(t, os.WriteFile(marker, []byte("1"), 0o644))

	commitFiles(t, src, map[string]string{"Rust.gitignore": "target/\n"})
	_, changed, err := c.Update(ctx, dest, "main")
	require.NoError(t, err)
	assert.True(t, changed)
	assert.FileExists(t, marker)
}

func TestUpdateNotARepo(t *testing.T) {
	c := &Client{}
	_, _, err := c.Update(context.Background(), t.TempDir(), "main")
	assert.Error(t, err)
}

func TestRemoteHead(t *testing.T) {
	src := t.TempDir()
	initRepo(t, src, map[string]string{"Go.gitignore": "*.test\n"})

	c := &Client{}
	rev, err := c.RemoteHead(context.Background(), "file://"+src, "main")
	require.NoError(t, err)
	assert.Equal(t, revParse(t, src), rev)

	_, err = c.RemoteHead(context.Background(), "file://"+src, "missing")
	assert.Error(t, err)
}

func TestGetInfo(t *testing.T) {
	src := t.TempDir()
	initRepo(t, src, map[string]string{"Go.gitignore": "*.test\n"})

	dest := filepath.Join(t.TempDir(), "mirror")
	c := &Client{}
	_, err := c.Clone(context.Background(), "file://"+src, dest, "main")
	require.NoError(t, err)

	info, err := GetInfo(dest)
	require.NoError(t, err)
	assert.Equal(t, "main", info.Branch)
	assert.Equal(t, "file://"+src, info.Remote)
	assert.Len(t, info.Head, 7)
	assert.False(t, info.LastCommit.IsZero())
}

func TestIsRepoFalseForPlainDir(t *testing.T) {
	assert.False(t, IsRepo(t.TempDir()))
}
