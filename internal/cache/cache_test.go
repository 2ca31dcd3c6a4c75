package cache

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tormodhaugland/ignoreit/internal/mirror"
	"github.com/tormodhaugland/ignoreit/internal/templates"
)

// stubRemote checks out a fixed set of files.
type stubRemote struct {
	files    []string
	cloneErr error
	clones   int
}

func (s *stubRemote) Clone(_ context.Context, _, dest, _ string) (string, error) {
	s.clones++
	if s.cloneErr != nil {
		return "", s.cloneErr
	}
	if err := os.MkdirAll(filepath.Join(dest, ".git"), 0o755); err != nil {
		return "", err
	}
	for _, rel := range s.files {
		full := filepath.Join(dest, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
			return "", err
		}
		if err := os.WriteFile(full, []byte("# "+rel+"\n"), 0o644); err != nil {
			return "", err
		}
	}
	return "deadbeef", nil
}

func (s *stubRemote) Update(context.Context, string, string) (string, bool, error) {
	return "deadbeef", false, nil
}

func (s *stubRemote) Head(string) (string, error) { return "deadbeef", nil }

func (s *stubRemote) RemoteHead(context.Context, string, string) (string, error) {
	return "deadbeef", nil
}

func openTestCache(t *testing.T, remote *stubRemote, pick PickFunc) (*Cache, error) {
	t.Helper()
	return OpenOrClone(context.Background(), Options{
		Mirror: mirror.Options{
			CacheRoot: filepath.Join(t.TempDir(), "cache"),
			RemoteURL: "https://example.invalid/gitignore.git",
			Branch:    "main",
			Git:       remote,
		},
		Pick: pick,
	})
}

func TestOpenOrCloneBuildsTree(t *testing.T) {
	remote := &stubRemote{files: []string{
		"Go.gitignore",
		"Rust.gitignore",
		"README.md",
		"Global/Windows.gitignore",
		"community/Golang/Hugo.gitignore",
	}}

	c, err := openTestCache(t, remote, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, remote.clones)

	names := make([]string, 0)
	for _, tmpl := range c.ListTemplates() {
		names = append(names, tmpl.QualifiedName())
	}
	assert.Equal(t, []string{"Go", "Rust", "community/Golang/Hugo", "Global/Windows"}, names)
	assert.Equal(t, filepath.Base(c.Mirror().Dir()), c.Root().Name())

	tmpl, ok := c.FindTemplate("hugo")
	require.True(t, ok)
	assert.Equal(t, filepath.Join(c.Mirror().Dir(), "community", "Golang", "Hugo.gitignore"), tmpl.Path())

	_, ok = c.FindTemplate("Python")
	assert.False(t, ok)
}

func TestOpenOrCloneReusesMirror(t *testing.T) {
	remote := &stubRemote{files: []string{"Go.gitignore"}}
	root := filepath.Join(t.TempDir(), "cache")
	opts := Options{Mirror: mirror.Options{CacheRoot: root, Git: remote}}

	_, err := OpenOrClone(context.Background(), opts)
	require.NoError(t, err)
	_, err = OpenOrClone(context.Background(), opts)
	require.NoError(t, err)

	assert.Equal(t, 1, remote.clones)
}

func TestOpenOrCloneFailsWithoutMirror(t *testing.T) {
	remote := &stubRemote{cloneErr: errors.New("offline")}

	_, err := openTestCache(t, remote, nil)
	require.Error(t, err)
	assert.True(t, mirror.IsSyncError(err))
}

func TestPickTemplateDelegates(t *testing.T) {
	remote := &stubRemote{files: []string{"Go.gitignore", "Node.gitignore"}}

	var seen *templates.Folder
	pick := func(root *templates.Folder) (templates.Template, bool, error) {
		seen = root
		tmpl, ok := root.FindTemplate("Node", ".gitignore")
		return tmpl, ok, nil
	}

	c, err := openTestCache(t, remote, pick)
	require.NoError(t, err)

	tmpl, ok, err := c.PickTemplate()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Node", tmpl.Name())
	assert.Same(t, c.Root(), seen)
}

func TestPickTemplateCancelled(t *testing.T) {
	remote := &stubRemote{files: []string{"Go.gitignore"}}
	cancelled := func(*templates.Folder) (templates.Template, bool, error) {
		return templates.Template{}, false, nil
	}

	c, err := openTestCache(t, remote, cancelled)
	require.NoError(t, err)

	tmpl, ok, err := c.PickTemplate()
	require.NoError(t, err)
	assert.False(t, ok)
	assert.True(t, tmpl.IsZero())
}
