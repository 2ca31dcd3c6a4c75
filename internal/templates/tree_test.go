package templates

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

const ext = ".gitignore"

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// writeMirror creates files (relative path -> content) under a fresh root.
func writeMirror(t *testing.T, files ...string) string {
	t.Helper()
	root := filepath.Join(t.TempDir(), "templates")
	require.NoError(t, os.MkdirAll(root, 0o755))
	for _, rel := range files {
		full := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
		require.NoError(t, os.WriteFile(full, []byte("# "+rel+"\n"), 0o644))
	}
	return root
}

func names(ts []Template) []string {
	out := make([]string, len(ts))
	for i, t := range ts {
		out[i] = t.Name()
	}
	return out
}

func folderNames(fs []*Folder) []string {
	out := make([]string, len(fs))
	for i, f := range fs {
		out[i] = f.Name()
	}
	return out
}

func TestLoadBuildsHierarchy(t *testing.T) {
	root := writeMirror(t,
		"Rust.gitignore",
		"Go.gitignore",
		"node.gitignore",
		"README.md",
		"Global/Windows.gitignore",
		"Global/macOS.gitignore",
		"community/JavaScript/Vue.gitignore",
	)

	tree, err := Load(root, ext)
	require.NoError(t, err)

	assert.Equal(t, "templates", tree.Name())
	assert.Equal(t, []string{"Go", "node", "Rust"}, names(tree.ListTemplates()))
	assert.Equal(t, []string{"community", "Global"}, folderNames(tree.ListFolders()))

	global := tree.ListFolders()[1]
	assert.Equal(t, []string{"macOS", "Windows"}, names(global.ListTemplates()))
	for _, tmpl := range global.ListTemplates() {
		assert.Equal(t, []string{"Global"}, tmpl.Category().Components())
	}

	vue := tree.ListFolders()[0].ListFolders()[0].ListTemplates()[0]
	assert.Equal(t, "Vue", vue.Name())
	assert.Equal(t, NewCategory("community", "JavaScript"), vue.Category())
	assert.Equal(t, filepath.Join(root, "community", "JavaScript", "Vue.gitignore"), vue.Path())

	for _, tmpl := range tree.ListTemplates() {
		assert.True(t, tmpl.Category().IsRoot())
	}
}

func TestLoadSkipsHiddenEntries(t *testing.T) {
	root := writeMirror(t,
		"Go.gitignore",
		".git/config.gitignore",
		".github/workflows/ci.gitignore",
		".hidden.gitignore",
	)

	tree, err := Load(root, ext)
	require.NoError(t, err)

	assert.Equal(t, []string{"Go"}, names(tree.ListTemplatesRecursively()))
	assert.Empty(t, tree.ListFolders())
}

func TestLoadPrunesEmptyBranches(t *testing.T) {
	root := writeMirror(t,
		"Go.gitignore",
		"docs/README.md",
		"a/b/c/notes.txt",
		"keep/deep/Node.gitignore",
	)
	require.NoError(t, os.MkdirAll(filepath.Join(root, "empty", "nested"), 0o755))

	tree, err := Load(root, ext)
	require.NoError(t, err)

	assert.Equal(t, []string{"keep"}, folderNames(tree.ListFolders()))
	assert.Equal(t, []string{"deep"}, folderNames(tree.ListFolders()[0].ListFolders()))
	assertNoDeadEnds(t, tree)
}

func assertNoDeadEnds(t *testing.T, f *Folder) {
	t.Helper()
	for _, child := range f.ListFolders() {
		assert.NotEmpty(t, child.Items(), "folder %q has no items", child.Name())
		assert.Positive(t, child.Count(), "folder %q has no templates beneath it", child.Name())
		assertNoDeadEnds(t, child)
	}
}

func TestPruneBottomUp(t *testing.T) {
	leafless := NewFolder("outer", []*Folder{
		NewFolder("middle", []*Folder{NewFolder("inner", nil, nil)}, nil),
	}, nil)
	keep := NewFolder("keep", nil, []Template{NewTemplate("/m/keep/Go.gitignore", ext, NewCategory("keep"))})

	root := NewFolder("root", []*Folder{leafless, keep}, nil)
	assert.True(t, root.Prune())
	assert.Equal(t, []string{"keep"}, folderNames(root.ListFolders()))

	empty := NewFolder("root", []*Folder{NewFolder("x", nil, nil)}, nil)
	assert.False(t, empty.Prune())
	assert.True(t, empty.IsEmpty())
}

func TestItemsFoldersFirst(t *testing.T) {
	root := writeMirror(t, "Zig.gitignore", "Ada.gitignore", "Global/Windows.gitignore")

	tree, err := Load(root, ext)
	require.NoError(t, err)

	items := tree.Items()
	require.Len(t, items, 3)

	var kinds []string
	for _, item := range items {
		switch item.(type) {
		case *Folder:
			kinds = append(kinds, "folder:"+item.Name())
		case Template:
			kinds = append(kinds, "template:"+item.Name())
		}
	}
	assert.Equal(t, []string{"folder:Global", "template:Ada", "template:Zig"}, kinds)
}

func TestListTemplatesRecursivelyDepthFirst(t *testing.T) {
	root := writeMirror(t,
		"Go.gitignore",
		"Global/Windows.gitignore",
		"Global/Editors/Vim.gitignore",
		"community/Vue.gitignore",
	)

	tree, err := Load(root, ext)
	require.NoError(t, err)

	assert.Equal(t, []string{"Go", "Vue", "Windows", "Vim"}, names(tree.ListTemplatesRecursively()))
	assert.Equal(t, 4, tree.Count())
}

func TestFindTemplate(t *testing.T) {
	root := writeMirror(t,
		"Go.gitignore",
		"Node.gitignore",
		"Global/Windows.gitignore",
		"community/Windows.gitignore",
	)

	tree, err := Load(root, ext)
	require.NoError(t, err)

	tests := []struct {
		query    string
		found    bool
		category string
	}{
		{"go", true, "Root"},
		{"GO", true, "Root"},
		{"node.gitignore", true, "Root"},
		{"windows", true, "community"},
		{"community/windows", true, "community"},
		{"Global/Windows.gitignore", true, "Global"},
		{"Rust", false, ""},
		{"", false, ""},
		{"wind", false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			tmpl, ok := tree.FindTemplate(tt.query, ext)
			assert.Equal(t, tt.found, ok)
			if tt.found {
				assert.Equal(t, tt.category, tmpl.Category().String())
			} else {
				assert.True(t, tmpl.IsZero())
			}
		})
	}
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing"), ext)
	assert.Error(t, err)

	file := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(file, nil, 0o644))
	_, err = Load(file, ext)
	assert.Error(t, err)
}

func TestTemplateAccessors(t *testing.T) {
	tmpl := NewTemplate("/mirror/Global/Node.js.gitignore", ext, NewCategory("Global"))

	assert.Equal(t, "Node.js", tmpl.Name())
	assert.Equal(t, "Global/Node.js", tmpl.QualifiedName())
	assert.Equal(t, "Global", tmpl.Category().String())
	assert.Equal(t, "Root", Root.String())

	data, err := json.Marshal(tmpl)
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"Node.js","path":"/mirror/Global/Node.js.gitignore","category":["Global"]}`, string(data))
}

func TestTemplateRead(t *testing.T) {
	root := writeMirror(t, "Go.gitignore")
	tree, err := Load(root, ext)
	require.NoError(t, err)

	tmpl, ok := tree.FindTemplate("Go", ext)
	require.True(t, ok)

	data, err := tmpl.Read()
	require.NoError(t, err)
	assert.Equal(t, "# Go.gitignore\n", string(data))
}

func TestCategoryComponentsIsCopy(t *testing.T) {
	c := NewCategory("a", "b")
	comps := c.Components()
	comps[0] = "mutated"
	assert.Equal(t, "a/b", c.String())
	assert.True(t, c.Equal(NewCategory("a", "b")))
	assert.False(t, c.Equal(NewCategory("a")))
}
