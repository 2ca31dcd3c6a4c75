// Package templates builds the in-memory folder/template model of a mirror.
package templates

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
)

// Category locates a template under the mirror root. The zero value is Root.
type Category struct {
	components []string
}

// Root is the category of templates stored directly in the mirror root.
var Root = Category{}

func NewCategory(components ...string) Category {
	if len(components) == 0 {
		return Root
	}
	c := make([]string, len(components))
	copy(c, components)
	return Category{components: c}
}

func (c Category) IsRoot() bool { return len(c.components) == 0 }

// Components returns a copy of the folder names from the root down.
func (c Category) Components() []string {
	out := make([]string, len(c.components))
	copy(out, c.components)
	return out
}

func (c Category) String() string {
	if c.IsRoot() {
		return "Root"
	}
	return strings.Join(c.components, "/")
}

func (c Category) Equal(other Category) bool {
	if len(c.components) != len(other.components) {
		return false
	}
	for i := range c.components {
		if c.components[i] != other.components[i] {
			return false
		}
	}
	return true
}

// Template is a single selectable file in the mirror. Values are immutable;
// a changed mirror means a rebuilt tree.
type Template struct {
	name     string
	path     string
	category Category
}

// NewTemplate derives the template name from the file stem of path.
func NewTemplate(path, ext string, category Category) Template {
	base := filepath.Base(path)
	name := base
	if ext != "" && strings.HasSuffix(strings.ToLower(base), strings.ToLower(ext)) && len(base) > len(ext) {
		name = base[:len(base)-len(ext)]
	}
	return Template{name: name, path: path, category: category}
}

func (t Template) Name() string         { return t.name }
func (t Template) Path() string         { return t.path }
func (t Template) Category() Category   { return t.category }
func (t Template) IsZero() bool         { return t.path == "" && t.name == "" }
func (t Template) Read() ([]byte, error) { return os.ReadFile(t.path) }

// QualifiedName is the category path joined with the name, e.g. "Global/Windows".
func (t Template) QualifiedName() string {
	if t.category.IsRoot() {
		return t.name
	}
	return t.category.String() + "/" + t.name
}

func (t Template) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Name     string   `json:"name"`
		Path     string   `json:"path"`
		Category []string `json:"category"`
	}{
		Name:     t.name,
		Path:     t.path,
		Category: t.category.Components(),
	})
}

func (t Template) isItem() {}

// Folder is a directory node. A folder owns its children.
type Folder struct {
	name      string
	templates []Template
	folders   []*Folder
}

// NewFolder builds a folder from already constructed children. The children
// are sorted; empty subtrees are kept until Prune is called.
func NewFolder(name string, folders []*Folder, templates []Template) *Folder {
	f := &Folder{
		name:      name,
		templates: append([]Template(nil), templates...),
		folders:   append([]*Folder(nil), folders...),
	}
	f.sort()
	return f
}

func (f *Folder) Name() string { return f.name }
func (f *Folder) isItem()      {}

// Item is either a *Folder or a Template.
type Item interface {
	Name() string
	isItem()
}

var (
	_ Item = (*Folder)(nil)
	_ Item = Template{}
)
