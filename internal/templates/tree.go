package templates

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Load walks root and builds the folder tree. Files ending in ext become
// templates; hidden entries are skipped. Folders without any template in
// their subtree are pruned.
func Load(root, ext string) (*Folder, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("reading template root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("template root %s is not a directory", root)
	}

	folder, err := loadDir(root, nil, ext)
	if err != nil {
		return nil, err
	}
	folder.name = filepath.Base(root)
	folder.Prune()
	return folder, nil
}

func loadDir(dir string, components []string, ext string) (*Folder, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", dir, err)
	}

	folder := &Folder{}
	if len(components) > 0 {
		folder.name = components[len(components)-1]
	}

	category := NewCategory(components...)

	for _, entry := range entries {
		name := entry.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}

		path := filepath.Join(dir, name)

		if entry.IsDir() {
			child, err := loadDir(path, append(components[:len(components):len(components)], name), ext)
			if err != nil {
				return nil, err
			}
			folder.folders = append(folder.folders, child)
			continue
		}

		if !strings.HasSuffix(strings.ToLower(name), strings.ToLower(ext)) || len(name) == len(ext) {
			continue
		}
		folder.templates = append(folder.templates, NewTemplate(path, ext, category))
	}

	folder.sort()
	return folder, nil
}

// Prune removes child folders whose subtree holds no template. It works
// bottom-up, so a folder whose only children were empty is removed as well.
// It reports whether f itself still holds anything.
func (f *Folder) Prune() bool {
	kept := f.folders[:0]
	for _, child := range f.folders {
		if child.Prune() {
			kept = append(kept, child)
		}
	}
	for i := len(kept); i < len(f.folders); i++ {
		f.folders[i] = nil
	}
	f.folders = kept
	return len(f.templates) > 0 || len(f.folders) > 0
}

func (f *Folder) sort() {
	sort.SliceStable(f.templates, func(i, j int) bool {
		return LessName(f.templates[i].name, f.templates[j].name)
	})
	sort.SliceStable(f.folders, func(i, j int) bool {
		return LessName(f.folders[i].name, f.folders[j].name)
	})
}

// LessName orders case-insensitively, falling back to byte order for names
// that only differ in case. Every sorted listing uses it.
func LessName(a, b string) bool {
	la, lb := strings.ToLower(a), strings.ToLower(b)
	if la != lb {
		return la < lb
	}
	return a < b
}

// ListTemplates returns the templates directly inside f.
func (f *Folder) ListTemplates() []Template {
	return append([]Template(nil), f.templates...)
}

// ListFolders returns the folders directly inside f.
func (f *Folder) ListFolders() []*Folder {
	return append([]*Folder(nil), f.folders...)
}

// Items returns the child folders followed by the templates of f.
func (f *Folder) Items() []Item {
	items := make([]Item, 0, len(f.folders)+len(f.templates))
	for _, child := range f.folders {
		items = append(items, child)
	}
	for _, t := range f.templates {
		items = append(items, t)
	}
	return items
}

// IsEmpty reports whether f has no items.
func (f *Folder) IsEmpty() bool {
	return len(f.folders) == 0 && len(f.templates) == 0
}

// ListTemplatesRecursively flattens the subtree depth-first: the folder's own
// templates, then each child folder in order.
func (f *Folder) ListTemplatesRecursively() []Template {
	var out []Template
	f.walk(func(t Template) bool {
		out = append(out, t)
		return true
	})
	return out
}

func (f *Folder) walk(fn func(Template) bool) bool {
	for _, t := range f.templates {
		if !fn(t) {
			return false
		}
	}
	for _, child := range f.folders {
		if !child.walk(fn) {
			return false
		}
	}
	return true
}

// Count returns the number of templates in the subtree.
func (f *Folder) Count() int {
	n := 0
	f.walk(func(Template) bool {
		n++
		return true
	})
	return n
}

// FindTemplate looks up a template by name, ignoring case. The name may carry
// the template extension or a category prefix such as "Global/Windows".
func (f *Folder) FindTemplate(name, ext string) (Template, bool) {
	query := strings.TrimSpace(name)
	if ext != "" && strings.HasSuffix(strings.ToLower(query), strings.ToLower(ext)) && len(query) > len(ext) {
		query = query[:len(query)-len(ext)]
	}
	query = strings.Trim(filepath.ToSlash(query), "/")
	if query == "" {
		return Template{}, false
	}
	qualified := strings.Contains(query, "/")

	var found Template
	ok := false
	f.walk(func(t Template) bool {
		candidate := t.name
		if qualified {
			candidate = t.QualifiedName()
		}
		if strings.EqualFold(candidate, query) {
			found, ok = t, true
			return false
		}
		return true
	})
	return found, ok
}
