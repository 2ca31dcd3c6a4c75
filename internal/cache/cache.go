// Package cache is the entry point used by the commands: it brings the mirror
// up to date and exposes the template tree built from it.
package cache

import (
	"context"
	"fmt"

	"github.com/tormodhaugland/ignoreit/internal/mirror"
	"github.com/tormodhaugland/ignoreit/internal/templates"
	"github.com/tormodhaugland/ignoreit/internal/tui"
)

// PickFunc runs an interactive selection over root.
type PickFunc func(root *templates.Folder) (templates.Template, bool, error)

// Options configures OpenOrClone.
type Options struct {
	Mirror    mirror.Options
	Extension string

	// Progress shows a spinner on stderr while the mirror syncs.
	Progress bool

	// Pick overrides the interactive picker; nil uses tui.RunPicker.
	Pick PickFunc
}

// Cache is a synced mirror together with its template tree.
type Cache struct {
	mirror *mirror.Mirror
	root   *templates.Folder
	ext    string
	pick   PickFunc
}

// OpenOrClone returns a ready cache, cloning or refreshing the mirror as the
// staleness policy requires. The tree is built only after syncing finishes.
func OpenOrClone(ctx context.Context, opts Options) (*Cache, error) {
	if opts.Extension == "" {
		opts.Extension = ".gitignore"
	}
	if opts.Mirror.Extension == "" {
		opts.Mirror.Extension = opts.Extension
	}

	m, err := mirror.New(opts.Mirror)
	if err != nil {
		return nil, err
	}

	if opts.Progress {
		err = tui.RunWithSpinner(ctx, "Syncing templates", m.Init)
	} else {
		err = m.Init(ctx)
	}
	if err != nil {
		return nil, err
	}

	root, err := templates.Load(m.Dir(), opts.Extension)
	if err != nil {
		return nil, fmt.Errorf("failed to load templates: %w", err)
	}

	pick := opts.Pick
	if pick == nil {
		pick = tui.RunPicker
	}

	return &Cache{mirror: m, root: root, ext: opts.Extension, pick: pick}, nil
}

// Mirror returns the mirror backing the cache.
func (c *Cache) Mirror() *mirror.Mirror {
	return c.mirror
}

// Root returns the root folder of the template tree.
func (c *Cache) Root() *templates.Folder {
	return c.root
}

// PickTemplate runs the interactive picker. ok is false when the user cancels.
func (c *Cache) PickTemplate() (templates.Template, bool, error) {
	return c.pick(c.root)
}

// FindTemplate looks a template up by name without any interaction.
func (c *Cache) FindTemplate(name string) (templates.Template, bool) {
	return c.root.FindTemplate(name, c.ext)
}

// ListTemplates returns every template in the tree, depth first.
func (c *Cache) ListTemplates() []templates.Template {
	return c.root.ListTemplatesRecursively()
}
