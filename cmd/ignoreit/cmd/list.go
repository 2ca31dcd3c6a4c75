package cmd

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/tormodhaugland/ignoreit/internal/templates"
)

var (
	listCategory string
	listPaths    bool
)

type templateEntry struct {
	Name     string `json:"name" yaml:"name"`
	Category string `json:"category" yaml:"category"`
	Path     string `json:"path" yaml:"path"`
}

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List available templates",
	Long:    `Lists every template in the mirror, depth first, with its category.`,
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		c, err := openCache(cmd.Context(), cfg)
		if err != nil {
			return err
		}

		entries := toEntries(filterByCategory(c.ListTemplates(), listCategory))

		out := cmd.OutOrStdout()
		if ok, err := writeStructured(out, entries); ok {
			return err
		}

		if len(entries) == 0 {
			fmt.Fprintln(out, "No templates found")
			return nil
		}

		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		if listPaths {
			fmt.Fprintln(w, "NAME\tCATEGORY\tPATH")
		} else {
			fmt.Fprintln(w, "NAME\tCATEGORY")
		}
		for _, e := range entries {
			if listPaths {
				fmt.Fprintf(w, "%s\t%s\t%s\n", e.Name, e.Category, e.Path)
			} else {
				fmt.Fprintf(w, "%s\t%s\n", e.Name, e.Category)
			}
		}
		w.Flush()

		fmt.Fprintf(out, "\n%d templates. Pull one with: ignoreit pull <name>\n", len(entries))
		return nil
	},
}

// filterByCategory keeps templates whose category starts with prefix,
// compared case-insensitively. "root" selects top-level templates.
func filterByCategory(ts []templates.Template, prefix string) []templates.Template {
	if prefix == "" {
		return ts
	}

	var result []templates.Template
	for _, t := range ts {
		cat := t.Category()
		if strings.EqualFold(prefix, "root") {
			if cat.IsRoot() {
				result = append(result, t)
			}
			continue
		}
		if !cat.IsRoot() && strings.HasPrefix(strings.ToLower(cat.String()), strings.ToLower(prefix)) {
			result = append(result, t)
		}
	}
	return result
}

func toEntries(ts []templates.Template) []templateEntry {
	entries := make([]templateEntry, len(ts))
	for i, t := range ts {
		entries[i] = templateEntry{Name: t.Name(), Category: t.Category().String(), Path: t.Path()}
	}
	return entries
}

func init() {
	listCmd.Flags().StringVar(&listCategory, "category", "", "only list templates in this category (root for top level)")
	listCmd.Flags().BoolVar(&listPaths, "paths", false, "show the file path of each template")
	rootCmd.AddCommand(listCmd)
}
