package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/tormodhaugland/ignoreit/internal/config"
	"github.com/tormodhaugland/ignoreit/internal/git"
	"github.com/tormodhaugland/ignoreit/internal/mirror"
	"github.com/tormodhaugland/ignoreit/internal/templates"
)

type statusView struct {
	Dir        string `json:"dir" yaml:"dir"`
	Exists     bool   `json:"exists" yaml:"exists"`
	Remote     string `json:"remote" yaml:"remote"`
	Branch     string `json:"branch" yaml:"branch"`
	Revision   string `json:"revision,omitempty" yaml:"revision,omitempty"`
	LastCommit string `json:"last_commit,omitempty" yaml:"last_commit,omitempty"`
	SyncedAt   string `json:"synced_at,omitempty" yaml:"synced_at,omitempty"`
	Age        string `json:"age,omitempty" yaml:"age,omitempty"`
	MaxAge     string `json:"max_age" yaml:"max_age"`
	Stale      bool   `json:"stale" yaml:"stale"`
	Templates  int    `json:"templates" yaml:"templates"`
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show where the mirror lives and when it was last synced",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		m, err := newMirror(cfg)
		if err != nil {
			return err
		}

		view := buildStatus(cfg, m)

		out := cmd.OutOrStdout()
		if ok, err := writeStructured(out, view); ok {
			return err
		}

		fmt.Fprintf(out, "Mirror:    %s\n", view.Dir)
		fmt.Fprintf(out, "Remote:    %s (%s)\n", view.Remote, view.Branch)
		if !view.Exists {
			fmt.Fprintln(out, "State:     not cloned yet")
			return nil
		}
		if view.Revision != "" {
			fmt.Fprintf(out, "Revision:  %s\n", shortRev(view.Revision))
		}
		if view.LastCommit != "" {
			fmt.Fprintf(out, "Commit:    %s\n", view.LastCommit)
		}
		if view.SyncedAt != "" {
			fmt.Fprintf(out, "Synced:    %s (%s ago)\n", view.SyncedAt, view.Age)
		}
		state := "fresh"
		if view.Stale {
			state = "stale (refreshes on next use)"
		}
		fmt.Fprintf(out, "State:     %s, max age %s\n", state, view.MaxAge)
		fmt.Fprintf(out, "Templates: %d\n", view.Templates)
		return nil
	},
}

// buildStatus gathers what status and refresh report about the mirror.
func buildStatus(cfg *config.Config, m *mirror.Mirror) statusView {
	st := m.Status()
	view := statusView{
		Dir:    st.Dir,
		Exists: st.Exists,
		Remote: cfg.RemoteURL,
		Branch: cfg.Branch,
		MaxAge: cfg.MaxAgeDuration().String(),
		Stale:  st.Expired,
	}

	if st.Exists {
		view.Revision = st.Revision
		if !st.SyncedAt.IsZero() {
			view.SyncedAt = st.SyncedAt.Format(time.RFC3339)
			view.Age = st.Age.Truncate(time.Second).String()
		}
		if info, err := git.GetInfo(st.Dir); err == nil && !info.LastCommit.IsZero() {
			view.LastCommit = info.LastCommit.Format("2006-01-02 15:04")
		}
		if c, err := countTemplates(st.Dir, cfg.Extension); err == nil {
			view.Templates = c
		}
	}
	return view
}

func countTemplates(dir, ext string) (int, error) {
	root, err := templates.Load(dir, ext)
	if err != nil {
		return 0, err
	}
	return root.Count(), nil
}

func shortRev(rev string) string {
	if len(rev) > 7 {
		return rev[:7]
	}
	return rev
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
