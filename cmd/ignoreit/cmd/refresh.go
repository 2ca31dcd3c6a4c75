package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tormodhaugland/ignoreit/internal/tui"
)

var refreshForce bool

var refreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Update the mirror now, regardless of its age",
	Long: `Fetches the latest templates into the mirror. A missing mirror is
cloned; with --force the mirror is deleted and cloned from scratch.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if offline {
			return fmt.Errorf("refresh needs the network; drop --offline")
		}

		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		m, err := newMirror(cfg)
		if err != nil {
			return err
		}

		if refreshForce {
			if _, err := m.Purge(); err != nil {
				return err
			}
		}

		run := m.Refresh
		if !m.Exists() {
			run = m.Init
		}

		if noProgress || jsonOut || yamlOut {
			err = run(cmd.Context())
		} else {
			err = tui.RunWithSpinner(cmd.Context(), "Refreshing templates", run)
		}
		if err != nil {
			return fmt.Errorf("failed to refresh templates: %w", err)
		}

		recordSync(cfg, m)

		view := buildStatus(cfg, m)
		out := cmd.OutOrStdout()
		if ok, err := writeStructured(out, view); ok {
			return err
		}
		fmt.Fprintf(out, "Mirror at %s is at %s (%d templates)\n", view.Dir, shortRev(view.Revision), view.Templates)
		return nil
	},
}

func init() {
	refreshCmd.Flags().BoolVar(&refreshForce, "force", false, "delete the mirror and clone it again")
	rootCmd.AddCommand(refreshCmd)
}
