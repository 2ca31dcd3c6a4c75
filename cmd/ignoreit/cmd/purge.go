package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var purgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Delete the local template mirror",
	Long:  `Removes the mirrored templates. The next command clones them again.`,
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

		existed, err := m.Purge()
		if err != nil {
			return fmt.Errorf("failed to purge cache: %w", err)
		}
		if !existed {
			fmt.Fprintln(cmd.OutOrStdout(), "No cache to purge.")
			return nil
		}

		if cfg.LastUpdate != 0 {
			cfg.LastUpdate = 0
			if err := cfg.Save(); err != nil {
				return fmt.Errorf("failed to save config: %w", err)
			}
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", m.Dir())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(purgeCmd)
}
