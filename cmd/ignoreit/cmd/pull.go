package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tormodhaugland/ignoreit/internal/output"
	"github.com/tormodhaugland/ignoreit/internal/templates"
	"github.com/tormodhaugland/ignoreit/internal/tui"
)

var (
	pullOutput      string
	pullAppend      bool
	pullOverwrite   bool
	pullNoOverwrite bool
	pullBackup      bool
)

var pullCmd = &cobra.Command{
	Use:   "pull [template]",
	Short: "Write a template to .gitignore",
	Long: `Writes a template from the mirror to .gitignore (or --output).

Without a template name an interactive picker opens. Names match
case-insensitively and may include the category, e.g. Global/macOS.
Use --output - to print the template to stdout.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		strategy, err := output.StrategyFromFlags(pullAppend, pullOverwrite, pullNoOverwrite, pullBackup)
		if err != nil {
			return err
		}

		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		c, err := openCache(cmd.Context(), cfg)
		if err != nil {
			return err
		}

		var tmpl templates.Template
		if len(args) == 1 {
			var ok bool
			tmpl, ok = c.FindTemplate(args[0])
			if !ok {
				return fmt.Errorf("template not found: %s (run 'ignoreit list' to see what is available)", args[0])
			}
		} else {
			var ok bool
			tmpl, ok, err = c.PickTemplate()
			if err != nil {
				return fmt.Errorf("failed to run picker: %w", err)
			}
			if !ok {
				fmt.Fprintln(cmd.ErrOrStderr(), "No template selected")
				return nil
			}
		}

		if pullOutput == "-" {
			data, err := tmpl.Read()
			if err != nil {
				return fmt.Errorf("failed to read template: %w", err)
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		}

		confirm := func(message string) (bool, error) {
			res, err := tui.RunConfirm(message, false)
			if err != nil {
				return false, err
			}
			return res.Confirmed, nil
		}
		if !tui.ShouldAnimate(os.Stdin) {
			confirm = nil
		}

		res, err := output.Write(tmpl, pullOutput, strategy, confirm)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		switch res.Action {
		case output.ActionSkip:
			fmt.Fprintf(out, "Left %s unchanged\n", res.Path)
		case output.ActionBackup:
			fmt.Fprintf(out, "Saved %s to %s and wrote %s\n", res.Path, res.BackupPath, tmpl.QualifiedName())
		case output.ActionAppend:
			fmt.Fprintf(out, "Appended %s to %s (%d new lines)\n", tmpl.QualifiedName(), res.Path, res.LinesAdded)
		default:
			fmt.Fprintf(out, "Wrote %s to %s\n", tmpl.QualifiedName(), res.Path)
		}
		return nil
	},
}

func init() {
	pullCmd.Flags().StringVarP(&pullOutput, "output", "o", ".gitignore", "file to write the template to (- for stdout)")
	pullCmd.Flags().BoolVar(&pullAppend, "append", false, "append missing lines to an existing file")
	pullCmd.Flags().BoolVar(&pullOverwrite, "overwrite", false, "replace an existing file")
	pullCmd.Flags().BoolVar(&pullNoOverwrite, "no-overwrite", false, "leave an existing file untouched")
	pullCmd.Flags().BoolVar(&pullBackup, "backup", false, "copy an existing file to .bak before replacing it")
	pullCmd.MarkFlagsMutuallyExclusive("append", "overwrite", "no-overwrite", "backup")
	rootCmd.AddCommand(pullCmd)
}
