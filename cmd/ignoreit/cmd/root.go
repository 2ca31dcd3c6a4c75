package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/tormodhaugland/ignoreit/internal/cache"
	"github.com/tormodhaugland/ignoreit/internal/config"
	"github.com/tormodhaugland/ignoreit/internal/git"
	"github.com/tormodhaugland/ignoreit/internal/logging"
	"github.com/tormodhaugland/ignoreit/internal/mirror"
)

var (
	cfgFile    string
	jsonOut    bool
	yamlOut    bool
	offline    bool
	verbose    bool
	noProgress bool
)

var rootCmd = &cobra.Command{
	Use:   "ignoreit",
	Short: "Pull .gitignore templates from a local mirror of github/gitignore",
	Long: `ignoreit keeps a local mirror of the github/gitignore template
collection, refreshes it once a day, and lets you browse it with a fuzzy
finder or pull a template by name.

Run 'ignoreit pull' without a name to pick a template interactively.`,
	SilenceUsage: true,
}

func Execute() error {
	defer logging.Sync()
	err := rootCmd.Execute()
	if err != nil {
		// cobra has already printed usage errors; runtime errors need a line too.
		fmt.Fprintln(os.Stderr, "Error:", err)
	}
	return err
}

func init() {
	rootCmd.SilenceErrors = true
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ~/.config/ignoreit/config.json)")
	rootCmd.PersistentFlags().BoolVar(&jsonOut, "json", false, "output in JSON format")
	rootCmd.PersistentFlags().BoolVar(&yamlOut, "yaml", false, "output in YAML format")
	rootCmd.PersistentFlags().BoolVar(&offline, "offline", false, "never touch the network; use the mirror as it is")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log sync decisions")
	rootCmd.PersistentFlags().BoolVar(&noProgress, "no-progress", false, "do not show a spinner while syncing")
	rootCmd.MarkFlagsMutuallyExclusive("json", "yaml")
}

// loadConfig reads the config file and sets up logging from it.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	level := cfg.LogLevel
	if verbose {
		level = "debug"
	}
	logging.Init(logging.Config{Level: level})

	return cfg, nil
}

func mirrorOptions(cfg *config.Config) mirror.Options {
	return mirror.Options{
		CacheRoot:   cfg.CacheRoot(),
		RemoteURL:   cfg.RemoteURL,
		Branch:      cfg.Branch,
		Extension:   cfg.Extension,
		MaxAge:      cfg.MaxAgeDuration(),
		CheckRemote: cfg.CheckRemote,
		Offline:     offline,
		Git:         git.NewClient(),
		Logger:      logging.L(),
	}
}

func newMirror(cfg *config.Config) (*mirror.Mirror, error) {
	m, err := mirror.New(mirrorOptions(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to locate template mirror: %w", err)
	}
	return m, nil
}

// openCache syncs the mirror as needed and loads the template tree.
func openCache(ctx context.Context, cfg *config.Config) (*cache.Cache, error) {
	c, err := cache.OpenOrClone(ctx, cache.Options{
		Mirror:    mirrorOptions(cfg),
		Extension: cfg.Extension,
		Progress:  !noProgress && !jsonOut && !yamlOut,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open template cache: %w", err)
	}

	recordSync(cfg, c.Mirror())
	return c, nil
}

// recordSync copies the mirror's last sync point into the config file.
func recordSync(cfg *config.Config, m *mirror.Mirror) {
	st := m.Status()
	if !st.Exists || st.SyncedAt.IsZero() || st.SyncedAt.UnixMilli() == cfg.LastUpdate {
		return
	}

	cfg.MarkSynced(st.SyncedAt)
	if err := cfg.Save(); err != nil {
		logging.L().Debug("could not record sync time", zap.String("config", cfg.Path()), zap.Error(err))
	}
}

// writeStructured encodes v as JSON or YAML depending on the global flags.
// It reports false when neither was requested.
func writeStructured(w io.Writer, v any) (bool, error) {
	switch {
	case jsonOut:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return true, enc.Encode(v)
	case yamlOut:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return true, err
		}
		return true, enc.Close()
	}
	return false, nil
}
