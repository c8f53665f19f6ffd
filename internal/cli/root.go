package cli

import (
	"context"
	"fmt"
	"io/fs"

	"github.com/spf13/cobra"

	"github.com/Anika-Jha/Eterna/internal/config"
	"github.com/Anika-Jha/Eterna/internal/logging"
	"github.com/Anika-Jha/Eterna/internal/store"
)

var (
	configPath string
	serverURL  string

	// embeddedUI is the gallery bundled into the binary, if any.
	embeddedUI fs.FS
)

var rootCmd = &cobra.Command{
	Use:   "eterna",
	Short: "Archive of fading human memory",
	Long: "Eterna keeps recipes, skills, rituals and professions alive. Artifacts fade " +
		"over time unless people vote, stake or interact with them.",
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// SetUI registers the embedded gallery served by "eterna serve" when no
// static directory is configured.
func SetUI(fsys fs.FS) {
	embeddedUI = fsys
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to YAML config (default $ETERNA_CONFIG)")
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "", "Eterna server URL for remote commands (default $ETERNA_URL)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(sweepCmd)
	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(supportCmd)
	rootCmd.AddCommand(listCmd)
}

// loadConfig resolves configuration and installs the default logger.
func loadConfig() (config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return cfg, err
	}
	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		return cfg, fmt.Errorf("log level: %w", err)
	}
	logging.Init(level, cfg.Log.Format)
	return cfg, nil
}

// openDB opens the configured database for CLI commands.
func openDB(ctx context.Context, cfg config.Config) (*store.DB, error) {
	dsn := cfg.Database.DSN
	if cfg.Database.Driver != string(store.DialectPostgres) {
		dsn = cfg.Database.Path
		if dsn == "" {
			var err error
			dsn, err = store.DefaultDBPath()
			if err != nil {
				return nil, fmt.Errorf("resolve db path: %w", err)
			}
		}
	}
	db, err := store.Open(ctx, cfg.Database.Driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return db, nil
}
