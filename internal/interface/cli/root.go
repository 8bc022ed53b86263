package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/NaviAgent/aisuckhoe-webchat/internal/core/config"
	"github.com/NaviAgent/aisuckhoe-webchat/internal/core/db"
	"github.com/NaviAgent/aisuckhoe-webchat/internal/core/logging"
)

var (
	dbPath      string
	configPath  string
	verbose     bool
	versionInfo string

	cfg = config.Default()
)

// SetVersion sets the version information from build-time ldflags
func SetVersion(version, commit, date string) {
	versionInfo = fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date)
	rootCmd.Version = versionInfo
}

// Execute runs the CLI
func Execute() {
	err := rootCmd.Execute()
	logging.Sync()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "webchat",
	Short: "Chat history manager",
	Long: `webchat - keep chat sessions, transcripts and the chat widget in sync

Sessions belong to profiles. Metadata lives in SQLite next to one transcript
document per session; the history list groups sessions by age and supports
inline rename and delete.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := logging.Init(verbose); err != nil {
			return fmt.Errorf("failed to init logging: %w", err)
		}
		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		cfg = loaded
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		// Default to TUI if no subcommand specified
		return tuiCmd.RunE(cmd, args)
	},
}

func init() {
	defaultDB := filepath.Join(config.Dir(), "webchat.db")

	rootCmd.PersistentFlags().StringVar(&dbPath, "db", defaultDB, "Database path")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default ~/.config/webchat/config.toml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Debug logging to stderr")
}

func openDB() (*db.DB, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}
	database, err := db.New(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return database, nil
}

// resolveProfile picks the --profile flag, then the configured default, then
// the owner's only profile
func resolveProfile(cmd *cobra.Command, database *db.DB, flag string) (string, error) {
	if flag != "" {
		return flag, nil
	}
	if cfg.DefaultProfile != "" {
		return cfg.DefaultProfile, nil
	}
	profiles, err := database.ListProfiles(cmd.Context(), cfg.OwnerID)
	if err != nil {
		return "", fmt.Errorf("failed to list profiles: %w", err)
	}
	switch len(profiles) {
	case 0:
		return "", fmt.Errorf("no profiles yet, create one with 'webchat profile add <name>'")
	case 1:
		return profiles[0].ID, nil
	default:
		return "", fmt.Errorf("%d profiles found, pick one with --profile", len(profiles))
	}
}
