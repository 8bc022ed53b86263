package cli

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/NaviAgent/aisuckhoe-webchat/internal/core/daemon"
	"github.com/NaviAgent/aisuckhoe-webchat/internal/core/importer"
	"github.com/NaviAgent/aisuckhoe-webchat/internal/core/reconcile"
)

var (
	watchProfile     string
	watchNoReconcile bool
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Import inbox files and reconcile in the foreground",
	Long: `Watch the inbox directory and import every .jsonl transcript dropped into
it. A reconciliation pass runs every reconcile_interval (config.toml).

Stop with Ctrl-C. 'webchat watch pause' suspends imports without stopping
the watcher.`,
	RunE: runWatch,
}

var watchPauseCmd = &cobra.Command{
	Use:   "pause",
	Short: "Pause inbox imports (reconciliation continues)",
	RunE:  runWatchPause,
}

var watchResumeCmd = &cobra.Command{
	Use:   "resume",
	Short: "Resume inbox imports",
	RunE:  runWatchResume,
}

func init() {
	rootCmd.AddCommand(watchCmd)
	watchCmd.AddCommand(watchPauseCmd)
	watchCmd.AddCommand(watchResumeCmd)

	watchCmd.Flags().StringVarP(&watchProfile, "profile", "p", "", "Profile for files that do not name one")
	watchCmd.Flags().BoolVar(&watchNoReconcile, "no-reconcile", false, "Only import, never reconcile")
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	database, err := openDB()
	if err != nil {
		return err
	}
	defer func() {
		_ = database.Close()
	}()

	profileID, err := resolveProfile(cmd, database, watchProfile)
	if err != nil {
		return err
	}

	var rec *reconcile.Worker
	if !watchNoReconcile && cfg.ReconcileInterval > 0 {
		rec = reconcile.NewWorker(database, cfg.ReconcileInterval)
	}

	d, err := daemon.New(importer.New(database, cfg.OwnerID, profileID), rec, cfg.InboxDir)
	if err != nil {
		return err
	}

	fmt.Printf("Watching %s (Ctrl-C to stop)\n", cfg.InboxDir)
	if err := d.Start(ctx); err != nil {
		return err
	}

	st := d.Stats()
	fmt.Printf("Imported %d files, %d errors\n", st.FilesImported, st.Errors)
	return nil
}

func runWatchPause(cmd *cobra.Command, args []string) error {
	pauseFile := filepath.Join(cfg.InboxDir, daemon.PauseFileName)

	if err := os.MkdirAll(cfg.InboxDir, 0755); err != nil {
		return fmt.Errorf("failed to create inbox: %w", err)
	}
	if err := os.WriteFile(pauseFile, []byte("paused\n"), 0644); err != nil {
		return fmt.Errorf("failed to create pause file: %w", err)
	}

	fmt.Println("✓ Inbox imports paused")
	fmt.Println("  Use 'webchat watch resume' to resume")
	return nil
}

func runWatchResume(cmd *cobra.Command, args []string) error {
	pauseFile := filepath.Join(cfg.InboxDir, daemon.PauseFileName)

	if _, err := os.Stat(pauseFile); os.IsNotExist(err) {
		fmt.Println("Imports are not paused")
		return nil
	}
	if err := os.Remove(pauseFile); err != nil {
		return fmt.Errorf("failed to remove pause file: %w", err)
	}

	fmt.Println("✓ Inbox imports resumed")
	return nil
}
