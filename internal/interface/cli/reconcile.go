package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/NaviAgent/aisuckhoe-webchat/internal/core/reconcile"
)

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Repair drift between session metadata and transcripts",
	Long: `Run one reconciliation pass. Message counts and activity times are
recomputed from transcript documents where they lag behind, and transcripts
whose session was deleted are pruned.`,
	RunE: runReconcile,
}

func init() {
	rootCmd.AddCommand(reconcileCmd)
}

func runReconcile(cmd *cobra.Command, args []string) error {
	database, err := openDB()
	if err != nil {
		return err
	}
	defer func() {
		_ = database.Close()
	}()

	w := reconcile.NewWorker(database, cfg.ReconcileInterval)
	report, err := w.Run(cmd.Context())
	if err != nil {
		return fmt.Errorf("reconcile failed: %w", err)
	}

	fmt.Printf("Checked:  %d\n", report.Checked)
	fmt.Printf("Repaired: %d\n", report.Repaired)
	fmt.Printf("Pruned:   %d\n", report.Pruned)
	if report.Failed > 0 {
		fmt.Printf("Failed:   %d (see log)\n", report.Failed)
	}
	return nil
}
