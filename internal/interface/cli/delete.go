package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var deletePurge bool

var deleteCmd = &cobra.Command{
	Use:   "delete <session-id>...",
	Short: "Delete sessions",
	Long: `Delete session metadata. The transcript document stays until the next
reconcile pass prunes it, or right away with --purge.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runDelete,
}

func init() {
	rootCmd.AddCommand(deleteCmd)
	deleteCmd.Flags().BoolVar(&deletePurge, "purge", false, "Also delete the transcript document")
}

func runDelete(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	database, err := openDB()
	if err != nil {
		return err
	}
	defer func() {
		_ = database.Close()
	}()

	for _, id := range args {
		if err := database.DeleteSession(ctx, id); err != nil {
			return fmt.Errorf("failed to delete session %s: %w", id, err)
		}
		if deletePurge {
			if err := database.DeleteTranscript(ctx, id); err != nil {
				return fmt.Errorf("failed to delete transcript %s: %w", id, err)
			}
		}
		fmt.Printf("Deleted %s\n", id)
	}
	return nil
}
