package cli

import (
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show database statistics",
	Long: `Display statistics about the webchat database.

Shows profile, session and message counts, date ranges, transcripts left
behind by deleted sessions, and storage info.`,
	RunE: runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, args []string) error {
	database, err := openDB()
	if err != nil {
		return err
	}
	defer func() {
		_ = database.Close()
	}()

	stats, err := database.GetStats(cmd.Context(), cfg.OwnerID)
	if err != nil {
		return fmt.Errorf("failed to get stats: %w", err)
	}

	fmt.Println("Database Statistics")
	fmt.Println("===================")
	fmt.Println()

	fmt.Printf("Profiles:          %s\n", humanize.Comma(int64(stats.TotalProfiles)))
	fmt.Printf("Sessions:          %s\n", humanize.Comma(int64(stats.TotalSessions)))
	fmt.Printf("Messages:          %s\n", humanize.Comma(int64(stats.TotalMessages)))
	fmt.Printf("Transcripts:       %s\n", humanize.Comma(int64(stats.TotalTranscripts)))
	if stats.OrphanTranscripts > 0 {
		fmt.Printf("  Orphaned:        %d (run 'webchat reconcile' to prune)\n", stats.OrphanTranscripts)
	}
	fmt.Println()

	// Date range (only if we have sessions)
	if stats.TotalSessions > 0 {
		if !stats.OldestSession.IsZero() {
			fmt.Printf("Oldest Session:    %s (%s)\n",
				stats.OldestSession.Format("Jan 2, 2006 3:04 PM"), humanize.Time(stats.OldestSession))
		}
		if !stats.NewestActivity.IsZero() {
			fmt.Printf("Newest Activity:   %s (%s)\n",
				stats.NewestActivity.Format("Jan 2, 2006 3:04 PM"), humanize.Time(stats.NewestActivity))
		}
		fmt.Println()

		if stats.MostActiveProfile != "" {
			fmt.Printf("Most Active Profile:\n")
			fmt.Printf("  Name:     %s\n", stats.MostActiveProfile)
			fmt.Printf("  Sessions: %d\n", stats.MostActiveProfileCount)
			fmt.Println()
		}
	}

	fileInfo, err := os.Stat(dbPath)
	if err != nil {
		return fmt.Errorf("failed to stat database file: %w", err)
	}

	fmt.Printf("Database Location: %s\n", dbPath)
	fmt.Printf("Database Size:     %s\n", humanize.Bytes(uint64(fileInfo.Size())))

	return nil
}
