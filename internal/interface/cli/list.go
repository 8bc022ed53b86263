package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/dustin/go-humanize/english"
	"github.com/spf13/cobra"

	"github.com/NaviAgent/aisuckhoe-webchat/internal/core/history"
	"github.com/NaviAgent/aisuckhoe-webchat/internal/core/models"
)

var (
	listLimit   int
	listProfile string
	listSince   string
	listQuery   string
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List sessions grouped by age",
	Long: `List sessions grouped into Today, Yesterday, Last 7 days and so on, most
recently active first within each group.

--query takes the same syntax as the TUI search box: free text matches the
session name, after:<date> and before:<date> filter on creation time.

Examples:
  webchat list
  webchat list --limit 10
  webchat list --since "last week"
  webchat list --query "billing after:2025-01-01"`,
	RunE: runList,
}

func init() {
	rootCmd.AddCommand(listCmd)
	listCmd.Flags().IntVar(&listLimit, "limit", 50, "Maximum number of sessions to display")
	listCmd.Flags().StringVarP(&listProfile, "profile", "p", "", "Only sessions of this profile")
	listCmd.Flags().StringVar(&listSince, "since", "", "Only sessions created since (e.g. \"yesterday\", \"2025-01-01\")")
	listCmd.Flags().StringVarP(&listQuery, "query", "q", "", "Filter query")
}

func runList(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	now := time.Now()

	database, err := openDB()
	if err != nil {
		return err
	}
	defer func() {
		_ = database.Close()
	}()

	var sessions []models.Session
	if listProfile != "" {
		sessions, err = database.ListSessionsByProfile(ctx, listProfile)
	} else {
		sessions, err = database.ListSessions(ctx, cfg.OwnerID)
	}
	if err != nil {
		return fmt.Errorf("failed to list sessions: %w", err)
	}

	query := listQuery
	if listSince != "" {
		since := "after:" + strings.ReplaceAll(strings.TrimSpace(listSince), " ", "-")
		if !history.ParseQuery(since, now).HasAfter {
			return fmt.Errorf("could not parse --since %q", listSince)
		}
		query = strings.TrimSpace(query + " " + since)
	}

	// Apply limit (interface concern - pagination)
	if len(sessions) > listLimit {
		sessions = sessions[:listLimit]
	}

	ctrl := history.New(database)
	ctrl.SetSessions(sessions)
	ctrl.SetQuery(query)
	groups := ctrl.Groups(now)

	if len(groups) == 0 {
		if query != "" {
			fmt.Printf("No sessions match: %s\n", query)
		} else {
			fmt.Println("No sessions found. Start one with 'webchat new'.")
		}
		return nil
	}

	for _, g := range groups {
		fmt.Printf("%s\n", g.Bucket)
		for _, s := range g.Items {
			fmt.Printf("  %s  %s\n", s.ID, truncateName(s.Name, 60))
			fmt.Printf("      %s · updated %s\n",
				english.Plural(s.MessageCount, "message", "messages"),
				humanize.Time(s.UpdatedAt))
		}
		fmt.Println()
	}

	return nil
}

// truncateName shortens long names for display
func truncateName(name string, maxLen int) string {
	name = strings.Join(strings.Fields(name), " ")
	if len([]rune(name)) <= maxLen {
		return name
	}

	runes := []rune(name)[:maxLen]
	truncated := string(runes)
	if lastSpace := strings.LastIndex(truncated, " "); lastSpace > len(truncated)-20 && lastSpace > 0 {
		truncated = truncated[:lastSpace]
	}
	return truncated + "..."
}
