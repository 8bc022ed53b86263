package cli

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/NaviAgent/aisuckhoe-webchat/internal/core/models"
)

var profileDescription string

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Manage profiles",
	Long: `Profiles are the personas sessions are created for. Every session belongs
to exactly one profile; removing a profile removes its sessions.`,
}

var profileAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Create a profile",
	Args:  cobra.ExactArgs(1),
	RunE:  runProfileAdd,
}

var profileListCmd = &cobra.Command{
	Use:   "list",
	Short: "List profiles",
	RunE:  runProfileList,
}

var profileRmCmd = &cobra.Command{
	Use:   "rm <profile-id>",
	Short: "Remove a profile and its sessions",
	Args:  cobra.ExactArgs(1),
	RunE:  runProfileRm,
}

func init() {
	rootCmd.AddCommand(profileCmd)
	profileCmd.AddCommand(profileAddCmd)
	profileCmd.AddCommand(profileListCmd)
	profileCmd.AddCommand(profileRmCmd)

	profileAddCmd.Flags().StringVarP(&profileDescription, "description", "d", "", "Short description used in draft templates")
}

func runProfileAdd(cmd *cobra.Command, args []string) error {
	database, err := openDB()
	if err != nil {
		return err
	}
	defer func() {
		_ = database.Close()
	}()

	p := &models.Profile{
		ID:          uuid.NewString(),
		OwnerID:     cfg.OwnerID,
		Name:        args[0],
		Description: profileDescription,
	}
	if err := database.CreateProfile(cmd.Context(), p); err != nil {
		return fmt.Errorf("failed to create profile: %w", err)
	}

	fmt.Printf("Created profile %s (%s)\n", p.Name, p.ID)
	return nil
}

func runProfileList(cmd *cobra.Command, args []string) error {
	database, err := openDB()
	if err != nil {
		return err
	}
	defer func() {
		_ = database.Close()
	}()

	profiles, err := database.ListProfiles(cmd.Context(), cfg.OwnerID)
	if err != nil {
		return fmt.Errorf("failed to list profiles: %w", err)
	}
	if len(profiles) == 0 {
		fmt.Println("No profiles yet. Create one with 'webchat profile add <name>'.")
		return nil
	}

	for _, p := range profiles {
		marker := " "
		if p.ID == cfg.DefaultProfile {
			marker = "*"
		}
		fmt.Printf("%s %s  %s  (created %s)\n", marker, p.ID, p.Name, humanize.Time(p.CreatedAt))
		if p.Description != "" {
			fmt.Printf("    %s\n", p.Description)
		}
	}
	return nil
}

func runProfileRm(cmd *cobra.Command, args []string) error {
	database, err := openDB()
	if err != nil {
		return err
	}
	defer func() {
		_ = database.Close()
	}()

	if err := database.DeleteProfile(cmd.Context(), args[0]); err != nil {
		return fmt.Errorf("failed to remove profile: %w", err)
	}
	fmt.Printf("Removed profile %s\n", args[0])
	return nil
}
