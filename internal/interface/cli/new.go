package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/NaviAgent/aisuckhoe-webchat/internal/core/chat"
)

var (
	newProfile string
	newName    string
	newGreet   bool
	newMessage string
)

var newCmd = &cobra.Command{
	Use:   "new",
	Short: "Start a new session",
	Long: `Create a session for a profile. Without --name the session is named from the
new_session_name template in config.toml.

An opening message can be queued with --message, or rendered from the
draft_template with --greet. It is sent once the session's widget is ready.

Examples:
  webchat new
  webchat new --profile <id> --name "Follow-up"
  webchat new --greet`,
	RunE: runNew,
}

func init() {
	rootCmd.AddCommand(newCmd)
	newCmd.Flags().StringVarP(&newProfile, "profile", "p", "", "Profile id (default from config)")
	newCmd.Flags().StringVarP(&newName, "name", "n", "", "Session name")
	newCmd.Flags().BoolVar(&newGreet, "greet", false, "Send the rendered draft template as the first message")
	newCmd.Flags().StringVarP(&newMessage, "message", "m", "", "First message to send")
}

func runNew(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	database, err := openDB()
	if err != nil {
		return err
	}
	defer func() {
		_ = database.Close()
	}()

	profileID, err := resolveProfile(cmd, database, newProfile)
	if err != nil {
		return err
	}

	manager := chat.NewManager(database, database, cfg)
	defer manager.Close()

	s, err := manager.NewSession(ctx, profileID, newName)
	if err != nil {
		return err
	}

	text := newMessage
	if text == "" && newGreet {
		p, err := database.GetProfile(ctx, profileID)
		if err != nil {
			return fmt.Errorf("failed to get profile: %w", err)
		}
		text, err = chat.RenderDraft(cfg.DraftTemplate, *p, time.Now())
		if err != nil {
			return err
		}
	}

	if text != "" {
		manager.ComposeDraft(text, nil)
		a, err := manager.Open(ctx, s.ID)
		if err != nil {
			return err
		}
		w := a.Mount("cli")
		fmt.Printf("Sent opening message (%d in transcript)\n", w.Len())
	}

	fmt.Printf("Created session %s: %s\n", s.ID, s.Name)
	return nil
}
