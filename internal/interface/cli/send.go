package cli

import (
	"errors"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/NaviAgent/aisuckhoe-webchat/internal/core/chat"
	"github.com/NaviAgent/aisuckhoe-webchat/internal/core/command"
)

var (
	sendFiles     []string
	sendAssistant string
)

var sendCmd = &cobra.Command{
	Use:   "send <session-id> <message>",
	Short: "Send a message into a session",
	Long: `Open a session, mount a widget for it and send one message through the
command channel. The transcript write finishes before the command exits.

Examples:
  webchat send <id> "Is the clinic open on Sunday?"
  webchat send <id> "Here is my report" --file report.pdf`,
	Args: cobra.MinimumNArgs(2),
	RunE: runSend,
}

func init() {
	rootCmd.AddCommand(sendCmd)
	sendCmd.Flags().StringArrayVarP(&sendFiles, "file", "f", nil, "Attach a file (repeatable)")
	sendCmd.Flags().StringVar(&sendAssistant, "reply", "", "Append an assistant reply after the message")
}

func runSend(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	text := strings.TrimSpace(strings.Join(args[1:], " "))
	if text == "" {
		return errors.New("message cannot be empty")
	}

	files, err := loadAttachments(sendFiles)
	if err != nil {
		return err
	}

	database, err := openDB()
	if err != nil {
		return err
	}
	defer func() {
		_ = database.Close()
	}()

	manager := chat.NewManager(database, database, cfg)
	defer manager.Close()

	a, err := manager.Open(ctx, args[0])
	if err != nil {
		return err
	}
	w := a.Mount("cli")

	if !a.Channel.SendMessage(text, files) {
		return errors.New("widget did not accept the message")
	}
	if sendAssistant != "" {
		w.Append("assistant", sendAssistant)
	}

	fmt.Printf("Sent to %s (%d messages)\n", a.Session.Name, w.Len())
	return nil
}

func loadAttachments(paths []string) ([]command.File, error) {
	files := make([]command.File, 0, len(paths))
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("failed to read attachment: %w", err)
		}
		files = append(files, command.File{
			Name:     filepath.Base(p),
			MimeType: mime.TypeByExtension(filepath.Ext(p)),
			Data:     data,
		})
	}
	return files, nil
}
