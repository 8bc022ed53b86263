package tui

import (
	"context"
	"errors"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/NaviAgent/aisuckhoe-webchat/internal/core/chat"
	"github.com/NaviAgent/aisuckhoe-webchat/internal/core/command"
	"github.com/NaviAgent/aisuckhoe-webchat/internal/core/config"
	"github.com/NaviAgent/aisuckhoe-webchat/internal/core/db"
	"github.com/NaviAgent/aisuckhoe-webchat/internal/core/models"
)

type errMsg struct {
	err error
}

type statusMsg string

type sessionsLoadedMsg struct {
	sessions []models.Session
}

type sessionCreatedMsg struct {
	session models.Session
}

type sessionOpenedMsg struct {
	activation *chat.Activation
}

type transcriptChangedMsg struct{}

func loadSessions(database *db.DB, ownerID string) tea.Cmd {
	return func() tea.Msg {
		sessions, err := database.ListSessions(context.Background(), ownerID)
		if err != nil {
			return errMsg{err}
		}
		return sessionsLoadedMsg{sessions: sessions}
	}
}

func openSession(manager *chat.Manager, sessionID string) tea.Cmd {
	return func() tea.Msg {
		a, err := manager.Open(context.Background(), sessionID)
		if err != nil {
			return errMsg{err}
		}
		return sessionOpenedMsg{activation: a}
	}
}

// createSession uses the configured default profile, or the owner's only
// profile when none is configured
func createSession(database *db.DB, manager *chat.Manager, cfg *config.Config) tea.Cmd {
	return func() tea.Msg {
		ctx := context.Background()

		profileID := cfg.DefaultProfile
		if profileID == "" {
			profiles, err := database.ListProfiles(ctx, cfg.OwnerID)
			if err != nil {
				return errMsg{err}
			}
			if len(profiles) != 1 {
				return statusMsg("Set default_profile in config.toml to create sessions here")
			}
			profileID = profiles[0].ID
		}

		s, err := manager.NewSession(ctx, profileID, "")
		if err != nil {
			return errMsg{err}
		}
		return sessionCreatedMsg{session: *s}
	}
}

func sendMessage(ch *command.Channel, text string) tea.Cmd {
	return func() tea.Msg {
		if !ch.SendMessage(text, nil) {
			return errMsg{errors.New("message not delivered: widget not ready")}
		}
		return transcriptChangedMsg{}
	}
}
