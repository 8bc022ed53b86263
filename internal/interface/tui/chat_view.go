package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	"github.com/NaviAgent/aisuckhoe-webchat/internal/core/widget"
)

// resizeChat fits the viewport and compose box to the window and rebuilds
// the markdown renderer for the new wrap width
func (m *Model) resizeChat() {
	if m.width <= 0 || m.height <= 0 {
		return
	}
	composeHeight := m.compose.Height() + 2
	vpHeight := m.height - composeHeight - 4 // header, status, help
	if vpHeight < 3 {
		vpHeight = 3
	}
	m.viewport.Width = m.width
	m.viewport.Height = vpHeight
	m.compose.SetWidth(m.width)

	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(m.glamourStyle),
		glamour.WithWordWrap(wrapWidth(m.width)),
	)
	if err == nil {
		m.renderer = r
	}
	m.refreshChat()
}

func wrapWidth(width int) int {
	w := width - 4
	if w < 40 {
		w = 40
	}
	return w
}

func (m *Model) refreshChat() {
	if m.widget == nil {
		m.viewport.SetContent("")
		return
	}
	m.viewport.SetContent(renderConversation(m.widget.Entries(), m.width, m.renderer))
	m.viewport.GotoBottom()
}

func renderConversation(entries []widget.Entry, width int, renderer *glamour.TermRenderer) string {
	if len(entries) == 0 {
		return timestampStyle.Render("No messages yet.")
	}
	if width <= 0 {
		width = 80
	}

	var b strings.Builder
	for _, e := range entries {
		var style lipgloss.Style
		switch e.Role {
		case widget.RoleUser:
			style = userStyle
		case widget.RoleAssistant:
			style = assistantStyle
		default:
			style = systemStyle
		}

		b.WriteString(style.Render("▸ " + strings.ToUpper(e.Role)))
		if e.Timestamp > 0 {
			b.WriteString(" ")
			b.WriteString(timestampStyle.Render(time.UnixMilli(e.Timestamp).Format("Jan 2 15:04")))
		}
		b.WriteString("\n")

		if e.Role == widget.RoleAssistant && renderer != nil {
			b.WriteString(renderMarkdown(renderer, e.Content))
		} else {
			b.WriteString(wordwrap.String(e.Content, wrapWidth(width)))
			b.WriteString("\n")
		}
		for _, f := range e.Files {
			b.WriteString(timestampStyle.Render("📎 " + f))
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}
	return b.String()
}

// renderMarkdown falls back to the raw text when glamour fails or panics
func renderMarkdown(renderer *glamour.TermRenderer, content string) (out string) {
	defer func() {
		if r := recover(); r != nil {
			out = content + "\n"
		}
	}()
	rendered, err := renderer.Render(content)
	if err != nil {
		return content + "\n"
	}
	return rendered
}

// plainTranscript is the clipboard form of the conversation
func plainTranscript(entries []widget.Entry) string {
	var b strings.Builder
	for _, e := range entries {
		fmt.Fprintf(&b, "%s: %s\n", strings.ToUpper(e.Role), e.Content)
	}
	return b.String()
}

func (m Model) updateChat(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.status = ""
	m.err = nil

	switch {
	case key.Matches(msg, m.keys.Back):
		m.mode = listView
		m.compose.Blur()
		// Message counts move as transcripts are written
		return m, loadSessions(m.db, m.cfg.OwnerID)

	case key.Matches(msg, m.keys.Send):
		text := strings.TrimSpace(m.compose.Value())
		if text == "" || m.active == nil {
			return m, nil
		}
		m.compose.Reset()
		return m, sendMessage(m.active.Channel, text)

	case key.Matches(msg, m.keys.Copy):
		if m.widget == nil {
			return m, nil
		}
		if err := clipboard.WriteAll(plainTranscript(m.widget.Entries())); err != nil {
			m.err = fmt.Errorf("copy failed: %w", err)
			return m, nil
		}
		m.status = "✓ Transcript copied to clipboard"
		return m, nil

	case key.Matches(msg, m.keys.CloseSession):
		// Unmount: the widget drops its local copy and the channel detaches.
		// Reopening seeds a fresh bridge from the store.
		if m.widget != nil {
			m.widget.Clear()
		}
		m.manager.CloseActive()
		m.history.SetOpenSession("")
		m.active, m.widget = nil, nil
		m.refreshChat()
		m.mode = listView
		m.compose.Blur()
		m.status = "Session closed"
		return m, loadSessions(m.db, m.cfg.OwnerID)

	case msg.String() == "pgup" || msg.String() == "pgdown":
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.compose, cmd = m.compose.Update(msg)
	return m, cmd
}

func (m Model) viewChat() string {
	var b strings.Builder

	title := "Chat"
	if m.active != nil {
		title = m.active.Session.Name
	}
	b.WriteString(titleStyle.Render(title))
	b.WriteString("\n")
	b.WriteString(m.viewport.View())
	b.WriteString("\n")
	b.WriteString(m.compose.View())
	b.WriteString("\n")

	if m.err != nil {
		b.WriteString(errorStyle.Render("Error: " + m.err.Error()))
	} else if m.status != "" {
		b.WriteString(statusStyle.Render(m.status))
	}
	b.WriteString("\n")
	b.WriteString(m.help.View(chatKeys(m.keys)))
	return b.String()
}
