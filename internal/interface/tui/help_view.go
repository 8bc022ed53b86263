package tui

import (
	tea "github.com/charmbracelet/bubbletea"
)

func (m Model) updateHelp(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "q", "?":
		m.mode = m.prevMode
		return m, nil
	}

	return m, nil
}

func (m Model) viewHelp() string {
	help := `
webchat - Help
══════════════

HISTORY LIST
────────────
  ↑/↓, j/k     Navigate sessions
  Enter        Open session in the chat pane
  Tab          Back to the open session
  e, r         Rename inline (Enter saves, Esc cancels)
  d            Delete (not the open session)
  /            Filter by name; after:<date> and before:<date>
               accept dates (2025-01-31) or phrases (last-week)
  n            New session for the default profile
  R            Reload from the database
  ?            Show this help
  q            Quit

Sessions are grouped by creation date: Today, Yesterday, Last 7 days,
Last 30 days, Last 6 months, Last 1 year, Last 2 years, Last 3 years, Older.

CHAT PANE
─────────
  Enter        Send message
  PgUp/PgDn    Scroll transcript
  Ctrl+Y       Copy transcript to clipboard
  Ctrl+W       Close the session
  Esc, Tab     Back to history list

Press esc to return
`

	return helpStyle.Render(help)
}
