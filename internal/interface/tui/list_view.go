package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/dustin/go-humanize"
	"github.com/dustin/go-humanize/english"

	"github.com/NaviAgent/aisuckhoe-webchat/internal/core/models"
	"github.com/NaviAgent/aisuckhoe-webchat/internal/core/timebucket"
)

// listRow is either a bucket header or a session
type listRow struct {
	header  timebucket.Bucket
	session *models.Session
}

func buildRows(groups []timebucket.Group[models.Session]) []listRow {
	var rows []listRow
	for _, g := range groups {
		rows = append(rows, listRow{header: g.Bucket})
		for i := range g.Items {
			rows = append(rows, listRow{session: &g.Items[i]})
		}
	}
	return rows
}

// rebuildRows regroups the controller's sessions, keeping the cursor on the
// same session when it is still visible
func (m *Model) rebuildRows() {
	selected := m.selectedID()
	m.rows = buildRows(m.history.Groups(m.now()))

	m.cursor = -1
	for i, r := range m.rows {
		if r.session == nil {
			continue
		}
		if m.cursor < 0 || r.session.ID == selected {
			m.cursor = i
		}
		if r.session.ID == selected {
			break
		}
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
	m.keepCursorVisible()
}

func (m Model) selectedSession() *models.Session {
	if m.cursor < 0 || m.cursor >= len(m.rows) {
		return nil
	}
	return m.rows[m.cursor].session
}

func (m Model) selectedID() string {
	if s := m.selectedSession(); s != nil {
		return s.ID
	}
	return ""
}

// moveCursor steps over header rows
func (m *Model) moveCursor(delta int) {
	for i := m.cursor + delta; i >= 0 && i < len(m.rows); i += delta {
		if m.rows[i].session != nil {
			m.cursor = i
			break
		}
	}
	m.keepCursorVisible()
}

func (m *Model) listHeight() int {
	h := m.height - 4 // title, search line, status, help
	if h < 3 {
		h = 3
	}
	return h
}

func (m *Model) keepCursorVisible() {
	h := m.listHeight()
	if m.cursor < m.offset {
		m.offset = m.cursor
		// Show the bucket header above the first session of a group
		if m.offset > 0 && m.rows[m.offset-1].session == nil {
			m.offset--
		}
	}
	if m.cursor >= m.offset+h {
		m.offset = m.cursor - h + 1
	}
	if m.offset < 0 {
		m.offset = 0
	}
}

func (m Model) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	ctx := context.Background()

	if m.history.EditingID() != "" {
		return m.updateRename(ctx, msg)
	}
	if m.searching {
		return m.updateSearch(msg)
	}

	m.status = ""
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Up):
		m.moveCursor(-1)

	case key.Matches(msg, m.keys.Down):
		m.moveCursor(1)

	case key.Matches(msg, m.keys.Open):
		if s := m.selectedSession(); s != nil {
			if m.active != nil && m.active.Session.ID == s.ID {
				m.mode = chatView
				m.compose.Focus()
				return m, textarea.Blink
			}
			return m, openSession(m.manager, s.ID)
		}

	case key.Matches(msg, m.keys.SwitchPane):
		if m.active != nil {
			m.mode = chatView
			m.compose.Focus()
			return m, textarea.Blink
		}

	case key.Matches(msg, m.keys.Rename):
		if s := m.selectedSession(); s != nil && m.history.StartEdit(s.ID) {
			m.rename.SetValue(s.Name)
			m.rename.CursorEnd()
			m.rename.Focus()
			m.history.SetDraft(s.Name)
			return m, textinput.Blink
		}

	case key.Matches(msg, m.keys.Delete):
		if s := m.selectedSession(); s != nil {
			if !m.history.CanDelete(s.ID) {
				m.status = "The open session can't be deleted"
				return m, nil
			}
			name := s.Name
			if m.history.Delete(ctx, s.ID) {
				m.status = "Deleted " + name
				m.rebuildRows()
			}
		}

	case key.Matches(msg, m.keys.Search):
		m.searching = true
		m.search.SetValue(m.history.Query())
		m.search.CursorEnd()
		m.search.Focus()
		return m, textinput.Blink

	case key.Matches(msg, m.keys.New):
		return m, createSession(m.db, m.manager, m.cfg)

	case key.Matches(msg, m.keys.Reload):
		return m, loadSessions(m.db, m.cfg.OwnerID)

	case key.Matches(msg, m.keys.Help):
		m.prevMode = m.mode
		m.mode = helpView
	}

	return m, nil
}

func (m Model) updateRename(ctx context.Context, msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter", "esc":
		m.history.HandleKey(ctx, msg.String())
		m.rename.Blur()
		m.rebuildRows()
		return m, nil
	}

	var cmd tea.Cmd
	m.rename, cmd = m.rename.Update(msg)
	m.history.SetDraft(m.rename.Value())
	return m, cmd
}

func (m Model) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.searching = false
		m.search.Blur()
		m.search.SetValue("")
		m.history.SetQuery("")
		m.rebuildRows()
		return m, nil

	case "enter":
		m.searching = false
		m.search.Blur()
		return m, nil

	case "up", "down":
		if msg.String() == "up" {
			m.moveCursor(-1)
		} else {
			m.moveCursor(1)
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	m.history.SetQuery(m.search.Value())
	m.rebuildRows()
	return m, cmd
}

func (m Model) viewList() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Chat history"))
	b.WriteString("\n")

	switch {
	case m.searching:
		b.WriteString(m.search.View())
	case m.history.Query() != "":
		b.WriteString(searchMetaStyle.Render("filter: " + m.history.Query() + "  (/ to edit, esc in filter to clear)"))
	}
	b.WriteString("\n")

	if len(m.rows) == 0 {
		if m.history.Query() != "" {
			b.WriteString("No sessions match the filter.\n")
		} else {
			b.WriteString("No sessions yet. Press n to start one.\n")
		}
	}

	end := m.offset + m.listHeight()
	if end > len(m.rows) {
		end = len(m.rows)
	}
	editing := m.history.EditingID()
	openID := m.history.OpenSession()
	for i := m.offset; i < end; i++ {
		r := m.rows[i]
		if r.session == nil {
			b.WriteString(bucketStyle.Render(string(r.header)))
			b.WriteString("\n")
			continue
		}
		b.WriteString(m.renderRow(*r.session, i == m.cursor, r.session.ID == editing, r.session.ID == openID))
		b.WriteString("\n")
	}

	if m.err != nil {
		b.WriteString(errorStyle.Render("Error: " + m.err.Error()))
	} else if m.status != "" {
		b.WriteString(statusStyle.Render(m.status))
	}
	b.WriteString("\n")

	if editing != "" {
		b.WriteString(m.help.View(editKeys(m.keys)))
	} else {
		b.WriteString(m.help.View(listKeys(m.keys)))
	}
	return b.String()
}

func (m Model) renderRow(s models.Session, selected, editing, open bool) string {
	marker := "  "
	if open {
		marker = openMarkerStyle.Render("● ")
	}

	if editing {
		return marker + editStyle.Render(m.rename.View())
	}

	name := s.Name
	if name == "" {
		name = s.ID
	}
	meta := fmt.Sprintf("  %s · %s",
		english.Plural(s.MessageCount, "message", "messages"),
		humanize.Time(s.UpdatedAt))

	if selected {
		return marker + selectedItemStyle.Render(name) + timestampStyle.Render(meta)
	}
	return marker + itemStyle.Render(name) + timestampStyle.Render(meta)
}
