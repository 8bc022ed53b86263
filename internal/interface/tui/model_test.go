package tui

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/NaviAgent/aisuckhoe-webchat/internal/core/config"
	"github.com/NaviAgent/aisuckhoe-webchat/internal/core/db"
	"github.com/NaviAgent/aisuckhoe-webchat/internal/core/models"
	"github.com/NaviAgent/aisuckhoe-webchat/internal/core/timebucket"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var fixedNow = time.Date(2025, 6, 15, 14, 0, 0, 0, time.UTC)

func setupModel(t *testing.T) (Model, *db.DB) {
	t.Helper()
	database, err := db.New(filepath.Join(t.TempDir(), "tui.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })

	ctx := context.Background()
	require.NoError(t, database.CreateProfile(ctx, &models.Profile{ID: "p1", OwnerID: "local", Name: "Me"}))
	for _, s := range []models.Session{
		{ID: "s1", Name: "Headache", CreatedAt: fixedNow.Add(-2 * time.Hour), UpdatedAt: fixedNow.Add(-2 * time.Hour)},
		{ID: "s2", Name: "Allergy", CreatedAt: fixedNow.AddDate(0, 0, -3), UpdatedAt: fixedNow.AddDate(0, 0, -3)},
	} {
		s.OwnerID, s.ProfileID = "local", "p1"
		require.NoError(t, database.CreateSession(ctx, &s))
	}

	m := New(database, config.Default())
	m.now = func() time.Time { return fixedNow }
	t.Cleanup(m.Close)

	sessions, err := database.ListSessions(ctx, "local")
	require.NoError(t, err)
	m = step(t, m, sessionsLoadedMsg{sessions: sessions})
	return m, database
}

func step(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, _ := m.Update(msg)
	out, ok := next.(Model)
	require.True(t, ok)
	return out
}

func keyMsg(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "ctrl+u":
		return tea.KeyMsg{Type: tea.KeyCtrlU}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func openInModel(t *testing.T, m Model, id string) Model {
	t.Helper()
	msg := openSession(m.manager, id)()
	require.IsType(t, sessionOpenedMsg{}, msg)
	return step(t, m, msg)
}

func TestRowsGroupedByBucket(t *testing.T) {
	m, _ := setupModel(t)

	require.Len(t, m.rows, 4)
	assert.Equal(t, timebucket.Today, m.rows[0].header)
	assert.Equal(t, "s1", m.rows[1].session.ID)
	assert.Equal(t, timebucket.Last7Days, m.rows[2].header)
	assert.Equal(t, "s2", m.rows[3].session.ID)
	assert.Equal(t, 1, m.cursor, "cursor starts on the first session, not a header")
}

func TestCursorSkipsHeaders(t *testing.T) {
	m, _ := setupModel(t)

	m = step(t, m, keyMsg("j"))
	assert.Equal(t, "s2", m.selectedID())
	m = step(t, m, keyMsg("j"))
	assert.Equal(t, "s2", m.selectedID(), "stays on the last session")
	m = step(t, m, keyMsg("k"))
	assert.Equal(t, "s1", m.selectedID())
}

func TestInlineRename(t *testing.T) {
	m, database := setupModel(t)

	m = step(t, m, keyMsg("e"))
	require.Equal(t, "s1", m.history.EditingID())

	m = step(t, m, keyMsg("!"))
	m = step(t, m, keyMsg("enter"))
	assert.Empty(t, m.history.EditingID())
	assert.Equal(t, "Headache!", m.rows[1].session.Name, "renamed before the store answers")

	m.history.Wait()
	s, err := database.GetSession(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, "Headache!", s.Name)
}

func TestRenameBlankIsCancelled(t *testing.T) {
	m, database := setupModel(t)

	m = step(t, m, keyMsg("e"))
	m = step(t, m, keyMsg("ctrl+u"))
	m = step(t, m, keyMsg("enter"))
	assert.Empty(t, m.history.EditingID())

	m.history.Wait()
	s, err := database.GetSession(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, "Headache", s.Name)
}

func TestDeleteRefusesOpenSession(t *testing.T) {
	m, database := setupModel(t)
	ctx := context.Background()

	m = openInModel(t, m, "s1")
	require.Equal(t, chatView, m.mode)
	m = step(t, m, keyMsg("esc"))
	require.Equal(t, listView, m.mode)

	m = step(t, m, keyMsg("d"))
	assert.Equal(t, "The open session can't be deleted", m.status)
	assert.Len(t, m.rows, 4)

	m = step(t, m, keyMsg("j"))
	m = step(t, m, keyMsg("d"))
	assert.Len(t, m.rows, 2)

	m.history.Wait()
	_, err := database.GetSession(ctx, "s2")
	assert.ErrorIs(t, err, db.ErrNotFound)
	_, err = database.GetSession(ctx, "s1")
	assert.NoError(t, err)
}

func TestSendFromChatPane(t *testing.T) {
	m, database := setupModel(t)
	ctx := context.Background()

	m = openInModel(t, m, "s1")
	for _, r := range "hello" {
		m = step(t, m, keyMsg(string(r)))
	}

	next, cmd := m.Update(keyMsg("enter"))
	m = next.(Model)
	require.NotNil(t, cmd)
	assert.Empty(t, m.compose.Value())

	m = step(t, m, cmd())
	assert.Equal(t, 1, m.widget.Len())
	assert.Contains(t, m.viewport.View(), "hello")

	m.manager.Close()
	rec, err := database.ReadTranscript(ctx, "s1")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Len(t, rec.Transcript, 1)

	s, err := database.GetSession(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, 1, s.MessageCount)
}

func TestFilterNarrowsRows(t *testing.T) {
	m, _ := setupModel(t)

	m = step(t, m, keyMsg("/"))
	require.True(t, m.searching)
	for _, r := range "allergy" {
		m = step(t, m, keyMsg(string(r)))
	}
	require.Len(t, m.rows, 2)
	assert.Equal(t, "s2", m.rows[1].session.ID)

	m = step(t, m, keyMsg("esc"))
	assert.False(t, m.searching)
	assert.Len(t, m.rows, 4)
}
