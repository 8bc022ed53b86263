package tui

import (
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/NaviAgent/aisuckhoe-webchat/internal/core/chat"
	"github.com/NaviAgent/aisuckhoe-webchat/internal/core/config"
	"github.com/NaviAgent/aisuckhoe-webchat/internal/core/db"
	"github.com/NaviAgent/aisuckhoe-webchat/internal/core/history"
	"github.com/NaviAgent/aisuckhoe-webchat/internal/core/logging"
	"github.com/NaviAgent/aisuckhoe-webchat/internal/core/widget"
)

type viewMode int

const (
	listView viewMode = iota
	chatView
	helpView
)

const widgetID = "tui"

// Model is the history list plus the chat pane of the open session
type Model struct {
	db      *db.DB
	cfg     *config.Config
	manager *chat.Manager
	history *history.Controller
	keys    keymap
	help    help.Model
	logger  *zap.Logger
	now     func() time.Time

	mode     viewMode
	prevMode viewMode
	width    int
	height   int
	err      error
	status   string

	// History list
	rows      []listRow
	cursor    int
	offset    int
	searching bool
	search    textinput.Model
	rename    textinput.Model

	// Chat pane
	active       *chat.Activation
	widget       *widget.Widget
	viewport     viewport.Model
	compose      textarea.Model
	renderer     *glamour.TermRenderer
	glamourStyle string
}

// New creates the TUI model. Close must be called after the program exits
// so pending writes reach the stores.
func New(database *db.DB, cfg *config.Config) Model {
	if cfg == nil {
		cfg = config.Default()
	}

	search := textinput.New()
	search.Placeholder = "name, after:2025-01-01, before:last-week"
	search.Prompt = "/ "
	search.CharLimit = 200

	rename := textinput.New()
	rename.Prompt = ""
	rename.CharLimit = 200

	compose := textarea.New()
	compose.Placeholder = "Type a message... (Enter to send, Esc for history)"
	compose.ShowLineNumbers = false
	compose.SetHeight(3)
	compose.CharLimit = 4096

	// Detected once, before the program owns the terminal
	glamourStyle := "light"
	if lipgloss.HasDarkBackground() {
		glamourStyle = "dark"
	}

	return Model{
		db:       database,
		cfg:      cfg,
		manager:  chat.NewManager(database, database, cfg),
		history:  history.New(database, history.WithLogger(logging.Named("history")), history.WithStoreTimeout(cfg.WriteTimeout)),
		keys:     defaultKeymap(),
		help:     help.New(),
		logger:   logging.Named("tui"),
		now:      time.Now,
		mode:     listView,
		search:   search,
		rename:   rename,
		compose:  compose,
		viewport: viewport.New(80, 20),

		glamourStyle: glamourStyle,
	}
}

// Close waits for in-flight transcript writes and history store calls
func (m Model) Close() {
	m.history.Wait()
	m.manager.Close()
}

func (m Model) Init() tea.Cmd {
	return loadSessions(m.db, m.cfg.OwnerID)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.resizeChat()
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}

		switch m.mode {
		case listView:
			return m.updateList(msg)
		case chatView:
			return m.updateChat(msg)
		case helpView:
			return m.updateHelp(msg)
		}

	case sessionsLoadedMsg:
		m.history.SetSessions(msg.sessions)
		m.rebuildRows()
		return m, nil

	case sessionCreatedMsg:
		m.status = "Created " + msg.session.Name
		return m, tea.Batch(loadSessions(m.db, m.cfg.OwnerID), openSession(m.manager, msg.session.ID))

	case sessionOpenedMsg:
		m.active = msg.activation
		m.widget = msg.activation.Mount(widgetID)
		m.history.SetOpenSession(msg.activation.Session.ID)
		m.prevMode = m.mode
		m.mode = chatView
		m.compose.Focus()
		m.refreshChat()
		return m, textarea.Blink

	case transcriptChangedMsg:
		m.refreshChat()
		return m, nil

	case statusMsg:
		m.status = string(msg)
		return m, nil

	case errMsg:
		m.err = msg.err
		m.logger.Warn("tui command failed", zap.Error(msg.err))
		return m, nil
	}

	return m, nil
}

func (m Model) View() string {
	switch m.mode {
	case chatView:
		return m.viewChat()
	case helpView:
		return m.viewHelp()
	default:
		return m.viewList()
	}
}
