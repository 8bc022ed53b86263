// Package chat activates sessions for the chat pane. Activating a session
// seeds a fresh bridge from the transcript store before any widget mounts,
// and switching sessions replaces the bridge and command channel wholesale
// so nothing from the previous session leaks into the new one.
package chat

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/NaviAgent/aisuckhoe-webchat/internal/core/bridge"
	"github.com/NaviAgent/aisuckhoe-webchat/internal/core/command"
	"github.com/NaviAgent/aisuckhoe-webchat/internal/core/config"
	"github.com/NaviAgent/aisuckhoe-webchat/internal/core/logging"
	"github.com/NaviAgent/aisuckhoe-webchat/internal/core/models"
	"github.com/NaviAgent/aisuckhoe-webchat/internal/core/widget"
)

// MetadataStore is what activation needs from the session metadata store
type MetadataStore interface {
	CreateSession(ctx context.Context, s *models.Session) error
	GetSession(ctx context.Context, id string) (*models.Session, error)
	GetProfile(ctx context.Context, id string) (*models.Profile, error)
	TouchSession(ctx context.Context, id string, messageCount int, at time.Time) error
}

// TranscriptStore is read once per activation and written by the bridge
type TranscriptStore interface {
	bridge.TranscriptStore
	ReadTranscript(ctx context.Context, sessionID string) (*models.TranscriptRecord, error)
}

// Activation is one opened session
type Activation struct {
	Session models.Session
	Bridge  *bridge.Bridge
	Channel *command.Channel
}

// Mount creates a widget for the activation, attaches it to the command
// channel and lets it load and signal readiness
func (a *Activation) Mount(widgetID string, opts ...widget.Option) *widget.Widget {
	w := widget.New(widgetID, a.Session.ID, a.Bridge, opts...)
	a.Channel.Attach(w)
	w.Mount(a.Channel)
	return w
}

// Manager owns the currently active session
type Manager struct {
	meta         MetadataStore
	transcripts  TranscriptStore
	cfg          *config.Config
	writeTimeout time.Duration
	logger       *zap.Logger
	now          func() time.Time

	mu       sync.Mutex
	active   *Activation
	draft    *command.Draft
	bridges  []*bridge.Bridge // Bridges that may still have writes in flight
	retiring sync.WaitGroup
}

// NewManager returns a manager with nothing open
func NewManager(meta MetadataStore, transcripts TranscriptStore, cfg *config.Config) *Manager {
	if cfg == nil {
		cfg = config.Default()
	}
	timeout := cfg.WriteTimeout
	if timeout <= 0 {
		timeout = config.DefaultWriteTimeout
	}
	return &Manager{
		meta:         meta,
		transcripts:  transcripts,
		cfg:          cfg,
		writeTimeout: timeout,
		logger:       logging.Named("chat"),
		now:          time.Now,
	}
}

// NewSession creates a session for a profile. An empty name is filled from
// the configured name template.
func (m *Manager) NewSession(ctx context.Context, profileID, name string) (*models.Session, error) {
	p, err := m.meta.GetProfile(ctx, profileID)
	if err != nil {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}

	now := m.now()
	if name == "" {
		name = RenderSessionName(m.cfg.SessionName, *p, now)
	}

	s := &models.Session{
		ID:        uuid.NewString(),
		Name:      name,
		OwnerID:   p.OwnerID,
		ProfileID: p.ID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := m.meta.CreateSession(ctx, s); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	return s, nil
}

// ComposeDraft stores a message to send once the next session's widget is
// ready. With a session already open the draft goes to its channel.
func (m *Manager) ComposeDraft(text string, files []command.File) {
	m.mu.Lock()
	active := m.active
	if active == nil {
		m.draft = &command.Draft{Text: text, Files: files}
	}
	m.mu.Unlock()

	if active != nil {
		active.Channel.QueueDraft(text, files)
	}
}

// Open activates a session. The transcript is read once and seeds a new
// bridge; the previous activation's widget is detached while its pending
// writes finish in the background.
func (m *Manager) Open(ctx context.Context, sessionID string) (*Activation, error) {
	s, err := m.meta.GetSession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	rec, err := m.transcripts.ReadTranscript(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to read transcript: %w", err)
	}
	if rec == nil {
		rec = &models.TranscriptRecord{SessionID: sessionID}
	}

	b := bridge.New(sessionID, m.transcripts,
		bridge.WithLogger(logging.Named("bridge")),
		bridge.WithWriteTimeout(m.writeTimeout),
		bridge.WithOnPersisted(m.touch),
	)
	b.Seed(*rec)

	a := &Activation{
		Session: *s,
		Bridge:  b,
		Channel: command.New(command.WithLogger(logging.Named("command"))),
	}

	m.mu.Lock()
	prev := m.active
	m.active = a
	m.bridges = append(m.bridges, b)
	draft := m.draft
	m.draft = nil
	m.mu.Unlock()

	if prev != nil {
		m.retire(prev)
	}
	if draft != nil {
		a.Channel.QueueDraft(draft.Text, draft.Files)
	}

	m.logger.Debug("session activated",
		zap.String("session_id", sessionID),
		zap.Int("messages", rec.MessageCount()))
	return a, nil
}

// Active returns the open session, or nil
func (m *Manager) Active() *Activation {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.active
}

// CloseActive detaches the open session's widget
func (m *Manager) CloseActive() {
	m.mu.Lock()
	a := m.active
	m.active = nil
	m.mu.Unlock()
	if a != nil {
		m.retire(a)
	}
}

// retire detaches a closed activation. Its bridge is dropped once its
// pending writes have finished.
func (m *Manager) retire(a *Activation) {
	a.Channel.Detach()
	m.retiring.Add(1)
	go func() {
		defer m.retiring.Done()
		a.Bridge.Wait()
		m.mu.Lock()
		for i, b := range m.bridges {
			if b == a.Bridge {
				m.bridges = append(m.bridges[:i], m.bridges[i+1:]...)
				break
			}
		}
		m.mu.Unlock()
	}()
}

// Close waits for every transcript write issued through this manager
func (m *Manager) Close() {
	m.CloseActive()
	m.mu.Lock()
	bridges := append([]*bridge.Bridge(nil), m.bridges...)
	m.mu.Unlock()
	for _, b := range bridges {
		b.Wait()
	}
	m.retiring.Wait()
}

// touch mirrors a persisted transcript write into the session metadata
func (m *Manager) touch(sessionID string, messageCount int) {
	ctx, cancel := context.WithTimeout(context.Background(), m.writeTimeout)
	defer cancel()
	if err := m.meta.TouchSession(ctx, sessionID, messageCount, m.now()); err != nil {
		m.logger.Error("session metadata update failed",
			zap.String("session_id", sessionID),
			zap.Int("message_count", messageCount),
			zap.Error(err))
	}
}
