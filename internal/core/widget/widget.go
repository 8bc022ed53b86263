// Package widget is a small in-process chat widget. It knows nothing about
// the stores: it reads and writes its transcript only through the storage
// contract and takes commands through its imperative surface.
package widget

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/NaviAgent/aisuckhoe-webchat/internal/core/bridge"
	"github.com/NaviAgent/aisuckhoe-webchat/internal/core/command"
	"github.com/NaviAgent/aisuckhoe-webchat/internal/core/logging"
	"github.com/NaviAgent/aisuckhoe-webchat/internal/core/models"
)

// Roles used in transcript entries
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// Storage is the contract the widget persists through
type Storage interface {
	Load(widgetID, sessionID string) bridge.LoadResult
	Remove(widgetID, sessionID string)
	Save(widgetID string, p bridge.SavePayload)
}

// Readiness receives the widget's one-time ready signal
type Readiness interface {
	MarkReady()
}

// Entry is the message shape this widget writes into the transcript
type Entry struct {
	ID        string   `json:"id"`
	Role      string   `json:"role"`
	Content   string   `json:"content"`
	Files     []string `json:"files,omitempty"`
	Timestamp int64    `json:"timestamp"`
}

// Option configures a Widget
type Option func(*Widget)

// WithOnUpdate registers a callback run after the transcript changes
func WithOnUpdate(fn func()) Option {
	return func(w *Widget) {
		w.onUpdate = fn
	}
}

// WithLogger sets the widget's logger
func WithLogger(l *zap.Logger) Option {
	return func(w *Widget) {
		if l != nil {
			w.logger = l
		}
	}
}

// Widget renders one session's transcript
type Widget struct {
	id        string
	sessionID string
	storage   Storage
	logger    *zap.Logger
	onUpdate  func()
	now       func() time.Time

	// saveMu keeps Save calls in the order their payloads were built
	saveMu     sync.Mutex
	mu         sync.Mutex
	mounted    bool
	transcript []models.Message
	lead       models.Lead
	external   *command.ExternalCommand
}

// New creates an unmounted widget for a session
func New(id, sessionID string, storage Storage, opts ...Option) *Widget {
	w := &Widget{
		id:        id,
		sessionID: sessionID,
		storage:   storage,
		logger:    logging.Named("widget"),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// ID returns the widget instance id
func (w *Widget) ID() string { return w.id }

// SessionID returns the session the widget was mounted for
func (w *Widget) SessionID() string { return w.sessionID }

// Mount loads the transcript and signals readiness
func (w *Widget) Mount(r Readiness) {
	w.Reload()
	w.mu.Lock()
	w.mounted = true
	w.mu.Unlock()
	r.MarkReady()
}

// Reload replaces the local transcript with what storage returns
func (w *Widget) Reload() {
	res := w.storage.Load(w.id, w.sessionID)
	w.mu.Lock()
	w.transcript = res.Transcript
	w.lead = res.Lead
	w.mu.Unlock()
	w.notify()
}

// SetExternalCommand is the imperative surface used by the command channel.
// The command is consumed right away and cleared.
func (w *Widget) SetExternalCommand(cmd command.ExternalCommand) {
	w.mu.Lock()
	w.external = &cmd
	w.mu.Unlock()
	w.consume()
}

func (w *Widget) consume() {
	w.mu.Lock()
	cmd := w.external
	w.external = nil
	mounted := w.mounted
	w.mu.Unlock()

	if cmd == nil {
		return
	}
	if !mounted {
		w.logger.Warn("command received before mount", zap.String("widget_id", w.id))
		return
	}

	names := make([]string, 0, len(cmd.Files))
	for _, f := range cmd.Files {
		names = append(names, f.Name)
	}
	w.append(Entry{
		ID:        uuid.NewString(),
		Role:      RoleUser,
		Content:   cmd.Text,
		Files:     names,
		Timestamp: cmd.Timestamp,
	})
}

// Append adds a message typed into the widget and saves the transcript
func (w *Widget) Append(role, content string) Entry {
	e := Entry{
		ID:        uuid.NewString(),
		Role:      role,
		Content:   content,
		Timestamp: w.now().UnixMilli(),
	}
	w.append(e)
	return e
}

func (w *Widget) append(e Entry) {
	raw, err := json.Marshal(e)
	if err != nil {
		w.logger.Error("encode message", zap.Error(err))
		return
	}

	w.saveMu.Lock()
	w.mu.Lock()
	next := make([]models.Message, len(w.transcript), len(w.transcript)+1)
	copy(next, w.transcript)
	next = append(next, raw)
	w.transcript = next
	w.mu.Unlock()

	w.storage.Save(w.id, bridge.SavePayload{Transcript: next})
	w.saveMu.Unlock()
	w.notify()
}

// SetLead records one lead field and saves the lead
func (w *Widget) SetLead(key string, value any) {
	w.saveMu.Lock()
	w.mu.Lock()
	lead := models.CloneLead(w.lead)
	if lead == nil {
		lead = models.Lead{}
	}
	lead[key] = value
	w.lead = lead
	w.mu.Unlock()

	w.storage.Save(w.id, bridge.SavePayload{Lead: lead})
	w.saveMu.Unlock()
	w.notify()
}

// Lead returns the captured lead fields
func (w *Widget) Lead() models.Lead {
	w.mu.Lock()
	defer w.mu.Unlock()
	return models.CloneLead(w.lead)
}

// Clear drops the local transcript through storage. The stored document is
// kept.
func (w *Widget) Clear() {
	w.saveMu.Lock()
	w.storage.Remove(w.id, w.sessionID)
	w.mu.Lock()
	w.transcript = nil
	w.lead = nil
	w.mu.Unlock()
	w.saveMu.Unlock()
	w.notify()
}

// Entries decodes the transcript for display. Messages written by another
// client keep their raw JSON as content.
func (w *Widget) Entries() []Entry {
	w.mu.Lock()
	msgs := models.CloneTranscript(w.transcript)
	w.mu.Unlock()
	return DecodeEntries(msgs)
}

// DecodeEntries reads stored messages. Anything that is not a widget entry is
// shown as raw system text.
func DecodeEntries(msgs []models.Message) []Entry {
	out := make([]Entry, 0, len(msgs))
	for _, m := range msgs {
		var e Entry
		if err := json.Unmarshal(m, &e); err != nil || e.Role == "" {
			e = Entry{Role: RoleSystem, Content: string(m)}
		}
		out = append(out, e)
	}
	return out
}

// Len returns the number of transcript messages
func (w *Widget) Len() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.transcript)
}

func (w *Widget) notify() {
	if w.onUpdate != nil {
		w.onUpdate()
	}
}
