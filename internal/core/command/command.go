// Package command hands messages to a mounted chat widget once it has said it
// is ready.
package command

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/NaviAgent/aisuckhoe-webchat/internal/core/logging"
)

// File is an attachment sent along with a message
type File struct {
	Name     string `json:"name"`
	MimeType string `json:"mime_type,omitempty"`
	Data     []byte `json:"data,omitempty"`
}

// ExternalCommand is assigned to the widget's imperative surface. The widget
// consumes it and clears it.
type ExternalCommand struct {
	Text      string `json:"text"`
	Files     []File `json:"files"`
	Timestamp int64  `json:"timestamp"` // unix milliseconds
}

// Handle is the imperative surface of a mounted widget
type Handle interface {
	SetExternalCommand(cmd ExternalCommand)
}

// State of the mounted widget instance
type State int

const (
	NotReady State = iota
	Ready
)

func (s State) String() string {
	if s == Ready {
		return "ready"
	}
	return "not_ready"
}

// Draft is a message composed before the session's widget was ready
type Draft struct {
	Text  string
	Files []File
}

// Option configures a Channel
type Option func(*Channel)

// WithLogger sets the logger for dropped commands
func WithLogger(l *zap.Logger) Option {
	return func(c *Channel) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithClock overrides the timestamp source
func WithClock(now func() time.Time) Option {
	return func(c *Channel) {
		c.now = now
	}
}

// Channel tracks one widget mount and the draft waiting for it
type Channel struct {
	logger *zap.Logger
	now    func() time.Time

	mu     sync.Mutex
	handle Handle
	state  State
	draft  *Draft
}

// New returns a channel with no widget attached
func New(opts ...Option) *Channel {
	c := &Channel{
		logger: logging.Named("command"),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Attach records a new widget mount. Readiness starts over.
func (c *Channel) Attach(h Handle) {
	c.mu.Lock()
	c.handle = h
	c.state = NotReady
	c.mu.Unlock()
}

// Detach forgets the mounted widget
func (c *Channel) Detach() {
	c.mu.Lock()
	c.handle = nil
	c.state = NotReady
	c.mu.Unlock()
}

// State reports whether the current mount has signaled readiness
func (c *Channel) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// MarkReady is called by the widget once it can take commands. Later calls
// for the same mount do nothing.
func (c *Channel) MarkReady() {
	c.mu.Lock()
	if c.handle == nil {
		c.mu.Unlock()
		c.logger.Warn("ready signaled with no widget mounted")
		return
	}
	if c.state == Ready {
		c.mu.Unlock()
		return
	}
	c.state = Ready
	c.mu.Unlock()

	c.flush()
}

// QueueDraft stores a draft to send as soon as the widget is ready. A queued
// draft that has not been sent yet is replaced.
func (c *Channel) QueueDraft(text string, files []File) {
	c.mu.Lock()
	c.draft = &Draft{Text: text, Files: files}
	c.mu.Unlock()

	c.flush()
}

// Pending returns the draft still waiting for readiness
func (c *Channel) Pending() (Draft, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.draft == nil {
		return Draft{}, false
	}
	return *c.draft, true
}

// SendMessage assigns a command to the mounted widget. With no widget, or one
// that is not ready, the message is logged and dropped.
func (c *Channel) SendMessage(text string, files []File) bool {
	c.mu.Lock()
	h, state := c.handle, c.state
	c.mu.Unlock()

	if h == nil {
		c.logger.Error("cannot send message: widget not mounted", zap.Int("text_len", len(text)))
		return false
	}
	if state != Ready {
		c.logger.Error("cannot send message: widget not ready", zap.Int("text_len", len(text)))
		return false
	}

	if files == nil {
		files = []File{}
	}
	h.SetExternalCommand(ExternalCommand{
		Text:      text,
		Files:     files,
		Timestamp: c.now().UnixMilli(),
	})
	return true
}

// flush sends the pending draft when the widget is ready. The draft is cleared
// before sending so it goes out at most once.
func (c *Channel) flush() {
	c.mu.Lock()
	if c.state != Ready || c.draft == nil {
		c.mu.Unlock()
		return
	}
	d := c.draft
	c.draft = nil
	c.mu.Unlock()

	c.SendMessage(d.Text, d.Files)
}
