// Package history drives the session history list: grouping by recency,
// search, inline rename and delete.
//
// The controller owns the single "currently editing" id, so at most one row
// is ever in edit state. Rename and delete update the in-memory list first and
// reach the metadata store in the background; store failures are logged and
// the optimistic state stays.
package history

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/NaviAgent/aisuckhoe-webchat/internal/core/logging"
	"github.com/NaviAgent/aisuckhoe-webchat/internal/core/models"
	"github.com/NaviAgent/aisuckhoe-webchat/internal/core/timebucket"
)

const defaultStoreTimeout = 10 * time.Second

// SessionStore is the part of the metadata store the list mutates
type SessionStore interface {
	RenameSession(ctx context.Context, id, name string) (*models.Session, error)
	DeleteSession(ctx context.Context, id string) error
}

// RowState is the edit state of one row
type RowState int

const (
	RowView RowState = iota
	RowEdit
)

func (s RowState) String() string {
	if s == RowEdit {
		return "edit"
	}
	return "view"
}

// Option configures a Controller
type Option func(*Controller)

// WithLogger sets the logger for store failures
func WithLogger(l *zap.Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithStoreTimeout bounds each background store call
func WithStoreTimeout(d time.Duration) Option {
	return func(c *Controller) {
		if d > 0 {
			c.storeTimeout = d
		}
	}
}

// Controller holds the visible history list and its edit state
type Controller struct {
	store        SessionStore
	logger       *zap.Logger
	storeTimeout time.Duration

	mu        sync.Mutex
	sessions  []models.Session
	openID    string
	editingID string
	draft     string
	query     string

	wg sync.WaitGroup
}

// New returns an empty controller
func New(store SessionStore, opts ...Option) *Controller {
	c := &Controller{
		store:        store,
		logger:       logging.Named("history"),
		storeTimeout: defaultStoreTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetSessions replaces the list, typically after a reload from the store. An
// edit on a row that no longer exists is dropped.
func (c *Controller) SetSessions(sessions []models.Session) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sessions = append([]models.Session(nil), sessions...)
	if c.editingID != "" && c.indexOf(c.editingID) < 0 {
		c.editingID, c.draft = "", ""
	}
}

// Sessions returns the unfiltered list in its current order
func (c *Controller) Sessions() []models.Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]models.Session(nil), c.sessions...)
}

// SetOpenSession records the session currently shown in the chat pane
func (c *Controller) SetOpenSession(id string) {
	c.mu.Lock()
	c.openID = id
	c.mu.Unlock()
}

// OpenSession returns the id set by SetOpenSession
func (c *Controller) OpenSession() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.openID
}

// SetQuery sets the search query applied before grouping
func (c *Controller) SetQuery(q string) {
	c.mu.Lock()
	c.query = q
	c.mu.Unlock()
}

// Query returns the raw search query
func (c *Controller) Query() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.query
}

// Groups filters the list by the current query and groups what is left by
// creation time. Empty groups are omitted.
func (c *Controller) Groups(now time.Time) []timebucket.Group[models.Session] {
	c.mu.Lock()
	filter := ParseQuery(c.query, now)
	visible := make([]models.Session, 0, len(c.sessions))
	for _, s := range c.sessions {
		if filter.Match(s) {
			visible = append(visible, s)
		}
	}
	c.mu.Unlock()

	return timebucket.GroupByTimePeriods(visible, func(s models.Session) time.Time {
		return s.CreatedAt
	}, now)
}

// StartEdit puts a row into edit state with its current name as the draft.
// Any other row being edited goes back to view without saving.
func (c *Controller) StartEdit(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	i := c.indexOf(id)
	if i < 0 {
		return false
	}
	c.editingID = id
	c.draft = c.sessions[i].Name
	return true
}

// SetDraft replaces the draft of the row being edited
func (c *Controller) SetDraft(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.editingID != "" {
		c.draft = text
	}
}

// Draft returns the current rename draft
func (c *Controller) Draft() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.draft
}

// EditingID returns the row in edit state, or ""
func (c *Controller) EditingID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.editingID
}

// State returns the edit state of a row
func (c *Controller) State(id string) RowState {
	c.mu.Lock()
	defer c.mu.Unlock()
	if id != "" && id == c.editingID {
		return RowEdit
	}
	return RowView
}

// Confirm leaves edit state. A draft that is blank after trimming is a
// cancel; otherwise the row is renamed and the store is updated in the
// background. It reports whether a rename was issued.
func (c *Controller) Confirm(ctx context.Context) bool {
	c.mu.Lock()
	id := c.editingID
	name := strings.TrimSpace(c.draft)
	c.editingID, c.draft = "", ""
	if id == "" || name == "" {
		c.mu.Unlock()
		return false
	}
	if i := c.indexOf(id); i >= 0 {
		c.sessions[i].Name = name
	}
	c.mu.Unlock()

	c.background(ctx, "rename", id, func(ctx context.Context) error {
		_, err := c.store.RenameSession(ctx, id, name)
		return err
	})
	return true
}

// Cancel leaves edit state without saving
func (c *Controller) Cancel() {
	c.mu.Lock()
	c.editingID, c.draft = "", ""
	c.mu.Unlock()
}

// HandleKey applies the edit keys: enter confirms, esc cancels. It reports
// whether the key was consumed.
func (c *Controller) HandleKey(ctx context.Context, key string) bool {
	if c.EditingID() == "" {
		return false
	}
	switch key {
	case "enter":
		c.Confirm(ctx)
		return true
	case "esc":
		c.Cancel()
		return true
	}
	return false
}

// CanDelete reports whether a row may be deleted. The open session never can.
func (c *Controller) CanDelete(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return id != c.openID
}

// Delete removes a row from the list and deletes the session from the store
// in the background. Rows in edit state and the open session are refused.
func (c *Controller) Delete(ctx context.Context, id string) bool {
	c.mu.Lock()
	if id == c.openID || id == c.editingID {
		c.mu.Unlock()
		c.logger.Warn("delete refused", zap.String("session_id", id))
		return false
	}
	i := c.indexOf(id)
	if i < 0 {
		c.mu.Unlock()
		return false
	}
	c.sessions = append(c.sessions[:i], c.sessions[i+1:]...)
	c.mu.Unlock()

	c.background(ctx, "delete", id, func(ctx context.Context) error {
		return c.store.DeleteSession(ctx, id)
	})
	return true
}

// Wait blocks until background store calls have finished
func (c *Controller) Wait() {
	c.wg.Wait()
}

// background runs a store call detached from the caller's cancellation
func (c *Controller) background(ctx context.Context, op, id string, call func(context.Context) error) {
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.storeTimeout)
		defer cancel()
		if err := call(ctx); err != nil {
			c.logger.Error("session "+op+" failed",
				zap.String("session_id", id),
				zap.Error(err))
		}
	}()
}

func (c *Controller) indexOf(id string) int {
	for i := range c.sessions {
		if c.sessions[i].ID == id {
			return i
		}
	}
	return -1
}
