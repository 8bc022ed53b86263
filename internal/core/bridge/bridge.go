// Package bridge implements the storage contract the chat widget uses to load
// and save a session's transcript.
//
// A Bridge owns one mutable cell per activated session. Save updates the cell
// before any remote write is issued, so a Load that follows a Save always sees
// the saved value no matter how slow the transcript store is. Writes to the
// store run in the background, one at a time and in Save order.
package bridge

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/NaviAgent/aisuckhoe-webchat/internal/core/logging"
	"github.com/NaviAgent/aisuckhoe-webchat/internal/core/models"
)

// DefaultWriteTimeout bounds a single background write
const DefaultWriteTimeout = 10 * time.Second

// TranscriptStore is the document store the bridge writes through to
type TranscriptStore interface {
	WriteTranscriptMerge(ctx context.Context, sessionID string, fields map[string]any) error
}

// LoadResult is what the widget receives from Load
type LoadResult struct {
	Transcript []models.Message
	Lead       models.Lead
	SessionID  string
}

// SavePayload is what the widget hands to Save. A nil field is absent: it
// leaves the mirror and the stored document untouched.
type SavePayload struct {
	Transcript []models.Message
	Lead       models.Lead
}

// Option configures a Bridge
type Option func(*Bridge)

// WithLogger sets the logger used for write failures
func WithLogger(l *zap.Logger) Option {
	return func(b *Bridge) {
		if l != nil {
			b.logger = l
		}
	}
}

// WithOnPersisted registers a callback run after each successful write, with
// the transcript length at the time of the save
func WithOnPersisted(fn func(sessionID string, messageCount int)) Option {
	return func(b *Bridge) {
		b.onPersisted = fn
	}
}

// WithWriteTimeout overrides DefaultWriteTimeout
func WithWriteTimeout(d time.Duration) Option {
	return func(b *Bridge) {
		if d > 0 {
			b.writeTimeout = d
		}
	}
}

// Bridge mirrors one session's transcript for the widget
type Bridge struct {
	sessionID    string
	store        TranscriptStore
	logger       *zap.Logger
	onPersisted  func(sessionID string, messageCount int)
	writeTimeout time.Duration

	mu         sync.Mutex
	transcript []models.Message
	lead       models.Lead
	tail       chan struct{} // closed when the most recently dispatched write finishes

	wg sync.WaitGroup
}

// New creates a bridge for sessionID with an empty mirror
func New(sessionID string, store TranscriptStore, opts ...Option) *Bridge {
	b := &Bridge{
		sessionID:    sessionID,
		store:        store,
		logger:       logging.Named("bridge"),
		writeTimeout: DefaultWriteTimeout,
	}
	for _, opt := range opts {
		opt(b)
	}
	b.logger = b.logger.With(zap.String("session_id", sessionID))
	return b
}

// SessionID returns the session this bridge serves
func (b *Bridge) SessionID() string {
	return b.sessionID
}

// Seed replaces the mirror with a record read from the store. It is called
// once per activation, before the widget mounts.
func (b *Bridge) Seed(rec models.TranscriptRecord) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.transcript = models.CloneTranscript(rec.Transcript)
	b.lead = models.CloneLead(rec.Lead)
}

// Load returns the mirror. It never reads the store. A bridge only serves its
// own session; any other id gets an empty result.
func (b *Bridge) Load(widgetID, sessionID string) LoadResult {
	if sessionID != b.sessionID {
		b.logger.Debug("load for foreign session",
			zap.String("widget_id", widgetID),
			zap.String("requested", sessionID))
		return LoadResult{SessionID: sessionID}
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	return LoadResult{
		Transcript: models.CloneTranscript(b.transcript),
		Lead:       models.CloneLead(b.lead),
		SessionID:  b.sessionID,
	}
}

// Remove drops the local mirror. The stored document is not deleted.
func (b *Bridge) Remove(widgetID, sessionID string) {
	if sessionID != b.sessionID {
		return
	}
	b.mu.Lock()
	b.transcript = nil
	b.lead = nil
	b.mu.Unlock()
	b.logger.Debug("mirror removed", zap.String("widget_id", widgetID))
}

// Save updates the mirror, then writes the present fields through to the
// store in the background. Failures are logged; the mirror is kept.
func (b *Bridge) Save(widgetID string, p SavePayload) {
	fields := stripAbsent(p)

	b.mu.Lock()
	if p.Transcript != nil {
		b.transcript = models.CloneTranscript(p.Transcript)
	}
	if p.Lead != nil {
		b.lead = models.CloneLead(p.Lead)
	}
	count := len(b.transcript)

	if len(fields) == 0 {
		b.mu.Unlock()
		return
	}

	prev := b.tail
	done := make(chan struct{})
	b.tail = done
	b.wg.Add(1)
	b.mu.Unlock()

	go func() {
		defer b.wg.Done()
		defer close(done)
		if prev != nil {
			<-prev
		}
		b.write(widgetID, fields, count)
	}()
}

// Wait blocks until every dispatched write has finished
func (b *Bridge) Wait() {
	b.wg.Wait()
}

func (b *Bridge) write(widgetID string, fields map[string]any, count int) {
	ctx, cancel := context.WithTimeout(context.Background(), b.writeTimeout)
	defer cancel()

	if err := b.store.WriteTranscriptMerge(ctx, b.sessionID, fields); err != nil {
		b.logger.Error("transcript write failed",
			zap.String("widget_id", widgetID),
			zap.Int("message_count", count),
			zap.Error(err))
		return
	}

	if b.onPersisted != nil {
		b.onPersisted(b.sessionID, count)
	}
}

// stripAbsent builds the merge fields for a save. Nil values are dropped at
// every level of the lead since the store refuses them.
func stripAbsent(p SavePayload) map[string]any {
	fields := make(map[string]any, 2)
	if p.Transcript != nil {
		fields["transcript"] = models.CloneTranscript(p.Transcript)
	}
	if p.Lead != nil {
		fields["lead"] = stripNil(map[string]any(p.Lead))
	}
	return fields
}

func stripNil(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		switch val := v.(type) {
		case nil:
			continue
		case map[string]any:
			out[k] = stripNil(val)
		case models.Lead:
			out[k] = stripNil(map[string]any(val))
		default:
			out[k] = v
		}
	}
	return out
}
