package command

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type fakeWidget struct {
	mu       sync.Mutex
	commands []ExternalCommand
}

func (w *fakeWidget) SetExternalCommand(cmd ExternalCommand) {
	w.mu.Lock()
	w.commands = append(w.commands, cmd)
	w.mu.Unlock()
}

func (w *fakeWidget) received() []ExternalCommand {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]ExternalCommand(nil), w.commands...)
}

var fixed = time.Date(2025, 6, 15, 9, 0, 0, 0, time.UTC)

func newChannel(t *testing.T) (*Channel, *observer.ObservedLogs) {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	return New(WithLogger(zap.New(core)), WithClock(func() time.Time { return fixed })), logs
}

func TestDraftFiresOnceOnReady(t *testing.T) {
	c, _ := newChannel(t)
	w := &fakeWidget{}

	c.QueueDraft("hello from the landing page", nil)
	c.Attach(w)
	assert.Empty(t, w.received(), "nothing is sent before ready")

	c.MarkReady()

	got := w.received()
	require.Len(t, got, 1)
	assert.Equal(t, "hello from the landing page", got[0].Text)
	assert.Equal(t, []File{}, got[0].Files)
	assert.Equal(t, fixed.UnixMilli(), got[0].Timestamp)

	_, pending := c.Pending()
	assert.False(t, pending, "draft is cleared after sending")

	c.MarkReady()
	c.MarkReady()
	assert.Len(t, w.received(), 1, "repeated readiness does not resend")
}

func TestDraftQueuedAfterReadySendsImmediately(t *testing.T) {
	c, _ := newChannel(t)
	w := &fakeWidget{}
	c.Attach(w)
	c.MarkReady()

	files := []File{{Name: "scan.png", MimeType: "image/png", Data: []byte{1, 2}}}
	c.QueueDraft("see attached", files)

	got := w.received()
	require.Len(t, got, 1)
	assert.Equal(t, files, got[0].Files)
}

func TestSendWithoutWidgetIsLoggedAndDropped(t *testing.T) {
	c, logs := newChannel(t)

	assert.False(t, c.SendMessage("hi", nil))
	assert.Equal(t, 1, logs.FilterMessage("cannot send message: widget not mounted").Len())
}

func TestSendBeforeReadyIsLoggedAndDropped(t *testing.T) {
	c, logs := newChannel(t)
	w := &fakeWidget{}
	c.Attach(w)

	assert.False(t, c.SendMessage("hi", nil))
	assert.Empty(t, w.received())
	assert.Equal(t, 1, logs.FilterMessage("cannot send message: widget not ready").Len())
}

func TestRemountResetsReadiness(t *testing.T) {
	c, _ := newChannel(t)
	first := &fakeWidget{}
	c.Attach(first)
	c.MarkReady()
	require.Equal(t, Ready, c.State())

	second := &fakeWidget{}
	c.Attach(second)
	assert.Equal(t, NotReady, c.State())

	c.QueueDraft("for the new session", nil)
	assert.Empty(t, second.received())

	c.MarkReady()
	assert.Len(t, second.received(), 1)
	assert.Empty(t, first.received())
}

func TestReadyWithoutWidgetIsIgnored(t *testing.T) {
	c, logs := newChannel(t)
	c.QueueDraft("waiting", nil)

	c.MarkReady()

	assert.Equal(t, NotReady, c.State())
	d, ok := c.Pending()
	assert.True(t, ok)
	assert.Equal(t, "waiting", d.Text)
	assert.Equal(t, 1, logs.FilterMessage("ready signaled with no widget mounted").Len())
}

func TestDetachDropsHandle(t *testing.T) {
	c, _ := newChannel(t)
	w := &fakeWidget{}
	c.Attach(w)
	c.MarkReady()
	c.Detach()

	assert.False(t, c.SendMessage("late", nil))
	assert.Empty(t, w.received())
}

func TestConcurrentReadyAndQueueSendOnce(t *testing.T) {
	for i := 0; i < 50; i++ {
		c, _ := newChannel(t)
		w := &fakeWidget{}
		c.Attach(w)

		var wg sync.WaitGroup
		wg.Add(2)
		go func() { defer wg.Done(); c.QueueDraft("once", nil) }()
		go func() { defer wg.Done(); c.MarkReady() }()
		wg.Wait()

		assert.Len(t, w.received(), 1)
	}
}
