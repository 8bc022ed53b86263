// Package daemon watches an inbox directory for transcript exports and keeps
// the stores reconciled in the background.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/NaviAgent/aisuckhoe-webchat/internal/core/importer"
	"github.com/NaviAgent/aisuckhoe-webchat/internal/core/logging"
	"github.com/NaviAgent/aisuckhoe-webchat/internal/core/reconcile"
)

// PauseFileName in the inbox suspends imports while it exists
const PauseFileName = ".paused"

// Daemon imports new .jsonl files dropped into the inbox and runs the
// reconciler on its own ticker
type Daemon struct {
	importer   *importer.Importer
	reconciler *reconcile.Worker
	watcher    *fsnotify.Watcher
	inbox      string
	settle     time.Duration // Wait after an event so the writer can finish
	logger     *zap.Logger

	mu    sync.Mutex
	stats Stats
}

// Stats tracks daemon activity
type Stats struct {
	StartTime     time.Time
	FilesImported int
	LastImport    time.Time
	Errors        int
}

// New creates a daemon for inbox, creating the directory if needed. A nil
// reconciler disables periodic reconciliation.
func New(imp *importer.Importer, rec *reconcile.Worker, inbox string) (*Daemon, error) {
	if err := os.MkdirAll(inbox, 0755); err != nil {
		return nil, fmt.Errorf("failed to create inbox: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	return &Daemon{
		importer:   imp,
		reconciler: rec,
		watcher:    watcher,
		inbox:      inbox,
		settle:     100 * time.Millisecond,
		logger:     logging.Named("daemon"),
		stats:      Stats{StartTime: time.Now()},
	}, nil
}

// Stats returns a snapshot of the counters
func (d *Daemon) Stats() Stats {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.stats
}

// Start runs until ctx is cancelled. Files already in the inbox are imported
// first.
func (d *Daemon) Start(ctx context.Context) error {
	defer d.watcher.Close()

	d.logger.Info("daemon starting", zap.String("inbox", d.inbox))
	if err := d.setupWatches(d.inbox); err != nil {
		return fmt.Errorf("failed to setup watches: %w", err)
	}

	if !d.isPaused() {
		res, err := d.importer.ImportDirectory(ctx, d.inbox, nil)
		if err != nil {
			d.logger.Warn("initial import failed", zap.Error(err))
		} else {
			d.recordImports(res.Imported, res.Failed)
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	if d.reconciler != nil {
		g.Go(func() error { return d.reconciler.Start(gctx) })
	}
	g.Go(func() error { return d.watch(gctx) })

	err := g.Wait()
	if errors.Is(err, context.Canceled) {
		d.logger.Info("daemon shutting down")
		return nil
	}
	return err
}

func (d *Daemon) watch(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-d.watcher.Events:
			if !ok {
				return fmt.Errorf("watcher closed unexpectedly")
			}
			if event.Op&fsnotify.Create == fsnotify.Create {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := d.setupWatches(event.Name); err != nil {
						d.logger.Warn("cannot watch new directory", zap.Error(err))
					}
					continue
				}
			}
			if d.shouldProcessEvent(event) {
				d.handleFileEvent(ctx, event)
			}

		case err, ok := <-d.watcher.Errors:
			if !ok {
				return fmt.Errorf("watcher error channel closed")
			}
			d.logger.Warn("watcher error", zap.Error(err))
			d.recordImports(0, 1)
		}
	}
}

// setupWatches adds root and every directory below it
func (d *Daemon) setupWatches(root string) error {
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			if err := d.watcher.Add(path); err != nil {
				return fmt.Errorf("failed to watch %s: %w", path, err)
			}
		}
		return nil
	})
}

func (d *Daemon) shouldProcessEvent(event fsnotify.Event) bool {
	if !strings.HasSuffix(event.Name, ".jsonl") {
		return false
	}
	return event.Op&fsnotify.Write == fsnotify.Write ||
		event.Op&fsnotify.Create == fsnotify.Create
}

func (d *Daemon) handleFileEvent(ctx context.Context, event fsnotify.Event) {
	if d.isPaused() {
		d.logger.Debug("paused, skipping", zap.String("file", event.Name))
		return
	}

	select {
	case <-ctx.Done():
		return
	case <-time.After(d.settle):
	}

	parsed, imported, err := d.importer.ImportFile(ctx, event.Name)
	if err != nil {
		d.logger.Warn("import failed", zap.String("file", event.Name), zap.Error(err))
		d.recordImports(0, 1)
		return
	}
	if !imported {
		return
	}
	d.recordImports(1, 0)
	d.logger.Info("imported",
		zap.String("file", filepath.Base(event.Name)),
		zap.String("session", parsed.Name),
		zap.Int("messages", len(parsed.Messages)))
}

func (d *Daemon) recordImports(imported, failed int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stats.FilesImported += imported
	d.stats.Errors += failed
	if imported > 0 {
		d.stats.LastImport = time.Now()
	}
}

func (d *Daemon) isPaused() bool {
	_, err := os.Stat(filepath.Join(d.inbox, PauseFileName))
	return err == nil
}
