// Package reconcile repairs drift between session metadata and transcript
// documents. Writes to the two stores are independent and fire-and-forget, so
// a failed metadata update leaves message counts and activity times behind
// the transcript; a deleted session leaves its transcript document behind.
package reconcile

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/NaviAgent/aisuckhoe-webchat/internal/core/logging"
	"github.com/NaviAgent/aisuckhoe-webchat/internal/core/models"
)

const defaultConcurrency = 4

// Store is the union of metadata and transcript operations a pass needs
type Store interface {
	ListAllSessions(ctx context.Context) ([]models.Session, error)
	ReadTranscript(ctx context.Context, sessionID string) (*models.TranscriptRecord, error)
	TouchSession(ctx context.Context, id string, messageCount int, at time.Time) error
	ListOrphanTranscripts(ctx context.Context) ([]string, error)
	DeleteTranscript(ctx context.Context, sessionID string) error
}

// Report counts what one pass did
type Report struct {
	Checked  int
	Repaired int
	Pruned   int
	Failed   int
}

// Worker runs reconciliation passes
type Worker struct {
	store       Store
	interval    time.Duration
	concurrency int
	logger      *zap.Logger
}

// NewWorker creates a worker that runs a pass every interval once started
func NewWorker(store Store, interval time.Duration) *Worker {
	return &Worker{
		store:       store,
		interval:    interval,
		concurrency: defaultConcurrency,
		logger:      logging.Named("reconcile"),
	}
}

// Start runs a pass immediately and then on every tick until ctx is done
func (w *Worker) Start(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.logger.Info("reconciler started", zap.Duration("interval", w.interval))
	if _, err := w.Run(ctx); err != nil {
		w.logger.Error("initial reconcile failed", zap.Error(err))
	}

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("reconciler stopping")
			return ctx.Err()
		case <-ticker.C:
			if _, err := w.Run(ctx); err != nil {
				w.logger.Error("reconcile failed", zap.Error(err))
			}
		}
	}
}

// Run performs one pass: sessions whose message count or activity time lag
// behind their transcript are touched, and transcripts with no session are
// deleted. Per-session failures are logged and counted, not returned.
func (w *Worker) Run(ctx context.Context) (Report, error) {
	var report Report

	sessions, err := w.store.ListAllSessions(ctx)
	if err != nil {
		return report, err
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(w.concurrency)

	for _, s := range sessions {
		g.Go(func() error {
			repaired, err := w.repair(gctx, s)

			mu.Lock()
			defer mu.Unlock()
			report.Checked++
			switch {
			case err != nil:
				report.Failed++
				w.logger.Warn("session repair failed", zap.String("session_id", s.ID), zap.Error(err))
			case repaired:
				report.Repaired++
			}
			return gctx.Err()
		})
	}
	if err := g.Wait(); err != nil {
		return report, err
	}

	orphans, err := w.store.ListOrphanTranscripts(ctx)
	if err != nil {
		return report, err
	}
	for _, key := range orphans {
		if err := w.store.DeleteTranscript(ctx, key); err != nil {
			report.Failed++
			w.logger.Warn("orphan prune failed", zap.String("session_id", key), zap.Error(err))
			continue
		}
		report.Pruned++
	}

	if report.Repaired > 0 || report.Pruned > 0 || report.Failed > 0 {
		w.logger.Info("reconcile pass",
			zap.Int("checked", report.Checked),
			zap.Int("repaired", report.Repaired),
			zap.Int("pruned", report.Pruned),
			zap.Int("failed", report.Failed))
	}
	return report, nil
}

func (w *Worker) repair(ctx context.Context, s models.Session) (bool, error) {
	rec, err := w.store.ReadTranscript(ctx, s.ID)
	if err != nil {
		return false, err
	}
	if rec == nil {
		return false, nil
	}

	count := rec.MessageCount()
	at := s.UpdatedAt
	if rec.UpdatedAt.After(at) {
		at = rec.UpdatedAt
	}
	if count == s.MessageCount && at.Equal(s.UpdatedAt) {
		return false, nil
	}

	if err := w.store.TouchSession(ctx, s.ID, count, at); err != nil {
		return false, err
	}
	return true, nil
}
