package workers

import (
	"agora/errors"
	"context"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"
)

const gcDiscardRatio = 0.5

// RetentionWorker reclaims value log space left by expired notifications
// and deleted conversations.
type RetentionWorker struct {
	log      *slog.Logger
	db       *badger.DB
	interval time.Duration
}

func NewRetentionWorker(log *slog.Logger, db *badger.DB, interval time.Duration) *RetentionWorker {
	return &RetentionWorker{log: log, db: db, interval: interval}
}

// Run stops at once for an in-memory store, which has no value log.
func (w *RetentionWorker) Run(ctx context.Context) error {
	if w.db.Opts().InMemory {
		w.log.Debug("In-memory store, value log GC disabled")
		return nil
	}
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			rewrites, err := w.collect(ctx)
			if err != nil {
				w.log.Warn("Value log GC failed", "error", err)
				continue
			}
			w.log.Debug("Value log GC done", "rewrites", rewrites)
		}
	}
}

// collect rewrites value log files until badger reports nothing left to reclaim.
func (w *RetentionWorker) collect(ctx context.Context) (int, error) {
	rewrites := 0
	for ctx.Err() == nil {
		err := w.db.RunValueLogGC(gcDiscardRatio)
		switch {
		case err == nil:
			rewrites++
		case errors.Is(err, badger.ErrNoRewrite), errors.Is(err, badger.ErrRejected):
			return rewrites, nil
		default:
			return rewrites, err
		}
	}
	return rewrites, nil
}
