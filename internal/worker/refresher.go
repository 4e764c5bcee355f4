package worker

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"fintrack/internal/api"
	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/storage"
)

// Fetcher pulls the authoritative record sets from the upstream services.
type Fetcher interface {
	ListExpenses(ctx context.Context) ([]core.Transaction, error)
	ListEntries(ctx context.Context) ([]core.LendBorrowEntry, error)
}

// Mirror receives refreshed record sets.
type Mirror interface {
	ReplaceTransactions(ctx context.Context, ownerID string, txs []core.Transaction) error
	ReplaceEntries(ctx context.Context, ownerID string, entries []core.LendBorrowEntry) error
	SetSyncState(ctx context.Context, resource string, seq uint64) error
}

// SessionSource tells the refresher whose data to sync, if anyone's.
type SessionSource interface {
	IsAuthenticated() bool
	Session() (core.Session, bool)
}

// Refresher periodically copies the upstream expense and lend-borrow sets
// into the local mirror. Each resource carries its own sequencer so a slow
// fetch can never overwrite data from a later one.
type Refresher struct {
	fetcher    Fetcher
	mirror     Mirror
	sessions   SessionSource
	invalidate func(ownerID string)
	interval   time.Duration
	logger     *log.Logger

	expenseSeq api.Sequencer
	entrySeq   api.Sequencer
}

func NewRefresher(fetcher Fetcher, mirror Mirror, sessions SessionSource, interval time.Duration, invalidate func(ownerID string), logger *log.Logger) *Refresher {
	if invalidate == nil {
		invalidate = func(string) {}
	}
	if logger == nil {
		logger = log.NewComponent(log.ComponentWorker)
	}
	return &Refresher{
		fetcher:    fetcher,
		mirror:     mirror,
		sessions:   sessions,
		invalidate: invalidate,
		interval:   interval,
		logger:     logger,
	}
}

// Run refreshes once immediately and then on every tick until ctx is done.
func (r *Refresher) Run(ctx context.Context) error {
	r.logger.InfoContext(ctx, "Refresh worker started", "interval", r.interval.String())

	if err := r.RefreshOnce(ctx); err != nil {
		r.logger.WarnContext(ctx, "Initial refresh failed", log.FieldError, err.Error())
	}

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.InfoContext(ctx, "Refresh worker stopping")
			return ctx.Err()
		case <-ticker.C:
			if err := r.RefreshOnce(ctx); err != nil {
				r.logger.WarnContext(ctx, "Refresh failed", log.FieldError, err.Error())
			}
		}
	}
}

// RefreshOnce fetches both resources concurrently. A resource is committed
// only when its fetch is still the newest one begun; stale responses are
// dropped. When either resource is committed the owner's cached summaries
// are invalidated.
func (r *Refresher) RefreshOnce(ctx context.Context) error {
	if !r.sessions.IsAuthenticated() {
		r.logger.DebugContext(ctx, "Skipping refresh, no active session")
		return nil
	}

	sess, ok := r.sessions.Session()
	if !ok {
		return nil
	}
	ownerID := ""
	if sess.User != nil {
		ownerID = sess.User.ID
	}

	var committed atomic.Bool

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		seq := r.expenseSeq.Begin()
		txs, err := r.fetcher.ListExpenses(gctx)
		if err != nil {
			return fmt.Errorf("fetch expenses: %w", err)
		}
		if !r.expenseSeq.Commit(seq) {
			r.logger.DebugContext(gctx, "Dropping stale expense refresh", log.FieldSequence, seq)
			return nil
		}
		if err := r.mirror.ReplaceTransactions(gctx, ownerID, txs); err != nil {
			return fmt.Errorf("mirror expenses: %w", err)
		}
		if err := r.mirror.SetSyncState(gctx, storage.ResourceExpenses, seq); err != nil {
			return fmt.Errorf("record expense sync: %w", err)
		}
		committed.Store(true)
		r.logger.InfoContext(gctx, "Expenses mirrored",
			log.FieldRecordCount, len(txs), log.FieldSequence, seq)
		return nil
	})

	g.Go(func() error {
		seq := r.entrySeq.Begin()
		entries, err := r.fetcher.ListEntries(gctx)
		if err != nil {
			return fmt.Errorf("fetch lend-borrow entries: %w", err)
		}
		if !r.entrySeq.Commit(seq) {
			r.logger.DebugContext(gctx, "Dropping stale lend-borrow refresh", log.FieldSequence, seq)
			return nil
		}
		if err := r.mirror.ReplaceEntries(gctx, ownerID, entries); err != nil {
			return fmt.Errorf("mirror lend-borrow entries: %w", err)
		}
		if err := r.mirror.SetSyncState(gctx, storage.ResourceLendBorrow, seq); err != nil {
			return fmt.Errorf("record lend-borrow sync: %w", err)
		}
		committed.Store(true)
		r.logger.InfoContext(gctx, "Lend-borrow entries mirrored",
			log.FieldRecordCount, len(entries), log.FieldSequence, seq)
		return nil
	})

	err := g.Wait()
	if committed.Load() {
		r.invalidate(ownerID)
	}
	return err
}
