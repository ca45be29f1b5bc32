/*
pruner.go - Plan history retention

PURPOSE:
  Periodically deletes recorded plan runs older than the retention window
  and sweeps expired entries out of the in-process plan cache.

DESIGN:
  - Runs a background goroutine with a configurable interval
  - Runs once immediately on start
  - A zero Retention keeps every plan run (cache sweeping still happens)

USAGE:
  pruner := NewHistoryPruner(store, cache, 720*time.Hour, time.Hour, log)
  pruner.Start()
  // ... later
  pruner.Stop()

SEE ALSO:
  - store.Store.DeletePlanRunsBefore
  - cache.Memory.Sweep
*/
package api

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/warp/payoff-engine/cache"
	"github.com/warp/payoff-engine/store"
)

// sweeper is implemented by caches that hold expired entries in memory.
type sweeper interface {
	Sweep() int
}

// HistoryPruner deletes old plan runs on a schedule.
type HistoryPruner struct {
	Store     store.Store
	Cache     cache.Cache
	Retention time.Duration
	Interval  time.Duration
	Log       *zap.Logger

	now    func() time.Time
	cancel context.CancelFunc
	wg     sync.WaitGroup
	mu     sync.Mutex
}

// NewHistoryPruner creates a pruner. A nil cache is allowed.
func NewHistoryPruner(st store.Store, c cache.Cache, retention, interval time.Duration, log *zap.Logger) *HistoryPruner {
	if log == nil {
		log = zap.NewNop()
	}
	return &HistoryPruner{
		Store:     st,
		Cache:     c,
		Retention: retention,
		Interval:  interval,
		Log:       log,
		now:       time.Now,
	}
}

// Start begins pruning in the background. It is a no-op when Interval is
// not positive or the pruner is already running.
func (p *HistoryPruner) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.Interval <= 0 {
		p.Log.Info("history pruner disabled")
		return
	}
	if p.cancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel
	p.wg.Add(1)
	go p.run(ctx)

	p.Log.Info("history pruner started",
		zap.Duration("interval", p.Interval),
		zap.Duration("retention", p.Retention),
	)
}

// Stop stops the pruner and waits for an in-flight run to finish.
func (p *HistoryPruner) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.cancel == nil {
		return
	}
	p.cancel()
	p.wg.Wait()
	p.cancel = nil
	p.Log.Info("history pruner stopped")
}

func (p *HistoryPruner) run(ctx context.Context) {
	defer p.wg.Done()

	ticker := time.NewTicker(p.Interval)
	defer ticker.Stop()

	for {
		if _, err := p.RunOnce(ctx); err != nil {
			p.Log.Warn("history prune failed", zap.Error(err))
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// RunOnce prunes once and returns the number of plan runs deleted.
func (p *HistoryPruner) RunOnce(ctx context.Context) (int64, error) {
	if s, ok := p.Cache.(sweeper); ok {
		if n := s.Sweep(); n > 0 {
			p.Log.Debug("plan cache swept", zap.Int("expired", n))
		}
	}

	if p.Retention <= 0 {
		return 0, nil
	}

	cutoff := p.now().Add(-p.Retention)
	n, err := p.Store.DeletePlanRunsBefore(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		p.Log.Info("plan runs pruned", zap.Int64("deleted", n), zap.Time("cutoff", cutoff))
	}
	return n, nil
}
