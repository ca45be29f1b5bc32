package api

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/warp/payoff-engine/cache"
	"github.com/warp/payoff-engine/store"
	"github.com/warp/payoff-engine/store/sqlite"
)

func newPrunerStore(t *testing.T, now time.Time) store.Store {
	t.Helper()

	st, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	ctx := context.Background()
	for _, age := range []time.Duration{72 * time.Hour, 48 * time.Hour, time.Hour} {
		_, err := st.SavePlanRun(ctx, store.PlanRun{
			PortfolioID:   "home",
			Strategy:      "avalanche",
			ExtraPayment:  decimal.Zero,
			TotalInterest: decimal.RequireFromString("12.34"),
			SummaryJSON:   "{}",
			CreatedAt:     now.Add(-age),
		})
		require.NoError(t, err)
	}
	return st
}

func TestHistoryPruner_RunOnce(t *testing.T) {
	// GIVEN: Runs aged 72h, 48h and 1h with a 24h retention
	now := time.Now().UTC()
	st := newPrunerStore(t, now)
	p := NewHistoryPruner(st, nil, 24*time.Hour, time.Hour, zap.NewNop())
	p.now = func() time.Time { return now }

	// WHEN: Pruning
	n, err := p.RunOnce(context.Background())

	// THEN: Only the recent run is left
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	runs, err := st.ListPlanRuns(context.Background(), "home", 0)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.WithinDuration(t, now.Add(-time.Hour), runs[0].CreatedAt, time.Second)
}

func TestHistoryPruner_ZeroRetentionKeepsHistory(t *testing.T) {
	// GIVEN: An expired cache entry and no retention limit
	now := time.Now().UTC()
	st := newPrunerStore(t, now)
	mem := cache.NewMemory()
	require.NoError(t, mem.Set(context.Background(), "k", []byte("v"), time.Nanosecond))
	time.Sleep(5 * time.Millisecond)

	p := NewHistoryPruner(st, mem, 0, time.Hour, zap.NewNop())

	// WHEN: Pruning
	n, err := p.RunOnce(context.Background())

	// THEN: No runs are deleted but the cache is swept
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Zero(t, mem.Len())

	runs, err := st.ListPlanRuns(context.Background(), "home", 0)
	require.NoError(t, err)
	assert.Len(t, runs, 3)
}

func TestHistoryPruner_StartStop(t *testing.T) {
	// GIVEN: A running pruner
	core, logs := observer.New(zap.InfoLevel)
	now := time.Now().UTC()
	st := newPrunerStore(t, now)
	p := NewHistoryPruner(st, cache.Nop{}, 24*time.Hour, time.Hour, zap.New(core))

	p.Start()
	p.Start()

	// THEN: The first pass runs immediately
	assert.Eventually(t, func() bool {
		runs, err := st.ListPlanRuns(context.Background(), "home", 0)
		return err == nil && len(runs) == 1
	}, 2*time.Second, 10*time.Millisecond)

	// WHEN: Stopping twice
	p.Stop()
	p.Stop()

	// THEN: Start and stop are each logged once
	assert.Equal(t, 1, logs.FilterMessage("history pruner started").Len())
	assert.Equal(t, 1, logs.FilterMessage("history pruner stopped").Len())
}

func TestHistoryPruner_DisabledWithoutInterval(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	p := NewHistoryPruner(nil, nil, 24*time.Hour, 0, zap.New(core))

	p.Start()
	p.Stop()

	assert.Equal(t, 1, logs.FilterMessage("history pruner disabled").Len())
	assert.Zero(t, logs.FilterMessage("history pruner stopped").Len())
}
