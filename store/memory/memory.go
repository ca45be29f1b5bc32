// Package memory provides an in-memory store.Store for tests and demos.
// Nothing survives a restart.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/warp/payoff-engine/store"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Store struct {
	mu    sync.RWMutex
	debts map[string][]store.Debt // portfolio -> debts in creation order
	runs  []store.PlanRun         // ascending CreatedAt, insertion order on ties
	now   func() time.Time
}

var _ store.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		debts: make(map[string][]store.Debt),
		now:   func() time.Time { return time.Now().UTC() },
	}
}

func (m *Store) Close() error { return nil }

// =============================================================================
// DEBTS
// =============================================================================

func (m *Store) SaveDebt(_ context.Context, d store.Debt) (store.Debt, error) {
	d, err := store.PrepareDebt(d, m.now())
	if err != nil {
		return d, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	debts := m.debts[d.PortfolioID]
	for i, existing := range debts {
		if existing.ID == d.ID {
			d.CreatedAt = existing.CreatedAt
			debts[i] = d
			return d, nil
		}
	}
	m.debts[d.PortfolioID] = append(debts, d)
	return d, nil
}

func (m *Store) GetDebt(_ context.Context, portfolioID, id string) (*store.Debt, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, d := range m.debts[portfolioID] {
		if d.ID == id {
			return &d, nil
		}
	}
	return nil, fmt.Errorf("debt %s/%s: %w", portfolioID, id, store.ErrNotFound)
}

func (m *Store) ListDebts(_ context.Context, portfolioID string) ([]store.Debt, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	debts := make([]store.Debt, len(m.debts[portfolioID]))
	copy(debts, m.debts[portfolioID])
	return debts, nil
}

func (m *Store) DeleteDebt(_ context.Context, portfolioID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	debts := m.debts[portfolioID]
	for i, d := range debts {
		if d.ID == id {
			debts = append(debts[:i:i], debts[i+1:]...)
			if len(debts) == 0 {
				delete(m.debts, portfolioID)
			} else {
				m.debts[portfolioID] = debts
			}
			return nil
		}
	}
	return fmt.Errorf("debt %s/%s: %w", portfolioID, id, store.ErrNotFound)
}

// ReplaceDebts validates every debt before touching the portfolio, so a bad
// record leaves it unchanged.
func (m *Store) ReplaceDebts(_ context.Context, portfolioID string, debts []store.Debt) error {
	now := m.now()
	prepared := make([]store.Debt, 0, len(debts))
	for _, d := range debts {
		d.PortfolioID = portfolioID
		p, err := store.PrepareDebt(d, now)
		if err != nil {
			return err
		}
		prepared = append(prepared, p)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if len(prepared) == 0 {
		delete(m.debts, portfolioID)
		return nil
	}
	m.debts[portfolioID] = prepared
	return nil
}

func (m *Store) ListPortfolios(_ context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ids := make([]string, 0, len(m.debts))
	for id := range m.debts {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// =============================================================================
// PLAN RUNS
// =============================================================================

func (m *Store) SavePlanRun(_ context.Context, r store.PlanRun) (store.PlanRun, error) {
	r, err := store.PreparePlanRun(r, m.now())
	if err != nil {
		return r, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	// Binary search for insertion point after any run with the same time.
	i := sort.Search(len(m.runs), func(i int) bool {
		return m.runs[i].CreatedAt.After(r.CreatedAt)
	})
	m.runs = append(m.runs, store.PlanRun{})
	copy(m.runs[i+1:], m.runs[i:])
	m.runs[i] = r
	return r, nil
}

// ListPlanRuns returns runs newest first.
func (m *Store) ListPlanRuns(_ context.Context, portfolioID string, limit int) ([]store.PlanRun, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	runs := []store.PlanRun{}
	for i := len(m.runs) - 1; i >= 0; i-- {
		if m.runs[i].PortfolioID != portfolioID {
			continue
		}
		runs = append(runs, m.runs[i])
		if limit > 0 && len(runs) == limit {
			break
		}
	}
	return runs, nil
}

func (m *Store) DeletePlanRunsBefore(_ context.Context, cutoff time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	// Runs are sorted, so the expired ones form a prefix.
	n := sort.Search(len(m.runs), func(i int) bool {
		return !m.runs[i].CreatedAt.Before(cutoff)
	})
	m.runs = append([]store.PlanRun(nil), m.runs[n:]...)
	return int64(n), nil
}

// Reset clears all data.
func (m *Store) Reset(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.debts = make(map[string][]store.Debt)
	m.runs = nil
	return nil
}
