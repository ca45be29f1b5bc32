// Package storetest holds behaviour tests every store.Store implementation
// must pass. Implementations call Run from their own _test.go files.
package storetest

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/payoff-engine/store"
)

// Run executes the suite. newStore must return an empty store.
func Run(t *testing.T, newStore func(t *testing.T) store.Store) {
	tests := []struct {
		name string
		fn   func(t *testing.T, st store.Store)
	}{
		{"SaveAndGetDebt", testSaveAndGetDebt},
		{"UpdateKeepsCreatedAt", testUpdateKeepsCreatedAt},
		{"ListDebtsInInsertionOrder", testListDebtsInOrder},
		{"PortfoliosAreIsolated", testPortfoliosIsolated},
		{"DeleteDebt", testDeleteDebt},
		{"ReplaceDebts", testReplaceDebts},
		{"PlanRuns", testPlanRuns},
		{"DeletePlanRunsBefore", testDeletePlanRunsBefore},
		{"InvalidRecords", testInvalidRecords},
		{"Reset", testReset},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.fn(t, newStore(t))
		})
	}
}

func amount(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func debt(portfolio, id, balance string) store.Debt {
	return store.Debt{
		PortfolioID:    portfolio,
		ID:             id,
		Creditor:       "Creditor " + id,
		Balance:        amount(balance),
		APR:            amount("19.99"),
		MinimumPayment: amount("35"),
	}
}

func testSaveAndGetDebt(t *testing.T, st store.Store) {
	ctx := context.Background()

	// GIVEN: A debt without an ID
	saved, err := st.SaveDebt(ctx, debt("home", "", "2450.75"))
	require.NoError(t, err)

	// THEN: An ID is generated and amounts survive exactly
	require.NotEmpty(t, saved.ID)
	got, err := st.GetDebt(ctx, "home", saved.ID)
	require.NoError(t, err)
	assert.Equal(t, "2450.75", got.Balance.String())
	assert.Equal(t, "19.99", got.APR.String())
	assert.Equal(t, "35", got.MinimumPayment.String())
	assert.Equal(t, "Creditor ", got.Creditor)
	assert.False(t, got.CreatedAt.IsZero())

	_, err = st.GetDebt(ctx, "home", "missing")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func testUpdateKeepsCreatedAt(t *testing.T, st store.Store) {
	ctx := context.Background()

	first, err := st.SaveDebt(ctx, debt("home", "visa", "1000"))
	require.NoError(t, err)

	update := debt("home", "visa", "800")
	update.Creditor = "Visa Platinum"
	second, err := st.SaveDebt(ctx, update)
	require.NoError(t, err)

	assert.Equal(t, "800", second.Balance.String())
	assert.Equal(t, "Visa Platinum", second.Creditor)
	assert.True(t, first.CreatedAt.Equal(second.CreatedAt))

	list, err := st.ListDebts(ctx, "home")
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func testListDebtsInOrder(t *testing.T, st store.Store) {
	ctx := context.Background()
	for _, id := range []string{"c", "a", "b"} {
		_, err := st.SaveDebt(ctx, debt("home", id, "100"))
		require.NoError(t, err)
	}

	list, err := st.ListDebts(ctx, "home")
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, []string{"c", "a", "b"}, []string{list[0].ID, list[1].ID, list[2].ID})

	records := store.Records(list)
	assert.Equal(t, "c", records[0].ID)
	assert.True(t, records[0].Balance.Equal(amount("100")))
}

func testPortfoliosIsolated(t *testing.T, st store.Store) {
	ctx := context.Background()
	_, err := st.SaveDebt(ctx, debt("alice", "card", "100"))
	require.NoError(t, err)
	_, err = st.SaveDebt(ctx, debt("bob", "card", "900"))
	require.NoError(t, err)

	a, err := st.GetDebt(ctx, "alice", "card")
	require.NoError(t, err)
	assert.Equal(t, "100", a.Balance.String())

	empty, err := st.ListDebts(ctx, "carol")
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)

	portfolios, err := st.ListPortfolios(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"alice", "bob"}, portfolios)
}

func testDeleteDebt(t *testing.T, st store.Store) {
	ctx := context.Background()
	_, err := st.SaveDebt(ctx, debt("home", "car", "5000"))
	require.NoError(t, err)

	require.NoError(t, st.DeleteDebt(ctx, "home", "car"))
	assert.ErrorIs(t, st.DeleteDebt(ctx, "home", "car"), store.ErrNotFound)
	_, err = st.GetDebt(ctx, "home", "car")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func testReplaceDebts(t *testing.T, st store.Store) {
	ctx := context.Background()
	_, err := st.SaveDebt(ctx, debt("home", "old", "1"))
	require.NoError(t, err)

	err = st.ReplaceDebts(ctx, "home", []store.Debt{
		debt("", "x", "10"),
		debt("", "y", "20"),
	})
	require.NoError(t, err)

	list, err := st.ListDebts(ctx, "home")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "x", list[0].ID)
	assert.Equal(t, "y", list[1].ID)
	assert.Equal(t, "home", list[0].PortfolioID)
}

func testPlanRuns(t *testing.T, st store.Store) {
	ctx := context.Background()
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	for i, strategy := range []string{"avalanche", "snowball", "avalanche"} {
		_, err := st.SavePlanRun(ctx, store.PlanRun{
			PortfolioID:   "home",
			Strategy:      strategy,
			ExtraPayment:  amount("100"),
			InputHash:     "payoff:abc",
			TotalMonths:   24 + i,
			TotalInterest: amount("812.44"),
			DebtFree:      true,
			SummaryJSON:   `{"strategy":"` + strategy + `"}`,
			CreatedAt:     base.Add(time.Duration(i) * time.Hour),
		})
		require.NoError(t, err)
	}
	_, err := st.SavePlanRun(ctx, store.PlanRun{PortfolioID: "other", Strategy: "snowball", CreatedAt: base})
	require.NoError(t, err)

	runs, err := st.ListPlanRuns(ctx, "home", 0)
	require.NoError(t, err)
	require.Len(t, runs, 3)
	assert.Equal(t, 26, runs[0].TotalMonths, "newest first")
	assert.Equal(t, "812.44", runs[0].TotalInterest.String())
	assert.True(t, runs[0].DebtFree)
	assert.NotEmpty(t, runs[0].ID)

	limited, err := st.ListPlanRuns(ctx, "home", 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)
}

func testDeletePlanRunsBefore(t *testing.T, st store.Store) {
	ctx := context.Background()
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	for _, age := range []time.Duration{72 * time.Hour, 48 * time.Hour, time.Hour} {
		_, err := st.SavePlanRun(ctx, store.PlanRun{PortfolioID: "home", Strategy: "avalanche", CreatedAt: now.Add(-age)})
		require.NoError(t, err)
	}

	removed, err := st.DeletePlanRunsBefore(ctx, now.Add(-24*time.Hour))
	require.NoError(t, err)
	assert.EqualValues(t, 2, removed)

	runs, err := st.ListPlanRuns(ctx, "home", 0)
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}

func testInvalidRecords(t *testing.T, st store.Store) {
	ctx := context.Background()
	_, err := st.SaveDebt(ctx, debt("  ", "x", "1"))
	assert.ErrorIs(t, err, store.ErrInvalidRecord)

	_, err = st.SavePlanRun(ctx, store.PlanRun{Strategy: "avalanche"})
	assert.ErrorIs(t, err, store.ErrInvalidRecord)
}

func testReset(t *testing.T, st store.Store) {
	ctx := context.Background()
	_, err := st.SaveDebt(ctx, debt("home", "x", "1"))
	require.NoError(t, err)
	_, err = st.SavePlanRun(ctx, store.PlanRun{PortfolioID: "home", Strategy: "avalanche"})
	require.NoError(t, err)

	require.NoError(t, st.Reset(ctx))

	list, err := st.ListDebts(ctx, "home")
	require.NoError(t, err)
	assert.Empty(t, list)
	runs, err := st.ListPlanRuns(ctx, "home", 0)
	require.NoError(t, err)
	assert.Empty(t, runs)
}
