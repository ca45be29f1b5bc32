package payoff_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/payoff-engine/payoff"
)

func TestCompare(t *testing.T) {
	// GIVEN: The cheap debt is the small one
	debts := []payoff.DebtRecord{
		debt("x", 500, 10, 50),
		debt("y", 2000, 20, 100),
	}

	// WHEN: Comparing with 100 extra
	cmp, err := (&payoff.Engine{}).Compare(debts, money(100))
	require.NoError(t, err)

	// THEN: Avalanche is recommended and the savings match the two plans
	assert.Equal(t, payoff.Avalanche, cmp.Avalanche.Strategy)
	assert.Equal(t, payoff.Snowball, cmp.Snowball.Strategy)
	assert.Equal(t, payoff.Avalanche, cmp.Recommended)
	assert.False(t, cmp.InterestSaved.IsNegative())
	assertAmount(t, cmp.Snowball.TotalInterestPaid.Sub(cmp.Avalanche.TotalInterestPaid).String(), cmp.InterestSaved)
	assert.Equal(t, cmp.Snowball.TotalMonthsToDebtFree-cmp.Avalanche.TotalMonthsToDebtFree, cmp.MonthsSaved)
}

func TestCompare_IdenticalPlansPreferAvalanche(t *testing.T) {
	cmp, err := (&payoff.Engine{}).Compare([]payoff.DebtRecord{debt("only", 900, 0, 100)}, money(0))
	require.NoError(t, err)

	assert.Equal(t, payoff.Avalanche, cmp.Recommended)
	assertAmount(t, "0", cmp.InterestSaved)
	assert.Equal(t, 0, cmp.MonthsSaved)
}

func TestCompare_PropagatesPreconditions(t *testing.T) {
	_, err := (&payoff.Engine{}).Compare([]payoff.DebtRecord{debt("bad", 100, 5, 0)}, money(0))
	assert.ErrorIs(t, err, payoff.ErrPrecondition)
}
