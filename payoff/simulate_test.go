package payoff_test

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/payoff-engine/payoff"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func money(v float64) decimal.Decimal {
	return decimal.NewFromFloat(v)
}

func debt(id string, balance, apr, minimum float64) payoff.DebtRecord {
	return payoff.DebtRecord{
		ID:             id,
		Creditor:       "Creditor " + id,
		Balance:        money(balance),
		APR:            money(apr),
		MinimumPayment: money(minimum),
	}
}

func assertAmount(t *testing.T, want string, got decimal.Decimal, msgAndArgs ...any) {
	t.Helper()
	assert.True(t, decimal.RequireFromString(want).Equal(got),
		append([]any{"want %s, got %s", want, got.String()}, msgAndArgs...)...)
}

func simulate(t *testing.T, debts []payoff.DebtRecord, s payoff.Strategy, extra float64) *payoff.PlanSummary {
	t.Helper()
	summary, err := payoff.Simulate(debts, s, money(extra))
	require.NoError(t, err)
	return summary
}

func outcome(t *testing.T, s *payoff.PlanSummary, id string) payoff.DebtOutcome {
	t.Helper()
	o, ok := s.Outcome(id)
	require.True(t, ok, "no outcome for %s", id)
	return o
}

func sumPayments(o payoff.DebtOutcome) decimal.Decimal {
	total := decimal.Zero
	for _, p := range o.History {
		total = total.Add(p.Amount)
	}
	return total
}

// =============================================================================
// CONCRETE SCENARIOS
// =============================================================================

func TestSimulate_ZeroRateTwelveMonths(t *testing.T) {
	// GIVEN: 1200 at 0% with a 100 minimum
	// WHEN: Simulating with no extra payment
	// THEN: Paid off in exactly 12 months with no interest

	summary := simulate(t, []payoff.DebtRecord{debt("a", 1200, 0, 100)}, payoff.Avalanche, 0)

	assert.Equal(t, 12, summary.TotalMonthsToDebtFree)
	assertAmount(t, "0", summary.TotalInterestPaid)
	assertAmount(t, "1200", summary.TotalAmountPaid)
	assertAmount(t, "100", summary.OriginalTotalMonthly)
	assert.True(t, summary.DebtFree)

	o := outcome(t, summary, "a")
	assert.Equal(t, 12, o.MonthsToPayoff)
	assert.True(t, o.PaidOff)
	assert.Equal(t, []string{"Pay $100.00 each month until paid off (12 months)."}, o.Schedule)
}

func TestSimulate_InterestAccruesBeforePayment(t *testing.T) {
	// GIVEN: 1000 at 12% (1%/month) with a 1000 minimum
	// WHEN: Simulating
	// THEN: Month 1 accrues 10 before paying 1000, leaving 10; paid off in month 2

	summary := simulate(t, []payoff.DebtRecord{debt("b", 1000, 12, 1000)}, payoff.Avalanche, 0)

	o := outcome(t, summary, "b")
	assert.Equal(t, 2, o.MonthsToPayoff, "must not be paid off after month 1")
	require.Len(t, o.History, 2)
	assertAmount(t, "1000", o.History[0].Amount)
	assertAmount(t, "10.10", o.History[1].Amount, "10 left + 0.10 interest")
	assertAmount(t, "10.10", o.TotalInterestPaid)
	assert.Equal(t, []string{"Pay $1,000.00 in month 1.", "Pay $10.10 in month 2."}, o.Schedule)
}

func TestSimulate_SubCentInterestIsNotDropped(t *testing.T) {
	// GIVEN: 0.40 at 12% with a 0.20 minimum
	// WHEN: Simulating
	// THEN: Interest accrues at full precision, so a residue of 0.00604 is
	//       left after month 2 and the debt retires in month 3
	//       (0.404 -> 0.204 -> 0.20604 -> 0.00604 -> 0.0061004)

	summary := simulate(t, []payoff.DebtRecord{debt("tiny", 0.40, 12, 0.20)}, payoff.Avalanche, 0)

	o := outcome(t, summary, "tiny")
	assert.Equal(t, 3, o.MonthsToPayoff)
	require.Len(t, o.History, 3)
	assertAmount(t, "0.20", o.History[0].Amount)
	assertAmount(t, "0.20", o.History[1].Amount)
	assertAmount(t, "0.0061004", o.History[2].Amount)
	assertAmount(t, "0.0061004", o.TotalInterestPaid)
	assertAmount(t, "0.4061004", summary.TotalAmountPaid)
	assert.Equal(t, []string{"Pay $0.20 in months 1–2.", "Pay $0.01 in month 3."}, o.Schedule)
}

func TestSimulate_SingleDebtPaidInOneMonth(t *testing.T) {
	// GIVEN: 500 at 0% with a 600 minimum
	// THEN: One month, no interest, single-month schedule

	summary := simulate(t, []payoff.DebtRecord{debt("c", 500, 0, 600)}, payoff.Snowball, 0)

	o := outcome(t, summary, "c")
	assert.Equal(t, 1, o.MonthsToPayoff)
	assertAmount(t, "0", o.TotalInterestPaid)
	assert.Equal(t, []string{"Pay $500.00 in month 1."}, o.Schedule)
	assertAmount(t, "600", o.EffectivePayment, "allocation is floored at the minimum")
}

func TestSimulate_SafetyBound(t *testing.T) {
	// GIVEN: 10000 at 24% (200/month interest) with a 150 minimum
	// WHEN: Simulating
	// THEN: Force-closed at 1200 months with a balance still owed

	summary := simulate(t, []payoff.DebtRecord{debt("d", 10000, 24, 150)}, payoff.Avalanche, 0)

	assert.Equal(t, payoff.SafetyBound, summary.TotalMonthsToDebtFree)
	assert.False(t, summary.DebtFree)

	o := outcome(t, summary, "d")
	assert.Equal(t, payoff.SafetyBound, o.MonthsToPayoff)
	assert.False(t, o.PaidOff)
	assert.True(t, o.RemainingBalance.GreaterThan(money(10000)))
	assert.Len(t, o.History, payoff.SafetyBound)
	assert.Equal(t, []string{"Pay $150.00 each month until paid off."}, o.Schedule)

	codes := map[payoff.WarningCode]bool{}
	for _, w := range summary.Warnings {
		assert.Equal(t, "d", w.DebtID)
		codes[w.Code] = true
	}
	assert.True(t, codes[payoff.WarnPaymentBelowInterest])
	assert.True(t, codes[payoff.WarnSafetyBoundReached])
}

func TestSimulate_EmptyInput(t *testing.T) {
	summary := simulate(t, nil, payoff.Snowball, 250)

	assert.Equal(t, 0, summary.TotalMonthsToDebtFree)
	assertAmount(t, "0", summary.TotalInterestPaid)
	assertAmount(t, "0", summary.TotalAmountPaid)
	assertAmount(t, "0", summary.OriginalTotalMonthly)
	assert.NotNil(t, summary.Debts)
	assert.Empty(t, summary.Debts)
}

func TestSimulate_ZeroBalanceIsAlreadyPaid(t *testing.T) {
	summary := simulate(t, []payoff.DebtRecord{
		debt("paid", 0, 15, 25),
		debt("open", 300, 0, 100),
	}, payoff.Avalanche, 0)

	paid := outcome(t, summary, "paid")
	assert.Equal(t, 0, paid.MonthsToPayoff)
	assert.True(t, paid.PaidOff)
	assert.Empty(t, paid.Schedule)
	assert.Empty(t, paid.History)
	assert.Equal(t, "paid", summary.Debts[0].ID, "zero-month debts sort first")
}

// =============================================================================
// WATERFALL
// =============================================================================

func TestSimulate_CapacityUsesOriginalMinimums(t *testing.T) {
	// GIVEN: A retires in month 1; B has a 50 minimum
	// WHEN: A is retired
	// THEN: A's 100 minimum keeps flowing to B (150/month), so B finishes in
	//       month 8 rather than month 20

	summary := simulate(t, []payoff.DebtRecord{
		debt("a", 100, 0, 100),
		debt("b", 1000, 0, 50),
	}, payoff.Snowball, 0)

	b := outcome(t, summary, "b")
	assert.Equal(t, 8, b.MonthsToPayoff)
	assertAmount(t, "50", b.History[0].Amount)
	for _, p := range b.History[1:7] {
		assertAmount(t, "150", p.Amount, "month %d", p.Month)
	}
	assertAmount(t, "150", b.EffectivePayment)
	assert.Equal(t, []string{
		"Pay $50.00 in month 1.",
		"Pay $150.00 in months 2–7.",
		"Pay $50.00 in month 8.",
	}, b.Schedule)

	assert.Equal(t, 8, summary.TotalMonthsToDebtFree)
	assert.Equal(t, []string{"a", "b"}, []string{summary.Debts[0].ID, summary.Debts[1].ID})
}

func TestSimulate_WaterfallCascadesWithinMonth(t *testing.T) {
	// GIVEN: Three small zero-rate debts and a large extra payment
	// WHEN: Simulating snowball
	// THEN: Capacity left after retiring the first target spills into the next
	//       ones in the same month

	summary := simulate(t, []payoff.DebtRecord{
		debt("x", 100, 0, 10),
		debt("y", 200, 0, 10),
		debt("z", 300, 0, 10),
	}, payoff.Snowball, 600)

	for _, id := range []string{"x", "y", "z"} {
		assert.Equal(t, 1, outcome(t, summary, id).MonthsToPayoff, id)
	}
	assert.Equal(t, 1, summary.TotalMonthsToDebtFree)
}

func TestSimulate_EffectivePaymentTracksWaterfallTarget(t *testing.T) {
	// GIVEN: Snowball targets "small" first, then "large"
	// WHEN: Simulating with 200 extra
	// THEN: "small" is the target in month 1 and retires with 250; "large"
	//       becomes the target from month 2 and receives the full 300

	summary := simulate(t, []payoff.DebtRecord{
		debt("small", 250, 0, 50),
		debt("large", 3000, 0, 50),
	}, payoff.Snowball, 200)

	small := outcome(t, summary, "small")
	assert.Equal(t, 1, small.MonthsToPayoff)
	assertAmount(t, "250", small.EffectivePayment)

	large := outcome(t, summary, "large")
	assertAmount(t, "50", large.History[0].Amount, "only its minimum while small is the target")
	assertAmount(t, "300", large.History[1].Amount)
	assertAmount(t, "300", large.EffectivePayment)
}

func TestSimulate_EffectivePaymentWithoutWaterfallIsMinimum(t *testing.T) {
	// GIVEN: One debt and no extra payment, so nothing is left for the waterfall
	summary := simulate(t, []payoff.DebtRecord{debt("solo", 1000, 18, 40)}, payoff.Avalanche, 0)

	// THEN: The effective payment is the minimum
	assertAmount(t, "40", outcome(t, summary, "solo").EffectivePayment)
}

func TestSimulate_AvalanchePrioritizesHigherAPR(t *testing.T) {
	// GIVEN: Equal balances, different APRs, extra 100
	// THEN: The higher-APR debt receives the extra in month 1

	debts := []payoff.DebtRecord{
		debt("low", 1000, 5, 50),
		debt("high", 1000, 25, 50),
	}
	summary := simulate(t, debts, payoff.Avalanche, 100)

	assertAmount(t, "150", outcome(t, summary, "high").History[0].Amount)
	assertAmount(t, "50", outcome(t, summary, "low").History[0].Amount)
	assert.Equal(t, 1, outcome(t, summary, "high").Priority)
}

func TestSimulate_SnowballPrioritizesSmallerBalance(t *testing.T) {
	// GIVEN: The smaller debt has the LOWER APR
	// THEN: Snowball still sends it the extra capacity

	debts := []payoff.DebtRecord{
		debt("big", 5000, 29.99, 100),
		debt("small", 400, 3, 25),
	}
	summary := simulate(t, debts, payoff.Snowball, 75)

	assertAmount(t, "100", outcome(t, summary, "small").History[0].Amount)
	assertAmount(t, "100", outcome(t, summary, "big").History[0].Amount)
	assert.Equal(t, 1, outcome(t, summary, "small").Priority)
}

func TestSimulate_StrategiesDiscriminate(t *testing.T) {
	// GIVEN: X is smaller but cheaper, Y is larger but more expensive
	debts := []payoff.DebtRecord{
		debt("x", 500, 10, 50),
		debt("y", 2000, 20, 100),
	}

	avalanche := simulate(t, debts, payoff.Avalanche, 100)
	snowball := simulate(t, debts, payoff.Snowball, 100)

	// THEN: Avalanche sends the extra to Y, snowball to X
	assertAmount(t, "200", outcome(t, avalanche, "y").History[0].Amount)
	assertAmount(t, "150", outcome(t, snowball, "x").History[0].Amount)

	assert.Less(t, outcome(t, snowball, "x").MonthsToPayoff, outcome(t, avalanche, "x").MonthsToPayoff)
	assert.True(t, avalanche.TotalInterestPaid.LessThanOrEqual(snowball.TotalInterestPaid))
}

func TestSimulate_SameTargetUnderBothStrategies(t *testing.T) {
	// GIVEN: X has both the higher APR and the smaller balance
	debts := []payoff.DebtRecord{
		debt("x", 500, 20, 50),
		debt("y", 2000, 10, 100),
	}

	avalanche := simulate(t, debts, payoff.Avalanche, 0)
	snowball := simulate(t, debts, payoff.Snowball, 0)

	assert.LessOrEqual(t, outcome(t, avalanche, "x").MonthsToPayoff, outcome(t, snowball, "x").MonthsToPayoff)
	assert.Equal(t, avalanche.TotalMonthsToDebtFree, snowball.TotalMonthsToDebtFree)
}

// =============================================================================
// PROPERTIES
// =============================================================================

func portfolio() []payoff.DebtRecord {
	return []payoff.DebtRecord{
		debt("visa", 3200, 22.9, 95),
		debt("store", 650, 26.99, 35),
		debt("auto", 9800, 6.5, 240),
		debt("student", 14500, 4.99, 160),
	}
}

func TestSimulate_PrincipalConservation(t *testing.T) {
	for _, s := range []payoff.Strategy{payoff.Avalanche, payoff.Snowball} {
		t.Run(string(s), func(t *testing.T) {
			summary := simulate(t, portfolio(), s, 0)
			require.True(t, summary.DebtFree)

			principal := decimal.Zero
			paid := decimal.Zero
			for _, o := range summary.Debts {
				principal = principal.Add(o.Balance)
				paid = paid.Add(sumPayments(o))
				assertAmount(t, "0", o.RemainingBalance, o.ID)
			}
			assertAmount(t, principal.Add(summary.TotalInterestPaid).String(), summary.TotalAmountPaid)
			assertAmount(t, summary.TotalAmountPaid.String(), paid, "payments equal principal plus interest")
		})
	}
}

func TestSimulate_MoreExtraNeverSlowsPayoff(t *testing.T) {
	for _, s := range []payoff.Strategy{payoff.Avalanche, payoff.Snowball} {
		t.Run(string(s), func(t *testing.T) {
			prev := simulate(t, portfolio(), s, 0)
			for _, extra := range []float64{25, 100, 250, 500, 2000} {
				next := simulate(t, portfolio(), s, extra)
				assert.LessOrEqual(t, next.TotalMonthsToDebtFree, prev.TotalMonthsToDebtFree, "extra %v", extra)
				assert.True(t, next.TotalInterestPaid.LessThanOrEqual(prev.TotalInterestPaid), "extra %v", extra)
				prev = next
			}
		})
	}
}

func TestSimulate_TotalMonthsIsLastPayoff(t *testing.T) {
	summary := simulate(t, portfolio(), payoff.Avalanche, 150)

	last := summary.Debts[len(summary.Debts)-1]
	assert.Equal(t, last.MonthsToPayoff, summary.TotalMonthsToDebtFree)
	for i := 1; i < len(summary.Debts); i++ {
		assert.LessOrEqual(t, summary.Debts[i-1].MonthsToPayoff, summary.Debts[i].MonthsToPayoff)
	}
}

func TestSimulate_DeterministicAndInputUntouched(t *testing.T) {
	input := portfolio()
	snapshot := make([]payoff.DebtRecord, len(input))
	copy(snapshot, input)

	first := simulate(t, input, payoff.Snowball, 80)
	second := simulate(t, input, payoff.Snowball, 80)

	assert.Equal(t, first, second)
	assert.Equal(t, snapshot, input)
}

func TestSimulate_OutcomeBounds(t *testing.T) {
	summary := simulate(t, portfolio(), payoff.Avalanche, 0)
	for _, o := range summary.Debts {
		assert.False(t, o.TotalInterestPaid.IsNegative(), o.ID)
		assert.True(t, o.EffectivePayment.GreaterThanOrEqual(o.MinimumPayment), o.ID)
	}
}

// =============================================================================
// PRECONDITIONS
// =============================================================================

func TestSimulate_Preconditions(t *testing.T) {
	tests := []struct {
		name  string
		debts []payoff.DebtRecord
		extra float64
		field string
	}{
		{"negative balance", []payoff.DebtRecord{debt("a", -1, 5, 10)}, 0, "balance"},
		{"negative apr", []payoff.DebtRecord{debt("a", 100, -5, 10)}, 0, "apr"},
		{"zero minimum", []payoff.DebtRecord{debt("a", 100, 5, 0)}, 0, "minimum_payment"},
		{"negative extra", []payoff.DebtRecord{debt("a", 100, 5, 10)}, -1, "extra_payment"},
		{"duplicate id", []payoff.DebtRecord{debt("a", 100, 5, 10), debt("a", 200, 5, 10)}, 0, "id"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := payoff.Simulate(tt.debts, payoff.Avalanche, money(tt.extra))
			require.Error(t, err)
			assert.True(t, errors.Is(err, payoff.ErrPrecondition))
			assert.True(t, payoff.IsClientError(err))

			var pe *payoff.PreconditionError
			require.ErrorAs(t, err, &pe)
			assert.Equal(t, tt.field, pe.Field)
		})
	}
}

func TestSimulate_UnknownStrategy(t *testing.T) {
	_, err := payoff.Simulate(portfolio(), payoff.Strategy("hybrid"), decimal.Zero)
	assert.ErrorIs(t, err, payoff.ErrUnknownStrategy)
}

func TestParseStrategy(t *testing.T) {
	s, err := payoff.ParseStrategy(" Snowball ")
	require.NoError(t, err)
	assert.Equal(t, payoff.Snowball, s)

	_, err = payoff.ParseStrategy("fastest")
	assert.ErrorIs(t, err, payoff.ErrUnknownStrategy)
}

func TestEngine_SpanishSchedules(t *testing.T) {
	engine := payoff.NewEngine(payoff.Spanish)
	summary, err := engine.Simulate(payoff.PlanInput{
		Debts:    []payoff.DebtRecord{debt("a", 1200, 0, 100)},
		Strategy: payoff.Avalanche,
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"Pague $100,00 cada mes hasta liquidar la deuda (12 meses)."},
		outcome(t, summary, "a").Schedule)
}
