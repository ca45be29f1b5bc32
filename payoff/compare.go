package payoff

import "github.com/shopspring/decimal"

// Comparison holds both strategy results for the same debts and capacity.
type Comparison struct {
	Avalanche *PlanSummary
	Snowball  *PlanSummary

	// InterestSaved is how much less interest avalanche pays (never negative).
	InterestSaved decimal.Decimal
	// MonthsSaved is snowball months minus avalanche months; may be negative.
	MonthsSaved int

	Recommended Strategy
}

// Compare simulates both strategies. The recommendation prefers lower total
// interest, then fewer months, then avalanche.
func (e *Engine) Compare(debts []DebtRecord, extra decimal.Decimal) (*Comparison, error) {
	avalanche, err := e.Simulate(PlanInput{Debts: debts, Strategy: Avalanche, ExtraPayment: extra})
	if err != nil {
		return nil, err
	}
	snowball, err := e.Simulate(PlanInput{Debts: debts, Strategy: Snowball, ExtraPayment: extra})
	if err != nil {
		return nil, err
	}

	cmp := &Comparison{
		Avalanche:     avalanche,
		Snowball:      snowball,
		InterestSaved: decimal.Max(decimal.Zero, snowball.TotalInterestPaid.Sub(avalanche.TotalInterestPaid)),
		MonthsSaved:   snowball.TotalMonthsToDebtFree - avalanche.TotalMonthsToDebtFree,
		Recommended:   Avalanche,
	}

	switch {
	case snowball.TotalInterestPaid.LessThan(avalanche.TotalInterestPaid):
		cmp.Recommended = Snowball
	case snowball.TotalInterestPaid.Equal(avalanche.TotalInterestPaid) &&
		snowball.TotalMonthsToDebtFree < avalanche.TotalMonthsToDebtFree:
		cmp.Recommended = Snowball
	}
	return cmp, nil
}
