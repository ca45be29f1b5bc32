package payoff

import (
	"math"

	"github.com/shopspring/decimal"
)

// EstimateMonths is the closed-form months-to-payoff for a single debt paying
// a fixed amount:
//
//	n = ceil(-ln(1 - B*r/P) / ln(1 + r)),  r = APR/1200
//
// It ignores the waterfall and works in float64, so it can differ from
// Simulate by a month. Returns ErrNeverAmortizes when the payment does not exceed the
// first month's interest.
func EstimateMonths(balance, apr, payment decimal.Decimal) (int, error) {
	if !balance.IsPositive() {
		return 0, nil
	}
	if !payment.IsPositive() {
		return 0, &PreconditionError{Field: "payment", Reason: "must be positive"}
	}
	if apr.IsNegative() {
		return 0, &PreconditionError{Field: "apr", Reason: "must not be negative"}
	}

	if apr.IsZero() {
		return int(balance.Div(payment).Ceil().IntPart()), nil
	}

	r := apr.Div(rateDivisor).InexactFloat64()
	b := balance.InexactFloat64()
	p := payment.InexactFloat64()
	if p <= b*r {
		return 0, ErrNeverAmortizes
	}

	n := -math.Log(1-b*r/p) / math.Log(1+r)
	return int(math.Ceil(n - 1e-9)), nil
}
