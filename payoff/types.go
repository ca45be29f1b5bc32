/*
Package payoff provides the debt repayment simulation engine.

PURPOSE:
  Given a set of interest-bearing debts and a fixed monthly payment capacity
  (the sum of all minimum payments plus an optional extra amount), the engine
  decides which debt receives any spare capacity first, simulates every month
  until all debts are retired, and reports per-debt payoff month, interest and
  a compressed payment schedule.

KEY CONCEPTS IN THIS FILE (types.go):
  - DebtRecord: An immutable input debt (balance, APR, minimum payment)
  - Strategy: Avalanche (highest APR first) or Snowball (smallest balance first)
  - Payment: One month's payment applied to one debt
  - DebtOutcome / PlanSummary: The engine's output

DESIGN PRINCIPLES:
  1. Pure: No I/O, no clock, no shared state. Same input, same output.
  2. Precision: Uses decimal.Decimal for every currency amount and rate
  3. Read-only inputs: The caller's slice is never mutated
  4. Total: Non-amortizing debts are force-closed at SafetyBound, not rejected

USAGE:
  summary, err := payoff.Simulate(debts, payoff.Avalanche, decimal.NewFromInt(100))
  if err != nil {
      return err // precondition violation
  }
  for _, d := range summary.Debts {
      fmt.Println(d.Creditor, d.MonthsToPayoff, d.Schedule)
  }

SEE ALSO:
  - order.go: Strategy ordering
  - simulate.go: Monthly simulation loop
  - schedule.go: Schedule compression
*/
package payoff

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// SafetyBound is the hard iteration cap of the monthly simulation (100 years).
const SafetyBound = 1200

// =============================================================================
// STRATEGY
// =============================================================================

// Strategy decides which unpaid debt receives spare capacity first.
type Strategy string

const (
	Avalanche Strategy = "avalanche" // highest APR first
	Snowball  Strategy = "snowball"  // smallest balance first
)

// ParseStrategy converts user input into a Strategy. Matching is case-insensitive.
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(strings.ToLower(strings.TrimSpace(s))) {
	case Avalanche:
		return Avalanche, nil
	case Snowball:
		return Snowball, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownStrategy, s)
}

// Valid reports whether s is avalanche or snowball.
func (s Strategy) Valid() bool { return s == Avalanche || s == Snowball }

// =============================================================================
// INPUT
// =============================================================================

// DebtRecord is a single debt as supplied by the caller.
type DebtRecord struct {
	ID             string
	Creditor       string
	Balance        decimal.Decimal
	APR            decimal.Decimal // annual percent, 19.99 means 19.99%/year
	MinimumPayment decimal.Decimal
}

// PlanInput groups everything Simulate needs.
type PlanInput struct {
	Debts        []DebtRecord
	Strategy     Strategy
	ExtraPayment decimal.Decimal
}

// =============================================================================
// LEDGER
// =============================================================================

// Payment is the total amount applied to one debt in one month.
type Payment struct {
	Month  int
	Amount decimal.Decimal
}

// ledgerEntry is the mutable per-debt simulation state. Entries live in a
// slice indexed like the input so the waterfall can walk them by position.
type ledgerEntry struct {
	balance     decimal.Decimal
	interest    decimal.Decimal
	payoffMonth int // 0 = not yet paid off
	payments    []Payment

	// targetPeak is the largest monthly total paid in a month where this
	// debt received waterfall capacity.
	targetPeak decimal.Decimal
}

func (e *ledgerEntry) unpaid() bool { return e.balance.IsPositive() }

// record adds amount to this month's payment, merging with an earlier
// payment in the same month (minimum pass followed by waterfall pass).
func (e *ledgerEntry) record(month int, amount decimal.Decimal) {
	if n := len(e.payments); n > 0 && e.payments[n-1].Month == month {
		e.payments[n-1].Amount = e.payments[n-1].Amount.Add(amount)
		return
	}
	e.payments = append(e.payments, Payment{Month: month, Amount: amount})
}

// =============================================================================
// OUTPUT
// =============================================================================

// DebtOutcome is the per-debt result of a simulation.
type DebtOutcome struct {
	ID             string
	Creditor       string
	Balance        decimal.Decimal
	APR            decimal.Decimal
	MinimumPayment decimal.Decimal

	MonthsToPayoff    int
	TotalInterestPaid decimal.Decimal

	// EffectivePayment is the largest monthly payment (minimum plus
	// waterfall) applied while this debt was a waterfall target, floored at
	// the minimum payment. A debt that never received waterfall capacity
	// reports its minimum.
	EffectivePayment decimal.Decimal

	Schedule []string

	// PaidOff is false when the debt was force-closed at SafetyBound.
	PaidOff          bool
	RemainingBalance decimal.Decimal

	// Priority is the 1-based rank assigned by the ordering stage.
	Priority int

	History []Payment
}

// TotalPaid returns original balance plus interest.
func (o DebtOutcome) TotalPaid() decimal.Decimal {
	return o.Balance.Add(o.TotalInterestPaid)
}

// WarningCode classifies plan warnings.
type WarningCode string

const (
	WarnPaymentBelowInterest WarningCode = "payment_below_interest"
	WarnSafetyBoundReached   WarningCode = "safety_bound_reached"
)

// Warning flags a debt the caller should look at. Warnings never change the
// simulation result.
type Warning struct {
	DebtID  string
	Code    WarningCode
	Message string
}

// PlanSummary is the top-level simulation result.
type PlanSummary struct {
	Strategy              Strategy
	TotalMonthsToDebtFree int
	TotalInterestPaid     decimal.Decimal
	TotalAmountPaid       decimal.Decimal
	OriginalTotalMonthly  decimal.Decimal
	ExtraPayment          decimal.Decimal

	// DebtFree is false when any debt hit SafetyBound.
	DebtFree bool

	// Debts is sorted by MonthsToPayoff, ties in priority order.
	Debts []DebtOutcome

	Warnings []Warning
}

// Outcome returns the outcome for a debt ID.
func (s *PlanSummary) Outcome(id string) (DebtOutcome, bool) {
	for _, d := range s.Debts {
		if d.ID == id {
			return d, true
		}
	}
	return DebtOutcome{}, false
}

func emptySummary(strategy Strategy, extra decimal.Decimal) *PlanSummary {
	return &PlanSummary{
		Strategy:             strategy,
		TotalInterestPaid:    decimal.Zero,
		TotalAmountPaid:      decimal.Zero,
		OriginalTotalMonthly: decimal.Zero,
		ExtraPayment:         extra,
		DebtFree:             true,
		Debts:                []DebtOutcome{},
	}
}
