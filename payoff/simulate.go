/*
simulate.go - Monthly repayment simulation

PURPOSE:
  Advances a shared monthly clock over all debts at once. Each month every
  unpaid debt accrues interest and pays its minimum; whatever capacity is
  left (extra payment plus minimums freed by retired debts) cascades down
  the strategy ordering.

MONTHLY TICK (order matters):
  1. Interest: balance += round2(balance * APR / 1200) for unpaid debts
  2. Minimums: each unpaid debt pays min(minimum, balance)
  3. Waterfall: capacity - applied goes to the first unpaid debt in
     priority order, capped at its balance, then the next, and so on
  4. Payoff: the first month a balance reaches zero is recorded

CAPACITY:
  Capacity is the sum of ORIGINAL minimum payments across all debts plus the
  extra payment. It stays constant as debts retire: a retired debt's minimum
  is redirected, never dropped.

TERMINATION:
  All balances are zero, or SafetyBound months have elapsed. Debts still
  unpaid at the bound report MonthsToPayoff == SafetyBound and PaidOff ==
  false.

EXAMPLE:
  Balance 1000, APR 12, minimum 1000:
    month 1: interest 10.00 -> 1010.00, pays 1000.00 -> 10.00
    month 2: interest  0.10 ->   10.10, pays   10.10 ->  0.00 (paid off)

SEE ALSO:
  - order.go: Priority ordering used by the waterfall
  - schedule.go: Turns the per-month log into sentences
*/
package payoff

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
)

// =============================================================================
// ENGINE
// =============================================================================

// Engine runs simulations. The zero value is usable and renders schedules
// in English. An Engine is safe for concurrent use.
type Engine struct {
	Phrases Phrasebook
}

// NewEngine creates an engine rendering schedules with the given phrasebook.
func NewEngine(phrases Phrasebook) *Engine {
	return &Engine{Phrases: phrases}
}

// Simulate is a convenience wrapper using the English phrasebook.
func Simulate(debts []DebtRecord, strategy Strategy, extra decimal.Decimal) (*PlanSummary, error) {
	return (&Engine{}).Simulate(PlanInput{Debts: debts, Strategy: strategy, ExtraPayment: extra})
}

func (e *Engine) phrases() Phrasebook {
	if e == nil || e.Phrases.SingleMonth == "" {
		return English
	}
	return e.Phrases
}

// Validate checks the input against the engine's preconditions.
func Validate(in PlanInput) error {
	if !in.Strategy.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownStrategy, in.Strategy)
	}
	if in.ExtraPayment.IsNegative() {
		return &PreconditionError{Field: "extra_payment", Reason: "must not be negative"}
	}

	seen := make(map[string]bool, len(in.Debts))
	for _, d := range in.Debts {
		if seen[d.ID] {
			return &PreconditionError{DebtID: d.ID, Field: "id", Reason: "duplicate"}
		}
		seen[d.ID] = true

		switch {
		case d.Balance.IsNegative():
			return &PreconditionError{DebtID: d.ID, Field: "balance", Reason: "must not be negative"}
		case d.APR.IsNegative():
			return &PreconditionError{DebtID: d.ID, Field: "apr", Reason: "must not be negative"}
		case !d.MinimumPayment.IsPositive():
			return &PreconditionError{DebtID: d.ID, Field: "minimum_payment", Reason: "must be positive"}
		}
	}
	return nil
}

// Simulate orders the debts, runs the monthly loop and builds the summary.
func (e *Engine) Simulate(in PlanInput) (*PlanSummary, error) {
	if err := Validate(in); err != nil {
		return nil, err
	}
	if len(in.Debts) == 0 {
		return emptySummary(in.Strategy, in.ExtraPayment), nil
	}

	debts := in.Debts
	order := Order(debts, in.Strategy)

	capacity := in.ExtraPayment
	for _, d := range debts {
		capacity = capacity.Add(d.MinimumPayment)
	}

	ledger := make([]ledgerEntry, len(debts))
	for i, d := range debts {
		ledger[i] = ledgerEntry{balance: d.Balance, interest: decimal.Zero, targetPeak: decimal.Zero}
	}

	month := 0
	for month < SafetyBound && anyUnpaid(ledger) {
		month++
		tick(debts, ledger, order, capacity, month)
	}

	return e.summarize(in, order, ledger, month), nil
}

func anyUnpaid(ledger []ledgerEntry) bool {
	for i := range ledger {
		if ledger[i].unpaid() {
			return true
		}
	}
	return false
}

// tick advances the simulation by one month.
func tick(debts []DebtRecord, ledger []ledgerEntry, order []int, capacity decimal.Decimal, month int) {
	// 1. Interest accrual
	for i := range ledger {
		e := &ledger[i]
		if !e.unpaid() {
			continue
		}
		interest := MonthlyInterest(e.balance, debts[i].APR)
		e.balance = e.balance.Add(interest)
		e.interest = e.interest.Add(interest)
	}

	// 2. Minimum payments
	applied := decimal.Zero
	for i := range ledger {
		e := &ledger[i]
		if !e.unpaid() {
			continue
		}
		pay := decimal.Min(debts[i].MinimumPayment, e.balance)
		e.balance = e.balance.Sub(pay)
		e.record(month, pay)
		applied = applied.Add(pay)
	}

	// 3. Waterfall
	remaining := capacity.Sub(applied)
	for _, i := range order {
		if !remaining.IsPositive() {
			break
		}
		e := &ledger[i]
		if !e.unpaid() {
			continue
		}
		pay := decimal.Min(remaining, e.balance)
		e.balance = e.balance.Sub(pay)
		e.record(month, pay)
		e.targetPeak = decimal.Max(e.targetPeak, e.payments[len(e.payments)-1].Amount)
		remaining = remaining.Sub(pay)
	}

	// 4. Payoff detection
	for i := range ledger {
		e := &ledger[i]
		if e.payoffMonth == 0 && len(e.payments) > 0 && !e.unpaid() {
			e.payoffMonth = month
		}
	}
}

// =============================================================================
// SUMMARY
// =============================================================================

func (e *Engine) summarize(in PlanInput, order []int, ledger []ledgerEntry, lastMonth int) *PlanSummary {
	phrases := e.phrases()
	summary := emptySummary(in.Strategy, in.ExtraPayment)
	summary.Debts = make([]DebtOutcome, 0, len(in.Debts))
	summary.Warnings = paymentWarnings(in.Debts, order)

	totalPrincipal := decimal.Zero
	for _, d := range in.Debts {
		totalPrincipal = totalPrincipal.Add(d.Balance)
		summary.OriginalTotalMonthly = summary.OriginalTotalMonthly.Add(d.MinimumPayment)
	}

	for rank, i := range order {
		d := in.Debts[i]
		entry := ledger[i]

		paidOff := !entry.unpaid()
		months := entry.payoffMonth
		if !paidOff {
			months = lastMonth
			summary.DebtFree = false
			summary.Warnings = append(summary.Warnings, Warning{
				DebtID:  d.ID,
				Code:    WarnSafetyBoundReached,
				Message: fmt.Sprintf("%s is not paid off after %d months", label(d), lastMonth),
			})
		}

		outcome := DebtOutcome{
			ID:                d.ID,
			Creditor:          d.Creditor,
			Balance:           d.Balance,
			APR:               d.APR,
			MinimumPayment:    d.MinimumPayment,
			MonthsToPayoff:    months,
			TotalInterestPaid: entry.interest,
			EffectivePayment:  decimal.Max(entry.targetPeak, d.MinimumPayment),
			PaidOff:           paidOff,
			RemainingBalance:  decimal.Max(entry.balance, decimal.Zero),
			Priority:          rank + 1,
			History:           entry.payments,
		}
		outcome.Schedule = Summarize(entry.payments, months, paidOff, d.MinimumPayment, phrases)

		summary.TotalInterestPaid = summary.TotalInterestPaid.Add(entry.interest)
		if months > summary.TotalMonthsToDebtFree {
			summary.TotalMonthsToDebtFree = months
		}
		summary.Debts = append(summary.Debts, outcome)
	}

	sort.SliceStable(summary.Debts, func(a, b int) bool {
		return summary.Debts[a].MonthsToPayoff < summary.Debts[b].MonthsToPayoff
	})

	summary.TotalAmountPaid = totalPrincipal.Add(summary.TotalInterestPaid)
	return summary
}

// paymentWarnings flags debts whose minimum payment does not exceed their
// first month's interest.
func paymentWarnings(debts []DebtRecord, order []int) []Warning {
	var warnings []Warning
	for _, i := range order {
		d := debts[i]
		if !d.Balance.IsPositive() {
			continue
		}
		interest := MonthlyInterest(d.Balance, d.APR)
		if d.MinimumPayment.LessThanOrEqual(interest) {
			warnings = append(warnings, Warning{
				DebtID: d.ID,
				Code:   WarnPaymentBelowInterest,
				Message: fmt.Sprintf("%s: minimum payment %s does not cover monthly interest %s",
					label(d), FormatCurrency(d.MinimumPayment), FormatCurrency(interest)),
			})
		}
	}
	return warnings
}

func label(d DebtRecord) string {
	if d.Creditor != "" {
		return d.Creditor
	}
	return d.ID
}
