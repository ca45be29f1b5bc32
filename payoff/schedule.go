/*
schedule.go - Payment schedule compression

PURPOSE:
  Turns a debt's flat (month, amount) log into a few sentences a person can
  follow. Runs after the simulation, so formatting never touches the
  simulation arithmetic.

RULES:
  - Consecutive months within one cent of the group's first amount form a group
  - Single month:             "Pay $X in month M."
  - Months 1..payoff month:   "Pay $X each month until paid off (N months)."
  - Any other run:            "Pay $X in months A–B."
  - Force-closed at the safety bound: "Pay $MIN each month until paid off."

EXAMPLE:
  [(1, 250), (2, 250), (3, 250), (4, 400), (5, 400), (6, 120.55)]
    -> "Pay $250.00 in months 1–3."
       "Pay $400.00 in months 4–5."
       "Pay $120.55 in month 6."
*/
package payoff

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// =============================================================================
// PHRASEBOOK
// =============================================================================

// Phrasebook holds the sentence templates and number format used to render
// schedules. Templates take the formatted amount first.
type Phrasebook struct {
	Language       string
	ThousandsSep   string
	DecimalSep     string
	CurrencySymbol string
	SymbolAfter    bool

	SingleMonth  string // amount, month
	MonthRange   string // amount, first, last
	UntilPaidOff string // amount, months
	Generic      string // amount
}

var English = Phrasebook{
	Language:       "en",
	ThousandsSep:   ",",
	DecimalSep:     ".",
	CurrencySymbol: "$",
	SingleMonth:    "Pay %s in month %d.",
	MonthRange:     "Pay %s in months %d–%d.",
	UntilPaidOff:   "Pay %s each month until paid off (%d months).",
	Generic:        "Pay %s each month until paid off.",
}

var Spanish = Phrasebook{
	Language:       "es",
	ThousandsSep:   ".",
	DecimalSep:     ",",
	CurrencySymbol: "$",
	SingleMonth:    "Pague %s en el mes %d.",
	MonthRange:     "Pague %s en los meses %d–%d.",
	UntilPaidOff:   "Pague %s cada mes hasta liquidar la deuda (%d meses).",
	Generic:        "Pague %s cada mes hasta liquidar la deuda.",
}

// PhrasebookFor returns the phrasebook for a language tag ("es", "es-MX"),
// falling back to English.
func PhrasebookFor(lang string) Phrasebook {
	lang = strings.ToLower(strings.TrimSpace(lang))
	if strings.HasPrefix(lang, "es") {
		return Spanish
	}
	return English
}

// GenericSchedule is the sentence used when no grouping applies.
func (p Phrasebook) GenericSchedule(minimum decimal.Decimal) string {
	return fmt.Sprintf(p.Generic, p.Money(minimum))
}

// =============================================================================
// COMPRESSION
// =============================================================================

type paymentGroup struct {
	first, last int
	amount      decimal.Decimal
}

// groupPayments merges consecutive months with equal amounts (within a cent).
func groupPayments(history []Payment) []paymentGroup {
	var groups []paymentGroup
	for _, p := range history {
		if n := len(groups); n > 0 {
			g := &groups[n-1]
			if p.Month == g.last+1 && p.Amount.Sub(g.amount).Abs().LessThanOrEqual(scheduleTolerance) {
				g.last = p.Month
				continue
			}
		}
		groups = append(groups, paymentGroup{first: p.Month, last: p.Month, amount: p.Amount})
	}
	return groups
}

// Summarize compresses a payment history into schedule sentences.
// An empty history yields an empty schedule.
func Summarize(history []Payment, payoffMonth int, paidOff bool, minimum decimal.Decimal, p Phrasebook) []string {
	if len(history) == 0 {
		return []string{}
	}
	if !paidOff {
		return []string{p.GenericSchedule(minimum)}
	}

	groups := groupPayments(history)
	lines := make([]string, 0, len(groups))
	for _, g := range groups {
		amount := p.Money(g.amount)
		switch {
		case g.first == g.last:
			lines = append(lines, fmt.Sprintf(p.SingleMonth, amount, g.first))
		case g.first == 1 && g.last == payoffMonth:
			lines = append(lines, fmt.Sprintf(p.UntilPaidOff, amount, payoffMonth))
		default:
			lines = append(lines, fmt.Sprintf(p.MonthRange, amount, g.first, g.last))
		}
	}
	return lines
}
