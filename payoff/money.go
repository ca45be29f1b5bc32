package payoff

import (
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"
)

var (
	hundred       = decimal.NewFromInt(100)
	monthsPerYear = decimal.NewFromInt(12)
	rateDivisor   = hundred.Mul(monthsPerYear)

	// interestPlaces bounds the digits carried by balances across 1200
	// months of accrual. Amounts are rounded to cents only when rendered.
	interestPlaces int32 = 10

	// scheduleTolerance groups months whose payments differ by at most a cent.
	scheduleTolerance = decimal.New(1, -2)
)

// MonthlyInterest returns one month's interest on balance at apr (nominal
// APR / 12). The result is not rounded to cents.
func MonthlyInterest(balance, apr decimal.Decimal) decimal.Decimal {
	return balance.Mul(apr).Div(rateDivisor).Round(interestPlaces)
}

// FormatCurrency renders an amount as "$1,234.56".
func FormatCurrency(d decimal.Decimal) string {
	return English.Money(d)
}

// Money renders an amount with the phrasebook's number format and symbol.
func (p Phrasebook) Money(d decimal.Decimal) string {
	d = d.Round(2)
	sign := ""
	if d.IsNegative() {
		sign = "-"
		d = d.Neg()
	}
	fixed := d.StringFixed(2)
	whole := strings.ReplaceAll(humanize.BigComma(d.BigInt()), ",", p.ThousandsSep)
	s := whole + p.DecimalSep + fixed[len(fixed)-2:]
	if p.SymbolAfter {
		return sign + s + " " + p.CurrencySymbol
	}
	return sign + p.CurrencySymbol + s
}
