package payoff_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/warp/payoff-engine/payoff"
)

func history(amounts ...float64) []payoff.Payment {
	out := make([]payoff.Payment, len(amounts))
	for i, a := range amounts {
		out[i] = payoff.Payment{Month: i + 1, Amount: money(a)}
	}
	return out
}

func TestSummarize(t *testing.T) {
	tests := []struct {
		name    string
		history []payoff.Payment
		payoff  int
		paidOff bool
		want    []string
	}{
		{
			name:    "runs of equal payments",
			history: history(250, 250, 250, 400, 400, 120.55),
			payoff:  6,
			paidOff: true,
			want: []string{
				"Pay $250.00 in months 1–3.",
				"Pay $400.00 in months 4–5.",
				"Pay $120.55 in month 6.",
			},
		},
		{
			name:    "one group covering the whole payoff",
			history: history(100, 100, 100),
			payoff:  3,
			paidOff: true,
			want:    []string{"Pay $100.00 each month until paid off (3 months)."},
		},
		{
			name:    "single month wins over until paid off",
			history: history(80),
			payoff:  1,
			paidOff: true,
			want:    []string{"Pay $80.00 in month 1."},
		},
		{
			name:    "one cent difference is grouped",
			history: history(100, 100.01, 100, 55),
			payoff:  4,
			paidOff: true,
			want:    []string{"Pay $100.00 in months 1–3.", "Pay $55.00 in month 4."},
		},
		{
			name:    "two cents difference is split",
			history: history(100, 100.02),
			payoff:  2,
			paidOff: true,
			want:    []string{"Pay $100.00 in month 1.", "Pay $100.02 in month 2."},
		},
		{
			name:    "force closed debt gets the generic sentence",
			history: history(150, 150, 150),
			payoff:  3,
			paidOff: false,
			want:    []string{"Pay $150.00 each month until paid off."},
		},
		{
			name:    "empty history",
			history: nil,
			payoff:  0,
			paidOff: true,
			want:    []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := payoff.Summarize(tt.history, tt.payoff, tt.paidOff, money(150), payoff.English)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSummarize_Spanish(t *testing.T) {
	got := payoff.Summarize(history(1250.5, 1250.5, 30), 3, true, money(50), payoff.Spanish)
	assert.Equal(t, []string{
		"Pague $1.250,50 en los meses 1–2.",
		"Pague $30,00 en el mes 3.",
	}, got)
}

func TestPhrasebookFor(t *testing.T) {
	assert.Equal(t, "es", payoff.PhrasebookFor("es-MX").Language)
	assert.Equal(t, "es", payoff.PhrasebookFor(" ES ").Language)
	assert.Equal(t, "en", payoff.PhrasebookFor("fr").Language)
	assert.Equal(t, "en", payoff.PhrasebookFor("").Language)
}

func TestMoney(t *testing.T) {
	tests := []struct {
		amount float64
		book   payoff.Phrasebook
		want   string
	}{
		{0, payoff.English, "$0.00"},
		{1234.5, payoff.English, "$1,234.50"},
		{1000000, payoff.English, "$1,000,000.00"},
		{10.105, payoff.English, "$10.11"},
		{-42.1, payoff.English, "-$42.10"},
		{1234.5, payoff.Spanish, "$1.234,50"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.book.Money(money(tt.amount)), "%v", tt.amount)
	}
}

func TestMonthlyInterest(t *testing.T) {
	// GIVEN: Balances whose monthly interest is not a whole number of cents
	// THEN: Interest is kept at full precision and only rounded when rendered
	assertAmount(t, "10", payoff.MonthlyInterest(money(1000), money(12)))
	assertAmount(t, "33.3333333333", payoff.MonthlyInterest(money(2000), money(20)))
	assertAmount(t, "4.1666666667", payoff.MonthlyInterest(money(500), money(10)))
	assertAmount(t, "0.004", payoff.MonthlyInterest(money(0.40), money(12)))
	assertAmount(t, "0", payoff.MonthlyInterest(money(500), money(0)))

	assert.Equal(t, "$33.33", payoff.English.Money(payoff.MonthlyInterest(money(2000), money(20))))
	assert.Equal(t, "$4.17", payoff.English.Money(payoff.MonthlyInterest(money(500), money(10))))
	assert.Equal(t, "$0.00", payoff.English.Money(payoff.MonthlyInterest(money(0.40), money(12))))
}

func TestMoney_LargeAmountsStayExact(t *testing.T) {
	// GIVEN: An amount well beyond float64's exact integer range
	amount := decimal.RequireFromString("123456789012345678.91")

	// THEN: Every digit survives formatting
	assert.Equal(t, "$123,456,789,012,345,678.91", payoff.English.Money(amount))
	assert.Equal(t, "$123.456.789.012.345.678,91", payoff.Spanish.Money(amount))
	assert.Equal(t, "-$0.05", payoff.English.Money(decimal.RequireFromString("-0.049")))
}
