/*
Package factory provides JSON to Go plan conversion.

PURPOSE:
  Converts JSON plan documents into payoff.PlanInput values. The same
  document format is accepted by the HTTP API, the CLI and the demo
  scenarios, so every entry point validates input the same way.

JSON SCHEMA:
  {
    "strategy": "avalanche",
    "extra_payment": 100,
    "language": "en",
    "debts": [
      {"id": "card-1", "creditor": "Visa", "balance": 2500,
       "apr": 19.99, "minimum_payment": 75}
    ]
  }

DEFAULTS:
  - strategy: avalanche
  - language: en
  - debt id: "debt-N" (1-based position) when omitted

USAGE:
  input, phrases, err := factory.ParsePlan(jsonString)
  summary, err := payoff.NewEngine(phrases).Simulate(*input)

SEE ALSO:
  - payoff/types.go: PlanInput definition
  - api/dto.go: HTTP response shapes
*/
package factory

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/warp/payoff-engine/payoff"
)

// =============================================================================
// JSON SCHEMA TYPES
// =============================================================================

// PlanJSON is the JSON representation of a plan request.
type PlanJSON struct {
	Strategy     string     `json:"strategy,omitempty"`
	ExtraPayment float64    `json:"extra_payment,omitempty"`
	Language     string     `json:"language,omitempty"`
	Debts        []DebtJSON `json:"debts"`
}

// DebtJSON represents a single debt.
type DebtJSON struct {
	ID             string  `json:"id,omitempty"`
	Creditor       string  `json:"creditor,omitempty"`
	Balance        float64 `json:"balance"`
	APR            float64 `json:"apr"` // annual percent
	MinimumPayment float64 `json:"minimum_payment"`
}

// =============================================================================
// PARSING
// =============================================================================

// ParsePlan parses a JSON string into a PlanInput and the phrasebook for its
// language. The returned input has already passed payoff.Validate.
func ParsePlan(jsonStr string) (*payoff.PlanInput, payoff.Phrasebook, error) {
	var pj PlanJSON
	dec := json.NewDecoder(strings.NewReader(jsonStr))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&pj); err != nil {
		return nil, payoff.English, fmt.Errorf("failed to parse plan JSON: %w", err)
	}

	input, err := pj.ToInput()
	if err != nil {
		return nil, payoff.English, err
	}
	return input, payoff.PhrasebookFor(pj.Language), nil
}

// ToInput converts the JSON document to engine input.
func (pj PlanJSON) ToInput() (*payoff.PlanInput, error) {
	strategy := payoff.Avalanche
	if pj.Strategy != "" {
		s, err := payoff.ParseStrategy(pj.Strategy)
		if err != nil {
			return nil, err
		}
		strategy = s
	}

	input := &payoff.PlanInput{
		Strategy:     strategy,
		ExtraPayment: decimal.NewFromFloat(pj.ExtraPayment),
		Debts:        make([]payoff.DebtRecord, 0, len(pj.Debts)),
	}
	for i, dj := range pj.Debts {
		input.Debts = append(input.Debts, dj.ToRecord(i))
	}

	if err := payoff.Validate(*input); err != nil {
		return nil, err
	}
	return input, nil
}

// ToRecord converts a debt; position is used for the default ID.
func (dj DebtJSON) ToRecord(position int) payoff.DebtRecord {
	id := strings.TrimSpace(dj.ID)
	if id == "" {
		id = fmt.Sprintf("debt-%d", position+1)
	}
	return payoff.DebtRecord{
		ID:             id,
		Creditor:       strings.TrimSpace(dj.Creditor),
		Balance:        decimal.NewFromFloat(dj.Balance),
		APR:            decimal.NewFromFloat(dj.APR),
		MinimumPayment: decimal.NewFromFloat(dj.MinimumPayment),
	}
}

// ToJSON converts engine input back to its JSON document. The output is
// canonical: equal inputs produce byte-identical JSON when marshalled.
func ToJSON(in payoff.PlanInput, language string) PlanJSON {
	pj := PlanJSON{
		Strategy:     string(in.Strategy),
		ExtraPayment: in.ExtraPayment.InexactFloat64(),
		Language:     language,
		Debts:        make([]DebtJSON, 0, len(in.Debts)),
	}
	for _, d := range in.Debts {
		pj.Debts = append(pj.Debts, DebtJSON{
			ID:             d.ID,
			Creditor:       d.Creditor,
			Balance:        d.Balance.InexactFloat64(),
			APR:            d.APR.InexactFloat64(),
			MinimumPayment: d.MinimumPayment.InexactFloat64(),
		})
	}
	return pj
}
