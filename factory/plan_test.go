package factory_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/payoff-engine/factory"
	"github.com/warp/payoff-engine/payoff"
)

func TestParsePlan(t *testing.T) {
	// GIVEN: A full plan document
	doc := `{
		"strategy": "Snowball",
		"extra_payment": 125.5,
		"language": "es",
		"debts": [
			{"id": "card-1", "creditor": "Visa", "balance": 2500, "apr": 19.99, "minimum_payment": 75},
			{"creditor": "Dept Store", "balance": 400, "apr": 24.99, "minimum_payment": 25}
		]
	}`

	// WHEN: Parsing
	input, phrases, err := factory.ParsePlan(doc)
	require.NoError(t, err)

	// THEN: Every field is converted
	assert.Equal(t, payoff.Snowball, input.Strategy)
	assert.Equal(t, "125.5", input.ExtraPayment.String())
	assert.Equal(t, "es", phrases.Language)
	require.Len(t, input.Debts, 2)

	assert.Equal(t, "card-1", input.Debts[0].ID)
	assert.Equal(t, "Visa", input.Debts[0].Creditor)
	assert.Equal(t, "19.99", input.Debts[0].APR.String())
	assert.Equal(t, "debt-2", input.Debts[1].ID, "missing id gets a positional default")
}

func TestParsePlan_Defaults(t *testing.T) {
	input, phrases, err := factory.ParsePlan(`{"debts": [{"balance": 100, "apr": 0, "minimum_payment": 10}]}`)
	require.NoError(t, err)

	assert.Equal(t, payoff.Avalanche, input.Strategy)
	assert.True(t, input.ExtraPayment.IsZero())
	assert.Equal(t, "en", phrases.Language)
}

func TestParsePlan_Errors(t *testing.T) {
	tests := []struct {
		name   string
		doc    string
		target error
	}{
		{"unknown strategy", `{"strategy": "hybrid", "debts": []}`, payoff.ErrUnknownStrategy},
		{"zero minimum", `{"debts": [{"balance": 100, "apr": 5, "minimum_payment": 0}]}`, payoff.ErrPrecondition},
		{"negative extra", `{"extra_payment": -1, "debts": []}`, payoff.ErrPrecondition},
		{"duplicate id", `{"debts": [
			{"id": "a", "balance": 1, "apr": 1, "minimum_payment": 1},
			{"id": "a", "balance": 2, "apr": 1, "minimum_payment": 1}]}`, payoff.ErrPrecondition},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := factory.ParsePlan(tt.doc)
			assert.ErrorIs(t, err, tt.target)
		})
	}
}

func TestParsePlan_MalformedJSON(t *testing.T) {
	_, _, err := factory.ParsePlan(`{"debts": [`)
	require.Error(t, err)
	assert.False(t, payoff.IsClientError(err))

	_, _, err = factory.ParsePlan(`{"debts": [], "colour": "blue"}`)
	assert.Error(t, err, "unknown fields are rejected")
}

func TestToJSON_RoundTrip(t *testing.T) {
	input, _, err := factory.ParsePlan(`{"strategy": "snowball", "extra_payment": 50,
		"debts": [{"id": "x", "creditor": "Bank", "balance": 900.25, "apr": 7.5, "minimum_payment": 45}]}`)
	require.NoError(t, err)

	raw, err := json.Marshal(factory.ToJSON(*input, "en"))
	require.NoError(t, err)

	again, _, err := factory.ParsePlan(string(raw))
	require.NoError(t, err)
	assert.Equal(t, input.Strategy, again.Strategy)
	assert.True(t, input.Debts[0].Balance.Equal(again.Debts[0].Balance))
	assert.True(t, input.ExtraPayment.Equal(again.ExtraPayment))
}
