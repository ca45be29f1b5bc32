/*
scenarios.go - Demo portfolios for testing and demonstrations

PURPOSE:
  Provides pre-built portfolios that populate the store with realistic debts.
  Each scenario is a plan document in the factory JSON format, so the same
  file can be fed to `payoff plan -f`.

AVAILABLE SCENARIOS:
  credit-cards:      Three revolving cards with different rates
  student-and-auto:  Installment loans next to a store card
  promo-zero-rate:   0% promotional balances, payoff is pure division
  underwater:        A card whose minimum never covers its interest

HOW SCENARIOS WORK:
  1. Parse the plan document via factory.ParsePlan
  2. Replace the target portfolio's debts (other portfolios are untouched)
  3. Remember the loaded scenario for GET /api/scenarios/current

USAGE VIA API:
  POST /api/scenarios/load
  {"scenario_id": "credit-cards", "portfolio_id": "demo"}

ADDING NEW SCENARIOS:
  Add an entry to 'scenarios' with its plan document. No handler changes.

SEE ALSO:
  - handlers.go: ResetDatabase (clears every portfolio)
  - factory/plan.go: Plan JSON definitions
*/
package api

import (
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/warp/payoff-engine/factory"
	"github.com/warp/payoff-engine/store"
)

// DefaultPortfolio receives scenarios when the request names none.
const DefaultPortfolio = "demo"

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

type scenario struct {
	ScenarioDTO
	plan string
}

var scenarios = []scenario{
	{
		ScenarioDTO: ScenarioDTO{
			ID:          "credit-cards",
			Name:        "Credit Cards",
			Description: "Three revolving cards; avalanche and snowball pick different targets",
			Category:    "cards",
		},
		plan: `{
  "strategy": "avalanche",
  "extra_payment": 200,
  "debts": [
    {"id": "visa", "creditor": "Visa", "balance": 4200, "apr": 22.99, "minimum_payment": 120},
    {"id": "mastercard", "creditor": "Mastercard", "balance": 900, "apr": 17.49, "minimum_payment": 35},
    {"id": "amex", "creditor": "Amex", "balance": 2750, "apr": 26.24, "minimum_payment": 85}
  ]
}`,
	},
	{
		ScenarioDTO: ScenarioDTO{
			ID:          "student-and-auto",
			Name:        "Student and Auto Loans",
			Description: "Large low-rate installment loans next to a small store card",
			Category:    "loans",
		},
		plan: `{
  "strategy": "snowball",
  "extra_payment": 150,
  "debts": [
    {"id": "student", "creditor": "Federal Student Aid", "balance": 28500, "apr": 5.5, "minimum_payment": 310},
    {"id": "auto", "creditor": "Auto Credit Union", "balance": 14200, "apr": 6.9, "minimum_payment": 385},
    {"id": "store", "creditor": "Store Card", "balance": 640, "apr": 28.99, "minimum_payment": 30}
  ]
}`,
	},
	{
		ScenarioDTO: ScenarioDTO{
			ID:          "promo-zero-rate",
			Name:        "Promotional 0% Balances",
			Description: "Balance transfers at 0% APR; no interest accrues",
			Category:    "cards",
		},
		plan: `{
  "strategy": "avalanche",
  "extra_payment": 0,
  "debts": [
    {"id": "transfer", "creditor": "Balance Transfer Card", "balance": 1200, "apr": 0, "minimum_payment": 100},
    {"id": "furniture", "creditor": "Furniture Financing", "balance": 600, "apr": 0, "minimum_payment": 50}
  ]
}`,
	},
	{
		ScenarioDTO: ScenarioDTO{
			ID:          "underwater",
			Name:        "Underwater Balance",
			Description: "A minimum payment below the monthly interest; the plan reports warnings",
			Category:    "edge-case",
		},
		plan: `{
  "strategy": "avalanche",
  "extra_payment": 0,
  "debts": [
    {"id": "payday", "creditor": "Payday Lender", "balance": 5000, "apr": 36, "minimum_payment": 100}
  ]
}`,
	},
}

func findScenario(id string) (scenario, bool) {
	for _, s := range scenarios {
		if s.ID == id {
			return s, true
		}
	}
	return scenario{}, false
}

// ListScenarios returns available scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	dtos := make([]ScenarioDTO, len(scenarios))
	for i, s := range scenarios {
		dtos[i] = s.ScenarioDTO
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetCurrentScenario returns the most recently loaded scenario, if any.
func (h *Handler) GetCurrentScenario(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	current := h.currentScenario
	h.mu.RUnlock()

	if current == "" {
		writeJSON(w, http.StatusOK, nil)
		return
	}
	s, _ := findScenario(current)
	writeJSON(w, http.StatusOK, s.ScenarioDTO)
}

// LoadScenario replaces a portfolio's debts with a predefined scenario.
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req LoadScenarioRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.PortfolioID == "" {
		req.PortfolioID = DefaultPortfolio
	}

	s, ok := findScenario(req.ScenarioID)
	if !ok {
		writeError(w, http.StatusBadRequest, "Unknown scenario", fmt.Errorf("scenario %q", req.ScenarioID))
		return
	}

	if err := h.loadScenario(r, s, req.PortfolioID); err != nil {
		h.fail(w, fmt.Sprintf("Failed to load scenario: %v", err), err)
		return
	}

	h.mu.Lock()
	h.currentScenario = s.ID
	h.mu.Unlock()

	h.Log.Info("scenario loaded", zap.String("scenario", s.ID), zap.String("portfolio", req.PortfolioID))
	writeJSON(w, http.StatusOK, map[string]string{
		"status":       "loaded",
		"scenario":     s.ID,
		"portfolio_id": req.PortfolioID,
	})
}

func (h *Handler) loadScenario(r *http.Request, s scenario, portfolioID string) error {
	input, _, err := factory.ParsePlan(s.plan)
	if err != nil {
		return err
	}

	debts := make([]store.Debt, len(input.Debts))
	for i, d := range input.Debts {
		debts[i] = store.Debt{
			ID:             d.ID,
			PortfolioID:    portfolioID,
			Creditor:       d.Creditor,
			Balance:        d.Balance,
			APR:            d.APR,
			MinimumPayment: d.MinimumPayment,
		}
	}
	return h.Store.ReplaceDebts(r.Context(), portfolioID, debts)
}
