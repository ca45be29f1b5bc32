/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. Amounts travel as JSON
  numbers; conversion to and from decimal.Decimal happens only here, so the
  engine never sees a float.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

TYPES:
  Plans:
    PlanSummaryDTO, DebtOutcomeDTO, PaymentDTO, WarningDTO, ComparisonDTO

  Estimate:
    EstimateRequest, EstimateDTO

  Portfolios:
    DebtDTO, SaveDebtRequest, PortfolioPlanRequest, PlanRunDTO

  Scenarios:
    ScenarioDTO, LoadScenarioRequest

SCHEDULES:
  A debt with no payments (zero starting balance) has an empty schedule in
  the engine. Responses render it with the generic sentence instead so every
  debt shows at least one instruction.

SEE ALSO:
  - handlers.go: Uses these types
  - factory/plan.go: Plan request body (factory.PlanJSON)
*/
package api

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/payoff-engine/payoff"
	"github.com/warp/payoff-engine/store"
)

// =============================================================================
// PLAN RESPONSES
// =============================================================================

// PaymentDTO is one month's payment on one debt.
type PaymentDTO struct {
	Month  int     `json:"month"`
	Amount float64 `json:"amount"`
}

// WarningDTO flags a debt worth a second look.
type WarningDTO struct {
	DebtID  string `json:"debt_id"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// DebtOutcomeDTO is the per-debt result.
type DebtOutcomeDTO struct {
	ID                string       `json:"id"`
	Creditor          string       `json:"creditor,omitempty"`
	Balance           float64      `json:"balance"`
	APR               float64      `json:"apr"`
	MinimumPayment    float64      `json:"minimum_payment"`
	Priority          int          `json:"priority"`
	MonthsToPayoff    int          `json:"months_to_payoff"`
	TotalInterestPaid float64      `json:"total_interest_paid"`
	TotalPaid         float64      `json:"total_paid"`
	EffectivePayment  float64      `json:"effective_payment"`
	PaidOff           bool         `json:"paid_off"`
	RemainingBalance  float64      `json:"remaining_balance"`
	Schedule          []string     `json:"schedule"`
	History           []PaymentDTO `json:"history,omitempty"`
}

// PlanSummaryDTO is the simulation result.
type PlanSummaryDTO struct {
	Strategy              string           `json:"strategy"`
	Language              string           `json:"language"`
	TotalMonthsToDebtFree int              `json:"total_months_to_debt_free"`
	TotalInterestPaid     float64          `json:"total_interest_paid"`
	TotalAmountPaid       float64          `json:"total_amount_paid"`
	OriginalTotalMonthly  float64          `json:"original_total_monthly"`
	ExtraPayment          float64          `json:"extra_payment"`
	MonthlyCapacity       float64          `json:"monthly_capacity"`
	DebtFree              bool             `json:"debt_free"`
	Debts                 []DebtOutcomeDTO `json:"debts"`
	Warnings              []WarningDTO     `json:"warnings"`
}

// ComparisonDTO holds both strategies side by side.
type ComparisonDTO struct {
	Avalanche     PlanSummaryDTO `json:"avalanche"`
	Snowball      PlanSummaryDTO `json:"snowball"`
	InterestSaved float64        `json:"interest_saved"`
	MonthsSaved   int            `json:"months_saved"`
	Recommended   string         `json:"recommended"`
}

// =============================================================================
// ESTIMATE
// =============================================================================

// EstimateRequest asks for a closed-form single-debt estimate.
type EstimateRequest struct {
	Balance float64 `json:"balance"`
	APR     float64 `json:"apr"`
	Payment float64 `json:"payment"`
}

// EstimateDTO is the closed-form result.
type EstimateDTO struct {
	Months          int     `json:"months"`
	MonthlyInterest float64 `json:"monthly_interest"`
	Formatted       string  `json:"formatted"`
}

// =============================================================================
// PORTFOLIOS
// =============================================================================

// DebtDTO is a saved debt.
type DebtDTO struct {
	ID             string  `json:"id"`
	PortfolioID    string  `json:"portfolio_id"`
	Creditor       string  `json:"creditor"`
	Balance        float64 `json:"balance"`
	APR            float64 `json:"apr"`
	MinimumPayment float64 `json:"minimum_payment"`
	CreatedAt      string  `json:"created_at,omitempty"`
	UpdatedAt      string  `json:"updated_at,omitempty"`
}

// SaveDebtRequest creates or updates a saved debt.
type SaveDebtRequest struct {
	ID             string  `json:"id"`
	Creditor       string  `json:"creditor"`
	Balance        float64 `json:"balance"`
	APR            float64 `json:"apr"`
	MinimumPayment float64 `json:"minimum_payment"`
}

// PortfolioPlanRequest simulates a portfolio's saved debts.
type PortfolioPlanRequest struct {
	Strategy     string  `json:"strategy"`
	ExtraPayment float64 `json:"extra_payment"`
	Language     string  `json:"language"`
}

// PlanRunDTO is a recorded simulation.
type PlanRunDTO struct {
	ID            string          `json:"id"`
	PortfolioID   string          `json:"portfolio_id"`
	Strategy      string          `json:"strategy"`
	ExtraPayment  float64         `json:"extra_payment"`
	InputHash     string          `json:"input_hash"`
	TotalMonths   int             `json:"total_months"`
	TotalInterest float64         `json:"total_interest"`
	DebtFree      bool            `json:"debt_free"`
	CreatedAt     string          `json:"created_at"`
	Summary       json.RawMessage `json:"summary,omitempty"`
}

// PortfolioPlanDTO is returned after simulating a portfolio.
type PortfolioPlanDTO struct {
	Run  PlanRunDTO     `json:"run"`
	Plan PlanSummaryDTO `json:"plan"`
}

// =============================================================================
// SCENARIOS
// =============================================================================

// ScenarioDTO describes a demo portfolio.
type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Category    string `json:"category"`
}

// LoadScenarioRequest loads a demo portfolio. PortfolioID defaults to "demo".
type LoadScenarioRequest struct {
	ScenarioID  string `json:"scenario_id"`
	PortfolioID string `json:"portfolio_id"`
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// =============================================================================
// CONVERSIONS
// =============================================================================

func toFloat(d decimal.Decimal) float64 {
	return d.Round(2).InexactFloat64()
}

func toPlanSummaryDTO(s *payoff.PlanSummary, phrases payoff.Phrasebook, withHistory bool) PlanSummaryDTO {
	dto := PlanSummaryDTO{
		Strategy:              string(s.Strategy),
		Language:              phrases.Language,
		TotalMonthsToDebtFree: s.TotalMonthsToDebtFree,
		TotalInterestPaid:     toFloat(s.TotalInterestPaid),
		TotalAmountPaid:       toFloat(s.TotalAmountPaid),
		OriginalTotalMonthly:  toFloat(s.OriginalTotalMonthly),
		ExtraPayment:          toFloat(s.ExtraPayment),
		MonthlyCapacity:       toFloat(s.OriginalTotalMonthly.Add(s.ExtraPayment)),
		DebtFree:              s.DebtFree,
		Debts:                 make([]DebtOutcomeDTO, len(s.Debts)),
		Warnings:              make([]WarningDTO, len(s.Warnings)),
	}

	for i, d := range s.Debts {
		schedule := d.Schedule
		if len(schedule) == 0 {
			schedule = []string{phrases.GenericSchedule(d.MinimumPayment)}
		}
		out := DebtOutcomeDTO{
			ID:                d.ID,
			Creditor:          d.Creditor,
			Balance:           toFloat(d.Balance),
			APR:               d.APR.InexactFloat64(),
			MinimumPayment:    toFloat(d.MinimumPayment),
			Priority:          d.Priority,
			MonthsToPayoff:    d.MonthsToPayoff,
			TotalInterestPaid: toFloat(d.TotalInterestPaid),
			TotalPaid:         toFloat(d.TotalPaid()),
			EffectivePayment:  toFloat(d.EffectivePayment),
			PaidOff:           d.PaidOff,
			RemainingBalance:  toFloat(d.RemainingBalance),
			Schedule:          schedule,
		}
		if withHistory {
			out.History = make([]PaymentDTO, len(d.History))
			for j, p := range d.History {
				out.History[j] = PaymentDTO{Month: p.Month, Amount: toFloat(p.Amount)}
			}
		}
		dto.Debts[i] = out
	}

	for i, w := range s.Warnings {
		dto.Warnings[i] = WarningDTO{DebtID: w.DebtID, Code: string(w.Code), Message: w.Message}
	}
	return dto
}

func toComparisonDTO(c *payoff.Comparison, phrases payoff.Phrasebook) ComparisonDTO {
	return ComparisonDTO{
		Avalanche:     toPlanSummaryDTO(c.Avalanche, phrases, false),
		Snowball:      toPlanSummaryDTO(c.Snowball, phrases, false),
		InterestSaved: toFloat(c.InterestSaved),
		MonthsSaved:   c.MonthsSaved,
		Recommended:   string(c.Recommended),
	}
}

func toDebtDTO(d store.Debt) DebtDTO {
	return DebtDTO{
		ID:             d.ID,
		PortfolioID:    d.PortfolioID,
		Creditor:       d.Creditor,
		Balance:        d.Balance.InexactFloat64(),
		APR:            d.APR.InexactFloat64(),
		MinimumPayment: d.MinimumPayment.InexactFloat64(),
		CreatedAt:      d.CreatedAt.Format(time.RFC3339),
		UpdatedAt:      d.UpdatedAt.Format(time.RFC3339),
	}
}

func toPlanRunDTO(r store.PlanRun, withSummary bool) PlanRunDTO {
	dto := PlanRunDTO{
		ID:            r.ID,
		PortfolioID:   r.PortfolioID,
		Strategy:      r.Strategy,
		ExtraPayment:  r.ExtraPayment.InexactFloat64(),
		InputHash:     r.InputHash,
		TotalMonths:   r.TotalMonths,
		TotalInterest: toFloat(r.TotalInterest),
		DebtFree:      r.DebtFree,
		CreatedAt:     r.CreatedAt.Format(time.RFC3339),
	}
	if withSummary && r.SummaryJSON != "" {
		dto.Summary = json.RawMessage(r.SummaryJSON)
	}
	return dto
}
