/*
Package store defines persistence for saved debts and plan history.

PURPOSE:
  Users keep their debts in named portfolios and re-run plans as balances
  change. Each run is recorded so the history can be listed and compared.
  The engine itself never touches storage; the API loads debts, simulates,
  then records the run.

KEY TYPES:
  Debt:    A saved debt inside a portfolio
  PlanRun: One recorded simulation of a portfolio
  Store:   The persistence interface

IMPLEMENTATIONS:
  - store/sqlite:   SQLite (default, single node)
  - store/postgres: PostgreSQL

AMOUNTS:
  Balances, APRs and payments are decimal.Decimal end to end. SQLite stores
  them as TEXT, PostgreSQL as NUMERIC, so no float rounding happens at rest.

SEE ALSO:
  - store/storetest: Behaviour shared by every implementation
  - api/handlers.go: Portfolio endpoints
*/
package store

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/warp/payoff-engine/payoff"
)

// ErrNotFound is returned when a debt does not exist in the portfolio.
var ErrNotFound = errors.New("not found")

// ErrInvalidRecord is returned when a record is missing required keys.
var ErrInvalidRecord = errors.New("invalid record")

// =============================================================================
// RECORDS
// =============================================================================

// Debt is a saved debt. (PortfolioID, ID) is unique.
type Debt struct {
	ID             string
	PortfolioID    string
	Creditor       string
	Balance        decimal.Decimal
	APR            decimal.Decimal
	MinimumPayment decimal.Decimal
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Record converts the saved debt to engine input.
func (d Debt) Record() payoff.DebtRecord {
	return payoff.DebtRecord{
		ID:             d.ID,
		Creditor:       d.Creditor,
		Balance:        d.Balance,
		APR:            d.APR,
		MinimumPayment: d.MinimumPayment,
	}
}

// Records converts saved debts to engine input, keeping their order.
func Records(debts []Debt) []payoff.DebtRecord {
	out := make([]payoff.DebtRecord, len(debts))
	for i, d := range debts {
		out[i] = d.Record()
	}
	return out
}

// PlanRun is one recorded simulation.
type PlanRun struct {
	ID            string
	PortfolioID   string
	Strategy      string
	ExtraPayment  decimal.Decimal
	InputHash     string // cache key of the simulated input
	TotalMonths   int
	TotalInterest decimal.Decimal
	DebtFree      bool
	SummaryJSON   string
	CreatedAt     time.Time
}

// =============================================================================
// STORE
// =============================================================================

// Store persists portfolios of debts and their plan history.
type Store interface {
	// SaveDebt inserts or updates a debt. A missing ID is generated and
	// written back to the returned record.
	SaveDebt(ctx context.Context, d Debt) (Debt, error)

	// GetDebt returns ErrNotFound for unknown debts.
	GetDebt(ctx context.Context, portfolioID, id string) (*Debt, error)

	// ListDebts returns the portfolio's debts in creation order.
	ListDebts(ctx context.Context, portfolioID string) ([]Debt, error)

	// DeleteDebt returns ErrNotFound for unknown debts.
	DeleteDebt(ctx context.Context, portfolioID, id string) error

	// ReplaceDebts atomically swaps the portfolio's debts for debts.
	ReplaceDebts(ctx context.Context, portfolioID string, debts []Debt) error

	// ListPortfolios returns every portfolio ID that has debts, sorted.
	ListPortfolios(ctx context.Context) ([]string, error)

	SavePlanRun(ctx context.Context, run PlanRun) (PlanRun, error)

	// ListPlanRuns returns newest first. limit <= 0 means no limit.
	ListPlanRuns(ctx context.Context, portfolioID string, limit int) ([]PlanRun, error)

	// DeletePlanRunsBefore removes runs created before the cutoff and
	// returns how many were removed.
	DeletePlanRunsBefore(ctx context.Context, cutoff time.Time) (int64, error)

	// Reset clears all data (for testing/demo).
	Reset(ctx context.Context) error

	Close() error
}

// =============================================================================
// HELPERS FOR IMPLEMENTATIONS
// =============================================================================

// NewID returns a random identifier for new records.
func NewID() string {
	return uuid.NewString()
}

// PrepareDebt fills in generated fields before a write.
func PrepareDebt(d Debt, now time.Time) (Debt, error) {
	d.PortfolioID = strings.TrimSpace(d.PortfolioID)
	if d.PortfolioID == "" {
		return d, errors.Join(ErrInvalidRecord, errors.New("portfolio id is required"))
	}
	if strings.TrimSpace(d.ID) == "" {
		d.ID = NewID()
	}
	if d.CreatedAt.IsZero() {
		d.CreatedAt = now
	}
	d.UpdatedAt = now
	return d, nil
}

// PreparePlanRun fills in generated fields before a write.
func PreparePlanRun(r PlanRun, now time.Time) (PlanRun, error) {
	if strings.TrimSpace(r.PortfolioID) == "" {
		return r, errors.Join(ErrInvalidRecord, errors.New("portfolio id is required"))
	}
	if r.ID == "" {
		r.ID = NewID()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = now
	}
	return r, nil
}
