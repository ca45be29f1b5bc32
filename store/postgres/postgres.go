/*
Package postgres provides a PostgreSQL implementation of store.Store.

Same tables as store/sqlite, in PostgreSQL dialect: NUMERIC for amounts,
TIMESTAMPTZ for times, and a BIGSERIAL seq column that keeps insertion
order when timestamps collide. PostgreSQL handles concurrency itself, so
there is no in-process lock.

USAGE:
  st, err := postgres.New(ctx, "postgres://payoff@localhost/payoff?sslmode=disable")
*/
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"github.com/warp/payoff-engine/store"
)

// Store implements store.Store using PostgreSQL.
type Store struct {
	db *sql.DB
}

var _ store.Store = (*Store)(nil)

// New opens the database, checks connectivity and migrates the schema.
func New(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate(ctx context.Context) error {
	schema := `
CREATE TABLE IF NOT EXISTS debts (
  seq BIGSERIAL,
  portfolio_id TEXT NOT NULL,
  id TEXT NOT NULL,
  creditor TEXT NOT NULL DEFAULT '',
  balance NUMERIC NOT NULL CHECK (balance >= 0),
  apr NUMERIC NOT NULL CHECK (apr >= 0),
  minimum_payment NUMERIC NOT NULL,
  created_at TIMESTAMPTZ NOT NULL,
  updated_at TIMESTAMPTZ NOT NULL,
  PRIMARY KEY (portfolio_id, id)
);

CREATE TABLE IF NOT EXISTS plan_runs (
  seq BIGSERIAL,
  id TEXT PRIMARY KEY,
  portfolio_id TEXT NOT NULL,
  strategy TEXT NOT NULL,
  extra_payment NUMERIC NOT NULL,
  input_hash TEXT NOT NULL,
  total_months INTEGER NOT NULL,
  total_interest NUMERIC NOT NULL,
  debt_free BOOLEAN NOT NULL,
  summary_json TEXT NOT NULL,
  created_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_plan_runs_portfolio_created ON plan_runs(portfolio_id, created_at DESC);
CREATE INDEX IF NOT EXISTS idx_plan_runs_created ON plan_runs(created_at);
`
	_, err := s.db.ExecContext(ctx, schema)
	return err
}

// =============================================================================
// DEBTS
// =============================================================================

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func upsertDebt(ctx context.Context, db execer, d store.Debt) error {
	_, err := db.ExecContext(ctx, `
INSERT INTO debts (portfolio_id, id, creditor, balance, apr, minimum_payment, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
ON CONFLICT (portfolio_id, id) DO UPDATE SET
  creditor = EXCLUDED.creditor,
  balance = EXCLUDED.balance,
  apr = EXCLUDED.apr,
  minimum_payment = EXCLUDED.minimum_payment,
  updated_at = EXCLUDED.updated_at`,
		d.PortfolioID, d.ID, d.Creditor, d.Balance, d.APR, d.MinimumPayment, d.CreatedAt, d.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save debt %s: %w", d.ID, err)
	}
	return nil
}

func (s *Store) SaveDebt(ctx context.Context, d store.Debt) (store.Debt, error) {
	d, err := store.PrepareDebt(d, time.Now().UTC())
	if err != nil {
		return d, err
	}
	if err := upsertDebt(ctx, s.db, d); err != nil {
		return d, err
	}
	saved, err := s.GetDebt(ctx, d.PortfolioID, d.ID)
	if err != nil {
		return d, err
	}
	return *saved, nil
}

const debtColumns = "portfolio_id, id, creditor, balance, apr, minimum_payment, created_at, updated_at"

type scanner interface {
	Scan(dest ...any) error
}

func scanDebt(row scanner) (store.Debt, error) {
	var d store.Debt
	err := row.Scan(&d.PortfolioID, &d.ID, &d.Creditor, &d.Balance, &d.APR, &d.MinimumPayment,
		&d.CreatedAt, &d.UpdatedAt)
	return d, err
}

func (s *Store) GetDebt(ctx context.Context, portfolioID, id string) (*store.Debt, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+debtColumns+" FROM debts WHERE portfolio_id = $1 AND id = $2", portfolioID, id)
	d, err := scanDebt(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("debt %s/%s: %w", portfolioID, id, store.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (s *Store) ListDebts(ctx context.Context, portfolioID string) ([]store.Debt, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+debtColumns+" FROM debts WHERE portfolio_id = $1 ORDER BY created_at, seq", portfolioID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	debts := []store.Debt{}
	for rows.Next() {
		d, err := scanDebt(rows)
		if err != nil {
			return nil, err
		}
		debts = append(debts, d)
	}
	return debts, rows.Err()
}

func (s *Store) DeleteDebt(ctx context.Context, portfolioID, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM debts WHERE portfolio_id = $1 AND id = $2", portfolioID, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("debt %s/%s: %w", portfolioID, id, store.ErrNotFound)
	}
	return nil
}

func (s *Store) ReplaceDebts(ctx context.Context, portfolioID string, debts []store.Debt) error {
	now := time.Now().UTC()
	prepared := make([]store.Debt, len(debts))
	for i, d := range debts {
		d.PortfolioID = portfolioID
		p, err := store.PrepareDebt(d, now)
		if err != nil {
			return err
		}
		prepared[i] = p
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM debts WHERE portfolio_id = $1", portfolioID); err != nil {
		return err
	}
	for _, d := range prepared {
		if err := upsertDebt(ctx, tx, d); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *Store) ListPortfolios(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT DISTINCT portfolio_id FROM debts ORDER BY portfolio_id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// =============================================================================
// PLAN RUNS
// =============================================================================

func (s *Store) SavePlanRun(ctx context.Context, r store.PlanRun) (store.PlanRun, error) {
	r, err := store.PreparePlanRun(r, time.Now().UTC())
	if err != nil {
		return r, err
	}

	_, err = s.db.ExecContext(ctx, `
INSERT INTO plan_runs
  (id, portfolio_id, strategy, extra_payment, input_hash, total_months, total_interest,
   debt_free, summary_json, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		r.ID, r.PortfolioID, r.Strategy, r.ExtraPayment, r.InputHash, r.TotalMonths,
		r.TotalInterest, r.DebtFree, r.SummaryJSON, r.CreatedAt,
	)
	if err != nil {
		return r, fmt.Errorf("failed to save plan run: %w", err)
	}
	return r, nil
}

func (s *Store) ListPlanRuns(ctx context.Context, portfolioID string, limit int) ([]store.PlanRun, error) {
	query := `
SELECT id, portfolio_id, strategy, extra_payment, input_hash, total_months,
       total_interest, debt_free, summary_json, created_at
FROM plan_runs WHERE portfolio_id = $1
ORDER BY created_at DESC, seq DESC`
	args := []any{portfolioID}
	if limit > 0 {
		query += " LIMIT $2"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	runs := []store.PlanRun{}
	for rows.Next() {
		var r store.PlanRun
		if err := rows.Scan(&r.ID, &r.PortfolioID, &r.Strategy, &r.ExtraPayment, &r.InputHash,
			&r.TotalMonths, &r.TotalInterest, &r.DebtFree, &r.SummaryJSON, &r.CreatedAt); err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

func (s *Store) DeletePlanRunsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM plan_runs WHERE created_at < $1", cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to prune plan runs: %w", err)
	}
	return res.RowsAffected()
}

// Reset clears all data (for testing/demo).
func (s *Store) Reset(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, "TRUNCATE plan_runs, debts")
	return err
}
