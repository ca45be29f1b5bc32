/*
Package sqlite provides a SQLite-backed implementation of store.Store.

KEY TABLES:
  debts:     Saved debts, keyed by (portfolio_id, id)
  plan_runs: Recorded simulations, newest first per portfolio

CONCURRENCY:
  Uses sync.RWMutex for thread-safety. SQLite allows a single writer, so
  writes are serialized in-process instead of surfacing SQLITE_BUSY.

WAL MODE:
  File databases are opened with WAL (Write-Ahead Logging):
  - Multiple readers don't block
  - Single writer at a time
  - Better crash recovery

ORDERING:
  Timestamps are stored as fixed-width UTC text so they sort correctly as
  strings; rowid breaks ties so debts list in insertion order.

USAGE:
  st, err := sqlite.New("./data/payoff.db")
  if err != nil {
      log.Fatal(err)
  }
  defer st.Close()

MIGRATION:
  Schema is auto-migrated on New().

SEE ALSO:
  - store/store.go: Interface definition
  - store/postgres: PostgreSQL implementation
*/
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/warp/payoff-engine/store"
)

const timeFormat = "2006-01-02T15:04:05.000000000Z"

// Store implements store.Store using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

var _ store.Store = (*Store)(nil)

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	dsn := dbPath
	if !strings.Contains(dsn, "?") {
		dsn += "?_foreign_keys=on&_journal_mode=WAL"
	}
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if strings.HasPrefix(dbPath, ":memory:") {
		// Every connection to :memory: is a separate database.
		db.SetMaxOpenConns(1)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS debts (
		portfolio_id TEXT NOT NULL,
		id TEXT NOT NULL,
		creditor TEXT NOT NULL DEFAULT '',
		balance TEXT NOT NULL,
		apr TEXT NOT NULL,
		minimum_payment TEXT NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		PRIMARY KEY (portfolio_id, id)
	);

	CREATE TABLE IF NOT EXISTS plan_runs (
		id TEXT PRIMARY KEY,
		portfolio_id TEXT NOT NULL,
		strategy TEXT NOT NULL,
		extra_payment TEXT NOT NULL,
		input_hash TEXT NOT NULL,
		total_months INTEGER NOT NULL,
		total_interest TEXT NOT NULL,
		debt_free BOOLEAN NOT NULL,
		summary_json TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_plan_runs_portfolio_created
		ON plan_runs(portfolio_id, created_at DESC);
	CREATE INDEX IF NOT EXISTS idx_plan_runs_created
		ON plan_runs(created_at);
	`
	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// DEBTS
// =============================================================================

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// SaveDebt inserts or updates a debt, keeping the original created_at.
func (s *Store) SaveDebt(ctx context.Context, d store.Debt) (store.Debt, error) {
	d, err := store.PrepareDebt(d, time.Now().UTC())
	if err != nil {
		return d, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := upsertDebt(ctx, s.db, d); err != nil {
		return d, err
	}
	saved, err := s.getDebt(ctx, d.PortfolioID, d.ID)
	if err != nil {
		return d, err
	}
	return *saved, nil
}

func upsertDebt(ctx context.Context, db execer, d store.Debt) error {
	query := `
		INSERT INTO debts (portfolio_id, id, creditor, balance, apr, minimum_payment, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(portfolio_id, id) DO UPDATE SET
			creditor = excluded.creditor,
			balance = excluded.balance,
			apr = excluded.apr,
			minimum_payment = excluded.minimum_payment,
			updated_at = excluded.updated_at
	`
	_, err := db.ExecContext(ctx, query,
		d.PortfolioID, d.ID, d.Creditor,
		d.Balance.String(), d.APR.String(), d.MinimumPayment.String(),
		d.CreatedAt.UTC().Format(timeFormat), d.UpdatedAt.UTC().Format(timeFormat),
	)
	if err != nil {
		return fmt.Errorf("failed to save debt %s: %w", d.ID, err)
	}
	return nil
}

// GetDebt retrieves a debt by portfolio and ID.
func (s *Store) GetDebt(ctx context.Context, portfolioID, id string) (*store.Debt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.getDebt(ctx, portfolioID, id)
}

const debtColumns = "portfolio_id, id, creditor, balance, apr, minimum_payment, created_at, updated_at"

func (s *Store) getDebt(ctx context.Context, portfolioID, id string) (*store.Debt, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+debtColumns+" FROM debts WHERE portfolio_id = ? AND id = ?",
		portfolioID, id,
	)
	d, err := scanDebt(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("debt %s/%s: %w", portfolioID, id, store.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// ListDebts returns the portfolio's debts in insertion order.
func (s *Store) ListDebts(ctx context.Context, portfolioID string) ([]store.Debt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT "+debtColumns+" FROM debts WHERE portfolio_id = ? ORDER BY created_at, rowid",
		portfolioID,
	)
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

// DeleteDebt removes a debt.
func (s *Store) DeleteDebt(ctx context.Context, portfolioID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, "DELETE FROM debts WHERE portfolio_id = ? AND id = ?", portfolioID, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("debt %s/%s: %w", portfolioID, id, store.ErrNotFound)
	}
	return nil
}

// ReplaceDebts swaps the portfolio's debts inside one transaction.
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

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM debts WHERE portfolio_id = ?", portfolioID); err != nil {
		return err
	}
	for _, d := range prepared {
		if err := upsertDebt(ctx, tx, d); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// ListPortfolios returns portfolio IDs that have at least one debt.
func (s *Store) ListPortfolios(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

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

type scanner interface {
	Scan(dest ...any) error
}

func scanDebt(row scanner) (store.Debt, error) {
	var d store.Debt
	var balance, apr, minimum, createdAt, updatedAt string
	if err := row.Scan(&d.PortfolioID, &d.ID, &d.Creditor, &balance, &apr, &minimum, &createdAt, &updatedAt); err != nil {
		return d, err
	}

	var err error
	if d.Balance, err = decimal.NewFromString(balance); err != nil {
		return d, fmt.Errorf("debt %s: bad balance %q: %w", d.ID, balance, err)
	}
	if d.APR, err = decimal.NewFromString(apr); err != nil {
		return d, fmt.Errorf("debt %s: bad apr %q: %w", d.ID, apr, err)
	}
	if d.MinimumPayment, err = decimal.NewFromString(minimum); err != nil {
		return d, fmt.Errorf("debt %s: bad minimum_payment %q: %w", d.ID, minimum, err)
	}
	d.CreatedAt, _ = time.Parse(timeFormat, createdAt)
	d.UpdatedAt, _ = time.Parse(timeFormat, updatedAt)
	return d, nil
}

// =============================================================================
// PLAN RUNS
// =============================================================================

// SavePlanRun records a simulation.
func (s *Store) SavePlanRun(ctx context.Context, r store.PlanRun) (store.PlanRun, error) {
	r, err := store.PreparePlanRun(r, time.Now().UTC())
	if err != nil {
		return r, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO plan_runs
		(id, portfolio_id, strategy, extra_payment, input_hash, total_months, total_interest,
		 debt_free, summary_json, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err = s.db.ExecContext(ctx, query,
		r.ID, r.PortfolioID, r.Strategy, r.ExtraPayment.String(), r.InputHash,
		r.TotalMonths, r.TotalInterest.String(), r.DebtFree, r.SummaryJSON,
		r.CreatedAt.UTC().Format(timeFormat),
	)
	if err != nil {
		return r, fmt.Errorf("failed to save plan run: %w", err)
	}
	return r, nil
}

// ListPlanRuns returns the portfolio's runs, newest first.
func (s *Store) ListPlanRuns(ctx context.Context, portfolioID string, limit int) ([]store.PlanRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT id, portfolio_id, strategy, extra_payment, input_hash, total_months,
		       total_interest, debt_free, summary_json, created_at
		FROM plan_runs WHERE portfolio_id = ?
		ORDER BY created_at DESC, rowid DESC
	`
	args := []any{portfolioID}
	if limit > 0 {
		query += " LIMIT ?"
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
		var extra, interest, createdAt string
		if err := rows.Scan(&r.ID, &r.PortfolioID, &r.Strategy, &extra, &r.InputHash, &r.TotalMonths,
			&interest, &r.DebtFree, &r.SummaryJSON, &createdAt); err != nil {
			return nil, err
		}
		r.ExtraPayment, _ = decimal.NewFromString(extra)
		r.TotalInterest, _ = decimal.NewFromString(interest)
		r.CreatedAt, _ = time.Parse(timeFormat, createdAt)
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// DeletePlanRunsBefore removes runs older than cutoff.
func (s *Store) DeletePlanRunsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, "DELETE FROM plan_runs WHERE created_at < ?", cutoff.UTC().Format(timeFormat))
	if err != nil {
		return 0, fmt.Errorf("failed to prune plan runs: %w", err)
	}
	return res.RowsAffected()
}

// =============================================================================
// UTILITIES
// =============================================================================

// Reset clears all data (for testing/demo).
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, table := range []string{"plan_runs", "debts"} {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return err
		}
	}
	return nil
}
