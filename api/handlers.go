/*
handlers.go - HTTP API handlers for the payoff engine

PURPOSE:
  Exposes the payoff engine via REST API. Handles HTTP request/response and
  JSON serialization, and delegates to the engine and the store.

ENDPOINTS:
  Plans (stateless):
    POST   /api/plans/simulate             Simulate a plan (?history=true for monthly logs)
    POST   /api/plans/compare              Simulate both strategies
    POST   /api/plans/estimate             Closed-form months for one debt

  Portfolios (stored debts):
    GET    /api/portfolios                 List portfolio IDs
    GET    /api/portfolios/{pid}/debts     List debts
    POST   /api/portfolios/{pid}/debts     Create debt
    GET    /api/portfolios/{pid}/debts/{id}
    PUT    /api/portfolios/{pid}/debts/{id}
    DELETE /api/portfolios/{pid}/debts/{id}
    POST   /api/portfolios/{pid}/plan      Simulate saved debts and record the run
    GET    /api/portfolios/{pid}/runs      Plan history (?limit=N&summary=true)

  Scenarios:
    GET    /api/scenarios                  List demo portfolios
    POST   /api/scenarios/load             Load a demo portfolio

REQUEST FLOW:
  1. Parse HTTP request
  2. Convert to engine input (factory.PlanJSON for plan bodies)
  3. Look up the plan cache, simulate on a miss
  4. Serialize response
  5. Handle errors

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Malformed body, precondition violations, unknown strategy
  - 404: Debt not found
  - 422: Estimate requested for a payment that never amortizes
  - 500: Internal errors

SEE ALSO:
  - dto.go: Request/response data structures
  - scenarios.go: Demo portfolios
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/warp/payoff-engine/cache"
	"github.com/warp/payoff-engine/factory"
	"github.com/warp/payoff-engine/metrics"
	"github.com/warp/payoff-engine/payoff"
	"github.com/warp/payoff-engine/store"
)

const maxBodyBytes = 1 << 20

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store    store.Store
	Cache    cache.Cache
	CacheTTL time.Duration
	Log      *zap.Logger

	// Applied when a request omits them.
	DefaultStrategy payoff.Strategy
	DefaultLanguage string

	mu              sync.RWMutex
	currentScenario string
}

// NewHandler creates a handler. A nil cache disables caching and a nil
// logger discards logs.
func NewHandler(st store.Store, c cache.Cache, log *zap.Logger) *Handler {
	if c == nil {
		c = cache.Nop{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{
		Store:           st,
		Cache:           c,
		CacheTTL:        10 * time.Minute,
		Log:             log,
		DefaultStrategy: payoff.Avalanche,
		DefaultLanguage: "en",
	}
}

// =============================================================================
// PLAN HANDLERS
// =============================================================================

// SimulatePlan runs the engine on the plan in the request body.
func (h *Handler) SimulatePlan(w http.ResponseWriter, r *http.Request) {
	input, phrases, ok := h.parsePlanRequest(w, r)
	if !ok {
		return
	}
	withHistory, _ := strconv.ParseBool(r.URL.Query().Get("history"))

	h.respondCached(w, r, planKey("simulate", input, phrases, withHistory), func() (any, error) {
		summary, err := payoff.NewEngine(phrases).Simulate(*input)
		if err != nil {
			return nil, err
		}
		metrics.ObservePlan(summary)
		return toPlanSummaryDTO(summary, phrases, withHistory), nil
	})
}

// ComparePlans simulates both strategies for the plan in the request body.
// The body's strategy field is ignored.
func (h *Handler) ComparePlans(w http.ResponseWriter, r *http.Request) {
	input, phrases, ok := h.parsePlanRequest(w, r)
	if !ok {
		return
	}
	keyed := *input
	keyed.Strategy = ""

	h.respondCached(w, r, planKey("compare", &keyed, phrases, false), func() (any, error) {
		cmp, err := payoff.NewEngine(phrases).Compare(input.Debts, input.ExtraPayment)
		if err != nil {
			return nil, err
		}
		metrics.ObservePlan(cmp.Avalanche)
		metrics.ObservePlan(cmp.Snowball)
		return toComparisonDTO(cmp, phrases), nil
	})
}

// EstimatePayoff returns the closed-form months for a single debt.
func (h *Handler) EstimatePayoff(w http.ResponseWriter, r *http.Request) {
	var req EstimateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	balance := decimal.NewFromFloat(req.Balance)
	apr := decimal.NewFromFloat(req.APR)
	payment := decimal.NewFromFloat(req.Payment)

	months, err := payoff.EstimateMonths(balance, apr, payment)
	if err != nil {
		h.fail(w, "Cannot estimate payoff", err)
		return
	}

	lang := r.URL.Query().Get("lang")
	if lang == "" {
		lang = h.DefaultLanguage
	}
	phrases := payoff.PhrasebookFor(lang)

	dto := EstimateDTO{
		Months:          months,
		MonthlyInterest: toFloat(payoff.MonthlyInterest(balance, apr)),
	}
	if months > 0 {
		dto.Formatted = fmt.Sprintf(phrases.UntilPaidOff, phrases.Money(payment), months)
	}
	writeJSON(w, http.StatusOK, dto)
}

func (h *Handler) parsePlanRequest(w http.ResponseWriter, r *http.Request) (*payoff.PlanInput, payoff.Phrasebook, bool) {
	var pj factory.PlanJSON
	if err := decodeJSON(w, r, &pj); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return nil, payoff.English, false
	}
	if pj.Strategy == "" {
		pj.Strategy = string(h.DefaultStrategy)
	}
	if pj.Language == "" {
		pj.Language = h.DefaultLanguage
	}

	input, err := pj.ToInput()
	if err != nil {
		h.fail(w, "Invalid plan", err)
		return nil, payoff.English, false
	}
	return input, payoff.PhrasebookFor(pj.Language), true
}

// planKey identifies a rendered response. Language is part of the plan JSON.
func planKey(kind string, input *payoff.PlanInput, phrases payoff.Phrasebook, withHistory bool) string {
	raw, _ := json.Marshal(factory.ToJSON(*input, phrases.Language))
	return cache.Key(kind, strconv.FormatBool(withHistory), string(raw))
}

// respondCached writes the cached response for key, or builds, caches and
// writes it. Cache failures are logged and never fail the request.
func (h *Handler) respondCached(w http.ResponseWriter, r *http.Request, key string, build func() (any, error)) {
	ctx := r.Context()

	raw, ok, err := h.Cache.Get(ctx, key)
	switch {
	case err != nil:
		metrics.CacheLookups.WithLabelValues("error").Inc()
		h.Log.Warn("plan cache get failed", zap.String("key", key), zap.Error(err))
	case ok:
		metrics.CacheLookups.WithLabelValues("hit").Inc()
		w.Header().Set("X-Cache", "HIT")
		writeRaw(w, http.StatusOK, raw)
		return
	default:
		metrics.CacheLookups.WithLabelValues("miss").Inc()
	}

	body, err := build()
	if err != nil {
		h.fail(w, "Failed to simulate plan", err)
		return
	}
	raw, err = json.Marshal(body)
	if err != nil {
		h.fail(w, "Failed to encode plan", err)
		return
	}
	if err := h.Cache.Set(ctx, key, raw, h.CacheTTL); err != nil {
		h.Log.Warn("plan cache set failed", zap.String("key", key), zap.Error(err))
	}

	w.Header().Set("X-Cache", "MISS")
	writeRaw(w, http.StatusOK, raw)
}

// =============================================================================
// PORTFOLIO HANDLERS
// =============================================================================

// ListPortfolios returns every portfolio with saved debts.
func (h *Handler) ListPortfolios(w http.ResponseWriter, r *http.Request) {
	ids, err := h.Store.ListPortfolios(r.Context())
	if err != nil {
		h.fail(w, "Failed to list portfolios", err)
		return
	}
	writeJSON(w, http.StatusOK, ids)
}

// ListDebts returns a portfolio's debts.
func (h *Handler) ListDebts(w http.ResponseWriter, r *http.Request) {
	debts, err := h.Store.ListDebts(r.Context(), chi.URLParam(r, "pid"))
	if err != nil {
		h.fail(w, "Failed to list debts", err)
		return
	}

	dtos := make([]DebtDTO, len(debts))
	for i, d := range debts {
		dtos[i] = toDebtDTO(d)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetDebt returns a single debt.
func (h *Handler) GetDebt(w http.ResponseWriter, r *http.Request) {
	d, err := h.Store.GetDebt(r.Context(), chi.URLParam(r, "pid"), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, "Debt not found", err)
		return
	}
	writeJSON(w, http.StatusOK, toDebtDTO(*d))
}

// CreateDebt adds a debt to a portfolio.
func (h *Handler) CreateDebt(w http.ResponseWriter, r *http.Request) {
	var req SaveDebtRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	h.saveDebt(w, r, req, http.StatusCreated)
}

// UpdateDebt replaces a debt's fields. The ID comes from the URL.
func (h *Handler) UpdateDebt(w http.ResponseWriter, r *http.Request) {
	var req SaveDebtRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	req.ID = chi.URLParam(r, "id")
	h.saveDebt(w, r, req, http.StatusOK)
}

func (h *Handler) saveDebt(w http.ResponseWriter, r *http.Request, req SaveDebtRequest, status int) {
	d := store.Debt{
		ID:             req.ID,
		PortfolioID:    chi.URLParam(r, "pid"),
		Creditor:       req.Creditor,
		Balance:        decimal.NewFromFloat(req.Balance),
		APR:            decimal.NewFromFloat(req.APR),
		MinimumPayment: decimal.NewFromFloat(req.MinimumPayment),
	}

	// Same preconditions as simulation, so saved debts always simulate.
	check := payoff.PlanInput{Strategy: payoff.Avalanche, Debts: []payoff.DebtRecord{d.Record()}}
	if err := payoff.Validate(check); err != nil {
		h.fail(w, "Invalid debt", err)
		return
	}

	saved, err := h.Store.SaveDebt(r.Context(), d)
	if err != nil {
		h.fail(w, "Failed to save debt", err)
		return
	}
	writeJSON(w, status, toDebtDTO(saved))
}

// DeleteDebt removes a debt.
func (h *Handler) DeleteDebt(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.DeleteDebt(r.Context(), chi.URLParam(r, "pid"), chi.URLParam(r, "id")); err != nil {
		h.fail(w, "Failed to delete debt", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// PlanPortfolio simulates a portfolio's saved debts and records the run.
func (h *Handler) PlanPortfolio(w http.ResponseWriter, r *http.Request) {
	var req PortfolioPlanRequest
	if err := decodeJSON(w, r, &req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	strategy := h.DefaultStrategy
	if req.Strategy != "" {
		s, err := payoff.ParseStrategy(req.Strategy)
		if err != nil {
			h.fail(w, "Invalid strategy", err)
			return
		}
		strategy = s
	}
	lang := req.Language
	if lang == "" {
		lang = h.DefaultLanguage
	}
	phrases := payoff.PhrasebookFor(lang)

	ctx := r.Context()
	pid := chi.URLParam(r, "pid")
	debts, err := h.Store.ListDebts(ctx, pid)
	if err != nil {
		h.fail(w, "Failed to load debts", err)
		return
	}

	input := payoff.PlanInput{
		Debts:        store.Records(debts),
		Strategy:     strategy,
		ExtraPayment: decimal.NewFromFloat(req.ExtraPayment),
	}
	summary, err := payoff.NewEngine(phrases).Simulate(input)
	if err != nil {
		h.fail(w, "Failed to simulate plan", err)
		return
	}
	metrics.ObservePlan(summary)

	plan := toPlanSummaryDTO(summary, phrases, false)
	raw, err := json.Marshal(plan)
	if err != nil {
		h.fail(w, "Failed to encode plan", err)
		return
	}

	run, err := h.Store.SavePlanRun(ctx, store.PlanRun{
		PortfolioID:   pid,
		Strategy:      string(strategy),
		ExtraPayment:  input.ExtraPayment,
		InputHash:     planKey("simulate", &input, phrases, false),
		TotalMonths:   summary.TotalMonthsToDebtFree,
		TotalInterest: summary.TotalInterestPaid.Round(2),
		DebtFree:      summary.DebtFree,
		SummaryJSON:   string(raw),
	})
	if err != nil {
		h.fail(w, "Failed to record plan run", err)
		return
	}

	h.Log.Info("portfolio planned",
		zap.String("portfolio", pid),
		zap.String("strategy", string(strategy)),
		zap.Int("debts", len(debts)),
		zap.Int("months", summary.TotalMonthsToDebtFree),
	)
	writeJSON(w, http.StatusCreated, PortfolioPlanDTO{Run: toPlanRunDTO(run, false), Plan: plan})
}

// ListPlanRuns returns a portfolio's plan history, newest first.
func (h *Handler) ListPlanRuns(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "Invalid limit", err)
			return
		}
		limit = n
	}
	withSummary, _ := strconv.ParseBool(r.URL.Query().Get("summary"))

	runs, err := h.Store.ListPlanRuns(r.Context(), chi.URLParam(r, "pid"), limit)
	if err != nil {
		h.fail(w, "Failed to list plan runs", err)
		return
	}

	dtos := make([]PlanRunDTO, len(runs))
	for i, run := range runs {
		dtos[i] = toPlanRunDTO(run, withSummary)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// ResetDatabase clears all data.
func (h *Handler) ResetDatabase(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.Reset(r.Context()); err != nil {
		h.fail(w, "Failed to reset database", err)
		return
	}

	h.mu.Lock()
	h.currentScenario = ""
	h.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Health reports liveness.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// =============================================================================
// HELPERS
// =============================================================================

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// statusFor maps domain and store errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, payoff.ErrNeverAmortizes):
		return http.StatusUnprocessableEntity
	case errors.Is(err, store.ErrInvalidRecord), payoff.IsClientError(err):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) fail(w http.ResponseWriter, message string, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.Log.Error(message, zap.Error(err))
	}
	writeError(w, status, message, err)
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeRaw(w http.ResponseWriter, status int, raw []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(raw)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
