// Package metrics defines the Prometheus collectors exported on /metrics.
package metrics

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/warp/payoff-engine/payoff"
)

const namespace = "payoff"

// ─── Engine ─────────────────────────────────────────────────────────────────

// PlansSimulated counts simulations by strategy.
var PlansSimulated = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Name:      "plans_simulated_total",
	Help:      "Total plan simulations run, by strategy.",
}, []string{"strategy"})

// PlanMonths tracks months to debt-free per simulated plan.
var PlanMonths = promauto.NewHistogram(prometheus.HistogramOpts{
	Namespace: namespace,
	Name:      "plan_months",
	Help:      "Months to debt-free per simulated plan.",
	Buckets:   []float64{6, 12, 24, 36, 60, 120, 240, 600, payoff.SafetyBound},
})

// DebtsForceClosed counts debts stopped at the safety bound.
var DebtsForceClosed = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: namespace,
	Name:      "debts_force_closed_total",
	Help:      "Total debts still unpaid when the simulation hit its month cap.",
})

// ─── Cache ──────────────────────────────────────────────────────────────────

// CacheLookups counts plan cache lookups by result (hit, miss, error).
var CacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "plan_cache",
	Name:      "lookups_total",
	Help:      "Plan cache lookups by result.",
}, []string{"result"})

// ─── HTTP ───────────────────────────────────────────────────────────────────

// HTTPRequests counts served requests by method and status code.
var HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "http",
	Name:      "requests_total",
	Help:      "HTTP requests served, by method and status code.",
}, []string{"method", "status"})

// ObservePlan records one simulation result.
func ObservePlan(s *payoff.PlanSummary) {
	PlansSimulated.WithLabelValues(string(s.Strategy)).Inc()
	PlanMonths.Observe(float64(s.TotalMonthsToDebtFree))
	for _, d := range s.Debts {
		if !d.PaidOff {
			DebtsForceClosed.Inc()
		}
	}
}

// Middleware counts requests by method and status.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		HTTPRequests.WithLabelValues(r.Method, strconv.Itoa(status)).Inc()
	})
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
