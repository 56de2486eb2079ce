package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/warp/loan-engine/generic"
)

// =============================================================================
// METRICS - Prometheus counters exposed at /metrics
// =============================================================================

var schedulesBuilt = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "loan_engine",
	Name:      "schedules_built_total",
	Help:      "Review schedules built.",
})

var templatesCommitted = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "loan_engine",
	Name:      "templates_committed_total",
	Help:      "Scheduled transactions written to the ledger.",
})

var engineErrors = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "loan_engine",
	Name:      "errors_total",
	Help:      "Failed engine operations by operation and error kind.",
}, []string{"op", "kind"})

var requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Namespace: "loan_engine",
	Name:      "request_duration_seconds",
	Help:      "The HTTP request latencies in seconds.",
}, []string{"code", "method", "route"})

// errorKind labels err by its sentinel.
func errorKind(err error) string {
	switch {
	case errors.Is(err, generic.ErrInvalidArgument):
		return "invalid_argument"
	case errors.Is(err, generic.ErrUnsupportedFrequency):
		return "unsupported_frequency"
	case errors.Is(err, generic.ErrAccountRequired):
		return "account_required"
	case errors.Is(err, generic.ErrDuplicateIdempotencyKey):
		return "duplicate"
	case errors.Is(err, generic.ErrTemplateNotFound):
		return "not_found"
	case errors.Is(err, generic.ErrTransactionFailed):
		return "transaction_failed"
	}
	return "internal"
}

// metricsMiddleware records request latency. Routes are labelled by their
// chi pattern so template IDs do not blow up cardinality.
func metricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		requestDuration.WithLabelValues(strconv.Itoa(status), r.Method, route).
			Observe(time.Since(start).Seconds())
	})
}
