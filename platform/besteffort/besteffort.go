// Package besteffort runs side-channel calls whose failure must never reach
// the caller.
package besteffort

import (
	"context"

	"leadedge_backend/platform/logger"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var failures = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "leadedge_besteffort_failures_total",
		Help: "Side-channel calls that failed and were swallowed",
	},
	[]string{"operation"},
)

// Func is a side-channel operation.
type Func func(ctx context.Context) error

// Do runs fn, logging and counting a failure under operation.
// It reports whether fn succeeded so callers can branch without handling the error.
func Do(ctx context.Context, log *logger.Logger, operation string, fn Func) bool {
	if fn == nil {
		return true
	}
	if err := fn(ctx); err != nil {
		failures.WithLabelValues(operation).Inc()
		if log != nil {
			log.WithContext(ctx).BestEffortFailure(operation, err)
		}
		return false
	}
	return true
}
