package chainquery

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	chainQueriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "audit_chain_queries_total",
			Help: "Total number of chain queries issued, by chain, method and outcome",
		}, []string{"chain", "method", "outcome"})
)

func observe(chain, method string, err error) {
	outcome := "ok"
	switch {
	case err == nil:
	case errors.Is(err, ErrNotSupported):
		outcome = "not_supported"
	default:
		outcome = "unavailable"
	}
	chainQueriesTotal.WithLabelValues(chain, method, outcome).Inc()
}
