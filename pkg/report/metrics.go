package report

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	findingsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "audit_findings_total",
			Help: "Total number of findings reported, by severity and class",
		}, []string{"severity", "class"})

	transactionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "audit_transactions_total",
			Help: "Total number of transactions audited, by chain and result",
		}, []string{"chain", "result"})
)

const (
	resultPass     = "pass"
	resultNotClean = "not_clean"
	resultAborted  = "aborted"
)
