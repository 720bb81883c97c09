package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	outcomeCreated           = "created"
	outcomeInsufficientFunds = "insufficient_funds"
	outcomeRejected          = "rejected"
	outcomeRolledBack        = "rolled_back"
)

var (
	transactionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "eden",
		Subsystem: "ledger",
		Name:      "transactions_total",
		Help:      "Transações processadas, por resultado.",
	}, []string{"outcome"})

	holdingsConflictsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "eden",
		Subsystem: "ledger",
		Name:      "holdings_conflicts_total",
		Help:      "Escritas de holdings descartadas por versão desatualizada.",
	})

	tokenCacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "eden",
		Subsystem: "tokens",
		Name:      "cache_lookups_total",
		Help:      "Consultas ao cache de tokens, por resultado.",
	}, []string{"result"})
)
