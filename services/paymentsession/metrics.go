package paymentsession

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	transitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "paymentsession_transitions_total",
			Help: "Lifecycle transitions of payment sessions.",
		},
		[]string{"from", "to"},
	)

	illegalTransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "paymentsession_illegal_transitions_total",
			Help: "Lifecycle transitions that were refused.",
		},
		[]string{"from", "to"},
	)

	redirectsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "paymentsession_redirects_total",
			Help: "Redirect decisions by result tag and producer.",
		},
		[]string{"result", "source", "decision"},
	)

	staleResultsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "paymentsession_stale_results_total",
			Help: "Asynchronous results dropped because the session moved on.",
		},
		[]string{"kind"},
	)
)
