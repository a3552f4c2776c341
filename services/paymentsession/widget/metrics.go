package widget

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	scriptInjectionsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "paymentsession_widget_script_injections_total",
			Help: "Total widget script elements injected into the page.",
		},
	)

	scriptLoadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "paymentsession_widget_script_loads_total",
			Help: "Total widget script load requests by how they were served.",
		},
		[]string{"result"},
	)

	embedsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "paymentsession_widget_embeds_total",
			Help: "Total embed attempts by result.",
		},
		[]string{"result"},
	)
)
