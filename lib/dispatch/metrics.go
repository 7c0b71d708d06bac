package dispatch

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	deliveryRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "framenotify_delivery_requests_total",
			Help: "Delivery POSTs by result",
		},
		[]string{"result"},
	)
	deliveryTokens = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "framenotify_delivery_tokens_total",
			Help: "Tokens reported by providers, by outcome",
		},
		[]string{"outcome"},
	)
	retriesScheduled = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "framenotify_retries_scheduled_total",
			Help: "Retry tasks scheduled, by reason",
		},
		[]string{"reason"},
	)
)
