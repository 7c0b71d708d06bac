package webhook

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var webhooksTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "framenotify_webhooks_total",
		Help: "Processed webhook events by event name and outcome",
	},
	[]string{"event", "result"},
)
