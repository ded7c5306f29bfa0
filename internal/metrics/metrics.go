package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CheckoutSessionsCreated counts checkout sessions successfully created
	// and correlated.
	CheckoutSessionsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "lendly_checkout_sessions_created_total",
		Help: "Total number of checkout sessions created",
	})

	// WalletDeltasApplied counts wallet balance adjustments by direction.
	WalletDeltasApplied = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "lendly_wallet_deltas_applied_total",
		Help: "Total number of wallet deltas applied",
	}, []string{"direction"})

	// WebhookEvents counts gateway webhook deliveries by event type.
	WebhookEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "lendly_webhook_events_total",
		Help: "Total number of gateway webhook events received",
	}, []string{"type"})
)
