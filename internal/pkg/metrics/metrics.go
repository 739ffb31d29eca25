package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jeezy_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	WalletOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jeezy_wallet_operations_total",
			Help: "Wallet credits and debits by outcome",
		},
		[]string{"operation", "result"},
	)

	VipActivationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jeezy_vip_activations_total",
			Help: "VIP activations applied, by plan",
		},
		[]string{"plan"},
	)

	WebhookDeliveriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jeezy_webhook_deliveries_total",
			Help: "PayPal webhook deliveries by outcome",
		},
		[]string{"outcome"},
	)

	ProviderCallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "jeezy_paypal_call_duration_seconds",
			Help:    "Latency of outbound PayPal calls",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)
)

// Wallet operation results.
const (
	ResultApplied  = "applied"
	ResultReplayed = "replayed"
	ResultRejected = "rejected"
	ResultError    = "error"
)
