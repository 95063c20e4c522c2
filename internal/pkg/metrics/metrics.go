// Package metrics registers the Prometheus collectors exposed on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// OrderTransitions counts applied order status transitions by edge.
	OrderTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "marketplace",
		Name:      "order_transitions_total",
		Help:      "Applied order status transitions.",
	}, []string{"from", "to"})

	// FallbackQuotes counts checkouts that proceeded on the fallback delivery
	// quote because no courier provider responded.
	FallbackQuotes = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "marketplace",
		Name:      "delivery_fallback_quotes_total",
		Help:      "Checkouts priced with the fallback delivery quote.",
	})

	// QuoteProviderErrors counts failed quote requests by provider.
	QuoteProviderErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "marketplace",
		Name:      "delivery_quote_provider_errors_total",
		Help:      "Failed courier quote requests by provider.",
	}, []string{"provider"})

	// RefundsInitiated counts refunds claimed by reason.
	RefundsInitiated = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "marketplace",
		Name:      "refunds_initiated_total",
		Help:      "Refunds claimed against the payment processor by reason.",
	}, []string{"reason"})

	// SweepExpired counts orders moved to a terminal state by the expiry sweep.
	SweepExpired = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "marketplace",
		Name:      "expiry_sweep_expired_total",
		Help:      "Orders expired by the sweep, by originating status.",
	}, []string{"status"})

	// SweepErrors counts orders the expiry sweep failed to process.
	SweepErrors = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "marketplace",
		Name:      "expiry_sweep_errors_total",
		Help:      "Orders the expiry sweep failed to process.",
	})

	// NotificationFailures counts notification deliveries that failed.
	NotificationFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "marketplace",
		Name:      "notification_failures_total",
		Help:      "Notification deliveries that returned an error.",
	})
)
