package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "paycore"

// Collectors holds the application metrics.
type Collectors struct {
	IntentsCreated   *prometheus.CounterVec
	Confirmations    *prometheus.CounterVec
	GatewayErrors    *prometheus.CounterVec
	PaymentsSettled  *prometheus.CounterVec
	SweeperActions   *prometheus.CounterVec
	SubtotalMismatch prometheus.Counter
	HTTPRequests     *prometheus.HistogramVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) (*Collectors, error) {
	c := &Collectors{
		IntentsCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payment_intents_total",
			Help:      "Payment intents requested, by method and outcome.",
		}, []string{"method", "outcome"}),
		Confirmations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "confirmations_total",
			Help:      "Payment confirmations processed, by method and result.",
		}, []string{"method", "result"}),
		GatewayErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "gateway_errors_total",
			Help:      "Errors returned by payment gateways.",
		}, []string{"method", "code"}),
		PaymentsSettled: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payments_settled_total",
			Help:      "Payment attempts that reached a terminal status.",
		}, []string{"method", "status"}),
		SweeperActions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sweeper_actions_total",
			Help:      "Actions taken by the pending order sweeper.",
		}, []string{"action"}),
		SubtotalMismatch: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "subtotal_mismatch_total",
			Help:      "Orders whose subtotal differs from the sum of their items.",
		}),
		HTTPRequests: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route and status.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}

	for _, col := range []prometheus.Collector{
		c.IntentsCreated, c.Confirmations, c.GatewayErrors, c.PaymentsSettled,
		c.SweeperActions, c.SubtotalMismatch, c.HTTPRequests,
	} {
		if err := reg.Register(col); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// NewNop returns collectors registered with a throwaway registry.
func NewNop() *Collectors {
	c, err := New(prometheus.NewRegistry())
	if err != nil {
		panic(err)
	}
	return c
}
