package services

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Outcome labels
const (
	OutcomeSuccess  = "success"
	OutcomeFailure  = "failure"
	OutcomeConflict = "conflict"
	OutcomeRejected = "rejected"
)

// Metrics holds the dashboard collectors on their own registry.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	basketMutations  *prometheus.CounterVec
	orderSubmissions *prometheus.CounterVec
	orderEdits       *prometheus.CounterVec
	trackingRefresh  *prometheus.CounterVec
	trackedOrders    prometheus.Gauge
	pollerRunning    prometheus.Gauge
}

func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		basketMutations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pos_basket_mutations_total",
				Help: "Basket mutations by operation and outcome",
			},
			[]string{"operation", "outcome"},
		),
		orderSubmissions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pos_order_submissions_total",
				Help: "Order creation attempts by outcome",
			},
			[]string{"outcome"},
		),
		orderEdits: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pos_order_edits_total",
				Help: "Pending order updates and cancellations by outcome",
			},
			[]string{"action", "outcome"},
		),
		trackingRefresh: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pos_tracking_refresh_total",
				Help: "Tracking refreshes by outcome",
			},
			[]string{"outcome"},
		),
		trackedOrders: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "pos_tracked_orders",
			Help: "Orders currently tracked on this dashboard",
		}),
		pollerRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "pos_tracking_poller_running",
			Help: "1 while the tracking poller is active",
		}),
	}

	registry.MustRegister(
		m.basketMutations,
		m.orderSubmissions,
		m.orderEdits,
		m.trackingRefresh,
		m.trackedOrders,
		m.pollerRunning,
	)
	return m
}

// Registry exposes the registry for the /metrics handler.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) basketMutation(op, outcome string) {
	if m == nil {
		return
	}
	m.basketMutations.WithLabelValues(op, outcome).Inc()
}

func (m *Metrics) orderSubmission(outcome string) {
	if m == nil {
		return
	}
	m.orderSubmissions.WithLabelValues(outcome).Inc()
}

func (m *Metrics) orderEdit(action, outcome string) {
	if m == nil {
		return
	}
	m.orderEdits.WithLabelValues(action, outcome).Inc()
}

func (m *Metrics) trackingRefreshed(outcome string) {
	if m == nil {
		return
	}
	m.trackingRefresh.WithLabelValues(outcome).Inc()
}

func (m *Metrics) setTrackedOrders(n int) {
	if m == nil {
		return
	}
	m.trackedOrders.Set(float64(n))
}

func (m *Metrics) setPollerRunning(running bool) {
	if m == nil {
		return
	}
	if running {
		m.pollerRunning.Set(1)
		return
	}
	m.pollerRunning.Set(0)
}
