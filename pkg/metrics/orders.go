package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// OrderMetrics records the order workflow counters and latency.
type OrderMetrics struct {
	placedTotal   *prometheus.CounterVec
	placeDuration prometheus.Histogram
	statusChanges *prometheus.CounterVec
}

// NewOrderMetrics registers the order workflow metrics on the provided registerer.
func NewOrderMetrics(reg prometheus.Registerer) *OrderMetrics {
	if reg == nil {
		return &OrderMetrics{}
	}
	placedTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "orders_placed_total",
		Help: "Orders placed, labelled by outcome.",
	}, []string{"outcome"})
	placeDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "order_place_duration_seconds",
		Help:    "Duration of the order placement transaction in seconds.",
		Buckets: prometheus.DefBuckets,
	})
	statusChanges := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "order_status_changes_total",
		Help: "Order status transitions, labelled by target status.",
	}, []string{"to"})
	reg.MustRegister(placedTotal, placeDuration, statusChanges)
	return &OrderMetrics{
		placedTotal:   placedTotal,
		placeDuration: placeDuration,
		statusChanges: statusChanges,
	}
}

// ObservePlacement records one placement attempt with its outcome and duration.
func (o *OrderMetrics) ObservePlacement(outcome string, duration time.Duration) {
	if o == nil || o.placedTotal == nil {
		return
	}
	if outcome == "" {
		outcome = "unknown"
	}
	o.placedTotal.WithLabelValues(outcome).Inc()
	o.placeDuration.Observe(duration.Seconds())
}

// IncStatusChange increments the transition counter for the target status.
func (o *OrderMetrics) IncStatusChange(to string) {
	if o == nil || o.statusChanges == nil {
		return
	}
	if to == "" {
		to = "unknown"
	}
	o.statusChanges.WithLabelValues(to).Inc()
}
