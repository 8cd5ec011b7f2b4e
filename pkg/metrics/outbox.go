package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// OutboxMetrics records publisher loop health.
type OutboxMetrics struct {
	published   prometheus.Counter
	failed      prometheus.Counter
	deadLetters prometheus.Counter
	batchTime   prometheus.Histogram
	backlog     prometheus.Gauge
}

// NewOutboxMetrics registers the outbox publisher metrics on the provided registerer.
func NewOutboxMetrics(reg prometheus.Registerer) *OutboxMetrics {
	if reg == nil {
		return &OutboxMetrics{}
	}
	published := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "outbox_published_total",
		Help: "Outbox events published to Pub/Sub.",
	})
	failed := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "outbox_publish_failures_total",
		Help: "Outbox publish attempts that failed.",
	})
	deadLetters := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "outbox_dead_letters_total",
		Help: "Outbox events moved to the dead letter table.",
	})
	batchTime := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "outbox_batch_duration_seconds",
		Help:    "Duration of one outbox polling batch in seconds.",
		Buckets: prometheus.DefBuckets,
	})
	backlog := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "outbox_backlog",
		Help: "Unpublished outbox events observed at the last poll.",
	})
	reg.MustRegister(published, failed, deadLetters, batchTime, backlog)
	return &OutboxMetrics{
		published:   published,
		failed:      failed,
		deadLetters: deadLetters,
		batchTime:   batchTime,
		backlog:     backlog,
	}
}

// IncPublished counts a successfully published event.
func (o *OutboxMetrics) IncPublished() {
	if o == nil || o.published == nil {
		return
	}
	o.published.Inc()
}

// IncFailed counts a failed publish attempt.
func (o *OutboxMetrics) IncFailed() {
	if o == nil || o.failed == nil {
		return
	}
	o.failed.Inc()
}

// IncDeadLetter counts an event parked in the DLQ.
func (o *OutboxMetrics) IncDeadLetter() {
	if o == nil || o.deadLetters == nil {
		return
	}
	o.deadLetters.Inc()
}

// ObserveBatch records one polling batch duration.
func (o *OutboxMetrics) ObserveBatch(duration time.Duration) {
	if o == nil || o.batchTime == nil {
		return
	}
	o.batchTime.Observe(duration.Seconds())
}

// SetBacklog records the number of pending events.
func (o *OutboxMetrics) SetBacklog(n int) {
	if o == nil || o.backlog == nil {
		return
	}
	o.backlog.Set(float64(n))
}
