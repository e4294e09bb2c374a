package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// OutboxMetrics records publisher loop outcomes.
type OutboxMetrics struct {
	duration  *prometheus.HistogramVec
	published prometheus.Counter
	failed    prometheus.Counter
}

// NewOutboxMetrics registers the outbox publisher metrics on the provided registerer.
func NewOutboxMetrics(reg prometheus.Registerer) *OutboxMetrics {
	if reg == nil {
		return &OutboxMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "outbox_publish_duration_seconds",
		Help:    "Duration of individual outbox publishes in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"event_type"})
	published := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "outbox_events_published_total",
		Help: "Outbox events successfully published.",
	})
	failed := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "outbox_events_failed_total",
		Help: "Outbox publish attempts that failed.",
	})
	reg.MustRegister(duration, published, failed)
	return &OutboxMetrics{
		duration:  duration,
		published: published,
		failed:    failed,
	}
}

// ObservePublish records the duration of a publish for the given event type.
func (o *OutboxMetrics) ObservePublish(eventType string, elapsed time.Duration) {
	if o == nil || o.duration == nil {
		return
	}
	o.duration.WithLabelValues(normalizeLabel(eventType)).Observe(elapsed.Seconds())
}

// IncPublished increments the published counter.
func (o *OutboxMetrics) IncPublished() {
	if o == nil || o.published == nil {
		return
	}
	o.published.Inc()
}

// IncFailed increments the failure counter.
func (o *OutboxMetrics) IncFailed() {
	if o == nil || o.failed == nil {
		return
	}
	o.failed.Inc()
}
