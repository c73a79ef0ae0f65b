package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the service collectors on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	notifications   *prometheus.CounterVec
	uploads         *prometheus.CounterVec
	publishDuration prometheus.Histogram
	feedSubscribers prometheus.Gauge
}

func New() *Metrics {
	m := &Metrics{registry: prometheus.NewRegistry()}
	m.notifications = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "dink",
		Name:      "notifications_total",
		Help:      "Webhook notifications by kind and outcome",
	}, []string{"kind", "status"})
	m.uploads = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "dink",
		Name:      "uploads_total",
		Help:      "Screenshot uploads by outcome",
	}, []string{"status"})
	m.publishDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "dink",
		Name:      "publish_duration_seconds",
		Help:      "Time spent publishing casts",
		Buckets:   prometheus.DefBuckets,
	})
	m.feedSubscribers = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "dink",
		Name:      "feed_subscribers",
		Help:      "Connected feed stream clients",
	})

	m.registry.MustRegister(
		m.notifications, m.uploads, m.publishDuration, m.feedSubscribers,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Notification counts one webhook call. Kinds outside the declared set are
// reported as "other" to bound label cardinality.
func (m *Metrics) Notification(kind string, known bool, status string) {
	if !known {
		kind = "other"
	}
	m.notifications.WithLabelValues(kind, status).Inc()
}

func (m *Metrics) Upload(status string) {
	m.uploads.WithLabelValues(status).Inc()
}

func (m *Metrics) ObservePublish(seconds float64) {
	m.publishDuration.Observe(seconds)
}

func (m *Metrics) SetFeedSubscribers(n int) {
	m.feedSubscribers.Set(float64(n))
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
