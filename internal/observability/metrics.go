package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups the Prometheus instruments of the engine. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	MonitorTicks        prometheus.Counter
	MonitorTicksSkipped prometheus.Counter
	MonitorTickDuration prometheus.Histogram
	Notifications       *prometheus.CounterVec
	EmotionUpdates      *prometheus.CounterVec
	CollaboratorErrors  *prometheus.CounterVec
	MessagesHandled     prometheus.Counter
	TrackedGuilds       prometheus.Gauge
}

// NewMetrics registers all instruments on a private registry so several
// engines (and tests) can coexist in one process.
func NewMetrics(namespace string) *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		MonitorTicks: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "monitor_ticks_total",
			Help:      "Boredom monitor ticks that ran.",
		}),
		MonitorTicksSkipped: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "monitor_ticks_skipped_total",
			Help:      "Boredom monitor ticks coalesced because a previous tick was still running.",
		}),
		MonitorTickDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "monitor_tick_duration_seconds",
			Help:      "Wall time of one boredom monitor scan.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10, 30},
		}),
		Notifications: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "boredom_notifications_total",
			Help:      "Boredom decisions by outcome (sent, suppressed, failed).",
		}, []string{"outcome"}),
		EmotionUpdates: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "emotion_updates_total",
			Help:      "Emotion deltas applied by cause.",
		}, []string{"cause"}),
		CollaboratorErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "collaborator_errors_total",
			Help:      "Failed calls to external collaborators by operation.",
		}, []string{"op"}),
		MessagesHandled: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_handled_total",
			Help:      "Inbound chat messages processed by the engine.",
		}),
		TrackedGuilds: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "tracked_guilds",
			Help:      "Guilds currently scanned by the boredom monitor.",
		}),
	}
}

func (m *Metrics) TickRan(d time.Duration) {
	if m == nil {
		return
	}
	m.MonitorTicks.Inc()
	m.MonitorTickDuration.Observe(d.Seconds())
}

func (m *Metrics) TickSkipped() {
	if m == nil {
		return
	}
	m.MonitorTicksSkipped.Inc()
}

func (m *Metrics) Notification(outcome string) {
	if m == nil {
		return
	}
	m.Notifications.WithLabelValues(outcome).Inc()
}

func (m *Metrics) EmotionUpdated(cause string) {
	if m == nil {
		return
	}
	m.EmotionUpdates.WithLabelValues(cause).Inc()
}

func (m *Metrics) CollaboratorError(op string) {
	if m == nil {
		return
	}
	m.CollaboratorErrors.WithLabelValues(op).Inc()
}

func (m *Metrics) MessageHandled() {
	if m == nil {
		return
	}
	m.MessagesHandled.Inc()
}

func (m *Metrics) SetTrackedGuilds(n int) {
	if m == nil {
		return
	}
	m.TrackedGuilds.Set(float64(n))
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
