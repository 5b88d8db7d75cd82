package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the bot's collectors on a private registry. A nil *Metrics
// is valid and records nothing.
type Metrics struct {
	registry         *prometheus.Registry
	updates          *prometheus.CounterVec
	handlerDuration  *prometheus.HistogramVec
	tasksCreated     prometheus.Counter
	tasksCompleted   prometheus.Counter
	providerFailures *prometheus.CounterVec
	activeSessions   prometheus.Gauge
}

func New() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(prometheus.NewGoCollector())
	registry.MustRegister(prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}))

	m := &Metrics{
		registry: registry,
		updates: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "taskbot_updates_total",
				Help: "Telegram updates handled, by kind.",
			},
			[]string{"kind"},
		),
		handlerDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "taskbot_handler_duration_seconds",
				Help:    "Time spent handling one update.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"kind"},
		),
		tasksCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "taskbot_tasks_created_total",
			Help: "Tasks persisted.",
		}),
		tasksCompleted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "taskbot_tasks_completed_total",
			Help: "Tasks moved to Concluída.",
		}),
		providerFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "taskbot_provider_failures_total",
				Help: "Failed calls to external AI providers.",
			},
			[]string{"provider"},
		),
		activeSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "taskbot_active_sessions",
			Help: "Task-creation conversations in progress.",
		}),
	}
	registry.MustRegister(m.updates, m.handlerDuration, m.tasksCreated, m.tasksCompleted, m.providerFailures, m.activeSessions)
	return m
}

func (m *Metrics) ObserveUpdate(kind string, took time.Duration) {
	if m == nil {
		return
	}
	m.updates.WithLabelValues(kind).Inc()
	m.handlerDuration.WithLabelValues(kind).Observe(took.Seconds())
}

func (m *Metrics) TaskCreated() {
	if m == nil {
		return
	}
	m.tasksCreated.Inc()
}

func (m *Metrics) TaskCompleted() {
	if m == nil {
		return
	}
	m.tasksCompleted.Inc()
}

func (m *Metrics) ProviderFailure(provider string) {
	if m == nil {
		return
	}
	m.providerFailures.WithLabelValues(provider).Inc()
}

func (m *Metrics) SetActiveSessions(n int) {
	if m == nil {
		return
	}
	m.activeSessions.Set(float64(n))
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
