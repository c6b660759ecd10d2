package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Исходы запроса к сервису инференса
const (
	OutcomeOK             = "ok"
	OutcomeFallback       = "fallback"
	OutcomeSkippedClasses = "skipped_classes"
)

// Metrics метрики приложения
type Metrics struct {
	registry *prometheus.Registry

	detectRequests *prometheus.CounterVec
	detections     *prometheus.CounterVec
	detectDuration prometheus.Histogram
	superseded     prometheus.Counter
	analyses       prometheus.Counter
}

// New создает метрики со своим реестром Prometheus
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		detectRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "roaddamage_detect_requests_total",
			Help: "Requests sent to the inference backend by outcome",
		}, []string{"outcome"}),
		detections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "roaddamage_detections_total",
			Help: "Detections returned by the inference backend by damage class",
		}, []string{"class"}),
		detectDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "roaddamage_detect_duration_seconds",
			Help:    "Round trip time of the detect call",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
		}),
		superseded: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "roaddamage_analyses_superseded_total",
			Help: "Analyses finished after a newer analysis started in the same session",
		}),
		analyses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "roaddamage_analyses_stored_total",
			Help: "Analyses persisted to the database",
		}),
	}

	m.registry.MustRegister(
		m.detectRequests,
		m.detections,
		m.detectDuration,
		m.superseded,
		m.analyses,
	)

	return m
}

// ObserveDetect учитывает один вызов /detect. Безопасно для nil.
func (m *Metrics) ObserveDetect(outcome string, classCodes []string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.detectRequests.WithLabelValues(outcome).Inc()
	m.detectDuration.Observe(elapsed.Seconds())
	for _, code := range classCodes {
		m.detections.WithLabelValues(code).Inc()
	}
}

// AnalysisStored учитывает сохраненный анализ
func (m *Metrics) AnalysisStored(superseded bool) {
	if m == nil {
		return
	}
	m.analyses.Inc()
	if superseded {
		m.superseded.Inc()
	}
}

// Registry возвращает реестр Prometheus
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler HTTP-обработчик для /metrics
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
