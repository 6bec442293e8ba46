package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics groups all Prometheus instruments used across the application.
// Registered once at startup via New(); passed by pointer wherever needed.
type Metrics struct {
	PredictionRequests *prometheus.CounterVec
	PredictionDuration prometheus.Histogram
	RowsPredicted      prometheus.Counter
	PredictedLabels    *prometheus.CounterVec
	CacheHits          prometheus.Counter
}

// New registers all instruments with the given Prometheus registerer and
// returns the populated Metrics struct.
// Using a custom registry (instead of prometheus.DefaultRegisterer) keeps
// tests isolated and avoids global state.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		PredictionRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "prediction_requests_total",
			Help: "Total number of /predict requests by outcome.",
		}, []string{"outcome"}),

		PredictionDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "prediction_duration_seconds",
			Help:    "Time spent in classifier and label decoding per successful request.",
			Buckets: prometheus.DefBuckets,
		}),

		RowsPredicted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "prediction_rows_total",
			Help: "Total number of sensor rows classified.",
		}),

		PredictedLabels: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "predicted_labels_total",
			Help: "Total number of rows classified per health label.",
		}, []string{"label"}),

		CacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "prediction_cache_hits_total",
			Help: "Rows answered from the prediction cache without calling the model.",
		}),
	}

	reg.MustRegister(
		m.PredictionRequests,
		m.PredictionDuration,
		m.RowsPredicted,
		m.PredictedLabels,
		m.CacheHits,
	)

	return m
}

// ServiceHooks returns the callbacks expected by service.Hooks.
// Centralises the prometheus observation calls so the service stays import-free.
func (m *Metrics) ServiceHooks() (
	onSuccess func(labels []string, latency time.Duration),
	onFailure func(outcome string),
) {
	onSuccess = func(labels []string, latency time.Duration) {
		m.PredictionRequests.WithLabelValues("success").Inc()
		m.PredictionDuration.Observe(latency.Seconds())
		m.RowsPredicted.Add(float64(len(labels)))
		for _, l := range labels {
			m.PredictedLabels.WithLabelValues(l).Inc()
		}
	}
	onFailure = func(outcome string) {
		m.PredictionRequests.WithLabelValues(outcome).Inc()
	}
	return
}

// CacheHook returns the callback for model.CachedClassifier.
func (m *Metrics) CacheHook() func(hits int) {
	return func(hits int) {
		m.CacheHits.Add(float64(hits))
	}
}
