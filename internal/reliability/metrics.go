package reliability

import "github.com/prometheus/client_golang/prometheus"

// Prometheus metric names may not contain dots, so the well-known
// `model_load.duration_seconds`-style names from §6.5 are rendered here with
// underscores in place of the separating dot; the label sets and semantics
// are unchanged.
var (
	modelLoadDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "model_load_duration_seconds",
			Help:    "Duration of provider.Load calls in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"provider", "task"},
	)

	modelLoadTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "model_load_total",
			Help: "Total provider.Load calls by outcome",
		},
		[]string{"provider", "task", "result"},
	)

	modelInferenceDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "model_inference_duration_seconds",
			Help:    "Duration of inference calls in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"alias", "task", "provider"},
	)

	modelInferenceTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "model_inference_total",
			Help: "Total inference calls by outcome",
		},
		[]string{"alias", "task", "provider", "status"},
	)
)

func init() {
	prometheus.MustRegister(modelLoadDuration, modelLoadTotal, modelInferenceDuration, modelInferenceTotal)
}

// ObserveLoad records a single provider.Load attempt.
func ObserveLoad(provider string, task string, seconds float64, success bool) {
	modelLoadDuration.WithLabelValues(provider, task).Observe(seconds)
	result := "failure"
	if success {
		result = "success"
	}
	modelLoadTotal.WithLabelValues(provider, task, result).Inc()
}

// ObserveInference records a single instrumented inference call.
func ObserveInference(alias, task, provider string, seconds float64, success bool) {
	modelInferenceDuration.WithLabelValues(alias, task, provider).Observe(seconds)
	status := "failure"
	if success {
		status = "success"
	}
	modelInferenceTotal.WithLabelValues(alias, task, provider, status).Inc()
}
