package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

var (
	registry     *prometheus.Registry
	registryOnce sync.Once

	// Analyses counts orchestrator runs by path: remote|fallback.
	Analyses = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "callassist_analyses_total",
			Help: "Utterance analyses by resolution path",
		},
		[]string{"path"},
	)

	RemoteCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "callassist_remote_calls_total",
			Help: "Language model calls by operation and outcome",
		},
		[]string{"op", "outcome"},
	)

	RemoteLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "callassist_remote_call_seconds",
			Help:    "Language model call latency",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 4, 8, 16},
		},
		[]string{"op"},
	)

	// Suggestions counts generated batches by path: remote|fallback|empty.
	Suggestions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "callassist_suggestions_total",
			Help: "Suggestion batches by resolution path",
		},
		[]string{"path"},
	)

	StaleSuggestions = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "callassist_stale_suggestions_total",
			Help: "Suggestion results discarded because a newer utterance arrived",
		},
	)

	UtterancesProcessed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "callassist_utterances_processed_total",
			Help: "Utterances consumed from the stream by final status",
		},
		[]string{"status"},
	)
)

// Init registers every collector on a private registry. Collectors work
// unregistered, so tests never need to call it.
func Init(logger *logrus.Logger) {
	registryOnce.Do(func() {
		registry = prometheus.NewRegistry()
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
			Analyses,
			RemoteCalls,
			RemoteLatency,
			Suggestions,
			StaleSuggestions,
			UtterancesProcessed,
		)
		logger.Debug("metrics registry initialized")
	})
}

func Handler() http.Handler {
	if registry == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}
