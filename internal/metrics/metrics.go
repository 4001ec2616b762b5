// Package metrics exposes Prometheus instrumentation for the research
// pipeline.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// OrchestratorRuns counts pipeline runs by terminal outcome
	OrchestratorRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "marketscope_orchestrator_runs_total",
		Help: "Research pipeline runs by terminal status",
	}, []string{"status"})

	// OrchestratorDuration tracks end-to-end pipeline latency
	OrchestratorDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "marketscope_orchestrator_duration_seconds",
		Help:    "End-to-end research pipeline duration",
		Buckets: prometheus.ExponentialBuckets(0.5, 2, 10),
	})

	// AgentRuns counts producer agent runs by kind, tier and outcome
	AgentRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "marketscope_agent_runs_total",
		Help: "Producer agent runs by kind, provenance tier and outcome",
	}, []string{"kind", "provenance", "outcome"})

	// AgentDuration tracks per-agent latency by kind
	AgentDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "marketscope_agent_duration_seconds",
		Help:    "Producer agent run duration by kind",
		Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
	}, []string{"kind"})

	// ProviderRequests counts outbound generative-model calls
	ProviderRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "marketscope_provider_requests_total",
		Help: "Generative provider requests by provider and outcome",
	}, []string{"provider", "outcome"})

	// ProviderDuration tracks generative-model call latency
	ProviderDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "marketscope_provider_duration_seconds",
		Help:    "Generative provider request duration by provider",
		Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
	}, []string{"provider"})

	// ChunksStored counts knowledge chunks written by the processor
	ChunksStored = promauto.NewCounter(prometheus.CounterOpts{
		Name: "marketscope_knowledge_chunks_stored_total",
		Help: "Knowledge chunks persisted by the processor",
	})
)

// Handler returns the Prometheus scrape endpoint
func Handler() http.Handler {
	return promhttp.Handler()
}
