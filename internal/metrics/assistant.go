package metrics

import "github.com/prometheus/client_golang/prometheus"

// Generation, retrieval and voice metrics.
var (
	GenerationRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "generation_requests_total",
			Help:      "Total number of chat completion requests",
		},
		[]string{"model", "status"},
	)

	GenerationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "generation_duration_seconds",
			Help:      "Time to produce a full answer, tool rounds included",
			Buckets:   []float64{0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"model"},
	)

	GenerationToolCallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "generation_tool_calls_total",
			Help:      "Tool calls requested by the model",
		},
		[]string{"tool", "status"},
	)

	GenerationTokensTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "generation_tokens_total",
			Help:      "Chat completion tokens consumed",
		},
		[]string{"model", "type"},
	)

	RetrievalRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "retrieval_requests_total",
			Help:      "Total number of context retrievals",
		},
		[]string{"status"},
	)

	RetrievalHits = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "retrieval_hits",
			Help:      "Chunks returned per retrieval",
			Buckets:   []float64{0, 1, 2, 4, 8, 16},
		},
	)

	VoiceCapturesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "voice_captures_total",
			Help:      "Voice capture attempts by outcome",
		},
		[]string{"outcome"}, // ok, no_speech, unintelligible, service_error
	)

	TurnsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "turns_total",
			Help:      "Conversation turns by outcome",
		},
		[]string{"outcome"},
	)

	IndexedChunks = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "indexed_chunks",
			Help:      "Chunks in the collection after the last build",
		},
	)
)

func assistantCollectors() []prometheus.Collector {
	return []prometheus.Collector{
		GenerationRequestsTotal,
		GenerationDuration,
		GenerationToolCallsTotal,
		GenerationTokensTotal,
		RetrievalRequestsTotal,
		RetrievalHits,
		VoiceCapturesTotal,
		TurnsTotal,
		IndexedChunks,
	}
}
