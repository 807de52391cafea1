package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collectors groups the Prometheus instruments exported by the service.
type Collectors struct {
	registry *prometheus.Registry

	MatchRequests   *prometheus.CounterVec
	MatchDuration   prometheus.Histogram
	MatchCandidates prometheus.Histogram
	EmbeddingCalls  *prometheus.CounterVec
	EmbeddingCache  *prometheus.CounterVec
	ProgressEvents  *prometheus.CounterVec
	LLMTokens       *prometheus.CounterVec
}

// NewCollectors registers every instrument on a private registry.
func NewCollectors() *Collectors {
	reg := prometheus.NewRegistry()
	c := &Collectors{
		registry: reg,
		MatchRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "jobfit",
			Name:      "match_requests_total",
			Help:      "Match requests by outcome.",
		}, []string{"outcome"}),
		MatchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "jobfit",
			Name:      "match_duration_seconds",
			Help:      "Time spent fetching resume sentences and scanning for the best match.",
			Buckets:   prometheus.DefBuckets,
		}),
		MatchCandidates: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "jobfit",
			Name:      "match_resume_sentences",
			Help:      "Number of resume sentences scanned per match request.",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 12),
		}),
		EmbeddingCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "jobfit",
			Name:      "embedding_calls_total",
			Help:      "Embedding provider calls by outcome.",
		}, []string{"outcome"}),
		EmbeddingCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "jobfit",
			Name:      "embedding_cache_total",
			Help:      "Embedding cache lookups by result.",
		}, []string{"result"}),
		ProgressEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "jobfit",
			Name:      "progress_events_total",
			Help:      "Progress events appended by type.",
		}, []string{"type"}),
		LLMTokens: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "jobfit",
			Name:      "llm_tokens_total",
			Help:      "LLM tokens consumed by kind.",
		}, []string{"kind"}),
	}
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		c.MatchRequests,
		c.MatchDuration,
		c.MatchCandidates,
		c.EmbeddingCalls,
		c.EmbeddingCache,
		c.ProgressEvents,
		c.LLMTokens,
	)
	return c
}

// Handler exposes the registry in the Prometheus text format.
func (c *Collectors) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// Registry returns the underlying registry.
func (c *Collectors) Registry() *prometheus.Registry {
	return c.registry
}

// ObserveMatch records one finished match request. Nil receivers are ignored.
func (c *Collectors) ObserveMatch(outcome string, candidates int, elapsed time.Duration) {
	if c == nil {
		return
	}
	c.MatchRequests.WithLabelValues(outcome).Inc()
	c.MatchDuration.Observe(elapsed.Seconds())
	c.MatchCandidates.Observe(float64(candidates))
}

// ObserveEmbedding records one provider call.
func (c *Collectors) ObserveEmbedding(outcome string) {
	if c == nil {
		return
	}
	c.EmbeddingCalls.WithLabelValues(outcome).Inc()
}

// ObserveCache records a cache hit or miss.
func (c *Collectors) ObserveCache(hit bool) {
	if c == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	c.EmbeddingCache.WithLabelValues(result).Inc()
}

// ObserveProgress counts one appended progress event.
func (c *Collectors) ObserveProgress(eventType string) {
	if c == nil {
		return
	}
	c.ProgressEvents.WithLabelValues(eventType).Inc()
}

// ObserveTokens adds usage to the token counters.
func (c *Collectors) ObserveTokens(usage TokenUsage) {
	if c == nil || usage.IsZero() {
		return
	}
	c.LLMTokens.WithLabelValues("prompt").Add(float64(usage.PromptTokens))
	c.LLMTokens.WithLabelValues("completion").Add(float64(usage.CompletionTokens))
}
