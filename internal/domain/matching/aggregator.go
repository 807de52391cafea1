package matching

import (
	"context"
	"log/slog"
	"math"
	"time"

	"github.com/yanqian/jobfit/pkg/metrics"
)

// Aggregator finds the closest resume sentence for every job description sentence.
type Aggregator struct {
	source  SentenceSource
	metrics *metrics.Collectors
	logger  *slog.Logger
}

// NewAggregator constructs an Aggregator. collectors may be nil.
func NewAggregator(source SentenceSource, collectors *metrics.Collectors, logger *slog.Logger) *Aggregator {
	return &Aggregator{
		source:  source,
		metrics: collectors,
		logger:  logger.With("component", "matching.aggregator"),
	}
}

// Match returns one result per query, in query order.
func (a *Aggregator) Match(ctx context.Context, userID string, queries []JDSentenceQuery) ([]MatchResult, error) {
	outcome, err := a.Run(ctx, userID, queries)
	if err != nil {
		return nil, err
	}
	return outcome.Results, nil
}

// Outcome carries the results of a run together with the candidates that were scanned.
type Outcome struct {
	Results    []MatchResult
	Candidates []SentenceEmbedding
}

// Run fetches the user's resume sentences once and matches every query against them.
func (a *Aggregator) Run(ctx context.Context, userID string, queries []JDSentenceQuery) (Outcome, error) {
	if len(queries) == 0 {
		return Outcome{Results: []MatchResult{}}, nil
	}
	start := time.Now()
	candidates, err := a.source.Fetch(ctx, userID)
	if err != nil {
		a.metrics.ObserveMatch("error", 0, time.Since(start))
		return Outcome{}, err
	}
	if len(candidates) == 0 {
		a.logger.Warn("no resume sentences available, returning placeholders", "user_id", userID, "queries", len(queries))
		a.metrics.ObserveMatch("empty", 0, time.Since(start))
		return Outcome{Results: NoMatchResults(queries)}, nil
	}
	results := BestMatches(queries, candidates)
	a.metrics.ObserveMatch("ok", len(candidates), time.Since(start))
	a.logger.Debug("match completed", "user_id", userID, "queries", len(queries), "candidates", len(candidates), "latency_ms", time.Since(start).Milliseconds())
	return Outcome{Results: results, Candidates: candidates}, nil
}

// BestMatches scans every candidate for every query. Ties keep the earliest candidate.
func BestMatches(queries []JDSentenceQuery, candidates []SentenceEmbedding) []MatchResult {
	if len(candidates) == 0 {
		return NoMatchResults(queries)
	}
	results := make([]MatchResult, len(queries))
	for i, query := range queries {
		results[i] = bestMatch(query, candidates)
	}
	return results
}

func bestMatch(query JDSentenceQuery, candidates []SentenceEmbedding) MatchResult {
	best := MatchResult{JDSentence: query.Sentence, Similarity: math.Inf(-1)}
	for _, candidate := range candidates {
		sim := CosineSimilarity(query.Embedding, candidate.Embedding)
		if sim > best.Similarity {
			best.BestMatch = candidate.Sentence
			best.Similarity = sim
			best.ContentType = candidate.ContentType
		}
	}
	return best
}

// NoMatchResults builds the placeholder results used when no resume data exists.
func NoMatchResults(queries []JDSentenceQuery) []MatchResult {
	results := make([]MatchResult, len(queries))
	for i, query := range queries {
		results[i] = MatchResult{
			JDSentence:  query.Sentence,
			BestMatch:   NoMatchSentence,
			Similarity:  0,
			ContentType: ContentUnknown,
		}
	}
	return results
}
