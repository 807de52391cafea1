package embedder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	openai "github.com/sashabaranov/go-openai"
	"github.com/sony/gobreaker"

	"github.com/yanqian/jobfit/internal/domain/matching"
	"github.com/yanqian/jobfit/pkg/metrics"
)

// Options tunes the OpenAI embedder.
type Options struct {
	Model           string
	BatchTokens     int
	MaxRetries      int
	InitialBackoff  time.Duration
	BreakerFailures uint32
	BreakerTimeout  time.Duration
	// CountTokens overrides the tiktoken counter.
	CountTokens func(string) int
}

// OpenAIEmbedder calls an OpenAI compatible embeddings API with retries and a
// circuit breaker.
type OpenAIEmbedder struct {
	client  *openai.Client
	opts    Options
	breaker *gobreaker.CircuitBreaker
	count   func(string) int
	metrics *metrics.Collectors
	logger  *slog.Logger
}

// NewOpenAIClient builds a go-openai client honoring a custom base URL.
func NewOpenAIClient(apiKey, baseURL string) *openai.Client {
	cfg := openai.DefaultConfig(apiKey)
	if trimmed := strings.TrimRight(strings.TrimSpace(baseURL), "/"); trimmed != "" {
		cfg.BaseURL = trimmed
	}
	return openai.NewClientWithConfig(cfg)
}

// NewOpenAIEmbedder constructs the embedder.
func NewOpenAIEmbedder(client *openai.Client, opts Options, collectors *metrics.Collectors, logger *slog.Logger) *OpenAIEmbedder {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "embedder.openai")
	if opts.BatchTokens <= 0 {
		opts.BatchTokens = 200_000
	}
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}
	if opts.InitialBackoff <= 0 {
		opts.InitialBackoff = 250 * time.Millisecond
	}
	if opts.BreakerFailures == 0 {
		opts.BreakerFailures = 5
	}
	if opts.BreakerTimeout <= 0 {
		opts.BreakerTimeout = 30 * time.Second
	}
	count := opts.CountTokens
	if count == nil {
		count = newTokenCounter(opts.Model, logger)
	}
	failures := opts.BreakerFailures
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "embeddings",
		Timeout: opts.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed", "breaker", name, "from", from.String(), "to", to.String())
		},
	})
	return &OpenAIEmbedder{
		client:  client,
		opts:    opts,
		breaker: breaker,
		count:   count,
		metrics: collectors,
		logger:  logger,
	}
}

// Embed requests embeddings for the given texts, batching by token count. The
// result has one vector per input in input order.
func (e *OpenAIEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	var (
		out         = make([][]float32, 0, len(texts))
		batch       []string
		batchTokens int
	)

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		vectors, err := e.embedBatch(ctx, batch)
		if err != nil {
			return err
		}
		out = append(out, vectors...)
		batch = batch[:0]
		batchTokens = 0
		return nil
	}

	for _, text := range texts {
		tokens := e.count(text)
		if tokens > e.opts.BatchTokens {
			return nil, fmt.Errorf("text too large for embedding request: tokens=%d", tokens)
		}
		if batchTokens+tokens > e.opts.BatchTokens && len(batch) > 0 {
			if err := flush(); err != nil {
				return nil, err
			}
		}
		batch = append(batch, text)
		batchTokens += tokens
	}
	if err := flush(); err != nil {
		return nil, err
	}
	return out, nil
}

func (e *OpenAIEmbedder) embedBatch(ctx context.Context, batch []string) ([][]float32, error) {
	input := append([]string(nil), batch...)
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = e.opts.InitialBackoff
	policy.MaxElapsedTime = 0

	var (
		resp    openai.EmbeddingResponse
		attempt int
	)
	operation := func() error {
		attempt++
		result, err := e.breaker.Execute(func() (interface{}, error) {
			return e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
				Model: openai.EmbeddingModel(e.opts.Model),
				Input: input,
			})
		})
		if err != nil {
			if !retryable(err) {
				return backoff.Permanent(err)
			}
			e.logger.Warn("embedding request failed, retrying", "attempt", attempt, "error", err)
			return err
		}
		resp = result.(openai.EmbeddingResponse)
		return nil
	}
	retries := backoff.WithMaxRetries(policy, uint64(e.opts.MaxRetries))
	if err := backoff.Retry(operation, backoff.WithContext(retries, ctx)); err != nil {
		e.metrics.ObserveEmbedding("error")
		return nil, fmt.Errorf("create embeddings: %w", err)
	}

	if len(resp.Data) != len(batch) {
		e.metrics.ObserveEmbedding("error")
		return nil, fmt.Errorf("embedding result count mismatch: expected %d, got %d", len(batch), len(resp.Data))
	}
	sort.SliceStable(resp.Data, func(i, j int) bool { return resp.Data[i].Index < resp.Data[j].Index })
	vectors := make([][]float32, len(resp.Data))
	for i, item := range resp.Data {
		vec := make([]float32, len(item.Embedding))
		copy(vec, item.Embedding)
		vectors[i] = vec
	}
	e.metrics.ObserveEmbedding("success")
	return vectors, nil
}

// retryable reports whether a failed call may succeed on another attempt.
func retryable(err error) bool {
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return retryableStatus(apiErr.HTTPStatusCode)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return retryableStatus(reqErr.HTTPStatusCode)
	}
	return true
}

func retryableStatus(status int) bool {
	return status == http.StatusTooManyRequests || status >= http.StatusInternalServerError || status == 0
}

var _ matching.Embedder = (*OpenAIEmbedder)(nil)
