package embedder

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/yanqian/jobfit/internal/domain/matching"
	"github.com/yanqian/jobfit/pkg/logger"
)

type embeddingRequest struct {
	Input []string `json:"input"`
	Model string   `json:"model"`
}

func embeddingServer(t *testing.T, failures int32, status int) (*httptest.Server, *int32, *[][]string) {
	t.Helper()
	var calls int32
	var batches [][]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&calls, 1)
		require.Equal(t, "/embeddings", r.URL.Path)
		if n <= failures {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(status)
			_, _ = w.Write([]byte(`{"error":{"message":"try later","type":"server_error"}}`))
			return
		}
		var req embeddingRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		batches = append(batches, req.Input)
		data := make([]map[string]any, len(req.Input))
		// Reverse order to exercise index sorting.
		for i := range req.Input {
			idx := len(req.Input) - 1 - i
			data[i] = map[string]any{"object": "embedding", "index": idx, "embedding": []float32{float32(len(req.Input[idx])), 1}}
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"object": "list", "data": data, "model": req.Model})
	}))
	t.Cleanup(srv.Close)
	return srv, &calls, &batches
}

func newTestEmbedder(url string, opts Options) *OpenAIEmbedder {
	if opts.Model == "" {
		opts.Model = "text-embedding-3-small"
	}
	opts.InitialBackoff = time.Millisecond
	opts.CountTokens = EstimateTokens
	return NewOpenAIEmbedder(NewOpenAIClient("test-key", url), opts, nil, logger.Discard())
}

func TestOpenAIEmbedderPreservesOrderAndBatches(t *testing.T) {
	srv, _, batches := embeddingServer(t, 0, 0)
	emb := newTestEmbedder(srv.URL, Options{BatchTokens: 4})

	vectors, err := emb.Embed(context.Background(), []string{"aaaa", "bb", "cccccc"})
	require.NoError(t, err)
	require.Len(t, vectors, 3)
	require.Equal(t, float32(4), vectors[0][0])
	require.Equal(t, float32(2), vectors[1][0])
	require.Equal(t, float32(6), vectors[2][0])
	require.Len(t, *batches, 2)
}

func TestOpenAIEmbedderRetriesServerErrors(t *testing.T) {
	srv, calls, _ := embeddingServer(t, 2, http.StatusServiceUnavailable)
	emb := newTestEmbedder(srv.URL, Options{MaxRetries: 3})

	vectors, err := emb.Embed(context.Background(), []string{"hello"})
	require.NoError(t, err)
	require.Len(t, vectors, 1)
	require.Equal(t, int32(3), atomic.LoadInt32(calls))
}

func TestOpenAIEmbedderDoesNotRetryClientErrors(t *testing.T) {
	srv, calls, _ := embeddingServer(t, 10, http.StatusBadRequest)
	emb := newTestEmbedder(srv.URL, Options{MaxRetries: 3})

	_, err := emb.Embed(context.Background(), []string{"hello"})
	require.Error(t, err)
	require.Equal(t, int32(1), atomic.LoadInt32(calls))
}

func TestOpenAIEmbedderOpensBreaker(t *testing.T) {
	srv, calls, _ := embeddingServer(t, 100, http.StatusInternalServerError)
	emb := newTestEmbedder(srv.URL, Options{MaxRetries: 0, BreakerFailures: 2, BreakerTimeout: time.Minute})

	for i := 0; i < 2; i++ {
		_, err := emb.Embed(context.Background(), []string{"hello"})
		require.Error(t, err)
	}
	_, err := emb.Embed(context.Background(), []string{"hello"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "circuit breaker is open")
	require.Equal(t, int32(2), atomic.LoadInt32(calls))
}

func TestOpenAIEmbedderRejectsOversizedText(t *testing.T) {
	emb := newTestEmbedder("http://127.0.0.1:0", Options{BatchTokens: 2})
	_, err := emb.Embed(context.Background(), []string{"this text is far too long"})
	require.Error(t, err)
}

func TestDeterministicEmbedderSharesWords(t *testing.T) {
	emb := NewDeterministicEmbedder(64)
	vectors, err := emb.Embed(context.Background(), []string{
		"Built Go services",
		"built go services!",
		"Organized a bake sale",
	})
	require.NoError(t, err)
	require.InDelta(t, 1.0, matching.CosineSimilarity(vectors[0], vectors[1]), 1e-9)
	require.Less(t, matching.CosineSimilarity(vectors[0], vectors[2]), 0.99)
}

func TestEstimateTokens(t *testing.T) {
	require.Equal(t, 0, EstimateTokens(""))
	require.Equal(t, 3, EstimateTokens("a b c"))
	require.Equal(t, 5, EstimateTokens("abcdefghij"))
}
