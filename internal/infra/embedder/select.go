package embedder

import (
	"log/slog"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/yanqian/jobfit/internal/domain/matching"
	"github.com/yanqian/jobfit/internal/infra/config"
	"github.com/yanqian/jobfit/pkg/metrics"
)

// FromConfig returns the OpenAI embedder when an API key is configured and the
// deterministic embedder otherwise.
func FromConfig(llm config.LLMConfig, cfg config.EmbeddingConfig, client *openai.Client, collectors *metrics.Collectors, logger *slog.Logger) matching.Embedder {
	if strings.TrimSpace(llm.APIKey) == "" {
		logger.Warn("llm api key not set, using deterministic embedder", "dimensions", cfg.Dimensions)
		return NewDeterministicEmbedder(cfg.Dimensions)
	}
	if client == nil {
		client = NewOpenAIClient(llm.APIKey, llm.BaseURL)
	}
	return NewOpenAIEmbedder(client, Options{
		Model:           llm.EmbeddingModel,
		BatchTokens:     cfg.BatchTokens,
		MaxRetries:      cfg.MaxRetries,
		BreakerFailures: cfg.BreakerFailures,
		BreakerTimeout:  cfg.BreakerTimeout,
	}, collectors, logger)
}
