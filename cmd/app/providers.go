package main

import (
	"context"
	"log/slog"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"github.com/valkey-io/valkey-go"

	"github.com/yanqian/jobfit/internal/domain/auth"
	"github.com/yanqian/jobfit/internal/domain/matching"
	"github.com/yanqian/jobfit/internal/domain/progress"
	"github.com/yanqian/jobfit/internal/domain/tailor"
	"github.com/yanqian/jobfit/internal/infra/config"
	"github.com/yanqian/jobfit/internal/infra/embedder"
	"github.com/yanqian/jobfit/internal/infra/llm"
	"github.com/yanqian/jobfit/internal/infra/notion"
	"github.com/yanqian/jobfit/internal/infra/progressstore"
	"github.com/yanqian/jobfit/internal/infra/queue"
	"github.com/yanqian/jobfit/internal/infra/reportstore"
	"github.com/yanqian/jobfit/internal/infra/sentencestore"
	"github.com/yanqian/jobfit/pkg/metrics"
)

func provideAuthConfig(cfg *config.Config) auth.Config {
	return auth.Config{
		Secret:   cfg.Auth.JWTSecret,
		Audience: cfg.Auth.Audience,
		Issuer:   cfg.Auth.Issuer,
	}
}

func provideMatchingConfig(cfg *config.Config) matching.Config {
	return matching.Config{
		MaxQueries:             cfg.Matching.MaxQueries,
		MaxJobDescriptionChars: cfg.Matching.MaxJobDescriptionChars,
		HighlightMinSimilarity: cfg.Matching.HighlightMinSimilarity,
		HighlightMinWords:      cfg.Matching.HighlightMinWords,
		JDCacheSize:            cfg.Matching.JDCacheSize,
		ReportPrefix:           cfg.Matching.ReportPrefix,
	}
}

func provideTailorConfig(cfg *config.Config) tailor.Config {
	return tailor.Config{
		Model:             cfg.LLM.Model,
		Temperature:       cfg.LLM.Temperature,
		JobTimeout:        cfg.Tailor.JobTimeout,
		MaxDescriptionLen: cfg.Matching.MaxJobDescriptionChars,
		ClassifierPrompt:  cfg.Tailor.ClassifierPrompt,
		CustomizerPrompt:  cfg.Tailor.CustomizerPrompt,
		ReviewerPrompt:    cfg.Tailor.ReviewerPrompt,
	}
}

func provideProgressConfig(cfg *config.Config) progress.Config {
	return progress.Config{
		TTL:          cfg.Progress.TTL,
		TerminalTTL:  cfg.Progress.TerminalTTL,
		PollInterval: cfg.Progress.PollInterval,
	}
}

func provideOpenAIClient(cfg *config.Config) *openai.Client {
	return embedder.NewOpenAIClient(cfg.LLM.APIKey, cfg.LLM.BaseURL)
}

func provideEmbedder(cfg *config.Config, client *openai.Client, collectors *metrics.Collectors, logger *slog.Logger) matching.Embedder {
	return embedder.FromConfig(cfg.LLM, cfg.Embedding, client, collectors, logger)
}

func provideChatClient(cfg *config.Config, client *openai.Client, logger *slog.Logger) tailor.ChatClient {
	if strings.TrimSpace(cfg.LLM.APIKey) == "" {
		logger.Warn("llm api key not set, tailoring uses echo responses")
		return llm.EchoLLM{}
	}
	return llm.NewChatGPTLLM(client)
}

func provideBundleRepository(cfg *config.Config, logger *slog.Logger) (matching.BundleRepository, func()) {
	if strings.TrimSpace(cfg.Postgres.DSN) == "" {
		logger.Info("postgres dsn not set, using memory sentence store")
		return sentencestore.NewMemoryRepository(), func() {}
	}
	repo, closePool, err := sentencestore.Open(context.Background(), cfg.Postgres)
	if err != nil {
		logger.Error("postgres unavailable, using memory sentence store", "error", err)
		return sentencestore.NewMemoryRepository(), func() {}
	}
	logger.Info("postgres sentence store enabled", "layout", cfg.Postgres.Layout)
	return repo, closePool
}

// provideValkeyClient returns nil when valkey is disabled or unreachable.
func provideValkeyClient(cfg *config.Config, logger *slog.Logger) (valkey.Client, func()) {
	noop := func() {}
	if !cfg.Valkey.Enabled {
		return nil, noop
	}
	opt, err := buildValkeyOptions(cfg.Valkey.Addr)
	if err != nil {
		logger.Error("invalid valkey configuration, falling back to memory", "error", err)
		return nil, noop
	}
	client, err := valkey.NewClient(opt)
	if err != nil {
		logger.Error("failed to create valkey client, falling back to memory", "error", err)
		return nil, noop
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Do(ctx, client.B().Ping().Build()).Error(); err != nil {
		logger.Error("valkey ping failed, falling back to memory", "error", err)
		client.Close()
		return nil, noop
	}
	logger.Info("valkey enabled", "addr", cfg.Valkey.Addr)
	return client, client.Close
}

func buildValkeyOptions(addr string) (valkey.ClientOption, error) {
	if strings.Contains(addr, "://") {
		return valkey.ParseURL(addr)
	}
	return valkey.ClientOption{InitAddress: []string{addr}}, nil
}

func provideProgressStore(cfg *config.Config, client valkey.Client, logger *slog.Logger) progress.Store {
	if client == nil {
		logger.Info("progress tracking uses memory store")
		return progress.NewMemoryStore()
	}
	return progressstore.NewValkeyStore(client, cfg.Progress.KeyPrefix)
}

func provideJobQueue(cfg *config.Config, client valkey.Client, logger *slog.Logger) queue.HandlerQueue {
	if cfg.Queue.Backend == "valkey" && client != nil {
		logger.Info("job queue uses valkey", "key", cfg.Queue.Key)
		return queue.NewValkeyQueue(client, cfg.Queue.Key, logger)
	}
	if cfg.Queue.Backend == "valkey" {
		logger.Warn("valkey queue requested but valkey is unavailable, running jobs in process")
	}
	return queue.NewImmediateQueue(nil)
}

func provideObjectStorage(cfg *config.Config, logger *slog.Logger) matching.ObjectStorage {
	if !cfg.Storage.Enabled() {
		logger.Info("object storage not configured, archiving reports in memory")
		return reportstore.NewMemoryStorage()
	}
	store, err := reportstore.NewR2Storage(cfg.Storage.Endpoint, cfg.Storage.AccessKey, cfg.Storage.SecretKey, cfg.Storage.Bucket, cfg.Storage.Region, logger)
	if err != nil {
		logger.Error("failed to initialize r2 storage, archiving reports in memory", "error", err)
		return reportstore.NewMemoryStorage()
	}
	return store
}

// provideResumeSource returns nil when no Notion token is configured, which disables import.
func provideResumeSource(cfg *config.Config) matching.ResumeSource {
	if strings.TrimSpace(cfg.Notion.Token) == "" {
		return nil
	}
	return notion.NewClient(notion.Config{
		Token:            cfg.Notion.Token,
		BaseURL:          cfg.Notion.BaseURL,
		Version:          cfg.Notion.Version,
		DatabaseID:       cfg.Notion.DatabaseID,
		AllowedDatabases: cfg.Notion.AllowedDatabases,
		TitleProperty:    cfg.Notion.TitleProperty,
		ContentProperty:  cfg.Notion.ContentProperty,
		TypeProperty:     cfg.Notion.TypeProperty,
	})
}

// provideTailorService builds the service and registers it as the job handler.
func provideTailorService(cfg tailor.Config, chat tailor.ChatClient, jobs queue.HandlerQueue, tracker *progress.Tracker, collectors *metrics.Collectors, logger *slog.Logger) tailor.Service {
	svc := tailor.NewService(cfg, chat, jobs, tracker, collectors, logger)
	jobs.SetHandler(svc.HandleJob)
	return svc
}
