package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config aggregates runtime configuration used across the service.
type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	Auth      AuthConfig      `yaml:"auth"`
	LLM       LLMConfig       `yaml:"llm"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Matching  MatchingConfig  `yaml:"matching"`
	Tailor    TailorConfig    `yaml:"tailor"`
	Postgres  PostgresConfig  `yaml:"postgres"`
	Valkey    ValkeyConfig    `yaml:"valkey"`
	Storage   StorageConfig   `yaml:"storage"`
	Progress  ProgressConfig  `yaml:"progress"`
	Notion    NotionConfig    `yaml:"notion"`
	Queue     QueueConfig     `yaml:"queue"`
}

// HTTPConfig controls server level behavior.
type HTTPConfig struct {
	Address        string          `yaml:"address"`
	ReadTimeout    time.Duration   `yaml:"readTimeout"`
	WriteTimeout   time.Duration   `yaml:"writeTimeout"`
	RateLimit      RateLimitConfig `yaml:"rateLimit"`
	Retry          RetryConfig     `yaml:"retry"`
	AllowedOrigins []string        `yaml:"allowedOrigins"`
}

// RateLimitConfig drives the request limiting middleware.
type RateLimitConfig struct {
	Enabled           bool `yaml:"enabled"`
	RequestsPerMinute int  `yaml:"requestsPerMinute"`
	Burst             int  `yaml:"burst"`
}

// RetryConfig configures best-effort retries for idempotent requests.
type RetryConfig struct {
	Enabled     bool          `yaml:"enabled"`
	MaxAttempts int           `yaml:"maxAttempts"`
	BaseBackoff time.Duration `yaml:"baseBackoff"`
	Exclude     []string      `yaml:"exclude"`
}

// AuthConfig verifies Supabase access tokens.
type AuthConfig struct {
	Disabled  bool   `yaml:"disabled"`
	JWTSecret string `yaml:"jwtSecret"`
	Audience  string `yaml:"audience"`
	Issuer    string `yaml:"issuer"`
}

// LLMConfig contains ChatGPT/OpenAI settings.
type LLMConfig struct {
	APIKey         string  `yaml:"apiKey"`
	BaseURL        string  `yaml:"baseUrl"`
	Model          string  `yaml:"model"`
	EmbeddingModel string  `yaml:"embeddingModel"`
	Temperature    float32 `yaml:"temperature"`
}

// EmbeddingConfig tunes calls to the embeddings API.
type EmbeddingConfig struct {
	BatchTokens     int           `yaml:"batchTokens"`
	MaxRetries      int           `yaml:"maxRetries"`
	BreakerFailures uint32        `yaml:"breakerFailures"`
	BreakerTimeout  time.Duration `yaml:"breakerTimeout"`
	Dimensions      int           `yaml:"dimensions"`
}

// MatchingConfig controls request limits and report presentation.
type MatchingConfig struct {
	MaxQueries             int     `yaml:"maxQueries"`
	MaxJobDescriptionChars int     `yaml:"maxJobDescriptionChars"`
	HighlightMinSimilarity float64 `yaml:"highlightMinSimilarity"`
	HighlightMinWords      int     `yaml:"highlightMinWords"`
	JDCacheSize            int     `yaml:"jdCacheSize"`
	ReportPrefix           string  `yaml:"reportPrefix"`
}

// TailorConfig controls the resume tailoring workflow.
type TailorConfig struct {
	JobTimeout       time.Duration `yaml:"jobTimeout"`
	ClassifierPrompt string        `yaml:"classifierPrompt"`
	CustomizerPrompt string        `yaml:"customizerPrompt"`
	ReviewerPrompt   string        `yaml:"reviewerPrompt"`
}

// PostgresConfig contains DSN and pooling settings.
type PostgresConfig struct {
	DSN      string `yaml:"dsn"`
	MaxConns int32  `yaml:"maxConns"`
	MinConns int32  `yaml:"minConns"`
	// Layout selects how embeddings are stored: "bundle" rows or "vector" rows.
	Layout string `yaml:"layout"`
}

// ValkeyConfig contains connection information for the shared key value store.
type ValkeyConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

// StorageConfig points at an S3 compatible bucket such as Cloudflare R2.
type StorageConfig struct {
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"accessKey"`
	SecretKey string `yaml:"secretKey"`
	Bucket    string `yaml:"bucket"`
	Region    string `yaml:"region"`
}

// Enabled reports whether enough settings exist to reach the bucket.
func (s StorageConfig) Enabled() bool {
	return strings.TrimSpace(s.Endpoint) != "" && strings.TrimSpace(s.Bucket) != "" &&
		s.AccessKey != "" && s.SecretKey != ""
}

// ProgressConfig controls generation progress retention.
type ProgressConfig struct {
	TTL          time.Duration `yaml:"ttl"`
	TerminalTTL  time.Duration `yaml:"terminalTtl"`
	PollInterval time.Duration `yaml:"pollInterval"`
	KeyPrefix    string        `yaml:"keyPrefix"`
}

// NotionConfig describes the resume database in Notion.
type NotionConfig struct {
	Token      string `yaml:"token"`
	BaseURL    string `yaml:"baseUrl"`
	Version    string `yaml:"version"`
	DatabaseID string `yaml:"databaseId"`
	// AllowedDatabases lists databases callers may import besides DatabaseID.
	AllowedDatabases []string `yaml:"allowedDatabases"`
	TitleProperty    string   `yaml:"titleProperty"`
	ContentProperty  string   `yaml:"contentProperty"`
	TypeProperty     string   `yaml:"typeProperty"`
}

// QueueConfig selects the background job backend.
type QueueConfig struct {
	Backend string `yaml:"backend"`
	Key     string `yaml:"key"`
}

// Load reads configuration from a YAML file and environment variables and validates it
// for serving.
func Load() (*Config, error) {
	cfg, err := LoadUnvalidated()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// LoadUnvalidated is Load without the server checks. Offline tools use it to
// read store and provider settings without an auth secret.
func LoadUnvalidated() (*Config, error) {
	cfg := defaultConfig()

	if path := os.Getenv("CONFIG_PATH"); path != "" {
		if err := hydrateFromFile(cfg, path); err != nil {
			return nil, err
		}
	} else if _, err := os.Stat("configs/config.yaml"); err == nil {
		if err := hydrateFromFile(cfg, "configs/config.yaml"); err != nil {
			return nil, err
		}
	}

	applyEnvOverrides(cfg)
	return cfg, nil
}

func hydrateFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("HTTP_ADDRESS"); v != "" {
		cfg.HTTP.Address = v
	}
	if v := os.Getenv("HTTP_ALLOWED_ORIGINS"); v != "" {
		cfg.HTTP.AllowedOrigins = splitList(v)
	}
	if v := os.Getenv("HTTP_RATE_LIMIT_ENABLED"); v != "" {
		cfg.HTTP.RateLimit.Enabled = v == "1" || strings.EqualFold(v, "true")
	}
	if v := os.Getenv("HTTP_RATE_LIMIT_RPM"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.HTTP.RateLimit.RequestsPerMinute = parsed
		}
	}
	if v := os.Getenv("HTTP_RATE_LIMIT_BURST"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.HTTP.RateLimit.Burst = parsed
		}
	}
	if v := os.Getenv("HTTP_RETRY_ENABLED"); v != "" {
		cfg.HTTP.Retry.Enabled = v == "1" || strings.EqualFold(v, "true")
	}
	if v := os.Getenv("HTTP_RETRY_MAX_ATTEMPTS"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.HTTP.Retry.MaxAttempts = parsed
		}
	}
	if v := os.Getenv("HTTP_RETRY_BASE_BACKOFF"); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			cfg.HTTP.Retry.BaseBackoff = parsed
		}
	}
	if v := os.Getenv("AUTH_DISABLED"); v != "" {
		cfg.Auth.Disabled = v == "1" || strings.EqualFold(v, "true")
	}
	if v := os.Getenv("SUPABASE_JWT_SECRET"); v != "" {
		cfg.Auth.JWTSecret = v
	}
	if v := os.Getenv("SUPABASE_JWT_AUDIENCE"); v != "" {
		cfg.Auth.Audience = v
	}
	if v := os.Getenv("SUPABASE_JWT_ISSUER"); v != "" {
		cfg.Auth.Issuer = v
	}
	if v := os.Getenv("LLM_API_KEY"); v != "" {
		cfg.LLM.APIKey = v
	}
	if v := os.Getenv("LLM_BASE_URL"); v != "" {
		cfg.LLM.BaseURL = v
	}
	if v := os.Getenv("LLM_MODEL"); v != "" {
		cfg.LLM.Model = v
	}
	if v := os.Getenv("LLM_EMBEDDING_MODEL"); v != "" {
		cfg.LLM.EmbeddingModel = v
	}
	if v := os.Getenv("LLM_TEMPERATURE"); v != "" {
		if parsed, err := strconv.ParseFloat(v, 32); err == nil {
			cfg.LLM.Temperature = float32(parsed)
		}
	}
	if v := os.Getenv("EMBEDDING_MAX_RETRIES"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.Embedding.MaxRetries = parsed
		}
	}
	if v := os.Getenv("MATCH_HIGHLIGHT_MIN_SIMILARITY"); v != "" {
		if parsed, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Matching.HighlightMinSimilarity = parsed
		}
	}
	if v := os.Getenv("MATCH_HIGHLIGHT_MIN_WORDS"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.Matching.HighlightMinWords = parsed
		}
	}
	if v := os.Getenv("TAILOR_JOB_TIMEOUT"); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			cfg.Tailor.JobTimeout = parsed
		}
	}
	if v := os.Getenv("POSTGRES_DSN"); v != "" {
		cfg.Postgres.DSN = v
	}
	if v := os.Getenv("POSTGRES_MAX_CONNS"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.Postgres.MaxConns = int32(parsed)
		}
	}
	if v := os.Getenv("POSTGRES_MIN_CONNS"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.Postgres.MinConns = int32(parsed)
		}
	}
	if v := os.Getenv("POSTGRES_LAYOUT"); v != "" {
		cfg.Postgres.Layout = v
	}
	if v := os.Getenv("VALKEY_ENABLED"); v != "" {
		cfg.Valkey.Enabled = v == "1" || strings.EqualFold(v, "true")
	}
	if v := os.Getenv("VALKEY_ADDR"); v != "" {
		cfg.Valkey.Addr = v
	}
	if v := os.Getenv("R2_ENDPOINT"); v != "" {
		cfg.Storage.Endpoint = v
	}
	if v := os.Getenv("R2_ACCESS_KEY_ID"); v != "" {
		cfg.Storage.AccessKey = v
	}
	if v := os.Getenv("R2_SECRET_ACCESS_KEY"); v != "" {
		cfg.Storage.SecretKey = v
	}
	if v := os.Getenv("R2_BUCKET"); v != "" {
		cfg.Storage.Bucket = v
	}
	if v := os.Getenv("PROGRESS_TTL"); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			cfg.Progress.TTL = parsed
		}
	}
	if v := os.Getenv("PROGRESS_TERMINAL_TTL"); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			cfg.Progress.TerminalTTL = parsed
		}
	}
	if v := os.Getenv("NOTION_TOKEN"); v != "" {
		cfg.Notion.Token = v
	}
	if v := os.Getenv("NOTION_DATABASE_ID"); v != "" {
		cfg.Notion.DatabaseID = v
	}
	if v := os.Getenv("NOTION_ALLOWED_DATABASES"); v != "" {
		cfg.Notion.AllowedDatabases = splitList(v)
	}
	if v := os.Getenv("QUEUE_BACKEND"); v != "" {
		cfg.Queue.Backend = v
	}
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func defaultConfig() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Address:     ":8080",
			ReadTimeout: 5 * time.Second,
			// Zero keeps SSE streams open; handlers bound their own work.
			WriteTimeout: 0,
			RateLimit: RateLimitConfig{
				Enabled:           true,
				RequestsPerMinute: 60,
				Burst:             20,
			},
			Retry: RetryConfig{
				Enabled:     true,
				MaxAttempts: 3,
				BaseBackoff: 150 * time.Millisecond,
				Exclude: []string{
					"/api/v1/tailor",
					"/api/v1/resume",
				},
			},
			AllowedOrigins: []string{"http://localhost:3000"},
		},
		LLM: LLMConfig{
			Model:          "gpt-4o-mini",
			EmbeddingModel: "text-embedding-3-small",
			Temperature:    0.2,
		},
		Embedding: EmbeddingConfig{
			BatchTokens:     200_000,
			MaxRetries:      3,
			BreakerFailures: 5,
			BreakerTimeout:  30 * time.Second,
			Dimensions:      64,
		},
		Matching: MatchingConfig{
			MaxQueries:             200,
			MaxJobDescriptionChars: 20000,
			HighlightMinSimilarity: 0.4,
			HighlightMinWords:      5,
			JDCacheSize:            128,
			ReportPrefix:           "match-reports",
		},
		Tailor: TailorConfig{
			JobTimeout: 3 * time.Minute,
		},
		Postgres: PostgresConfig{
			MaxConns: 4,
			Layout:   "bundle",
		},
		Progress: ProgressConfig{
			TTL:          30 * time.Minute,
			TerminalTTL:  2 * time.Minute,
			PollInterval: 500 * time.Millisecond,
			KeyPrefix:    "progress",
		},
		Notion: NotionConfig{
			BaseURL:         "https://api.notion.com/v1",
			Version:         "2022-06-28",
			TitleProperty:   "Name",
			ContentProperty: "Content",
			TypeProperty:    "Type",
		},
		Queue: QueueConfig{
			Backend: "immediate",
			Key:     "jobfit:jobs",
		},
	}
}

// Validate ensures the configuration is safe to use.
func (c *Config) Validate() error {
	if c.HTTP.Address == "" {
		return errors.New("http.address cannot be empty")
	}
	if c.HTTP.RateLimit.Enabled {
		if c.HTTP.RateLimit.RequestsPerMinute <= 0 {
			return errors.New("http.rateLimit.requestsPerMinute must be positive")
		}
		if c.HTTP.RateLimit.Burst <= 0 {
			return errors.New("http.rateLimit.burst must be positive")
		}
	}
	if c.HTTP.Retry.Enabled {
		if c.HTTP.Retry.MaxAttempts <= 0 {
			return errors.New("http.retry.maxAttempts must be positive")
		}
		if c.HTTP.Retry.BaseBackoff <= 0 {
			return errors.New("http.retry.baseBackoff must be positive")
		}
	}
	if !c.Auth.Disabled && strings.TrimSpace(c.Auth.JWTSecret) == "" {
		return errors.New("auth.jwtSecret cannot be empty unless auth is disabled")
	}
	if strings.TrimSpace(c.LLM.EmbeddingModel) == "" {
		return errors.New("llm.embeddingModel cannot be empty")
	}
	if c.Embedding.BatchTokens <= 0 {
		return errors.New("embedding.batchTokens must be positive")
	}
	if c.Embedding.MaxRetries < 0 {
		return errors.New("embedding.maxRetries cannot be negative")
	}
	if c.Matching.HighlightMinSimilarity < -1 || c.Matching.HighlightMinSimilarity > 1 {
		return errors.New("matching.highlightMinSimilarity must be within [-1, 1]")
	}
	if c.Matching.HighlightMinWords < 0 {
		return errors.New("matching.highlightMinWords cannot be negative")
	}
	switch c.Postgres.Layout {
	case "bundle", "vector":
	default:
		return fmt.Errorf("postgres.layout must be bundle or vector, got %q", c.Postgres.Layout)
	}
	if c.Valkey.Enabled && strings.TrimSpace(c.Valkey.Addr) == "" {
		return errors.New("valkey.addr cannot be empty when valkey is enabled")
	}
	if c.Progress.TTL <= 0 || c.Progress.TerminalTTL <= 0 {
		return errors.New("progress ttl values must be positive")
	}
	switch c.Queue.Backend {
	case "immediate":
	case "valkey":
		if !c.Valkey.Enabled {
			return errors.New("queue.backend valkey requires valkey.enabled")
		}
	default:
		return fmt.Errorf("queue.backend must be immediate or valkey, got %q", c.Queue.Backend)
	}
	return nil
}
