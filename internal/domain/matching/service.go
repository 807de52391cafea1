package matching

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"

	apperrors "github.com/yanqian/jobfit/pkg/errors"
	"github.com/yanqian/jobfit/pkg/metrics"
	"github.com/yanqian/jobfit/pkg/util"
)

// Service exposes the matching workflows.
type Service interface {
	Match(ctx context.Context, userID string, req MatchRequest) (MatchResponse, error)
	EmbedJobDescription(ctx context.Context, text string) (JDEmbedding, error)
	MatchText(ctx context.Context, userID string, req MatchTextRequest) (Report, error)
	GetReport(ctx context.Context, userID, reportID string) (Report, error)
	IndexResume(ctx context.Context, userID string, req IndexRequest) (IndexResponse, error)
	ImportNotion(ctx context.Context, userID string, req NotionImportRequest) (IndexResponse, error)
}

// MatchRequest carries pre-embedded job description sentences.
type MatchRequest struct {
	Sentences []JDSentenceQuery `json:"sentences"`
}

// MatchResponse lists one result per submitted sentence.
type MatchResponse struct {
	Results []MatchResult `json:"results"`
}

// MatchTextRequest carries raw job description text.
type MatchTextRequest struct {
	JobDescription string `json:"jobDescription"`
	Archive        bool   `json:"archive"`
}

// IndexRequest carries resume blocks to embed and store.
type IndexRequest struct {
	Blocks          []ResumeBlock `json:"blocks"`
	ReplaceExisting bool          `json:"replaceExisting"`
}

// NotionImportRequest selects the Notion database that holds resume blocks.
type NotionImportRequest struct {
	DatabaseID      string `json:"databaseId"`
	ReplaceExisting bool   `json:"replaceExisting"`
}

// IndexResponse reports what was stored.
type IndexResponse struct {
	Bundles   int `json:"bundles"`
	Sentences int `json:"sentences"`
	Replaced  int `json:"replaced"`
}

type service struct {
	cfg        Config
	bundles    BundleRepository
	aggregator *Aggregator
	embedder   Embedder
	storage    ObjectStorage
	source     ResumeSource
	jdCache    *lru.Cache[string, JDEmbedding]
	metrics    *metrics.Collectors
	logger     *slog.Logger
}

// NewService constructs the matching service. storage and source may be nil, which
// disables report archiving and Notion import respectively.
func NewService(cfg Config, bundles BundleRepository, embedder Embedder, storage ObjectStorage, source ResumeSource, collectors *metrics.Collectors, logger *slog.Logger) (Service, error) {
	cfg = cfg.withDefaults()
	cache, err := lru.New[string, JDEmbedding](cfg.JDCacheSize)
	if err != nil {
		return nil, fmt.Errorf("init jd cache: %w", err)
	}
	accessor := NewAccessor(bundles, logger)
	return &service{
		cfg:        cfg,
		bundles:    bundles,
		aggregator: NewAggregator(accessor, collectors, logger),
		embedder:   embedder,
		storage:    storage,
		source:     source,
		jdCache:    cache,
		metrics:    collectors,
		logger:     logger.With("component", "matching.service"),
	}, nil
}

func (s *service) Match(ctx context.Context, userID string, req MatchRequest) (MatchResponse, error) {
	if strings.TrimSpace(userID) == "" {
		return MatchResponse{}, apperrors.Wrap("unauthorized", "user id is required", nil)
	}
	if len(req.Sentences) > s.cfg.MaxQueries {
		return MatchResponse{}, apperrors.Wrap("invalid_input", fmt.Sprintf("at most %d sentences per request", s.cfg.MaxQueries), nil)
	}
	results, err := s.aggregator.Match(ctx, userID, req.Sentences)
	if err != nil {
		return MatchResponse{}, apperrors.Wrap("match_error", "failed to match sentences", err)
	}
	return MatchResponse{Results: results}, nil
}

func (s *service) EmbedJobDescription(ctx context.Context, text string) (JDEmbedding, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return JDEmbedding{}, apperrors.Wrap("invalid_input", "job description cannot be empty", nil)
	}
	if utf8.RuneCountInString(text) > s.cfg.MaxJobDescriptionChars {
		return JDEmbedding{}, apperrors.Wrap("invalid_input", fmt.Sprintf("job description exceeds %d characters", s.cfg.MaxJobDescriptionChars), nil)
	}
	hash := util.ContentHash(text)
	if cached, ok := s.jdCache.Get(hash); ok {
		s.metrics.ObserveCache(true)
		out := cloneJDEmbedding(cached)
		out.Cached = true
		return out, nil
	}
	s.metrics.ObserveCache(false)

	sentences := SplitSentences(text)
	if len(sentences) == 0 {
		sentences = []string{text}
	}
	inputs := append([]string{text}, sentences...)
	vectors, err := s.embedder.Embed(ctx, inputs)
	if err != nil {
		return JDEmbedding{}, apperrors.Wrap("embedding_error", "failed to embed job description", err)
	}
	if len(vectors) != len(inputs) {
		return JDEmbedding{}, apperrors.Wrap("embedding_error", fmt.Sprintf("expected %d embeddings, got %d", len(inputs), len(vectors)), nil)
	}
	result := JDEmbedding{
		Hash:      hash,
		Embedding: vectors[0],
		Sentences: make([]JDSentenceQuery, len(sentences)),
	}
	for i, sentence := range sentences {
		result.Sentences[i] = JDSentenceQuery{Sentence: sentence, Embedding: vectors[i+1]}
	}
	s.jdCache.Add(hash, cloneJDEmbedding(result))
	return result, nil
}

// cloneJDEmbedding copies every slice so cache entries never alias caller data.
func cloneJDEmbedding(jd JDEmbedding) JDEmbedding {
	out := jd
	out.Embedding = append([]float32(nil), jd.Embedding...)
	out.Sentences = make([]JDSentenceQuery, len(jd.Sentences))
	for i, q := range jd.Sentences {
		out.Sentences[i] = JDSentenceQuery{Sentence: q.Sentence, Embedding: append([]float32(nil), q.Embedding...)}
	}
	return out
}

func (s *service) MatchText(ctx context.Context, userID string, req MatchTextRequest) (Report, error) {
	if strings.TrimSpace(userID) == "" {
		return Report{}, apperrors.Wrap("unauthorized", "user id is required", nil)
	}
	if req.Archive && s.storage == nil {
		return Report{}, apperrors.Wrap("storage_error", "report archiving is not configured", nil)
	}
	jd, err := s.EmbedJobDescription(ctx, req.JobDescription)
	if err != nil {
		return Report{}, err
	}
	outcome, err := s.aggregator.Run(ctx, userID, jd.Sentences)
	if err != nil {
		return Report{}, apperrors.Wrap("match_error", "failed to match job description", err)
	}

	report := Report{
		ID:         uuid.NewString(),
		UserID:     userID,
		CreatedAt:  util.NowUTC(),
		Overall:    s.overall(jd.Embedding, outcome.Candidates),
		Matches:    outcome.Results,
		Highlights: Highlights(outcome.Results, s.cfg.HighlightMinSimilarity, s.cfg.HighlightMinWords),
	}
	if req.Archive {
		key, err := s.archive(ctx, report)
		if err != nil {
			return Report{}, apperrors.Wrap("storage_error", "failed to archive report", err)
		}
		report.StorageKey = key
	}
	return report, nil
}

func (s *service) GetReport(ctx context.Context, userID, reportID string) (Report, error) {
	if s.storage == nil {
		return Report{}, apperrors.Wrap("not_found", "report archiving is not configured", nil)
	}
	if _, err := uuid.Parse(reportID); err != nil {
		return Report{}, apperrors.Wrap("invalid_input", "invalid report id", err)
	}
	reader, err := s.storage.Get(ctx, s.reportKey(userID, reportID))
	if err != nil {
		if errors.Is(err, ErrObjectNotFound) {
			return Report{}, apperrors.Wrap("not_found", "report not found", err)
		}
		return Report{}, apperrors.Wrap("storage_error", "failed to load report", err)
	}
	defer reader.Close()
	data, err := io.ReadAll(reader)
	if err != nil {
		return Report{}, apperrors.Wrap("storage_error", "failed to read report", err)
	}
	var report Report
	if err := json.Unmarshal(data, &report); err != nil {
		return Report{}, apperrors.Wrap("storage_error", "stored report is malformed", err)
	}
	return report, nil
}

func (s *service) IndexResume(ctx context.Context, userID string, req IndexRequest) (IndexResponse, error) {
	if strings.TrimSpace(userID) == "" {
		return IndexResponse{}, apperrors.Wrap("unauthorized", "user id is required", nil)
	}
	type pending struct {
		contentType ContentType
		sentences   []string
	}
	var (
		blocks []pending
		inputs []string
	)
	for _, block := range req.Blocks {
		sentences := SplitSentences(block.Text)
		if len(sentences) == 0 {
			continue
		}
		contentType := block.ContentType
		if contentType == "" {
			contentType = ContentUnknown
		}
		blocks = append(blocks, pending{contentType: contentType, sentences: sentences})
		inputs = append(inputs, sentences...)
	}
	if len(inputs) == 0 {
		return IndexResponse{}, apperrors.Wrap("invalid_input", "resume blocks contain no sentences", nil)
	}

	vectors, err := s.embedder.Embed(ctx, inputs)
	if err != nil {
		return IndexResponse{}, apperrors.Wrap("embedding_error", "failed to embed resume sentences", err)
	}
	if len(vectors) != len(inputs) {
		return IndexResponse{}, apperrors.Wrap("embedding_error", fmt.Sprintf("expected %d embeddings, got %d", len(inputs), len(vectors)), nil)
	}

	now := util.NowUTC()
	bundles := make([]Bundle, 0, len(blocks))
	offset := 0
	for _, block := range blocks {
		n := len(block.sentences)
		bundles = append(bundles, Bundle{
			ID:          uuid.NewString(),
			UserID:      userID,
			ContentType: block.contentType,
			Sentences:   block.sentences,
			Embeddings:  vectors[offset : offset+n : offset+n],
			CreatedAt:   now,
		})
		offset += n
	}

	var replaced int
	if req.ReplaceExisting {
		replaced, err = s.bundles.ReplaceBundles(ctx, userID, bundles)
		if err != nil {
			return IndexResponse{}, apperrors.Wrap("storage_error", "failed to replace bundles", err)
		}
	} else if err := s.bundles.SaveBundles(ctx, userID, bundles); err != nil {
		return IndexResponse{}, apperrors.Wrap("storage_error", "failed to save bundles", err)
	}
	s.logger.Info("resume indexed", "user_id", userID, "bundles", len(bundles), "sentences", len(inputs), "replaced", replaced)
	return IndexResponse{Bundles: len(bundles), Sentences: len(inputs), Replaced: replaced}, nil
}

func (s *service) ImportNotion(ctx context.Context, userID string, req NotionImportRequest) (IndexResponse, error) {
	if s.source == nil {
		return IndexResponse{}, apperrors.Wrap("notion_disabled", "notion import is not configured", nil)
	}
	blocks, err := s.source.FetchBlocks(ctx, strings.TrimSpace(req.DatabaseID))
	if errors.Is(err, ErrSourceNotAllowed) {
		s.logger.Warn("notion import rejected", "user_id", userID, "database_id", req.DatabaseID)
		return IndexResponse{}, apperrors.Wrap("forbidden", "notion database is not allowed for import", err)
	}
	if err != nil {
		return IndexResponse{}, apperrors.Wrap("notion_error", "failed to load resume from notion", err)
	}
	if len(blocks) == 0 {
		return IndexResponse{}, apperrors.Wrap("invalid_input", "notion database has no resume blocks", nil)
	}
	return s.IndexResume(ctx, userID, IndexRequest{Blocks: blocks, ReplaceExisting: req.ReplaceExisting})
}

func (s *service) overall(jdEmbedding []float32, candidates []SentenceEmbedding) OverallScore {
	vectors := make([][]float32, len(candidates))
	for i, c := range candidates {
		vectors[i] = c.Embedding
	}
	sim := CosineSimilarity(jdEmbedding, Centroid(vectors))
	band, label := BandFor(sim)
	return OverallScore{Similarity: sim, Band: band, Label: label, ResumeSentences: len(candidates)}
}

func (s *service) archive(ctx context.Context, report Report) (string, error) {
	key := s.reportKey(report.UserID, report.ID)
	report.StorageKey = key
	payload, err := json.Marshal(report)
	if err != nil {
		return "", err
	}
	if _, err := s.storage.Put(ctx, key, payload, "application/json"); err != nil {
		return "", err
	}
	return key, nil
}

func (s *service) reportKey(userID, reportID string) string {
	return path.Join(s.cfg.ReportPrefix, userID, reportID+".json")
}

// Highlights keeps confident pairs where both sides read as full sentences, best first.
func Highlights(results []MatchResult, minSimilarity float64, minWords int) []MatchResult {
	out := make([]MatchResult, 0, len(results))
	for _, r := range results {
		if r.Similarity < minSimilarity {
			continue
		}
		if WordCount(r.BestMatch) < minWords || WordCount(r.JDSentence) < minWords {
			continue
		}
		out = append(out, r)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Similarity > out[j].Similarity })
	return out
}
