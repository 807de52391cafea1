package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/stretchr/testify/require"

	"github.com/yanqian/jobfit/internal/domain/auth"
	"github.com/yanqian/jobfit/internal/domain/matching"
	"github.com/yanqian/jobfit/internal/domain/progress"
	"github.com/yanqian/jobfit/internal/domain/tailor"
	"github.com/yanqian/jobfit/internal/infra/config"
	apperrors "github.com/yanqian/jobfit/pkg/errors"
	"github.com/yanqian/jobfit/pkg/metrics"
)

func TestRouter_MatchSuccess(t *testing.T) {
	svc := &stubMatching{
		matchFn: func(ctx context.Context, userID string, req matching.MatchRequest) (matching.MatchResponse, error) {
			require.Equal(t, "user-1", userID)
			require.Len(t, req.Sentences, 1)
			require.Equal(t, "Go experience", req.Sentences[0].Sentence)
			return matching.MatchResponse{Results: []matching.MatchResult{{
				JDSentence:  "Go experience",
				BestMatch:   "Built Go services",
				Similarity:  0.91,
				ContentType: matching.ContentWork,
			}}}, nil
		},
	}

	body := `{"sentences":[{"sentence":"Go experience","embedding":[1,0]}]}`
	recorder := performRequest(newRouterUnderTest(t, devConfig(), svc, &stubTailor{}, nil), http.MethodPost, "/api/v1/match", body, "user-1")
	require.Equal(t, http.StatusOK, recorder.Code)

	var got matching.MatchResponse
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &got))
	require.Len(t, got.Results, 1)
	require.Equal(t, "Built Go services", got.Results[0].BestMatch)
	require.InDelta(t, 0.91, got.Results[0].Similarity, 1e-9)
}

func TestRouter_MatchRequiresUser(t *testing.T) {
	recorder := performRequest(newRouterUnderTest(t, devConfig(), &stubMatching{}, &stubTailor{}, nil), http.MethodPost, "/api/v1/match", `{}`, "")
	require.Equal(t, http.StatusUnauthorized, recorder.Code)

	errBody := decodeErrorBody(t, recorder.Body.Bytes())
	require.Equal(t, "unauthorized", errBody["error"]["code"])
}

func TestRouter_MatchInvalidJSON(t *testing.T) {
	recorder := performRequest(newRouterUnderTest(t, devConfig(), &stubMatching{}, &stubTailor{}, nil), http.MethodPost, "/api/v1/match", `{"sentences":"nope"}`, "user-1")
	require.Equal(t, http.StatusBadRequest, recorder.Code)

	errBody := decodeErrorBody(t, recorder.Body.Bytes())
	require.Equal(t, "invalid_request", errBody["error"]["code"])
	require.NotEmpty(t, errBody["error"]["message"])
}

func TestRouter_DomainErrorsMapToStatus(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"invalid input", apperrors.Wrap("invalid_input", "job description is required", nil), http.StatusBadRequest, "invalid_request"},
		{"upstream embedding", apperrors.Wrap("embedding_error", "embed failed", nil), http.StatusBadGateway, "embedding_failed"},
		{"unknown", apperrors.Wrap("storage_error", "boom", nil), http.StatusInternalServerError, "match_failed"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := &stubMatching{
				matchTextFn: func(ctx context.Context, userID string, req matching.MatchTextRequest) (matching.Report, error) {
					return matching.Report{}, tc.err
				},
			}
			recorder := performRequest(newRouterUnderTest(t, devConfig(), svc, &stubTailor{}, nil), http.MethodPost, "/api/v1/match/text", `{"jobDescription":"x"}`, "user-1")
			require.Equal(t, tc.status, recorder.Code)
			errBody := decodeErrorBody(t, recorder.Body.Bytes())
			require.Equal(t, tc.code, errBody["error"]["code"])
		})
	}
}

func TestRouter_GetReportNotFound(t *testing.T) {
	svc := &stubMatching{
		getReportFn: func(ctx context.Context, userID, reportID string) (matching.Report, error) {
			require.Equal(t, "r-1", reportID)
			return matching.Report{}, apperrors.Wrap("not_found", "report not found", nil)
		},
	}

	recorder := performRequest(newRouterUnderTest(t, devConfig(), svc, &stubTailor{}, nil), http.MethodGet, "/api/v1/match/reports/r-1", "", "user-1")
	require.Equal(t, http.StatusNotFound, recorder.Code)
}

func TestRouter_IndexResumeCreated(t *testing.T) {
	svc := &stubMatching{
		indexFn: func(ctx context.Context, userID string, req matching.IndexRequest) (matching.IndexResponse, error) {
			require.True(t, req.ReplaceExisting)
			require.Equal(t, matching.ContentSkill, req.Blocks[0].ContentType)
			return matching.IndexResponse{Bundles: 1, Sentences: 2}, nil
		},
	}

	body := `{"blocks":[{"contentType":"skill","text":"Go. Postgres."}],"replaceExisting":true}`
	recorder := performRequest(newRouterUnderTest(t, devConfig(), svc, &stubTailor{}, nil), http.MethodPost, "/api/v1/resume/blocks", body, "user-1")
	require.Equal(t, http.StatusCreated, recorder.Code)
	require.JSONEq(t, `{"bundles":1,"sentences":2,"replaced":0}`, recorder.Body.String())
}

func TestRouter_NotionDisabled(t *testing.T) {
	svc := &stubMatching{
		importFn: func(ctx context.Context, userID string, req matching.NotionImportRequest) (matching.IndexResponse, error) {
			return matching.IndexResponse{}, apperrors.Wrap("notion_disabled", "notion import is not configured", nil)
		},
	}

	recorder := performRequest(newRouterUnderTest(t, devConfig(), svc, &stubTailor{}, nil), http.MethodPost, "/api/v1/resume/import/notion", `{}`, "user-1")
	require.Equal(t, http.StatusServiceUnavailable, recorder.Code)
}

func TestRouter_NotionDatabaseForbidden(t *testing.T) {
	svc := &stubMatching{
		importFn: func(ctx context.Context, userID string, req matching.NotionImportRequest) (matching.IndexResponse, error) {
			require.Equal(t, "other-db", req.DatabaseID)
			return matching.IndexResponse{}, apperrors.Wrap("forbidden", "notion database is not allowed for import", matching.ErrSourceNotAllowed)
		},
	}

	recorder := performRequest(newRouterUnderTest(t, devConfig(), svc, &stubTailor{}, nil), http.MethodPost, "/api/v1/resume/import/notion", `{"databaseId":"other-db"}`, "user-1")
	require.Equal(t, http.StatusForbidden, recorder.Code)
	require.Contains(t, recorder.Body.String(), `"forbidden"`)
}

func TestRouter_StartTailorAccepted(t *testing.T) {
	tailorSvc := &stubTailor{
		startFn: func(ctx context.Context, userID string, req tailor.Request) (tailor.StartResponse, error) {
			require.Equal(t, "Backend Engineer", req.JobTitle)
			return tailor.StartResponse{RequestID: "req-1", Status: "running"}, nil
		},
	}

	body := `{"jobTitle":"Backend Engineer","jobDescription":"Go","workExperience":"Built things"}`
	recorder := performRequest(newRouterUnderTest(t, devConfig(), &stubMatching{}, tailorSvc, nil), http.MethodPost, "/api/v1/tailor", body, "user-1")
	require.Equal(t, http.StatusAccepted, recorder.Code)
	require.JSONEq(t, `{"requestId":"req-1","status":"running"}`, recorder.Body.String())
}

func TestRouter_StartTailorQueueUnavailable(t *testing.T) {
	tailorSvc := &stubTailor{
		startFn: func(ctx context.Context, userID string, req tailor.Request) (tailor.StartResponse, error) {
			return tailor.StartResponse{}, apperrors.Wrap("queue_error", "failed to queue job", nil)
		},
	}

	recorder := performRequest(newRouterUnderTest(t, devConfig(), &stubMatching{}, tailorSvc, nil), http.MethodPost, "/api/v1/tailor", `{}`, "user-1")
	require.Equal(t, http.StatusServiceUnavailable, recorder.Code)
	errBody := decodeErrorBody(t, recorder.Body.Bytes())
	require.Equal(t, "queue_unavailable", errBody["error"]["code"])
}

func TestRouter_TailorEventsStream(t *testing.T) {
	tailorSvc := &stubTailor{
		eventsFn: func(ctx context.Context, userID, requestID string) (<-chan progress.Frame, error) {
			require.Equal(t, "req-1", requestID)
			frames := make(chan progress.Frame, 3)
			frames <- progress.Frame{Type: progress.FrameConnected}
			frames <- progress.Frame{Type: string(progress.EventStepStart), Event: &progress.Event{Seq: 1, Type: progress.EventStepStart, Step: 1}}
			frames <- progress.Frame{Type: string(progress.EventCompleted), Event: &progress.Event{Seq: 2, Type: progress.EventCompleted, Content: "done"}}
			close(frames)
			return frames, nil
		},
	}

	recorder := performRequest(newRouterUnderTest(t, devConfig(), &stubMatching{}, tailorSvc, nil), http.MethodGet, "/api/v1/tailor/req-1/events", "", "user-1")
	require.Equal(t, http.StatusOK, recorder.Code)
	require.Equal(t, "text/event-stream", recorder.Header().Get("Content-Type"))

	payloads := parseSSE(t, recorder.Body.String())
	require.Len(t, payloads, 3)
	require.Equal(t, "connected", payloads[0]["type"])
	require.Equal(t, "step_start", payloads[1]["type"])
	require.Equal(t, "completed", payloads[2]["type"])
}

func TestRouter_TailorEventsUnknownRequest(t *testing.T) {
	tailorSvc := &stubTailor{
		eventsFn: func(ctx context.Context, userID, requestID string) (<-chan progress.Frame, error) {
			return nil, apperrors.Wrap("not_found", "progress not found", nil)
		},
	}

	recorder := performRequest(newRouterUnderTest(t, devConfig(), &stubMatching{}, tailorSvc, nil), http.MethodGet, "/api/v1/tailor/missing/events", "", "user-1")
	require.Equal(t, http.StatusNotFound, recorder.Code)
	require.Equal(t, "application/json; charset=utf-8", recorder.Header().Get("Content-Type"))
}

func TestRouter_TokenAuth(t *testing.T) {
	cfg := devConfig()
	cfg.Auth.Disabled = false
	authSvc := &stubAuth{
		validateFn: func(ctx context.Context, token string) (auth.Claims, error) {
			switch token {
			case "good":
				return auth.Claims{UserID: "user-42"}, nil
			case "broken":
				return auth.Claims{}, apperrors.Wrap("internal", "keys unavailable", nil)
			default:
				return auth.Claims{}, apperrors.Wrap("invalid_token", "token is invalid", nil)
			}
		},
	}
	svc := &stubMatching{
		getReportFn: func(ctx context.Context, userID, reportID string) (matching.Report, error) {
			return matching.Report{ID: reportID, UserID: userID}, nil
		},
	}
	server := newRouterUnderTest(t, cfg, svc, &stubTailor{}, authSvc)

	cases := []struct {
		name   string
		header string
		status int
	}{
		{"missing", "", http.StatusUnauthorized},
		{"malformed", "Token good", http.StatusUnauthorized},
		{"invalid", "Bearer bad", http.StatusForbidden},
		{"validator failure", "Bearer broken", http.StatusInternalServerError},
		{"valid", "Bearer good", http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/match/reports/r-9", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			req.Header.Set(devUserHeader, "spoofed")
			recorder := httptest.NewRecorder()
			server.Handler.ServeHTTP(recorder, req)
			require.Equal(t, tc.status, recorder.Code)
			if tc.status == http.StatusOK {
				require.Contains(t, recorder.Body.String(), `"userId":"user-42"`)
			}
		})
	}
}

func TestRouter_HealthAndMetrics(t *testing.T) {
	server := newRouterUnderTest(t, devConfig(), &stubMatching{}, &stubTailor{}, nil)

	recorder := performRequest(server, http.MethodGet, "/healthz", "", "")
	require.Equal(t, http.StatusOK, recorder.Code)
	require.JSONEq(t, `{"status":"ok"}`, recorder.Body.String())

	recorder = performRequest(server, http.MethodGet, "/metrics", "", "")
	require.Equal(t, http.StatusOK, recorder.Code)
	require.Contains(t, recorder.Body.String(), "jobfit_")
}

func TestRouter_CORSPreflight(t *testing.T) {
	server := newRouterUnderTest(t, devConfig(), &stubMatching{}, &stubTailor{}, nil)

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/match", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	recorder := httptest.NewRecorder()
	server.Handler.ServeHTTP(recorder, req)

	require.Equal(t, http.StatusNoContent, recorder.Code)
	require.Equal(t, "http://localhost:3000", recorder.Header().Get("Access-Control-Allow-Origin"))
	require.Contains(t, recorder.Header().Get("Access-Control-Allow-Headers"), devUserHeader)
}

func TestRouter_RateLimit(t *testing.T) {
	cfg := devConfig()
	cfg.HTTP.RateLimit = config.RateLimitConfig{Enabled: true, RequestsPerMinute: 1, Burst: 2}
	server := newRouterUnderTest(t, cfg, &stubMatching{}, &stubTailor{}, nil)

	for i := 0; i < 2; i++ {
		recorder := performRequest(server, http.MethodGet, "/api/v1/match/reports/r-1", "", "user-1")
		require.Equal(t, http.StatusOK, recorder.Code)
	}
	recorder := performRequest(server, http.MethodGet, "/api/v1/match/reports/r-1", "", "user-1")
	require.Equal(t, http.StatusTooManyRequests, recorder.Code)
	errBody := decodeErrorBody(t, recorder.Body.Bytes())
	require.Equal(t, "rate_limit_exceeded", errBody["error"]["code"])
}

func TestIPRateLimiter_RefillsAndForgets(t *testing.T) {
	limiter := newIPRateLimiter(config.RateLimitConfig{Enabled: true, RequestsPerMinute: 60, Burst: 1})
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return now }

	require.True(t, limiter.allow("10.0.0.1"))
	require.False(t, limiter.allow("10.0.0.1"))
	require.True(t, limiter.allow("10.0.0.2"))

	now = now.Add(time.Second)
	require.True(t, limiter.allow("10.0.0.1"))

	now = now.Add(10 * time.Minute)
	require.True(t, limiter.allow("10.0.0.3"))
	require.Len(t, limiter.visitors, 1)
}

func TestRouter_RetriesTransientFailures(t *testing.T) {
	cfg := devConfig()
	cfg.HTTP.Retry = config.RetryConfig{Enabled: true, MaxAttempts: 3, Exclude: []string{"/api/v1/tailor"}}

	attempts := 0
	svc := &stubMatching{
		matchTextFn: func(ctx context.Context, userID string, req matching.MatchTextRequest) (matching.Report, error) {
			attempts++
			require.Equal(t, "Go", req.JobDescription)
			if attempts < 3 {
				return matching.Report{}, apperrors.Wrap("storage_error", "temporary", nil)
			}
			return matching.Report{ID: "r-1"}, nil
		},
	}
	starts := 0
	tailorSvc := &stubTailor{
		startFn: func(ctx context.Context, userID string, req tailor.Request) (tailor.StartResponse, error) {
			starts++
			return tailor.StartResponse{}, apperrors.Wrap("progress_error", "store down", nil)
		},
	}
	server := newRouterUnderTest(t, cfg, svc, tailorSvc, nil)

	recorder := performRequest(server, http.MethodPost, "/api/v1/match/text", `{"jobDescription":"Go"}`, "user-1")
	require.Equal(t, http.StatusOK, recorder.Code)
	require.Equal(t, 3, attempts)

	recorder = performRequest(server, http.MethodPost, "/api/v1/tailor", `{"jobDescription":"Go"}`, "user-1")
	require.Equal(t, http.StatusInternalServerError, recorder.Code)
	require.Equal(t, 1, starts)
}

func TestRetryPolicyDoublesUntilAttemptsRunOut(t *testing.T) {
	cfg := config.RetryConfig{Enabled: true, MaxAttempts: 3, BaseBackoff: 100 * time.Millisecond}

	policy := retryPolicy(context.Background(), cfg)
	require.Equal(t, 100*time.Millisecond, policy.NextBackOff())
	require.Equal(t, 200*time.Millisecond, policy.NextBackOff())
	require.Equal(t, backoff.Stop, policy.NextBackOff())

	policy.Reset()
	require.Equal(t, 100*time.Millisecond, policy.NextBackOff())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.Equal(t, backoff.Stop, retryPolicy(ctx, cfg).NextBackOff())
}

func TestRouter_RetryStopsWhenClientGoesAway(t *testing.T) {
	cfg := devConfig()
	cfg.HTTP.Retry = config.RetryConfig{Enabled: true, MaxAttempts: 5, BaseBackoff: time.Hour}

	ctx, cancel := context.WithCancel(context.Background())
	attempts := 0
	svc := &stubMatching{
		matchTextFn: func(context.Context, string, matching.MatchTextRequest) (matching.Report, error) {
			attempts++
			cancel()
			return matching.Report{}, apperrors.Wrap("storage_error", "temporary", nil)
		},
	}
	server := newRouterUnderTest(t, cfg, svc, &stubTailor{}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/match/text", strings.NewReader(`{"jobDescription":"Go"}`)).WithContext(ctx)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(devUserHeader, "user-1")
	recorder := httptest.NewRecorder()
	server.Handler.ServeHTTP(recorder, req)

	require.Equal(t, 1, attempts)
	require.Equal(t, http.StatusServiceUnavailable, recorder.Code)
}

func TestExcludedPaths(t *testing.T) {
	prefixes := []string{"/api/v1/tailor", "/api/v1/resume/"}
	require.True(t, excluded("/api/v1/tailor", prefixes))
	require.True(t, excluded("/api/v1/tailor/abc/events", prefixes))
	require.True(t, excluded("/api/v1/resume/blocks", prefixes))
	require.False(t, excluded("/api/v1/tailoring", prefixes))
	require.False(t, excluded("/api/v1/match", prefixes))
}

func devConfig() *config.Config {
	return &config.Config{
		HTTP: config.HTTPConfig{
			Address:        ":0",
			AllowedOrigins: []string{"http://localhost:3000"},
		},
		Auth: config.AuthConfig{Disabled: true},
	}
}

func newRouterUnderTest(t *testing.T, cfg *config.Config, matchSvc matching.Service, tailorSvc tailor.Service, authSvc auth.Service) *http.Server {
	t.Helper()
	if authSvc == nil {
		authSvc = &stubAuth{}
	}
	handler := NewHandler(matchSvc, tailorSvc, newTestLogger())
	return NewRouter(cfg, handler, authSvc, metrics.NewCollectors())
}

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func performRequest(server *http.Server, method, path, body, userID string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = bytes.NewBufferString(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if userID != "" {
		req.Header.Set(devUserHeader, userID)
	}
	recorder := httptest.NewRecorder()
	server.Handler.ServeHTTP(recorder, req)
	return recorder
}

func decodeErrorBody(t *testing.T, data []byte) map[string]map[string]string {
	t.Helper()
	var body map[string]map[string]string
	require.NoError(t, json.Unmarshal(data, &body))
	return body
}

func parseSSE(t *testing.T, stream string) []map[string]any {
	t.Helper()
	var payloads []map[string]any
	for _, block := range strings.Split(stream, "\n\n") {
		block = strings.TrimSpace(block)
		if block == "" {
			continue
		}
		require.True(t, strings.HasPrefix(block, "data: "), block)
		var payload map[string]any
		require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(block, "data: ")), &payload))
		payloads = append(payloads, payload)
	}
	return payloads
}

type stubMatching struct {
	matchFn     func(ctx context.Context, userID string, req matching.MatchRequest) (matching.MatchResponse, error)
	embedFn     func(ctx context.Context, text string) (matching.JDEmbedding, error)
	matchTextFn func(ctx context.Context, userID string, req matching.MatchTextRequest) (matching.Report, error)
	getReportFn func(ctx context.Context, userID, reportID string) (matching.Report, error)
	indexFn     func(ctx context.Context, userID string, req matching.IndexRequest) (matching.IndexResponse, error)
	importFn    func(ctx context.Context, userID string, req matching.NotionImportRequest) (matching.IndexResponse, error)
}

func (s *stubMatching) Match(ctx context.Context, userID string, req matching.MatchRequest) (matching.MatchResponse, error) {
	if s.matchFn != nil {
		return s.matchFn(ctx, userID, req)
	}
	return matching.MatchResponse{}, nil
}

func (s *stubMatching) EmbedJobDescription(ctx context.Context, text string) (matching.JDEmbedding, error) {
	if s.embedFn != nil {
		return s.embedFn(ctx, text)
	}
	return matching.JDEmbedding{}, nil
}

func (s *stubMatching) MatchText(ctx context.Context, userID string, req matching.MatchTextRequest) (matching.Report, error) {
	if s.matchTextFn != nil {
		return s.matchTextFn(ctx, userID, req)
	}
	return matching.Report{}, nil
}

func (s *stubMatching) GetReport(ctx context.Context, userID, reportID string) (matching.Report, error) {
	if s.getReportFn != nil {
		return s.getReportFn(ctx, userID, reportID)
	}
	return matching.Report{ID: reportID}, nil
}

func (s *stubMatching) IndexResume(ctx context.Context, userID string, req matching.IndexRequest) (matching.IndexResponse, error) {
	if s.indexFn != nil {
		return s.indexFn(ctx, userID, req)
	}
	return matching.IndexResponse{}, nil
}

func (s *stubMatching) ImportNotion(ctx context.Context, userID string, req matching.NotionImportRequest) (matching.IndexResponse, error) {
	if s.importFn != nil {
		return s.importFn(ctx, userID, req)
	}
	return matching.IndexResponse{}, nil
}

type stubTailor struct {
	startFn  func(ctx context.Context, userID string, req tailor.Request) (tailor.StartResponse, error)
	statusFn func(ctx context.Context, userID, requestID string) (progress.State, error)
	eventsFn func(ctx context.Context, userID, requestID string) (<-chan progress.Frame, error)
}

func (s *stubTailor) Start(ctx context.Context, userID string, req tailor.Request) (tailor.StartResponse, error) {
	if s.startFn != nil {
		return s.startFn(ctx, userID, req)
	}
	return tailor.StartResponse{}, nil
}

func (s *stubTailor) Status(ctx context.Context, userID, requestID string) (progress.State, error) {
	if s.statusFn != nil {
		return s.statusFn(ctx, userID, requestID)
	}
	return progress.State{RequestID: requestID}, nil
}

func (s *stubTailor) Events(ctx context.Context, userID, requestID string) (<-chan progress.Frame, error) {
	if s.eventsFn != nil {
		return s.eventsFn(ctx, userID, requestID)
	}
	frames := make(chan progress.Frame)
	close(frames)
	return frames, nil
}

func (s *stubTailor) HandleJob(context.Context, string, map[string]any) {}

type stubAuth struct {
	validateFn func(ctx context.Context, token string) (auth.Claims, error)
}

func (s *stubAuth) ValidateToken(ctx context.Context, token string) (auth.Claims, error) {
	if s.validateFn != nil {
		return s.validateFn(ctx, token)
	}
	return auth.Claims{}, apperrors.Wrap("invalid_token", "token is invalid", nil)
}

func TestMatchOrigin(t *testing.T) {
	origins := map[string]struct{}{"https://jobfit.dev": {}}

	origin, ok := matchOrigin("https://JobFit.dev/", origins, false)
	require.True(t, ok)
	require.Equal(t, "https://JobFit.dev/", origin)

	_, ok = matchOrigin("https://evil.example", origins, false)
	require.False(t, ok)

	origin, ok = matchOrigin("", nil, true)
	require.True(t, ok)
	require.Equal(t, "*", origin)
}
