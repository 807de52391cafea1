package http

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/yanqian/jobfit/internal/infra/config"
)

const retryBodyLimit = 1 << 20 // 1 MiB

var (
	errBodyTooLarge    = errors.New("request body exceeds retry limit")
	errRetryableStatus = errors.New("retryable response status")
)

func withRetry(handler http.Handler, cfg config.RetryConfig, logger *slog.Logger) http.Handler {
	if !cfg.Enabled || cfg.MaxAttempts <= 1 {
		return handler
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || excluded(r.URL.Path, cfg.Exclude) {
			handler.ServeHTTP(w, r)
			return
		}
		bodyBytes, err := readRequestBody(r)
		if err != nil {
			status := http.StatusBadRequest
			if errors.Is(err, errBodyTooLarge) {
				status = http.StatusRequestEntityTooLarge
			}
			http.Error(w, err.Error(), status)
			return
		}

		var (
			attempt int
			last    *retryResponseRecorder
		)
		operation := func() error {
			attempt++
			recorder := newRetryResponseRecorder(w)
			reqCopy := r.Clone(r.Context())
			reqCopy.Body = io.NopCloser(bytes.NewReader(bodyBytes))
			reqCopy.ContentLength = int64(len(bodyBytes))

			handler.ServeHTTP(recorder, reqCopy)
			last = recorder
			if recorder.retryable() {
				return errRetryableStatus
			}
			return nil
		}
		notify := func(_ error, delay time.Duration) {
			logger.Warn("transient failure, retrying request", "path", r.URL.Path, "status", last.statusCode, "attempt", attempt, "backoff", delay)
		}
		if err := backoff.RetryNotify(operation, retryPolicy(r.Context(), cfg), notify); err != nil && r.Context().Err() != nil {
			http.Error(w, "request cancelled", http.StatusServiceUnavailable)
			return
		}
		last.Commit()
	})
}

// retryPolicy doubles BaseBackoff between attempts and stops after
// MaxAttempts runs or when ctx ends.
func retryPolicy(ctx context.Context, cfg config.RetryConfig) backoff.BackOffContext {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = cfg.BaseBackoff
	policy.RandomizationFactor = 0
	policy.Multiplier = 2
	policy.MaxElapsedTime = 0
	policy.Reset()
	return backoff.WithContext(backoff.WithMaxRetries(policy, uint64(cfg.MaxAttempts-1)), ctx)
}

// excluded reports whether path equals or sits below one of the prefixes.
// Non-idempotent endpoints such as job submission must not be replayed.
func excluded(path string, prefixes []string) bool {
	for _, prefix := range prefixes {
		if path == prefix || strings.HasPrefix(path, strings.TrimRight(prefix, "/")+"/") {
			return true
		}
	}
	return false
}

func readRequestBody(r *http.Request) ([]byte, error) {
	if r.Body == nil {
		return nil, nil
	}
	defer r.Body.Close()
	reader := io.LimitReader(r.Body, retryBodyLimit+1)
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, err
	}
	if len(data) > retryBodyLimit {
		return nil, errBodyTooLarge
	}
	return data, nil
}

type retryResponseRecorder struct {
	dst        http.ResponseWriter
	header     http.Header
	body       bytes.Buffer
	statusCode int
	wroteHead  bool
}

func newRetryResponseRecorder(dst http.ResponseWriter) *retryResponseRecorder {
	return &retryResponseRecorder{
		dst:        dst,
		header:     make(http.Header),
		statusCode: http.StatusOK,
	}
}

func (r *retryResponseRecorder) Header() http.Header {
	return r.header
}

func (r *retryResponseRecorder) WriteHeader(status int) {
	if r.wroteHead {
		return
	}
	r.statusCode = status
	r.wroteHead = true
}

func (r *retryResponseRecorder) Write(b []byte) (int, error) {
	return r.body.Write(b)
}

func (r *retryResponseRecorder) Commit() {
	dstHeader := r.dst.Header()
	for k := range dstHeader {
		dstHeader.Del(k)
	}
	for k, values := range r.header {
		copied := make([]string, len(values))
		copy(copied, values)
		dstHeader[k] = copied
	}
	if !r.wroteHead {
		r.statusCode = http.StatusOK
	}
	r.dst.WriteHeader(r.statusCode)
	if r.body.Len() > 0 {
		_, _ = r.dst.Write(r.body.Bytes())
	}
}

func (r *retryResponseRecorder) retryable() bool {
	return r.statusCode >= http.StatusInternalServerError
}

func (r *retryResponseRecorder) Flush() {}
