package embedder

import (
	"log/slog"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/pkoukk/tiktoken-go"
)

const fallbackEncoding = "cl100k_base"

// newTokenCounter returns a tiktoken based counter for model. The encoding is
// loaded on first use; if it cannot be loaded the rune based estimate is used.
func newTokenCounter(model string, logger *slog.Logger) func(string) int {
	var (
		once sync.Once
		enc  *tiktoken.Tiktoken
	)
	load := func() {
		var err error
		enc, err = tiktoken.EncodingForModel(model)
		if err != nil {
			enc, err = tiktoken.GetEncoding(fallbackEncoding)
		}
		if err != nil {
			logger.Warn("tiktoken encoding unavailable, estimating tokens", "model", model, "error", err)
			enc = nil
		}
	}
	return func(text string) int {
		once.Do(load)
		if enc == nil {
			return EstimateTokens(text)
		}
		return len(enc.Encode(text, nil, nil))
	}
}

// EstimateTokens provides a rough, upper-biased token count.
func EstimateTokens(text string) int {
	if text == "" {
		return 0
	}
	runes := utf8.RuneCountInString(text)
	words := len(strings.Fields(text))
	// ~1 token per 2 runes, never below word count.
	byRunes := (runes + 1) / 2
	if byRunes < words {
		return words
	}
	return byRunes
}
