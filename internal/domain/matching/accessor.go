package matching

import (
	"context"
	"log/slog"
	"strings"
)

// Accessor flattens a user's stored bundles into individual resume sentences.
type Accessor struct {
	repo   BundleReader
	logger *slog.Logger
}

// NewAccessor constructs an Accessor.
func NewAccessor(repo BundleReader, logger *slog.Logger) *Accessor {
	return &Accessor{repo: repo, logger: logger.With("component", "matching.accessor")}
}

// Fetch returns every usable resume sentence for userID in store order.
// Store failures are logged and reported as an empty list; only caller
// cancellation is returned as an error.
func (a *Accessor) Fetch(ctx context.Context, userID string) ([]SentenceEmbedding, error) {
	bundles, err := a.repo.ListBundles(ctx, userID)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		a.logger.Error("fetch resume bundles failed", "user_id", userID, "error", err)
		return []SentenceEmbedding{}, nil
	}

	out := make([]SentenceEmbedding, 0, countSentences(bundles))
	for _, bundle := range bundles {
		if len(bundle.Sentences) != len(bundle.Embeddings) {
			a.logger.Warn("bundle sentence/embedding count mismatch",
				"user_id", userID,
				"bundle_id", bundle.ID,
				"sentences", len(bundle.Sentences),
				"embeddings", len(bundle.Embeddings))
		}
		contentType := bundle.ContentType
		if contentType == "" {
			contentType = ContentUnknown
		}
		n := min(len(bundle.Sentences), len(bundle.Embeddings))
		for i := 0; i < n; i++ {
			sentence := strings.TrimSpace(bundle.Sentences[i])
			if sentence == "" || len(bundle.Embeddings[i]) == 0 {
				continue
			}
			out = append(out, SentenceEmbedding{
				Sentence:    sentence,
				Embedding:   bundle.Embeddings[i],
				ContentType: contentType,
			})
		}
	}
	return out, nil
}

func countSentences(bundles []Bundle) int {
	total := 0
	for _, b := range bundles {
		total += len(b.Sentences)
	}
	return total
}

var _ SentenceSource = (*Accessor)(nil)
