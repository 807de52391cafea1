package embedder

import (
	"context"
	"hash/fnv"
	"strings"
	"unicode"

	"github.com/yanqian/jobfit/internal/domain/matching"
)

// DeterministicEmbedder avoids network calls by hashing words into a vector.
// Texts sharing words land close together, which keeps local matching useful.
type DeterministicEmbedder struct {
	dim int
}

// NewDeterministicEmbedder constructs the embedder.
func NewDeterministicEmbedder(dim int) *DeterministicEmbedder {
	if dim <= 0 {
		dim = 64
	}
	return &DeterministicEmbedder{dim: dim}
}

// Embed converts each text into a bag-of-words vector.
func (e *DeterministicEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		vector := make([]float32, e.dim)
		words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsDigit(r)
		})
		for _, word := range words {
			hash := fnv.New64a()
			_, _ = hash.Write([]byte(word))
			seed := hash.Sum64()
			vector[seed%uint64(e.dim)] += 1
			seed = seed*1099511628211 + 1469598103934665603
			vector[seed%uint64(e.dim)] += 0.5
		}
		vectors[i] = vector
	}
	return vectors, nil
}

var _ matching.Embedder = (*DeterministicEmbedder)(nil)
