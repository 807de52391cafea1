package sentencestore

import (
	"context"
	"sync"

	"github.com/yanqian/jobfit/internal/domain/matching"
)

// MemoryRepository keeps bundles in process memory, in insertion order.
type MemoryRepository struct {
	mu      sync.RWMutex
	bundles map[string][]matching.Bundle
}

// NewMemoryRepository constructs an empty repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{bundles: make(map[string][]matching.Bundle)}
}

func (r *MemoryRepository) ListBundles(_ context.Context, userID string) ([]matching.Bundle, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	stored := r.bundles[userID]
	out := make([]matching.Bundle, len(stored))
	for i, b := range stored {
		out[i] = cloneBundle(b)
	}
	return out, nil
}

func (r *MemoryRepository) SaveBundles(_ context.Context, userID string, bundles []matching.Bundle) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.appendLocked(userID, bundles)
	return nil
}

func (r *MemoryRepository) ReplaceBundles(_ context.Context, userID string, bundles []matching.Bundle) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := len(r.bundles[userID])
	delete(r.bundles, userID)
	r.appendLocked(userID, bundles)
	return n, nil
}

func (r *MemoryRepository) appendLocked(userID string, bundles []matching.Bundle) {
	for _, b := range bundles {
		b.UserID = userID
		r.bundles[userID] = append(r.bundles[userID], cloneBundle(b))
	}
}

func cloneBundle(b matching.Bundle) matching.Bundle {
	b.Sentences = append([]string(nil), b.Sentences...)
	embeddings := make([][]float32, len(b.Embeddings))
	for i, e := range b.Embeddings {
		embeddings[i] = append([]float32(nil), e...)
	}
	b.Embeddings = embeddings
	return b
}

var _ matching.BundleRepository = (*MemoryRepository)(nil)
