package matching

import (
	"context"
	"io"
)

// BundleReader lists the embedding bundles stored for a user.
type BundleReader interface {
	ListBundles(ctx context.Context, userID string) ([]Bundle, error)
}

// BundleRepository persists embedding bundles.
type BundleRepository interface {
	BundleReader
	SaveBundles(ctx context.Context, userID string, bundles []Bundle) error
	// ReplaceBundles swaps every bundle of userID for bundles in one unit and
	// reports how many were removed. On error the stored set is unchanged.
	ReplaceBundles(ctx context.Context, userID string, bundles []Bundle) (int, error)
}

// SentenceSource yields the flattened resume sentences for a user.
type SentenceSource interface {
	Fetch(ctx context.Context, userID string) ([]SentenceEmbedding, error)
}

// Embedder produces embeddings for free form text.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// ObjectStorage abstracts blob storage used to archive reports.
type ObjectStorage interface {
	Put(ctx context.Context, key string, data []byte, mimeType string) (StoredObject, error)
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}

// StoredObject captures persisted blob metadata.
type StoredObject struct {
	Key      string
	Size     int64
	MimeType string
	ETag     string
}

// ResumeSource loads resume blocks from an external workspace such as Notion.
type ResumeSource interface {
	FetchBlocks(ctx context.Context, databaseID string) ([]ResumeBlock, error)
}
