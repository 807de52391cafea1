package sentencestore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/yanqian/jobfit/internal/domain/matching"
)

// PostgresBundleRepository stores one row per resume block. The bundle column
// holds {"sentences": [...], "embeddings": [[...]]}, the layout the resume
// builder writes.
type PostgresBundleRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresBundleRepository constructs the repository.
func NewPostgresBundleRepository(pool *pgxpool.Pool) *PostgresBundleRepository {
	return &PostgresBundleRepository{pool: pool}
}

type bundlePayload struct {
	Sentences  []string    `json:"sentences"`
	Embeddings [][]float32 `json:"embeddings"`
}

func (r *PostgresBundleRepository) ListBundles(ctx context.Context, userID string) ([]matching.Bundle, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id::text, user_id, content_type, bundle, created_at
		FROM resume_embeddings
		WHERE user_id = $1
		ORDER BY created_at, id
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bundles []matching.Bundle
	for rows.Next() {
		var (
			b           matching.Bundle
			contentType string
			payload     []byte
		)
		if err := rows.Scan(&b.ID, &b.UserID, &contentType, &payload, &b.CreatedAt); err != nil {
			return nil, err
		}
		if err := decodeBundle(&b, contentType, payload); err != nil {
			return nil, err
		}
		bundles = append(bundles, b)
	}
	return bundles, rows.Err()
}

func (r *PostgresBundleRepository) SaveBundles(ctx context.Context, userID string, bundles []matching.Bundle) error {
	if len(bundles) == 0 {
		return nil
	}
	batch, err := insertBundleBatch(userID, bundles)
	if err != nil {
		return err
	}
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		return tx.SendBatch(ctx, batch).Close()
	})
}

func (r *PostgresBundleRepository) ReplaceBundles(ctx context.Context, userID string, bundles []matching.Bundle) (int, error) {
	batch, err := insertBundleBatch(userID, bundles)
	if err != nil {
		return 0, err
	}
	var removed int
	err = pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `DELETE FROM resume_embeddings WHERE user_id = $1`, userID)
		if err != nil {
			return err
		}
		removed = int(tag.RowsAffected())
		if batch.Len() == 0 {
			return nil
		}
		return tx.SendBatch(ctx, batch).Close()
	})
	if err != nil {
		return 0, err
	}
	return removed, nil
}

func insertBundleBatch(userID string, bundles []matching.Bundle) (*pgx.Batch, error) {
	batch := &pgx.Batch{}
	for _, b := range bundles {
		payload, err := encodeBundle(b)
		if err != nil {
			return nil, err
		}
		createdAt := b.CreatedAt
		if createdAt.IsZero() {
			createdAt = time.Now().UTC()
		}
		batch.Queue(`
			INSERT INTO resume_embeddings (id, user_id, content_type, bundle, created_at)
			VALUES ($1, $2, $3, $4, $5)
		`, b.ID, userID, string(b.ContentType), payload, createdAt)
	}
	return batch, nil
}

func encodeBundle(b matching.Bundle) ([]byte, error) {
	if len(b.Sentences) != len(b.Embeddings) {
		return nil, fmt.Errorf("bundle %s has %d sentences and %d embeddings", b.ID, len(b.Sentences), len(b.Embeddings))
	}
	sentences := b.Sentences
	if sentences == nil {
		sentences = []string{}
	}
	embeddings := b.Embeddings
	if embeddings == nil {
		embeddings = [][]float32{}
	}
	return json.Marshal(bundlePayload{Sentences: sentences, Embeddings: embeddings})
}

func decodeBundle(b *matching.Bundle, contentType string, payload []byte) error {
	b.ContentType = matching.ParseContentType(contentType)
	var decoded bundlePayload
	if err := json.Unmarshal(payload, &decoded); err != nil {
		return fmt.Errorf("decode bundle %s: %w", b.ID, err)
	}
	b.Sentences = decoded.Sentences
	b.Embeddings = decoded.Embeddings
	return nil
}

var _ matching.BundleRepository = (*PostgresBundleRepository)(nil)
