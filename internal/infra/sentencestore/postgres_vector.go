package sentencestore

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	pgvector "github.com/pgvector/pgvector-go"

	"github.com/yanqian/jobfit/internal/domain/matching"
)

// PostgresVectorRepository stores one row per sentence with a pgvector column.
// Rows are regrouped into bundles on read.
type PostgresVectorRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresVectorRepository constructs the repository.
func NewPostgresVectorRepository(pool *pgxpool.Pool) *PostgresVectorRepository {
	return &PostgresVectorRepository{pool: pool}
}

type sentenceRow struct {
	bundleID    string
	userID      string
	contentType string
	sentence    string
	embedding   []float32
	createdAt   time.Time
}

func (r *PostgresVectorRepository) ListBundles(ctx context.Context, userID string) ([]matching.Bundle, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT bundle_id::text, user_id, content_type, sentence, embedding::text, created_at
		FROM resume_sentence_embeddings
		WHERE user_id = $1
		ORDER BY created_at, bundle_id, position
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []sentenceRow
	for rows.Next() {
		var (
			row sentenceRow
			raw any
		)
		if err := rows.Scan(&row.bundleID, &row.userID, &row.contentType, &row.sentence, &raw, &row.createdAt); err != nil {
			return nil, err
		}
		row.embedding, err = normalizeEmbedding(raw)
		if err != nil {
			return nil, fmt.Errorf("decode embedding of bundle %s: %w", row.bundleID, err)
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return groupRows(out), nil
}

func (r *PostgresVectorRepository) SaveBundles(ctx context.Context, userID string, bundles []matching.Bundle) error {
	batch, err := insertSentenceBatch(userID, bundles)
	if err != nil {
		return err
	}
	if batch.Len() == 0 {
		return nil
	}
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		return tx.SendBatch(ctx, batch).Close()
	})
}

func (r *PostgresVectorRepository) ReplaceBundles(ctx context.Context, userID string, bundles []matching.Bundle) (int, error) {
	batch, err := insertSentenceBatch(userID, bundles)
	if err != nil {
		return 0, err
	}
	var removed int
	err = pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if err := tx.QueryRow(ctx, `
			WITH deleted AS (
				DELETE FROM resume_sentence_embeddings WHERE user_id = $1 RETURNING bundle_id
			)
			SELECT COUNT(DISTINCT bundle_id) FROM deleted
		`, userID).Scan(&removed); err != nil {
			return err
		}
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

func insertSentenceBatch(userID string, bundles []matching.Bundle) (*pgx.Batch, error) {
	batch := &pgx.Batch{}
	for _, b := range bundles {
		if len(b.Sentences) != len(b.Embeddings) {
			return nil, fmt.Errorf("bundle %s has %d sentences and %d embeddings", b.ID, len(b.Sentences), len(b.Embeddings))
		}
		createdAt := b.CreatedAt
		if createdAt.IsZero() {
			createdAt = time.Now().UTC()
		}
		for i, sentence := range b.Sentences {
			batch.Queue(`
				INSERT INTO resume_sentence_embeddings (bundle_id, user_id, content_type, position, sentence, embedding, created_at)
				VALUES ($1, $2, $3, $4, $5, $6, $7)
			`, b.ID, userID, string(b.ContentType), i, sentence, pgvector.NewVector(b.Embeddings[i]), createdAt)
		}
	}
	return batch, nil
}

// groupRows folds consecutive rows of the same bundle back into a bundle.
func groupRows(rows []sentenceRow) []matching.Bundle {
	var (
		bundles []matching.Bundle
		index   = make(map[string]int)
	)
	for _, row := range rows {
		pos, ok := index[row.bundleID]
		if !ok {
			pos = len(bundles)
			index[row.bundleID] = pos
			bundles = append(bundles, matching.Bundle{
				ID:          row.bundleID,
				UserID:      row.userID,
				ContentType: matching.ParseContentType(row.contentType),
				CreatedAt:   row.createdAt,
			})
		}
		bundles[pos].Sentences = append(bundles[pos].Sentences, row.sentence)
		bundles[pos].Embeddings = append(bundles[pos].Embeddings, row.embedding)
	}
	return bundles
}

func normalizeEmbedding(raw any) ([]float32, error) {
	switch v := raw.(type) {
	case nil:
		return nil, nil
	case pgvector.Vector:
		return append([]float32(nil), v.Slice()...), nil
	case []float32:
		return append([]float32(nil), v...), nil
	case []float64:
		out := make([]float32, len(v))
		for i, f := range v {
			out[i] = float32(f)
		}
		return out, nil
	case string:
		trimmed := strings.TrimSpace(v)
		trimmed = strings.TrimPrefix(trimmed, "[")
		trimmed = strings.TrimSuffix(trimmed, "]")
		if trimmed == "" {
			return nil, nil
		}
		parts := strings.Split(trimmed, ",")
		out := make([]float32, 0, len(parts))
		for _, p := range parts {
			numStr := strings.TrimSpace(p)
			if numStr == "" {
				continue
			}
			f, err := strconv.ParseFloat(numStr, 32)
			if err != nil {
				return nil, err
			}
			out = append(out, float32(f))
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unsupported embedding type %T", raw)
	}
}

var _ matching.BundleRepository = (*PostgresVectorRepository)(nil)
