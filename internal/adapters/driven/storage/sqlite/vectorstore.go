package sqlite

import (
	"context"
	"fmt"
	"sort"

	"github.com/docbrain/docbrain-cli/internal/core/domain"
	"github.com/docbrain/docbrain-cli/internal/core/ports/driven"
)

// maxParams stays below SQLite's default bound-parameter limit.
const maxParams = 500

// vectorStore implements driven.VectorStore.
type vectorStore struct {
	store *Store
}

var _ driven.VectorStore = (*vectorStore)(nil)

// Upsert stores or replaces records in a single transaction.
func (s *vectorStore) Upsert(ctx context.Context, records []domain.VectorRecord) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO vectors (id, marker, position, seq, text, vector, dimensions, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(id) DO UPDATE SET
			marker = excluded.marker,
			position = excluded.position,
			seq = excluded.seq,
			text = excluded.text,
			vector = excluded.vector,
			dimensions = excluded.dimensions,
			updated_at = CURRENT_TIMESTAMP
	`)
	if err != nil {
		return fmt.Errorf("preparing vector upsert: %w", err)
	}
	defer stmt.Close()

	for _, r := range records {
		if len(r.Vector) == 0 {
			return fmt.Errorf("%w: record %s has no vector", domain.ErrInvalidInput, r.ID)
		}
		if _, err := stmt.ExecContext(ctx, r.ID, r.Marker, r.Position, r.Seq, r.Text,
			float32SliceToBytes(r.Vector), len(r.Vector)); err != nil {
			return fmt.Errorf("upserting vector %s: %w", r.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing vectors: %w", err)
	}
	return nil
}

// Get returns the stored records for the given IDs. Missing IDs are skipped.
func (s *vectorStore) Get(ctx context.Context, ids []string) (map[string]domain.VectorRecord, error) {
	result := make(map[string]domain.VectorRecord, len(ids))
	for start := 0; start < len(ids); start += maxParams {
		batch := ids[start:min(start+maxParams, len(ids))]
		args := make([]any, len(batch))
		for i, id := range batch {
			args[i] = id
		}

		//nolint:gosec // G202: only placeholders are concatenated.
		rows, err := s.store.db.QueryContext(ctx, `
			SELECT id, marker, position, seq, text, vector
			FROM vectors WHERE id IN (`+placeholders(len(batch))+`)
		`, args...)
		if err != nil {
			return nil, fmt.Errorf("querying vectors: %w", err)
		}

		for rows.Next() {
			var r domain.VectorRecord
			var blob []byte
			if err := rows.Scan(&r.ID, &r.Marker, &r.Position, &r.Seq, &r.Text, &blob); err != nil {
				rows.Close()
				return nil, fmt.Errorf("scanning vector: %w", err)
			}
			r.Vector = bytesToFloat32Slice(blob)
			result[r.ID] = r
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return nil, fmt.Errorf("iterating vectors: %w", err)
		}
		rows.Close()
	}
	return result, nil
}

// Delete removes records by ID. Unknown IDs are ignored.
func (s *vectorStore) Delete(ctx context.Context, ids []string) error {
	for start := 0; start < len(ids); start += maxParams {
		batch := ids[start:min(start+maxParams, len(ids))]
		args := make([]any, len(batch))
		for i, id := range batch {
			args[i] = id
		}

		//nolint:gosec // G202: only placeholders are concatenated.
		_, err := s.store.db.ExecContext(ctx,
			"DELETE FROM vectors WHERE id IN ("+placeholders(len(batch))+")", args...)
		if err != nil {
			return fmt.Errorf("deleting vectors: %w", err)
		}
	}
	return nil
}

// Search scans every stored vector of matching dimension and returns the
// k most similar, highest score first.
func (s *vectorStore) Search(ctx context.Context, query []float32, k int) ([]domain.VectorHit, error) {
	if k <= 0 || len(query) == 0 {
		return nil, nil
	}

	rows, err := s.store.db.QueryContext(ctx,
		"SELECT id, vector FROM vectors WHERE dimensions = ?", len(query))
	if err != nil {
		return nil, fmt.Errorf("querying vectors: %w", err)
	}
	defer rows.Close()

	var hits []domain.VectorHit //nolint:prealloc // size unknown from query
	for rows.Next() {
		var id string
		var blob []byte
		if err := rows.Scan(&id, &blob); err != nil {
			return nil, fmt.Errorf("scanning vector: %w", err)
		}
		hits = append(hits, domain.VectorHit{
			ID:    id,
			Score: domain.CosineSimilarity(query, bytesToFloat32Slice(blob)),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating vectors: %w", err)
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].ID < hits[j].ID
	})
	if len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

// Count returns the number of stored records.
func (s *vectorStore) Count(ctx context.Context) (int, error) {
	var count int
	if err := s.store.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM vectors").Scan(&count); err != nil {
		return 0, fmt.Errorf("counting vectors: %w", err)
	}
	return count, nil
}

// Close is a no-op; the owning Store closes the database.
func (s *vectorStore) Close() error {
	return nil
}
