package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/docbrain/docbrain-cli/internal/core/domain"
	"github.com/docbrain/docbrain-cli/internal/core/ports/driven"
)

// Ensure VectorStore implements the interface.
var _ driven.VectorStore = (*VectorStore)(nil)

// VectorStore is an in-memory implementation of driven.VectorStore.
// Search is a brute-force cosine scan.
type VectorStore struct {
	mu      sync.RWMutex
	records map[string]domain.VectorRecord
}

// NewVectorStore creates a new in-memory vector store.
func NewVectorStore() *VectorStore {
	return &VectorStore{
		records: make(map[string]domain.VectorRecord),
	}
}

// Upsert stores or replaces records by ID.
func (s *VectorStore) Upsert(_ context.Context, records []domain.VectorRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range records {
		r.Vector = append([]float32(nil), r.Vector...)
		s.records[r.ID] = r
	}
	return nil
}

// Get returns the stored records for the given IDs. Missing IDs are skipped.
func (s *VectorStore) Get(_ context.Context, ids []string) (map[string]domain.VectorRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make(map[string]domain.VectorRecord, len(ids))
	for _, id := range ids {
		if r, ok := s.records[id]; ok {
			result[id] = r
		}
	}
	return result, nil
}

// Delete removes records by ID. Unknown IDs are ignored.
func (s *VectorStore) Delete(_ context.Context, ids []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range ids {
		delete(s.records, id)
	}
	return nil
}

// Search returns the k most similar records, highest score first.
func (s *VectorStore) Search(_ context.Context, query []float32, k int) ([]domain.VectorHit, error) {
	if k <= 0 {
		return nil, nil
	}

	s.mu.RLock()
	hits := make([]domain.VectorHit, 0, len(s.records))
	for id, r := range s.records {
		hits = append(hits, domain.VectorHit{ID: id, Score: domain.CosineSimilarity(query, r.Vector)})
	}
	s.mu.RUnlock()

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
func (s *VectorStore) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records), nil
}

// Close releases resources (no-op for memory store).
func (s *VectorStore) Close() error {
	return nil
}
