package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docbrain/docbrain-cli/internal/core/domain"
)

func TestVectorStore_UpsertAndGet(t *testing.T) {
	store := NewVectorStore()
	ctx := context.Background()

	err := store.Upsert(ctx, []domain.VectorRecord{
		{ID: "a", Marker: "D1:DEFINITION", Text: "alpha", Vector: []float32{1, 0}},
		{ID: "b", Marker: "D2:DEFINITION", Text: "beta", Vector: []float32{0, 1}},
	})
	require.NoError(t, err)

	got, err := store.Get(ctx, []string{"a", "missing"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "D1:DEFINITION", got["a"].Marker)
	assert.Equal(t, []float32{1, 0}, got["a"].Vector)

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestVectorStore_Upsert_CopiesVector(t *testing.T) {
	store := NewVectorStore()
	ctx := context.Background()

	vec := []float32{1, 2}
	require.NoError(t, store.Upsert(ctx, []domain.VectorRecord{{ID: "a", Vector: vec}}))
	vec[0] = 99

	got, err := store.Get(ctx, []string{"a"})
	require.NoError(t, err)
	assert.Equal(t, float32(1), got["a"].Vector[0])
}

func TestVectorStore_Search(t *testing.T) {
	store := NewVectorStore()
	ctx := context.Background()

	require.NoError(t, store.Upsert(ctx, []domain.VectorRecord{
		{ID: "x", Vector: []float32{1, 0}},
		{ID: "y", Vector: []float32{0.7, 0.7}},
		{ID: "z", Vector: []float32{0, 1}},
	}))

	hits, err := store.Search(ctx, []float32{1, 0}, 2)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "x", hits[0].ID)
	assert.Equal(t, "y", hits[1].ID)
	assert.InDelta(t, 1.0, hits[0].Score, 1e-6)
}

func TestVectorStore_Search_TiesByID(t *testing.T) {
	store := NewVectorStore()
	ctx := context.Background()

	require.NoError(t, store.Upsert(ctx, []domain.VectorRecord{
		{ID: "b", Vector: []float32{1, 0}},
		{ID: "a", Vector: []float32{1, 0}},
	}))

	hits, err := store.Search(ctx, []float32{1, 0}, 5)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "a", hits[0].ID)
	assert.Equal(t, "b", hits[1].ID)
}

func TestVectorStore_Search_ZeroK(t *testing.T) {
	store := NewVectorStore()
	hits, err := store.Search(context.Background(), []float32{1}, 0)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestVectorStore_Delete(t *testing.T) {
	store := NewVectorStore()
	ctx := context.Background()

	require.NoError(t, store.Upsert(ctx, []domain.VectorRecord{{ID: "a"}, {ID: "b"}}))
	require.NoError(t, store.Delete(ctx, []string{"a", "unknown"}))

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	assert.NoError(t, store.Close())
}
