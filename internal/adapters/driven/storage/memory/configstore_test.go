package memory

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigStore_SetAndGet(t *testing.T) {
	store := NewConfigStore()

	require.NoError(t, store.Set("document.path", "/docs/research.md"))
	require.NoError(t, store.Set("document.path", "/docs/other.md"))

	val, ok := store.Get("document.path")
	assert.True(t, ok)
	assert.Equal(t, "/docs/other.md", val)

	_, ok = store.Get("missing")
	assert.False(t, ok)
}

func TestConfigStore_TypedGetters(t *testing.T) {
	store := NewConfigStore()
	require.NoError(t, store.Set("index.top_k", 5))
	require.NoError(t, store.Set("index.chunk_size", int64(800)))
	require.NoError(t, store.Set("router.confidence_threshold", 0.6))
	require.NoError(t, store.Set("index.exact_search_limit", float64(5000)))
	require.NoError(t, store.Set("serve.mcp", true))
	require.NoError(t, store.Set("markers", []any{"D1", 2, "D2"}))
	require.NoError(t, store.Set("names", []string{"a"}))

	assert.Equal(t, 5, store.GetInt("index.top_k"))
	assert.Equal(t, 800, store.GetInt("index.chunk_size"))
	assert.Equal(t, 5000, store.GetInt("index.exact_search_limit"))
	assert.InDelta(t, 0.6, store.GetFloat("router.confidence_threshold"), 1e-9)
	assert.InDelta(t, 5.0, store.GetFloat("index.top_k"), 1e-9)
	assert.True(t, store.GetBool("serve.mcp"))
	assert.Equal(t, []string{"D1", "D2"}, store.GetStringSlice("markers"))
	assert.Equal(t, []string{"a"}, store.GetStringSlice("names"))
}

func TestConfigStore_WrongTypesReturnZero(t *testing.T) {
	store := NewConfigStore()
	require.NoError(t, store.Set("s", "text"))
	require.NoError(t, store.Set("n", 3))

	assert.Empty(t, store.GetString("n"))
	assert.Zero(t, store.GetInt("s"))
	assert.Zero(t, store.GetFloat("s"))
	assert.False(t, store.GetBool("s"))
	assert.Nil(t, store.GetStringSlice("n"))
	assert.Nil(t, store.GetStringSlice("missing"))
}

func TestConfigStore_SaveLoadPath(t *testing.T) {
	store := NewConfigStore()

	require.NoError(t, store.Load())
	require.NoError(t, store.Save())
	require.NoError(t, store.Save())

	assert.Equal(t, 2, store.Saves())
	assert.Equal(t, ":memory:", store.Path())
}

func TestConfigStore_Concurrent(t *testing.T) {
	store := NewConfigStore()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			key := fmt.Sprintf("k%d", i%5)
			_ = store.Set(key, i)
			_ = store.GetInt(key)
			_ = store.Save()
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 20, store.Saves())
	for i := 0; i < 5; i++ {
		_, ok := store.Get(fmt.Sprintf("k%d", i))
		assert.True(t, ok)
	}
}
