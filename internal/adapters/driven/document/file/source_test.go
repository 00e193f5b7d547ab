package file

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docbrain/docbrain-cli/internal/core/domain"
)

const testDoc = `[D1:DEFINITION]
Interoception is the sense of the body's internal state.

[D1:MECHANISM]

[D2:DEFINITION]
Stub.
`

func writeDoc(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "research.txt")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestSource_Fetch(t *testing.T) {
	path := writeDoc(t, testDoc)
	source := NewSource(path)

	got, err := source.Fetch(context.Background())

	require.NoError(t, err)
	assert.Equal(t, testDoc, got)
	assert.Equal(t, path, source.Name())
}

func TestSource_FetchMissing(t *testing.T) {
	source := NewSource(filepath.Join(t.TempDir(), "missing.txt"))

	_, err := source.Fetch(context.Background())

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSource_Append(t *testing.T) {
	path := writeDoc(t, testDoc)
	source := NewSource(path)
	ctx := context.Background()

	require.NoError(t, source.Append(ctx, "D1:DEFINITION", "It includes heartbeat awareness."))
	require.NoError(t, source.Append(ctx, "d1:mechanism", "The vagus nerve carries signals."))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, `[D1:DEFINITION]
Interoception is the sense of the body's internal state.

It includes heartbeat awareness.

[D1:MECHANISM]
The vagus nerve carries signals.

[D2:DEFINITION]
Stub.
`, string(data))
}

func TestSource_AppendPreservesMode(t *testing.T) {
	path := writeDoc(t, testDoc)
	source := NewSource(path)

	require.NoError(t, source.Append(context.Background(), "D2:DEFINITION", "More."))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files left behind")
}

func TestSource_AppendUnknownMarkerLeavesFileUntouched(t *testing.T) {
	path := writeDoc(t, testDoc)
	source := NewSource(path)

	err := source.Append(context.Background(), "D9:DEFINITION", "Nowhere to go.")

	require.ErrorIs(t, err, domain.ErrMarkerNotFound)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, testDoc, string(data))
}

func TestSource_AppendMissingFile(t *testing.T) {
	source := NewSource(filepath.Join(t.TempDir(), "missing.txt"))

	err := source.Append(context.Background(), "D1:DEFINITION", "x")

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSource_WatchReportsExternalEdits(t *testing.T) {
	path := writeDoc(t, testDoc)
	source := NewSource(path)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changes := make(chan struct{}, 16)
	done := make(chan error, 1)
	go func() {
		done <- source.Watch(ctx, func() { changes <- struct{}{} })
	}()

	// Give the watcher time to register.
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.WriteFile(path, []byte(testDoc+"\n[D3:DEFINITION]\n"), 0600))

	select {
	case <-changes:
	case <-time.After(5 * time.Second):
		t.Fatal("no change reported")
	}

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not stop")
	}
}

func TestSource_WatchIgnoresOwnAppends(t *testing.T) {
	path := writeDoc(t, testDoc)
	source := NewSource(path)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changes := make(chan struct{}, 16)
	go func() {
		_ = source.Watch(ctx, func() { changes <- struct{}{} })
	}()

	time.Sleep(100 * time.Millisecond)
	require.NoError(t, source.Append(ctx, "D1:MECHANISM", "Own write."))

	select {
	case <-changes:
		t.Fatal("own append reported as external change")
	case <-time.After(300 * time.Millisecond):
	}
}
