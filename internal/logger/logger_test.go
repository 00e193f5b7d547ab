package logger

import (
	"bytes"
	"os"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func capture(t *testing.T, verboseOn bool) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	SetOutput(&buf)
	SetVerbose(verboseOn)
	t.Cleanup(func() {
		SetVerbose(false)
		SetOutput(os.Stderr)
	})
	return &buf
}

func TestSetVerbose(t *testing.T) {
	capture(t, false)
	assert.False(t, IsVerbose())

	SetVerbose(true)
	assert.True(t, IsVerbose())

	SetVerbose(false)
	assert.False(t, IsVerbose())
}

func TestLevels(t *testing.T) {
	tests := []struct {
		name string
		log  func()
		want string
	}{
		{"debug", func() { Debug("top score %.2f", 0.82) }, "[DEBUG] top score 0.82\n"},
		{"info", func() { Info("indexed %d chunks", 12) }, "[INFO] indexed 12 chunks\n"},
		{"warn", func() { Warn("falling back to %s", "memory") }, "[WARN] falling back to memory\n"},
		{"section", func() { Section("Query") }, "\n=== Query ===\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := capture(t, true)
			tt.log()
			assert.Equal(t, tt.want, buf.String())
		})
	}
}

func TestQuietByDefault(t *testing.T) {
	buf := capture(t, false)

	Section("Reindex")
	Debug("x")
	Info("y")
	Warn("z")

	assert.Empty(t, buf.String())
}

func TestConcurrentWrites(t *testing.T) {
	buf := capture(t, true)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			Debug("chunk")
		}()
		go func() {
			defer wg.Done()
			SetVerbose(true)
		}()
	}
	wg.Wait()

	assert.Equal(t, 10, bytes.Count(buf.Bytes(), []byte("[DEBUG] chunk")))
}
