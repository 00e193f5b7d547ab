package ai

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docbrain/docbrain-cli/internal/core/domain"
	"github.com/docbrain/docbrain-cli/internal/core/ports/driven"
	"github.com/docbrain/docbrain-cli/internal/metrics"
)

type stubEmbedding struct {
	calls atomic.Int32
	err   error
}

func (s *stubEmbedding) Embed(_ context.Context, text string) ([]float32, error) {
	s.calls.Add(1)
	if s.err != nil {
		return nil, s.err
	}
	return []float32{float32(len(text))}, nil
}

func (s *stubEmbedding) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	s.calls.Add(1)
	if s.err != nil {
		return nil, s.err
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = []float32{float32(len(t))}
	}
	return out, nil
}

func (s *stubEmbedding) Dimensions() int            { return 1 }
func (s *stubEmbedding) ModelName() string          { return "stub" }
func (s *stubEmbedding) Ping(context.Context) error { return nil }
func (s *stubEmbedding) Close() error               { return nil }

type stubLLM struct {
	calls atomic.Int32
	err   error
}

func (s *stubLLM) Generate(context.Context, string, driven.GenerateOptions) (string, error) {
	s.calls.Add(1)
	return "generated", s.err
}

func (s *stubLLM) Chat(context.Context, []driven.ChatMessage, driven.ChatOptions) (string, error) {
	s.calls.Add(1)
	return "chatted", s.err
}

func (s *stubLLM) ModelName() string          { return "stub" }
func (s *stubLLM) Ping(context.Context) error { return nil }
func (s *stubLLM) Close() error               { return nil }

func testBreaker() BreakerConfig {
	return BreakerConfig{ConsecutiveFailures: 2, OpenTimeout: time.Hour, HalfOpenRequests: 1}
}

func TestWrapEmbedding_PassesThrough(t *testing.T) {
	stub := &stubEmbedding{}
	svc := WrapEmbedding(stub, 0, testBreaker(), nil)

	v, err := svc.Embed(context.Background(), "abc")
	require.NoError(t, err)
	assert.Equal(t, []float32{3}, v)

	vs, err := svc.EmbedBatch(context.Background(), []string{"a", "bb"})
	require.NoError(t, err)
	assert.Equal(t, [][]float32{{1}, {2}}, vs)

	assert.Equal(t, 1, svc.Dimensions())
	assert.Equal(t, "stub", svc.ModelName())
	assert.NoError(t, svc.Ping(context.Background()))
	assert.NoError(t, svc.Close())
}

func TestWrapEmbedding_BreakerOpensAfterFailures(t *testing.T) {
	stub := &stubEmbedding{err: errors.New("connection refused")}
	m := metrics.NewCollector()
	svc := WrapEmbedding(stub, 0, testBreaker(), m)

	for range 2 {
		_, err := svc.Embed(context.Background(), "x")
		require.Error(t, err)
		assert.NotErrorIs(t, err, domain.ErrEmbeddingUnavailable, "ordinary failures pass through")
	}

	_, err := svc.Embed(context.Background(), "x")

	assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)
	assert.ErrorContains(t, err, "suspended")
	assert.Equal(t, int32(2), stub.calls.Load(), "open breaker fails fast")
}

func TestWrapEmbedding_CancelDoesNotTrip(t *testing.T) {
	stub := &stubEmbedding{err: context.Canceled}
	svc := WrapEmbedding(stub, 0, testBreaker(), nil)

	for range 5 {
		_, err := svc.EmbedBatch(context.Background(), []string{"x"})
		require.ErrorIs(t, err, context.Canceled)
	}

	assert.Equal(t, int32(5), stub.calls.Load())
}

func TestWrapEmbedding_RateLimit(t *testing.T) {
	stub := &stubEmbedding{}
	svc := WrapEmbedding(stub, 1, testBreaker(), nil)

	_, err := svc.Embed(context.Background(), "first")
	require.NoError(t, err, "the first call uses the burst")

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = svc.Embed(ctx, "second")

	assert.ErrorContains(t, err, "embedding rate limit")
	assert.Equal(t, int32(1), stub.calls.Load())
}

func TestWrapEmbedding_BatchLargerThanBurst(t *testing.T) {
	stub := &stubEmbedding{}
	svc := WrapEmbedding(stub, 1000, testBreaker(), nil)

	texts := make([]string, 1500)
	_, err := svc.EmbedBatch(context.Background(), texts)

	require.NoError(t, err)
}

func TestWrapEmbedding_Nil(t *testing.T) {
	assert.Nil(t, WrapEmbedding(nil, 1, testBreaker(), nil))
	assert.Nil(t, WrapLLM(nil, testBreaker(), nil))
}

func TestWrapLLM(t *testing.T) {
	stub := &stubLLM{}
	svc := WrapLLM(stub, testBreaker(), nil)

	out, err := svc.Generate(context.Background(), "p", driven.GenerateOptions{})
	require.NoError(t, err)
	assert.Equal(t, "generated", out)

	out, err = svc.Chat(context.Background(), nil, driven.ChatOptions{})
	require.NoError(t, err)
	assert.Equal(t, "chatted", out)
	assert.Equal(t, "stub", svc.ModelName())
}

func TestWrapLLM_BreakerOpens(t *testing.T) {
	stub := &stubLLM{err: errors.New("503")}
	svc := WrapLLM(stub, testBreaker(), nil)

	for range 2 {
		_, err := svc.Chat(context.Background(), nil, driven.ChatOptions{})
		require.Error(t, err)
	}
	_, err := svc.Chat(context.Background(), nil, driven.ChatOptions{})

	assert.ErrorIs(t, err, domain.ErrGenerationUnavailable)
	assert.Equal(t, int32(2), stub.calls.Load())
}
