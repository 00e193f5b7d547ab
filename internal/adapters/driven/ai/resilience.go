package ai

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/docbrain/docbrain-cli/internal/core/domain"
	"github.com/docbrain/docbrain-cli/internal/core/ports/driven"
	"github.com/docbrain/docbrain-cli/internal/logger"
	"github.com/docbrain/docbrain-cli/internal/metrics"
)

// Ensure the wrappers implement the interfaces.
var (
	_ driven.EmbeddingService = (*resilientEmbedding)(nil)
	_ driven.LLMService       = (*resilientLLM)(nil)
)

// Service names used for breakers and metrics.
const (
	ServiceEmbedding  = "embedding"
	ServiceGeneration = "generation"
)

// BreakerConfig tunes the circuit breaker around a collaborator.
type BreakerConfig struct {
	// ConsecutiveFailures trips the breaker open.
	ConsecutiveFailures uint32

	// OpenTimeout is how long the breaker stays open before a trial call.
	OpenTimeout time.Duration

	// HalfOpenRequests is how many trial calls are allowed while half-open.
	HalfOpenRequests uint32
}

// DefaultBreakerConfig returns the breaker settings used by the factory.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		ConsecutiveFailures: 5,
		OpenTimeout:         30 * time.Second,
		HalfOpenRequests:    1,
	}
}

func newBreaker(service string, cfg BreakerConfig, m *metrics.Collector) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        service,
		MaxRequests: cfg.HalfOpenRequests,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.ConsecutiveFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("Circuit breaker %s: %s -> %s", name, from, to)
			m.SetBreakerState(name, int(to))
		},
		// A caller giving up is not a collaborator failure.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
	})
}

// breakerError converts a rejected call into the service's sentinel.
func breakerError(sentinel error, service string, err error) error {
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("%w: %s calls suspended after repeated failures: %w", sentinel, service, err)
	}
	return err
}

// resilientEmbedding throttles and guards an embedding service.
type resilientEmbedding struct {
	next    driven.EmbeddingService
	breaker *gobreaker.CircuitBreaker
	limiter *rate.Limiter
	metrics *metrics.Collector
}

// WrapEmbedding adds a circuit breaker and, when rps > 0, a token-bucket
// limiter in front of svc. A batch takes one token per text.
func WrapEmbedding(svc driven.EmbeddingService, rps float64, cfg BreakerConfig, m *metrics.Collector) driven.EmbeddingService {
	if svc == nil {
		return nil
	}
	w := &resilientEmbedding{
		next:    svc,
		breaker: newBreaker(ServiceEmbedding, cfg, m),
		metrics: m,
	}
	if rps > 0 {
		w.limiter = rate.NewLimiter(rate.Limit(rps), max(1, int(rps)))
	}
	return w
}

func (w *resilientEmbedding) wait(ctx context.Context, n int) error {
	if w.limiter == nil {
		return nil
	}
	// WaitN fails outright when n exceeds the burst, so take tokens in burst-sized steps.
	for n > 0 {
		step := min(n, w.limiter.Burst())
		if err := w.limiter.WaitN(ctx, step); err != nil {
			return fmt.Errorf("embedding rate limit: %w", err)
		}
		n -= step
	}
	return nil
}

func (w *resilientEmbedding) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := w.wait(ctx, 1); err != nil {
		return nil, err
	}
	start := time.Now()
	out, err := w.breaker.Execute(func() (any, error) {
		return w.next.Embed(ctx, text)
	})
	w.metrics.ObserveCall(ServiceEmbedding, time.Since(start), err)
	if err != nil {
		return nil, breakerError(domain.ErrEmbeddingUnavailable, ServiceEmbedding, err)
	}
	return out.([]float32), nil
}

func (w *resilientEmbedding) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if err := w.wait(ctx, len(texts)); err != nil {
		return nil, err
	}
	start := time.Now()
	out, err := w.breaker.Execute(func() (any, error) {
		return w.next.EmbedBatch(ctx, texts)
	})
	w.metrics.ObserveCall(ServiceEmbedding, time.Since(start), err)
	if err != nil {
		return nil, breakerError(domain.ErrEmbeddingUnavailable, ServiceEmbedding, err)
	}
	return out.([][]float32), nil
}

func (w *resilientEmbedding) Dimensions() int                { return w.next.Dimensions() }
func (w *resilientEmbedding) ModelName() string              { return w.next.ModelName() }
func (w *resilientEmbedding) Ping(ctx context.Context) error { return w.next.Ping(ctx) }
func (w *resilientEmbedding) Close() error                   { return w.next.Close() }

// resilientLLM guards an LLM service with a circuit breaker.
type resilientLLM struct {
	next    driven.LLMService
	breaker *gobreaker.CircuitBreaker
	metrics *metrics.Collector
}

// WrapLLM adds a circuit breaker in front of svc.
func WrapLLM(svc driven.LLMService, cfg BreakerConfig, m *metrics.Collector) driven.LLMService {
	if svc == nil {
		return nil
	}
	return &resilientLLM{
		next:    svc,
		breaker: newBreaker(ServiceGeneration, cfg, m),
		metrics: m,
	}
}

func (w *resilientLLM) call(fn func() (string, error)) (string, error) {
	start := time.Now()
	out, err := w.breaker.Execute(func() (any, error) {
		return fn()
	})
	w.metrics.ObserveCall(ServiceGeneration, time.Since(start), err)
	if err != nil {
		return "", breakerError(domain.ErrGenerationUnavailable, ServiceGeneration, err)
	}
	return out.(string), nil
}

func (w *resilientLLM) Generate(ctx context.Context, prompt string, opts driven.GenerateOptions) (string, error) {
	return w.call(func() (string, error) { return w.next.Generate(ctx, prompt, opts) })
}

func (w *resilientLLM) Chat(ctx context.Context, messages []driven.ChatMessage, opts driven.ChatOptions) (string, error) {
	return w.call(func() (string, error) { return w.next.Chat(ctx, messages, opts) })
}

func (w *resilientLLM) ModelName() string              { return w.next.ModelName() }
func (w *resilientLLM) Ping(ctx context.Context) error { return w.next.Ping(ctx) }
func (w *resilientLLM) Close() error                   { return w.next.Close() }
