// Package ai builds the embedding and LLM adapters from settings and wraps
// them with rate limiting, circuit breaking and metrics.
package ai

import (
	"context"
	"fmt"
	"time"

	ollamaembed "github.com/docbrain/docbrain-cli/internal/adapters/driven/embedding/ollama"
	openaiembed "github.com/docbrain/docbrain-cli/internal/adapters/driven/embedding/openai"
	anthropicllm "github.com/docbrain/docbrain-cli/internal/adapters/driven/llm/anthropic"
	ollamallm "github.com/docbrain/docbrain-cli/internal/adapters/driven/llm/ollama"
	openaillm "github.com/docbrain/docbrain-cli/internal/adapters/driven/llm/openai"
	"github.com/docbrain/docbrain-cli/internal/core/domain"
	"github.com/docbrain/docbrain-cli/internal/core/ports/driven"
	"github.com/docbrain/docbrain-cli/internal/logger"
	"github.com/docbrain/docbrain-cli/internal/metrics"
)

// pingTimeout bounds the connectivity check made when a provider is set up.
const pingTimeout = 5 * time.Second

// InitResult holds the two model collaborators. Either may be nil, with
// the reason in Warnings.
type InitResult struct {
	EmbeddingService driven.EmbeddingService
	LLMService       driven.LLMService
	Warnings         []string
}

// Close closes whichever services were created.
func (r *InitResult) Close() {
	if r.EmbeddingService != nil {
		_ = r.EmbeddingService.Close()
	}
	if r.LLMService != nil {
		_ = r.LLMService.Close()
	}
}

// Init creates, validates and wraps both collaborators. A service that is
// unconfigured or unreachable is left nil with a warning, so the brain can
// still parse, list markers and analyse gaps without it.
func Init(settings *domain.AppSettings, m *metrics.Collector) *InitResult {
	result := &InitResult{}

	embed, err := CreateAndValidateEmbeddingService(&settings.Embedding)
	switch {
	case err != nil:
		result.Warnings = append(result.Warnings, err.Error())
	case embed == nil:
		result.Warnings = append(result.Warnings, "embedding service not configured, run 'docbrain settings embedding'")
	default:
		result.EmbeddingService = WrapEmbedding(embed, settings.Embedding.RequestsPerSecond, DefaultBreakerConfig(), m)
		logger.Info("Embedding: %s (%s, %d dimensions)", settings.Embedding.Provider, embed.ModelName(), embed.Dimensions())
	}

	llm, err := CreateAndValidateLLMService(&settings.LLM)
	switch {
	case err != nil:
		result.Warnings = append(result.Warnings, err.Error())
	case llm == nil:
		result.Warnings = append(result.Warnings, "LLM not configured, answers are unavailable; run 'docbrain settings llm'")
	default:
		result.LLMService = WrapLLM(llm, DefaultBreakerConfig(), m)
		logger.Info("LLM: %s (%s)", settings.LLM.Provider, llm.ModelName())
	}

	for _, w := range result.Warnings {
		logger.Warn("%s", w)
	}
	return result
}

type pinger interface {
	Ping(ctx context.Context) error
	Close() error
}

// reachable pings svc, closing it when the ping fails.
func reachable[S pinger](svc S, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := svc.Ping(ctx); err != nil {
		_ = svc.Close()
		return err
	}
	return nil
}

// CreateAndValidateEmbeddingService returns a reachable embedding service,
// nil when none is configured, or an ErrEmbeddingUnavailable with a hint.
func CreateAndValidateEmbeddingService(settings *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	const hint = "Run 'docbrain settings embedding' to fix"
	svc, err := CreateEmbeddingService(settings)
	if err != nil {
		return nil, fmt.Errorf("%w: %w. %s", domain.ErrEmbeddingUnavailable, err, hint)
	}
	if svc == nil {
		return nil, nil
	}
	if err := reachable(svc, pingTimeout); err != nil {
		return nil, fmt.Errorf("%w: service unreachable (%w). %s", domain.ErrEmbeddingUnavailable, err, hint)
	}
	return svc, nil
}

// CreateAndValidateLLMService returns a reachable LLM service, nil when
// none is configured, or an ErrGenerationUnavailable with a hint.
func CreateAndValidateLLMService(settings *domain.LLMSettings) (driven.LLMService, error) {
	const hint = "Run 'docbrain settings llm' to fix"
	svc, err := CreateLLMService(settings)
	if err != nil {
		return nil, fmt.Errorf("%w: %w. %s", domain.ErrGenerationUnavailable, err, hint)
	}
	if svc == nil {
		return nil, nil
	}
	if err := reachable(svc, pingTimeout); err != nil {
		return nil, fmt.Errorf("%w: service unreachable (%w). %s", domain.ErrGenerationUnavailable, err, hint)
	}
	return svc, nil
}

// ValidateEmbeddingConfig pings the configured embedding provider once.
// An unconfigured provider is not an error.
func ValidateEmbeddingConfig(settings *domain.EmbeddingSettings) error {
	svc, err := CreateEmbeddingService(settings)
	if err != nil || svc == nil {
		return err
	}
	if err := reachable(svc, pingTimeout); err != nil {
		return err
	}
	return svc.Close()
}

// ValidateLLMConfig pings the configured LLM provider once.
// An unconfigured provider is not an error.
func ValidateLLMConfig(settings *domain.LLMSettings) error {
	svc, err := CreateLLMService(settings)
	if err != nil || svc == nil {
		return err
	}
	if err := reachable(svc, pingTimeout); err != nil {
		return err
	}
	return svc.Close()
}

// CreateEmbeddingService builds the adapter for settings.Provider without
// contacting it. It returns nil, nil when embeddings are not configured.
func CreateEmbeddingService(settings *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	if settings == nil {
		return nil, nil
	}
	if settings.Provider == domain.AIProviderAnthropic {
		return nil, fmt.Errorf("anthropic does not support embeddings, use ollama or openai")
	}
	if !settings.IsConfigured() {
		return nil, nil
	}

	switch settings.Provider {
	case domain.AIProviderOllama:
		dimensions := domain.EmbeddingDimensions()[settings.Model]
		return ollamaembed.NewEmbeddingService(ollamaembed.Config{
			BaseURL:    settings.BaseURL,
			Model:      settings.Model,
			Timeout:    settings.Timeout,
			Dimensions: dimensions,
		}), nil

	case domain.AIProviderOpenAI:
		return openaiembed.NewEmbeddingService(openaiembed.Config{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
			Timeout: settings.Timeout,
		})

	default:
		return nil, fmt.Errorf("%w: embedding provider %s", domain.ErrUnsupportedType, settings.Provider)
	}
}

// CreateLLMService builds the adapter for settings.Provider without
// contacting it. It returns nil, nil when no LLM is configured.
func CreateLLMService(settings *domain.LLMSettings) (driven.LLMService, error) {
	if settings == nil || !settings.IsConfigured() {
		return nil, nil
	}

	switch settings.Provider {
	case domain.AIProviderOllama:
		return ollamallm.NewLLMService(ollamallm.LLMConfig{
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
			Timeout: settings.Timeout,
		}), nil

	case domain.AIProviderOpenAI:
		return openaillm.NewLLMService(openaillm.LLMConfig{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
			Timeout: settings.Timeout,
		})

	case domain.AIProviderAnthropic:
		return anthropicllm.NewLLMService(anthropicllm.Config{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
			Timeout: settings.Timeout,
		})

	default:
		return nil, fmt.Errorf("%w: LLM provider %s", domain.ErrUnsupportedType, settings.Provider)
	}
}
