package ai

import (
	"github.com/docbrain/docbrain-cli/internal/core/domain"
	"github.com/docbrain/docbrain-cli/internal/core/ports/driven"
)

var _ driven.AIConfigValidator = ConfigValidator{}

// ConfigValidator checks provider settings by pinging the provider. The
// settings service runs it after each provider change.
type ConfigValidator struct{}

// NewConfigValidator returns a ConfigValidator.
func NewConfigValidator() ConfigValidator {
	return ConfigValidator{}
}

// ValidateEmbedding pings the embedding provider described by config.
func (ConfigValidator) ValidateEmbedding(config *domain.EmbeddingSettings) error {
	return ValidateEmbeddingConfig(config)
}

// ValidateLLM pings the LLM provider described by config.
func (ConfigValidator) ValidateLLM(config *domain.LLMSettings) error {
	return ValidateLLMConfig(config)
}
