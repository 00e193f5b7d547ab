package driven

import "github.com/docbrain/docbrain-cli/internal/core/domain"

// AIConfigValidator confirms that provider settings reach a working model
// before they are relied on. Unconfigured providers pass.
type AIConfigValidator interface {
	ValidateEmbedding(config *domain.EmbeddingSettings) error
	ValidateLLM(config *domain.LLMSettings) error
}
