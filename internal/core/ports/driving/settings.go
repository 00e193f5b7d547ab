package driving

import "github.com/docbrain/docbrain-cli/internal/core/domain"

// SettingsService reads and changes docbrain's configuration. Setters
// persist immediately; environment overrides are applied on Get.
type SettingsService interface {
	Get() (*domain.AppSettings, error)
	Save(settings *domain.AppSettings) error
	GetDefaults() domain.AppSettings

	// SetDocument points docbrain at a file path or a Google Docs ID.
	SetDocument(backend domain.DocumentBackend, location string) error

	SetEmbeddingProvider(provider domain.AIProvider, model, apiKey string) error
	SetLLMProvider(provider domain.AIProvider, model, apiKey string) error

	// Validate checks the settings without contacting any provider.
	Validate() error

	// ValidateEmbeddingConfig and ValidateLLMConfig ping the configured
	// provider.
	ValidateEmbeddingConfig() error
	ValidateLLMConfig() error
}
