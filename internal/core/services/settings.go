package services

import (
	"fmt"
	"os"
	"slices"
	"strconv"
	"time"

	"github.com/docbrain/docbrain-cli/internal/core/domain"
	"github.com/docbrain/docbrain-cli/internal/core/ports/driven"
	"github.com/docbrain/docbrain-cli/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keyDocSource         = "document.source"
	keyDocPath           = "document.path"
	keyDocGoogleID       = "document.gdocs_id"
	keyDocCredentials    = "document.gdocs_credentials"
	keyDocToken          = "document.gdocs_token"
	keyEmbedProvider     = "embedding.provider"
	keyEmbedModel        = "embedding.model"
	keyEmbedBaseURL      = "embedding.base_url"
	keyEmbedAPIKey       = "embedding.api_key"
	keyEmbedTimeout      = "embedding.timeout_seconds"
	keyEmbedRPS          = "embedding.requests_per_second"
	keyLLMProvider       = "llm.provider"
	keyLLMModel          = "llm.model"
	keyLLMBaseURL        = "llm.base_url"
	keyLLMAPIKey         = "llm.api_key"
	keyLLMTimeout        = "llm.timeout_seconds"
	keyVectorBackend     = "vector_store.backend"
	keyQdrantHost        = "vector_store.qdrant_host"
	keyQdrantPort        = "vector_store.qdrant_port"
	keyCollection        = "vector_store.collection"
	keyChunkSize         = "index.chunk_size"
	keyChunkOverlap      = "index.chunk_overlap"
	keyTopK              = "index.top_k"
	keyMinScore          = "index.min_score"
	keyExactSearchLimit  = "index.exact_search_limit"
	keyConfidence        = "router.confidence_threshold"
	keyMinContentLength  = "gaps.min_content_length"
	keyPendingTTLSeconds = "gate.pending_ttl_seconds"
)

// Environment overrides. A .env file in the working directory is loaded
// into the environment by the CLI before settings are read.
//
//nolint:gosec // G101: These are variable names, not credentials.
const (
	EnvDocumentPath    = "DOCBRAIN_DOCUMENT_PATH"
	EnvGoogleDocID     = "DOCBRAIN_GDOCS_ID"
	EnvEmbeddingAPIKey = "DOCBRAIN_EMBEDDING_API_KEY"
	EnvLLMAPIKey       = "DOCBRAIN_LLM_API_KEY"
	EnvQdrantHost      = "DOCBRAIN_QDRANT_HOST"
)

// SettingsService manages application settings.
type SettingsService struct {
	configStore driven.ConfigStore
	aiValidator driven.AIConfigValidator
	lookupEnv   func(string) (string, bool)
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore, aiValidator driven.AIConfigValidator) *SettingsService {
	return &SettingsService{
		configStore: configStore,
		aiValidator: aiValidator,
		lookupEnv:   os.LookupEnv,
	}
}

// Get retrieves current application settings. Environment overrides take
// precedence over stored values.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	defaults := domain.DefaultAppSettings()

	settings := &domain.AppSettings{
		Document: domain.DocumentSettings{
			Backend:         s.getDocumentBackend(defaults.Document.Backend),
			Path:            s.configStore.GetString(keyDocPath),
			GoogleDocID:     s.configStore.GetString(keyDocGoogleID),
			CredentialsFile: s.configStore.GetString(keyDocCredentials),
			TokenFile:       s.configStore.GetString(keyDocToken),
		},
		Embedding: domain.EmbeddingSettings{
			Provider:          s.getProvider(keyEmbedProvider, defaults.Embedding.Provider),
			Model:             s.getString(keyEmbedModel, defaults.Embedding.Model),
			BaseURL:           s.configStore.GetString(keyEmbedBaseURL), // No default - empty is valid for cloud providers
			APIKey:            s.configStore.GetString(keyEmbedAPIKey),
			Timeout:           s.getSeconds(keyEmbedTimeout, defaults.Embedding.Timeout),
			RequestsPerSecond: s.getFloat(keyEmbedRPS, defaults.Embedding.RequestsPerSecond),
		},
		LLM: domain.LLMSettings{
			Provider: s.getProvider(keyLLMProvider, defaults.LLM.Provider),
			Model:    s.getString(keyLLMModel, defaults.LLM.Model),
			BaseURL:  s.configStore.GetString(keyLLMBaseURL),
			APIKey:   s.configStore.GetString(keyLLMAPIKey),
			Timeout:  s.getSeconds(keyLLMTimeout, defaults.LLM.Timeout),
		},
		VectorStore: domain.VectorStoreSettings{
			Backend:    s.getVectorBackend(defaults.VectorStore.Backend),
			QdrantHost: s.getString(keyQdrantHost, defaults.VectorStore.QdrantHost),
			QdrantPort: s.getInt(keyQdrantPort, defaults.VectorStore.QdrantPort),
			Collection: s.getString(keyCollection, defaults.VectorStore.Collection),
		},
		Index: domain.IndexSettings{
			ChunkSize:        s.getInt(keyChunkSize, defaults.Index.ChunkSize),
			ChunkOverlap:     s.getInt(keyChunkOverlap, defaults.Index.ChunkOverlap),
			TopK:             s.getInt(keyTopK, defaults.Index.TopK),
			MinScore:         s.getFloat(keyMinScore, defaults.Index.MinScore),
			ExactSearchLimit: s.getInt(keyExactSearchLimit, defaults.Index.ExactSearchLimit),
		},
		ConfidenceThreshold: s.getFloat(keyConfidence, defaults.ConfidenceThreshold),
		MinContentLength:    s.getInt(keyMinContentLength, defaults.MinContentLength),
		PendingTTL:          s.getSeconds(keyPendingTTLSeconds, defaults.PendingTTL),
	}

	s.applyEnv(settings)
	return settings, nil
}

func (s *SettingsService) applyEnv(settings *domain.AppSettings) {
	if v, ok := s.env(EnvDocumentPath); ok {
		settings.Document.Path = v
	}
	if v, ok := s.env(EnvGoogleDocID); ok {
		settings.Document.GoogleDocID = v
	}
	if v, ok := s.env(EnvEmbeddingAPIKey); ok {
		settings.Embedding.APIKey = v
	}
	if v, ok := s.env(EnvLLMAPIKey); ok {
		settings.LLM.APIKey = v
	}
	if v, ok := s.env(EnvQdrantHost); ok {
		settings.VectorStore.QdrantHost = v
	}
}

func (s *SettingsService) env(name string) (string, bool) {
	v, ok := s.lookupEnv(name)
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

// Save persists application settings. API keys supplied through the
// environment are never written to the config file.
func (s *SettingsService) Save(settings *domain.AppSettings) error {
	values := []struct {
		key   string
		value any
	}{
		{keyDocSource, string(settings.Document.Backend)},
		{keyDocPath, settings.Document.Path},
		{keyDocGoogleID, settings.Document.GoogleDocID},
		{keyDocCredentials, settings.Document.CredentialsFile},
		{keyDocToken, settings.Document.TokenFile},
		{keyEmbedProvider, settings.Embedding.Provider.String()},
		{keyEmbedModel, settings.Embedding.Model},
		{keyEmbedBaseURL, settings.Embedding.BaseURL},
		{keyEmbedTimeout, int(settings.Embedding.Timeout / time.Second)},
		{keyEmbedRPS, settings.Embedding.RequestsPerSecond},
		{keyLLMProvider, settings.LLM.Provider.String()},
		{keyLLMModel, settings.LLM.Model},
		{keyLLMBaseURL, settings.LLM.BaseURL},
		{keyLLMTimeout, int(settings.LLM.Timeout / time.Second)},
		{keyVectorBackend, string(settings.VectorStore.Backend)},
		{keyQdrantHost, settings.VectorStore.QdrantHost},
		{keyQdrantPort, settings.VectorStore.QdrantPort},
		{keyCollection, settings.VectorStore.Collection},
		{keyChunkSize, settings.Index.ChunkSize},
		{keyChunkOverlap, settings.Index.ChunkOverlap},
		{keyTopK, settings.Index.TopK},
		{keyMinScore, settings.Index.MinScore},
		{keyExactSearchLimit, settings.Index.ExactSearchLimit},
		{keyConfidence, settings.ConfidenceThreshold},
		{keyMinContentLength, settings.MinContentLength},
		{keyPendingTTLSeconds, int(settings.PendingTTL / time.Second)},
	}
	for _, v := range values {
		if err := s.configStore.Set(v.key, v.value); err != nil {
			return fmt.Errorf("save %s: %w", v.key, err)
		}
	}

	if err := s.saveSecret(keyEmbedAPIKey, EnvEmbeddingAPIKey, settings.Embedding.APIKey); err != nil {
		return err
	}
	return s.saveSecret(keyLLMAPIKey, EnvLLMAPIKey, settings.LLM.APIKey)
}

func (s *SettingsService) saveSecret(key, envName, value string) error {
	if value == "" {
		return nil
	}
	if envValue, ok := s.env(envName); ok && envValue == value {
		return nil
	}
	if err := s.configStore.Set(key, value); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

// SetEmbeddingProvider configures the embedding provider.
func (s *SettingsService) SetEmbeddingProvider(provider domain.AIProvider, model, apiKey string) error {
	if !provider.IsValid() {
		return fmt.Errorf("invalid embedding provider: %s", provider)
	}
	if !slices.Contains(domain.AllEmbeddingProviders(), provider) {
		return fmt.Errorf("provider %s does not support embeddings", provider)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}
	if apiKey == "" {
		apiKey = settings.Embedding.APIKey
	}
	if provider.RequiresAPIKey() && apiKey == "" {
		return fmt.Errorf("API key required for %s", provider)
	}

	settings.Embedding.Provider = provider
	settings.Embedding.Model = modelOrDefault(model, domain.DefaultEmbeddingModels()[provider])
	settings.Embedding.BaseURL = baseURLFor(provider, settings.Embedding.BaseURL)
	settings.Embedding.APIKey = apiKey

	return s.Save(settings)
}

// SetLLMProvider configures the LLM provider.
func (s *SettingsService) SetLLMProvider(provider domain.AIProvider, model, apiKey string) error {
	if !provider.IsValid() {
		return fmt.Errorf("invalid LLM provider: %s", provider)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}
	if apiKey == "" {
		apiKey = settings.LLM.APIKey
	}
	if provider.RequiresAPIKey() && apiKey == "" {
		return fmt.Errorf("API key required for %s", provider)
	}

	settings.LLM.Provider = provider
	settings.LLM.Model = modelOrDefault(model, domain.DefaultLLMModels()[provider])
	settings.LLM.BaseURL = baseURLFor(provider, settings.LLM.BaseURL)
	settings.LLM.APIKey = apiKey

	return s.Save(settings)
}

// SetDocument configures the research document location. For the file
// backend location is a path; for gdocs it is the document ID.
func (s *SettingsService) SetDocument(backend domain.DocumentBackend, location string) error {
	if !backend.IsValid() {
		return fmt.Errorf("%w: unknown document backend %q", domain.ErrUnsupportedType, backend)
	}
	if location == "" {
		return fmt.Errorf("%w: document location is required", domain.ErrInvalidInput)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}

	settings.Document.Backend = backend
	switch backend {
	case domain.DocumentBackendFile:
		settings.Document.Path = location
	case domain.DocumentBackendGoogleDocs:
		settings.Document.GoogleDocID = location
	}

	return s.Save(settings)
}

// Validate checks that current settings are usable.
func (s *SettingsService) Validate() error {
	settings, err := s.Get()
	if err != nil {
		return err
	}
	if err := settings.Validate(); err != nil {
		return err
	}

	switch settings.Document.Backend {
	case domain.DocumentBackendFile:
		if settings.Document.Path == "" {
			return fmt.Errorf("%w: no document configured, run 'docbrain settings document <path>'", domain.ErrInvalidInput)
		}
	case domain.DocumentBackendGoogleDocs:
		if settings.Document.GoogleDocID == "" {
			return fmt.Errorf("%w: no Google Docs ID configured", domain.ErrInvalidInput)
		}
	}

	if !settings.Embedding.IsConfigured() {
		return fmt.Errorf("%w: embedding provider is not configured", domain.ErrInvalidInput)
	}
	return nil
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

// ValidateEmbeddingConfig validates the current embedding configuration by pinging the provider.
func (s *SettingsService) ValidateEmbeddingConfig() error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.aiValidator.ValidateEmbedding(&settings.Embedding)
}

// ValidateLLMConfig validates the current LLM configuration by pinging the provider.
func (s *SettingsService) ValidateLLMConfig() error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.aiValidator.ValidateLLM(&settings.LLM)
}

func modelOrDefault(model, fallback string) string {
	if model != "" {
		return model
	}
	return fallback
}

// baseURLFor keeps a custom endpoint for local providers and clears it for
// cloud providers.
func baseURLFor(provider domain.AIProvider, current string) string {
	if !provider.IsLocal() {
		return ""
	}
	if current == "" {
		return "http://localhost:11434"
	}
	return current
}

// Helper methods for reading config with defaults.

func (s *SettingsService) getString(key, defaultVal string) string {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getInt(key string, defaultVal int) int {
	val := s.configStore.GetInt(key)
	if val == 0 {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getFloat(key string, defaultVal float64) float64 {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	if val := s.configStore.GetFloat(key); val != 0 {
		return val
	}
	// Accept quoted numbers written by hand.
	if f, err := strconv.ParseFloat(s.configStore.GetString(key), 64); err == nil {
		return f
	}
	return 0
}

func (s *SettingsService) getSeconds(key string, defaultVal time.Duration) time.Duration {
	val := s.configStore.GetInt(key)
	if val <= 0 {
		return defaultVal
	}
	return time.Duration(val) * time.Second
}

func (s *SettingsService) getProvider(key string, defaultVal domain.AIProvider) domain.AIProvider {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	provider := domain.AIProvider(val)
	if !provider.IsValid() {
		return defaultVal
	}
	return provider
}

func (s *SettingsService) getDocumentBackend(defaultVal domain.DocumentBackend) domain.DocumentBackend {
	backend := domain.DocumentBackend(s.configStore.GetString(keyDocSource))
	if !backend.IsValid() {
		return defaultVal
	}
	return backend
}

func (s *SettingsService) getVectorBackend(defaultVal domain.VectorBackend) domain.VectorBackend {
	backend := domain.VectorBackend(s.configStore.GetString(keyVectorBackend))
	if !backend.IsValid() {
		return defaultVal
	}
	return backend
}
