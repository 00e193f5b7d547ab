package domain

import (
	"fmt"
	"time"
)

const unknownDescription = "Unknown"

// AIProvider identifies an AI service provider for embeddings or LLM.
type AIProvider string

// Available AI providers.
const (
	// AIProviderOllama is local Ollama instance.
	AIProviderOllama AIProvider = "ollama"

	// AIProviderOpenAI is OpenAI cloud API.
	AIProviderOpenAI AIProvider = "openai"

	// AIProviderAnthropic is Anthropic cloud API.
	AIProviderAnthropic AIProvider = "anthropic"
)

// IsValid returns true if the AI provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderOllama, AIProviderOpenAI, AIProviderAnthropic:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p AIProvider) RequiresAPIKey() bool {
	return p == AIProviderOpenAI || p == AIProviderAnthropic
}

// IsLocal returns true if this provider runs locally.
func (p AIProvider) IsLocal() bool {
	return p == AIProviderOllama
}

// String returns the string representation.
func (p AIProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p AIProvider) Description() string {
	switch p {
	case AIProviderOllama:
		return "Ollama (local)"
	case AIProviderOpenAI:
		return "OpenAI (cloud)"
	case AIProviderAnthropic:
		return "Anthropic (cloud)"
	default:
		return unknownDescription
	}
}

// DocumentBackend identifies where the research document lives.
type DocumentBackend string

// Available document backends.
const (
	// DocumentBackendFile is a local UTF-8 text file.
	DocumentBackendFile DocumentBackend = "file"

	// DocumentBackendGoogleDocs is a Google Docs document.
	DocumentBackendGoogleDocs DocumentBackend = "gdocs"
)

// IsValid returns true if the backend is recognised.
func (b DocumentBackend) IsValid() bool {
	return b == DocumentBackendFile || b == DocumentBackendGoogleDocs
}

// VectorBackend identifies the vector storage engine.
type VectorBackend string

// Available vector backends.
const (
	// VectorBackendMemory keeps vectors in process memory only.
	VectorBackendMemory VectorBackend = "memory"

	// VectorBackendSQLite persists vectors in the local SQLite database.
	VectorBackendSQLite VectorBackend = "sqlite"

	// VectorBackendQdrant stores vectors in a Qdrant collection over gRPC.
	VectorBackendQdrant VectorBackend = "qdrant"
)

// IsValid returns true if the backend is recognised.
func (b VectorBackend) IsValid() bool {
	switch b {
	case VectorBackendMemory, VectorBackendSQLite, VectorBackendQdrant:
		return true
	default:
		return false
	}
}

// EmbeddingSettings holds embedding provider configuration.
type EmbeddingSettings struct {
	// Provider is the embedding service provider.
	Provider AIProvider

	// Model is the embedding model name.
	Model string

	// BaseURL is the API endpoint (for Ollama).
	BaseURL string

	// APIKey is the API key (for OpenAI).
	APIKey string

	// Timeout bounds a single embedding call.
	Timeout time.Duration

	// RequestsPerSecond throttles embedding calls. Zero disables throttling.
	RequestsPerSecond float64
}

// IsConfigured returns true if the embedding provider is set up.
func (e EmbeddingSettings) IsConfigured() bool {
	if !e.Provider.IsValid() || e.Provider == AIProviderAnthropic {
		return false
	}
	if e.Provider.RequiresAPIKey() && e.APIKey == "" {
		return false
	}
	return true
}

// LLMSettings holds LLM provider configuration.
type LLMSettings struct {
	// Provider is the LLM service provider.
	Provider AIProvider

	// Model is the LLM model name.
	Model string

	// BaseURL is the API endpoint (for Ollama).
	BaseURL string

	// APIKey is the API key (for OpenAI/Anthropic).
	APIKey string

	// Timeout bounds a single generation call.
	Timeout time.Duration
}

// IsConfigured returns true if the LLM provider is set up.
func (l LLMSettings) IsConfigured() bool {
	if !l.Provider.IsValid() {
		return false
	}
	if l.Provider.RequiresAPIKey() && l.APIKey == "" {
		return false
	}
	return true
}

// DocumentSettings locates the research document.
type DocumentSettings struct {
	// Backend selects the document source adapter.
	Backend DocumentBackend

	// Path is the local file path (file backend).
	Path string

	// GoogleDocID is the document ID (gdocs backend).
	GoogleDocID string

	// CredentialsFile is the OAuth client credentials JSON (gdocs backend).
	CredentialsFile string

	// TokenFile is the stored OAuth token JSON (gdocs backend).
	TokenFile string
}

// VectorStoreSettings configures the vector storage engine.
type VectorStoreSettings struct {
	// Backend selects the storage engine.
	Backend VectorBackend

	// QdrantHost is the Qdrant gRPC host.
	QdrantHost string

	// QdrantPort is the Qdrant gRPC port.
	QdrantPort int

	// Collection is the Qdrant collection name.
	Collection string
}

// IndexSettings tunes chunking and retrieval.
type IndexSettings struct {
	// ChunkSize is the maximum chunk length in runes.
	ChunkSize int

	// ChunkOverlap is the overlap between consecutive sub-chunks in runes.
	ChunkOverlap int

	// TopK is the number of chunks retrieved per query.
	TopK int

	// MinScore is the similarity floor below which results are dropped.
	MinScore float64

	// ExactSearchLimit is the chunk count above which search is delegated
	// to the vector storage engine.
	ExactSearchLimit int
}

// AppSettings holds all application settings.
type AppSettings struct {
	// Document locates the research document.
	Document DocumentSettings

	// Embedding holds embedding provider settings.
	Embedding EmbeddingSettings

	// LLM holds LLM provider settings.
	LLM LLMSettings

	// VectorStore holds vector storage settings.
	VectorStore VectorStoreSettings

	// Index holds chunking and retrieval settings.
	Index IndexSettings

	// ConfidenceThreshold is the router similarity below which a
	// suggestion is flagged as low-confidence.
	ConfidenceThreshold float64

	// MinContentLength is the body length below which a section is INCOMPLETE.
	MinContentLength int

	// PendingTTL is how long a staged edit waits for confirmation.
	PendingTTL time.Duration
}

// Default thresholds.
const (
	DefaultChunkSize           = 1000
	DefaultChunkOverlap        = 200
	DefaultTopK                = 5
	DefaultMinScore            = 0.30
	DefaultExactSearchLimit    = 5000
	DefaultConfidenceThreshold = 0.50
	DefaultMinContentLength    = 20
	DefaultPendingTTL          = 10 * time.Minute
	DefaultEmbeddingTimeout    = 30 * time.Second
	DefaultGenerationTimeout   = 120 * time.Second
	DefaultQdrantPort          = 6334
	DefaultCollection          = "docbrain"
)

// DefaultAppSettings returns settings with sensible defaults.
// Embedding defaults to a local Ollama instance; the LLM is left
// unconfigured until the user picks a provider.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		Document: DocumentSettings{
			Backend: DocumentBackendFile,
		},
		Embedding: EmbeddingSettings{
			Provider: AIProviderOllama,
			Model:    DefaultEmbeddingModels()[AIProviderOllama],
			Timeout:  DefaultEmbeddingTimeout,
		},
		LLM: LLMSettings{
			Timeout: DefaultGenerationTimeout,
		},
		VectorStore: VectorStoreSettings{
			Backend:    VectorBackendSQLite,
			QdrantHost: "localhost",
			QdrantPort: DefaultQdrantPort,
			Collection: DefaultCollection,
		},
		Index: IndexSettings{
			ChunkSize:        DefaultChunkSize,
			ChunkOverlap:     DefaultChunkOverlap,
			TopK:             DefaultTopK,
			MinScore:         DefaultMinScore,
			ExactSearchLimit: DefaultExactSearchLimit,
		},
		ConfidenceThreshold: DefaultConfidenceThreshold,
		MinContentLength:    DefaultMinContentLength,
		PendingTTL:          DefaultPendingTTL,
	}
}

// Validate checks that thresholds are within range.
func (s AppSettings) Validate() error {
	if s.Index.ChunkSize <= 0 {
		return fmt.Errorf("%w: chunk size must be positive", ErrInvalidInput)
	}
	if s.Index.ChunkOverlap < 0 || s.Index.ChunkOverlap >= s.Index.ChunkSize {
		return fmt.Errorf("%w: chunk overlap must be in [0, chunk size)", ErrInvalidInput)
	}
	if s.Index.TopK <= 0 {
		return fmt.Errorf("%w: top_k must be positive", ErrInvalidInput)
	}
	if s.Index.MinScore < -1 || s.Index.MinScore > 1 {
		return fmt.Errorf("%w: min score must be in [-1, 1]", ErrInvalidInput)
	}
	if s.ConfidenceThreshold < 0 || s.ConfidenceThreshold > 1 {
		return fmt.Errorf("%w: confidence threshold must be in [0, 1]", ErrInvalidInput)
	}
	if s.MinContentLength < 0 {
		return fmt.Errorf("%w: min content length must not be negative", ErrInvalidInput)
	}
	if s.PendingTTL <= 0 {
		return fmt.Errorf("%w: pending TTL must be positive", ErrInvalidInput)
	}
	if !s.Document.Backend.IsValid() {
		return fmt.Errorf("%w: unknown document backend %q", ErrUnsupportedType, s.Document.Backend)
	}
	if !s.VectorStore.Backend.IsValid() {
		return fmt.Errorf("%w: unknown vector backend %q", ErrUnsupportedType, s.VectorStore.Backend)
	}
	return nil
}

// AllEmbeddingProviders returns providers that support embeddings.
func AllEmbeddingProviders() []AIProvider {
	return []AIProvider{
		AIProviderOllama,
		AIProviderOpenAI,
	}
}

// AllLLMProviders returns providers that support LLM operations.
func AllLLMProviders() []AIProvider {
	return []AIProvider{
		AIProviderOllama,
		AIProviderOpenAI,
		AIProviderAnthropic,
	}
}

// DefaultEmbeddingModels returns default models for each embedding provider.
func DefaultEmbeddingModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama: "nomic-embed-text",
		AIProviderOpenAI: "text-embedding-3-small",
	}
}

// DefaultLLMModels returns default models for each LLM provider.
func DefaultLLMModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama:    "qwen2.5:14b",
		AIProviderOpenAI:    "gpt-4o-mini",
		AIProviderAnthropic: "claude-3-5-sonnet-latest",
	}
}

// EmbeddingDimensions returns the vector dimensions for known models.
func EmbeddingDimensions() map[string]int {
	return map[string]int{
		// Ollama models
		"nomic-embed-text":  768,
		"mxbai-embed-large": 1024,
		"all-minilm":        384,
		// OpenAI models
		"text-embedding-3-small": 1536,
		"text-embedding-3-large": 3072,
		"text-embedding-ada-002": 1536,
	}
}
