package ai

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ollamaembed "github.com/docbrain/docbrain-cli/internal/adapters/driven/embedding/ollama"
	openaiembed "github.com/docbrain/docbrain-cli/internal/adapters/driven/embedding/openai"
	anthropicllm "github.com/docbrain/docbrain-cli/internal/adapters/driven/llm/anthropic"
	ollamallm "github.com/docbrain/docbrain-cli/internal/adapters/driven/llm/ollama"
	openaillm "github.com/docbrain/docbrain-cli/internal/adapters/driven/llm/openai"
	"github.com/docbrain/docbrain-cli/internal/core/domain"
	"github.com/docbrain/docbrain-cli/internal/metrics"
)

func TestInitResult_Close(t *testing.T) {
	t.Run("close with nil services", func(t *testing.T) {
		result := &InitResult{}
		assert.NotPanics(t, result.Close)
	})
}

func TestCreateEmbeddingService(t *testing.T) {
	tests := []struct {
		name        string
		settings    *domain.EmbeddingSettings
		wantType    any
		errContains string
	}{
		{
			name:     "nil settings returns nil",
			settings: nil,
		},
		{
			name:     "unconfigured settings returns nil",
			settings: &domain.EmbeddingSettings{},
		},
		{
			name: "ollama provider creates service",
			settings: &domain.EmbeddingSettings{
				Provider: domain.AIProviderOllama,
				BaseURL:  "http://localhost:11434",
				Model:    "nomic-embed-text",
			},
			wantType: &ollamaembed.EmbeddingService{},
		},
		{
			name: "openai provider creates service",
			settings: &domain.EmbeddingSettings{
				Provider: domain.AIProviderOpenAI,
				APIKey:   "test-key",
				Model:    "text-embedding-3-small",
			},
			wantType: &openaiembed.EmbeddingService{},
		},
		{
			name: "openai without key is not configured",
			settings: &domain.EmbeddingSettings{
				Provider: domain.AIProviderOpenAI,
			},
		},
		{
			name: "anthropic provider returns error",
			settings: &domain.EmbeddingSettings{
				Provider: domain.AIProviderAnthropic,
				APIKey:   "test-key",
			},
			errContains: "anthropic does not support embeddings",
		},
		{
			name: "unknown provider returns nil",
			settings: &domain.EmbeddingSettings{
				Provider: "unknown",
				APIKey:   "test-key",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, err := CreateEmbeddingService(tt.settings)

			if tt.errContains != "" {
				assert.ErrorContains(t, err, tt.errContains)
				assert.Nil(t, svc)
				return
			}
			require.NoError(t, err)
			if tt.wantType == nil {
				assert.Nil(t, svc)
				return
			}
			assert.IsType(t, tt.wantType, svc)
		})
	}
}

func TestCreateEmbeddingService_Dimensions(t *testing.T) {
	svc, err := CreateEmbeddingService(&domain.EmbeddingSettings{
		Provider: domain.AIProviderOllama,
		Model:    "mxbai-embed-large",
	})

	require.NoError(t, err)
	assert.Equal(t, 1024, svc.Dimensions())
	assert.Equal(t, "mxbai-embed-large", svc.ModelName())
}

func TestCreateLLMService(t *testing.T) {
	tests := []struct {
		name     string
		settings *domain.LLMSettings
		wantType any
	}{
		{"nil settings returns nil", nil, nil},
		{"unconfigured settings returns nil", &domain.LLMSettings{}, nil},
		{
			"ollama provider creates service",
			&domain.LLMSettings{Provider: domain.AIProviderOllama, Model: "llama3.2"},
			&ollamallm.LLMService{},
		},
		{
			"openai provider creates service",
			&domain.LLMSettings{Provider: domain.AIProviderOpenAI, APIKey: "k"},
			&openaillm.LLMService{},
		},
		{
			"anthropic provider creates service",
			&domain.LLMSettings{Provider: domain.AIProviderAnthropic, APIKey: "k"},
			&anthropicllm.LLMService{},
		},
		{
			"anthropic without key is not configured",
			&domain.LLMSettings{Provider: domain.AIProviderAnthropic},
			nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, err := CreateLLMService(tt.settings)

			require.NoError(t, err)
			if tt.wantType == nil {
				assert.Nil(t, svc)
				return
			}
			assert.IsType(t, tt.wantType, svc)
		})
	}
}

func TestCreateAndValidateEmbeddingService_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	svc, err := CreateAndValidateEmbeddingService(&domain.EmbeddingSettings{
		Provider: domain.AIProviderOllama,
		BaseURL:  url,
	})

	assert.Nil(t, svc)
	assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)
	assert.ErrorContains(t, err, "docbrain settings embedding")
}

func TestCreateAndValidateLLMService_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	svc, err := CreateAndValidateLLMService(&domain.LLMSettings{
		Provider: domain.AIProviderOllama,
		BaseURL:  srv.URL,
	})

	assert.Nil(t, svc)
	assert.ErrorIs(t, err, domain.ErrGenerationUnavailable)
}

func TestCreateAndValidate_NotConfigured(t *testing.T) {
	embed, err := CreateAndValidateEmbeddingService(&domain.EmbeddingSettings{})
	assert.NoError(t, err)
	assert.Nil(t, embed)

	llm, err := CreateAndValidateLLMService(&domain.LLMSettings{})
	assert.NoError(t, err)
	assert.Nil(t, llm)
}

func TestInit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	t.Run("both services reachable", func(t *testing.T) {
		settings := domain.DefaultAppSettings()
		settings.Embedding = domain.EmbeddingSettings{
			Provider:          domain.AIProviderOllama,
			BaseURL:           srv.URL,
			Timeout:           time.Second,
			RequestsPerSecond: 10,
		}
		settings.LLM = domain.LLMSettings{Provider: domain.AIProviderOllama, BaseURL: srv.URL}

		result := Init(&settings, metrics.NewCollector())
		defer result.Close()

		assert.Empty(t, result.Warnings)
		assert.IsType(t, &resilientEmbedding{}, result.EmbeddingService)
		assert.IsType(t, &resilientLLM{}, result.LLMService)
	})

	t.Run("missing llm is a warning", func(t *testing.T) {
		settings := domain.DefaultAppSettings()
		settings.Embedding.BaseURL = srv.URL

		result := Init(&settings, nil)
		defer result.Close()

		require.Len(t, result.Warnings, 1)
		assert.Contains(t, result.Warnings[0], "LLM not configured")
		assert.NotNil(t, result.EmbeddingService)
		assert.Nil(t, result.LLMService)
	})
}
