package driven

import "context"

// LLMService writes grounded answers and gap advice. A nil LLMService is
// allowed: queries then fail with ErrGenerationUnavailable while parsing,
// markers and gap listing keep working.
type LLMService interface {
	// Generate completes a single prompt. Gap advice uses it.
	Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error)

	// Chat answers from a system message carrying the retrieved sections,
	// followed by the conversation so far.
	Chat(ctx context.Context, messages []ChatMessage, opts ChatOptions) (string, error)

	ModelName() string

	// Ping makes the cheapest request the provider offers, without inference
	// where possible.
	Ping(ctx context.Context) error

	Close() error
}

// GenerateOptions tunes a Generate call. Zero MaxTokens leaves the
// provider default.
type GenerateOptions struct {
	MaxTokens   int
	Temperature float64
	StopWords   []string
}

// ChatMessage is one turn. Role is "system", "user" or "assistant".
type ChatMessage struct {
	Role    string
	Content string
}

// ChatOptions tunes a Chat call.
type ChatOptions struct {
	MaxTokens   int
	Temperature float64
}
