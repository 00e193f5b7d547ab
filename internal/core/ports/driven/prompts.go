package driven

// PromptStore provides access to LLM prompt templates.
// Implementations may load prompts from files or embed them in the binary.
type PromptStore interface {
	// Load returns the prompt template for the given name.
	// If the prompt is not found, implementations should return the default
	// from DefaultPrompts or an error.
	Load(name string) (string, error)

	// Reload clears any cached prompts, forcing fresh loads on next access.
	// This is useful when prompts may have been edited on disk.
	Reload()
}

// Well-known prompt names used throughout the application.
// These constants define the contract between prompt consumers and providers.
const (
	// PromptAnswerSystem is the system instruction for grounded answers.
	// This prompt has no format placeholders.
	PromptAnswerSystem = "answer_system"

	// PromptNoContext replaces the context block when retrieval found nothing
	// above the score floor. This prompt has no format placeholders.
	PromptNoContext = "no_context"

	// PromptGapAdvice asks for a prioritised narrative of coverage gaps.
	// The template expects a single %s placeholder for the gap listing.
	PromptGapAdvice = "gap_advice"
)

// DefaultPrompts returns the built-in prompt templates.
//
//nolint:lll // Prompt content is intentionally long and should not be wrapped.
func DefaultPrompts() map[string]string {
	return map[string]string{
		PromptAnswerSystem: `You are a research assistant for a structured research document. The document is divided into sections, each introduced by a bracketed marker such as [D1:DEFINITION], where the prefix names a domain and the remainder names the section type.

Answer the user's question using ONLY the context sections provided. Do not use outside knowledge.
Cite every section you rely on by its marker in square brackets, for example [D1:DEFINITION].
If the context does not contain the answer, say plainly that the document does not cover it.
Be concise and precise.`,

		PromptNoContext: `No relevant context was found in the document for this question.
Tell the user that the document does not contain information on this topic and suggest which kind of section could hold it. Do not answer from outside knowledge.`,

		PromptGapAdvice: `The following sections of a structured research document are empty or incomplete:

%s

For each domain, explain briefly what content is expected in the missing sections, why it matters for the framework as a whole, and assign a priority (high, medium, low). Finish with the three most important sections to write next.`,
	}
}
