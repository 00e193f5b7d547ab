package cli

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/docbrain/docbrain-cli/internal/core/domain"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage application settings",
	Long: `View and configure the research document, AI providers, and retrieval
options. Settings are stored in ~/.docbrain/config.toml.

Use subcommands to configure specific settings or run the interactive wizard.`,
	RunE: runSettingsShow,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	RunE:  runSettingsShow,
}

var settingsWizardCmd = &cobra.Command{
	Use:   "wizard",
	Short: "Interactive setup wizard",
	Long:  `Run an interactive wizard to configure the document and AI providers step by step.`,
	RunE:  runSettingsWizard,
}

var settingsDocumentCmd = &cobra.Command{
	Use:   "document [PATH]",
	Short: "Set the research document",
	Long: `Point docbrain at the research document.

  docbrain settings document ./research.md        local file
  docbrain settings document --gdocs DOCUMENT_ID  Google Docs document

Google Docs also needs document.gdocs_credentials and document.gdocs_token
in the config file.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSettingsDocument,
}

var settingsEmbeddingCmd = &cobra.Command{
	Use:   "embedding",
	Short: "Configure embedding provider",
	Long:  `Configure the embedding provider used to index sections and route new content.`,
	RunE:  runSettingsEmbedding,
}

var settingsLLMCmd = &cobra.Command{
	Use:   "llm",
	Short: "Configure LLM provider",
	Long:  `Configure the LLM provider used to write grounded answers and gap advice.`,
	RunE:  runSettingsLLM,
}

var settingsGoogleDocID string

func init() {
	settingsDocumentCmd.Flags().StringVar(&settingsGoogleDocID, "gdocs", "", "Google Docs document ID")
	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsWizardCmd)
	settingsCmd.AddCommand(settingsDocumentCmd)
	settingsCmd.AddCommand(settingsEmbeddingCmd)
	settingsCmd.AddCommand(settingsLLMCmd)
	rootCmd.AddCommand(settingsCmd)
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	cmd.Println("docbrain settings")
	cmd.Println()

	cmd.Println("[Document]")
	cmd.Printf("  Source: %s\n", settings.Document.Backend)
	switch settings.Document.Backend {
	case domain.DocumentBackendGoogleDocs:
		cmd.Printf("  Document ID: %s\n", orNotSet(settings.Document.GoogleDocID))
		cmd.Printf("  Credentials: %s\n", orNotSet(settings.Document.CredentialsFile))
		cmd.Printf("  Token: %s\n", orNotSet(settings.Document.TokenFile))
	default:
		cmd.Printf("  Path: %s\n", orNotSet(settings.Document.Path))
	}
	cmd.Println()

	e, l := settings.Embedding, settings.LLM
	printProvider(cmd, "Embedding", e.Provider, e.Model, e.BaseURL, e.APIKey, e.IsConfigured())
	printProvider(cmd, "LLM", l.Provider, l.Model, l.BaseURL, l.APIKey, l.IsConfigured())

	cmd.Println("[Vector Store]")
	cmd.Printf("  Backend: %s\n", settings.VectorStore.Backend)
	if settings.VectorStore.Backend == domain.VectorBackendQdrant {
		cmd.Printf("  Qdrant: %s:%d (collection %s)\n",
			settings.VectorStore.QdrantHost, settings.VectorStore.QdrantPort, settings.VectorStore.Collection)
	}
	cmd.Println()

	cmd.Println("[Retrieval]")
	cmd.Printf("  Chunk size: %d (overlap %d)\n", settings.Index.ChunkSize, settings.Index.ChunkOverlap)
	cmd.Printf("  Top K: %d\n", settings.Index.TopK)
	cmd.Printf("  Min score: %.2f\n", settings.Index.MinScore)
	cmd.Printf("  Router confidence threshold: %.2f\n", settings.ConfidenceThreshold)
	cmd.Printf("  Min content length: %d\n", settings.MinContentLength)
	cmd.Printf("  Pending edit TTL: %s\n", settings.PendingTTL)
	cmd.Println()

	if err := settingsService.Validate(); err != nil {
		cmd.Printf("Warning: %v\n", err)
		cmd.Println("Run 'docbrain settings wizard' to fix it.")
		return nil
	}
	cmd.Println("Configuration is valid.")

	return nil
}

func runSettingsWizard(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	reader := bufio.NewReader(cmd.InOrStdin())

	heading(cmd, "Step 1: Research document")
	cmd.Print("Path to the document (or gdocs:DOCUMENT_ID): ")
	location := readLine(reader)
	if location != "" {
		backend := domain.DocumentBackendFile
		if id, ok := strings.CutPrefix(location, "gdocs:"); ok {
			backend, location = domain.DocumentBackendGoogleDocs, id
		}
		if err := settingsService.SetDocument(backend, location); err != nil {
			return fmt.Errorf("failed to set document: %w", err)
		}
		cmd.Printf("Document set to: %s (%s)\n\n", location, backend)
	} else {
		cmd.Println("Keeping the current document.")
		cmd.Println()
	}

	heading(cmd, "Step 2: Embedding provider")
	cmd.Println("Sections are embedded to answer questions and route new content.")
	cmd.Println()
	if err := embeddingStep().run(cmd, reader); err != nil {
		return err
	}

	heading(cmd, "Step 3: LLM provider")
	cmd.Println("The LLM writes answers from the retrieved sections.")
	cmd.Println()
	if err := llmStep().run(cmd, reader); err != nil {
		return err
	}

	if err := settingsService.Validate(); err != nil {
		cmd.Printf("Warning: %v\n", err)
		return nil
	}
	cmd.Println("All settings are valid and saved.")
	cmd.Println("Run 'docbrain reindex' to build the index.")
	return nil
}

func runSettingsDocument(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	backend, location := domain.DocumentBackendFile, ""
	switch {
	case settingsGoogleDocID != "" && len(args) == 1:
		return errors.New("give either a path or --gdocs, not both")
	case settingsGoogleDocID != "":
		backend, location = domain.DocumentBackendGoogleDocs, settingsGoogleDocID
	case len(args) == 1:
		location = args[0]
	default:
		return errors.New("a document path or --gdocs DOCUMENT_ID is required")
	}

	if err := settingsService.SetDocument(backend, location); err != nil {
		return fmt.Errorf("failed to set document: %w", err)
	}

	cmd.Printf("Document set to: %s (%s)\n", location, backend)
	cmd.Println("Run 'docbrain reindex' to index it.")
	return nil
}

func runSettingsEmbedding(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	reader := bufio.NewReader(cmd.InOrStdin())
	return embeddingStep().run(cmd, reader)
}

func runSettingsLLM(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	reader := bufio.NewReader(cmd.InOrStdin())
	return llmStep().run(cmd, reader)
}

// providerStep prompts for one AI provider, its model and API key, saves
// the choice and pings the provider.
type providerStep struct {
	kind      string
	providers []domain.AIProvider
	models    map[domain.AIProvider]string
	save      func(provider domain.AIProvider, model, apiKey string) error
	validate  func() error
}

func embeddingStep() providerStep {
	return providerStep{
		kind:      "embedding",
		providers: domain.AllEmbeddingProviders(),
		models:    domain.DefaultEmbeddingModels(),
		save:      settingsService.SetEmbeddingProvider,
		validate:  settingsService.ValidateEmbeddingConfig,
	}
}

func llmStep() providerStep {
	return providerStep{
		kind:      "LLM",
		providers: domain.AllLLMProviders(),
		models:    domain.DefaultLLMModels(),
		save:      settingsService.SetLLMProvider,
		validate:  settingsService.ValidateLLMConfig,
	}
}

func (p providerStep) run(cmd *cobra.Command, reader *bufio.Reader) error {
	cmd.Printf("Choose the %s provider:\n", p.kind)
	for i, provider := range p.providers {
		cmd.Printf("  %d. %s\n", i+1, provider.Description())
	}
	cmd.Print("\nChoice [1]: ")
	provider := p.providers[parseChoice(readLine(reader), len(p.providers), 1)-1]

	model := p.models[provider]
	cmd.Printf("Model [%s]: ", model)
	if typed := readLine(reader); typed != "" {
		model = typed
	}

	var apiKey string
	if provider.RequiresAPIKey() {
		cmd.Print("API key: ")
		apiKey = readPassword(reader)
		cmd.Println()
		if apiKey == "" {
			return fmt.Errorf("API key is required for %s", provider.Description())
		}
	}

	if err := p.save(provider, model, apiKey); err != nil {
		return fmt.Errorf("failed to configure %s provider: %w", p.kind, err)
	}

	cmd.Print("Checking the provider... ")
	if err := p.validate(); err != nil {
		cmd.Printf("FAILED: %v\n", err)
		return fmt.Errorf("%s provider check failed: %w", p.kind, err)
	}
	cmd.Println("OK")
	cmd.Printf("%s provider set: %s (%s)\n\n", p.kind, provider.Description(), model)
	return nil
}

func printProvider(cmd *cobra.Command, title string, provider domain.AIProvider,
	model, baseURL, apiKey string, configured bool,
) {
	cmd.Printf("[%s]\n", title)
	cmd.Printf("  Provider: %s\n", provider.Description())
	cmd.Printf("  Model: %s\n", orNotSet(model))
	if provider.IsLocal() {
		cmd.Printf("  Base URL: %s\n", orNotSet(baseURL))
	}
	if provider.RequiresAPIKey() {
		key := "(not set)"
		if apiKey != "" {
			key = maskAPIKey(apiKey)
		}
		cmd.Printf("  API Key: %s\n", key)
	}
	if configured {
		cmd.Println("  Status: configured")
	} else {
		cmd.Println("  Status: not configured")
	}
	cmd.Println()
}

func heading(cmd *cobra.Command, title string) {
	cmd.Println(title)
	cmd.Println(strings.Repeat("-", len(title)))
}

func readLine(reader *bufio.Reader) string {
	line, _ := reader.ReadString('\n') //nolint:errcheck // EOF yields what was read
	return strings.TrimSpace(line)
}

// parseChoice returns the 1-based menu choice, or def for anything out of range.
func parseChoice(input string, n, def int) int {
	choice, err := strconv.Atoi(input)
	if err != nil || choice < 1 || choice > n {
		return def
	}
	return choice
}

// readPassword reads without echo on a terminal. Piped input, as in
// tests and scripts, is read as a plain line.
func readPassword(reader *bufio.Reader) string {
	if reader.Buffered() == 0 && term.IsTerminal(int(os.Stdin.Fd())) {
		if key, err := term.ReadPassword(int(os.Stdin.Fd())); err == nil {
			return string(key)
		}
	}
	return readLine(reader)
}

func orNotSet(v string) string {
	if v == "" {
		return "(not set)"
	}
	return v
}

// maskAPIKey keeps the first and last four characters of keys long enough
// to stay unguessable.
func maskAPIKey(key string) string {
	const keep = 4
	if len(key) <= 2*keep {
		return "****"
	}
	return key[:keep] + "..." + key[len(key)-keep:]
}
