// Command docbrain answers questions from a [MARKER]-sectioned research
// document and files new findings into it after confirmation.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/docbrain/docbrain-cli/internal/adapters/driven/ai"
	"github.com/docbrain/docbrain-cli/internal/adapters/driven/config/file"
	docfile "github.com/docbrain/docbrain-cli/internal/adapters/driven/document/file"
	"github.com/docbrain/docbrain-cli/internal/adapters/driven/document/gdocs"
	"github.com/docbrain/docbrain-cli/internal/adapters/driven/storage/memory"
	"github.com/docbrain/docbrain-cli/internal/adapters/driven/storage/qdrant"
	"github.com/docbrain/docbrain-cli/internal/adapters/driven/storage/sqlite"
	"github.com/docbrain/docbrain-cli/internal/adapters/driving/cli"
	"github.com/docbrain/docbrain-cli/internal/core/domain"
	"github.com/docbrain/docbrain-cli/internal/core/ports/driven"
	"github.com/docbrain/docbrain-cli/internal/core/services"
	"github.com/docbrain/docbrain-cli/internal/logger"
	"github.com/docbrain/docbrain-cli/internal/metrics"
	"github.com/docbrain/docbrain-cli/internal/postprocessors/chunker"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

// janitorInterval is how often orphaned pending edits are expired in serve mode.
const janitorInterval = time.Minute

func main() {
	os.Exit(run())
}

func run() int {
	// A missing .env is fine; the environment and config file still apply.
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Wiring logs before cobra parses flags.
	for _, arg := range os.Args[1:] {
		if arg == "-v" || arg == "--verbose" {
			logger.SetVerbose(true)
		}
	}

	cleanup, err := wire(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	defer cleanup()

	if err := cli.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

// wire builds the adapters and services from settings and hands them to
// the CLI. The returned cleanup releases stores and clients.
func wire(ctx context.Context) (func(), error) {
	cli.SetVersion(version)

	home, err := file.HomeDir()
	if err != nil {
		return nil, err
	}

	configStore, err := file.NewConfigStore(home)
	if err != nil {
		return nil, fmt.Errorf("opening config: %w", err)
	}
	settingsService := services.NewSettingsService(configStore, ai.NewConfigValidator())
	cli.SetSettingsService(settingsService)

	settings, err := settingsService.Get()
	if err != nil {
		return nil, fmt.Errorf("loading settings: %w", err)
	}

	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	m := metrics.NewCollector()

	// Storage
	vectors, pending, closeStores := openStores(settings, home)
	closers = append(closers, closeStores)

	// Document
	credentials, token := gdocs.ResolvePaths(home, settings.Document.CredentialsFile, settings.Document.TokenFile)
	cli.SetAuthConfig(&cli.AuthConfig{CredentialsFile: credentials, TokenFile: token})
	docs := openDocument(ctx, settings, credentials, token)

	// Models
	models := ai.Init(settings, m)
	closers = append(closers, models.Close)

	// Services
	chunks := chunker.New(
		chunker.WithChunkSize(settings.Index.ChunkSize),
		chunker.WithOverlap(settings.Index.ChunkOverlap),
	)
	index := services.NewIndexService(models.EmbeddingService, vectors, chunks,
		services.WithExactSearchLimit(settings.Index.ExactSearchLimit),
		services.WithEmbeddingTimeout(settings.Embedding.Timeout),
	)

	promptStore, err := file.NewPromptStore(filepath.Join(home, "prompts"))
	if err != nil {
		cleanup()
		return nil, fmt.Errorf("opening prompts: %w", err)
	}
	prompts := services.NewPromptBuilder(promptStore)

	answers := services.NewAnswerService(index, models.LLMService, prompts, services.AnswerConfig{
		TopK:              settings.Index.TopK,
		MinScore:          settings.Index.MinScore,
		GenerationTimeout: settings.LLM.Timeout,
	})
	router := services.NewRouterService(index, settings.ConfidenceThreshold)
	gate := services.NewGateService(pending, index, docs, settings.PendingTTL)
	gaps := services.NewGapService(settings.MinContentLength, models.LLMService, prompts)

	brain := services.NewBrainService(docs, index, answers, router, gate, gaps)
	cli.SetBrainService(brain)
	cli.SetChatService(services.NewChatService(brain))
	cli.SetServeConfig(&cli.ServeConfig{
		Metrics: m,
		Janitor: func(ctx context.Context) {
			gate.RunJanitor(ctx, janitorInterval, m.AddExpiredEdits)
		},
		Watch: brain.Watch,
	})

	return cleanup, nil
}

// openStores opens the configured vector store and the pending edit store.
// Unreachable backends fall back to memory so that read-only commands work.
func openStores(settings *domain.AppSettings, home string) (driven.VectorStore, driven.PendingEditStore, func()) {
	var closers []func()
	closeAll := func() {
		for _, c := range closers {
			c()
		}
	}

	var pending driven.PendingEditStore = memory.NewPendingEditStore()
	var vectors driven.VectorStore = memory.NewVectorStore()

	store, err := sqlite.NewStore(filepath.Join(home, "data"))
	if err != nil {
		warn("SQLite store unavailable, pending edits will not survive this process: %v", err)
	} else {
		closers = append(closers, func() { _ = store.Close() })
		pending = store.PendingEditStore()
	}

	switch settings.VectorStore.Backend {
	case domain.VectorBackendSQLite:
		if store != nil {
			vectors = store.VectorStore()
		}
	case domain.VectorBackendQdrant:
		q, err := qdrant.Dial(settings.VectorStore.QdrantHost, settings.VectorStore.QdrantPort,
			settings.VectorStore.Collection)
		if err != nil {
			warn("Qdrant unavailable, using the in-memory vector store: %v", err)
			break
		}
		closers = append(closers, func() { _ = q.Close() })
		vectors = q
	case domain.VectorBackendMemory:
	}

	return vectors, pending, closeAll
}

// openDocument builds the configured document source.
func openDocument(ctx context.Context, settings *domain.AppSettings, credentials, token string) driven.DocumentSource {
	switch settings.Document.Backend {
	case domain.DocumentBackendGoogleDocs:
		cfg, err := gdocs.OAuthConfig(credentials)
		if err != nil {
			return unavailableSource{name: "Google Docs", err: err}
		}
		ts, err := gdocs.TokenSource(ctx, cfg, token)
		if err != nil {
			return unavailableSource{name: "Google Docs", err: err}
		}
		src, err := gdocs.NewSource(ctx, settings.Document.GoogleDocID, ts)
		if err != nil {
			return unavailableSource{name: "Google Docs", err: err}
		}
		return src
	default:
		if settings.Document.Path == "" {
			return unavailableSource{
				name: "document",
				err:  fmt.Errorf("%w: no document configured", domain.ErrNotFound),
			}
		}
		return docfile.NewSource(settings.Document.Path)
	}
}

// unavailableSource reports why the document could not be opened on first use,
// so commands that do not need it still run.
type unavailableSource struct {
	name string
	err  error
}

func (s unavailableSource) Name() string { return s.name }

func (s unavailableSource) Fetch(context.Context) (string, error) { return "", s.err }

func (s unavailableSource) Append(context.Context, string, string) error { return s.err }

func warn(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "Warning: "+format+"\n", args...)
}
