package services

import (
	"context"
	"strings"
	"sync"

	"github.com/docbrain/docbrain-cli/internal/adapters/driven/storage/memory"
	"github.com/docbrain/docbrain-cli/internal/core/domain"
	"github.com/docbrain/docbrain-cli/internal/core/ports/driven"
	"github.com/docbrain/docbrain-cli/internal/postprocessors/chunker"
	"github.com/docbrain/docbrain-cli/internal/sections"
)

const fakeDims = 8

// keywordEmbedder maps every keyword found in a text to one dimension.
// The last dimension is a small constant so no vector is ever zero.
type keywordEmbedder struct {
	mu       sync.Mutex
	keywords map[string]int
	err      error
	block    bool
	embedded int
	calls    int
}

func newKeywordEmbedder(keywords map[string]int) *keywordEmbedder {
	return &keywordEmbedder{keywords: keywords}
}

func (e *keywordEmbedder) vector(text string) []float32 {
	lower := strings.ToLower(text)
	vec := make([]float32, fakeDims)
	vec[fakeDims-1] = 0.1
	for kw, dim := range e.keywords {
		if strings.Contains(lower, kw) {
			vec[dim]++
		}
	}
	return vec
}

func (e *keywordEmbedder) fail(ctx context.Context) error {
	e.mu.Lock()
	err, block := e.err, e.block
	e.calls++
	e.mu.Unlock()
	if block {
		<-ctx.Done()
		return ctx.Err()
	}
	return err
}

func (e *keywordEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := e.fail(ctx); err != nil {
		return nil, err
	}
	return e.vector(text), nil
}

func (e *keywordEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if err := e.fail(ctx); err != nil {
		return nil, err
	}
	e.mu.Lock()
	e.embedded += len(texts)
	e.mu.Unlock()
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = e.vector(t)
	}
	return out, nil
}

func (e *keywordEmbedder) setErr(err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.err = err
}

func (e *keywordEmbedder) embeddedCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.embedded
}

func (e *keywordEmbedder) Dimensions() int { return fakeDims }
func (e *keywordEmbedder) ModelName() string { return "keyword-test" }
func (e *keywordEmbedder) Ping(_ context.Context) error { return nil }
func (e *keywordEmbedder) Close() error { return nil }

// scriptedLLM returns a fixed reply and records what it was asked.
type scriptedLLM struct {
	mu       sync.Mutex
	reply    string
	err      error
	block    bool
	messages []driven.ChatMessage
	prompts  []string
}

func (l *scriptedLLM) wait(ctx context.Context) error {
	if l.block {
		<-ctx.Done()
		return ctx.Err()
	}
	return l.err
}

func (l *scriptedLLM) Generate(ctx context.Context, prompt string, _ driven.GenerateOptions) (string, error) {
	l.mu.Lock()
	l.prompts = append(l.prompts, prompt)
	l.mu.Unlock()
	if err := l.wait(ctx); err != nil {
		return "", err
	}
	return l.reply, nil
}

func (l *scriptedLLM) Chat(ctx context.Context, messages []driven.ChatMessage, _ driven.ChatOptions) (string, error) {
	l.mu.Lock()
	l.messages = append([]driven.ChatMessage(nil), messages...)
	l.mu.Unlock()
	if err := l.wait(ctx); err != nil {
		return "", err
	}
	return l.reply, nil
}

func (l *scriptedLLM) ModelName() string { return "scripted" }
func (l *scriptedLLM) Ping(_ context.Context) error { return nil }
func (l *scriptedLLM) Close() error { return nil }

// researchDoc has one filled and one empty section in each of two domains.
const researchDoc = `Research notes on interoception.

[D1:DEFINITION]
Interoception is the sense of the internal state of the body, such as heartbeat and breathing.

[D1:MECHANISM]
The vagus nerve carries signals from the viscera to the brainstem.

[D2:DEFINITION]

[D2:MECHANISM]
Stub.
`

var researchKeywords = map[string]int{
	"d1":         0,
	"domain 1":   0,
	"interocept": 1,
	"heartbeat":  1,
	"vagus":      2,
	"nerve":      2,
	"d2":         3,
	"emotion":    4,
	"unrelated":  5,
}

// fixture wires the real services over in-memory adapters.
type fixture struct {
	embedder *keywordEmbedder
	llm      *scriptedLLM
	vectors  *memory.VectorStore
	pending  *memory.PendingEditStore
	docs     *memory.DocumentSource
	index    *IndexService
	answers  *AnswerService
	router   *RouterService
	gate     *GateService
	gaps     *GapService
	brain    *BrainService
}

func newFixture(doc string) *fixture {
	f := &fixture{
		embedder: newKeywordEmbedder(researchKeywords),
		llm:      &scriptedLLM{reply: "Interoception is sensing the body [D1:DEFINITION]."},
		vectors:  memory.NewVectorStore(),
		pending:  memory.NewPendingEditStore(),
		docs:     memory.NewDocumentSource(doc),
	}
	prompts := NewPromptBuilder(nil)
	f.index = NewIndexService(f.embedder, f.vectors, chunker.New())
	f.answers = NewAnswerService(f.index, f.llm, prompts, AnswerConfig{TopK: 5, MinScore: domain.DefaultMinScore})
	f.router = NewRouterService(f.index, domain.DefaultConfidenceThreshold)
	f.gate = NewGateService(f.pending, f.index, f.docs, domain.DefaultPendingTTL)
	f.gaps = NewGapService(domain.DefaultMinContentLength, f.llm, prompts)
	f.brain = NewBrainService(f.docs, f.index, f.answers, f.router, f.gate, f.gaps)
	return f
}

// parseSections parses a document that is known to be valid.
func parseSections(doc string) []domain.Section {
	res, err := sections.Parse(doc)
	if err != nil {
		panic(err)
	}
	return res.Sections
}
