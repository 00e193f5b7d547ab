// Package chunker splits sections into embeddable chunks.
package chunker

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/google/uuid"

	"github.com/docbrain/docbrain-cli/internal/core/domain"
)

// DefaultChunkSize is the default number of characters per chunk.
const DefaultChunkSize = 1000

// DefaultChunkOverlap is the default number of overlapping characters.
const DefaultChunkOverlap = 200

// chunkNamespace seeds content-addressed chunk IDs.
var chunkNamespace = uuid.MustParse("6f1c1f0e-3b9a-5d55-9a8e-4d6f0c2b7a11")

// Processor splits section bodies into overlapping character windows.
// Every chunk is prefixed with the section heading so retrieval sees the
// marker, domain and kind alongside the text.
type Processor struct {
	chunkSize int
	overlap   int
}

// Option configures the chunker processor.
type Option func(*Processor)

// WithChunkSize sets the chunk size in characters.
func WithChunkSize(size int) Option {
	return func(p *Processor) {
		if size > 0 {
			p.chunkSize = size
		}
	}
}

// WithOverlap sets the overlap between chunks in characters.
func WithOverlap(overlap int) Option {
	return func(p *Processor) {
		if overlap >= 0 {
			p.overlap = overlap
		}
	}
}

// New creates a new chunker processor with the given options.
func New(opts ...Option) *Processor {
	p := &Processor{
		chunkSize: DefaultChunkSize,
		overlap:   DefaultChunkOverlap,
	}

	for _, opt := range opts {
		opt(p)
	}

	// Ensure overlap doesn't exceed chunk size
	if p.overlap >= p.chunkSize {
		p.overlap = p.chunkSize / 4
	}

	return p
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "chunker"
}

// Process turns a section into chunks. An empty section yields a single
// heading-only chunk so it can still be targeted by similarity. The model
// name is part of every chunk ID: vectors from different models never share
// an ID.
func (p *Processor) Process(section domain.Section, model string) []domain.Chunk {
	header := Header(section)

	pieces := p.Split(section.Body)
	if len(pieces) == 0 {
		pieces = []string{""}
	}

	chunks := make([]domain.Chunk, 0, len(pieces))
	for seq, piece := range pieces {
		text := header
		if piece != "" {
			text = header + "\n\n" + piece
		}
		chunks = append(chunks, domain.Chunk{
			ID:       ChunkID(model, section.Marker, seq, text),
			Marker:   section.Marker,
			Position: section.Position,
			Seq:      seq,
			Text:     text,
		})
	}
	return chunks
}

// Split breaks text into windows of at most chunkSize runes. Windows end on
// whitespace where possible and consecutive windows share about overlap runes.
func (p *Processor) Split(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	runes := []rune(text)
	n := len(runes)
	if n <= p.chunkSize {
		return []string{text}
	}

	// Estimate number of chunks
	pieces := make([]string, 0, n/(p.chunkSize-p.overlap)+1)

	start := 0
	for start < n {
		end := min(start+p.chunkSize, n)
		if end < n {
			// Back off to the last whitespace in the second half of the window.
			for i := end - 1; i > start+p.chunkSize/2; i-- {
				if unicode.IsSpace(runes[i]) {
					end = i + 1
					break
				}
			}
		}

		if piece := strings.TrimSpace(string(runes[start:end])); piece != "" {
			pieces = append(pieces, piece)
		}
		if end >= n {
			break
		}

		next := end - p.overlap
		if next <= start {
			next = end
		}
		// Avoid starting mid-word.
		for i := next; i < end; i++ {
			if unicode.IsSpace(runes[i]) {
				next = i + 1
				break
			}
		}
		start = next
	}

	return pieces
}

// Header renders the heading lines prepended to every chunk of a section.
func Header(section domain.Section) string {
	var b strings.Builder
	b.WriteString("[" + section.Marker + "]")
	if section.Domain != "" {
		b.WriteString("\nDomain: " + section.Domain)
	}
	if section.Kind != "" && section.Kind != section.Marker {
		b.WriteString("\nSection: " + section.Kind)
	}
	return b.String()
}

// ChunkID derives a stable chunk ID from the embedding model and chunk content.
func ChunkID(model, marker string, seq int, text string) string {
	key := model + "\x00" + marker + "\x00" + strconv.Itoa(seq) + "\x00" + text
	return uuid.NewSHA1(chunkNamespace, []byte(key)).String()
}
