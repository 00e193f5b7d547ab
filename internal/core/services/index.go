package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/docbrain/docbrain-cli/internal/core/domain"
	"github.com/docbrain/docbrain-cli/internal/core/ports/driven"
	"github.com/docbrain/docbrain-cli/internal/logger"
)

// embedBatchSize bounds the number of texts sent in one embedding call.
const embedBatchSize = 32

// delegatedOverfetch multiplies k when search is delegated to the vector
// store, since hits outside the current snapshot are dropped afterwards.
const delegatedOverfetch = 3

// snapshot is an immutable view of the index. It is replaced, never mutated.
type snapshot struct {
	generation uint64
	model      string
	sections   []domain.Section
	byMarker   map[string]int
	chunks     []domain.Chunk
	byID       map[string]int
}

func newSnapshot(generation uint64, model string, sections []domain.Section, chunks []domain.Chunk) *snapshot {
	snap := &snapshot{
		generation: generation,
		model:      model,
		sections:   sections,
		byMarker:   make(map[string]int, len(sections)),
		chunks:     chunks,
		byID:       make(map[string]int, len(chunks)),
	}
	for i, s := range sections {
		snap.byMarker[s.Marker] = i
	}
	for i, c := range chunks {
		snap.byID[c.ID] = i
	}
	return snap
}

func (s *snapshot) chunkIDs() []string {
	ids := make([]string, len(s.chunks))
	for i, c := range s.chunks {
		ids[i] = c.ID
	}
	return ids
}

// BuildStats describes a completed build.
type BuildStats struct {
	Sections int
	Chunks   int
	Reused   int
	Embedded int
}

// PreparedUpsert holds embedded chunks for one section that are stored
// but not yet visible to searches.
type PreparedUpsert struct {
	section domain.Section
	chunks  []domain.Chunk
	written []string
}

// Section returns the section the upsert will publish.
func (p *PreparedUpsert) Section() domain.Section {
	return p.section
}

// Chunks returns the number of chunks the upsert will publish.
func (p *PreparedUpsert) Chunks() int {
	return len(p.chunks)
}

// IndexOption configures an IndexService.
type IndexOption func(*IndexService)

// WithExactSearchLimit sets the chunk count above which search is delegated
// to the vector store.
func WithExactSearchLimit(n int) IndexOption {
	return func(s *IndexService) {
		if n > 0 {
			s.exactLimit = n
		}
	}
}

// WithEmbeddingTimeout bounds every embedding call.
func WithEmbeddingTimeout(d time.Duration) IndexOption {
	return func(s *IndexService) {
		if d > 0 {
			s.embedTimeout = d
		}
	}
}

// IndexService maintains the embedding index over document sections.
//
// Readers load the current snapshot atomically and never block on writers.
// Writers (Build, PrepareUpsert, Commit, Discard) are serialised. A failed
// write leaves the previous snapshot searchable.
type IndexService struct {
	embedder     driven.EmbeddingService
	store        driven.VectorStore
	chunker      driven.Chunker
	exactLimit   int
	embedTimeout time.Duration

	mu      sync.Mutex
	current atomic.Pointer[snapshot]
}

// NewIndexService creates a new index service.
// The store may be nil, in which case vectors live only in the snapshot.
func NewIndexService(
	embedder driven.EmbeddingService,
	store driven.VectorStore,
	chunker driven.Chunker,
	opts ...IndexOption,
) *IndexService {
	s := &IndexService{
		embedder:     embedder,
		store:        store,
		chunker:      chunker,
		exactLimit:   domain.DefaultExactSearchLimit,
		embedTimeout: domain.DefaultEmbeddingTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Build replaces the whole index with the given sections.
func (s *IndexService) Build(ctx context.Context, sections []domain.Section) (*BuildStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	logger.Section("Index Build")

	if s.embedder == nil {
		return nil, fmt.Errorf("build index: %w", domain.ErrEmbeddingUnavailable)
	}
	model := s.embedder.ModelName()

	sections = append([]domain.Section(nil), sections...)
	var chunks []domain.Chunk
	for _, section := range sections {
		chunks = append(chunks, s.chunker.Process(section, model)...)
	}
	logger.Debug("Sections: %d, chunks: %d, model: %s", len(sections), len(chunks), model)

	written, reused, err := s.embedAndStore(ctx, chunks)
	if err != nil {
		s.cleanup(ctx, written)
		logger.Warn("Index build failed, keeping previous snapshot: %v", err)
		return nil, fmt.Errorf("build index: %w", err)
	}

	var generation uint64 = 1
	if cur := s.current.Load(); cur != nil {
		generation = cur.generation + 1
	}
	next := newSnapshot(generation, model, sections, chunks)
	old := s.current.Swap(next)

	if old != nil {
		s.deleteStale(ctx, old.chunkIDs(), next)
	}

	logger.Info("Index generation %d: %d sections, %d chunks (%d reused)",
		generation, len(sections), len(chunks), reused)

	return &BuildStats{
		Sections: len(sections),
		Chunks:   len(chunks),
		Reused:   reused,
		Embedded: len(chunks) - reused,
	}, nil
}

// Upsert replaces or adds one section and publishes it immediately.
func (s *IndexService) Upsert(ctx context.Context, section domain.Section) error {
	prepared, err := s.PrepareUpsert(ctx, section)
	if err != nil {
		return err
	}
	return s.Commit(ctx, prepared)
}

// PrepareUpsert embeds and stores the section's chunks without publishing
// them. The result must be passed to Commit or Discard.
func (s *IndexService) PrepareUpsert(ctx context.Context, section domain.Section) (*PreparedUpsert, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur := s.current.Load()
	if cur == nil {
		return nil, fmt.Errorf("upsert: %w", domain.ErrEmptyIndex)
	}
	if s.embedder == nil {
		return nil, fmt.Errorf("upsert: %w", domain.ErrEmbeddingUnavailable)
	}

	if i, ok := cur.byMarker[section.Marker]; ok {
		section.Position = cur.sections[i].Position
	} else {
		section.Position = len(cur.sections)
	}

	chunks := s.chunker.Process(section, cur.model)
	written, _, err := s.embedAndStore(ctx, chunks)
	if err != nil {
		s.cleanup(ctx, written)
		return nil, fmt.Errorf("upsert %s: %w", section.Marker, err)
	}

	logger.Debug("Prepared upsert for [%s]: %d chunks", section.Marker, len(chunks))
	return &PreparedUpsert{section: section, chunks: chunks, written: written}, nil
}

// Commit publishes a prepared upsert in a new snapshot.
func (s *IndexService) Commit(ctx context.Context, p *PreparedUpsert) error {
	if p == nil {
		return fmt.Errorf("commit: %w", domain.ErrInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cur := s.current.Load()
	if cur == nil {
		return fmt.Errorf("commit: %w", domain.ErrEmptyIndex)
	}

	sections := make([]domain.Section, 0, len(cur.sections)+1)
	replaced := false
	for _, existing := range cur.sections {
		if existing.Marker == p.section.Marker {
			sections = append(sections, p.section)
			replaced = true
			continue
		}
		sections = append(sections, existing)
	}
	if !replaced {
		sections = append(sections, p.section)
	}

	var oldIDs []string
	chunks := make([]domain.Chunk, 0, len(cur.chunks)+len(p.chunks))
	inserted := false
	for _, c := range cur.chunks {
		if c.Marker == p.section.Marker {
			oldIDs = append(oldIDs, c.ID)
			if !inserted {
				chunks = append(chunks, p.chunks...)
				inserted = true
			}
			continue
		}
		chunks = append(chunks, c)
	}
	if !inserted {
		chunks = append(chunks, p.chunks...)
	}

	next := newSnapshot(cur.generation+1, cur.model, sections, chunks)
	s.current.Store(next)
	s.deleteStale(ctx, oldIDs, next)

	logger.Info("Published [%s] in generation %d", p.section.Marker, next.generation)
	return nil
}

// Discard removes the stored records of a prepared upsert that was never
// committed.
func (s *IndexService) Discard(ctx context.Context, p *PreparedUpsert) {
	if p == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cleanup(ctx, p.written)
	logger.Debug("Discarded prepared upsert for [%s]", p.section.Marker)
}

// SearchFilter narrows a search before results are ranked and cut to k.
type SearchFilter struct {
	// Domain limits results to sections of one domain. Empty means all.
	Domain string

	// SkipEmpty drops chunks of sections without a body. Those chunks are
	// embedded from the heading alone and would otherwise crowd out content.
	SkipEmpty bool
}

func (f SearchFilter) keep(snap *snapshot) func(domain.Chunk) bool {
	return func(c domain.Chunk) bool {
		if f.Domain == "" && !f.SkipEmpty {
			return true
		}
		sec := snap.sections[snap.byMarker[c.Marker]]
		if f.SkipEmpty && sec.IsEmpty() {
			return false
		}
		return f.Domain == "" || equalFoldTrim(sec.DomainOrDefault(), f.Domain)
	}
}

// Search returns up to k chunks most similar to vector, ordered by
// descending score with ties broken by section position.
func (s *IndexService) Search(ctx context.Context, vector []float32, k int) ([]domain.RetrievalResult, error) {
	return s.SearchFiltered(ctx, vector, k, SearchFilter{})
}

// SearchDomain is Search limited to sections of one domain.
func (s *IndexService) SearchDomain(
	ctx context.Context, vector []float32, k int, dom string,
) ([]domain.RetrievalResult, error) {
	return s.SearchFiltered(ctx, vector, k, SearchFilter{Domain: dom})
}

// SearchFiltered is Search over the chunks the filter keeps. The filter is
// applied before truncation, so k results are returned whenever k chunks pass.
func (s *IndexService) SearchFiltered(
	ctx context.Context, vector []float32, k int, filter SearchFilter,
) ([]domain.RetrievalResult, error) {
	snap := s.current.Load()
	if snap == nil || len(snap.chunks) == 0 {
		return nil, domain.ErrEmptyIndex
	}
	if k <= 0 {
		return nil, fmt.Errorf("%w: k must be positive", domain.ErrInvalidInput)
	}

	keep := filter.keep(snap)

	var results []domain.RetrievalResult
	if s.store != nil && len(snap.chunks) > s.exactLimit {
		delegated, err := s.delegatedSearch(ctx, snap, vector, k, keep)
		switch {
		case err != nil:
			logger.Warn("Vector store search failed, scanning snapshot: %v", err)
		case len(delegated) < k:
			// The store ranks globally; filtered or stale hits can leave
			// fewer than k even when enough matching chunks exist.
			logger.Debug("Vector store returned %d of %d usable hits, scanning snapshot", len(delegated), k)
		default:
			results = delegated
		}
	}
	if results == nil {
		results = exactSearch(snap, vector, keep)
	}

	sortResults(results)
	if len(results) > k {
		results = results[:k]
	}
	return results, nil
}

func (s *IndexService) delegatedSearch(
	ctx context.Context, snap *snapshot, vector []float32, k int, keep func(domain.Chunk) bool,
) ([]domain.RetrievalResult, error) {
	hits, err := s.store.Search(ctx, vector, k*delegatedOverfetch)
	if err != nil {
		return nil, err
	}

	results := make([]domain.RetrievalResult, 0, len(hits))
	for _, hit := range hits {
		i, ok := snap.byID[hit.ID]
		if !ok {
			continue
		}
		c := snap.chunks[i]
		if !keep(c) {
			continue
		}
		results = append(results, toResult(c, hit.Score))
	}
	return results, nil
}

func exactSearch(snap *snapshot, vector []float32, keep func(domain.Chunk) bool) []domain.RetrievalResult {
	results := make([]domain.RetrievalResult, 0, len(snap.chunks))
	for _, c := range snap.chunks {
		if !keep(c) {
			continue
		}
		results = append(results, toResult(c, domain.CosineSimilarity(vector, c.Embedding)))
	}
	return results
}

func toResult(c domain.Chunk, score float64) domain.RetrievalResult {
	return domain.RetrievalResult{
		ChunkID:  c.ID,
		Marker:   c.Marker,
		Position: c.Position,
		Seq:      c.Seq,
		Score:    score,
		Text:     c.Text,
	}
}

func sortResults(results []domain.RetrievalResult) {
	sort.Slice(results, func(i, j int) bool {
		a, b := results[i], results[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.Position != b.Position {
			return a.Position < b.Position
		}
		if a.Seq != b.Seq {
			return a.Seq < b.Seq
		}
		return a.ChunkID < b.ChunkID
	})
}

// EmbedQuery embeds free text with the index's embedding model.
func (s *IndexService) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	if s.embedder == nil {
		return nil, domain.ErrEmbeddingUnavailable
	}
	ctx, cancel := context.WithTimeout(ctx, s.embedTimeout)
	defer cancel()

	vec, err := s.embedder.Embed(ctx, text)
	if err != nil {
		return nil, embeddingError(err)
	}
	return vec, nil
}

// Sections returns the indexed sections in document order.
func (s *IndexService) Sections() []domain.Section {
	snap := s.current.Load()
	if snap == nil {
		return nil
	}
	return append([]domain.Section(nil), snap.sections...)
}

// Section returns the indexed section with the given marker.
func (s *IndexService) Section(marker string) (domain.Section, bool) {
	snap := s.current.Load()
	if snap == nil {
		return domain.Section{}, false
	}
	i, ok := snap.byMarker[marker]
	if !ok {
		return domain.Section{}, false
	}
	return snap.sections[i], true
}

// HasMarker reports whether the marker is indexed.
func (s *IndexService) HasMarker(marker string) bool {
	_, ok := s.Section(marker)
	return ok
}

// IsEmpty reports whether no snapshot with chunks has been published.
func (s *IndexService) IsEmpty() bool {
	snap := s.current.Load()
	return snap == nil || len(snap.chunks) == 0
}

// Stats summarises the current snapshot.
func (s *IndexService) Stats() domain.IndexStats {
	snap := s.current.Load()
	if snap == nil {
		return domain.IndexStats{}
	}
	stats := domain.IndexStats{
		Sections:   len(snap.sections),
		Chunks:     len(snap.chunks),
		Model:      snap.model,
		Generation: snap.generation,
	}
	for _, sec := range snap.sections {
		if sec.IsEmpty() {
			stats.EmptySections++
		}
	}
	return stats
}

// embedAndStore fills chunk embeddings, reusing stored vectors where the
// chunk ID already exists, and persists newly embedded chunks. It returns
// the IDs it wrote and how many vectors were reused.
func (s *IndexService) embedAndStore(ctx context.Context, chunks []domain.Chunk) ([]string, int, error) {
	if len(chunks) == 0 {
		return nil, 0, nil
	}

	ids := make([]string, len(chunks))
	for i, c := range chunks {
		ids[i] = c.ID
	}

	stored := map[string]domain.VectorRecord{}
	if s.store != nil {
		var err error
		stored, err = s.store.Get(ctx, ids)
		if err != nil {
			logger.Warn("Vector store lookup failed, embedding everything: %v", err)
			stored = map[string]domain.VectorRecord{}
		}
	}

	var pending []int
	reused := 0
	for i, c := range chunks {
		if rec, ok := stored[c.ID]; ok && rec.Text == c.Text && len(rec.Vector) > 0 {
			chunks[i].Embedding = rec.Vector
			reused++
			continue
		}
		pending = append(pending, i)
	}
	logger.Debug("Reusing %d stored vectors, embedding %d chunks", reused, len(pending))

	for start := 0; start < len(pending); start += embedBatchSize {
		batch := pending[start:min(start+embedBatchSize, len(pending))]
		texts := make([]string, len(batch))
		for j, idx := range batch {
			texts[j] = chunks[idx].Text
		}

		vectors, err := s.embedBatch(ctx, texts)
		if err != nil {
			return nil, reused, err
		}
		for j, idx := range batch {
			chunks[idx].Embedding = vectors[j]
		}
	}

	if s.store == nil || len(pending) == 0 {
		return nil, reused, nil
	}

	records := make([]domain.VectorRecord, len(pending))
	written := make([]string, len(pending))
	for j, idx := range pending {
		c := chunks[idx]
		records[j] = domain.VectorRecord{
			ID:       c.ID,
			Marker:   c.Marker,
			Position: c.Position,
			Seq:      c.Seq,
			Text:     c.Text,
			Vector:   c.Embedding,
		}
		written[j] = c.ID
	}
	if err := s.store.Upsert(ctx, records); err != nil {
		return written, reused, fmt.Errorf("%w: %w", domain.ErrVectorStoreUnavailable, err)
	}
	return written, reused, nil
}

func (s *IndexService) embedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	ctx, cancel := context.WithTimeout(ctx, s.embedTimeout)
	defer cancel()

	vectors, err := s.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, embeddingError(err)
	}
	if len(vectors) != len(texts) {
		return nil, fmt.Errorf("%w: expected %d embeddings, got %d",
			domain.ErrEmbeddingUnavailable, len(texts), len(vectors))
	}
	return vectors, nil
}

// cleanup deletes written records that are not part of the current snapshot.
func (s *IndexService) cleanup(ctx context.Context, written []string) {
	if s.store == nil || len(written) == 0 {
		return
	}
	cur := s.current.Load()
	var orphans []string
	for _, id := range written {
		if cur != nil {
			if _, live := cur.byID[id]; live {
				continue
			}
		}
		orphans = append(orphans, id)
	}
	if len(orphans) == 0 {
		return
	}
	if err := s.store.Delete(ctx, orphans); err != nil {
		logger.Warn("Failed to delete %d orphaned vectors: %v", len(orphans), err)
	}
}

// deleteStale removes IDs that are no longer referenced by next.
func (s *IndexService) deleteStale(ctx context.Context, ids []string, next *snapshot) {
	if s.store == nil {
		return
	}
	var stale []string
	for _, id := range ids {
		if _, live := next.byID[id]; !live {
			stale = append(stale, id)
		}
	}
	if len(stale) == 0 {
		return
	}
	if err := s.store.Delete(ctx, stale); err != nil {
		logger.Warn("Failed to delete %d stale vectors: %v", len(stale), err)
	}
}

func embeddingError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", domain.ErrEmbeddingUnavailable, domain.ErrTimeout)
	}
	if errors.Is(err, domain.ErrEmbeddingUnavailable) {
		return err
	}
	return fmt.Errorf("%w: %w", domain.ErrEmbeddingUnavailable, err)
}
