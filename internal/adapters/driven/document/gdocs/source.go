// Package gdocs provides a driven.DocumentSource backed by a Google Docs document.
//
// The document body is flattened to plain text for parsing. Appends are
// planned on that text and translated back to a Docs index, which counts
// UTF-16 code units, then sent as a single InsertText request guarded by
// the revision that was read.
package gdocs

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode/utf16"
	"unicode/utf8"

	"golang.org/x/oauth2"
	"google.golang.org/api/docs/v1"
	"google.golang.org/api/option"

	"github.com/docbrain/docbrain-cli/internal/core/domain"
	"github.com/docbrain/docbrain-cli/internal/core/ports/driven"
	"github.com/docbrain/docbrain-cli/internal/logger"
	"github.com/docbrain/docbrain-cli/internal/sections"
)

// Ensure Source implements the interfaces.
var (
	_ driven.DocumentSource  = (*Source)(nil)
	_ driven.DocumentWatcher = (*Source)(nil)
)

// DefaultPollInterval is how often Watch checks the document revision.
const DefaultPollInterval = 30 * time.Second

// Source reads and appends to one Google Docs document.
type Source struct {
	svc     *docs.Service
	docID   string
	limiter *rateLimiter

	// PollInterval overrides DefaultPollInterval for Watch.
	PollInterval time.Duration

	// writeMu is held for the whole of Append so Watch can wait for an
	// in-flight append to record its revision.
	writeMu sync.Mutex

	mu    sync.Mutex
	title string
	// ownRevision is the revision produced by this process's last append.
	ownRevision string
}

// NewSource creates a source authenticated with the given token source.
func NewSource(ctx context.Context, docID string, ts oauth2.TokenSource) (*Source, error) {
	return NewSourceWithOptions(ctx, docID, option.WithTokenSource(ts))
}

// NewSourceWithOptions creates a source with explicit client options.
func NewSourceWithOptions(ctx context.Context, docID string, opts ...option.ClientOption) (*Source, error) {
	if docID == "" {
		return nil, fmt.Errorf("%w: document ID is required", domain.ErrInvalidInput)
	}
	svc, err := docs.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create docs service: %w", err)
	}
	return &Source{
		svc:     svc,
		docID:   docID,
		limiter: newRateLimiter(defaultRequestsPerSecond, defaultBurst),
	}, nil
}

// Name returns the document title once fetched, otherwise its ID.
func (s *Source) Name() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.title != "" {
		return fmt.Sprintf("%s (gdocs:%s)", s.title, s.docID)
	}
	return "gdocs:" + s.docID
}

// Fetch returns the document body as plain text.
func (s *Source) Fetch(ctx context.Context) (string, error) {
	doc, err := s.get(ctx)
	if err != nil {
		return "", err
	}
	return flatten(doc).text(), nil
}

// Append inserts text at the end of the marker's section.
func (s *Source) Append(ctx context.Context, marker, text string) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	doc, err := s.get(ctx)
	if err != nil {
		return err
	}

	flat := flatten(doc)
	raw := flat.text()
	ins, err := sections.PlanAppend(raw, marker, text)
	if err != nil {
		return err
	}

	index, insertText := flat.docIndex(ins.Offset), ins.Text
	if ins.Offset == len(raw) {
		// The body always ends with a newline that cannot be written past.
		index = flat.end - 1
		insertText = "\n" + strings.TrimSuffix(insertText, "\n")
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return err
	}
	resp, err := s.svc.Documents.BatchUpdate(s.docID, &docs.BatchUpdateDocumentRequest{
		Requests: []*docs.Request{{
			InsertText: &docs.InsertTextRequest{
				Location: &docs.Location{Index: index},
				Text:     insertText,
			},
		}},
		WriteControl: &docs.WriteControl{RequiredRevisionId: doc.RevisionId},
	}).Context(ctx).Do()
	if err != nil {
		return s.apiError("append to "+sections.FormatMarker(marker), err)
	}

	if resp.WriteControl != nil {
		s.mu.Lock()
		s.ownRevision = resp.WriteControl.RequiredRevisionId
		s.mu.Unlock()
	}
	logger.Debug("Inserted %d characters at index %d of %s", utf8.RuneCountInString(insertText), index, s.docID)
	return nil
}

// Watch polls the document revision and calls onChange when another
// editor changes it. It blocks until ctx is cancelled.
func (s *Source) Watch(ctx context.Context, onChange func()) error {
	interval := s.PollInterval
	if interval <= 0 {
		interval = DefaultPollInterval
	}

	doc, err := s.get(ctx)
	if err != nil {
		return err
	}
	last := doc.RevisionId

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}

		doc, err := s.get(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return err
			}
			logger.Warn("Polling %s failed: %v", s.docID, err)
			continue
		}
		if doc.RevisionId == last {
			continue
		}
		last = doc.RevisionId

		if !s.isOwnRevision(doc.RevisionId) {
			onChange()
		}
	}
}

func (s *Source) isOwnRevision(revision string) bool {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	s.mu.Lock()
	defer s.mu.Unlock()
	return revision == s.ownRevision
}

func (s *Source) get(ctx context.Context) (*docs.Document, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	doc, err := s.svc.Documents.Get(s.docID).Context(ctx).Do()
	if err != nil {
		return nil, s.apiError("fetch document", err)
	}
	s.mu.Lock()
	s.title = doc.Title
	s.mu.Unlock()
	return doc, nil
}

func (s *Source) apiError(op string, err error) error {
	if secs, ok := retryAfter(err); ok {
		s.limiter.Backoff(secs)
	}
	return fmt.Errorf("%s %s: %w", op, s.docID, wrapError(err))
}

// segment is a text run with its byte offset in the flattened text and its
// start index in the document.
type segment struct {
	offset int
	index  int64
	text   string
}

type flatDoc struct {
	segments []segment
	size     int
	end      int64
}

func (f *flatDoc) text() string {
	var sb strings.Builder
	sb.Grow(f.size)
	for _, seg := range f.segments {
		sb.WriteString(seg.text)
	}
	return sb.String()
}

// docIndex maps a byte offset in the flattened text to a document index.
func (f *flatDoc) docIndex(offset int) int64 {
	for _, seg := range f.segments {
		if offset < seg.offset+len(seg.text) {
			return seg.index + utf16Len(seg.text[:offset-seg.offset])
		}
	}
	return f.end
}

// flatten collects every text run of the body in document order,
// descending into tables and tables of contents.
func flatten(doc *docs.Document) *flatDoc {
	f := &flatDoc{end: 1}
	if doc.Body != nil {
		f.collect(doc.Body.Content)
	}
	return f
}

func (f *flatDoc) collect(content []*docs.StructuralElement) {
	for _, el := range content {
		if el.EndIndex > f.end {
			f.end = el.EndIndex
		}
		switch {
		case el.Paragraph != nil:
			for _, pe := range el.Paragraph.Elements {
				if pe.TextRun == nil || pe.TextRun.Content == "" {
					continue
				}
				f.segments = append(f.segments, segment{offset: f.size, index: pe.StartIndex, text: pe.TextRun.Content})
				f.size += len(pe.TextRun.Content)
			}
		case el.Table != nil:
			for _, row := range el.Table.TableRows {
				for _, cell := range row.TableCells {
					f.collect(cell.Content)
				}
			}
		case el.TableOfContents != nil:
			f.collect(el.TableOfContents.Content)
		}
	}
}

func utf16Len(s string) int64 {
	var n int64
	for _, r := range s {
		n += int64(utf16.RuneLen(r))
	}
	return n
}
