package rest

import (
	"context"

	"github.com/docbrain/docbrain-cli/internal/core/domain"
)

// mockBrainService is a mock implementation of driving.BrainService.
type mockBrainService struct {
	answer   *domain.Answer
	pending  *domain.PendingEdit
	commit   *domain.CommitResult
	reindex  *domain.ReindexResult
	report   *domain.GapReport
	advice   string
	sections []domain.Section
	stats    *domain.IndexStats
	err      error

	lastSession  string
	lastQuestion string
	lastOpts     domain.QueryOptions
	lastContent  string
	lastMarker   string
	lastScope    string
}

func (m *mockBrainService) Query(_ context.Context, question string, opts domain.QueryOptions) (*domain.Answer, error) {
	m.lastQuestion = question
	m.lastOpts = opts
	return m.answer, m.err
}

func (m *mockBrainService) Add(_ context.Context, sessionID, content string) (*domain.PendingEdit, error) {
	m.lastSession = sessionID
	m.lastContent = content
	return m.pending, m.err
}

func (m *mockBrainService) Confirm(_ context.Context, sessionID, marker string) (*domain.CommitResult, error) {
	m.lastSession = sessionID
	m.lastMarker = marker
	return m.commit, m.err
}

func (m *mockBrainService) Reject(_ context.Context, sessionID string) (*domain.PendingEdit, error) {
	m.lastSession = sessionID
	return m.pending, m.err
}

func (m *mockBrainService) Pending(_ context.Context, sessionID string) (*domain.PendingEdit, error) {
	m.lastSession = sessionID
	return m.pending, m.err
}

func (m *mockBrainService) Reindex(_ context.Context) (*domain.ReindexResult, error) {
	return m.reindex, m.err
}

func (m *mockBrainService) AnalyzeGaps(_ context.Context, scope string) (*domain.GapReport, error) {
	m.lastScope = scope
	return m.report, m.err
}

func (m *mockBrainService) AdviseGaps(_ context.Context, scope string) (string, error) {
	m.lastScope = scope
	return m.advice, m.err
}

func (m *mockBrainService) ListMarkers(_ context.Context) ([]domain.Section, error) {
	return m.sections, m.err
}

func (m *mockBrainService) Stats(_ context.Context) (*domain.IndexStats, error) {
	if m.stats == nil {
		return &domain.IndexStats{}, nil
	}
	return m.stats, nil
}

// mockChatService is a mock implementation of driving.ChatService.
type mockChatService struct {
	reply *domain.Reply
	err   error

	lastSession string
	lastInput   string
}

func (m *mockChatService) Handle(_ context.Context, sessionID, input string) (*domain.Reply, error) {
	m.lastSession = sessionID
	m.lastInput = input
	return m.reply, m.err
}
