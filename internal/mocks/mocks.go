// Package mocks provides mock implementations of core interfaces for testing.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"video-summary/internal/types"
)

// MockChatCompleter is a mock implementation of types.ChatCompleter
type MockChatCompleter struct {
	mock.Mock
}

func (m *MockChatCompleter) ChatCompletion(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	args := m.Called(ctx, systemPrompt, userPrompt)
	return args.String(0), args.Error(1)
}

func (m *MockChatCompleter) ChatCompletionWithHistory(ctx context.Context, systemPrompt string, history []types.Message, userPrompt string) (string, error) {
	args := m.Called(ctx, systemPrompt, history, userPrompt)
	return args.String(0), args.Error(1)
}

// MockAdapter is a mock implementation of adapter.Adapter. Matches is
// answered from MatchFunc so tests need no expectation for it.
type MockAdapter struct {
	mock.Mock
	Platform  types.Platform
	MatchFunc func(url string) bool
}

func (m *MockAdapter) Name() types.Platform {
	return m.Platform
}

func (m *MockAdapter) Matches(url string) bool {
	return m.MatchFunc != nil && m.MatchFunc(url)
}

func (m *MockAdapter) Fetch(ctx context.Context, url string) (*types.SubtitleBundle, error) {
	args := m.Called(ctx, url)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.SubtitleBundle), args.Error(1)
}
