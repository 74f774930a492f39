package ai

import (
	"context"
	"sync"
)

// MockProvider is a test double returning scripted responses. Responses are
// consumed in order; once exhausted the last one repeats.
type MockProvider struct {
	Responses []string
	Err       error

	mu         sync.Mutex
	calls      int
	LastSystem string
	LastUser   string
}

// NewMockProvider creates a MockProvider that returns the given responses.
func NewMockProvider(responses ...string) *MockProvider {
	return &MockProvider{Responses: responses}
}

func (m *MockProvider) Generate(_ context.Context, systemPrompt, userPrompt string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.LastSystem = systemPrompt
	m.LastUser = userPrompt
	if m.Err != nil {
		return "", m.Err
	}
	if len(m.Responses) == 0 {
		return "", nil
	}
	idx := m.calls
	if idx >= len(m.Responses) {
		idx = len(m.Responses) - 1
	}
	m.calls++
	return m.Responses[idx], nil
}

// Calls reports how many times Generate has been invoked.
func (m *MockProvider) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}
