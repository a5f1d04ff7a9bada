// Package mocks provides test doubles for the llm package: a configurable
// MockProvider and a scripted debate responder that produces plausible
// stage-appropriate text without any real model behind it.
package mocks

import (
	"context"
	"sync"
	"time"

	"github.com/BaSui01/debateflow/llm"
)

// MockProvider is a configurable llm.Provider test double. It supports
// fixed responses, prompt-dependent response functions, error injection,
// artificial delay, and call recording.
type MockProvider struct {
	mu sync.Mutex

	name         string
	response     string
	responseFunc func(prompt string) string
	err          error
	failAfter    int
	delay        time.Duration

	calls []string
}

// NewMockProvider creates a MockProvider with a fixed default response.
func NewMockProvider() *MockProvider {
	return &MockProvider{
		name:      "mock",
		response:  "Mock response",
		failAfter: -1,
	}
}

// WithName sets the provider name.
func (m *MockProvider) WithName(name string) *MockProvider {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.name = name
	return m
}

// WithResponse sets a fixed response for every call.
func (m *MockProvider) WithResponse(response string) *MockProvider {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.response = response
	return m
}

// WithResponseFunc derives each response from the prompt. Takes precedence
// over WithResponse.
func (m *MockProvider) WithResponseFunc(fn func(prompt string) string) *MockProvider {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responseFunc = fn
	return m
}

// WithError makes every call fail with err.
func (m *MockProvider) WithError(err error) *MockProvider {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
	return m
}

// WithFailAfter makes calls fail with err once n calls have succeeded.
func (m *MockProvider) WithFailAfter(n int, err error) *MockProvider {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failAfter = n
	m.err = err
	return m
}

// WithDelay adds an artificial delay to each call.
func (m *MockProvider) WithDelay(d time.Duration) *MockProvider {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.delay = d
	return m
}

// Name implements llm.Provider.
func (m *MockProvider) Name() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.name
}

// Completion implements llm.Provider.
func (m *MockProvider) Completion(ctx context.Context, req *llm.ChatRequest) (*llm.ChatResponse, error) {
	m.mu.Lock()
	prompt := ""
	if len(req.Messages) > 0 {
		prompt = req.Messages[len(req.Messages)-1].Content
	}
	m.calls = append(m.calls, prompt)
	callNum := len(m.calls)

	err := m.err
	failAfter := m.failAfter
	response := m.response
	if m.responseFunc != nil {
		response = m.responseFunc(prompt)
	}
	delay := m.delay
	name := m.name
	m.mu.Unlock()

	if delay > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
	}

	if err != nil && (failAfter < 0 || callNum > failAfter) {
		return nil, err
	}

	return &llm.ChatResponse{
		Provider: name,
		Model:    req.Model,
		Choices: []llm.ChatChoice{{
			FinishReason: "stop",
			Message:      llm.Message{Role: llm.RoleAssistant, Content: response},
		}},
		Usage: llm.ChatUsage{PromptTokens: 10, CompletionTokens: 20, TotalTokens: 30},
	}, nil
}

// Calls returns the prompts seen so far.
func (m *MockProvider) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

// CallCount returns the number of completions requested so far.
func (m *MockProvider) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}
