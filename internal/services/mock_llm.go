package services

import (
	"context"
	"sync"
)

// MockLLM is a mock implementation of LLMService for testing
type MockLLM struct {
	InitModelFunc func(ctx context.Context, modelName string) error
	GenerateFunc  func(ctx context.Context, req GenerateRequest) (string, error)

	// Track calls for testing
	InitModelCalls []string
	GenerateCalls  []GenerateRequest

	mu sync.Mutex // protects all fields above
}

// NewMockLLM creates a new mock LLM service
func NewMockLLM() *MockLLM {
	return &MockLLM{
		InitModelCalls: make([]string, 0),
		GenerateCalls:  make([]GenerateRequest, 0),
	}
}

// InitModel mocks model initialization
func (m *MockLLM) InitModel(ctx context.Context, modelName string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.InitModelCalls = append(m.InitModelCalls, modelName)

	if m.InitModelFunc != nil {
		return m.InitModelFunc(ctx, modelName)
	}
	return nil
}

// Generate mocks text generation
func (m *MockLLM) Generate(ctx context.Context, req GenerateRequest) (string, error) {
	m.mu.Lock()
	generateFunc := m.GenerateFunc
	m.GenerateCalls = append(m.GenerateCalls, req)
	m.mu.Unlock()

	if generateFunc != nil {
		return generateFunc(ctx, req)
	}
	return "Mock response", nil
}

// SetGenerateError sets up the mock to return an error on Generate
func (m *MockLLM) SetGenerateError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.GenerateFunc = func(ctx context.Context, req GenerateRequest) (string, error) {
		return "", err
	}
}

// SetGenerateResponse sets up the mock to return a fixed response
func (m *MockLLM) SetGenerateResponse(response string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.GenerateFunc = func(ctx context.Context, req GenerateRequest) (string, error) {
		return response, nil
	}
}

// GetGenerateCalls returns a copy of the recorded Generate calls
func (m *MockLLM) GetGenerateCalls() []GenerateRequest {
	m.mu.Lock()
	defer m.mu.Unlock()

	calls := make([]GenerateRequest, len(m.GenerateCalls))
	copy(calls, m.GenerateCalls)
	return calls
}

// Reset clears all call tracking
func (m *MockLLM) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.InitModelCalls = make([]string, 0)
	m.GenerateCalls = make([]GenerateRequest, 0)
}
