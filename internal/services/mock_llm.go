package services

import (
	"context"
	"sync"

	"github.com/jwebster45206/quest-weaver/pkg/adventure"
)

// Canned replies used when no response is configured for a template.
var defaultMockResponses = map[string]string{
	adventure.TemplateGenerateStory:    `{"story":"You wake at the edge of a misty forest. A path winds north toward a ruined tower.","progress":"The adventure begins at the forest edge."}`,
	adventure.TemplateInterpretCommand: `{"narration":"Nothing much happens, but the forest seems to be watching.","updatedGameState":"The player stands at the forest edge. A path leads north to a ruined tower."}`,
	adventure.TemplateAdjustDifficulty: `{"newDifficulty":5,"reasoning":"The player is progressing at a steady pace."}`,
}

// MockLLMAPI is a mock implementation of LLMService for testing and local runs
type MockLLMAPI struct {
	InitModelFunc    func(ctx context.Context, modelName string) error
	IsModelReadyFunc func(ctx context.Context, modelName string) (bool, error)
	GenerateFunc     func(ctx context.Context, req *adventure.GenerationRequest) (string, error)

	// Track calls for testing
	InitModelCalls    []string
	IsModelReadyCalls []string
	GenerateCalls     []*adventure.GenerationRequest

	responses   map[string]string
	generateErr error

	mu sync.Mutex // protects all fields above
}

// Ensure MockLLMAPI implements LLMService interface
var _ LLMService = (*MockLLMAPI)(nil)

// NewMockLLMAPI creates a new mock LLM service
func NewMockLLMAPI() *MockLLMAPI {
	return &MockLLMAPI{
		InitModelCalls:    make([]string, 0),
		IsModelReadyCalls: make([]string, 0),
		GenerateCalls:     make([]*adventure.GenerationRequest, 0),
		responses:         make(map[string]string),
	}
}

// SetResponse fixes the raw reply for a template id
func (m *MockLLMAPI) SetResponse(templateID string, raw string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses[templateID] = raw
}

// SetGenerateError makes every Generate call fail with err
func (m *MockLLMAPI) SetGenerateError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.generateErr = err
}

// InitModel mocks model initialization
func (m *MockLLMAPI) InitModel(ctx context.Context, modelName string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.InitModelCalls = append(m.InitModelCalls, modelName)
	if m.InitModelFunc != nil {
		return m.InitModelFunc(ctx, modelName)
	}
	return nil
}

// IsModelReady mocks model readiness check
func (m *MockLLMAPI) IsModelReady(ctx context.Context, modelName string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.IsModelReadyCalls = append(m.IsModelReadyCalls, modelName)
	if m.IsModelReadyFunc != nil {
		return m.IsModelReadyFunc(ctx, modelName)
	}
	return true, nil
}

// Generate mocks generation. Precedence: GenerateFunc, the configured error,
// a configured response, then the canned default.
func (m *MockLLMAPI) Generate(ctx context.Context, req *adventure.GenerationRequest) (string, error) {
	m.mu.Lock()
	m.GenerateCalls = append(m.GenerateCalls, req)
	fn := m.GenerateFunc
	genErr := m.generateErr
	raw, ok := m.responses[req.TemplateID]
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, req)
	}
	if genErr != nil {
		return "", genErr
	}
	if ok {
		return raw, nil
	}
	return defaultMockResponses[req.TemplateID], nil
}

// GenerateCallCount returns the number of Generate calls so far
func (m *MockLLMAPI) GenerateCallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.GenerateCalls)
}

// Reset clears all call tracking
func (m *MockLLMAPI) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.InitModelCalls = make([]string, 0)
	m.IsModelReadyCalls = make([]string, 0)
	m.GenerateCalls = make([]*adventure.GenerationRequest, 0)
	m.responses = make(map[string]string)
	m.generateErr = nil
}
