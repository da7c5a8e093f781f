package services

import (
	"context"

	"github.com/jwebster45206/quest-weaver/pkg/adventure"
)

// Provider names accepted by LLM_PROVIDER.
const (
	ProviderAnthropic = "anthropic"
	ProviderOpenAI    = "openai"
	ProviderVenice    = "venice"
	ProviderOllama    = "ollama"
	ProviderMock      = "mock"
)

// LLMService defines the interface for interacting with the LLM API
type LLMService interface {
	// InitModel prepares the model on startup
	InitModel(ctx context.Context, modelName string) error

	// IsModelReady checks if the specified model is ready for use
	IsModelReady(ctx context.Context, modelName string) (bool, error)

	// Generate returns the raw text the backend produced for req
	Generate(ctx context.Context, req *adventure.GenerationRequest) (string, error)
}
