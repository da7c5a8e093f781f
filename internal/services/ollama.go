package services

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ollama/ollama/api"

	"github.com/jwebster45206/quest-weaver/pkg/adventure"
	"github.com/jwebster45206/quest-weaver/pkg/prompts"
)

// OllamaService implements the LLMService interface for a local Ollama server
type OllamaService struct {
	client    *api.Client
	modelName string
	rating    string
	logger    *slog.Logger

	readyAttempts int
	readyDelay    time.Duration
}

// NewOllamaService creates a new Ollama service instance
func NewOllamaService(baseURL string, modelName string, rating string, timeout time.Duration, logger *slog.Logger) (*OllamaService, error) {
	base := strings.TrimSuffix(strings.TrimSuffix(baseURL, "/"), "/v1")
	parsed, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("failed to parse ollama URL %q: %w", baseURL, err)
	}

	return &OllamaService{
		client:        api.NewClient(parsed, &http.Client{Timeout: timeout}),
		modelName:     modelName,
		rating:        rating,
		logger:        logger,
		readyAttempts: 5,
		readyDelay:    2 * time.Second,
	}, nil
}

// InitModel waits for the server and pulls the model if it is missing
func (s *OllamaService) InitModel(ctx context.Context, modelName string) error {
	s.logger.Info("Initializing LLM model", "model", modelName)

	if err := s.waitForOllamaReady(ctx); err != nil {
		return fmt.Errorf("ollama service is not ready: %w", err)
	}

	ready, err := s.IsModelReady(ctx, modelName)
	if err != nil {
		return fmt.Errorf("failed to check model readiness: %w", err)
	}
	if ready {
		s.logger.Info("Model already available", "model", modelName)
		return nil
	}

	s.logger.Info("Model not found, pulling it", "model", modelName)
	err = s.client.Pull(ctx, &api.PullRequest{Model: modelName}, func(p api.ProgressResponse) error {
		s.logger.Debug("Pulling model", "model", modelName, "status", p.Status, "completed", p.Completed, "total", p.Total)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to pull model: %w", err)
	}
	s.logger.Info("Model pulled successfully", "model", modelName)
	return nil
}

// IsModelReady checks if the specified model is available locally
func (s *OllamaService) IsModelReady(ctx context.Context, modelName string) (bool, error) {
	list, err := s.client.List(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to list models: %w", err)
	}
	for _, m := range list.Models {
		if m.Name == modelName || m.Model == modelName {
			return true, nil
		}
	}
	return false, nil
}

// Generate runs a non-streaming chat with the schema passed as the response format.
func (s *OllamaService) Generate(ctx context.Context, genReq *adventure.GenerationRequest) (string, error) {
	messages, err := prompts.New().
		WithRequest(genReq).
		WithContentRating(s.rating).
		Build()
	if err != nil {
		return "", fmt.Errorf("failed to build prompt: %w", err)
	}

	apiMessages := make([]api.Message, 0, len(messages))
	for _, m := range messages {
		apiMessages = append(apiMessages, api.Message{Role: m.Role, Content: m.Content})
	}

	stream := false
	req := &api.ChatRequest{
		Model:    s.modelName,
		Messages: apiMessages,
		Stream:   &stream,
	}
	if genReq.Schema != nil {
		req.Format = genReq.Schema.JSON()
	}

	var content strings.Builder
	err = s.client.Chat(ctx, req, func(r api.ChatResponse) error {
		content.WriteString(r.Message.Content)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("ollama chat failed: %w", err)
	}
	if content.Len() == 0 {
		return "", fmt.Errorf("empty response from model %s", s.modelName)
	}
	return content.String(), nil
}

// waitForOllamaReady waits for Ollama service to be ready with retries
func (s *OllamaService) waitForOllamaReady(ctx context.Context) error {
	for i := 0; i < s.readyAttempts; i++ {
		err := s.client.Heartbeat(ctx)
		if err == nil {
			s.logger.Info("Ollama service is ready")
			return nil
		}
		s.logger.Debug("Ollama not ready yet", "error", err, "attempt", i+1)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(s.readyDelay):
		}
	}
	return fmt.Errorf("ollama service did not become ready after %d attempts", s.readyAttempts)
}
