package services

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/jwebster45206/quest-weaver/pkg/adventure"
	"github.com/jwebster45206/quest-weaver/pkg/chat"
	"github.com/jwebster45206/quest-weaver/pkg/prompts"
)

const (
	veniceBaseURL = "https://api.venice.ai/api/v1"

	DefaultOpenAITemperature = 0.7
)

// OpenAIService implements LLMService for OpenAI and OpenAI-compatible
// vendors such as Venice AI. Responses are constrained with a json_schema
// response format.
type OpenAIService struct {
	client    *openai.Client
	modelName string
	rating    string
	logger    *slog.Logger
}

// NewOpenAIService creates a client for baseURL, or the public OpenAI API when baseURL is empty.
func NewOpenAIService(apiKey string, baseURL string, modelName string, rating string, timeout time.Duration, logger *slog.Logger) *OpenAIService {
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	config.HTTPClient = &http.Client{Timeout: timeout}

	return &OpenAIService{
		client:    openai.NewClientWithConfig(config),
		modelName: modelName,
		rating:    rating,
		logger:    logger,
	}
}

// NewVeniceService creates an OpenAIService pointed at Venice AI.
func NewVeniceService(apiKey string, modelName string, rating string, timeout time.Duration, logger *slog.Logger) *OpenAIService {
	return NewOpenAIService(apiKey, veniceBaseURL, modelName, rating, timeout, logger)
}

func (o *OpenAIService) InitModel(ctx context.Context, modelName string) error {
	return nil
}

// IsModelReady checks that the API knows the model.
func (o *OpenAIService) IsModelReady(ctx context.Context, modelName string) (bool, error) {
	if _, err := o.client.GetModel(ctx, modelName); err != nil {
		return false, fmt.Errorf("failed to get model %s: %w", modelName, err)
	}
	return true, nil
}

func (o *OpenAIService) Generate(ctx context.Context, genReq *adventure.GenerationRequest) (string, error) {
	messages, err := prompts.New().
		WithRequest(genReq).
		WithContentRating(o.rating).
		Build()
	if err != nil {
		return "", fmt.Errorf("failed to build prompt: %w", err)
	}

	req := openai.ChatCompletionRequest{
		Model:       o.modelName,
		Messages:    toOpenAIMessages(messages),
		Temperature: DefaultOpenAITemperature,
	}
	if genReq.Schema != nil {
		req.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
				Name:        genReq.Schema.Name,
				Description: genReq.Schema.Description,
				Schema:      genReq.Schema.JSON(),
				Strict:      true,
			},
		}
	}

	resp, err := o.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no choices in response from model %s", o.modelName)
	}

	o.logger.Debug("Chat completion received",
		"template", genReq.TemplateID,
		"finish_reason", resp.Choices[0].FinishReason,
		"total_tokens", resp.Usage.TotalTokens)
	return resp.Choices[0].Message.Content, nil
}

func toOpenAIMessages(messages []chat.ChatMessage) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, m := range messages {
		out = append(out, openai.ChatCompletionMessage{Role: m.Role, Content: m.Content})
	}
	return out
}
