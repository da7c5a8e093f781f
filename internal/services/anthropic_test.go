package services

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/jwebster45206/quest-weaver/pkg/adventure"
	"github.com/jwebster45206/quest-weaver/pkg/chat"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func interpretRequest() *adventure.GenerationRequest {
	return &adventure.GenerationRequest{
		TemplateID:   adventure.TemplateInterpretCommand,
		Instructions: "Player Command: look",
		Schema:       adventure.InterpretSchema,
	}
}

func TestNewAnthropicService(t *testing.T) {
	service := NewAnthropicService("test-api-key", "claude-sonnet", "PG", time.Minute, discardLogger())

	if service.apiKey != "test-api-key" {
		t.Errorf("Expected API key test-api-key, got %s", service.apiKey)
	}
	if service.modelName != "claude-sonnet" {
		t.Errorf("Expected model name claude-sonnet, got %s", service.modelName)
	}
	if service.httpClient == nil || service.httpClient.Timeout != time.Minute {
		t.Error("Expected HTTP client with the configured timeout")
	}
	if service.baseURL != anthropicBaseURL {
		t.Errorf("Expected default base URL, got %s", service.baseURL)
	}
}

func TestAnthropicService_SplitChatMessages(t *testing.T) {
	service := NewAnthropicService("k", "m", "", time.Minute, discardLogger())

	system, rest := service.splitChatMessages([]chat.ChatMessage{
		{Role: chat.ChatRoleSystem, Content: "Reply in JSON."},
		{Role: chat.ChatRoleUser, Content: "Hello"},
		{Role: chat.ChatRoleSystem, Content: "Be concise."},
	})
	if system != "Reply in JSON.\n\nBe concise." {
		t.Errorf("Unexpected system prompt %q", system)
	}
	if len(rest) != 1 || rest[0].Content != "Hello" {
		t.Errorf("Expected only the user message to remain, got %+v", rest)
	}
}

func TestAnthropicService_Generate(t *testing.T) {
	var got AnthropicChatRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/messages" {
			t.Errorf("Unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("x-api-key") != "secret" {
			t.Errorf("Missing api key header")
		}
		if r.Header.Get("anthropic-version") != anthropicVersion {
			t.Errorf("Missing version header")
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("Failed to decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"msg_1","type":"message","role":"assistant","content":[{"type":"text","text":"{\"narration\":\"n\","},{"type":"text","text":"\"updatedGameState\":\"g\"}"}],"stop_reason":"end_turn"}`))
	}))
	defer server.Close()

	service := NewAnthropicService("secret", "claude-sonnet", "G", time.Second, discardLogger())
	service.baseURL = server.URL

	raw, err := service.Generate(context.Background(), interpretRequest())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if raw != `{"narration":"n","updatedGameState":"g"}` {
		t.Errorf("Unexpected response %q", raw)
	}

	if got.Model != "claude-sonnet" {
		t.Errorf("Expected model claude-sonnet, got %s", got.Model)
	}
	if !strings.Contains(got.System, `"updatedGameState"`) {
		t.Error("Expected schema in system prompt")
	}
	if !strings.Contains(got.System, "Content Rating: G") {
		t.Error("Expected content rating in system prompt")
	}
	if len(got.Messages) != 1 || got.Messages[0].Role != chat.ChatRoleUser {
		t.Errorf("Expected a single user message, got %+v", got.Messages)
	}
}

func TestAnthropicService_GenerateErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"http error", http.StatusInternalServerError, `{"type":"error"}`},
		{"api error", http.StatusOK, `{"error":{"type":"overloaded_error","message":"Overloaded"}}`},
		{"empty content", http.StatusOK, `{"content":[]}`},
		{"bad json", http.StatusOK, `not json`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			service := NewAnthropicService("k", "m", "", time.Second, discardLogger())
			service.baseURL = server.URL

			if _, err := service.Generate(context.Background(), interpretRequest()); err == nil {
				t.Error("Expected error")
			}
		})
	}
}
