package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/google/uuid"

	"github.com/jwebster45206/quest-weaver/internal/handlers"
	"github.com/jwebster45206/quest-weaver/pkg/session"
)

// APIClient talks to the quest-weaver session API.
type APIClient struct {
	baseURL string
	client  *http.Client
}

func NewAPIClient(baseURL string, client *http.Client) *APIClient {
	return &APIClient{baseURL: baseURL, client: client}
}

// Ping reports whether the API answered its health check with 200.
func (c *APIClient) Ping(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return false
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

func (c *APIClient) CreateSession(ctx context.Context) (*session.Session, error) {
	var s session.Session
	if err := c.do(ctx, http.MethodPost, "/v1/sessions", nil, http.StatusCreated, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (c *APIClient) GetSession(ctx context.Context, id uuid.UUID) (*session.Session, error) {
	var s session.Session
	if err := c.do(ctx, http.MethodGet, "/v1/sessions/"+id.String(), nil, http.StatusOK, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (c *APIClient) GenerateStory(ctx context.Context, id uuid.UUID, req handlers.StoryRequest) (*session.Result, error) {
	return c.action(ctx, id, "story", req)
}

func (c *APIClient) SendCommand(ctx context.Context, id uuid.UUID, command string) (*session.Result, error) {
	return c.action(ctx, id, "commands", handlers.CommandRequest{Command: command})
}

func (c *APIClient) AdjustDifficulty(ctx context.Context, id uuid.UUID, playerSuccess bool) (*session.Result, error) {
	return c.action(ctx, id, "difficulty", handlers.DifficultyRequest{PlayerSuccess: &playerSuccess})
}

func (c *APIClient) action(ctx context.Context, id uuid.UUID, name string, body any) (*session.Result, error) {
	var result session.Result
	path := fmt.Sprintf("/v1/sessions/%s/%s", id, name)
	if err := c.do(ctx, http.MethodPost, path, body, http.StatusOK, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *APIClient) do(ctx context.Context, method, path string, body any, wantStatus int, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != wantStatus {
		var errResp handlers.ErrorResponse
		if err := json.Unmarshal(respBody, &errResp); err == nil && errResp.Error != "" {
			return fmt.Errorf("API error (%d): %s", resp.StatusCode, errResp.Error)
		}
		return fmt.Errorf("API error (%d): %s", resp.StatusCode, string(respBody))
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}
