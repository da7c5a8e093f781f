package runner

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/google/uuid"

	"github.com/jwebster45206/quest-weaver/pkg/session"
)

// CreateSession starts a new session via POST /v1/sessions
func CreateSession(ctx context.Context, client *http.Client, baseURL string) (*session.Session, error) {
	var s session.Session
	if err := doJSON(ctx, client, http.MethodPost, baseURL+"/v1/sessions", nil, http.StatusCreated, &s); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	return &s, nil
}

// GetSession retrieves the current session
func GetSession(ctx context.Context, client *http.Client, baseURL string, id uuid.UUID) (*session.Session, error) {
	var s session.Session
	if err := doJSON(ctx, client, http.MethodGet, baseURL+"/v1/sessions/"+id.String(), nil, http.StatusOK, &s); err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return &s, nil
}

// PostAction posts to one of the session action endpoints: story, commands or difficulty
func PostAction(ctx context.Context, client *http.Client, baseURL string, id uuid.UUID, action string, body any) (*session.Result, error) {
	var result session.Result
	url := fmt.Sprintf("%s/v1/sessions/%s/%s", baseURL, id, action)
	if err := doJSON(ctx, client, http.MethodPost, url, body, http.StatusOK, &result); err != nil {
		return nil, fmt.Errorf("%s request failed: %w", action, err)
	}
	return &result, nil
}

func doJSON(ctx context.Context, client *http.Client, method, url string, body any, wantStatus int, out any) error {
	var reader io.Reader
	if body != nil {
		reqBody, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(reqBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != wantStatus {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("%s %s returned %d (expected %d): %s", method, url, resp.StatusCode, wantStatus, string(respBody))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
