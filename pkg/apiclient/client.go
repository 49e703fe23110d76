// Package apiclient provides the REST client workers use to talk to
// the coordinator.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/luchenqun/lucky-dog/pkg/wallet"
)

// Client is the coordinator API client.
type Client struct {
	baseURL    string
	httpClient *http.Client
	token      string
}

// New creates a new API client against the coordinator base URL.
func New(baseURL, token string) *Client {
	return &Client{
		baseURL: baseURL,
		token:   token,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// APIError is a non-2xx response from the coordinator.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error (status %d): %s", e.StatusCode, e.Message)
}

// do performs an HTTP request and decodes the JSON response.
func (c *Client) do(ctx context.Context, method, path string, body, result any) error {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode >= 400 {
		var apiErr struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(respBody, &apiErr) == nil && apiErr.Error != "" {
			return &APIError{StatusCode: resp.StatusCode, Message: apiErr.Error}
		}
		return &APIError{StatusCode: resp.StatusCode, Message: string(respBody)}
	}

	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}

// WorkResponse is the lease handed out by the coordinator.
type WorkResponse struct {
	Success       bool               `json:"success"`
	Passwords     []string           `json:"passwords"`
	Encrypt       *wallet.Descriptor `json:"encrypt"`
	BatchID       string             `json:"batchId"`
	Count         int                `json:"count"`
	PasswordFound bool               `json:"passwordFound"`
}

// ResultResponse is the coordinator's acknowledgment of a batch result.
type ResultResponse struct {
	Success       bool   `json:"success"`
	Message       string `json:"message"`
	ShouldStop    bool   `json:"shouldStop"`
	PasswordFound bool   `json:"passwordFound"`
}

// RequestWork leases a batch of candidates.
func (c *Client) RequestWork(ctx context.Context, clientID string, cpuCount int) (*WorkResponse, error) {
	body := map[string]any{
		"clientId": clientID,
		"cpuCount": cpuCount,
	}
	var resp WorkResponse
	if err := c.do(ctx, http.MethodPost, "/work/request", body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// SubmitResult reports the outcome of a leased batch. The full leased
// passphrase set is always carried so the coordinator can mark the
// rows CHECKED on failure.
func (c *Client) SubmitResult(ctx context.Context, batchID, clientID string, success bool, foundPassword string, passwords []string) (*ResultResponse, error) {
	body := map[string]any{
		"batchId":       batchID,
		"clientId":      clientID,
		"success":       success,
		"foundPassword": foundPassword,
		"passwords":     passwords,
	}
	var resp ResultResponse
	if err := c.do(ctx, http.MethodPost, "/work/result", body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ConfirmFound asserts the found latch. Idempotent server-side.
func (c *Client) ConfirmFound(ctx context.Context, clientID, password string) error {
	body := map[string]any{
		"clientId": clientID,
		"password": password,
	}
	return c.do(ctx, http.MethodPost, "/work/found", body, nil)
}

// ResetTimeout forces a stale-lease reclamation pass.
func (c *Client) ResetTimeout(ctx context.Context) (int64, error) {
	var resp struct {
		Success    bool  `json:"success"`
		ResetCount int64 `json:"resetCount"`
	}
	if err := c.do(ctx, http.MethodPost, "/work/reset-timeout", nil, &resp); err != nil {
		return 0, err
	}
	return resp.ResetCount, nil
}

// Health probes the coordinator liveness endpoint.
func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/health", nil, nil)
}
