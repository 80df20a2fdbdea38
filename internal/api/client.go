// Package api implements a client for the usage-statistics REST API of a one-api gateway.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/j-veylop/usage-dashboard-tui/internal/logger"
)

const defaultTimeout = 30 * time.Second

// ErrUnauthorized is returned when the gateway rejects the access token.
var ErrUnauthorized = errors.New("unauthorized: access token may be invalid or expired")

// APIError is a response whose envelope reported success=false.
type APIError struct {
	Path    string
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s: request failed", e.Path)
	}
	return e.Message
}

// envelope is the standard gateway response wrapper.
type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// Credentials identify the caller against the gateway.
type Credentials struct {
	BaseURL     string
	AccessToken string
	// UserID is sent as New-Api-User when set.
	UserID string
}

// Client performs authenticated GET requests against the gateway.
// Credentials can be swapped at runtime with SetCredentials.
type Client struct {
	httpClient *http.Client
	creds      Credentials
	mu         sync.RWMutex
}

// NewClient creates a client. A nil httpClient gets a default one with the given timeout.
func NewClient(creds Credentials, httpClient *http.Client, timeout time.Duration) *Client {
	if httpClient == nil {
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	creds.BaseURL = strings.TrimRight(creds.BaseURL, "/")
	return &Client{
		httpClient: httpClient,
		creds:      creds,
	}
}

// SetCredentials replaces the base URL and tokens used by subsequent requests.
func (c *Client) SetCredentials(creds Credentials) {
	creds.BaseURL = strings.TrimRight(creds.BaseURL, "/")
	c.mu.Lock()
	c.creds = creds
	c.mu.Unlock()
}

// Credentials returns the credentials in use.
func (c *Client) Credentials() Credentials {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.creds
}

// get issues a GET to path and decodes the envelope's data into out.
func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	creds := c.Credentials()
	if creds.BaseURL == "" {
		return fmt.Errorf("base URL is empty")
	}

	endpoint := creds.BaseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if creds.AccessToken != "" {
		req.Header.Set("Authorization", "Bearer "+creds.AccessToken)
	}
	if creds.UserID != "" {
		req.Header.Set("New-Api-User", creds.UserID)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request to %s failed: %w", path, err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			logger.Error("failed to close response body", "error", err)
		}
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode == http.StatusUnauthorized {
		return ErrUnauthorized
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("request to %s failed (status %d): %s", path, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	if !env.Success {
		return &APIError{Path: path, Message: env.Message}
	}

	if out == nil || len(env.Data) == 0 || string(env.Data) == "null" {
		return nil
	}

	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("failed to parse %s data: %w", path, err)
	}

	logger.Debug("api request completed", "path", path, "status", resp.StatusCode)
	return nil
}
