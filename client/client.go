package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"sync"
	"time"
)

// DefaultBaseURL is the development fallback when TASKFLOW_API_URL is unset.
const DefaultBaseURL = "http://localhost:8080/api/v1"

// ErrSessionExpired is returned once a 401 could not be recovered by the
// refresh flow. Callers should send the user back to login.
var ErrSessionExpired = errors.New("session expired")

// APIError is a non-2xx response decoded from the server's error envelope.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.StatusCode, e.Message)
}

// Client is a typed API client. Every request carries the stored access token;
// a 401 triggers at most one token refresh, shared across concurrent requests
// through the client-owned refresh group.
type Client struct {
	baseURL string
	http    *http.Client
	tokens  TokenStore
	refresh refreshGroup
}

func New(baseURL string, tokens TokenStore) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 30 * time.Second},
		tokens:  tokens,
	}
}

// NewFromEnv reads the base URL from TASKFLOW_API_URL with a localhost fallback.
func NewFromEnv(tokens TokenStore) *Client {
	baseURL := os.Getenv("TASKFLOW_API_URL")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return New(baseURL, tokens)
}

// do runs one authenticated round trip, replaying exactly once after a
// successful refresh. The request body is rebuilt from the marshalled bytes on
// replay, which is what makes the single retry safe.
func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body []byte
	if in != nil {
		var err error
		body, err = json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
	}

	access, _ := c.tokens.Tokens()
	resp, err := c.send(ctx, method, path, body, access)
	if err != nil {
		return err
	}

	if resp.StatusCode == http.StatusUnauthorized {
		// With no refresh token stored there is no session to recover; surface
		// the server's own error (e.g. bad credentials on login) untouched.
		if _, refresh := c.tokens.Tokens(); refresh == "" {
			defer resp.Body.Close()
			return decodeAPIError(resp)
		}
		resp.Body.Close()

		// Mark-then-replay: this is the only refresh attempt for this request.
		newAccess, err := c.refreshAccess(ctx)
		if err != nil {
			return err
		}

		resp, err = c.send(ctx, method, path, body, newAccess)
		if err != nil {
			return err
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return decodeAPIError(resp)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}

func (c *Client) send(ctx context.Context, method, path string, body []byte, access string) (*http.Response, error) {
	var reader *bytes.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if access != "" {
		req.Header.Set("Authorization", "Bearer "+access)
	}

	return c.http.Do(req)
}

// refreshGroup coalesces concurrent refresh attempts: the first caller performs
// the network refresh, everyone else parks on a waiter channel and receives the
// outcome. Owned by the Client instance, never package state.
type refreshGroup struct {
	mu      sync.Mutex
	active  bool
	waiters []chan refreshResult
}

type refreshResult struct {
	access string
	err    error
}

// refreshAccess returns a fresh access token, performing or joining a refresh.
func (c *Client) refreshAccess(ctx context.Context) (string, error) {
	c.refresh.mu.Lock()
	if c.refresh.active {
		// A refresh is already in flight; queue up for its result.
		ch := make(chan refreshResult, 1)
		c.refresh.waiters = append(c.refresh.waiters, ch)
		c.refresh.mu.Unlock()

		select {
		case res := <-ch:
			return res.access, res.err
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	c.refresh.active = true
	c.refresh.mu.Unlock()

	access, err := c.doRefresh(ctx)

	c.refresh.mu.Lock()
	waiters := c.refresh.waiters
	c.refresh.waiters = nil
	c.refresh.active = false
	c.refresh.mu.Unlock()

	for _, ch := range waiters {
		ch <- refreshResult{access: access, err: err}
	}
	return access, err
}

// doRefresh posts the stored refresh token and stores the rotated pair. On
// failure the stored tokens are cleared so the caller lands back at login.
func (c *Client) doRefresh(ctx context.Context) (string, error) {
	_, refresh := c.tokens.Tokens()
	if refresh == "" {
		c.tokens.Clear()
		return "", ErrSessionExpired
	}

	body, err := json.Marshal(map[string]string{"refreshToken": refresh})
	if err != nil {
		return "", fmt.Errorf("failed to marshal refresh request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/auth/refresh", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to build refresh request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("refresh request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.tokens.Clear()
		return "", fmt.Errorf("%w: refresh rejected with status %d", ErrSessionExpired, resp.StatusCode)
	}

	var pair struct {
		AccessToken  string `json:"accessToken"`
		RefreshToken string `json:"refreshToken"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&pair); err != nil {
		return "", fmt.Errorf("failed to decode refresh response: %w", err)
	}

	if err := c.tokens.SetTokens(pair.AccessToken, pair.RefreshToken); err != nil {
		return "", err
	}
	return pair.AccessToken, nil
}

func decodeAPIError(resp *http.Response) error {
	var envelope struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	_ = json.NewDecoder(resp.Body).Decode(&envelope)

	message := envelope.Error
	if message == "" {
		message = envelope.Message
	}
	if message == "" {
		message = http.StatusText(resp.StatusCode)
	}
	return &APIError{StatusCode: resp.StatusCode, Message: message}
}
