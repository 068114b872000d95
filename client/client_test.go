package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/taskflowapp/taskflow/database"
)

// newRefreshBackend fakes the API: the seeded access token is always rejected,
// the refresh endpoint (slowly) rotates the pair, and /tasks succeeds only with
// the rotated access token.
func newRefreshBackend(t *testing.T, refreshCalls *int32, refreshOK bool) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()

	mux.HandleFunc("/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(refreshCalls, 1)

		// Slow refresh widens the window in which concurrent 401s pile up.
		time.Sleep(100 * time.Millisecond)

		if !refreshOK {
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]string{"error": "invalid or expired refresh token"})
			return
		}

		var req struct {
			RefreshToken string `json:"refreshToken"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.RefreshToken != "stale-refresh" {
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]string{"error": "unknown refresh token"})
			return
		}

		json.NewEncoder(w).Encode(map[string]string{
			"accessToken":  "fresh-access",
			"refreshToken": "fresh-refresh",
		})
	})

	mux.HandleFunc("/tasks", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer fresh-access" {
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]string{"error": "invalid token"})
			return
		}
		json.NewEncoder(w).Encode(map[string]any{"items": []any{}, "total": 0})
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestConcurrent401sShareOneRefresh(t *testing.T) {
	var refreshCalls int32
	srv := newRefreshBackend(t, &refreshCalls, true)

	tokens := NewMemoryTokenStore()
	tokens.SetTokens("stale-access", "stale-refresh")
	c := New(srv.URL, tokens)

	const n = 8
	start := make(chan struct{})
	errs := make([]error, n)

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			_, errs[i] = c.ListTasks(context.Background(), TaskListOptions{})
		}(i)
	}
	close(start)
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Errorf("request %d failed: %v", i, err)
		}
	}
	if got := atomic.LoadInt32(&refreshCalls); got != 1 {
		t.Errorf("refresh endpoint hit %d times, want exactly 1", got)
	}

	access, refresh := tokens.Tokens()
	if access != "fresh-access" || refresh != "fresh-refresh" {
		t.Errorf("rotated pair not stored: access=%q refresh=%q", access, refresh)
	}
}

func TestRefreshFailureExpiresSession(t *testing.T) {
	var refreshCalls int32
	srv := newRefreshBackend(t, &refreshCalls, false)

	tokens := NewMemoryTokenStore()
	tokens.SetTokens("stale-access", "stale-refresh")
	c := New(srv.URL, tokens)

	const n = 4
	start := make(chan struct{})
	errs := make([]error, n)

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			_, errs[i] = c.ListTasks(context.Background(), TaskListOptions{})
		}(i)
	}
	close(start)
	wg.Wait()

	for i, err := range errs {
		if !errors.Is(err, ErrSessionExpired) {
			t.Errorf("request %d: err = %v, want ErrSessionExpired", i, err)
		}
	}
	if got := atomic.LoadInt32(&refreshCalls); got != 1 {
		t.Errorf("refresh endpoint hit %d times, want exactly 1", got)
	}

	access, refresh := tokens.Tokens()
	if access != "" || refresh != "" {
		t.Errorf("tokens not cleared after failed refresh: access=%q refresh=%q", access, refresh)
	}
}

func TestNoRefreshWithoutRefreshToken(t *testing.T) {
	var refreshCalls int32
	srv := newRefreshBackend(t, &refreshCalls, true)

	c := New(srv.URL, NewMemoryTokenStore())

	_, err := c.ListTasks(context.Background(), TaskListOptions{})
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusUnauthorized {
		t.Errorf("err = %v, want the server's 401 *APIError", err)
	}
	if got := atomic.LoadInt32(&refreshCalls); got != 0 {
		t.Errorf("refresh endpoint hit %d times with no stored refresh token", got)
	}
}

func TestLoginRejectionKeepsServerError(t *testing.T) {
	var refreshCalls int32

	mux := http.NewServeMux()
	mux.HandleFunc("/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&refreshCalls, 1)
		w.WriteHeader(http.StatusUnauthorized)
	})
	mux.HandleFunc("/auth/login", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]string{"error": "invalid email or password"})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	c := New(srv.URL, NewMemoryTokenStore())

	_, err := c.Login(context.Background(), "ann@example.com", "wrong")
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("err = %v, want *APIError", err)
	}
	if apiErr.StatusCode != http.StatusUnauthorized || apiErr.Message != "invalid email or password" {
		t.Errorf("apiErr = %+v", apiErr)
	}
	if errors.Is(err, ErrSessionExpired) {
		t.Error("credential rejection reported as expired session")
	}
	if got := atomic.LoadInt32(&refreshCalls); got != 0 {
		t.Errorf("refresh endpoint hit %d times during login", got)
	}
}

func TestAPIErrorDecoding(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{"error": "title is required"})
	}))
	t.Cleanup(srv.Close)

	tokens := NewMemoryTokenStore()
	tokens.SetTokens("any", "any")
	c := New(srv.URL, tokens)

	_, err := c.CreateTask(context.Background(), database.TaskCreate{})
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("err = %v, want *APIError", err)
	}
	if apiErr.StatusCode != http.StatusBadRequest || apiErr.Message != "title is required" {
		t.Errorf("apiErr = %+v", apiErr)
	}
}
