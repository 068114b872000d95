package handlers_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/taskflowapp/taskflow/database"
	"github.com/taskflowapp/taskflow/handlers"
	"github.com/taskflowapp/taskflow/services"
)

type testServer struct {
	*httptest.Server
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	db, err := database.InitDB(":memory:")
	if err != nil {
		t.Fatalf("InitDB: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	hub := services.NewHub()
	go hub.Run()

	router := handlers.NewRouter(db, services.NewAuthService(), hub)
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	return &testServer{Server: srv}
}

// signup registers and logs in a user, returning the access token.
func (s *testServer) signup(t *testing.T, name, email, password string) string {
	t.Helper()

	status, _ := s.request(t, "POST", "/api/v1/auth/register", "", map[string]string{
		"name": name, "email": email, "password": password,
	})
	if status != http.StatusCreated {
		t.Fatalf("register %s: status %d", email, status)
	}

	status, body := s.request(t, "POST", "/api/v1/auth/login", "", map[string]string{
		"email": email, "password": password,
	})
	if status != http.StatusOK {
		t.Fatalf("login %s: status %d", email, status)
	}

	var resp struct {
		AccessToken string `json:"accessToken"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		t.Fatalf("decode login response: %v", err)
	}
	return resp.AccessToken
}

// request performs one JSON round trip and returns status and raw body.
func (s *testServer) request(t *testing.T, method, path, token string, payload any) (int, []byte) {
	t.Helper()

	var reader io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal payload: %v", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, s.URL+path, reader)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp.StatusCode, body
}

// createTask is a convenience for tests that need a seeded task.
func (s *testServer) createTask(t *testing.T, token string, payload map[string]any) database.Task {
	t.Helper()

	status, body := s.request(t, "POST", "/api/v1/tasks", token, payload)
	if status != http.StatusCreated {
		t.Fatalf("create task: status %d, body %s", status, body)
	}

	var task database.Task
	if err := json.Unmarshal(body, &task); err != nil {
		t.Fatalf("decode task: %v", err)
	}
	return task
}

func (s *testServer) listTasks(t *testing.T, token, query string) []database.Task {
	t.Helper()

	path := "/api/v1/tasks"
	if query != "" {
		path += "?" + query
	}
	status, body := s.request(t, "GET", path, token, nil)
	if status != http.StatusOK {
		t.Fatalf("list tasks: status %d", status)
	}

	var resp struct {
		Items []database.Task `json:"items"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	return resp.Items
}
