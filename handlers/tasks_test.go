package handlers_test

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/taskflowapp/taskflow/database"
)

func TestCreateTaskRequiresTitle(t *testing.T) {
	srv := newTestServer(t)
	token := srv.signup(t, "Ann", "ann@example.com", "secret123")

	for _, payload := range []map[string]any{
		{},
		{"title": ""},
		{"title": "", "description": "no title here"},
	} {
		status, _ := srv.request(t, "POST", "/api/v1/tasks", token, payload)
		if status != http.StatusBadRequest {
			t.Errorf("payload %v: got status %d, want 400", payload, status)
		}
	}

	if tasks := srv.listTasks(t, token, ""); len(tasks) != 0 {
		t.Errorf("got %d persisted tasks after rejected creates, want 0", len(tasks))
	}
}

func TestCreateTaskDefaults(t *testing.T) {
	srv := newTestServer(t)
	token := srv.signup(t, "Ann", "ann@example.com", "secret123")

	task := srv.createTask(t, token, map[string]any{"title": "Buy milk"})

	if task.Status != database.StatusTodo {
		t.Errorf("status = %q, want %q", task.Status, database.StatusTodo)
	}
	if task.Priority != database.PriorityMedium {
		t.Errorf("priority = %q, want %q", task.Priority, database.PriorityMedium)
	}
	if task.ID == "" || task.UserID == "" {
		t.Errorf("task missing ids: %+v", task)
	}
}

func TestTasksRequireAuth(t *testing.T) {
	srv := newTestServer(t)

	status, _ := srv.request(t, "GET", "/api/v1/tasks", "", nil)
	if status != http.StatusUnauthorized {
		t.Errorf("no token: got %d, want 401", status)
	}

	status, _ = srv.request(t, "GET", "/api/v1/tasks", "not-a-jwt", nil)
	if status != http.StatusUnauthorized {
		t.Errorf("bad token: got %d, want 401", status)
	}
}

func TestTaskOwnership(t *testing.T) {
	srv := newTestServer(t)
	owner := srv.signup(t, "Owner", "owner@example.com", "secret123")
	intruder := srv.signup(t, "Intruder", "intruder@example.com", "secret123")

	task := srv.createTask(t, owner, map[string]any{"title": "Private work"})

	status, _ := srv.request(t, "PATCH", "/api/v1/tasks/"+task.ID, intruder, map[string]any{"title": "Hijacked"})
	if status != http.StatusForbidden {
		t.Errorf("foreign patch: got %d, want 403", status)
	}

	status, _ = srv.request(t, "DELETE", "/api/v1/tasks/"+task.ID, intruder, nil)
	if status != http.StatusForbidden {
		t.Errorf("foreign delete: got %d, want 403", status)
	}

	// The document must be unchanged.
	status, body := srv.request(t, "GET", "/api/v1/tasks/"+task.ID, owner, nil)
	if status != http.StatusOK {
		t.Fatalf("owner get: status %d", status)
	}
	var got database.Task
	if err := json.Unmarshal(body, &got); err != nil {
		t.Fatalf("decode task: %v", err)
	}
	if got.Title != "Private work" || got.IsDeleted {
		t.Errorf("task mutated by intruder: %+v", got)
	}
}

func TestTaskTrashAndRestore(t *testing.T) {
	srv := newTestServer(t)
	token := srv.signup(t, "Ann", "ann@example.com", "secret123")

	task := srv.createTask(t, token, map[string]any{"title": "Disposable"})

	status, body := srv.request(t, "DELETE", "/api/v1/tasks/"+task.ID, token, nil)
	if status != http.StatusOK {
		t.Fatalf("soft delete: status %d", status)
	}
	var deleted database.Task
	if err := json.Unmarshal(body, &deleted); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !deleted.IsDeleted || deleted.DeletedAt == nil {
		t.Errorf("soft delete did not set marker: %+v", deleted)
	}

	// Gone from the default list, present in the trash.
	if tasks := srv.listTasks(t, token, ""); len(tasks) != 0 {
		t.Errorf("default list contains %d tasks, want 0", len(tasks))
	}
	if tasks := srv.listTasks(t, token, "deleted=true"); len(tasks) != 1 {
		t.Errorf("trash list contains %d tasks, want 1", len(tasks))
	}

	status, body = srv.request(t, "POST", "/api/v1/tasks/"+task.ID+"/restore", token, nil)
	if status != http.StatusOK {
		t.Fatalf("restore: status %d", status)
	}
	var restored database.Task
	if err := json.Unmarshal(body, &restored); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if restored.IsDeleted || restored.DeletedAt != nil {
		t.Errorf("restore did not clear marker: %+v", restored)
	}

	if tasks := srv.listTasks(t, token, ""); len(tasks) != 1 {
		t.Errorf("default list contains %d tasks after restore, want 1", len(tasks))
	}
}

func TestTaskPermanentDelete(t *testing.T) {
	srv := newTestServer(t)
	token := srv.signup(t, "Ann", "ann@example.com", "secret123")

	task := srv.createTask(t, token, map[string]any{"title": "Goner"})

	status, _ := srv.request(t, "DELETE", "/api/v1/tasks/"+task.ID+"/permanent", token, nil)
	if status != http.StatusOK {
		t.Fatalf("permanent delete: status %d", status)
	}

	status, _ = srv.request(t, "POST", "/api/v1/tasks/"+task.ID+"/restore", token, nil)
	if status != http.StatusNotFound {
		t.Errorf("restore after permanent delete: got %d, want 404", status)
	}
}

func TestTaskPartialUpdate(t *testing.T) {
	srv := newTestServer(t)
	token := srv.signup(t, "Ann", "ann@example.com", "secret123")

	task := srv.createTask(t, token, map[string]any{
		"title":    "With due date",
		"dueDate":  "2026-10-01T12:00:00Z",
		"priority": "high",
	})
	if task.DueDate == nil {
		t.Fatal("due date not stored on create")
	}

	// Absent fields stay untouched.
	status, body := srv.request(t, "PATCH", "/api/v1/tasks/"+task.ID, token, map[string]any{
		"description": "now with details",
	})
	if status != http.StatusOK {
		t.Fatalf("patch: status %d", status)
	}
	var got database.Task
	if err := json.Unmarshal(body, &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Title != "With due date" || got.Priority != "high" || got.DueDate == nil {
		t.Errorf("patch clobbered untouched fields: %+v", got)
	}

	// Explicit null clears the due date.
	status, body = srv.request(t, "PATCH", "/api/v1/tasks/"+task.ID, token, map[string]any{
		"dueDate": nil,
	})
	if status != http.StatusOK {
		t.Fatalf("null patch: status %d", status)
	}
	if err := json.Unmarshal(body, &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.DueDate != nil {
		t.Errorf("dueDate = %v after explicit null, want nil", got.DueDate)
	}

	status, _ = srv.request(t, "PATCH", "/api/v1/tasks/"+task.ID, token, map[string]any{
		"status": "not-a-status",
	})
	if status != http.StatusBadRequest {
		t.Errorf("invalid status patch: got %d, want 400", status)
	}
}

func TestTaskLifecycle(t *testing.T) {
	srv := newTestServer(t)
	token := srv.signup(t, "Ann", "ann@example.com", "secret123")

	task := srv.createTask(t, token, map[string]any{"title": "Buy milk"})
	if task.Status != "todo" || task.Priority != "medium" {
		t.Fatalf("create defaults wrong: %+v", task)
	}

	status, body := srv.request(t, "PATCH", "/api/v1/tasks/"+task.ID, token, map[string]any{
		"status": "done",
	})
	if status != http.StatusOK {
		t.Fatalf("patch: status %d", status)
	}
	var updated database.Task
	if err := json.Unmarshal(body, &updated); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if updated.Status != "done" {
		t.Errorf("status = %q, want done", updated.Status)
	}

	tasks := srv.listTasks(t, token, "")
	if len(tasks) != 1 || tasks[0].ID != task.ID || tasks[0].Status != "done" {
		t.Errorf("list = %+v, want one done task %s", tasks, task.ID)
	}
}

func TestTaskListFilters(t *testing.T) {
	srv := newTestServer(t)
	token := srv.signup(t, "Ann", "ann@example.com", "secret123")

	srv.createTask(t, token, map[string]any{"title": "Write report", "status": "doing"})
	srv.createTask(t, token, map[string]any{"title": "Review notes", "status": "done"})
	srv.createTask(t, token, map[string]any{"title": "Report taxes", "status": "todo"})

	if tasks := srv.listTasks(t, token, "status=doing"); len(tasks) != 1 {
		t.Errorf("status filter: got %d, want 1", len(tasks))
	}
	if tasks := srv.listTasks(t, token, "search=Report"); len(tasks) != 2 {
		t.Errorf("search filter: got %d, want 2", len(tasks))
	}
}
