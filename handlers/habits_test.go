package handlers_test

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/taskflowapp/taskflow/database"
)

func TestHabitLogUpsertAndStreak(t *testing.T) {
	srv := newTestServer(t)
	token := srv.signup(t, "Ann", "ann@example.com", "secret123")

	status, body := srv.request(t, "POST", "/api/v1/habits", token, map[string]any{
		"name": "Morning run", "category": "fitness",
	})
	if status != http.StatusCreated {
		t.Fatalf("create habit: status %d, body %s", status, body)
	}
	var habit database.Habit
	if err := json.Unmarshal(body, &habit); err != nil {
		t.Fatalf("decode habit: %v", err)
	}
	if habit.Frequency != database.FrequencyDaily || !habit.IsActive {
		t.Errorf("habit defaults wrong: %+v", habit)
	}

	// Log today and yesterday.
	today := time.Now().Format(database.DayFormat)
	yesterday := time.Now().AddDate(0, 0, -1).Format(database.DayFormat)
	for _, day := range []string{yesterday, today} {
		status, _ = srv.request(t, "POST", "/api/v1/habits/"+habit.ID+"/logs", token, map[string]any{
			"date": day,
		})
		if status != http.StatusCreated {
			t.Fatalf("log %s: status %d", day, status)
		}
	}

	status, body = srv.request(t, "GET", "/api/v1/habits/"+habit.ID, token, nil)
	if status != http.StatusOK {
		t.Fatalf("get habit: status %d", status)
	}
	if err := json.Unmarshal(body, &habit); err != nil {
		t.Fatalf("decode habit: %v", err)
	}
	if habit.CurrentStreak != 2 || habit.TotalCompletions != 2 {
		t.Errorf("streak = %d completions = %d, want 2 and 2", habit.CurrentStreak, habit.TotalCompletions)
	}

	// Re-logging today flips the entry instead of duplicating it.
	status, _ = srv.request(t, "POST", "/api/v1/habits/"+habit.ID+"/logs", token, map[string]any{
		"date": today, "completed": false, "notes": "skipped, sore knee",
	})
	if status != http.StatusCreated {
		t.Fatalf("re-log: status %d", status)
	}

	status, body = srv.request(t, "GET", "/api/v1/habits/"+habit.ID+"/logs", token, nil)
	if status != http.StatusOK {
		t.Fatalf("list logs: status %d", status)
	}
	var logs struct {
		Items []database.HabitLog `json:"items"`
	}
	if err := json.Unmarshal(body, &logs); err != nil {
		t.Fatalf("decode logs: %v", err)
	}
	if len(logs.Items) != 2 {
		t.Fatalf("got %d logs, want 2", len(logs.Items))
	}

	status, body = srv.request(t, "GET", "/api/v1/habits/"+habit.ID, token, nil)
	if status != http.StatusOK {
		t.Fatalf("get habit: status %d", status)
	}
	if err := json.Unmarshal(body, &habit); err != nil {
		t.Fatalf("decode habit: %v", err)
	}
	if habit.TotalCompletions != 1 {
		t.Errorf("completions after un-completing today = %d, want 1", habit.TotalCompletions)
	}

	status, _ = srv.request(t, "POST", "/api/v1/habits/"+habit.ID+"/logs", token, map[string]any{
		"date": "not-a-date",
	})
	if status != http.StatusBadRequest {
		t.Errorf("bad date: got %d, want 400", status)
	}
}

func TestHabitOwnership(t *testing.T) {
	srv := newTestServer(t)
	owner := srv.signup(t, "Owner", "owner@example.com", "secret123")
	intruder := srv.signup(t, "Intruder", "intruder@example.com", "secret123")

	status, body := srv.request(t, "POST", "/api/v1/habits", owner, map[string]any{"name": "Read"})
	if status != http.StatusCreated {
		t.Fatalf("create: status %d", status)
	}
	var habit database.Habit
	if err := json.Unmarshal(body, &habit); err != nil {
		t.Fatalf("decode: %v", err)
	}

	status, _ = srv.request(t, "POST", "/api/v1/habits/"+habit.ID+"/logs", intruder, map[string]any{
		"date": time.Now().Format(database.DayFormat),
	})
	if status != http.StatusForbidden {
		t.Errorf("foreign log: got %d, want 403", status)
	}

	status, _ = srv.request(t, "DELETE", "/api/v1/habits/"+habit.ID, intruder, nil)
	if status != http.StatusForbidden {
		t.Errorf("foreign delete: got %d, want 403", status)
	}
}
