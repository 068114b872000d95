package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/taskflowapp/taskflow/database"
)

func seedBoard() *Board {
	b := NewBoard()
	b.Load([]database.Task{
		{ID: "a", Title: "First", Status: database.StatusTodo},
		{ID: "b", Title: "Second", Status: database.StatusTodo},
		{ID: "c", Title: "Third", Status: database.StatusTodo},
		{ID: "d", Title: "Reviewing", Status: database.StatusReview},
	})
	return b
}

func columnIDs(col BoardColumn) []string {
	ids := make([]string, len(col.Tasks))
	for i, t := range col.Tasks {
		ids[i] = t.ID
	}
	return ids
}

func TestBoardReorderWithinColumn(t *testing.T) {
	b := seedBoard()

	task, crossed, err := b.Move(database.StatusTodo, database.StatusTodo, 0, 2)
	if err != nil {
		t.Fatalf("Move: %v", err)
	}
	if crossed {
		t.Error("same-column move reported as column change")
	}
	if task.ID != "a" {
		t.Errorf("moved task = %s, want a", task.ID)
	}

	got := columnIDs(*b.column(database.StatusTodo))
	want := []string{"b", "c", "a"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("todo order = %v, want %v", got, want)
		}
	}
}

func TestBoardMoveAcrossColumns(t *testing.T) {
	b := seedBoard()

	task, crossed, err := b.Move(database.StatusTodo, database.StatusReview, 1, 0)
	if err != nil {
		t.Fatalf("Move: %v", err)
	}
	if !crossed {
		t.Error("cross-column move not reported")
	}
	if task.Status != database.StatusReview {
		t.Errorf("moved task status = %q, want review", task.Status)
	}

	if got := columnIDs(*b.column(database.StatusTodo)); len(got) != 2 {
		t.Errorf("todo column = %v, want 2 tasks", got)
	}
	review := columnIDs(*b.column(database.StatusReview))
	if len(review) != 2 || review[0] != "b" {
		t.Errorf("review column = %v, want [b d]", review)
	}
}

func TestBoardMoveBadIndices(t *testing.T) {
	b := seedBoard()

	if _, _, err := b.Move("nope", database.StatusDone, 0, 0); err == nil {
		t.Error("unknown source column accepted")
	}
	if _, _, err := b.Move(database.StatusTodo, database.StatusDone, 99, 0); err == nil {
		t.Error("out-of-range source index accepted")
	}

	// Drop index beyond the destination length clamps instead of failing.
	if _, _, err := b.Move(database.StatusTodo, database.StatusDone, 0, 99); err != nil {
		t.Errorf("clamped drop index rejected: %v", err)
	}
}

func TestMoveTaskPatchesOnlyOnColumnChange(t *testing.T) {
	var patches int32
	var lastBody map[string]string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPatch {
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
			return
		}
		atomic.AddInt32(&patches, 1)
		json.NewDecoder(r.Body).Decode(&lastBody)
		json.NewEncoder(w).Encode(database.Task{ID: "c", Status: lastBody["status"]})
	}))
	t.Cleanup(srv.Close)

	tokens := NewMemoryTokenStore()
	tokens.SetTokens("token", "refresh")
	c := New(srv.URL, tokens)

	b := seedBoard()

	// Same-column reorder stays local.
	if err := c.MoveTask(context.Background(), b, database.StatusTodo, database.StatusTodo, 0, 1); err != nil {
		t.Fatalf("MoveTask reorder: %v", err)
	}
	if atomic.LoadInt32(&patches) != 0 {
		t.Errorf("reorder issued %d PATCHes, want 0", patches)
	}

	// Cross-column move persists exactly one status PATCH.
	if err := c.MoveTask(context.Background(), b, database.StatusTodo, database.StatusDoing, 2, 0); err != nil {
		t.Fatalf("MoveTask move: %v", err)
	}
	if atomic.LoadInt32(&patches) != 1 {
		t.Errorf("move issued %d PATCHes, want 1", patches)
	}
	if lastBody["status"] != database.StatusDoing {
		t.Errorf("patched status = %q, want doing", lastBody["status"])
	}
}
