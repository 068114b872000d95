package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/taskflowapp/taskflow/database"
	"github.com/taskflowapp/taskflow/services"
)

// TaskHandler exposes ownership-checked CRUD for tasks, including the
// trash/restore/permanent-delete flow.
type TaskHandler struct {
	tasks *database.TaskService
	hub   *services.Hub
}

func NewTaskHandler(tasks *database.TaskService, hub *services.Hub) *TaskHandler {
	return &TaskHandler{tasks: tasks, hub: hub}
}

func (h *TaskHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "user not found")
		return
	}

	q := r.URL.Query()
	filter := database.TaskFilter{
		Status:         q.Get("status"),
		FolderID:       q.Get("folderId"),
		Search:         q.Get("search"),
		IncludeDeleted: q.Get("deleted") == "true",
	}

	tasks, err := h.tasks.List(userID, filter)
	if err != nil {
		respondStoreError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"items": tasks,
		"total": len(tasks),
	})
}

func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "user not found")
		return
	}

	var req database.TaskCreate
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request format")
		return
	}

	if req.Title == "" {
		respondError(w, http.StatusBadRequest, "title is required")
		return
	}
	if req.Status != "" && !database.ValidStatus(req.Status) {
		respondError(w, http.StatusBadRequest, "invalid status")
		return
	}
	if req.Priority != "" && !database.ValidPriority(req.Priority) {
		respondError(w, http.StatusBadRequest, "invalid priority")
		return
	}

	task, err := h.tasks.Create(userID, req)
	if err != nil {
		respondStoreError(w, err)
		return
	}

	h.hub.Publish(userID, services.Event{Type: "task.created", Data: task})
	respondJSON(w, http.StatusCreated, task)
}

func (h *TaskHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "user not found")
		return
	}

	task, err := h.tasks.Get(mux.Vars(r)["id"], userID)
	if err != nil {
		respondStoreError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, task)
}

func (h *TaskHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "user not found")
		return
	}

	patch, err := decodeTaskPatch(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	task, err := h.tasks.Update(mux.Vars(r)["id"], userID, *patch)
	if err != nil {
		respondStoreError(w, err)
		return
	}

	h.hub.Publish(userID, services.Event{Type: "task.updated", Data: task})
	respondJSON(w, http.StatusOK, task)
}

func (h *TaskHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "user not found")
		return
	}

	task, err := h.tasks.SoftDelete(mux.Vars(r)["id"], userID)
	if err != nil {
		respondStoreError(w, err)
		return
	}

	h.hub.Publish(userID, services.Event{Type: "task.deleted", Data: task})
	respondJSON(w, http.StatusOK, task)
}

func (h *TaskHandler) Restore(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "user not found")
		return
	}

	task, err := h.tasks.Restore(mux.Vars(r)["id"], userID)
	if err != nil {
		respondStoreError(w, err)
		return
	}

	h.hub.Publish(userID, services.Event{Type: "task.restored", Data: task})
	respondJSON(w, http.StatusOK, task)
}

func (h *TaskHandler) DeletePermanent(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "user not found")
		return
	}

	id := mux.Vars(r)["id"]
	if err := h.tasks.Delete(id, userID); err != nil {
		respondStoreError(w, err)
		return
	}

	h.hub.Publish(userID, services.Event{Type: "task.purged", Data: map[string]string{"id": id}})
	respondJSON(w, http.StatusOK, map[string]string{"message": "task permanently deleted"})
}

// decodeTaskPatch decodes a partial update. The due date needs raw handling:
// an absent field leaves the stored value alone, an explicit null clears it.
func decodeTaskPatch(r *http.Request) (*database.TaskUpdate, error) {
	var req struct {
		Title       *string         `json:"title"`
		Description *string         `json:"description"`
		Status      *string         `json:"status"`
		Priority    *string         `json:"priority"`
		DueDate     json.RawMessage `json:"dueDate"`
		FolderID    *string         `json:"folderId"`
		TeamID      *string         `json:"teamId"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return nil, errInvalidFormat
	}

	if req.Title != nil && *req.Title == "" {
		return nil, errEmptyTitle
	}
	if req.Status != nil && !database.ValidStatus(*req.Status) {
		return nil, errInvalidStatus
	}
	if req.Priority != nil && !database.ValidPriority(*req.Priority) {
		return nil, errInvalidPriority
	}

	patch := &database.TaskUpdate{
		Title:       req.Title,
		Description: req.Description,
		Status:      req.Status,
		Priority:    req.Priority,
		FolderID:    req.FolderID,
		TeamID:      req.TeamID,
	}

	switch {
	case len(req.DueDate) == 0:
		// absent, leave untouched
	case bytes.Equal(req.DueDate, []byte("null")), bytes.Equal(req.DueDate, []byte(`""`)):
		patch.ClearDueDate = true
	default:
		var due time.Time
		if err := json.Unmarshal(req.DueDate, &due); err != nil {
			return nil, errInvalidDueDate
		}
		patch.DueDate = &due
	}

	return patch, nil
}

type validationError string

func (e validationError) Error() string { return string(e) }

const (
	errInvalidFormat   = validationError("invalid request format")
	errEmptyTitle      = validationError("title cannot be empty")
	errInvalidStatus   = validationError("invalid status")
	errInvalidPriority = validationError("invalid priority")
	errInvalidDueDate  = validationError("invalid due date")
)
