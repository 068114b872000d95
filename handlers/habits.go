package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/taskflowapp/taskflow/database"
	"github.com/taskflowapp/taskflow/services"
)

// HabitHandler handles habit CRUD and the day-keyed completion log behind
// streaks and heatmaps.
type HabitHandler struct {
	habits *database.HabitService
	hub    *services.Hub
}

func NewHabitHandler(habits *database.HabitService, hub *services.Hub) *HabitHandler {
	return &HabitHandler{habits: habits, hub: hub}
}

func (h *HabitHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "user not found")
		return
	}

	q := r.URL.Query()
	filter := database.HabitFilter{Category: q.Get("category")}
	if v := q.Get("active"); v != "" {
		active := v == "true"
		filter.Active = &active
	}

	habits, err := h.habits.List(userID, filter)
	if err != nil {
		respondStoreError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"items": habits,
		"total": len(habits),
	})
}

func (h *HabitHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "user not found")
		return
	}

	var req database.HabitCreate
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request format")
		return
	}

	if req.Name == "" {
		respondError(w, http.StatusBadRequest, "name is required")
		return
	}
	if req.Frequency != "" && !database.ValidFrequency(req.Frequency) {
		respondError(w, http.StatusBadRequest, "invalid frequency")
		return
	}

	habit, err := h.habits.Create(userID, req)
	if err != nil {
		respondStoreError(w, err)
		return
	}

	h.hub.Publish(userID, services.Event{Type: "habit.created", Data: habit})
	respondJSON(w, http.StatusCreated, habit)
}

func (h *HabitHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "user not found")
		return
	}

	habit, err := h.habits.Get(mux.Vars(r)["id"], userID)
	if err != nil {
		respondStoreError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, habit)
}

func (h *HabitHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "user not found")
		return
	}

	var patch database.HabitUpdate
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request format")
		return
	}
	if patch.Name != nil && *patch.Name == "" {
		respondError(w, http.StatusBadRequest, "name cannot be empty")
		return
	}
	if patch.Frequency != nil && !database.ValidFrequency(*patch.Frequency) {
		respondError(w, http.StatusBadRequest, "invalid frequency")
		return
	}

	habit, err := h.habits.Update(mux.Vars(r)["id"], userID, patch)
	if err != nil {
		respondStoreError(w, err)
		return
	}

	h.hub.Publish(userID, services.Event{Type: "habit.updated", Data: habit})
	respondJSON(w, http.StatusOK, habit)
}

func (h *HabitHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "user not found")
		return
	}

	id := mux.Vars(r)["id"]
	if err := h.habits.Delete(id, userID); err != nil {
		respondStoreError(w, err)
		return
	}

	h.hub.Publish(userID, services.Event{Type: "habit.deleted", Data: map[string]string{"id": id}})
	respondJSON(w, http.StatusOK, map[string]string{"message": "habit deleted"})
}

func (h *HabitHandler) Log(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "user not found")
		return
	}

	var req struct {
		Date      string `json:"date"`
		Completed *bool  `json:"completed"`
		Notes     string `json:"notes"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Date == "" {
		respondError(w, http.StatusBadRequest, "date is required")
		return
	}

	completed := true
	if req.Completed != nil {
		completed = *req.Completed
	}

	entry, err := h.habits.Log(mux.Vars(r)["id"], userID, req.Date, completed, req.Notes)
	if err != nil {
		if errors.Is(err, database.ErrInvalidDate) {
			respondError(w, http.StatusBadRequest, "invalid date, want YYYY-MM-DD")
			return
		}
		respondStoreError(w, err)
		return
	}

	h.hub.Publish(userID, services.Event{Type: "habit.logged", Data: entry})
	respondJSON(w, http.StatusCreated, entry)
}

func (h *HabitHandler) Logs(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "user not found")
		return
	}

	q := r.URL.Query()
	logs, err := h.habits.Logs(mux.Vars(r)["id"], userID, q.Get("from"), q.Get("to"))
	if err != nil {
		respondStoreError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"items": logs,
		"total": len(logs),
	})
}
