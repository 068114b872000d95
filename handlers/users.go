package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/taskflowapp/taskflow/database"
	"github.com/taskflowapp/taskflow/services"
)

// UserHandler exposes the authenticated user's own profile.
type UserHandler struct {
	users *database.UserService
	hub   *services.Hub
}

func NewUserHandler(users *database.UserService, hub *services.Hub) *UserHandler {
	return &UserHandler{users: users, hub: hub}
}

func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "user not found")
		return
	}

	user, err := h.users.GetByID(userID)
	if err != nil {
		respondStoreError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, user)
}

func (h *UserHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "user not found")
		return
	}

	var patch database.UserUpdate
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request format")
		return
	}
	if patch.Name != nil && *patch.Name == "" {
		respondError(w, http.StatusBadRequest, "name cannot be empty")
		return
	}

	user, err := h.users.Update(userID, patch)
	if err != nil {
		respondStoreError(w, err)
		return
	}

	h.hub.Publish(userID, services.Event{Type: "user.updated", Data: user})
	respondJSON(w, http.StatusOK, user)
}
