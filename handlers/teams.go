package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/taskflowapp/taskflow/database"
	"github.com/taskflowapp/taskflow/services"
)

// TeamHandler handles team CRUD and roster management.
type TeamHandler struct {
	teams *database.TeamService
	hub   *services.Hub
}

func NewTeamHandler(teams *database.TeamService, hub *services.Hub) *TeamHandler {
	return &TeamHandler{teams: teams, hub: hub}
}

func (h *TeamHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "user not found")
		return
	}

	teams, err := h.teams.List(userID)
	if err != nil {
		respondStoreError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"items": teams,
		"total": len(teams),
	})
}

func (h *TeamHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "user not found")
		return
	}

	var req database.TeamCreate
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request format")
		return
	}

	if req.Name == "" {
		respondError(w, http.StatusBadRequest, "name is required")
		return
	}

	team, err := h.teams.Create(userID, req)
	if err != nil {
		respondStoreError(w, err)
		return
	}

	h.hub.Publish(userID, services.Event{Type: "team.created", Data: team})
	respondJSON(w, http.StatusCreated, team)
}

func (h *TeamHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "user not found")
		return
	}

	team, err := h.teams.Get(mux.Vars(r)["id"], userID)
	if err != nil {
		respondStoreError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, team)
}

func (h *TeamHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "user not found")
		return
	}

	var patch database.TeamUpdate
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request format")
		return
	}
	if patch.Name != nil && *patch.Name == "" {
		respondError(w, http.StatusBadRequest, "name cannot be empty")
		return
	}

	team, err := h.teams.Update(mux.Vars(r)["id"], userID, patch)
	if err != nil {
		respondStoreError(w, err)
		return
	}

	h.hub.Publish(userID, services.Event{Type: "team.updated", Data: team})
	respondJSON(w, http.StatusOK, team)
}

func (h *TeamHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "user not found")
		return
	}

	id := mux.Vars(r)["id"]
	if err := h.teams.Delete(id, userID); err != nil {
		respondStoreError(w, err)
		return
	}

	h.hub.Publish(userID, services.Event{Type: "team.deleted", Data: map[string]string{"id": id}})
	respondJSON(w, http.StatusOK, map[string]string{"message": "team deleted"})
}

func (h *TeamHandler) AddMember(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "user not found")
		return
	}

	var req struct {
		UserID string `json:"userId"`
		Role   string `json:"role"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.UserID == "" {
		respondError(w, http.StatusBadRequest, "userId is required")
		return
	}
	if req.Role != "" && req.Role != database.RoleAdmin && req.Role != database.RoleMember {
		respondError(w, http.StatusBadRequest, "invalid role")
		return
	}

	team, err := h.teams.AddMember(mux.Vars(r)["id"], userID, req.UserID, req.Role)
	if err != nil {
		respondStoreError(w, err)
		return
	}

	h.hub.Publish(userID, services.Event{Type: "team.updated", Data: team})
	respondJSON(w, http.StatusOK, team)
}

func (h *TeamHandler) RemoveMember(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "user not found")
		return
	}

	vars := mux.Vars(r)
	team, err := h.teams.RemoveMember(vars["id"], userID, vars["userId"])
	if err != nil {
		respondStoreError(w, err)
		return
	}

	h.hub.Publish(userID, services.Event{Type: "team.updated", Data: team})
	respondJSON(w, http.StatusOK, team)
}
