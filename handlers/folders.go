package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/taskflowapp/taskflow/database"
	"github.com/taskflowapp/taskflow/services"
)

// FolderHandler handles folder CRUD. Deleting a folder detaches the owner's
// tasks and notes from it rather than deleting them.
type FolderHandler struct {
	folders *database.FolderService
	hub     *services.Hub
}

func NewFolderHandler(folders *database.FolderService, hub *services.Hub) *FolderHandler {
	return &FolderHandler{folders: folders, hub: hub}
}

func (h *FolderHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "user not found")
		return
	}

	folders, err := h.folders.List(userID)
	if err != nil {
		respondStoreError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"items": folders,
		"total": len(folders),
	})
}

func (h *FolderHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "user not found")
		return
	}

	var req database.FolderCreate
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request format")
		return
	}

	if req.Name == "" {
		respondError(w, http.StatusBadRequest, "name is required")
		return
	}

	folder, err := h.folders.Create(userID, req)
	if err != nil {
		respondStoreError(w, err)
		return
	}

	h.hub.Publish(userID, services.Event{Type: "folder.created", Data: folder})
	respondJSON(w, http.StatusCreated, folder)
}

func (h *FolderHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "user not found")
		return
	}

	var patch database.FolderUpdate
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request format")
		return
	}
	if patch.Name != nil && *patch.Name == "" {
		respondError(w, http.StatusBadRequest, "name cannot be empty")
		return
	}

	folder, err := h.folders.Update(mux.Vars(r)["id"], userID, patch)
	if err != nil {
		respondStoreError(w, err)
		return
	}

	h.hub.Publish(userID, services.Event{Type: "folder.updated", Data: folder})
	respondJSON(w, http.StatusOK, folder)
}

func (h *FolderHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "user not found")
		return
	}

	// Orphaned tasks and notes stay alive, just unfiled.
	id := mux.Vars(r)["id"]
	if err := h.folders.Delete(id, userID); err != nil {
		respondStoreError(w, err)
		return
	}

	h.hub.Publish(userID, services.Event{Type: "folder.deleted", Data: map[string]string{"id": id}})
	respondJSON(w, http.StatusOK, map[string]string{"message": "folder deleted"})
}
