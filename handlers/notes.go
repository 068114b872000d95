package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/taskflowapp/taskflow/database"
	"github.com/taskflowapp/taskflow/services"
)

// NoteHandler mirrors the task CRUD shape for notes, including trash/restore.
type NoteHandler struct {
	notes *database.NoteService
	hub   *services.Hub
}

func NewNoteHandler(notes *database.NoteService, hub *services.Hub) *NoteHandler {
	return &NoteHandler{notes: notes, hub: hub}
}

func (h *NoteHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "user not found")
		return
	}

	q := r.URL.Query()
	filter := database.NoteFilter{
		FolderID:       q.Get("folderId"),
		Tag:            q.Get("tag"),
		Search:         q.Get("search"),
		IncludeDeleted: q.Get("deleted") == "true",
	}

	notes, err := h.notes.List(userID, filter)
	if err != nil {
		respondStoreError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"items": notes,
		"total": len(notes),
	})
}

func (h *NoteHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "user not found")
		return
	}

	var req database.NoteCreate
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request format")
		return
	}

	if req.Title == "" {
		respondError(w, http.StatusBadRequest, "title is required")
		return
	}

	note, err := h.notes.Create(userID, req)
	if err != nil {
		respondStoreError(w, err)
		return
	}

	h.hub.Publish(userID, services.Event{Type: "note.created", Data: note})
	respondJSON(w, http.StatusCreated, note)
}

func (h *NoteHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "user not found")
		return
	}

	note, err := h.notes.Get(mux.Vars(r)["id"], userID)
	if err != nil {
		respondStoreError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, note)
}

func (h *NoteHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "user not found")
		return
	}

	var patch database.NoteUpdate
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request format")
		return
	}
	if patch.Title != nil && *patch.Title == "" {
		respondError(w, http.StatusBadRequest, "title cannot be empty")
		return
	}

	note, err := h.notes.Update(mux.Vars(r)["id"], userID, patch)
	if err != nil {
		respondStoreError(w, err)
		return
	}

	h.hub.Publish(userID, services.Event{Type: "note.updated", Data: note})
	respondJSON(w, http.StatusOK, note)
}

func (h *NoteHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "user not found")
		return
	}

	note, err := h.notes.SoftDelete(mux.Vars(r)["id"], userID)
	if err != nil {
		respondStoreError(w, err)
		return
	}

	h.hub.Publish(userID, services.Event{Type: "note.deleted", Data: note})
	respondJSON(w, http.StatusOK, note)
}

func (h *NoteHandler) Restore(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "user not found")
		return
	}

	note, err := h.notes.Restore(mux.Vars(r)["id"], userID)
	if err != nil {
		respondStoreError(w, err)
		return
	}

	h.hub.Publish(userID, services.Event{Type: "note.restored", Data: note})
	respondJSON(w, http.StatusOK, note)
}

func (h *NoteHandler) DeletePermanent(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "user not found")
		return
	}

	id := mux.Vars(r)["id"]
	if err := h.notes.Delete(id, userID); err != nil {
		respondStoreError(w, err)
		return
	}

	h.hub.Publish(userID, services.Event{Type: "note.purged", Data: map[string]string{"id": id}})
	respondJSON(w, http.StatusOK, map[string]string{"message": "note permanently deleted"})
}
