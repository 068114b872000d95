package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/taskflowapp/taskflow/database"
)

func respondJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body != nil {
		json.NewEncoder(w).Encode(body)
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// respondStoreError maps data-layer sentinel errors onto status codes. Anything
// unrecognized is a 500 and gets logged.
func respondStoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, database.ErrNotFound):
		respondError(w, http.StatusNotFound, "not found")
	case errors.Is(err, database.ErrForbidden):
		respondError(w, http.StatusForbidden, "forbidden")
	case errors.Is(err, database.ErrDuplicate):
		respondError(w, http.StatusConflict, "already exists")
	default:
		log.Printf("Internal error: %v", err)
		respondError(w, http.StatusInternalServerError, "internal server error")
	}
}
