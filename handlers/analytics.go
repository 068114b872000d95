package handlers

import (
	"errors"
	"net/http"

	"github.com/taskflowapp/taskflow/database"
)

// AnalyticsHandler serves dashboard aggregations derived from habit logs.
type AnalyticsHandler struct {
	habits *database.HabitService
}

func NewAnalyticsHandler(habits *database.HabitService) *AnalyticsHandler {
	return &AnalyticsHandler{habits: habits}
}

func (h *AnalyticsHandler) Summary(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "user not found")
		return
	}

	summary, err := h.habits.Summary(userID)
	if err != nil {
		respondStoreError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, summary)
}

func (h *AnalyticsHandler) Heatmap(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "user not found")
		return
	}

	q := r.URL.Query()
	from, to := q.Get("from"), q.Get("to")
	if from == "" || to == "" {
		respondError(w, http.StatusBadRequest, "from and to are required")
		return
	}

	days, err := h.habits.Heatmap(userID, from, to)
	if err != nil {
		if errors.Is(err, database.ErrInvalidDate) {
			respondError(w, http.StatusBadRequest, "invalid date, want YYYY-MM-DD")
			return
		}
		respondStoreError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"data":      days,
		"startDate": from,
		"endDate":   to,
	})
}
