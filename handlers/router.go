package handlers

import (
	"database/sql"
	"time"

	"github.com/gorilla/mux"
	"github.com/taskflowapp/taskflow/database"
	"github.com/taskflowapp/taskflow/services"
)

// RefreshTokenTTL is how long a refresh session stays valid without rotation.
const RefreshTokenTTL = 30 * 24 * time.Hour

// NewRouter builds the full /api/v1 route table over an initialized database.
func NewRouter(db *sql.DB, authService *services.AuthService, hub *services.Hub) *mux.Router {
	users := database.NewUserService(db)
	sessions := database.NewSessionService(db, RefreshTokenTTL)
	tasks := database.NewTaskService(db)
	notes := database.NewNoteService(db)
	folders := database.NewFolderService(db)
	teams := database.NewTeamService(db)
	habits := database.NewHabitService(db)

	authHandler := NewAuthHandler(authService, users, sessions)
	userHandler := NewUserHandler(users, hub)
	taskHandler := NewTaskHandler(tasks, hub)
	noteHandler := NewNoteHandler(notes, hub)
	folderHandler := NewFolderHandler(folders, hub)
	teamHandler := NewTeamHandler(teams, hub)
	habitHandler := NewHabitHandler(habits, hub)
	analyticsHandler := NewAnalyticsHandler(habits)
	wsHandler := NewWSHandler(hub)

	authMiddleware := NewAuthMiddleware(authService)

	r := mux.NewRouter()
	api := r.PathPrefix("/api/v1").Subrouter()

	// Auth routes
	api.HandleFunc("/auth/register", authHandler.Register).Methods("POST")
	api.HandleFunc("/auth/login", authHandler.Login).Methods("POST")
	api.HandleFunc("/auth/refresh", authHandler.Refresh).Methods("POST")
	api.HandleFunc("/auth/logout", authHandler.Logout).Methods("POST")

	// Protected routes
	protected := api.NewRoute().Subrouter()
	protected.Use(authMiddleware.Auth)

	protected.HandleFunc("/users/me", userHandler.Me).Methods("GET")
	protected.HandleFunc("/users/me", userHandler.UpdateMe).Methods("PATCH")

	protected.HandleFunc("/tasks", taskHandler.List).Methods("GET")
	protected.HandleFunc("/tasks", taskHandler.Create).Methods("POST")
	protected.HandleFunc("/tasks/{id}", taskHandler.Get).Methods("GET")
	protected.HandleFunc("/tasks/{id}", taskHandler.Update).Methods("PATCH", "PUT")
	protected.HandleFunc("/tasks/{id}", taskHandler.Delete).Methods("DELETE")
	protected.HandleFunc("/tasks/{id}/restore", taskHandler.Restore).Methods("POST")
	protected.HandleFunc("/tasks/{id}/permanent", taskHandler.DeletePermanent).Methods("DELETE")

	protected.HandleFunc("/notes", noteHandler.List).Methods("GET")
	protected.HandleFunc("/notes", noteHandler.Create).Methods("POST")
	protected.HandleFunc("/notes/{id}", noteHandler.Get).Methods("GET")
	protected.HandleFunc("/notes/{id}", noteHandler.Update).Methods("PATCH", "PUT")
	protected.HandleFunc("/notes/{id}", noteHandler.Delete).Methods("DELETE")
	protected.HandleFunc("/notes/{id}/restore", noteHandler.Restore).Methods("POST")
	protected.HandleFunc("/notes/{id}/permanent", noteHandler.DeletePermanent).Methods("DELETE")

	protected.HandleFunc("/folders", folderHandler.List).Methods("GET")
	protected.HandleFunc("/folders", folderHandler.Create).Methods("POST")
	protected.HandleFunc("/folders/{id}", folderHandler.Update).Methods("PATCH", "PUT")
	protected.HandleFunc("/folders/{id}", folderHandler.Delete).Methods("DELETE")

	protected.HandleFunc("/teams", teamHandler.List).Methods("GET")
	protected.HandleFunc("/teams", teamHandler.Create).Methods("POST")
	protected.HandleFunc("/teams/{id}", teamHandler.Get).Methods("GET")
	protected.HandleFunc("/teams/{id}", teamHandler.Update).Methods("PATCH", "PUT")
	protected.HandleFunc("/teams/{id}", teamHandler.Delete).Methods("DELETE")
	protected.HandleFunc("/teams/{id}/members", teamHandler.AddMember).Methods("POST")
	protected.HandleFunc("/teams/{id}/members/{userId}", teamHandler.RemoveMember).Methods("DELETE")

	protected.HandleFunc("/habits", habitHandler.List).Methods("GET")
	protected.HandleFunc("/habits", habitHandler.Create).Methods("POST")
	protected.HandleFunc("/habits/{id}", habitHandler.Get).Methods("GET")
	protected.HandleFunc("/habits/{id}", habitHandler.Update).Methods("PATCH", "PUT")
	protected.HandleFunc("/habits/{id}", habitHandler.Delete).Methods("DELETE")
	protected.HandleFunc("/habits/{id}/logs", habitHandler.Log).Methods("POST")
	protected.HandleFunc("/habits/{id}/logs", habitHandler.Logs).Methods("GET")

	protected.HandleFunc("/analytics/summary", analyticsHandler.Summary).Methods("GET")
	protected.HandleFunc("/analytics/heatmap", analyticsHandler.Heatmap).Methods("GET")

	// WebSocket route for the change feed
	protected.HandleFunc("/ws", wsHandler.Connect)

	return r
}
