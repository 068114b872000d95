package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/taskflowapp/taskflow/database"
	"github.com/taskflowapp/taskflow/services"
)

// AuthHandler handles registration, login and the refresh-token lifecycle.
type AuthHandler struct {
	authService *services.AuthService
	users       *database.UserService
	sessions    *database.SessionService
}

func NewAuthHandler(authService *services.AuthService, users *database.UserService, sessions *database.SessionService) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		users:       users,
		sessions:    sessions,
	}
}

// Register creates a new user account.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request format")
		return
	}

	if req.Name == "" || req.Password == "" || !strings.Contains(req.Email, "@") {
		respondError(w, http.StatusBadRequest, "name, email and password are required")
		return
	}

	hash, err := h.authService.HashPassword(req.Password)
	if err != nil {
		log.Printf("Error hashing password: %v", err)
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	user, err := h.users.Create(req.Name, req.Email, hash)
	if err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			respondError(w, http.StatusConflict, "email already registered")
			return
		}
		respondStoreError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, user)
}

// Login verifies credentials and issues an access/refresh token pair.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request format")
		return
	}

	user, err := h.users.GetByEmail(req.Email)
	if err != nil || !h.authService.CheckPassword(user.PasswordHash, req.Password) {
		respondError(w, http.StatusUnauthorized, "invalid email or password")
		return
	}

	access, refresh, err := h.issueTokens(user.ID, user.Email)
	if err != nil {
		log.Printf("Error issuing tokens: %v", err)
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"accessToken":  access,
		"refreshToken": refresh,
		"user":         user,
	})
}

// Refresh exchanges a live refresh token for a rotated pair. The presented
// token is revoked whether or not it was the latest one issued.
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RefreshToken string `json:"refreshToken"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.RefreshToken == "" {
		respondError(w, http.StatusBadRequest, "refresh token required")
		return
	}

	newToken, err := h.authService.NewRefreshToken()
	if err != nil {
		log.Printf("Error generating refresh token: %v", err)
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	session, err := h.sessions.Rotate(req.RefreshToken, newToken)
	if err != nil {
		respondError(w, http.StatusUnauthorized, "invalid or expired refresh token")
		return
	}

	user, err := h.users.GetByID(session.UserID)
	if err != nil {
		respondStoreError(w, err)
		return
	}

	access, err := h.authService.CreateAccessToken(user.ID, user.Email)
	if err != nil {
		log.Printf("Error creating access token: %v", err)
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"accessToken":  access,
		"refreshToken": newToken,
	})
}

// Logout revokes the presented refresh token. Unknown tokens still succeed.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RefreshToken string `json:"refreshToken"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.RefreshToken == "" {
		respondError(w, http.StatusBadRequest, "refresh token required")
		return
	}

	if err := h.sessions.Revoke(req.RefreshToken); err != nil {
		respondStoreError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"message": "logged out"})
}

func (h *AuthHandler) issueTokens(userID, email string) (access, refresh string, err error) {
	access, err = h.authService.CreateAccessToken(userID, email)
	if err != nil {
		return "", "", err
	}
	refresh, err = h.authService.NewRefreshToken()
	if err != nil {
		return "", "", err
	}
	if _, err = h.sessions.Create(userID, refresh); err != nil {
		return "", "", err
	}
	return access, refresh, nil
}
