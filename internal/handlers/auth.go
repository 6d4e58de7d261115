package handlers

import (
	"encoding/json"
	"net/http"

	"golang.org/x/crypto/bcrypt"

	"slackpulse-backend/internal/middleware"
)

// AuthHandler issues dashboard tokens against the single configured admin
// account. Workspace members never log in here; their data arrives through
// the poller.
type AuthHandler struct {
	jwtAuth      *middleware.JWTAuth
	adminEmail   string
	adminPwdHash string
}

func NewAuthHandler(jwtAuth *middleware.JWTAuth, adminEmail, adminPwdHash string) *AuthHandler {
	return &AuthHandler{
		jwtAuth:      jwtAuth,
		adminEmail:   adminEmail,
		adminPwdHash: adminPwdHash,
	}
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	if req.Email != h.adminEmail {
		writeJSON(w, http.StatusUnauthorized, errorResp("UNAUTHORIZED", "Invalid credentials", r))
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(h.adminPwdHash), []byte(req.Password)); err != nil {
		writeJSON(w, http.StatusUnauthorized, errorResp("UNAUTHORIZED", "Invalid credentials", r))
		return
	}

	token, err := h.jwtAuth.GenerateAccessToken(req.Email)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to issue token", r))
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"access_token": token})
}
