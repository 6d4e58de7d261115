package handlers

import (
	"net/http"

	"slackpulse-backend/internal/services"
)

// GoogleOAuthHandler drives the one-time consent flow that yields the
// refresh token the Meet service runs on. Without a code parameter it
// redirects to Google's consent screen; with one it surfaces the refresh
// token for the operator to place in the environment.
type GoogleOAuthHandler struct {
	meet *services.MeetService
}

func NewGoogleOAuthHandler(meet *services.MeetService) *GoogleOAuthHandler {
	return &GoogleOAuthHandler{meet: meet}
}

func (h *GoogleOAuthHandler) Callback(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("code")
	if code == "" {
		http.Redirect(w, r, h.meet.AuthURL(), http.StatusTemporaryRedirect)
		return
	}

	token, err := h.meet.ExchangeCode(r.Context(), code)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to exchange authorization code", r))
		return
	}

	if token.RefreshToken == "" {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR",
			"No refresh token returned. Revoke the app's access in your Google account and try again.", r))
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"message":       "Authorization successful. Set GOOGLE_REFRESH_TOKEN to the value below and restart the server.",
		"refresh_token": token.RefreshToken,
	})
}
