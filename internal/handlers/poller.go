package handlers

import (
	"net/http"

	"slackpulse-backend/internal/services"
)

// PollerHandler exposes a manual poll trigger for debugging and for
// platforms whose cron calls an HTTP endpoint.
type PollerHandler struct {
	poller *services.PresencePoller
}

func NewPollerHandler(poller *services.PresencePoller) *PollerHandler {
	return &PollerHandler{poller: poller}
}

func (h *PollerHandler) RunNow(w http.ResponseWriter, r *http.Request) {
	if err := h.poller.RunOnce(r.Context()); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Presence check failed", r))
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Presence check completed."})
}
