package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/slack-go/slack"

	"slackpulse-backend/internal/models"
)

// MeetingEnqueuer is the slice of the worker queue the webhook needs:
// hand off a meeting job and report whether the broker accepted it.
type MeetingEnqueuer interface {
	EnqueueMeeting(ctx context.Context, job models.MeetingJob) error
}

// WebhookHandler receives Slack's outbound requests: event callbacks (URL
// verification and event subscriptions) and slash commands. Slack expects a
// response within 3 seconds, so the /meeting command is acknowledged
// immediately and fulfilled by the worker pool.
type WebhookHandler struct {
	signingSecret string
	queue         MeetingEnqueuer
}

func NewWebhookHandler(signingSecret string, queue MeetingEnqueuer) *WebhookHandler {
	return &WebhookHandler{signingSecret: signingSecret, queue: queue}
}

func (h *WebhookHandler) Handle(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Unreadable request body", r))
		return
	}

	if !h.verifySignature(r, body) {
		writeJSON(w, http.StatusUnauthorized, errorResp("UNAUTHORIZED", "Invalid Slack signature", r))
		return
	}

	contentType := r.Header.Get("Content-Type")
	if strings.HasPrefix(contentType, "application/x-www-form-urlencoded") {
		r.Body = io.NopCloser(bytes.NewReader(body))
		h.handleSlashCommand(w, r)
		return
	}

	h.handleEvent(w, r, body)
}

func (h *WebhookHandler) verifySignature(r *http.Request, body []byte) bool {
	verifier, err := slack.NewSecretsVerifier(r.Header, h.signingSecret)
	if err != nil {
		return false
	}
	if _, err := verifier.Write(body); err != nil {
		return false
	}
	return verifier.Ensure() == nil
}

func (h *WebhookHandler) handleEvent(w http.ResponseWriter, r *http.Request, body []byte) {
	var payload struct {
		Type      string          `json:"type"`
		Challenge string          `json:"challenge"`
		Event     json.RawMessage `json:"event"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid event payload", r))
		return
	}

	// Slack URL verification challenge
	if payload.Type == "url_verification" && payload.Challenge != "" {
		writeJSON(w, http.StatusOK, map[string]string{"challenge": payload.Challenge})
		return
	}

	// Presence is captured by the poller; events are only acknowledged so
	// the Event Subscriptions config stays healthy.
	if len(payload.Event) > 0 {
		log.Printf("slack webhook: event received: %s", payload.Event)
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (h *WebhookHandler) handleSlashCommand(w http.ResponseWriter, r *http.Request) {
	cmd, err := slack.SlashCommandParse(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid slash command payload", r))
		return
	}

	if cmd.Command != "/meeting" {
		writeJSON(w, http.StatusOK, map[string]string{
			"response_type": "ephemeral",
			"text":          "Unknown command.",
		})
		return
	}

	job := models.MeetingJob{
		ID:          uuid.NewString(),
		WorkspaceID: cmd.TeamID,
		ChannelID:   cmd.ChannelID,
		UserID:      cmd.UserID,
		UserName:    cmd.UserName,
		Topic:       strings.TrimSpace(cmd.Text),
		ResponseURL: cmd.ResponseURL,
		RequestedAt: time.Now().UnixMilli(),
	}
	if err := h.queue.EnqueueMeeting(r.Context(), job); err != nil {
		log.Printf("slack webhook: enqueue meeting job: %v", err)
		writeJSON(w, http.StatusOK, map[string]string{
			"response_type": "ephemeral",
			"text":          "Sorry, the meeting could not be scheduled right now.",
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"response_type": "in_channel",
		"text":          "Creating your meeting link...",
	})
}
