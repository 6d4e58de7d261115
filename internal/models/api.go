package models

// API Error response
type APIError struct {
	Code      string            `json:"code"`
	Message   string            `json:"message"`
	Fields    map[string]string `json:"fields,omitempty"`
	RequestID string            `json:"request_id"`
}

type ErrorResponse struct {
	Error APIError `json:"error"`
}

// WebSocket message types
type WSMessage struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// PresenceUpdate is published on Redis Pub/Sub when the poller records a
// presence transition, and fanned out to dashboard WebSocket clients.
type PresenceUpdate struct {
	WorkspaceID      string `json:"workspace_id"`
	UserID           string `json:"user_id"`
	UserName         string `json:"user_name"`
	Presence         string `json:"presence"`
	PreviousPresence string `json:"previous_presence,omitempty"`
	Timestamp        int64  `json:"timestamp"`
}

// MeetingJob is the queue payload for a /meeting slash command. The webhook
// handler enqueues it and a worker creates the Meet link and posts it back.
type MeetingJob struct {
	ID          string `json:"id"`
	WorkspaceID string `json:"workspace_id"`
	ChannelID   string `json:"channel_id"`
	UserID      string `json:"user_id"`
	UserName    string `json:"user_name"`
	Topic       string `json:"topic,omitempty"`
	ResponseURL string `json:"response_url,omitempty"`
	RequestedAt int64  `json:"requested_at"`
}
