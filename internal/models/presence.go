package models

import (
	"time"

	"github.com/google/uuid"
)

// Slack reports presence as "active" or "away". Anything else (custom or
// future values) is preserved verbatim in raw logs but treated as away for
// session-boundary purposes.
const (
	PresenceActive = "active"
	PresenceAway   = "away"
)

// IsActive reports whether a raw presence string opens/continues a session.
func IsActive(presence string) bool {
	return presence == PresenceActive
}

// PresenceLog is one row of the append-only presence-change log. The poller
// writes a row only when a user's presence differs from the last recorded
// value, so consecutive rows for a user always alternate in IsActive terms
// unless a poll was missed.
type PresenceLog struct {
	ID               uuid.UUID `json:"id"`
	WorkspaceID      string    `json:"workspace_id"`
	UserID           string    `json:"user_id"`
	UserName         string    `json:"user_name,omitempty"`
	Presence         string    `json:"presence"`
	PreviousPresence *string   `json:"previous_presence,omitempty"`
	Timestamp        time.Time `json:"timestamp"`
}

// UserStatus is the merge-upserted "current state" document per user.
// Last-write-wins; the poller is the only writer.
type UserStatus struct {
	WorkspaceID string    `json:"workspace_id"`
	UserID      string    `json:"user_id"`
	UserName    string    `json:"user_name"`
	Presence    string    `json:"presence"`
	LastChecked time.Time `json:"last_checked"`
	LastChanged time.Time `json:"last_changed"`
}
