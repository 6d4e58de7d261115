package models

import (
	"time"

	"github.com/google/uuid"
)

// ActivitySession is the open/close representation of a user's active
// interval. EndTime == nil means the session is still open; at most one open
// session exists per (user, workspace) at any instant. Rows are never deleted
// and never mutated except to set EndTime and LastSeen.
type ActivitySession struct {
	ID          uuid.UUID  `json:"id"`
	WorkspaceID string     `json:"workspace_id"`
	UserID      string     `json:"user_id"`
	StartTime   time.Time  `json:"start_time"`
	EndTime     *time.Time `json:"end_time,omitempty"`
	LastSeen    time.Time  `json:"last_seen"`
}

// SlackWorkspace is one installed workspace. The poller iterates workspaces
// with Status == "active"; the bot token is looked up per workspace.
type SlackWorkspace struct {
	WorkspaceID   string    `json:"workspace_id"`
	WorkspaceName string    `json:"workspace_name"`
	BotToken      string    `json:"-"`
	Status        string    `json:"status"`
	AppID         string    `json:"app_id,omitempty"`
	BotUserID     string    `json:"bot_user_id,omitempty"`
	Scopes        string    `json:"scopes,omitempty"`
	InstalledAt   time.Time `json:"installed_at"`
}
