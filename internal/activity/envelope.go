package activity

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"slackpulse-backend/internal/models"
)

// Cache entries carry raw log timestamps as Unix milliseconds so the wire
// format stays stable across timezones and process restarts; decoding
// rehydrates them into time.Time in the reporting zone.
type envelope struct {
	Data      envelopeData `json:"data"`
	Timestamp int64        `json:"timestamp"`
}

type envelopeData struct {
	WorkSessions    []models.WorkSession `json:"work_sessions"`
	TotalActiveMs   int64                `json:"total_active_ms"`
	ActivityChanges int                  `json:"activity_changes"`
	Logs            []envelopeLog        `json:"logs"`
}

type envelopeLog struct {
	ID               string  `json:"id"`
	WorkspaceID      string  `json:"workspace_id"`
	UserID           string  `json:"user_id"`
	UserName         string  `json:"user_name,omitempty"`
	Presence         string  `json:"presence"`
	PreviousPresence *string `json:"previous_presence,omitempty"`
	TimestampMs      int64   `json:"timestamp_ms"`
}

func encodeEnvelope(data models.ActivityData, now time.Time) ([]byte, error) {
	logs := make([]envelopeLog, 0, len(data.LogsForDay))
	for _, l := range data.LogsForDay {
		logs = append(logs, envelopeLog{
			ID:               l.ID.String(),
			WorkspaceID:      l.WorkspaceID,
			UserID:           l.UserID,
			UserName:         l.UserName,
			Presence:         l.Presence,
			PreviousPresence: l.PreviousPresence,
			TimestampMs:      l.Timestamp.UnixMilli(),
		})
	}

	return json.Marshal(envelope{
		Data: envelopeData{
			WorkSessions:    data.WorkSessions,
			TotalActiveMs:   data.TotalActiveMs,
			ActivityChanges: data.ActivityChanges,
			Logs:            logs,
		},
		Timestamp: now.UnixMilli(),
	})
}

// decodeEnvelope returns the cached ActivityData and whether any timestamp
// fields were rehydrated from their serialized form.
func decodeEnvelope(raw []byte, loc *time.Location) (models.ActivityData, bool, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return models.ActivityData{}, false, err
	}

	logs := make([]models.PresenceLog, 0, len(env.Data.Logs))
	for _, l := range env.Data.Logs {
		id, err := uuid.Parse(l.ID)
		if err != nil {
			id = uuid.Nil
		}
		logs = append(logs, models.PresenceLog{
			ID:               id,
			WorkspaceID:      l.WorkspaceID,
			UserID:           l.UserID,
			UserName:         l.UserName,
			Presence:         l.Presence,
			PreviousPresence: l.PreviousPresence,
			Timestamp:        time.UnixMilli(l.TimestampMs).In(loc),
		})
	}

	sessions := env.Data.WorkSessions
	if sessions == nil {
		sessions = []models.WorkSession{}
	}

	return models.ActivityData{
		WorkSessions:    sessions,
		TotalActiveMs:   env.Data.TotalActiveMs,
		ActivityChanges: env.Data.ActivityChanges,
		LogsForDay:      logs,
	}, len(logs) > 0, nil
}
