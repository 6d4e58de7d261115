package activity

import (
	"sort"
	"time"

	"slackpulse-backend/internal/models"
)

// DeriveFromLogs converts a day's presence-change log into bounded work
// sessions and aggregates. It is a pure function of its inputs.
//
// prior is the most recent log strictly before the day start (nil if none);
// when its presence is active, a session is seeded open at the day boundary.
// A day with no prior record is assumed to start in the away state.
//
// A session left open at the end of the walk is closed at "now" (clamped to
// the day window) when the day is today, else exactly at the day end. Zero
// and negative-length intervals are dropped, never reported as errors.
func DeriveFromLogs(logs []models.PresenceLog, prior *models.PresenceLog, day Day, now time.Time) models.ActivityData {
	ordered := make([]models.PresenceLog, len(logs))
	copy(ordered, logs)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Timestamp.Before(ordered[j].Timestamp)
	})

	var (
		sessions     = []models.WorkSession{}
		totalMs      int64
		changes      int
		sessionStart *time.Time
	)

	prevActive := prior != nil && models.IsActive(prior.Presence)
	if prevActive {
		start := day.Start
		sessionStart = &start
	}

	for i := range ordered {
		ts := day.Clamp(ordered[i].Timestamp)
		active := models.IsActive(ordered[i].Presence)

		if active {
			if sessionStart == nil {
				start := ts
				sessionStart = &start
			}
		} else if sessionStart != nil {
			if ws, ok := boundedSession(*sessionStart, ts); ok {
				sessions = append(sessions, ws)
				totalMs += ws.DurationMs
			}
			sessionStart = nil
		}

		// Only true alternations count; re-affirmations of the same
		// state (duplicate polls, retries) do not.
		if active != prevActive {
			changes++
		}
		prevActive = active
	}

	if sessionStart != nil {
		end := day.End
		if day.IsToday {
			end = day.Clamp(now)
		}
		if ws, ok := boundedSession(*sessionStart, end); ok {
			sessions = append(sessions, ws)
			totalMs += ws.DurationMs
		}
	}

	return models.ActivityData{
		WorkSessions:    sessions,
		TotalActiveMs:   totalMs,
		ActivityChanges: changes,
		LogsForDay:      logs,
	}
}

// DeriveFromSessions computes the same day-scoped view from open/close
// session records: each record contributes the overlap of
// [start, end ?? now-or-dayEnd] with the day window.
//
// Activity changes keep the transition definition used by DeriveFromLogs:
// every overlapping session implies an away→active transition, and an
// active→away transition when the record closed within the day.
func DeriveFromSessions(records []models.ActivitySession, day Day, now time.Time) models.ActivityData {
	ordered := make([]models.ActivitySession, len(records))
	copy(ordered, records)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].StartTime.Before(ordered[j].StartTime)
	})

	var (
		sessions = []models.WorkSession{}
		totalMs  int64
		changes  int
	)

	for i := range ordered {
		end := day.End
		if ordered[i].EndTime != nil {
			end = *ordered[i].EndTime
		} else if day.IsToday {
			end = now
		}

		start := day.Clamp(ordered[i].StartTime)
		end = day.Clamp(end)

		ws, ok := boundedSession(start, end)
		if !ok {
			continue
		}
		sessions = append(sessions, ws)
		totalMs += ws.DurationMs

		changes++ // away → active at the session start
		if ordered[i].EndTime != nil && !ordered[i].EndTime.After(day.End) {
			changes++ // active → away at the recorded close
		}
	}

	return models.ActivityData{
		WorkSessions:    sessions,
		TotalActiveMs:   totalMs,
		ActivityChanges: changes,
		LogsForDay:      []models.PresenceLog{},
	}
}

func boundedSession(start, end time.Time) (models.WorkSession, bool) {
	durationMs := end.Sub(start).Milliseconds()
	if durationMs <= 0 {
		return models.WorkSession{}, false
	}
	return models.WorkSession{
		StartTime:  formatClock(start),
		EndTime:    formatClock(end),
		Duration:   FormatDuration(durationMs),
		DurationMs: durationMs,
	}, true
}
