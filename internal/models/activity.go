package models

// Provenance of a derived ActivityData value. Recorded for debugging and
// telemetry, not correctness.
const (
	SourceCache           = "cache"
	SourceCacheRehydrated = "cache_rehydrated"
	SourceStoreFull       = "store_full"
	SourceStoreIncr       = "store_incremental"
	SourceCacheNoNewLogs  = "cache_revalidated_no_new_logs"
)

// WorkSession is a single derived active interval, clipped to the requested
// day. Start/End/Duration are display strings; DurationMs is the number the
// aggregates are built from. WorkSessions are a view, never persisted.
type WorkSession struct {
	StartTime  string `json:"start_time"`
	EndTime    string `json:"end_time"`
	Duration   string `json:"duration"`
	DurationMs int64  `json:"duration_ms"`
}

// ActivityData is the result of deriving one user's activity for one day.
type ActivityData struct {
	WorkSessions    []WorkSession `json:"work_sessions"`
	TotalActiveMs   int64         `json:"total_active_ms"`
	ActivityChanges int           `json:"activity_changes"`
	LogsForDay      []PresenceLog `json:"logs_for_day"`
	Source          string        `json:"source,omitempty"`
}
