package handlers

import (
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"

	"slackpulse-backend/internal/activity"
	"slackpulse-backend/internal/repository"
)

// heatmapFanOutLimit bounds concurrent derivations for a heatmap request;
// most days resolve from cache so the limit only matters on a cold cache.
const heatmapFanOutLimit = 8

type ActivityHandler struct {
	svc      *activity.Service
	sessions *repository.SessionRepo
	loc      *time.Location
}

func NewActivityHandler(svc *activity.Service, sessions *repository.SessionRepo, loc *time.Location) *ActivityHandler {
	return &ActivityHandler{svc: svc, sessions: sessions, loc: loc}
}

// GetActivity returns the derived day view for one user.
// GET /api/v1/users/{id}/activity?workspace_id=T123&date=2026-03-10
func (h *ActivityHandler) GetActivity(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "id")
	workspaceID := r.URL.Query().Get("workspace_id")
	dateStr := r.URL.Query().Get("date")

	if workspaceID == "" {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "workspace_id is required", r))
		return
	}
	if dateStr == "" {
		dateStr = time.Now().In(h.loc).Format("2006-01-02")
	}

	data, err := h.svc.CalculateActivityForDate(r.Context(), workspaceID, userID, dateStr)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to calculate activity", r))
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"user_id":      userID,
		"workspace_id": workspaceID,
		"date":         dateStr,
		"activity":     data,
		"total_active": activity.FormatDuration(data.TotalActiveMs),
	})
}

// GetSessions returns the day view derived from the open/close session
// records instead of the presence log.
// GET /api/v1/users/{id}/sessions?workspace_id=T123&date=2026-03-10
func (h *ActivityHandler) GetSessions(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "id")
	workspaceID := r.URL.Query().Get("workspace_id")
	dateStr := r.URL.Query().Get("date")

	if workspaceID == "" {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "workspace_id is required", r))
		return
	}
	now := time.Now()
	if dateStr == "" {
		dateStr = now.In(h.loc).Format("2006-01-02")
	}

	day, err := activity.NewDay(dateStr, h.loc, now)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "date must be YYYY-MM-DD", r))
		return
	}

	records, err := h.sessions.ListOverlapping(r.Context(), workspaceID, userID, day.Start, day.End)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to load sessions", r))
		return
	}

	data := activity.DeriveFromSessions(records, day, now)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"user_id":      userID,
		"workspace_id": workspaceID,
		"date":         dateStr,
		"activity":     data,
		"total_active": activity.FormatDuration(data.TotalActiveMs),
	})
}

type HeatmapDay struct {
	Date          string `json:"date"`
	TotalActiveMs int64  `json:"total_active_ms"`
	SessionCount  int    `json:"session_count"`
}

// GetHeatmap derives per-day totals for the trailing N days. Days are
// derived concurrently; each request is independent and order-insensitive,
// so results are re-sorted before responding.
// GET /api/v1/users/{id}/heatmap?workspace_id=T123&days=30
func (h *ActivityHandler) GetHeatmap(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "id")
	workspaceID := r.URL.Query().Get("workspace_id")

	if workspaceID == "" {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "workspace_id is required", r))
		return
	}

	days := 30
	if raw := r.URL.Query().Get("days"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 366 {
			writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "days must be between 1 and 366", r))
			return
		}
		days = n
	}

	today := time.Now().In(h.loc)
	results := make([]HeatmapDay, days)

	g, ctx := errgroup.WithContext(r.Context())
	g.SetLimit(heatmapFanOutLimit)
	for i := 0; i < days; i++ {
		g.Go(func() error {
			dateStr := today.AddDate(0, 0, -i).Format("2006-01-02")
			data, err := h.svc.CalculateActivityForDate(ctx, workspaceID, userID, dateStr)
			if err != nil {
				return err
			}
			results[i] = HeatmapDay{
				Date:          dateStr,
				TotalActiveMs: data.TotalActiveMs,
				SessionCount:  len(data.WorkSessions),
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to build heatmap", r))
		return
	}

	sort.Slice(results, func(i, j int) bool { return results[i].Date < results[j].Date })
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"user_id":      userID,
		"workspace_id": workspaceID,
		"days":         results,
	})
}
