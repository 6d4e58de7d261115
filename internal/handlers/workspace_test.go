package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"slackpulse-backend/internal/activity"
	"slackpulse-backend/internal/cache"
	"slackpulse-backend/internal/models"
)

type stubStatusDirectory struct {
	statuses []models.UserStatus
	err      error
}

func (s *stubStatusDirectory) ListByWorkspace(_ context.Context, _ string) ([]models.UserStatus, error) {
	return s.statuses, s.err
}

// stubLogStore serves canned presence logs per user; listing for a user in
// failFor returns an error so derivation degrades for that row only.
type stubLogStore struct {
	logs    map[string][]models.PresenceLog
	failFor map[string]bool
}

func (s *stubLogStore) ListRange(_ context.Context, _, userID string, from, to time.Time) ([]models.PresenceLog, error) {
	if s.failFor[userID] {
		return nil, errors.New("store unavailable")
	}
	var out []models.PresenceLog
	for _, l := range s.logs[userID] {
		if !l.Timestamp.Before(from) && !l.Timestamp.After(to) {
			out = append(out, l)
		}
	}
	return out, nil
}

func (s *stubLogStore) ListAfter(_ context.Context, _, userID string, after, to time.Time) ([]models.PresenceLog, error) {
	if s.failFor[userID] {
		return nil, errors.New("store unavailable")
	}
	var out []models.PresenceLog
	for _, l := range s.logs[userID] {
		if l.Timestamp.After(after) && !l.Timestamp.After(to) {
			out = append(out, l)
		}
	}
	return out, nil
}

func (s *stubLogStore) LastInRange(_ context.Context, _, _ string, _, _ time.Time) (*models.PresenceLog, error) {
	return nil, nil
}

// todayStart anchors fixture timestamps to the current reporting day so the
// tests do not depend on how far into the day they run.
func todayStart() time.Time {
	y, m, d := time.Now().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.Local)
}

func rosterRequest(workspaceID string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/workspaces/"+workspaceID+"/users", nil)
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", workspaceID)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func TestWorkspaceUsersRoster(t *testing.T) {
	day := todayStart()
	store := &stubLogStore{
		logs: map[string][]models.PresenceLog{
			"U1": {
				{UserID: "U1", Presence: "active", Timestamp: day.Add(1 * time.Hour)},
				{UserID: "U1", Presence: "away", Timestamp: day.Add(2 * time.Hour)},
			},
		},
	}
	svc := activity.NewService(store, cache.NewMemory(), time.Local, time.Hour)

	statuses := &stubStatusDirectory{statuses: []models.UserStatus{
		{WorkspaceID: "T123", UserID: "U1", UserName: "Jess", Presence: "away"},
		{WorkspaceID: "T123", UserID: "U2", UserName: "Sam", Presence: "active"},
	}}

	h := NewWorkspaceHandler(nil, statuses, svc, nil, "", "", "", time.Local)

	rr := httptest.NewRecorder()
	h.Users(rr, rosterRequest("T123"))

	if rr.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var resp struct {
		WorkspaceID string `json:"workspace_id"`
		Users       []struct {
			UserID           string `json:"user_id"`
			TotalActiveToday string `json:"total_active_today"`
			TotalActiveMs    int64  `json:"total_active_ms"`
		} `json:"users"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	if resp.WorkspaceID != "T123" {
		t.Errorf("Expected workspace T123, got %q", resp.WorkspaceID)
	}
	if len(resp.Users) != 2 {
		t.Fatalf("Expected 2 roster rows, got %d", len(resp.Users))
	}
	if resp.Users[0].UserID != "U1" || resp.Users[0].TotalActiveMs != 3600000 {
		t.Errorf("U1 expected 3600000ms active, got %+v", resp.Users[0])
	}
	if resp.Users[0].TotalActiveToday != "1h" {
		t.Errorf("U1 expected '1h', got %q", resp.Users[0].TotalActiveToday)
	}
	if resp.Users[1].UserID != "U2" || resp.Users[1].TotalActiveMs != 0 {
		t.Errorf("U2 expected no active time, got %+v", resp.Users[1])
	}
}

func TestWorkspaceUsersDegradedRow(t *testing.T) {
	day := todayStart()
	store := &stubLogStore{
		logs: map[string][]models.PresenceLog{
			"U1": {
				{UserID: "U1", Presence: "active", Timestamp: day.Add(1 * time.Hour)},
				{UserID: "U1", Presence: "away", Timestamp: day.Add(1*time.Hour + 15*time.Minute)},
			},
		},
		failFor: map[string]bool{"U2": true},
	}
	svc := activity.NewService(store, cache.NewMemory(), time.Local, time.Hour)

	statuses := &stubStatusDirectory{statuses: []models.UserStatus{
		{WorkspaceID: "T123", UserID: "U1", UserName: "Jess", Presence: "away"},
		{WorkspaceID: "T123", UserID: "U2", UserName: "Sam", Presence: "active"},
	}}

	h := NewWorkspaceHandler(nil, statuses, svc, nil, "", "", "", time.Local)

	rr := httptest.NewRecorder()
	h.Users(rr, rosterRequest("T123"))

	// A failed per-user derivation zeroes that row, never the response.
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var resp struct {
		Users []struct {
			UserID           string `json:"user_id"`
			TotalActiveToday string `json:"total_active_today"`
			TotalActiveMs    int64  `json:"total_active_ms"`
		} `json:"users"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if len(resp.Users) != 2 {
		t.Fatalf("Expected 2 roster rows, got %d", len(resp.Users))
	}
	if resp.Users[0].TotalActiveMs != 900000 {
		t.Errorf("U1 expected 900000ms active, got %+v", resp.Users[0])
	}
	if resp.Users[1].TotalActiveMs != 0 || resp.Users[1].TotalActiveToday != "0s" {
		t.Errorf("U2 expected zeroed row, got %+v", resp.Users[1])
	}
}

func TestWorkspaceUsersStatusLoadFailure(t *testing.T) {
	svc := activity.NewService(&stubLogStore{}, cache.NewMemory(), time.Local, time.Hour)
	statuses := &stubStatusDirectory{err: errors.New("db down")}

	h := NewWorkspaceHandler(nil, statuses, svc, nil, "", "", "", time.Local)

	rr := httptest.NewRecorder()
	h.Users(rr, rosterRequest("T123"))

	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("Expected 500, got %d", rr.Code)
	}
}
