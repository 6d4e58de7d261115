package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"

	"slackpulse-backend/internal/activity"
	"slackpulse-backend/internal/models"
	"slackpulse-backend/internal/repository"
	"slackpulse-backend/internal/services"
)

// statusDirectory is the slice of the status store the roster endpoint
// reads; the repository satisfies it and tests substitute a fixture.
type statusDirectory interface {
	ListByWorkspace(ctx context.Context, workspaceID string) ([]models.UserStatus, error)
}

type WorkspaceHandler struct {
	workspaces  *repository.WorkspaceRepo
	statuses    statusDirectory
	svc         *activity.Service
	slack       *services.SlackService
	clientID    string
	secret      string
	frontendURL string
	loc         *time.Location
}

func NewWorkspaceHandler(
	workspaces *repository.WorkspaceRepo,
	statuses statusDirectory,
	svc *activity.Service,
	slack *services.SlackService,
	clientID, secret, frontendURL string,
	loc *time.Location,
) *WorkspaceHandler {
	return &WorkspaceHandler{
		workspaces:  workspaces,
		statuses:    statuses,
		svc:         svc,
		slack:       slack,
		clientID:    clientID,
		secret:      secret,
		frontendURL: frontendURL,
		loc:         loc,
	}
}

// List returns active workspaces for the dashboard's workspace selector.
func (h *WorkspaceHandler) List(w http.ResponseWriter, r *http.Request) {
	workspaces, err := h.workspaces.ListActive(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to load workspaces", r))
		return
	}
	if workspaces == nil {
		workspaces = []models.SlackWorkspace{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"workspaces": workspaces})
}

type rosterEntry struct {
	models.UserStatus
	TotalActiveToday string `json:"total_active_today"`
	TotalActiveMs    int64  `json:"total_active_ms"`
}

// Users returns the workspace roster with each user's current presence and
// derived active time for today. Per-user derivations fan out concurrently;
// a failed derivation degrades that row to zero rather than failing the
// whole roster.
func (h *WorkspaceHandler) Users(w http.ResponseWriter, r *http.Request) {
	workspaceID := chi.URLParam(r, "id")

	statuses, err := h.statuses.ListByWorkspace(r.Context(), workspaceID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to load user statuses", r))
		return
	}

	today := time.Now().In(h.loc).Format("2006-01-02")
	entries := make([]rosterEntry, len(statuses))

	g, ctx := errgroup.WithContext(r.Context())
	g.SetLimit(8)
	for i := range statuses {
		g.Go(func() error {
			entry := rosterEntry{UserStatus: statuses[i]}
			data, err := h.svc.CalculateActivityForDate(ctx, workspaceID, statuses[i].UserID, today)
			if err == nil {
				entry.TotalActiveMs = data.TotalActiveMs
			}
			entry.TotalActiveToday = activity.FormatDuration(entry.TotalActiveMs)
			entries[i] = entry
			return nil
		})
	}
	// Row derivations degrade to zero instead of failing, so an error here
	// means the contract above changed; surface it rather than masking it.
	if err := g.Wait(); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to build roster", r))
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"workspace_id": workspaceID,
		"date":         today,
		"users":        entries,
	})
}

// SlackOAuthCallback completes an app installation: exchanges the code for
// a bot token and upserts the workspace row the poller iterates.
// GET /slack/oauth/callback?code=...
func (h *WorkspaceHandler) SlackOAuthCallback(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("code")
	if code == "" {
		http.Redirect(w, r, h.frontendURL+"/installation-error", http.StatusTemporaryRedirect)
		return
	}

	redirectURI := "https://" + r.Host + "/slack/oauth/callback"
	resp, err := h.slack.ExchangeOAuthCode(r.Context(), h.clientID, h.secret, code, redirectURI)
	if err != nil {
		http.Redirect(w, r, h.frontendURL+"/installation-error", http.StatusTemporaryRedirect)
		return
	}

	workspace := &models.SlackWorkspace{
		WorkspaceID:   resp.Team.ID,
		WorkspaceName: resp.Team.Name,
		BotToken:      resp.AccessToken,
		Status:        "active",
		AppID:         resp.AppID,
		BotUserID:     resp.BotUserID,
		Scopes:        resp.Scope,
	}
	if err := h.workspaces.Upsert(r.Context(), workspace); err != nil {
		http.Redirect(w, r, h.frontendURL+"/installation-error", http.StatusTemporaryRedirect)
		return
	}

	http.Redirect(w, r, h.frontendURL+"/installation-success", http.StatusTemporaryRedirect)
}
