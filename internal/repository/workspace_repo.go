package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"slackpulse-backend/internal/models"
)

type WorkspaceRepo struct {
	pool *pgxpool.Pool
}

func NewWorkspaceRepo(pool *pgxpool.Pool) *WorkspaceRepo {
	return &WorkspaceRepo{pool: pool}
}

func (r *WorkspaceRepo) Get(ctx context.Context, workspaceID string) (*models.SlackWorkspace, error) {
	var w models.SlackWorkspace
	err := r.pool.QueryRow(ctx, `
		SELECT workspace_id, workspace_name, bot_token, status, app_id, bot_user_id, scopes, installed_at
		FROM slack_workspaces
		WHERE workspace_id = $1
	`, workspaceID).Scan(
		&w.WorkspaceID, &w.WorkspaceName, &w.BotToken, &w.Status,
		&w.AppID, &w.BotUserID, &w.Scopes, &w.InstalledAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &w, nil
}

// ListActive returns the workspaces the poller iterates each run.
func (r *WorkspaceRepo) ListActive(ctx context.Context) ([]models.SlackWorkspace, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT workspace_id, workspace_name, bot_token, status, app_id, bot_user_id, scopes, installed_at
		FROM slack_workspaces
		WHERE status = 'active'
		ORDER BY workspace_name ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var workspaces []models.SlackWorkspace
	for rows.Next() {
		var w models.SlackWorkspace
		if err := rows.Scan(&w.WorkspaceID, &w.WorkspaceName, &w.BotToken, &w.Status,
			&w.AppID, &w.BotUserID, &w.Scopes, &w.InstalledAt); err != nil {
			return nil, err
		}
		workspaces = append(workspaces, w)
	}
	return workspaces, rows.Err()
}

// Upsert records an installation (OAuth callback) or refreshes its token.
func (r *WorkspaceRepo) Upsert(ctx context.Context, w *models.SlackWorkspace) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO slack_workspaces (workspace_id, workspace_name, bot_token, status, app_id, bot_user_id, scopes)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (workspace_id) DO UPDATE
		SET workspace_name = EXCLUDED.workspace_name,
			bot_token = EXCLUDED.bot_token,
			status = EXCLUDED.status,
			app_id = EXCLUDED.app_id,
			bot_user_id = EXCLUDED.bot_user_id,
			scopes = EXCLUDED.scopes
	`, w.WorkspaceID, w.WorkspaceName, w.BotToken, w.Status, w.AppID, w.BotUserID, w.Scopes)
	return err
}
