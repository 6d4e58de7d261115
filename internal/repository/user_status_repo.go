package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"slackpulse-backend/internal/models"
)

type UserStatusRepo struct {
	pool *pgxpool.Pool
}

func NewUserStatusRepo(pool *pgxpool.Pool) *UserStatusRepo {
	return &UserStatusRepo{pool: pool}
}

func (r *UserStatusRepo) Get(ctx context.Context, workspaceID, userID string) (*models.UserStatus, error) {
	var s models.UserStatus
	err := r.pool.QueryRow(ctx, `
		SELECT workspace_id, user_id, user_name, presence, last_checked, last_changed
		FROM user_statuses
		WHERE workspace_id = $1 AND user_id = $2
	`, workspaceID, userID).Scan(
		&s.WorkspaceID, &s.UserID, &s.UserName, &s.Presence, &s.LastChecked, &s.LastChanged,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// Upsert merge-writes the current state document (last-write-wins).
func (r *UserStatusRepo) Upsert(ctx context.Context, s *models.UserStatus) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO user_statuses (workspace_id, user_id, user_name, presence, last_checked, last_changed)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (workspace_id, user_id) DO UPDATE
		SET user_name = EXCLUDED.user_name,
			presence = EXCLUDED.presence,
			last_checked = EXCLUDED.last_checked,
			last_changed = EXCLUDED.last_changed
	`, s.WorkspaceID, s.UserID, s.UserName, s.Presence, s.LastChecked, s.LastChanged)
	return err
}

// TouchChecked records a poll that observed no change.
func (r *UserStatusRepo) TouchChecked(ctx context.Context, workspaceID, userID string, at time.Time) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE user_statuses
		SET last_checked = $3
		WHERE workspace_id = $1 AND user_id = $2
	`, workspaceID, userID, at)
	return err
}

func (r *UserStatusRepo) ListByWorkspace(ctx context.Context, workspaceID string) ([]models.UserStatus, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT workspace_id, user_id, user_name, presence, last_checked, last_changed
		FROM user_statuses
		WHERE workspace_id = $1
		ORDER BY user_name ASC
	`, workspaceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var statuses []models.UserStatus
	for rows.Next() {
		var s models.UserStatus
		if err := rows.Scan(&s.WorkspaceID, &s.UserID, &s.UserName, &s.Presence, &s.LastChecked, &s.LastChanged); err != nil {
			return nil, err
		}
		statuses = append(statuses, s)
	}
	return statuses, rows.Err()
}
