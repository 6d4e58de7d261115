package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"slackpulse-backend/internal/models"
)

type SessionRepo struct {
	pool *pgxpool.Pool
}

func NewSessionRepo(pool *pgxpool.Pool) *SessionRepo {
	return &SessionRepo{pool: pool}
}

// Open starts a new activity session at the given instant. Any session still
// open for the same user is closed first (idempotent behavior); a crash
// between a close and the next open leaves at most a permanently-open
// session, which the derivation layer tolerates.
func (r *SessionRepo) Open(ctx context.Context, s *models.ActivitySession) error {
	_, _ = r.pool.Exec(ctx, `
		UPDATE activity_sessions
		SET end_time = $3,
			last_seen = $3
		WHERE workspace_id = $1
		  AND user_id = $2
		  AND end_time IS NULL
	`, s.WorkspaceID, s.UserID, s.StartTime)

	query := `
		INSERT INTO activity_sessions (workspace_id, user_id, start_time, last_seen)
		VALUES ($1, $2, $3, $3)
		RETURNING id
	`
	return r.pool.QueryRow(ctx, query, s.WorkspaceID, s.UserID, s.StartTime).Scan(&s.ID)
}

// Close ends the open session, if any, at the given instant.
func (r *SessionRepo) Close(ctx context.Context, workspaceID, userID string, at time.Time) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE activity_sessions
		SET end_time = $3,
			last_seen = $3
		WHERE workspace_id = $1
		  AND user_id = $2
		  AND end_time IS NULL
	`, workspaceID, userID, at)
	return err
}

// Touch advances last_seen on the open session while the user remains active.
func (r *SessionRepo) Touch(ctx context.Context, workspaceID, userID string, at time.Time) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE activity_sessions
		SET last_seen = $3
		WHERE workspace_id = $1
		  AND user_id = $2
		  AND end_time IS NULL
	`, workspaceID, userID, at)
	return err
}

// ListOverlapping returns sessions whose [start_time, end_time ?? now]
// interval intersects [from, to], ordered by start time.
func (r *SessionRepo) ListOverlapping(ctx context.Context, workspaceID, userID string, from, to time.Time) ([]models.ActivitySession, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, workspace_id, user_id, start_time, end_time, last_seen
		FROM activity_sessions
		WHERE workspace_id = $1
		  AND user_id = $2
		  AND start_time <= $4
		  AND (end_time IS NULL OR end_time >= $3)
		ORDER BY start_time ASC
	`, workspaceID, userID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []models.ActivitySession
	for rows.Next() {
		var s models.ActivitySession
		if err := rows.Scan(&s.ID, &s.WorkspaceID, &s.UserID, &s.StartTime, &s.EndTime, &s.LastSeen); err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}

// GetOpen returns the currently open session for a user, or nil.
func (r *SessionRepo) GetOpen(ctx context.Context, workspaceID, userID string) (*models.ActivitySession, error) {
	var s models.ActivitySession
	err := r.pool.QueryRow(ctx, `
		SELECT id, workspace_id, user_id, start_time, end_time, last_seen
		FROM activity_sessions
		WHERE workspace_id = $1
		  AND user_id = $2
		  AND end_time IS NULL
	`, workspaceID, userID).Scan(&s.ID, &s.WorkspaceID, &s.UserID, &s.StartTime, &s.EndTime, &s.LastSeen)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}
