package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"slackpulse-backend/internal/models"
)

type PresenceLogRepo struct {
	pool *pgxpool.Pool
}

func NewPresenceLogRepo(pool *pgxpool.Pool) *PresenceLogRepo {
	return &PresenceLogRepo{pool: pool}
}

func (r *PresenceLogRepo) Insert(ctx context.Context, l *models.PresenceLog) error {
	query := `
		INSERT INTO presence_logs (workspace_id, user_id, user_name, presence, previous_presence, timestamp)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`
	return r.pool.QueryRow(ctx, query,
		l.WorkspaceID, l.UserID, l.UserName, l.Presence, l.PreviousPresence, l.Timestamp,
	).Scan(&l.ID)
}

// ListRange returns all logs whose timestamp falls within [from, to],
// ascending. Used for the full-day fetch.
func (r *PresenceLogRepo) ListRange(ctx context.Context, workspaceID, userID string, from, to time.Time) ([]models.PresenceLog, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, workspace_id, user_id, user_name, presence, previous_presence, timestamp
		FROM presence_logs
		WHERE workspace_id = $1
		  AND user_id = $2
		  AND timestamp >= $3
		  AND timestamp <= $4
		ORDER BY timestamp ASC
	`, workspaceID, userID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanLogs(rows)
}

// ListAfter returns logs strictly newer than "after" up to and including
// "to", ascending. Used for the incremental tail fetch.
func (r *PresenceLogRepo) ListAfter(ctx context.Context, workspaceID, userID string, after, to time.Time) ([]models.PresenceLog, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, workspace_id, user_id, user_name, presence, previous_presence, timestamp
		FROM presence_logs
		WHERE workspace_id = $1
		  AND user_id = $2
		  AND timestamp > $3
		  AND timestamp <= $4
		ORDER BY timestamp ASC
	`, workspaceID, userID, after, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanLogs(rows)
}

// LastInRange returns the single most recent log within [from, to], or nil
// when none exists. Used to seed the prior-day presence state.
func (r *PresenceLogRepo) LastInRange(ctx context.Context, workspaceID, userID string, from, to time.Time) (*models.PresenceLog, error) {
	var l models.PresenceLog
	err := r.pool.QueryRow(ctx, `
		SELECT id, workspace_id, user_id, user_name, presence, previous_presence, timestamp
		FROM presence_logs
		WHERE workspace_id = $1
		  AND user_id = $2
		  AND timestamp >= $3
		  AND timestamp <= $4
		ORDER BY timestamp DESC
		LIMIT 1
	`, workspaceID, userID, from, to).Scan(
		&l.ID, &l.WorkspaceID, &l.UserID, &l.UserName, &l.Presence, &l.PreviousPresence, &l.Timestamp,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func scanLogs(rows pgx.Rows) ([]models.PresenceLog, error) {
	var logs []models.PresenceLog
	for rows.Next() {
		var l models.PresenceLog
		if err := rows.Scan(&l.ID, &l.WorkspaceID, &l.UserID, &l.UserName, &l.Presence, &l.PreviousPresence, &l.Timestamp); err != nil {
			return nil, err
		}
		logs = append(logs, l)
	}
	return logs, rows.Err()
}
