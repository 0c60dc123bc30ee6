package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/sakif/repo-finder/internal/apperror"
	"github.com/sakif/repo-finder/internal/model"
	"github.com/sakif/repo-finder/internal/repository"
)

var _ repository.SessionRepository = (*DB)(nil)

// GetSession retrieves a session by its ID.
func (db *DB) GetSession(ctx context.Context, id string) (*model.Session, error) {
	var s model.Session

	err := db.conn.QueryRowContext(ctx,
		`SELECT id, username, created_at, updated_at
		 FROM sessions
		 WHERE id = ?`,
		id,
	).Scan(
		&s.ID,
		&s.Username,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("session", id)
		}
		return nil, fmt.Errorf("sqlite: getting session %s: %w", id, err)
	}

	return &s, nil
}

// SaveUsername stores the username typed in session id.
//
// INSERT ... ON CONFLICT keeps created_at of an existing row and only
// touches username and updated_at.
func (db *DB) SaveUsername(ctx context.Context, id, username string) error {
	now := time.Now().UTC()

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO sessions (id, username, created_at, updated_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   username = excluded.username,
		   updated_at = excluded.updated_at`,
		id,
		username,
		now,
		now,
	)
	if err != nil {
		return fmt.Errorf("sqlite: saving username for session %s: %w", id, err)
	}

	return nil
}

// PruneSessions deletes every session whose username was last saved
// before the cutoff. Timestamps are written in UTC by SaveUsername, so the
// comparison runs on idx_sessions_updated_at.
func (db *DB) PruneSessions(ctx context.Context, before time.Time) (int64, error) {
	result, err := db.conn.ExecContext(ctx,
		`DELETE FROM sessions WHERE updated_at < ?`,
		before.UTC(),
	)
	if err != nil {
		return 0, fmt.Errorf("sqlite: pruning sessions: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("sqlite: checking rows affected: %w", err)
	}

	return n, nil
}
