// Package repository declares the persistence interfaces of repo-finder.
// Implementations live in subpackages (sqlite).
package repository

import (
	"context"
	"time"

	"github.com/sakif/repo-finder/internal/model"
)

// SessionRepository stores the persisted part of browser sessions.
type SessionRepository interface {
	// GetSession returns apperror.ErrNotFound for unknown IDs.
	GetSession(ctx context.Context, id string) (*model.Session, error)
	// SaveUsername creates the session if it does not exist yet.
	SaveUsername(ctx context.Context, id, username string) error
	// PruneSessions deletes sessions not updated since before and returns
	// how many were deleted.
	PruneSessions(ctx context.Context, before time.Time) (int64, error)
}
