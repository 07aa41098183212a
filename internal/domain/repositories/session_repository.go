package repositories

import (
	"context"

	"github.com/google/uuid"
	"github.com/rmoh-git/kwik-med-emr-backend/internal/domain/entities"
)

// SessionRepository defines the interface for session data access
type SessionRepository interface {
	// FindByID finds a session by ID; returns nil when not found
	FindByID(ctx context.Context, id uuid.UUID) (*entities.Session, error)

	// Exists reports whether a session with the given ID exists
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
}
