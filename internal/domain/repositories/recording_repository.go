package repositories

import (
	"context"

	"github.com/google/uuid"
	"github.com/rmoh-git/kwik-med-emr-backend/internal/domain/entities"
)

// RecordingRepository defines the interface for recording data access
type RecordingRepository interface {
	// Create creates a new recording
	Create(ctx context.Context, recording *entities.Recording) error

	// FindByID finds a recording by ID; returns nil when not found
	FindByID(ctx context.Context, id uuid.UUID) (*entities.Recording, error)

	// FindBySessionID returns all recordings for a session ordered by start time
	FindBySessionID(ctx context.Context, sessionID uuid.UUID) ([]*entities.Recording, error)

	// FindActiveBySession finds the recording currently in RECORDING state
	// for a session, if any
	FindActiveBySession(ctx context.Context, sessionID uuid.UUID) (*entities.Recording, error)

	// Update persists the full recording row
	Update(ctx context.Context, recording *entities.Recording) error

	// ClaimForProcessing atomically moves an UPLOADED or FAILED recording to
	// PROCESSING. Returns false when the recording was not in a claimable state.
	ClaimForProcessing(ctx context.Context, id uuid.UUID) (bool, error)
}
