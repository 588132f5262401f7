package wizard

import (
	"context"
	"time"

	"github.com/Pleeriyenterprise/intake/model"
)

// SessionStore persists wizard sessions.
type SessionStore interface {
	// Create persists a new session.
	Create(ctx context.Context, session model.WizardSession) error

	// Get retrieves a session by ID. Returns SESSION_NOT_FOUND if the session
	// doesn't exist.
	Get(ctx context.Context, sessionID string) (model.WizardSession, error)

	// Update persists an updated session with optimistic locking. The version
	// must match the current stored version. Returns CONFLICT if the version
	// has changed.
	Update(ctx context.Context, session model.WizardSession) error

	// FindExpired returns sessions whose expires_at is before the given
	// cutoff time. Sessions mid-submission are excluded; everything else
	// (active, abandoned, submitted) is eligible for reaping.
	FindExpired(ctx context.Context, cutoff time.Time) ([]model.WizardSession, error)

	// Delete removes a session.
	Delete(ctx context.Context, sessionID string) error
}
