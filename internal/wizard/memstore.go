package wizard

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/Pleeriyenterprise/intake/model"
)

// MemorySessionStore is an in-memory SessionStore. Sessions are ephemeral by
// design, so this is the production store as well as the test store.
type MemorySessionStore struct {
	mu       sync.RWMutex
	sessions map[string]model.WizardSession // key: session ID
}

// NewMemorySessionStore creates a new in-memory session store.
func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{
		sessions: make(map[string]model.WizardSession),
	}
}

// Create persists a new session.
func (s *MemorySessionStore) Create(_ context.Context, session model.WizardSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.sessions[session.ID]; exists {
		return model.NewConflictError(
			fmt.Sprintf("intake session %q already exists", session.ID),
		)
	}

	session.Draft = model.CloneDraft(session.Draft)
	s.sessions[session.ID] = session
	return nil
}

// Get retrieves a session by ID.
func (s *MemorySessionStore) Get(_ context.Context, sessionID string) (model.WizardSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, exists := s.sessions[sessionID]
	if !exists {
		return model.WizardSession{}, model.NewSessionNotFoundError(sessionID)
	}
	session.Draft = model.CloneDraft(session.Draft)
	return session, nil
}

// Update persists an updated session with optimistic locking.
func (s *MemorySessionStore) Update(_ context.Context, session model.WizardSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, exists := s.sessions[session.ID]
	if !exists {
		return model.NewSessionNotFoundError(session.ID)
	}

	// Optimistic lock check.
	if existing.Version != session.Version {
		return model.NewConflictError(
			fmt.Sprintf("intake session %q version conflict (expected %d, got %d)", session.ID, session.Version, existing.Version),
		)
	}

	session.Version++
	session.UpdatedAt = time.Now().UTC()
	session.Draft = model.CloneDraft(session.Draft)
	s.sessions[session.ID] = session
	return nil
}

// FindExpired returns sessions past their expiration time: active ones for
// the reaper to abandon, and abandoned or submitted tombstones for it to
// delete. Only sessions mid-submission are exempt.
func (s *MemorySessionStore) FindExpired(_ context.Context, cutoff time.Time) ([]model.WizardSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []model.WizardSession
	for _, session := range s.sessions {
		if session.Status == model.SessionStatusSubmitting {
			continue
		}
		if session.ExpiresAt == nil || !session.ExpiresAt.Before(cutoff) {
			continue
		}
		session.Draft = model.CloneDraft(session.Draft)
		result = append(result, session)
	}

	// Sort by expires_at ascending.
	sort.Slice(result, func(i, j int) bool {
		return result[i].ExpiresAt.Before(*result[j].ExpiresAt)
	})

	return result, nil
}

// Delete removes a session.
func (s *MemorySessionStore) Delete(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.sessions[sessionID]; !exists {
		return model.NewSessionNotFoundError(sessionID)
	}

	delete(s.sessions, sessionID)
	return nil
}

// Len returns the total number of sessions. For testing.
func (s *MemorySessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// HealthCheck reports whether the store is usable.
func (s *MemorySessionStore) HealthCheck(_ context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.sessions == nil {
		return fmt.Errorf("session store not initialized")
	}
	return nil
}
