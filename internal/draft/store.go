// Package draft holds the session-owned mutable Draft record. A Store has no
// lifecycle beyond its wizard session: no undo history, no persistence.
package draft

import "github.com/Pleeriyenterprise/intake/model"

// IdentityPatch is a partial update to the customer-identity sub-record. Nil
// fields are left untouched.
type IdentityPatch struct {
	FullName *string `json:"full_name,omitempty"`
	Email    *string `json:"email,omitempty"`
	Phone    *string `json:"phone,omitempty"`
	Company  *string `json:"company,omitempty"`
}

// Store owns the Draft for a single wizard session. It is not safe for
// concurrent use; the engine serializes access through the session store.
type Store struct {
	d model.Draft
}

// New creates an empty Store.
func New() *Store {
	return &Store{d: model.Draft{Answers: make(map[string]any)}}
}

// FromDraft creates a Store seeded with an existing draft. The draft is
// deep-copied so later mutations never reach the caller's value.
func FromDraft(d model.Draft) *Store {
	cp := model.CloneDraft(d)
	if cp.Answers == nil {
		cp.Answers = make(map[string]any)
	}
	return &Store{d: cp}
}

// SetField performs a shallow merge touching only the given answer key. All
// other answers and all identity fields are left untouched; this is the
// invariant that lets dynamic-intake edits coexist with identity edits
// without either clobbering the other.
func (s *Store) SetField(key string, value any) {
	s.d.Answers[key] = value
}

// SetIdentity applies a partial identity update, touching only non-nil
// fields.
func (s *Store) SetIdentity(patch IdentityPatch) {
	if patch.FullName != nil {
		s.d.Identity.FullName = *patch.FullName
	}
	if patch.Email != nil {
		s.d.Identity.Email = *patch.Email
	}
	if patch.Phone != nil {
		s.d.Identity.Phone = *patch.Phone
	}
	if patch.Company != nil {
		s.d.Identity.Company = *patch.Company
	}
}

// SetTermsAccepted sets the terms-acceptance flag.
func (s *Store) SetTermsAccepted(accepted bool) {
	s.d.TermsAccepted = accepted
}

// Snapshot returns an immutable deep copy of the draft, used for validation
// and final serialization.
func (s *Store) Snapshot() model.Draft {
	return model.CloneDraft(s.d)
}
