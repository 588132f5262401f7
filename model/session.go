package model

import "time"

// Wizard session status constants.
const (
	SessionStatusActive     = "active"
	SessionStatusSubmitting = "submitting"
	SessionStatusSubmitted  = "submitted"
	SessionStatusAbandoned  = "abandoned"
)

// Logical step identifiers. The step plan for a session is an ordered subset
// of these, derived once per item fetch.
const (
	StepIdentity = "identity"
	StepDetails  = "details"
	StepReview   = "review"
)

// WizardSession is a running intake session: one user working through one
// flow against one catalog item. The Item is a snapshot taken at fetch time
// and treated as read-only for the session's duration.
type WizardSession struct {
	ID             string         `json:"id"`
	Flow           string         `json:"flow"`
	ItemID         string         `json:"item_id"`
	Item           ItemDefinition `json:"item"`
	ItemGeneration int            `json:"item_generation"`
	StepPlan       []string       `json:"step_plan"`
	StepIndex      int            `json:"step_index"`
	Draft          Draft          `json:"draft"`
	Status         string         `json:"status"`
	OrderRef       string         `json:"order_ref,omitempty"`
	RedirectURL    string         `json:"redirect_url,omitempty"`
	LastError      string         `json:"last_error,omitempty"`
	Version        int            `json:"version"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	ExpiresAt      *time.Time     `json:"expires_at,omitempty"`
}

// CurrentStep returns the step plan entry at the session's step index, or an
// empty string if the index is out of range.
func (s *WizardSession) CurrentStep() string {
	if s.StepIndex < 0 || s.StepIndex >= len(s.StepPlan) {
		return ""
	}
	return s.StepPlan[s.StepIndex]
}

// AtFinalStep returns true if the session is on the last step plan entry.
func (s *WizardSession) AtFinalStep() bool {
	return len(s.StepPlan) > 0 && s.StepIndex == len(s.StepPlan)-1
}
