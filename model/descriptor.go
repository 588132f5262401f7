package model

// SessionDescriptor is the resolved session state sent to the frontend after
// every operation. The price quote, when present, is recomputed from the live
// draft on each render and never cached.
type SessionDescriptor struct {
	ID          string            `json:"id"`
	Flow        string            `json:"flow"`
	Status      string            `json:"status"`
	Item        ItemSummary       `json:"item"`
	Steps       []StepSummary     `json:"steps"`
	CurrentStep *StepDescriptor   `json:"current_step,omitempty"`
	Identity    CustomerIdentity  `json:"identity"`
	Terms       bool              `json:"terms_accepted"`
	Price       *PriceDescriptor  `json:"price,omitempty"`
	OrderRef    string            `json:"order_ref,omitempty"`
	RedirectURL string            `json:"redirect_url,omitempty"`
	LastError   string            `json:"last_error,omitempty"`
}

// ItemSummary is the slice of the catalog item the frontend needs to render
// headers and the review step.
type ItemSummary struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	TurnaroundDays int    `json:"turnaround_days,omitempty"`
}

// StepSummary is one entry in the progress indicator.
type StepSummary struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	Status string `json:"status"` // completed, current, or future
}

// Step display status constants.
const (
	StepStatusCompleted = "completed"
	StepStatusCurrent   = "current"
	StepStatusFuture    = "future"
)

// StepDescriptor describes the step the user is currently on, including the
// resolved input affordances for the dynamic-intake step.
type StepDescriptor struct {
	ID     string       `json:"id"`
	Title  string       `json:"title"`
	Fields []FieldState `json:"fields,omitempty"`
}

// FieldState pairs a field descriptor with its resolved input affordance and
// the draft's current value for it.
type FieldState struct {
	Descriptor FieldDescriptor `json:"descriptor"`
	Control    string          `json:"control"`
	Value      any             `json:"value,omitempty"`
}

// PriceDescriptor is the monetary breakdown for the current draft, in minor
// currency units.
type PriceDescriptor struct {
	Base      int64  `json:"base"`
	FastTrack int64  `json:"fast_track,omitempty"`
	AddOns    int64  `json:"add_ons,omitempty"`
	Tax       int64  `json:"tax"`
	Total     int64  `json:"total"`
	Currency  string `json:"currency"`
}

// OrderStatus is the read-only status summary used by the success landing
// page, proxied from the order service.
type OrderStatus struct {
	OrderRef string `json:"order_ref"`
	Status   string `json:"status"`
	Summary  string `json:"summary,omitempty"`
}
