package model

// CustomerIdentity holds the fixed identity fields collected on the first step
// of every flow, independent of the item's dynamic schema.
type CustomerIdentity struct {
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Phone    string `json:"phone,omitempty"`
	Company  string `json:"company,omitempty"`
}

// Draft is the in-progress, session-local record of everything the user has
// entered. Answers is keyed by FieldDescriptor id and holds canonical typed
// values (string, float64, bool, or []string depending on the field's type
// tag). A Draft never outlives its session and is never persisted before
// submission.
type Draft struct {
	Identity      CustomerIdentity `json:"identity"`
	Answers       map[string]any   `json:"answers,omitempty"`
	TermsAccepted bool             `json:"terms_accepted"`
}

// CloneDraft returns a deep copy of d. Answer values are copied; []string
// values get their own backing arrays so mutations cannot leak across copies.
func CloneDraft(d Draft) Draft {
	out := d
	if d.Answers != nil {
		out.Answers = make(map[string]any, len(d.Answers))
		for k, v := range d.Answers {
			if set, ok := v.([]string); ok {
				cp := make([]string, len(set))
				copy(cp, set)
				out.Answers[k] = cp
				continue
			}
			out.Answers[k] = v
		}
	}
	return out
}
