package model

// Field type tags understood by the field dispatcher. The tag set is closed on
// the client side but the catalog service may evolve ahead of it; unknown tags
// degrade to short-text rendering rather than failing the session.
const (
	FieldShortText    = "short-text"
	FieldLongText     = "long-text"
	FieldNumber       = "number"
	FieldDate         = "date"
	FieldSingleChoice = "single-choice"
	FieldMultiChoice  = "multi-choice"
	FieldBoolean      = "boolean"
	FieldAddress      = "address"
)

// Flow kinds sharing the wizard engine.
const (
	FlowServiceOrder = "service_order"
	FlowTalentPool   = "talent_pool"
	FlowPartnership  = "partnership"
)

// ItemDefinition describes a purchasable or applyable item as served by the
// catalog service: its price and tax treatment plus the ordered dynamic field
// schema the intake step renders. Immutable once fetched for the duration of a
// session; re-fetched only when the item identifier changes.
type ItemDefinition struct {
	ID                 string            `json:"id"`
	Name               string            `json:"name"`
	BasePrice          int64             `json:"base_price"` // minor currency units
	Currency           string            `json:"currency"`
	TaxRatePercent     int               `json:"tax_rate_percent"`
	TurnaroundDays     int               `json:"turnaround_days"`
	FastTrackSurcharge int64             `json:"fast_track_surcharge,omitempty"` // minor units; 0 = not offered
	Fields             []FieldDescriptor `json:"fields,omitempty"`
}

// FieldDescriptor is one entry in an ItemDefinition's dynamic form schema.
// The catalog service guarantees id uniqueness within an item; the wizard does
// not re-validate that precondition.
type FieldDescriptor struct {
	ID       string        `json:"id"`
	Label    string        `json:"label"`
	Type     string        `json:"type"`
	Required bool          `json:"required,omitempty"`
	Default  string        `json:"default,omitempty"`
	HelpText string        `json:"help_text,omitempty"`
	Min      *float64      `json:"min,omitempty"`
	Max      *float64      `json:"max,omitempty"`
	Options  []FieldOption `json:"options,omitempty"`
}

// FieldOption is a selectable option for choice-type fields. A non-zero
// surcharge contributes an add-on fee to the price quote when selected.
type FieldOption struct {
	Label     string `json:"label"`
	Value     string `json:"value"`
	Surcharge int64  `json:"surcharge,omitempty"` // minor units
}

// OptionValues returns the declared option values in order.
func (fd FieldDescriptor) OptionValues() []string {
	values := make([]string, 0, len(fd.Options))
	for _, opt := range fd.Options {
		values = append(values, opt.Value)
	}
	return values
}

// HasOption returns true if value is a member of the declared option set.
func (fd FieldDescriptor) HasOption(value string) bool {
	for _, opt := range fd.Options {
		if opt.Value == value {
			return true
		}
	}
	return false
}
