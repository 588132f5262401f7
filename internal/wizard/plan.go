package wizard

import "github.com/Pleeriyenterprise/intake/model"

// BuildStepPlan derives the ordered step plan for an item. The plan is
// computed once per item fetch and stays fixed until the item changes. The
// details step is omitted entirely when the item declares no dynamic fields;
// the progress indicator must never show a vestigial empty step.
func BuildStepPlan(item model.ItemDefinition) []string {
	plan := []string{model.StepIdentity}
	if len(item.Fields) > 0 {
		plan = append(plan, model.StepDetails)
	}
	plan = append(plan, model.StepReview)
	return plan
}

// StepTitle returns the display title for a logical step.
func StepTitle(step string) string {
	switch step {
	case model.StepIdentity:
		return "Your details"
	case model.StepDetails:
		return "Requirements"
	case model.StepReview:
		return "Review & confirm"
	default:
		return step
	}
}
