package wizard

import (
	"fmt"
	"strings"

	"github.com/Pleeriyenterprise/intake/internal/field"
	"github.com/Pleeriyenterprise/intake/model"
)

// validateStep runs the validation gate for one logical step against a draft
// snapshot. A nil return means the gate passes. Gates are local and never
// touch the network.
func validateStep(step string, item model.ItemDefinition, d model.Draft) []model.FieldError {
	switch step {
	case model.StepIdentity:
		return validateIdentity(d.Identity)
	case model.StepDetails:
		return validateDetails(item, d)
	case model.StepReview:
		return validateReview(d)
	default:
		return nil
	}
}

// validateUpTo runs the gates for every step in the plan up to and including
// the given index. Used at submission, where the whole draft must hold.
func validateUpTo(plan []string, index int, item model.ItemDefinition, d model.Draft) []model.FieldError {
	var details []model.FieldError
	for i := 0; i <= index && i < len(plan); i++ {
		details = append(details, validateStep(plan[i], item, d)...)
	}
	return details
}

// validateIdentity checks the identity gate: full name non-empty, email
// non-empty and containing an @ separator. The email check is deliberately
// lenient; tightening it is a product decision, not a code one.
func validateIdentity(id model.CustomerIdentity) []model.FieldError {
	var details []model.FieldError
	if strings.TrimSpace(id.FullName) == "" {
		details = append(details, model.FieldError{
			Field:   "full_name",
			Code:    field.CodeRequired,
			Message: "full name is required",
		})
	}
	email := strings.TrimSpace(id.Email)
	switch {
	case email == "":
		details = append(details, model.FieldError{
			Field:   "email",
			Code:    field.CodeRequired,
			Message: "email is required",
		})
	case !strings.Contains(email, "@"):
		details = append(details, model.FieldError{
			Field:   "email",
			Code:    field.CodeInvalidType,
			Message: "email must contain an @",
		})
	}
	return details
}

// validateDetails checks the dynamic-intake gate: every required field must
// hold a non-empty, non-default canonical value. Each failure names the
// offending field so the frontend can message it directly.
func validateDetails(item model.ItemDefinition, d model.Draft) []model.FieldError {
	var details []model.FieldError
	for _, fd := range item.Fields {
		if !fd.Required {
			continue
		}
		value, ok := d.Answers[fd.ID]
		if !ok || field.IsEmpty(value) || field.IsDefault(fd, value) {
			details = append(details, model.FieldError{
				Field:   fd.ID,
				Code:    field.CodeRequired,
				Message: fmt.Sprintf("%s is required", fd.Label),
			})
		}
	}
	return details
}

// validateReview checks the review gate: terms must be accepted.
func validateReview(d model.Draft) []model.FieldError {
	if !d.TermsAccepted {
		return []model.FieldError{{
			Field:   "terms_accepted",
			Code:    field.CodeRequired,
			Message: "terms must be accepted",
		}}
	}
	return nil
}
