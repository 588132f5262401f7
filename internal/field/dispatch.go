// Package field maps abstract field-type tags to concrete input affordances
// and to coercion and serialization rules for draft answer values. It is
// purely data-driven and performs no network access.
package field

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Pleeriyenterprise/intake/model"
)

// Control identifiers for the renderable input affordance.
const (
	ControlText        = "text"
	ControlTextarea    = "textarea"
	ControlNumber      = "number"
	ControlDate        = "date"
	ControlSelect      = "select"
	ControlMultiSelect = "multi-select"
	ControlToggle      = "toggle"
	ControlAddress     = "address"
)

// Field-level error codes used in validation details.
const (
	CodeRequired      = "REQUIRED"
	CodeInvalidType   = "INVALID_TYPE"
	CodeInvalidNumber = "INVALID_NUMBER"
	CodeOutOfRange    = "OUT_OF_RANGE"
	CodeInvalidDate   = "INVALID_DATE"
	CodeInvalidOption = "INVALID_OPTION"
	CodeUnknownField  = "UNKNOWN_FIELD"
)

// isoDateLayout is the accepted date form. No timezone normalization is
// attempted; the value is stored exactly as given once it parses.
const isoDateLayout = "2006-01-02"

// multiChoiceDelimiter joins multi-choice sets for string-keyed transport.
const multiChoiceDelimiter = ","

// ControlFor returns the renderable input control for a field's type tag.
// Unknown tags fall back to short-text rendering: the schema is
// server-controlled and may evolve ahead of this client, so an unrecognized
// tag degrades gracefully instead of failing the session.
func ControlFor(fd model.FieldDescriptor) string {
	switch fd.Type {
	case model.FieldShortText:
		return ControlText
	case model.FieldLongText:
		return ControlTextarea
	case model.FieldNumber:
		return ControlNumber
	case model.FieldDate:
		return ControlDate
	case model.FieldSingleChoice:
		return ControlSelect
	case model.FieldMultiChoice:
		return ControlMultiSelect
	case model.FieldBoolean:
		return ControlToggle
	case model.FieldAddress:
		return ControlAddress
	default:
		return ControlText
	}
}

// Coerce converts a raw input value into the canonical typed value for the
// field's type tag. Returns a FieldError describing the first constraint the
// raw value violates, or nil on success.
func Coerce(fd model.FieldDescriptor, raw any) (any, *model.FieldError) {
	switch fd.Type {
	case model.FieldNumber:
		return coerceNumber(fd, raw)
	case model.FieldDate:
		return coerceDate(fd, raw)
	case model.FieldSingleChoice:
		return coerceSingleChoice(fd, raw)
	case model.FieldMultiChoice:
		return coerceMultiChoice(fd, raw)
	case model.FieldBoolean:
		return coerceBoolean(fd, raw)
	default:
		// short-text, long-text, address, and unknown tags: plain string.
		return coerceString(fd, raw)
	}
}

// Serialize renders a canonical value as the string the order boundary's
// string-keyed answer map expects.
func Serialize(fd model.FieldDescriptor, canonical any) string {
	switch v := canonical.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	case []string:
		return strings.Join(v, multiChoiceDelimiter)
	default:
		return fmt.Sprint(v)
	}
}

// IsEmpty reports whether a canonical value counts as absent for the purposes
// of the required-field gate. A false boolean is a real answer, not an empty
// one; required booleans must be affirmatively true (terms-style consent).
func IsEmpty(canonical any) bool {
	switch v := canonical.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(v) == ""
	case []string:
		return len(v) == 0
	case bool:
		return !v
	default:
		return false
	}
}

// IsDefault reports whether a canonical value equals the field's declared
// default. Required fields must carry a non-default answer.
func IsDefault(fd model.FieldDescriptor, canonical any) bool {
	if fd.Default == "" {
		return false
	}
	return Serialize(fd, canonical) == fd.Default
}

func coerceString(fd model.FieldDescriptor, raw any) (any, *model.FieldError) {
	s, ok := raw.(string)
	if !ok {
		return nil, fieldErr(fd, CodeInvalidType, "expected a text value")
	}
	return s, nil
}

func coerceNumber(fd model.FieldDescriptor, raw any) (any, *model.FieldError) {
	var n float64
	switch v := raw.(type) {
	case float64:
		n = v
	case int:
		n = float64(v)
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return nil, fieldErr(fd, CodeInvalidNumber, "not a valid number")
		}
		n = parsed
	default:
		return nil, fieldErr(fd, CodeInvalidType, "expected a numeric value")
	}

	if fd.Min != nil && n < *fd.Min {
		return nil, fieldErr(fd, CodeOutOfRange, fmt.Sprintf("must be at least %v", *fd.Min))
	}
	if fd.Max != nil && n > *fd.Max {
		return nil, fieldErr(fd, CodeOutOfRange, fmt.Sprintf("must be at most %v", *fd.Max))
	}
	return n, nil
}

func coerceDate(fd model.FieldDescriptor, raw any) (any, *model.FieldError) {
	s, ok := raw.(string)
	if !ok {
		return nil, fieldErr(fd, CodeInvalidType, "expected an ISO date string")
	}
	if _, err := time.Parse(isoDateLayout, s); err != nil {
		return nil, fieldErr(fd, CodeInvalidDate, "expected YYYY-MM-DD")
	}
	return s, nil
}

func coerceSingleChoice(fd model.FieldDescriptor, raw any) (any, *model.FieldError) {
	s, ok := raw.(string)
	if !ok {
		return nil, fieldErr(fd, CodeInvalidType, "expected an option value")
	}
	if s == "" {
		return "", nil
	}
	if !fd.HasOption(s) {
		return nil, fieldErr(fd, CodeInvalidOption, fmt.Sprintf("%q is not a valid option", s))
	}
	return s, nil
}

func coerceMultiChoice(fd model.FieldDescriptor, raw any) (any, *model.FieldError) {
	var values []string
	switch v := raw.(type) {
	case []string:
		values = v
	case []any:
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, fieldErr(fd, CodeInvalidType, "expected option values")
			}
			values = append(values, s)
		}
	case string:
		if v != "" {
			values = strings.Split(v, multiChoiceDelimiter)
		}
	default:
		return nil, fieldErr(fd, CodeInvalidType, "expected option values")
	}

	// Ordered set: preserve first-seen order, drop duplicates.
	seen := make(map[string]bool, len(values))
	set := make([]string, 0, len(values))
	for _, s := range values {
		s = strings.TrimSpace(s)
		if s == "" || seen[s] {
			continue
		}
		if !fd.HasOption(s) {
			return nil, fieldErr(fd, CodeInvalidOption, fmt.Sprintf("%q is not a valid option", s))
		}
		seen[s] = true
		set = append(set, s)
	}
	return set, nil
}

func coerceBoolean(fd model.FieldDescriptor, raw any) (any, *model.FieldError) {
	switch v := raw.(type) {
	case bool:
		return v, nil
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "true":
			return true, nil
		case "false", "":
			return false, nil
		}
	}
	return nil, fieldErr(fd, CodeInvalidType, "expected true or false")
}

func fieldErr(fd model.FieldDescriptor, code, msg string) *model.FieldError {
	return &model.FieldError{Field: fd.ID, Code: code, Message: msg}
}
