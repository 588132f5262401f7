package model

import "fmt"

// Standard error codes.
const (
	ErrBadRequest           = "BAD_REQUEST"
	ErrNotFound             = "NOT_FOUND"
	ErrConflict             = "CONFLICT"
	ErrValidationError      = "VALIDATION_ERROR"
	ErrInvalidTransition    = "INVALID_TRANSITION"
	ErrInternalError        = "INTERNAL_ERROR"
	ErrItemNotFound         = "ITEM_NOT_FOUND"
	ErrCatalogUnavailable   = "CATALOG_UNAVAILABLE"
	ErrSessionNotFound      = "SESSION_NOT_FOUND"
	ErrOrderCreateFailed    = "ORDER_CREATE_FAILED"
	ErrCheckoutCreateFailed = "CHECKOUT_CREATE_FAILED"
	ErrOrderStatusFailed    = "ORDER_STATUS_FAILED"
)

// ErrorEnvelope is the standard error response envelope returned by the
// intake API. It implements the error interface.
type ErrorEnvelope struct {
	Code    string       `json:"code"`
	Message string       `json:"message"`
	Details []FieldError `json:"details,omitempty"`
	TraceID string       `json:"trace_id,omitempty"`
}

// Error implements the error interface.
func (e *ErrorEnvelope) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// FieldError describes a field-level validation error. Field names the
// offending draft key so the frontend can message it without a second
// round-trip.
type FieldError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// NewBadRequestError returns a BAD_REQUEST error.
func NewBadRequestError(msg string) *ErrorEnvelope {
	return &ErrorEnvelope{Code: ErrBadRequest, Message: msg}
}

// NewNotFoundError returns a NOT_FOUND error.
func NewNotFoundError(msg string) *ErrorEnvelope {
	return &ErrorEnvelope{Code: ErrNotFound, Message: msg}
}

// NewConflictError returns a CONFLICT error.
func NewConflictError(msg string) *ErrorEnvelope {
	return &ErrorEnvelope{Code: ErrConflict, Message: msg}
}

// NewValidationError returns a VALIDATION_ERROR with field-level details.
// Validation failures are local and recoverable; they block a transition but
// never escalate beyond the current step.
func NewValidationError(details []FieldError) *ErrorEnvelope {
	return &ErrorEnvelope{
		Code:    ErrValidationError,
		Message: "One or more fields are invalid",
		Details: details,
	}
}

// NewInvalidTransitionError returns an INVALID_TRANSITION error.
func NewInvalidTransitionError(msg string) *ErrorEnvelope {
	return &ErrorEnvelope{Code: ErrInvalidTransition, Message: msg}
}

// NewInternalError returns an INTERNAL_ERROR.
func NewInternalError() *ErrorEnvelope {
	return &ErrorEnvelope{
		Code:    ErrInternalError,
		Message: "An unexpected error occurred",
	}
}

// NewItemNotFoundError returns an ITEM_NOT_FOUND error. Terminal for the
// session: the caller should route the user back to a browsing surface.
func NewItemNotFoundError(itemID string) *ErrorEnvelope {
	return &ErrorEnvelope{
		Code:    ErrItemNotFound,
		Message: fmt.Sprintf("catalog item %q does not exist", itemID),
	}
}

// NewCatalogUnavailableError returns a CATALOG_UNAVAILABLE error, recoverable
// by an explicit user-triggered retry.
func NewCatalogUnavailableError() *ErrorEnvelope {
	return &ErrorEnvelope{
		Code:    ErrCatalogUnavailable,
		Message: "The catalog service is temporarily unavailable",
	}
}

// NewSessionNotFoundError returns a SESSION_NOT_FOUND error.
func NewSessionNotFoundError(sessionID string) *ErrorEnvelope {
	return &ErrorEnvelope{
		Code:    ErrSessionNotFound,
		Message: fmt.Sprintf("intake session %q not found", sessionID),
	}
}

// NewOrderCreateFailedError returns an ORDER_CREATE_FAILED error. The draft
// is untouched by the failed attempt and the user may retry submission.
func NewOrderCreateFailedError() *ErrorEnvelope {
	return &ErrorEnvelope{
		Code:    ErrOrderCreateFailed,
		Message: "The order could not be created; please try again",
	}
}

// NewCheckoutCreateFailedError returns a CHECKOUT_CREATE_FAILED error. The
// order already exists but is unpaid; only the checkout leg should be retried.
func NewCheckoutCreateFailedError() *ErrorEnvelope {
	return &ErrorEnvelope{
		Code:    ErrCheckoutCreateFailed,
		Message: "The payment session could not be created; please retry checkout",
	}
}

// NewOrderStatusFailedError returns an ORDER_STATUS_FAILED error.
func NewOrderStatusFailedError() *ErrorEnvelope {
	return &ErrorEnvelope{
		Code:    ErrOrderStatusFailed,
		Message: "The order status could not be retrieved",
	}
}
