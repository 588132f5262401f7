package transport

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Pleeriyenterprise/intake/internal/observability"
	"github.com/Pleeriyenterprise/intake/internal/wizard"
	"github.com/Pleeriyenterprise/intake/model"
)

func handleAdvance(engine *wizard.Engine, metrics *observability.Metrics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		desc, err := engine.Advance(r.Context(), chi.URLParam(r, "sessionId"))
		if err != nil {
			recordValidationFailure(metrics, err)
			WriteError(w, err)
			return
		}
		if metrics != nil && desc.CurrentStep != nil {
			metrics.RecordSessionAdvance(desc.Flow, desc.CurrentStep.ID)
		}
		WriteJSON(w, http.StatusOK, desc)
	}
}

func handleRetreat(engine *wizard.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		desc, err := engine.Retreat(r.Context(), chi.URLParam(r, "sessionId"))
		if err != nil {
			WriteError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, desc)
	}
}

func handleSubmit(engine *wizard.Engine, metrics *observability.Metrics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID := chi.URLParam(r, "sessionId")
		desc, err := engine.Submit(r.Context(), sessionID)
		if err != nil {
			recordValidationFailure(metrics, err)
			if metrics != nil {
				if ee, ok := err.(*model.ErrorEnvelope); ok && ee.Code != model.ErrValidationError {
					metrics.RecordSessionSubmission(submissionFlow(r.Context(), engine, sessionID), "failed")
				}
			}
			WriteError(w, err)
			return
		}
		if metrics != nil && desc.Status == model.SessionStatusSubmitted {
			metrics.RecordSessionSubmission(desc.Flow, "submitted")
		}
		WriteJSON(w, http.StatusOK, desc)
	}
}

func handleRetryCheckout(engine *wizard.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		desc, err := engine.RetryCheckout(r.Context(), chi.URLParam(r, "sessionId"))
		if err != nil {
			WriteError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, desc)
	}
}

// submissionFlow resolves a session's flow for metric labels. The fallback
// only applies when the session itself cannot be read.
func submissionFlow(ctx context.Context, engine *wizard.Engine, sessionID string) string {
	if desc, err := engine.Get(ctx, sessionID); err == nil && desc.Flow != "" {
		return desc.Flow
	}
	return "unknown"
}

// recordValidationFailure bumps the validation-failure counter when the error
// is a validation envelope. The step label comes from the first failing field
// group, which is enough granularity for alerting.
func recordValidationFailure(metrics *observability.Metrics, err error) {
	if metrics == nil {
		return
	}
	if ee, ok := err.(*model.ErrorEnvelope); ok && ee.Code == model.ErrValidationError && len(ee.Details) > 0 {
		metrics.RecordValidationFailure(ee.Details[0].Field)
	}
}
