package transport

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Pleeriyenterprise/intake/internal/observability"
	"github.com/Pleeriyenterprise/intake/internal/wizard"
	"github.com/Pleeriyenterprise/intake/model"
)

// maxRequestBytes caps the JSON request bodies the session API accepts.
const maxRequestBytes = 1 << 20

func decodeJSON(w http.ResponseWriter, r *http.Request, out any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(out); err != nil {
		return model.NewBadRequestError("invalid JSON body: " + err.Error())
	}
	return nil
}

func handleStartSession(engine *wizard.Engine, metrics *observability.Metrics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Flow   string `json:"flow"`
			ItemID string `json:"item_id"`
		}
		if err := decodeJSON(w, r, &req); err != nil {
			WriteError(w, err)
			return
		}
		if req.Flow == "" {
			req.Flow = model.FlowServiceOrder
		}

		desc, err := engine.Start(r.Context(), req.Flow, req.ItemID)
		if err != nil {
			WriteError(w, err)
			return
		}
		if metrics != nil {
			metrics.RecordSessionStart(desc.Flow)
		}
		WriteJSON(w, http.StatusCreated, desc)
	}
}

func handleGetSession(engine *wizard.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		desc, err := engine.Get(r.Context(), chi.URLParam(r, "sessionId"))
		if err != nil {
			WriteError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, desc)
	}
}

func handleAbandonSession(engine *wizard.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := engine.Abandon(r.Context(), chi.URLParam(r, "sessionId")); err != nil {
			WriteError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func handleChangeItem(engine *wizard.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ItemID string `json:"item_id"`
		}
		if err := decodeJSON(w, r, &req); err != nil {
			WriteError(w, err)
			return
		}

		desc, err := engine.ChangeItem(r.Context(), chi.URLParam(r, "sessionId"), req.ItemID)
		if err != nil {
			WriteError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, desc)
	}
}
