package transport

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Pleeriyenterprise/intake/internal/wizard"
)

func handleUpdateDraft(engine *wizard.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var patch wizard.DraftPatch
		if err := decodeJSON(w, r, &patch); err != nil {
			WriteError(w, err)
			return
		}

		desc, err := engine.UpdateDraft(r.Context(), chi.URLParam(r, "sessionId"), patch)
		if err != nil {
			WriteError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, desc)
	}
}
