package transport

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Pleeriyenterprise/intake/internal/wizard"
)

func handleOrderStatus(engine *wizard.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status, err := engine.OrderStatus(r.Context(), chi.URLParam(r, "orderId"))
		if err != nil {
			WriteError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, status)
	}
}
