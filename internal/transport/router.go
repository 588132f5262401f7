package transport

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/Pleeriyenterprise/intake/internal/config"
	"github.com/Pleeriyenterprise/intake/internal/observability"
	"github.com/Pleeriyenterprise/intake/internal/wizard"
)

// Dependencies holds all injected dependencies for the HTTP transport layer.
type Dependencies struct {
	Config  *config.Config
	Engine  *wizard.Engine
	Logger  *zap.Logger
	Metrics *observability.Metrics
	Ready   observability.ReadinessChecks
}

// NewRouter creates a chi.Router with the full middleware pipeline and all
// route registrations. Health, readiness, and metrics endpoints skip the
// request-context and logging layers.
func NewRouter(deps Dependencies) chi.Router {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	r := chi.NewRouter()

	// Global middleware: applied to all routes including health.
	r.Use(Recovery(logger))
	r.Use(CORS(deps.Config.Server.CORS))
	r.Use(RequestID)
	r.Use(SecurityHeaders)

	// Public routes.
	r.Get("/intake/health", observability.HandleHealth())
	r.Get("/intake/ready", observability.HandleReady(deps.Ready))
	if deps.Config.Observability.Metrics.Enabled {
		path := deps.Config.Observability.Metrics.Path
		if path == "" {
			path = "/metrics"
		}
		r.Method(http.MethodGet, path, observability.Handler())
	}

	// Session API routes get the full middleware chain.
	r.Group(func(r chi.Router) {
		r.Use(observability.TracingMiddleware)
		r.Use(BuildRequestContext)
		r.Use(HandlerTimeout(deps.Config.Server.HandlerTimeout))
		r.Use(RequestLogging(logger))
		if deps.Metrics != nil {
			r.Use(deps.Metrics.MetricsMiddleware)
		}

		r.Post("/intake/sessions", handleStartSession(deps.Engine, deps.Metrics))
		r.Get("/intake/sessions/{sessionId}", handleGetSession(deps.Engine))
		r.Delete("/intake/sessions/{sessionId}", handleAbandonSession(deps.Engine))
		r.Post("/intake/sessions/{sessionId}/item", handleChangeItem(deps.Engine))
		r.Patch("/intake/sessions/{sessionId}/draft", handleUpdateDraft(deps.Engine))
		r.Post("/intake/sessions/{sessionId}/advance", handleAdvance(deps.Engine, deps.Metrics))
		r.Post("/intake/sessions/{sessionId}/retreat", handleRetreat(deps.Engine))
		r.Post("/intake/sessions/{sessionId}/submit", handleSubmit(deps.Engine, deps.Metrics))
		r.Post("/intake/sessions/{sessionId}/checkout/retry", handleRetryCheckout(deps.Engine))
		r.Get("/intake/orders/{orderId}/status", handleOrderStatus(deps.Engine))
	})

	return r
}
