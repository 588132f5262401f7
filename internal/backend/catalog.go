package backend

import (
	"context"
	"errors"
	"net/http"
	"net/url"

	"github.com/Pleeriyenterprise/intake/internal/config"
	"github.com/Pleeriyenterprise/intake/internal/observability"
	"github.com/Pleeriyenterprise/intake/model"
)

// CatalogClient fetches item definitions from the catalog service.
type CatalogClient interface {
	// GetItem fetches one item definition. Returns ITEM_NOT_FOUND when the
	// identifier does not exist and CATALOG_UNAVAILABLE on infrastructure
	// failure. No automatic retry: fetches happen on explicit user actions,
	// so the user's own retry is the retry policy.
	GetItem(ctx context.Context, itemID string) (model.ItemDefinition, error)
}

// HTTPCatalogClient is the production CatalogClient backed by the catalog
// service's REST API.
type HTTPCatalogClient struct {
	sc *serviceClient
}

// NewCatalogClient creates a catalog client for the given service config.
// metrics may be nil.
func NewCatalogClient(cfg config.ServiceConfig, metrics *observability.Metrics) *HTTPCatalogClient {
	return &HTTPCatalogClient{sc: newServiceClient(config.ServiceCatalog, cfg, metrics)}
}

// HealthCheck reports the catalog boundary as unhealthy while its circuit
// breaker is open. No probe request is sent; the breaker's own half-open
// probes govern recovery.
func (c *HTTPCatalogClient) HealthCheck(_ context.Context) error {
	if c.sc.breaker.State() == BreakerOpen {
		return errors.New("catalog circuit breaker is open")
	}
	return nil
}

// GetItem implements CatalogClient.
func (c *HTTPCatalogClient) GetItem(ctx context.Context, itemID string) (model.ItemDefinition, error) {
	var item model.ItemDefinition
	err := c.sc.doJSON(ctx, http.MethodGet, "/items/"+url.PathEscape(itemID), nil, &item)
	if err != nil {
		var se *statusError
		if errors.As(err, &se) && se.StatusCode == http.StatusNotFound {
			return model.ItemDefinition{}, model.NewItemNotFoundError(itemID)
		}
		return model.ItemDefinition{}, model.NewCatalogUnavailableError()
	}
	return item, nil
}
