package backend

import (
	"context"
	"net/http"
	"net/url"

	"github.com/Pleeriyenterprise/intake/internal/config"
	"github.com/Pleeriyenterprise/intake/internal/observability"
	"github.com/Pleeriyenterprise/intake/model"
)

// OrderRequest is the payload handed to the order service at submission. The
// answers map is string-keyed and string-valued; typed draft values are
// serialized before they cross this boundary.
type OrderRequest struct {
	Flow     string                 `json:"flow"`
	ItemID   string                 `json:"item_id"`
	Identity model.CustomerIdentity `json:"identity"`
	Answers  map[string]string      `json:"answers"`
	Price    *model.PriceDescriptor `json:"price,omitempty"`
}

// OrderClient creates orders and reads back their status.
type OrderClient interface {
	// CreateOrder creates an order record and returns its reference. Not
	// retried automatically: the engine's submission guard owns at-most-once
	// semantics.
	CreateOrder(ctx context.Context, req OrderRequest) (string, error)
	// GetStatus fetches the status summary for a previously created order.
	GetStatus(ctx context.Context, orderRef string) (model.OrderStatus, error)
}

// HTTPOrderClient is the production OrderClient backed by the order service's
// REST API.
type HTTPOrderClient struct {
	sc *serviceClient
}

// NewOrderClient creates an order client for the given service config.
// metrics may be nil.
func NewOrderClient(cfg config.ServiceConfig, metrics *observability.Metrics) *HTTPOrderClient {
	return &HTTPOrderClient{sc: newServiceClient(config.ServiceOrders, cfg, metrics)}
}

// CreateOrder implements OrderClient.
func (c *HTTPOrderClient) CreateOrder(ctx context.Context, req OrderRequest) (string, error) {
	var resp struct {
		OrderRef string `json:"order_ref"`
	}
	if err := c.sc.doJSON(ctx, http.MethodPost, "/orders", req, &resp); err != nil {
		return "", model.NewOrderCreateFailedError()
	}
	if resp.OrderRef == "" {
		return "", model.NewOrderCreateFailedError()
	}
	return resp.OrderRef, nil
}

// GetStatus implements OrderClient.
func (c *HTTPOrderClient) GetStatus(ctx context.Context, orderRef string) (model.OrderStatus, error) {
	var status model.OrderStatus
	if err := c.sc.doJSON(ctx, http.MethodGet, "/orders/"+url.PathEscape(orderRef)+"/status", nil, &status); err != nil {
		return model.OrderStatus{}, model.NewOrderStatusFailedError()
	}
	if status.OrderRef == "" {
		status.OrderRef = orderRef
	}
	return status, nil
}
