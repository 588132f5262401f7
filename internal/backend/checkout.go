package backend

import (
	"context"
	"net/http"
	"strings"

	"github.com/Pleeriyenterprise/intake/internal/config"
	"github.com/Pleeriyenterprise/intake/internal/observability"
	"github.com/Pleeriyenterprise/intake/model"
)

// CheckoutClient creates hosted payment sessions for unpaid orders.
type CheckoutClient interface {
	// CreateSession creates a payment session for the order and returns the
	// redirect URL the customer should be sent to.
	CreateSession(ctx context.Context, orderRef string) (string, error)
}

// HTTPCheckoutClient is the production CheckoutClient backed by the payment
// provider's session API.
type HTTPCheckoutClient struct {
	sc       *serviceClient
	checkout config.CheckoutConfig
}

// NewCheckoutClient creates a checkout client for the given service config.
// metrics may be nil.
func NewCheckoutClient(cfg config.ServiceConfig, checkout config.CheckoutConfig, metrics *observability.Metrics) *HTTPCheckoutClient {
	return &HTTPCheckoutClient{
		sc:       newServiceClient(config.ServiceCheckout, cfg, metrics),
		checkout: checkout,
	}
}

// CreateSession implements CheckoutClient.
func (c *HTTPCheckoutClient) CreateSession(ctx context.Context, orderRef string) (string, error) {
	req := struct {
		OrderRef   string `json:"order_ref"`
		SuccessURL string `json:"success_url"`
		CancelURL  string `json:"cancel_url"`
	}{
		OrderRef:   orderRef,
		SuccessURL: expandOrderRef(c.checkout.SuccessURL, orderRef),
		CancelURL:  expandOrderRef(c.checkout.CancelURL, orderRef),
	}

	var resp struct {
		RedirectURL string `json:"redirect_url"`
	}
	if err := c.sc.doJSON(ctx, http.MethodPost, "/checkout/sessions", req, &resp); err != nil {
		return "", model.NewCheckoutCreateFailedError()
	}
	if resp.RedirectURL == "" {
		return "", model.NewCheckoutCreateFailedError()
	}
	return resp.RedirectURL, nil
}

// expandOrderRef substitutes the {order_ref} placeholder in a redirect
// template.
func expandOrderRef(template, orderRef string) string {
	return strings.ReplaceAll(template, "{order_ref}", orderRef)
}
