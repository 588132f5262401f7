package backend

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/Pleeriyenterprise/intake/internal/config"
	"github.com/Pleeriyenterprise/intake/internal/observability"
	"github.com/Pleeriyenterprise/intake/model"
)

func serviceConfig(baseURL string) config.ServiceConfig {
	return config.ServiceConfig{
		BaseURL: baseURL,
		Timeout: 2 * time.Second,
		CircuitBreaker: config.CircuitBreakerConfig{
			FailureThreshold: 3,
			SuccessThreshold: 1,
			Timeout:          time.Minute,
		},
	}
}

func TestCatalogClient_GetItem(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/items/SVC-PROP" {
			t.Errorf("path = %q, want /items/SVC-PROP", r.URL.Path)
		}
		if got := r.Header.Get("Accept"); got != "application/json" {
			t.Errorf("Accept = %q", got)
		}
		json.NewEncoder(w).Encode(model.ItemDefinition{
			ID:        "SVC-PROP",
			Name:      "Property Inspection",
			BasePrice: 5000,
			Currency:  "GBP",
			Fields: []model.FieldDescriptor{
				{ID: "postcode", Type: model.FieldShortText, Required: true},
			},
		})
	}))
	defer srv.Close()

	client := NewCatalogClient(serviceConfig(srv.URL), nil)
	item, err := client.GetItem(context.Background(), "SVC-PROP")
	if err != nil {
		t.Fatalf("GetItem error = %v", err)
	}
	if item.Name != "Property Inspection" || item.BasePrice != 5000 {
		t.Errorf("item = %+v", item)
	}
	if len(item.Fields) != 1 || item.Fields[0].ID != "postcode" {
		t.Errorf("Fields = %+v", item.Fields)
	}
}

func TestCatalogClient_notFoundIsTerminal(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	client := NewCatalogClient(serviceConfig(srv.URL), nil)
	_, err := client.GetItem(context.Background(), "SVC-GONE")
	ee, ok := err.(*model.ErrorEnvelope)
	if !ok || ee.Code != model.ErrItemNotFound {
		t.Errorf("error = %v, want %s", err, model.ErrItemNotFound)
	}
}

func TestCatalogClient_serverErrorIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := NewCatalogClient(serviceConfig(srv.URL), nil)
	_, err := client.GetItem(context.Background(), "SVC-PROP")
	ee, ok := err.(*model.ErrorEnvelope)
	if !ok || ee.Code != model.ErrCatalogUnavailable {
		t.Errorf("error = %v, want %s", err, model.ErrCatalogUnavailable)
	}
}

func TestCatalogClient_breakerShortCircuitsAfterRepeatedFailures(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := NewCatalogClient(serviceConfig(srv.URL), nil)
	for i := 0; i < 5; i++ {
		client.GetItem(context.Background(), "SVC-PROP")
	}
	// Three failures trip the breaker; later calls never reach the server.
	if calls != 3 {
		t.Errorf("server calls = %d, want 3", calls)
	}
}

func TestOrderClient_CreateOrder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/orders" {
			t.Errorf("%s %s, want POST /orders", r.Method, r.URL.Path)
		}
		var req OrderRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.ItemID != "SVC-PROP" || req.Answers["postcode"] != "EC1A 1BB" {
			t.Errorf("request = %+v", req)
		}
		if req.Price == nil || req.Price.Total != 6000 {
			t.Errorf("Price = %+v, want total 6000", req.Price)
		}
		json.NewEncoder(w).Encode(map[string]string{"order_ref": "ORD-42"})
	}))
	defer srv.Close()

	client := NewOrderClient(serviceConfig(srv.URL), nil)
	ref, err := client.CreateOrder(context.Background(), OrderRequest{
		Flow:     model.FlowServiceOrder,
		ItemID:   "SVC-PROP",
		Identity: model.CustomerIdentity{FullName: "Ada Lovelace", Email: "ada@example.com"},
		Answers:  map[string]string{"postcode": "EC1A 1BB"},
		Price:    &model.PriceDescriptor{Base: 5000, Tax: 1000, Total: 6000, Currency: "GBP"},
	})
	if err != nil {
		t.Fatalf("CreateOrder error = %v", err)
	}
	if ref != "ORD-42" {
		t.Errorf("order ref = %q, want ORD-42", ref)
	}
}

func TestOrderClient_failureMapsToOrderCreateFailed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusBadGateway)
	}))
	defer srv.Close()

	client := NewOrderClient(serviceConfig(srv.URL), nil)
	_, err := client.CreateOrder(context.Background(), OrderRequest{ItemID: "SVC-PROP"})
	ee, ok := err.(*model.ErrorEnvelope)
	if !ok || ee.Code != model.ErrOrderCreateFailed {
		t.Errorf("error = %v, want %s", err, model.ErrOrderCreateFailed)
	}
}

func TestOrderClient_emptyRefIsFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{})
	}))
	defer srv.Close()

	client := NewOrderClient(serviceConfig(srv.URL), nil)
	_, err := client.CreateOrder(context.Background(), OrderRequest{ItemID: "SVC-PROP"})
	if err == nil {
		t.Error("CreateOrder with empty order_ref: error = nil, want failure")
	}
}

func TestOrderClient_GetStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/orders/ORD-42/status" {
			t.Errorf("path = %q", r.URL.Path)
		}
		json.NewEncoder(w).Encode(model.OrderStatus{Status: "paid", Summary: "Property Inspection"})
	}))
	defer srv.Close()

	client := NewOrderClient(serviceConfig(srv.URL), nil)
	status, err := client.GetStatus(context.Background(), "ORD-42")
	if err != nil {
		t.Fatalf("GetStatus error = %v", err)
	}
	if status.Status != "paid" {
		t.Errorf("Status = %q, want paid", status.Status)
	}
	// The reference is backfilled when the upstream omits it.
	if status.OrderRef != "ORD-42" {
		t.Errorf("OrderRef = %q, want ORD-42", status.OrderRef)
	}
}

func TestCheckoutClient_CreateSession(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/checkout/sessions" {
			t.Errorf("%s %s, want POST /checkout/sessions", r.Method, r.URL.Path)
		}
		var req struct {
			OrderRef   string `json:"order_ref"`
			SuccessURL string `json:"success_url"`
			CancelURL  string `json:"cancel_url"`
		}
		json.NewDecoder(r.Body).Decode(&req)
		if req.OrderRef != "ORD-42" {
			t.Errorf("order_ref = %q", req.OrderRef)
		}
		// The {order_ref} placeholder expands into the redirect templates.
		if req.SuccessURL != "https://example.com/done?ref=ORD-42" {
			t.Errorf("success_url = %q", req.SuccessURL)
		}
		if req.CancelURL != "https://example.com/cancel" {
			t.Errorf("cancel_url = %q", req.CancelURL)
		}
		json.NewEncoder(w).Encode(map[string]string{"redirect_url": "https://pay.example.com/s/abc"})
	}))
	defer srv.Close()

	client := NewCheckoutClient(serviceConfig(srv.URL), config.CheckoutConfig{
		SuccessURL: "https://example.com/done?ref={order_ref}",
		CancelURL:  "https://example.com/cancel",
	}, nil)
	redirect, err := client.CreateSession(context.Background(), "ORD-42")
	if err != nil {
		t.Fatalf("CreateSession error = %v", err)
	}
	if redirect != "https://pay.example.com/s/abc" {
		t.Errorf("redirect = %q", redirect)
	}
}

func TestCheckoutClient_failureMapsToCheckoutCreateFailed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "declined", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	client := NewCheckoutClient(serviceConfig(srv.URL), config.CheckoutConfig{}, nil)
	_, err := client.CreateSession(context.Background(), "ORD-42")
	ee, ok := err.(*model.ErrorEnvelope)
	if !ok || ee.Code != model.ErrCheckoutCreateFailed {
		t.Errorf("error = %v, want %s", err, model.ErrCheckoutCreateFailed)
	}
}

func TestDoJSON_correlationHeaderPropagates(t *testing.T) {
	var gotCorrelation, gotLanguage string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotCorrelation = r.Header.Get("X-Correlation-Id")
		gotLanguage = r.Header.Get("Accept-Language")
		w.Write([]byte("{}"))
	}))
	defer srv.Close()

	ctx := model.WithRequestContext(context.Background(), &model.RequestContext{
		CorrelationID: "corr-123",
		Locale:        "en-GB",
	})
	sc := newServiceClient("catalog", serviceConfig(srv.URL), nil)
	if err := sc.doJSON(ctx, http.MethodGet, "/items/x", nil, nil); err != nil {
		t.Fatalf("doJSON error = %v", err)
	}
	if gotCorrelation != "corr-123" {
		t.Errorf("X-Correlation-Id = %q, want corr-123", gotCorrelation)
	}
	if gotLanguage != "en-GB" {
		t.Errorf("Accept-Language = %q, want en-GB", gotLanguage)
	}
}

func TestDoJSON_recordsBackendMetrics(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(model.ItemDefinition{ID: "SVC-PROP"})
	}))
	defer srv.Close()

	metrics := observability.InitMetrics(prometheus.NewRegistry())
	client := NewCatalogClient(serviceConfig(srv.URL), metrics)

	if _, err := client.GetItem(context.Background(), "SVC-PROP"); err != nil {
		t.Fatalf("GetItem error = %v", err)
	}

	got := testutil.ToFloat64(metrics.BackendRequestsTotal.WithLabelValues("catalog", "200"))
	if got != 1 {
		t.Errorf("backend requests (catalog, 200) = %v, want 1", got)
	}
	state := testutil.ToFloat64(metrics.BackendCircuitBreakerState.WithLabelValues("catalog"))
	if state != 0 {
		t.Errorf("breaker gauge = %v, want 0 (closed)", state)
	}
}

func TestDoJSON_breakerGaugeReflectsOpenState(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	metrics := observability.InitMetrics(prometheus.NewRegistry())
	client := NewCatalogClient(serviceConfig(srv.URL), metrics)

	// Three 5xx responses trip the breaker; the next call is rejected.
	for i := 0; i < 4; i++ {
		client.GetItem(context.Background(), "SVC-PROP")
	}

	state := testutil.ToFloat64(metrics.BackendCircuitBreakerState.WithLabelValues("catalog"))
	if state != 2 {
		t.Errorf("breaker gauge = %v, want 2 (open)", state)
	}
	failures := testutil.ToFloat64(metrics.BackendRequestsTotal.WithLabelValues("catalog", "500"))
	if failures != 3 {
		t.Errorf("backend requests (catalog, 500) = %v, want 3", failures)
	}
}

func TestSanitizeHeader(t *testing.T) {
	got := sanitizeHeader("abc\r\ndef")
	if got != "abcdef" {
		t.Errorf("sanitizeHeader = %q, want abcdef", got)
	}
}
