package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

const sampleYAML = `
server:
  port: 9090
services:
  catalog:
    base_url: http://catalog.internal:8080
    timeout: 5s
    circuit_breaker:
      failure_threshold: 4
      success_threshold: 2
      timeout: 15s
  orders:
    base_url: http://orders.internal:8080
  checkout:
    base_url: http://checkout.internal:8080
checkout:
  success_url: https://example.com/done?ref={order_ref}
  cancel_url: https://example.com/cancel
session:
  ttl: 1h
pricing:
  default_currency: EUR
  default_tax_rate_percent: 19
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	return path
}

func TestDefaults(t *testing.T) {
	cfg := Defaults()

	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Session.TTL != 2*time.Hour {
		t.Errorf("Session.TTL = %v, want 2h", cfg.Session.TTL)
	}
	if cfg.Pricing.DefaultCurrency != "GBP" || cfg.Pricing.DefaultTaxRatePercent != 20 {
		t.Errorf("Pricing = %+v", cfg.Pricing)
	}
	if !cfg.Observability.Metrics.Enabled || cfg.Observability.Metrics.Path != "/metrics" {
		t.Errorf("Metrics = %+v", cfg.Observability.Metrics)
	}
}

func TestLoad(t *testing.T) {
	cfg, err := Load(writeConfig(t, sampleYAML))
	if err != nil {
		t.Fatalf("Load error = %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("Server.Port = %d, want 9090", cfg.Server.Port)
	}
	catalog := cfg.Services[ServiceCatalog]
	if catalog.BaseURL != "http://catalog.internal:8080" {
		t.Errorf("catalog.BaseURL = %q", catalog.BaseURL)
	}
	if catalog.Timeout != 5*time.Second {
		t.Errorf("catalog.Timeout = %v, want 5s", catalog.Timeout)
	}
	if catalog.CircuitBreaker.FailureThreshold != 4 {
		t.Errorf("FailureThreshold = %d, want 4", catalog.CircuitBreaker.FailureThreshold)
	}
	if cfg.Session.TTL != time.Hour {
		t.Errorf("Session.TTL = %v, want 1h", cfg.Session.TTL)
	}
	if cfg.Pricing.DefaultCurrency != "EUR" || cfg.Pricing.DefaultTaxRatePercent != 19 {
		t.Errorf("Pricing = %+v", cfg.Pricing)
	}
	// Unset sections keep their defaults.
	if cfg.Server.HandlerTimeout != 25*time.Second {
		t.Errorf("HandlerTimeout = %v, want default 25s", cfg.Server.HandlerTimeout)
	}
}

func TestLoad_missingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("Load(missing file): error = nil, want error")
	}
}

func TestValidate_missingServiceBaseURL(t *testing.T) {
	cfg := Defaults()
	cfg.Checkout = CheckoutConfig{SuccessURL: "https://x/done", CancelURL: "https://x/cancel"}
	cfg.Services = map[string]ServiceConfig{
		ServiceCatalog: {BaseURL: "http://catalog"},
		ServiceOrders:  {BaseURL: "http://orders"},
		// checkout service missing
	}

	if err := cfg.Validate(); err == nil {
		t.Error("Validate: error = nil, want missing checkout base_url")
	}
}

func TestValidate_missingCheckoutURLs(t *testing.T) {
	cfg := Defaults()
	cfg.Services = map[string]ServiceConfig{
		ServiceCatalog:  {BaseURL: "http://catalog"},
		ServiceOrders:   {BaseURL: "http://orders"},
		ServiceCheckout: {BaseURL: "http://checkout"},
	}

	if err := cfg.Validate(); err == nil {
		t.Error("Validate: error = nil, want missing checkout URLs")
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("INTAKE_SERVER_PORT", "7001")
	t.Setenv("INTAKE_CATALOG_BASE_URL", "http://catalog.override:9000")
	t.Setenv("INTAKE_OBSERVABILITY_LOG_LEVEL", "debug")

	cfg, err := Load(writeConfig(t, sampleYAML))
	if err != nil {
		t.Fatalf("Load error = %v", err)
	}
	if cfg.Server.Port != 7001 {
		t.Errorf("Server.Port = %d, want 7001", cfg.Server.Port)
	}
	if got := cfg.Services[ServiceCatalog].BaseURL; got != "http://catalog.override:9000" {
		t.Errorf("catalog.BaseURL = %q, want override", got)
	}
	if cfg.Observability.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want debug", cfg.Observability.LogLevel)
	}
}
