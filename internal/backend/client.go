// Package backend holds the HTTP clients for the three service boundaries the
// intake engine talks to: catalog, orders, and checkout. Each boundary gets
// its own client with its own timeout and circuit breaker; a misbehaving
// checkout provider must not burn the catalog budget.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/Pleeriyenterprise/intake/internal/config"
	"github.com/Pleeriyenterprise/intake/internal/observability"
	"github.com/Pleeriyenterprise/intake/model"
)

// maxResponseBytes caps how much of a backend response body is read.
const maxResponseBytes = 10 << 20

// errUnavailable marks connection-level and breaker-rejected failures so
// callers can map them to service-specific unavailability errors.
var errUnavailable = errors.New("backend unavailable")

// serviceClient holds the HTTP client and circuit breaker for a single
// backend service.
type serviceClient struct {
	id      string
	cfg     config.ServiceConfig
	client  *http.Client
	breaker *CircuitBreaker
	metrics *observability.Metrics
}

func newServiceClient(id string, cfg config.ServiceConfig, metrics *observability.Metrics) *serviceClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	transport := &http.Transport{
		MaxIdleConns:        100,
		MaxConnsPerHost:     50,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	}
	cbCfg := cfg.CircuitBreaker
	return &serviceClient{
		id:  id,
		cfg: cfg,
		client: &http.Client{
			Timeout:   timeout,
			Transport: transport,
		},
		breaker: NewCircuitBreaker(
			cbCfg.FailureThreshold,
			cbCfg.SuccessThreshold,
			cbCfg.Timeout,
		),
		metrics: metrics,
	}
}

// recordOutcome records one backend request attempt and refreshes the breaker
// gauge. A status of 0 marks attempts that never produced an HTTP response.
func (sc *serviceClient) recordOutcome(status int, start time.Time) {
	if sc.metrics == nil {
		return
	}
	sc.metrics.RecordBackendRequest(sc.id, status, time.Since(start))
	sc.recordBreakerState()
}

func (sc *serviceClient) recordBreakerState() {
	if sc.metrics == nil {
		return
	}
	sc.metrics.SetBackendCircuitBreakerState(sc.id, breakerStateValue(sc.breaker.State()))
}

// breakerStateValue maps breaker states onto the gauge's documented encoding:
// 0=closed, 1=half-open, 2=open.
func breakerStateValue(s BreakerState) float64 {
	switch s {
	case BreakerHalfOpen:
		return 1
	case BreakerOpen:
		return 2
	default:
		return 0
	}
}

// doJSON performs one JSON request against the service with circuit breaker
// protection. A non-nil out is filled from a 2xx response body. Connection
// failures and breaker rejections return errUnavailable; non-2xx statuses are
// returned as statusError for the caller to classify.
func (sc *serviceClient) doJSON(ctx context.Context, method, path string, in, out any) error {
	if err := sc.breaker.Allow(); err != nil {
		sc.recordBreakerState()
		return fmt.Errorf("%s: %w", sc.id, errUnavailable)
	}
	start := time.Now()

	var body io.Reader
	if in != nil {
		encoded, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("%s: marshal request: %w", sc.id, err)
		}
		body = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, strings.TrimRight(sc.cfg.BaseURL, "/")+path, body)
	if err != nil {
		return fmt.Errorf("%s: build request: %w", sc.id, err)
	}
	req.Header = buildHeaders(model.RequestContextFrom(ctx), method)
	observability.InjectTraceHeaders(ctx, req.Header)

	resp, err := sc.client.Do(req)
	if err != nil {
		sc.breaker.RecordFailure()
		sc.recordOutcome(0, start)
		if isConnectionError(err) || ctx.Err() != nil {
			return fmt.Errorf("%s: %w", sc.id, errUnavailable)
		}
		return fmt.Errorf("%s: request failed: %w", sc.id, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		sc.breaker.RecordFailure()
		sc.recordOutcome(resp.StatusCode, start)
		return fmt.Errorf("%s: read response: %w", sc.id, err)
	}

	// Only 5xx counts against the breaker; 4xx are not infrastructure failures.
	if resp.StatusCode >= 500 {
		sc.breaker.RecordFailure()
	} else if resp.StatusCode < 400 {
		sc.breaker.RecordSuccess()
	}
	sc.recordOutcome(resp.StatusCode, start)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &statusError{Service: sc.id, StatusCode: resp.StatusCode, Body: respBody}
	}

	if out != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("%s: decode response: %w", sc.id, err)
		}
	}
	return nil
}

// statusError is a non-2xx backend response.
type statusError struct {
	Service    string
	StatusCode int
	Body       []byte
}

func (e *statusError) Error() string {
	return fmt.Sprintf("%s: unexpected status %d", e.Service, e.StatusCode)
}

func buildHeaders(rctx *model.RequestContext, method string) http.Header {
	h := make(http.Header)

	h.Set("Accept", "application/json")
	if method == http.MethodPost || method == http.MethodPut || method == http.MethodPatch {
		h.Set("Content-Type", "application/json")
	}

	if rctx != nil {
		h.Set("X-Correlation-Id", sanitizeHeader(rctx.CorrelationID))
		if rctx.Locale != "" {
			h.Set("Accept-Language", sanitizeHeader(rctx.Locale))
		}
	}

	return h
}

// sanitizeHeader strips newlines and carriage returns to prevent header injection.
func sanitizeHeader(s string) string {
	s = strings.ReplaceAll(s, "\r", "")
	s = strings.ReplaceAll(s, "\n", "")
	return s
}

func isConnectionError(err error) bool {
	if err == nil {
		return false
	}
	var netErr *net.OpError
	if errors.As(err, &netErr) {
		return true
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}
	return false
}
