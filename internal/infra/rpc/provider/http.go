package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/vietddude/submitter/internal/core/txerror"
)

// HTTPConfig configures an HTTPProvider.
type HTTPConfig struct {
	Name              string
	URL               string
	Timeout           time.Duration
	RequestsPerSecond float64 // 0 = unlimited
	Burst             int
	Headers           map[string]string
}

// HTTPProvider implements Caller for JSON-RPC over HTTP.
type HTTPProvider struct {
	name       string
	endpoint   string
	headers    map[string]string
	httpClient *http.Client
	limiter    *rate.Limiter

	mu           sync.RWMutex
	health       HealthStatus
	totalLatency time.Duration
	successCount int
	failureCount int
	requestCount int

	Monitor *ProviderMonitor
}

// NewHTTPProvider creates a new HTTP-based RPC provider.
func NewHTTPProvider(cfg HTTPConfig) *HTTPProvider {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	name := cfg.Name
	if name == "" {
		name = cfg.URL
	}

	p := &HTTPProvider{
		name:     name,
		endpoint: cfg.URL,
		headers:  cfg.Headers,
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		health: HealthStatus{
			Available:     true,
			LastSuccessAt: time.Now(),
		},
		Monitor: NewProviderMonitor(),
	}

	if cfg.RequestsPerSecond > 0 {
		burst := cfg.Burst
		if burst <= 0 {
			burst = 1
		}
		p.limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst)
	}
	return p
}

// Call makes a single JSON-RPC call.
func (p *HTTPProvider) Call(ctx context.Context, method string, params any) (json.RawMessage, error) {
	if p.limiter != nil {
		if err := p.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	start := time.Now()

	jsonData, err := json.Marshal(NewRequest(method, params))
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range p.headers {
		req.Header.Set(k, v)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		p.recordFailure()
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, transportError(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		p.recordFailure()
		return nil, transportError(err)
	}

	latency := time.Since(start)
	p.Monitor.RecordRequest(latency)

	if resp.StatusCode == http.StatusTooManyRequests {
		p.Monitor.RecordThrottle(parseRetryAfter(resp.Header.Get("Retry-After")))
		p.recordFailure()
		return nil, txerror.New(txerror.KindTimeout, "rate limited (429) by %s", p.name)
	}

	// Nodes may answer a JSON-RPC error with a non-200 status; the body wins
	// whenever it decodes.
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(body, &envelope); err != nil {
		p.recordFailure()
		return nil, httpError(p.Monitor, resp.StatusCode, body)
	}

	if raw, ok := envelope["error"]; ok && !isNull(raw) {
		var rpcErr txerror.RPCError
		if err := json.Unmarshal(raw, &rpcErr); err != nil {
			p.recordFailure()
			return nil, txerror.New(txerror.KindUntyped, "malformed error object: %s", raw)
		}
		if p.Monitor.DetectThrottlePattern(rpcErr.Message) {
			p.Monitor.RecordThrottle(0)
			p.recordFailure()
			return nil, txerror.New(txerror.KindTimeout, "throttled by %s: %s", p.name, rpcErr.Message)
		}
		// A node that answered is healthy even if the call failed.
		p.recordSuccess(latency)
		return nil, txerror.FromRPCError(&rpcErr)
	}

	result, ok := envelope["result"]
	if !ok {
		p.recordFailure()
		return nil, httpError(p.Monitor, resp.StatusCode, body)
	}

	p.recordSuccess(latency)
	return result, nil
}

func isNull(raw json.RawMessage) bool {
	return len(bytes.TrimSpace(raw)) == 0 || string(bytes.TrimSpace(raw)) == "null"
}

func transportError(err error) *txerror.Error {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return txerror.New(txerror.KindTimeout, "Timeout: %v", err)
	}
	return txerror.New(txerror.KindTimeout, "transport failure: %v", err)
}

func httpError(m *ProviderMonitor, status int, body []byte) *txerror.Error {
	switch status {
	case http.StatusRequestTimeout, http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return txerror.New(txerror.KindTimeout, "http %d: %s", status, body)
	}
	if m.DetectThrottlePattern(string(body)) {
		m.RecordThrottle(0)
		return txerror.New(txerror.KindTimeout, "throttle detected in response: %s", body)
	}
	return txerror.New(txerror.KindUntyped, "http %d: %s", status, body)
}

func parseRetryAfter(v string) time.Duration {
	secs, err := strconv.Atoi(v)
	if err != nil || secs <= 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}

// GetName returns the provider's name.
func (p *HTTPProvider) GetName() string {
	return p.name
}

// GetHealth returns the provider's health status.
func (p *HTTPProvider) GetHealth() HealthStatus {
	p.mu.RLock()
	defer p.mu.RUnlock()
	h := p.health
	stats := p.Monitor.GetStats()
	h.MonitorStats = &stats
	return h
}

// IsAvailable checks if the provider is available.
func (p *HTTPProvider) IsAvailable() bool {
	status := p.Monitor.CheckProviderStatus()
	return status == StatusHealthy || status == StatusDegraded
}

// AnyAvailable returns nil if at least one provider can serve, otherwise an
// error listing each provider's health.
func AnyAvailable(ps []*HTTPProvider) error {
	reasons := make([]string, 0, len(ps))
	for _, p := range ps {
		if p.IsAvailable() {
			return nil
		}
		h := p.GetHealth()
		reason := fmt.Sprintf("%s: error rate %.2f", p.name, h.ErrorRate)
		if h.MonitorStats != nil {
			reason = fmt.Sprintf("%s: %s, error rate %.2f, retry after %s",
				p.name, h.MonitorStats.Status, h.ErrorRate, h.MonitorStats.RetryAfter)
		}
		reasons = append(reasons, reason)
	}
	return fmt.Errorf("no healthy node among %d endpoints: %s", len(ps), strings.Join(reasons, "; "))
}

// Close cleans up resources.
func (p *HTTPProvider) Close() error {
	p.httpClient.CloseIdleConnections()
	return nil
}

func (p *HTTPProvider) recordSuccess(latency time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.successCount++
	p.requestCount++
	p.totalLatency += latency
	p.health.LastSuccessAt = time.Now()
	p.health.Available = true

	if p.requestCount > 0 {
		p.health.ErrorRate = float64(p.failureCount) / float64(p.requestCount)
	}
	if p.successCount > 0 {
		p.health.Latency = p.totalLatency / time.Duration(p.successCount)
	}
}

func (p *HTTPProvider) recordFailure() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.failureCount++
	p.requestCount++
	p.health.LastFailureAt = time.Now()

	if p.requestCount > 0 {
		p.health.ErrorRate = float64(p.failureCount) / float64(p.requestCount)
	}

	if p.health.ErrorRate > 0.5 {
		p.health.Available = false
	}
}
