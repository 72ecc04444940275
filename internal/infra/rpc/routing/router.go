// Package routing decides how a logical call reaches a node: the backoff
// executor that repeats signalled attempts, and a router that spreads calls
// over several endpoints with a circuit breaker.
package routing

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/vietddude/submitter/internal/core/txerror"
	"github.com/vietddude/submitter/internal/infra/rpc/provider"
)

// circuitThreshold is the number of consecutive transient failures that
// takes an endpoint out of rotation.
const circuitThreshold = 5

type providerMetrics struct {
	successCount     int
	failureCount     int
	totalLatency     time.Duration
	lastSuccessAt    time.Time
	lastFailureAt    time.Time
	consecutiveFails int
	circuitOpen      bool
}

// Router implements provider.Caller over several endpoints. Calls rotate
// round-robin; endpoints that are throttled or whose circuit is open are
// skipped until their cooldown passes.
type Router struct {
	mu        sync.Mutex
	providers []provider.Caller
	health    map[string]*providerMetrics
	next      int
	cooldown  time.Duration
}

// NewRouter creates a router. A zero cooldown uses 30s.
func NewRouter(cooldown time.Duration, providers ...provider.Caller) *Router {
	if cooldown <= 0 {
		cooldown = 30 * time.Second
	}
	r := &Router{
		providers: providers,
		health:    make(map[string]*providerMetrics, len(providers)),
		cooldown:  cooldown,
	}
	for _, p := range providers {
		r.health[p.GetName()] = &providerMetrics{lastSuccessAt: time.Now()}
	}
	return r
}

// GetName lists the endpoints behind the router.
func (r *Router) GetName() string {
	names := make([]string, len(r.providers))
	for i, p := range r.providers {
		names[i] = p.GetName()
	}
	return strings.Join(names, ",")
}

// Call forwards to the next available endpoint. Only transient failures
// count against an endpoint; a node answering with a typed error is healthy.
func (r *Router) Call(ctx context.Context, method string, params any) (json.RawMessage, error) {
	p, err := r.GetProvider()
	if err != nil {
		return nil, err
	}

	start := time.Now()
	result, err := p.Call(ctx, method, params)
	switch {
	case err == nil:
		r.RecordSuccess(p.GetName(), time.Since(start))
	case txerror.Is(err, txerror.KindTimeout):
		r.RecordFailure(p.GetName())
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
	default:
		r.RecordSuccess(p.GetName(), time.Since(start))
	}
	return result, err
}

// GetProvider returns the next endpoint to use. When every endpoint is
// unavailable the one that failed longest ago is tried.
func (r *Router) GetProvider() (provider.Caller, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.providers) == 0 {
		return nil, errors.New("no providers configured")
	}

	var fallback provider.Caller
	var fallbackAt time.Time
	for i := 0; i < len(r.providers); i++ {
		idx := (r.next + i) % len(r.providers)
		p := r.providers[idx]
		if r.available(p) {
			r.next = (idx + 1) % len(r.providers)
			return p, nil
		}
		m := r.health[p.GetName()]
		if fallback == nil || m.lastFailureAt.Before(fallbackAt) {
			fallback, fallbackAt = p, m.lastFailureAt
		}
	}
	return fallback, nil
}

func (r *Router) available(p provider.Caller) bool {
	if hp, ok := p.(*provider.HTTPProvider); ok {
		if hp.Monitor.CheckProviderStatus() == provider.StatusThrottled {
			return false
		}
	}
	m := r.health[p.GetName()]
	if !m.circuitOpen {
		return true
	}
	// Half-open after the cooldown.
	return time.Since(m.lastFailureAt) >= r.cooldown
}

// RecordSuccess records a successful call and closes the circuit.
func (r *Router) RecordSuccess(providerName string, latency time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()

	m, ok := r.health[providerName]
	if !ok {
		return
	}
	m.successCount++
	m.totalLatency += latency
	m.lastSuccessAt = time.Now()
	m.consecutiveFails = 0
	m.circuitOpen = false
}

// RecordFailure records a transient failure.
func (r *Router) RecordFailure(providerName string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	m, ok := r.health[providerName]
	if !ok {
		return
	}
	m.failureCount++
	m.lastFailureAt = time.Now()
	m.consecutiveFails++
	if m.consecutiveFails >= circuitThreshold {
		m.circuitOpen = true
	}
}

// CircuitOpen reports whether an endpoint is out of rotation.
func (r *Router) CircuitOpen(providerName string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.health[providerName]
	return ok && m.circuitOpen
}
