// Package provider performs single JSON-RPC 2.0 round trips against a node.
//
// This package contains:
//   - Caller interface: one request, one response, no retries
//   - HTTPProvider: JSON-RPC over HTTP with rate limiting
//   - ProviderMonitor: latency and throttle tracking
//
// Retries and error policy live one layer up, in package rpc.
package provider

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"time"

	"github.com/vietddude/submitter/internal/core/txerror"
)

// Caller performs one JSON-RPC call. Node errors are returned as
// *txerror.Error; transport trouble is reported as txerror.KindTimeout so the
// channel above can retry it.
type Caller interface {
	GetName() string
	Call(ctx context.Context, method string, params any) (json.RawMessage, error)
}

// Request is the JSON-RPC 2.0 envelope.
type Request struct {
	JSONRPC string `json:"jsonrpc"`
	ID      uint64 `json:"id"`
	Method  string `json:"method"`
	Params  any    `json:"params"`
}

// Response is the JSON-RPC 2.0 reply.
type Response struct {
	JSONRPC string            `json:"jsonrpc"`
	ID      json.RawMessage   `json:"id"`
	Result  json.RawMessage   `json:"result,omitempty"`
	Error   *txerror.RPCError `json:"error,omitempty"`
}

var requestID atomic.Uint64

// NextRequestID returns a process-wide, strictly increasing request id.
// Ids are never reused; gaps are allowed.
func NextRequestID() uint64 {
	return requestID.Add(1)
}

// NewRequest builds an envelope with a fresh id.
func NewRequest(method string, params any) Request {
	if params == nil {
		params = []any{}
	}
	return Request{
		JSONRPC: "2.0",
		ID:      NextRequestID(),
		Method:  method,
		Params:  params,
	}
}

// HealthStatus represents the health state of a provider.
type HealthStatus struct {
	Available     bool
	Latency       time.Duration
	ErrorRate     float64
	LastSuccessAt time.Time
	LastFailureAt time.Time
	MonitorStats  *MonitorStats `json:"monitor_stats,omitempty"`
}
