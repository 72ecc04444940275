// Package testutil provides an in-process JSON-RPC node for package tests.
package testutil

import (
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/vietddude/submitter/internal/core/txerror"
)

// RPCRequest is one request received by the fake node.
type RPCRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      uint64          `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params"`
}

// RawHTTP makes the node answer with a bare HTTP response.
type RawHTTP struct {
	Status int
	Body   string
}

// Handler answers one method. Returning a RawHTTP result bypasses the
// JSON-RPC envelope.
type Handler func(req RPCRequest) (result any, rpcErr *txerror.RPCError)

// FakeNode is an httptest server speaking JSON-RPC 2.0.
type FakeNode struct {
	*httptest.Server

	mu       sync.Mutex
	handlers map[string]Handler
	requests []RPCRequest
}

// NewFakeNode starts a node that is closed when the test ends.
func NewFakeNode(t testing.TB) *FakeNode {
	t.Helper()
	n := &FakeNode{handlers: make(map[string]Handler)}
	n.Server = httptest.NewServer(http.HandlerFunc(n.serve))
	t.Cleanup(n.Close)
	return n
}

// Handle sets the handler for method.
func (n *FakeNode) Handle(method string, h Handler) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.handlers[method] = h
}

// Requests returns the requests received for method, or all requests when
// method is empty.
func (n *FakeNode) Requests(method string) []RPCRequest {
	n.mu.Lock()
	defer n.mu.Unlock()

	var out []RPCRequest
	for _, r := range n.requests {
		if method == "" || r.Method == method {
			out = append(out, r)
		}
	}
	return out
}

// Count returns how many requests were received for method.
func (n *FakeNode) Count(method string) int {
	return len(n.Requests(method))
}

func (n *FakeNode) serve(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var req RPCRequest
	if err := json.Unmarshal(body, &req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	n.mu.Lock()
	n.requests = append(n.requests, req)
	h := n.handlers[req.Method]
	n.mu.Unlock()

	if h == nil {
		writeJSON(w, map[string]any{
			"jsonrpc": "2.0",
			"id":      req.ID,
			"error":   &txerror.RPCError{Code: -32601, Message: "Method not found", Data: json.RawMessage(`"` + req.Method + `"`)},
		})
		return
	}

	result, rpcErr := h(req)
	if raw, ok := result.(RawHTTP); ok {
		w.WriteHeader(raw.Status)
		_, _ = io.WriteString(w, raw.Body)
		return
	}

	resp := map[string]any{"jsonrpc": "2.0", "id": req.ID}
	if rpcErr != nil {
		resp["error"] = rpcErr
	} else {
		resp["result"] = result
	}
	writeJSON(w, resp)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

// ServerError builds a node error whose data is the given JSON.
func ServerError(data string) *txerror.RPCError {
	return &txerror.RPCError{
		Name:    "HANDLER_ERROR",
		Code:    -32000,
		Message: "Server error",
		Data:    json.RawMessage(data),
	}
}

// TimeoutError builds the node's timeout error.
func TimeoutError() *txerror.RPCError {
	return &txerror.RPCError{
		Name:    "HANDLER_ERROR",
		Cause:   &txerror.RPCErrorCause{Name: "TIMEOUT_ERROR"},
		Code:    -32000,
		Message: "Server error",
		Data:    json.RawMessage(`"Timeout"`),
	}
}

// InvalidNonceError is the broadcast rejection for a stale nonce.
func InvalidNonceError(txNonce, akNonce uint64) *txerror.RPCError {
	b, _ := json.Marshal(map[string]any{
		"TxExecutionError": map[string]any{
			"InvalidTxError": map[string]any{
				"InvalidNonce": map[string]any{"tx_nonce": txNonce, "ak_nonce": akNonce},
			},
		},
	})
	return ServerError(string(b))
}

// ExpiredError is the broadcast rejection for a stale block reference.
func ExpiredError() *txerror.RPCError {
	return ServerError(`{"TxExecutionError":{"InvalidTxError":"Expired"}}`)
}

// AccessKeyResult is a view_access_key answer.
func AccessKeyResult(nonce uint64) map[string]any {
	return map[string]any{
		"nonce":        nonce,
		"permission":   "FullAccess",
		"block_height": 100,
		"block_hash":   "11111111111111111111111111111111",
	}
}

// UnknownAccessKeyError is the node's answer for a missing access key.
func UnknownAccessKeyError() *txerror.RPCError {
	return &txerror.RPCError{
		Name:    "HANDLER_ERROR",
		Cause:   &txerror.RPCErrorCause{Name: "UNKNOWN_ACCESS_KEY"},
		Code:    -32000,
		Message: "Server error",
		Data:    json.RawMessage(`"access key ed25519:xyz does not exist while viewing"`),
	}
}

// BlockResult is a block answer with the given header hash (base58).
func BlockResult(height uint64, hash string) map[string]any {
	return map[string]any{
		"author": "validator.test",
		"header": map[string]any{"height": height, "hash": hash},
	}
}

// Receipt is one entry of receipts_outcome in a scripted outcome.
type Receipt struct {
	ID       string
	Executor string
	Logs     []string
	Failure  string // raw JSON of the failure, empty for success
}

// Outcome builds a final execution outcome. A non-empty failure is the raw
// JSON of the top-level Failure.
func Outcome(txHash string, failure string, receipts ...Receipt) map[string]any {
	status := map[string]any{"SuccessValue": base64.StdEncoding.EncodeToString([]byte(`""`))}
	if failure != "" {
		status = map[string]any{"Failure": json.RawMessage(failure)}
	}

	receiptsOutcome := make([]map[string]any, 0, len(receipts))
	for _, r := range receipts {
		rs := map[string]any{"SuccessValue": ""}
		if r.Failure != "" {
			rs = map[string]any{"Failure": json.RawMessage(r.Failure)}
		}
		logs := r.Logs
		if logs == nil {
			logs = []string{}
		}
		receiptsOutcome = append(receiptsOutcome, map[string]any{
			"id": r.ID,
			"outcome": map[string]any{
				"logs":        logs,
				"receipt_ids": []string{},
				"gas_burnt":   1,
				"executor_id": r.Executor,
				"status":      rs,
			},
		})
	}

	return map[string]any{
		"status": status,
		"transaction": map[string]any{
			"hash":        txHash,
			"signer_id":   "alice.test",
			"receiver_id": "bob.test",
		},
		"transaction_outcome": map[string]any{
			"id": txHash,
			"outcome": map[string]any{
				"logs":        []string{},
				"receipt_ids": []string{"r0"},
				"gas_burnt":   1,
				"executor_id": "alice.test",
				"status":      map[string]any{"SuccessReceiptId": "r0"},
			},
		},
		"receipts_outcome": receiptsOutcome,
	}
}
