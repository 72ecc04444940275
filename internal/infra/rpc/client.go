// Package rpc is the request channel between the submission engine and a
// node. Every call runs under the backoff executor; timeouts heal here,
// everything else is raised as a classified error for the layer above.
package rpc

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/vietddude/submitter/internal/core/domain"
	"github.com/vietddude/submitter/internal/core/encoding"
	"github.com/vietddude/submitter/internal/core/txerror"
	"github.com/vietddude/submitter/internal/infra/rpc/provider"
	"github.com/vietddude/submitter/internal/infra/rpc/routing"
	"github.com/vietddude/submitter/internal/metrics"
)

// Client is the high-level interface for making RPC calls.
type Client struct {
	caller provider.Caller
	retry  routing.RetryConfig
	logger *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithRetryConfig overrides the timeout retry policy.
func WithRetryConfig(cfg routing.RetryConfig) Option {
	return func(c *Client) { c.retry = cfg }
}

// WithLogger sets the logger used for retry warnings.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// NewClient creates a new RPC client on top of a single-call provider.
func NewClient(caller provider.Caller, opts ...Option) *Client {
	c := &Client{
		caller: caller,
		retry:  routing.DefaultRetryConfig,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Send performs one logical call. TimeoutError answers are retried with
// backoff; any other error is returned at once. Exhausting the budget yields
// a RetriesExceeded error.
func (c *Client) Send(ctx context.Context, method string, params any) (json.RawMessage, error) {
	result, err := routing.Retry(ctx, c.retry, func(ctx context.Context, attempt int) (json.RawMessage, error) {
		start := time.Now()
		result, err := c.caller.Call(ctx, method, params)
		metrics.RPCLatency.WithLabelValues(method).Observe(time.Since(start).Seconds())

		if err == nil {
			return result, nil
		}
		if e, ok := txerror.As(err); ok && e.Kind == txerror.KindTimeout {
			metrics.RPCRetriesTotal.WithLabelValues(method).Inc()
			c.logger.Warn("Retrying request after timeout",
				"method", method,
				"attempt", attempt,
				"provider", c.caller.GetName(),
				"error", e.Message,
			)
			return nil, routing.Again(e)
		}
		return nil, err
	})

	var exhausted *routing.ExhaustedError
	if errors.As(err, &exhausted) {
		metrics.RPCRequestsTotal.WithLabelValues(method, "exhausted").Inc()
		return nil, txerror.New(txerror.KindRetriesExceeded,
			"Exceeded %d attempts for request %s.", exhausted.Attempts, method)
	}
	if err != nil {
		metrics.RPCRequestsTotal.WithLabelValues(method, "error").Inc()
		return nil, err
	}

	metrics.RPCRequestsTotal.WithLabelValues(method, "success").Inc()
	return result, nil
}

// Query sends a "query" request. Older nodes report query failures inside
// the result as {"error": "..."}; those are classified like node errors.
func (c *Client) Query(ctx context.Context, params map[string]any) (json.RawMessage, error) {
	result, err := c.Send(ctx, "query", params)
	if err != nil {
		return nil, err
	}

	var inline struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(result, &inline) == nil && inline.Error != "" {
		return nil, txerror.Classify(mustJSON(inline.Error))
	}
	return result, nil
}

// ViewAccessKey returns the on-chain state of an access key.
func (c *Client) ViewAccessKey(ctx context.Context, accountID string, pk domain.PublicKey) (*domain.AccessKeyView, error) {
	result, err := c.Query(ctx, map[string]any{
		"request_type": "view_access_key",
		"finality":     domain.FinalityFinal,
		"account_id":   accountID,
		"public_key":   pk.String(),
	})
	if err != nil {
		return nil, err
	}

	var view domain.AccessKeyView
	if err := json.Unmarshal(result, &view); err != nil {
		return nil, fmt.Errorf("decode access key: %w", err)
	}
	return &view, nil
}

// Block returns the latest block at the given finality.
func (c *Client) Block(ctx context.Context, finality domain.Finality) (*domain.BlockView, error) {
	result, err := c.Send(ctx, "block", map[string]any{"finality": finality})
	if err != nil {
		return nil, err
	}

	var view domain.BlockView
	if err := json.Unmarshal(result, &view); err != nil {
		return nil, fmt.Errorf("decode block: %w", err)
	}
	return &view, nil
}

// ProtocolConfig returns the current protocol parameters.
func (c *Client) ProtocolConfig(ctx context.Context) (*domain.ProtocolConfig, error) {
	result, err := c.Send(ctx, "EXPERIMENTAL_protocol_config", map[string]any{"finality": domain.FinalityFinal})
	if err != nil {
		return nil, err
	}

	var cfg domain.ProtocolConfig
	if err := json.Unmarshal(result, &cfg); err != nil {
		return nil, fmt.Errorf("decode protocol config: %w", err)
	}
	return &cfg, nil
}

// SendTransaction broadcasts a signed transaction and waits for it to commit.
func (c *Client) SendTransaction(ctx context.Context, st *domain.SignedTransaction) (*domain.FinalExecutionOutcome, error) {
	encoded, err := encodeSigned(st)
	if err != nil {
		return nil, err
	}
	result, err := c.Send(ctx, "broadcast_tx_commit", []any{encoded})
	if err != nil {
		return nil, err
	}
	return decodeOutcome(result)
}

// SendTransactionAsync broadcasts a signed transaction and returns its hash
// without waiting.
func (c *Client) SendTransactionAsync(ctx context.Context, st *domain.SignedTransaction) (string, error) {
	encoded, err := encodeSigned(st)
	if err != nil {
		return "", err
	}
	result, err := c.Send(ctx, "broadcast_tx_async", []any{encoded})
	if err != nil {
		return "", err
	}

	var hash string
	if err := json.Unmarshal(result, &hash); err != nil {
		return "", fmt.Errorf("decode transaction hash: %w", err)
	}
	return hash, nil
}

// TxStatus returns the outcome of a previously submitted transaction.
func (c *Client) TxStatus(ctx context.Context, hash, senderID string) (*domain.FinalExecutionOutcome, error) {
	result, err := c.Send(ctx, "tx", []any{hash, senderID})
	if err != nil {
		return nil, err
	}
	return decodeOutcome(result)
}

func encodeSigned(st *domain.SignedTransaction) (string, error) {
	b, err := encoding.EncodeSignedTransaction(st)
	if err != nil {
		return "", fmt.Errorf("encode signed transaction: %w", err)
	}
	return base64.StdEncoding.EncodeToString(b), nil
}

func decodeOutcome(result json.RawMessage) (*domain.FinalExecutionOutcome, error) {
	var out domain.FinalExecutionOutcome
	if err := json.Unmarshal(result, &out); err != nil {
		return nil, fmt.Errorf("decode execution outcome: %w", err)
	}
	out.Raw = result
	return &out, nil
}

func mustJSON(v any) json.RawMessage {
	b, _ := json.Marshal(v)
	return b
}
