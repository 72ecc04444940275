package rpc

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"log/slog"
	"math/big"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vietddude/submitter/internal/core/domain"
	"github.com/vietddude/submitter/internal/core/encoding"
	"github.com/vietddude/submitter/internal/core/txerror"
	"github.com/vietddude/submitter/internal/infra/rpc/provider"
	"github.com/vietddude/submitter/internal/infra/rpc/routing"
	"github.com/vietddude/submitter/internal/testutil"
)

var fastRetry = routing.RetryConfig{
	MaxAttempts:     12,
	InitialDelay:    time.Millisecond,
	BackoffMultiple: 1.5,
}

func newTestClient(t *testing.T, node *testutil.FakeNode) *Client {
	t.Helper()
	p := provider.NewHTTPProvider(provider.HTTPConfig{Name: "mock", URL: node.URL, Timeout: 5 * time.Second})
	quiet := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewClient(p, WithRetryConfig(fastRetry), WithLogger(quiet))
}

func TestSend_AlwaysTimeoutExhausts(t *testing.T) {
	node := testutil.NewFakeNode(t)
	node.Handle("broadcast_tx_commit", func(req testutil.RPCRequest) (any, *txerror.RPCError) {
		return nil, testutil.TimeoutError()
	})

	_, err := newTestClient(t, node).Send(context.Background(), "broadcast_tx_commit", []any{"AA=="})
	require.Error(t, err)

	e, ok := txerror.As(err)
	require.True(t, ok)
	assert.Equal(t, txerror.KindRetriesExceeded, e.Kind)
	assert.Contains(t, e.Message, "broadcast_tx_commit")
	assert.Contains(t, e.Message, "12")
	assert.Equal(t, 12, node.Count("broadcast_tx_commit"))
}

func TestSend_TimeoutThenSuccess(t *testing.T) {
	node := testutil.NewFakeNode(t)
	var calls atomic.Int32
	node.Handle("block", func(req testutil.RPCRequest) (any, *txerror.RPCError) {
		if calls.Add(1) == 1 {
			return testutil.RawHTTP{Status: 503, Body: "busy"}, nil
		}
		return testutil.BlockResult(9, "11111111111111111111111111111111"), nil
	})

	block, err := newTestClient(t, node).Block(context.Background(), domain.FinalityFinal)
	require.NoError(t, err)
	assert.Equal(t, uint64(9), block.Header.Height)

	reqs := node.Requests("block")
	require.Len(t, reqs, 2)
	assert.NotEqual(t, reqs[0].ID, reqs[1].ID, "every attempt gets a fresh id")
}

func TestSend_OtherErrorsRaiseImmediately(t *testing.T) {
	node := testutil.NewFakeNode(t)
	node.Handle("broadcast_tx_commit", func(req testutil.RPCRequest) (any, *txerror.RPCError) {
		return nil, testutil.InvalidNonceError(1, 5)
	})

	_, err := newTestClient(t, node).Send(context.Background(), "broadcast_tx_commit", []any{"AA=="})
	assert.True(t, txerror.Is(err, txerror.KindInvalidNonce))
	assert.Equal(t, 1, node.Count("broadcast_tx_commit"))
}

func TestViewAccessKey(t *testing.T) {
	kp, err := domain.GenerateKeyPair()
	require.NoError(t, err)

	node := testutil.NewFakeNode(t)
	node.Handle("query", func(req testutil.RPCRequest) (any, *txerror.RPCError) {
		return testutil.AccessKeyResult(5), nil
	})

	view, err := newTestClient(t, node).ViewAccessKey(context.Background(), "alice.test", kp.PublicKey())
	require.NoError(t, err)
	assert.Equal(t, uint64(5), view.Nonce)
	assert.True(t, view.Permission.FullAccess())

	var params map[string]any
	require.NoError(t, json.Unmarshal(node.Requests("query")[0].Params, &params))
	assert.Equal(t, "view_access_key", params["request_type"])
	assert.Equal(t, "final", params["finality"])
	assert.Equal(t, "alice.test", params["account_id"])
	assert.Equal(t, kp.PublicKey().String(), params["public_key"])
}

func TestViewAccessKey_Missing(t *testing.T) {
	kp, err := domain.GenerateKeyPair()
	require.NoError(t, err)

	t.Run("structured cause", func(t *testing.T) {
		node := testutil.NewFakeNode(t)
		node.Handle("query", func(req testutil.RPCRequest) (any, *txerror.RPCError) {
			return nil, testutil.UnknownAccessKeyError()
		})
		_, err := newTestClient(t, node).ViewAccessKey(context.Background(), "alice.test", kp.PublicKey())
		assert.True(t, txerror.Is(err, txerror.KindAccessKeyDoesNotExist), "got %v", err)
	})

	t.Run("inline result error", func(t *testing.T) {
		node := testutil.NewFakeNode(t)
		node.Handle("query", func(req testutil.RPCRequest) (any, *txerror.RPCError) {
			return map[string]any{
				"error":        "access key " + kp.PublicKey().String() + " does not exist while viewing",
				"logs":         []string{},
				"block_height": 1,
			}, nil
		})
		_, err := newTestClient(t, node).ViewAccessKey(context.Background(), "alice.test", kp.PublicKey())
		assert.True(t, txerror.Is(err, txerror.KindAccessKeyDoesNotExist), "got %v", err)
	})
}

func TestTxStatus(t *testing.T) {
	node := testutil.NewFakeNode(t)
	node.Handle("tx", func(req testutil.RPCRequest) (any, *txerror.RPCError) {
		return testutil.Outcome("HASH", "", testutil.Receipt{ID: "r0", Executor: "bob.test", Logs: []string{"hi"}}), nil
	})

	out, err := newTestClient(t, node).TxStatus(context.Background(), "HASH", "alice.test")
	require.NoError(t, err)
	assert.Equal(t, "HASH", out.Transaction.Hash)
	require.Len(t, out.ReceiptsOutcome, 1)
	assert.Equal(t, []string{"hi"}, out.ReceiptsOutcome[0].Outcome.Logs)
	assert.False(t, out.Status.Failed())
	assert.NotEmpty(t, out.Raw)
	assert.JSONEq(t, `["HASH","alice.test"]`, string(node.Requests("tx")[0].Params))
}

func signedTransfer(t *testing.T) *domain.SignedTransaction {
	t.Helper()
	kp, err := domain.GenerateKeyPair()
	require.NoError(t, err)
	tx := domain.Transaction{
		SignerID:   "alice.test",
		PublicKey:  kp.PublicKey(),
		Nonce:      7,
		ReceiverID: "bob.test",
		Actions:    []domain.Action{domain.Transfer{Deposit: big.NewInt(1)}},
	}
	msg, hash, err := encoding.HashTransaction(&tx)
	require.NoError(t, err)
	return &domain.SignedTransaction{Transaction: tx, Signature: kp.Sign(msg), Hash: hash}
}

func TestSendTransactionAsync(t *testing.T) {
	st := signedTransfer(t)
	node := testutil.NewFakeNode(t)
	node.Handle("broadcast_tx_async", func(req testutil.RPCRequest) (any, *txerror.RPCError) {
		return st.Hash.String(), nil
	})

	hash, err := newTestClient(t, node).SendTransactionAsync(context.Background(), st)
	require.NoError(t, err)
	assert.Equal(t, st.Hash.String(), hash)

	reqs := node.Requests("broadcast_tx_async")
	require.Len(t, reqs, 1)
	assert.Equal(t, "2.0", reqs[0].JSONRPC)

	var params []string
	require.NoError(t, json.Unmarshal(reqs[0].Params, &params))
	require.Len(t, params, 1)
	want, err := encoding.EncodeSignedTransaction(st)
	require.NoError(t, err)
	assert.Equal(t, base64.StdEncoding.EncodeToString(want), params[0])
	assert.Zero(t, node.Count("broadcast_tx_commit"))
}

func TestSendTransactionAsync_BadResult(t *testing.T) {
	node := testutil.NewFakeNode(t)
	node.Handle("broadcast_tx_async", func(req testutil.RPCRequest) (any, *txerror.RPCError) {
		return map[string]any{"unexpected": true}, nil
	})

	_, err := newTestClient(t, node).SendTransactionAsync(context.Background(), signedTransfer(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode transaction hash")
}

func TestProtocolConfig(t *testing.T) {
	node := testutil.NewFakeNode(t)
	node.Handle("EXPERIMENTAL_protocol_config", func(req testutil.RPCRequest) (any, *txerror.RPCError) {
		return map[string]any{"chain_id": "testnet", "protocol_version": 70, "epoch_length": 43200}, nil
	})

	cfg, err := newTestClient(t, node).ProtocolConfig(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "testnet", cfg.ChainID)
	assert.Equal(t, uint32(70), cfg.ProtocolVersion)
}
