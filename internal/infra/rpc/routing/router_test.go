package routing

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vietddude/submitter/internal/core/txerror"
)

type fakeCaller struct {
	name  string
	err   error
	calls atomic.Int32
}

func (f *fakeCaller) GetName() string { return f.name }

func (f *fakeCaller) Call(ctx context.Context, method string, params any) (json.RawMessage, error) {
	f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	return json.RawMessage(`"` + f.name + `"`), nil
}

func TestRouter_RoundRobin(t *testing.T) {
	a := &fakeCaller{name: "a"}
	b := &fakeCaller{name: "b"}
	r := NewRouter(0, a, b)

	for i := 0; i < 4; i++ {
		_, err := r.Call(context.Background(), "block", nil)
		require.NoError(t, err)
	}
	assert.Equal(t, int32(2), a.calls.Load())
	assert.Equal(t, int32(2), b.calls.Load())
	assert.Equal(t, "a,b", r.GetName())
}

func TestRouter_CircuitOpensOnTimeouts(t *testing.T) {
	bad := &fakeCaller{name: "bad", err: txerror.New(txerror.KindTimeout, "Timeout")}
	good := &fakeCaller{name: "good"}
	r := NewRouter(time.Hour, bad, good)

	for i := 0; i < 2*circuitThreshold; i++ {
		_, _ = r.Call(context.Background(), "block", nil)
	}
	require.True(t, r.CircuitOpen("bad"))

	before := bad.calls.Load()
	for i := 0; i < 5; i++ {
		res, err := r.Call(context.Background(), "block", nil)
		require.NoError(t, err)
		assert.Equal(t, `"good"`, string(res))
	}
	assert.Equal(t, before, bad.calls.Load(), "open circuit is skipped")
}

func TestRouter_TypedErrorsKeepCircuitClosed(t *testing.T) {
	p := &fakeCaller{name: "p", err: txerror.New(txerror.KindInvalidNonce, "nonce")}
	r := NewRouter(0, p)

	for i := 0; i < 2*circuitThreshold; i++ {
		_, err := r.Call(context.Background(), "broadcast_tx_commit", nil)
		assert.True(t, txerror.Is(err, txerror.KindInvalidNonce))
	}
	assert.False(t, r.CircuitOpen("p"))
}

func TestRouter_AllOpenFallsBack(t *testing.T) {
	a := &fakeCaller{name: "a", err: txerror.New(txerror.KindTimeout, "Timeout")}
	r := NewRouter(time.Hour, a)

	for i := 0; i < circuitThreshold+2; i++ {
		_, err := r.Call(context.Background(), "block", nil)
		assert.True(t, txerror.Is(err, txerror.KindTimeout))
	}
	assert.Equal(t, int32(circuitThreshold+2), a.calls.Load())
}

func TestRouter_NoProviders(t *testing.T) {
	_, err := NewRouter(0).Call(context.Background(), "block", nil)
	assert.Error(t, err)
}
