package keycache

import (
	"context"
	"errors"
	"sort"
	"sync"
	"sync/atomic"
	"testing"

	promtestutil "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vietddude/submitter/internal/core/domain"
	"github.com/vietddude/submitter/internal/core/txerror"
	"github.com/vietddude/submitter/internal/metrics"
)

type staticKeys struct {
	pk domain.PublicKey
	ok bool
}

func (s staticKeys) GetPublicKey(ctx context.Context, accountID, networkID string) (domain.PublicKey, bool, error) {
	return s.pk, s.ok, nil
}

type fakeFetcher struct {
	calls atomic.Int32
	nonce uint64
	err   error
	// gate, when set, is waited on before answering.
	gate chan struct{}
	// arrived is signalled when a call enters.
	arrived chan struct{}
}

func (f *fakeFetcher) ViewAccessKey(ctx context.Context, accountID string, pk domain.PublicKey) (*domain.AccessKeyView, error) {
	n := f.calls.Add(1)
	if f.arrived != nil {
		f.arrived <- struct{}{}
	}
	if f.gate != nil {
		<-f.gate
	}
	if f.err != nil {
		return nil, f.err
	}
	// Each response carries a different nonce so lineages are detectable.
	return &domain.AccessKeyView{AccessKey: domain.AccessKey{Nonce: f.nonce + uint64(n)*100}}, nil
}

func testKey(t *testing.T) domain.PublicKey {
	t.Helper()
	kp, err := domain.GenerateKeyPair()
	require.NoError(t, err)
	return kp.PublicKey()
}

func TestResolve_CachesEntry(t *testing.T) {
	f := &fakeFetcher{nonce: 5}
	c := New(f, nil)
	keys := staticKeys{pk: testKey(t), ok: true}

	e1, err := c.Resolve(context.Background(), "alice.test", keys, "testnet")
	require.NoError(t, err)
	e2, err := c.Resolve(context.Background(), "alice.test", keys, "testnet")
	require.NoError(t, err)

	assert.Same(t, e1, e2)
	assert.Equal(t, int32(1), f.calls.Load())
	assert.Equal(t, 1, c.Len())
}

func TestResolve_NotFound(t *testing.T) {
	t.Run("signer has no key", func(t *testing.T) {
		f := &fakeFetcher{}
		c := New(f, nil)
		_, err := c.Resolve(context.Background(), "alice.test", staticKeys{}, "testnet")
		assert.ErrorIs(t, err, ErrNotFound)
		assert.Zero(t, f.calls.Load())
	})

	t.Run("network has no key", func(t *testing.T) {
		f := &fakeFetcher{err: txerror.New(txerror.KindAccessKeyDoesNotExist, "gone")}
		c := New(f, nil)
		_, err := c.Resolve(context.Background(), "alice.test", staticKeys{pk: testKey(t), ok: true}, "testnet")
		assert.ErrorIs(t, err, ErrNotFound)
		assert.Zero(t, c.Len())
	})

	t.Run("other failures propagate", func(t *testing.T) {
		boom := errors.New("boom")
		c := New(&fakeFetcher{err: boom}, nil)
		_, err := c.Resolve(context.Background(), "alice.test", staticKeys{pk: testKey(t), ok: true}, "testnet")
		assert.ErrorIs(t, err, boom)
	})
}

func TestResolve_ConcurrentFirstWriterWins(t *testing.T) {
	f := &fakeFetcher{
		nonce:   5,
		gate:    make(chan struct{}),
		arrived: make(chan struct{}, 2),
	}
	c := New(f, nil)
	keys := staticKeys{pk: testKey(t), ok: true}

	var wg sync.WaitGroup
	results := make([]*Entry, 2)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			e, err := c.Resolve(context.Background(), "alice.test", keys, "testnet")
			assert.NoError(t, err)
			results[i] = e
		}(i)
	}

	// Both resolutions are in flight before either response returns.
	<-f.arrived
	<-f.arrived
	close(f.gate)
	wg.Wait()

	assert.Equal(t, int32(2), f.calls.Load())
	assert.Equal(t, 1, c.Len())
	assert.Same(t, results[0], results[1])

	a := results[0].NextNonce()
	b := results[1].NextNonce()
	assert.Equal(t, a+1, b, "both callers share one nonce lineage")
}

func TestEntry_NextNonceUnique(t *testing.T) {
	f := &fakeFetcher{nonce: 0}
	c := New(f, nil)
	e, err := c.Resolve(context.Background(), "alice.test", staticKeys{pk: testKey(t), ok: true}, "testnet")
	require.NoError(t, err)
	start := e.AccessKey().Nonce

	const n = 200
	var mu sync.Mutex
	var wg sync.WaitGroup
	seen := make([]uint64, 0, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v := e.NextNonce()
			mu.Lock()
			seen = append(seen, v)
			mu.Unlock()
		}()
	}
	wg.Wait()

	sort.Slice(seen, func(i, j int) bool { return seen[i] < seen[j] })
	for i, v := range seen {
		assert.Equal(t, start+uint64(i)+1, v)
	}
}

func TestInvalidate(t *testing.T) {
	f := &fakeFetcher{nonce: 5}
	c := New(f, nil)
	keys := staticKeys{pk: testKey(t), ok: true}

	e1, err := c.Resolve(context.Background(), "alice.test", keys, "testnet")
	require.NoError(t, err)

	before := promtestutil.ToFloat64(metrics.AccessKeyInvalidations)
	c.Invalidate("alice.test", keys.pk)
	assert.Equal(t, before+1, promtestutil.ToFloat64(metrics.AccessKeyInvalidations))
	_, ok := c.Get("alice.test", keys.pk)
	assert.False(t, ok)

	e2, err := c.Resolve(context.Background(), "alice.test", keys, "testnet")
	require.NoError(t, err)
	assert.NotSame(t, e1, e2)
	assert.Equal(t, int32(2), f.calls.Load())
}

func TestResolve_KeysArePartitioned(t *testing.T) {
	f := &fakeFetcher{nonce: 5}
	c := New(f, nil)

	_, err := c.Resolve(context.Background(), "alice.test", staticKeys{pk: testKey(t), ok: true}, "testnet")
	require.NoError(t, err)
	_, err = c.Resolve(context.Background(), "alice.test", staticKeys{pk: testKey(t), ok: true}, "testnet")
	require.NoError(t, err)

	assert.Equal(t, 2, c.Len())
}
