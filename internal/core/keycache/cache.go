// Package keycache keeps the last known state of each access key used for
// signing. Once an entry exists it is the only source of nonces for its key;
// stale entries are dropped on rejection rather than refreshed on a timer.
package keycache

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/vietddude/submitter/internal/core/domain"
	"github.com/vietddude/submitter/internal/core/txerror"
	"github.com/vietddude/submitter/internal/metrics"
)

// ErrNotFound means there is no usable key: the signer has none for the
// account or the network does not know it.
var ErrNotFound = errors.New("access key not found")

// Fetcher reads access key state from the network.
type Fetcher interface {
	ViewAccessKey(ctx context.Context, accountID string, pk domain.PublicKey) (*domain.AccessKeyView, error)
}

// KeySource supplies the public key an account signs with.
type KeySource interface {
	GetPublicKey(ctx context.Context, accountID, networkID string) (domain.PublicKey, bool, error)
}

// Entry is the cached state of one access key. Its nonce only moves forward.
type Entry struct {
	AccountID string
	PublicKey domain.PublicKey

	mu        sync.Mutex
	accessKey domain.AccessKey
}

// NextNonce increments the nonce in place and returns the new value. Two
// callers never receive the same value from one entry.
func (e *Entry) NextNonce() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.accessKey.Nonce++
	return e.accessKey.Nonce
}

// AccessKey returns a snapshot of the cached state.
func (e *Entry) AccessKey() domain.AccessKey {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.accessKey
}

type cacheKey struct {
	accountID string
	publicKey domain.PublicKey
}

// Cache maps (account, public key) to an Entry.
type Cache struct {
	fetcher Fetcher
	logger  *slog.Logger

	mu      sync.Mutex
	entries map[cacheKey]*Entry
}

// New creates an empty cache backed by fetcher.
func New(fetcher Fetcher, logger *slog.Logger) *Cache {
	if logger == nil {
		logger = slog.Default()
	}
	return &Cache{
		fetcher: fetcher,
		logger:  logger,
		entries: make(map[cacheKey]*Entry),
	}
}

// Resolve returns the entry for the account's signing key, querying the
// network on a miss. If another resolution stored an entry while this one
// was waiting on the network, the stored entry wins and the fresh response
// is dropped, so a key never has two nonce lineages.
func (c *Cache) Resolve(ctx context.Context, accountID string, signer KeySource, networkID string) (*Entry, error) {
	pk, ok, err := signer.GetPublicKey(ctx, accountID, networkID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotFound
	}

	k := cacheKey{accountID: accountID, publicKey: pk}
	if e, ok := c.lookup(k); ok {
		return e, nil
	}

	view, err := c.fetcher.ViewAccessKey(ctx, accountID, pk)
	if err != nil {
		if txerror.Is(err, txerror.KindAccessKeyDoesNotExist) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if existing, ok := c.entries[k]; ok {
		c.logger.Debug("Discarding access key response, entry already cached",
			"account", accountID,
			"public_key", pk.String(),
			"fetched_nonce", view.Nonce,
		)
		return existing, nil
	}

	e := &Entry{AccountID: accountID, PublicKey: pk, accessKey: view.AccessKey}
	c.entries[k] = e
	metrics.AccessKeyCacheSize.Set(float64(len(c.entries)))
	return e, nil
}

// Get returns the cached entry without touching the network.
func (c *Cache) Get(accountID string, pk domain.PublicKey) (*Entry, bool) {
	return c.lookup(cacheKey{accountID: accountID, publicKey: pk})
}

// Invalidate drops the entry for the key. The next Resolve refetches it.
func (c *Cache) Invalidate(accountID string, pk domain.PublicKey) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.entries, cacheKey{accountID: accountID, publicKey: pk})
	metrics.AccessKeyInvalidations.Inc()
	metrics.AccessKeyCacheSize.Set(float64(len(c.entries)))
}

// Len returns the number of cached keys.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *Cache) lookup(k cacheKey) (*Entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[k]
	return e, ok
}
