// Package signer produces signatures for transaction hashes.
package signer

import (
	"context"
	"crypto/sha256"
	"fmt"

	"github.com/vietddude/submitter/internal/core/domain"
	"github.com/vietddude/submitter/internal/infra/keystore"
)

// Signer exposes an account's public key and signs on its behalf.
type Signer interface {
	GetPublicKey(ctx context.Context, accountID, networkID string) (domain.PublicKey, bool, error)
	SignMessage(ctx context.Context, message []byte, accountID, networkID string) (domain.Signature, error)
}

// InMemorySigner signs with keys held by a KeyStore.
type InMemorySigner struct {
	keys keystore.KeyStore
}

// NewInMemorySigner wraps ks.
func NewInMemorySigner(ks keystore.KeyStore) *InMemorySigner {
	return &InMemorySigner{keys: ks}
}

// GetPublicKey reports false when the store has no key for the account.
func (s *InMemorySigner) GetPublicKey(ctx context.Context, accountID, networkID string) (domain.PublicKey, bool, error) {
	kp, err := s.keys.GetKey(ctx, networkID, accountID)
	if err != nil {
		return domain.PublicKey{}, false, err
	}
	if kp == nil {
		return domain.PublicKey{}, false, nil
	}
	return kp.PublicKey(), true, nil
}

// SignMessage signs the sha256 digest of message.
func (s *InMemorySigner) SignMessage(ctx context.Context, message []byte, accountID, networkID string) (domain.Signature, error) {
	kp, err := s.keys.GetKey(ctx, networkID, accountID)
	if err != nil {
		return domain.Signature{}, err
	}
	if kp == nil {
		return domain.Signature{}, fmt.Errorf("no key for %s on %s", accountID, networkID)
	}
	digest := sha256.Sum256(message)
	return kp.Sign(digest[:]), nil
}
