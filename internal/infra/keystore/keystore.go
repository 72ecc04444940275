// Package keystore stores signing keys per network and account.
package keystore

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/vietddude/submitter/internal/core/domain"
)

// KeyStore persists key pairs. GetKey returns nil, nil when no key exists.
type KeyStore interface {
	SetKey(ctx context.Context, networkID, accountID string, kp *domain.KeyPair) error
	GetKey(ctx context.Context, networkID, accountID string) (*domain.KeyPair, error)
	RemoveKey(ctx context.Context, networkID, accountID string) error
	GetAccounts(ctx context.Context, networkID string) ([]string, error)
}

// record is the serialized form shared by the file and redis stores.
type record struct {
	AccountID  string `json:"account_id"`
	PublicKey  string `json:"public_key"`
	PrivateKey string `json:"private_key"`
}

func encodeRecord(accountID string, kp *domain.KeyPair) ([]byte, error) {
	return json.MarshalIndent(record{
		AccountID:  accountID,
		PublicKey:  kp.PublicKey().String(),
		PrivateKey: kp.String(),
	}, "", "  ")
}

func decodeRecord(data []byte) (*domain.KeyPair, error) {
	var r record
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("failed to decode key record: %w", err)
	}
	kp, err := domain.ParseKeyPair(r.PrivateKey)
	if err != nil {
		return nil, fmt.Errorf("invalid private key for %s: %w", r.AccountID, err)
	}
	if r.PublicKey != "" && r.PublicKey != kp.PublicKey().String() {
		return nil, fmt.Errorf("public key mismatch for %s", r.AccountID)
	}
	return kp, nil
}
