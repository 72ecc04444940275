package domain

import (
	"fmt"

	"github.com/mr-tron/base58"
)

// CryptoHash is a sha256 digest shown as base58.
type CryptoHash [32]byte

// ParseCryptoHash parses a base58 hash.
func ParseCryptoHash(s string) (CryptoHash, error) {
	var h CryptoHash
	data, err := base58.Decode(s)
	if err != nil {
		return h, fmt.Errorf("invalid base58 hash: %w", err)
	}
	if len(data) != len(h) {
		return h, fmt.Errorf("invalid hash length %d", len(data))
	}
	copy(h[:], data)
	return h, nil
}

func (h CryptoHash) String() string {
	return base58.Encode(h[:])
}

func (h CryptoHash) MarshalText() ([]byte, error) {
	return []byte(h.String()), nil
}

func (h *CryptoHash) UnmarshalText(text []byte) error {
	v, err := ParseCryptoHash(string(text))
	if err != nil {
		return err
	}
	*h = v
	return nil
}

// Transaction is the unsigned body. It is rebuilt on every attempt.
type Transaction struct {
	SignerID   string
	PublicKey  PublicKey
	Nonce      uint64
	ReceiverID string
	BlockHash  CryptoHash
	Actions    []Action
}

// SignedTransaction is a transaction with its signature and hash.
type SignedTransaction struct {
	Transaction Transaction
	Signature   Signature
	Hash        CryptoHash
}

// SubmitRequest is what a caller asks the engine to send.
type SubmitRequest struct {
	ReceiverID string
	Actions    []Action

	// Optional wallet metadata, passed through to the journal.
	WalletMeta        string
	WalletCallbackURL string
}

// BlockHeader is the subset of a block used as a transaction reference.
type BlockHeader struct {
	Height uint64     `json:"height"`
	Hash   CryptoHash `json:"hash"`
}

// BlockView is the node's block response.
type BlockView struct {
	Author string      `json:"author"`
	Header BlockHeader `json:"header"`
}

// Finality selects which block the node answers from.
type Finality string

const (
	FinalityFinal      Finality = "final"
	FinalityOptimistic Finality = "optimistic"
)

// ProtocolConfig is the subset of protocol parameters the client reads.
type ProtocolConfig struct {
	ChainID             string `json:"chain_id"`
	ProtocolVersion     uint32 `json:"protocol_version"`
	GenesisHeight       uint64 `json:"genesis_height"`
	EpochLength         uint64 `json:"epoch_length"`
	TransactionValidity uint64 `json:"transaction_validity_period"`
}
