package domain

import (
	"crypto/ed25519"
	"crypto/rand"
	"fmt"
	"strings"

	"github.com/mr-tron/base58"
)

// KeyType is the curve tag written in front of keys and signatures.
type KeyType uint8

const (
	KeyTypeED25519 KeyType = 0
)

func (t KeyType) String() string {
	switch t {
	case KeyTypeED25519:
		return "ed25519"
	default:
		return fmt.Sprintf("keytype(%d)", uint8(t))
	}
}

func parseKeyType(s string) (KeyType, error) {
	switch strings.ToLower(s) {
	case "ed25519":
		return KeyTypeED25519, nil
	default:
		return 0, fmt.Errorf("unsupported key type %q", s)
	}
}

// splitKey splits "<type>:<base58>" and decodes the payload. A bare base58
// string is read as ed25519.
func splitKey(s string) (KeyType, []byte, error) {
	typ := KeyTypeED25519
	payload := s
	if i := strings.IndexByte(s, ':'); i >= 0 {
		t, err := parseKeyType(s[:i])
		if err != nil {
			return 0, nil, err
		}
		typ = t
		payload = s[i+1:]
	}
	data, err := base58.Decode(payload)
	if err != nil {
		return 0, nil, fmt.Errorf("invalid base58 key: %w", err)
	}
	return typ, data, nil
}

// PublicKey identifies an access key.
type PublicKey struct {
	Type KeyType
	Data [ed25519.PublicKeySize]byte
}

// ParsePublicKey parses the "ed25519:<base58>" text form.
func ParsePublicKey(s string) (PublicKey, error) {
	typ, data, err := splitKey(s)
	if err != nil {
		return PublicKey{}, err
	}
	if len(data) != ed25519.PublicKeySize {
		return PublicKey{}, fmt.Errorf("invalid public key length %d", len(data))
	}
	pk := PublicKey{Type: typ}
	copy(pk.Data[:], data)
	return pk, nil
}

func (k PublicKey) String() string {
	return k.Type.String() + ":" + base58.Encode(k.Data[:])
}

func (k PublicKey) IsZero() bool {
	return k == PublicKey{}
}

func (k PublicKey) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *PublicKey) UnmarshalText(text []byte) error {
	pk, err := ParsePublicKey(string(text))
	if err != nil {
		return err
	}
	*k = pk
	return nil
}

// Verify checks sig over message.
func (k PublicKey) Verify(message []byte, sig Signature) bool {
	if k.Type != KeyTypeED25519 || sig.Type != KeyTypeED25519 {
		return false
	}
	return ed25519.Verify(ed25519.PublicKey(k.Data[:]), message, sig.Data)
}

// Signature is a typed signature.
type Signature struct {
	Type KeyType
	Data []byte
}

func (s Signature) String() string {
	return s.Type.String() + ":" + base58.Encode(s.Data)
}

// KeyPair is an ed25519 signing key.
type KeyPair struct {
	private ed25519.PrivateKey
}

// GenerateKeyPair creates a random key pair.
func GenerateKeyPair() (*KeyPair, error) {
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("generate ed25519 key: %w", err)
	}
	return &KeyPair{private: priv}, nil
}

// KeyPairFromSeed derives a key pair from a 32-byte seed.
func KeyPairFromSeed(seed []byte) (*KeyPair, error) {
	if len(seed) != ed25519.SeedSize {
		return nil, fmt.Errorf("invalid seed length %d", len(seed))
	}
	return &KeyPair{private: ed25519.NewKeyFromSeed(seed)}, nil
}

// ParseKeyPair parses "ed25519:<base58 secret key>". Both the 64-byte
// expanded form and a 32-byte seed are accepted.
func ParseKeyPair(s string) (*KeyPair, error) {
	typ, data, err := splitKey(s)
	if err != nil {
		return nil, err
	}
	if typ != KeyTypeED25519 {
		return nil, fmt.Errorf("unsupported key type %s", typ)
	}
	switch len(data) {
	case ed25519.PrivateKeySize:
		return &KeyPair{private: ed25519.PrivateKey(data)}, nil
	case ed25519.SeedSize:
		return KeyPairFromSeed(data)
	default:
		return nil, fmt.Errorf("invalid secret key length %d", len(data))
	}
}

// PublicKey returns the public half.
func (kp *KeyPair) PublicKey() PublicKey {
	pk := PublicKey{Type: KeyTypeED25519}
	copy(pk.Data[:], kp.private.Public().(ed25519.PublicKey))
	return pk
}

// Sign signs message as is.
func (kp *KeyPair) Sign(message []byte) Signature {
	return Signature{Type: KeyTypeED25519, Data: ed25519.Sign(kp.private, message)}
}

// String returns the secret key text form.
func (kp *KeyPair) String() string {
	return KeyTypeED25519.String() + ":" + base58.Encode(kp.private)
}
