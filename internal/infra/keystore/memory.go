package keystore

import (
	"context"
	"sort"
	"sync"

	"github.com/vietddude/submitter/internal/core/domain"
)

// Memory keeps keys in process memory.
type Memory struct {
	mu   sync.RWMutex
	keys map[string]map[string]*domain.KeyPair
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{keys: make(map[string]map[string]*domain.KeyPair)}
}

func (m *Memory) SetKey(ctx context.Context, networkID, accountID string, kp *domain.KeyPair) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.keys[networkID] == nil {
		m.keys[networkID] = make(map[string]*domain.KeyPair)
	}
	m.keys[networkID][accountID] = kp
	return nil
}

func (m *Memory) GetKey(ctx context.Context, networkID, accountID string) (*domain.KeyPair, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.keys[networkID][accountID], nil
}

func (m *Memory) RemoveKey(ctx context.Context, networkID, accountID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.keys[networkID], accountID)
	return nil
}

func (m *Memory) GetAccounts(ctx context.Context, networkID string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	accounts := make([]string, 0, len(m.keys[networkID]))
	for id := range m.keys[networkID] {
		accounts = append(accounts, id)
	}
	sort.Strings(accounts)
	return accounts, nil
}
