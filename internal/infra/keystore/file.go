package keystore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/vietddude/submitter/internal/core/domain"
)

// File stores one JSON file per account at <dir>/<network>/<account>.json.
type File struct {
	dir string
}

// NewFile creates a store rooted at dir.
func NewFile(dir string) *File {
	return &File{dir: dir}
}

func (f *File) path(networkID, accountID string) string {
	return filepath.Join(f.dir, networkID, accountID+".json")
}

func (f *File) SetKey(ctx context.Context, networkID, accountID string, kp *domain.KeyPair) error {
	data, err := encodeRecord(accountID, kp)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Join(f.dir, networkID), 0o700); err != nil {
		return fmt.Errorf("failed to create key directory: %w", err)
	}
	if err := os.WriteFile(f.path(networkID, accountID), data, 0o600); err != nil {
		return fmt.Errorf("failed to write key file: %w", err)
	}
	return nil
}

func (f *File) GetKey(ctx context.Context, networkID, accountID string) (*domain.KeyPair, error) {
	data, err := os.ReadFile(f.path(networkID, accountID))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read key file: %w", err)
	}
	return decodeRecord(data)
}

func (f *File) RemoveKey(ctx context.Context, networkID, accountID string) error {
	err := os.Remove(f.path(networkID, accountID))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to remove key file: %w", err)
	}
	return nil
}

func (f *File) GetAccounts(ctx context.Context, networkID string) ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(f.dir, networkID))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list keys: %w", err)
	}
	var accounts []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		accounts = append(accounts, strings.TrimSuffix(e.Name(), ".json"))
	}
	sort.Strings(accounts)
	return accounts, nil
}
