package keystore

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vietddude/submitter/internal/core/domain"
)

func exerciseStore(t *testing.T, ks KeyStore) {
	t.Helper()
	ctx := context.Background()

	kp, err := domain.GenerateKeyPair()
	require.NoError(t, err)

	got, err := ks.GetKey(ctx, "testnet", "alice.test")
	require.NoError(t, err)
	assert.Nil(t, got)

	require.NoError(t, ks.SetKey(ctx, "testnet", "alice.test", kp))
	require.NoError(t, ks.SetKey(ctx, "testnet", "bob.test", kp))

	got, err = ks.GetKey(ctx, "testnet", "alice.test")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, kp.PublicKey(), got.PublicKey())

	other, err := ks.GetKey(ctx, "mainnet", "alice.test")
	require.NoError(t, err)
	assert.Nil(t, other, "networks are separate")

	accounts, err := ks.GetAccounts(ctx, "testnet")
	require.NoError(t, err)
	assert.Equal(t, []string{"alice.test", "bob.test"}, accounts)

	require.NoError(t, ks.RemoveKey(ctx, "testnet", "alice.test"))
	got, err = ks.GetKey(ctx, "testnet", "alice.test")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestMemory(t *testing.T) {
	exerciseStore(t, NewMemory())
}

func TestFile(t *testing.T) {
	dir := t.TempDir()
	exerciseStore(t, NewFile(dir))
}

func TestFile_RecordLayout(t *testing.T) {
	dir := t.TempDir()
	ks := NewFile(dir)
	kp, err := domain.GenerateKeyPair()
	require.NoError(t, err)
	require.NoError(t, ks.SetKey(context.Background(), "testnet", "alice.test", kp))

	data, err := os.ReadFile(filepath.Join(dir, "testnet", "alice.test.json"))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"account_id": "alice.test"`)
	assert.Contains(t, string(data), `"public_key": "`+kp.PublicKey().String()+`"`)
	assert.Contains(t, string(data), `"private_key": "`+kp.String()+`"`)
}

func TestFile_RejectsMismatchedPublicKey(t *testing.T) {
	dir := t.TempDir()
	a, err := domain.GenerateKeyPair()
	require.NoError(t, err)
	b, err := domain.GenerateKeyPair()
	require.NoError(t, err)

	body := `{"account_id":"alice.test","public_key":"` + b.PublicKey().String() + `","private_key":"` + a.String() + `"}`
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "testnet"), 0o700))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "testnet", "alice.test.json"), []byte(body), 0o600))

	_, err = NewFile(dir).GetKey(context.Background(), "testnet", "alice.test")
	assert.ErrorContains(t, err, "public key mismatch")
}

func TestRedis(t *testing.T) {
	addr := os.Getenv("REDIS_TEST_ADDRESS")
	if addr == "" {
		t.Skip("REDIS_TEST_ADDRESS not set")
	}
	ks, err := NewRedis(RedisConfig{URL: "redis://" + addr + "/15"})
	require.NoError(t, err)
	defer ks.Close()

	ctx := context.Background()
	for _, acc := range []string{"alice.test", "bob.test"} {
		require.NoError(t, ks.RemoveKey(ctx, "testnet", acc))
	}
	exerciseStore(t, ks)
}
