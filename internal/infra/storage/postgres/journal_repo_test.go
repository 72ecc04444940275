package postgres

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vietddude/submitter/internal/core/domain"
	"github.com/vietddude/submitter/internal/infra/storage"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	url := os.Getenv("POSTGRES_TEST_URL")
	if url == "" {
		t.Skip("POSTGRES_TEST_URL not set")
	}
	ctx := context.Background()
	db, err := NewDB(ctx, Config{URL: url})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, db.Migrate(ctx))
	return db
}

func TestJournalRepo(t *testing.T) {
	db := testDB(t)
	repo := NewJournalRepo(db)
	ctx := context.Background()

	account := "journal-" + uuid.NewString()[:8] + ".test"
	hash := uuid.NewString()
	base := time.Now().UTC().Truncate(time.Millisecond)

	first := &domain.Submission{
		ID:         uuid.New(),
		AccountID:  account,
		ReceiverID: "bob.test",
		TxHash:     hash,
		Nonce:      6,
		Status:     domain.SubmissionSuccess,
		Attempts:   1,
		Logs:       []string{"hello", "world"},
		CreatedAt:  base,
	}
	second := &domain.Submission{
		ID:         uuid.New(),
		AccountID:  account,
		ReceiverID: "bob.test",
		Nonce:      7,
		Status:     domain.SubmissionFailure,
		ErrorKind:  "RetriesExceeded",
		Message:    "nonce retries exceeded",
		Attempts:   12,
		CreatedAt:  base.Add(time.Second),
	}
	require.NoError(t, repo.Record(ctx, first))
	require.NoError(t, repo.Record(ctx, second))

	got, err := repo.GetByTxHash(ctx, hash)
	require.NoError(t, err)
	assert.Equal(t, first.ID, got.ID)
	assert.Equal(t, []string{"hello", "world"}, got.Logs)
	assert.Equal(t, uint64(6), got.Nonce)

	_, err = repo.GetByTxHash(ctx, "no-such-hash-"+uuid.NewString())
	assert.ErrorIs(t, err, storage.ErrSubmissionNotFound)

	list, err := repo.ListByAccount(ctx, account, 10)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID)
	assert.Equal(t, "RetriesExceeded", list[0].ErrorKind)
	assert.Empty(t, list[0].Logs)
}
