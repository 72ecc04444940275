package storage

import (
	"context"
	"errors"

	"github.com/vietddude/submitter/internal/core/domain"
)

// ErrSubmissionNotFound is returned when no journal entry matches.
var ErrSubmissionNotFound = errors.New("submission not found")

// JournalRepository records terminal submission results.
type JournalRepository interface {
	// Record stores a submission. Records are append-only.
	Record(ctx context.Context, s *domain.Submission) error

	// GetByTxHash returns the latest submission for a transaction hash.
	GetByTxHash(ctx context.Context, txHash string) (*domain.Submission, error)

	// ListByAccount returns the newest submissions of an account first.
	ListByAccount(ctx context.Context, accountID string, limit int) ([]*domain.Submission, error)
}
