package memory

import (
	"context"
	"sync"

	"github.com/vietddude/submitter/internal/core/domain"
	"github.com/vietddude/submitter/internal/infra/storage"
)

// JournalRepo keeps submissions in memory, in insertion order.
type JournalRepo struct {
	mu      sync.RWMutex
	records []*domain.Submission
}

func NewJournalRepo() *JournalRepo {
	return &JournalRepo{}
}

func (r *JournalRepo) Record(ctx context.Context, s *domain.Submission) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := *s
	c.Logs = append([]string(nil), s.Logs...)
	r.records = append(r.records, &c)
	return nil
}

func (r *JournalRepo) GetByTxHash(ctx context.Context, txHash string) (*domain.Submission, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for i := len(r.records) - 1; i >= 0; i-- {
		if r.records[i].TxHash == txHash {
			c := *r.records[i]
			return &c, nil
		}
	}
	return nil, storage.ErrSubmissionNotFound
}

func (r *JournalRepo) ListByAccount(ctx context.Context, accountID string, limit int) ([]*domain.Submission, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*domain.Submission
	for i := len(r.records) - 1; i >= 0; i-- {
		if r.records[i].AccountID != accountID {
			continue
		}
		c := *r.records[i]
		out = append(out, &c)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

// Len returns the number of records.
func (r *JournalRepo) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.records)
}
