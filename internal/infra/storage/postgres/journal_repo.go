package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/vietddude/submitter/internal/core/domain"
	"github.com/vietddude/submitter/internal/infra/storage"
)

// JournalRepo implements storage.JournalRepository using PostgreSQL.
type JournalRepo struct {
	db *DB
}

// NewJournalRepo creates a new PostgreSQL journal repository.
func NewJournalRepo(db *DB) *JournalRepo {
	return &JournalRepo{db: db}
}

type submissionRow struct {
	ID         uuid.UUID      `db:"id"`
	AccountID  string         `db:"account_id"`
	ReceiverID string         `db:"receiver_id"`
	TxHash     string         `db:"tx_hash"`
	Nonce      int64          `db:"nonce"`
	Status     string         `db:"status"`
	ErrorKind  string         `db:"error_kind"`
	Message    string         `db:"message"`
	Attempts   int            `db:"attempts"`
	Logs       pq.StringArray `db:"logs"`
	CreatedAt  time.Time      `db:"created_at"`
}

func toRow(s *domain.Submission) submissionRow {
	logs := pq.StringArray(s.Logs)
	if logs == nil {
		logs = pq.StringArray{}
	}
	return submissionRow{
		ID:         s.ID,
		AccountID:  s.AccountID,
		ReceiverID: s.ReceiverID,
		TxHash:     s.TxHash,
		Nonce:      int64(s.Nonce),
		Status:     string(s.Status),
		ErrorKind:  s.ErrorKind,
		Message:    s.Message,
		Attempts:   s.Attempts,
		Logs:       logs,
		CreatedAt:  s.CreatedAt,
	}
}

func (r *submissionRow) toDomain() *domain.Submission {
	return &domain.Submission{
		ID:         r.ID,
		AccountID:  r.AccountID,
		ReceiverID: r.ReceiverID,
		TxHash:     r.TxHash,
		Nonce:      uint64(r.Nonce),
		Status:     domain.SubmissionStatus(r.Status),
		ErrorKind:  r.ErrorKind,
		Message:    r.Message,
		Attempts:   r.Attempts,
		Logs:       []string(r.Logs),
		CreatedAt:  r.CreatedAt,
	}
}

const selectSubmission = `
	SELECT id, account_id, receiver_id, tx_hash, nonce, status, error_kind, message, attempts, logs, created_at
	FROM submissions
`

// Record inserts a submission.
func (r *JournalRepo) Record(ctx context.Context, s *domain.Submission) error {
	query := `
		INSERT INTO submissions (
			id, account_id, receiver_id, tx_hash, nonce, status, error_kind, message, attempts, logs, created_at
		) VALUES (
			:id, :account_id, :receiver_id, :tx_hash, :nonce, :status, :error_kind, :message, :attempts, :logs, :created_at
		)
	`
	if _, err := r.db.NamedExecContext(ctx, query, toRow(s)); err != nil {
		return fmt.Errorf("failed to record submission: %w", err)
	}
	return nil
}

// GetByTxHash returns the latest submission for a transaction hash.
func (r *JournalRepo) GetByTxHash(ctx context.Context, txHash string) (*domain.Submission, error) {
	var row submissionRow
	err := r.db.GetContext(ctx, &row, selectSubmission+`
		WHERE tx_hash = $1
		ORDER BY created_at DESC
		LIMIT 1
	`, txHash)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrSubmissionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get submission: %w", err)
	}
	return row.toDomain(), nil
}

// ListByAccount returns the newest submissions of an account first.
func (r *JournalRepo) ListByAccount(ctx context.Context, accountID string, limit int) ([]*domain.Submission, error) {
	if limit <= 0 {
		limit = 100
	}
	var rows []submissionRow
	err := r.db.SelectContext(ctx, &rows, selectSubmission+`
		WHERE account_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, accountID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list submissions: %w", err)
	}

	out := make([]*domain.Submission, len(rows))
	for i := range rows {
		out[i] = rows[i].toDomain()
	}
	return out, nil
}
