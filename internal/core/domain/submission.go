package domain

import (
	"time"

	"github.com/google/uuid"
)

// SubmissionStatus is the terminal state of a submission.
type SubmissionStatus string

const (
	SubmissionSuccess SubmissionStatus = "success"
	SubmissionFailure SubmissionStatus = "failure"
)

// Submission is a journal entry for one SignAndSend call.
type Submission struct {
	ID         uuid.UUID        `json:"id"`
	AccountID  string           `json:"account_id"`
	ReceiverID string           `json:"receiver_id"`
	TxHash     string           `json:"tx_hash,omitempty"`
	Nonce      uint64           `json:"nonce"`
	Status     SubmissionStatus `json:"status"`
	ErrorKind  string           `json:"error_kind,omitempty"`
	Message    string           `json:"message,omitempty"`
	Attempts   int              `json:"attempts"`
	Logs       []string         `json:"logs,omitempty"`
	CreatedAt  time.Time        `json:"created_at"`
}
