package domain

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/vietddude/submitter/internal/core/txerror"
)

// OutcomeStatus is the terminal status reported to callers.
type OutcomeStatus string

const (
	OutcomeSuccess OutcomeStatus = "success"
	OutcomeFailure OutcomeStatus = "failure"
)

// Outcome is the result of a committed transaction.
type Outcome struct {
	TransactionHash string
	Status          OutcomeStatus
	SuccessValue    []byte
	Receipts        []ReceiptReport
	Raw             json.RawMessage
}

// ReceiptReport is a receipt that produced logs or failed.
type ReceiptReport struct {
	ReceiptID  string
	ExecutorID string
	Logs       []string
	Failure    *txerror.Error
}

// FinalExecutionOutcome is the node's view of a committed transaction.
type FinalExecutionOutcome struct {
	Status             ExecutionStatus          `json:"status"`
	Transaction        TransactionView          `json:"transaction"`
	TransactionOutcome ExecutionOutcomeWithID   `json:"transaction_outcome"`
	ReceiptsOutcome    []ExecutionOutcomeWithID `json:"receipts_outcome"`

	Raw json.RawMessage `json:"-"`
}

type TransactionView struct {
	Hash       string `json:"hash"`
	SignerID   string `json:"signer_id"`
	ReceiverID string `json:"receiver_id"`
	Nonce      uint64 `json:"nonce"`
}

type ExecutionOutcomeWithID struct {
	ID      string           `json:"id"`
	Outcome ExecutionOutcome `json:"outcome"`
}

type ExecutionOutcome struct {
	Logs       []string        `json:"logs"`
	ReceiptIDs []string        `json:"receipt_ids"`
	GasBurnt   uint64          `json:"gas_burnt"`
	ExecutorID string          `json:"executor_id"`
	Status     ExecutionStatus `json:"status"`
}

// ExecutionStatus decodes the tagged status union:
// "Unknown" | "NotStarted" | "Started" | {"SuccessValue": b64} |
// {"SuccessReceiptId": id} | {"Failure": {...}}.
type ExecutionStatus struct {
	State            string
	SuccessValue     *string
	SuccessReceiptID string
	Failure          json.RawMessage
}

// Failed reports whether the status carries a failure.
func (s ExecutionStatus) Failed() bool {
	return len(s.Failure) > 0
}

// Value returns the decoded SuccessValue.
func (s ExecutionStatus) Value() ([]byte, error) {
	if s.SuccessValue == nil || *s.SuccessValue == "" {
		return nil, nil
	}
	return base64.StdEncoding.DecodeString(*s.SuccessValue)
}

func (s *ExecutionStatus) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}
	if data[0] == '"' {
		return json.Unmarshal(data, &s.State)
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return fmt.Errorf("decode execution status: %w", err)
	}
	for k, v := range fields {
		switch k {
		case "SuccessValue":
			var val string
			if err := json.Unmarshal(v, &val); err != nil {
				return fmt.Errorf("decode SuccessValue: %w", err)
			}
			s.SuccessValue = &val
		case "SuccessReceiptId":
			if err := json.Unmarshal(v, &s.SuccessReceiptID); err != nil {
				return fmt.Errorf("decode SuccessReceiptId: %w", err)
			}
		case "Failure":
			s.Failure = append(json.RawMessage(nil), v...)
		}
		s.State = k
	}
	return nil
}

func (s ExecutionStatus) MarshalJSON() ([]byte, error) {
	switch {
	case s.Failed():
		return json.Marshal(map[string]json.RawMessage{"Failure": s.Failure})
	case s.SuccessValue != nil:
		return json.Marshal(map[string]string{"SuccessValue": *s.SuccessValue})
	case s.SuccessReceiptID != "":
		return json.Marshal(map[string]string{"SuccessReceiptId": s.SuccessReceiptID})
	default:
		return json.Marshal(s.State)
	}
}
