package submit

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/vietddude/submitter/internal/core/domain"
	"github.com/vietddude/submitter/internal/core/txerror"
)

// report turns a committed outcome into the caller's Outcome. A failed
// top-level status is returned as an error instead.
func (a *Account) report(log *slog.Logger, out *domain.FinalExecutionOutcome, signedHash string) (*domain.Outcome, error) {
	hash := out.Transaction.Hash
	if hash == "" {
		hash = signedHash
	}

	receipts := flattenReceipts(out)
	for _, r := range receipts {
		for _, line := range r.Logs {
			log.Info("Receipt log", "receipt_id", r.ReceiptID, "executor", r.ExecutorID, "log", line)
		}
		if r.Failure != nil {
			log.Warn("Receipt failed", "receipt_id", r.ReceiptID, "executor", r.ExecutorID, "error", r.Failure.Error())
		}
	}

	if out.Status.Failed() {
		return nil, failureError(out.Status.Failure).WithTxHash(hash)
	}

	value, err := out.Status.Value()
	if err != nil {
		return nil, fmt.Errorf("failed to decode success value: %w", err)
	}

	return &domain.Outcome{
		TransactionHash: hash,
		Status:          domain.OutcomeSuccess,
		SuccessValue:    value,
		Receipts:        receipts,
		Raw:             out.Raw,
	}, nil
}

// flattenReceipts collects outcomes that logged something or failed, the
// transaction outcome first and then the receipts in node order.
func flattenReceipts(out *domain.FinalExecutionOutcome) []domain.ReceiptReport {
	all := make([]domain.ExecutionOutcomeWithID, 0, len(out.ReceiptsOutcome)+1)
	all = append(all, out.TransactionOutcome)
	all = append(all, out.ReceiptsOutcome...)

	reports := make([]domain.ReceiptReport, 0)
	for _, o := range all {
		failed := o.Outcome.Status.Failed()
		if len(o.Outcome.Logs) == 0 && !failed {
			continue
		}
		r := domain.ReceiptReport{
			ReceiptID:  o.ID,
			ExecutorID: o.Outcome.ExecutorID,
			Logs:       o.Outcome.Logs,
		}
		if failed {
			r.Failure = failureError(o.Outcome.Status.Failure)
		}
		reports = append(reports, r)
	}
	return reports
}

// failureError builds the error for a Failure status. The legacy
// {error_type, error_message} shape is taken field for field.
func failureError(raw json.RawMessage) *txerror.Error {
	var legacy struct {
		ErrorType    *string `json:"error_type"`
		ErrorMessage *string `json:"error_message"`
	}
	if bytes.HasPrefix(bytes.TrimSpace(raw), []byte("{")) &&
		json.Unmarshal(raw, &legacy) == nil &&
		legacy.ErrorType != nil && legacy.ErrorMessage != nil {
		return txerror.Legacy(*legacy.ErrorType, *legacy.ErrorMessage)
	}
	return txerror.Classify(raw)
}
