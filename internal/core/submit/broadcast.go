package submit

import (
	"context"

	"github.com/vietddude/submitter/internal/core/domain"
	"github.com/vietddude/submitter/internal/core/txerror"
	"github.com/vietddude/submitter/internal/metrics"
)

// Broadcast signs the request and hands it to the node without waiting for
// execution. It returns the transaction hash. Nonce and expiry problems only
// surface later through the transaction status, so there is no retry loop
// here; the RPC channel still retries transient node failures.
func (a *Account) Broadcast(ctx context.Context, req domain.SubmitRequest) (string, error) {
	e, err := a.resolve(ctx)
	if err != nil {
		return "", err
	}
	signed, err := a.sign(ctx, e, req)
	if err != nil {
		return "", err
	}
	hash := signed.Hash.String()

	got, err := a.node.SendTransactionAsync(ctx, signed)
	if err != nil {
		kind := txerror.KindOf(err)
		if kind == "" {
			kind = txerror.KindUntyped
		}
		metrics.SubmissionsTotal.WithLabelValues(string(domain.SubmissionFailure), string(kind)).Inc()
		if te, ok := txerror.As(err); ok {
			return "", te.WithTxHash(hash)
		}
		return "", err
	}
	if got != hash {
		a.logger.Warn("Node returned a different transaction hash",
			"account", a.cfg.AccountID,
			"expected", hash,
			"got", got,
		)
	}

	a.logger.Debug("Transaction broadcast",
		"account", a.cfg.AccountID,
		"receiver", req.ReceiverID,
		"nonce", signed.Transaction.Nonce,
		"tx_hash", got,
	)
	return got, nil
}
