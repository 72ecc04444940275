// Package submit signs and submits transactions for one account, healing
// stale nonces and expired block references on the way.
//
// A submission runs ResolveKey, Sign, Submit and Classify in a loop bounded by
// the backoff executor. InvalidNonce drops the cached key and starts again at
// ResolveKey. Expired keeps the key and starts again at Sign. Any other error
// is returned with the transaction hash attached.
package submit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/vietddude/submitter/internal/core/domain"
	"github.com/vietddude/submitter/internal/core/encoding"
	"github.com/vietddude/submitter/internal/core/keycache"
	"github.com/vietddude/submitter/internal/core/txerror"
	"github.com/vietddude/submitter/internal/infra/rpc/routing"
	"github.com/vietddude/submitter/internal/infra/signer"
	"github.com/vietddude/submitter/internal/infra/storage"
	"github.com/vietddude/submitter/internal/metrics"
)

// Node is the part of the RPC channel the engine needs.
type Node interface {
	Block(ctx context.Context, finality domain.Finality) (*domain.BlockView, error)
	SendTransaction(ctx context.Context, st *domain.SignedTransaction) (*domain.FinalExecutionOutcome, error)
	SendTransactionAsync(ctx context.Context, st *domain.SignedTransaction) (string, error)
}

// KeyResolver is satisfied by *keycache.Cache.
type KeyResolver interface {
	Resolve(ctx context.Context, accountID string, src keycache.KeySource, networkID string) (*keycache.Entry, error)
	Invalidate(accountID string, pk domain.PublicKey)
}

// Config identifies the account and bounds the nonce/expiry loop.
type Config struct {
	AccountID string
	NetworkID string
	Retry     routing.RetryConfig
}

// KeyState is the signing key of an account and its last used nonce.
type KeyState struct {
	PublicKey domain.PublicKey
	Nonce     uint64
}

// Account submits transactions signed by one account.
type Account struct {
	cfg     Config
	node    Node
	keys    KeyResolver
	signer  signer.Signer
	journal storage.JournalRepository
	logger  *slog.Logger
}

// Option configures an Account.
type Option func(*Account)

// WithJournal records every terminal result in repo.
func WithJournal(repo storage.JournalRepository) Option {
	return func(a *Account) { a.journal = repo }
}

// WithLogger sets the logger for retry warnings and receipt diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(a *Account) { a.logger = l }
}

// NewAccount creates an Account. A zero Retry config uses the defaults.
func NewAccount(cfg Config, node Node, keys KeyResolver, s signer.Signer, opts ...Option) *Account {
	if cfg.Retry.MaxAttempts == 0 {
		cfg.Retry = routing.DefaultRetryConfig
	}
	a := &Account{
		cfg:    cfg,
		node:   node,
		keys:   keys,
		signer: s,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// AccountID returns the signing account.
func (a *Account) AccountID() string {
	return a.cfg.AccountID
}

// ResolveKey returns the account's key state, or nil if no usable key
// exists.
func (a *Account) ResolveKey(ctx context.Context) (*KeyState, error) {
	e, err := a.keys.Resolve(ctx, a.cfg.AccountID, a.signer, a.cfg.NetworkID)
	if errors.Is(err, keycache.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &KeyState{PublicKey: e.PublicKey, Nonce: e.AccessKey().Nonce}, nil
}

// attemptState carries what the loop learned across attempts.
type attemptState struct {
	attempts int
	nonce    uint64
	hash     string
}

// SignAndSend signs the request, submits it and waits for the commit.
func (a *Account) SignAndSend(ctx context.Context, req domain.SubmitRequest) (*domain.Outcome, error) {
	id := uuid.New()
	log := a.logger.With(
		"submission_id", id.String(),
		"account", a.cfg.AccountID,
		"receiver", req.ReceiverID,
	)

	st := &attemptState{}
	result, err := routing.Retry(ctx, a.cfg.Retry, func(ctx context.Context, n int) (*domain.FinalExecutionOutcome, error) {
		st.attempts = n
		return a.attempt(ctx, log, st, req)
	})

	var exhausted *routing.ExhaustedError
	if errors.As(err, &exhausted) {
		err = txerror.New(txerror.KindRetriesExceeded,
			"nonce retries exceeded after %d attempts: %v",
			exhausted.Attempts, errors.Unwrap(exhausted.Last),
		).WithTxHash(st.hash)
	}

	var outcome *domain.Outcome
	if err == nil {
		outcome, err = a.report(log, result, st.hash)
	}

	a.finish(ctx, log, id, req, st, outcome, err)
	return outcome, err
}

func (a *Account) attempt(
	ctx context.Context,
	log *slog.Logger,
	st *attemptState,
	req domain.SubmitRequest,
) (*domain.FinalExecutionOutcome, error) {
	// Resolved on every attempt: another call may have invalidated the
	// entry since the last one. An unchanged entry is a cache hit.
	e, err := a.resolve(ctx)
	if err != nil {
		return nil, err
	}

	signed, err := a.sign(ctx, e, req)
	if err != nil {
		return nil, err
	}
	st.nonce = signed.Transaction.Nonce
	st.hash = signed.Hash.String()

	out, err := a.node.SendTransaction(ctx, signed)
	if err == nil {
		return out, nil
	}

	switch txerror.KindOf(err) {
	case txerror.KindInvalidNonce:
		log.Warn("Retrying transaction due to invalid nonce",
			"nonce", st.nonce,
			"tx_hash", st.hash,
			"attempt", st.attempts,
		)
		a.keys.Invalidate(a.cfg.AccountID, e.PublicKey)
		metrics.SubmissionRetriesTotal.WithLabelValues(string(txerror.KindInvalidNonce)).Inc()
		return nil, routing.Again(err)
	case txerror.KindExpired:
		log.Warn("Retrying transaction due to expired block hash",
			"tx_hash", st.hash,
			"attempt", st.attempts,
		)
		metrics.SubmissionRetriesTotal.WithLabelValues(string(txerror.KindExpired)).Inc()
		return nil, routing.Again(err)
	}

	if te, ok := txerror.As(err); ok {
		return nil, te.WithTxHash(st.hash)
	}
	return nil, err
}

func (a *Account) resolve(ctx context.Context) (*keycache.Entry, error) {
	e, err := a.keys.Resolve(ctx, a.cfg.AccountID, a.signer, a.cfg.NetworkID)
	if errors.Is(err, keycache.ErrNotFound) {
		return nil, txerror.New(txerror.KindKeyNotFound,
			"Can not sign transactions for account %s on network %s, no matching key pair exists for this account",
			a.cfg.AccountID, a.cfg.NetworkID)
	}
	return e, err
}

// sign takes the next nonce from the cache entry and signs against the
// latest final block.
func (a *Account) sign(ctx context.Context, e *keycache.Entry, req domain.SubmitRequest) (*domain.SignedTransaction, error) {
	nonce := e.NextNonce()

	block, err := a.node.Block(ctx, domain.FinalityFinal)
	if err != nil {
		return nil, err
	}

	tx := domain.Transaction{
		SignerID:   a.cfg.AccountID,
		PublicKey:  e.PublicKey,
		Nonce:      nonce,
		ReceiverID: req.ReceiverID,
		BlockHash:  block.Header.Hash,
		Actions:    req.Actions,
	}
	message, hash, err := encoding.HashTransaction(&tx)
	if err != nil {
		return nil, fmt.Errorf("failed to encode transaction: %w", err)
	}

	sig, err := a.signer.SignMessage(ctx, message, a.cfg.AccountID, a.cfg.NetworkID)
	if err != nil {
		return nil, fmt.Errorf("failed to sign transaction: %w", err)
	}

	return &domain.SignedTransaction{Transaction: tx, Signature: sig, Hash: hash}, nil
}

func (a *Account) finish(
	ctx context.Context,
	log *slog.Logger,
	id uuid.UUID,
	req domain.SubmitRequest,
	st *attemptState,
	outcome *domain.Outcome,
	err error,
) {
	rec := &domain.Submission{
		ID:         id,
		AccountID:  a.cfg.AccountID,
		ReceiverID: req.ReceiverID,
		TxHash:     st.hash,
		Nonce:      st.nonce,
		Attempts:   st.attempts,
		CreatedAt:  time.Now(),
	}

	if err != nil {
		kind := txerror.KindOf(err)
		if kind == "" {
			kind = txerror.KindUntyped
		}
		rec.Status = domain.SubmissionFailure
		rec.ErrorKind = string(kind)
		rec.Message = err.Error()
		metrics.SubmissionsTotal.WithLabelValues(string(rec.Status), rec.ErrorKind).Inc()
		log.Debug("Submission failed", "kind", kind, "attempts", st.attempts, "error", err)
	} else {
		rec.Status = domain.SubmissionSuccess
		rec.TxHash = outcome.TransactionHash
		for _, r := range outcome.Receipts {
			rec.Logs = append(rec.Logs, r.Logs...)
		}
		metrics.SubmissionsTotal.WithLabelValues(string(rec.Status), "").Inc()
		log.Debug("Submission committed", "tx_hash", rec.TxHash, "nonce", rec.Nonce, "attempts", st.attempts)
	}

	if a.journal == nil {
		return
	}
	if jerr := a.journal.Record(context.WithoutCancel(ctx), rec); jerr != nil {
		log.Error("Failed to record submission", "error", jerr)
	}
}
