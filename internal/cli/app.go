package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/vietddude/submitter/internal/core/config"
	"github.com/vietddude/submitter/internal/core/domain"
	"github.com/vietddude/submitter/internal/core/keycache"
	"github.com/vietddude/submitter/internal/core/submit"
	"github.com/vietddude/submitter/internal/core/txerror"
	"github.com/vietddude/submitter/internal/health"
	"github.com/vietddude/submitter/internal/infra/keystore"
	"github.com/vietddude/submitter/internal/infra/rpc"
	"github.com/vietddude/submitter/internal/infra/rpc/provider"
	"github.com/vietddude/submitter/internal/infra/rpc/routing"
	"github.com/vietddude/submitter/internal/infra/signer"
	"github.com/vietddude/submitter/internal/infra/storage"
	"github.com/vietddude/submitter/internal/infra/storage/postgres"
)

// app wires the components for one command invocation.
type app struct {
	cfg       *config.AppConfig
	providers []*provider.HTTPProvider
	client    *rpc.Client
	keys      keystore.KeyStore
	journal   storage.JournalRepository
	db        *postgres.DB
	health    *health.Server
	closers   []func() error
}

func newApp(ctx context.Context, cfg *config.AppConfig) (*app, error) {
	a := &app{cfg: cfg}

	urls := append([]string{cfg.Network.URL}, cfg.Network.FallbackURLs...)
	for i, url := range urls {
		p := provider.NewHTTPProvider(provider.HTTPConfig{
			Name:              fmt.Sprintf("%s-%d", cfg.Network.ID, i),
			URL:               url,
			Timeout:           cfg.Network.Timeout,
			RequestsPerSecond: cfg.Network.RequestsPerSecond,
			Burst:             cfg.Network.Burst,
			Headers:           cfg.Network.Headers,
		})
		a.providers = append(a.providers, p)
		a.closers = append(a.closers, p.Close)
	}

	var caller provider.Caller = a.providers[0]
	if len(a.providers) > 1 {
		callers := make([]provider.Caller, len(a.providers))
		for i, p := range a.providers {
			callers[i] = p
		}
		caller = routing.NewRouter(0, callers...)
	}
	a.client = rpc.NewClient(caller, rpc.WithRetryConfig(cfg.Retry.RPC))

	keys, err := openKeyStore(cfg.KeyStore)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.keys = keys

	if cfg.Database.URL != "" {
		db, err := postgres.NewDB(ctx, cfg.Database)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.closers = append(a.closers, db.Close)
		if err := db.Migrate(ctx); err != nil {
			a.Close()
			return nil, err
		}
		a.db = db
		a.journal = postgres.NewJournalRepo(db)
	}

	if cfg.Metrics.Addr != "" {
		a.startHealth(cfg.Metrics.Addr)
	}
	return a, nil
}

func openKeyStore(kc config.KeyStoreConfig) (keystore.KeyStore, error) {
	switch kc.Type {
	case "memory":
		return keystore.NewMemory(), nil
	case "file":
		return keystore.NewFile(kc.Dir), nil
	case "redis":
		ks, err := keystore.NewRedis(kc.Redis)
		if err != nil {
			return nil, err
		}
		return ks, nil
	default:
		return nil, fmt.Errorf("unknown keystore type %q", kc.Type)
	}
}

func (a *app) startHealth(addr string) {
	checks := []health.Check{{
		Name:     "node",
		Critical: true,
		Probe: func(ctx context.Context) error {
			return provider.AnyAvailable(a.providers)
		},
	}}
	if a.db != nil {
		checks = append(checks, health.Check{Name: "journal", Probe: a.db.Health})
	}

	a.health = health.NewServer(health.NewMonitor(10*time.Second, checks...), addr)
	go func() {
		if err := a.health.Start(); err != nil {
			slog.Error("Health server failed", "error", err)
		}
	}()
	slog.Info("Serving metrics", "addr", addr)
}

// account builds the submission engine for the configured account.
func (a *app) account() *submit.Account {
	cache := keycache.New(a.client, slog.Default())
	opts := []submit.Option{}
	if a.journal != nil {
		opts = append(opts, submit.WithJournal(a.journal))
	}
	return submit.NewAccount(
		submit.Config{
			AccountID: a.cfg.Account.ID,
			NetworkID: a.cfg.Network.ID,
			Retry:     a.cfg.Retry.Nonce,
		},
		a.client,
		cache,
		signer.NewInMemorySigner(a.keys),
		opts...,
	)
}

func (a *app) Close() {
	if a.health != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		_ = a.health.Stop(ctx)
		cancel()
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		_ = a.closers[i]()
	}
}

// outcomeView is the printed form of an Outcome.
type outcomeView struct {
	TransactionHash string        `json:"transaction_hash,omitempty"`
	Status          string        `json:"status"`
	SuccessValue    string        `json:"success_value,omitempty"`
	Receipts        []receiptView `json:"receipts,omitempty"`
	Error           *errorView    `json:"error,omitempty"`
}

type receiptView struct {
	ReceiptID  string   `json:"receipt_id"`
	ExecutorID string   `json:"executor_id"`
	Logs       []string `json:"logs,omitempty"`
	Failure    string   `json:"failure,omitempty"`
}

type errorView struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
	TxHash  string `json:"tx_hash,omitempty"`
}

func viewOutcome(o *domain.Outcome) outcomeView {
	v := outcomeView{
		TransactionHash: o.TransactionHash,
		Status:          string(o.Status),
		SuccessValue:    string(o.SuccessValue),
		Receipts:        make([]receiptView, 0, len(o.Receipts)),
	}
	for _, r := range o.Receipts {
		rv := receiptView{ReceiptID: r.ReceiptID, ExecutorID: r.ExecutorID, Logs: r.Logs}
		if r.Failure != nil {
			rv.Failure = r.Failure.Error()
		}
		v.Receipts = append(v.Receipts, rv)
	}
	return v
}

func viewError(err error) outcomeView {
	v := outcomeView{Status: string(domain.OutcomeFailure)}
	if e, ok := txerror.As(err); ok {
		v.TransactionHash = e.TxHash
		v.Error = &errorView{Kind: string(e.Kind), Message: e.Message, TxHash: e.TxHash}
		return v
	}
	v.Error = &errorView{Kind: string(txerror.KindUntyped), Message: err.Error()}
	return v
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}
