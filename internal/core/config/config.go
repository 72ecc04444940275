package config

import (
	"time"

	"github.com/vietddude/submitter/internal/infra/keystore"
	"github.com/vietddude/submitter/internal/infra/rpc/routing"
	"github.com/vietddude/submitter/internal/infra/storage/postgres"
)

// AppConfig represents the top-level configuration.
type AppConfig struct {
	Network  NetworkConfig   `yaml:"network"`
	Retry    RetryConfig     `yaml:"retry"`
	Account  AccountConfig   `yaml:"account"`
	KeyStore KeyStoreConfig  `yaml:"keystore"`
	Database postgres.Config `yaml:"database"` // empty url disables the journal
	Metrics  MetricsConfig   `yaml:"metrics"`
	Logging  LoggingConfig   `yaml:"logging"`
}

// NetworkConfig holds the node endpoint.
type NetworkConfig struct {
	ID                string            `yaml:"id"`
	URL               string            `yaml:"url"`
	FallbackURLs      []string          `yaml:"fallback_urls"`
	Timeout           time.Duration     `yaml:"timeout"`
	RequestsPerSecond float64           `yaml:"requests_per_second"` // 0 = unlimited
	Burst             int               `yaml:"burst"`
	Headers           map[string]string `yaml:"headers"`
}

// RetryConfig holds the two backoff policies: rpc heals node timeouts,
// nonce heals stale nonces and expired block references.
type RetryConfig struct {
	RPC   routing.RetryConfig `yaml:"rpc"`
	Nonce routing.RetryConfig `yaml:"nonce"`
}

// AccountConfig names the signing account.
type AccountConfig struct {
	ID string `yaml:"id"`
}

// KeyStoreConfig selects where keys live.
type KeyStoreConfig struct {
	Type  string               `yaml:"type"` // memory, file, redis
	Dir   string               `yaml:"dir"`
	Redis keystore.RedisConfig `yaml:"redis"`
}

// MetricsConfig holds the health and metrics listener.
type MetricsConfig struct {
	Addr string `yaml:"addr"` // empty disables the listener
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, text
}
