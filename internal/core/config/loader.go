package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v2"

	"github.com/vietddude/submitter/internal/infra/rpc/routing"
)

// Load reads configuration from a YAML file.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML content, expanding environment variables first, and
// applies defaults.
func Parse(data []byte) (*AppConfig, error) {
	var cfg AppConfig
	expandedData := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expandedData), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	cfg.applyDefaults()
	return &cfg, nil
}

func (c *AppConfig) applyDefaults() {
	if c.Network.ID == "" {
		c.Network.ID = "testnet"
	}
	if c.Network.Timeout == 0 {
		c.Network.Timeout = 30 * time.Second
	}
	c.Retry.RPC = withRetryDefaults(c.Retry.RPC)
	c.Retry.Nonce = withRetryDefaults(c.Retry.Nonce)

	if c.KeyStore.Type == "" {
		c.KeyStore.Type = "file"
	}
	if c.KeyStore.Type == "file" && c.KeyStore.Dir == "" {
		home, err := os.UserHomeDir()
		if err == nil {
			c.KeyStore.Dir = filepath.Join(home, ".near-credentials")
		}
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
}

func withRetryDefaults(r routing.RetryConfig) routing.RetryConfig {
	d := routing.DefaultRetryConfig
	if r.MaxAttempts == 0 {
		r.MaxAttempts = d.MaxAttempts
	}
	if r.InitialDelay == 0 {
		r.InitialDelay = d.InitialDelay
	}
	if r.BackoffMultiple == 0 {
		r.BackoffMultiple = d.BackoffMultiple
	}
	return r
}

// Validate rejects configurations the submitter cannot run with.
func (c *AppConfig) Validate() error {
	var errs []error
	if c.Network.URL == "" {
		errs = append(errs, errors.New("network.url is required"))
	}
	for name, r := range map[string]routing.RetryConfig{"rpc": c.Retry.RPC, "nonce": c.Retry.Nonce} {
		if r.MaxAttempts <= 0 {
			errs = append(errs, fmt.Errorf("retry.%s.max_attempts must be positive", name))
		}
		if r.BackoffMultiple < 1 {
			errs = append(errs, fmt.Errorf("retry.%s.multiplier must be at least 1", name))
		}
	}
	switch c.KeyStore.Type {
	case "memory", "file", "redis":
	default:
		errs = append(errs, fmt.Errorf("unknown keystore type %q", c.KeyStore.Type))
	}
	if c.KeyStore.Type == "redis" && c.KeyStore.Redis.URL == "" {
		errs = append(errs, errors.New("keystore.redis.url is required for the redis keystore"))
	}
	return errors.Join(errs...)
}
