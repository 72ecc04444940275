package keystore

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/vietddude/submitter/internal/core/domain"
)

// RedisConfig holds Redis connection configuration.
type RedisConfig struct {
	URL      string `yaml:"url"`
	Password string `yaml:"password"`
}

// Redis stores keys under keystore:<network>:<account>.
type Redis struct {
	rdb *redis.Client
}

// NewRedis connects to Redis and verifies the connection.
func NewRedis(cfg RedisConfig) (*Redis, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}
	if cfg.Password != "" {
		opts.Password = cfg.Password
	}

	rdb := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &Redis{rdb: rdb}, nil
}

// Close closes the Redis connection.
func (r *Redis) Close() error {
	return r.rdb.Close()
}

func keyFor(networkID, accountID string) string {
	return fmt.Sprintf("keystore:%s:%s", networkID, accountID)
}

func (r *Redis) SetKey(ctx context.Context, networkID, accountID string, kp *domain.KeyPair) error {
	data, err := encodeRecord(accountID, kp)
	if err != nil {
		return err
	}
	if err := r.rdb.Set(ctx, keyFor(networkID, accountID), data, 0).Err(); err != nil {
		return fmt.Errorf("set failed: %w", err)
	}
	return nil
}

func (r *Redis) GetKey(ctx context.Context, networkID, accountID string) (*domain.KeyPair, error) {
	data, err := r.rdb.Get(ctx, keyFor(networkID, accountID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get failed: %w", err)
	}
	return decodeRecord(data)
}

func (r *Redis) RemoveKey(ctx context.Context, networkID, accountID string) error {
	return r.rdb.Del(ctx, keyFor(networkID, accountID)).Err()
}

func (r *Redis) GetAccounts(ctx context.Context, networkID string) ([]string, error) {
	prefix := keyFor(networkID, "")
	var (
		accounts []string
		cursor   uint64
	)
	for {
		keys, next, err := r.rdb.Scan(ctx, cursor, prefix+"*", 100).Result()
		if err != nil {
			return nil, fmt.Errorf("scan failed: %w", err)
		}
		for _, k := range keys {
			accounts = append(accounts, strings.TrimPrefix(k, prefix))
		}
		cursor = next
		if cursor == 0 {
			break
		}
	}
	sort.Strings(accounts)
	return accounts, nil
}
