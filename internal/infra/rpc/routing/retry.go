package routing

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"
)

// RetryConfig defines retry behavior.
type RetryConfig struct {
	MaxAttempts     int           `yaml:"max_attempts"`
	InitialDelay    time.Duration `yaml:"initial_delay"`
	MaxDelay        time.Duration `yaml:"max_delay"` // 0 = uncapped
	BackoffMultiple float64       `yaml:"multiplier"`
}

// DefaultRetryConfig is the policy used by both the RPC channel and the nonce loop.
var DefaultRetryConfig = RetryConfig{
	MaxAttempts:     12,
	InitialDelay:    500 * time.Millisecond,
	BackoffMultiple: 1.5,
}

// ErrRetry is the retry signal. An attempt asks for another try by returning
// an error that matches it (see Again).
var ErrRetry = errors.New("retry requested")

type retrySignal struct {
	cause error
}

func (s *retrySignal) Error() string {
	if s.cause == nil {
		return ErrRetry.Error()
	}
	return fmt.Sprintf("%s: %v", ErrRetry, s.cause)
}

func (s *retrySignal) Is(target error) bool { return target == ErrRetry }

func (s *retrySignal) Unwrap() error { return s.cause }

// Again returns a retry signal carrying the condition that caused it.
func Again(cause error) error {
	return &retrySignal{cause: cause}
}

// ExhaustedError is returned by Retry when every attempt produced a retry
// signal. It still matches ErrRetry; turning exhaustion into a fatal error is
// the caller's job.
type ExhaustedError struct {
	Attempts int
	Last     error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("gave up after %d attempts: %v", e.Attempts, e.Last)
}

func (e *ExhaustedError) Unwrap() error { return e.Last }

// Retry invokes attempt until it returns a result or an error that is not a
// retry signal. Errors are never retried on their own. Between signals it
// sleeps InitialDelay * BackoffMultiple^(n-1).
func Retry[T any](
	ctx context.Context,
	config RetryConfig,
	attempt func(ctx context.Context, n int) (T, error),
) (T, error) {
	var zero T

	maxAttempts := config.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	var lastSignal error
	for n := 1; n <= maxAttempts; n++ {
		if err := ctx.Err(); err != nil {
			return zero, err
		}

		result, err := attempt(ctx, n)
		if err == nil {
			return result, nil
		}
		if !errors.Is(err, ErrRetry) {
			return zero, err
		}
		lastSignal = err

		if n == maxAttempts {
			break
		}

		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case <-time.After(Backoff(n, config)):
		}
	}

	return zero, &ExhaustedError{Attempts: maxAttempts, Last: lastSignal}
}

// Backoff returns the delay that follows the n-th attempt (1-based).
func Backoff(n int, config RetryConfig) time.Duration {
	mult := config.BackoffMultiple
	if mult < 1 {
		mult = 1
	}
	delay := float64(config.InitialDelay) * math.Pow(mult, float64(n-1))
	if config.MaxDelay > 0 && delay > float64(config.MaxDelay) {
		delay = float64(config.MaxDelay)
	}
	return time.Duration(delay)
}
