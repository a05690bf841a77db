package orchestrator

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sony/gobreaker"

	"github.com/aristath/prioritysync/internal/dispatch"
	"github.com/aristath/prioritysync/internal/taskapi"
)

// RetryConfig configures exponential backoff retry of transient API failures.
type RetryConfig struct {
	MaxRetries          int           // Retries after the first attempt (default 0: never retry)
	InitialInterval     time.Duration // Initial retry interval (default 500ms)
	MaxInterval         time.Duration // Maximum retry interval (default 10s)
	Multiplier          float64       // Backoff multiplier (default 2.0)
	RandomizationFactor float64       // Jitter factor (default 0.5)
}

// DefaultRetryConfig returns the default retry configuration.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:          0,
		InitialInterval:     500 * time.Millisecond,
		MaxInterval:         10 * time.Second,
		Multiplier:          2.0,
		RandomizationFactor: 0.5,
	}
}

// newBreaker creates the circuit breaker guarding the task API.
func newBreaker(name string) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    0,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			log.Printf("Circuit breaker %q: %s -> %s", name, from, to)
		},
		IsSuccessful: func(err error) bool {
			// A missing task is an answer, and an interruption says nothing about the API.
			return err == nil ||
				errors.Is(err, taskapi.ErrNotFound) ||
				errors.Is(err, dispatch.ErrInterrupted)
		},
	})
}

// callWithRetry runs attempt through the breaker, retrying transient failures
// with exponential backoff. Every attempt is a separate dispatcher call, so
// retries draw on the same request budget as everything else.
func callWithRetry(ctx context.Context, cb *gobreaker.CircuitBreaker, retryCfg RetryConfig, attempt func() error) error {
	operation := func() error {
		if ctx.Err() != nil {
			return backoff.Permanent(ctx.Err())
		}

		_, err := cb.Execute(func() (interface{}, error) {
			return nil, attempt()
		})
		if err == nil {
			return nil
		}

		// Circuit is open - don't retry
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return backoff.Permanent(err)
		}
		if ctx.Err() != nil || errors.Is(err, dispatch.ErrInterrupted) {
			return backoff.Permanent(err)
		}
		if !taskapi.IsTransient(err) {
			return backoff.Permanent(err)
		}
		return err
	}

	if retryCfg.MaxRetries <= 0 {
		return unwrapPermanent(operation())
	}

	backoffPolicy := backoff.NewExponentialBackOff()
	backoffPolicy.InitialInterval = retryCfg.InitialInterval
	backoffPolicy.MaxInterval = retryCfg.MaxInterval
	backoffPolicy.MaxElapsedTime = 0 // bounded by MaxRetries instead
	backoffPolicy.Multiplier = retryCfg.Multiplier
	backoffPolicy.RandomizationFactor = retryCfg.RandomizationFactor

	policy := backoff.WithContext(backoff.WithMaxRetries(backoffPolicy, uint64(retryCfg.MaxRetries)), ctx)
	return backoff.RetryNotify(operation, policy, func(err error, wait time.Duration) {
		log.Printf("WARNING: transient API failure, retrying in %v: %v", wait, err)
	})
}

func unwrapPermanent(err error) error {
	var perm *backoff.PermanentError
	if errors.As(err, &perm) {
		return perm.Err
	}
	return err
}
