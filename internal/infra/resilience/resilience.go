// Package resilience provides fault-tolerance patterns for outbound calls:
// retry with exponential backoff, circuit breaker, and bulkhead.
package resilience

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// Config holds resilience parameters.
type Config struct {
	MaxRetries     int
	InitialBackoff time.Duration
	MaxConcurrency int
}

// PermanentError marks a failure that retrying cannot fix (bad payload, 4xx).
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string { return e.Err.Error() }
func (e *PermanentError) Unwrap() error { return e.Err }

// Permanent wraps err so RetryWithBackoff returns it immediately.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &PermanentError{Err: err}
}

// RetryWithBackoff executes fn with exponential backoff + jitter.
// It stops early on context cancellation or a PermanentError.
func RetryWithBackoff(ctx context.Context, cfg Config, fn func() error) error {
	var lastErr error
	for attempt := 0; attempt <= cfg.MaxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		var perm *PermanentError
		if errors.As(lastErr, &perm) {
			return perm.Err
		}

		if attempt < cfg.MaxRetries {
			backoff := time.Duration(math.Pow(2, float64(attempt))) * cfg.InitialBackoff
			wait := backoff
			if half := int64(backoff / 2); half > 0 {
				wait += time.Duration(rand.Int63n(half))
			}

			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(wait):
			}
		}
	}
	return lastErr
}

// NewCircuitBreaker creates a circuit breaker that trips at a 60% failure
// ratio over at least 5 requests and logs every state change.
func NewCircuitBreaker(name string, logger *zap.Logger) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 3,
		Interval:    30 * time.Second,
		Timeout:     10 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 5 && failureRatio >= 0.6
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			if logger != nil {
				logger.Warn("circuit breaker state change",
					zap.String("breaker", name),
					zap.String("from", from.String()),
					zap.String("to", to.String()),
				)
			}
		},
	})
}

// Bulkhead limits concurrent access to a resource.
type Bulkhead struct {
	sem chan struct{}
}

// NewBulkhead creates a bulkhead with the given max concurrency.
// Values below 1 are treated as 1.
func NewBulkhead(maxConcurrency int) *Bulkhead {
	return &Bulkhead{sem: make(chan struct{}, max(1, maxConcurrency))}
}

// Acquire blocks until a slot is available or ctx is done.
func (b *Bulkhead) Acquire(ctx context.Context) error {
	select {
	case b.sem <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Release frees a slot.
func (b *Bulkhead) Release() {
	<-b.sem
}
