package service

import (
	"context"
	"math/rand/v2"
	"time"

	log "github.com/sirupsen/logrus"
)

type retryPolicy struct {
	maxAttempts int
	backoff     time.Duration
}

// withRetry runs fn until it succeeds, fails with a non-retryable error or
// runs out of attempts. Only concurrent modifications are retried.
func withRetry(ctx context.Context, policy retryPolicy, metrics Metrics, operation string, fn func() error) error {
	attempts := policy.maxAttempts
	if attempts < 1 {
		attempts = 1
	}
	backoff := policy.backoff

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		err = fn()
		if err == nil || !IsRetryable(err) {
			return err
		}
		if attempt == attempts {
			break
		}

		log.WithFields(log.Fields{
			"operation": operation,
			"attempt":   attempt,
			"error":     err,
		}).Warn("Concurrent modification, retrying")
		metrics.TransactionRetried(ctx, operation)

		if sleepErr := sleepWithContext(ctx, jittered(backoff)); sleepErr != nil {
			return sleepErr
		}
		backoff *= 2
	}

	log.WithFields(log.Fields{
		"operation": operation,
		"attempts":  attempts,
	}).Error("Giving up after repeated concurrent modifications")
	return err
}

// jittered returns a duration in [d/2, d] so that transactions which
// conflicted together do not retry in lockstep
func jittered(d time.Duration) time.Duration {
	if d <= 1 {
		return d
	}
	half := d / 2
	return half + rand.N(d-half+1)
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
