package discord

import (
	"errors"
	"fmt"
	"log"
	"math/rand"
	"time"
)

// withRetry executes fn with bounded retries and exponential backoff.
// Failures with no response and retryable API errors (429, 5xx) get another
// attempt; other 4xx responses fail immediately. A Retry-After hint from the
// server overrides the computed delay, still capped at the configured
// maximum.
func (c *Client) withRetry(operation string, fn func() error) error {
	var lastErr error
	delay := c.cfg.InitialBackoff
	attempts := c.cfg.MaxRetries + 1

	for attempt := 1; attempt <= attempts; attempt++ {
		lastErr = fn()
		if lastErr == nil {
			if attempt > 1 {
				log.Printf("[Retry] %s succeeded on attempt %d/%d", operation, attempt, attempts)
			}
			return nil
		}

		if !isRetryable(lastErr) {
			return lastErr
		}
		if attempt == attempts {
			break
		}

		wait := delay
		var apiErr *APIError
		if errors.As(lastErr, &apiErr) && apiErr.RetryAfter > 0 {
			wait = apiErr.RetryAfter
		}
		wait = jitter(wait)
		if wait > c.cfg.MaxBackoff {
			wait = c.cfg.MaxBackoff
		}

		log.Printf("[Retry] %s attempt %d/%d failed (%v), retrying in %v", operation, attempt, attempts, lastErr, wait)
		c.sleep(wait)

		delay *= 2
		if delay > c.cfg.MaxBackoff {
			delay = c.cfg.MaxBackoff
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operation, attempts, lastErr)
}

// isRetryable treats transport failures (no response received) and
// retryable API errors as transient
func isRetryable(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Retryable()
	}
	return true
}

// jitter spreads a delay by up to ±10% to avoid synchronized retry storms
// across parallel CI jobs
func jitter(d time.Duration) time.Duration {
	factor := 0.9 + 0.2*rand.Float64()
	return time.Duration(float64(d) * factor)
}
